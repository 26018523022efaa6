package storage

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/checkmate-live/checkmate/internal/domains/entities"
)

func (client *Client) GetUser(ctx context.Context, email string) (entities.User, error) {
	output, err := client.dynamodb.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: client.cfg.UsersTableName,
		Key: map[string]types.AttributeValue{
			"Email": &types.AttributeValueMemberS{Value: email},
		},
	})
	if err != nil {
		return entities.User{}, err
	}
	if output.Item == nil {
		return entities.User{}, ErrUserNotFound
	}
	var user entities.User
	if err := attributevalue.UnmarshalMap(output.Item, &user); err != nil {
		return entities.User{}, err
	}
	return user, nil
}

// UserElo returns the identity's rating, or the default for identities
// without a user row.
func (client *Client) UserElo(ctx context.Context, email string) (int, error) {
	user, err := client.GetUser(ctx, email)
	if err == ErrUserNotFound {
		return entities.DefaultElo, nil
	}
	if err != nil {
		return 0, err
	}
	return user.Elo, nil
}

func (client *Client) AdjustElo(ctx context.Context, email string, delta int) error {
	_, err := client.dynamodb.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: client.cfg.UsersTableName,
		Key: map[string]types.AttributeValue{
			"Email": &types.AttributeValueMemberS{Value: email},
		},
		UpdateExpression: aws.String("ADD Elo :delta"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":delta": &types.AttributeValueMemberN{Value: strconv.Itoa(delta)},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to adjust elo: %w", err)
	}
	return nil
}

func (client *Client) UserStatus(ctx context.Context, email string) (entities.UserStatus, error) {
	user, err := client.GetUser(ctx, email)
	if err != nil {
		return entities.UserStatus{}, err
	}
	return entities.UserStatus{
		Status:          user.Status,
		SuspensionUntil: user.SuspensionUntil,
	}, nil
}

func (client *Client) UpdateUserStatus(
	ctx context.Context,
	email string,
	status int,
	suspensionUntil *time.Time,
) error {
	expressionAttributeValues := map[string]types.AttributeValue{
		":status": &types.AttributeValueMemberN{Value: strconv.Itoa(status)},
	}
	updateExpression := "SET #status = :status REMOVE SuspensionUntil"
	if suspensionUntil != nil {
		updateExpression = "SET #status = :status, SuspensionUntil = :until"
		expressionAttributeValues[":until"] = &types.AttributeValueMemberS{
			Value: suspensionUntil.Format(time.RFC3339),
		}
	}
	_, err := client.dynamodb.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: client.cfg.UsersTableName,
		Key: map[string]types.AttributeValue{
			"Email": &types.AttributeValueMemberS{Value: email},
		},
		UpdateExpression:          aws.String(updateExpression),
		ExpressionAttributeNames:  map[string]string{"#status": "Status"},
		ExpressionAttributeValues: expressionAttributeValues,
	})
	if err != nil {
		return fmt.Errorf("failed to update user status: %w", err)
	}
	return nil
}

// IncrementReports bumps the identity's misconduct-report counter. It is
// applied for every reporter on a live game when the game is deleted.
func (client *Client) IncrementReports(ctx context.Context, email string) error {
	_, err := client.dynamodb.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: client.cfg.UsersTableName,
		Key: map[string]types.AttributeValue{
			"Email": &types.AttributeValueMemberS{Value: email},
		},
		UpdateExpression: aws.String("ADD Reports :one"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":one": &types.AttributeValueMemberN{Value: "1"},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to increment reports: %w", err)
	}
	return nil
}

// ListUsers scans the full user table. Used only by the periodic
// suspension sweep.
func (client *Client) ListUsers(ctx context.Context) ([]entities.User, error) {
	var users []entities.User
	var lastKey map[string]types.AttributeValue
	for {
		output, err := client.dynamodb.Scan(ctx, &dynamodb.ScanInput{
			TableName:         client.cfg.UsersTableName,
			ExclusiveStartKey: lastKey,
		})
		if err != nil {
			return nil, err
		}
		var page []entities.User
		if err := attributevalue.UnmarshalListOfMaps(output.Items, &page); err != nil {
			return nil, err
		}
		users = append(users, page...)
		lastKey = output.LastEvaluatedKey
		if lastKey == nil {
			break
		}
	}
	return users, nil
}

// DeleteUser removes the user row together with any live game and
// history rows naming the identity.
func (client *Client) DeleteUser(ctx context.Context, email string) error {
	if _, err := client.dynamodb.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: client.cfg.UsersTableName,
		Key: map[string]types.AttributeValue{
			"Email": &types.AttributeValueMemberS{Value: email},
		},
	}); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	if game, err := client.LiveGameByPlayer(ctx, email); err == nil {
		if _, err := client.dynamodb.DeleteItem(ctx, &dynamodb.DeleteItemInput{
			TableName: client.cfg.LiveGamesTableName,
			Key: map[string]types.AttributeValue{
				"GameId": &types.AttributeValueMemberS{Value: game.GameId},
			},
		}); err != nil {
			return fmt.Errorf("failed to delete live game: %w", err)
		}
	} else if err != ErrLiveGameNotFound {
		return err
	}

	records, err := client.HistoryByPlayer(ctx, email)
	if err != nil {
		return err
	}
	for _, record := range records {
		if _, err := client.dynamodb.DeleteItem(ctx, &dynamodb.DeleteItemInput{
			TableName: client.cfg.GameHistoryTableName,
			Key: map[string]types.AttributeValue{
				"GameId": &types.AttributeValueMemberS{Value: record.GameId},
				"EndedAt": &types.AttributeValueMemberS{
					Value: record.EndedAt.Format(time.RFC3339Nano),
				},
			},
		}); err != nil {
			return fmt.Errorf("failed to delete history record: %w", err)
		}
	}
	return nil
}
