package storage

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/checkmate-live/checkmate/internal/domains/entities"
)

const (
	playerWhiteIndex = "PlayerWhiteIndex"
	playerBlackIndex = "PlayerBlackIndex"
)

func (client *Client) LiveGameById(ctx context.Context, gameId string) (entities.LiveGame, error) {
	output, err := client.dynamodb.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: client.cfg.LiveGamesTableName,
		Key: map[string]types.AttributeValue{
			"GameId": &types.AttributeValueMemberS{Value: gameId},
		},
	})
	if err != nil {
		return entities.LiveGame{}, err
	}
	if output.Item == nil {
		return entities.LiveGame{}, ErrLiveGameNotFound
	}
	var game entities.LiveGame
	if err := attributevalue.UnmarshalMap(output.Item, &game); err != nil {
		return entities.LiveGame{}, err
	}
	return game, nil
}

// LiveGameByPlayer finds the identity's active game on either side of
// the board. At most one exists.
func (client *Client) LiveGameByPlayer(ctx context.Context, email string) (entities.LiveGame, error) {
	for _, index := range []struct {
		name string
		key  string
	}{
		{playerWhiteIndex, "PlayerWhite"},
		{playerBlackIndex, "PlayerBlack"},
	} {
		output, err := client.dynamodb.Query(ctx, &dynamodb.QueryInput{
			TableName:              client.cfg.LiveGamesTableName,
			IndexName:              aws.String(index.name),
			KeyConditionExpression: aws.String(index.key + " = :email"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":email": &types.AttributeValueMemberS{Value: email},
			},
			Limit: aws.Int32(1),
		})
		if err != nil {
			return entities.LiveGame{}, err
		}
		if len(output.Items) > 0 {
			var game entities.LiveGame
			if err := attributevalue.UnmarshalMap(output.Items[0], &game); err != nil {
				return entities.LiveGame{}, err
			}
			return game, nil
		}
	}
	return entities.LiveGame{}, ErrLiveGameNotFound
}

// SaveLiveGame upserts the full mutable snapshot, last write wins.
func (client *Client) SaveLiveGame(ctx context.Context, game entities.LiveGame) error {
	av, err := attributevalue.MarshalMap(game)
	if err != nil {
		return fmt.Errorf("failed to marshal live game: %w", err)
	}
	_, err = client.dynamodb.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: client.cfg.LiveGamesTableName,
		Item:      av,
	})
	if err != nil {
		return fmt.Errorf("failed to put live game: %w", err)
	}
	return nil
}

// DeleteLiveGame removes the identity's live-game row, first folding its
// reportedBy entries into the reported opponents' report counters.
func (client *Client) DeleteLiveGame(ctx context.Context, email string) error {
	game, err := client.LiveGameByPlayer(ctx, email)
	if err == ErrLiveGameNotFound {
		return nil
	}
	if err != nil {
		return err
	}
	for _, reporter := range game.ReportedBy {
		if err := client.IncrementReports(ctx, game.Opponent(reporter)); err != nil {
			return err
		}
	}
	_, err = client.dynamodb.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: client.cfg.LiveGamesTableName,
		Key: map[string]types.AttributeValue{
			"GameId": &types.AttributeValueMemberS{Value: game.GameId},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to delete live game: %w", err)
	}
	return nil
}
