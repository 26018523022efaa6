package storage

import (
	"context"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/checkmate-live/checkmate/internal/domains/entities"
)

func (client *Client) SaveHistory(ctx context.Context, record entities.HistoryRecord) error {
	av, err := attributevalue.MarshalMap(record)
	if err != nil {
		return fmt.Errorf("failed to marshal history record: %w", err)
	}
	_, err = client.dynamodb.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: client.cfg.GameHistoryTableName,
		Item:      av,
	})
	if err != nil {
		return fmt.Errorf("failed to put history record: %w", err)
	}
	return nil
}

// HistoryByPlayer returns every archived game the identity played,
// most recent first.
func (client *Client) HistoryByPlayer(ctx context.Context, email string) ([]entities.HistoryRecord, error) {
	var records []entities.HistoryRecord
	for _, index := range []struct {
		name string
		key  string
	}{
		{playerWhiteIndex, "PlayerWhite"},
		{playerBlackIndex, "PlayerBlack"},
	} {
		output, err := client.dynamodb.Query(ctx, &dynamodb.QueryInput{
			TableName:              client.cfg.GameHistoryTableName,
			IndexName:              aws.String(index.name),
			KeyConditionExpression: aws.String(index.key + " = :email"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":email": &types.AttributeValueMemberS{Value: email},
			},
			ScanIndexForward: aws.Bool(false),
		})
		if err != nil {
			return nil, err
		}
		var page []entities.HistoryRecord
		if err := attributevalue.UnmarshalListOfMaps(output.Items, &page); err != nil {
			return nil, err
		}
		records = append(records, page...)
	}
	// The two index queries come back sorted independently; merge them.
	sort.Slice(records, func(i, j int) bool {
		return records[i].EndedAt.After(records[j].EndedAt)
	})
	return records, nil
}
