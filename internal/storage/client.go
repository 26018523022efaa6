// Package storage is the durable side of the game server: user rows,
// one live-game row per active game, and immutable history rows, all in
// DynamoDB. Writes are best-effort last-write-wins per game.
package storage

import (
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrLiveGameNotFound = errors.New("live game not found")
)

type Config struct {
	UsersTableName       *string
	LiveGamesTableName   *string
	GameHistoryTableName *string
}

type Client struct {
	dynamodb *dynamodb.Client
	cfg      Config
}

func NewClient(dynamoClient *dynamodb.Client, cfg Config) *Client {
	if cfg.UsersTableName == nil {
		cfg.UsersTableName = aws.String("Users")
	}
	if cfg.LiveGamesTableName == nil {
		cfg.LiveGamesTableName = aws.String("LiveGames")
	}
	if cfg.GameHistoryTableName == nil {
		cfg.GameHistoryTableName = aws.String("GameHistory")
	}
	return &Client{
		dynamodb: dynamoClient,
		cfg:      cfg,
	}
}
