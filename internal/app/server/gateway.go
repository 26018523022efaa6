package server

import (
	"context"
	"time"

	"github.com/checkmate-live/checkmate/internal/domains/entities"
)

// Gateway is the persistence collaborator. The production implementation
// is internal/storage.Client; tests supply an in-memory fake. Writes are
// best effort: a failed write never blocks the in-memory game, it is
// logged for operator attention.
type Gateway interface {
	GetUser(ctx context.Context, email string) (entities.User, error)
	UserElo(ctx context.Context, email string) (int, error)
	AdjustElo(ctx context.Context, email string, delta int) error
	UserStatus(ctx context.Context, email string) (entities.UserStatus, error)
	UpdateUserStatus(ctx context.Context, email string, status int, suspensionUntil *time.Time) error
	ListUsers(ctx context.Context) ([]entities.User, error)
	DeleteUser(ctx context.Context, email string) error

	SaveLiveGame(ctx context.Context, game entities.LiveGame) error
	LiveGameByPlayer(ctx context.Context, email string) (entities.LiveGame, error)
	DeleteLiveGame(ctx context.Context, email string) error

	SaveHistory(ctx context.Context, record entities.HistoryRecord) error
	HistoryByPlayer(ctx context.Context, email string) ([]entities.HistoryRecord, error)
}
