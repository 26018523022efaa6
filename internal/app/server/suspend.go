package server

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/checkmate-live/checkmate/internal/domains/entities"
	"github.com/checkmate-live/checkmate/pkg/logging"
)

const (
	reportsLongSuspension  = 40
	reportsShortSuspension = 20
	longSuspension         = 10 * time.Hour
	shortSuspension        = time.Hour
	staleAccountAge        = 365 * 24 * time.Hour
)

// runSuspensionSweep periodically walks all accounts and applies the
// moderation rules: heavily reported accounts get suspended, accounts
// idle for over a year get disabled, and elapsed suspensions are lifted.
func (s *server) runSuspensionSweep(ctx context.Context) {
	ticker := time.NewTicker(s.config.SuspensionSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweepSuspensions(ctx)
		}
	}
}

func (s *server) sweepSuspensions(ctx context.Context) {
	users, err := s.gateway.ListUsers(ctx)
	if err != nil {
		logging.Error("suspension sweep failed to list users", zap.Error(err))
		return
	}
	now := s.now()
	for _, user := range users {
		status, until, changed := nextUserStatus(user, now)
		if !changed {
			continue
		}
		if err := s.gateway.UpdateUserStatus(ctx, user.Email, status, until); err != nil {
			logging.Error("failed to update account status",
				zap.String("player", user.Email), zap.Error(err))
			continue
		}
		logging.Info("account status changed",
			zap.String("player", user.Email),
			zap.Int("status", int(status)),
			zap.Timep("until", until))
	}
}

// nextUserStatus decides a single account's fate. Rules in priority
// order: stale accounts are disabled outright (no expiry), report
// counts trigger timed suspensions, and an expired suspension restores
// the account.
func nextUserStatus(user entities.User, now time.Time) (status int, until *time.Time, changed bool) {
	suspended := user.Status == entities.StatusSuspended
	switch {
	case user.LatestTimestamp.Before(now.Add(-staleAccountAge)):
		if suspended && user.SuspensionUntil == nil {
			return user.Status, nil, false
		}
		return entities.StatusSuspended, nil, true
	case user.Reports >= reportsLongSuspension && !suspended:
		expiry := now.Add(longSuspension)
		return entities.StatusSuspended, &expiry, true
	case user.Reports >= reportsShortSuspension && !suspended:
		expiry := now.Add(shortSuspension)
		return entities.StatusSuspended, &expiry, true
	case suspended && user.SuspensionUntil != nil && !now.Before(*user.SuspensionUntil):
		return entities.StatusActive, nil, true
	}
	return user.Status, user.SuspensionUntil, false
}
