package server

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/checkmate-live/checkmate/internal/domains/entities"
	"github.com/checkmate-live/checkmate/internal/storage"
	"github.com/checkmate-live/checkmate/pkg/logging"
)

// handlePlayRequest puts the player into the open queue, starting a
// rated game immediately when a compatible opponent is waiting.
func (s *server) handlePlayRequest(c *client, identity string, data playRequestData) {
	if _, inGame := s.sessionByIdentity(identity); inGame {
		c.send(msgTypeAlreadyInGame, textData{Msg: msgAlreadyInGame})
		return
	}
	if s.matchmaker.isQueued(identity) {
		c.send(msgTypeAlreadyInGame, textData{Msg: msgAlreadyInGame})
		return
	}

	elo, err := s.gateway.UserElo(context.Background(), identity)
	if err != nil {
		logging.Warn("failed to read rating, using default",
			zap.String("player", identity), zap.Error(err))
		elo = entities.DefaultElo
	}

	opponent, matched := s.matchmaker.enqueue(c, identity, elo, data.Time)
	if !matched {
		c.send(msgTypeQueued, textData{Msg: "Waiting for an opponent..."})
		return
	}
	s.startSession(
		participant{conn: opponent.conn, identity: opponent.identity},
		participant{conn: c, identity: identity},
		data.Time, true)
}

func (s *server) handleRejoinRequest(c *client, identity string) {
	session, ok := s.sessionByIdentity(identity)
	if !ok {
		restored, err := s.restoreSession(context.Background(), identity)
		if err != nil {
			if !errors.Is(err, storage.ErrLiveGameNotFound) {
				logging.Error("failed to restore game",
					zap.String("player", identity), zap.Error(err))
			}
			c.send(msgTypeRejoinFailed, textData{Msg: msgNoLiveGame})
			return
		}
		session = restored
	}
	s.registry.bind(identity, c)
	session.rejoin(c, identity)
	logging.Info("player rejoined",
		zap.String("player", identity), zap.String("game_id", session.id))
}

func (s *server) handleMoveRequest(c *client, identity string, data moveRequestData) {
	session, ok := s.sessionByIdentity(identity)
	if !ok {
		return
	}
	session.applyMove(c, identity, data.Move)
}

func (s *server) handleGetProfile(c *client, identity string) {
	user, err := s.gateway.GetUser(context.Background(), identity)
	if err != nil {
		if !errors.Is(err, storage.ErrUserNotFound) {
			logging.Error("failed to load profile",
				zap.String("player", identity), zap.Error(err))
		}
		c.send(msgTypeError, textData{Msg: "User not found"})
		return
	}
	c.send(msgTypeProfileInfo, profileInfoData{
		Email:           user.Email,
		Username:        user.Username,
		Elo:             user.Elo,
		Status:          int(user.Status),
		Reports:         user.Reports,
		SuspensionUntil: user.SuspensionUntil,
		LatestTimestamp: user.LatestTimestamp,
	})
}

// handleRematchRequest pairs two former opponents when both ask within
// the rematch window. The first request registers a waiter and the
// requester is told to wait; the mirrored request consumes it and
// starts the game.
func (s *server) handleRematchRequest(c *client, identity string, data rematchRequestData) {
	if _, inGame := s.sessionByIdentity(identity); inGame {
		c.send(msgTypeAlreadyInGame, textData{Msg: msgAlreadyInGame})
		return
	}
	if data.Opponent == identity {
		c.send(msgTypeRematchFailed, textData{Msg: msgSelfRematch})
		return
	}
	if _, busy := s.sessionByIdentity(data.Opponent); busy || s.matchmaker.isQueued(data.Opponent) {
		c.send(msgTypeRematchFailed, textData{Msg: msgOpponentBusy})
		return
	}

	ctx := context.Background()
	myElo, err := s.gateway.UserElo(ctx, identity)
	if err != nil {
		myElo = entities.DefaultElo
	}
	theirElo, err := s.gateway.UserElo(ctx, data.Opponent)
	if err != nil {
		theirElo = entities.DefaultElo
	}
	if abs(myElo-theirElo) > maxRatingGap {
		c.send(msgTypeRematchFailed, textData{Msg: msgRatingMismatch})
		return
	}

	if !s.matchmaker.offerRematch(identity, data.Opponent, data.Time) {
		c.send(msgTypeRematchFailed, textData{Msg: msgWaitingOpponent})
		return
	}

	// Both sides agreed; clear any stale persisted games from before.
	for _, player := range []string{identity, data.Opponent} {
		if err := s.gateway.DeleteLiveGame(ctx, player); err != nil {
			logging.Warn("failed to clear stale live game",
				zap.String("player", player), zap.Error(err))
		}
	}

	opponentConn, _ := s.registry.lookup(data.Opponent)
	s.startSession(
		participant{conn: c, identity: identity},
		participant{conn: opponentConn, identity: data.Opponent},
		data.Time, true)
}

func (s *server) handleDeleteAccount(c *client, identity string) {
	if err := s.gateway.DeleteUser(context.Background(), identity); err != nil {
		logging.Error("failed to delete account",
			zap.String("player", identity), zap.Error(err))
		c.send(msgTypeError, textData{Msg: "Failed to delete account"})
		return
	}
	logging.Info("account deleted", zap.String("player", identity))
	c.send(msgTypeAccountDeleted, accountDeletedData{Email: identity})
}

func (s *server) handleCreateRoom(c *client, identity string, data createRoomData) {
	if _, inGame := s.sessionByIdentity(identity); inGame {
		c.send(msgTypeAlreadyInGame, textData{Msg: msgAlreadyInGame})
		return
	}
	if err := s.matchmaker.createRoom(data.RoomCode, c, identity, data.Time, data.IsRated); err != nil {
		c.send(msgTypeError, textData{Msg: msgRoomCodeTaken})
		return
	}
	c.send(msgTypePrivateQueueCreated, roomCodeData{RoomCode: data.RoomCode})
}

func (s *server) handleJoinRoom(c *client, identity string, data joinRoomData) {
	if _, inGame := s.sessionByIdentity(identity); inGame {
		c.send(msgTypeAlreadyInGame, textData{Msg: msgAlreadyInGame})
		return
	}
	room, err := s.matchmaker.joinRoom(data.RoomCode, identity)
	if err != nil {
		switch {
		case errors.Is(err, errOwnRoom):
			c.send(msgTypeError, textData{Msg: msgOwnRoom})
		default:
			c.send(msgTypeError, textData{Msg: msgRoomCodeUnknown})
		}
		return
	}
	session := s.startSession(
		participant{conn: room.host, identity: room.hostIdentity},
		participant{conn: c, identity: identity},
		room.timeControl, room.rated)
	session.mu.Lock()
	session.broadcastLocked(msgTypePrivateMatchCreated, roomCodeData{RoomCode: data.RoomCode})
	session.mu.Unlock()
}

func (s *server) handleCheckInGame(c *client, identity string) {
	if _, inGame := s.sessionByIdentity(identity); inGame {
		c.send(msgTypeInGameStatus, inGameStatusData{InGame: true})
		return
	}
	_, err := s.gateway.LiveGameByPlayer(context.Background(), identity)
	if err != nil && !errors.Is(err, storage.ErrLiveGameNotFound) {
		logging.Error("failed to check live game",
			zap.String("player", identity), zap.Error(err))
	}
	c.send(msgTypeInGameStatus, inGameStatusData{InGame: err == nil})
}

// handleCheckStatus reports suspension state, lifting an elapsed
// suspension on read. A player found suspended is forced out of any
// live game.
func (s *server) handleCheckStatus(c *client, identity string) {
	ctx := context.Background()
	state, err := s.gateway.UserStatus(ctx, identity)
	if err != nil {
		c.send(msgTypeStatusInfo, statusInfoData{Error: "User not found"})
		return
	}

	status := state.Status
	until := state.SuspensionUntil
	if status == entities.StatusSuspended && until != nil && !s.now().Before(*until) {
		if err := s.gateway.UpdateUserStatus(ctx, identity, entities.StatusActive, nil); err != nil {
			logging.Error("failed to restore account",
				zap.String("player", identity), zap.Error(err))
		} else {
			status = entities.StatusActive
			until = nil
		}
	}

	code := int(status)
	c.send(msgTypeStatusInfo, statusInfoData{Status: &code, SuspensionUntil: until})
	if status == entities.StatusSuspended {
		s.forceCloseIdentity(identity)
	}
}

func (s *server) handleDrawRequest(c *client, identity string) {
	session, ok := s.sessionByIdentity(identity)
	if !ok {
		c.send(msgTypeError, textData{Msg: msgNoLiveGame})
		return
	}
	session.requestDraw(c, identity)
}

func (s *server) handleDrawDecline(identity string) {
	if session, ok := s.sessionByIdentity(identity); ok {
		session.declineDraw(identity)
	}
}

// handleReportPlayer records a report against the opponent in the
// reporter's live game. Reports are acknowledged even when dropped so
// the reporter learns nothing about the cap.
func (s *server) handleReportPlayer(c *client, identity string, data reportPlayerData) {
	if session, ok := s.sessionByIdentity(identity); ok &&
		session.opponentOf(identity) == data.ReportedEmail {
		session.report(identity)
	}
	c.send(msgTypeReportAcknowledged, textData{Msg: msgReportThanks})
}

func (s *server) handlePing(c *client, data pingData) {
	ts := data.Ts
	if ts == 0 {
		ts = s.now().UnixMilli()
	}
	c.send(msgTypePong, pongData{Ts: ts})
}
