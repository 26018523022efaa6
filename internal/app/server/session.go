package server

import (
	"context"
	"sync"
	"time"

	"github.com/notnil/chess"
	"go.uber.org/zap"

	"github.com/checkmate-live/checkmate/internal/domains/entities"
	"github.com/checkmate-live/checkmate/pkg/logging"
	"github.com/checkmate-live/checkmate/pkg/pgn"
	"github.com/checkmate-live/checkmate/pkg/rating"
)

// maxReportsPerGame caps the reportedBy set: one entry per participant.
const maxReportsPerGame = 2

// Session is the authoritative state machine for one live game. Every
// mutation (moves, clock ticks, draw negotiation, forced termination)
// is serialized behind mu; once ended it accepts no further mutation.
type Session struct {
	id          string
	playerWhite string
	playerBlack string
	isRated     bool
	timeControl int

	game      *game
	whiteTime int64
	blackTime int64
	lastStamp int64

	lastMove     string
	lastMoveFrom string
	lastMoveTo   string
	highlight    string

	drawRequesters map[string]struct{}
	reportedBy     []string

	clients []*client

	gateway    Gateway
	now        func() time.Time
	graceDelay time.Duration
	teardown   func(*Session)

	ended bool
	mu    sync.Mutex
}

func newSession(
	id string,
	playerWhite, playerBlack string,
	timeControl int,
	isRated bool,
	gateway Gateway,
	now func() time.Time,
	graceDelay time.Duration,
	teardown func(*Session),
) *Session {
	clock := int64(timeControl) * 60 * 1000
	return &Session{
		id:             id,
		playerWhite:    playerWhite,
		playerBlack:    playerBlack,
		isRated:        isRated,
		timeControl:    timeControl,
		game:           newGame(),
		whiteTime:      clock,
		blackTime:      clock,
		lastStamp:      now().UnixMilli(),
		drawRequesters: make(map[string]struct{}),
		gateway:        gateway,
		now:            now,
		graceDelay:     graceDelay,
		teardown:       teardown,
	}
}

// restoredSession rebuilds a session from its persisted row, replaying
// the move log to recover the position. The stored stamp carries over
// so time spent down stays on the clock of the side on move.
func restoredSession(
	row entities.LiveGame,
	gateway Gateway,
	now func() time.Time,
	graceDelay time.Duration,
	teardown func(*Session),
) (*Session, error) {
	g, err := replayGame(row.Moves)
	if err != nil {
		return nil, err
	}
	return &Session{
		id:             row.GameId,
		playerWhite:    row.PlayerWhite,
		playerBlack:    row.PlayerBlack,
		isRated:        row.IsRated,
		timeControl:    row.TimeControl,
		game:           g,
		whiteTime:      row.WhiteTime,
		blackTime:      row.BlackTime,
		lastStamp:      row.LastTimestamp,
		lastMove:       row.LastMove,
		lastMoveFrom:   row.LastMoveFrom,
		lastMoveTo:     row.LastMoveTo,
		highlight:      row.HighlightColor,
		drawRequesters: make(map[string]struct{}),
		reportedBy:     append([]string(nil), row.ReportedBy...),
		gateway:        gateway,
		now:            now,
		graceDelay:     graceDelay,
		teardown:       teardown,
	}, nil
}

func (s *Session) opponentOf(identity string) string {
	if identity == s.playerWhite {
		return s.playerBlack
	}
	return s.playerWhite
}

func (s *Session) colorOf(identity string) string {
	if identity == s.playerWhite {
		return "white"
	}
	return "black"
}

func (s *Session) attach(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attachLocked(c)
}

func (s *Session) attachLocked(c *client) {
	if c == nil {
		return
	}
	for _, existing := range s.clients {
		if existing == c {
			return
		}
	}
	s.clients = append(s.clients, c)
	c.setGameId(s.id)
}

// detach drops a connection without ending the game; the other side can
// keep playing and the detached identity may rejoin.
func (s *Session) detach(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.clients {
		if existing == c {
			s.clients = append(s.clients[:i], s.clients[i+1:]...)
			return
		}
	}
}

func (s *Session) connOfLocked(identity string) *client {
	for _, c := range s.clients {
		if c.getIdentity() == identity {
			return c
		}
	}
	return nil
}

func (s *Session) broadcastLocked(msgType string, data interface{}) {
	for _, c := range s.clients {
		c.send(msgType, data)
	}
}

func (s *Session) snapshotLocked() entities.LiveGame {
	moves := make([]entities.MoveRecord, len(s.game.moves))
	copy(moves, s.game.moves)
	reportedBy := make([]string, len(s.reportedBy))
	copy(reportedBy, s.reportedBy)
	return entities.LiveGame{
		GameId:         s.id,
		PlayerWhite:    s.playerWhite,
		PlayerBlack:    s.playerBlack,
		Fen:            s.game.FEN(),
		LastMove:       s.lastMove,
		LastMoveFrom:   s.lastMoveFrom,
		LastMoveTo:     s.lastMoveTo,
		HighlightColor: s.highlight,
		IsRated:        s.isRated,
		Moves:          moves,
		TimeControl:    s.timeControl,
		Turn:           s.game.turn(),
		Positions:      s.game.occupancy(),
		WhiteTime:      s.whiteTime,
		BlackTime:      s.blackTime,
		LastTimestamp:  s.lastStamp,
		ReportedBy:     reportedBy,
	}
}

func (s *Session) persist() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.persistLocked()
}

// persistLocked writes through to storage. Best effort: a failed write
// leaves the in-memory game authoritative and is logged for operators.
func (s *Session) persistLocked() {
	if err := s.gateway.SaveLiveGame(context.Background(), s.snapshotLocked()); err != nil {
		logging.Error("failed to persist live game",
			zap.String("game_id", s.id),
			zap.Error(err),
		)
	}
}

// stateFor composes the full resume payload for one side: position,
// clocks, move log, last move, and captured-piece tallies.
func (s *Session) stateForLocked(identity string) gameStartData {
	moves := make([]entities.MoveRecord, len(s.game.moves))
	copy(moves, s.game.moves)
	capturedWhite, capturedBlack := s.game.capturedPieces()
	return gameStartData{
		GameId:         s.id,
		Color:          s.colorOf(identity),
		Opponent:       s.opponentOf(identity),
		Fen:            s.game.FEN(),
		Time:           s.timeControl,
		Moves:          moves,
		Positions:      s.game.occupancy(),
		WhiteTime:      s.whiteTime,
		BlackTime:      s.blackTime,
		LastMoveFrom:   s.lastMoveFrom,
		LastMoveTo:     s.lastMoveTo,
		HighlightColor: s.highlight,
		CapturedWhite:  capturedWhite,
		CapturedBlack:  capturedBlack,
	}
}

func (s *Session) sendGameStart(c *client, identity string) {
	if c == nil {
		return
	}
	s.mu.Lock()
	data := s.stateForLocked(identity)
	s.mu.Unlock()
	c.send(msgTypeGameStart, data)
}

// rejoin re-attaches a returning connection and replays the full state.
// Clocks are not paused while a player is away; whatever time elapsed is
// already reflected here.
func (s *Session) rejoin(c *client, identity string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		c.send(msgTypeRejoinFailed, textData{Msg: msgNoLiveGame})
		return
	}
	s.attachLocked(c)
	reportedBy := make([]string, len(s.reportedBy))
	copy(reportedBy, s.reportedBy)
	c.send(msgTypeRejoin, rejoinData{
		gameStartData: s.stateForLocked(identity),
		ReportedBy:    reportedBy,
	})
}

// applyMove runs the move pipeline: turn check, lenient decode against
// the replayed position, mover-clock deduction, log append, persist,
// broadcast, terminal evaluation.
func (s *Session) applyMove(c *client, identity, moveText string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	// Settlement already closed both connections; a racing move that
	// slipped past the close is dropped, not answered.
	if s.ended {
		return
	}

	moverIsWhite := identity == s.playerWhite
	if (s.game.Position().Turn() == chess.White) != moverIsWhite {
		c.send(msgTypeInvalidMove, textData{Msg: msgNotYourTurn})
		return
	}

	pos := s.game.Position()
	move, err := s.game.applyLenient(moveText)
	if err != nil {
		c.send(msgTypeInvalidMove, textData{Msg: msgIllegalMove})
		return
	}
	san := chess.AlgebraicNotation{}.Encode(pos, move)

	// Elapsed time is charged to the mover, who has been on move since
	// lastStamp; the move is stored with the mover's remaining time.
	now := s.now().UnixMilli()
	elapsed := now - s.lastStamp
	s.lastStamp = now
	var moverClock int64
	if moverIsWhite {
		s.whiteTime = floorZero(s.whiteTime - elapsed)
		moverClock = s.whiteTime
	} else {
		s.blackTime = floorZero(s.blackTime - elapsed)
		moverClock = s.blackTime
	}

	record := entities.MoveRecord{San: san, ClockMs: moverClock}
	s.game.moves = append(s.game.moves, record)
	s.lastMove = san
	s.lastMoveFrom = move.S1().String()
	s.lastMoveTo = move.S2().String()
	s.highlight = highlightFor(move)

	s.persistLocked()

	captured := ""
	if move.HasTag(chess.EnPassant) {
		captured = "P"
	} else if move.HasTag(chess.Capture) {
		captured = pieceLetter(pos.Board().Piece(move.S2()).Type())
	}
	capturedWhite, capturedBlack := s.game.capturedPieces()
	s.broadcastLocked(msgTypeMove, moveData{
		Fen:            s.game.FEN(),
		Move:           record,
		LastMoveFrom:   s.lastMoveFrom,
		LastMoveTo:     s.lastMoveTo,
		Turn:           s.game.turn(),
		Positions:      s.game.occupancy(),
		WhiteTime:      s.whiteTime,
		BlackTime:      s.blackTime,
		HighlightColor: s.highlight,
		Captured:       captured,
		CapturedWhite:  capturedWhite,
		CapturedBlack:  capturedBlack,
	})

	mover := chess.White
	if !moverIsWhite {
		mover = chess.Black
	}
	if result, over := s.game.terminalResult(mover); over {
		s.settleLocked(result, "")
	}
}

// tick advances the clock of the side on move. Returns the identity
// that flagged, if either clock reached zero.
func (s *Session) tick() (loser string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return ""
	}
	now := s.now().UnixMilli()
	elapsed := now - s.lastStamp
	if elapsed <= 0 {
		return ""
	}
	s.lastStamp = now
	if s.game.turn() == "w" {
		s.whiteTime = floorZero(s.whiteTime - elapsed)
	} else {
		s.blackTime = floorZero(s.blackTime - elapsed)
	}

	s.persistLocked()
	s.broadcastLocked(msgTypeTimerUpdate, timerUpdateData{
		WhiteTime: s.whiteTime,
		BlackTime: s.blackTime,
		Turn:      s.game.turn(),
	})

	if s.whiteTime == 0 {
		return s.playerWhite
	}
	if s.blackTime == 0 {
		return s.playerBlack
	}
	return ""
}

// requestDraw registers a draw offer. A mirrored offer from the
// opponent resolves the negotiation as a draw immediately.
func (s *Session) requestDraw(c *client, identity string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return
	}
	s.drawRequesters[identity] = struct{}{}
	c.send(msgTypeDrawRequested, drawRequestedData{Msg: "Draw request sent to opponent."})

	opponent := s.opponentOf(identity)
	if oc := s.connOfLocked(opponent); oc != nil && oc != c {
		oc.send(msgTypeOpponentDrawRequested, drawRequestedData{From: identity})
	}
	if _, offered := s.drawRequesters[opponent]; offered {
		s.settleLocked(resultDraw, "")
	}
}

// declineDraw clears the negotiation without ending the game.
func (s *Session) declineDraw(identity string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return
	}
	opponent := s.opponentOf(identity)
	if oc := s.connOfLocked(opponent); oc != nil {
		oc.send(msgTypeDrawDeclined, drawRequestedData{From: identity})
	}
	delete(s.drawRequesters, identity)
	delete(s.drawRequesters, opponent)
}

// forceClose terminates the game against the named identity:
// resignation, flag-fall, and suspension all land here.
func (s *Session) forceClose(identity string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return
	}
	result := resultWhiteWin
	if identity == s.playerWhite {
		result = resultBlackWin
	}
	s.settleLocked(result, identity)
}

// report files a misconduct report by the given identity against its
// opponent. Idempotent per reporter, capped at two entries.
func (s *Session) report(reporter string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return false
	}
	for _, existing := range s.reportedBy {
		if existing == reporter {
			return false
		}
	}
	if len(s.reportedBy) >= maxReportsPerGame {
		return false
	}
	s.reportedBy = append(s.reportedBy, reporter)
	s.persistLocked()
	return true
}

// settleLocked finishes the game exactly once: rating deltas, history
// record, game_over broadcast, connection closure, live-row deletion.
// When forced names an identity, its connection is closed after a grace
// delay so the final event can be delivered, and the game_over payload
// names each side's opponent.
func (s *Session) settleLocked(result string, forced string) {
	if s.ended {
		return
	}
	s.ended = true
	ctx := context.Background()

	preWhite := s.eloOf(ctx, s.playerWhite)
	preBlack := s.eloOf(ctx, s.playerBlack)
	deltaWhite, deltaBlack := 0, 0
	if s.isRated {
		var deltas rating.Deltas
		switch result {
		case resultWhiteWin:
			deltas = rating.Decisive(preWhite, preBlack)
			deltaWhite, deltaBlack = deltas.Winner, deltas.Loser
		case resultBlackWin:
			deltas = rating.Decisive(preBlack, preWhite)
			deltaWhite, deltaBlack = deltas.Loser, deltas.Winner
		default:
			deltas = rating.Draw(preWhite, preBlack)
			deltaWhite, deltaBlack = deltas.Winner, deltas.Loser
		}
		if err := s.gateway.AdjustElo(ctx, s.playerWhite, deltaWhite); err != nil {
			logging.Error("failed to adjust rating", zap.String("identity", s.playerWhite), zap.Error(err))
		}
		if err := s.gateway.AdjustElo(ctx, s.playerBlack, deltaBlack); err != nil {
			logging.Error("failed to adjust rating", zap.String("identity", s.playerBlack), zap.Error(err))
		}
	}

	finalFen, err := pgn.FinalFEN(s.game.sanMoves())
	if err != nil {
		logging.Error("failed to derive final position",
			zap.String("game_id", s.id),
			zap.Error(err),
		)
		finalFen = s.game.FEN()
	}
	moves := make([]entities.MoveRecord, len(s.game.moves))
	copy(moves, s.game.moves)
	record := entities.HistoryRecord{
		GameId:       s.id,
		PlayerWhite:  s.playerWhite,
		PlayerBlack:  s.playerBlack,
		Moves:        moves,
		TimeControl:  int64(s.timeControl) * 60 * 1000,
		Result:       result,
		EloWhite:     preWhite,
		EloBlack:     preBlack,
		PostEloWhite: preWhite + deltaWhite,
		PostEloBlack: preBlack + deltaBlack,
		FinalFen:     finalFen,
		EndedAt:      s.now(),
	}
	if err := s.gateway.SaveHistory(ctx, record); err != nil {
		logging.Error("failed to save history record",
			zap.String("game_id", s.id),
			zap.Error(err),
		)
	}

	for _, c := range s.clients {
		data := gameOverData{Result: result}
		if forced != "" {
			data.Opponent = s.opponentOf(c.getIdentity())
		}
		c.send(msgTypeGameOver, data)
		if forced != "" && c.getIdentity() == forced {
			time.AfterFunc(s.graceDelay, c.close)
		} else {
			c.close()
		}
	}

	if err := s.gateway.DeleteLiveGame(ctx, s.playerWhite); err != nil {
		logging.Error("failed to delete live game",
			zap.String("game_id", s.id),
			zap.Error(err),
		)
	}

	logging.Info("game ended",
		zap.String("game_id", s.id),
		zap.String("result", result),
	)
	if s.teardown != nil {
		s.teardown(s)
	}
}

func (s *Session) eloOf(ctx context.Context, identity string) int {
	elo, err := s.gateway.UserElo(ctx, identity)
	if err != nil {
		logging.Error("failed to read rating", zap.String("identity", identity), zap.Error(err))
		return entities.DefaultElo
	}
	return elo
}

func floorZero(v int64) int64 {
	if v < 0 {
		return 0
	}
	return v
}
