package server

import (
	"context"
	"encoding/json"
	"io"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/checkmate-live/checkmate/internal/domains/entities"
	"github.com/checkmate-live/checkmate/internal/storage"
)

// recordedMessage is one decoded envelope captured by fakeConn.
type recordedMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// fakeConn is an in-memory wsConn that records everything written to it.
type fakeConn struct {
	mu     sync.Mutex
	sent   []recordedMessage
	closed bool
}

func (f *fakeConn) ReadMessage() (int, []byte, error) {
	return 0, nil, io.EOF
}

func (f *fakeConn) WriteMessage(_ int, data []byte) error {
	var msg recordedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeConn) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func (f *fakeConn) messagesOfType(msgType string) []recordedMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []recordedMessage
	for _, msg := range f.sent {
		if msg.Type == msgType {
			out = append(out, msg)
		}
	}
	return out
}

func (f *fakeConn) lastOfType(t *testing.T, msgType string) recordedMessage {
	t.Helper()
	msgs := f.messagesOfType(msgType)
	require.NotEmpty(t, msgs, "expected a %q message", msgType)
	return msgs[len(msgs)-1]
}

func decodeData(t *testing.T, raw json.RawMessage, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(raw, v))
}

func userWithElo(email string, elo int) entities.User {
	return entities.User{
		Email:  email,
		Elo:    elo,
		Status: entities.StatusActive,
	}
}

// fakeClock is an adjustable time source shared by a test's sessions.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// fakeGateway is an in-memory Gateway mirroring the storage client's
// observable behavior, including report folding on live-game deletion.
type fakeGateway struct {
	mu         sync.Mutex
	users      map[string]entities.User
	liveGames  map[string]entities.LiveGame
	history    []entities.HistoryRecord
	eloAdjusts map[string][]int
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		users:      make(map[string]entities.User),
		liveGames:  make(map[string]entities.LiveGame),
		eloAdjusts: make(map[string][]int),
	}
}

func (g *fakeGateway) putUser(user entities.User) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.users[user.Email] = user
}

func (g *fakeGateway) user(email string) (entities.User, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	user, ok := g.users[email]
	return user, ok
}

func (g *fakeGateway) liveGameCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.liveGames)
}

func (g *fakeGateway) liveGame(gameId string) (entities.LiveGame, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	game, ok := g.liveGames[gameId]
	return game, ok
}

func (g *fakeGateway) historyRecords() []entities.HistoryRecord {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]entities.HistoryRecord, len(g.history))
	copy(out, g.history)
	return out
}

func (g *fakeGateway) adjustmentsFor(email string) []int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]int(nil), g.eloAdjusts[email]...)
}

func (g *fakeGateway) GetUser(_ context.Context, email string) (entities.User, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	user, ok := g.users[email]
	if !ok {
		return entities.User{}, storage.ErrUserNotFound
	}
	return user, nil
}

func (g *fakeGateway) UserElo(_ context.Context, email string) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	user, ok := g.users[email]
	if !ok {
		return entities.DefaultElo, nil
	}
	return user.Elo, nil
}

func (g *fakeGateway) AdjustElo(_ context.Context, email string, delta int) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	user := g.users[email]
	user.Email = email
	user.Elo += delta
	g.users[email] = user
	g.eloAdjusts[email] = append(g.eloAdjusts[email], delta)
	return nil
}

func (g *fakeGateway) UserStatus(_ context.Context, email string) (entities.UserStatus, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	user, ok := g.users[email]
	if !ok {
		return entities.UserStatus{}, storage.ErrUserNotFound
	}
	return entities.UserStatus{Status: user.Status, SuspensionUntil: user.SuspensionUntil}, nil
}

func (g *fakeGateway) UpdateUserStatus(_ context.Context, email string, status int, until *time.Time) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	user := g.users[email]
	user.Email = email
	user.Status = status
	user.SuspensionUntil = until
	g.users[email] = user
	return nil
}

func (g *fakeGateway) ListUsers(_ context.Context) ([]entities.User, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []entities.User
	for _, user := range g.users {
		out = append(out, user)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

func (g *fakeGateway) DeleteUser(_ context.Context, email string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.users, email)
	return nil
}

func (g *fakeGateway) SaveLiveGame(_ context.Context, game entities.LiveGame) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.liveGames[game.GameId] = game
	return nil
}

func (g *fakeGateway) LiveGameByPlayer(_ context.Context, email string) (entities.LiveGame, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, game := range g.liveGames {
		if game.PlayerWhite == email || game.PlayerBlack == email {
			return game, nil
		}
	}
	return entities.LiveGame{}, storage.ErrLiveGameNotFound
}

func (g *fakeGateway) DeleteLiveGame(_ context.Context, email string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	for id, game := range g.liveGames {
		if game.PlayerWhite != email && game.PlayerBlack != email {
			continue
		}
		for _, reporter := range game.ReportedBy {
			reported := game.Opponent(reporter)
			user := g.users[reported]
			user.Email = reported
			user.Reports++
			g.users[reported] = user
		}
		delete(g.liveGames, id)
		return nil
	}
	return nil
}

func (g *fakeGateway) SaveHistory(_ context.Context, record entities.HistoryRecord) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.history = append(g.history, record)
	return nil
}

func (g *fakeGateway) HistoryByPlayer(_ context.Context, email string) ([]entities.HistoryRecord, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []entities.HistoryRecord
	for _, record := range g.history {
		if record.PlayerWhite == email || record.PlayerBlack == email {
			out = append(out, record)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EndedAt.After(out[j].EndedAt) })
	return out, nil
}
