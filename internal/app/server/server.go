package server

import (
	"context"
	"encoding/json"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/checkmate-live/checkmate/internal/storage"
	"github.com/checkmate-live/checkmate/pkg/logging"
	"github.com/checkmate-live/checkmate/pkg/utils"
)

// participant is one side of a pairing about to become a session. The
// conn may be nil when the identity is offline (rematch edge); such a
// player can still rejoin later.
type participant struct {
	conn     *client
	identity string
}

type server struct {
	address  string
	config   Config
	upgrader websocket.Upgrader

	gateway    Gateway
	registry   *registry
	matchmaker *matchmaker
	timers     *timerService

	mu       sync.Mutex
	byGameId map[string]*Session
	byPlayer map[string]*Session

	// coin decides white for a fresh pairing, now stamps clocks. Both
	// are swappable in tests.
	coin func() bool
	now  func() time.Time
}

func NewServer() *server {
	cfg := NewConfig()
	awsConfig, err := config.LoadDefaultConfig(context.TODO(), config.WithRegion(cfg.AwsRegion))
	if err != nil {
		logging.Fatal("failed to load aws config", zap.Error(err))
	}
	gateway := storage.NewClient(dynamodb.NewFromConfig(awsConfig), storage.Config{
		UsersTableName:       aws.String(cfg.UsersTableName),
		LiveGamesTableName:   aws.String(cfg.LiveGamesTableName),
		GameHistoryTableName: aws.String(cfg.GameHistoryTableName),
	})
	return newServerWith(cfg, gateway)
}

func newServerWith(cfg Config, gateway Gateway) *server {
	return &server{
		address: "0.0.0.0:" + cfg.Port,
		config:  cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		gateway:    gateway,
		registry:   newRegistry(),
		matchmaker: newMatchmaker(cfg.RematchWindow),
		timers:     newTimerService(cfg.TimerPeriod),
		byGameId:   make(map[string]*Session),
		byPlayer:   make(map[string]*Session),
		coin:       func() bool { return rand.Intn(2) == 0 },
		now:        time.Now,
	}
}

func (s *server) Start() error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebsocket)
	mux.HandleFunc("/games/history", s.handleHistoryLookup)

	go s.runSuspensionSweep(context.Background())

	logging.Info("websocket server started", zap.String("address", s.address))
	return http.ListenAndServe(s.address, mux)
}

func (s *server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Error("failed to upgrade connection", zap.Error(err))
		return
	}
	logging.Info("connection opened", zap.String("remote", conn.RemoteAddr().String()))
	s.serveConn(newClient(conn))
}

// serveConn is the per-connection read loop. Unparseable frames are
// dropped; a read error means the socket is gone.
func (s *server) serveConn(c *client) {
	defer s.handleDisconnect(c)
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logging.Warn("connection read error", zap.Error(err))
			}
			return
		}
		var msg inboundMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			logging.Warn("malformed message", zap.Error(err))
			continue
		}
		s.dispatch(c, msg)
	}
}

// handleDisconnect cleans up a dead socket. The game itself stays live:
// clocks keep running and the identity may rejoin from a new socket.
func (s *server) handleDisconnect(c *client) {
	s.registry.unbind(c)
	if identity := c.getIdentity(); identity != "" {
		s.matchmaker.remove(identity)
	}
	if gameId := c.getGameId(); gameId != "" {
		if session, ok := s.sessionByGameId(gameId); ok {
			session.detach(c)
		}
	}
	c.close()
	if identity := c.getIdentity(); identity != "" {
		logging.Info("connection closed", zap.String("player", identity))
	}
}

func (s *server) dispatch(c *client, msg inboundMessage) {
	if msg.Type == msgTypeAuth {
		s.handleAuth(c, msg.Token)
		return
	}
	identity := c.getIdentity()
	if identity == "" {
		// Everything but auth requires a bound identity.
		return
	}
	switch msg.Type {
	case msgTypePlayRequest:
		var data playRequestData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			return
		}
		s.handlePlayRequest(c, identity, data)
	case msgTypeRejoinRequest:
		s.handleRejoinRequest(c, identity)
	case msgTypeMoveRequest:
		var data moveRequestData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			return
		}
		s.handleMoveRequest(c, identity, data)
	case msgTypeForceClose:
		s.forceCloseIdentity(identity)
	case msgTypeGetProfile:
		s.handleGetProfile(c, identity)
	case msgTypeRematch:
		var data rematchRequestData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			return
		}
		s.handleRematchRequest(c, identity, data)
	case msgTypeDeleteAccount:
		s.handleDeleteAccount(c, identity)
	case msgTypeCreateRoom:
		var data createRoomData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			return
		}
		s.handleCreateRoom(c, identity, data)
	case msgTypeJoinRoom:
		var data joinRoomData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			return
		}
		s.handleJoinRoom(c, identity, data)
	case msgTypeCheckInGame:
		s.handleCheckInGame(c, identity)
	case msgTypeCheckStatus:
		s.handleCheckStatus(c, identity)
	case msgTypeDrawRequest:
		s.handleDrawRequest(c, identity)
	case msgTypeDrawDecline:
		s.handleDrawDecline(identity)
	case msgTypeReportPlayer:
		var data reportPlayerData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			return
		}
		s.handleReportPlayer(c, identity, data)
	case msgTypePing:
		var data pingData
		_ = json.Unmarshal(msg.Data, &data)
		s.handlePing(c, data)
	case msgTypeLogout:
		c.close()
	default:
		logging.Warn("unknown message type", zap.String("type", msg.Type))
	}
}

func (s *server) sessionByGameId(gameId string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.byGameId[gameId]
	return session, ok
}

func (s *server) sessionByIdentity(identity string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.byPlayer[identity]
	return session, ok
}

// startSession creates the authoritative game for a pairing, flips for
// color, registers it, pushes game_start to both sides and arms the
// shared clock.
func (s *server) startSession(a, b participant, timeControl int, rated bool) *Session {
	white, black := a, b
	if s.coin() {
		white, black = black, white
	}

	session := newSession(
		utils.GenerateUUID(),
		white.identity, black.identity,
		timeControl, rated,
		s.gateway, s.now, s.config.GraceDelay,
		s.teardownSession,
	)

	s.mu.Lock()
	s.byGameId[session.id] = session
	s.byPlayer[white.identity] = session
	s.byPlayer[black.identity] = session
	s.mu.Unlock()

	session.attach(white.conn)
	session.attach(black.conn)
	session.persist()
	session.sendGameStart(white.conn, white.identity)
	session.sendGameStart(black.conn, black.identity)
	s.timers.start(session, s.forceCloseIdentity)

	logging.Info("game started",
		zap.String("game_id", session.id),
		zap.String("white", white.identity),
		zap.String("black", black.identity),
		zap.Int("time", timeControl),
		zap.Bool("rated", rated))
	return session
}

// restoreSession revives a game from its persisted row after a process
// restart, re-registering it and re-arming its clock. Used by the
// rejoin path when no in-memory session exists.
func (s *server) restoreSession(ctx context.Context, identity string) (*Session, error) {
	row, err := s.gateway.LiveGameByPlayer(ctx, identity)
	if err != nil {
		return nil, err
	}
	session, err := restoredSession(row, s.gateway, s.now, s.config.GraceDelay, s.teardownSession)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if existing, ok := s.byPlayer[identity]; ok {
		// Lost the race against a concurrent restore.
		s.mu.Unlock()
		return existing, nil
	}
	s.byGameId[session.id] = session
	s.byPlayer[session.playerWhite] = session
	s.byPlayer[session.playerBlack] = session
	s.mu.Unlock()

	s.timers.start(session, s.forceCloseIdentity)
	logging.Info("game restored",
		zap.String("game_id", session.id),
		zap.String("white", session.playerWhite),
		zap.String("black", session.playerBlack))
	return session, nil
}

// teardownSession is invoked by a session exactly once, after settling.
func (s *server) teardownSession(session *Session) {
	s.timers.cancel(session.id)
	s.mu.Lock()
	delete(s.byGameId, session.id)
	if s.byPlayer[session.playerWhite] == session {
		delete(s.byPlayer, session.playerWhite)
	}
	if s.byPlayer[session.playerBlack] == session {
		delete(s.byPlayer, session.playerBlack)
	}
	s.mu.Unlock()
}

// forceCloseIdentity ends the identity's live game with a win for the
// opponent. Without a live game it is a no-op. This is also the flag
// fall path.
func (s *server) forceCloseIdentity(identity string) {
	if session, ok := s.sessionByIdentity(identity); ok {
		session.forceClose(identity)
	}
}

// handleHistoryLookup serves finished games for a player, most recent
// first.
func (s *server) handleHistoryLookup(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		http.Error(w, "missing email parameter", http.StatusBadRequest)
		return
	}
	records, err := s.gateway.HistoryByPlayer(r.Context(), email)
	if err != nil {
		logging.Error("failed to query game history", zap.Error(err))
		http.Error(w, "failed to query game history", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(records); err != nil {
		logging.Error("failed to encode game history", zap.Error(err))
	}
}
