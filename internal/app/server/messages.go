package server

import (
	"encoding/json"
	"time"

	"github.com/checkmate-live/checkmate/internal/domains/entities"
)

// Client -> server message kinds.
const (
	msgTypeAuth          = "auth"
	msgTypePlayRequest   = "play_request"
	msgTypeRejoinRequest = "rejoin_request"
	msgTypeMoveRequest   = "move"
	msgTypeForceClose    = "force_close"
	msgTypeGetProfile    = "get_profile"
	msgTypeRematch       = "rematch_request"
	msgTypeDeleteAccount = "delete_account"
	msgTypeCreateRoom    = "create_private_room"
	msgTypeJoinRoom      = "join_private_room"
	msgTypeCheckInGame   = "check_in_game"
	msgTypeCheckStatus   = "check_status"
	msgTypeDrawRequest   = "draw_request"
	msgTypeDrawDecline   = "draw_decline"
	msgTypeReportPlayer  = "report_player"
	msgTypePing          = "ping"
	msgTypeLogout        = "logout"
)

// Server -> client message kinds.
const (
	msgTypeAuthSuccess           = "auth_success"
	msgTypeAuthError             = "auth_error"
	msgTypeQueued                = "queued"
	msgTypeAlreadyInGame         = "already_in_game"
	msgTypeGameStart             = "game_start"
	msgTypeRejoin                = "rejoin"
	msgTypeRejoinFailed          = "rejoin_failed"
	msgTypeMove                  = "move"
	msgTypeTimerUpdate           = "timer_update"
	msgTypeInvalidMove           = "invalid_move"
	msgTypeGameOver              = "game_over"
	msgTypeDrawRequested         = "draw_requested"
	msgTypeOpponentDrawRequested = "opponent_draw_requested"
	msgTypeDrawDeclined          = "draw_declined"
	msgTypeRematchFailed         = "rematch_failed"
	msgTypeProfileInfo           = "profile_info"
	msgTypeAccountDeleted        = "account_deleted"
	msgTypeStatusInfo            = "status_info"
	msgTypeInGameStatus          = "in_game_status"
	msgTypePrivateQueueCreated   = "private_queue_created"
	msgTypePrivateMatchCreated   = "private_match_created"
	msgTypeReportAcknowledged    = "report_acknowledged"
	msgTypePong                  = "pong"
	msgTypeError                 = "error"
)

// Client -> server envelope. Every message except "auth" requires a
// previously bound identity on the connection.
type inboundMessage struct {
	Type  string          `json:"type"`
	Token string          `json:"token,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Server -> client envelope.
type outboundMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

type playRequestData struct {
	Time int `json:"time"`
}

type moveRequestData struct {
	Move string `json:"move"`
}

type rematchRequestData struct {
	Opponent string `json:"opponent"`
	Time     int    `json:"time"`
}

type createRoomData struct {
	RoomCode string `json:"roomCode"`
	Time     int    `json:"time"`
	IsRated  bool   `json:"isRated"`
}

type joinRoomData struct {
	RoomCode string `json:"roomCode"`
}

type reportPlayerData struct {
	ReportedEmail string `json:"reportedEmail"`
}

type pingData struct {
	Ts int64 `json:"ts"`
}

type authSuccessData struct {
	Email string `json:"email"`
}

type authErrorData struct {
	Reason string `json:"reason"`
}

type textData struct {
	Msg string `json:"msg"`
}

type gameStartData struct {
	GameId         string                `json:"game_id"`
	Color          string                `json:"color"`
	Opponent       string                `json:"opponent"`
	Fen            string                `json:"fen"`
	Time           int                   `json:"time"`
	Moves          []entities.MoveRecord `json:"moves"`
	Positions      map[string]string     `json:"positions"`
	WhiteTime      int64                 `json:"white_time"`
	BlackTime      int64                 `json:"black_time"`
	LastMoveFrom   string                `json:"last_move_from,omitempty"`
	LastMoveTo     string                `json:"last_move_to,omitempty"`
	HighlightColor string                `json:"highlight_color,omitempty"`
	CapturedWhite  []string              `json:"captured_white"`
	CapturedBlack  []string              `json:"captured_black"`
}

type rejoinData struct {
	gameStartData
	ReportedBy []string `json:"reported_by"`
}

type moveData struct {
	Fen            string               `json:"fen"`
	Move           entities.MoveRecord  `json:"move"`
	LastMoveFrom   string               `json:"last_move_from"`
	LastMoveTo     string               `json:"last_move_to"`
	Turn           string               `json:"turn"`
	Positions      map[string]string    `json:"positions"`
	WhiteTime      int64                `json:"white_time"`
	BlackTime      int64                `json:"black_time"`
	HighlightColor string               `json:"highlight_color"`
	Captured       string               `json:"captured,omitempty"`
	CapturedWhite  []string             `json:"captured_white"`
	CapturedBlack  []string             `json:"captured_black"`
}

type timerUpdateData struct {
	WhiteTime int64  `json:"white_time"`
	BlackTime int64  `json:"black_time"`
	Turn      string `json:"turn"`
}

type gameOverData struct {
	Result   string `json:"result"`
	Opponent string `json:"opponent,omitempty"`
}

type drawRequestedData struct {
	From string `json:"from,omitempty"`
	Msg  string `json:"msg,omitempty"`
}

type profileInfoData struct {
	Email           string     `json:"email"`
	Username        string     `json:"username"`
	Elo             int        `json:"elo"`
	Status          int        `json:"status"`
	Reports         int        `json:"reports"`
	SuspensionUntil *time.Time `json:"suspension_until"`
	LatestTimestamp time.Time  `json:"latest_timestamp"`
}

type statusInfoData struct {
	Status          *int       `json:"status"`
	SuspensionUntil *time.Time `json:"suspension_until"`
	Error           string     `json:"error,omitempty"`
}

type inGameStatusData struct {
	InGame bool `json:"inGame"`
}

type roomCodeData struct {
	RoomCode string `json:"roomCode"`
}

type pongData struct {
	Ts int64 `json:"ts"`
}

type accountDeletedData struct {
	Email string `json:"email"`
}
