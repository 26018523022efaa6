package entities

import "time"

// MoveRecord is one entry of a game's move log: the move in SAN paired
// with the mover's remaining clock after making it.
type MoveRecord struct {
	San     string `dynamodbav:"San" json:"san"`
	ClockMs int64  `dynamodbav:"ClockMs" json:"clock_ms"`
}

// LiveGame is the durable snapshot of an in-progress game. Exactly one
// row exists per active game; it is upserted on every mutation and
// deleted when the game concludes.
type LiveGame struct {
	GameId         string            `dynamodbav:"GameId"`
	PlayerWhite    string            `dynamodbav:"PlayerWhite"`
	PlayerBlack    string            `dynamodbav:"PlayerBlack"`
	Fen            string            `dynamodbav:"Fen"`
	LastMove       string            `dynamodbav:"LastMove"`
	LastMoveFrom   string            `dynamodbav:"LastMoveFrom"`
	LastMoveTo     string            `dynamodbav:"LastMoveTo"`
	HighlightColor string            `dynamodbav:"HighlightColor"`
	IsRated        bool              `dynamodbav:"IsRated"`
	Moves          []MoveRecord      `dynamodbav:"Moves"`
	TimeControl    int               `dynamodbav:"TimeControl"`
	Turn           string            `dynamodbav:"Turn"`
	Positions      map[string]string `dynamodbav:"Positions"`
	WhiteTime      int64             `dynamodbav:"WhiteTime"`
	BlackTime      int64             `dynamodbav:"BlackTime"`
	LastTimestamp  int64             `dynamodbav:"LastTimestamp"`
	ReportedBy     []string          `dynamodbav:"ReportedBy"`
}

func (g *LiveGame) Opponent(identity string) string {
	if g.PlayerWhite == identity {
		return g.PlayerBlack
	}
	return g.PlayerWhite
}

// HistoryRecord is the immutable archival row written once at game end.
type HistoryRecord struct {
	GameId       string       `dynamodbav:"GameId" json:"game_id"`
	PlayerWhite  string       `dynamodbav:"PlayerWhite" json:"player_white"`
	PlayerBlack  string       `dynamodbav:"PlayerBlack" json:"player_black"`
	Moves        []MoveRecord `dynamodbav:"Moves" json:"moves"`
	TimeControl  int64        `dynamodbav:"TimeControl" json:"time_control"`
	Result       string       `dynamodbav:"Result" json:"result"`
	EloWhite     int          `dynamodbav:"EloWhite" json:"elo_white"`
	EloBlack     int          `dynamodbav:"EloBlack" json:"elo_black"`
	PostEloWhite int          `dynamodbav:"PostEloWhite" json:"post_elo_white"`
	PostEloBlack int          `dynamodbav:"PostEloBlack" json:"post_elo_black"`
	FinalFen     string       `dynamodbav:"FinalFen" json:"final_fen"`
	EndedAt      time.Time    `dynamodbav:"EndedAt" json:"ended_at"`
}
