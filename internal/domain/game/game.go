package game

import "time"

const (
	StatusActive   = "active"
	StatusFinished = "finished"
)

const (
	KindHuman    = "human"
	KindComputer = "computer"
)

type Player struct {
	ID     string  `json:"id" bson:"id"`
	Kind   string  `json:"kind" bson:"kind"`
	Rating float64 `json:"rating,omitempty" bson:"rating,omitempty"`
}

// Game is the persisted record of one game: identity, settings,
// players and the flat move log. The live board and cursor are not
// part of the record; they are rebuilt by replaying Moves.
type Game struct {
	GameKeySecret string       `json:"game_key_secret,omitempty" bson:"game_key_secret"`
	GameKeyPublic string       `json:"game_key_public" bson:"game_key_public"`
	Status        string       `json:"status" bson:"status"`
	BoardSize     int          `json:"board_size" bson:"board_size"`
	Komi          float64      `json:"komi" bson:"komi"`
	PlayerBlack   Player       `json:"player_black" bson:"player_black"`
	PlayerWhite   Player       `json:"player_white" bson:"player_white"`
	Moves         []MoveRecord `json:"moves" bson:"moves"`
	Winner        string       `json:"winner,omitempty" bson:"winner,omitempty"`
	CreatedAt     time.Time    `json:"created_at" bson:"created_at"`
	FinishedAt    *time.Time   `json:"finished_at,omitempty" bson:"finished_at,omitempty"`
}

// MoveRecord is one archived ply: "B" or "W" plus SGF coordinates
// (empty for a pass).
type MoveRecord struct {
	Color       string `json:"color" bson:"color"`
	Coordinates string `json:"coordinates" bson:"coordinates"`
}

type CreateGameRequest struct {
	BoardSize int     `json:"board_size"`
	Komi      float64 `json:"komi"`
	BlackKind string  `json:"black_kind"`
	WhiteKind string  `json:"white_kind"`
}

type GameCreateResponse struct {
	GameKeyPublic string `json:"game_key_public"`
	GameKeySecret string `json:"game_key_secret"`
}
