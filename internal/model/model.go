package model

import (
	"time"

	"gorm.io/datatypes"
)

////////////////////////
// DATABASE STRUCTURES //
////////////////////////

// DatabaseModels is a list of all the structs exported here which represent tables in the database schema
var DatabaseModels = []interface{}{
	&Game{},
	&GameEvent{},
}

////////////////////////
// GAME MODELS
////////////////////////

// Game is the current state of one game. Board and players are stored as JSON
// documents; the history lives in GameEvent rows.
type Game struct {
	ID          string         `json:"_id" gorm:"primaryKey;size:64"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	Level       string         `json:"level" gorm:"size:16"`
	Phase       string         `json:"phase" gorm:"size:32;index"`
	CurrentTurn string         `json:"currentTurn" gorm:"size:8"`
	Sente       string         `json:"sente" gorm:"size:64"`
	Gote        string         `json:"gote" gorm:"size:64"`
	Winner      string         `json:"winner" gorm:"size:64"`
	Version     int            `json:"version"`
	Han         datatypes.JSON `json:"gungiHan"`
	Players     datatypes.JSON `json:"players"`
	Events      []GameEvent    `json:"-" gorm:"foreignKey:GameID"`
}

func (*Game) TableName() string {
	return "games"
}

// GameEvent is one entry of a game's history. Seq is its zero-based position.
type GameEvent struct {
	ID        uint           `json:"id" gorm:"primarykey;autoIncrement;"`
	GameID    string         `json:"gameId" gorm:"size:64;index:idx_game_event_seq,unique,priority:1"`
	Seq       int            `json:"seq" gorm:"index:idx_game_event_seq,unique,priority:2"`
	CreatedAt time.Time      `json:"createdAt"`
	Name      string         `json:"name" gorm:"size:32"`
	Data      datatypes.JSON `json:"data"`
}

func (*GameEvent) TableName() string {
	return "game_events"
}
