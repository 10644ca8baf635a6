package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

var ErrNotFound = errors.New("store: record not found")

// MatchRecord is the archived shape of one completed or abandoned session,
// keyed by session id so the finalize write is idempotent. Fleets and strike
// history are stored as JSON for audit/replay.
type MatchRecord struct {
	ID           string `gorm:"primaryKey" json:"id"` // session id
	Player1ID    string `gorm:"index;not null" json:"player1_id"`
	Player1Name  string `json:"player1_name"`
	Player2ID    string `gorm:"index;not null" json:"player2_id"`
	Player2Name  string `json:"player2_name"`
	WinnerID     string `json:"winner_id"`
	Reason       string `gorm:"type:varchar(32)" json:"reason"`
	Player1Delta int    `json:"player1_delta"`
	Player2Delta int    `json:"player2_delta"`

	Player1FleetJSON   string `gorm:"type:jsonb" json:"player1_fleet"`
	Player2FleetJSON   string `gorm:"type:jsonb" json:"player2_fleet"`
	Player1StrikesJSON string `gorm:"type:jsonb" json:"player1_strikes"`
	Player2StrikesJSON string `gorm:"type:jsonb" json:"player2_strikes"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	Timestamps
}

// PlayerRating is the persisted rating row for one principal.
type PlayerRating struct {
	ID          string `gorm:"primaryKey;type:uuid" json:"id"`
	PrincipalID string `gorm:"uniqueIndex;not null" json:"principal_id"`
	DisplayName string `json:"display_name"`

	Rating        int `json:"rating" gorm:"default:1000"`
	Wins          int `json:"wins" gorm:"default:0"`
	Losses        int `json:"losses" gorm:"default:0"`
	Games         int `json:"games" gorm:"default:0"`
	CurrentStreak int `json:"current_streak" gorm:"default:0"`
	BestStreak    int `json:"best_streak" gorm:"default:0"`
	HighestRating int `json:"highest_rating" gorm:"default:1000"`

	Timestamps
}

// Timestamps adds GORM auto-times.
type Timestamps struct {
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// Store is the durable record boundary for the coordinator. SaveMatchRecord
// must be idempotent on the record id: retrying a finalize write never
// duplicates or overwrites an archived result.
type Store interface {
	SaveMatchRecord(ctx context.Context, rec MatchRecord) error
	GetMatchRecord(ctx context.Context, id string) (MatchRecord, error)
	GetPlayerRating(ctx context.Context, principalID string) (PlayerRating, error)
	SavePlayerRating(ctx context.Context, pr PlayerRating) error
}
