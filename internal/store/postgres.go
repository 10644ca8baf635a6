package store

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Postgres is the durable Store implementation backed by gorm.
type Postgres struct {
	DB *gorm.DB
}

// OpenPostgres connects using a postgres DSN and migrates the coordinator's
// tables.
func OpenPostgres(dsn string) (*Postgres, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("store: connect postgres: %w", err)
	}
	if err := db.AutoMigrate(&MatchRecord{}, &PlayerRating{}); err != nil {
		return nil, fmt.Errorf("store: migrate: %w", err)
	}
	log.Printf("store: postgres connected and migrated")
	return &Postgres{DB: db}, nil
}

// SaveMatchRecord inserts the archived session. The record id is the session
// id, and conflicts are ignored, so retries of the same finalize are no-ops
// and an archived result is never rewritten.
func (p *Postgres) SaveMatchRecord(ctx context.Context, rec MatchRecord) error {
	err := p.DB.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&rec).Error
	if err != nil {
		return fmt.Errorf("store: save match %s: %w", rec.ID, err)
	}
	return nil
}

func (p *Postgres) GetMatchRecord(ctx context.Context, id string) (MatchRecord, error) {
	var rec MatchRecord
	err := p.DB.WithContext(ctx).First(&rec, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return MatchRecord{}, ErrNotFound
	}
	if err != nil {
		return MatchRecord{}, fmt.Errorf("store: get match %s: %w", id, err)
	}
	return rec, nil
}

func (p *Postgres) GetPlayerRating(ctx context.Context, principalID string) (PlayerRating, error) {
	var pr PlayerRating
	err := p.DB.WithContext(ctx).First(&pr, "principal_id = ?", principalID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return PlayerRating{}, ErrNotFound
	}
	if err != nil {
		return PlayerRating{}, fmt.Errorf("store: get rating %s: %w", principalID, err)
	}
	return pr, nil
}

func (p *Postgres) SavePlayerRating(ctx context.Context, pr PlayerRating) error {
	if pr.ID == "" {
		pr.ID = uuid.NewString()
	}
	err := p.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "principal_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"display_name", "rating", "wins", "losses", "games",
				"current_streak", "best_streak", "highest_rating", "updated_at",
			}),
		}).
		Create(&pr).Error
	if err != nil {
		return fmt.Errorf("store: save rating %s: %w", pr.PrincipalID, err)
	}
	return nil
}
