package session

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/fleetduel/fleetduel/internal/rating"
	"github.com/fleetduel/fleetduel/internal/store"
)

// buildRecordLocked snapshots the finished session into its archive shape.
// Called exactly once, inside finalizeLocked.
func (s *Session) buildRecordLocked(res Result) store.MatchRecord {
	p1, p2 := s.players[0], s.players[1]
	fleet1, _ := json.Marshal(p1.Fleet)
	fleet2, _ := json.Marshal(p2.Fleet)
	strikes1, _ := json.Marshal(p1.strikes)
	strikes2, _ := json.Marshal(p2.strikes)
	return store.MatchRecord{
		ID:                 s.ID,
		Player1ID:          p1.Principal.ID,
		Player1Name:        p1.Principal.DisplayName,
		Player2ID:          p2.Principal.ID,
		Player2Name:        p2.Principal.DisplayName,
		WinnerID:           res.WinnerID,
		Reason:             string(res.Reason),
		Player1Delta:       res.Deltas[p1.Principal.ID],
		Player2Delta:       res.Deltas[p2.Principal.ID],
		Player1FleetJSON:   string(fleet1),
		Player2FleetJSON:   string(fleet2),
		Player1StrikesJSON: string(strikes1),
		Player2StrikesJSON: string(strikes2),
		StartedAt:          s.createdAt,
		FinishedAt:         time.Now(),
	}
}

// persist writes the archived record and both rating rows. The result is
// already computed and immutable: retries re-write the same values, and the
// record insert is idempotent on the session id, so a retry never re-runs
// rating computation or double-awards an outcome. Persistence failures are
// fatal only to durability, never to the in-memory outcome.
func (s *Session) persist(rec store.MatchRecord, res Result, winnerIdx int) {
	if s.store == nil {
		return
	}
	if err := s.retry(func(ctx context.Context) error {
		return s.store.SaveMatchRecord(ctx, rec)
	}); err != nil {
		log.Printf("session %s: archiving match record failed: %v", s.ID, err)
	}
	for i, ps := range s.players {
		p := ps.Principal
		delta := res.Deltas[p.ID]
		won := i == winnerIdx
		if err := s.retry(func(ctx context.Context) error {
			return s.applyRating(ctx, p.ID, p.DisplayName, p.Rating, delta, won)
		}); err != nil {
			log.Printf("session %s: rating update for %s failed: %v", s.ID, p.ID, err)
		}
	}
}

// applyRating folds one match result into the player's persisted rating
// row, creating it from the pre-match rating when absent.
func (s *Session) applyRating(ctx context.Context, principalID, name string, preMatch, delta int, won bool) error {
	row, err := s.store.GetPlayerRating(ctx, principalID)
	if errors.Is(err, store.ErrNotFound) {
		row = store.PlayerRating{
			PrincipalID:   principalID,
			DisplayName:   name,
			Rating:        preMatch,
			HighestRating: preMatch,
		}
	} else if err != nil {
		return err
	}

	prog := rating.Progress{
		Rating:        row.Rating,
		Wins:          row.Wins,
		Losses:        row.Losses,
		Games:         row.Games,
		CurrentStreak: row.CurrentStreak,
		BestStreak:    row.BestStreak,
		HighestRating: row.HighestRating,
	}
	if won {
		prog.ApplyWin(delta)
	} else {
		prog.ApplyLoss(delta)
	}

	row.DisplayName = name
	row.Rating = prog.Rating
	row.Wins = prog.Wins
	row.Losses = prog.Losses
	row.Games = prog.Games
	row.CurrentStreak = prog.CurrentStreak
	row.BestStreak = prog.BestStreak
	row.HighestRating = prog.HighestRating
	return s.store.SavePlayerRating(ctx, row)
}

func (s *Session) retry(op func(ctx context.Context) error) error {
	var err error
	for attempt := 0; attempt < s.cfg.PersistRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(time.Duration(attempt) * 500 * time.Millisecond)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err = op(ctx)
		cancel()
		if err == nil {
			return nil
		}
	}
	return err
}
