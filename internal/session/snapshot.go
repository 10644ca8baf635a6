package session

import (
	"time"

	"github.com/fleetduel/fleetduel/internal/board"
	"github.com/fleetduel/fleetduel/internal/models"
	"github.com/fleetduel/fleetduel/internal/strike"
)

// Snapshot is the full public state one player needs to resynchronise after
// a reconnect: own fleet and strikes, opponent strikes and powerup usage,
// current turn. The opponent's unstruck fleet cells are never included.
type Snapshot struct {
	SessionID   string         `json:"session_id"`
	PlayerIndex int            `json:"player_index"`
	Status      Status         `json:"status"`
	Opponent    models.Summary `json:"opponent"`

	YourFleet       board.Layout `json:"your_fleet"`
	YourStrikes     []int        `json:"your_strikes"`
	OpponentStrikes []int        `json:"opponent_strikes"`
	YourUsage       strike.Usage `json:"your_powerups"`
	OpponentUsage   strike.Usage `json:"opponent_powerups"`

	CurrentTurn   int       `json:"current_turn"`
	YourTurn      bool      `json:"your_turn"`
	TurnStartedAt time.Time `json:"turn_started_at"`
}

// SnapshotFor returns the resync view for a participant without touching
// connection state.
func (s *Session) SnapshotFor(principalID string) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexLocked(principalID)
	if idx < 0 {
		return Snapshot{}, ErrNotAParticipant
	}
	return s.snapshotLocked(idx), nil
}

func (s *Session) snapshotLocked(idx int) Snapshot {
	ps, opp := s.players[idx], s.players[1-idx]
	return Snapshot{
		SessionID:       s.ID,
		PlayerIndex:     idx,
		Status:          s.status,
		Opponent:        opp.Principal.Summary(),
		YourFleet:       ps.Fleet,
		YourStrikes:     append([]int(nil), ps.strikes...),
		OpponentStrikes: append([]int(nil), opp.strikes...),
		YourUsage:       ps.usage,
		OpponentUsage:   opp.usage,
		CurrentTurn:     s.current,
		YourTurn:        s.current == idx,
		TurnStartedAt:   s.turnStartedAt,
	}
}
