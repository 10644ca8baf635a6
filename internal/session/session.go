package session

import (
	"errors"
	"sync"
	"time"

	"github.com/fleetduel/fleetduel/internal/board"
	"github.com/fleetduel/fleetduel/internal/models"
	"github.com/fleetduel/fleetduel/internal/rating"
	"github.com/fleetduel/fleetduel/internal/store"
	"github.com/fleetduel/fleetduel/internal/strike"
)

type Status string

const (
	// StatusWaiting is a freshly created session: fleets generated, first
	// turn assigned, no strikes yet. Functionally identical to Active.
	StatusWaiting   Status = "waiting"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusAbandoned Status = "abandoned"
)

type Reason string

const (
	ReasonAllShipsDestroyed Reason = "all_ships_destroyed"
	ReasonDisconnect        Reason = "disconnect"
	ReasonTimeout           Reason = "timeout"
)

var (
	ErrNotAParticipant  = errors.New("session: principal is not a participant")
	ErrNotYourTurn      = errors.New("session: not your turn")
	ErrSessionNotActive = errors.New("session: session is not active")
)

// Config carries the session timing policy. Zero values fall back to the
// production defaults; tests shrink them.
type Config struct {
	TurnLimit  time.Duration // per-turn strike deadline
	GraceLimit time.Duration // disconnect grace window
	// MaxMissedTurns is how many consecutive turn deadlines one player may
	// miss before the session forfeits to the opponent.
	MaxMissedTurns int
	PersistRetries int
}

func (c Config) withDefaults() Config {
	if c.TurnLimit <= 0 {
		c.TurnLimit = 30 * time.Second
	}
	if c.GraceLimit <= 0 {
		c.GraceLimit = 10 * time.Second
	}
	if c.MaxMissedTurns <= 0 {
		c.MaxMissedTurns = 3
	}
	if c.PersistRetries <= 0 {
		c.PersistRetries = 3
	}
	return c
}

// Events receives server-push notifications. Callbacks run outside the
// session lock; implementations may not call back into the session
// synchronously from MatchCompleted.
type Events interface {
	TurnTimedOut(s *Session, timedOutIndex int)
	OpponentDisconnected(s *Session, disconnectedIndex int)
	OpponentReconnected(s *Session, reconnectedIndex int)
	MatchCompleted(s *Session, res Result)
}

// PlayerState is one side of a session. Mutated only by the session under
// its lock.
type PlayerState struct {
	Principal models.Principal
	Fleet     board.Layout

	strikes []int // ordered strike history
	struck  map[int]bool
	usage   strike.Usage

	connected   bool
	lastSeenAt  time.Time
	missedTurns int
}

// Result is the immutable outcome of a finished session. Deltas is keyed by
// principal id.
type Result struct {
	WinnerIndex int            `json:"winner_index"`
	WinnerID    string         `json:"winner_id"`
	Reason      Reason         `json:"reason"`
	Deltas      map[string]int `json:"rating_deltas"`
}

// StrikeOutcome is what an accepted strike reports back to the submitter
// and, via broadcast, the opponent.
type StrikeOutcome struct {
	PlayerIndex    int         `json:"player_index"`
	Kind           strike.Kind `json:"-"`
	Target         int         `json:"target"`
	Affected       []int       `json:"affected_cells"`
	Hits           []int       `json:"hits"`
	FleetDestroyed bool        `json:"fleet_destroyed"`
	NextTurn       int         `json:"next_turn"`
}

// Session owns all mutable state of one match between exactly two
// principals. Every mutation (strike submission, turn-timeout fire,
// disconnect and reconnect) is serialised by one mutex; sessions are
// fully independent of each other.
type Session struct {
	ID string

	mu            sync.Mutex
	players       [2]*PlayerState
	current       int
	turnSeq       int // bumped on every turn transition; stale timers check it
	turnStartedAt time.Time
	status        Status
	result        *Result

	turnTimer   *time.Timer
	graceTimers [2]*time.Timer

	cfg       Config
	events    Events
	store     store.Store
	createdAt time.Time
}

// New creates a session from two paired principals and their freshly
// generated fleets. The first-paired player (index 0) moves first.
func New(id string, principals [2]models.Principal, fleets [2]board.Layout, cfg Config, events Events, st store.Store) *Session {
	now := time.Now()
	s := &Session{
		ID:        id,
		status:    StatusWaiting,
		cfg:       cfg.withDefaults(),
		events:    events,
		store:     st,
		createdAt: now,
	}
	for i := range principals {
		s.players[i] = &PlayerState{
			Principal:  principals[i],
			Fleet:      fleets[i],
			struck:     make(map[int]bool),
			connected:  true,
			lastSeenAt: now,
		}
	}
	s.mu.Lock()
	s.turnStartedAt = now
	s.armTurnTimerLocked()
	s.mu.Unlock()
	return s
}

// SubmitStrike validates and applies one strike request. Any validation
// failure is rejected without mutating state. A miss flips the turn, a hit
// (at least one for powerups) keeps it.
func (s *Session) SubmitStrike(principalID string, kind strike.Kind, target int) (StrikeOutcome, error) {
	s.mu.Lock()
	if s.finishedLocked() {
		s.mu.Unlock()
		return StrikeOutcome{}, ErrSessionNotActive
	}
	idx := s.indexLocked(principalID)
	if idx < 0 {
		s.mu.Unlock()
		return StrikeOutcome{}, ErrNotAParticipant
	}
	if idx != s.current {
		s.mu.Unlock()
		return StrikeOutcome{}, ErrNotYourTurn
	}

	ps, opp := s.players[idx], s.players[1-idx]
	res, err := strike.Resolve(kind, target, ps.struck, ps.usage, opp.Fleet)
	if err != nil {
		s.mu.Unlock()
		return StrikeOutcome{}, err
	}

	for _, c := range res.Affected {
		ps.struck[c] = true
		ps.strikes = append(ps.strikes, c)
	}
	ps.usage.Consume(kind)
	ps.missedTurns = 0
	ps.lastSeenAt = time.Now()
	s.status = StatusActive

	out := StrikeOutcome{
		PlayerIndex:    idx,
		Kind:           kind,
		Target:         target,
		Affected:       res.Affected,
		Hits:           res.Hits,
		FleetDestroyed: res.FleetDestroyed,
	}

	if res.FleetDestroyed {
		result := s.finalizeLocked(idx, ReasonAllShipsDestroyed)
		out.NextTurn = idx
		s.mu.Unlock()
		s.events.MatchCompleted(s, result)
		return out, nil
	}

	s.advanceTurnLocked(len(res.Hits) == 0)
	out.NextTurn = s.current
	s.mu.Unlock()
	return out, nil
}

// MarkDisconnected records a transport-level disconnect and starts the
// grace timer for that player. Idempotent: repeated disconnect events for
// an already-disconnected player do not restart the timer.
func (s *Session) MarkDisconnected(principalID string) {
	s.mu.Lock()
	idx := s.indexLocked(principalID)
	if idx < 0 || s.finishedLocked() {
		s.mu.Unlock()
		return
	}
	ps := s.players[idx]
	if !ps.connected {
		s.mu.Unlock()
		return
	}
	ps.connected = false
	ps.lastSeenAt = time.Now()
	s.graceTimers[idx] = time.AfterFunc(s.cfg.GraceLimit, func() { s.onGraceExpired(idx) })
	s.mu.Unlock()
	s.events.OpponentDisconnected(s, idx)
}

// Reconnect cancels a pending grace timer and returns the full snapshot the
// client needs to resynchronise.
func (s *Session) Reconnect(principalID string) (Snapshot, error) {
	s.mu.Lock()
	idx := s.indexLocked(principalID)
	if idx < 0 {
		s.mu.Unlock()
		return Snapshot{}, ErrNotAParticipant
	}
	if s.finishedLocked() {
		s.mu.Unlock()
		return Snapshot{}, ErrSessionNotActive
	}
	ps := s.players[idx]
	wasDisconnected := !ps.connected
	ps.connected = true
	ps.lastSeenAt = time.Now()
	if t := s.graceTimers[idx]; t != nil {
		t.Stop()
		s.graceTimers[idx] = nil
	}
	snap := s.snapshotLocked(idx)
	s.mu.Unlock()
	if wasDisconnected {
		s.events.OpponentReconnected(s, idx)
	}
	return snap, nil
}

// Status returns the current lifecycle state.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Result returns the final outcome, nil while the session is live.
func (s *Session) Result() *Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.result == nil {
		return nil
	}
	r := *s.result
	return &r
}

// CurrentTurn is the index of the player to move.
func (s *Session) CurrentTurn() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Player returns the principal seated at an index.
func (s *Session) Player(idx int) models.Principal {
	return s.players[idx].Principal
}

// Index resolves a principal id to a seat, -1 when not a participant.
func (s *Session) Index(principalID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.indexLocked(principalID)
}

func (s *Session) indexLocked(principalID string) int {
	for i, ps := range s.players {
		if ps.Principal.ID == principalID {
			return i
		}
	}
	return -1
}

func (s *Session) finishedLocked() bool {
	return s.status == StatusCompleted || s.status == StatusAbandoned
}

// advanceTurnLocked applies the turn-advance policy after an accepted
// strike: flip on a miss, keep on a hit. Either way the deadline rearms and
// turnStartedAt restarts.
func (s *Session) advanceTurnLocked(flip bool) {
	if flip {
		s.current = 1 - s.current
	}
	s.turnSeq++
	s.turnStartedAt = time.Now()
	s.armTurnTimerLocked()
}

func (s *Session) armTurnTimerLocked() {
	if s.turnTimer != nil {
		s.turnTimer.Stop()
	}
	seq := s.turnSeq
	s.turnTimer = time.AfterFunc(s.cfg.TurnLimit, func() { s.onTurnTimeout(seq) })
}

// onTurnTimeout fires when no strike arrived within the turn limit. The
// sequence check makes a race against a just-accepted strike resolve to
// exactly one outcome: whichever transition took the lock first wins.
func (s *Session) onTurnTimeout(seq int) {
	s.mu.Lock()
	if s.finishedLocked() || seq != s.turnSeq {
		s.mu.Unlock()
		return
	}
	idx := s.current
	s.players[idx].missedTurns++
	if s.players[idx].missedTurns >= s.cfg.MaxMissedTurns {
		result := s.finalizeLocked(1-idx, ReasonTimeout)
		s.mu.Unlock()
		s.events.MatchCompleted(s, result)
		return
	}
	s.advanceTurnLocked(true)
	s.mu.Unlock()
	s.events.TurnTimedOut(s, idx)
}

// onGraceExpired fires when a disconnected player's grace window elapsed.
// A reconnect that raced the timer wins: the connected check runs under the
// same lock as Reconnect's transition. When both players are offline the
// earlier expiry settles the match: whoever disconnected first forfeits,
// and the opponent takes the win even though they are offline too.
func (s *Session) onGraceExpired(idx int) {
	s.mu.Lock()
	if s.finishedLocked() || s.players[idx].connected {
		s.mu.Unlock()
		return
	}
	result := s.finalizeLocked(1-idx, ReasonDisconnect)
	s.mu.Unlock()
	s.events.MatchCompleted(s, result)
}

// finalizeLocked is the single terminal transition. It computes rating
// deltas from the two pre-match ratings, stops every pending timer, and
// kicks off the asynchronous persistence of the already-computed result.
func (s *Session) finalizeLocked(winnerIdx int, reason Reason) Result {
	winner := s.players[winnerIdx].Principal
	loser := s.players[1-winnerIdx].Principal

	deltas := rating.MatchDeltas(winner.Rating, loser.Rating)
	if reason == ReasonDisconnect {
		deltas = deltas.WithDisconnectPenalty()
	}

	res := Result{
		WinnerIndex: winnerIdx,
		WinnerID:    winner.ID,
		Reason:      reason,
		Deltas: map[string]int{
			winner.ID: deltas.Winner,
			loser.ID:  deltas.Loser,
		},
	}
	s.result = &res
	if reason == ReasonAllShipsDestroyed {
		s.status = StatusCompleted
	} else {
		s.status = StatusAbandoned
	}

	if s.turnTimer != nil {
		s.turnTimer.Stop()
		s.turnTimer = nil
	}
	for i, t := range s.graceTimers {
		if t != nil {
			t.Stop()
			s.graceTimers[i] = nil
		}
	}

	rec := s.buildRecordLocked(res)
	go s.persist(rec, res, winnerIdx)
	return res
}
