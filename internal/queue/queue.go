package queue

import (
	"log"
	"sync"
	"time"

	"github.com/fleetduel/fleetduel/internal/models"
)

// DefaultTTL bounds how long an unmatched entry may wait before the client
// has to re-request matchmaking.
const DefaultTTL = 5 * time.Minute

// Handle is the transport side of a queued principal: liveness for the
// two-phase pairing check, Expire for TTL notifications.
type Handle interface {
	Alive() bool
	Expire()
}

// Entry is one waiting principal.
type Entry struct {
	Principal  models.Principal
	Handle     Handle
	EnqueuedAt time.Time
}

// PairFunc receives the two entries of a confirmed pairing, first-joined
// first. It runs outside the queue lock; both entries are already removed.
type PairFunc func(a, b Entry)

// Queue is a thread-safe FIFO of waiting principals. All state transitions
// (join, leave, pairing, expiry) run under one mutex so a pairing attempt is
// a single critical section.
type Queue struct {
	mu      sync.Mutex
	entries []*Entry
	byID    map[string]*Entry
	ttl     time.Duration
	onPair  PairFunc
}

func New(ttl time.Duration, onPair PairFunc) *Queue {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Queue{byID: make(map[string]*Entry), ttl: ttl, onPair: onPair}
}

// Join adds a principal to the queue and attempts a pairing. Joining is
// idempotent: a principal already waiting keeps its position (the transport
// handle is refreshed so a reconnecting client keeps receiving pushes).
// Returns the 1-based queue position; 0 when the join itself got paired.
// Dead and TTL-expired entries are dropped before the position is computed,
// so the reported position only counts entries that can still pair.
func (q *Queue) Join(p models.Principal, h Handle) int {
	q.mu.Lock()
	expired := q.pruneLocked(p.ID)
	if e, ok := q.byID[p.ID]; ok {
		e.Handle = h
		pos := q.positionLocked(p.ID)
		q.mu.Unlock()
		q.notifyExpired(expired)
		log.Printf("queue: join id=%s already waiting (pos=%d)", p.ID, pos)
		return pos
	}
	e := &Entry{Principal: p, Handle: h, EnqueuedAt: time.Now()}
	q.entries = append(q.entries, e)
	q.byID[p.ID] = e
	pos := len(q.entries)
	pair, ok := q.pairLocked()
	q.mu.Unlock()
	q.notifyExpired(expired)

	log.Printf("queue: join id=%s name=%q (pos=%d, paired=%v)", p.ID, p.DisplayName, pos, ok)
	if ok {
		q.onPair(pair[0], pair[1])
		return 0
	}
	return pos
}

// Leave removes a principal from the queue. A no-op when not present.
func (q *Queue) Leave(principalID string) bool {
	q.mu.Lock()
	_, ok := q.byID[principalID]
	if ok {
		q.removeLocked(principalID)
	}
	q.mu.Unlock()
	if ok {
		log.Printf("queue: leave id=%s", principalID)
	}
	return ok
}

// Len is the number of waiting entries.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

// Position returns the 1-based position of a waiting principal, 0 if absent.
func (q *Queue) Position(principalID string) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.positionLocked(principalID)
}

// Sweep drops entries whose TTL elapsed and dead-handle entries, returning
// the expired ones so the transport can notify their clients. Run
// periodically by the scheduler.
func (q *Queue) Sweep() []Entry {
	q.mu.Lock()
	expired := q.pruneLocked("")
	q.mu.Unlock()
	q.notifyExpired(expired)
	return expired
}

// pruneLocked drops TTL-expired entries (returned, so the caller can notify
// their handles outside the lock) and dead-handle entries (dropped
// silently). The exceptID entry is spared: a rejoining principal refreshes
// its handle rather than losing its place to its own dying connection.
func (q *Queue) pruneLocked(exceptID string) []Entry {
	cutoff := time.Now().Add(-q.ttl)
	var expired []Entry
	for i := 0; i < len(q.entries); {
		e := q.entries[i]
		if e.Principal.ID == exceptID {
			i++
			continue
		}
		if e.EnqueuedAt.Before(cutoff) {
			q.removeLocked(e.Principal.ID)
			expired = append(expired, *e)
			continue
		}
		if !e.Handle.Alive() {
			q.removeLocked(e.Principal.ID)
			continue
		}
		i++
	}
	return expired
}

func (q *Queue) notifyExpired(expired []Entry) {
	for i := range expired {
		expired[i].Handle.Expire()
	}
	if n := len(expired); n > 0 {
		log.Printf("queue: dropped %d expired entries", n)
	}
}

// pairLocked attempts to pair the two longest-waiting live entries. The
// candidates are peeked, not removed, until both transport handles are
// confirmed live; a dead candidate is dropped and pairing retried with the
// next one. Returns the confirmed pair after atomically removing both.
func (q *Queue) pairLocked() ([2]Entry, bool) {
	// Peek from the front, dropping dead entries as they are found, until
	// two live candidates are confirmed.
	var live []*Entry
	i := 0
	for i < len(q.entries) && len(live) < 2 {
		e := q.entries[i]
		if !e.Handle.Alive() {
			log.Printf("queue: dropping dead entry id=%s", e.Principal.ID)
			q.removeLocked(e.Principal.ID)
			continue // removal shifted the slice, same index again
		}
		live = append(live, e)
		i++
	}
	if len(live) < 2 {
		return [2]Entry{}, false
	}
	a, b := *live[0], *live[1]
	q.removeLocked(a.Principal.ID)
	q.removeLocked(b.Principal.ID)
	return [2]Entry{a, b}, true
}

func (q *Queue) positionLocked(principalID string) int {
	for i, e := range q.entries {
		if e.Principal.ID == principalID {
			return i + 1
		}
	}
	return 0
}

func (q *Queue) removeLocked(principalID string) {
	delete(q.byID, principalID)
	for i, e := range q.entries {
		if e.Principal.ID == principalID {
			q.entries = append(q.entries[:i], q.entries[i+1:]...)
			return
		}
	}
}
