package strike

import (
	"errors"
	"math/rand"
	"sort"
	"time"

	"github.com/fleetduel/fleetduel/internal/board"
)

// missileSalvo is how many extra random cells a missiles strike adds on top
// of the targeted cell.
const missileSalvo = 5

var (
	ErrAlreadyStruck  = errors.New("strike: cell already struck")
	ErrQuotaExhausted = errors.New("strike: powerup quota exhausted")
	ErrOutOfBounds    = errors.New("strike: target cell out of bounds")
)

// Result is the outcome of resolving one strike request. Affected holds the
// newly struck cells (already filtered against prior strikes), Hits the
// subset that landed on the opponent's fleet.
type Result struct {
	Affected       []int
	Hits           []int
	FleetDestroyed bool
}

func newRNG() *rand.Rand { return rand.New(rand.NewSource(time.Now().UnixNano())) }

// Resolve computes the cells affected by a strike of the given kind against
// the opponent's fleet. It is pure with respect to its inputs: the caller
// owns applying Affected to the striking player's state and consuming quota.
//
// prior is the striking player's cumulative strike set before this request.
func Resolve(kind Kind, target int, prior map[int]bool, usage Usage, opponent board.Layout) (Result, error) {
	return resolve(kind, target, prior, usage, opponent, newRNG())
}

func resolve(kind Kind, target int, prior map[int]bool, usage Usage, opponent board.Layout, rng *rand.Rand) (Result, error) {
	if !board.ValidCell(target) {
		return Result{}, ErrOutOfBounds
	}
	if usage.Exhausted(kind) {
		return Result{}, ErrQuotaExhausted
	}

	var cells []int
	switch kind {
	case Normal:
		if prior[target] {
			return Result{}, ErrAlreadyStruck
		}
		cells = []int{target}
	case Cluster:
		cells = clusterCells(target)
	case Missiles:
		cells = missileCells(target, prior, rng)
	case Nuke:
		cells = nukeCells(target)
	}

	// Filter out cells struck on an earlier turn so replaying a powerup at
	// the same target never double-counts a cell.
	affected := make([]int, 0, len(cells))
	dedup := make(map[int]bool, len(cells))
	for _, c := range cells {
		if prior[c] || dedup[c] {
			continue
		}
		dedup[c] = true
		affected = append(affected, c)
	}

	fleet := opponent.PositionSet()
	hits := make([]int, 0, len(affected))
	for _, c := range affected {
		if fleet[c] {
			hits = append(hits, c)
		}
	}

	destroyed := true
	for _, c := range opponent.Positions {
		if !prior[c] && !dedup[c] {
			destroyed = false
			break
		}
	}

	return Result{Affected: affected, Hits: hits, FleetDestroyed: destroyed}, nil
}

// clusterCells is the centre cell plus up to 4 diagonal neighbours, clipped
// to the board.
func clusterCells(target int) []int {
	row, col := board.Row(target), board.Col(target)
	cells := []int{target}
	for _, d := range [4][2]int{{-1, -1}, {-1, 1}, {1, -1}, {1, 1}} {
		r, c := row+d[0], col+d[1]
		if board.InBounds(r, c) {
			cells = append(cells, board.Index(r, c))
		}
	}
	return cells
}

// missileCells is the target plus missileSalvo cells drawn uniformly at
// random, without replacement, from cells not yet struck. Fewer when the
// board is nearly exhausted.
func missileCells(target int, prior map[int]bool, rng *rand.Rand) []int {
	cells := []int{target}
	pool := make([]int, 0, board.Cells)
	for c := 0; c < board.Cells; c++ {
		if !prior[c] && c != target {
			pool = append(pool, c)
		}
	}
	for i := 0; i < missileSalvo && len(pool) > 0; i++ {
		j := rng.Intn(len(pool))
		cells = append(cells, pool[j])
		pool[j] = pool[len(pool)-1]
		pool = pool[:len(pool)-1]
	}
	return cells
}

// nukeCells is the full row and column through the target, 19 distinct
// cells (the target counted once).
func nukeCells(target int) []int {
	row, col := board.Row(target), board.Col(target)
	cells := make([]int, 0, 2*board.Size-1)
	for c := 0; c < board.Size; c++ {
		cells = append(cells, board.Index(row, c))
	}
	for r := 0; r < board.Size; r++ {
		if r != row {
			cells = append(cells, board.Index(r, col))
		}
	}
	sort.Ints(cells)
	return cells
}
