package board

import (
	"errors"
	"math/rand"
	"time"
)

// Placement attempt bounds. 100 per ship matches how unlikely a rejection
// streak is on a 10x10 board with a 14-cell fleet; layout retries guard the
// pathological case where an early placement boxes out a later ship.
const (
	maxShipAttempts   = 100
	maxLayoutAttempts = 25
)

var ErrGenerateFailed = errors.New("board: could not generate a valid layout")

func newRNG() *rand.Rand { return rand.New(rand.NewSource(time.Now().UnixNano())) }

// Generate produces a random valid fleet layout: every ship in bounds, no
// overlapping segments, and a one-cell buffer in all 8 directions between
// distinct ships. Uniformity is not guaranteed and not needed.
func Generate() (Layout, error) {
	return generate(newRNG())
}

func generate(rng *rand.Rand) (Layout, error) {
	for attempt := 0; attempt < maxLayoutAttempts; attempt++ {
		if layout, ok := tryLayout(rng); ok {
			return layout, nil
		}
	}
	return Layout{}, ErrGenerateFailed
}

func tryLayout(rng *rand.Rand) (Layout, bool) {
	occupied := make(map[int]bool, 14)
	var layout Layout
	for _, length := range ShipLengths {
		ship, ok := placeShip(rng, occupied, length)
		if !ok {
			// Fail closed: discard the whole layout rather than ship a
			// board with fewer or mis-placed ships.
			return Layout{}, false
		}
		for _, c := range ship.Cells {
			occupied[c] = true
			layout.Positions = append(layout.Positions, c)
		}
		layout.Ships = append(layout.Ships, ship)
	}
	return layout, true
}

func placeShip(rng *rand.Rand, occupied map[int]bool, length int) (Ship, bool) {
	for attempt := 0; attempt < maxShipAttempts; attempt++ {
		start := rng.Intn(Cells)
		horizontal := rng.Intn(2) == 0
		cells, ok := shipCells(start, length, horizontal)
		if !ok || !clearOfFleet(occupied, cells) {
			continue
		}
		orient := Vertical
		if horizontal {
			orient = Horizontal
		}
		return Ship{Length: length, Cells: cells, Orientation: orient}, true
	}
	return Ship{}, false
}

func shipCells(start, length int, horizontal bool) ([]int, bool) {
	row, col := Row(start), Col(start)
	cells := make([]int, 0, length)
	for i := 0; i < length; i++ {
		r, c := row, col
		if horizontal {
			c += i
		} else {
			r += i
		}
		if !InBounds(r, c) {
			return nil, false
		}
		cells = append(cells, Index(r, c))
	}
	return cells, true
}

// clearOfFleet checks each candidate cell and its 8 neighbours against the
// already-occupied set, enforcing the one-cell buffer between ships.
func clearOfFleet(occupied map[int]bool, cells []int) bool {
	for _, cell := range cells {
		if occupied[cell] {
			return false
		}
		row, col := Row(cell), Col(cell)
		for dr := -1; dr <= 1; dr++ {
			for dc := -1; dc <= 1; dc++ {
				if dr == 0 && dc == 0 {
					continue
				}
				if InBounds(row+dr, col+dc) && occupied[Index(row+dr, col+dc)] {
					return false
				}
			}
		}
	}
	return true
}
