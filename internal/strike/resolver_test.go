package strike

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fleetduel/fleetduel/internal/board"
)

func fleetAt(cells ...int) board.Layout {
	return board.Layout{
		Positions: cells,
		Ships:     []board.Ship{{Length: len(cells), Cells: cells, Orientation: board.Horizontal}},
	}
}

func TestNormalStrike(t *testing.T) {
	opp := fleetAt(44, 45)

	res, err := Resolve(Normal, 44, map[int]bool{}, Usage{}, opp)
	require.NoError(t, err)
	require.Equal(t, []int{44}, res.Affected)
	require.Equal(t, []int{44}, res.Hits)
	require.False(t, res.FleetDestroyed)

	res, err = Resolve(Normal, 7, map[int]bool{}, Usage{}, opp)
	require.NoError(t, err)
	require.Empty(t, res.Hits)
}

func TestNormalStrikeAlreadyStruck(t *testing.T) {
	_, err := Resolve(Normal, 44, map[int]bool{44: true}, Usage{}, fleetAt(44))
	require.ErrorIs(t, err, ErrAlreadyStruck)
}

func TestTargetOutOfBounds(t *testing.T) {
	for _, target := range []int{-1, 100, 1000} {
		_, err := Resolve(Normal, target, map[int]bool{}, Usage{}, fleetAt(0))
		require.ErrorIs(t, err, ErrOutOfBounds)
	}
}

func TestClusterShape(t *testing.T) {
	// Centre of the board: centre + 4 diagonals.
	res, err := Resolve(Cluster, 44, map[int]bool{}, Usage{}, fleetAt(0))
	require.NoError(t, err)
	require.ElementsMatch(t, []int{44, 33, 35, 53, 55}, res.Affected)

	// Corner: diagonals clip to the board.
	res, err = Resolve(Cluster, 0, map[int]bool{}, Usage{}, fleetAt(5))
	require.NoError(t, err)
	require.ElementsMatch(t, []int{0, 11}, res.Affected)

	// Never more than 5 cells, never out of bounds.
	for target := 0; target < board.Cells; target++ {
		res, err := Resolve(Cluster, target, map[int]bool{}, Usage{}, fleetAt(99))
		require.NoError(t, err)
		require.LessOrEqual(t, len(res.Affected), 5)
		for _, c := range res.Affected {
			require.True(t, board.ValidCell(c))
		}
	}
}

func TestNukeRowAndColumn(t *testing.T) {
	res, err := Resolve(Nuke, 44, map[int]bool{}, Usage{}, fleetAt(0))
	require.NoError(t, err)
	require.Len(t, res.Affected, 19)

	want := map[int]bool{}
	for c := 40; c < 50; c++ {
		want[c] = true
	}
	for r := 0; r < 10; r++ {
		want[r*10+4] = true
	}
	require.Len(t, want, 19)
	for _, c := range res.Affected {
		require.True(t, want[c], "cell %d not on row/column of 44", c)
	}
}

func TestMissilesSalvo(t *testing.T) {
	prior := map[int]bool{1: true, 2: true, 3: true}
	res, err := Resolve(Missiles, 50, prior, Usage{}, fleetAt(0))
	require.NoError(t, err)
	require.Len(t, res.Affected, 6)
	require.Contains(t, res.Affected, 50)

	seen := map[int]bool{}
	for _, c := range res.Affected {
		require.True(t, board.ValidCell(c))
		require.False(t, prior[c], "missiles picked already-struck cell %d", c)
		require.False(t, seen[c], "missiles picked cell %d twice", c)
		seen[c] = true
	}
}

func TestMissilesNearlyExhaustedBoard(t *testing.T) {
	// Leave only 3 untouched cells; the salvo shrinks to what is available.
	prior := map[int]bool{}
	for c := 0; c < board.Cells; c++ {
		prior[c] = true
	}
	delete(prior, 10)
	delete(prior, 20)
	delete(prior, 30)

	res, err := Resolve(Missiles, 10, prior, Usage{}, fleetAt(0))
	require.NoError(t, err)
	require.ElementsMatch(t, []int{10, 20, 30}, res.Affected)
}

func TestPowerupFilterIdempotent(t *testing.T) {
	opp := fleetAt(33, 55)

	first, err := Resolve(Cluster, 44, map[int]bool{}, Usage{}, opp)
	require.NoError(t, err)

	prior := map[int]bool{}
	for _, c := range first.Affected {
		prior[c] = true
	}

	// Same powerup at the same target: every cell filtered, nothing
	// double-counted.
	second, err := Resolve(Cluster, 44, prior, Usage{Cluster: 1}, opp)
	require.NoError(t, err)
	require.Empty(t, second.Affected)
	require.Empty(t, second.Hits)
}

func TestQuotaExhausted(t *testing.T) {
	opp := fleetAt(0)

	_, err := Resolve(Cluster, 44, map[int]bool{}, Usage{Cluster: 2}, opp)
	require.ErrorIs(t, err, ErrQuotaExhausted)
	_, err = Resolve(Missiles, 44, map[int]bool{}, Usage{Missiles: 1}, opp)
	require.ErrorIs(t, err, ErrQuotaExhausted)
	_, err = Resolve(Nuke, 44, map[int]bool{}, Usage{Nuke: 1}, opp)
	require.ErrorIs(t, err, ErrQuotaExhausted)

	// One short of the cluster quota still resolves.
	_, err = Resolve(Cluster, 44, map[int]bool{}, Usage{Cluster: 1}, opp)
	require.NoError(t, err)
}

func TestFleetDestroyedNeedsEveryCell(t *testing.T) {
	// A full 14-cell fleet needs exactly 14 distinct hits.
	cells := []int{
		0, 1, 2, 3, 4, // length 5
		20, 21, 22, 23, // length 4
		40, 41, 42, // length 3
		60, 61, // length 2
	}
	opp := board.Layout{Positions: cells}

	prior := map[int]bool{}
	for i, c := range cells {
		res, err := Resolve(Normal, c, prior, Usage{}, opp)
		require.NoError(t, err)
		require.Equal(t, []int{c}, res.Hits)
		if i < len(cells)-1 {
			require.False(t, res.FleetDestroyed, "destroyed after %d hits", i+1)
		} else {
			require.True(t, res.FleetDestroyed)
		}
		prior[c] = true
	}
}

func TestParseKind(t *testing.T) {
	for tag, want := range map[string]Kind{
		"":         Normal,
		"normal":   Normal,
		"cluster":  Cluster,
		"missiles": Missiles,
		"nuke":     Nuke,
	} {
		got, err := ParseKind(tag)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
	_, err := ParseKind("torpedo")
	require.Error(t, err)
}
