package board

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateValidLayouts(t *testing.T) {
	for i := 0; i < 1000; i++ {
		layout, err := Generate()
		require.NoError(t, err)
		requireValidLayout(t, layout)
	}
}

func requireValidLayout(t *testing.T, layout Layout) {
	t.Helper()

	require.Len(t, layout.Ships, len(ShipLengths))
	require.Len(t, layout.Positions, 5+4+3+2)

	// Ship lengths match the fleet composition in order.
	for i, ship := range layout.Ships {
		require.Equal(t, ShipLengths[i], ship.Length)
		require.Len(t, ship.Cells, ship.Length)
	}

	// No two segments coincide, all in bounds.
	seen := map[int]int{} // cell -> ship index
	for si, ship := range layout.Ships {
		for _, cell := range ship.Cells {
			require.True(t, ValidCell(cell), "cell %d out of bounds", cell)
			_, dup := seen[cell]
			require.False(t, dup, "cell %d occupied twice", cell)
			seen[cell] = si
		}
	}

	// No two distinct ships have king-move-adjacent cells.
	for cell, si := range seen {
		row, col := Row(cell), Col(cell)
		for dr := -1; dr <= 1; dr++ {
			for dc := -1; dc <= 1; dc++ {
				if dr == 0 && dc == 0 {
					continue
				}
				if !InBounds(row+dr, col+dc) {
					continue
				}
				if sj, ok := seen[Index(row+dr, col+dc)]; ok {
					require.Equal(t, si, sj,
						"ships %d and %d touch at cell %d", si, sj, cell)
				}
			}
		}
	}

	// Segments are contiguous along the declared orientation.
	for _, ship := range layout.Ships {
		for i := 1; i < len(ship.Cells); i++ {
			step := ship.Cells[i] - ship.Cells[i-1]
			if ship.Orientation == Horizontal {
				require.Equal(t, 1, step)
			} else {
				require.Equal(t, Size, step)
			}
		}
	}
}

func TestValidCell(t *testing.T) {
	require.True(t, ValidCell(0))
	require.True(t, ValidCell(99))
	require.False(t, ValidCell(-1))
	require.False(t, ValidCell(100))
}
