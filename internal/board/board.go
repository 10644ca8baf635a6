package board

// Size is the side length of the square grid. Cells are indexed 0..Cells-1
// row-major, so cell = row*Size + col.
const (
	Size  = 10
	Cells = Size * Size
)

// ShipLengths is the fleet composition placed on every board, largest first
// so the hardest ship to fit is placed while the board is still empty.
var ShipLengths = []int{5, 4, 3, 2}

type Orientation string

const (
	Horizontal Orientation = "horizontal"
	Vertical   Orientation = "vertical"
)

// Ship is one placed ship: its segment cells in bow-to-stern order.
type Ship struct {
	Length      int         `json:"length"`
	Cells       []int       `json:"positions"`
	Orientation Orientation `json:"orientation"`
}

// Layout is a full fleet placement for one player. It is created once at
// session start and never mutated afterwards; strikes are tracked on the
// striking player, not on the layout.
type Layout struct {
	Positions []int  `json:"positions"`
	Ships     []Ship `json:"ships"`
}

// PositionSet returns the occupied cells as a set for membership tests.
func (l Layout) PositionSet() map[int]bool {
	set := make(map[int]bool, len(l.Positions))
	for _, c := range l.Positions {
		set[c] = true
	}
	return set
}

func Row(cell int) int { return cell / Size }
func Col(cell int) int { return cell % Size }

func Index(row, col int) int { return row*Size + col }

func InBounds(row, col int) bool {
	return row >= 0 && row < Size && col >= 0 && col < Size
}

// ValidCell reports whether a cell index is on the board.
func ValidCell(cell int) bool { return cell >= 0 && cell < Cells }
