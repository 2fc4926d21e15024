package domain

import "strings"

// Size is the board edge length.
const Size = 3

// Cell represents a board cell state.
type Cell uint8

const (
	Empty Cell = iota
	X
	O
)

func (c Cell) String() string {
	switch c {
	case X:
		return "X"
	case O:
		return "O"
	default:
		return ""
	}
}

// Opponent returns the other side. Empty has no opponent.
func (c Cell) Opponent() Cell {
	switch c {
	case X:
		return O
	case O:
		return X
	default:
		return Empty
	}
}

// Move is a 0-indexed (row, column) pair.
type Move struct {
	Row, Col int
}

// InBounds reports whether both coordinates are on the board.
func (m Move) InBounds() bool {
	return m.Row >= 0 && m.Row < Size && m.Col >= 0 && m.Col < Size
}

// Outcome is derived from a board; it is never stored on it.
type Outcome uint8

const (
	InProgress Outcome = iota
	XWins
	OWins
	Draw
)

func (o Outcome) String() string {
	switch o {
	case XWins:
		return "X wins"
	case OWins:
		return "O wins"
	case Draw:
		return "draw"
	default:
		return "in progress"
	}
}

// Terminal reports whether the game is decided.
func (o Outcome) Terminal() bool { return o != InProgress }

// Board is a fixed 3x3 grid. The zero value is an empty board.
//
// A search borrows a *Board as scratch space, applying and undoing moves in
// stack order. The board itself does no locking.
type Board struct {
	cells [Size][Size]Cell
}

// lines lists rows, columns and diagonals as (row, col) triples.
var lines = [8][3]Move{
	// rows
	{{0, 0}, {0, 1}, {0, 2}}, {{1, 0}, {1, 1}, {1, 2}}, {{2, 0}, {2, 1}, {2, 2}},
	// cols
	{{0, 0}, {1, 0}, {2, 0}}, {{0, 1}, {1, 1}, {2, 1}}, {{0, 2}, {1, 2}, {2, 2}},
	// diags
	{{0, 0}, {1, 1}, {2, 2}}, {{0, 2}, {1, 1}, {2, 0}},
}

// IsWinner reports whether side fully occupies any row, column or diagonal.
func (b *Board) IsWinner(side Cell) bool {
	if side == Empty {
		return false
	}
	for _, ln := range lines {
		if b.cells[ln[0].Row][ln[0].Col] == side &&
			b.cells[ln[1].Row][ln[1].Col] == side &&
			b.cells[ln[2].Row][ln[2].Col] == side {
			return true
		}
	}
	return false
}

// HasMovesLeft reports whether at least one cell is Empty.
func (b *Board) HasMovesLeft() bool {
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			if b.cells[r][c] == Empty {
				return true
			}
		}
	}
	return false
}

// ApplyMove places side at (row, col) if the cell is on the board and Empty.
// It returns false and leaves the board untouched otherwise.
func (b *Board) ApplyMove(row, col int, side Cell) bool {
	if !(Move{row, col}).InBounds() || b.cells[row][col] != Empty {
		return false
	}
	b.cells[row][col] = side
	return true
}

// UndoMove clears (row, col). It does not check bounds or the previous
// state; callers undo exactly the moves they applied, most recent first.
func (b *Board) UndoMove(row, col int) {
	b.cells[row][col] = Empty
}

// At returns the cell at (row, col).
func (b *Board) At(row, col int) Cell { return b.cells[row][col] }

// Grid returns a copy of the cells.
func (b *Board) Grid() [Size][Size]Cell { return b.cells }

// Clone returns an independent copy of the board.
func (b *Board) Clone() Board { return Board{cells: b.cells} }

// EmptyCells lists the empty cells in row-major order.
func (b *Board) EmptyCells() []Move {
	out := make([]Move, 0, Size*Size)
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			if b.cells[r][c] == Empty {
				out = append(out, Move{r, c})
			}
		}
	}
	return out
}

// Count returns how many cells hold side.
func (b *Board) Count(side Cell) int {
	n := 0
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			if b.cells[r][c] == side {
				n++
			}
		}
	}
	return n
}

// Outcome derives the game result from the current cells.
func (b *Board) Outcome() Outcome {
	switch {
	case b.IsWinner(X):
		return XWins
	case b.IsWinner(O):
		return OWins
	case !b.HasMovesLeft():
		return Draw
	default:
		return InProgress
	}
}

// String renders the board as three "X|O| " rows separated by dashes.
func (b *Board) String() string {
	var sb strings.Builder
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			s := b.cells[r][c].String()
			if s == "" {
				s = " "
			}
			sb.WriteString(s)
			if c < Size-1 {
				sb.WriteByte('|')
			}
		}
		sb.WriteByte('\n')
		if r < Size-1 {
			sb.WriteString("-----\n")
		}
	}
	return sb.String()
}

// ParseBoard builds a board from three row strings using 'X', 'O' and any
// other rune for Empty, e.g. ParseBoard("XO.", "...", "..X").
func ParseBoard(rows ...string) Board {
	var b Board
	for r := 0; r < Size && r < len(rows); r++ {
		for c, ch := range rows[r] {
			if c >= Size {
				break
			}
			switch ch {
			case 'X', 'x':
				b.cells[r][c] = X
			case 'O', 'o':
				b.cells[r][c] = O
			}
		}
	}
	return b
}
