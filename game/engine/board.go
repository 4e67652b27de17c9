package engine

import (
	"errors"
	"strings"
)

var ErrColumnFull = errors.New("column is full")

// Board is a column-major grid: board[column][row], row 0 at the bottom.
type Board [][]Cell

// axes are the four line directions checked for a win; each is walked
// forwards and backwards from the played cell.
var axes = [4]Coord{
	{Column: 0, Row: 1},  // vertical
	{Column: 1, Row: 0},  // horizontal
	{Column: 1, Row: 1},  // diagonal
	{Column: 1, Row: -1}, // anti-diagonal
}

// NewBoard creates a width x height board with every cell empty
func NewBoard(width, height int) Board {
	b := make(Board, width)
	for c := range b {
		b[c] = make([]Cell, height)
	}
	return b
}

// Width returns the number of columns
func (b Board) Width() int { return len(b) }

// Height returns the number of rows
func (b Board) Height() int {
	if len(b) == 0 {
		return 0
	}
	return len(b[0])
}

// InBounds reports whether at addresses a cell on the board
func (b Board) InBounds(at Coord) bool {
	return at.Column >= 0 && at.Column < b.Width() && at.Row >= 0 && at.Row < b.Height()
}

// At returns the cell at the given coordinate
func (b Board) At(at Coord) Cell {
	return b[at.Column][at.Row]
}

// Play drops a token for owner into column, filling the lowest empty row.
func (b Board) Play(column, owner int) (Coord, error) {
	if column < 0 || column >= b.Width() {
		return Coord{}, ErrColumnFull
	}
	for row, cell := range b[column] {
		if cell.IsEmpty() {
			b[column][row] = OwnedBy(owner)
			return Coord{Column: column, Row: row}, nil
		}
	}
	return Coord{}, ErrColumnFull
}

// CheckWin reports whether the token at the given coordinate completes a
// contiguous line of at least runLength cells owned by owner.
func (b Board) CheckWin(at Coord, owner, runLength int) bool {
	if !b.InBounds(at) || !b.At(at).IsOwnedBy(owner) {
		return false
	}
	for _, dir := range axes {
		count := 1 + b.countRun(at, dir, owner) + b.countRun(at, Coord{Column: -dir.Column, Row: -dir.Row}, owner)
		if count >= runLength {
			return true
		}
	}
	return false
}

// countRun walks from (excluding) at in direction dir and counts cells
// owned by owner until the first mismatch or the board edge.
func (b Board) countRun(at Coord, dir Coord, owner int) int {
	limit := b.Width()
	if b.Height() > limit {
		limit = b.Height()
	}
	count := 0
	for step := 1; step < limit; step++ {
		next := Coord{Column: at.Column + dir.Column*step, Row: at.Row + dir.Row*step}
		if !b.InBounds(next) || !b.At(next).IsOwnedBy(owner) {
			break
		}
		count++
	}
	return count
}

// Redact returns a copy of the board as seen by the player at index
// viewer: their own tokens stay visible, every other token becomes
// Unknown. A negative viewer sees no owners at all.
func (b Board) Redact(viewer int) Board {
	out := make(Board, len(b))
	for c, column := range b {
		out[c] = make([]Cell, len(column))
		for r, cell := range column {
			switch {
			case cell.IsEmpty():
				out[c][r] = EmptyCell()
			case viewer >= 0 && cell.IsOwnedBy(viewer):
				out[c][r] = cell
			default:
				out[c][r] = UnknownCell()
			}
		}
	}
	return out
}

// Clone returns an unredacted copy of the board
func (b Board) Clone() Board {
	out := make(Board, len(b))
	for c, column := range b {
		out[c] = append([]Cell(nil), column...)
	}
	return out
}

// Full reports whether every cell is occupied
func (b Board) Full() bool {
	for _, column := range b {
		if len(column) > 0 && column[len(column)-1].IsEmpty() {
			return false
		}
	}
	return true
}

// String renders the board top row first, useful in logs and tests
func (b Board) String() string {
	var sb strings.Builder
	for r := b.Height() - 1; r >= 0; r-- {
		for c := 0; c < b.Width(); c++ {
			sb.WriteString(b[c][r].String())
		}
		if r > 0 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}
