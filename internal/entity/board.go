package entity

import (
	"fmt"
	"strings"

	"github.com/rocketscienceinc/tictactoe-minimax/internal/apperror"
)

// Size is the length of a board side.
const Size = 3

type Mark uint8

const (
	Empty Mark = iota
	PlayerX
	PlayerO
)

// Opponent - returns the mark that moves after this one. Empty has no opponent.
func (that Mark) Opponent() Mark {
	switch that {
	case PlayerX:
		return PlayerO
	case PlayerO:
		return PlayerX
	default:
		return Empty
	}
}

func (that Mark) String() string {
	switch that {
	case PlayerX:
		return "X"
	case PlayerO:
		return "O"
	default:
		return ""
	}
}

func (that Mark) MarshalText() ([]byte, error) {
	return []byte(that.String()), nil
}

func (that *Mark) UnmarshalText(text []byte) error {
	mark, err := ParseMark(string(text))
	if err != nil {
		return err
	}

	*that = mark

	return nil
}

// ParseMark - converts "X", "O" (any case) or "" into a Mark.
func ParseMark(value string) (Mark, error) {
	switch strings.ToUpper(strings.TrimSpace(value)) {
	case "X":
		return PlayerX, nil
	case "O":
		return PlayerO, nil
	case "":
		return Empty, nil
	default:
		return Empty, fmt.Errorf("%w: %q", apperror.ErrInvalidMark, value)
	}
}

// Cell addresses a square by row and column, both in [0, Size).
type Cell struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func (that Cell) InRange() bool {
	return that.Row >= 0 && that.Row < Size && that.Col >= 0 && that.Col < Size
}

func (that Cell) String() string {
	return fmt.Sprintf("(%d, %d)", that.Row, that.Col)
}

// Lines holds every triple of cells that wins the game: 3 rows, 3 columns, 2 diagonals.
var Lines = [8][3]Cell{
	{{0, 0}, {0, 1}, {0, 2}},
	{{1, 0}, {1, 1}, {1, 2}},
	{{2, 0}, {2, 1}, {2, 2}},
	{{0, 0}, {1, 0}, {2, 0}},
	{{0, 1}, {1, 1}, {2, 1}},
	{{0, 2}, {1, 2}, {2, 2}},
	{{0, 0}, {1, 1}, {2, 2}},
	{{0, 2}, {1, 1}, {2, 0}},
}

// Board is a 3x3 grid of marks. It is a value type: assigning a Board copies all cells.
type Board [Size][Size]Mark

func NewBoard() Board {
	return Board{}
}

// IsLegal - reports whether a mark can be placed on the cell.
func (that *Board) IsLegal(row, col int) bool {
	return Cell{Row: row, Col: col}.InRange() && that[row][col] == Empty
}

// Place - puts the mark on an empty cell. The board is left untouched on error.
func (that *Board) Place(row, col int, mark Mark) error {
	cell := Cell{Row: row, Col: col}

	if mark != PlayerX && mark != PlayerO {
		return fmt.Errorf("%w: %w", apperror.ErrIllegalMove, apperror.ErrInvalidMark)
	}

	if !cell.InRange() {
		return fmt.Errorf("%w: cell %s is out of range", apperror.ErrIllegalMove, cell)
	}

	if that[row][col] != Empty {
		return fmt.Errorf("%w: cell %s is occupied", apperror.ErrIllegalMove, cell)
	}

	that[row][col] = mark

	return nil
}

// Classify - a winning line takes precedence over a full board.
func (that *Board) Classify() Outcome {
	for _, line := range Lines {
		a := that.at(line[0])
		if a != Empty && a == that.at(line[1]) && a == that.at(line[2]) {
			return Win(a)
		}
	}

	// the round goes on while any square is free
	for row := 0; row < Size; row++ {
		for col := 0; col < Size; col++ {
			if that[row][col] == Empty {
				return Ongoing()
			}
		}
	}

	return Draw()
}

func (that *Board) Reset() {
	*that = Board{}
}

// LegalMoves - returns the empty cells in row-major order.
func (that *Board) LegalMoves() []Cell {
	moves := make([]Cell, 0, Size*Size)

	for row := 0; row < Size; row++ {
		for col := 0; col < Size; col++ {
			if that[row][col] == Empty {
				moves = append(moves, Cell{Row: row, Col: col})
			}
		}
	}

	return moves
}

func (that *Board) Count(mark Mark) int {
	count := 0

	for row := 0; row < Size; row++ {
		for col := 0; col < Size; col++ {
			if that[row][col] == mark {
				count++
			}
		}
	}

	return count
}

func (that *Board) String() string {
	var builder strings.Builder

	for row := 0; row < Size; row++ {
		for col := 0; col < Size; col++ {
			mark := that[row][col].String()
			if mark == "" {
				mark = "."
			}
			builder.WriteString(mark)
		}

		if row < Size-1 {
			builder.WriteByte('\n')
		}
	}

	return builder.String()
}

func (that *Board) at(cell Cell) Mark {
	return that[cell.Row][cell.Col]
}
