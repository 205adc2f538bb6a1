package entity

import (
	"fmt"

	"github.com/rocketscienceinc/tictactoe-minimax/internal/apperror"
)

const (
	HumanVsAI = "human-vs-ai"
	AIVsAI    = "ai-vs-ai"
)

// Intner is the randomness source used for mark assignment and tie-breaks.
type Intner interface {
	Intn(n int) int
}

// Round is one game on a board, from the first move to a win or draw.
type Round struct {
	ID        string  `json:"id"`
	Mode      string  `json:"mode"`
	Board     Board   `json:"board"`
	Turn      Mark    `json:"turn"`
	StartMark Mark    `json:"start_mark"`
	HumanMark Mark    `json:"human_mark,omitempty"`
	Outcome   Outcome `json:"outcome"`
	Moves     int     `json:"moves"`
}

// NewRound - humanMark is ignored in ai-vs-ai mode.
func NewRound(id, mode string, startMark, humanMark Mark) (*Round, error) {
	if err := ValidateMode(mode); err != nil {
		return nil, err
	}

	if startMark != PlayerX && startMark != PlayerO {
		return nil, fmt.Errorf("%w: start mark %q", apperror.ErrInvalidMark, startMark)
	}

	if mode == AIVsAI {
		humanMark = Empty
	} else if humanMark != PlayerX && humanMark != PlayerO {
		return nil, fmt.Errorf("%w: human mark %q", apperror.ErrInvalidMark, humanMark)
	}

	return &Round{
		ID:        id,
		Mode:      mode,
		Board:     NewBoard(),
		Turn:      startMark,
		StartMark: startMark,
		HumanMark: humanMark,
		Outcome:   Ongoing(),
	}, nil
}

func ValidateMode(mode string) error {
	switch mode {
	case HumanVsAI, AIVsAI:
		return nil
	default:
		return fmt.Errorf("%w: %q", apperror.ErrUnknownMode, mode)
	}
}

// MakeTurn - places the mark for the side to move and advances the round.
func (that *Round) MakeTurn(mark Mark, row, col int) error {
	if that.IsFinished() {
		return apperror.ErrNoLegalMove
	}

	if that.Turn != mark {
		return apperror.ErrNotYourTurn
	}

	if err := that.Board.Place(row, col, mark); err != nil {
		return fmt.Errorf("failed to place %s: %w", mark, err)
	}

	that.Moves++
	that.UpdateRoundState()

	return nil
}

// UpdateRoundState - classifies the board and either passes the turn or closes the round.
func (that *Round) UpdateRoundState() {
	that.Outcome = that.Board.Classify()

	if that.Outcome.IsTerminal() {
		that.Turn = Empty
		return
	}

	that.Turn = that.Turn.Opponent()
}

// Reset - clears the board and starts a new round with startMark to move.
func (that *Round) Reset(startMark Mark) error {
	if startMark != PlayerX && startMark != PlayerO {
		return fmt.Errorf("%w: start mark %q", apperror.ErrInvalidMark, startMark)
	}

	that.Board.Reset()
	that.Turn = startMark
	that.StartMark = startMark
	that.Outcome = Ongoing()
	that.Moves = 0

	return nil
}

func (that *Round) IsFinished() bool {
	return that.Outcome.IsTerminal()
}

// IsAITurn - in ai-vs-ai every turn belongs to the engine.
func (that *Round) IsAITurn() bool {
	if that.IsFinished() {
		return false
	}

	if that.Mode == AIVsAI {
		return true
	}

	return that.Turn != that.HumanMark
}

// AIMark - the engine's mark in human-vs-ai; Empty in ai-vs-ai where it plays both.
func (that *Round) AIMark() Mark {
	if that.Mode == AIVsAI {
		return Empty
	}

	return that.HumanMark.Opponent()
}

// RandomMarks - returns both marks in random order.
func RandomMarks(rng Intner) (Mark, Mark) {
	if rng.Intn(2) == 0 {
		return PlayerX, PlayerO
	}

	return PlayerO, PlayerX
}
