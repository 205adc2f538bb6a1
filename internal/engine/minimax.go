package engine

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/rocketscienceinc/tictactoe-minimax/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-minimax/internal/entity"
)

const (
	WinScore  = 1
	DrawScore = 0
	LossScore = -1
)

// SearchResult holds every cell that reaches the best score for the side to move.
type SearchResult struct {
	Candidates []entity.Cell `json:"candidates"`
	Score      int           `json:"score"`
	Nodes      int           `json:"nodes"`
}

// MoveScore is the minimax value of playing Cell, from the mover's point of view.
type MoveScore struct {
	entity.Cell
	Score int `json:"score"`
}

type Option func(*Engine)

// WithRand - sets the source used to break ties between equally good moves.
func WithRand(rng entity.Intner) Option {
	return func(that *Engine) {
		that.rng = rng
	}
}

// WithPruning - toggles alpha-beta pruning. Scores and tie sets do not depend on it.
func WithPruning(enabled bool) Option {
	return func(that *Engine) {
		that.pruning = enabled
	}
}

// Engine plays perfect tic-tac-toe by searching the whole game tree.
// It never mutates the boards it is given and is safe for concurrent use.
type Engine struct {
	mu  sync.Mutex
	rng entity.Intner

	pruning bool
}

func New(opts ...Option) *Engine {
	that := &Engine{
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())), //nolint: gosec // tie-breaks only
		pruning: true,
	}

	for _, opt := range opts {
		opt(that)
	}

	return that
}

// ChooseMove - returns one of the optimal cells for mark, picked uniformly at random.
func (that *Engine) ChooseMove(board entity.Board, mark entity.Mark) (entity.Cell, error) {
	result, err := that.Search(board, mark)
	if err != nil {
		return entity.Cell{}, err
	}

	that.mu.Lock()
	defer that.mu.Unlock()

	return result.Candidates[that.rng.Intn(len(result.Candidates))], nil
}

// Search - scores every legal cell and keeps all cells sharing the best score, in row-major order.
func (that *Engine) Search(board entity.Board, mark entity.Mark) (SearchResult, error) {
	scores, nodes, err := that.scoreMoves(board, mark)
	if err != nil {
		return SearchResult{}, err
	}

	result := SearchResult{Score: LossScore - 1, Nodes: nodes}
	for _, move := range scores {
		switch {
		case move.Score > result.Score:
			result.Score = move.Score
			result.Candidates = []entity.Cell{move.Cell}
		case move.Score == result.Score:
			result.Candidates = append(result.Candidates, move.Cell)
		}
	}

	return result, nil
}

// ScoreMoves - the value of each legal cell for mark. The result is deterministic.
func (that *Engine) ScoreMoves(board entity.Board, mark entity.Mark) ([]MoveScore, error) {
	scores, _, err := that.scoreMoves(board, mark)

	return scores, err
}

func (that *Engine) scoreMoves(board entity.Board, mark entity.Mark) ([]MoveScore, int, error) {
	if mark != entity.PlayerX && mark != entity.PlayerO {
		return nil, 0, fmt.Errorf("%w: cannot search for %q", apperror.ErrInvalidMark, mark)
	}

	if outcome := board.Classify(); outcome.IsTerminal() {
		return nil, 0, fmt.Errorf("%w: board is %s", apperror.ErrNoLegalMove, outcome.Status)
	}

	tree := &search{self: mark, pruning: that.pruning}
	moves := board.LegalMoves()
	scores := make([]MoveScore, 0, len(moves))

	// board is our own copy: the search places and removes marks on it directly
	for _, cell := range moves {
		board[cell.Row][cell.Col] = mark
		score := tree.minimax(&board, mark.Opponent(), LossScore-1, WinScore+1)
		board[cell.Row][cell.Col] = entity.Empty

		scores = append(scores, MoveScore{Cell: cell, Score: score})
	}

	return scores, tree.nodes, nil
}

type search struct {
	self    entity.Mark
	pruning bool
	nodes   int
}

// minimax - toMove maximises when it is the searching mark, minimises otherwise.
func (that *search) minimax(board *entity.Board, toMove entity.Mark, alpha, beta int) int {
	that.nodes++

	switch outcome := board.Classify(); {
	case outcome.IsWin() && outcome.Winner == that.self:
		return WinScore
	case outcome.IsWin():
		return LossScore
	case outcome.IsDraw():
		return DrawScore
	}

	maximizing := toMove == that.self

	best := WinScore + 1
	if maximizing {
		best = LossScore - 1
	}

	for row := 0; row < entity.Size; row++ {
		for col := 0; col < entity.Size; col++ {
			if board[row][col] != entity.Empty {
				continue
			}

			board[row][col] = toMove
			score := that.minimax(board, toMove.Opponent(), alpha, beta)
			board[row][col] = entity.Empty

			if maximizing {
				best = max(best, score)
				alpha = max(alpha, best)
			} else {
				best = min(best, score)
				beta = min(beta, best)
			}

			if that.pruning && alpha >= beta {
				return best
			}
		}
	}

	return best
}
