package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rocketscienceinc/tictactoe-minimax/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-minimax/internal/engine"
	"github.com/rocketscienceinc/tictactoe-minimax/internal/entity"
)

const StartMarkRandom = "random"

type roundRepo interface {
	CreateOrUpdate(ctx context.Context, round *entity.Round) error
	GetByID(ctx context.Context, id string) (*entity.Round, error)
	DeleteByID(ctx context.Context, id string) error
}

type moveChooser interface {
	ChooseMove(board entity.Board, mark entity.Mark) (entity.Cell, error)
	ScoreMoves(board entity.Board, mark entity.Mark) ([]engine.MoveScore, error)
}

// RoundManager owns the authoritative rounds: it applies human moves, asks the engine
// for AI moves and stores the result. Mutations of one round are serialised.
type RoundManager struct {
	logger    *slog.Logger
	roundRepo roundRepo
	engine    moveChooser

	startMark entity.Mark // Empty means a random start

	rngMu sync.Mutex
	rng   entity.Intner

	locks sync.Map
}

// NewRoundManager - startMark is "random", "X" or "O".
func NewRoundManager(logger *slog.Logger, roundRepo roundRepo, engine moveChooser, startMark string, rng entity.Intner) (*RoundManager, error) {
	var mark entity.Mark

	if !strings.EqualFold(startMark, StartMarkRandom) {
		parsed, err := entity.ParseMark(startMark)
		if err != nil || parsed == entity.Empty {
			return nil, fmt.Errorf("%w: start mark %q", apperror.ErrInvalidMark, startMark)
		}
		mark = parsed
	}

	return &RoundManager{
		logger:    logger.With("component", "round_manager"),
		roundRepo: roundRepo,
		engine:    engine,
		startMark: mark,
		rng:       rng,
	}, nil
}

// StartRound - creates a round; in human-vs-ai the human gets a random mark.
func (that *RoundManager) StartRound(ctx context.Context, mode string) (*entity.Round, error) {
	if err := entity.ValidateMode(mode); err != nil {
		return nil, err
	}

	startMark := that.pickStartMark()
	humanMark, _ := that.randomMarks()

	round, err := entity.NewRound(uuid.NewString(), mode, startMark, humanMark)
	if err != nil {
		return nil, fmt.Errorf("failed to create round: %w", err)
	}

	if err = that.updateRound(ctx, round); err != nil {
		return nil, err
	}

	that.logger.Info("round started", "roundID", round.ID, "mode", mode, "start", startMark, "human", round.HumanMark)

	return round, nil
}

func (that *RoundManager) GetRound(ctx context.Context, id string) (*entity.Round, error) {
	round, err := that.roundRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get round: %w", err)
	}

	return round, nil
}

// PlayHuman - applies the human's move only; the AI reply is left to the caller.
func (that *RoundManager) PlayHuman(ctx context.Context, id string, row, col int) (*entity.Round, error) {
	unlock := that.lock(id)
	defer unlock()

	round, err := that.GetRound(ctx, id)
	if err != nil {
		return nil, err
	}

	if err = that.humanTurn(round, row, col); err != nil {
		return nil, err
	}

	if err = that.updateRound(ctx, round); err != nil {
		return nil, err
	}

	return round, nil
}

// PlayAI - lets the engine move once for the side to move.
func (that *RoundManager) PlayAI(ctx context.Context, id string) (*entity.Round, error) {
	unlock := that.lock(id)
	defer unlock()

	round, err := that.GetRound(ctx, id)
	if err != nil {
		return nil, err
	}

	if err = that.aiTurn(round); err != nil {
		return nil, err
	}

	if err = that.updateRound(ctx, round); err != nil {
		return nil, err
	}

	return round, nil
}

// MakeTurn - applies the human's move and, if the round goes on, the AI reply.
func (that *RoundManager) MakeTurn(ctx context.Context, id string, row, col int) (*entity.Round, error) {
	unlock := that.lock(id)
	defer unlock()

	round, err := that.GetRound(ctx, id)
	if err != nil {
		return nil, err
	}

	if err = that.humanTurn(round, row, col); err != nil {
		return nil, err
	}

	if round.IsAITurn() {
		if err = that.aiTurn(round); err != nil {
			return nil, err
		}
	}

	if err = that.updateRound(ctx, round); err != nil {
		return nil, err
	}

	return round, nil
}

// ResetRound - clears the board; the AI does not move until asked.
func (that *RoundManager) ResetRound(ctx context.Context, id string) (*entity.Round, error) {
	unlock := that.lock(id)
	defer unlock()

	round, err := that.GetRound(ctx, id)
	if err != nil {
		return nil, err
	}

	if err = round.Reset(that.pickStartMark()); err != nil {
		return nil, fmt.Errorf("failed to reset round: %w", err)
	}

	if err = that.updateRound(ctx, round); err != nil {
		return nil, err
	}

	that.logger.Info("round reset", "roundID", round.ID, "start", round.StartMark)

	return round, nil
}

// Analyze - the minimax value of every free cell for the side to move.
func (that *RoundManager) Analyze(ctx context.Context, id string) ([]engine.MoveScore, error) {
	round, err := that.GetRound(ctx, id)
	if err != nil {
		return nil, err
	}

	if round.IsFinished() {
		return nil, apperror.ErrNoLegalMove
	}

	scores, err := that.engine.ScoreMoves(round.Board, round.Turn)
	if err != nil {
		return nil, fmt.Errorf("failed to score moves: %w", err)
	}

	return scores, nil
}

func (that *RoundManager) EndRound(ctx context.Context, id string) error {
	unlock := that.lock(id)
	defer func() {
		unlock()
		that.locks.Delete(id)
	}()

	if err := that.roundRepo.DeleteByID(ctx, id); err != nil {
		return fmt.Errorf("failed to delete round: %w", err)
	}

	that.logger.Info("round ended", "roundID", id)

	return nil
}

func (that *RoundManager) humanTurn(round *entity.Round, row, col int) error {
	if round.IsFinished() {
		return apperror.ErrNoLegalMove
	}

	if round.Mode == entity.AIVsAI || round.IsAITurn() {
		return apperror.ErrNotYourTurn
	}

	if err := round.MakeTurn(round.HumanMark, row, col); err != nil {
		return fmt.Errorf("failed to make human turn: %w", err)
	}

	that.logTurn(round, "human", entity.Cell{Row: row, Col: col})

	return nil
}

func (that *RoundManager) aiTurn(round *entity.Round) error {
	if round.IsFinished() {
		return apperror.ErrNoLegalMove
	}

	if !round.IsAITurn() {
		return apperror.ErrNotYourTurn
	}

	cell, err := that.engine.ChooseMove(round.Board, round.Turn)
	if err != nil {
		return fmt.Errorf("engine failed to choose a move: %w", err)
	}

	if err = round.MakeTurn(round.Turn, cell.Row, cell.Col); err != nil {
		return fmt.Errorf("failed to make ai turn: %w", err)
	}

	that.logTurn(round, "ai", cell)

	return nil
}

func (that *RoundManager) logTurn(round *entity.Round, actor string, cell entity.Cell) {
	log := that.logger.With("roundID", round.ID, "actor", actor, "cell", cell.String())

	if round.IsFinished() {
		log.Info("round finished", "outcome", round.Outcome.String(), "moves", round.Moves)
		return
	}

	log.Debug("turn made", "board", round.Board.String(), "next", round.Turn)
}

func (that *RoundManager) updateRound(ctx context.Context, round *entity.Round) error {
	if err := that.roundRepo.CreateOrUpdate(ctx, round); err != nil {
		return fmt.Errorf("failed to update round: %w", err)
	}

	return nil
}

func (that *RoundManager) pickStartMark() entity.Mark {
	if that.startMark != entity.Empty {
		return that.startMark
	}

	first, _ := that.randomMarks()

	return first
}

func (that *RoundManager) randomMarks() (entity.Mark, entity.Mark) {
	that.rngMu.Lock()
	defer that.rngMu.Unlock()

	return entity.RandomMarks(that.rng)
}

func (that *RoundManager) lock(id string) func() {
	value, _ := that.locks.LoadOrStore(id, &sync.Mutex{})
	mu, _ := value.(*sync.Mutex)
	mu.Lock()

	return mu.Unlock
}
