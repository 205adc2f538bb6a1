package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/rocketscienceinc/tictactoe-minimax/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-minimax/internal/engine"
	"github.com/rocketscienceinc/tictactoe-minimax/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var (
	errRedisDown      = errors.New("redis down")
	errStorageIsFull  = errors.New("storage is full")
	errRoundNotFound  = errors.New("round not found")
	discardLogger     = slog.New(slog.NewTextHandler(io.Discard, nil))
	anyRound          = mock.AnythingOfType("*entity.Round")
	anyBoard          = mock.AnythingOfType("entity.Board")
	firstRandomChoice = fixedIntner(0)
)

type fixedIntner int

func (that fixedIntner) Intn(n int) int {
	return int(that) % n
}

type mockRoundRepo struct {
	mock.Mock
}

func (that *mockRoundRepo) CreateOrUpdate(ctx context.Context, round *entity.Round) error {
	args := that.Called(ctx, round)
	return args.Error(0)
}

func (that *mockRoundRepo) GetByID(ctx context.Context, id string) (*entity.Round, error) {
	args := that.Called(ctx, id)
	round, _ := args.Get(0).(*entity.Round)
	return round, args.Error(1)
}

func (that *mockRoundRepo) DeleteByID(ctx context.Context, id string) error {
	args := that.Called(ctx, id)
	return args.Error(0)
}

type mockMoveChooser struct {
	mock.Mock
}

func (that *mockMoveChooser) ChooseMove(board entity.Board, mark entity.Mark) (entity.Cell, error) {
	args := that.Called(board, mark)
	cell, _ := args.Get(0).(entity.Cell)
	return cell, args.Error(1)
}

func (that *mockMoveChooser) ScoreMoves(board entity.Board, mark entity.Mark) ([]engine.MoveScore, error) {
	args := that.Called(board, mark)
	scores, _ := args.Get(0).([]engine.MoveScore)
	return scores, args.Error(1)
}

func newManager(t *testing.T, repo *mockRoundRepo, chooser moveChooser, startMark string) *RoundManager {
	t.Helper()

	manager, err := NewRoundManager(discardLogger, repo, chooser, startMark, firstRandomChoice)
	require.NoError(t, err)

	t.Cleanup(func() {
		repo.AssertExpectations(t)
	})

	return manager
}

// humanRound returns a stored-looking round where the human plays X and X starts.
func humanRound(t *testing.T) *entity.Round {
	t.Helper()

	round, err := entity.NewRound("r1", entity.HumanVsAI, entity.PlayerX, entity.PlayerX)
	require.NoError(t, err)

	return round
}

func TestNewRoundManager(t *testing.T) {
	t.Run("Accepts random, X and O", func(t *testing.T) {
		for _, policy := range []string{"random", "RANDOM", "X", "o"} {
			_, err := NewRoundManager(discardLogger, &mockRoundRepo{}, engine.New(), policy, firstRandomChoice)
			require.NoError(t, err, policy)
		}
	})

	t.Run("Rejects an unknown start mark", func(t *testing.T) {
		for _, policy := range []string{"", "Z"} {
			_, err := NewRoundManager(discardLogger, &mockRoundRepo{}, engine.New(), policy, firstRandomChoice)
			require.ErrorIs(t, err, apperror.ErrInvalidMark, policy)
		}
	})
}

func TestRoundManager_StartRound(t *testing.T) {
	ctx := context.Background()

	t.Run("Creates and stores a human-vs-ai round", func(t *testing.T) {
		// Given: a manager with a fixed random source
		repo := &mockRoundRepo{}
		manager := newManager(t, repo, &mockMoveChooser{}, "random")

		repo.On("CreateOrUpdate", ctx, anyRound).Return(nil).Once()

		// When: a new round is started
		round, err := manager.StartRound(ctx, entity.HumanVsAI)

		// Then: it is stored, empty and X starts with the human holding X
		require.NoError(t, err)
		assert.NotEmpty(t, round.ID)
		assert.Equal(t, entity.PlayerX, round.Turn)
		assert.Equal(t, entity.PlayerX, round.HumanMark)
		assert.Equal(t, entity.NewBoard(), round.Board)
		assert.False(t, round.IsAITurn())
	})

	t.Run("Uses the configured start mark", func(t *testing.T) {
		repo := &mockRoundRepo{}
		manager := newManager(t, repo, &mockMoveChooser{}, "O")

		repo.On("CreateOrUpdate", ctx, anyRound).Return(nil).Once()

		round, err := manager.StartRound(ctx, entity.AIVsAI)

		require.NoError(t, err)
		assert.Equal(t, entity.PlayerO, round.Turn)
		assert.Equal(t, entity.Empty, round.HumanMark)
	})

	t.Run("Error on unknown mode", func(t *testing.T) {
		repo := &mockRoundRepo{}
		manager := newManager(t, repo, &mockMoveChooser{}, "random")

		_, err := manager.StartRound(ctx, "solo")

		require.ErrorIs(t, err, apperror.ErrUnknownMode)
	})

	t.Run("Returns error if the repository fails", func(t *testing.T) {
		repo := &mockRoundRepo{}
		manager := newManager(t, repo, &mockMoveChooser{}, "random")

		repo.On("CreateOrUpdate", ctx, anyRound).Return(errStorageIsFull).Once()

		round, err := manager.StartRound(ctx, entity.HumanVsAI)

		require.ErrorIs(t, err, errStorageIsFull)
		assert.Nil(t, round)
	})
}

func TestRoundManager_MakeTurn(t *testing.T) {
	ctx := context.Background()

	t.Run("Applies the human move and the AI reply", func(t *testing.T) {
		// Given: a round where the human plays X and moves first
		repo := &mockRoundRepo{}
		chooser := &mockMoveChooser{}
		manager := newManager(t, repo, chooser, "random")

		repo.On("GetByID", ctx, "r1").Return(humanRound(t), nil).Once()
		chooser.On("ChooseMove", anyBoard, entity.PlayerO).Return(entity.Cell{Row: 0, Col: 0}, nil).Once()
		repo.On("CreateOrUpdate", ctx, anyRound).Return(nil).Once()

		// When: the human plays the center
		round, err := manager.MakeTurn(ctx, "r1", 1, 1)

		// Then: both moves are on the board and it is the human's turn again
		require.NoError(t, err)
		assert.Equal(t, entity.PlayerX, round.Board[1][1])
		assert.Equal(t, entity.PlayerO, round.Board[0][0])
		assert.Equal(t, entity.PlayerX, round.Turn)
		assert.Equal(t, 2, round.Moves)
		chooser.AssertExpectations(t)
	})

	t.Run("Does not ask the AI after a finishing move", func(t *testing.T) {
		// Given: the human can complete the top row
		repo := &mockRoundRepo{}
		chooser := &mockMoveChooser{}
		manager := newManager(t, repo, chooser, "random")

		round := humanRound(t)
		round.Board = entity.Board{
			{entity.PlayerX, entity.PlayerX, entity.Empty},
			{entity.PlayerO, entity.PlayerO, entity.Empty},
			{entity.Empty, entity.Empty, entity.Empty},
		}
		round.Moves = 4

		repo.On("GetByID", ctx, "r1").Return(round, nil).Once()
		repo.On("CreateOrUpdate", ctx, anyRound).Return(nil).Once()

		// When: the human takes the win
		round, err := manager.MakeTurn(ctx, "r1", 0, 2)

		// Then: the round is finished and the engine was never called
		require.NoError(t, err)
		assert.Equal(t, entity.Win(entity.PlayerX), round.Outcome)
		chooser.AssertNotCalled(t, "ChooseMove", mock.Anything, mock.Anything)
	})

	t.Run("Error on occupied cell does not store anything", func(t *testing.T) {
		repo := &mockRoundRepo{}
		manager := newManager(t, repo, &mockMoveChooser{}, "random")

		round := humanRound(t)
		round.Board[1][1] = entity.PlayerO

		repo.On("GetByID", ctx, "r1").Return(round, nil).Once()

		_, err := manager.MakeTurn(ctx, "r1", 1, 1)

		require.ErrorIs(t, err, apperror.ErrIllegalMove)
		repo.AssertNotCalled(t, "CreateOrUpdate", mock.Anything, mock.Anything)
	})

	t.Run("Error on finished round", func(t *testing.T) {
		repo := &mockRoundRepo{}
		manager := newManager(t, repo, &mockMoveChooser{}, "random")

		round := humanRound(t)
		round.Outcome = entity.Draw()
		round.Turn = entity.Empty

		repo.On("GetByID", ctx, "r1").Return(round, nil).Once()

		_, err := manager.MakeTurn(ctx, "r1", 1, 1)

		require.ErrorIs(t, err, apperror.ErrNoLegalMove)
	})

	t.Run("Error when it is the AI's turn", func(t *testing.T) {
		repo := &mockRoundRepo{}
		manager := newManager(t, repo, &mockMoveChooser{}, "random")

		round := humanRound(t)
		round.Turn = entity.PlayerO

		repo.On("GetByID", ctx, "r1").Return(round, nil).Once()

		_, err := manager.MakeTurn(ctx, "r1", 1, 1)

		require.ErrorIs(t, err, apperror.ErrNotYourTurn)
	})

	t.Run("Returns error if the round is missing", func(t *testing.T) {
		repo := &mockRoundRepo{}
		manager := newManager(t, repo, &mockMoveChooser{}, "random")

		repo.On("GetByID", ctx, "r1").Return(nil, errRoundNotFound).Once()

		_, err := manager.MakeTurn(ctx, "r1", 1, 1)

		require.ErrorIs(t, err, errRoundNotFound)
	})
}

func TestRoundManager_PlayHumanAndAI(t *testing.T) {
	ctx := context.Background()

	t.Run("PlayHuman leaves the AI turn pending", func(t *testing.T) {
		repo := &mockRoundRepo{}
		chooser := &mockMoveChooser{}
		manager := newManager(t, repo, chooser, "random")

		repo.On("GetByID", ctx, "r1").Return(humanRound(t), nil).Once()
		repo.On("CreateOrUpdate", ctx, anyRound).Return(nil).Once()

		round, err := manager.PlayHuman(ctx, "r1", 2, 2)

		require.NoError(t, err)
		assert.True(t, round.IsAITurn())
		chooser.AssertNotCalled(t, "ChooseMove", mock.Anything, mock.Anything)
	})

	t.Run("PlayHuman is rejected in ai-vs-ai", func(t *testing.T) {
		repo := &mockRoundRepo{}
		manager := newManager(t, repo, &mockMoveChooser{}, "random")

		round, err := entity.NewRound("r1", entity.AIVsAI, entity.PlayerX, entity.Empty)
		require.NoError(t, err)

		repo.On("GetByID", ctx, "r1").Return(round, nil).Once()

		_, err = manager.PlayHuman(ctx, "r1", 0, 0)

		require.ErrorIs(t, err, apperror.ErrNotYourTurn)
	})

	t.Run("PlayAI moves for the side to move", func(t *testing.T) {
		repo := &mockRoundRepo{}
		chooser := &mockMoveChooser{}
		manager := newManager(t, repo, chooser, "random")

		round := humanRound(t)
		round.HumanMark = entity.PlayerO

		repo.On("GetByID", ctx, "r1").Return(round, nil).Once()
		chooser.On("ChooseMove", entity.NewBoard(), entity.PlayerX).Return(entity.Cell{Row: 2, Col: 0}, nil).Once()
		repo.On("CreateOrUpdate", ctx, anyRound).Return(nil).Once()

		round, err := manager.PlayAI(ctx, "r1")

		require.NoError(t, err)
		assert.Equal(t, entity.PlayerX, round.Board[2][0])
		assert.Equal(t, entity.PlayerO, round.Turn)
		chooser.AssertExpectations(t)
	})

	t.Run("PlayAI is rejected on the human's turn", func(t *testing.T) {
		repo := &mockRoundRepo{}
		manager := newManager(t, repo, &mockMoveChooser{}, "random")

		repo.On("GetByID", ctx, "r1").Return(humanRound(t), nil).Once()

		_, err := manager.PlayAI(ctx, "r1")

		require.ErrorIs(t, err, apperror.ErrNotYourTurn)
	})

	t.Run("PlayAI surfaces engine errors", func(t *testing.T) {
		repo := &mockRoundRepo{}
		chooser := &mockMoveChooser{}
		manager := newManager(t, repo, chooser, "random")

		round, err := entity.NewRound("r1", entity.AIVsAI, entity.PlayerX, entity.Empty)
		require.NoError(t, err)

		repo.On("GetByID", ctx, "r1").Return(round, nil).Once()
		chooser.On("ChooseMove", anyBoard, entity.PlayerX).Return(entity.Cell{}, apperror.ErrNoLegalMove).Once()

		_, err = manager.PlayAI(ctx, "r1")

		require.ErrorIs(t, err, apperror.ErrNoLegalMove)
	})
}

func TestRoundManager_AIVsAIWithEngine(t *testing.T) {
	ctx := context.Background()

	// Given: an ai-vs-ai round stored in a fake repository and the real engine
	repo := &mockRoundRepo{}
	manager := newManager(t, repo, engine.New(engine.WithRand(firstRandomChoice)), "X")

	round, err := entity.NewRound("r1", entity.AIVsAI, entity.PlayerX, entity.Empty)
	require.NoError(t, err)

	repo.On("GetByID", ctx, "r1").Return(round, nil)
	repo.On("CreateOrUpdate", ctx, anyRound).Return(nil)

	// When: the AI plays until the round ends
	for !round.IsFinished() {
		_, err = manager.PlayAI(ctx, "r1")
		require.NoError(t, err)
	}

	// Then: perfect play on both sides is a draw
	assert.Equal(t, entity.Draw(), round.Outcome)
	assert.Equal(t, 9, round.Moves)

	_, err = manager.PlayAI(ctx, "r1")
	require.ErrorIs(t, err, apperror.ErrNoLegalMove)
}

func TestRoundManager_ResetRound(t *testing.T) {
	ctx := context.Background()

	t.Run("Resets a finished round", func(t *testing.T) {
		repo := &mockRoundRepo{}
		manager := newManager(t, repo, &mockMoveChooser{}, "O")

		round := humanRound(t)
		round.Board[0][0] = entity.PlayerX
		round.Outcome = entity.Win(entity.PlayerX)
		round.Turn = entity.Empty

		repo.On("GetByID", ctx, "r1").Return(round, nil).Once()
		repo.On("CreateOrUpdate", ctx, anyRound).Return(nil).Once()

		round, err := manager.ResetRound(ctx, "r1")

		require.NoError(t, err)
		assert.Equal(t, entity.NewBoard(), round.Board)
		assert.Equal(t, entity.Ongoing(), round.Outcome)
		assert.Equal(t, entity.PlayerO, round.Turn)
	})

	t.Run("Returns error if the update fails", func(t *testing.T) {
		repo := &mockRoundRepo{}
		manager := newManager(t, repo, &mockMoveChooser{}, "random")

		repo.On("GetByID", ctx, "r1").Return(humanRound(t), nil).Once()
		repo.On("CreateOrUpdate", ctx, anyRound).Return(errRedisDown).Once()

		_, err := manager.ResetRound(ctx, "r1")

		require.ErrorIs(t, err, errRedisDown)
	})
}

func TestRoundManager_Analyze(t *testing.T) {
	ctx := context.Background()

	t.Run("Scores the side to move", func(t *testing.T) {
		repo := &mockRoundRepo{}
		manager := newManager(t, repo, engine.New(), "random")

		round := humanRound(t)
		round.Board = entity.Board{
			{entity.PlayerX, entity.PlayerX, entity.Empty},
			{entity.PlayerO, entity.PlayerO, entity.Empty},
			{entity.Empty, entity.Empty, entity.Empty},
		}

		repo.On("GetByID", ctx, "r1").Return(round, nil).Once()

		scores, err := manager.Analyze(ctx, "r1")

		require.NoError(t, err)
		require.Len(t, scores, 5)
		assert.Equal(t, engine.MoveScore{Cell: entity.Cell{Row: 0, Col: 2}, Score: engine.WinScore}, scores[0])
	})

	t.Run("Error on finished round", func(t *testing.T) {
		repo := &mockRoundRepo{}
		manager := newManager(t, repo, &mockMoveChooser{}, "random")

		round := humanRound(t)
		round.Outcome = entity.Draw()

		repo.On("GetByID", ctx, "r1").Return(round, nil).Once()

		_, err := manager.Analyze(ctx, "r1")

		require.ErrorIs(t, err, apperror.ErrNoLegalMove)
	})
}

func TestRoundManager_EndRound(t *testing.T) {
	ctx := context.Background()

	repo := &mockRoundRepo{}
	manager := newManager(t, repo, &mockMoveChooser{}, "random")

	repo.On("DeleteByID", ctx, "r1").Return(nil).Once()
	repo.On("DeleteByID", ctx, "r2").Return(errRoundNotFound).Once()

	require.NoError(t, manager.EndRound(ctx, "r1"))
	require.ErrorIs(t, manager.EndRound(ctx, "r2"), errRoundNotFound)
}
