package repository

import (
	"context"
	"sync"

	"github.com/rocketscienceinc/tictactoe-minimax/internal/entity"
)

type memRound struct {
	mu     sync.RWMutex
	rounds map[string]entity.Round
}

// NewMemoryRoundRepository - keeps rounds in process memory; used by the console mode.
func NewMemoryRoundRepository() RoundRepository {
	return &memRound{
		rounds: make(map[string]entity.Round),
	}
}

func (that *memRound) CreateOrUpdate(_ context.Context, round *entity.Round) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.rounds[round.ID] = *round

	return nil
}

func (that *memRound) GetByID(_ context.Context, id string) (*entity.Round, error) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	round, ok := that.rounds[id]
	if !ok {
		return &entity.Round{}, ErrRoundNotFound
	}

	return &round, nil
}

func (that *memRound) DeleteByID(_ context.Context, id string) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if _, ok := that.rounds[id]; !ok {
		return ErrRoundNotFound
	}

	delete(that.rounds, id)

	return nil
}
