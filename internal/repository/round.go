package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rocketscienceinc/tictactoe-minimax/internal/entity"
)

var ErrRoundNotFound = errors.New("round not found")

const roundKeyPrefix = "round:"

type RoundRepository interface {
	CreateOrUpdate(ctx context.Context, round *entity.Round) error
	GetByID(ctx context.Context, id string) (*entity.Round, error)
	DeleteByID(ctx context.Context, id string) error
}

type dbRound struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRoundRepository - rounds expire ttl after their last update; zero keeps them until deleted.
func NewRoundRepository(client *redis.Client, ttl time.Duration) RoundRepository {
	return &dbRound{
		client: client,
		ttl:    ttl,
	}
}

func (that *dbRound) CreateOrUpdate(ctx context.Context, round *entity.Round) error {
	roundJSON, err := json.Marshal(round)
	if err != nil {
		return fmt.Errorf("could not marshal round: %w", err)
	}

	err = that.client.Set(ctx, roundKeyPrefix+round.ID, roundJSON, that.ttl).Err()
	if err != nil {
		return fmt.Errorf("failed to set round: %w", err)
	}

	return nil
}

func (that *dbRound) GetByID(ctx context.Context, id string) (*entity.Round, error) {
	response, err := that.client.Get(ctx, roundKeyPrefix+id).Result()

	if errors.Is(err, redis.Nil) {
		return &entity.Round{}, ErrRoundNotFound
	}

	if err != nil {
		return &entity.Round{}, fmt.Errorf("failed to get round by ID: %w", err)
	}

	var existingRound entity.Round
	if err = json.Unmarshal([]byte(response), &existingRound); err != nil {
		return &entity.Round{}, fmt.Errorf("failed to unmarshal round: %w", err)
	}

	return &existingRound, nil
}

func (that *dbRound) DeleteByID(ctx context.Context, id string) error {
	deleted, err := that.client.Del(ctx, roundKeyPrefix+id).Result()
	if err != nil {
		return fmt.Errorf("failed to delete round by ID: %w", err)
	}

	if deleted == 0 {
		return ErrRoundNotFound
	}

	return nil
}
