package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rocketscienceinc/tictactoe-minimax/internal/config"
	"github.com/rocketscienceinc/tictactoe-minimax/internal/console"
	"github.com/rocketscienceinc/tictactoe-minimax/internal/engine"
	"github.com/rocketscienceinc/tictactoe-minimax/internal/repository"
	"github.com/rocketscienceinc/tictactoe-minimax/internal/repository/storage"
	"github.com/rocketscienceinc/tictactoe-minimax/internal/usecase"
	"github.com/rocketscienceinc/tictactoe-minimax/transport/rest"
	"github.com/rocketscienceinc/tictactoe-minimax/transport/websocket"
)

var (
	ErrAddrNotFound = errors.New("redis address string is empty")
	ErrUnknownMode  = errors.New("unknown application mode")
)

// RunApp - runs the application.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.Info("Received signal, shutting down", "signal", sig)
		cancel()
	}()

	switch conf.Mode {
	case config.ModeServer:
		return runServer(ctx, logger, conf)
	case config.ModeConsole:
		return runConsole(ctx, logger, conf)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownMode, conf.Mode)
	}
}

func runServer(ctx context.Context, logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	redisAddrString := conf.Redis.GetRedisAddr()
	if redisAddrString == "" {
		return ErrAddrNotFound
	}

	redisStorage, err := storage.NewRedisStorage(ctx, redisAddrString)
	if err != nil {
		return fmt.Errorf("could not connect to redis storage: %w", err)
	}

	defer func() {
		if err = redisStorage.Close(); err != nil {
			log.Error("could not close redis storage", "error", err)
		}
	}()

	roundRepo := repository.NewRoundRepository(redisStorage.Connection, conf.Round.TTL)

	roundManager, err := newRoundManager(logger, roundRepo, conf)
	if err != nil {
		return err
	}

	router := rest.New(logger, roundManager).Routes()
	router.Handle("/ws", websocket.New(logger, roundManager, conf.Round.AIDelay, conf.Round.MaxRounds))

	log.Info("Starting HTTP server", "port", conf.HTTPPort)

	if err = rest.Start(ctx, conf.HTTPPort, router); err != nil {
		return fmt.Errorf("HTTP server error: %w", err)
	}

	log.Info("Application context canceled, shutting down")

	return nil
}

func runConsole(ctx context.Context, logger *slog.Logger, conf *config.Config) error {
	roundManager, err := newRoundManager(logger, repository.NewMemoryRoundRepository(), conf)
	if err != nil {
		return err
	}

	game := console.New(logger, roundManager, os.Stdin, os.Stdout, conf.Round.AIDelay, conf.Round.MaxRounds)

	// stdin reads can't be interrupted, so a signal ends the game without waiting for them
	errCh := make(chan error, 1)
	go func() {
		errCh <- game.Run(ctx)
	}()

	select {
	case err = <-errCh:
		return err
	case <-ctx.Done():
		return nil
	}
}

func newRoundManager(logger *slog.Logger, roundRepo repository.RoundRepository, conf *config.Config) (*usecase.RoundManager, error) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano())) //nolint: gosec

	roundManager, err := usecase.NewRoundManager(logger, roundRepo, engine.New(), conf.Round.StartMark, rng)
	if err != nil {
		return nil, fmt.Errorf("could not create round manager: %w", err)
	}

	return roundManager, nil
}
