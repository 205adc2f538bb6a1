package rest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rocketscienceinc/tictactoe-minimax/internal/engine"
	"github.com/rocketscienceinc/tictactoe-minimax/internal/entity"
)

const shutdownTimeout = 5 * time.Second

type roundUseCase interface {
	StartRound(ctx context.Context, mode string) (*entity.Round, error)
	GetRound(ctx context.Context, id string) (*entity.Round, error)
	MakeTurn(ctx context.Context, id string, row, col int) (*entity.Round, error)
	PlayAI(ctx context.Context, id string) (*entity.Round, error)
	ResetRound(ctx context.Context, id string) (*entity.Round, error)
	Analyze(ctx context.Context, id string) ([]engine.MoveScore, error)
	EndRound(ctx context.Context, id string) error
}

type Server struct {
	logger *slog.Logger
	rounds roundUseCase
}

func New(logger *slog.Logger, rounds roundUseCase) *Server {
	return &Server{
		logger: logger.With("component", "rest"),
		rounds: rounds,
	}
}

// Routes - builds the router; callers may mount more handlers on it.
func (that *Server) Routes() chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)

	router.Get("/ping", NewPingHandler().PingHandler)

	router.Post("/rounds", that.startRound)
	router.Route("/rounds/{id}", func(r chi.Router) {
		r.Get("/", that.getRound)
		r.Delete("/", that.endRound)
		r.Post("/moves", that.makeTurn)
		r.Post("/ai-move", that.playAI)
		r.Post("/reset", that.resetRound)
		r.Get("/analysis", that.analyze)
	})

	return router
}

// Start - serves handler until ctx is cancelled, then shuts down gracefully.
func Start(ctx context.Context, port string, handler http.Handler) error {
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		_ = srv.Shutdown(shutdownCtx) //nolint: contextcheck // parent is already cancelled
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}
