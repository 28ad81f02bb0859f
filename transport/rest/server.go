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

	"github.com/rocketscienceinc/blinktactoe-backend/internal/entity"
)

const shutdownTimeout = 5 * time.Second

type uGame interface {
	GetGame(ctx context.Context, id string) (entity.Game, error)
	MakeTurn(ctx context.Context, id string, cell int) (entity.Game, error)
	ResetGame(ctx context.Context, id string) (entity.Game, error)
	UpdateSettings(ctx context.Context, id string, settings entity.Settings) (entity.Game, error)
}

type botService interface {
	SelectMove(game *entity.Game) (int, error)
}

// NewRouter wires the HTTP routes.
func NewRouter(logger *slog.Logger, uGame uGame, bot botService, check HealthCheck) http.Handler {
	ping := NewPingHandler(check)
	games := NewGameHandler(logger, uGame)
	bots := NewBotHandler(logger, bot)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/ping", ping.PingHandler)

	r.Route("/api", func(r chi.Router) {
		r.Post("/bot/move", bots.SelectMove)

		r.Route("/games/{id}", func(r chi.Router) {
			r.Get("/", games.GetGame)
			r.Post("/turn", games.MakeTurn)
			r.Post("/reset", games.ResetGame)
			r.Put("/settings", games.UpdateSettings)
		})
	})

	return r
}

// Start serves handler on port until ctx is cancelled.
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
