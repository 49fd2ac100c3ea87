package rest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Start - serves the REST surface until the context is canceled.
func Start(ctx context.Context, port string, handlers *GameHandlers) error {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ping", pingHandler)
	mux.HandleFunc("POST /register", handlers.RegisterPlayer)
	mux.HandleFunc("POST /start", handlers.StartGame)
	mux.HandleFunc("POST /move", handlers.MakeMove)
	mux.HandleFunc("GET /board", handlers.GetBoard)
	mux.HandleFunc("GET /sessions", handlers.ListSessions)
	mux.HandleFunc("POST /play", handlers.PlayGame)
	mux.HandleFunc("GET /stats", handlers.GetStats)

	srv := &http.Server{
		Addr:        ":" + port,
		Handler:     mux,
		ReadTimeout: 10 * time.Second,
		// PlayGame blocks for the length of a whole game.
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  30 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}
