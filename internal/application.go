package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/crumplecup/strictly-games-sub000/internal/config"
	"github.com/crumplecup/strictly-games-sub000/internal/registry"
	"github.com/crumplecup/strictly-games-sub000/internal/repository"
	"github.com/crumplecup/strictly-games-sub000/internal/repository/storage"
	"github.com/crumplecup/strictly-games-sub000/internal/service"
	"github.com/crumplecup/strictly-games-sub000/transport/rest"
	"github.com/crumplecup/strictly-games-sub000/transport/websocket"
)

var ErrAddrNotFound = errors.New("redis address string is empty")

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

	sqliteStorage, err := storage.NewSQLiteStorage(conf.SQLiteStoragePath)
	if err != nil {
		return fmt.Errorf("could not open sqlite storage: %w", err)
	}

	defer func() {
		if err = sqliteStorage.Close(); err != nil {
			log.Error("could not close sqlite storage", "error", err)
		}
	}()

	if err = sqliteStorage.Init(ctx); err != nil {
		return fmt.Errorf("could not init sqlite storage: %w", err)
	}

	participantRepo := repository.NewParticipantRepository(redisStorage.Connection)
	statsRepo := repository.NewStatsRepository(sqliteStorage.Connection)

	sessions := registry.New(logger)

	participantService := service.NewParticipantService(participantRepo)
	statsService := service.NewStatsService(logger, statsRepo)
	authService := service.NewAuthService(conf.JWTSecretKey)
	arbiterService := service.NewArbiterService(logger, sessions, statsService)

	source := decisionSource(logger, conf)

	handlers := rest.NewGameHandlers(logger, sessions, arbiterService, statsService, authService, participantService, source)

	// run HTTP server
	httpErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "port", conf.HTTPPort)
		if httpErr := rest.Start(ctx, conf.HTTPPort, handlers); httpErr != nil {
			log.Error("HTTP server error", "error", httpErr)
			httpErrCh <- httpErr
		}
	}()

	// run Websocket server
	wsErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting WebSocket server", "port", conf.SocketPort)
		wsServer := websocket.New(logger, sessions)
		if wsErr := wsServer.Start(ctx, conf.SocketPort); wsErr != nil {
			log.Error("WebSocket server error", "error", wsErr)
			wsErrCh <- wsErr
		}
	}()

	select {
	case err = <-httpErrCh:
		return fmt.Errorf("HTTP server error: %w", err)
	case err = <-wsErrCh:
		return fmt.Errorf("WebSocket server error: %w", err)
	case <-ctx.Done():
		log.Info("Application context canceled, shutting down")
		return nil
	}
}

// decisionSource - picks the move source automated participants play with.
func decisionSource(logger *slog.Logger, conf *config.Config) service.DecisionSource {
	switch conf.Agent.Provider {
	case service.ProviderOpenAI, service.ProviderAnthropic:
		return service.NewLLMSource(logger, service.LLMConfig{
			Provider:  conf.Agent.Provider,
			BaseURL:   conf.Agent.BaseURL,
			APIKey:    conf.Agent.APIKey,
			Model:     conf.Agent.Model,
			MaxTokens: conf.Agent.MaxTokens,
		})
	default:
		return service.NewBotSource()
	}
}
