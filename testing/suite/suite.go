// Package suite provisions the backing stores the repository integration
// tests run against. Each suite boots a throwaway redis container for the
// participant store and tears it down with the test.
package suite

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/redis/go-redis/v9"
)

const (
	// Hard kill for the container in case a test leaks it.
	containerTTLSeconds = 120

	startTimeout = 120 * time.Second
)

type Suite struct {
	*testing.T
	Logger *slog.Logger

	// Participants is the redis client backing the participant profile
	// store under test.
	Participants *redis.Client
}

func New(t *testing.T) (context.Context, *Suite) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), startTimeout)
	t.Cleanup(cancel)

	// Same switch the server bootstrap uses, so LOG_LEVEL=debug turns the
	// suite chatty too.
	level := slog.LevelError
	if os.Getenv("LOG_LEVEL") == "debug" {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))

	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Fatalf("docker is not available: %v", err)
	}
	pool.MaxWait = startTimeout

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "redis",
		Tag:        "alpine",
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		t.Fatalf("could not start redis container: %v", err)
	}

	_ = resource.Expire(containerTTLSeconds)

	var participants *redis.Client
	if err = pool.Retry(func() error {
		participants = redis.NewClient(&redis.Options{
			Addr: resource.GetHostPort("6379/tcp"),
		})

		return participants.Ping(ctx).Err()
	}); err != nil {
		_ = pool.Purge(resource)
		t.Fatalf("redis never became reachable: %v", err)
	}

	// Start every suite from an empty participant store.
	if err = participants.FlushDB(ctx).Err(); err != nil {
		t.Fatalf("could not reset participant store: %v", err)
	}

	t.Cleanup(func() {
		if purgeErr := pool.Purge(resource); purgeErr != nil {
			t.Errorf("could not remove redis container: %v", purgeErr)
		}
	})

	return ctx, &Suite{
		T:            t,
		Logger:       logger,
		Participants: participants,
	}
}
