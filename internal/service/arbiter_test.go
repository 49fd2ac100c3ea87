package service

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crumplecup/strictly-games-sub000/internal/apperror"
	"github.com/crumplecup/strictly-games-sub000/internal/entity"
	"github.com/crumplecup/strictly-games-sub000/internal/pkg"
	"github.com/crumplecup/strictly-games-sub000/internal/registry"
	"github.com/crumplecup/strictly-games-sub000/internal/repository"
	"github.com/crumplecup/strictly-games-sub000/internal/tictactoe"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestArbiter(sessions *registry.Registry, stats StatsService) *arbiterService {
	return &arbiterService{
		logger:       testLogger().With("component", "arbiter"),
		sessions:     sessions,
		stats:        stats,
		pollInterval: 5 * time.Millisecond,
		maxPolls:     20,
	}
}

// scriptedSource replays a fixed position sequence, repeating the last
// entry once the script runs out.
type scriptedSource struct {
	positions []tictactoe.Position
	calls     int
}

func (that *scriptedSource) ProposeMove(_ context.Context, _ MoveRequest) (tictactoe.Position, error) {
	index := that.calls
	if index >= len(that.positions) {
		index = len(that.positions) - 1
	}
	that.calls++

	return that.positions[index], nil
}

// recordingStats captures RecordResult calls without a backing store.
type recordingStats struct {
	mu        sync.Mutex
	recorded  []string
	outcomes  []string
	sessionID string
}

func (that *recordingStats) RecordResult(_ context.Context, session *entity.Session, participantID string) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.recorded = append(that.recorded, participantID)
	that.sessionID = session.ID

	return nil
}

func (that *recordingStats) AggregatedByName(context.Context, string) (*repository.AggregatedStats, error) {
	return &repository.AggregatedStats{}, nil
}

func TestArbiter_BotVersusBot(t *testing.T) {
	t.Run("Two automated participants play a full game to completion", func(t *testing.T) {
		// Given: an empty registry and two bots joining the same session
		sessions := registry.New(testLogger())
		stats := &recordingStats{}
		arbiter := newTestArbiter(sessions, stats)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		var wg sync.WaitGroup
		reports := make([]*GameReport, 2)
		errs := make([]error, 2)

		for i, name := range []string{"Alice", "Bob"} {
			wg.Add(1)
			go func(i int, name string) {
				defer wg.Done()
				reports[i], errs[i] = arbiter.PlayGame(ctx, "match-1", name, NewBotSource())
			}(i, name)
		}
		wg.Wait()

		// Then: both runs complete with consistent reports
		require.NoError(t, errs[0])
		require.NoError(t, errs[1])
		require.NotNil(t, reports[0])
		require.NotNil(t, reports[1])

		assert.Equal(t, reports[0].Moves, reports[1].Moves)
		assert.GreaterOrEqual(t, reports[0].Moves, 5)
		assert.LessOrEqual(t, reports[0].Moves, 9)
		assert.NotEqual(t, reports[0].Mark, reports[1].Mark)

		outcomes := []string{reports[0].Outcome, reports[1].Outcome}
		if reports[0].Outcome == "draw" {
			assert.Equal(t, []string{"draw", "draw"}, outcomes)
		} else {
			assert.ElementsMatch(t, []string{"win", "loss"}, outcomes)
		}

		// And: the stored game is finished and structurally sound
		stored, err := sessions.Get("match-1")
		require.NoError(t, err)
		assert.True(t, stored.Game.IsOver())
		assert.NoError(t, tictactoe.CheckInvariants(stored.Game))

		// And: each participant recorded its own result
		stats.mu.Lock()
		defer stats.mu.Unlock()
		assert.Len(t, stats.recorded, 2)
		assert.ElementsMatch(t, []string{
			pkg.ParticipantID("match-1", "Alice"),
			pkg.ParticipantID("match-1", "Bob"),
		}, stats.recorded)
		assert.Equal(t, "match-1", stats.sessionID)
	})
}

func TestArbiter_OpponentTimeout(t *testing.T) {
	t.Run("Waiting on an opponent who never moves ends with a timeout error", func(t *testing.T) {
		// Given: a lone participant whose opponent slot stays empty after
		// its first move
		sessions := registry.New(testLogger())
		arbiter := newTestArbiter(sessions, nil)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		// When: playing a session nobody else joins
		report, err := arbiter.PlayGame(ctx, "lonely", "Alice", NewBotSource())

		// Then: the wait bound elapses
		require.Nil(t, report)
		assert.ErrorIs(t, err, apperror.ErrOpponentWaitTimedOut)

		// And: the first move landed before the wait began
		stored, getErr := sessions.Get("lonely")
		require.NoError(t, getErr)
		assert.Len(t, stored.Game.History, 1)
	})

	t.Run("Cancellation interrupts the wait", func(t *testing.T) {
		sessions := registry.New(testLogger())
		arbiter := newTestArbiter(sessions, nil)
		arbiter.maxPolls = 100000

		ctx, cancel := context.WithCancel(context.Background())

		done := make(chan error, 1)
		go func() {
			_, err := arbiter.PlayGame(ctx, "lonely", "Alice", NewBotSource())
			done <- err
		}()

		time.Sleep(50 * time.Millisecond)
		cancel()

		select {
		case err := <-done:
			assert.ErrorIs(t, err, context.Canceled)
		case <-time.After(5 * time.Second):
			t.Fatal("arbitration never observed cancellation")
		}
	})
}

func TestArbiter_EnsureRegistered(t *testing.T) {
	t.Run("A repeat registration resumes with the mark already held", func(t *testing.T) {
		sessions := registry.New(testLogger())
		arbiter := newTestArbiter(sessions, nil)

		participantID := pkg.ParticipantID("match-1", "Alice")

		first, err := arbiter.ensureRegistered("match-1", participantID, "Alice")
		require.NoError(t, err)

		again, err := arbiter.ensureRegistered("match-1", participantID, "Alice")
		require.NoError(t, err)

		assert.Equal(t, first, again)

		stored, err := sessions.Get("match-1")
		require.NoError(t, err)
		assert.Equal(t, 1, stored.ParticipantCount())
	})

	t.Run("A third distinct participant is rejected", func(t *testing.T) {
		sessions := registry.New(testLogger())
		arbiter := newTestArbiter(sessions, nil)

		for _, name := range []string{"Alice", "Bob"} {
			_, err := arbiter.ensureRegistered("match-1", pkg.ParticipantID("match-1", name), name)
			require.NoError(t, err)
		}

		_, err := arbiter.ensureRegistered("match-1", pkg.ParticipantID("match-1", "Carol"), "Carol")

		assert.ErrorIs(t, err, apperror.ErrSlotsFull)
	})
}

func TestArbiter_ElicitAndApply(t *testing.T) {
	readyPair := func(t *testing.T) (*registry.Registry, string, string) {
		t.Helper()

		sessions := registry.New(testLogger())
		_, err := sessions.Create("match-1")
		require.NoError(t, err)

		alice := pkg.ParticipantID("match-1", "Alice")
		bob := pkg.ParticipantID("match-1", "Bob")

		_, err = sessions.RegisterAtomic("match-1", alice, "Alice", entity.KindAgent)
		require.NoError(t, err)
		_, err = sessions.RegisterAtomic("match-1", bob, "Bob", entity.KindAgent)
		require.NoError(t, err)

		return sessions, alice, bob
	}

	t.Run("A choice gone stale is discarded without surfacing an error", func(t *testing.T) {
		// Given: a snapshot taken before the opponent grabs center
		sessions, alice, bob := readyPair(t)
		arbiter := newTestArbiter(sessions, nil)

		snapshot, err := sessions.Get("match-1")
		require.NoError(t, err)

		require.NoError(t, sessions.Mutate("match-1", func(live *entity.Session) error {
			return live.MakeMove(alice, tictactoe.Center)
		}))

		// When: the stale snapshot elicits center for the other player
		source := &scriptedSource{positions: []tictactoe.Position{tictactoe.Center}}
		err = arbiter.elicitAndApply(context.Background(), snapshot, bob, tictactoe.PlayerO, source)

		// Then: the round is dropped silently and nothing extra landed
		require.NoError(t, err)
		stored, err := sessions.Get("match-1")
		require.NoError(t, err)
		assert.Len(t, stored.Game.History, 1)
	})

	t.Run("A fresh choice is applied", func(t *testing.T) {
		sessions, alice, _ := readyPair(t)
		arbiter := newTestArbiter(sessions, nil)

		snapshot, err := sessions.Get("match-1")
		require.NoError(t, err)

		source := &scriptedSource{positions: []tictactoe.Position{tictactoe.Center}}
		err = arbiter.elicitAndApply(context.Background(), snapshot, alice, tictactoe.PlayerX, source)

		require.NoError(t, err)
		stored, err := sessions.Get("match-1")
		require.NoError(t, err)
		require.Len(t, stored.Game.History, 1)
		assert.Equal(t, tictactoe.Center, stored.Game.History[0].Position)
	})

	t.Run("A source stuck outside the candidate menu exhausts its attempts", func(t *testing.T) {
		// Given: center is already occupied, so it is never a candidate
		sessions, alice, bob := readyPair(t)
		arbiter := newTestArbiter(sessions, nil)

		require.NoError(t, sessions.Mutate("match-1", func(live *entity.Session) error {
			return live.MakeMove(alice, tictactoe.Center)
		}))

		snapshot, err := sessions.Get("match-1")
		require.NoError(t, err)

		// When: the source insists on center every attempt
		source := &scriptedSource{positions: []tictactoe.Position{tictactoe.Center}}
		err = arbiter.elicitAndApply(context.Background(), snapshot, bob, tictactoe.PlayerO, source)

		// Then: elicitation fails after the attempt bound
		require.Error(t, err)
		assert.Equal(t, maxProposeAttempts, source.calls)
	})
}
