// Package registry holds the in-memory session collection shared by every
// call handler. All mutation goes through the registry so concurrent moves
// on one session are serialized instead of racing on stale snapshots.
package registry

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/crumplecup/strictly-games-sub000/internal/apperror"
	"github.com/crumplecup/strictly-games-sub000/internal/entity"
	"github.com/crumplecup/strictly-games-sub000/internal/tictactoe"
)

type Registry struct {
	logger *slog.Logger

	mu       sync.RWMutex
	sessions map[string]*entity.Session
	changed  chan struct{}
}

func New(logger *slog.Logger) *Registry {
	return &Registry{
		logger:   logger.With("component", "registry"),
		sessions: make(map[string]*entity.Session),
		changed:  make(chan struct{}),
	}
}

// Create - inserts a fresh session under the given id.
func (that *Registry) Create(id string) (*entity.Session, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if _, ok := that.sessions[id]; ok {
		return nil, fmt.Errorf("%w: %s", apperror.ErrSessionAlreadyExists, id)
	}

	session := entity.NewSession(id)
	that.sessions[id] = session
	that.notifyLocked()

	that.logger.Info("session created", "sessionID", id)

	return session.Clone(), nil
}

// Get - returns an independent snapshot of the session, never a live
// handle.
func (that *Registry) Get(id string) (*entity.Session, error) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	session, ok := that.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", apperror.ErrSessionNotFound, id)
	}

	return session.Clone(), nil
}

// Update - replaces the stored entry wholesale, keyed by the session id.
// Prefer Mutate for read-modify-write cycles; Update exists for callers
// that assembled a snapshot out of band.
func (that *Registry) Update(session *entity.Session) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.sessions[session.ID] = session.Clone()
	that.notifyLocked()
}

// Mutate - runs fn against the live session under the registry lock. This
// is the serialized read-modify-write path: two concurrent moves on the
// same session cannot overwrite each other's effect. Watchers are notified
// only when fn succeeds.
func (that *Registry) Mutate(id string, fn func(session *entity.Session) error) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	session, ok := that.sessions[id]
	if !ok {
		return fmt.Errorf("%w: %s", apperror.ErrSessionNotFound, id)
	}

	if err := fn(session); err != nil {
		return err
	}

	that.notifyLocked()

	return nil
}

// RegisterAtomic - looks up the session and registers the participant as
// one indivisible operation, so two simultaneous registrations cannot both
// be assigned the same mark.
func (that *Registry) RegisterAtomic(sessionID, participantID, name, kind string) (tictactoe.Player, error) {
	var mark tictactoe.Player

	err := that.Mutate(sessionID, func(session *entity.Session) error {
		assigned, err := session.RegisterParticipant(participantID, name, kind)
		if err != nil {
			return err
		}

		mark = assigned

		return nil
	})
	if err != nil {
		return "", err
	}

	that.logger.Info("participant registered", "sessionID", sessionID, "participantID", participantID, "mark", mark)

	return mark, nil
}

// List - all session ids in lexical order.
func (that *Registry) List() []string {
	that.mu.RLock()
	defer that.mu.RUnlock()

	ids := make([]string, 0, len(that.sessions))
	for id := range that.sessions {
		ids = append(ids, id)
	}

	sort.Strings(ids)

	return ids
}

// Remove - deletes a session. Nothing on the serving path removes
// sessions; this exists for tests and operator tooling.
func (that *Registry) Remove(id string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	delete(that.sessions, id)
	that.notifyLocked()
}

// Watch - returns a channel that is closed on the next registry change.
// Callers re-arm by calling Watch again, so waiting for an opponent's move
// is a broadcast wakeup instead of a bare fixed-interval poll.
func (that *Registry) Watch() <-chan struct{} {
	that.mu.RLock()
	defer that.mu.RUnlock()

	return that.changed
}

func (that *Registry) notifyLocked() {
	close(that.changed)
	that.changed = make(chan struct{})
}
