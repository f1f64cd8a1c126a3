package session

import (
	"context"
	"log/slog"
	"sync"

	"github.com/ngimbabet/predictions-backend/internal/models"
	"github.com/ngimbabet/predictions-backend/internal/store"
)

// Registry fans auth state changes out to per-identity synchronizers. It is
// created once by the composition root; sessions are added on sign-in and
// torn down on sign-out so no synchronizer outlives its session.
type Registry struct {
	st store.Store

	mu       sync.RWMutex
	sessions map[string]*Synchronizer
	unsub    store.Unsubscribe
}

func NewRegistry(st store.Store) *Registry {
	return &Registry{
		st:       st,
		sessions: make(map[string]*Synchronizer),
	}
}

// Start subscribes to the auth change stream.
func (r *Registry) Start() error {
	unsub, err := r.st.OnAuthChange(r.handle)
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.unsub = unsub
	r.mu.Unlock()
	return nil
}

// Ensure returns the synchronizer for an identity, creating and loading one
// when the session was never seen on the auth stream, e.g. a valid token
// presented after a restart.
func (r *Registry) Ensure(ctx context.Context, identity models.Identity) *Synchronizer {
	r.mu.RLock()
	sync, ok := r.sessions[identity.ID]
	r.mu.RUnlock()
	if ok {
		return sync
	}
	sync = r.getOrCreate(identity.ID)
	if err := sync.SignIn(ctx, identity); err != nil {
		slog.Error("session ensure failed", "user_id", identity.ID, "error", err)
	}
	return sync
}

// Get returns the synchronizer for an identity, or nil when it has no
// session.
func (r *Registry) Get(identityID string) *Synchronizer {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sessions[identityID]
}

// Close releases the auth subscription and all sessions.
func (r *Registry) Close() {
	r.mu.Lock()
	unsub := r.unsub
	r.unsub = nil
	for id, sync := range r.sessions {
		sync.SignOut()
		delete(r.sessions, id)
	}
	r.mu.Unlock()

	if unsub != nil {
		unsub()
	}
}

func (r *Registry) handle(ev models.AuthEvent) {
	switch ev.Type {
	case models.AuthSignedIn:
		if ev.Identity == nil {
			slog.Error("signed-in auth event without identity")
			return
		}
		sync := r.getOrCreate(ev.Identity.ID)
		// The callback runs on the change-stream goroutine; the profile
		// fetch must not block it.
		go func(identity models.Identity) {
			if err := sync.SignIn(context.Background(), identity); err != nil {
				slog.Error("session sign-in sync failed", "user_id", identity.ID, "error", err)
			}
		}(*ev.Identity)

	case models.AuthSignedOut:
		if ev.Identity == nil {
			return
		}
		r.mu.Lock()
		sync, ok := r.sessions[ev.Identity.ID]
		delete(r.sessions, ev.Identity.ID)
		r.mu.Unlock()
		if ok {
			sync.SignOut()
		}
	}
}

func (r *Registry) getOrCreate(identityID string) *Synchronizer {
	r.mu.Lock()
	defer r.mu.Unlock()
	if sync, ok := r.sessions[identityID]; ok {
		return sync
	}
	sync := NewSynchronizer(r.st)
	r.sessions[identityID] = sync
	return sync
}
