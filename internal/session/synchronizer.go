// Package session tracks the authenticated identity and subscription profile
// of each signed-in viewer, reacting to auth state changes pushed by the
// store.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/ngimbabet/predictions-backend/internal/models"
	"github.com/ngimbabet/predictions-backend/internal/normalize"
	"github.com/ngimbabet/predictions-backend/internal/store"
)

// State of a synchronizer.
type State int

const (
	SignedOut State = iota
	ProfileLoading
	Ready
)

// DefaultProfile is the profile provisioned on first sign-in.
func DefaultProfile(email string) models.Profile {
	return models.Profile{
		Email:  email,
		Tier:   models.TierFree,
		Status: models.ProfileActive,
	}
}

// Synchronizer holds one identity's session state. Access decisions must not
// be made from an unknown profile: while a fetch has not succeeded the state
// stays ProfileLoading (fail closed), and a transient fetch failure never
// clears an already-loaded profile.
type Synchronizer struct {
	st store.Store

	// loadMu serializes profile loads so provisioning happens at most once
	// per identity even under concurrent auth events.
	loadMu sync.Mutex

	mu       sync.Mutex
	state    State
	identity *models.Identity
	profile  *models.Profile
	lastErr  error
}

func NewSynchronizer(st store.Store) *Synchronizer {
	return &Synchronizer{st: st, state: SignedOut}
}

// SignIn transitions to ProfileLoading and fetches the profile, provisioning
// a default one if the identity has none yet. Transient store failures are
// logged and return nil; other failures are returned as a non-fatal
// condition while the session stays usable for unauthenticated views.
func (s *Synchronizer) SignIn(ctx context.Context, identity models.Identity) error {
	s.mu.Lock()
	s.identity = &identity
	s.state = ProfileLoading
	s.mu.Unlock()

	return s.load(ctx)
}

// SignOut resets the session.
func (s *Synchronizer) SignOut() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = SignedOut
	s.identity = nil
	s.profile = nil
	s.lastErr = nil
}

// Retry re-attempts a profile load after a failure.
func (s *Synchronizer) Retry(ctx context.Context) error {
	s.mu.Lock()
	signedIn := s.identity != nil
	s.mu.Unlock()
	if !signedIn {
		return nil
	}
	return s.load(ctx)
}

// Current returns the identity, profile and whether the profile is still
// loading. The profile is nil until the first successful fetch.
func (s *Synchronizer) Current() (*models.Identity, *models.Profile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identity, s.profile, s.state == ProfileLoading
}

// Err returns the last fetch failure, if any.
func (s *Synchronizer) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

func (s *Synchronizer) load(ctx context.Context) error {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	s.mu.Lock()
	ident := s.identity
	s.mu.Unlock()
	if ident == nil {
		return nil
	}

	fields, err := s.st.GetProfile(ctx, ident.ID)
	if errors.Is(err, store.ErrNotFound) {
		defaults := normalize.ProfileFields(DefaultProfile(ident.Email))
		created, createErr := s.st.CreateProfileIfAbsent(ctx, ident.ID, defaults)
		if createErr != nil {
			return s.fail(ident, createErr)
		}
		if created {
			slog.Info("default profile provisioned", "user_id", ident.ID, "email", ident.Email)
		}
		fields, err = s.st.GetProfile(ctx, ident.ID)
	}
	if err != nil {
		return s.fail(ident, err)
	}

	profile := normalize.Profile(fields)

	s.mu.Lock()
	defer s.mu.Unlock()
	// The session may have signed out, or a different identity may have
	// signed in, while the fetch was in flight.
	if s.identity == nil || s.identity.ID != ident.ID {
		return nil
	}
	s.profile = &profile
	s.state = Ready
	s.lastErr = nil
	return nil
}

func (s *Synchronizer) fail(ident *models.Identity, err error) error {
	s.mu.Lock()
	s.lastErr = err
	s.mu.Unlock()

	if errors.Is(err, store.ErrUnavailable) {
		slog.Warn("profile fetch unavailable, keeping last known state",
			"user_id", ident.ID, "error", err)
		return nil
	}
	slog.Error("profile fetch failed", "user_id", ident.ID, "error", err)
	return err
}
