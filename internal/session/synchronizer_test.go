package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/ngimbabet/predictions-backend/internal/models"
	"github.com/ngimbabet/predictions-backend/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProfileStore struct {
	mu       sync.Mutex
	profiles map[string]store.Fields
	getErr   error
	created  int
	authCb   func(models.AuthEvent)
}

func newFakeProfileStore() *fakeProfileStore {
	return &fakeProfileStore{profiles: make(map[string]store.Fields)}
}

func (f *fakeProfileStore) setErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getErr = err
}

func (f *fakeProfileStore) GetProfile(_ context.Context, id string) (store.Fields, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	fields, ok := f.profiles[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	out := store.Fields{"id": id}
	for k, v := range fields {
		out[k] = v
	}
	return out, nil
}

func (f *fakeProfileStore) CreateProfileIfAbsent(_ context.Context, id string, defaults store.Fields) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return false, f.getErr
	}
	if _, ok := f.profiles[id]; ok {
		return false, nil
	}
	f.profiles[id] = defaults
	f.created++
	return true, nil
}

func (f *fakeProfileStore) UpdateProfile(_ context.Context, id string, fields store.Fields) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	existing, ok := f.profiles[id]
	if !ok {
		return store.ErrNotFound
	}
	for k, v := range fields {
		existing[k] = v
	}
	return nil
}

func (f *fakeProfileStore) SubscribeCollection(string, string, bool, func(store.Snapshot)) (store.Unsubscribe, error) {
	return func() {}, nil
}

func (f *fakeProfileStore) AddRecord(context.Context, string, store.Fields) (string, error) {
	return "", errors.New("not implemented")
}

func (f *fakeProfileStore) UpdateRecord(context.Context, string, string, store.Fields) error {
	return errors.New("not implemented")
}

func (f *fakeProfileStore) DeleteRecord(context.Context, string, string) error {
	return errors.New("not implemented")
}

func (f *fakeProfileStore) OnAuthChange(cb func(models.AuthEvent)) (store.Unsubscribe, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.authCb = cb
	return func() {}, nil
}

func (f *fakeProfileStore) PublishAuthChange(_ context.Context, ev models.AuthEvent) error {
	f.mu.Lock()
	cb := f.authCb
	f.mu.Unlock()
	if cb != nil {
		cb(ev)
	}
	return nil
}

var viewer = models.Identity{ID: "u-1", Email: "viewer@example.com"}

func TestSignInLoadsExistingProfile(t *testing.T) {
	st := newFakeProfileStore()
	st.profiles[viewer.ID] = store.Fields{
		"email":        viewer.Email,
		"subscription": "fixed",
		"billing":      "monthly",
		"status":       "active",
	}

	s := NewSynchronizer(st)
	require.NoError(t, s.SignIn(context.Background(), viewer))

	identity, profile, loading := s.Current()
	require.NotNil(t, identity)
	require.NotNil(t, profile)
	assert.False(t, loading)
	assert.Equal(t, models.TierFixed, profile.Tier)
	assert.Zero(t, st.created, "existing profile must not be overwritten")
}

func TestSignInProvisionsDefaultProfile(t *testing.T) {
	st := newFakeProfileStore()
	s := NewSynchronizer(st)

	require.NoError(t, s.SignIn(context.Background(), viewer))

	_, profile, loading := s.Current()
	require.NotNil(t, profile)
	assert.False(t, loading)
	assert.Equal(t, viewer.Email, profile.Email)
	assert.Equal(t, models.TierFree, profile.Tier)
	assert.Equal(t, models.ProfileActive, profile.Status)
	assert.Equal(t, models.BillingNone, profile.Billing)
	assert.Nil(t, profile.Expires)
	assert.Equal(t, 1, st.created)
}

func TestConcurrentSignInProvisionsExactlyOnce(t *testing.T) {
	st := newFakeProfileStore()
	s := NewSynchronizer(st)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.SignIn(context.Background(), viewer)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, st.created)
	_, profile, _ := s.Current()
	require.NotNil(t, profile)
}

func TestTransientFailureFailsClosed(t *testing.T) {
	st := newFakeProfileStore()
	st.setErr(fmt.Errorf("%w: connection refused", store.ErrUnavailable))

	s := NewSynchronizer(st)
	require.NoError(t, s.SignIn(context.Background(), viewer), "transient failures are not surfaced")

	_, profile, loading := s.Current()
	assert.Nil(t, profile, "no access decisions from an unknown profile")
	assert.True(t, loading)
	assert.ErrorIs(t, s.Err(), store.ErrUnavailable)

	// Connectivity returns; a retry completes the load.
	st.setErr(nil)
	require.NoError(t, s.Retry(context.Background()))

	_, profile, loading = s.Current()
	require.NotNil(t, profile)
	assert.False(t, loading)
	assert.NoError(t, s.Err())
}

func TestPermanentFailureIsSurfaced(t *testing.T) {
	st := newFakeProfileStore()
	st.setErr(errors.New("permission denied"))

	s := NewSynchronizer(st)
	err := s.SignIn(context.Background(), viewer)
	require.Error(t, err)

	_, profile, loading := s.Current()
	assert.Nil(t, profile)
	assert.True(t, loading)
}

func TestSignOutClearsSession(t *testing.T) {
	st := newFakeProfileStore()
	s := NewSynchronizer(st)
	require.NoError(t, s.SignIn(context.Background(), viewer))

	s.SignOut()

	identity, profile, loading := s.Current()
	assert.Nil(t, identity)
	assert.Nil(t, profile)
	assert.False(t, loading)
	assert.NoError(t, s.Err())
}

func TestRetryWithoutSessionIsNoop(t *testing.T) {
	st := newFakeProfileStore()
	s := NewSynchronizer(st)
	require.NoError(t, s.Retry(context.Background()))
	assert.Zero(t, st.created)
}
