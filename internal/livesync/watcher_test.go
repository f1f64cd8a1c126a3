package livesync

import (
	"context"
	"errors"
	"testing"

	"github.com/ngimbabet/predictions-backend/internal/models"
	"github.com/ngimbabet/predictions-backend/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type subscribeStore struct {
	collection string
	orderField string
	descending bool
	cb         func(store.Snapshot)
	unsubbed   int
	err        error
}

func (s *subscribeStore) SubscribeCollection(name, orderField string, descending bool, cb func(store.Snapshot)) (store.Unsubscribe, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.collection = name
	s.orderField = orderField
	s.descending = descending
	s.cb = cb
	return func() { s.unsubbed++ }, nil
}

func (s *subscribeStore) GetProfile(context.Context, string) (store.Fields, error) {
	return nil, store.ErrNotFound
}

func (s *subscribeStore) CreateProfileIfAbsent(context.Context, string, store.Fields) (bool, error) {
	return false, nil
}

func (s *subscribeStore) UpdateProfile(context.Context, string, store.Fields) error {
	return nil
}

func (s *subscribeStore) AddRecord(context.Context, string, store.Fields) (string, error) {
	return "", nil
}

func (s *subscribeStore) UpdateRecord(context.Context, string, string, store.Fields) error {
	return nil
}

func (s *subscribeStore) DeleteRecord(context.Context, string, string) error {
	return nil
}

func (s *subscribeStore) OnAuthChange(func(models.AuthEvent)) (store.Unsubscribe, error) {
	return func() {}, nil
}

func (s *subscribeStore) PublishAuthChange(context.Context, models.AuthEvent) error {
	return nil
}

func TestWatchPredictionsSubscribesByDateDescending(t *testing.T) {
	st := &subscribeStore{}
	w, err := WatchPredictions(st)
	require.NoError(t, err)
	defer w.Close()

	assert.Equal(t, store.CollectionMatches, st.collection)
	assert.Equal(t, "date", st.orderField)
	assert.True(t, st.descending)
}

func TestPredictionWatcherReplacesSnapshot(t *testing.T) {
	st := &subscribeStore{}
	w, err := WatchPredictions(st)
	require.NoError(t, err)
	defer w.Close()

	st.cb(store.Snapshot{
		{"id": "a", "homeTeam": "Arsenal", "awayTeam": "Chelsea", "category": "free"},
		{"id": "b", "homeTeam": "Inter", "awayTeam": "Milan", "category": "safe"},
	})

	first := w.Snapshot()
	require.Len(t, first, 2)
	assert.Equal(t, "a", first[0].ID)
	assert.Equal(t, models.CategorySafe, first[1].Category)

	// The next push fully replaces the previous state, including removals.
	st.cb(store.Snapshot{
		{"id": "b", "homeTeam": "Inter", "awayTeam": "Milan", "category": "safe"},
	})

	second := w.Snapshot()
	require.Len(t, second, 1)
	assert.Equal(t, "b", second[0].ID)
	assert.Equal(t, uint64(2), w.Version())
}

func TestPredictionWatcherSnapshotIsACopy(t *testing.T) {
	st := &subscribeStore{}
	w, err := WatchPredictions(st)
	require.NoError(t, err)
	defer w.Close()

	st.cb(store.Snapshot{{"id": "a", "homeTeam": "Arsenal", "awayTeam": "Chelsea"}})

	got := w.Snapshot()
	got[0].HomeTeam = "mutated"

	assert.Equal(t, "Arsenal", w.Snapshot()[0].HomeTeam)
}

func TestPredictionWatcherCloseUnsubscribesOnce(t *testing.T) {
	st := &subscribeStore{}
	w, err := WatchPredictions(st)
	require.NoError(t, err)

	w.Close()
	w.Close()
	assert.Equal(t, 1, st.unsubbed)
}

func TestWatchPredictionsPropagatesSubscribeError(t *testing.T) {
	st := &subscribeStore{err: errors.New("redis down")}
	_, err := WatchPredictions(st)
	require.Error(t, err)
}

func TestUserWatcherCarriesIdentityID(t *testing.T) {
	st := &subscribeStore{}
	w, err := WatchUsers(st)
	require.NoError(t, err)
	defer w.Close()

	assert.Equal(t, store.CollectionUsers, st.collection)
	assert.Equal(t, "email", st.orderField)
	assert.False(t, st.descending)

	st.cb(store.Snapshot{
		{"id": "u-1", "email": "a@example.com", "subscription": "fixed", "status": "active"},
		{"id": "u-2", "email": "b@example.com"},
	})

	users := w.Snapshot()
	require.Len(t, users, 2)
	assert.Equal(t, "u-1", users[0].ID)
	assert.Equal(t, models.TierFixed, users[0].Profile.Tier)
	assert.Equal(t, models.ProfileInactive, users[1].Profile.Status, "untagged profiles default to inactive")
}
