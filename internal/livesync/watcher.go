// Package livesync keeps in-memory read models of the pushed collection
// streams. Each pushed snapshot is mapped through normalize and replaces the
// previous value entirely; ordering is whatever the upstream query produced.
package livesync

import (
	"sync"

	"github.com/ngimbabet/predictions-backend/internal/models"
	"github.com/ngimbabet/predictions-backend/internal/normalize"
	"github.com/ngimbabet/predictions-backend/internal/store"
)

// PredictionWatcher mirrors the matches collection, ordered by start time
// descending.
type PredictionWatcher struct {
	mu        sync.RWMutex
	items     []models.Prediction
	version   uint64
	unsub     store.Unsubscribe
	closeOnce sync.Once
}

func WatchPredictions(st store.Store) (*PredictionWatcher, error) {
	w := &PredictionWatcher{}
	unsub, err := st.SubscribeCollection(store.CollectionMatches, "date", true, w.apply)
	if err != nil {
		return nil, err
	}
	w.unsub = unsub
	return w, nil
}

func (w *PredictionWatcher) apply(snap store.Snapshot) {
	items := make([]models.Prediction, 0, len(snap))
	for _, f := range snap {
		items = append(items, normalize.Prediction(f))
	}

	w.mu.Lock()
	w.items = items
	w.version++
	w.mu.Unlock()
}

// Snapshot returns a copy of the current collection in upstream order.
func (w *PredictionWatcher) Snapshot() []models.Prediction {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]models.Prediction, len(w.items))
	copy(out, w.items)
	return out
}

// Version increments on every applied snapshot.
func (w *PredictionWatcher) Version() uint64 {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.version
}

// Close releases the upstream subscription. Further pushes are dropped by
// the store, not by this watcher.
func (w *PredictionWatcher) Close() {
	w.closeOnce.Do(func() {
		if w.unsub != nil {
			w.unsub()
		}
	})
}

// UserEntry pairs a profile with the identity it belongs to.
type UserEntry struct {
	ID      string         `json:"id"`
	Profile models.Profile `json:"profile"`
}

// UserWatcher mirrors the users collection for the admin console.
type UserWatcher struct {
	mu        sync.RWMutex
	items     []UserEntry
	version   uint64
	unsub     store.Unsubscribe
	closeOnce sync.Once
}

func WatchUsers(st store.Store) (*UserWatcher, error) {
	w := &UserWatcher{}
	unsub, err := st.SubscribeCollection(store.CollectionUsers, "email", false, w.apply)
	if err != nil {
		return nil, err
	}
	w.unsub = unsub
	return w, nil
}

func (w *UserWatcher) apply(snap store.Snapshot) {
	items := make([]UserEntry, 0, len(snap))
	for _, f := range snap {
		id, _ := f["id"].(string)
		items = append(items, UserEntry{ID: id, Profile: normalize.Profile(f)})
	}

	w.mu.Lock()
	w.items = items
	w.version++
	w.mu.Unlock()
}

func (w *UserWatcher) Snapshot() []UserEntry {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]UserEntry, len(w.items))
	copy(out, w.items)
	return out
}

func (w *UserWatcher) Version() uint64 {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.version
}

func (w *UserWatcher) Close() {
	w.closeOnce.Do(func() {
		if w.unsub != nil {
			w.unsub()
		}
	})
}
