package store

import (
	"context"
	"errors"

	"github.com/ngimbabet/predictions-backend/internal/models"
)

// Collection names as used by the legacy data. The matches collection holds
// prediction records ordered by their "date" field; the users collection
// holds subscription profiles keyed by identity ID.
const (
	CollectionMatches = "matches"
	CollectionUsers   = "users"
)

var (
	// ErrNotFound is returned when a record or profile does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrUnavailable marks transient connectivity failures. Callers keep
	// their last-known-good state and rely on the client's own reconnect.
	ErrUnavailable = errors.New("store unavailable")
)

// Fields is the loose record shape as persisted: legacy key names
// ("date" for the start time, "odd" for odds-as-string) with lowercase enum
// tags. The normalize package converts between Fields and canonical types.
type Fields map[string]any

// Snapshot is a full ordered result set, pushed on every collection change.
type Snapshot []Fields

// Unsubscribe releases a subscription. Safe to call more than once.
type Unsubscribe func()

// Store is the capability boundary to the persistence and change-stream
// backend. Any backend able to push full ordered snapshots can implement it.
type Store interface {
	GetProfile(ctx context.Context, identityID string) (Fields, error)

	// CreateProfileIfAbsent provisions a profile only when none exists for
	// the identity (compare-and-create, never an overwrite). It reports
	// whether a profile was created.
	CreateProfileIfAbsent(ctx context.Context, identityID string, defaults Fields) (bool, error)

	// UpdateProfile merges the given fields into the stored profile.
	UpdateProfile(ctx context.Context, identityID string, fields Fields) error

	// SubscribeCollection delivers the full result set ordered by orderField
	// on every change, starting with the current state. Each push replaces
	// the previous snapshot entirely.
	SubscribeCollection(name, orderField string, descending bool, cb func(Snapshot)) (Unsubscribe, error)

	AddRecord(ctx context.Context, collection string, fields Fields) (string, error)
	UpdateRecord(ctx context.Context, collection, id string, fields Fields) error
	DeleteRecord(ctx context.Context, collection, id string) error

	// OnAuthChange delivers every auth state change.
	OnAuthChange(cb func(models.AuthEvent)) (Unsubscribe, error)

	// PublishAuthChange broadcasts an auth state change to all subscribers.
	PublishAuthChange(ctx context.Context, ev models.AuthEvent) error
}
