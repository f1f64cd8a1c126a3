package session

import (
	"context"
	"testing"
	"time"

	"github.com/ngimbabet/predictions-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryRoutesAuthEvents(t *testing.T) {
	st := newFakeProfileStore()
	r := NewRegistry(st)
	require.NoError(t, r.Start())
	defer r.Close()

	err := st.PublishAuthChange(context.Background(), models.AuthEvent{
		Type:     models.AuthSignedIn,
		Identity: &viewer,
	})
	require.NoError(t, err)

	// Sign-in loads run off the stream goroutine.
	require.Eventually(t, func() bool {
		sync := r.Get(viewer.ID)
		if sync == nil {
			return false
		}
		_, profile, _ := sync.Current()
		return profile != nil
	}, time.Second, 10*time.Millisecond)

	err = st.PublishAuthChange(context.Background(), models.AuthEvent{
		Type:     models.AuthSignedOut,
		Identity: &viewer,
	})
	require.NoError(t, err)

	assert.Nil(t, r.Get(viewer.ID))
}

func TestRegistryEnsureCreatesMissingSession(t *testing.T) {
	st := newFakeProfileStore()
	r := NewRegistry(st)
	defer r.Close()

	sync := r.Ensure(context.Background(), viewer)
	require.NotNil(t, sync)

	_, profile, _ := sync.Current()
	require.NotNil(t, profile)
	assert.Equal(t, viewer.Email, profile.Email)

	// A second call reuses the loaded session.
	assert.Same(t, sync, r.Ensure(context.Background(), viewer))
	assert.Equal(t, 1, st.created)
}

func TestRegistryCloseSignsOutAllSessions(t *testing.T) {
	st := newFakeProfileStore()
	r := NewRegistry(st)

	sync := r.Ensure(context.Background(), viewer)
	r.Close()

	identity, profile, _ := sync.Current()
	assert.Nil(t, identity)
	assert.Nil(t, profile)
	assert.Nil(t, r.Get(viewer.ID))
}
