// File: internal/session/registry_test.go
package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tm-webstudio/service4me-sub000/internal/config"
	"github.com/tm-webstudio/service4me-sub000/internal/provider"
)

func newTestRegistry(t *testing.T) (*Registry, *fakeProfiles) {
	t.Helper()
	profiles := newFakeProfiles()
	cfg := &config.Config{SessionTTL: time.Hour}
	factory := func() provider.Client { return newFakeClient() }
	r := NewRegistry(cfg, factory, profiles, zap.NewNop())
	t.Cleanup(r.Close)
	return r, profiles
}

func TestRegistry_CreateInitializesManager(t *testing.T) {
	r, _ := newTestRegistry(t)

	sid, m, err := r.Create(context.Background())
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.NotEmpty(t, sid)

	st := m.Snapshot()
	assert.Equal(t, StatusUnauthenticated, st.Status, "a fresh session with no provider state starts signed out")
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_GetReturnsSameManager(t *testing.T) {
	r, _ := newTestRegistry(t)

	sid, m, err := r.Create(context.Background())
	require.NoError(t, err)

	got, ok := r.Get(sid)
	require.True(t, ok)
	assert.Same(t, m, got)
}

func TestRegistry_GetUnknownID(t *testing.T) {
	r, _ := newTestRegistry(t)

	_, ok := r.Get("never-issued")
	assert.False(t, ok)
}

func TestRegistry_GetOrCreate(t *testing.T) {
	r, _ := newTestRegistry(t)

	sid, m, err := r.GetOrCreate(context.Background(), "")
	require.NoError(t, err)
	require.NotNil(t, m)

	sameSid, same, err := r.GetOrCreate(context.Background(), sid)
	require.NoError(t, err)
	assert.Equal(t, sid, sameSid)
	assert.Same(t, m, same)

	freshSid, fresh, err := r.GetOrCreate(context.Background(), "expired-or-forged")
	require.NoError(t, err)
	assert.NotEqual(t, sid, freshSid, "an unknown id must produce a new session, not resurrect the old one")
	assert.NotSame(t, m, fresh)
}

func TestRegistry_DistinctSessionsGetDistinctIDs(t *testing.T) {
	r, _ := newTestRegistry(t)

	sidA, _, err := r.Create(context.Background())
	require.NoError(t, err)
	sidB, _, err := r.Create(context.Background())
	require.NoError(t, err)

	assert.NotEqual(t, sidA, sidB)
	assert.Equal(t, 2, r.Len())
}

func TestRegistry_DeleteClosesManager(t *testing.T) {
	profiles := newFakeProfiles()
	client := newFakeClient()
	cfg := &config.Config{SessionTTL: time.Hour}
	r := NewRegistry(cfg, func() provider.Client { return client }, profiles, zap.NewNop())
	t.Cleanup(r.Close)

	sid, _, err := r.Create(context.Background())
	require.NoError(t, err)

	r.Delete(sid)

	assert.Eventually(t, func() bool {
		client.mu.Lock()
		defer client.mu.Unlock()
		return client.closed
	}, 2*time.Second, 10*time.Millisecond, "eviction must close the provider client")
	assert.Equal(t, 0, r.Len())
	_, ok := r.Get(sid)
	assert.False(t, ok)
}

func TestRegistry_CloseEvictsEverything(t *testing.T) {
	r, _ := newTestRegistry(t)

	_, _, err := r.Create(context.Background())
	require.NoError(t, err)
	_, _, err = r.Create(context.Background())
	require.NoError(t, err)

	r.Close()
	assert.Equal(t, 0, r.Len())
}
