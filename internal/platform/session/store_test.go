package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	store := &memoryStore{revoked: make(map[string]time.Time), now: func() time.Time { return now }}

	revoked, err := store.IsRevoked(ctx, "t1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, store.Revoke(ctx, "t1", now.Add(time.Hour)))
	require.NoError(t, store.Revoke(ctx, "already-expired", now.Add(-time.Second)))

	revoked, err = store.IsRevoked(ctx, "t1")
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = store.IsRevoked(ctx, "already-expired")
	require.NoError(t, err)
	assert.False(t, revoked)

	now = now.Add(2 * time.Hour)
	revoked, err = store.IsRevoked(ctx, "t1")
	require.NoError(t, err)
	assert.False(t, revoked)
	assert.Empty(t, store.revoked)
}
