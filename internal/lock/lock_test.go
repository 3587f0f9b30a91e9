package lock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_AcquireIsExclusive(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	ok, err := m.Acquire(ctx, "installing", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = m.Acquire(ctx, "installing", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = m.Acquire(ctx, "uninstalling", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMemory_ReleaseFreesLock(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	_, _ = m.Acquire(ctx, "k", time.Minute)
	require.NoError(t, m.Release(ctx, "k"))

	ok, err := m.Acquire(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMemory_ExpiredLockCanBeRetaken(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewMemory()
	m.clock = func() time.Time { return now }
	ctx := context.Background()

	_, _ = m.Acquire(ctx, "k", 10*time.Minute)

	now = now.Add(9 * time.Minute)
	ok, _ := m.Acquire(ctx, "k", 10*time.Minute)
	assert.False(t, ok)

	now = now.Add(2 * time.Minute)
	ok, _ = m.Acquire(ctx, "k", 10*time.Minute)
	assert.True(t, ok)
}
