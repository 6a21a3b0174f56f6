package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiter_AllowsUpToLimit(t *testing.T) {
	rl := NewRateLimiter()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, err := rl.Allow(ctx, "k", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)
	}

	ok, err := rl.Allow(ctx, "k", 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRateLimiter_KeysAreIndependent(t *testing.T) {
	rl := NewRateLimiter()
	ctx := context.Background()

	ok, err := rl.Allow(ctx, "a", 1, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = rl.Allow(ctx, "a", 1, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = rl.Allow(ctx, "b", 1, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRateLimiter_WindowSlides(t *testing.T) {
	rl := NewRateLimiter()
	ctx := context.Background()

	ok, err := rl.Allow(ctx, "k", 1, 10*time.Millisecond)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = rl.Allow(ctx, "k", 1, 10*time.Millisecond)
	require.NoError(t, err)
	require.False(t, ok)

	time.Sleep(15 * time.Millisecond)

	ok, err = rl.Allow(ctx, "k", 1, 10*time.Millisecond)
	require.NoError(t, err)
	assert.True(t, ok)
}
