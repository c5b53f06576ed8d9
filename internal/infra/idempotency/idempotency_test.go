package idempotency

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreClaimOnce(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	ok, err := s.Claim(ctx, "collection.successful:col_1", time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Claim(ctx, "collection.successful:col_1", time.Hour)
	require.NoError(t, err)
	assert.False(t, ok, "second claim must be rejected")

	require.NoError(t, s.Release(ctx, "collection.successful:col_1"))
	ok, _ = s.Claim(ctx, "collection.successful:col_1", time.Hour)
	assert.True(t, ok, "released id can be claimed again")
}

func TestMemoryStoreExpiry(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s := NewMemoryStore()
	s.now = func() time.Time { return now }

	ok, _ := s.Claim(context.Background(), "e1", time.Minute)
	require.True(t, ok)

	now = now.Add(2 * time.Minute)
	ok, _ = s.Claim(context.Background(), "e1", time.Minute)
	assert.True(t, ok, "expired claim should be reusable")
}

func TestNewRedisStoreRejectsBadURL(t *testing.T) {
	_, err := NewRedisStore(context.Background(), "://nope")
	assert.Error(t, err)
}
