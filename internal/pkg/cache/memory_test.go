package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache_SetGet(t *testing.T) {
	c := NewMemoryCache("bookshop")
	ctx := context.Background()

	key := c.GenerateKey("create-order", "abc")
	assert.Equal(t, "bookshop:create-order:abc", key)

	require.NoError(t, c.Set(ctx, key, "order-1", time.Minute))

	got, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "order-1", got)
}

func TestMemoryCache_MissReturnsEmpty(t *testing.T) {
	c := NewMemoryCache("bookshop")

	got, err := c.Get(context.Background(), "nope")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestMemoryCache_Expiry(t *testing.T) {
	c := NewMemoryCache("bookshop")
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", "v", time.Nanosecond))
	time.Sleep(5 * time.Millisecond)

	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Empty(t, got)
}
