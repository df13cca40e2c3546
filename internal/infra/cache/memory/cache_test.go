package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTTL(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(1_700_000_000, 0)
	c := New()
	c.now = func() time.Time { return now }

	ok, err := c.SetNX(ctx, "k", []byte("v"), 10)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, _ = c.SetNX(ctx, "k", []byte("v2"), 10)
	assert.False(t, ok)

	v, _ := c.Get(ctx, "k")
	assert.Equal(t, "v", string(v))

	now = now.Add(11 * time.Second)
	exists, _ := c.Exists(ctx, "k")
	assert.False(t, exists)

	require.NoError(t, c.Set(ctx, "p", []byte("x"), 0))
	now = now.Add(24 * time.Hour)
	exists, _ = c.Exists(ctx, "p")
	assert.True(t, exists)

	require.NoError(t, c.Del(ctx, "p"))
	v, _ = c.Get(ctx, "p")
	assert.Nil(t, v)
}
