package blacklist

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EgorLis/book-module/internal/infra/cache/memory"
)

func TestRevoke(t *testing.T) {
	ctx := context.Background()
	kv := memory.New()
	s := NewStore(kv, "bookmodule:")

	revoked, err := s.IsRevoked(ctx, "abc")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, s.Revoke(ctx, "abc", time.Now().Add(time.Hour)))
	revoked, err = s.IsRevoked(ctx, "abc")
	require.NoError(t, err)
	assert.True(t, revoked)

	ok, _ := kv.Exists(ctx, "bookmodule:jti:abc")
	assert.True(t, ok)

	// повторный отзыв — не ошибка
	require.NoError(t, s.Revoke(ctx, "abc", time.Now().Add(-time.Hour)))
}
