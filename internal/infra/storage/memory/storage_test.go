package memory

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EgorLis/book-module/internal/domain"
)

func TestPutGetRange(t *testing.T) {
	ctx := context.Background()
	s := New()

	res, err := s.Put(ctx, strings.NewReader("0123456789"), "digits.txt", "text/plain")
	require.NoError(t, err)
	assert.EqualValues(t, 10, res.Size)
	assert.True(t, strings.HasPrefix(res.StorageKey, "sha256/"))

	// тот же контент, тот же ключ
	again, err := s.Put(ctx, strings.NewReader("0123456789"), "other.txt", "text/plain")
	require.NoError(t, err)
	assert.Equal(t, res.StorageKey, again.StorageKey)
	assert.Equal(t, 1, s.Len())

	obj, err := s.Get(ctx, res.StorageKey, "bytes=2-4")
	require.NoError(t, err)
	body, _ := io.ReadAll(obj.Body)
	assert.Equal(t, "234", string(body))
	assert.Equal(t, "bytes 2-4/10", obj.ContentRange)
	assert.EqualValues(t, 3, obj.ContentLen)

	require.NoError(t, s.Delete(ctx, res.StorageKey))
	_, err = s.Get(ctx, res.StorageKey, "")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
