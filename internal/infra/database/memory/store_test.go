package memory

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EgorLis/book-module/internal/domain"
	"github.com/EgorLis/book-module/internal/infra/database/storetest"
)

func TestStoreCRUD(t *testing.T) {
	ctx := context.Background()
	s := New(zerolog.Nop())

	_, ok, err := s.Get(ctx, domain.CollectionSettings, domain.IDKey("missing"))
	require.NoError(t, err)
	assert.False(t, ok)

	k := domain.PageKey(domain.ResourceKey{Book: domain.BookStudio, Page: 2})
	require.NoError(t, s.Put(ctx, domain.CollectionAnnotations, k, domain.Value{Data: []byte("a")}))
	require.NoError(t, s.Put(ctx, domain.CollectionAnnotations, k, domain.Value{Data: []byte("b")}))

	v, ok, err := s.Get(ctx, domain.CollectionAnnotations, k)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("b"), v.Data)

	require.NoError(t, s.Delete(ctx, domain.CollectionAnnotations, k))
	_, ok, _ = s.Get(ctx, domain.CollectionAnnotations, k)
	assert.False(t, ok)
}

func TestStoreCopiesValues(t *testing.T) {
	ctx := context.Background()
	s := New(zerolog.Nop())

	in := domain.Value{Data: []byte("abc"), Blob: &domain.Blob{MIME: "text/plain", Data: []byte("xyz")}}
	require.NoError(t, s.Put(ctx, domain.CollectionResources, domain.IDKey("r"), in))
	in.Data[0] = 'Z'
	in.Blob.Data[0] = 'Z'

	out, _, _ := s.Get(ctx, domain.CollectionResources, domain.IDKey("r"))
	assert.Equal(t, "abc", string(out.Data))
	assert.Equal(t, "xyz", string(out.Blob.Data))
}

func TestGetAllSorted(t *testing.T) {
	ctx := context.Background()
	s := New(zerolog.Nop())
	for _, id := range []string{"c", "a", "b"} {
		require.NoError(t, s.Put(ctx, domain.CollectionResources, domain.IDKey(id), domain.Value{}))
	}
	all, err := s.GetAll(ctx, domain.CollectionResources)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{all[0].Key.ID, all[1].Key.ID, all[2].Key.ID})
}

func TestStoreConformance(t *testing.T) {
	storetest.Run(t, func(*testing.T) domain.Store { return New(zerolog.Nop()) })
}
