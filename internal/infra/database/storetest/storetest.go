// Package storetest, общий набор проверок для движков domain.Store.
package storetest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EgorLis/book-module/internal/domain"
)

// Run гоняет контракт get/getAll/put/delete. newStore должен отдавать пустое хранилище.
func Run(t *testing.T, newStore func(t *testing.T) domain.Store) {
	ctx := context.Background()

	t.Run("missing key is absent", func(t *testing.T) {
		s := newStore(t)
		_, ok, err := s.Get(ctx, domain.CollectionSettings, domain.IDKey("nope"))
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("put overwrites whole record", func(t *testing.T) {
		s := newStore(t)
		k := domain.PageKey(domain.ResourceKey{Book: domain.BookStudio, Page: 4})
		require.NoError(t, s.Put(ctx, domain.CollectionAnnotations, k, domain.Value{Data: []byte("first")}))
		require.NoError(t, s.Put(ctx, domain.CollectionAnnotations, k, domain.Value{Data: []byte("second")}))

		v, ok, err := s.Get(ctx, domain.CollectionAnnotations, k)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "second", string(v.Data))
	})

	t.Run("composite keys are distinct", func(t *testing.T) {
		s := newStore(t)
		a := domain.PageKey(domain.ResourceKey{Book: domain.BookStudio, Page: 1})
		b := domain.PageKey(domain.ResourceKey{Book: domain.BookCompanion, Page: 1})
		require.NoError(t, s.Put(ctx, domain.CollectionAnnotations, a, domain.Value{Data: []byte("a")}))
		require.NoError(t, s.Put(ctx, domain.CollectionAnnotations, b, domain.Value{Data: []byte("b")}))

		all, err := s.GetAll(ctx, domain.CollectionAnnotations)
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, a, all[1].Key)
		assert.Equal(t, b, all[0].Key)
	})

	t.Run("collections are isolated", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Put(ctx, domain.CollectionResources, domain.IDKey("x"), domain.Value{Data: []byte("r")}))
		_, ok, err := s.Get(ctx, domain.CollectionSettings, domain.IDKey("x"))
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("blob survives", func(t *testing.T) {
		s := newStore(t)
		in := domain.Value{
			Data: []byte("meta"),
			Blob: &domain.Blob{MIME: "audio/mpeg", Name: "a.mp3", Size: 4, SHA256: []byte{1, 2}, Data: []byte("ID3!")},
		}
		require.NoError(t, s.Put(ctx, domain.CollectionResources, domain.IDKey("custom-1"), in))
		out, ok, err := s.Get(ctx, domain.CollectionResources, domain.IDKey("custom-1"))
		require.NoError(t, err)
		require.True(t, ok)
		require.NotNil(t, out.Blob)
		assert.Equal(t, in.Blob.MIME, out.Blob.MIME)
		assert.Equal(t, in.Blob.Name, out.Blob.Name)
		assert.Equal(t, in.Blob.Size, out.Blob.Size)
		assert.Equal(t, in.Blob.Data, out.Blob.Data)
		assert.True(t, out.Blob.Inline())
	})

	t.Run("delete removes", func(t *testing.T) {
		s := newStore(t)
		k := domain.IDKey("custom-2")
		require.NoError(t, s.Put(ctx, domain.CollectionResources, k, domain.Value{Data: []byte("r")}))
		require.NoError(t, s.Delete(ctx, domain.CollectionResources, k))
		_, ok, err := s.Get(ctx, domain.CollectionResources, k)
		require.NoError(t, err)
		assert.False(t, ok)
		// повторное удаление, не ошибка
		require.NoError(t, s.Delete(ctx, domain.CollectionResources, k))
	})
}
