package storage

import (
	"bytes"
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/EgorLis/book-module/internal/domain"
)

// offloadStore выносит тела блобов в объектное хранилище; в записи остаётся только StorageKey.
type offloadStore struct {
	domain.Store
	blobs domain.BlobStorage
	log   zerolog.Logger
}

// WithBlobOffload оборачивает Store: inline-блобы при Put загружаются в blobs,
// при Delete объект удаляется, если на него больше никто не ссылается.
func WithBlobOffload(s domain.Store, blobs domain.BlobStorage, log zerolog.Logger) domain.Store {
	return &offloadStore{Store: s, blobs: blobs, log: log}
}

func (s *offloadStore) Put(ctx context.Context, c domain.Collection, k domain.Key, v domain.Value) error {
	old, had, err := s.Store.Get(ctx, c, k)
	if err != nil {
		// без старой версии только не чистим объект, запись всё равно пишем
		s.log.Warn().Err(err).Str("key", k.String()).Msg("read before put")
		had = false
	}

	if v.Blob != nil && v.Blob.Inline() && len(v.Blob.Data) > 0 {
		res, err := s.blobs.Put(ctx, bytes.NewReader(v.Blob.Data), v.Blob.Name, v.Blob.MIME)
		if err != nil {
			return fmt.Errorf("offload blob %s: %w", k, err)
		}
		b := *v.Blob
		b.StorageKey = res.StorageKey
		b.SHA256 = res.SHA256
		b.Size = res.Size
		b.Data = nil
		v.Blob = &b
		s.log.Debug().Str("key", k.String()).Str("storage_key", res.StorageKey).Int64("size", res.Size).Msg("blob offloaded")
	}
	if err := s.Store.Put(ctx, c, k, v); err != nil {
		return err
	}

	if had && old.Blob != nil && old.Blob.StorageKey != "" &&
		(v.Blob == nil || v.Blob.StorageKey != old.Blob.StorageKey) {
		s.release(ctx, c, old.Blob.StorageKey)
	}
	return nil
}

func (s *offloadStore) Delete(ctx context.Context, c domain.Collection, k domain.Key) error {
	old, ok, err := s.Store.Get(ctx, c, k)
	if err != nil {
		return err
	}
	if err := s.Store.Delete(ctx, c, k); err != nil {
		return err
	}
	if !ok || old.Blob == nil || old.Blob.StorageKey == "" {
		return nil
	}
	s.release(ctx, c, old.Blob.StorageKey)
	return nil
}

// release удаляет объект, если ни одна запись коллекции на него больше не ссылается.
// Ключи контентно-адресуемые: один объект может принадлежать нескольким записям.
func (s *offloadStore) release(ctx context.Context, c domain.Collection, storageKey string) {
	all, err := s.Store.GetAll(ctx, c)
	if err != nil {
		s.log.Warn().Err(err).Str("storage_key", storageKey).Msg("skip blob cleanup")
		return
	}
	for _, e := range all {
		if e.Value.Blob != nil && e.Value.Blob.StorageKey == storageKey {
			return
		}
	}
	if err := s.blobs.Delete(ctx, storageKey); err != nil {
		s.log.Warn().Err(err).Str("storage_key", storageKey).Msg("blob delete failed")
		return
	}
	s.log.Debug().Str("storage_key", storageKey).Msg("blob released")
}
