// Package memory, объектное хранилище в памяти (BLOB_ENGINE=inline и тесты).
package memory

import (
	"bytes"
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"sync"

	"github.com/EgorLis/book-module/internal/domain"
	"github.com/EgorLis/book-module/internal/infra/storage/byterange"
)

type object struct {
	data []byte
	mime string
}

type Storage struct {
	mu   sync.RWMutex
	objs map[string]object
}

func New() *Storage { return &Storage{objs: make(map[string]object)} }

func (s *Storage) Put(_ context.Context, r io.Reader, _ string, mime string) (domain.BlobPutResult, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return domain.BlobPutResult{}, err
	}
	sum := sha256.Sum256(data)
	key := fmt.Sprintf("sha256/%x", sum)

	s.mu.Lock()
	s.objs[key] = object{data: data, mime: mime}
	s.mu.Unlock()
	return domain.BlobPutResult{StorageKey: key, Size: int64(len(data)), SHA256: sum[:]}, nil
}

func (s *Storage) Get(_ context.Context, key string, rangeHeader string) (domain.BlobObject, error) {
	s.mu.RLock()
	obj, ok := s.objs[key]
	s.mu.RUnlock()
	if !ok {
		return domain.BlobObject{}, fmt.Errorf("%w: object %s", domain.ErrNotFound, key)
	}

	total := int64(len(obj.data))
	out := domain.BlobObject{ContentLen: total, ContentType: obj.mime, ETag: key}
	body := obj.data
	if start, end, ok := byterange.Parse(rangeHeader, total); ok {
		body = obj.data[start : end+1]
		out.ContentLen = end - start + 1
		out.ContentRange = byterange.ContentRange(start, end, total)
	}
	out.Body = io.NopCloser(bytes.NewReader(body))
	return out, nil
}

func (s *Storage) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.objs, key)
	s.mu.Unlock()
	return nil
}

func (s *Storage) Ping(context.Context) error { return nil }

// Len: число объектов (для тестов и readyz)
func (s *Storage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objs)
}
