// Package memory, in-memory движок domain.Store.
// Используется как STORE_ENGINE=memory и как fallback, когда основное хранилище не открылось.
package memory

import (
	"bytes"
	"context"
	"slices"
	"sync"

	"github.com/rs/zerolog"

	"github.com/EgorLis/book-module/internal/domain"
)

type Store struct {
	log  zerolog.Logger
	mu   sync.RWMutex
	data map[domain.Collection]map[domain.Key]domain.Value
}

func New(log zerolog.Logger) *Store {
	data := make(map[domain.Collection]map[domain.Key]domain.Value)
	for _, c := range domain.AllCollections() {
		data[c] = make(map[domain.Key]domain.Value)
	}
	return &Store{log: log, data: data}
}

func (s *Store) Get(_ context.Context, c domain.Collection, k domain.Key) (domain.Value, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[c][k]
	if !ok {
		return domain.Value{}, false, nil
	}
	return cloneValue(v), true, nil
}

// GetAll отдаёт записи в порядке ключей
func (s *Store) GetAll(_ context.Context, c domain.Collection) ([]domain.Entry, error) {
	s.mu.RLock()
	out := make([]domain.Entry, 0, len(s.data[c]))
	for k, v := range s.data[c] {
		out = append(out, domain.Entry{Key: k, Value: cloneValue(v)})
	}
	s.mu.RUnlock()

	slices.SortFunc(out, func(a, b domain.Entry) int { return domain.CompareKeys(a.Key, b.Key) })
	return out, nil
}

func (s *Store) Put(_ context.Context, c domain.Collection, k domain.Key, v domain.Value) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.data[c]
	if !ok {
		m = make(map[domain.Key]domain.Value)
		s.data[c] = m
	}
	m[k] = cloneValue(v)
	s.log.Debug().Str("collection", string(c)).Str("key", k.String()).Int("bytes", len(v.Data)).Msg("put")
	return nil
}

func (s *Store) Delete(_ context.Context, c domain.Collection, k domain.Key) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data[c], k)
	s.log.Debug().Str("collection", string(c)).Str("key", k.String()).Msg("delete")
	return nil
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() {}

func cloneValue(v domain.Value) domain.Value {
	out := domain.Value{Data: bytes.Clone(v.Data)}
	if v.Blob != nil {
		b := *v.Blob
		b.SHA256 = bytes.Clone(v.Blob.SHA256)
		b.Data = bytes.Clone(v.Blob.Data)
		out.Blob = &b
	}
	return out
}
