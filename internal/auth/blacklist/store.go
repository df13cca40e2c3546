package blacklist

import (
	"context"
	"time"

	"github.com/EgorLis/book-module/internal/domain"
)

// KV — минимальный интерфейс, который нам нужен от кеша.
type KV interface {
	SetNX(ctx context.Context, key string, val []byte, ttlSeconds int) (bool, error)
	Exists(ctx context.Context, key string) (bool, error)
}

// Store — отозванные сессии читателей (DELETE /v1/session)
type Store struct {
	kv     KV
	prefix string
}

var _ domain.TokenBlacklist = (*Store)(nil)

func NewStore(kv KV, prefix string) *Store {
	return &Store{kv: kv, prefix: prefix}
}

func (s *Store) key(jti string) string { return s.prefix + domain.CacheKeyTokenJTI(jti) }

// Revoke помечает jti отозванным до времени exp (TTL = exp-now).
func (s *Store) Revoke(ctx context.Context, jti string, exp time.Time) error {
	ttl := time.Until(exp)
	if ttl < time.Second {
		ttl = time.Minute // exp в прошлом или почти истёк
	}
	_, err := s.kv.SetNX(ctx, s.key(jti), []byte("1"), int(ttl.Seconds()))
	return err
}

func (s *Store) IsRevoked(ctx context.Context, jti string) (bool, error) {
	return s.kv.Exists(ctx, s.key(jti))
}
