package redisx

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/fxamacker/cbor/v2"
	"github.com/redis/go-redis/v9"

	"github.com/EgorLis/book-module/internal/domain"
)

// Движок domain.Store поверх Redis: одна hash-структура на коллекцию,
// поле, строковое представление ключа, значение, CBOR(record).

type record struct {
	ID    string              `cbor:"id,omitempty"`
	Book  domain.BookCategory `cbor:"book,omitempty"`
	Page  int                 `cbor:"page,omitempty"`
	Value domain.Value        `cbor:"value"`
}

func (c *Cache) hashKey(col domain.Collection) string { return c.prefix + string(col) }

// Store возвращает представление Cache как domain.Store
func (c *Cache) Store() domain.Store { return (*Store)(c) }

type Store Cache

func (s *Store) cache() *Cache { return (*Cache)(s) }

func (s *Store) Get(ctx context.Context, col domain.Collection, k domain.Key) (domain.Value, bool, error) {
	c := s.cache()
	b, err := c.rdb.HGet(ctx, c.hashKey(col), k.String()).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Value{}, false, nil
	}
	if err != nil {
		c.log.Error().Err(err).Str("collection", string(col)).Str("key", k.String()).Msg("HGET failed")
		return domain.Value{}, false, err
	}
	var rec record
	if err := cbor.Unmarshal(b, &rec); err != nil {
		return domain.Value{}, false, fmt.Errorf("decode %s/%s: %w", col, k, err)
	}
	return rec.Value, true, nil
}

func (s *Store) GetAll(ctx context.Context, col domain.Collection) ([]domain.Entry, error) {
	c := s.cache()
	m, err := c.rdb.HGetAll(ctx, c.hashKey(col)).Result()
	if err != nil {
		c.log.Error().Err(err).Str("collection", string(col)).Msg("HGETALL failed")
		return nil, err
	}
	out := make([]domain.Entry, 0, len(m))
	for field, raw := range m {
		var rec record
		if err := cbor.Unmarshal([]byte(raw), &rec); err != nil {
			c.log.Warn().Err(err).Str("collection", string(col)).Str("field", field).Msg("skip undecodable record")
			continue
		}
		out = append(out, domain.Entry{
			Key:   domain.Key{ID: rec.ID, Book: rec.Book, Page: rec.Page},
			Value: rec.Value,
		})
	}
	slices.SortFunc(out, func(a, b domain.Entry) int { return domain.CompareKeys(a.Key, b.Key) })
	return out, nil
}

func (s *Store) Put(ctx context.Context, col domain.Collection, k domain.Key, v domain.Value) error {
	c := s.cache()
	b, err := cbor.Marshal(record{ID: k.ID, Book: k.Book, Page: k.Page, Value: v})
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", col, k, err)
	}
	if err := c.rdb.HSet(ctx, c.hashKey(col), k.String(), b).Err(); err != nil {
		c.log.Error().Err(err).Str("collection", string(col)).Str("key", k.String()).Msg("HSET failed")
		return err
	}
	c.log.Debug().Str("collection", string(col)).Str("key", k.String()).Int("bytes", len(b)).Msg("HSET ok")
	return nil
}

func (s *Store) Delete(ctx context.Context, col domain.Collection, k domain.Key) error {
	c := s.cache()
	if err := c.rdb.HDel(ctx, c.hashKey(col), k.String()).Err(); err != nil {
		c.log.Error().Err(err).Str("collection", string(col)).Str("key", k.String()).Msg("HDEL failed")
		return err
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error { return s.cache().Ping(ctx) }

func (s *Store) Close() { s.cache().Close() }
