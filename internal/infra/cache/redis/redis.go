package redisx

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

type Cache struct {
	rdb    *redis.Client
	log    zerolog.Logger
	prefix string
}

type Config struct {
	Addr     string
	DB       int
	Password string
	Prefix   string // префикс ключей store, по умолчанию "bookmodule:"
}

func New(cfg Config, log zerolog.Logger) *Cache {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		DB:       cfg.DB,
		Password: cfg.Password,
	})
	return newWithClient(rdb, cfg.Prefix, log)
}

func newWithClient(rdb *redis.Client, prefix string, log zerolog.Logger) *Cache {
	if prefix == "" {
		prefix = "bookmodule:"
	}
	return &Cache{rdb: rdb, log: log, prefix: prefix}
}

func (c *Cache) Ping(ctx context.Context) error {
	err := c.rdb.Ping(ctx).Err()
	if err != nil {
		c.log.Error().Err(err).Msg("PING failed")
	} else {
		c.log.Debug().Msg("PING ok")
	}
	return err
}

func (c *Cache) Close() {
	if c.rdb == nil {
		c.log.Info().Msg("nothing to close")
		return
	}
	if err := c.rdb.Close(); err != nil {
		c.log.Error().Err(err).Msg("error while closing")
		return
	}
	c.log.Info().Msg("closed")
}

func ttlOf(seconds int) time.Duration {
	if seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	return 0
}

func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		c.log.Debug().Str("key", key).Msg("GET miss")
		return nil, nil
	}
	if err != nil {
		c.log.Error().Err(err).Str("key", key).Msg("GET failed")
	}
	return b, err
}

func (c *Cache) Set(ctx context.Context, key string, val []byte, ttlSeconds int) error {
	ttl := ttlOf(ttlSeconds)
	err := c.rdb.Set(ctx, key, val, ttl).Err()
	if err != nil {
		c.log.Error().Err(err).Str("key", key).Msg("SET failed")
	} else {
		c.log.Debug().Str("key", key).Dur("ttl", ttl).Msg("SET ok")
	}
	return err
}

func (c *Cache) Del(ctx context.Context, keys ...string) error {
	n, err := c.rdb.Del(ctx, keys...).Result()
	if err != nil {
		c.log.Error().Err(err).Strs("keys", keys).Msg("DEL failed")
	} else {
		c.log.Debug().Strs("keys", keys).Int64("deleted", n).Msg("DEL ok")
	}
	return err
}

// SetNX устанавливает значение только если ключ ещё не существует.
func (c *Cache) SetNX(ctx context.Context, key string, val []byte, ttlSeconds int) (bool, error) {
	ttl := ttlOf(ttlSeconds)
	ok, err := c.rdb.SetNX(ctx, key, val, ttl).Result()
	switch {
	case err != nil:
		c.log.Error().Err(err).Str("key", key).Msg("SETNX failed")
	case ok:
		c.log.Debug().Str("key", key).Dur("ttl", ttl).Msg("SETNX ok")
	default:
		c.log.Debug().Str("key", key).Msg("SETNX skipped (already exists)")
	}
	return ok, err
}

// Exists проверяет наличие ключа.
func (c *Cache) Exists(ctx context.Context, key string) (bool, error) {
	n, err := c.rdb.Exists(ctx, key).Result()
	if err != nil {
		c.log.Error().Err(err).Str("key", key).Msg("EXISTS failed")
		return false, err
	}
	return n == 1, nil
}
