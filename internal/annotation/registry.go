package annotation

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/EgorLis/book-module/internal/catalog"
	"github.com/EgorLis/book-module/internal/persist"
	"github.com/EgorLis/book-module/internal/storage"
)

// Registry держит движок аннотаций на каждую сессию (jti токена).
// Движок живёт до DELETE /v1/session или до exp токена.
type Registry struct {
	catalog *catalog.Catalog
	repo    *storage.Repo
	queue   *persist.Queue
	log     zerolog.Logger
	now     func() time.Time

	mu      sync.Mutex
	engines map[string]*session
}

type session struct {
	engine  *Engine
	expires time.Time // zero, без срока
}

func (s *session) expired(now time.Time) bool {
	return !s.expires.IsZero() && !now.Before(s.expires)
}

func NewRegistry(cat *catalog.Catalog, repo *storage.Repo, queue *persist.Queue, log zerolog.Logger) *Registry {
	return &Registry{
		catalog: cat,
		repo:    repo,
		queue:   queue,
		log:     log,
		now:     time.Now,
		engines: make(map[string]*session),
	}
}

// Session возвращает движок сессии, создавая его при первом обращении.
// Заодно выбрасывает движки истёкших сессий.
func (r *Registry) Session(id string, expires time.Time) *Engine {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sweepLocked(r.now())
	if s, ok := r.engines[id]; ok {
		if expires.After(s.expires) {
			s.expires = expires
		}
		return s.engine
	}
	e := NewEngine(r.catalog, r.repo, r.queue, r.log.With().Str("session", id).Logger())
	r.engines[id] = &session{engine: e, expires: expires}
	return e
}

// Drop забывает движок сессии. Уже поставленные записи выполнятся.
func (r *Registry) Drop(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.engines[id]
	delete(r.engines, id)
	return ok
}

// Sweep выбрасывает движки сессий, чей токен истёк
func (r *Registry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sweepLocked(r.now())
}

func (r *Registry) sweepLocked(now time.Time) int {
	n := 0
	for id, s := range r.engines {
		if s.expired(now) {
			delete(r.engines, id)
			n++
		}
	}
	if n > 0 {
		r.log.Info().Int("evicted", n).Int("live", len(r.engines)).Msg("expired sessions dropped")
	}
	return n
}

// Janitor периодически вызывает Sweep, пока не отменён ctx
func (r *Registry) Janitor(ctx context.Context, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			r.Sweep()
		}
	}
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.engines)
}
