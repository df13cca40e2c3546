// Package overlay, админские оверлеи над каталогом: удалённые статические ресурсы,
// правки статических ресурсов и порядок ресурсов на страницах.
//
// Изменения применяются в памяти сразу, запись в settings уходит в очередь целиком.
package overlay

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/rs/zerolog"

	"github.com/EgorLis/book-module/internal/compose"
	"github.com/EgorLis/book-module/internal/domain"
	"github.com/EgorLis/book-module/internal/persist"
	"github.com/EgorLis/book-module/internal/storage"
)

type Store struct {
	repo  *storage.Repo
	queue *persist.Queue
	log   zerolog.Logger

	mu       sync.RWMutex
	deleted  map[string]struct{}
	modified map[string]domain.Resource
	order    map[domain.ResourceKey][]string
}

func New(repo *storage.Repo, queue *persist.Queue, log zerolog.Logger) *Store {
	return &Store{
		repo:     repo,
		queue:    queue,
		log:      log,
		deleted:  map[string]struct{}{},
		modified: map[string]domain.Resource{},
		order:    map[domain.ResourceKey][]string{},
	}
}

// Load читает все три настройки. Ошибка чтения = сохранённого нет, берём пустые значения.
func (s *Store) Load(ctx context.Context) {
	deleted, err := s.repo.DeletedStaticIDs(ctx)
	if err != nil {
		s.log.Warn().Err(err).Str("kind", persist.Kind(err)).Str("setting", domain.SettingDeletedStaticIDs).Msg("load failed, using defaults")
	}
	modified, err := s.repo.ModifiedStaticResources(ctx)
	if err != nil {
		s.log.Warn().Err(err).Str("kind", persist.Kind(err)).Str("setting", domain.SettingModifiedStaticResources).Msg("load failed, using defaults")
	}
	order, err := s.repo.ResourceOrder(ctx)
	if err != nil {
		s.log.Warn().Err(err).Str("kind", persist.Kind(err)).Str("setting", domain.SettingResourceOrder).Msg("load failed, using defaults")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = make(map[string]struct{}, len(deleted))
	for _, id := range deleted {
		s.deleted[id] = struct{}{}
	}
	s.modified = map[string]domain.Resource{}
	maps.Copy(s.modified, modified)
	s.order = map[domain.ResourceKey][]string{}
	maps.Copy(s.order, order)

	s.log.Info().
		Int("deleted", len(s.deleted)).
		Int("modified", len(s.modified)).
		Int("ordered_pages", len(s.order)).
		Msg("overlay loaded")
}

// Snapshot: независимая копия для конвейера compose
func (s *Store) Snapshot() compose.Overlay {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := compose.Overlay{
		DeletedStaticIDs:        maps.Clone(s.deleted),
		ModifiedStaticResources: maps.Clone(s.modified),
		ResourceOrder:           make(map[domain.ResourceKey][]string, len(s.order)),
	}
	for k, ids := range s.order {
		out.ResourceOrder[k] = slices.Clone(ids)
	}
	return out
}

func (s *Store) IsDeleted(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.deleted[id]
	return ok
}

func (s *Store) Order(key domain.ResourceKey) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.order[key])
}

// AddDeleted: мягкое удаление статического ресурса
func (s *Store) AddDeleted(id string) {
	s.mu.Lock()
	if _, ok := s.deleted[id]; ok {
		s.mu.Unlock()
		return
	}
	s.deleted[id] = struct{}{}
	ids := slices.Sorted(maps.Keys(s.deleted))
	s.queue.Enqueue("overlay.deleted", func(ctx context.Context) error {
		return s.repo.PutDeletedStaticIDs(ctx, ids)
	})
	s.mu.Unlock()
}

// SetModified: правка полей статического ресурса
func (s *Store) SetModified(r domain.Resource) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.modified[r.ID] = r
	snapshot := maps.Clone(s.modified)
	s.queue.Enqueue("overlay.modified", func(ctx context.Context) error {
		return s.repo.PutModifiedStaticResources(ctx, snapshot)
	})
}

func (s *Store) SetOrder(key domain.ResourceKey, ids []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.order[key] = slices.Clone(ids)
	s.persistOrderLocked()
}

// RemoveFromOrders убирает id из всех списков порядка; false, id нигде не было
func (s *Store) RemoveFromOrders(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	changed := false
	for k, ids := range s.order {
		if !slices.Contains(ids, id) {
			continue
		}
		s.order[k] = slices.DeleteFunc(slices.Clone(ids), func(x string) bool { return x == id })
		changed = true
	}
	if changed {
		s.persistOrderLocked()
	}
	return changed
}

// Запись ставится в очередь под мьютексом: порядок записей совпадает с порядком изменений.
func (s *Store) persistOrderLocked() {
	snapshot := make(map[domain.ResourceKey][]string, len(s.order))
	for k, ids := range s.order {
		snapshot[k] = slices.Clone(ids)
	}
	s.queue.Enqueue("overlay.order", func(ctx context.Context) error {
		return s.repo.PutResourceOrder(ctx, snapshot)
	})
}
