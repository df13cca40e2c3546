// Package library, ресурсы страниц: каталог + пользовательские ресурсы + оверлеи.
package library

import (
	"context"
	"crypto/sha256"
	"fmt"
	"math/rand/v2"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/EgorLis/book-module/internal/blobs"
	"github.com/EgorLis/book-module/internal/catalog"
	"github.com/EgorLis/book-module/internal/compose"
	"github.com/EgorLis/book-module/internal/domain"
	"github.com/EgorLis/book-module/internal/overlay"
	"github.com/EgorLis/book-module/internal/persist"
	"github.com/EgorLis/book-module/internal/policy"
	"github.com/EgorLis/book-module/internal/storage"
)

// Upload: файл, приложенный к ресурсу
type Upload struct {
	Name string
	MIME string
	Data []byte
}

func (u *Upload) blob() *domain.Blob {
	sum := sha256.Sum256(u.Data)
	return &domain.Blob{MIME: u.MIME, Name: u.Name, Size: int64(len(u.Data)), SHA256: sum[:], Data: u.Data}
}

// InferType: video/* -> video, audio/* -> audio, application/pdf -> document
func InferType(mime string) (domain.ResourceType, bool) {
	switch {
	case strings.HasPrefix(mime, "video/"):
		return domain.ResourceVideo, true
	case strings.HasPrefix(mime, "audio/"):
		return domain.ResourceAudio, true
	case mime == "application/pdf":
		return domain.ResourceDocument, true
	}
	return "", false
}

type Service struct {
	catalog *catalog.Catalog
	overlay *overlay.Store
	blobs   *blobs.Manager
	repo    *storage.Repo
	queue   *persist.Queue
	log     zerolog.Logger
	now     func() time.Time

	mu     sync.RWMutex
	custom map[domain.ResourceKey][]domain.Resource
	owner  map[string]domain.ResourceKey
	files  map[string]*domain.Blob
}

func New(
	cat *catalog.Catalog,
	ov *overlay.Store,
	bm *blobs.Manager,
	repo *storage.Repo,
	queue *persist.Queue,
	log zerolog.Logger,
) *Service {
	return &Service{
		catalog: cat,
		overlay: ov,
		blobs:   bm,
		repo:    repo,
		queue:   queue,
		log:     log,
		now:     time.Now,
		custom:  make(map[domain.ResourceKey][]domain.Resource),
		owner:   make(map[string]domain.ResourceKey),
		files:   make(map[string]*domain.Blob),
	}
}

// Load поднимает оверлеи и пользовательские ресурсы из хранилища.
// Ошибка чтения не фатальна: продолжаем с пустым состоянием.
func (s *Service) Load(ctx context.Context) {
	s.overlay.Load(ctx)

	recs, skipped, err := s.repo.CustomResources(ctx)
	if err != nil {
		s.log.Warn().Err(err).Str("kind", persist.Kind(err)).Msg("custom resources not loaded, starting empty")
		return
	}
	for _, e := range skipped {
		s.log.Warn().Err(e).Msg("custom resource skipped")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range recs {
		r := rec.Resource
		if !r.IsCustom() {
			continue
		}
		key := rec.Key()
		if rec.Blob != nil {
			s.files[r.ID] = rec.Blob
			r.URL = s.blobs.Mint(r.ID, rec.Blob)
		} else {
			r.URL = rec.URLStr
		}
		s.custom[key] = append(s.custom[key], r)
		s.owner[r.ID] = key
	}
	s.log.Info().Int("custom", len(s.owner)).Int("files", len(s.files)).Msg("library loaded")
}

// Close отзывает все выданные ссылки на файлы
func (s *Service) Close() {
	n := s.blobs.RevokeAll()
	s.log.Info().Int("revoked", n).Msg("blob handles revoked")
}

func (s *Service) pageExists(key domain.ResourceKey) error {
	if _, ok := s.catalog.Page(key); !ok {
		return fmt.Errorf("%w: page %s", domain.ErrNotFound, key)
	}
	return nil
}

// DisplayResources: итоговый упорядоченный список ресурсов страницы для роли
func (s *Service) DisplayResources(key domain.ResourceKey, role domain.Role) ([]domain.Resource, error) {
	if !policy.CanOpenBook(role, key.Book) {
		return nil, fmt.Errorf("%w: book %s", domain.ErrForbidden, key.Book)
	}
	if err := s.pageExists(key); err != nil {
		return nil, err
	}
	s.mu.RLock()
	custom := slices.Clone(s.custom[key])
	s.mu.RUnlock()

	return compose.Compose(compose.Input{
		Key:     key,
		Static:  s.catalog.StaticResources(key),
		Custom:  custom,
		Overlay: s.overlay.Snapshot(),
		Role:    role,
	}), nil
}

// newID: custom-<unix ms>-<9 символов base36>
func (s *Service) newID() string {
	for {
		var sb strings.Builder
		for range 9 {
			sb.WriteString(strconv.FormatInt(rand.Int64N(36), 36))
		}
		id := fmt.Sprintf("%s%d-%s", domain.CustomIDPrefix, s.now().UnixMilli(), sb.String())
		if _, taken := s.owner[id]; !taken {
			return id
		}
	}
}

func prepareInput(in *domain.ResourceInput, file *Upload) {
	if file == nil {
		return
	}
	if strings.TrimSpace(in.Title) == "" {
		in.Title = file.Name
	}
	if in.Type == "" {
		if t, ok := InferType(file.MIME); ok {
			in.Type = t
		}
	}
}

// AddResource добавляет пользовательский ресурс в конец списка страницы
func (s *Service) AddResource(ctx context.Context, role domain.Role, key domain.ResourceKey, in domain.ResourceInput, file *Upload) (domain.Resource, error) {
	if !policy.CanAdd(role) || !policy.CanOpenBook(role, key.Book) {
		return domain.Resource{}, fmt.Errorf("%w: %s cannot add resources", domain.ErrForbidden, role)
	}
	if err := s.pageExists(key); err != nil {
		return domain.Resource{}, err
	}
	prepareInput(&in, file)
	if err := in.Validate(file != nil); err != nil {
		return domain.Resource{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	r := in.Resource(s.newID())
	rec := domain.CustomResourceRecord{Resource: r, Book: key.Book, Page: key.Page}
	if file != nil {
		rec.Blob = file.blob()
		rec.Resource.URL = ""
		r.URL = s.blobs.Mint(r.ID, rec.Blob)
		s.files[r.ID] = rec.Blob
	} else {
		rec.URLStr = r.URL
	}
	s.custom[key] = append(s.custom[key], r)
	s.owner[r.ID] = key
	s.persistLocked(rec)

	s.log.Info().Str("resource_id", r.ID).Str("key", key.String()).Str("type", string(r.Type)).Bool("file", file != nil).Msg("resource added")
	return r, nil
}

// EditResource: пользовательский ресурс меняется напрямую, статический, через оверлей правок
func (s *Service) EditResource(ctx context.Context, role domain.Role, id string, in domain.ResourceInput, file *Upload) (domain.Resource, error) {
	if domain.IsCustomID(id) {
		return s.editCustom(role, id, in, file)
	}
	return s.editStatic(role, id, in, file)
}

func (s *Service) editCustom(role domain.Role, id string, in domain.ResourceInput, file *Upload) (domain.Resource, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key, ok := s.owner[id]
	if !ok {
		return domain.Resource{}, fmt.Errorf("%w: resource %s", domain.ErrNotFound, id)
	}
	list := s.custom[key]
	i := slices.IndexFunc(list, func(r domain.Resource) bool { return r.ID == id })
	current := list[i]
	if !policy.CanEdit(role, current) {
		return domain.Resource{}, fmt.Errorf("%w: %s cannot edit %s", domain.ErrForbidden, role, id)
	}

	prepareInput(&in, file)
	if in.Type == "" {
		in.Type = current.Type
	}
	oldBlob := s.files[id]
	if err := in.Validate(file != nil || oldBlob != nil); err != nil {
		return domain.Resource{}, err
	}

	// клиент прислал обратно ссылку на собственный файл ресурса: файл остаётся
	if h, ok := s.blobs.HandleFor(id); ok && oldBlob != nil && in.URL == s.blobs.URL(h) {
		in.URL = ""
	}

	r := in.Resource(id)
	rec := domain.CustomResourceRecord{Resource: r, Book: key.Book, Page: key.Page}
	switch {
	case file != nil:
		rec.Blob = file.blob()
		s.files[id] = rec.Blob
		r.URL = s.blobs.Mint(id, rec.Blob)
	case in.URL != "":
		// файл заменён ссылкой
		if oldBlob != nil {
			delete(s.files, id)
			s.blobs.Revoke(id)
		}
		rec.URLStr = in.URL
	default:
		rec.Blob = oldBlob
		r.URL = s.blobs.Mint(id, oldBlob)
	}
	if rec.Blob != nil {
		rec.Resource.URL = ""
	}
	list[i] = r
	s.persistLocked(rec)

	s.log.Info().Str("resource_id", id).Str("key", key.String()).Msg("custom resource edited")
	return r, nil
}

func (s *Service) editStatic(role domain.Role, id string, in domain.ResourceInput, file *Upload) (domain.Resource, error) {
	base, _, ok := s.catalog.Resource(id)
	if !ok {
		return domain.Resource{}, fmt.Errorf("%w: resource %s", domain.ErrNotFound, id)
	}
	if !policy.CanEdit(role, base) {
		return domain.Resource{}, fmt.Errorf("%w: %s cannot edit %s", domain.ErrForbidden, role, id)
	}
	if file != nil {
		return domain.Resource{}, fmt.Errorf("%w: files can be attached only to custom resources", domain.ErrBadParams)
	}
	if m, ok := s.overlay.Snapshot().ModifiedStaticResources[id]; ok {
		base = m
	}
	if in.URL == "" {
		in.URL = base.URL
	}
	if in.Type == "" {
		in.Type = base.Type
	}
	if err := in.Validate(false); err != nil {
		return domain.Resource{}, err
	}

	r := in.Resource(id)
	s.overlay.SetModified(r)
	s.log.Info().Str("resource_id", id).Msg("static resource overridden")
	return r, nil
}

// DeleteResource: пользовательский, удаление из хранилища, порядков и отзыв ссылки;
// статический, мягкое удаление через deletedStaticIds
func (s *Service) DeleteResource(ctx context.Context, role domain.Role, id string) error {
	if !domain.IsCustomID(id) {
		r, _, ok := s.catalog.Resource(id)
		if !ok {
			return fmt.Errorf("%w: resource %s", domain.ErrNotFound, id)
		}
		if policy.DeleteModeFor(role, r) != policy.DeleteSoft {
			return fmt.Errorf("%w: %s cannot delete %s", domain.ErrForbidden, role, id)
		}
		s.overlay.AddDeleted(id)
		s.log.Info().Str("resource_id", id).Msg("static resource hidden")
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key, ok := s.owner[id]
	if !ok {
		return fmt.Errorf("%w: resource %s", domain.ErrNotFound, id)
	}
	if policy.DeleteModeFor(role, domain.Resource{ID: id}) != policy.DeleteHard {
		return fmt.Errorf("%w: %s cannot delete %s", domain.ErrForbidden, role, id)
	}

	s.custom[key] = slices.DeleteFunc(s.custom[key], func(r domain.Resource) bool { return r.ID == id })
	if len(s.custom[key]) == 0 {
		delete(s.custom, key)
	}
	delete(s.owner, id)
	delete(s.files, id)
	s.blobs.Revoke(id)
	s.overlay.RemoveFromOrders(id)
	s.queue.Enqueue("library.delete", func(ctx context.Context) error {
		return s.repo.DeleteCustomResource(ctx, id)
	})

	s.log.Info().Str("resource_id", id).Str("key", key.String()).Msg("custom resource deleted")
	return nil
}

// Reorder задаёт явный порядок ресурсов страницы (только admin)
func (s *Service) Reorder(ctx context.Context, role domain.Role, key domain.ResourceKey, ids []string) error {
	if !policy.CanReorder(role) {
		return fmt.Errorf("%w: %s cannot reorder", domain.ErrForbidden, role)
	}
	if err := s.pageExists(key); err != nil {
		return err
	}
	seen := make(map[string]struct{}, len(ids))
	clean := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		clean = append(clean, id)
	}
	s.overlay.SetOrder(key, clean)
	s.log.Info().Str("key", key.String()).Int("ids", len(clean)).Msg("resources reordered")
	return nil
}

func (s *Service) persistLocked(rec domain.CustomResourceRecord) {
	s.queue.Enqueue("library.put", func(ctx context.Context) error {
		return s.repo.PutCustomResource(ctx, rec)
	})
}
