// Package annotation, штрихи и заметки открытой страницы одного читателя.
//
// Состояния: Idle -> Loading (смена страницы, живой слой сразу очищается) ->
// Ready (загрузка завершилась) -> Dirty (мутация, запись в очереди) -> Ready.
// Результат устаревшей загрузки (страницу успели сменить) отбрасывается.
package annotation

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/EgorLis/book-module/internal/catalog"
	"github.com/EgorLis/book-module/internal/domain"
	"github.com/EgorLis/book-module/internal/persist"
	"github.com/EgorLis/book-module/internal/policy"
	"github.com/EgorLis/book-module/internal/storage"
)

type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StateReady   State = "ready"
	StateDirty   State = "dirty"
)

var errNoPage = fmt.Errorf("%w: no page open", domain.ErrBadParams)

// NoteInput: новая заметка; координаты в процентах от контентной области
type NoteInput struct {
	X     float64 `json:"x" validate:"gte=0,lte=100"`
	Y     float64 `json:"y" validate:"gte=0,lte=100"`
	Color string  `json:"color" validate:"omitempty,hexcolor"`
}

type noteText struct {
	Text string `validate:"max=4000"`
}

// Snapshot отдаётся клиенту: ключ, состояние и заметки
type Snapshot struct {
	Book       domain.BookCategory `json:"book"`
	Page       int                 `json:"page"`
	Layout     domain.Layout       `json:"layout"`
	State      State               `json:"state"`
	Notes      []domain.TextNote   `json:"notes"`
	HasStrokes bool                `json:"hasStrokes"`
}

type Engine struct {
	catalog *catalog.Catalog
	repo    *storage.Repo
	queue   *persist.Queue
	log     zerolog.Logger
	newID   func() string

	mu     sync.Mutex
	key    domain.ResourceKey
	layout domain.Layout
	state  State
	gen    uint64
	layer  *Layer
	notes  []domain.TextNote
	loaded chan struct{}

	// мутации во время Loading: запись откладывается до конца загрузки
	touched bool
	// clearAll во время Loading: загруженное не применяется
	cleared bool

	writes *writes
	// снимок текущего слоя для записи; сбрасывается при каждом изменении слоя
	shot *shot
}

// shot: копия слоя, которую воркер один раз кодирует в PNG. Записи, где
// менялись только заметки, делят один shot, копия слоя освобождается после кодирования.
type shot struct {
	once  sync.Once
	layer *Layer
	png   []byte
	err   error
}

func (s *shot) encode() ([]byte, error) {
	s.once.Do(func() {
		s.png, s.err = s.layer.EncodePNG()
		s.layer = nil
	})
	return s.png, s.err
}

// writes учитывает записи одной открытой страницы. Свой мьютекс: воркер очереди
// не должен ждать e.mu, под которым ставятся новые записи.
type writes struct {
	mu      sync.Mutex
	pending int
	failed  bool
	// запись в очереди, ещё не взятая воркером: новые изменения вливаются в неё
	next *pendingWrite
}

type pendingWrite struct {
	rec  domain.AnnotationRecord
	shot *shot
	done chan struct{}
}

// take забирает запись в работу; после этого изменения идут в новую запись
func (w *writes) take(p *pendingWrite) (domain.AnnotationRecord, *shot) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.next == p {
		w.next = nil
	}
	return p.rec, p.shot
}

func (w *writes) done(err error) {
	w.mu.Lock()
	w.pending--
	w.failed = err != nil
	w.mu.Unlock()
}

// dirty: есть незавершённые записи или последняя запись упала
func (w *writes) dirty() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.pending > 0 || w.failed
}

func NewEngine(cat *catalog.Catalog, repo *storage.Repo, queue *persist.Queue, log zerolog.Logger) *Engine {
	done := make(chan struct{})
	close(done)
	return &Engine{
		catalog: cat,
		repo:    repo,
		queue:   queue,
		log:     log,
		newID:   uuid.NewString,
		state:   StateIdle,
		notes:   []domain.TextNote{},
		loaded:  done,
		writes:  &writes{},
	}
}

// Navigate открывает страницу. Неизвестный номер страницы, первая страница книги.
func (e *Engine) Navigate(role domain.Role, key domain.ResourceKey) (domain.PageData, error) {
	if !policy.CanOpenBook(role, key.Book) {
		return domain.PageData{}, domain.ErrForbidden
	}
	page, err := e.catalog.PageOrFirst(key)
	if err != nil {
		return domain.PageData{}, err
	}
	key.Page = page.PageNumber
	layout := page.Layout
	if layout == "" {
		layout = domain.LayoutPortrait
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != StateIdle && e.key == key {
		return page, nil
	}

	e.gen++
	e.key, e.layout = key, layout
	e.layer = NewLayer(layout)
	e.shot = nil
	e.notes = []domain.TextNote{}
	e.touched, e.cleared = false, false
	e.writes = &writes{}
	e.state = StateLoading
	done := make(chan struct{})
	e.loaded = done

	go e.load(e.gen, key, layout, done)
	return page, nil
}

func (e *Engine) load(gen uint64, key domain.ResourceKey, layout domain.Layout, done chan struct{}) {
	defer close(done)
	ctx := context.Background()

	// чтение после уже поставленных записей, иначе можно прочитать старую версию
	if err := e.queue.Flush(ctx); err != nil {
		e.log.Warn().Err(err).Str("key", key.String()).Msg("flush before load")
	}

	var (
		base  *Layer
		notes []domain.TextNote
	)
	rec, ok, err := e.repo.Annotation(ctx, key)
	if err != nil {
		e.log.Error().Err(err).Str("key", key.String()).Str("kind", persist.Kind(err)).Msg("load annotation, using empty state")
	}
	if ok {
		notes = rec.Notes
		if len(rec.Snapshot) > 0 {
			base, err = DecodeLayer(rec.Snapshot, layout)
			if err != nil {
				e.log.Error().Err(err).Str("key", key.String()).Msg("bad snapshot, strokes dropped")
			}
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if gen != e.gen {
		e.log.Debug().Str("key", key.String()).Msg("stale load discarded")
		return
	}

	if !e.cleared {
		if base != nil {
			base.Over(e.layer)
			e.layer = base
			e.shot = nil
		}
		if len(notes) > 0 {
			e.notes = append(slices.Clone(notes), e.notes...)
		}
	}

	e.state = StateReady
	if e.touched {
		e.touched = false
		e.persistLocked()
	}
	e.log.Debug().Str("key", key.String()).Bool("found", ok).Msg("annotation loaded")
}

// Wait ждёт завершения текущей загрузки
func (e *Engine) Wait(ctx context.Context) error {
	e.mu.Lock()
	done := e.loaded
	e.mu.Unlock()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stateLocked()
}

// Dirty не хранится: это Ready с записями в полёте (или с упавшей последней записью)
func (e *Engine) stateLocked() State {
	if e.state == StateReady && e.writes.dirty() {
		return StateDirty
	}
	return e.state
}

func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := Snapshot{
		Book:   e.key.Book,
		Page:   e.key.Page,
		Layout: e.layout,
		State:  e.stateLocked(),
		Notes:  slices.Clone(e.notes),
	}
	if e.layer != nil {
		s.HasStrokes = !e.layer.Empty()
	}
	return s
}

// Layer: копия текущего слоя штрихов
func (e *Engine) Layer() (*Layer, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == StateIdle {
		return nil, errNoPage
	}
	return e.layer.Clone(), nil
}

// RenderLayer: слой под экранную область (масштаб + поворот)
func (e *Engine) RenderLayer(v View, f Format) ([]byte, error) {
	l, err := e.Layer()
	if err != nil {
		return nil, err
	}
	img, err := Render(l, v)
	if err != nil {
		return nil, err
	}
	return Encode(img, f)
}

// OnStrokeEnd применяет завершённый штрих. view != nil, точки в экранных координатах.
func (e *Engine) OnStrokeEnd(s Stroke, view *View) error {
	if err := domain.ValidateStruct(s); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == StateIdle {
		return errNoPage
	}
	if view != nil {
		var err error
		if s, err = ScreenStroke(s, *view, e.layout); err != nil {
			return err
		}
	}
	e.shot = nil
	if err := e.layer.Apply(s); err != nil {
		return err
	}
	e.mutatedLocked()
	return nil
}

func (e *Engine) OnNoteCreate(in NoteInput) (domain.TextNote, error) {
	if err := domain.ValidateStruct(in); err != nil {
		return domain.TextNote{}, err
	}
	if in.Color == "" {
		in.Color = Palette[0]
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == StateIdle {
		return domain.TextNote{}, errNoPage
	}
	n := domain.TextNote{ID: e.newID(), X: in.X, Y: in.Y, Color: in.Color}
	e.notes = append(e.notes, n)
	e.mutatedLocked()
	return n, nil
}

func (e *Engine) OnNoteChange(id, text string) (domain.TextNote, error) {
	if err := domain.ValidateStruct(noteText{Text: text}); err != nil {
		return domain.TextNote{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	i, err := e.noteLocked(id)
	if err != nil {
		return domain.TextNote{}, err
	}
	e.notes[i].Text = text
	e.mutatedLocked()
	return e.notes[i], nil
}

func (e *Engine) OnNoteDelete(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	i, err := e.noteLocked(id)
	if err != nil {
		return err
	}
	e.notes = slices.Delete(e.notes, i, i+1)
	e.mutatedLocked()
	return nil
}

func (e *Engine) noteLocked(id string) (int, error) {
	if e.state == StateIdle {
		return -1, errNoPage
	}
	i := slices.IndexFunc(e.notes, func(n domain.TextNote) bool { return n.ID == id })
	if i < 0 {
		return -1, fmt.Errorf("%w: note %s", domain.ErrNotFound, id)
	}
	return i, nil
}

// ClearAll стирает слой и заметки и сразу пишет пустую запись.
// Ждёт записи (или ctx); ошибка хранилища только логируется.
func (e *Engine) ClearAll(ctx context.Context) error {
	e.mu.Lock()
	if e.state == StateIdle {
		e.mu.Unlock()
		return errNoPage
	}
	e.layer = NewLayer(e.layout)
	e.shot = nil
	e.notes = []domain.TextNote{}
	if e.state == StateLoading {
		e.cleared, e.touched = true, false
	}
	done := e.enqueueLocked(domain.AnnotationRecord{
		Book:  e.key.Book,
		Page:  e.key.Page,
		Notes: []domain.TextNote{},
	}, nil)
	e.mu.Unlock()

	select {
	case <-done:
	case <-ctx.Done():
	}
	return nil
}

func (e *Engine) mutatedLocked() {
	if e.state == StateLoading {
		e.touched = true
		return
	}
	e.persistLocked()
}

// persistLocked ставит в очередь запись всего текущего состояния страницы
func (e *Engine) persistLocked() {
	if e.shot == nil {
		e.shot = &shot{layer: e.layer.Clone()}
	}
	e.enqueueLocked(domain.AnnotationRecord{
		Book:  e.key.Book,
		Page:  e.key.Page,
		Notes: slices.Clone(e.notes),
	}, e.shot)
}

// enqueueLocked: снимок кодируется уже в воркере очереди; sh == nil, пустой слой.
// Пока предыдущая запись страницы ждёт в очереди, новая её заменяет.
func (e *Engine) enqueueLocked(rec domain.AnnotationRecord, sh *shot) <-chan struct{} {
	w := e.writes
	w.mu.Lock()
	if p := w.next; p != nil {
		p.rec, p.shot = rec, sh
		w.mu.Unlock()
		return p.done
	}
	p := &pendingWrite{rec: rec, shot: sh, done: make(chan struct{})}
	w.next = p
	w.pending++
	w.mu.Unlock()

	ok := e.queue.Enqueue("annotation.put", func(ctx context.Context) (err error) {
		defer close(p.done)
		defer func() { w.done(err) }()
		rec, sh := w.take(p)
		if sh != nil {
			if rec.Snapshot, err = sh.encode(); err != nil {
				return fmt.Errorf("%w: encode snapshot: %w", domain.ErrStorageWriteFailed, err)
			}
		}
		return e.repo.PutAnnotation(ctx, rec)
	})
	if !ok {
		w.take(p)
		w.done(persist.ErrClosed)
		close(p.done)
	}
	return p.done
}
