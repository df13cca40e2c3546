package annotation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EgorLis/book-module/internal/catalog"
	"github.com/EgorLis/book-module/internal/domain"
	"github.com/EgorLis/book-module/internal/infra/database/memory"
	"github.com/EgorLis/book-module/internal/persist"
	"github.com/EgorLis/book-module/internal/storage"
)

var (
	studio1 = domain.ResourceKey{Book: domain.BookStudio, Page: 1}
	studio2 = domain.ResourceKey{Book: domain.BookStudio, Page: 2}
)

// gatedStore задерживает чтение аннотаций до закрытия gate
type gatedStore struct {
	domain.Store
	mu    sync.Mutex
	gates map[domain.Key]chan struct{}
}

func newGatedStore(inner domain.Store) *gatedStore {
	return &gatedStore{Store: inner, gates: make(map[domain.Key]chan struct{})}
}

func (s *gatedStore) gate(key domain.ResourceKey) chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	g := make(chan struct{})
	s.gates[domain.PageKey(key)] = g
	return g
}

func (s *gatedStore) Get(ctx context.Context, c domain.Collection, k domain.Key) (domain.Value, bool, error) {
	if c == domain.CollectionAnnotations {
		s.mu.Lock()
		g := s.gates[k]
		s.mu.Unlock()
		if g != nil {
			<-g
		}
	}
	return s.Store.Get(ctx, c, k)
}

type failingPuts struct{ domain.Store }

func (failingPuts) Put(context.Context, domain.Collection, domain.Key, domain.Value) error {
	return errors.New("disk full")
}

func newEngine(t *testing.T, st domain.Store) (*Engine, *persist.Queue) {
	t.Helper()
	q := persist.New(zerolog.Nop(), 16)
	t.Cleanup(q.Close)
	return NewEngine(catalog.Default(), storage.NewRepo(st), q, zerolog.Nop()), q
}

func waitLoaded(t *testing.T, e *Engine) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, e.Wait(ctx))
}

func seed(t *testing.T, st domain.Store, key domain.ResourceKey, notes ...domain.TextNote) {
	t.Helper()
	l := NewLayer(domain.LayoutPortrait)
	require.NoError(t, l.Apply(Stroke{Points: line(100, 100, 600, 600), Width: 30}))
	snap, err := l.EncodePNG()
	require.NoError(t, err)
	require.NoError(t, storage.NewRepo(st).PutAnnotation(context.Background(), domain.AnnotationRecord{
		Book: key.Book, Page: key.Page, Snapshot: snap, Notes: notes,
	}))
}

func stored(t *testing.T, st domain.Store, key domain.ResourceKey) domain.AnnotationRecord {
	t.Helper()
	rec, ok, err := storage.NewRepo(st).Annotation(context.Background(), key)
	require.NoError(t, err)
	require.True(t, ok, "no record for %s", key)
	return rec
}

func TestNavigateLoadsSavedState(t *testing.T) {
	backend := memory.New(zerolog.Nop())
	seed(t, backend, studio1, domain.TextNote{ID: "n1", X: 10, Y: 20, Text: "hello", Color: "#3b82f6"})

	e, _ := newEngine(t, backend)
	assert.Equal(t, StateIdle, e.State())

	page, err := e.Navigate(domain.RoleStudent, studio1)
	require.NoError(t, err)
	assert.Equal(t, 1, page.PageNumber)
	waitLoaded(t, e)

	s := e.Snapshot()
	assert.Equal(t, StateReady, s.State)
	assert.True(t, s.HasStrokes)
	require.Len(t, s.Notes, 1)
	assert.Equal(t, "hello", s.Notes[0].Text)
}

func TestNavigateUnknownPageFallsBackToFirst(t *testing.T) {
	e, _ := newEngine(t, memory.New(zerolog.Nop()))
	page, err := e.Navigate(domain.RoleTeacher, domain.ResourceKey{Book: domain.BookCompanion, Page: 99})
	require.NoError(t, err)
	assert.Equal(t, 1, page.PageNumber)
	waitLoaded(t, e)
	assert.Equal(t, 1, e.Snapshot().Page)
}

func TestNavigateTeacherBookForbiddenForStudent(t *testing.T) {
	e, _ := newEngine(t, memory.New(zerolog.Nop()))
	_, err := e.Navigate(domain.RoleStudent, domain.ResourceKey{Book: domain.BookFHB, Page: 1})
	assert.ErrorIs(t, err, domain.ErrForbidden)
	assert.Equal(t, StateIdle, e.State())
}

func TestLandscapePageUsesLandscapeCanvas(t *testing.T) {
	e, _ := newEngine(t, memory.New(zerolog.Nop()))
	_, err := e.Navigate(domain.RoleStudent, domain.ResourceKey{Book: domain.BookStudio, Page: 7})
	require.NoError(t, err)
	waitLoaded(t, e)

	l, err := e.Layer()
	require.NoError(t, err)
	assert.Equal(t, LogicalHeightLandscape, l.Bounds().Dy())
	assert.Equal(t, domain.LayoutLandscape, e.Snapshot().Layout)
}

// Быстрое перелистывание: поздняя загрузка страницы 1 не попадает на страницу 2
func TestStaleLoadDiscarded(t *testing.T) {
	backend := memory.New(zerolog.Nop())
	seed(t, backend, studio1, domain.TextNote{ID: "old", Text: "page one"})
	gated := newGatedStore(backend)
	release := gated.gate(studio1)

	e, _ := newEngine(t, gated)
	_, err := e.Navigate(domain.RoleStudent, studio1)
	require.NoError(t, err)
	assert.Equal(t, StateLoading, e.State())
	first := e.loaded

	_, err = e.Navigate(domain.RoleStudent, studio2)
	require.NoError(t, err)
	waitLoaded(t, e)

	close(release)
	<-first

	s := e.Snapshot()
	assert.Equal(t, 2, s.Page)
	assert.Equal(t, StateReady, s.State)
	assert.Empty(t, s.Notes)
	assert.False(t, s.HasStrokes)
}

func TestNavigateClearsImmediately(t *testing.T) {
	backend := memory.New(zerolog.Nop())
	seed(t, backend, studio2, domain.TextNote{ID: "p2"})
	gated := newGatedStore(backend)

	e, _ := newEngine(t, gated)
	_, err := e.Navigate(domain.RoleStudent, studio1)
	require.NoError(t, err)
	waitLoaded(t, e)
	_, err = e.OnNoteCreate(NoteInput{X: 1, Y: 1})
	require.NoError(t, err)

	release := gated.gate(studio2)
	defer close(release)
	_, err = e.Navigate(domain.RoleStudent, studio2)
	require.NoError(t, err)

	// пока страница 2 грузится, следов страницы 1 нет
	s := e.Snapshot()
	assert.Equal(t, StateLoading, s.State)
	assert.Empty(t, s.Notes)
	assert.False(t, s.HasStrokes)
}

func TestMutationsPersistWholeRecord(t *testing.T) {
	ctx := context.Background()
	backend := memory.New(zerolog.Nop())
	e, q := newEngine(t, backend)
	_, err := e.Navigate(domain.RoleTeacher, studio1)
	require.NoError(t, err)
	waitLoaded(t, e)

	require.NoError(t, e.OnStrokeEnd(Stroke{Points: line(10, 10, 200, 200)}, nil))
	n, err := e.OnNoteCreate(NoteInput{X: 50, Y: 25, Color: "#22c55e"})
	require.NoError(t, err)
	assert.Empty(t, n.Text)
	_, err = e.OnNoteChange(n.ID, "remember this")
	require.NoError(t, err)
	require.NoError(t, q.Flush(ctx))

	rec := stored(t, backend, studio1)
	assert.NotEmpty(t, rec.Snapshot)
	require.Len(t, rec.Notes, 1)
	assert.Equal(t, "remember this", rec.Notes[0].Text)
	assert.Equal(t, "#22c55e", rec.Notes[0].Color)
	assert.Equal(t, StateReady, e.State())

	require.NoError(t, e.OnNoteDelete(n.ID))
	require.NoError(t, q.Flush(ctx))
	assert.Empty(t, stored(t, backend, studio1).Notes)
}

func TestDirtyUntilWriteCompletes(t *testing.T) {
	ctx := context.Background()
	e, q := newEngine(t, memory.New(zerolog.Nop()))
	_, err := e.Navigate(domain.RoleStudent, studio1)
	require.NoError(t, err)
	waitLoaded(t, e)

	release := make(chan struct{})
	q.Enqueue("block", func(context.Context) error { <-release; return nil })

	require.NoError(t, e.OnStrokeEnd(Stroke{Points: line(0, 0, 50, 50)}, nil))
	assert.Equal(t, StateDirty, e.State())

	close(release)
	require.NoError(t, q.Flush(ctx))
	assert.Equal(t, StateReady, e.State())
}

// countingPuts считает записи аннотаций
type countingPuts struct {
	domain.Store
	mu sync.Mutex
	n  int
}

func (c *countingPuts) Put(ctx context.Context, col domain.Collection, k domain.Key, v domain.Value) error {
	c.mu.Lock()
	c.n++
	c.mu.Unlock()
	return c.Store.Put(ctx, col, k, v)
}

func (c *countingPuts) puts() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}

func TestQueuedWritesCollapse(t *testing.T) {
	ctx := context.Background()
	backend := &countingPuts{Store: memory.New(zerolog.Nop())}
	e, q := newEngine(t, backend)
	_, err := e.Navigate(domain.RoleStudent, studio1)
	require.NoError(t, err)
	waitLoaded(t, e)

	release := make(chan struct{})
	q.Enqueue("block", func(context.Context) error { <-release; return nil })

	require.NoError(t, e.OnStrokeEnd(Stroke{Points: line(0, 0, 50, 50)}, nil))
	n, err := e.OnNoteCreate(NoteInput{X: 5, Y: 5})
	require.NoError(t, err)
	for i := range 50 {
		_, err = e.OnNoteChange(n.ID, fmt.Sprintf("draft %d", i))
		require.NoError(t, err)
	}
	assert.Equal(t, StateDirty, e.State())

	close(release)
	require.NoError(t, q.Flush(ctx))
	assert.Equal(t, 1, backend.puts())
	assert.Equal(t, StateReady, e.State())

	rec := stored(t, backend, studio1)
	assert.NotEmpty(t, rec.Snapshot)
	require.Len(t, rec.Notes, 1)
	assert.Equal(t, "draft 49", rec.Notes[0].Text)
}

func TestNoteEditsReuseLayerSnapshot(t *testing.T) {
	ctx := context.Background()
	e, q := newEngine(t, memory.New(zerolog.Nop()))
	_, err := e.Navigate(domain.RoleStudent, studio1)
	require.NoError(t, err)
	waitLoaded(t, e)

	require.NoError(t, e.OnStrokeEnd(Stroke{Points: line(0, 0, 50, 50)}, nil))
	e.mu.Lock()
	first := e.shot
	e.mu.Unlock()
	require.NotNil(t, first)

	n, err := e.OnNoteCreate(NoteInput{X: 5, Y: 5})
	require.NoError(t, err)
	_, err = e.OnNoteChange(n.ID, "x")
	require.NoError(t, err)
	e.mu.Lock()
	assert.Same(t, first, e.shot)
	e.mu.Unlock()

	require.NoError(t, e.OnStrokeEnd(Stroke{Points: line(60, 60, 90, 90)}, nil))
	e.mu.Lock()
	assert.NotSame(t, first, e.shot)
	e.mu.Unlock()
	require.NoError(t, q.Flush(ctx))
}

func TestFailedWriteKeepsOptimisticState(t *testing.T) {
	ctx := context.Background()
	e, q := newEngine(t, failingPuts{memory.New(zerolog.Nop())})
	_, err := e.Navigate(domain.RoleStudent, studio1)
	require.NoError(t, err)
	waitLoaded(t, e)

	require.NoError(t, e.OnStrokeEnd(Stroke{Points: line(0, 0, 50, 50)}, nil))
	_, err = e.OnNoteCreate(NoteInput{X: 5, Y: 5})
	require.NoError(t, err)
	require.NoError(t, q.Flush(ctx))

	s := e.Snapshot()
	assert.Equal(t, StateDirty, s.State)
	assert.True(t, s.HasStrokes)
	assert.Len(t, s.Notes, 1)
}

func TestClearAllIdempotent(t *testing.T) {
	ctx := context.Background()
	backend := memory.New(zerolog.Nop())
	seed(t, backend, studio1, domain.TextNote{ID: "n1", Text: "x"})
	e, _ := newEngine(t, backend)
	_, err := e.Navigate(domain.RoleTeacher, studio1)
	require.NoError(t, err)
	waitLoaded(t, e)
	require.True(t, e.Snapshot().HasStrokes)

	for range 2 {
		require.NoError(t, e.ClearAll(ctx))

		rec := stored(t, backend, studio1)
		assert.Empty(t, rec.Snapshot)
		assert.Empty(t, rec.Notes)

		s := e.Snapshot()
		assert.Equal(t, StateReady, s.State)
		assert.False(t, s.HasStrokes)
		assert.Empty(t, s.Notes)
	}
}

func TestClearAllDuringLoadDiscardsLoaded(t *testing.T) {
	ctx := context.Background()
	backend := memory.New(zerolog.Nop())
	seed(t, backend, studio1, domain.TextNote{ID: "n1"})
	gated := newGatedStore(backend)
	release := gated.gate(studio1)

	e, _ := newEngine(t, gated)
	_, err := e.Navigate(domain.RoleTeacher, studio1)
	require.NoError(t, err)
	require.NoError(t, e.ClearAll(ctx))

	close(release)
	waitLoaded(t, e)

	s := e.Snapshot()
	assert.Empty(t, s.Notes)
	assert.False(t, s.HasStrokes)
	assert.Empty(t, stored(t, backend, studio1).Notes)
}

func TestMutationsDuringLoadMergeAfterLoad(t *testing.T) {
	ctx := context.Background()
	backend := memory.New(zerolog.Nop())
	seed(t, backend, studio1, domain.TextNote{ID: "old", Text: "saved"})
	gated := newGatedStore(backend)
	release := gated.gate(studio1)

	e, q := newEngine(t, gated)
	_, err := e.Navigate(domain.RoleStudent, studio1)
	require.NoError(t, err)

	n, err := e.OnNoteCreate(NoteInput{X: 40, Y: 60})
	require.NoError(t, err)
	require.NoError(t, e.OnStrokeEnd(Stroke{Points: line(1500, 2500, 1600, 2600)}, nil))
	assert.Equal(t, StateLoading, e.State())

	// запись отложена до конца загрузки и не затирает сохранённое
	require.NoError(t, q.Flush(ctx))
	assert.Equal(t, "old", stored(t, backend, studio1).Notes[0].ID)
	assert.Len(t, stored(t, backend, studio1).Notes, 1)

	close(release)
	waitLoaded(t, e)

	s := e.Snapshot()
	require.Len(t, s.Notes, 2)
	assert.Equal(t, "old", s.Notes[0].ID)
	assert.Equal(t, n.ID, s.Notes[1].ID)

	require.NoError(t, q.Flush(ctx))
	rec := stored(t, backend, studio1)
	require.Len(t, rec.Notes, 2)

	l, err := DecodeLayer(rec.Snapshot, domain.LayoutPortrait)
	require.NoError(t, err)
	assert.NotZero(t, alphaAt(l, 300, 300), "loaded stroke kept")
	assert.NotZero(t, alphaAt(l, 1550, 2550), "live stroke kept")
}

func TestStrokeInScreenCoordinates(t *testing.T) {
	e, _ := newEngine(t, memory.New(zerolog.Nop()))
	_, err := e.Navigate(domain.RoleStudent, studio1)
	require.NoError(t, err)
	waitLoaded(t, e)

	v := &View{Width: 400, Height: 566}
	require.NoError(t, e.OnStrokeEnd(Stroke{Points: []Point{{X: 200, Y: 283}}, Width: 4}, v))

	l, err := e.Layer()
	require.NoError(t, err)
	assert.NotZero(t, alphaAt(l, 1000, 1414))
}

func TestInvalidInput(t *testing.T) {
	e, _ := newEngine(t, memory.New(zerolog.Nop()))

	_, err := e.OnNoteCreate(NoteInput{X: 1, Y: 1})
	assert.ErrorIs(t, err, domain.ErrBadParams, "no page open")
	assert.ErrorIs(t, e.ClearAll(context.Background()), domain.ErrBadParams)

	_, err = e.Navigate(domain.RoleStudent, studio1)
	require.NoError(t, err)
	waitLoaded(t, e)

	_, err = e.OnNoteCreate(NoteInput{X: 150, Y: 1})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = e.OnNoteCreate(NoteInput{X: 1, Y: 1, Color: "blue"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.ErrorIs(t, e.OnStrokeEnd(Stroke{}, nil), domain.ErrInvalidInput)
	assert.ErrorIs(t, e.OnStrokeEnd(Stroke{Points: line(0, 0, 1, 1), Width: 500}, nil), domain.ErrInvalidInput)

	_, err = e.OnNoteChange("missing", "x")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, e.OnNoteDelete("missing"), domain.ErrNotFound)
}

func TestRenderLayer(t *testing.T) {
	e, _ := newEngine(t, memory.New(zerolog.Nop()))
	_, err := e.RenderLayer(View{Width: 10, Height: 10}, FormatPNG)
	assert.ErrorIs(t, err, domain.ErrBadParams)

	_, err = e.Navigate(domain.RoleStudent, studio1)
	require.NoError(t, err)
	waitLoaded(t, e)
	data, err := e.RenderLayer(View{Width: 200, Height: 283, Rotation: 90}, FormatWebP)
	require.NoError(t, err)
	assert.NotEmpty(t, data)
}

func TestRegistry(t *testing.T) {
	q := persist.New(zerolog.Nop(), 4)
	t.Cleanup(q.Close)
	r := NewRegistry(catalog.Default(), storage.NewRepo(memory.New(zerolog.Nop())), q, zerolog.Nop())
	exp := time.Now().Add(time.Hour)

	a := r.Session("jti-a", exp)
	assert.Same(t, a, r.Session("jti-a", exp))
	assert.NotSame(t, a, r.Session("jti-b", exp))
	assert.Equal(t, 2, r.Len())

	assert.True(t, r.Drop("jti-a"))
	assert.False(t, r.Drop("jti-a"))
	assert.NotSame(t, a, r.Session("jti-a", exp))
}

func TestRegistryEvictsExpiredSessions(t *testing.T) {
	q := persist.New(zerolog.Nop(), 4)
	t.Cleanup(q.Close)
	r := NewRegistry(catalog.Default(), storage.NewRepo(memory.New(zerolog.Nop())), q, zerolog.Nop())
	now := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return now }

	short := r.Session("jti-short", now.Add(time.Minute))
	_, err := short.Navigate(domain.RoleStudent, studio1)
	require.NoError(t, err)
	r.Session("jti-long", now.Add(time.Hour))
	r.Session("jti-forever", time.Time{})
	require.Equal(t, 3, r.Len())

	now = now.Add(2 * time.Minute)
	assert.Equal(t, 1, r.Sweep())
	assert.Equal(t, 2, r.Len())
	assert.False(t, r.Drop("jti-short"))

	// при обращении к реестру истёкшие уходят без отдельного Sweep
	now = now.Add(2 * time.Hour)
	fresh := r.Session("jti-new", now.Add(time.Hour))
	assert.NotNil(t, fresh)
	assert.Equal(t, 2, r.Len())
	assert.False(t, r.Drop("jti-long"))
	assert.True(t, r.Drop("jti-forever"))
}

func TestRegistryJanitorStopsWithContext(t *testing.T) {
	q := persist.New(zerolog.Nop(), 4)
	t.Cleanup(q.Close)
	r := NewRegistry(catalog.Default(), storage.NewRepo(memory.New(zerolog.Nop())), q, zerolog.Nop())
	r.Session("jti-old", time.Now().Add(-time.Second))

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		r.Janitor(ctx, 5*time.Millisecond)
		close(stopped)
	}()

	assert.Eventually(t, func() bool { return r.Len() == 0 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("janitor did not stop")
	}
}
