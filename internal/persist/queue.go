// Package persist, упорядоченная асинхронная запись в хранилище.
//
// Все записи выполняются одним воркером строго в порядке постановки, поэтому
// для одного ключа побеждает последняя запись. Ошибки логируются и наружу
// не пробрасываются (оптимистичное состояние в памяти не откатывается).
package persist

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/EgorLis/book-module/internal/domain"
)

const DefaultSize = 256

// ErrClosed: очередь остановлена, запись не выполнена
var ErrClosed = errors.New("persist queue closed")

type Func func(ctx context.Context) error

type job struct {
	op   string
	fn   Func
	done chan error
}

type Queue struct {
	log  zerolog.Logger
	jobs chan job

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

func New(log zerolog.Logger, size int) *Queue {
	if size <= 0 {
		size = DefaultSize
	}
	q := &Queue{log: log, jobs: make(chan job, size)}
	q.wg.Add(1)
	go q.loop()
	return q
}

func (q *Queue) loop() {
	defer q.wg.Done()
	for j := range q.jobs {
		err := j.fn(context.Background())
		if err != nil {
			q.log.Error().Err(err).Str("op", j.op).Str("kind", Kind(err)).Msg("persist failed")
		} else {
			q.log.Debug().Str("op", j.op).Msg("persisted")
		}
		if j.done != nil {
			j.done <- err
		}
	}
}

func (q *Queue) push(j job) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return false
	}
	q.jobs <- j
	return true
}

// Enqueue ставит запись в очередь и сразу возвращает управление.
// false: очередь закрыта, запись отброшена.
func (q *Queue) Enqueue(op string, fn Func) bool {
	if !q.push(job{op: op, fn: fn}) {
		q.log.Warn().Str("op", op).Msg("persist queue closed, write dropped")
		return false
	}
	return true
}

// Do ставит запись в очередь и ждёт её выполнения (или отмены ctx).
// Отмена ctx не отменяет саму запись, она всё равно выполнится в своём порядке.
func (q *Queue) Do(ctx context.Context, op string, fn Func) error {
	done := make(chan error, 1)
	if !q.push(job{op: op, fn: fn, done: done}) {
		return ErrClosed
	}
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Flush ждёт, пока выполнятся все записи, поставленные до вызова
func (q *Queue) Flush(ctx context.Context) error {
	return q.Do(ctx, "flush", func(context.Context) error { return nil })
}

// Close перестаёт принимать записи и дожидается выполнения уже поставленных
func (q *Queue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.jobs)
	q.mu.Unlock()
	q.wg.Wait()
	q.log.Info().Msg("persist queue drained")
}

// Kind: класс ошибки хранилища для логов
func Kind(err error) string {
	switch {
	case errors.Is(err, domain.ErrStorageWriteFailed):
		return domain.ErrStorageWriteFailed.Error()
	case errors.Is(err, domain.ErrStorageReadFailed):
		return domain.ErrStorageReadFailed.Error()
	case errors.Is(err, domain.ErrStorageUnavailable):
		return domain.ErrStorageUnavailable.Error()
	}
	return domain.ErrUnexpected.Error()
}
