// Package blobs выдаёт временные ссылки (handle) на бинарное содержимое ресурсов
// и отзывает их ровно один раз: при удалении ресурса или при завершении работы.
package blobs

import (
	"bytes"
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/EgorLis/book-module/internal/domain"
	"github.com/EgorLis/book-module/internal/infra/storage/byterange"
)

// Entry: живая ссылка на содержимое ресурса
type Entry struct {
	Handle     string
	ResourceID string
	Blob       domain.Blob
}

type Manager struct {
	baseURL string
	storage domain.BlobStorage
	log     zerolog.Logger

	mu         sync.RWMutex
	byResource map[string]string // resource id -> handle
	byHandle   map[string]*Entry
	minted     int
	revoked    int
}

// New: baseURL, префикс ссылок, например "http://localhost:8080/v1/blobs".
// storage нужен для блобов, вынесенных в объектное хранилище; для inline может быть nil.
func New(baseURL string, storage domain.BlobStorage, log zerolog.Logger) *Manager {
	return &Manager{
		baseURL:    strings.TrimRight(baseURL, "/"),
		storage:    storage,
		log:        log,
		byResource: make(map[string]string),
		byHandle:   make(map[string]*Entry),
	}
}

func (m *Manager) URL(handle string) string { return m.baseURL + "/" + handle }

// Mint возвращает ссылку на blob ресурса. Для того же содержимого повторно
// ссылка не выпускается; при смене содержимого старая ссылка отзывается.
func (m *Manager) Mint(resourceID string, b *domain.Blob) string {
	if b == nil {
		return ""
	}
	blob := *b
	if len(blob.SHA256) == 0 && len(blob.Data) > 0 {
		sum := sha256.Sum256(blob.Data)
		blob.SHA256 = sum[:]
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if h, ok := m.byResource[resourceID]; ok {
		if sameContent(m.byHandle[h].Blob, blob) {
			return m.URL(h)
		}
		m.revokeLocked(resourceID, h, "replaced")
	}

	h := uuid.NewString()
	m.byResource[resourceID] = h
	m.byHandle[h] = &Entry{Handle: h, ResourceID: resourceID, Blob: blob}
	m.minted++
	m.log.Debug().Str("resource_id", resourceID).Str("handle", h).Int64("size", blob.Size).Msg("handle minted")
	return m.URL(h)
}

func sameContent(a, b domain.Blob) bool {
	return a.StorageKey == b.StorageKey && a.Size == b.Size && bytes.Equal(a.SHA256, b.SHA256)
}

func (m *Manager) HandleFor(resourceID string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	h, ok := m.byResource[resourceID]
	return h, ok
}

func (m *Manager) Resolve(handle string) (Entry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.byHandle[handle]
	if !ok {
		return Entry{}, false
	}
	return *e, true
}

// Revoke отзывает ссылку ресурса; false, ссылки не было (или уже отозвана)
func (m *Manager) Revoke(resourceID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.byResource[resourceID]
	if !ok {
		return false
	}
	m.revokeLocked(resourceID, h, "deleted")
	return true
}

// RevokeAll: завершение сессии/приложения
func (m *Manager) RevokeAll() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, h := range m.byResource {
		m.revokeLocked(id, h, "shutdown")
		n++
	}
	return n
}

func (m *Manager) revokeLocked(resourceID, handle, reason string) {
	delete(m.byResource, resourceID)
	delete(m.byHandle, handle)
	m.revoked++
	m.log.Debug().Str("resource_id", resourceID).Str("handle", handle).Str("reason", reason).Msg("handle revoked")
}

type Stats struct {
	Live    int `json:"live"`
	Minted  int `json:"minted"`
	Revoked int `json:"revoked"`
}

func (m *Manager) Stats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Stats{Live: len(m.byHandle), Minted: m.minted, Revoked: m.revoked}
}

// Open отдаёт содержимое по ссылке с поддержкой Range ("bytes=START-END")
func (m *Manager) Open(ctx context.Context, handle, rangeHeader string) (Entry, domain.BlobObject, error) {
	e, ok := m.Resolve(handle)
	if !ok {
		return Entry{}, domain.BlobObject{}, fmt.Errorf("%w: handle %s", domain.ErrNotFound, handle)
	}

	if e.Blob.Inline() {
		data := e.Blob.Data
		total := int64(len(data))
		obj := domain.BlobObject{ContentLen: total, ContentType: e.Blob.MIME}
		if start, end, ok := byterange.Parse(rangeHeader, total); ok {
			data = data[start : end+1]
			obj.ContentLen = end - start + 1
			obj.ContentRange = byterange.ContentRange(start, end, total)
		}
		obj.Body = io.NopCloser(bytes.NewReader(data))
		return e, obj, nil
	}

	if m.storage == nil {
		return Entry{}, domain.BlobObject{}, fmt.Errorf("%w: no object storage for %s", domain.ErrUnexpected, e.Blob.StorageKey)
	}
	obj, err := m.storage.Get(ctx, e.Blob.StorageKey, rangeHeader)
	if err != nil {
		return Entry{}, domain.BlobObject{}, err
	}
	if obj.ContentType == "" {
		obj.ContentType = e.Blob.MIME
	}
	return e, obj, nil
}
