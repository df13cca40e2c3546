package v1

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EgorLis/book-module/internal/domain"
)

func TestMapDomainError(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   int
	}{
		{fmt.Errorf("%w: title", domain.ErrInvalidInput), http.StatusBadRequest, domain.ErrCodeInvalidInput},
		{domain.ErrBadParams, http.StatusBadRequest, domain.ErrCodeBadParams},
		{domain.ErrUnauth, http.StatusUnauthorized, domain.ErrCodeUnauth},
		{fmt.Errorf("x: %w", domain.ErrForbidden), http.StatusForbidden, domain.ErrCodeForbidden},
		{domain.ErrNotFound, http.StatusNotFound, domain.ErrCodeNotFound},
		{domain.ErrStorageWriteFailed, http.StatusInternalServerError, domain.ErrCodeUnexpected},
	}
	for _, tt := range tests {
		status, env := MapDomainError(tt.err)
		assert.Equal(t, tt.status, status, tt.err.Error())
		require.NotNil(t, env.Error)
		assert.Equal(t, tt.code, env.Error.Code)
	}
}

func TestWriteEnvelopeHead(t *testing.T) {
	w := httptest.NewRecorder()
	WriteOKData(w, httptest.NewRequest(http.MethodHead, "/", nil), "ok")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.String())
}

func TestDecodeJSON(t *testing.T) {
	var dst struct {
		Title string `json:"title"`
	}
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"title":"Notes"}`))
	require.NoError(t, DecodeJSON(r, &dst))
	assert.Equal(t, "Notes", dst.Title)

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"nope":1}`))
	assert.ErrorIs(t, DecodeJSON(r, &dst), domain.ErrBadParams)
}

func TestPageKey(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.SetPathValue("book", "Studio")
	r.SetPathValue("page", "3")
	key, err := PageKey(r)
	require.NoError(t, err)
	assert.Equal(t, domain.ResourceKey{Book: domain.BookStudio, Page: 3}, key)

	r.SetPathValue("page", "zero")
	_, err = PageKey(r)
	assert.ErrorIs(t, err, domain.ErrBadParams)

	r.SetPathValue("book", "Novel")
	_, err = PageKey(r)
	assert.ErrorIs(t, err, domain.ErrBadParams)
}

func TestEnvelopeShape(t *testing.T) {
	w := httptest.NewRecorder()
	WriteDomainError(w, httptest.NewRequest(http.MethodGet, "/", nil), domain.ErrNotFound)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, map[string]any{"code": float64(domain.ErrCodeNotFound), "text": "not found"}, body["error"])
}
