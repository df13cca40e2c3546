package mw

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EgorLis/book-module/internal/auth/blacklist"
	"github.com/EgorLis/book-module/internal/auth/token"
	"github.com/EgorLis/book-module/internal/domain"
	"github.com/EgorLis/book-module/internal/infra/cache/memory"
)

func TestWithRequestID(t *testing.T) {
	var seen string
	h := WithRequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromCtx(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "abc")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "abc", seen)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", strings.Repeat("x", 200))
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Len(t, seen, 36)
}

func TestRequestIDFromEmptyCtx(t *testing.T) {
	assert.Empty(t, RequestIDFromCtx(context.Background()))
}

func TestDegraded(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	on := true

	rec := httptest.NewRecorder()
	Degraded(func() bool { return on })(ok).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "true", rec.Header().Get(DegradedHeader))

	on = false
	rec = httptest.NewRecorder()
	Degraded(func() bool { return on })(ok).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Empty(t, rec.Header().Get(DegradedHeader))

	rec = httptest.NewRecorder()
	Degraded(nil)(ok).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Empty(t, rec.Header().Get(DegradedHeader))
}

func TestLoggingKeepsStatus(t *testing.T) {
	h := Logging(zerolog.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short"))
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, "short", rec.Body.String())
}

type brokenBlacklist struct{}

func (brokenBlacklist) Revoke(context.Context, string, time.Time) error { return nil }
func (brokenBlacklist) IsRevoked(context.Context, string) (bool, error) {
	return false, errors.New("cache down")
}

func TestRequireAuth(t *testing.T) {
	ctx := context.Background()
	tm := token.New("secret", "test", time.Hour)
	bl := blacklist.NewStore(memory.New(), "test:")
	deps := AuthDeps{Tokens: tm, Blacklist: bl}

	var got domain.Viewer
	h := RequireAuth(deps, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = domain.ViewerFromCtx(r.Context())
	}))

	tok, claims, err := tm.Issue(ctx, domain.RoleTeacher)
	require.NoError(t, err)

	do := func(req *http.Request) int {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	t.Run("bearer", func(t *testing.T) {
		got = domain.Viewer{}
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+string(tok))
		assert.Equal(t, http.StatusOK, do(req))
		assert.Equal(t, domain.Viewer{SessionID: claims.JTI, Role: domain.RoleTeacher, ExpiresAt: claims.ExpiresAt}, got)
	})

	t.Run("query token", func(t *testing.T) {
		got = domain.Viewer{}
		assert.Equal(t, http.StatusOK, do(httptest.NewRequest(http.MethodGet, "/?token="+string(tok), nil)))
		assert.Equal(t, domain.RoleTeacher, got.Role)
	})

	t.Run("missing", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, do(httptest.NewRequest(http.MethodGet, "/", nil)))
	})

	t.Run("garbage", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer nope")
		assert.Equal(t, http.StatusUnauthorized, do(req))
	})

	t.Run("foreign issuer", func(t *testing.T) {
		other, _, err := token.New("secret", "other", time.Hour).Issue(ctx, domain.RoleAdmin)
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, do(httptest.NewRequest(http.MethodGet, "/?token="+string(other), nil)))
	})

	t.Run("blacklist error", func(t *testing.T) {
		broken := RequireAuth(AuthDeps{Tokens: tm, Blacklist: brokenBlacklist{}}, http.NotFoundHandler())
		rec := httptest.NewRecorder()
		broken.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/?token="+string(tok), nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("revoked", func(t *testing.T) {
		require.NoError(t, bl.Revoke(ctx, claims.JTI, claims.ExpiresAt))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/?token="+string(tok), nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.JSONEq(t, unauthorizedBody, rec.Body.String())
	})
}

func TestExtractBearer(t *testing.T) {
	assert.Equal(t, "abc", extractBearer("Bearer abc"))
	assert.Equal(t, "abc", extractBearer("bearer  abc "))
	assert.Empty(t, extractBearer("Basic abc"))
	assert.Empty(t, extractBearer("Bearer "))
}
