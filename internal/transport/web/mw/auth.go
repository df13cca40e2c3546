package mw

import (
	"net/http"
	"strings"

	"github.com/EgorLis/book-module/internal/domain"
)

type AuthDeps struct {
	Tokens    domain.TokenManager
	Blacklist domain.TokenBlacklist
}

const unauthorizedBody = `{"error":{"code":1001,"text":"unauthorized"}}`

// RequireAuth кладёт в контекст читателя (роль + сессия) из Bearer или ?token=
func RequireAuth(deps AuthDeps, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := extractBearer(r.Header.Get("Authorization"))
		if raw == "" {
			raw = r.URL.Query().Get("token")
		}
		if raw == "" {
			unauthorized(w)
			return
		}
		claims, err := deps.Tokens.Parse(r.Context(), domain.Token(raw))
		if err != nil {
			unauthorized(w)
			return
		}
		revoked, err := deps.Blacklist.IsRevoked(r.Context(), claims.JTI)
		if err != nil || revoked {
			unauthorized(w)
			return
		}
		ctx := domain.WithViewer(r.Context(), domain.Viewer{SessionID: claims.JTI, Role: claims.Role, ExpiresAt: claims.ExpiresAt})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(unauthorizedBody + "\n"))
}

func extractBearer(h string) string {
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}
