package v1

import (
	"net/http"
	"strings"

	"github.com/EgorLis/book-module/internal/domain"
)

// TokenFromRequest берёт токен из Authorization: Bearer ... или параметр token
func TokenFromRequest(r *http.Request) domain.Token {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return domain.Token(strings.TrimSpace(h[7:]))
	}
	return domain.Token(r.URL.Query().Get("token"))
}
