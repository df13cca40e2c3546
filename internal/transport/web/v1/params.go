package v1

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/EgorLis/book-module/internal/domain"
)

// PageKey разбирает {book}/{page} из пути
func PageKey(r *http.Request) (domain.ResourceKey, error) {
	book, err := domain.ParseBook(PathValue(r, "book"))
	if err != nil {
		return domain.ResourceKey{}, err
	}
	page, err := strconv.Atoi(r.PathValue("page"))
	if err != nil || page < 1 {
		return domain.ResourceKey{}, fmt.Errorf("%w: page %q", domain.ErrBadParams, r.PathValue("page"))
	}
	return domain.ResourceKey{Book: book, Page: page}, nil
}

// для safety: url.PathUnescape параметра пути
func PathValue(r *http.Request, name string) string {
	v := r.PathValue(name)
	if u, err := url.PathUnescape(v); err == nil {
		return u
	}
	return v
}
