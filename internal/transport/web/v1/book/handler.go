package book

import (
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/EgorLis/book-module/internal/catalog"
	"github.com/EgorLis/book-module/internal/domain"
	"github.com/EgorLis/book-module/internal/policy"
	"github.com/EgorLis/book-module/internal/transport/web/logx"
	"github.com/EgorLis/book-module/internal/transport/web/mw"
	v1 "github.com/EgorLis/book-module/internal/transport/web/v1"
)

type Handler struct {
	Log     zerolog.Logger
	Catalog *catalog.Catalog
}

type pageSummary struct {
	PageNumber int           `json:"pageNumber"`
	Title      string        `json:"title"`
	Layout     domain.Layout `json:"layout,omitempty"`
}

// Books godoc
// @Summary     Available books
// @Description Книги, доступные роли читателя (FHB — только teacher/admin)
// @Tags        books
// @Produce     json
// @Param       token query string false "Auth token (alternative to Authorization: Bearer)"
// @Success     200 {object} domain.APIEnvelope{data=[]string}
// @Failure     401 {object} domain.APIEnvelope
// @Router      /v1/books [get]
func (h *Handler) Books(w http.ResponseWriter, r *http.Request) {
	const op = "books.list"
	reqID := mw.RequestIDFromCtx(r.Context())
	me, err := v1.Viewer(r)
	if err != nil {
		v1.WriteDomainError(w, r, err)
		return
	}
	books := policy.AvailableBookCategories(me.Role)
	logx.Info(h.Log, reqID, op, "ok", "role", me.Role, "count", len(books))
	v1.WriteOKData(w, r, books)
}

func (h *Handler) openBook(r *http.Request) (domain.BookCategory, error) {
	me, err := v1.Viewer(r)
	if err != nil {
		return "", err
	}
	b, err := domain.ParseBook(v1.PathValue(r, "book"))
	if err != nil {
		return "", err
	}
	if !policy.CanOpenBook(me.Role, b) {
		return "", fmt.Errorf("%w: book %s", domain.ErrForbidden, b)
	}
	return b, nil
}

// Pages godoc
// @Summary     Pages of a book
// @Tags        books
// @Produce     json
// @Param       token query string false "Auth token (alternative to Authorization: Bearer)"
// @Param       book path string true "Studio | Companion | FHB"
// @Success     200 {object} domain.APIEnvelope{data=[]pageSummary}
// @Failure     400 {object} domain.APIEnvelope
// @Failure     403 {object} domain.APIEnvelope
// @Router      /v1/books/{book}/pages [get]
func (h *Handler) Pages(w http.ResponseWriter, r *http.Request) {
	const op = "books.pages"
	reqID := mw.RequestIDFromCtx(r.Context())
	b, err := h.openBook(r)
	if err != nil {
		logx.Error(h.Log, reqID, op, "open book failed", err)
		v1.WriteDomainError(w, r, err)
		return
	}
	pages, err := h.Catalog.Pages(b)
	if err != nil {
		logx.Error(h.Log, reqID, op, "catalog pages failed", err, "book", b)
		v1.WriteDomainError(w, r, err)
		return
	}
	out := make([]pageSummary, 0, len(pages))
	for _, p := range pages {
		out = append(out, pageSummary{PageNumber: p.PageNumber, Title: p.Title, Layout: p.Layout})
	}
	logx.Info(h.Log, reqID, op, "ok", "book", b, "count", len(out))
	v1.WriteOKData(w, r, out)
}

// Page godoc
// @Summary     Page content
// @Description Контент страницы без ресурсов (их отдаёт /resources)
// @Tags        books
// @Produce     json
// @Param       token query string false "Auth token (alternative to Authorization: Bearer)"
// @Param       book path string true "Studio | Companion | FHB"
// @Param       page path int true "page number"
// @Success     200 {object} domain.APIEnvelope{data=domain.PageData}
// @Failure     404 {object} domain.APIEnvelope
// @Router      /v1/books/{book}/pages/{page} [get]
func (h *Handler) Page(w http.ResponseWriter, r *http.Request) {
	const op = "books.page"
	reqID := mw.RequestIDFromCtx(r.Context())
	if _, err := h.openBook(r); err != nil {
		logx.Error(h.Log, reqID, op, "open book failed", err)
		v1.WriteDomainError(w, r, err)
		return
	}
	key, err := v1.PageKey(r)
	if err != nil {
		v1.WriteDomainError(w, r, err)
		return
	}
	p, ok := h.Catalog.Page(key)
	if !ok {
		logx.Error(h.Log, reqID, op, "page not found", domain.ErrNotFound, "key", key.String())
		v1.WriteDomainError(w, r, domain.ErrNotFound)
		return
	}
	logx.Info(h.Log, reqID, op, "ok", "key", key.String())
	v1.WriteOKData(w, r, p)
}
