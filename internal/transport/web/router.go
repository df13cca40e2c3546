package web

import (
	"net/http"

	"github.com/rs/zerolog"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/EgorLis/book-module/internal/docs"
	"github.com/EgorLis/book-module/internal/transport/web/mw"
)

// лимит JSON-тел без файлов
const jsonBodyLimit = 1 << 20

func newRouter(h handlers, auth mw.AuthDeps, maxUpload int64, logger zerolog.Logger, degraded func() bool) http.Handler {
	mux := http.NewServeMux()
	private := func(fn http.HandlerFunc) http.Handler { return mw.RequireAuth(auth, fn) }

	// health
	mux.HandleFunc("GET /v1/healthz", h.health.Liveness)
	mux.HandleFunc("GET /v1/readyz", h.health.Readiness)

	// session
	mux.HandleFunc("POST /v1/session", limitBody(jsonBodyLimit, h.session.Create))
	mux.HandleFunc("DELETE /v1/session", h.session.Delete)

	// books
	mux.Handle("GET /v1/books", private(h.book.Books))
	mux.Handle("GET /v1/books/{book}/pages", private(h.book.Pages))
	mux.Handle("GET /v1/books/{book}/pages/{page}", private(h.book.Page))

	// resources
	mux.Handle("GET /v1/books/{book}/pages/{page}/resources", private(h.resource.List))
	mux.Handle("POST /v1/books/{book}/pages/{page}/resources", private(limitBody(maxUpload, h.resource.Add)))
	mux.Handle("PUT /v1/books/{book}/pages/{page}/order", private(limitBody(jsonBodyLimit, h.resource.Reorder)))
	mux.Handle("PUT /v1/resources/{id}", private(limitBody(maxUpload, h.resource.Edit)))
	mux.Handle("DELETE /v1/resources/{id}", private(h.resource.Delete))

	// файлы ресурсов: ссылка сама по себе даёт доступ, как object URL (GET покрывает и HEAD)
	mux.HandleFunc("GET /v1/blobs/{handle}", h.blob.Get)

	// viewer
	mux.Handle("PUT /v1/viewer/page", private(limitBody(jsonBodyLimit, h.viewer.Navigate)))
	mux.Handle("GET /v1/viewer/annotations", private(h.viewer.Annotations))
	mux.Handle("DELETE /v1/viewer/annotations", private(h.viewer.Clear))
	mux.Handle("POST /v1/viewer/strokes", private(limitBody(jsonBodyLimit*8, h.viewer.Stroke)))
	mux.Handle("POST /v1/viewer/notes", private(limitBody(jsonBodyLimit, h.viewer.CreateNote)))
	mux.Handle("PATCH /v1/viewer/notes/{id}", private(limitBody(jsonBodyLimit, h.viewer.ChangeNote)))
	mux.Handle("DELETE /v1/viewer/notes/{id}", private(h.viewer.DeleteNote))
	mux.Handle("GET /v1/viewer/layer", private(h.viewer.Layer))

	// swagger
	mux.Handle("GET /swagger/", httpSwagger.WrapHandler)

	// 🔗 middleware
	return mw.WithRequestID(mw.Logging(logger)(mw.Degraded(degraded)(mux)))
}

func limitBody(n int64, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, n)
		h(w, r)
	}
}
