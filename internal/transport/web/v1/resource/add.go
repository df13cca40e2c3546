package resource

import (
	"net/http"

	"github.com/EgorLis/book-module/internal/transport/web/logx"
	"github.com/EgorLis/book-module/internal/transport/web/mw"
	v1 "github.com/EgorLis/book-module/internal/transport/web/v1"
)

// Add godoc
// @Summary     Add custom resource
// @Description JSON {title, type, url, ...} или multipart: meta(json) + file. Тип файла выводится из MIME, заголовок по умолчанию — имя файла.
// @Tags        resources
// @Accept      json,multipart/form-data
// @Produce     json
// @Param       token query string false "Auth token (alternative to Authorization: Bearer)"
// @Param       book path string true "Studio | Companion | FHB"
// @Param       page path int true "page number"
// @Param       meta formData string false "JSON meta (multipart)"
// @Param       file formData file false "file (multipart)"
// @Success     201 {object} domain.APIEnvelope{data=resourceView}
// @Failure     400 {object} domain.APIEnvelope
// @Failure     403 {object} domain.APIEnvelope
// @Failure     404 {object} domain.APIEnvelope
// @Router      /v1/books/{book}/pages/{page}/resources [post]
func (h *Handler) Add(w http.ResponseWriter, r *http.Request) {
	const op = "resources.add"
	reqID := mw.RequestIDFromCtx(r.Context())
	logx.Info(h.Log, reqID, op, "start", "method", r.Method, "path", r.URL.Path)

	me, err := v1.Viewer(r)
	if err != nil {
		v1.WriteDomainError(w, r, err)
		return
	}
	key, err := v1.PageKey(r)
	if err != nil {
		logx.Error(h.Log, reqID, op, "bad page key", err)
		v1.WriteDomainError(w, r, err)
		return
	}
	in, file, err := readInput(r)
	if err != nil {
		logx.Error(h.Log, reqID, op, "bad input", err)
		v1.WriteDomainError(w, r, err)
		return
	}

	res, err := h.Library.AddResource(r.Context(), me.Role, key, in, file)
	if err != nil {
		logx.Error(h.Log, reqID, op, "add failed", err, "key", key.String(), "role", me.Role)
		v1.WriteDomainError(w, r, err)
		return
	}

	logx.Info(h.Log, reqID, op, "ok", "id", res.ID, "key", key.String(), "file", file != nil)
	v1.WriteCreatedData(w, r, view(me.Role, res))
}
