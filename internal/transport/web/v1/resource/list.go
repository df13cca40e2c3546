package resource

import (
	"net/http"

	"github.com/EgorLis/book-module/internal/transport/web/logx"
	"github.com/EgorLis/book-module/internal/transport/web/mw"
	v1 "github.com/EgorLis/book-module/internal/transport/web/v1"
)

// List godoc
// @Summary     Display resources of a page
// @Description Статические ресурсы каталога + пользовательские, с учётом удалений, правок, порядка и видимости для роли.
// @Tags        resources
// @Produce     json
// @Param       token query string false "Auth token (alternative to Authorization: Bearer)"
// @Param       book path string true "Studio | Companion | FHB"
// @Param       page path int true "page number"
// @Success     200 {object} domain.APIEnvelope{data=[]resourceView}
// @Failure     400 {object} domain.APIEnvelope
// @Failure     403 {object} domain.APIEnvelope
// @Failure     404 {object} domain.APIEnvelope
// @Router      /v1/books/{book}/pages/{page}/resources [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	const op = "resources.list"
	reqID := mw.RequestIDFromCtx(r.Context())
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

	list, err := h.Library.DisplayResources(key, me.Role)
	if err != nil {
		logx.Error(h.Log, reqID, op, "display resources failed", err, "key", key.String(), "role", me.Role)
		v1.WriteDomainError(w, r, err)
		return
	}
	out := make([]resourceView, 0, len(list))
	for _, res := range list {
		out = append(out, view(me.Role, res))
	}

	logx.Info(h.Log, reqID, op, "ok", "key", key.String(), "role", me.Role, "count", len(out))
	v1.WriteOKData(w, r, out)
}
