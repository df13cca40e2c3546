package resource

import (
	"net/http"

	"github.com/EgorLis/book-module/internal/transport/web/logx"
	"github.com/EgorLis/book-module/internal/transport/web/mw"
	v1 "github.com/EgorLis/book-module/internal/transport/web/v1"
)

type reorderRequest struct {
	IDs []string `json:"ids"`
}

// Reorder godoc
// @Summary     Reorder page resources
// @Description Только admin. Id, которых нет в списке, идут после упорядоченных в исходном порядке.
// @Tags        resources
// @Accept      json
// @Produce     json
// @Param       token query string false "Auth token (alternative to Authorization: Bearer)"
// @Param       book path string true "Studio | Companion | FHB"
// @Param       page path int true "page number"
// @Param       request body reorderRequest true "ordered ids"
// @Success     200 {object} domain.APIEnvelope{data=[]resourceView}
// @Failure     400 {object} domain.APIEnvelope
// @Failure     403 {object} domain.APIEnvelope
// @Failure     404 {object} domain.APIEnvelope
// @Router      /v1/books/{book}/pages/{page}/order [put]
func (h *Handler) Reorder(w http.ResponseWriter, r *http.Request) {
	const op = "resources.reorder"
	reqID := mw.RequestIDFromCtx(r.Context())
	logx.Info(h.Log, reqID, op, "start", "method", r.Method, "path", r.URL.Path)

	me, err := v1.Viewer(r)
	if err != nil {
		v1.WriteDomainError(w, r, err)
		return
	}
	key, err := v1.PageKey(r)
	if err != nil {
		v1.WriteDomainError(w, r, err)
		return
	}
	var req reorderRequest
	if err := v1.DecodeJSON(r, &req); err != nil {
		logx.Error(h.Log, reqID, op, "bad json", err)
		v1.WriteDomainError(w, r, err)
		return
	}

	if err := h.Library.Reorder(r.Context(), me.Role, key, req.IDs); err != nil {
		logx.Error(h.Log, reqID, op, "reorder failed", err, "key", key.String(), "role", me.Role)
		v1.WriteDomainError(w, r, err)
		return
	}
	list, err := h.Library.DisplayResources(key, me.Role)
	if err != nil {
		v1.WriteDomainError(w, r, err)
		return
	}
	out := make([]resourceView, 0, len(list))
	for _, res := range list {
		out = append(out, view(me.Role, res))
	}

	logx.Info(h.Log, reqID, op, "ok", "key", key.String(), "count", len(req.IDs))
	v1.WriteOKData(w, r, out)
}
