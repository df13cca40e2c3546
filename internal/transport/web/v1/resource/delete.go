package resource

import (
	"net/http"

	"github.com/EgorLis/book-module/internal/transport/web/logx"
	"github.com/EgorLis/book-module/internal/transport/web/mw"
	v1 "github.com/EgorLis/book-module/internal/transport/web/v1"
)

type deleteResponse struct {
	Deleted string `json:"deleted"`
}

// Delete godoc
// @Summary     Delete resource
// @Description Пользовательский ресурс удаляется вместе с файлом и ссылкой; статический (только admin) скрывается навсегда.
// @Tags        resources
// @Produce     json
// @Param       token query string false "Auth token (alternative to Authorization: Bearer)"
// @Param       id path string true "resource id"
// @Success     200 {object} domain.APIEnvelope{response=deleteResponse}
// @Failure     403 {object} domain.APIEnvelope
// @Failure     404 {object} domain.APIEnvelope
// @Router      /v1/resources/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	const op = "resources.delete"
	reqID := mw.RequestIDFromCtx(r.Context())
	logx.Info(h.Log, reqID, op, "start", "method", r.Method, "path", r.URL.Path)

	me, err := v1.Viewer(r)
	if err != nil {
		v1.WriteDomainError(w, r, err)
		return
	}
	id := v1.PathValue(r, "id")

	if err := h.Library.DeleteResource(r.Context(), me.Role, id); err != nil {
		logx.Error(h.Log, reqID, op, "delete failed", err, "id", id, "role", me.Role)
		v1.WriteDomainError(w, r, err)
		return
	}

	logx.Info(h.Log, reqID, op, "ok", "id", id)
	v1.WriteOKResponse(w, r, deleteResponse{Deleted: id})
}
