package resource

import (
	"net/http"

	"github.com/EgorLis/book-module/internal/transport/web/logx"
	"github.com/EgorLis/book-module/internal/transport/web/mw"
	v1 "github.com/EgorLis/book-module/internal/transport/web/v1"
)

// Edit godoc
// @Summary     Edit resource
// @Description Пользовательский ресурс меняется напрямую; статический (только admin) — через оверлей правок.
// @Tags        resources
// @Accept      json,multipart/form-data
// @Produce     json
// @Param       token query string false "Auth token (alternative to Authorization: Bearer)"
// @Param       id path string true "resource id"
// @Param       meta formData string false "JSON meta (multipart)"
// @Param       file formData file false "file (multipart, custom resources only)"
// @Success     200 {object} domain.APIEnvelope{data=resourceView}
// @Failure     400 {object} domain.APIEnvelope
// @Failure     403 {object} domain.APIEnvelope
// @Failure     404 {object} domain.APIEnvelope
// @Router      /v1/resources/{id} [put]
func (h *Handler) Edit(w http.ResponseWriter, r *http.Request) {
	const op = "resources.edit"
	reqID := mw.RequestIDFromCtx(r.Context())
	logx.Info(h.Log, reqID, op, "start", "method", r.Method, "path", r.URL.Path)

	me, err := v1.Viewer(r)
	if err != nil {
		v1.WriteDomainError(w, r, err)
		return
	}
	id := v1.PathValue(r, "id")
	in, file, err := readInput(r)
	if err != nil {
		logx.Error(h.Log, reqID, op, "bad input", err, "id", id)
		v1.WriteDomainError(w, r, err)
		return
	}

	res, err := h.Library.EditResource(r.Context(), me.Role, id, in, file)
	if err != nil {
		logx.Error(h.Log, reqID, op, "edit failed", err, "id", id, "role", me.Role)
		v1.WriteDomainError(w, r, err)
		return
	}

	logx.Info(h.Log, reqID, op, "ok", "id", res.ID, "file", file != nil)
	v1.WriteOKData(w, r, view(me.Role, res))
}
