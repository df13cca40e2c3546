package viewer

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/EgorLis/book-module/internal/annotation"
	"github.com/EgorLis/book-module/internal/domain"
	"github.com/EgorLis/book-module/internal/transport/web/logx"
	"github.com/EgorLis/book-module/internal/transport/web/mw"
	v1 "github.com/EgorLis/book-module/internal/transport/web/v1"
)

// сколько GET /annotations ждёт текущую загрузку
const loadWait = 10 * time.Second

type Handler struct {
	Log     zerolog.Logger
	Engines *annotation.Registry
}

type pageRequest struct {
	Book string `json:"book"`
	Page int    `json:"page"`
}

type pageResponse struct {
	Page        domain.PageData     `json:"page"`
	Annotations annotation.Snapshot `json:"annotations"`
}

type strokeRequest struct {
	annotation.Stroke
	// точки в экранных координатах этой области; без view — в логических
	View *annotation.View `json:"view,omitempty"`
}

type noteTextRequest struct {
	Text string `json:"text"`
}

func (h *Handler) engine(r *http.Request) (*annotation.Engine, domain.Viewer, error) {
	me, err := v1.Viewer(r)
	if err != nil {
		return nil, me, err
	}
	return h.Engines.Session(me.SessionID, me.ExpiresAt), me, nil
}

// Navigate godoc
// @Summary     Open page in viewer
// @Description Слой штрихов и заметки сразу очищаются, сохранённая аннотация страницы грузится асинхронно. Неизвестный номер — первая страница книги.
// @Tags        viewer
// @Accept      json
// @Produce     json
// @Param       token query string false "Auth token (alternative to Authorization: Bearer)"
// @Param       request body pageRequest true "book, page"
// @Success     200 {object} domain.APIEnvelope{data=pageResponse}
// @Failure     400 {object} domain.APIEnvelope
// @Failure     403 {object} domain.APIEnvelope
// @Router      /v1/viewer/page [put]
func (h *Handler) Navigate(w http.ResponseWriter, r *http.Request) {
	const op = "viewer.navigate"
	reqID := mw.RequestIDFromCtx(r.Context())
	e, me, err := h.engine(r)
	if err != nil {
		v1.WriteDomainError(w, r, err)
		return
	}
	var req pageRequest
	if err := v1.DecodeJSON(r, &req); err != nil {
		logx.Error(h.Log, reqID, op, "bad json", err)
		v1.WriteDomainError(w, r, err)
		return
	}
	book, err := domain.ParseBook(req.Book)
	if err != nil {
		v1.WriteDomainError(w, r, err)
		return
	}

	page, err := e.Navigate(me.Role, domain.ResourceKey{Book: book, Page: req.Page})
	if err != nil {
		logx.Error(h.Log, reqID, op, "navigate failed", err, "book", book, "page", req.Page)
		v1.WriteDomainError(w, r, err)
		return
	}

	logx.Info(h.Log, reqID, op, "ok", "book", book, "page", page.PageNumber, "session", me.SessionID)
	v1.WriteOKData(w, r, pageResponse{Page: page, Annotations: e.Snapshot()})
}

// Annotations godoc
// @Summary     Annotation state of the open page
// @Description Ждёт завершения текущей загрузки (в пределах запроса) и отдаёт заметки и состояние.
// @Tags        viewer
// @Produce     json
// @Param       token query string false "Auth token (alternative to Authorization: Bearer)"
// @Success     200 {object} domain.APIEnvelope{data=annotation.Snapshot}
// @Router      /v1/viewer/annotations [get]
func (h *Handler) Annotations(w http.ResponseWriter, r *http.Request) {
	const op = "viewer.annotations"
	reqID := mw.RequestIDFromCtx(r.Context())
	e, _, err := h.engine(r)
	if err != nil {
		v1.WriteDomainError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), loadWait)
	defer cancel()
	if err := e.Wait(ctx); err != nil {
		// отдаём то, что есть: состояние останется loading
		logx.Error(h.Log, reqID, op, "load still in progress", err)
	}

	s := e.Snapshot()
	logx.Info(h.Log, reqID, op, "ok", "state", s.State, "notes", len(s.Notes))
	v1.WriteOKData(w, r, s)
}

// Stroke godoc
// @Summary     Finish stroke
// @Description Штрих рисуется (draw) или стирает (erase) и сохраняется весь слой страницы.
// @Tags        viewer
// @Accept      json
// @Produce     json
// @Param       token query string false "Auth token (alternative to Authorization: Bearer)"
// @Param       request body strokeRequest true "points, color, width, erase, view"
// @Success     200 {object} domain.APIEnvelope{data=annotation.Snapshot}
// @Failure     400 {object} domain.APIEnvelope
// @Router      /v1/viewer/strokes [post]
func (h *Handler) Stroke(w http.ResponseWriter, r *http.Request) {
	const op = "viewer.stroke"
	reqID := mw.RequestIDFromCtx(r.Context())
	e, _, err := h.engine(r)
	if err != nil {
		v1.WriteDomainError(w, r, err)
		return
	}
	var req strokeRequest
	if err := v1.DecodeJSON(r, &req); err != nil {
		logx.Error(h.Log, reqID, op, "bad json", err)
		v1.WriteDomainError(w, r, err)
		return
	}

	if err := e.OnStrokeEnd(req.Stroke, req.View); err != nil {
		logx.Error(h.Log, reqID, op, "stroke rejected", err, "points", len(req.Points))
		v1.WriteDomainError(w, r, err)
		return
	}

	logx.Info(h.Log, reqID, op, "ok", "points", len(req.Points), "erase", req.Erase)
	v1.WriteOKData(w, r, e.Snapshot())
}

// CreateNote godoc
// @Summary     Create text note
// @Tags        viewer
// @Accept      json
// @Produce     json
// @Param       token query string false "Auth token (alternative to Authorization: Bearer)"
// @Param       request body annotation.NoteInput true "x, y (percent), color"
// @Success     201 {object} domain.APIEnvelope{data=domain.TextNote}
// @Failure     400 {object} domain.APIEnvelope
// @Router      /v1/viewer/notes [post]
func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) {
	const op = "viewer.note_create"
	reqID := mw.RequestIDFromCtx(r.Context())
	e, _, err := h.engine(r)
	if err != nil {
		v1.WriteDomainError(w, r, err)
		return
	}
	var req annotation.NoteInput
	if err := v1.DecodeJSON(r, &req); err != nil {
		logx.Error(h.Log, reqID, op, "bad json", err)
		v1.WriteDomainError(w, r, err)
		return
	}

	n, err := e.OnNoteCreate(req)
	if err != nil {
		logx.Error(h.Log, reqID, op, "note rejected", err)
		v1.WriteDomainError(w, r, err)
		return
	}

	logx.Info(h.Log, reqID, op, "ok", "note_id", n.ID)
	v1.WriteCreatedData(w, r, n)
}

// ChangeNote godoc
// @Summary     Change note text
// @Tags        viewer
// @Accept      json
// @Produce     json
// @Param       token query string false "Auth token (alternative to Authorization: Bearer)"
// @Param       id path string true "note id"
// @Param       request body noteTextRequest true "text"
// @Success     200 {object} domain.APIEnvelope{data=domain.TextNote}
// @Failure     404 {object} domain.APIEnvelope
// @Router      /v1/viewer/notes/{id} [patch]
func (h *Handler) ChangeNote(w http.ResponseWriter, r *http.Request) {
	const op = "viewer.note_change"
	reqID := mw.RequestIDFromCtx(r.Context())
	e, _, err := h.engine(r)
	if err != nil {
		v1.WriteDomainError(w, r, err)
		return
	}
	id := v1.PathValue(r, "id")
	var req noteTextRequest
	if err := v1.DecodeJSON(r, &req); err != nil {
		logx.Error(h.Log, reqID, op, "bad json", err)
		v1.WriteDomainError(w, r, err)
		return
	}

	n, err := e.OnNoteChange(id, req.Text)
	if err != nil {
		logx.Error(h.Log, reqID, op, "change failed", err, "note_id", id)
		v1.WriteDomainError(w, r, err)
		return
	}

	logx.Info(h.Log, reqID, op, "ok", "note_id", id)
	v1.WriteOKData(w, r, n)
}

// DeleteNote godoc
// @Summary     Delete note
// @Tags        viewer
// @Produce     json
// @Param       token query string false "Auth token (alternative to Authorization: Bearer)"
// @Param       id path string true "note id"
// @Success     200 {object} domain.APIEnvelope{data=annotation.Snapshot}
// @Failure     404 {object} domain.APIEnvelope
// @Router      /v1/viewer/notes/{id} [delete]
func (h *Handler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	const op = "viewer.note_delete"
	reqID := mw.RequestIDFromCtx(r.Context())
	e, _, err := h.engine(r)
	if err != nil {
		v1.WriteDomainError(w, r, err)
		return
	}
	id := v1.PathValue(r, "id")

	if err := e.OnNoteDelete(id); err != nil {
		logx.Error(h.Log, reqID, op, "delete failed", err, "note_id", id)
		v1.WriteDomainError(w, r, err)
		return
	}

	logx.Info(h.Log, reqID, op, "ok", "note_id", id)
	v1.WriteOKData(w, r, e.Snapshot())
}

// Clear godoc
// @Summary     Clear annotations of the open page
// @Description Стирает штрихи и заметки и сразу сохраняет пустую запись.
// @Tags        viewer
// @Produce     json
// @Param       token query string false "Auth token (alternative to Authorization: Bearer)"
// @Success     200 {object} domain.APIEnvelope{data=annotation.Snapshot}
// @Failure     400 {object} domain.APIEnvelope
// @Router      /v1/viewer/annotations [delete]
func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	const op = "viewer.clear"
	reqID := mw.RequestIDFromCtx(r.Context())
	e, _, err := h.engine(r)
	if err != nil {
		v1.WriteDomainError(w, r, err)
		return
	}

	if err := e.ClearAll(r.Context()); err != nil {
		logx.Error(h.Log, reqID, op, "clear failed", err)
		v1.WriteDomainError(w, r, err)
		return
	}

	logx.Info(h.Log, reqID, op, "ok")
	v1.WriteOKData(w, r, e.Snapshot())
}

// Layer godoc
// @Summary     Rendered stroke layer
// @Description Слой штрихов, масштабированный под экранную область и повёрнутый вместе со страницей.
// @Tags        viewer
// @Produce     png
// @Produce     image/webp
// @Param       token query string false "Auth token (alternative to Authorization: Bearer)"
// @Param       width query number true "on-screen width"
// @Param       height query number true "on-screen height"
// @Param       rotation query int false "0 | 90 | 180 | 270"
// @Param       format query string false "png | webp"
// @Success     200 {file} []byte
// @Failure     400 {object} domain.APIEnvelope
// @Router      /v1/viewer/layer [get]
func (h *Handler) Layer(w http.ResponseWriter, r *http.Request) {
	const op = "viewer.layer"
	reqID := mw.RequestIDFromCtx(r.Context())
	e, _, err := h.engine(r)
	if err != nil {
		v1.WriteDomainError(w, r, err)
		return
	}
	v, f, err := parseView(r)
	if err != nil {
		logx.Error(h.Log, reqID, op, "bad view", err)
		v1.WriteDomainError(w, r, err)
		return
	}

	data, err := e.RenderLayer(v, f)
	if err != nil {
		logx.Error(h.Log, reqID, op, "render failed", err)
		v1.WriteDomainError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", f.MIME())
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
	logx.Info(h.Log, reqID, op, "ok", "rotation", v.Rotation, "format", f, "len", len(data))
}
