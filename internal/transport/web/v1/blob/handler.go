package blob

import (
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/EgorLis/book-module/internal/blobs"
	"github.com/EgorLis/book-module/internal/domain"
	"github.com/EgorLis/book-module/internal/transport/web/logx"
	"github.com/EgorLis/book-module/internal/transport/web/mw"
	v1 "github.com/EgorLis/book-module/internal/transport/web/v1"
)

type Handler struct {
	Log   zerolog.Logger
	Blobs *blobs.Manager
}

func weakETag(sha []byte) string {
	pref := hex.EncodeToString(sha)
	if len(pref) > 16 {
		pref = pref[:16]
	}
	return fmt.Sprintf(`W/"%s"`, pref)
}

// Get godoc
// @Summary     Resource file by handle
// @Description Содержимое файла пользовательского ресурса по временной ссылке. Поддерживает HEAD и Range. После удаления ресурса ссылка отвечает 404.
// @Tags        blobs
// @Produce     octet-stream
// @Param       handle path string true "blob handle"
// @Param       Range header string false "bytes=START-END"
// @Success     200 {file} []byte
// @Success     206 {file} []byte
// @Failure     404 {object} domain.APIEnvelope
// @Router      /v1/blobs/{handle} [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	const op = "blobs.get"
	reqID := mw.RequestIDFromCtx(r.Context())
	handle := v1.PathValue(r, "handle")

	e, ok := h.Blobs.Resolve(handle)
	if !ok {
		logx.Error(h.Log, reqID, op, "unknown handle", domain.ErrNotFound, "handle", handle)
		v1.WriteDomainError(w, r, domain.ErrNotFound)
		return
	}

	etag := weakETag(e.Blob.SHA256)
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "private, max-age=60")
	w.Header().Set("Accept-Ranges", "bytes")

	// Conditional по ETag (If-None-Match)
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.WriteHeader(http.StatusNotModified)
		logx.Info(h.Log, reqID, op, "not modified by etag", "resource_id", e.ResourceID)
		return
	}

	// HEAD: отдаём только заголовки (MIME и размер знаем из метаданных)
	if r.Method == http.MethodHead {
		w.Header().Set("Content-Type", e.Blob.MIME)
		w.Header().Set("Content-Length", strconv.FormatInt(e.Blob.Size, 10))
		w.WriteHeader(http.StatusOK)
		logx.Info(h.Log, reqID, op, "head ok", "resource_id", e.ResourceID, "mime", e.Blob.MIME)
		return
	}

	rangeHdr := r.Header.Get("Range")
	_, obj, err := h.Blobs.Open(r.Context(), handle, rangeHdr)
	if err != nil {
		logx.Error(h.Log, reqID, op, "open failed", err, "handle", handle, "range", rangeHdr)
		v1.WriteDomainError(w, r, err)
		return
	}
	defer obj.Body.Close()

	w.Header().Set("Content-Type", obj.ContentType)
	w.Header().Set("Content-Length", strconv.FormatInt(obj.ContentLen, 10))
	if e.Blob.Name != "" {
		w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", e.Blob.Name))
	}

	if obj.ContentRange != "" {
		w.Header().Set("Content-Range", obj.ContentRange)
		w.WriteHeader(http.StatusPartialContent)
		logx.Info(h.Log, reqID, op, "partial content", "resource_id", e.ResourceID, "range", obj.ContentRange, "len", obj.ContentLen)
	} else {
		w.WriteHeader(http.StatusOK)
		logx.Info(h.Log, reqID, op, "file ok", "resource_id", e.ResourceID, "len", obj.ContentLen)
	}

	_, _ = io.Copy(w, obj.Body)
}
