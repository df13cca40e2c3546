package health

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/EgorLis/book-module/internal/domain"
	"github.com/EgorLis/book-module/internal/transport/web/logx"
	"github.com/EgorLis/book-module/internal/transport/web/mw"
	v1 "github.com/EgorLis/book-module/internal/transport/web/v1"
)

type Pinger interface {
	Ping(context.Context) error
}

type Handler struct {
	Log      zerolog.Logger
	Store    Pinger
	Cache    Pinger
	Storage  Pinger
	Degraded func() bool
}

type readiness struct {
	Status   string `json:"status"`
	Degraded bool   `json:"degraded"`
}

// Liveness godoc
// @Summary      Liveness probe
// @Description  Проверка, жив ли сервис (не зависит от хранилищ)
// @Tags         health
// @Produce      json
// @Success      200  {object}  domain.APIEnvelope{data=string}
// @Router       /v1/healthz [get]
func (h *Handler) Liveness(w http.ResponseWriter, r *http.Request) {
	const op = "health.liveness"
	reqID := mw.RequestIDFromCtx(r.Context())

	logx.Info(h.Log, reqID, op, "ok")
	v1.WriteOKData(w, r, "ok")
}

// Readiness godoc
// @Summary      Readiness probe
// @Description  Пинг хранилища записей, кеша и объектного хранилища. В деградированном режиме сервис готов, но работает в памяти.
// @Tags         health
// @Produce      json
// @Success      200  {object}  domain.APIEnvelope{data=readiness}
// @Failure      500  {object}  domain.APIEnvelope
// @Router       /v1/readyz [get]
func (h *Handler) Readiness(w http.ResponseWriter, r *http.Request) {
	const op = "health.readiness"
	reqID := mw.RequestIDFromCtx(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := []struct {
		name string
		p    Pinger
	}{
		{"store", h.Store},
		{"cache", h.Cache},
		{"storage", h.Storage},
	}
	for _, c := range checks {
		if c.p == nil {
			continue
		}
		if err := c.p.Ping(ctx); err != nil {
			logx.Error(h.Log, reqID, op, c.name+" ping failed", err)
			v1.WriteDomainError(w, r, domain.ErrUnexpected)
			return
		}
	}

	degraded := h.Degraded != nil && h.Degraded()
	logx.Info(h.Log, reqID, op, "ready", "degraded", degraded)
	v1.WriteOKData(w, r, readiness{Status: "ready", Degraded: degraded})
}
