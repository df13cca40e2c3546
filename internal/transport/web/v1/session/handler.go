package session

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/EgorLis/book-module/internal/domain"
	"github.com/EgorLis/book-module/internal/transport/web/logx"
	"github.com/EgorLis/book-module/internal/transport/web/mw"
	v1 "github.com/EgorLis/book-module/internal/transport/web/v1"
)

type Gate interface {
	Check(role domain.Role, passcode string) error
}

// Sessions: состояние просмотра, привязанное к сессии (движок аннотаций)
type Sessions interface {
	Drop(id string) bool
}

type Handler struct {
	Log       zerolog.Logger
	Gate      Gate
	Tokens    domain.TokenManager
	Blacklist domain.TokenBlacklist
	Sessions  Sessions
	Degraded  func() bool
}

type createRequest struct {
	Role     string `json:"role"`
	Passcode string `json:"passcode"`
}

type createResponse struct {
	Token     string      `json:"token"`
	Role      domain.Role `json:"role"`
	ExpiresAt time.Time   `json:"expiresAt"`
	Degraded  bool        `json:"degraded"`
}

type deleteResponse struct {
	Revoked string `json:"revoked"` // jti
}

// Create godoc
// @Summary     Open session
// @Description Выдаёт JWT на выбранную роль. Для teacher/admin нужен пароль-пропуск, если он настроен.
// @Tags        session
// @Accept      json
// @Produce     json
// @Param       request body createRequest true "role, passcode"
// @Success     200 {object} domain.APIEnvelope{response=createResponse}
// @Failure     400 {object} domain.APIEnvelope
// @Failure     401 {object} domain.APIEnvelope
// @Failure     500 {object} domain.APIEnvelope
// @Router      /v1/session [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	const op = "session.create"
	reqID := mw.RequestIDFromCtx(r.Context())
	logx.Info(h.Log, reqID, op, "start", "method", r.Method, "path", r.URL.Path)

	var req createRequest
	if err := v1.DecodeJSON(r, &req); err != nil {
		logx.Error(h.Log, reqID, op, "bad json", err)
		v1.WriteDomainError(w, r, err)
		return
	}
	role, err := domain.ParseRole(req.Role)
	if err != nil {
		logx.Error(h.Log, reqID, op, "bad role", err, "role", req.Role)
		v1.WriteDomainError(w, r, err)
		return
	}

	if err := h.Gate.Check(role, req.Passcode); err != nil {
		logx.Error(h.Log, reqID, op, "passcode check failed", err, "role", role)
		v1.WriteDomainError(w, r, err)
		return
	}

	token, claims, err := h.Tokens.Issue(r.Context(), role)
	if err != nil {
		logx.Error(h.Log, reqID, op, "issue token failed", err, "role", role)
		v1.WriteDomainError(w, r, domain.ErrUnexpected)
		return
	}

	logx.Info(h.Log, reqID, op, "ok", "role", role, "jti", claims.JTI)
	v1.WriteOKResponse(w, r, createResponse{
		Token:     string(token),
		Role:      role,
		ExpiresAt: claims.ExpiresAt,
		Degraded:  h.Degraded != nil && h.Degraded(),
	})
}

// Delete godoc
// @Summary     Close session
// @Description Отзывает токен до истечения exp и забывает состояние просмотра сессии.
// @Tags        session
// @Produce     json
// @Param       token query string false "Auth token (alternative to Authorization: Bearer)"
// @Success     200 {object} domain.APIEnvelope{response=deleteResponse}
// @Failure     401 {object} domain.APIEnvelope
// @Failure     500 {object} domain.APIEnvelope
// @Router      /v1/session [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	const op = "session.delete"
	reqID := mw.RequestIDFromCtx(r.Context())
	logx.Info(h.Log, reqID, op, "start", "method", r.Method, "path", r.URL.Path)

	claims, err := h.Tokens.Parse(r.Context(), v1.TokenFromRequest(r))
	if err != nil {
		logx.Error(h.Log, reqID, op, "parse token failed", err)
		v1.WriteDomainError(w, r, domain.ErrUnauth)
		return
	}

	// ревокация до exp
	if err := h.Blacklist.Revoke(r.Context(), claims.JTI, claims.ExpiresAt); err != nil {
		logx.Error(h.Log, reqID, op, "revoke failed", err, "jti", claims.JTI)
		v1.WriteDomainError(w, r, domain.ErrUnexpected)
		return
	}
	dropped := h.Sessions.Drop(claims.JTI)

	logx.Info(h.Log, reqID, op, "ok", "jti", claims.JTI, "viewer_dropped", dropped)
	v1.WriteOKResponse(w, r, deleteResponse{Revoked: claims.JTI})
}
