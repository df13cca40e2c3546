package domain

import (
	"context"
	"time"
)

// Viewer: аутентифицированный читатель в контексте HTTP-запроса
type Viewer struct {
	SessionID string
	Role      Role
	ExpiresAt time.Time // конец сессии = exp токена
}

type ctxKey int

const viewerCtxKey ctxKey = 1

func WithViewer(ctx context.Context, v Viewer) context.Context {
	return context.WithValue(ctx, viewerCtxKey, v)
}

func ViewerFromCtx(ctx context.Context) (Viewer, bool) {
	v, ok := ctx.Value(viewerCtxKey).(Viewer)
	return v, ok
}
