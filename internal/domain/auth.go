package domain

import (
	"context"
	"time"
)

// Сессия читателя: токен выдаётся на выбранную роль (переключатель ролей в UI),
// JTI токена служит идентификатором сессии просмотра.

type Token string

type TokenClaims struct {
	JTI       string // уникальный id токена = id сессии
	Role      Role
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Проверка пароля-пропуска для ролей teacher/admin
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, encodedHash string) (bool, error)
}

type TokenManager interface {
	Issue(ctx context.Context, role Role) (Token, TokenClaims, error)
	Parse(ctx context.Context, t Token) (TokenClaims, error)
}

// Блэклист/ревокация токенов (Redis или память)
type TokenBlacklist interface {
	Revoke(ctx context.Context, jti string, exp time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}
