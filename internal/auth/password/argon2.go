package password

import (
	"errors"
	"fmt"

	"github.com/alexedwards/argon2id"

	"github.com/EgorLis/book-module/internal/domain"
)

type Hasher struct {
	params *argon2id.Params
}

func NewDefault() *Hasher {
	// параметры по умолчанию (достаточно безопасны и не слишком тяжёлые)
	return &Hasher{params: argon2id.DefaultParams}
}

func New(p *argon2id.Params) *Hasher { return &Hasher{params: p} }

var _ domain.PasswordHasher = (*Hasher)(nil)

// Hash возвращает закодированную строку формата $argon2id$v=19$m=..., которую можно хранить в конфиге.
func (h *Hasher) Hash(plain string) (string, error) {
	if h == nil || h.params == nil {
		return "", errors.New("argon2id params not set")
	}
	return argon2id.CreateHash(plain, h.params)
}

// Verify сравнивает пароль с сохранённым хэшем.
func (h *Hasher) Verify(plain, encodedHash string) (bool, error) {
	return argon2id.ComparePasswordAndHash(plain, encodedHash)
}

// Gate — пропуск на роль: у teacher/admin может быть пароль-пропуск, student открыт всегда.
// Пустой хэш — роль открыта.
type Gate struct {
	hasher domain.PasswordHasher
	hashes map[domain.Role]string
}

func NewGate(h domain.PasswordHasher, teacherHash, adminHash string) *Gate {
	return &Gate{hasher: h, hashes: map[domain.Role]string{
		domain.RoleTeacher: teacherHash,
		domain.RoleAdmin:   adminHash,
	}}
}

func (g *Gate) Check(role domain.Role, passcode string) error {
	hash := g.hashes[role]
	if hash == "" {
		return nil
	}
	ok, err := g.hasher.Verify(passcode, hash)
	if err != nil {
		return fmt.Errorf("%w: verify passcode: %v", domain.ErrUnexpected, err)
	}
	if !ok {
		return fmt.Errorf("%w: wrong passcode for %s", domain.ErrUnauth, role)
	}
	return nil
}
