package domain

import "errors"

// Бизнес-ошибки (маппятся на HTTP коды в transport/web/v1)
var (
	ErrBadParams        = errors.New("bad_params")         // 400
	ErrInvalidInput     = errors.New("invalid_input")      // 400, отправка блокируется до хранилища
	ErrUnauth           = errors.New("unauthorized")       // 401
	ErrForbidden        = errors.New("forbidden")          // 403
	ErrNotFound         = errors.New("not_found")          // 404
	ErrMethodNotAllowed = errors.New("method_not_allowed") // 405
	ErrUnexpected       = errors.New("unexpected")         // 500
)

// Ошибки хранилища. Наружу как исключения не выходят: ловятся на границе UI-действие/Store.
var (
	ErrStorageUnavailable = errors.New("storage_unavailable")  // не открылось — работаем в памяти
	ErrStorageWriteFailed = errors.New("storage_write_failed") // put/delete — логируем, UI не откатываем
	ErrStorageReadFailed  = errors.New("storage_read_failed")  // load — считаем, что сохранённого нет
)

// Коды ошибок в конверте ответа
const (
	ErrCodeBadParams        = 1000
	ErrCodeUnauth           = 1001
	ErrCodeForbidden        = 1003
	ErrCodeNotFound         = 1004
	ErrCodeMethodNotAllowed = 1005
	ErrCodeInvalidInput     = 1022
	ErrCodeUnexpected       = 1500
)
