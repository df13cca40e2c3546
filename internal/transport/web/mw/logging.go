package mw

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// metaWriter запоминает статус и размер ответа
type metaWriter struct {
	http.ResponseWriter
	status int
	size   int
}

func (m *metaWriter) WriteHeader(code int) {
	if m.status == 0 {
		m.status = code
	}
	m.ResponseWriter.WriteHeader(code)
}

func (m *metaWriter) Write(b []byte) (int, error) {
	if m.status == 0 {
		m.status = http.StatusOK
	}
	n, err := m.ResponseWriter.Write(b)
	m.size += n
	return n, err
}

// Flush нужен http.ServeContent и стримингу больших файлов
func (m *metaWriter) Flush() {
	if f, ok := m.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Logging пишет старт/финиш запроса, статус, размер, длительность
func Logging(l zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := RequestIDFromCtx(r.Context())
			start := time.Now()

			mw := &metaWriter{ResponseWriter: w}

			next.ServeHTTP(mw, r)

			if mw.status == 0 {
				mw.status = http.StatusOK
			}
			ev := l.Info()
			if mw.status >= http.StatusInternalServerError {
				ev = l.Warn()
			}
			ev.Str("req_id", reqID).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", mw.status).
				Int("size", mw.size).
				Int64("duration_ms", time.Since(start).Milliseconds()).
				Msg("request")
		})
	}
}
