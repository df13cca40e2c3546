package mw

import "net/http"

const DegradedHeader = "X-Storage-Degraded"

// Degraded помечает ответы, пока хранилище работает только в памяти
func Degraded(isDegraded func() bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isDegraded != nil && isDegraded() {
				w.Header().Set(DegradedHeader, "true")
			}
			next.ServeHTTP(w, r)
		})
	}
}
