package middleware

import (
	"net/http"
	"runtime/debug"

	"media-router/internal/logging"
)

// Recover converts a panicking handler into a 500 response and logs the
// stack.
func Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if v := recover(); v != nil {
				if v == http.ErrAbortHandler {
					panic(v)
				}
				logging.Error("panic serving %s %s: %v\n%s", r.Method, sanitizeLogField(r.URL.Path), v, debug.Stack())
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte(`{"error":"internal server error"}` + "\n"))
			}
		}()
		next.ServeHTTP(w, r)
	})
}
