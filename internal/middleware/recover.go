package middleware

import (
	"net/http"
	"runtime/debug"

	"petstore/internal/platform/logger"
	"petstore/internal/platform/respond"
)

// Recover reemplaza a chimw.Recoverer: el body de error tiene que ser JSON.
func Recover(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				// http.ErrAbortHandler se propaga tal cual (cliente cortó la conexión)
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				log.Error("panic recovered", map[string]any{
					"request_id": GetRequestID(r.Context()),
					"panic":      rec,
					"stack":      string(debug.Stack()),
				})
				respond.Error(w, http.StatusInternalServerError, "Internal server error")
			}()

			next.ServeHTTP(w, r)
		})
	}
}
