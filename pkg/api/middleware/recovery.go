package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/pingboard/pingboard/pkg/api/response"
	"github.com/pingboard/pingboard/pkg/logger"
)

// Recovery returns a middleware that recovers from handler panics and
// answers with the generic 500 envelope. The panic detail stays in the
// logs.
func Recovery(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.Error("Panic recovered",
						"error", err,
						"path", r.URL.Path,
						"method", r.Method,
						"stack", string(debug.Stack()),
					)

					response.InternalError(w, GetRequestID(r.Context()))
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
