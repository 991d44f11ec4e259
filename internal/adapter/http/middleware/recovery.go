package middleware

import (
	"fmt"
	"net/http"

	"github.com/govguard/govguard/internal/adapter/http/response"
	"github.com/govguard/govguard/internal/infra/logger"
)

// Recovery turns a handler panic into a 500 envelope
func Recovery(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					log.Error(r.Context(), "Panic recovered", fmt.Errorf("%v", rec), map[string]interface{}{
						"path": r.URL.Path,
					})
					response.InternalServerError(w, "Internal server error")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
