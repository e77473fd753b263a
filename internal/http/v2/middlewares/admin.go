package middlewares

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/dropDatabas3/hellocoop/internal/http/v2/errors"
	"github.com/dropDatabas3/hellocoop/internal/observability/logger"
)

// =================================================================================
// ADMIN MIDDLEWARES
// =================================================================================

// AdminAPIKeyHeader header que lleva la API key de administración.
const AdminAPIKeyHeader = "X-Admin-API-Key"

// RequireAPIKey protege la API admin con una key compartida.
// Con key vacía no se exige nada (modo desarrollo).
func RequireAPIKey(key string) Middleware {
	key = strings.TrimSpace(key)
	return func(next http.Handler) http.Handler {
		if key == "" {
			return next
		}
		want := []byte(key)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := strings.TrimSpace(r.Header.Get(AdminAPIKeyHeader))
			if got == "" {
				errors.WriteError(w, errors.ErrUnauthorized.WithDetail("missing "+AdminAPIKeyHeader))
				return
			}
			if subtle.ConstantTimeCompare([]byte(got), want) != 1 {
				logger.From(r.Context()).Warn("admin api key rejected", logger.Layer("middleware"), logger.Op("RequireAPIKey"))
				errors.WriteError(w, errors.ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
