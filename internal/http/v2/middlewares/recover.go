package middlewares

import (
	"net/http"

	"github.com/dropDatabas3/hellocoop/internal/http/v2/errors"
	"github.com/dropDatabas3/hellocoop/internal/observability/logger"
)

// WithRecover convierte un panic en un 500 JSON con el request_id en el log.
// http.ErrAbortHandler se re-lanza: net/http lo usa para cortar la conexión.
func WithRecover() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				logger.From(r.Context()).Error("panic recovered",
					logger.Op("recover"),
					logger.Path(r.URL.Path),
					logger.Any("panic", rec),
				)
				errors.WriteError(w, errors.ErrInternalServerError)
			}()
			next.ServeHTTP(w, r)
		})
	}
}
