package middlewares

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dropDatabas3/hellocoop/internal/metrics"
)

// WithMetrics registra contador, latencia e inflight por ruta. La etiqueta
// route sale del patrón de chi para no explotar la cardinalidad.
func WithMetrics(m *metrics.Metrics) Middleware {
	return func(next http.Handler) http.Handler {
		if m == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			m.Inflight(1)
			defer m.Inflight(-1)

			rec, ok := w.(*statusRecorder)
			if !ok {
				rec = &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			}
			next.ServeHTTP(rec, r)

			m.ObserveHTTP(r.Method, routePattern(r), rec.status, time.Since(start))
		})
	}
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}
