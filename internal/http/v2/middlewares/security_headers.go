package middlewares

import (
	"net/http"
	"strings"
)

// CSP por superficie. La API (JSON) no carga nada. Las páginas del endpoint
// Hellō (bounce, same-site, error) usan script y estilos inline y muestran
// la foto del usuario desde el wallet.
const (
	APIContentSecurityPolicy  = "default-src 'none'; frame-ancestors 'none'; base-uri 'none'; form-action 'self'"
	PageContentSecurityPolicy = "default-src 'self'; script-src 'self' 'unsafe-inline'; style-src 'self' 'unsafe-inline'; img-src 'self' https: data:; frame-ancestors 'none'; base-uri 'none'"
)

// hstsMaxAge 180 días.
const hstsMaxAge = "max-age=15552000; includeSubDomains"

// isHTTPS: TLS directo o X-Forwarded-Proto del proxy.
func isHTTPS(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	return strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}

// WithSecurityHeaders fija las cabeceras comunes más la CSP dada
// ("" = APIContentSecurityPolicy). Ninguna respuesta del servicio se
// embebe en frames: el login de Hellō es siempre top-level.
func WithSecurityHeaders(csp string) Middleware {
	if csp == "" {
		csp = APIContentSecurityPolicy
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("Content-Security-Policy", csp)
			h.Set("X-Frame-Options", "DENY")
			h.Set("X-Content-Type-Options", "nosniff")
			// El redirect_uri lleva code y state en la query.
			h.Set("Referrer-Policy", "no-referrer")
			h.Set("Cross-Origin-Resource-Policy", "same-site")
			h.Set("Permissions-Policy", "geolocation=(), microphone=(), camera=(), payment=()")
			if isHTTPS(r) {
				h.Set("Strict-Transport-Security", hstsMaxAge)
			}
			next.ServeHTTP(w, r)
		})
	}
}
