package middlewares

import "net/http"

// WithNoStore marca la respuesta como no cacheable. El endpoint Hellō
// devuelve redirects con state y cookies de sesión, /user y la API admin
// devuelven datos de la cuenta o el secreto: nada de eso puede quedar en un
// cache intermedio.
func WithNoStore() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("Cache-Control", "no-store")
			h.Set("Pragma", "no-cache")
			next.ServeHTTP(w, r)
		})
	}
}

// WithCacheControl fija Cache-Control. Lo usa /files para las fotos de
// perfil, que son públicas y no cambian de nombre.
func WithCacheControl(directive string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", directive)
			next.ServeHTTP(w, r)
		})
	}
}
