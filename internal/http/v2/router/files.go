package router

import (
	"net/http"
	"strings"
)

// filesHandler sirve FILES_ROOT sin listado de directorios.
func filesHandler(root string) http.Handler {
	fs := http.StripPrefix("/files/", http.FileServer(http.Dir(root)))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/files/" || strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("X-Content-Type-Options", "nosniff")
		fs.ServeHTTP(w, r)
	})
}
