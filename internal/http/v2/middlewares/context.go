package middlewares

import (
	"context"

	"github.com/dropDatabas3/hellocoop/internal/observability/logger"
)

// GetRequestID obtiene el request ID del contexto.
// Retorna cadena vacía si WithRequestID no se aplicó.
func GetRequestID(ctx context.Context) string {
	return logger.RequestIDFrom(ctx)
}
