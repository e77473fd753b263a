// Package health contiene el controller para health checks.
package health

import (
	"net/http"

	httperrors "github.com/dropDatabas3/hellocoop/internal/http/v2/errors"
	"github.com/dropDatabas3/hellocoop/internal/http/v2/helpers"
	svc "github.com/dropDatabas3/hellocoop/internal/http/v2/services/health"
	"github.com/dropDatabas3/hellocoop/internal/observability/logger"
)

// Controllers agrupa los controllers del dominio health.
type Controllers struct {
	Health *HealthController
}

// NewControllers crea el agregador.
func NewControllers(s svc.Services) *Controllers {
	return &Controllers{Health: NewHealthController(s.Health)}
}

// HealthController maneja las rutas de health check.
type HealthController struct {
	service svc.HealthService
}

// NewHealthController crea un nuevo controller de health check.
func NewHealthController(service svc.HealthService) *HealthController {
	return &HealthController{service: service}
}

// Readyz maneja GET /readyz
func (c *HealthController) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("HealthController.Readyz"))

	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		httperrors.WriteError(w, httperrors.ErrMethodNotAllowed)
		return
	}

	response := c.service.Check(ctx)
	if response.Version != "" {
		w.Header().Set("X-Service-Version", response.Version)
	}

	statusCode := http.StatusOK
	if response.Status == "unavailable" {
		statusCode = http.StatusServiceUnavailable
	}

	log.Debug("health check completed",
		logger.String("status", response.Status),
		logger.Int("components_count", len(response.Components)),
	)
	helpers.WriteJSON(w, statusCode, response)
}
