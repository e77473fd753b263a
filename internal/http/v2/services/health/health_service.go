// Package health contiene el service para health checks.
package health

import (
	"context"
	"time"

	dto "github.com/dropDatabas3/hellocoop/internal/http/v2/dto/health"
	"github.com/dropDatabas3/hellocoop/internal/observability/logger"
)

// HealthService define las operaciones de health check.
type HealthService interface {
	Check(ctx context.Context) dto.HealthResponse
}

// Pinger lo implementan store.Connection y cache.Client.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps contiene las dependencias inyectables para el health service.
type Deps struct {
	Store   Pinger // crítico
	Cache   Pinger // crítico (sesiones)
	Version string
	Timeout time.Duration // por componente; 0 = 2s
}

// Services agrupa los services del dominio.
type Services struct {
	Health HealthService
}

// NewServices crea el agregador.
func NewServices(d Deps) Services {
	return Services{Health: NewHealthService(d)}
}

type healthService struct {
	deps Deps
	now  func() time.Time
}

// NewHealthService crea un nuevo service de health check.
func NewHealthService(deps Deps) HealthService {
	if deps.Timeout <= 0 {
		deps.Timeout = 2 * time.Second
	}
	return &healthService{deps: deps, now: time.Now}
}

const componentHealth = "health"

func (s *healthService) Check(ctx context.Context) dto.HealthResponse {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component(componentHealth),
		logger.Op("Check"),
	)

	response := dto.HealthResponse{
		Status:     "ready",
		Components: make(map[string]dto.HealthStatus, 2),
		Version:    s.deps.Version,
		Timestamp:  s.now().UTC(),
	}

	for name, p := range map[string]Pinger{"store": s.deps.Store, "cache": s.deps.Cache} {
		st := s.ping(ctx, p)
		response.Components[name] = st
		if st.Status == "error" {
			response.Status = "unavailable"
			log.Error(name+" unavailable", logger.String("message", st.Message))
		}
	}
	return response
}

func (s *healthService) ping(ctx context.Context, p Pinger) dto.HealthStatus {
	if p == nil {
		return dto.HealthStatus{Status: "error", Message: "not initialized"}
	}
	ctx, cancel := context.WithTimeout(ctx, s.deps.Timeout)
	defer cancel()
	if err := p.Ping(ctx); err != nil {
		return dto.HealthStatus{Status: "error", Message: err.Error()}
	}
	return dto.HealthStatus{Status: "ok"}
}
