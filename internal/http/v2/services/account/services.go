// Package account reconcilia la identidad que entrega Hellō con el
// directorio local de cuentas: load-or-create, merge de campos, ingesta de
// la foto de perfil, persistencia, sesión y notificación.
package account

import (
	"time"

	"github.com/dropDatabas3/hellocoop/internal/blob"
	"github.com/dropDatabas3/hellocoop/internal/domain/repository"
	"github.com/dropDatabas3/hellocoop/internal/events"
	"github.com/dropDatabas3/hellocoop/internal/fetch"
	"github.com/dropDatabas3/hellocoop/internal/metrics"
)

// Deps dependencias del dominio account.
type Deps struct {
	Accounts repository.AccountRepository
	Blobs    blob.Writer
	Fetcher  fetch.Fetcher
	Session  SessionFinalizer
	Events   events.Notifier // nil = events.Nop
	Metrics  *metrics.Metrics

	Policy Policy // "" = PolicySubject

	// Tests
	Now   func() time.Time
	NewID func() string
}

// Services agrupa los services del dominio.
type Services struct {
	Reconciler *Reconciler
}

// NewServices crea el aggregator.
func NewServices(d Deps) Services {
	return Services{Reconciler: NewReconciler(d)}
}
