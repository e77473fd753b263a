// Package services agrupa los services HTTP V2 por dominio. Es el punto
// donde app/v2 inyecta la infraestructura.
//
//	app/v2 ──► services.New(Deps) ──► controllers.New(Services) ──► router
package services

import (
	"github.com/dropDatabas3/hellocoop/internal/http/v2/services/account"
	"github.com/dropDatabas3/hellocoop/internal/http/v2/services/admin"
	"github.com/dropDatabas3/hellocoop/internal/http/v2/services/health"
	"github.com/dropDatabas3/hellocoop/internal/http/v2/services/user"
)

type Deps struct {
	// ─── Dominios ───
	Account account.Deps // Reconciler
	Admin   admin.Deps   // Settings de Hellō
	User    user.Deps    // Sesión actual

	// ─── Health Check ───
	HealthDeps health.Deps
}

type Services struct {
	Account account.Services
	Admin   admin.Services
	Health  health.Services
	User    user.Services
}

func New(d Deps) *Services {
	return &Services{
		Account: account.NewServices(d.Account),
		Admin:   admin.NewServices(d.Admin),
		Health:  health.NewServices(d.HealthDeps),
		User:    user.NewServices(d.User),
	}
}
