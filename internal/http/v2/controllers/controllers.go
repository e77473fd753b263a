// Package controllers agrupa todos los controllers HTTP V2.
// Este es el "composition root" de controllers:
//
//	svcs := services.New(deps)
//	ctrls := controllers.New(svcs, controllers.Deps{...})
//	rt := router.New(router.Deps{Controllers: ctrls, ...})
package controllers

import (
	"github.com/dropDatabas3/hellocoop/internal/hello"
	"github.com/dropDatabas3/hellocoop/internal/http/v2/controllers/admin"
	hc "github.com/dropDatabas3/hellocoop/internal/http/v2/controllers/hello"
	"github.com/dropDatabas3/hellocoop/internal/http/v2/controllers/health"
	"github.com/dropDatabas3/hellocoop/internal/http/v2/controllers/user"
	"github.com/dropDatabas3/hellocoop/internal/http/v2/services"
)

// Deps piezas que no salen de services.
type Deps struct {
	Hello    *hello.Client
	LoginURL user.LoginURLFunc
}

// Controllers agregador raíz.
type Controllers struct {
	Admin  *admin.Controllers
	Hello  *hc.Controllers
	Health *health.Controllers
	User   *user.Controllers
}

// New crea todos los controllers.
func New(s *services.Services, d Deps) *Controllers {
	return &Controllers{
		Admin:  admin.NewControllers(s.Admin),
		Hello:  hc.NewControllers(d.Hello),
		Health: health.NewControllers(s.Health),
		User:   user.NewControllers(s.User, d.LoginURL),
	}
}
