// Package router arma el árbol de rutas V2 sobre chi. El endpoint Hellō
// vive en una ruta configurable (api_route), así que el árbol completo se
// reconstruye cada vez que se guardan los settings y se publica con un swap
// atómico.
package router

import (
	"context"
	"net/http"
	"sync/atomic"

	"github.com/go-chi/chi/v5"

	"github.com/dropDatabas3/hellocoop/internal/events"
	"github.com/dropDatabas3/hellocoop/internal/hello"
	"github.com/dropDatabas3/hellocoop/internal/http/v2/controllers"
	httperrors "github.com/dropDatabas3/hellocoop/internal/http/v2/errors"
	mw "github.com/dropDatabas3/hellocoop/internal/http/v2/middlewares"
	"github.com/dropDatabas3/hellocoop/internal/metrics"
	"github.com/dropDatabas3/hellocoop/internal/observability/logger"
	"github.com/dropDatabas3/hellocoop/internal/settings"
)

// Deps contiene las dependencias del router.
type Deps struct {
	Controllers *controllers.Controllers
	Settings    hello.SettingsSource

	// Sessions liga el request al contexto (session.Bind).
	Sessions mw.Middleware

	Metrics     *metrics.Metrics // nil = sin /metrics
	AdminAPIKey string           // vacío = admin abierto
	FilesRoot   string           // vacío = sin /files
}

// Router http.Handler con el árbol vigente.
type Router struct {
	deps    Deps
	current atomic.Pointer[built]
}

type built struct {
	route   string
	handler http.Handler
}

// New arma el árbol inicial con los settings actuales.
func New(d Deps) *Router {
	rt := &Router{deps: d}
	rt.Rebuild(context.Background())
	return rt
}

// ServeHTTP delega en el árbol vigente.
func (rt *Router) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rt.current.Load().handler.ServeHTTP(w, r)
}

// APIRoute ruta donde está montado el endpoint Hellō.
func (rt *Router) APIRoute() string {
	return rt.current.Load().route
}

// Rebuild reconstruye el árbol. Los requests en curso terminan con el
// árbol anterior.
func (rt *Router) Rebuild(ctx context.Context) {
	route := settings.DefaultAPIRoute
	if rt.deps.Settings != nil {
		if r := rt.deps.Settings.Get(ctx).APIRoute; r != "" {
			route = r
		}
	}
	rt.current.Store(&built{route: route, handler: Build(rt.deps, route)})
}

// Register suscribe el router a los cambios de settings.
func (rt *Router) Register(bus *events.Bus) {
	bus.Subscribe(events.EventSettingsSaved, func(ctx context.Context, _ string, payload any) error {
		if ev, ok := payload.(events.SettingsEvent); ok && ev.APIRoute == rt.APIRoute() {
			return nil
		}
		prev := rt.APIRoute()
		rt.Rebuild(ctx)
		logger.From(ctx).Info("routes rebuilt",
			logger.Component("router"),
			logger.String("api_route", rt.APIRoute()),
			logger.String("previous_route", prev),
		)
		return nil
	})
}

// Build arma el árbol con el endpoint Hellō en apiRoute.
func Build(d Deps, apiRoute string) http.Handler {
	r := chi.NewRouter()
	r.Use(
		mw.WithRecover(),
		mw.WithRequestID(),
		mw.WithLogging(),
		mw.WithMetrics(d.Metrics),
	)
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.WriteError(w, httperrors.ErrNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.WriteError(w, httperrors.ErrMethodNotAllowed)
	})

	c := d.Controllers
	sessions := d.Sessions
	if sessions == nil {
		sessions = func(next http.Handler) http.Handler { return next }
	}

	// ─── infra ───
	RegisterHealthRoutes(r, c)
	if d.Metrics != nil {
		r.Handle("/metrics", d.Metrics.Handler())
	}
	if d.FilesRoot != "" {
		r.With(mw.WithCacheControl("public, max-age=3600")).
			Handle("/files/*", filesHandler(d.FilesRoot))
	}

	// ─── sesión ───
	r.With(mw.WithNoStore(), mw.WithSecurityHeaders(""), sessions).
		Get("/user", c.User.User.Me)

	// ─── admin ───
	RegisterAdminRoutes(r, c, d.AdminAPIKey)

	// ─── Hellō ───
	r.With(mw.WithNoStore(), mw.WithSecurityHeaders(mw.PageContentSecurityPolicy), sessions).
		HandleFunc(apiRoute, c.Hello.Endpoint.Dispatch)

	return r
}

// RegisterHealthRoutes /readyz es público, sin sesión.
func RegisterHealthRoutes(r chi.Router, c *controllers.Controllers) {
	r.Get("/readyz", c.Health.Health.Readyz)
	r.Head("/readyz", c.Health.Health.Readyz)
}

// RegisterAdminRoutes rutas de administración bajo /admin/hello.
func RegisterAdminRoutes(r chi.Router, c *controllers.Controllers, apiKey string) {
	s := c.Admin.Settings
	r.Route("/admin/hello", func(r chi.Router) {
		r.Use(mw.WithNoStore(), mw.WithSecurityHeaders(""), mw.RequireAPIKey(apiKey))
		r.Get("/settings", s.Get)
		r.Put("/settings", s.Update)
		r.Post("/settings/secret", s.RotateSecret)
		r.Get("/quickstart", s.Quickstart)
	})
}
