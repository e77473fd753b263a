// Package appv2 cablea services, controllers y router V2 a partir de la
// infraestructura ya abierta por cmd/service.
package appv2

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dropDatabas3/hellocoop/internal/audit"
	"github.com/dropDatabas3/hellocoop/internal/blob"
	"github.com/dropDatabas3/hellocoop/internal/cache"
	"github.com/dropDatabas3/hellocoop/internal/events"
	"github.com/dropDatabas3/hellocoop/internal/fetch"
	"github.com/dropDatabas3/hellocoop/internal/hello"
	"github.com/dropDatabas3/hellocoop/internal/http/v2/controllers"
	httperrors "github.com/dropDatabas3/hellocoop/internal/http/v2/errors"
	"github.com/dropDatabas3/hellocoop/internal/http/v2/router"
	"github.com/dropDatabas3/hellocoop/internal/http/v2/services"
	"github.com/dropDatabas3/hellocoop/internal/http/v2/services/account"
	adminsvc "github.com/dropDatabas3/hellocoop/internal/http/v2/services/admin"
	healthsvc "github.com/dropDatabas3/hellocoop/internal/http/v2/services/health"
	usersvc "github.com/dropDatabas3/hellocoop/internal/http/v2/services/user"
	"github.com/dropDatabas3/hellocoop/internal/metrics"
	"github.com/dropDatabas3/hellocoop/internal/session"
	"github.com/dropDatabas3/hellocoop/internal/settings"
	"github.com/dropDatabas3/hellocoop/internal/store"
)

// PackageName nombre reportado por el comando metadata.
const PackageName = "hellocoop"

// Config holds configuration for the V2 app.
type Config struct {
	BaseURL     string
	Version     string
	Policy      account.Policy
	WalletURL   string
	LogoURL     string
	AdminAPIKey string
	FilesRoot   string

	// TrustProxy respeta X-Forwarded-* al armar el redirect_uri.
	TrustProxy    bool
	SecureCookies bool
	// Timeout de exchange/introspección contra el wallet.
	WalletTimeout time.Duration
}

// Deps holds raw dependencies required to build the app.
type Deps struct {
	Store    store.Connection
	Cache    cache.Client
	Settings *settings.Service
	Bus      *events.Bus
	Blobs    *blob.FS
	Fetcher  fetch.Fetcher
	Sessions *session.Manager
	Metrics  *metrics.Metrics // opcional

	// Opcionales, para tests.
	Handshake hello.Handshake
	Verifier  hello.CommandVerifier
	Pages     hello.PageRenderer
}

// App represents the wired V2 application.
type App struct {
	Handler    http.Handler
	Router     *router.Router
	Reconciler *account.Reconciler
	Hello      *hello.Client
}

// New creates and wires the V2 application.
func New(cfg Config, deps Deps) (*App, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")

	// 1. Build Services
	svcs := services.New(services.Deps{
		Account: account.Deps{
			Accounts: deps.Store.Accounts(),
			Blobs:    deps.Blobs,
			Fetcher:  deps.Fetcher,
			Session:  deps.Sessions,
			Events:   deps.Bus,
			Metrics:  deps.Metrics,
			Policy:   cfg.Policy,
		},
		Admin: adminsvc.Deps{
			Settings: deps.Settings,
			BaseURL:  baseURL,
			LogoURL:  cfg.LogoURL,
		},
		User: usersvc.Deps{
			Sessions: deps.Sessions,
			Accounts: deps.Store.Accounts(),
			Files:    deps.Store.Files(),
			Pictures: deps.Blobs,
		},
		HealthDeps: healthsvc.Deps{
			Store:   deps.Store,
			Cache:   deps.Cache,
			Version: cfg.Version,
		},
	})

	// 2. Hellō client
	wallet := hello.NewWallet(cfg.WalletTimeout)
	handshake, verifier := deps.Handshake, deps.Verifier
	if handshake == nil {
		handshake = wallet
	}
	if verifier == nil {
		verifier = wallet
	}
	client := &hello.Client{
		Factory: &hello.ConfigFactory{
			Settings:   deps.Settings,
			Hook:       svcs.Account.Reconciler,
			WalletURL:  cfg.WalletURL,
			TrustProxy: cfg.TrustProxy,
		},
		Handshake:     handshake,
		Commands:      &hello.CommandHandler{PackageName: PackageName, PackageVersion: cfg.Version},
		Verifier:      verifier,
		Pages:         deps.Pages,
		Auth:          svcs.User.User,
		MapError:      httperrors.HelloMapper,
		SecureCookies: cfg.SecureCookies,
	}

	// 3. Build Controllers
	ctrls := controllers.New(svcs, controllers.Deps{
		Hello: client,
		LoginURL: func(ctx context.Context) string {
			cur := deps.Settings.Get(ctx)
			return hello.LoginURL(baseURL+cur.APIRoute, cur.Scope, cur.ProviderHint)
		},
	})

	// 4. Register Routes (se reconstruyen al guardar settings)
	rt := router.New(router.Deps{
		Controllers: ctrls,
		Settings:    deps.Settings,
		Sessions:    session.Bind,
		Metrics:     deps.Metrics,
		AdminAPIKey: cfg.AdminAPIKey,
		FilesRoot:   cfg.FilesRoot,
	})
	rt.Register(deps.Bus)
	audit.New(nil).Register(deps.Bus)

	return &App{
		Handler:    rt,
		Router:     rt,
		Reconciler: svcs.Account.Reconciler,
		Hello:      client,
	}, nil
}

func (d Deps) validate() error {
	var missing []string
	if d.Store == nil {
		missing = append(missing, "store")
	}
	if d.Cache == nil {
		missing = append(missing, "cache")
	}
	if d.Settings == nil {
		missing = append(missing, "settings")
	}
	if d.Bus == nil {
		missing = append(missing, "bus")
	}
	if d.Blobs == nil {
		missing = append(missing, "blobs")
	}
	if d.Fetcher == nil {
		missing = append(missing, "fetcher")
	}
	if d.Sessions == nil {
		missing = append(missing, "sessions")
	}
	if len(missing) > 0 {
		return errors.New("appv2: missing deps: " + strings.Join(missing, ", "))
	}
	return nil
}
