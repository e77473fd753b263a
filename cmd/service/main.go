package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	appv2 "github.com/dropDatabas3/hellocoop/internal/app/v2"
	"github.com/dropDatabas3/hellocoop/internal/blob"
	"github.com/dropDatabas3/hellocoop/internal/cache"
	"github.com/dropDatabas3/hellocoop/internal/config"
	"github.com/dropDatabas3/hellocoop/internal/events"
	"github.com/dropDatabas3/hellocoop/internal/fetch"
	"github.com/dropDatabas3/hellocoop/internal/http/v2/services/account"
	"github.com/dropDatabas3/hellocoop/internal/metrics"
	"github.com/dropDatabas3/hellocoop/internal/observability/logger"
	"github.com/dropDatabas3/hellocoop/internal/observability/tracing"
	"github.com/dropDatabas3/hellocoop/internal/session"
	"github.com/dropDatabas3/hellocoop/internal/settings"
	"github.com/dropDatabas3/hellocoop/internal/store"

	// Los adapters se registran via init()
	_ "github.com/dropDatabas3/hellocoop/internal/store/adapters/memory"
	_ "github.com/dropDatabas3/hellocoop/internal/store/adapters/pg"
	_ "github.com/dropDatabas3/hellocoop/internal/store/adapters/sqlite"
)

// version se pisa en build con -ldflags "-X main.version=..."
var version = "dev"

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("⚠️  error loading .env: %v", err)
	}

	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatalf("❌ config: %v", err)
	}

	logger.Init(logger.Config{
		Env:         cfg.App.Env,
		Level:       cfg.App.LogLevel,
		ServiceName: appv2.PackageName,
		Version:     version,
	})
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logger.L().Fatal("service stopped with error", logger.Err(err))
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	l := logger.Named("main")

	shutdownTracing, err := tracing.Setup(ctx, tracing.Config{
		Endpoint:    cfg.Observability.OTELEndpoint,
		ServiceName: appv2.PackageName,
		Version:     version,
	})
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(sctx)
	}()

	// Paso 1: directorio de cuentas (aplica migraciones al conectar)
	conn, err := store.OpenAdapter(ctx, store.AdapterConfig{
		Name:         cfg.Storage.Driver,
		DSN:          cfg.Storage.DSN,
		MaxOpenConns: cfg.Storage.MaxOpenConns,
	})
	if err != nil {
		return err
	}
	defer conn.Close()
	l.Info("store ready", logger.String("driver", conn.Name()))

	// Paso 2: cache de sesiones
	kv, err := cache.New(ctx, cache.Config{
		Driver:   cfg.Cache.Driver,
		Addr:     cfg.Cache.Redis.Addr,
		Password: cfg.Cache.Redis.Password,
		DB:       cfg.Cache.Redis.DB,
		Prefix:   cfg.Cache.Redis.Prefix,
	})
	if err != nil {
		return err
	}
	defer kv.Close()

	// Paso 3: bus y settings persistidos
	bus := events.NewBus()
	st, err := settings.Open(cfg.Settings.Path, bus)
	if err != nil {
		return err
	}
	if created, err := st.EnsureSecret(ctx); err != nil {
		return err
	} else if created {
		l.Info("generated hello secret", logger.String("path", cfg.Settings.Path))
	}

	// Paso 4: métricas (opcionales)
	var m *metrics.Metrics
	if !cfg.Observability.MetricsDisabled {
		m, err = metrics.New(prometheus.NewRegistry())
		if err != nil {
			return err
		}
	}

	fetchOpts := []fetch.Option{
		fetch.WithTimeout(cfg.Hello.PictureTimeout),
		fetch.WithMaxBytes(cfg.Hello.PictureMaxBytes),
	}
	if m != nil {
		fetchOpts = append(fetchOpts, fetch.WithObserver(m.ObservePictureFetch))
	}

	policy, err := account.ParsePolicy(cfg.Hello.Policy)
	if err != nil {
		return err
	}

	app, err := appv2.New(appv2.Config{
		BaseURL:       cfg.Server.BaseURL,
		Version:       version,
		Policy:        policy,
		WalletURL:     cfg.Hello.WalletURL,
		LogoURL:       cfg.Hello.LogoURL,
		AdminAPIKey:   cfg.Admin.APIKey,
		FilesRoot:     cfg.Files.Root,
		TrustProxy:    cfg.Server.TrustProxy,
		SecureCookies: cfg.Session.Secure,
		WalletTimeout: cfg.Hello.WalletTimeout,
	}, appv2.Deps{
		Store:    conn,
		Cache:    kv,
		Settings: st,
		Bus:      bus,
		Blobs:    blob.NewFS(cfg.Files.Root, cfg.Files.BaseURL, conn.Files()),
		Fetcher:  fetch.New(fetchOpts...),
		Sessions: session.NewManager(kv, session.Config{
			CookieName: cfg.Session.Cookie,
			TTL:        cfg.Session.TTL,
			Secure:     cfg.Session.Secure,
		}),
		Metrics: m,
	})
	if err != nil {
		return err
	}
	if cfg.Admin.APIKey == "" {
		l.Warn("ADMIN_API_KEY not set: /admin/hello is open (dev only)")
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           app.Handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		l.Info("listening",
			logger.String("addr", cfg.Server.Addr),
			logger.String("api_route", app.Router.APIRoute()),
			logger.String("policy", string(policy)),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		l.Info("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(sctx)
	})
	return g.Wait()
}
