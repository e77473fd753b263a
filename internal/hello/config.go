package hello

import (
	"context"
	"net"
	"net/http"
	"slices"
	"strings"

	"github.com/dropDatabas3/hellocoop/internal/settings"
)

const DefaultWalletURL = "https://wallet.hello.coop"

// Config configuración por request del endpoint.
type Config struct {
	APIRoute       string
	AuthAPIRoute   string
	LoginAPIRoute  string
	LogoutAPIRoute string
	SameSiteStrict bool

	ClientID    string
	RedirectURI string
	Host        string
	Secret      string
	WalletURL   string

	Scope        []string
	ProviderHint []string

	Hook SessionHook
}

// SettingsSource lectura de settings (implementado por settings.Service).
type SettingsSource interface {
	Get(ctx context.Context) settings.Settings
}

// ConfigFactory arma Config a partir de los settings vigentes y el request.
type ConfigFactory struct {
	Settings  SettingsSource
	Hook      SessionHook
	WalletURL string
	// TrustProxy respeta X-Forwarded-Proto/Host al armar RedirectURI.
	TrustProxy bool
}

// Build devuelve la Config para r.
func (f *ConfigFactory) Build(ctx context.Context, r *http.Request) Config {
	s := f.Settings.Get(ctx)
	route := s.APIRoute
	if route == "" {
		route = settings.DefaultAPIRoute
	}
	wallet := strings.TrimRight(f.WalletURL, "/")
	if wallet == "" {
		wallet = DefaultWalletURL
	}

	scheme, host := f.origin(r)
	return Config{
		APIRoute:       route,
		AuthAPIRoute:   route + "?op=auth",
		LoginAPIRoute:  route + "?op=login",
		LogoutAPIRoute: route + "?op=logout",
		SameSiteStrict: false,
		ClientID:       s.AppID,
		RedirectURI:    scheme + "://" + host + route,
		Host:           host,
		Secret:         s.Secret,
		WalletURL:      wallet,
		Scope:          slices.Clone(s.Scope),
		ProviderHint:   slices.Clone(s.ProviderHint),
		Hook:           f.Hook,
	}
}

func (f *ConfigFactory) origin(r *http.Request) (scheme, host string) {
	scheme, host = "http", r.Host
	if r.TLS != nil {
		scheme = "https"
	}
	if f.TrustProxy {
		if p := r.Header.Get("X-Forwarded-Proto"); p == "https" || p == "http" {
			scheme = p
		}
		if h := r.Header.Get("X-Forwarded-Host"); h != "" && validHost(h) {
			host = h
		}
	}
	return scheme, host
}

func validHost(h string) bool {
	if strings.ContainsAny(h, "/\\@ ,") {
		return false
	}
	if hostOnly, _, err := net.SplitHostPort(h); err == nil {
		return hostOnly != ""
	}
	return true
}
