// Package settings persiste la configuración editable de la integración
// Hellō (ruta del endpoint, app id, secreto, provider hints, scopes).
package settings

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"os"
	"regexp"
	"slices"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/dropDatabas3/hellocoop/internal/events"
	"github.com/dropDatabas3/hellocoop/internal/observability/logger"
	"github.com/dropDatabas3/hellocoop/internal/util/atomicwrite"
)

const (
	DefaultAPIRoute = "/api/hellocoop"
	QuickstartBase  = "https://quickstart.hello.coop/"
)

var (
	DefaultProviderHint = []string{"github", "google", "twitter"}
	DefaultScope        = []string{"openid", "name", "email", "picture"}

	// KnownProviderHints valores aceptados por el wallet.
	KnownProviderHints = []string{
		"apple", "discord", "facebook", "github", "gitlab", "google", "twitch",
		"twitter", "tumblr", "mastodon", "microsoft", "line", "wordpress",
		"yahoo", "phone", "ethereum", "qrcode", "apple--", "microsoft--",
	}

	// ReservedPrefixes rutas propias del servicio que api_route no puede pisar.
	ReservedPrefixes = []string{"/admin", "/metrics", "/readyz", "/files", "/user"}
)

var (
	ErrInvalid = errors.New("settings: invalid input")
)

// Settings estado persistido.
type Settings struct {
	APIRoute     string   `yaml:"api_route" json:"api_route"`
	AppID        string   `yaml:"app_id" json:"app_id"`
	Secret       string   `yaml:"secret" json:"-"`
	ProviderHint []string `yaml:"provider_hint" json:"provider_hint"`
	Scope        []string `yaml:"scope" json:"scope"`
}

// Defaults devuelve los settings de fábrica (sin app id ni secreto).
func Defaults() Settings {
	return Settings{
		APIRoute:     DefaultAPIRoute,
		ProviderHint: slices.Clone(DefaultProviderHint),
		Scope:        slices.Clone(DefaultScope),
	}
}

func (s Settings) clone() Settings {
	s.ProviderHint = slices.Clone(s.ProviderHint)
	s.Scope = slices.Clone(s.Scope)
	return s
}

// UpdateInput campos editables desde el formulario admin.
// Un slice nil conserva el valor actual.
type UpdateInput struct {
	APIRoute     string   `json:"api_route"`
	AppID        string   `json:"app_id"`
	ProviderHint []string `json:"provider_hint"`
	Scope        []string `json:"scope"`
}

// Service lee y escribe los settings. Seguro para uso concurrente.
type Service struct {
	path   string
	events events.Notifier

	mu  sync.RWMutex
	cur Settings
}

// Open carga path (si existe) sobre los defaults.
func Open(path string, bus events.Notifier) (*Service, error) {
	if bus == nil {
		bus = events.Nop
	}
	s := &Service{path: path, events: bus, cur: Defaults()}

	b, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return s, nil
	case err != nil:
		return nil, fmt.Errorf("settings: read %s: %w", path, err)
	}
	var onDisk Settings
	if err := yaml.Unmarshal(b, &onDisk); err != nil {
		return nil, fmt.Errorf("settings: parse %s: %w", path, err)
	}
	if onDisk.APIRoute != "" {
		route, err := NormalizeRoute(onDisk.APIRoute)
		if err != nil {
			return nil, fmt.Errorf("settings: %s: %w", path, err)
		}
		s.cur.APIRoute = route
	}
	s.cur.AppID = onDisk.AppID
	s.cur.Secret = onDisk.Secret
	if onDisk.ProviderHint != nil {
		s.cur.ProviderHint = onDisk.ProviderHint
	}
	if len(onDisk.Scope) > 0 {
		s.cur.Scope = onDisk.Scope
	}
	return s, nil
}

// Get devuelve una copia de los settings actuales.
func (s *Service) Get(context.Context) Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur.clone()
}

// Update valida y guarda in.
func (s *Service) Update(ctx context.Context, in UpdateInput) (Settings, error) {
	route, err := NormalizeRoute(in.APIRoute)
	if err != nil {
		return Settings{}, err
	}
	appID := strings.TrimSpace(in.AppID)
	if appID == "" {
		return Settings{}, fmt.Errorf("%w: app_id is required", ErrInvalid)
	}

	return s.mutate(ctx, func(next *Settings) error {
		next.APIRoute = route
		next.AppID = appID
		if in.ProviderHint != nil {
			hints, err := cleanHints(in.ProviderHint)
			if err != nil {
				return err
			}
			next.ProviderHint = hints
		}
		if in.Scope != nil {
			scope := compact(in.Scope)
			if !slices.Contains(scope, "openid") {
				scope = append([]string{"openid"}, scope...)
			}
			next.Scope = scope
		}
		return nil
	})
}

// RotateSecret genera un secreto nuevo (hex de 32 bytes), lo guarda y lo
// devuelve.
func (s *Service) RotateSecret(ctx context.Context) (string, error) {
	secret, err := NewSecret()
	if err != nil {
		return "", err
	}
	if _, err := s.mutate(ctx, func(next *Settings) error {
		next.Secret = secret
		return nil
	}); err != nil {
		return "", err
	}
	return secret, nil
}

// ApplyClientID guarda el client_id devuelto por quickstart.
func (s *Service) ApplyClientID(ctx context.Context, clientID string) (Settings, error) {
	clientID = strings.TrimSpace(clientID)
	if clientID == "" {
		return Settings{}, fmt.Errorf("%w: client_id is empty", ErrInvalid)
	}
	return s.mutate(ctx, func(next *Settings) error {
		next.AppID = clientID
		return nil
	})
}

// EnsureSecret genera un secreto si todavía no hay uno. Devuelve true si
// lo creó.
func (s *Service) EnsureSecret(ctx context.Context) (bool, error) {
	if s.Get(ctx).Secret != "" {
		return false, nil
	}
	_, err := s.RotateSecret(ctx)
	return err == nil, err
}

func (s *Service) mutate(ctx context.Context, fn func(*Settings) error) (Settings, error) {
	s.mu.Lock()
	prev := s.cur
	next := s.cur.clone()
	if err := fn(&next); err != nil {
		s.mu.Unlock()
		return Settings{}, err
	}
	if err := s.save(next); err != nil {
		s.mu.Unlock()
		return Settings{}, err
	}
	s.cur = next
	out := next.clone()
	s.mu.Unlock()

	logger.From(ctx).Info("hellocoop settings saved",
		logger.Component("settings"), logger.String("api_route", out.APIRoute), logger.ClientID(out.AppID))
	s.events.Notify(ctx, events.EventSettingsSaved, events.SettingsEvent{
		APIRoute:      out.APIRoute,
		PreviousRoute: prev.APIRoute,
	})
	return out, nil
}

func (s *Service) save(v Settings) error {
	b, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("settings: marshal: %w", err)
	}
	if err := atomicwrite.WriteFile(s.path, b, 0o600); err != nil {
		return fmt.Errorf("settings: write %s: %w", s.path, err)
	}
	return nil
}

// NewSecret hex de 32 bytes aleatorios.
func NewSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("settings: random: %w", err)
	}
	return hex.EncodeToString(b), nil
}

var routePattern = regexp.MustCompile(`^(/[A-Za-z0-9._~-]+)+$`)

// NormalizeRoute valida api_route: absoluta, solo segmentos literales y
// fuera de las rutas reservadas. Quita la barra final.
func NormalizeRoute(route string) (string, error) {
	route = strings.TrimSpace(route)
	if route == "" {
		return "", fmt.Errorf("%w: api_route is required", ErrInvalid)
	}
	if !strings.HasPrefix(route, "/") || strings.HasPrefix(route, "//") {
		return "", fmt.Errorf("%w: api_route must start with a single /", ErrInvalid)
	}
	if len(route) > 1 {
		route = strings.TrimRight(route, "/")
	}
	if route == "/" {
		return "", fmt.Errorf("%w: api_route cannot be /", ErrInvalid)
	}
	// Solo segmentos literales: {, }, * o ? serían patrones para el router.
	if !routePattern.MatchString(route) {
		return "", fmt.Errorf("%w: api_route must be a plain path", ErrInvalid)
	}
	for _, seg := range strings.Split(route[1:], "/") {
		if seg == "." || seg == ".." {
			return "", fmt.Errorf("%w: api_route must be a plain path", ErrInvalid)
		}
	}
	for _, p := range ReservedPrefixes {
		if route == p || strings.HasPrefix(route, p+"/") {
			return "", fmt.Errorf("%w: api_route %s collides with %s", ErrInvalid, route, p)
		}
	}
	return route, nil
}

func cleanHints(in []string) ([]string, error) {
	out := compact(in)
	for _, h := range out {
		if !slices.Contains(KnownProviderHints, h) {
			return nil, fmt.Errorf("%w: unknown provider hint %q", ErrInvalid, h)
		}
	}
	return out, nil
}

// compact recorta, descarta vacíos y duplicados preservando el orden.
func compact(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" || slices.Contains(out, v) {
			continue
		}
		out = append(out, v)
	}
	return out
}

// QuickstartURL arma la URL del asistente de alta de Hellō.
func QuickstartURL(responseURI, imageURI, redirectURI string) string {
	return fmt.Sprintf("%s?response_uri=%s&image_uri=%s&redirect_uri=%s",
		QuickstartBase,
		url.QueryEscape(responseURI),
		url.QueryEscape(imageURI),
		url.QueryEscape(redirectURI),
	)
}
