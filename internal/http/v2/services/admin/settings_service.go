// Package admin contiene los services de la API de administración.
package admin

import (
	"context"
	"strings"

	dto "github.com/dropDatabas3/hellocoop/internal/http/v2/dto/admin"
	"github.com/dropDatabas3/hellocoop/internal/hello"
	"github.com/dropDatabas3/hellocoop/internal/observability/logger"
	"github.com/dropDatabas3/hellocoop/internal/settings"
)

// SettingsStore lo implementa *settings.Service.
type SettingsStore interface {
	Get(ctx context.Context) settings.Settings
	Update(ctx context.Context, in settings.UpdateInput) (settings.Settings, error)
	RotateSecret(ctx context.Context) (string, error)
	ApplyClientID(ctx context.Context, clientID string) (settings.Settings, error)
}

// SettingsService operaciones del formulario de settings.
type SettingsService interface {
	// Get devuelve la vista actual. Con clientID no vacío primero lo guarda
	// como app_id (retorno del asistente quickstart).
	Get(ctx context.Context, clientID string) (dto.SettingsResponse, error)
	Update(ctx context.Context, req dto.UpdateSettingsRequest) (dto.SettingsResponse, error)
	RotateSecret(ctx context.Context) (dto.SecretResponse, error)
	Quickstart(ctx context.Context) dto.QuickstartResponse
}

// Deps dependencias del dominio admin.
type Deps struct {
	Settings SettingsStore
	BaseURL  string // origen público del servicio
	LogoURL  string // image_uri de quickstart
}

// Services agrupa los services admin.
type Services struct {
	Settings SettingsService
}

// NewServices crea el agregador.
func NewServices(d Deps) Services {
	return Services{Settings: NewSettingsService(d)}
}

type settingsService struct {
	deps Deps
}

// NewSettingsService crea el service.
func NewSettingsService(d Deps) SettingsService {
	d.BaseURL = strings.TrimRight(d.BaseURL, "/")
	return &settingsService{deps: d}
}

func (s *settingsService) Get(ctx context.Context, clientID string) (dto.SettingsResponse, error) {
	if clientID = strings.TrimSpace(clientID); clientID != "" {
		cur, err := s.deps.Settings.ApplyClientID(ctx, clientID)
		if err != nil {
			return dto.SettingsResponse{}, err
		}
		logger.From(ctx).Info("app_id saved from quickstart", logger.Layer("service"), logger.ClientID(clientID))
		return s.view(cur), nil
	}
	return s.view(s.deps.Settings.Get(ctx)), nil
}

func (s *settingsService) Update(ctx context.Context, req dto.UpdateSettingsRequest) (dto.SettingsResponse, error) {
	cur, err := s.deps.Settings.Update(ctx, settings.UpdateInput{
		APIRoute:     req.APIRoute,
		AppID:        req.AppID,
		ProviderHint: req.ProviderHint,
		Scope:        req.Scope,
	})
	if err != nil {
		return dto.SettingsResponse{}, err
	}
	return s.view(cur), nil
}

func (s *settingsService) RotateSecret(ctx context.Context) (dto.SecretResponse, error) {
	secret, err := s.deps.Settings.RotateSecret(ctx)
	if err != nil {
		return dto.SecretResponse{}, err
	}
	logger.From(ctx).Info("hellocoop secret rotated", logger.Layer("service"), logger.Op("RotateSecret"))
	return dto.SecretResponse{Secret: secret}, nil
}

func (s *settingsService) Quickstart(ctx context.Context) dto.QuickstartResponse {
	cur := s.deps.Settings.Get(ctx)
	return dto.QuickstartResponse{URL: settings.QuickstartURL(
		s.deps.BaseURL+"/admin/hello/settings",
		s.deps.LogoURL,
		s.deps.BaseURL+cur.APIRoute,
	)}
}

func (s *settingsService) view(cur settings.Settings) dto.SettingsResponse {
	endpoint := s.deps.BaseURL + cur.APIRoute
	return dto.SettingsResponse{
		APIRoute:     cur.APIRoute,
		AppID:        cur.AppID,
		HasSecret:    cur.Secret != "",
		ProviderHint: cur.ProviderHint,
		Scope:        cur.Scope,
		RedirectURI:  endpoint,
		LoginURL:     hello.LoginURL(endpoint, cur.Scope, cur.ProviderHint),
	}
}
