package hello

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// CommandMetadata único comando soportado.
const CommandMetadata = "metadata"

var ErrUnsupportedCommand = errors.New("hello: unsupported command")

// CommandClaims contenido de un command_token.
type CommandClaims struct {
	Issuer   string `json:"iss"`
	Subject  string `json:"sub"`
	Audience string `json:"aud"`
	Command  string `json:"command"`
	Tenant   string `json:"tenant,omitempty"`
}

// CommandVerifier valida un command_token.
type CommandVerifier interface {
	VerifyCommand(ctx context.Context, cfg Config, token string) (CommandClaims, error)
}

// VerifyCommand introspecta el command_token en el wallet.
func (w *Wallet) VerifyCommand(ctx context.Context, cfg Config, token string) (CommandClaims, error) {
	form := url.Values{"token": {token}, "client_id": {cfg.ClientID}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.WalletURL+"/oauth/introspect", strings.NewReader(form.Encode()))
	if err != nil {
		return CommandClaims{}, fmt.Errorf("%w: %v", ErrIntrospect, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := w.client().Do(req)
	if err != nil {
		return CommandClaims{}, fmt.Errorf("%w: %v", ErrIntrospect, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return CommandClaims{}, fmt.Errorf("%w: status %d", ErrIntrospect, resp.StatusCode)
	}

	var body struct {
		CommandClaims
		Active bool `json:"active"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return CommandClaims{}, fmt.Errorf("%w: decode: %v", ErrIntrospect, err)
	}
	if !body.Active {
		return CommandClaims{}, fmt.Errorf("%w: command token not active", ErrIntrospect)
	}
	return body.CommandClaims, nil
}

// MetadataResponse respuesta del comando metadata.
type MetadataResponse struct {
	Context           MetadataContext `json:"context"`
	CommandsURI       string          `json:"commands_uri"`
	CommandsSupported []string        `json:"commands_supported"`
	CommandsTTL       int             `json:"commands_ttl"`
	ClientID          string          `json:"client_id"`
}

type MetadataContext struct {
	PackageName    string  `json:"package_name"`
	PackageVersion string  `json:"package_version"`
	Issuer         string  `json:"iss"`
	Tenant         *string `json:"tenant"`
}

// CommandHandler responde comandos del wallet.
type CommandHandler struct {
	PackageName    string
	PackageVersion string
}

// Handle devuelve la respuesta JSON-serializable para claims.
func (h *CommandHandler) Handle(_ context.Context, cfg Config, claims CommandClaims) (any, error) {
	if claims.Command != CommandMetadata {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedCommand, claims.Command)
	}
	var tenant *string
	if claims.Tenant != "" {
		tenant = &claims.Tenant
	}
	return MetadataResponse{
		Context: MetadataContext{
			PackageName:    h.PackageName,
			PackageVersion: h.PackageVersion,
			Issuer:         claims.Issuer,
			Tenant:         tenant,
		},
		CommandsURI:       orUnknown(cfg.RedirectURI),
		CommandsSupported: []string{CommandMetadata},
		CommandsTTL:       0,
		ClientID:          orUnknown(cfg.ClientID),
	}, nil
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
