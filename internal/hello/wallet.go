package hello

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

var (
	ErrExchange   = errors.New("hello: code exchange failed")
	ErrIntrospect = errors.New("hello: token introspection failed")
)

// Handshake canje de code e introspección de tokens contra el wallet.
type Handshake interface {
	Exchange(ctx context.Context, cfg Config, code, verifier string) (idToken string, err error)
	Introspect(ctx context.Context, cfg Config, token, nonce string) (Claims, error)
}

// Wallet implementa Handshake con los endpoints OAuth del wallet de Hellō.
type Wallet struct {
	HTTP *http.Client
}

// NewWallet crea un Wallet con timeout acotado.
func NewWallet(timeout time.Duration) *Wallet {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Wallet{HTTP: &http.Client{Timeout: timeout}}
}

func oauthConfig(cfg Config, scope []string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:    cfg.ClientID,
		RedirectURL: cfg.RedirectURI,
		Scopes:      scope,
		Endpoint: oauth2.Endpoint{
			AuthURL:   cfg.WalletURL + "/authorize",
			TokenURL:  cfg.WalletURL + "/oauth/token",
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}

// AuthParams parámetros del redirect de login.
type AuthParams struct {
	State        string
	Nonce        string
	Verifier     string
	Scope        []string
	ProviderHint []string
	LoginHint    string
}

// AuthorizeURL URL de autorización del wallet (code + PKCE S256).
func AuthorizeURL(cfg Config, p AuthParams) string {
	opts := []oauth2.AuthCodeOption{
		oauth2.SetAuthURLParam("nonce", p.Nonce),
		oauth2.SetAuthURLParam("response_mode", "query"),
		oauth2.S256ChallengeOption(p.Verifier),
	}
	if len(p.ProviderHint) > 0 {
		opts = append(opts, oauth2.SetAuthURLParam("provider_hint", strings.Join(p.ProviderHint, " ")))
	}
	if p.LoginHint != "" {
		opts = append(opts, oauth2.SetAuthURLParam("login_hint", p.LoginHint))
	}
	return oauthConfig(cfg, p.Scope).AuthCodeURL(p.State, opts...)
}

func (w *Wallet) client() *http.Client {
	if w.HTTP != nil {
		return w.HTTP
	}
	return http.DefaultClient
}

// Exchange canjea code por tokens y devuelve el id_token.
func (w *Wallet) Exchange(ctx context.Context, cfg Config, code, verifier string) (string, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, w.client())
	tok, err := oauthConfig(cfg, cfg.Scope).Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrExchange, err)
	}
	idToken, _ := tok.Extra("id_token").(string)
	if idToken == "" {
		return "", fmt.Errorf("%w: response without id_token", ErrExchange)
	}
	return idToken, nil
}

// Introspect valida token en el wallet. El token debe estar activo, emitido
// para cfg.ClientID y, si nonce no es vacío, llevar ese nonce.
func (w *Wallet) Introspect(ctx context.Context, cfg Config, token, nonce string) (Claims, error) {
	form := url.Values{"token": {token}, "client_id": {cfg.ClientID}}
	if nonce != "" {
		form.Set("nonce", nonce)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.WalletURL+"/oauth/introspect", strings.NewReader(form.Encode()))
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrIntrospect, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := w.client().Do(req)
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrIntrospect, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Claims{}, fmt.Errorf("%w: read: %v", ErrIntrospect, err)
	}
	if resp.StatusCode != http.StatusOK {
		return Claims{}, fmt.Errorf("%w: status %d", ErrIntrospect, resp.StatusCode)
	}

	var c Claims
	if err := json.Unmarshal(body, &c); err != nil {
		return Claims{}, fmt.Errorf("%w: decode: %v", ErrIntrospect, err)
	}
	switch {
	case !c.Active:
		return Claims{}, fmt.Errorf("%w: token not active", ErrIntrospect)
	case c.Audience != cfg.ClientID:
		return Claims{}, fmt.Errorf("%w: audience mismatch", ErrIntrospect)
	case nonce != "" && c.Nonce != nonce:
		return Claims{}, fmt.Errorf("%w: nonce mismatch", ErrIntrospect)
	}
	return c, nil
}
