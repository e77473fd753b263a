package hello

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/dropDatabas3/hellocoop/internal/http/v2/helpers"
	"github.com/dropDatabas3/hellocoop/internal/observability/logger"
)

// ErrorMapper traduce errores del hook a (status, código) para la página
// de error.
type ErrorMapper func(err error) (status int, code string)

// Client es el dispatcher del endpoint api_route.
type Client struct {
	Factory   *ConfigFactory
	Handshake Handshake
	Commands  *CommandHandler
	Verifier  CommandVerifier
	Pages     PageRenderer
	Auth      AuthSource
	MapError  ErrorMapper
	// SecureCookies marca la cookie de estado como Secure.
	SecureCookies bool

	now func() time.Time
}

func (c *Client) pages() PageRenderer {
	if c.Pages != nil {
		return c.Pages
	}
	return HTMLPages{}
}

func (c *Client) clock() time.Time {
	if c.now != nil {
		return c.now()
	}
	return time.Now()
}

// Route despacha el request según op y los parámetros del callback.
func (c *Client) Route(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		c.errorPage(w, r, http.StatusBadRequest, "invalid_request", "malformed request", "")
		return
	}
	cfg := c.Factory.Build(r.Context(), r)
	params := r.Form

	if r.Method == http.MethodPost {
		if token := r.PostForm.Get("command_token"); token != "" {
			c.handleCommand(w, r, cfg, token)
			return
		}
	}

	switch op := params.Get("op"); op {
	case "login":
		c.handleLogin(w, r, cfg, params)
	case "auth", "getAuth":
		c.handleAuth(w, r)
	case "logout":
		c.handleLogout(w, r, cfg, params)
	case "":
		switch {
		case params.Has("error"):
			c.errorPage(w, r, http.StatusBadRequest, params.Get("error"), params.Get("error_description"), params.Get("error_uri"))
		case params.Has("code"):
			c.handleCallback(w, r, cfg, params)
		case params.Has("wildcard_console"):
			c.handleWildcardConsole(w, r, cfg, params)
		case len(params) == 0:
			c.writePage(w, r, http.StatusOK, func() ([]byte, error) { return c.pages().RedirectBouncePage() })
		default:
			c.errorPage(w, r, http.StatusBadRequest, "invalid_request", "unrecognized parameters", "")
		}
	default:
		c.errorPage(w, r, http.StatusBadRequest, "invalid_request", "unknown op: "+op, "")
	}
}

// ─── login ───

func (c *Client) handleLogin(w http.ResponseWriter, r *http.Request, cfg Config, params url.Values) {
	if cfg.ClientID == "" {
		c.errorPage(w, r, http.StatusInternalServerError, "server_error", "app_id is not configured", "")
		return
	}

	stateID, err1 := randomToken(16)
	nonce, err2 := randomToken(16)
	if err := errors.Join(err1, err2); err != nil {
		c.errorPage(w, r, http.StatusInternalServerError, "server_error", "random source unavailable", "")
		return
	}
	verifier := oauth2.GenerateVerifier()

	st := &loginState{
		Nonce:       nonce,
		Verifier:    verifier,
		TargetURI:   SafeTarget(params.Get("target_uri")),
		RedirectURI: cfg.RedirectURI,
	}
	st.ID = stateID
	now := c.clock()
	signed, err := signState(cfg.Secret, st, now)
	if err != nil {
		logger.From(r.Context()).Error("hello login state", logger.Layer("hello"), logger.Err(err))
		c.errorPage(w, r, http.StatusInternalServerError, "server_error", "login state unavailable", "")
		return
	}
	helpers.SetCookie(w, StateCookie, signed, now.Add(StateTTL), c.SecureCookies)

	scope := cfg.Scope
	if s := strings.Fields(params.Get("scope")); len(s) > 0 {
		scope = s
	}
	hints := cfg.ProviderHint
	if h := strings.Fields(params.Get("provider_hint")); len(h) > 0 {
		hints = h
	}
	helpers.Redirect(w, AuthorizeURL(cfg, AuthParams{
		State:        stateID,
		Nonce:        nonce,
		Verifier:     verifier,
		Scope:        scope,
		ProviderHint: hints,
		LoginHint:    params.Get("login_hint"),
	}))
}

// ─── callback ───

func (c *Client) handleCallback(w http.ResponseWriter, r *http.Request, cfg Config, params url.Values) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("hello"), logger.Op("callback"))

	raw := helpers.CookieValue(r, StateCookie)
	if raw == "" {
		if params.Get("same_site") == "" {
			// El navegador pudo no enviar la cookie Lax en el redirect cross-site.
			c.writePage(w, r, http.StatusOK, func() ([]byte, error) { return c.pages().SameSitePage() })
			return
		}
		c.errorPage(w, r, http.StatusBadRequest, "invalid_request", "login state cookie missing", "")
		return
	}

	st, err := parseState(cfg.Secret, raw, c.clock())
	if err != nil || st.ID != params.Get("state") {
		helpers.DeleteCookie(w, StateCookie)
		log.Warn("hello callback state rejected", logger.Err(err))
		c.errorPage(w, r, http.StatusBadRequest, "invalid_request", "login state mismatch", "")
		return
	}
	helpers.DeleteCookie(w, StateCookie)

	cfg.RedirectURI = st.RedirectURI
	idToken, err := c.Handshake.Exchange(ctx, cfg, params.Get("code"), st.Verifier)
	if err != nil {
		log.Warn("hello code exchange failed", logger.Err(err))
		c.errorPage(w, r, http.StatusBadGateway, "access_denied", "code exchange failed", "")
		return
	}
	claims, err := c.Handshake.Introspect(ctx, cfg, idToken, st.Nonce)
	if err != nil {
		log.Warn("hello introspection failed", logger.Err(err))
		c.errorPage(w, r, http.StatusBadGateway, "access_denied", "token validation failed", "")
		return
	}

	if cfg.Hook != nil {
		if _, err := cfg.Hook.OnLogin(ctx, claims.Payload()); err != nil {
			status, code := c.mapError(err)
			log.Error("hello login hook failed", logger.Subject(claims.Subject), logger.Err(err), zap.Int("status", status))
			c.errorPage(w, r, status, code, "", "")
			return
		}
	}
	helpers.Redirect(w, st.TargetURI)
}

// ─── auth / logout ───

func (c *Client) handleAuth(w http.ResponseWriter, r *http.Request) {
	status := AuthStatus{}
	if c.Auth != nil {
		s, err := c.Auth.Auth(r.Context())
		if err != nil {
			logger.From(r.Context()).Warn("hello auth lookup failed", logger.Layer("hello"), logger.Err(err))
		} else {
			status = s
		}
	}
	w.Header().Set("Cache-Control", "no-store")
	helpers.WriteJSON(w, http.StatusOK, status)
}

func (c *Client) handleLogout(w http.ResponseWriter, r *http.Request, cfg Config, params url.Values) {
	if cfg.Hook != nil {
		if err := cfg.Hook.OnLogout(r.Context()); err != nil {
			status, code := c.mapError(err)
			c.errorPage(w, r, status, code, "logout failed", "")
			return
		}
	}
	helpers.Redirect(w, SafeTarget(params.Get("target_uri")))
}

// ─── wildcard console / commands ───

func (c *Client) handleWildcardConsole(w http.ResponseWriter, r *http.Request, cfg Config, params url.Values) {
	c.writePage(w, r, http.StatusOK, func() ([]byte, error) {
		return c.pages().WildcardConsolePage(params.Get("uri"), SafeTarget(params.Get("target_uri")), params.Get("app_name"), params.Get("redirect_uri"))
	})
}

func (c *Client) handleCommand(w http.ResponseWriter, r *http.Request, cfg Config, token string) {
	ctx := r.Context()
	if c.Verifier == nil || c.Commands == nil {
		helpers.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "unsupported_command"})
		return
	}
	claims, err := c.Verifier.VerifyCommand(ctx, cfg, token)
	if err != nil {
		logger.From(ctx).Warn("hello command token rejected", logger.Layer("hello"), logger.Err(err))
		helpers.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_request"})
		return
	}
	resp, err := c.Commands.Handle(ctx, cfg, claims)
	if errors.Is(err, ErrUnsupportedCommand) {
		helpers.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "unsupported_command"})
		return
	}
	if err != nil {
		helpers.WriteJSON(w, http.StatusInternalServerError, map[string]string{"error": "server_error"})
		return
	}
	helpers.WriteJSON(w, http.StatusOK, resp)
}

// ─── helpers ───

func (c *Client) mapError(err error) (int, string) {
	if c.MapError != nil {
		return c.MapError(err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout, "temporarily_unavailable"
	}
	return http.StatusInternalServerError, "server_error"
}

func (c *Client) errorPage(w http.ResponseWriter, r *http.Request, status int, code, desc, uri string) {
	c.writePage(w, r, status, func() ([]byte, error) { return c.pages().ErrorPage(code, desc, uri, "/") })
}

func (c *Client) writePage(w http.ResponseWriter, r *http.Request, status int, fn func() ([]byte, error)) {
	body, err := fn()
	if err != nil {
		logger.From(r.Context()).Error("hello page render failed", logger.Layer("hello"), logger.Err(err))
		helpers.WriteText(w, http.StatusInternalServerError, "internal error")
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	helpers.WriteHTML(w, status, body)
}

// SafeTarget acepta solo paths relativos al sitio; cualquier otra cosa es "/".
func SafeTarget(target string) string {
	target = strings.TrimSpace(target)
	if target == "" || !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.HasPrefix(target, "/\\") {
		return "/"
	}
	u, err := url.Parse(target)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return "/"
	}
	return target
}
