package hello

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/hellocoop/internal/settings"
)

func TestConfigFactory_Build(t *testing.T) {
	s := settings.Defaults()
	s.AppID = "app_1"
	s.Secret = "shh"
	f := &ConfigFactory{Settings: staticSettings(s)}

	req := httptest.NewRequest(http.MethodGet, "http://site.test/x", nil)
	cfg := f.Build(context.Background(), req)
	require.Equal(t, "/api/hellocoop", cfg.APIRoute)
	require.Equal(t, "/api/hellocoop?op=auth", cfg.AuthAPIRoute)
	require.Equal(t, "/api/hellocoop?op=login", cfg.LoginAPIRoute)
	require.Equal(t, "/api/hellocoop?op=logout", cfg.LogoutAPIRoute)
	require.False(t, cfg.SameSiteStrict)
	require.Equal(t, "http://site.test/api/hellocoop", cfg.RedirectURI)
	require.Equal(t, "site.test", cfg.Host)
	require.Equal(t, DefaultWalletURL, cfg.WalletURL)

	req.Header.Set("X-Forwarded-Proto", "https")
	req.Header.Set("X-Forwarded-Host", "public.test")
	require.Equal(t, "http://site.test/api/hellocoop", f.Build(context.Background(), req).RedirectURI)

	f.TrustProxy = true
	require.Equal(t, "https://public.test/api/hellocoop", f.Build(context.Background(), req).RedirectURI)
}

func TestLoginURL(t *testing.T) {
	got := LoginURL("/api/hellocoop", []string{"openid", "email"}, []string{"github", "google"})
	require.Equal(t, "/api/hellocoop?op=login&target_uri=/user&scope=openid+email&provider_hint=github+google", got)
}

func TestState_RoundTrip(t *testing.T) {
	now := time.Now()
	st := &loginState{Nonce: "n", Verifier: "v", TargetURI: "/user"}
	st.ID = "state-1"
	raw, err := signState("secret", st, now)
	require.NoError(t, err)

	got, err := parseState("secret", raw, now.Add(time.Minute))
	require.NoError(t, err)
	require.Equal(t, "state-1", got.ID)
	require.Equal(t, "v", got.Verifier)

	_, err = parseState("other", raw, now)
	require.ErrorIs(t, err, ErrInvalidState)

	_, err = parseState("secret", raw, now.Add(StateTTL+time.Second))
	require.ErrorIs(t, err, ErrInvalidState)

	_, err = signState("", st, now)
	require.ErrorIs(t, err, ErrNoSecret)
}

func TestWallet_ExchangeAndIntrospect(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		switch r.URL.Path {
		case "/oauth/token":
			require.Equal(t, "code-1", r.PostForm.Get("code"))
			require.Equal(t, "verifier-1", r.PostForm.Get("code_verifier"))
			require.Equal(t, "app_1", r.PostForm.Get("client_id"))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"access_token":"at","token_type":"Bearer","id_token":"idt"}`))
		case "/oauth/introspect":
			require.Equal(t, "idt", r.PostForm.Get("token"))
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]any{
				"active": r.PostForm.Get("nonce") != "stale",
				"aud":    "app_1", "sub": "sub_1", "nonce": r.PostForm.Get("nonce"),
				"email": "a@x.com", "name": "Ann",
				"command": "metadata", "iss": "https://issuer.hello.coop",
			})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	w := NewWallet(time.Second)
	cfg := Config{ClientID: "app_1", RedirectURI: "http://site.test/api/hellocoop", WalletURL: srv.URL}
	ctx := context.Background()

	tok, err := w.Exchange(ctx, cfg, "code-1", "verifier-1")
	require.NoError(t, err)
	require.Equal(t, "idt", tok)

	claims, err := w.Introspect(ctx, cfg, tok, "nonce-1")
	require.NoError(t, err)
	require.Equal(t, Payload{Subject: "sub_1", Email: "a@x.com", Name: "Ann"}, claims.Payload())

	_, err = w.Introspect(ctx, cfg, tok, "stale")
	require.ErrorIs(t, err, ErrIntrospect)

	_, err = w.Introspect(ctx, Config{ClientID: "other", WalletURL: srv.URL}, tok, "")
	require.ErrorIs(t, err, ErrIntrospect)

	cmd, err := w.VerifyCommand(ctx, cfg, "idt")
	require.NoError(t, err)
	require.Equal(t, CommandMetadata, cmd.Command)
}

func TestAuthorizeURL_LoginHint(t *testing.T) {
	u := AuthorizeURL(Config{ClientID: "c", WalletURL: DefaultWalletURL}, AuthParams{
		State: "s", Nonce: "n", Verifier: "v", Scope: []string{"openid"}, LoginHint: "a@x.com",
	})
	require.True(t, strings.HasPrefix(u, DefaultWalletURL+"/authorize?"))
	require.Contains(t, u, "login_hint=a%40x.com")
	require.NotContains(t, u, "provider_hint")
}

func TestPages_Escape(t *testing.T) {
	b, err := HTMLPages{}.ErrorPage("<script>", "d", "", "")
	require.NoError(t, err)
	require.NotContains(t, string(b), "<script>alert")
	require.Contains(t, string(b), "&lt;script&gt;")
}
