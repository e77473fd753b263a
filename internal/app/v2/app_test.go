package appv2

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/hellocoop/internal/blob"
	"github.com/dropDatabas3/hellocoop/internal/cache"
	"github.com/dropDatabas3/hellocoop/internal/events"
	"github.com/dropDatabas3/hellocoop/internal/hello"
	"github.com/dropDatabas3/hellocoop/internal/metrics"
	"github.com/dropDatabas3/hellocoop/internal/session"
	"github.com/dropDatabas3/hellocoop/internal/settings"
	"github.com/dropDatabas3/hellocoop/internal/store/adapters/memory"
)

// ─── fakes ───

type walletStub struct {
	claims hello.Claims
}

func (w *walletStub) Exchange(context.Context, hello.Config, string, string) (string, error) {
	return "id-token", nil
}

func (w *walletStub) Introspect(_ context.Context, _ hello.Config, _, nonce string) (hello.Claims, error) {
	c := w.claims
	c.Nonce = nonce
	c.Active = true
	return c, nil
}

type pictureStub []byte

func (p pictureStub) Get(context.Context, string) ([]byte, error) { return p, nil }

// browser guarda cookies entre requests.
type browser struct {
	t       *testing.T
	h       http.Handler
	cookies map[string]*http.Cookie
	header  http.Header
}

func (b *browser) do(method, target string, body string) *httptest.ResponseRecorder {
	b.t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	for k, v := range b.header {
		req.Header[k] = v
	}
	for _, c := range b.cookies {
		req.AddCookie(&http.Cookie{Name: c.Name, Value: c.Value})
	}
	rec := httptest.NewRecorder()
	b.h.ServeHTTP(rec, req)
	for _, c := range rec.Result().Cookies() {
		if c.MaxAge < 0 || c.Value == "" {
			delete(b.cookies, c.Name)
			continue
		}
		b.cookies[c.Name] = c
	}
	return rec
}

type fixture struct {
	app      *App
	conn     *memory.Conn
	settings *settings.Service
	wallet   *walletStub
	browser  *browser
}

const testAdminKey = "admin-key"

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	dir := t.TempDir()

	conn := memory.New()
	c, err := cache.New(ctx, cache.Config{Driver: "memory"})
	require.NoError(t, err)
	bus := events.NewBus()

	st, err := settings.Open(filepath.Join(dir, "settings.yaml"), bus)
	require.NoError(t, err)
	_, err = st.ApplyClientID(ctx, "app_test")
	require.NoError(t, err)
	_, err = st.RotateSecret(ctx)
	require.NoError(t, err)

	m, err := metrics.New(prometheus.NewRegistry())
	require.NoError(t, err)

	wallet := &walletStub{claims: hello.Claims{
		Subject: "sub_ann", Email: "ann@example.com", Name: "Ann", Picture: "https://img.example.com/ann.jpg",
	}}
	app, err := New(Config{
		BaseURL:     "http://app.example.com",
		Version:     "test",
		AdminAPIKey: testAdminKey,
		FilesRoot:   filepath.Join(dir, "files"),
	}, Deps{
		Store:     conn,
		Cache:     c,
		Settings:  st,
		Bus:       bus,
		Blobs:     blob.NewFS(filepath.Join(dir, "files"), "http://app.example.com/files", conn.Files()),
		Fetcher:   pictureStub("\xff\xd8\xff\xe0jpeg"),
		Sessions:  session.NewManager(c, session.Config{TTL: time.Hour}),
		Metrics:   m,
		Handshake: wallet,
	})
	require.NoError(t, err)

	return &fixture{
		app:      app,
		conn:     conn,
		settings: st,
		wallet:   wallet,
		browser:  &browser{t: t, h: app.Handler, cookies: map[string]*http.Cookie{}, header: http.Header{}},
	}
}

// login recorre op=login y el callback.
func (f *fixture) login(t *testing.T, route string) *httptest.ResponseRecorder {
	t.Helper()
	rec := f.browser.do(http.MethodGet, route+"?op=login&target_uri=/user", "")
	require.Equal(t, http.StatusFound, rec.Code)
	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	require.Equal(t, "app_test", loc.Query().Get("client_id"))
	require.Equal(t, "http://example.com"+route, loc.Query().Get("redirect_uri"))
	require.Contains(t, f.browser.cookies, hello.StateCookie)

	return f.browser.do(http.MethodGet, route+"?code=c1&state="+url.QueryEscape(loc.Query().Get("state")), "")
}

func TestApp_LoginUserLogout(t *testing.T) {
	f := newFixture(t)
	b := f.browser

	rec := b.do(http.MethodGet, "/user", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	var denied map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &denied))
	require.True(t, strings.HasPrefix(denied["login_url"], "http://app.example.com/api/hellocoop?op=login"))

	rec = f.login(t, "/api/hellocoop")
	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, "/user", rec.Header().Get("Location"))
	require.Contains(t, b.cookies, "hc_session")
	require.NotContains(t, b.cookies, hello.StateCookie)
	require.Equal(t, 1, f.conn.AccountCount())

	rec = b.do(http.MethodGet, "/user", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var me map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &me))
	require.Equal(t, "Ann", me["name"])
	require.Equal(t, "sub_ann", me["sub"])
	require.True(t, strings.HasPrefix(me["picture"].(string), "http://app.example.com/files/user_pictures/profile_"))

	rec = b.do(http.MethodGet, "/api/hellocoop?op=auth", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var st hello.AuthStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	require.True(t, st.IsLoggedIn)
	require.Equal(t, "ann@example.com", st.Email)

	// Segundo login: misma cuenta.
	f.wallet.claims.Name = "Ann B."
	rec = f.login(t, "/api/hellocoop")
	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, 1, f.conn.AccountCount())

	rec = b.do(http.MethodGet, "/api/hellocoop?op=logout&target_uri=/", "")
	require.Equal(t, http.StatusFound, rec.Code)
	require.NotContains(t, b.cookies, "hc_session")

	rec = b.do(http.MethodGet, "/user", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestApp_AdminAndRouteRebinding(t *testing.T) {
	f := newFixture(t)
	b := f.browser

	rec := b.do(http.MethodGet, "/admin/hello/settings", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	b.header.Set("X-Admin-API-Key", "wrong")
	rec = b.do(http.MethodGet, "/admin/hello/settings", "")
	require.Equal(t, http.StatusForbidden, rec.Code)

	b.header.Set("X-Admin-API-Key", testAdminKey)
	rec = b.do(http.MethodGet, "/admin/hello/settings", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"has_secret":true`)
	require.NotContains(t, rec.Body.String(), f.settings.Get(context.Background()).Secret)

	rec = b.do(http.MethodPut, "/admin/hello/settings", `{"api_route":"/files/x","app_id":"app_test"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = b.do(http.MethodPut, "/admin/hello/settings", `{"api_route":"/auth/hello","app_id":"app_test"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "/auth/hello", f.app.Router.APIRoute())

	rec = b.do(http.MethodGet, "/api/hellocoop?op=auth", "")
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = b.do(http.MethodGet, "/auth/hello?op=auth", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"isLoggedIn":false}`, rec.Body.String())

	rec = f.login(t, "/auth/hello")
	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, 1, f.conn.AccountCount())

	rec = b.do(http.MethodPost, "/admin/hello/settings/secret", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var sec map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sec))
	require.Len(t, sec["secret"], 64)
}

func TestApp_InfraRoutes(t *testing.T) {
	f := newFixture(t)
	b := f.browser

	rec := b.do(http.MethodGet, "/readyz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"status":"ready"`)
	require.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	f.login(t, "/api/hellocoop")

	rec = b.do(http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `hellocoop_login_total{result="ok"} 1`)
	require.Contains(t, rec.Body.String(), "hellocoop_accounts_created_total 1")

	rec = b.do(http.MethodGet, "/nope", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestNew_MissingDeps(t *testing.T) {
	_, err := New(Config{}, Deps{})
	require.ErrorContains(t, err, "store")
}
