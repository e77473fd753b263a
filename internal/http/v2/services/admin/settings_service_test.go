package admin

import (
	"context"
	"net/url"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	dto "github.com/dropDatabas3/hellocoop/internal/http/v2/dto/admin"
	"github.com/dropDatabas3/hellocoop/internal/settings"
)

func newService(t *testing.T) (SettingsService, *settings.Service) {
	t.Helper()
	st, err := settings.Open(filepath.Join(t.TempDir(), "settings.yaml"), nil)
	require.NoError(t, err)
	return NewSettingsService(Deps{Settings: st, BaseURL: "https://app.example.com/", LogoURL: "https://app.example.com/logo.png"}), st
}

func TestSettingsService_GetDefaults(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	v, err := svc.Get(ctx, "")
	require.NoError(t, err)
	require.Equal(t, "/api/hellocoop", v.APIRoute)
	require.False(t, v.HasSecret)
	require.Equal(t, "https://app.example.com/api/hellocoop", v.RedirectURI)
	require.Contains(t, v.LoginURL, "https://app.example.com/api/hellocoop?op=login&target_uri=/user")
	require.Contains(t, v.LoginURL, "provider_hint=github+google+twitter")
}

func TestSettingsService_ClientIDFromQuickstart(t *testing.T) {
	svc, st := newService(t)
	ctx := context.Background()

	v, err := svc.Get(ctx, " app_123 ")
	require.NoError(t, err)
	require.Equal(t, "app_123", v.AppID)
	require.Equal(t, "app_123", st.Get(ctx).AppID)
}

func TestSettingsService_UpdateAndRotate(t *testing.T) {
	svc, st := newService(t)
	ctx := context.Background()

	v, err := svc.Update(ctx, dto.UpdateSettingsRequest{APIRoute: "/auth/hello/", AppID: "app_1", ProviderHint: []string{"apple", ""}})
	require.NoError(t, err)
	require.Equal(t, "/auth/hello", v.APIRoute)
	require.Equal(t, []string{"apple"}, v.ProviderHint)

	_, err = svc.Update(ctx, dto.UpdateSettingsRequest{APIRoute: "/admin/x", AppID: "app_1"})
	require.ErrorIs(t, err, settings.ErrInvalid)

	sec, err := svc.RotateSecret(ctx)
	require.NoError(t, err)
	require.Len(t, sec.Secret, 64)
	require.Equal(t, sec.Secret, st.Get(ctx).Secret)

	v, err = svc.Get(ctx, "")
	require.NoError(t, err)
	require.True(t, v.HasSecret)
}

func TestSettingsService_Quickstart(t *testing.T) {
	svc, _ := newService(t)
	got := svc.Quickstart(context.Background())

	u, err := url.Parse(got.URL)
	require.NoError(t, err)
	require.Equal(t, "quickstart.hello.coop", u.Host)
	q := u.Query()
	require.Equal(t, "https://app.example.com/admin/hello/settings", q.Get("response_uri"))
	require.Equal(t, "https://app.example.com/logo.png", q.Get("image_uri"))
	require.Equal(t, "https://app.example.com/api/hellocoop", q.Get("redirect_uri"))
}
