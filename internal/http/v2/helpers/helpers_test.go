package helpers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestReadJSON(t *testing.T) {
	var v struct {
		Name string `json:"name"`
	}

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"x","extra":1}`))
	req.Header.Set("Content-Type", "application/json")
	require.NoError(t, ReadJSON(httptest.NewRecorder(), req, &v))
	require.Equal(t, "x", v.Name)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`))
	require.ErrorIs(t, ReadJSON(httptest.NewRecorder(), req, &v), ErrContentType)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{bad`))
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	require.ErrorIs(t, ReadJSON(httptest.NewRecorder(), req, &v), ErrInvalidJSON)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"`+strings.Repeat("a", MaxJSONBody)+`"}`))
	req.Header.Set("Content-Type", "application/json")
	require.ErrorIs(t, ReadJSON(httptest.NewRecorder(), req, &v), ErrBodyTooBig)
}

func TestCookies(t *testing.T) {
	rec := httptest.NewRecorder()
	SetCookie(rec, "hellocoop_oidc", "v", time.Now().Add(time.Minute), false)
	DeleteCookie(rec, "other")

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 2)
	require.Equal(t, "v", cookies[0].Value)
	require.True(t, cookies[0].HttpOnly)
	require.Equal(t, http.SameSiteLaxMode, cookies[0].SameSite)
	require.Equal(t, "/", cookies[0].Path)

	require.Empty(t, cookies[1].Value)
	require.True(t, cookies[1].Expires.Before(time.Now()))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "a", Value: "b"})
	require.Equal(t, "b", CookieValue(req, "a"))
	require.Empty(t, CookieValue(req, "missing"))
}

func TestWriters(t *testing.T) {
	rec := httptest.NewRecorder()
	Redirect(rec, "/user")
	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, "/user", rec.Header().Get("Location"))

	rec = httptest.NewRecorder()
	WriteText(rec, http.StatusOK, "hi")
	require.Equal(t, "text/plain", rec.Header().Get("Content-Type"))

	rec = httptest.NewRecorder()
	WriteJSON(rec, http.StatusCreated, map[string]int{"a": 1})
	require.Equal(t, http.StatusCreated, rec.Code)
	require.JSONEq(t, `{"a":1}`, rec.Body.String())
}
