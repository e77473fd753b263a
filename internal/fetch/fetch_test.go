package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGet_OK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("img"))
	}))
	defer srv.Close()

	var observed int
	f := New(WithObserver(func(time.Duration, error) { observed++ }))
	b, err := f.Get(context.Background(), srv.URL+"/img.jpg")
	require.NoError(t, err)
	require.Equal(t, "img", string(b))
	require.Equal(t, 1, observed)
}

func TestGet_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/404":
			http.NotFound(w, r)
		case "/big":
			_, _ = w.Write([]byte(strings.Repeat("x", 64)))
		case "/slow":
			select {
			case <-time.After(2 * time.Second):
			case <-r.Context().Done():
			}
		}
	}))
	defer srv.Close()

	f := New(WithMaxBytes(16), WithTimeout(100*time.Millisecond))
	ctx := context.Background()

	_, err := f.Get(ctx, srv.URL+"/404")
	var se *StatusError
	require.ErrorAs(t, err, &se)
	require.Equal(t, http.StatusNotFound, se.Code)

	_, err = f.Get(ctx, srv.URL+"/big")
	require.ErrorIs(t, err, ErrTooLarge)

	_, err = f.Get(ctx, srv.URL+"/slow")
	require.Error(t, err)

	_, err = f.Get(ctx, "file:///etc/passwd")
	require.ErrorIs(t, err, ErrScheme)

	_, err = f.Get(ctx, "http://127.0.0.1:1/unreachable")
	require.Error(t, err)
}
