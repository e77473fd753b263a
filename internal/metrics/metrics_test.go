package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestNew_ToleratesDoubleRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	a, err := New(reg)
	require.NoError(t, err)
	b, err := New(reg)
	require.NoError(t, err)

	a.ObserveLogin("ok", true)
	b.ObserveLogin("ok", false)
	require.Equal(t, 2.0, testutil.ToFloat64(a.LoginResults.WithLabelValues("ok")))
	require.Equal(t, 1.0, testutil.ToFloat64(b.AccountsCreated))
}

func TestHandler_ExposesCounters(t *testing.T) {
	m, err := New(nil)
	require.NoError(t, err)
	m.ObserveLogout()
	m.ObservePictureFetch(50*time.Millisecond, errors.New("x"))
	m.ObserveHTTP(http.MethodGet, "", 200, time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()
	require.True(t, strings.Contains(body, "hellocoop_logout_total 1"))
	require.True(t, strings.Contains(body, `hellocoop_picture_fetch_seconds_count{result="error"} 1`))
	require.True(t, strings.Contains(body, `route="unmatched"`))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	require.NotPanics(t, func() {
		m.ObserveLogin("ok", true)
		m.ObserveLogout()
		m.ObserveEmailGuard()
		m.ObservePictureFetch(time.Second, nil)
		m.ObserveHTTP("GET", "/", 200, time.Second)
		m.Inflight(1)
	})
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}
