// Package metrics define los collectors Prometheus del servicio. Vive aparte
// para que reconciler, fetch y HTTP lo importen sin ciclos.
package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics agrupa los collectors. Un *Metrics nil es válido y no registra nada.
type Metrics struct {
	gatherer prometheus.Gatherer

	LoginResults    *prometheus.CounterVec
	AccountsCreated prometheus.Counter
	Logouts         prometheus.Counter
	PictureFetch    *prometheus.HistogramVec
	EmailGuardTrips prometheus.Counter

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
	HTTPInflight prometheus.Gauge
}

// New crea y registra los collectors en reg. Con reg nil usa un registry
// propio (tests). Un AlreadyRegisteredError reutiliza el collector existente.
func New(reg *prometheus.Registry) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &Metrics{gatherer: reg}

	var err error
	if m.LoginResults, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "hellocoop_login_total",
		Help: "Logins reconciliados por resultado",
	}, []string{"result"})); err != nil {
		return nil, err
	}
	if m.AccountsCreated, err = register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "hellocoop_accounts_created_total",
		Help: "Cuentas creadas en el primer login",
	})); err != nil {
		return nil, err
	}
	if m.Logouts, err = register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "hellocoop_logout_total",
		Help: "Logouts procesados",
	})); err != nil {
		return nil, err
	}
	if m.EmailGuardTrips, err = register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "hellocoop_email_guard_trips_total",
		Help: "Emails no aplicados porque pertenecen a otra cuenta",
	})); err != nil {
		return nil, err
	}
	if m.PictureFetch, err = register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "hellocoop_picture_fetch_seconds",
		Help:    "Latencia de descarga de fotos de perfil",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"result"})); err != nil {
		return nil, err
	}
	if m.HTTPRequests, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Número total de requests procesadas",
	}, []string{"method", "route", "status"})); err != nil {
		return nil, err
	}
	if m.HTTPDuration, err = register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Latencia de los requests HTTP",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})); err != nil {
		return nil, err
	}
	if m.HTTPInflight, err = register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "http_inflight_requests",
		Help: "Requests en vuelo",
	})); err != nil {
		return nil, err
	}
	return m, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// Handler expone /metrics.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// ObserveLogin cuenta un login por resultado (ok, payload_invalid, ...).
func (m *Metrics) ObserveLogin(result string, created bool) {
	if m == nil {
		return
	}
	m.LoginResults.WithLabelValues(result).Inc()
	if created {
		m.AccountsCreated.Inc()
	}
}

func (m *Metrics) ObserveLogout() {
	if m == nil {
		return
	}
	m.Logouts.Inc()
}

func (m *Metrics) ObserveEmailGuard() {
	if m == nil {
		return
	}
	m.EmailGuardTrips.Inc()
}

// ObservePictureFetch firma compatible con fetch.WithObserver.
func (m *Metrics) ObservePictureFetch(d time.Duration, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.PictureFetch.WithLabelValues(result).Observe(d.Seconds())
}

// ObserveHTTP registra un request terminado.
func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// Inflight ajusta el gauge de requests en vuelo.
func (m *Metrics) Inflight(delta float64) {
	if m == nil {
		return
	}
	m.HTTPInflight.Add(delta)
}
