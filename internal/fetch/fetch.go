// Package fetch descarga recursos remotos (fotos de perfil) con timeout y
// tamaño máximo acotados.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/dropDatabas3/hellocoop/internal/observability/tracing"
)

const (
	DefaultTimeout  = 10 * time.Second
	DefaultMaxBytes = 5 << 20
)

var (
	ErrScheme   = errors.New("fetch: only http and https urls are allowed")
	ErrTooLarge = errors.New("fetch: response too large")
)

// StatusError respuesta no-200.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string { return fmt.Sprintf("fetch: unexpected status %d", e.Code) }

// Fetcher obtiene los bytes de una URL.
type Fetcher interface {
	Get(ctx context.Context, rawURL string) ([]byte, error)
}

// HTTP implementa Fetcher con net/http.
type HTTP struct {
	client   *http.Client
	timeout  time.Duration
	maxBytes int64
	observe  func(d time.Duration, err error)
}

// Option configura HTTP.
type Option func(*HTTP)

// WithClient reemplaza el http.Client (tests, proxies).
func WithClient(c *http.Client) Option { return func(h *HTTP) { h.client = c } }

// WithTimeout fija el timeout total de la descarga.
func WithTimeout(d time.Duration) Option {
	return func(h *HTTP) {
		if d > 0 {
			h.timeout = d
		}
	}
}

// WithMaxBytes fija el tamaño máximo aceptado.
func WithMaxBytes(n int64) Option {
	return func(h *HTTP) {
		if n > 0 {
			h.maxBytes = n
		}
	}
}

// WithObserver recibe la duración y el resultado de cada descarga.
func WithObserver(fn func(d time.Duration, err error)) Option {
	return func(h *HTTP) { h.observe = fn }
}

// New crea un Fetcher HTTP.
func New(opts ...Option) *HTTP {
	h := &HTTP{
		client:   &http.Client{},
		timeout:  DefaultTimeout,
		maxBytes: DefaultMaxBytes,
	}
	for _, o := range opts {
		o(h)
	}
	return h
}

// Get descarga rawURL. Error de transporte, timeout, status != 200 o cuerpo
// mayor a maxBytes devuelven error.
func (h *HTTP) Get(ctx context.Context, rawURL string) (data []byte, err error) {
	ctx, span := tracing.Tracer().Start(ctx, "fetch.Get")
	start := time.Now()
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		if h.observe != nil {
			h.observe(time.Since(start), err)
		}
	}()

	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("fetch: parse url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, ErrScheme
	}
	span.SetAttributes(attribute.String("http.host", u.Host))

	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("fetch: build request: %w", err)
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return nil, &StatusError{Code: resp.StatusCode}
	}
	if resp.ContentLength > h.maxBytes {
		return nil, ErrTooLarge
	}

	data, err = io.ReadAll(io.LimitReader(resp.Body, h.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("fetch: read body: %w", err)
	}
	if int64(len(data)) > h.maxBytes {
		return nil, ErrTooLarge
	}
	return data, nil
}
