// Package session mantiene la sesión del navegador: cookie opaca + registro
// en cache. FinalizeLogin y Logout operan sobre el request ligado al
// contexto por Bind.
package session

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dropDatabas3/hellocoop/internal/cache"
	"github.com/dropDatabas3/hellocoop/internal/domain/repository"
	"github.com/dropDatabas3/hellocoop/internal/observability/logger"
)

var (
	ErrNoSession = errors.New("session: no active session")
	ErrUnbound   = errors.New("session: no request bound to context")
)

// IsNoSession reporta si err indica ausencia de sesión.
func IsNoSession(err error) bool { return errors.Is(err, ErrNoSession) }

// Data es lo que se guarda por sesión.
type Data struct {
	AccountID string    `json:"account_id"`
	Subject   string    `json:"sub"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Config parámetros de la cookie.
type Config struct {
	CookieName string
	TTL        time.Duration
	Secure     bool
}

// Manager implementa FinalizeLogin/Logout sobre un cache.Client.
type Manager struct {
	cache cache.Client
	cfg   Config
	now   func() time.Time
}

// NewManager crea un Manager.
func NewManager(c cache.Client, cfg Config) *Manager {
	if cfg.CookieName == "" {
		cfg.CookieName = "hc_session"
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 24 * time.Hour
	}
	return &Manager{cache: c, cfg: cfg, now: time.Now}
}

// ─── request binding ───

type bindingKey struct{}

type binding struct {
	w http.ResponseWriter
	r *http.Request
}

// Bind liga w y r al contexto del request para que el reconciler pueda
// finalizar la sesión sin conocer HTTP.
func Bind(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b := &binding{w: w}
		r = r.WithContext(context.WithValue(r.Context(), bindingKey{}, b))
		b.r = r
		next.ServeHTTP(w, r)
	})
}

func bound(ctx context.Context) (*binding, error) {
	b, ok := ctx.Value(bindingKey{}).(*binding)
	if !ok || b == nil {
		return nil, ErrUnbound
	}
	return b, nil
}

// ─── operaciones ───

// FinalizeLogin abre una sesión nueva para acc. Si el request ya traía una
// sesión, se invalida (el id siempre se regenera).
func (m *Manager) FinalizeLogin(ctx context.Context, acc *repository.Account, subject string) error {
	if acc == nil || acc.ID == "" {
		return fmt.Errorf("session: account is required")
	}
	b, err := bound(ctx)
	if err != nil {
		return err
	}

	if old, err := b.r.Cookie(m.cfg.CookieName); err == nil && old.Value != "" {
		_ = m.cache.Delete(ctx, key(old.Value))
	}

	id, err := newID()
	if err != nil {
		return err
	}
	now := m.now().UTC()
	data := Data{AccountID: acc.ID, Subject: subject, CreatedAt: now, ExpiresAt: now.Add(m.cfg.TTL)}
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("session: marshal: %w", err)
	}
	if err := m.cache.Set(ctx, key(id), string(raw), m.cfg.TTL); err != nil {
		return fmt.Errorf("session: store: %w", err)
	}

	http.SetCookie(b.w, m.cookie(id, data.ExpiresAt))
	logger.From(ctx).Debug("session started", logger.Component("session"), logger.AccountID(acc.ID))
	return nil
}

// Logout borra la sesión del request (si hay) y expira la cookie.
func (m *Manager) Logout(ctx context.Context) error {
	b, err := bound(ctx)
	if err != nil {
		return err
	}
	if c, err := b.r.Cookie(m.cfg.CookieName); err == nil && c.Value != "" {
		if err := m.cache.Delete(ctx, key(c.Value)); err != nil {
			return fmt.Errorf("session: delete: %w", err)
		}
	}
	expired := m.cookie("", m.now().Add(-time.Hour))
	expired.MaxAge = -1
	http.SetCookie(b.w, expired)
	return nil
}

// Current devuelve la sesión de r, o ErrNoSession.
func (m *Manager) Current(ctx context.Context, r *http.Request) (*Data, error) {
	c, err := r.Cookie(m.cfg.CookieName)
	if err != nil || c.Value == "" {
		return nil, ErrNoSession
	}
	raw, err := m.cache.Get(ctx, key(c.Value))
	if cache.IsNotFound(err) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("session: load: %w", err)
	}
	var d Data
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		return nil, ErrNoSession
	}
	if !d.ExpiresAt.IsZero() && m.now().After(d.ExpiresAt) {
		return nil, ErrNoSession
	}
	return &d, nil
}

// CurrentFromContext como Current, usando el request ligado por Bind.
func (m *Manager) CurrentFromContext(ctx context.Context) (*Data, error) {
	b, err := bound(ctx)
	if err != nil {
		return nil, err
	}
	return m.Current(ctx, b.r)
}

func (m *Manager) cookie(value string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     m.cfg.CookieName,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   m.cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func newID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("session: random: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// En cache solo vive el hash del id de la cookie.
func key(id string) string {
	sum := sha256.Sum256([]byte(id))
	return "sess:" + hex.EncodeToString(sum[:])
}
