package hello

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/hkdf"
)

const (
	// StateCookie guarda nonce + PKCE verifier entre login y callback.
	StateCookie = "hellocoop_oidc"
	StateTTL    = 5 * time.Minute

	stateIssuer = "hellocoop"
	stateInfo   = "hellocoop oidc state v1"
)

var (
	ErrNoSecret     = errors.New("hello: secret not configured")
	ErrInvalidState = errors.New("hello: invalid login state")
)

// loginState contenido firmado de la cookie de estado. ID es el parámetro
// state enviado al wallet.
type loginState struct {
	jwt.RegisteredClaims
	Nonce       string `json:"nonce"`
	Verifier    string `json:"code_verifier"`
	TargetURI   string `json:"target_uri"`
	RedirectURI string `json:"redirect_uri"`
}

// stateKey deriva la clave HS256 del secreto de la app.
func stateKey(secret string) ([]byte, error) {
	if secret == "" {
		return nil, ErrNoSecret
	}
	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte(stateInfo)), key); err != nil {
		return nil, fmt.Errorf("hello: derive state key: %w", err)
	}
	return key, nil
}

func signState(secret string, st *loginState, now time.Time) (string, error) {
	key, err := stateKey(secret)
	if err != nil {
		return "", err
	}
	st.Issuer = stateIssuer
	st.IssuedAt = jwt.NewNumericDate(now)
	st.ExpiresAt = jwt.NewNumericDate(now.Add(StateTTL))
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, st).SignedString(key)
	if err != nil {
		return "", fmt.Errorf("hello: sign state: %w", err)
	}
	return tok, nil
}

func parseState(secret, raw string, now time.Time) (*loginState, error) {
	key, err := stateKey(secret)
	if err != nil {
		return nil, err
	}
	st := &loginState{}
	_, err = jwt.ParseWithClaims(raw, st, func(*jwt.Token) (any, error) { return key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(stateIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidState, err)
	}
	return st, nil
}

// randomToken string url-safe de n bytes aleatorios.
func randomToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
