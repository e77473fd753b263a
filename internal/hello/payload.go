package hello

import "context"

// Payload identidad ya validada por el wallet.
type Payload struct {
	Subject string `json:"sub"`
	Email   string `json:"email,omitempty"`
	Name    string `json:"name,omitempty"`
	Picture string `json:"picture,omitempty"`
}

// Empty reporta si no hay ni subject ni email.
func (p Payload) Empty() bool { return p.Subject == "" && p.Email == "" }

// SessionHook recibe los eventos de sesión del endpoint.
type SessionHook interface {
	// OnLogin corre tras un callback válido. Un error aborta el login.
	OnLogin(ctx context.Context, p Payload) (Payload, error)
	// OnLogout corre en op=logout.
	OnLogout(ctx context.Context) error
}

// Claims respuesta de introspección del wallet.
type Claims struct {
	Active   bool   `json:"active"`
	Issuer   string `json:"iss"`
	Audience string `json:"aud"`
	Subject  string `json:"sub"`
	Nonce    string `json:"nonce"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Picture  string `json:"picture"`
	Expiry   int64  `json:"exp"`
}

// Payload extrae la identidad.
func (c Claims) Payload() Payload {
	return Payload{Subject: c.Subject, Email: c.Email, Name: c.Name, Picture: c.Picture}
}

// AuthStatus estado devuelto por op=auth.
type AuthStatus struct {
	IsLoggedIn bool   `json:"isLoggedIn"`
	Subject    string `json:"sub,omitempty"`
	Email      string `json:"email,omitempty"`
	Name       string `json:"name,omitempty"`
	Picture    string `json:"picture,omitempty"`
}

// AuthSource resuelve el estado de sesión del request actual.
type AuthSource interface {
	Auth(ctx context.Context) (AuthStatus, error)
}
