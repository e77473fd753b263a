package repository

import (
	"context"
	"time"
)

// AccountStatus estado de la cuenta local.
type AccountStatus string

const (
	AccountActive  AccountStatus = "active"
	AccountBlocked AccountStatus = "blocked"
)

// Account es la cuenta local que el reconciler carga, crea y actualiza.
type Account struct {
	ID            string
	Name          string
	Email         string
	Status        AccountStatus
	PictureFileID string // vacío = sin foto
	CreatedAt     time.Time
	UpdatedAt     time.Time
	LastLoginAt   *time.Time
}

// ExternalAuth mapea (provider, subject) a una cuenta.
type ExternalAuth struct {
	AccountID string
	Provider  string
	Subject   string
	CreatedAt time.Time
}

// CreateAccountInput crea cuenta + mapping externo en una sola operación.
type CreateAccountInput struct {
	Name          string
	Email         string
	Status        AccountStatus
	PictureFileID string
	LastLoginAt   *time.Time

	Provider string
	Subject  string
}

// AccountRepository es el directorio de cuentas.
type AccountRepository interface {
	// GetByID busca una cuenta por ID interno.
	GetByID(ctx context.Context, id string) (*Account, error)

	// GetBySubject resuelve el mapping (provider, subject).
	GetBySubject(ctx context.Context, provider, subject string) (*Account, error)

	// GetByEmail busca por email (case-insensitive). Con varias coincidencias
	// devuelve la cuenta más antigua.
	GetByEmail(ctx context.Context, email string) (*Account, error)

	// Create inserta la cuenta y, si Provider/Subject no están vacíos, su
	// mapping, de forma atómica. Mapping duplicado => ErrConflict.
	Create(ctx context.Context, input CreateAccountInput) (*Account, error)

	// Save persiste los atributos mutables (name, email, status, picture,
	// last_login_at). Cuenta inexistente => ErrNotFound.
	Save(ctx context.Context, acc *Account) error

	// LinkSubject agrega un mapping a una cuenta existente.
	// Mapping ya tomado => ErrConflict.
	LinkSubject(ctx context.Context, accountID, provider, subject string) error

	// SaveAndLink es Save + LinkSubject en una sola operación atómica: si
	// cualquiera falla no queda ninguno de los dos cambios.
	SaveAndLink(ctx context.Context, acc *Account, provider, subject string) error

	// SubjectFor devuelve el subject de provider ligado a la cuenta (el más
	// antiguo si hay varios). Sin mapping => ErrNotFound.
	SubjectFor(ctx context.Context, accountID, provider string) (string, error)
}
