// Package memory implementa un directorio de cuentas en memoria.
// Útil para desarrollo y tests; no persiste entre reinicios.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dropDatabas3/hellocoop/internal/domain/repository"
	"github.com/dropDatabas3/hellocoop/internal/store"
)

func init() {
	store.RegisterAdapter(&memoryAdapter{})
}

type memoryAdapter struct{}

func (a *memoryAdapter) Name() string { return "memory" }

func (a *memoryAdapter) Connect(ctx context.Context, cfg store.AdapterConfig) (store.Connection, error) {
	return New(), nil
}

// Conn es un directorio en memoria, seguro para uso concurrente.
type Conn struct {
	mu       sync.RWMutex
	accounts map[string]repository.Account
	mappings map[mappingKey]string // -> account id
	files    map[string]repository.File
	now      func() time.Time
}

type mappingKey struct{ provider, subject string }

// New crea un directorio vacío.
func New() *Conn {
	return &Conn{
		accounts: make(map[string]repository.Account),
		mappings: make(map[mappingKey]string),
		files:    make(map[string]repository.File),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (c *Conn) Name() string                   { return "memory" }
func (c *Conn) Ping(ctx context.Context) error { return nil }
func (c *Conn) Close() error                   { return nil }

func (c *Conn) Accounts() repository.AccountRepository { return (*accountRepo)(c) }
func (c *Conn) Files() repository.FileRepository       { return (*fileRepo)(c) }

// AccountCount devuelve cuántas cuentas hay. Pensado para tests.
func (c *Conn) AccountCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.accounts)
}

// ─── Accounts ───

type accountRepo Conn

func (r *accountRepo) GetByID(ctx context.Context, id string) (*repository.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	acc, ok := r.accounts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &acc, nil
}

func (r *accountRepo) GetBySubject(ctx context.Context, provider, subject string) (*repository.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.mappings[mappingKey{provider, subject}]
	if !ok {
		return nil, repository.ErrNotFound
	}
	acc, ok := r.accounts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &acc, nil
}

func (r *accountRepo) GetByEmail(ctx context.Context, email string) (*repository.Account, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, repository.ErrNotFound
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matches []repository.Account
	for _, acc := range r.accounts {
		if strings.EqualFold(acc.Email, email) {
			matches = append(matches, acc)
		}
	}
	if len(matches) == 0 {
		return nil, repository.ErrNotFound
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].CreatedAt.Equal(matches[j].CreatedAt) {
			return matches[i].ID < matches[j].ID
		}
		return matches[i].CreatedAt.Before(matches[j].CreatedAt)
	})
	return &matches[0], nil
}

func (r *accountRepo) Create(ctx context.Context, in repository.CreateAccountInput) (*repository.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := mappingKey{in.Provider, in.Subject}
	if in.Subject != "" {
		if _, taken := r.mappings[key]; taken {
			return nil, repository.ErrConflict
		}
	}

	status := in.Status
	if status == "" {
		status = repository.AccountActive
	}
	now := r.now()
	acc := repository.Account{
		ID:            uuid.NewString(),
		Name:          in.Name,
		Email:         in.Email,
		Status:        status,
		PictureFileID: in.PictureFileID,
		CreatedAt:     now,
		UpdatedAt:     now,
		LastLoginAt:   in.LastLoginAt,
	}
	r.accounts[acc.ID] = acc
	if in.Subject != "" {
		r.mappings[key] = acc.ID
	}
	return &acc, nil
}

func (r *accountRepo) Save(ctx context.Context, acc *repository.Account) error {
	if acc == nil || acc.ID == "" {
		return repository.ErrInvalidInput
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.saveLocked(acc)
}

func (r *accountRepo) LinkSubject(ctx context.Context, accountID, provider, subject string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.checkLinkLocked(accountID, provider, subject); err != nil {
		return err
	}
	r.mappings[mappingKey{provider, subject}] = accountID
	return nil
}

// SaveAndLink valida el mapping antes de tocar nada: o se aplican los dos
// cambios o ninguno.
func (r *accountRepo) SaveAndLink(ctx context.Context, acc *repository.Account, provider, subject string) error {
	if acc == nil || acc.ID == "" {
		return repository.ErrInvalidInput
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.checkLinkLocked(acc.ID, provider, subject); err != nil {
		return err
	}
	if err := r.saveLocked(acc); err != nil {
		return err
	}
	r.mappings[mappingKey{provider, subject}] = acc.ID
	return nil
}

func (r *accountRepo) SubjectFor(ctx context.Context, accountID, provider string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var subjects []string
	for k, id := range r.mappings {
		if id == accountID && k.provider == provider {
			subjects = append(subjects, k.subject)
		}
	}
	if len(subjects) == 0 {
		return "", repository.ErrNotFound
	}
	sort.Strings(subjects)
	return subjects[0], nil
}

func (r *accountRepo) saveLocked(acc *repository.Account) error {
	cur, ok := r.accounts[acc.ID]
	if !ok {
		return repository.ErrNotFound
	}
	cur.Name = acc.Name
	cur.Email = acc.Email
	cur.Status = acc.Status
	cur.PictureFileID = acc.PictureFileID
	cur.LastLoginAt = acc.LastLoginAt
	cur.UpdatedAt = r.now()
	r.accounts[acc.ID] = cur
	acc.UpdatedAt = cur.UpdatedAt
	acc.CreatedAt = cur.CreatedAt
	return nil
}

func (r *accountRepo) checkLinkLocked(accountID, provider, subject string) error {
	if _, ok := r.accounts[accountID]; !ok {
		return repository.ErrNotFound
	}
	if owner, taken := r.mappings[mappingKey{provider, subject}]; taken && owner != accountID {
		return repository.ErrConflict
	}
	return nil
}

// ─── Files ───

type fileRepo Conn

func (r *fileRepo) Create(ctx context.Context, in repository.CreateFileInput) (*repository.File, error) {
	if strings.TrimSpace(in.URI) == "" {
		return nil, repository.ErrInvalidInput
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	f := repository.File{
		ID:        uuid.NewString(),
		URI:       in.URI,
		Size:      in.Size,
		MimeType:  in.MimeType,
		CreatedAt: r.now(),
	}
	r.files[f.ID] = f
	return &f, nil
}

func (r *fileRepo) GetByID(ctx context.Context, id string) (*repository.File, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.files[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &f, nil
}
