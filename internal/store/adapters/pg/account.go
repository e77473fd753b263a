package pg

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/hellocoop/internal/domain/repository"
)

type accountRepo struct {
	pool *pgxpool.Pool
}

const accountColumns = `a.id::text, a.name, a.email, a.status, a.picture_file_id::text, a.created_at, a.updated_at, a.last_login_at`

func scanAccount(row pgx.Row) (*repository.Account, error) {
	var (
		acc     repository.Account
		status  string
		picture *string
	)
	err := row.Scan(&acc.ID, &acc.Name, &acc.Email, &status, &picture, &acc.CreatedAt, &acc.UpdatedAt, &acc.LastLoginAt)
	if isNoRows(err) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		if pgCode(err) == codeInvalidText {
			// id no-UUID: no puede existir
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	acc.Status = repository.AccountStatus(status)
	if picture != nil {
		acc.PictureFileID = *picture
	}
	return &acc, nil
}

func (r *accountRepo) GetByID(ctx context.Context, id string) (*repository.Account, error) {
	return scanAccount(r.pool.QueryRow(ctx, `SELECT `+accountColumns+` FROM account a WHERE a.id = $1`, id))
}

func (r *accountRepo) GetBySubject(ctx context.Context, provider, subject string) (*repository.Account, error) {
	return scanAccount(r.pool.QueryRow(ctx, `
		SELECT `+accountColumns+`
		FROM external_auth x
		JOIN account a ON a.id = x.account_id
		WHERE x.provider = $1 AND x.subject = $2`, provider, subject))
}

func (r *accountRepo) GetByEmail(ctx context.Context, email string) (*repository.Account, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, repository.ErrNotFound
	}
	return scanAccount(r.pool.QueryRow(ctx, `
		SELECT `+accountColumns+`
		FROM account a
		WHERE a.email <> '' AND lower(a.email) = lower($1)
		ORDER BY a.created_at, a.id
		LIMIT 1`, email))
}

func (r *accountRepo) Create(ctx context.Context, in repository.CreateAccountInput) (*repository.Account, error) {
	status := in.Status
	if status == "" {
		status = repository.AccountActive
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	acc := &repository.Account{
		Name:          in.Name,
		Email:         in.Email,
		Status:        status,
		PictureFileID: in.PictureFileID,
		LastLoginAt:   in.LastLoginAt,
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO account (id, name, email, status, picture_file_id, last_login_at)
		VALUES (gen_random_uuid(), $1, $2, $3, $4::uuid, $5)
		RETURNING id::text, created_at, updated_at`,
		acc.Name, acc.Email, string(acc.Status), nullIfEmpty(acc.PictureFileID), acc.LastLoginAt,
	).Scan(&acc.ID, &acc.CreatedAt, &acc.UpdatedAt)
	if err != nil {
		switch pgCode(err) {
		case codeForeignKeyViolation, codeInvalidText:
			return nil, fmt.Errorf("%w: unknown picture file", repository.ErrInvalidInput)
		}
		return nil, fmt.Errorf("insert account: %w", err)
	}

	if in.Subject != "" {
		_, err = tx.Exec(ctx, `
			INSERT INTO external_auth (provider, subject, account_id)
			VALUES ($1, $2, $3)`, in.Provider, in.Subject, acc.ID)
		if err != nil {
			if pgCode(err) == codeUniqueViolation {
				return nil, repository.ErrConflict
			}
			return nil, fmt.Errorf("insert external_auth: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return acc, nil
}

// querier lo cumplen *pgxpool.Pool y pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (r *accountRepo) Save(ctx context.Context, acc *repository.Account) error {
	if acc == nil || acc.ID == "" {
		return repository.ErrInvalidInput
	}
	return saveAccount(ctx, r.pool, acc)
}

func (r *accountRepo) LinkSubject(ctx context.Context, accountID, provider, subject string) error {
	return linkSubject(ctx, r.pool, accountID, provider, subject)
}

// SaveAndLink guarda la cuenta y agrega el mapping en una sola transacción.
func (r *accountRepo) SaveAndLink(ctx context.Context, acc *repository.Account, provider, subject string) error {
	if acc == nil || acc.ID == "" {
		return repository.ErrInvalidInput
	}
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	updated := *acc
	if err := saveAccount(ctx, tx, &updated); err != nil {
		return err
	}
	if err := linkSubject(ctx, tx, acc.ID, provider, subject); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		if pgCode(err) == codeUniqueViolation {
			return repository.ErrConflict
		}
		return err
	}
	acc.UpdatedAt = updated.UpdatedAt
	return nil
}

func (r *accountRepo) SubjectFor(ctx context.Context, accountID, provider string) (string, error) {
	var subject string
	err := r.pool.QueryRow(ctx, `
		SELECT subject FROM external_auth
		WHERE account_id = $1 AND provider = $2
		ORDER BY created_at, subject
		LIMIT 1`, accountID, provider,
	).Scan(&subject)
	if isNoRows(err) || pgCode(err) == codeInvalidText {
		return "", repository.ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return subject, nil
}

func saveAccount(ctx context.Context, q querier, acc *repository.Account) error {
	var updated time.Time
	err := q.QueryRow(ctx, `
		UPDATE account
		SET name = $2, email = $3, status = $4, picture_file_id = $5::uuid, last_login_at = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`,
		acc.ID, acc.Name, acc.Email, string(acc.Status), nullIfEmpty(acc.PictureFileID), acc.LastLoginAt,
	).Scan(&updated)
	if isNoRows(err) {
		return repository.ErrNotFound
	}
	if err != nil {
		switch pgCode(err) {
		case codeForeignKeyViolation:
			return fmt.Errorf("%w: unknown picture file", repository.ErrInvalidInput)
		case codeInvalidText:
			return repository.ErrInvalidInput
		}
		return fmt.Errorf("update account: %w", err)
	}
	acc.UpdatedAt = updated
	return nil
}

func linkSubject(ctx context.Context, q querier, accountID, provider, subject string) error {
	var owner string
	err := q.QueryRow(ctx,
		`SELECT account_id::text FROM external_auth WHERE provider = $1 AND subject = $2`,
		provider, subject,
	).Scan(&owner)
	switch {
	case err == nil && owner == accountID:
		return nil
	case err == nil:
		return repository.ErrConflict
	case !isNoRows(err):
		return err
	}

	_, err = q.Exec(ctx, `
		INSERT INTO external_auth (provider, subject, account_id)
		VALUES ($1, $2, $3)`, provider, subject, accountID)
	if err == nil {
		return nil
	}
	switch pgCode(err) {
	case codeUniqueViolation:
		return repository.ErrConflict
	case codeForeignKeyViolation, codeInvalidText:
		return repository.ErrNotFound
	}
	return fmt.Errorf("insert external_auth: %w", err)
}
