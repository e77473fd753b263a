package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dropDatabas3/hellocoop/internal/domain/repository"
)

type accountRepo struct {
	db *sql.DB
}

const accountColumns = `a.id, a.name, a.email, a.status, a.picture_file_id, a.created_at, a.updated_at, a.last_login_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*repository.Account, error) {
	var (
		acc                  repository.Account
		status               string
		picture              sql.NullString
		createdAt, updatedAt int64
		lastLogin            sql.NullInt64
	)
	err := row.Scan(&acc.ID, &acc.Name, &acc.Email, &status, &picture, &createdAt, &updatedAt, &lastLogin)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	acc.Status = repository.AccountStatus(status)
	acc.PictureFileID = picture.String
	acc.CreatedAt = fromMillis(createdAt)
	acc.UpdatedAt = fromMillis(updatedAt)
	if lastLogin.Valid {
		t := fromMillis(lastLogin.Int64)
		acc.LastLoginAt = &t
	}
	return &acc, nil
}

func (r *accountRepo) GetByID(ctx context.Context, id string) (*repository.Account, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM account a WHERE a.id = ?`, id)
	return scanAccount(row)
}

func (r *accountRepo) GetBySubject(ctx context.Context, provider, subject string) (*repository.Account, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+accountColumns+`
		FROM external_auth x
		JOIN account a ON a.id = x.account_id
		WHERE x.provider = ? AND x.subject = ?`, provider, subject)
	return scanAccount(row)
}

func (r *accountRepo) GetByEmail(ctx context.Context, email string) (*repository.Account, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, repository.ErrNotFound
	}
	row := r.db.QueryRowContext(ctx, `
		SELECT `+accountColumns+`
		FROM account a
		WHERE lower(a.email) = lower(?)
		ORDER BY a.created_at, a.id
		LIMIT 1`, email)
	return scanAccount(row)
}

func (r *accountRepo) Create(ctx context.Context, in repository.CreateAccountInput) (*repository.Account, error) {
	status := in.Status
	if status == "" {
		status = repository.AccountActive
	}
	now := time.Now().UTC().Truncate(time.Millisecond)
	acc := &repository.Account{
		ID:            uuid.NewString(),
		Name:          in.Name,
		Email:         in.Email,
		Status:        status,
		PictureFileID: in.PictureFileID,
		CreatedAt:     now,
		UpdatedAt:     now,
		LastLoginAt:   in.LastLoginAt,
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO account (id, name, email, status, picture_file_id, created_at, updated_at, last_login_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		acc.ID, acc.Name, acc.Email, string(acc.Status), nullIfEmpty(acc.PictureFileID),
		toMillis(now), toMillis(now), nullMillis(acc.LastLoginAt),
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, fmt.Errorf("%w: unknown picture file", repository.ErrInvalidInput)
		}
		return nil, fmt.Errorf("insert account: %w", err)
	}

	if in.Subject != "" {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO external_auth (provider, subject, account_id, created_at)
			VALUES (?, ?, ?, ?)`, in.Provider, in.Subject, acc.ID, toMillis(now))
		if err != nil {
			if isUniqueViolation(err) {
				return nil, repository.ErrConflict
			}
			return nil, fmt.Errorf("insert external_auth: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		if isUniqueViolation(err) {
			return nil, repository.ErrConflict
		}
		return nil, err
	}
	return acc, nil
}

// dbtx lo cumplen *sql.DB y *sql.Tx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (r *accountRepo) Save(ctx context.Context, acc *repository.Account) error {
	if acc == nil || acc.ID == "" {
		return repository.ErrInvalidInput
	}
	return saveAccount(ctx, r.db, acc)
}

func (r *accountRepo) LinkSubject(ctx context.Context, accountID, provider, subject string) error {
	return linkSubject(ctx, r.db, accountID, provider, subject)
}

// SaveAndLink guarda la cuenta y agrega el mapping en una sola transacción.
func (r *accountRepo) SaveAndLink(ctx context.Context, acc *repository.Account, provider, subject string) error {
	if acc == nil || acc.ID == "" {
		return repository.ErrInvalidInput
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	updated := *acc
	if err := saveAccount(ctx, tx, &updated); err != nil {
		return err
	}
	if err := linkSubject(ctx, tx, acc.ID, provider, subject); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		if isUniqueViolation(err) {
			return repository.ErrConflict
		}
		return err
	}
	acc.UpdatedAt = updated.UpdatedAt
	return nil
}

func (r *accountRepo) SubjectFor(ctx context.Context, accountID, provider string) (string, error) {
	var subject string
	err := r.db.QueryRowContext(ctx, `
		SELECT subject FROM external_auth
		WHERE account_id = ? AND provider = ?
		ORDER BY created_at, subject
		LIMIT 1`, accountID, provider,
	).Scan(&subject)
	if errors.Is(err, sql.ErrNoRows) {
		return "", repository.ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return subject, nil
}

func saveAccount(ctx context.Context, q dbtx, acc *repository.Account) error {
	now := time.Now().UTC().Truncate(time.Millisecond)
	res, err := q.ExecContext(ctx, `
		UPDATE account
		SET name = ?, email = ?, status = ?, picture_file_id = ?, last_login_at = ?, updated_at = ?
		WHERE id = ?`,
		acc.Name, acc.Email, string(acc.Status), nullIfEmpty(acc.PictureFileID),
		nullMillis(acc.LastLoginAt), toMillis(now), acc.ID,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: unknown picture file", repository.ErrInvalidInput)
		}
		return fmt.Errorf("update account: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	acc.UpdatedAt = now
	return nil
}

func linkSubject(ctx context.Context, q dbtx, accountID, provider, subject string) error {
	var owner string
	err := q.QueryRowContext(ctx,
		`SELECT account_id FROM external_auth WHERE provider = ? AND subject = ?`, provider, subject,
	).Scan(&owner)
	switch {
	case err == nil && owner == accountID:
		return nil
	case err == nil:
		return repository.ErrConflict
	case !errors.Is(err, sql.ErrNoRows):
		return err
	}

	_, err = q.ExecContext(ctx, `
		INSERT INTO external_auth (provider, subject, account_id, created_at)
		VALUES (?, ?, ?, ?)`, provider, subject, accountID, toMillis(time.Now()))
	switch {
	case err == nil:
		return nil
	case isUniqueViolation(err):
		return repository.ErrConflict
	case isForeignKeyViolation(err):
		return repository.ErrNotFound
	default:
		return fmt.Errorf("insert external_auth: %w", err)
	}
}
