package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dropDatabas3/hellocoop/internal/domain/repository"
)

type fileRepo struct {
	db *sql.DB
}

func (r *fileRepo) Create(ctx context.Context, in repository.CreateFileInput) (*repository.File, error) {
	if strings.TrimSpace(in.URI) == "" {
		return nil, repository.ErrInvalidInput
	}
	f := &repository.File{
		ID:        uuid.NewString(),
		URI:       in.URI,
		Size:      in.Size,
		MimeType:  in.MimeType,
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO file (id, uri, size, mime_type, created_at) VALUES (?, ?, ?, ?, ?)`,
		f.ID, f.URI, f.Size, f.MimeType, toMillis(f.CreatedAt),
	)
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (r *fileRepo) GetByID(ctx context.Context, id string) (*repository.File, error) {
	var (
		f         repository.File
		createdAt int64
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, uri, size, mime_type, created_at FROM file WHERE id = ?`, id,
	).Scan(&f.ID, &f.URI, &f.Size, &f.MimeType, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	f.CreatedAt = fromMillis(createdAt)
	return &f, nil
}
