package pg

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/hellocoop/internal/domain/repository"
)

type fileRepo struct {
	pool *pgxpool.Pool
}

func (r *fileRepo) Create(ctx context.Context, in repository.CreateFileInput) (*repository.File, error) {
	if strings.TrimSpace(in.URI) == "" {
		return nil, repository.ErrInvalidInput
	}
	f := &repository.File{URI: in.URI, Size: in.Size, MimeType: in.MimeType}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO file (id, uri, size, mime_type)
		VALUES (gen_random_uuid(), $1, $2, $3)
		RETURNING id::text, created_at`, f.URI, f.Size, f.MimeType,
	).Scan(&f.ID, &f.CreatedAt)
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (r *fileRepo) GetByID(ctx context.Context, id string) (*repository.File, error) {
	var f repository.File
	err := r.pool.QueryRow(ctx,
		`SELECT id::text, uri, size, mime_type, created_at FROM file WHERE id = $1`, id,
	).Scan(&f.ID, &f.URI, &f.Size, &f.MimeType, &f.CreatedAt)
	if isNoRows(err) || pgCode(err) == codeInvalidText {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}
