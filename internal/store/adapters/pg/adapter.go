// Package pg implementa el directorio de cuentas sobre PostgreSQL.
// Usa pgxpool directamente; las migraciones corren sobre database/sql vía
// pgx/stdlib para compartir el runner con SQLite.
package pg

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/dropDatabas3/hellocoop/internal/domain/repository"
	"github.com/dropDatabas3/hellocoop/internal/store"
	migrations "github.com/dropDatabas3/hellocoop/migrations/postgres"
)

func init() {
	store.RegisterAdapter(&postgresAdapter{})
}

// nullIfEmpty devuelve nil si el string está vacío.
func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// postgresAdapter implementa store.Adapter para PostgreSQL.
type postgresAdapter struct{}

func (a *postgresAdapter) Name() string { return "postgres" }

func (a *postgresAdapter) Connect(ctx context.Context, cfg store.AdapterConfig) (store.Connection, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, fmt.Errorf("pg: DSN is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("pg: parse DSN: %w", err)
	}

	// Configurar pool
	if cfg.MaxOpenConns > 0 {
		poolCfg.MaxConns = int32(cfg.MaxOpenConns)
	} else {
		poolCfg.MaxConns = 10
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("pg: create pool: %w", err)
	}

	// Verificar conexión
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pg: ping failed: %w", err)
	}

	db := stdlib.OpenDBFromPool(pool)
	_, err = store.NewMigrator(migrations.FS, migrations.Dir).Run(ctx, db, "postgres")
	_ = db.Close()
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("pg: migrate: %w", err)
	}

	return &pgConnection{pool: pool}, nil
}

// pgConnection representa una conexión activa a PostgreSQL.
type pgConnection struct {
	pool *pgxpool.Pool
}

func (c *pgConnection) Name() string                   { return "postgres" }
func (c *pgConnection) Ping(ctx context.Context) error { return c.pool.Ping(ctx) }

func (c *pgConnection) Close() error {
	c.pool.Close()
	return nil
}

func (c *pgConnection) Accounts() repository.AccountRepository { return &accountRepo{pool: c.pool} }
func (c *pgConnection) Files() repository.FileRepository       { return &fileRepo{pool: c.pool} }

// ─── errores ───

const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeInvalidText         = "22P02"
)

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func isNoRows(err error) bool { return errors.Is(err, pgx.ErrNoRows) }
