package store

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"sort"
	"strconv"
	"time"
)

// Las migraciones se embeben en el binario (ver migrations/).
// Formato de archivo: {version}_{name}.sql (ej: 0001_init.sql).

// Migrator aplica migraciones SQL en orden de versión.
type Migrator struct {
	migrationsFS  fs.FS
	migrationsDir string
}

// NewMigrator crea un Migrator sobre dir dentro de fsys.
func NewMigrator(fsys fs.FS, dir string) *Migrator {
	return &Migrator{migrationsFS: fsys, migrationsDir: dir}
}

// Migration es un archivo de migración parseado.
type Migration struct {
	Version int
	Name    string
	SQL     string
}

// MigrationResult resume una corrida.
type MigrationResult struct {
	Applied  []int
	Skipped  []int
	Duration time.Duration
}

// SQLExecutor abstrae *sql.DB y *sql.Tx.
type SQLExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

var migrationFilePattern = regexp.MustCompile(`^(\d+)_(.+)\.sql$`)

// ParseMigrations lee las migraciones ordenadas por versión.
func (m *Migrator) ParseMigrations() ([]Migration, error) {
	entries, err := fs.ReadDir(m.migrationsFS, m.migrationsDir)
	if err != nil {
		return nil, fmt.Errorf("read migrations dir: %w", err)
	}

	var out []Migration
	seen := make(map[int]string)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		matches := migrationFilePattern.FindStringSubmatch(e.Name())
		if matches == nil {
			continue
		}
		version, _ := strconv.Atoi(matches[1])
		if prev, dup := seen[version]; dup {
			return nil, fmt.Errorf("duplicate migration version %d (%s, %s)", version, prev, e.Name())
		}
		seen[version] = e.Name()

		content, err := fs.ReadFile(m.migrationsFS, path.Join(m.migrationsDir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", e.Name(), err)
		}
		out = append(out, Migration{Version: version, Name: matches[2], SQL: string(content)})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

// Run aplica las migraciones pendientes, cada una en su transacción.
// driver decide el dialecto de la tabla de tracking y de los placeholders
// ("postgres" o "sqlite").
func (m *Migrator) Run(ctx context.Context, db *sql.DB, driver string) (*MigrationResult, error) {
	start := time.Now()
	result := &MigrationResult{}

	if err := ensureMigrationsTable(ctx, db, driver); err != nil {
		return result, fmt.Errorf("creating migrations table: %w", err)
	}

	applied, err := appliedVersions(ctx, db)
	if err != nil {
		return result, fmt.Errorf("getting applied migrations: %w", err)
	}

	migrations, err := m.ParseMigrations()
	if err != nil {
		return result, fmt.Errorf("parsing migrations: %w", err)
	}

	insert := "INSERT INTO _migrations (version, name) VALUES (?, ?)"
	if driver == "postgres" {
		insert = "INSERT INTO _migrations (version, name) VALUES ($1, $2)"
	}

	for _, mig := range migrations {
		if applied[mig.Version] {
			result.Skipped = append(result.Skipped, mig.Version)
			continue
		}
		if err := applyMigration(ctx, db, insert, mig); err != nil {
			return result, fmt.Errorf("applying migration %d_%s: %w", mig.Version, mig.Name, err)
		}
		result.Applied = append(result.Applied, mig.Version)
	}

	result.Duration = time.Since(start)
	return result, nil
}

func applyMigration(ctx context.Context, db *sql.DB, insert string, mig Migration) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, mig.SQL); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, insert, mig.Version, mig.Name); err != nil {
		return err
	}
	return tx.Commit()
}

func ensureMigrationsTable(ctx context.Context, exec SQLExecutor, driver string) error {
	createSQL := `
		CREATE TABLE IF NOT EXISTS _migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`
	if driver == "postgres" {
		createSQL = `
			CREATE TABLE IF NOT EXISTS _migrations (
				version INT PRIMARY KEY,
				name VARCHAR(255) NOT NULL,
				applied_at TIMESTAMPTZ DEFAULT NOW()
			)`
	}
	_, err := exec.ExecContext(ctx, createSQL)
	return err
}

func appliedVersions(ctx context.Context, exec SQLExecutor) (map[int]bool, error) {
	rows, err := exec.QueryContext(ctx, "SELECT version FROM _migrations")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	applied := make(map[int]bool)
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		applied[v] = true
	}
	return applied, rows.Err()
}
