// Package sqlite es el adapter de storage embebido (modernc.org/sqlite, sin cgo).
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const MemoryPath = ":memory:"

type Config struct {
	// Path del archivo o ":memory:".
	Path string

	// BusyTimeout vía PRAGMA busy_timeout.
	BusyTimeout time.Duration

	// ReadOnly abre con mode=ro (el archivo tiene que existir).
	ReadOnly bool
}

// Open abre la base con una sola conexión: SQLite serializa las escrituras
// y con un pool de 1 las requests concurrentes esperan su turno en database/sql.
// Con ":memory:" la única conexión es además la que mantiene viva la base.
func Open(ctx context.Context, cfg Config) (*sql.DB, error) {
	db, err := sql.Open("sqlite", buildDSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: ping: %w", err)
	}

	return db, nil
}

func buildDSN(cfg Config) string {
	busy := cfg.BusyTimeout
	if busy <= 0 {
		busy = 5 * time.Second
	}

	pragmas := []string{
		fmt.Sprintf("_pragma=busy_timeout(%d)", busy.Milliseconds()),
		"_pragma=foreign_keys(ON)",
	}

	path := strings.TrimSpace(cfg.Path)
	if path == "" || path == MemoryPath {
		return "file::memory:?" + strings.Join(pragmas, "&")
	}
	if cfg.ReadOnly {
		return "file:" + path + "?mode=ro&" + strings.Join(pragmas, "&")
	}
	// WAL no aplica a memoria
	pragmas = append(pragmas, "_pragma=journal_mode(WAL)")
	return "file:" + path + "?" + strings.Join(pragmas, "&")
}

// ApplyMigrations aplica las migraciones embebidas y devuelve la versión final.
func ApplyMigrations(ctx context.Context, db *sql.DB) (int64, error) {
	fsys, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return 0, fmt.Errorf("sqlite: migrations fs: %w", err)
	}

	provider, err := goose.NewProvider(goose.DialectSQLite3, db, fsys)
	if err != nil {
		return 0, fmt.Errorf("sqlite: goose provider: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return 0, fmt.Errorf("sqlite: apply migrations: %w", err)
	}

	version, err := provider.GetDBVersion(ctx)
	if err != nil {
		return 0, fmt.Errorf("sqlite: migrations version: %w", err)
	}
	return version, nil
}
