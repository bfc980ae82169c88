// Package storage elige el adapter de persistencia a partir de DATABASE_URL.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"

	"petstore/internal/adapters/storage/memory"
	"petstore/internal/adapters/storage/postgres"
	"petstore/internal/adapters/storage/sqlite"
	"petstore/internal/domain/pets"
	"petstore/internal/platform/logger"
)

type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
	DriverMemory   Driver = "memory"
)

// Target es DATABASE_URL ya interpretada.
type Target struct {
	Driver Driver
	// DSN para el driver: path de sqlite o connection string de postgres.
	DSN string
}

// ParseURL acepta el formato de URL estilo SQLAlchemy:
//
//	sqlite:///relative.db   sqlite:////abs/path.db   sqlite:// (memoria)
//	postgres://...          postgresql://...         postgresql+psycopg2://...
//	memory://
func ParseURL(raw string) (Target, error) {
	raw = strings.TrimSpace(raw)
	scheme, rest, ok := strings.Cut(raw, "://")
	if !ok {
		return Target{}, fmt.Errorf("storage: invalid DATABASE_URL %q", raw)
	}

	// postgresql+psycopg2 -> postgresql
	scheme, _, _ = strings.Cut(strings.ToLower(scheme), "+")

	switch scheme {
	case "sqlite", "sqlite3":
		path := strings.TrimPrefix(rest, "/")
		if i := strings.IndexByte(path, '?'); i >= 0 {
			path = path[:i]
		}
		if path == "" {
			path = sqlite.MemoryPath
		}
		return Target{Driver: DriverSQLite, DSN: path}, nil

	case "postgres", "postgresql":
		dsn := "postgres://" + rest
		if _, err := url.Parse(dsn); err != nil {
			return Target{}, fmt.Errorf("storage: invalid postgres url: %w", err)
		}
		return Target{Driver: DriverPostgres, DSN: dsn}, nil

	case "memory":
		return Target{Driver: DriverMemory}, nil

	default:
		return Target{}, fmt.Errorf("storage: unsupported scheme %q", scheme)
	}
}

type Options struct {
	URL      string
	MaxConns int32
	Log      logger.Logger
}

// Store agrupa el repo de pets con el ciclo de vida de la conexión.
// Implementa health.Pinger.
type Store struct {
	Pets   pets.Repository
	Driver Driver

	ping  func(ctx context.Context) error
	close func()
}

func (s *Store) Ping(ctx context.Context) error { return s.ping(ctx) }

func (s *Store) DriverName() string { return string(s.Driver) }

func (s *Store) Close() {
	if s.close != nil {
		s.close()
	}
}

// Open conecta, aplica migraciones y arma el repo correspondiente.
func Open(ctx context.Context, opts Options) (*Store, error) {
	target, err := ParseURL(opts.URL)
	if err != nil {
		return nil, err
	}

	log := opts.Log
	if log == nil {
		log = logger.Nop()
	}
	log = log.With(map[string]any{"driver": string(target.Driver)})

	switch target.Driver {
	case DriverSQLite:
		db, err := sqlite.Open(ctx, sqlite.Config{Path: target.DSN})
		if err != nil {
			return nil, err
		}
		version, err := sqlite.ApplyMigrations(ctx, db)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		log.Info("database ready", map[string]any{"path": target.DSN, "schema_version": version})

		return &Store{
			Pets:   sqlite.NewPetsRepo(db),
			Driver: DriverSQLite,
			ping:   sqlPing(db),
			close:  func() { _ = db.Close() },
		}, nil

	case DriverPostgres:
		version, err := postgres.ApplyMigrations(ctx, target.DSN)
		if err != nil {
			return nil, err
		}
		pool, err := postgres.Open(ctx, target.DSN, opts.MaxConns)
		if err != nil {
			return nil, err
		}
		log.Info("database ready", map[string]any{"max_conns": pool.Config().MaxConns, "schema_version": version})

		return &Store{
			Pets:   postgres.NewPetsRepo(pool),
			Driver: DriverPostgres,
			ping:   pool.Ping,
			close:  pool.Close,
		}, nil

	default:
		repo := memory.NewPetRepo()
		log.Warn("using in-memory storage, data is lost on restart", nil)

		return &Store{
			Pets:   repo,
			Driver: DriverMemory,
			ping:   repo.Ping,
		}, nil
	}
}

func sqlPing(db *sql.DB) func(ctx context.Context) error {
	return db.PingContext
}
