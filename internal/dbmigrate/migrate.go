package dbmigrate

import (
	"context"
	"fmt"
	"strings"
	"time"

	"petstore/internal/platform/logger"

	"github.com/jackc/pgx/v5"
)

// Source es de donde salen tablas y filas.
type Source interface {
	Tables(ctx context.Context) ([]string, error)
	Describe(ctx context.Context, table string) (Table, error)
	Rows(ctx context.Context, t Table) ([][]any, error)
}

// TxStarter es el destino PostgreSQL (*pgx.Conn, *pgxpool.Pool o pgxmock).
type TxStarter interface {
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

var _ TxStarter = (*pgx.Conn)(nil)

// DefaultSkip es la tabla de versiones de goose: el destino lleva la suya.
var DefaultSkip = []string{"goose_db_version"}

type Options struct {
	// Skip son tablas a ignorar (case-insensitive).
	Skip []string
	Log  logger.Logger
}

type TableResult struct {
	Name string
	Rows int64
}

type Report struct {
	Tables   []TableResult
	Duration time.Duration
}

// Run migra tabla por tabla, cada una en su propia transacción.
// Corta en el primer error; las tablas ya migradas quedan commiteadas.
func Run(ctx context.Context, src Source, dst TxStarter, opts Options) (Report, error) {
	log := opts.Log
	if log == nil {
		log = logger.Nop()
	}
	start := time.Now()

	tables, err := src.Tables(ctx)
	if err != nil {
		return Report{}, err
	}
	tables = without(tables, opts.Skip)
	log.Info("found tables", map[string]any{"tables": strings.Join(tables, ",")})

	var report Report
	for _, name := range tables {
		tlog := log.With(map[string]any{"table": name})
		tlog.Info("migrating table", nil)

		t, err := src.Describe(ctx, name)
		if err != nil {
			return report, err
		}
		rows, err := src.Rows(ctx, t)
		if err != nil {
			return report, err
		}

		n, err := copyTable(ctx, dst, t, rows, tlog)
		if err != nil {
			tlog.Error("table migration failed", map[string]any{"error": err.Error()})
			return report, err
		}
		report.Tables = append(report.Tables, TableResult{Name: name, Rows: n})
		tlog.Info("table migrated", map[string]any{"rows": n})
	}

	report.Duration = time.Since(start)
	log.Info("migration completed", map[string]any{
		"tables":   len(report.Tables),
		"duration": report.Duration.String(),
	})
	return report, nil
}

func copyTable(ctx context.Context, dst TxStarter, t Table, rows [][]any, log logger.Logger) (n int64, err error) {
	tx, err := dst.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, fmt.Errorf("dbmigrate: begin transaction for %s: %w", t.Name, err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback(ctx)
		}
	}()

	ddl := t.CreateSQL()
	log.Debug("create table", map[string]any{"sql": ddl})
	if _, err := tx.Exec(ctx, ddl); err != nil {
		return 0, fmt.Errorf("dbmigrate: create %s: %w", t.Name, err)
	}

	if len(rows) > 0 {
		for _, row := range rows {
			for i, c := range t.Columns {
				row[i] = normalize(c, row[i])
			}
		}

		n, err = tx.CopyFrom(ctx, pgx.Identifier{t.Name}, t.ColumnNames(), pgx.CopyFromRows(rows))
		if err != nil {
			return 0, fmt.Errorf("dbmigrate: copy into %s: %w", t.Name, err)
		}

		// los ids copiados explícitamente no avanzan la secuencia identity
		if id, ok := t.IdentityColumn(); ok {
			if _, err := tx.Exec(ctx, setvalSQL(t, id), pgx.Identifier{t.Name}.Sanitize(), id.Name); err != nil {
				return 0, fmt.Errorf("dbmigrate: bump sequence of %s: %w", t.Name, err)
			}
		}
	} else {
		log.Info("no data to insert", nil)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("dbmigrate: commit %s: %w", t.Name, err)
	}
	committed = true
	return n, nil
}

func setvalSQL(t Table, id Column) string {
	return "SELECT setval(pg_get_serial_sequence($1, $2), MAX(" + pgx.Identifier{id.Name}.Sanitize() + ")) FROM " +
		pgx.Identifier{t.Name}.Sanitize()
}

func without(tables, skip []string) []string {
	if len(skip) == 0 {
		return tables
	}
	drop := make(map[string]bool, len(skip))
	for _, s := range skip {
		drop[strings.ToLower(strings.TrimSpace(s))] = true
	}
	out := make([]string, 0, len(tables))
	for _, t := range tables {
		if !drop[strings.ToLower(t)] {
			out = append(out, t)
		}
	}
	return out
}
