package dbmigrate

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"petstore/internal/adapters/storage/sqlite"
)

// SQLiteSource lee esquema y filas de una base SQLite.
type SQLiteSource struct {
	db    *sql.DB
	owned bool
}

var _ Source = (*SQLiteSource)(nil)

func NewSQLiteSource(db *sql.DB) *SQLiteSource {
	return &SQLiteSource{db: db}
}

// OpenSQLiteSource abre el archivo en solo lectura; falla si no existe.
func OpenSQLiteSource(ctx context.Context, path string) (*SQLiteSource, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("dbmigrate: empty sqlite path")
	}
	db, err := sqlite.Open(ctx, sqlite.Config{Path: path, ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("dbmigrate: open source: %w", err)
	}
	return &SQLiteSource{db: db, owned: true}, nil
}

func (s *SQLiteSource) Close() error {
	if !s.owned {
		return nil
	}
	return s.db.Close()
}

// Tables lista las tablas de usuario ordenadas por nombre (sin las sqlite_* internas).
func (s *SQLiteSource) Tables(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite\_%' ESCAPE '\' ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("dbmigrate: list tables: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("dbmigrate: scan table name: %w", err)
		}
		out = append(out, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("dbmigrate: list tables: %w", err)
	}
	return out, nil
}

func (s *SQLiteSource) Describe(ctx context.Context, table string) (Table, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, type, "notnull", pk FROM pragma_table_info(?) ORDER BY cid`, table)
	if err != nil {
		return Table{}, fmt.Errorf("dbmigrate: describe %s: %w", table, err)
	}
	defer rows.Close()

	t := Table{Name: table}
	for rows.Next() {
		var c Column
		if err := rows.Scan(&c.Name, &c.Declared, &c.NotNull, &c.PK); err != nil {
			return Table{}, fmt.Errorf("dbmigrate: scan column of %s: %w", table, err)
		}
		t.Columns = append(t.Columns, c)
	}
	if err := rows.Err(); err != nil {
		return Table{}, fmt.Errorf("dbmigrate: describe %s: %w", table, err)
	}
	if len(t.Columns) == 0 {
		return Table{}, fmt.Errorf("dbmigrate: table %s not found", table)
	}
	return t, nil
}

// Rows devuelve todas las filas en el orden de t.Columns.
func (s *SQLiteSource) Rows(ctx context.Context, t Table) ([][]any, error) {
	cols := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		cols[i] = quoteSQLite(c.Name)
	}
	q := "SELECT " + strings.Join(cols, ", ") + " FROM " + quoteSQLite(t.Name)

	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("dbmigrate: read %s: %w", t.Name, err)
	}
	defer rows.Close()

	var out [][]any
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("dbmigrate: scan row of %s: %w", t.Name, err)
		}
		out = append(out, vals)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("dbmigrate: read %s: %w", t.Name, err)
	}
	return out, nil
}

func quoteSQLite(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}
