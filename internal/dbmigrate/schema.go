// Package dbmigrate copia tablas y filas de una base SQLite a PostgreSQL.
package dbmigrate

import (
	"strings"

	"github.com/jackc/pgx/v5"
)

// SQLite (afinidad declarada) -> PostgreSQL.
var typeMap = map[string]string{
	"INTEGER":   "INTEGER",
	"INT":       "INTEGER",
	"BIGINT":    "BIGINT",
	"SMALLINT":  "SMALLINT",
	"TEXT":      "TEXT",
	"REAL":      "REAL",
	"FLOAT":     "DOUBLE PRECISION",
	"DOUBLE":    "DOUBLE PRECISION",
	"BLOB":      "BYTEA",
	"BOOLEAN":   "BOOLEAN",
	"DATETIME":  "TIMESTAMP",
	"TIMESTAMP": "TIMESTAMP",
	"DATE":      "DATE",
	"TIME":      "TIME",
	"NUMERIC":   "NUMERIC",
	"DECIMAL":   "NUMERIC",
	"VARCHAR":   "VARCHAR",
	"CHAR":      "CHAR",
}

// Solo estos tipos de PostgreSQL aceptan modificador; en el resto "(n)" rompe el DDL.
var sizedTypes = map[string]bool{
	"VARCHAR": true,
	"CHAR":    true,
	"NUMERIC": true,
}

// MapType traduce un tipo declarado en SQLite ("varchar(50)", "FLOAT", "")
// a su equivalente en PostgreSQL. Lo desconocido termina en TEXT.
func MapType(declared string) string {
	base, size := splitType(declared)
	pg, ok := typeMap[base]
	if !ok {
		return "TEXT"
	}
	if size != "" && sizedTypes[pg] {
		return pg + "(" + size + ")"
	}
	return pg
}

func splitType(declared string) (base, size string) {
	declared = strings.TrimSpace(declared)
	base = declared
	if open := strings.IndexByte(declared, '('); open >= 0 {
		base = declared[:open]
		if end := strings.IndexByte(declared[open:], ')'); end > 0 {
			size = strings.ReplaceAll(declared[open+1:open+end], " ", "")
		}
	}
	return strings.ToUpper(strings.TrimSpace(base)), size
}

// Column es una fila de PRAGMA table_info.
type Column struct {
	Name     string
	Declared string
	NotNull  bool
	// PK es la posición dentro de la primary key (0 = no forma parte).
	PK int
}

// PGType es el tipo destino ya mapeado.
func (c Column) PGType() string { return MapType(c.Declared) }

type Table struct {
	Name    string
	Columns []Column
}

func (t Table) ColumnNames() []string {
	out := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = c.Name
	}
	return out
}

func (t Table) primaryKey() []Column {
	var pk []Column
	for _, c := range t.Columns {
		if c.PK > 0 {
			pk = append(pk, c)
		}
	}
	// en el orden de la clave, no el de la tabla
	for i := 1; i < len(pk); i++ {
		for j := i; j > 0 && pk[j].PK < pk[j-1].PK; j-- {
			pk[j], pk[j-1] = pk[j-1], pk[j]
		}
	}
	return pk
}

// IdentityColumn devuelve la PK entera simple, que en PostgreSQL pasa a ser
// identity para que los inserts posteriores sigan generando ids.
func (t Table) IdentityColumn() (Column, bool) {
	pk := t.primaryKey()
	if len(pk) != 1 {
		return Column{}, false
	}
	switch pk[0].PGType() {
	case "INTEGER", "BIGINT", "SMALLINT":
		return pk[0], true
	}
	return Column{}, false
}

// CreateSQL arma el CREATE TABLE IF NOT EXISTS para PostgreSQL.
// No se copian DEFAULT ni CHECK: su sintaxis en SQLite no siempre es válida en PostgreSQL.
func (t Table) CreateSQL() string {
	identity, hasIdentity := t.IdentityColumn()
	pk := t.primaryKey()

	defs := make([]string, 0, len(t.Columns)+1)
	for _, c := range t.Columns {
		name := pgx.Identifier{c.Name}.Sanitize()

		switch {
		case hasIdentity && c.Name == identity.Name:
			defs = append(defs, name+" BIGINT GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY")
			continue
		case len(pk) == 1 && c.PK > 0:
			defs = append(defs, name+" "+c.PGType()+" PRIMARY KEY")
			continue
		}

		def := name + " " + c.PGType()
		if c.NotNull {
			def += " NOT NULL"
		}
		defs = append(defs, def)
	}

	if len(pk) > 1 {
		names := make([]string, len(pk))
		for i, c := range pk {
			names[i] = pgx.Identifier{c.Name}.Sanitize()
		}
		defs = append(defs, "PRIMARY KEY ("+strings.Join(names, ", ")+")")
	}

	return "CREATE TABLE IF NOT EXISTS " + pgx.Identifier{t.Name}.Sanitize() +
		" (" + strings.Join(defs, ", ") + ")"
}

// normalize adapta lo que devuelve el driver de SQLite a lo que espera la
// columna destino (SQLite guarda booleanos como enteros y texto como bytes).
func normalize(c Column, v any) any {
	switch x := v.(type) {
	case []byte:
		if c.PGType() == "BYTEA" {
			return x
		}
		return string(x)
	case int64:
		base, _ := splitType(c.PGType())
		switch base {
		case "BOOLEAN":
			return x != 0
		case "DOUBLE PRECISION", "REAL", "NUMERIC":
			return float64(x)
		}
	}
	return v
}
