package storage

import (
	"database/sql"
	"strconv"
	"strings"
)

// dialect captures the few places where SQLite and PostgreSQL SQL differ.
// Queries are written with ? placeholders and rebound per dialect.
type dialect struct {
	name        string
	dollarBinds bool
	forUpdate   string // row lock suffix for SELECT inside a unit of work
	likeOp      string // case-insensitive LIKE
	snapshot    *sql.TxOptions
}

var (
	sqliteDialect = dialect{
		name: "sqlite",
		// The write lock is taken by BEGIN IMMEDIATE (_txlock=immediate).
		forUpdate: "",
		likeOp:    "LIKE",
	}
	postgresDialect = dialect{
		name:        "postgres",
		dollarBinds: true,
		forUpdate:   " FOR UPDATE",
		likeOp:      "ILIKE",
		snapshot:    &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true},
	}
)

// rebind rewrites ? placeholders to $1, $2, ... for PostgreSQL.
// Queries in this package never contain a literal question mark.
func (d dialect) rebind(query string) string {
	if !d.dollarBinds {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

// escapeLike escapes LIKE wildcards in user input; queries use ESCAPE '\'.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}
