package database

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib" // Postgres driver ("pgx")
	_ "modernc.org/sqlite"             // SQLite driver ("sqlite")
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// DB is a connection pool that remembers which SQL dialect it speaks.
type DB struct {
	*sql.DB
	Driver string
}

// New creates a new database connection pool for the given driver
// ("sqlite" or "postgres") and verifies it with a ping.
func New(driver, dataSourceName string) (*DB, error) {
	var (
		db  *sql.DB
		err error
	)
	switch driver {
	case DriverSQLite:
		db, err = sql.Open("sqlite", sqliteDSN(dataSourceName))
	case DriverPostgres:
		db, err = sql.Open("pgx", dataSourceName)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
	if err != nil {
		return nil, err
	}
	if err = db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	return &DB{DB: db, Driver: driver}, nil
}

// sqliteDSN turns on foreign key enforcement and a busy timeout so
// concurrent writers wait instead of failing with SQLITE_BUSY.
func sqliteDSN(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

// Rebind rewrites '?' placeholders into the dialect's bind syntax.
func (db *DB) Rebind(query string) string {
	if db.Driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
