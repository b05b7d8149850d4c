package database

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

type DB struct {
	*sql.DB
	Dialect Dialect
}

// NewConnection opens the relational database named by databaseURL.
// postgres:// and postgresql:// URLs go to Postgres, sqlite:// URLs and bare
// file paths go to SQLite.
func NewConnection(databaseURL string) (*DB, error) {
	dialect, dsn, err := parseDatabaseURL(databaseURL)
	if err != nil {
		return nil, err
	}

	sqlDB, err := sql.Open(string(dialect), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	switch dialect {
	case DialectSQLite:
		// SQLite allows a single writer; serialize through one connection.
		sqlDB.SetMaxOpenConns(1)
	case DialectPostgres:
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(5)
		sqlDB.SetConnMaxLifetime(5 * time.Minute)
	}

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{DB: sqlDB, Dialect: dialect}, nil
}

func parseDatabaseURL(databaseURL string) (Dialect, string, error) {
	databaseURL = strings.TrimSpace(databaseURL)

	switch {
	case databaseURL == "":
		return "", "", fmt.Errorf("%w: empty", ErrUnsupportedDatabase)
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		return DialectPostgres, databaseURL, nil
	case strings.Contains(databaseURL, "://") && !strings.HasPrefix(databaseURL, "sqlite://"):
		return "", "", fmt.Errorf("%w: %s", ErrUnsupportedDatabase, databaseURL[:strings.Index(databaseURL, "://")])
	}

	path := strings.TrimPrefix(databaseURL, "sqlite://")
	if path == "" {
		return "", "", fmt.Errorf("%w: missing sqlite path", ErrUnsupportedDatabase)
	}

	separator := "?"
	if strings.Contains(path, "?") {
		separator = "&"
	}
	return DialectSQLite, path + separator + "_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", nil
}

// Rebind rewrites ? placeholders to $N for Postgres.
func (db *DB) Rebind(query string) string {
	if db.Dialect != DialectPostgres {
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
