package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

type PoolOptions struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DB is the shared handle every store in this package is built on.
type DB struct {
	sql     *sql.DB
	dialect Dialect
	now     func() time.Time
}

// Open connects with the named driver and verifies the connection.
func Open(ctx context.Context, driver, dsn string, pool PoolOptions) (*DB, error) {
	dialect, err := DialectFor(driver)
	if err != nil {
		return nil, err
	}
	switch driver {
	case DriverSQLite:
		dsn = sqliteDSN(dsn)
	case DriverMySQL:
		if dsn, err = mysqlDSN(dsn); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}

	if driver == DriverSQLite {
		// a single writer avoids SQLITE_BUSY/LOCKED between pooled connections
		db.SetMaxOpenConns(1)
	} else {
		if pool.MaxOpenConns > 0 {
			db.SetMaxOpenConns(pool.MaxOpenConns)
		}
		if pool.MaxIdleConns > 0 {
			db.SetMaxIdleConns(pool.MaxIdleConns)
		}
		if pool.ConnMaxLifetime > 0 {
			db.SetConnMaxLifetime(pool.ConnMaxLifetime)
		}
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}

	return New(db, dialect), nil
}

func New(db *sql.DB, dialect Dialect) *DB {
	return &DB{
		sql:     db,
		dialect: dialect,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// SetClock overrides the timestamp source used for cart rows.
func (d *DB) SetClock(now func() time.Time) {
	d.now = func() time.Time { return now().UTC() }
}

func (d *DB) SQL() *sql.DB { return d.sql }

func (d *DB) Dialect() Dialect { return d.dialect }

func (d *DB) Ping(ctx context.Context) error { return d.sql.PingContext(ctx) }

func (d *DB) Close() error { return d.sql.Close() }

func (d *DB) q(query string) string { return d.dialect.Rebind(query) }

// sqliteDSN makes sure times are written in a format the driver parses back and
// that foreign keys are enforced.
func sqliteDSN(dsn string) string {
	add := func(dsn, param string) string {
		if strings.Contains(dsn, param) {
			return dsn
		}
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		return dsn + sep + param
	}
	dsn = add(dsn, "_time_format=sqlite")
	dsn = add(dsn, "_pragma=foreign_keys(1)")
	return dsn
}

// mysqlDSN forces DATETIME columns to scan into time.Time in UTC.
func mysqlDSN(dsn string) (string, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("parse mysql dsn: %w", err)
	}
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	return cfg.FormatDSN(), nil
}
