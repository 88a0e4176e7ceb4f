package storage

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"
)

const (
	DriverMySQL    = "mysql"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Dialect hides the handful of SQL differences between the supported engines:
// placeholder style, upsert syntax and transaction isolation.
type Dialect struct {
	Name      string
	dollar    bool
	mysql     bool
	isolation sql.IsolationLevel
}

func DialectFor(driver string) (Dialect, error) {
	switch driver {
	case DriverMySQL:
		return Dialect{Name: DriverMySQL, mysql: true, isolation: sql.LevelReadCommitted}, nil
	case DriverSQLite:
		// SQLite transactions are serializable; it rejects explicit levels.
		return Dialect{Name: DriverSQLite, isolation: sql.LevelDefault}, nil
	case DriverPostgres:
		return Dialect{Name: DriverPostgres, dollar: true, isolation: sql.LevelReadCommitted}, nil
	}
	return Dialect{}, fmt.Errorf("unsupported database driver %q", driver)
}

// Rebind rewrites ? placeholders into $n for engines that need it.
func (d Dialect) Rebind(query string) string {
	if !d.dollar {
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

// onConflictUpdate starts the update clause of an upsert keyed on cols and
// must directly follow the VALUES list. On MySQL it names the proposed row
// "excluded" (row alias, MySQL 8.0.19+) so excluded() reads the same
// everywhere.
func (d Dialect) onConflictUpdate(cols string) string {
	if d.mysql {
		return "AS excluded ON DUPLICATE KEY UPDATE"
	}
	return "ON CONFLICT (" + cols + ") DO UPDATE SET"
}

// onConflictIgnore turns an INSERT into insert-if-absent. MySQL has no
// DO NOTHING, so the primary key is assigned to itself instead.
func (d Dialect) onConflictIgnore(cols, pk string) string {
	if d.mysql {
		return "ON DUPLICATE KEY UPDATE " + pk + " = " + pk
	}
	return "ON CONFLICT (" + cols + ") DO NOTHING"
}

// excluded references the value proposed for col inside an upsert.
func (d Dialect) excluded(col string) string {
	return "excluded." + col
}

func (d Dialect) txOptions() *sql.TxOptions {
	return &sql.TxOptions{Isolation: d.isolation}
}

// placeholders returns "?, ?, ..." with n markers.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
