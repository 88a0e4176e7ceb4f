package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDialect_Rebind(t *testing.T) {
	pg, err := DialectFor(DriverPostgres)
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM t WHERE a = $1 AND b IN ($2, $3)",
		pg.Rebind("SELECT * FROM t WHERE a = ? AND b IN ("+placeholders(2)+")"))

	my, err := DialectFor(DriverMySQL)
	require.NoError(t, err)
	assert.Equal(t, "a = ?", my.Rebind("a = ?"))

	_, err = DialectFor("oracle")
	assert.Error(t, err)
}

func TestDialect_Upserts(t *testing.T) {
	my, _ := DialectFor(DriverMySQL)
	lite, _ := DialectFor(DriverSQLite)

	assert.Equal(t, "AS excluded ON DUPLICATE KEY UPDATE", my.onConflictUpdate("id"))
	assert.Equal(t, "excluded.qty", my.excluded("qty"))
	assert.Equal(t, "ON DUPLICATE KEY UPDATE id = id", my.onConflictIgnore("owner", "id"))

	assert.Equal(t, "ON CONFLICT (a, b) DO UPDATE SET", lite.onConflictUpdate("a, b"))
	assert.Equal(t, "excluded.qty", lite.excluded("qty"))
	assert.Equal(t, "ON CONFLICT (owner) DO NOTHING", lite.onConflictIgnore("owner", "id"))
}

func TestSQLiteDSN(t *testing.T) {
	assert.Equal(t, "file:x?mode=memory&_time_format=sqlite&_pragma=foreign_keys(1)",
		sqliteDSN("file:x?mode=memory"))
	assert.Equal(t, "db.sqlite?_time_format=sqlite&_pragma=foreign_keys(1)", sqliteDSN("db.sqlite"))
}

func TestMySQLDSN(t *testing.T) {
	dsn, err := mysqlDSN("root:root@tcp(localhost:3306)/storefront")
	require.NoError(t, err)
	assert.Contains(t, dsn, "parseTime=true")

	_, err = mysqlDSN("not a dsn")
	assert.Error(t, err)
}
