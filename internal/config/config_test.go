package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, ":50051", cfg.GRPCAddr)
	assert.Equal(t, "mysql", cfg.DBDriver)
	assert.Equal(t, 50, cfg.DBMaxOpenConns)
	assert.Equal(t, 5*time.Minute, cfg.DBConnMaxLifetime)
	assert.Equal(t, 24*time.Hour, cfg.IdempotencyTTL)
	assert.Equal(t, "storefront.orders", cfg.KafkaTopic)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Equal(t, 4, cfg.EventWorkers)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_DSN", "file:store.db")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("ADMIN_SUBJECTS", "root")
	t.Setenv("REQUEST_TIMEOUT", "3s")
	t.Setenv("EVENT_WORKERS", "8")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, []string{"root"}, cfg.AdminSubjects)
	assert.Equal(t, 3*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 8, cfg.EventWorkers)
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("DB_DRIVER", "oracle")
	t.Setenv("DB_MAX_OPEN_CONNS", "many")
	t.Setenv("IDEMPOTENCY_TTL", "forever")

	_, err := Load()
	require.Error(t, err)
	for _, want := range []string{"JWT_SECRET", "DB_DRIVER", "DB_MAX_OPEN_CONNS", "IDEMPOTENCY_TTL"} {
		assert.Contains(t, err.Error(), want)
	}
}
