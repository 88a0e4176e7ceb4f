package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	HTTPAddr string
	GRPCAddr string

	DBDriver          string
	DBDSN             string
	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime time.Duration

	// empty disables the duplicate-submission guard
	RedisAddr      string
	IdempotencyTTL time.Duration

	JWTSecret     string
	JWTIssuer     string
	AdminSubjects []string

	// empty routes order events to the log
	KafkaBrokers   []string
	KafkaTopic     string
	EventWorkers   int
	EventQueueSize int

	OtelEndpoint string
	LogLevel     string

	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration

	SeedFile string
}

// Load reads the environment. Every malformed value is reported, not just
// the first.
func Load() (*Config, error) {
	p := &parser{}
	cfg := &Config{
		HTTPAddr: getEnv("HTTP_ADDR", ":8080"),
		GRPCAddr: getEnv("GRPC_ADDR", ":50051"),

		DBDriver:          getEnv("DB_DRIVER", "mysql"),
		DBDSN:             getEnv("DB_DSN", "root:root@tcp(localhost:3306)/storefront"),
		DBMaxOpenConns:    p.integer("DB_MAX_OPEN_CONNS", 50),
		DBMaxIdleConns:    p.integer("DB_MAX_IDLE_CONNS", 25),
		DBConnMaxLifetime: p.duration("DB_CONN_MAX_LIFETIME", 5*time.Minute),

		RedisAddr:      os.Getenv("REDIS_ADDR"),
		IdempotencyTTL: p.duration("IDEMPOTENCY_TTL", 24*time.Hour),

		JWTSecret:     os.Getenv("JWT_SECRET"),
		JWTIssuer:     os.Getenv("JWT_ISSUER"),
		AdminSubjects: splitList(os.Getenv("ADMIN_SUBJECTS")),

		KafkaBrokers:   splitList(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:     getEnv("KAFKA_TOPIC", "storefront.orders"),
		EventWorkers:   p.integer("EVENT_WORKERS", 4),
		EventQueueSize: p.integer("EVENT_QUEUE_SIZE", 1024),

		OtelEndpoint: os.Getenv("OTEL_ENDPOINT"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),

		RequestTimeout:  p.duration("REQUEST_TIMEOUT", 10*time.Second),
		ShutdownTimeout: p.duration("SHUTDOWN_TIMEOUT", 10*time.Second),

		SeedFile: os.Getenv("SEED_FILE"),
	}

	err := p.err
	switch cfg.DBDriver {
	case "mysql", "sqlite", "postgres":
	default:
		err = errors.Join(err, fmt.Errorf("DB_DRIVER must be mysql, sqlite or postgres, got %q", cfg.DBDriver))
	}
	if cfg.DBDSN == "" {
		err = errors.Join(err, fmt.Errorf("DB_DSN cannot be empty"))
	}
	if cfg.JWTSecret == "" {
		err = errors.Join(err, fmt.Errorf("JWT_SECRET is required"))
	}
	if cfg.EventWorkers < 1 {
		err = errors.Join(err, fmt.Errorf("EVENT_WORKERS must be at least 1"))
	}
	if cfg.EventQueueSize < 1 {
		err = errors.Join(err, fmt.Errorf("EVENT_QUEUE_SIZE must be at least 1"))
	}
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(csv string) []string {
	var out []string
	for _, s := range strings.Split(csv, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

type parser struct {
	err error
}

func (p *parser) integer(key string, defaultValue int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		p.err = errors.Join(p.err, fmt.Errorf("%s: %w", key, err))
		return defaultValue
	}
	return v
}

func (p *parser) duration(key string, defaultValue time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		p.err = errors.Join(p.err, fmt.Errorf("%s: %w", key, err))
		return defaultValue
	}
	return v
}
