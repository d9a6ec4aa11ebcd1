package config

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type Config struct {
	ServiceName string   `env:"SERVICE_NAME" env-default:"payment-service"`
	HTTPAddr    string   `env:"HTTP_ADDR" env-default:":6000"`
	LogLevel    string   `env:"LOG_LEVEL" env-default:"info"`
	CORSOrigins []string `env:"CORS_ORIGINS" env-default:"*" env-separator:","`

	StoreDriver string `env:"STORE_DRIVER" env-default:"postgres"`

	DatabaseURL      string        `env:"DATABASE_URL"`
	DBHost           string        `env:"POSTGRES_HOST" env-default:"payment-db"`
	DBPort           int           `env:"POSTGRES_PORT" env-default:"5432"`
	DBUser           string        `env:"POSTGRES_USER" env-default:"postgres"`
	DBPassword       string        `env:"POSTGRES_PASSWORD"`
	DBName           string        `env:"PAYMENT_DB" env-default:"payment_db"`
	DBSchema         string        `env:"DB_SCHEMA" env-default:"payment_schema"`
	DBMaxConns       int32         `env:"DB_MAX_CONNS" env-default:"8"`
	DBConnectRetries uint          `env:"DB_CONNECT_RETRIES" env-default:"12"`
	DBConnectDelay   time.Duration `env:"DB_CONNECT_DELAY" env-default:"2s"`

	RequestTimeout   time.Duration `env:"REQUEST_TIMEOUT" env-default:"30s"`
	PersistTimeout   time.Duration `env:"PERSIST_TIMEOUT" env-default:"10s"`
	MaxBodyBytes     int64         `env:"MAX_BODY_BYTES" env-default:"1048576"`
	DeclineThreshold string        `env:"DECLINE_THRESHOLD" env-default:"10000"`
	NodeID           int64         `env:"NODE_ID" env-default:"-1"`

	RedisAddr      string        `env:"REDIS_ADDR"`
	ReplayCacheTTL time.Duration `env:"REPLAY_CACHE_TTL" env-default:"24h"`
	LockTTL        time.Duration `env:"LOCK_TTL" env-default:"5s"`
	LockWait       time.Duration `env:"LOCK_WAIT" env-default:"2s"`

	NATSURL        string        `env:"NATS_URL"`
	EventsSubject  string        `env:"EVENTS_SUBJECT" env-default:"payments.charged"`
	OutboxInterval time.Duration `env:"OUTBOX_INTERVAL" env-default:"1s"`
	OutboxBatch    int           `env:"OUTBOX_BATCH" env-default:"100"`

	OTLPEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`

	BreakerThreshold int           `env:"BREAKER_THRESHOLD" env-default:"5"`
	BreakerTimeout   time.Duration `env:"BREAKER_TIMEOUT" env-default:"30s"`
	BreakerHalfOpen  int           `env:"BREAKER_HALF_OPEN" env-default:"1"`
}

func Load() (*Config, error) {
	var cfg Config

	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	err := cleanenv.ReadEnv(&cfg)
	if err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}
	if cfg.StoreDriver != "postgres" && cfg.StoreDriver != "memory" {
		return nil, fmt.Errorf("config error: unsupported STORE_DRIVER %q", cfg.StoreDriver)
	}
	// Payment ids are unique only while every replica sharing a database has
	// its own snowflake node. A single in-memory process can default it.
	if cfg.NodeID < 0 {
		if cfg.StoreDriver == "postgres" {
			return nil, fmt.Errorf("config error: NODE_ID is required with STORE_DRIVER=postgres")
		}
		cfg.NodeID = 1
	}

	return &cfg, nil
}

// DSN returns DATABASE_URL when set, otherwise a URL built from the
// individual POSTGRES_* variables.
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.DBUser, c.DBPassword),
		Host:   net.JoinHostPort(c.DBHost, strconv.Itoa(c.DBPort)),
		Path:   "/" + c.DBName,
	}
	return u.String()
}
