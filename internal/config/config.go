package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Snapshot backends.
const (
	BackendBolt     = "bolt"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// Config aggregates all runtime settings required by the application.
type Config struct {
	AppName     string
	Environment string
	HTTP        HTTPConfig
	Store       StoreConfig
	Bolt        BoltConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	JWT         JWTConfig
	Seed        SeedConfig
	Context     ContextConfig
	Logger      LoggerConfig
	Migrations  MigrationsConfig
}

type HTTPConfig struct {
	Host          string
	Port          string
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
	IdleTimeout   time.Duration
	EnableMetrics bool
}

// StoreConfig selects where the task snapshot lives.
type StoreConfig struct {
	Backend      string
	SnapshotKey  string
	SyncInterval time.Duration
}

type BoltConfig struct {
	Path   string
	Bucket string
}

type DatabaseConfig struct {
	URL             string
	Host            string
	Port            string
	Name            string
	User            string
	Password        string
	MaxOpenConns    int
	MaxIdleConns    int
	MaxConnLifetime time.Duration
	SSLMode         string
}

type RedisConfig struct {
	URL      string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret string
	Issuer string
}

// SeedConfig controls first-run seeding. File takes precedence over URL.
type SeedConfig struct {
	Enabled bool
	URL     string
	File    string
	Limit   int
	Timeout time.Duration
}

type ContextConfig struct {
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

type LoggerConfig struct {
	Level    string
	Encoding string
	Output   string
}

type MigrationsConfig struct {
	Enabled bool
	Path    string
}

// Load reads configuration from environment variables (optionally .env)
// and applies sane defaults so the app can boot with no setup at all.
func Load() (*Config, error) {
	_ = godotenv.Load(".env")

	cfg := &Config{
		AppName:     getString("APP_NAME", "tasklist"),
		Environment: getString("APP_ENV", "development"),
		HTTP: HTTPConfig{
			Host:          getString("SERVER_HOST", "127.0.0.1"),
			Port:          getString("SERVER_PORT", "8080"),
			ReadTimeout:   getDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:  getDuration("SERVER_WRITE_TIMEOUT", 10*time.Second),
			IdleTimeout:   getDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
			EnableMetrics: getBool("SERVER_ENABLE_METRICS", true),
		},
		Store: StoreConfig{
			Backend:      strings.ToLower(getString("STORE_BACKEND", BackendBolt)),
			SnapshotKey:  getString("SNAPSHOT_KEY", "todoList"),
			SyncInterval: getDuration("SYNC_INTERVAL_SECONDS", 30*time.Second),
		},
		Bolt: BoltConfig{
			Path:   getString("BOLTDB_PATH", "./data/tasklist.db"),
			Bucket: getString("BOLTDB_BUCKET", "tasklist"),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			Host:            getString("DB_HOST", "localhost"),
			Port:            getString("DB_PORT", "5432"),
			Name:            getString("DB_NAME", "tasklist"),
			User:            getString("DB_USER", "tasklist"),
			Password:        os.Getenv("DB_PASSWORD"),
			MaxOpenConns:    getInt("DB_MAX_OPEN_CONNS", 4),
			MaxIdleConns:    getInt("DB_MAX_IDLE_CONNS", 1),
			MaxConnLifetime: getDuration("DB_CONN_LIFETIME", time.Hour),
			SSLMode:         getString("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			URL:      getString("REDIS_URL", "redis://localhost:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getInt("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			Secret: os.Getenv("JWT_SECRET"),
			Issuer: getString("JWT_ISSUER", "tasklist"),
		},
		Seed: SeedConfig{
			Enabled: getBool("SEED_ENABLED", true),
			URL:     getString("SEED_URL", "https://jsonplaceholder.typicode.com/todos"),
			File:    os.Getenv("SEED_FILE"),
			Limit:   getInt("SEED_LIMIT", 5),
			Timeout: getDuration("SEED_TIMEOUT_SECONDS", 10*time.Second),
		},
		Context: ContextConfig{
			RequestTimeout:  getDuration("REQUEST_TIMEOUT_SECONDS", 5*time.Second),
			ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT_SECONDS", 15*time.Second),
		},
		Logger: LoggerConfig{
			Level:    getString("LOG_LEVEL", "info"),
			Encoding: getString("LOG_ENCODING", "json"),
			Output:   getString("LOG_OUTPUT", "stdout"),
		},
		Migrations: MigrationsConfig{
			Enabled: getBool("RUN_MIGRATIONS", true),
			Path:    getString("MIGRATIONS_PATH", "./assets/migrations"),
		},
	}

	if cfg.Database.URL == "" {
		cfg.Database.URL = buildPostgresURL(cfg.Database)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// MustLoad panics if configuration cannot be loaded.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Validate rejects settings the app cannot run with.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case BackendBolt:
		if c.Bolt.Path == "" {
			return fmt.Errorf("config: BOLTDB_PATH must be set for the bolt backend")
		}
	case BackendRedis, BackendPostgres:
	default:
		return fmt.Errorf("config: unknown STORE_BACKEND %q (want bolt, redis or postgres)", c.Store.Backend)
	}
	if c.Store.SnapshotKey == "" {
		return fmt.Errorf("config: SNAPSHOT_KEY must not be empty")
	}
	if c.Store.SyncInterval < time.Second {
		return fmt.Errorf("config: SYNC_INTERVAL_SECONDS must be at least one second")
	}
	if c.Seed.Limit <= 0 {
		return fmt.Errorf("config: SEED_LIMIT must be positive, got %d", c.Seed.Limit)
	}
	if c.Seed.Timeout <= 0 {
		return fmt.Errorf("config: SEED_TIMEOUT_SECONDS must be positive")
	}
	if c.Context.RequestTimeout <= 0 || c.Context.ShutdownTimeout <= 0 {
		return fmt.Errorf("config: request and shutdown timeouts must be positive")
	}
	return nil
}

func buildPostgresURL(db DatabaseConfig) string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		db.User,
		db.Password,
		db.Host,
		db.Port,
		db.Name,
		db.SSLMode,
	)
}

func getString(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
		if seconds, err := strconv.Atoi(val); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return fallback
}

// Address returns the HTTP listen address for the fasthttp server.
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%s", c.HTTP.Host, c.HTTP.Port)
}
