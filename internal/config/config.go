package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultAppName         = "WalletOps"
	defaultAppEnv          = "development"
	defaultPort            = "8080"
	defaultLogLevel        = "info"
	defaultLogFormat       = "json"
	defaultEnvFile         = ".env"
	defaultShutdownDelay   = 10 * time.Second
	defaultCacheTTL        = 5 * time.Minute
	shutdownSecondsEnvVar  = "SHUTDOWN_TIMEOUT_SECONDS"
	shutdownDurationEnvVar = "SHUTDOWN_TIMEOUT"

	// Admission pool defaults.
	defaultPoolMinWorkers  = 10
	defaultPoolMaxWorkers  = 100
	defaultPoolIdleTimeout = 60 * time.Second
	defaultPoolQueueSize   = 1000

	// OverloadCallerRuns executes work on the submitting goroutine when the pool is saturated.
	OverloadCallerRuns = "caller_runs"
	// OverloadReject fails the submission when the pool is saturated.
	OverloadReject = "reject"
)

// PoolConfig sizes the operation admission pool.
type PoolConfig struct {
	MinWorkers  int
	MaxWorkers  int
	IdleTimeout time.Duration
	QueueSize   int
	Overload    string
}

// Config captures application runtime configuration loaded from environment variables.
type Config struct {
	AppName            string
	AppEnv             string
	Port               string
	LogLevel           string
	LogFormat          string
	DatabaseURL        string
	DBMaxConns         int32
	RedisURL           string
	ShutdownPeriod     time.Duration
	WalletCacheTTL     time.Duration
	OperationRateLimit int
	Pool               PoolConfig
}

// Load reads configuration values from the environment and populates a Config instance.
// Values from an optional dotenv file (ENV_FILE, default .env) never override
// variables that are already set.
func Load() (Config, error) {
	envFile := getEnv("ENV_FILE", defaultEnvFile)
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load %s: %w", envFile, err)
	}

	cfg := Config{
		AppName:        getEnv("APP_NAME", defaultAppName),
		AppEnv:         getEnv("APP_ENV", defaultAppEnv),
		Port:           getEnv("PORT", defaultPort),
		LogLevel:       strings.ToLower(getEnv("LOG_LEVEL", defaultLogLevel)),
		LogFormat:      strings.ToLower(getEnv("LOG_FORMAT", defaultLogFormat)),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		RedisURL:       os.Getenv("REDIS_URL"),
		ShutdownPeriod: defaultShutdownDelay,
		WalletCacheTTL: defaultCacheTTL,
		Pool: PoolConfig{
			MinWorkers:  defaultPoolMinWorkers,
			MaxWorkers:  defaultPoolMaxWorkers,
			IdleTimeout: defaultPoolIdleTimeout,
			QueueSize:   defaultPoolQueueSize,
			Overload:    strings.ToLower(getEnv("POOL_OVERLOAD_POLICY", OverloadCallerRuns)),
		},
	}

	if v := os.Getenv(shutdownSecondsEnvVar); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", shutdownSecondsEnvVar, err)
		}
		cfg.ShutdownPeriod = time.Duration(seconds) * time.Second
	} else if v := os.Getenv(shutdownDurationEnvVar); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", shutdownDurationEnvVar, err)
		}
		cfg.ShutdownPeriod = d
	}

	var err error
	if cfg.Pool.MinWorkers, err = intEnv("POOL_MIN_WORKERS", cfg.Pool.MinWorkers); err != nil {
		return Config{}, err
	}
	if cfg.Pool.MaxWorkers, err = intEnv("POOL_MAX_WORKERS", cfg.Pool.MaxWorkers); err != nil {
		return Config{}, err
	}
	if cfg.Pool.QueueSize, err = intEnv("POOL_QUEUE_SIZE", cfg.Pool.QueueSize); err != nil {
		return Config{}, err
	}
	if cfg.Pool.IdleTimeout, err = durationEnv("POOL_IDLE_TIMEOUT", cfg.Pool.IdleTimeout); err != nil {
		return Config{}, err
	}
	if cfg.WalletCacheTTL, err = durationEnv("WALLET_CACHE_TTL", cfg.WalletCacheTTL); err != nil {
		return Config{}, err
	}
	if cfg.OperationRateLimit, err = intEnv("OPERATION_RATE_LIMIT", 0); err != nil {
		return Config{}, err
	}
	maxConns, err := intEnv("DB_MAX_CONNS", 0)
	if err != nil {
		return Config{}, err
	}
	cfg.DBMaxConns = int32(maxConns)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks cross-field constraints.
func (c Config) Validate() error {
	p := c.Pool
	if p.MinWorkers < 0 {
		return fmt.Errorf("POOL_MIN_WORKERS must not be negative")
	}
	if p.MaxWorkers <= 0 || p.MaxWorkers < p.MinWorkers {
		return fmt.Errorf("POOL_MAX_WORKERS must be positive and >= POOL_MIN_WORKERS")
	}
	if p.QueueSize < 0 {
		return fmt.Errorf("POOL_QUEUE_SIZE must not be negative")
	}
	if p.IdleTimeout <= 0 {
		return fmt.Errorf("POOL_IDLE_TIMEOUT must be positive")
	}
	switch p.Overload {
	case OverloadCallerRuns, OverloadReject:
	default:
		return fmt.Errorf("unknown POOL_OVERLOAD_POLICY %q", p.Overload)
	}
	if c.OperationRateLimit < 0 {
		return fmt.Errorf("OPERATION_RATE_LIMIT must not be negative")
	}

	if !c.IsDev() {
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL must be set when APP_ENV=%s", c.AppEnv)
		}
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL must be set when APP_ENV=%s", c.AppEnv)
		}
	}
	return nil
}

// IsDev reports whether the service runs in a local/development environment,
// where in-memory fallbacks replace Postgres and Redis.
func (c Config) IsDev() bool {
	switch strings.ToLower(c.AppEnv) {
	case "dev", "development", "local", "test":
		return true
	default:
		return false
	}
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func intEnv(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
