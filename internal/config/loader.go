package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the path checked for YAML configuration.
const DefaultConfigFile = "proposalforge.yaml"

// Load returns a Config using the hierarchy: defaults < YAML < ENV.
// The YAML path is PROPOSALFORGE_CONFIG when set, DefaultConfigFile
// otherwise. A missing file is not an error.
func Load() (*Config, error) {
	path := DefaultConfigFile
	if v := os.Getenv("PROPOSALFORGE_CONFIG"); v != "" {
		path = v
	}
	return LoadFrom(path)
}

// LoadFrom returns a Config loaded from the given YAML path using the
// hierarchy: defaults < YAML < ENV. The YAML file is optional.
func LoadFrom(yamlPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	loadEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}

	return &cfg, nil
}

// loadYAML reads the YAML file and unmarshals it over cfg.
// Returns nil if the file does not exist.
func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is validated by caller
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	return nil
}

// loadEnv overlays environment variables onto cfg.
// Only non-empty env values override the current config.
func loadEnv(cfg *Config) {
	setString(&cfg.Server.Port, "PROPOSALFORGE_PORT")
	setString(&cfg.Server.CORSOrigin, "PROPOSALFORGE_CORS_ORIGIN")
	setDuration(&cfg.Server.RequestTimeout, "PROPOSALFORGE_REQUEST_TIMEOUT")
	setString(&cfg.Postgres.DSN, "DATABASE_URL")
	setInt32(&cfg.Postgres.MaxConns, "PROPOSALFORGE_PG_MAX_CONNS")
	setInt32(&cfg.Postgres.MinConns, "PROPOSALFORGE_PG_MIN_CONNS")
	setDuration(&cfg.Postgres.MaxConnLifetime, "PROPOSALFORGE_PG_MAX_CONN_LIFETIME")
	setDuration(&cfg.Postgres.MaxConnIdleTime, "PROPOSALFORGE_PG_MAX_CONN_IDLE_TIME")
	setDuration(&cfg.Postgres.HealthCheck, "PROPOSALFORGE_PG_HEALTH_CHECK")
	setStringAllowEmpty(&cfg.NATS.URL, "NATS_URL")
	setString(&cfg.Logging.Level, "PROPOSALFORGE_LOG_LEVEL")
	setString(&cfg.Logging.Service, "PROPOSALFORGE_LOG_SERVICE")
	setBool(&cfg.Logging.Async, "PROPOSALFORGE_LOG_ASYNC")
	setInt(&cfg.Breaker.MaxFailures, "PROPOSALFORGE_BREAKER_MAX_FAILURES")
	setDuration(&cfg.Breaker.Timeout, "PROPOSALFORGE_BREAKER_TIMEOUT")
	setFloat64(&cfg.Rate.RequestsPerSecond, "PROPOSALFORGE_RATE_RPS")
	setInt(&cfg.Rate.Burst, "PROPOSALFORGE_RATE_BURST")
	setDuration(&cfg.Rate.CleanupInterval, "PROPOSALFORGE_RATE_CLEANUP_INTERVAL")
	setDuration(&cfg.Rate.MaxIdleTime, "PROPOSALFORGE_RATE_MAX_IDLE_TIME")

	// Auth
	setBool(&cfg.Auth.Enabled, "PROPOSALFORGE_AUTH_ENABLED")
	setString(&cfg.Auth.JWTSecretEnv, "PROPOSALFORGE_AUTH_SECRET_ENV")
	setString(&cfg.Auth.Issuer, "PROPOSALFORGE_AUTH_ISSUER")
	setString(&cfg.Auth.DefaultAdmin, "PROPOSALFORGE_AUTH_DEFAULT_ADMIN")

	// Cache
	setInt64(&cfg.Cache.L1MaxSizeMB, "PROPOSALFORGE_CACHE_L1_SIZE_MB")
	setString(&cfg.Cache.L2Bucket, "PROPOSALFORGE_CACHE_L2_BUCKET")
	setDuration(&cfg.Cache.L2TTL, "PROPOSALFORGE_CACHE_L2_TTL")
	setDuration(&cfg.Cache.PreferencesTTL, "PROPOSALFORGE_CACHE_PREFERENCES_TTL")

	// Idempotency
	setString(&cfg.Idempotency.Bucket, "PROPOSALFORGE_IDEMPOTENCY_BUCKET")
	setDuration(&cfg.Idempotency.TTL, "PROPOSALFORGE_IDEMPOTENCY_TTL")

	// OpenTelemetry
	setString(&cfg.OTEL.Endpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")
	setBool(&cfg.OTEL.Insecure, "PROPOSALFORGE_OTEL_INSECURE")
	setString(&cfg.OTEL.ServiceName, "OTEL_SERVICE_NAME")
}

// validate checks that required fields are set.
func validate(cfg *Config) error {
	if cfg.Server.Port == "" {
		return errors.New("server.port is required")
	}
	if cfg.Postgres.DSN == "" {
		return errors.New("postgres.dsn is required")
	}
	if cfg.Postgres.MaxConns < 1 {
		return errors.New("postgres.max_conns must be >= 1")
	}
	if cfg.Breaker.MaxFailures < 1 {
		return errors.New("breaker.max_failures must be >= 1")
	}
	if cfg.Cache.L1MaxSizeMB < 1 {
		return errors.New("cache.l1_max_size_mb must be >= 1")
	}
	if cfg.Rate.Burst < 1 {
		return errors.New("rate.burst must be >= 1")
	}
	if cfg.Auth.Enabled && cfg.Auth.JWTSecretEnv == "" {
		return errors.New("auth.jwt_secret_env is required when auth is enabled")
	}
	if !cfg.Auth.Enabled && cfg.Auth.DefaultAdmin == "" {
		return errors.New("auth.default_admin is required when auth is disabled")
	}
	if cfg.NATS.URL != "" && cfg.Idempotency.TTL <= 0 {
		return errors.New("idempotency.ttl must be > 0")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// setStringAllowEmpty overrides dst whenever key is set, including to "".
// Used for optional integrations that are switched off by clearing them.
func setStringAllowEmpty(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt32(dst *int32, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 32); err == nil {
			*dst = int32(n)
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
