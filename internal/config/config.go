package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	EnvConfigPath     = "CONFIG_PATH"
	EnvDBConnection   = "DB_CONNECTION"
	EnvJWTSecret      = "JWT_SECRET"
	EnvJWTExpiry      = "JWT_EXPIRY"
	EnvRedisAddr      = "REDIS_ADDR"
	EnvRedisPassword  = "REDIS_PASSWORD"
	EnvArchitexURL    = "ARCHITEX_URL"
	EnvArchitexAPIKey = "ARCHITEX_API_KEY"
	EnvGSTAPIKey      = "GST_API_KEY"
)

// AppConfig holds resolved application configuration values.
type AppConfig struct {
	ConfigPath string
}

// LoadFromEnv loads app config from environment variables.
func LoadFromEnv() (AppConfig, error) {
	return AppConfig{ConfigPath: ResolveConfigPath(os.Getenv(EnvConfigPath))}, nil
}

// ResolveConfigPath normalizes the config path and applies defaults.
func ResolveConfigPath(p string) string {
	trimmed := strings.TrimSpace(p)
	if trimmed == "" {
		trimmed = "./config.yaml"
	}
	if abs, err := filepath.Abs(trimmed); err == nil {
		return abs
	}
	return trimmed
}

// ErrMissingDatabaseDSN indicates no database DSN is present in the config file.
var ErrMissingDatabaseDSN = errors.New("missing database dsn (set `database-dsn` or `database.dsn` in config file)")

// JWTConfig holds JWT secret and expiry settings.
type JWTConfig struct {
	Secret string        `yaml:"secret"`
	Expiry time.Duration `yaml:"expiry"`
}

// RedisConfig holds the shared Redis connection settings used by the rate
// limiter and the OTP attempt store. An empty address disables Redis and
// all consumers fall back to memory.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

// ArchitexConfig holds the external leads API settings.
type ArchitexConfig struct {
	BaseURL string `yaml:"base-url"`
	APIKey  string `yaml:"api-key"`
}

// GSTConfig holds the GST verification proxy settings.
type GSTConfig struct {
	BaseURL string `yaml:"base-url"`
	APIKey  string `yaml:"api-key"`
}

// SweepConfig holds the expiration sweep schedule settings.
type SweepConfig struct {
	Hour int `yaml:"hour"` // UTC wall-clock hour of the daily sweep.
}

// LoadDatabaseDSN reads the database DSN from the YAML config file.
func LoadDatabaseDSN(configPath string) (string, error) {
	if dsn := strings.TrimSpace(os.Getenv(EnvDBConnection)); dsn != "" {
		return dsn, nil
	}

	// fileConfig maps the YAML fields needed for DSN resolution.
	type fileConfig struct {
		DatabaseDSN string `yaml:"database-dsn"`
		Database    struct {
			DSN string `yaml:"dsn"`
		} `yaml:"database"`
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return "", fmt.Errorf("read config file: %w", err)
	}

	var cfg fileConfig
	if errUnmarshal := yaml.Unmarshal(data, &cfg); errUnmarshal != nil {
		return "", fmt.Errorf("parse config file: %w", errUnmarshal)
	}

	if dsn := strings.TrimSpace(cfg.DatabaseDSN); dsn != "" {
		return dsn, nil
	}
	if dsn := strings.TrimSpace(cfg.Database.DSN); dsn != "" {
		return dsn, nil
	}
	return "", ErrMissingDatabaseDSN
}

// defaultJWTExpiry is used when the config omits or invalidates JWT expiry.
const defaultJWTExpiry = 30 * 24 * time.Hour

// LoadJWTConfig loads JWT settings from the YAML config file.
func LoadJWTConfig(configPath string) (JWTConfig, error) {
	// fileConfig maps the YAML fields needed for JWT settings.
	type fileConfig struct {
		JWT JWTConfig `yaml:"jwt"`
	}

	result := JWTConfig{Expiry: defaultJWTExpiry}

	data, errRead := os.ReadFile(configPath)
	if errRead == nil {
		var cfg fileConfig
		if errUnmarshal := yaml.Unmarshal(data, &cfg); errUnmarshal == nil {
			result = cfg.JWT
		}
	}

	if secret := strings.TrimSpace(os.Getenv(EnvJWTSecret)); secret != "" {
		result.Secret = secret
	}
	if expiryRaw := strings.TrimSpace(os.Getenv(EnvJWTExpiry)); expiryRaw != "" {
		if expiry, errParse := time.ParseDuration(expiryRaw); errParse == nil && expiry > 0 {
			result.Expiry = expiry
		}
	}

	if result.Expiry <= 0 {
		result.Expiry = defaultJWTExpiry
	}
	return result, nil
}

// LoadRedisConfig loads Redis settings from the YAML config file.
func LoadRedisConfig(configPath string) RedisConfig {
	// fileConfig maps the YAML fields needed for Redis settings.
	type fileConfig struct {
		Redis RedisConfig `yaml:"redis"`
	}

	var result RedisConfig
	data, errRead := os.ReadFile(configPath)
	if errRead == nil {
		var cfg fileConfig
		if errUnmarshal := yaml.Unmarshal(data, &cfg); errUnmarshal == nil {
			result = cfg.Redis
		}
	}

	if addr := strings.TrimSpace(os.Getenv(EnvRedisAddr)); addr != "" {
		result.Addr = addr
	}
	if password := strings.TrimSpace(os.Getenv(EnvRedisPassword)); password != "" {
		result.Password = password
	}
	if result.DB < 0 {
		result.DB = 0
	}
	return result
}

// LoadArchitexConfig loads external leads API settings from the config file.
func LoadArchitexConfig(configPath string) ArchitexConfig {
	// fileConfig maps the YAML fields needed for Architex settings.
	type fileConfig struct {
		Architex ArchitexConfig `yaml:"architex"`
	}

	var result ArchitexConfig
	data, errRead := os.ReadFile(configPath)
	if errRead == nil {
		var cfg fileConfig
		if errUnmarshal := yaml.Unmarshal(data, &cfg); errUnmarshal == nil {
			result = cfg.Architex
		}
	}

	if url := strings.TrimSpace(os.Getenv(EnvArchitexURL)); url != "" {
		result.BaseURL = url
	}
	if key := strings.TrimSpace(os.Getenv(EnvArchitexAPIKey)); key != "" {
		result.APIKey = key
	}
	return result
}

// LoadGSTConfig loads GST verification settings from the config file.
func LoadGSTConfig(configPath string) GSTConfig {
	// fileConfig maps the YAML fields needed for GST settings.
	type fileConfig struct {
		GST GSTConfig `yaml:"gst"`
	}

	var result GSTConfig
	data, errRead := os.ReadFile(configPath)
	if errRead == nil {
		var cfg fileConfig
		if errUnmarshal := yaml.Unmarshal(data, &cfg); errUnmarshal == nil {
			result = cfg.GST
		}
	}

	if key := strings.TrimSpace(os.Getenv(EnvGSTAPIKey)); key != "" {
		result.APIKey = key
	}
	return result
}

// defaultSweepHour anchors the daily expiration sweep at 02:00 UTC.
const defaultSweepHour = 2

// LoadSweepConfig loads sweep schedule settings from the config file. The
// hour field is a pointer so an absent `sweep:` section keeps the default
// instead of reading as midnight.
func LoadSweepConfig(configPath string) SweepConfig {
	// fileConfig maps the YAML fields needed for sweep settings.
	type fileConfig struct {
		Sweep struct {
			Hour *int `yaml:"hour"`
		} `yaml:"sweep"`
	}

	result := SweepConfig{Hour: defaultSweepHour}
	data, errRead := os.ReadFile(configPath)
	if errRead == nil {
		var cfg fileConfig
		if errUnmarshal := yaml.Unmarshal(data, &cfg); errUnmarshal == nil &&
			cfg.Sweep.Hour != nil && *cfg.Sweep.Hour >= 0 && *cfg.Sweep.Hour <= 23 {
			result.Hour = *cfg.Sweep.Hour
		}
	}
	return result
}
