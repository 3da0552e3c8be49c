package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Addr           string   `yaml:"addr"`
	AllowedOrigins []string `yaml:"allowed-origins"`
}

// DatabaseConfig holds the database DSN.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// RedisConfig holds optional Redis connection settings.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// JWTConfig holds token signing settings.
type JWTConfig struct {
	Secret      string        `yaml:"secret"`
	UserExpiry  time.Duration `yaml:"user-expiry"`
	AdminExpiry time.Duration `yaml:"admin-expiry"`
}

// ChainConfig holds optional blockchain settlement settings.
type ChainConfig struct {
	Enabled        bool          `yaml:"enabled"`
	RPCURL         string        `yaml:"rpc-url"`
	PrivateKey     string        `yaml:"private-key"`
	ChainID        int64         `yaml:"chain-id"`
	TreasuryAddr   string        `yaml:"treasury-address"`
	ConfirmTimeout time.Duration `yaml:"confirm-timeout"`
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max-size-mb"`
	MaxBackups int    `yaml:"max-backups"`
	MaxAgeDays int    `yaml:"max-age-days"`
}

// Config is the root application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	JWT      JWTConfig      `yaml:"jwt"`
	Chain    ChainConfig    `yaml:"chain"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ResolveConfigPath returns the effective config file path, preferring the
// argument, then ANTIAPP_CONFIG, then ./config.yaml.
func ResolveConfigPath(path string) string {
	if trimmed := strings.TrimSpace(path); trimmed != "" {
		return trimmed
	}
	if env := strings.TrimSpace(os.Getenv("ANTIAPP_CONFIG")); env != "" {
		return env
	}
	return "config.yaml"
}

// Load reads and validates the configuration file, applying environment
// overrides and defaults.
func Load(path string) (Config, error) {
	var cfg Config
	data, errRead := os.ReadFile(path)
	if errRead != nil {
		if !os.IsNotExist(errRead) {
			return cfg, fmt.Errorf("config: read %s: %w", path, errRead)
		}
		// Missing file is allowed; everything can come from the environment.
	} else if errUnmarshal := yaml.Unmarshal(data, &cfg); errUnmarshal != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, errUnmarshal)
	}

	applyEnvOverrides(&cfg)
	applyDefaults(&cfg)

	if strings.TrimSpace(cfg.Database.DSN) == "" {
		return cfg, fmt.Errorf("config: database dsn is required")
	}
	if strings.TrimSpace(cfg.JWT.Secret) == "" {
		return cfg, fmt.Errorf("config: jwt secret is required")
	}
	if cfg.Chain.Enabled {
		if strings.TrimSpace(cfg.Chain.RPCURL) == "" {
			return cfg, fmt.Errorf("config: chain rpc-url is required when chain is enabled")
		}
		if strings.TrimSpace(cfg.Chain.PrivateKey) == "" {
			return cfg, fmt.Errorf("config: chain private-key is required when chain is enabled")
		}
	}
	return cfg, nil
}

// applyEnvOverrides lets deployment environments override file values.
func applyEnvOverrides(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv("DATABASE_DSN")); v != "" {
		cfg.Database.DSN = v
	}
	if v := strings.TrimSpace(os.Getenv("REDIS_ADDR")); v != "" {
		cfg.Redis.Addr = v
	}
	if v := strings.TrimSpace(os.Getenv("JWT_SECRET")); v != "" {
		cfg.JWT.Secret = v
	}
	if v := strings.TrimSpace(os.Getenv("CHAIN_RPC_URL")); v != "" {
		cfg.Chain.RPCURL = v
	}
	if v := strings.TrimSpace(os.Getenv("CHAIN_PRIVATE_KEY")); v != "" {
		cfg.Chain.PrivateKey = v
	}
	if v := strings.TrimSpace(os.Getenv("LISTEN_ADDR")); v != "" {
		cfg.Server.Addr = v
	}
}

func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.Server.Addr) == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.JWT.UserExpiry <= 0 {
		cfg.JWT.UserExpiry = 7 * 24 * time.Hour
	}
	if cfg.JWT.AdminExpiry <= 0 {
		cfg.JWT.AdminExpiry = 12 * time.Hour
	}
	if cfg.Chain.ConfirmTimeout <= 0 {
		cfg.Chain.ConfirmTimeout = 90 * time.Second
	}
	if strings.TrimSpace(cfg.Logging.Level) == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.MaxSizeMB <= 0 {
		cfg.Logging.MaxSizeMB = 100
	}
	if cfg.Logging.MaxBackups <= 0 {
		cfg.Logging.MaxBackups = 5
	}
	if cfg.Logging.MaxAgeDays <= 0 {
		cfg.Logging.MaxAgeDays = 30
	}
}
