package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Catalog   CatalogConfig   `mapstructure:"catalog"`
	Cache     CacheConfig     `mapstructure:"cache"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Log       LogConfig       `mapstructure:"log"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// CatalogConfig selects where listings live
type CatalogConfig struct {
	Source      string `mapstructure:"source"` // "memory", "postgres" or "remote"
	SeedFile    string `mapstructure:"seed_file"`
	DatabaseURL string `mapstructure:"database_url"`
	RemoteURL   string `mapstructure:"remote_url"`
}

// CacheConfig holds cache-related configuration
type CacheConfig struct {
	Type      string        `mapstructure:"type"` // "none", "memory" or "redis"
	RedisURL  string        `mapstructure:"redis_url"`
	KeyPrefix string        `mapstructure:"key_prefix"`
	TTL       time.Duration `mapstructure:"ttl"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	PerIP int `mapstructure:"per_ip"` // requests per minute, 0 disables
}

// LogConfig holds logger configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "console" or "json"
	File   string `mapstructure:"file"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/comparaprecios/")

	// COMPARAPRECIOS_CATALOG_SOURCE -> catalog.source
	v.SetEnvPrefix("COMPARAPRECIOS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if config.Log.Format == "" {
		config.Log.Format = "json"
		if config.Server.Environment == "development" {
			config.Log.Format = "console"
		}
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values.
// Every key needs a default so AutomaticEnv can override it during Unmarshal.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000", "http://localhost:5173"})

	// Catalog defaults
	v.SetDefault("catalog.source", "memory")
	v.SetDefault("catalog.seed_file", "")
	v.SetDefault("catalog.database_url", "")
	v.SetDefault("catalog.remote_url", "")

	// Cache defaults
	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.key_prefix", "comparaprecios:")
	v.SetDefault("cache.ttl", "1m")

	// Rate limit defaults
	v.SetDefault("ratelimit.per_ip", 120)

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "")
	v.SetDefault("log.file", "")
}

// validate validates the configuration
func validate(config *Config) error {
	switch config.Catalog.Source {
	case "memory":
	case "postgres":
		if config.Catalog.DatabaseURL == "" {
			return fmt.Errorf("database URL is required when catalog source is 'postgres'")
		}
	case "remote":
		if config.Catalog.RemoteURL == "" {
			return fmt.Errorf("remote URL is required when catalog source is 'remote'")
		}
	default:
		return fmt.Errorf("catalog source must be 'memory', 'postgres' or 'remote', got: %s", config.Catalog.Source)
	}

	switch config.Cache.Type {
	case "none", "memory":
	case "redis":
		if config.Cache.RedisURL == "" {
			return fmt.Errorf("Redis URL is required when cache type is 'redis'")
		}
	default:
		return fmt.Errorf("cache type must be 'none', 'memory' or 'redis', got: %s", config.Cache.Type)
	}

	if config.Cache.TTL < 0 {
		return fmt.Errorf("cache TTL must not be negative, got: %s", config.Cache.TTL)
	}

	if config.RateLimit.PerIP < 0 {
		return fmt.Errorf("rate limit per IP must not be negative, got: %d", config.RateLimit.PerIP)
	}

	if config.Log.Format != "console" && config.Log.Format != "json" {
		return fmt.Errorf("log format must be 'console' or 'json', got: %s", config.Log.Format)
	}

	return nil
}
