package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	USDA      USDAConfig      `mapstructure:"usda"`
	Cache     CacheConfig     `mapstructure:"cache"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Nutrition NutritionConfig `mapstructure:"nutrition"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Tracing   TracingConfig   `mapstructure:"tracing"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string        `mapstructure:"port"`
	Environment    string        `mapstructure:"environment"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// USDAConfig holds USDA API configuration
type USDAConfig struct {
	APIKey          string        `mapstructure:"api_key"`
	BaseURL         string        `mapstructure:"base_url"`
	PageSize        int           `mapstructure:"page_size"`
	Timeout         time.Duration `mapstructure:"timeout"`
	RequestsPerHour int           `mapstructure:"requests_per_hour"`
}

// CacheConfig holds cache-related configuration
type CacheConfig struct {
	Type       string        `mapstructure:"type"` // "memory", "redis" or "sqlite"
	RedisURL   string        `mapstructure:"redis_url"`
	SQLitePath string        `mapstructure:"sqlite_path"`
	TTL        time.Duration `mapstructure:"ttl"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	PerIP int `mapstructure:"per_ip"` // requests per minute
}

// NutritionConfig tunes the calculation pipeline
type NutritionConfig struct {
	MaxConcurrency     int           `mapstructure:"max_concurrency"`
	LookupTimeout      time.Duration `mapstructure:"lookup_timeout"`
	ReferenceDataPath  string        `mapstructure:"reference_data_path"`
	EnableDebugLogging bool          `mapstructure:"enable_debug_logging"`
}

// LoggingConfig holds logger configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// TracingConfig holds OpenTelemetry configuration
type TracingConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	SampleRatio float64 `mapstructure:"sample_ratio"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/forkcast/")

	// Environment variable settings: server.port -> FORKCAST_SERVER_PORT
	v.SetEnvPrefix("FORKCAST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Every key needs a default so Unmarshal sees env overrides
	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Origins may arrive as one comma-separated env value
	var origins []string
	for _, origin := range config.Server.AllowedOrigins {
		origins = append(origins, splitList(origin)...)
	}
	config.Server.AllowedOrigins = origins

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:*"})
	v.SetDefault("server.request_timeout", "60s")

	// USDA defaults
	v.SetDefault("usda.api_key", "")
	v.SetDefault("usda.base_url", "https://api.nal.usda.gov/fdc")
	v.SetDefault("usda.page_size", 25)
	v.SetDefault("usda.timeout", "30s")
	v.SetDefault("usda.requests_per_hour", 1000)

	// Cache defaults
	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.sqlite_path", "forkcast-cache.db")
	v.SetDefault("cache.ttl", "720h") // 30 days

	// Rate limit defaults
	v.SetDefault("ratelimit.per_ip", 100)

	// Pipeline defaults
	v.SetDefault("nutrition.max_concurrency", 5)
	v.SetDefault("nutrition.lookup_timeout", "10s")
	v.SetDefault("nutrition.reference_data_path", "")
	v.SetDefault("nutrition.enable_debug_logging", false)

	// Observability defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.sample_ratio", 0.1)
}

// validate validates the configuration
func validate(config *Config) error {
	if config.USDA.APIKey == "" {
		return fmt.Errorf("USDA API key is required (set FORKCAST_USDA_API_KEY)")
	}

	switch config.Cache.Type {
	case "memory":
	case "redis":
		if config.Cache.RedisURL == "" {
			return fmt.Errorf("Redis URL is required when cache type is 'redis'")
		}
	case "sqlite":
		if config.Cache.SQLitePath == "" {
			return fmt.Errorf("SQLite path is required when cache type is 'sqlite'")
		}
	default:
		return fmt.Errorf("cache type must be 'memory', 'redis' or 'sqlite', got: %s", config.Cache.Type)
	}

	if config.Nutrition.MaxConcurrency < 1 {
		return fmt.Errorf("nutrition.max_concurrency must be at least 1, got: %d", config.Nutrition.MaxConcurrency)
	}
	if config.Nutrition.LookupTimeout <= 0 {
		return fmt.Errorf("nutrition.lookup_timeout must be positive")
	}
	if config.RateLimit.PerIP < 1 {
		return fmt.Errorf("ratelimit.per_ip must be at least 1, got: %d", config.RateLimit.PerIP)
	}
	if config.Tracing.SampleRatio < 0 || config.Tracing.SampleRatio > 1 {
		return fmt.Errorf("tracing.sample_ratio must be between 0 and 1, got: %v", config.Tracing.SampleRatio)
	}

	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
