package config

import (
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/fx"
)

// Config holds the full runtime configuration for the hub service.
type Config struct {
	Environment string `mapstructure:"environment"`

	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Carrier   CarrierConfig   `mapstructure:"carrier"`
	Log       LogConfig       `mapstructure:"log"`
	Tracing   TracingConfig   `mapstructure:"tracing"`
	Bootstrap BootstrapConfig `mapstructure:"bootstrap"`
}

type ServerConfig struct {
	Addr          string `mapstructure:"addr"`
	ScanRateLimit int    `mapstructure:"scan_rate_limit"`
}

type DatabaseConfig struct {
	// Driver is "postgres" or "sqlite". SQLite is intended for local
	// development only; production runs on postgres.
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

type CarrierConfig struct {
	BaseURL string `mapstructure:"base_url"`
	Token   string `mapstructure:"token"`
	// CacheTTLSeconds bounds how long fetched shipments are served from cache.
	CacheTTLSeconds int `mapstructure:"cache_ttl_seconds"`
	TimeoutSeconds  int `mapstructure:"timeout_seconds"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type TracingConfig struct {
	Enabled          bool    `mapstructure:"enabled"`
	ExporterEndpoint string  `mapstructure:"exporter_endpoint"`
	SamplingRatio    float64 `mapstructure:"sampling_ratio"`
}

type BootstrapConfig struct {
	SeedCatalog bool `mapstructure:"seed_catalog"`
}

// IsProduction reports whether the service runs with production settings.
func (c Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// Load reads configuration from environment variables prefixed with HUB_.
func Load() (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("HUB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("environment", "development")
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.scan_rate_limit", 30)
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "file:hub.db?_pragma=foreign_keys(1)")
	v.SetDefault("carrier.base_url", "https://app.bosta.co/api/v2")
	v.SetDefault("carrier.token", "")
	v.SetDefault("carrier.cache_ttl_seconds", 60)
	v.SetDefault("carrier.timeout_seconds", 10)
	v.SetDefault("log.level", "info")
	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.exporter_endpoint", "")
	v.SetDefault("tracing.sampling_ratio", 0.1)
	v.SetDefault("bootstrap.seed_catalog", true)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

var Module = fx.Module("config",
	fx.Provide(Load),
)
