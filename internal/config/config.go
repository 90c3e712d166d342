package config

import (
	"fmt"
	"strings"

	pkgconfig "github.com/wekeepgrowing/semo-billing/pkg/config"
)

// ServiceName is the config file base name and env prefix (BILLING_*).
const ServiceName = "billing"

type Config struct {
	Service      ServiceConfig      `mapstructure:"service"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Server       ServerConfig       `mapstructure:"server"`
	Log          LogConfig          `mapstructure:"log"`
	JWT          JWTConfig          `mapstructure:"jwt"`
	Redis        RedisConfig        `mapstructure:"redis"`
	Providers    ProvidersConfig    `mapstructure:"providers"`
	Backend      BackendConfig      `mapstructure:"backend"`
	Reconcile    ReconcileConfig    `mapstructure:"reconcile"`
	Subscription SubscriptionConfig `mapstructure:"subscription"`
	Geo          GeoConfig          `mapstructure:"geo"`
	Currencies   []string           `mapstructure:"currencies"`
}

type LogConfig struct {
	Level    string `mapstructure:"level"`
	Format   string `mapstructure:"format"`
	Output   string `mapstructure:"output"`
	FilePath string `mapstructure:"file_path"`
}

type JWTConfig struct {
	Secret string `mapstructure:"secret"`
}

// RedisConfig enables event publishing when Addr is set.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Channel  string `mapstructure:"channel"`
}

type GeoConfig struct {
	DatabasePath string `mapstructure:"database_path"`
}

var defaults = map[string]interface{}{
	"service.name":                ServiceName,
	"service.environment":         "dev",
	"service.plans_file":          "configs/example/plans.yaml",
	"database.port":               5432,
	"database.sslmode":            "disable",
	"database.max_open_conns":     25,
	"database.max_idle_conns":     5,
	"database.conn_max_lifetime":  "30m",
	"database.conn_max_idle_time": "5m",
	"database.auto_migrate":       true,
	"server.http.port":            8080,
	"server.grpc.port":            9090,
	"server.shutdown_timeout":     "10s",
	"log.level":                   "info",
	"log.format":                  "json",
	"log.output":                  "stdout",
	"redis.channel":               "billing.events",
	"providers.default":           "sandbox",
	"providers.stripe.api_url":    "https://api.stripe.com",
	"providers.toss.api_url":      "https://api.tosspayments.com",
	"providers.sandbox.enabled":   true,
	"backend.timeout":             "10s",
	"reconcile.enabled":           true,
	"reconcile.schedule":          "@every 15m",
	"reconcile.timeout":           "10m",
	"currencies":                  []string{"USD", "KRW", "EUR"},
}

// Secrets are usually injected only through the environment, so they are
// bound explicitly even when the YAML file omits them.
var envKeys = []string{
	"database.password",
	"jwt.secret",
	"redis.password",
	"providers.stripe.secret_key",
	"providers.toss.secret_key",
	"backend.api_key",
	"backend.service_key",
}

func LoadConfig() (*Config, error) {
	loaded, err := pkgconfig.Load(ServiceName, pkgconfig.Options{
		Defaults: defaults,
		EnvKeys:  envKeys,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	var cfg Config
	if err := loaded.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) normalize() {
	for i, cur := range c.Currencies {
		c.Currencies[i] = strings.ToUpper(strings.TrimSpace(cur))
	}
	c.Providers.Default = strings.ToLower(c.Providers.Default)
}

// Validate checks settings that would otherwise fail late at request time.
func (c *Config) Validate() error {
	if len(c.Currencies) == 0 {
		return fmt.Errorf("invalid config: currencies must not be empty")
	}
	if c.Providers.Default == "" {
		return fmt.Errorf("invalid config: providers.default is required")
	}
	if !c.Providers.Enabled(c.Providers.Default) {
		return fmt.Errorf("invalid config: default provider %q is not enabled", c.Providers.Default)
	}
	if c.Reconcile.Enabled && c.Reconcile.Schedule == "" {
		return fmt.Errorf("invalid config: reconcile.schedule is required when reconcile is enabled")
	}
	return nil
}

// SupportsCurrency reports whether code (case-insensitive) is accepted for new intents.
func (c *Config) SupportsCurrency(code string) bool {
	code = strings.ToUpper(code)
	for _, cur := range c.Currencies {
		if cur == code {
			return true
		}
	}
	return false
}
