package config

import "time"

type ServiceConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	Version     string `mapstructure:"version"`
	PlansFile   string `mapstructure:"plans_file"`
}

type ProvidersConfig struct {
	// Default is used when a begin request names no provider.
	Default string        `mapstructure:"default"`
	Stripe  StripeConfig  `mapstructure:"stripe"`
	Toss    TossConfig    `mapstructure:"toss"`
	Sandbox SandboxConfig `mapstructure:"sandbox"`
}

// Enabled reports whether the named provider is configured.
func (c ProvidersConfig) Enabled(name string) bool {
	switch name {
	case "stripe":
		return c.Stripe.SecretKey != ""
	case "toss":
		return c.Toss.SecretKey != ""
	case "sandbox":
		return c.Sandbox.Enabled
	}
	return false
}

type StripeConfig struct {
	SecretKey string `mapstructure:"secret_key"`
	APIURL    string `mapstructure:"api_url"`
}

type TossConfig struct {
	SecretKey string `mapstructure:"secret_key"`
	ClientKey string `mapstructure:"client_key"`
	APIURL    string `mapstructure:"api_url"`
}

type SandboxConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Latency time.Duration `mapstructure:"latency"`
}

// BackendConfig points at the authoritative profile backend (Supabase-style REST).
type BackendConfig struct {
	URL        string        `mapstructure:"url"`
	APIKey     string        `mapstructure:"api_key"`
	ServiceKey string        `mapstructure:"service_key"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

type ReconcileConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule"`

	// Timeout bounds one sweep over all accounts. Zero means no limit.
	Timeout time.Duration `mapstructure:"timeout"`
}

type SubscriptionConfig struct {
	// AllowMultiple lifts the single-active-subscription-per-account rule.
	AllowMultiple bool `mapstructure:"allow_multiple"`
}
