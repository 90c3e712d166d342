package provider

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/wekeepgrowing/semo-billing/internal/config"
	"github.com/wekeepgrowing/semo-billing/internal/domain/provider"
	sandboxProvider "github.com/wekeepgrowing/semo-billing/internal/infrastructure/provider/sandbox"
	stripeProvider "github.com/wekeepgrowing/semo-billing/internal/infrastructure/provider/stripe"
	tossProvider "github.com/wekeepgrowing/semo-billing/internal/infrastructure/provider/toss"
)

// Factory resolves payment providers by name and by intent id
type Factory struct {
	providers   map[string]provider.PaymentProvider
	defaultName string
	logger      *zap.Logger
}

// NewFactory creates a factory holding every provider enabled in config
func NewFactory(cfg *config.Config, logger *zap.Logger) (*Factory, error) {
	var providers []provider.PaymentProvider

	if cfg.Providers.Enabled(string(provider.ProviderTypeStripe)) {
		providers = append(providers, stripeProvider.NewStripeProvider(
			cfg.Providers.Stripe.SecretKey,
			cfg.Providers.Stripe.APIURL,
			logger,
		))
	}
	if cfg.Providers.Enabled(string(provider.ProviderTypeToss)) {
		providers = append(providers, tossProvider.NewTossProvider(
			cfg.Providers.Toss.SecretKey,
			cfg.Providers.Toss.ClientKey,
			cfg.Providers.Toss.APIURL,
			logger,
		))
	}
	if cfg.Providers.Enabled(string(provider.ProviderTypeSandbox)) {
		providers = append(providers, sandboxProvider.NewSandboxProvider(cfg.Providers.Sandbox.Latency, logger))
	}

	if len(providers) == 0 {
		return nil, fmt.Errorf("no payment provider configured")
	}

	f := NewFactoryWithProviders(cfg.Providers.Default, logger, providers...)
	if _, ok := f.providers[f.defaultName]; !ok {
		return nil, fmt.Errorf("default provider %q is not configured", cfg.Providers.Default)
	}
	return f, nil
}

// NewFactoryWithProviders builds a factory from ready-made providers
func NewFactoryWithProviders(defaultName string, logger *zap.Logger, providers ...provider.PaymentProvider) *Factory {
	f := &Factory{
		providers:   make(map[string]provider.PaymentProvider, len(providers)),
		defaultName: defaultName,
		logger:      logger,
	}
	for _, p := range providers {
		f.providers[p.GetProviderName()] = p
	}
	return f
}

// GetProvider returns a payment provider based on the provider type
func (f *Factory) GetProvider(providerType provider.ProviderType) (provider.PaymentProvider, error) {
	p, ok := f.providers[string(providerType)]
	if !ok {
		return nil, fmt.Errorf("unsupported provider type: %s", providerType)
	}
	return p, nil
}

// GetProviderFromString returns a payment provider from a string type,
// falling back to the configured default when empty
func (f *Factory) GetProviderFromString(providerStr string) (provider.PaymentProvider, error) {
	if providerStr == "" {
		providerStr = f.defaultName
	}
	return f.GetProvider(provider.ProviderType(providerStr))
}

// ProviderFor returns the provider whose namespace contains intentID
func (f *Factory) ProviderFor(intentID string) (provider.PaymentProvider, error) {
	for _, p := range f.providers {
		if p.Owns(intentID) {
			return p, nil
		}
	}
	return nil, &provider.IntentNotFoundError{Provider: "any", IntentID: intentID}
}

// Names lists the configured providers
func (f *Factory) Names() []string {
	names := make([]string, 0, len(f.providers))
	for name := range f.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
