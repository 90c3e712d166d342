package provider

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wekeepgrowing/semo-billing/internal/config"
	"github.com/wekeepgrowing/semo-billing/internal/domain/provider"
)

func TestNewFactory(t *testing.T) {
	cfg := &config.Config{
		Providers: config.ProvidersConfig{
			Default: "sandbox",
			Stripe:  config.StripeConfig{SecretKey: "sk_test_123"},
			Sandbox: config.SandboxConfig{Enabled: true},
		},
	}

	f, err := NewFactory(cfg, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, []string{"sandbox", "stripe"}, f.Names())

	p, err := f.GetProviderFromString("")
	require.NoError(t, err)
	assert.Equal(t, "sandbox", p.GetProviderName())

	_, err = f.GetProviderFromString("toss")
	assert.Error(t, err)

	owner, err := f.ProviderFor("pi_3Abc")
	require.NoError(t, err)
	assert.Equal(t, "stripe", owner.GetProviderName())

	owner, err = f.ProviderFor("sbx_1")
	require.NoError(t, err)
	assert.Equal(t, "sandbox", owner.GetProviderName())

	_, err = f.ProviderFor("toss_1")
	var nf *provider.IntentNotFoundError
	assert.True(t, errors.As(err, &nf))
}

func TestNewFactoryRequiresProviders(t *testing.T) {
	_, err := NewFactory(&config.Config{Providers: config.ProvidersConfig{Default: "sandbox"}}, zap.NewNop())
	assert.Error(t, err)

	_, err = NewFactory(&config.Config{Providers: config.ProvidersConfig{
		Default: "toss",
		Sandbox: config.SandboxConfig{Enabled: true},
	}}, zap.NewNop())
	assert.ErrorContains(t, err, "default provider")
}
