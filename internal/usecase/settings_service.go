package usecase

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/wekeepgrowing/semo-billing/internal/config"
	"github.com/wekeepgrowing/semo-billing/internal/domain/entity"
	domainErrors "github.com/wekeepgrowing/semo-billing/internal/domain/errors"
)

// ReceiptEmailMetadataKey carries the receipt address on new intents.
const ReceiptEmailMetadataKey = "receipt_email"

// BillingSettingsService manages per-account billing preferences.
type BillingSettingsService struct {
	store     SettingsStore[entity.BillingPreferences]
	providers ProviderResolver
	cfg       *config.Config
	logger    *zap.Logger
}

func NewBillingSettingsService(
	store SettingsStore[entity.BillingPreferences],
	providers ProviderResolver,
	cfg *config.Config,
	logger *zap.Logger,
) *BillingSettingsService {
	return &BillingSettingsService{
		store:     store,
		providers: providers,
		cfg:       cfg,
		logger:    logger,
	}
}

// Defaults are the preferences of an account that never saved any.
func (s *BillingSettingsService) Defaults() entity.BillingPreferences {
	prefs := entity.BillingPreferences{DefaultProvider: s.cfg.Providers.Default}
	if len(s.cfg.Currencies) > 0 {
		prefs.DefaultCurrency = s.cfg.Currencies[0]
	}
	return prefs
}

func (s *BillingSettingsService) Get(ctx context.Context, accountID string) (entity.BillingPreferences, error) {
	if accountID == "" {
		return entity.BillingPreferences{}, domainErrors.NewValidationError("account_id", "is required")
	}
	return s.store.GetOrDefault(ctx, entity.BillingPreferencesKey(accountID), s.Defaults())
}

// Update merges partial into the stored preferences. Only the fields
// present in partial change.
func (s *BillingSettingsService) Update(ctx context.Context, accountID string, partial map[string]any) (entity.BillingPreferences, error) {
	if accountID == "" {
		return entity.BillingPreferences{}, domainErrors.NewValidationError("account_id", "is required")
	}

	normalized := make(map[string]any, len(partial))
	for key, value := range partial {
		normalized[key] = value
	}

	if err := s.normalizeString(normalized, "default_provider", func(v string) (string, error) {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "" {
			return v, nil
		}
		if _, err := s.providers.GetProviderFromString(v); err != nil {
			return "", fmt.Errorf("provider %q is not available", v)
		}
		return v, nil
	}); err != nil {
		return entity.BillingPreferences{}, err
	}

	if err := s.normalizeString(normalized, "default_currency", func(v string) (string, error) {
		v = strings.ToUpper(strings.TrimSpace(v))
		if !s.cfg.SupportsCurrency(v) {
			return "", fmt.Errorf("%s is not supported", v)
		}
		return v, nil
	}); err != nil {
		return entity.BillingPreferences{}, err
	}

	if err := s.normalizeString(normalized, "receipt_email", func(v string) (string, error) {
		v = strings.TrimSpace(v)
		if err := validate.Var(v, "omitempty,email"); err != nil {
			return "", fmt.Errorf("must be a valid email address")
		}
		return v, nil
	}); err != nil {
		return entity.BillingPreferences{}, err
	}

	prefs, err := s.store.MergeUpdate(ctx, entity.BillingPreferencesKey(accountID), normalized, s.Defaults())
	if err != nil {
		return entity.BillingPreferences{}, err
	}

	s.logger.Info("Billing preferences updated",
		zap.String("account_id", accountID),
		zap.String("default_provider", prefs.DefaultProvider),
		zap.String("default_currency", prefs.DefaultCurrency))
	return prefs, nil
}

// ApplyDefaults fills the provider and currency of req from the account's
// preferences when the caller left them empty, and tags the receipt address.
func (s *BillingSettingsService) ApplyDefaults(ctx context.Context, req *BeginRequest) error {
	prefs, err := s.Get(ctx, req.AccountID)
	if err != nil {
		return err
	}

	if req.Provider == "" {
		req.Provider = prefs.DefaultProvider
	}
	if req.Currency == "" {
		req.Currency = prefs.DefaultCurrency
	}
	if prefs.ReceiptEmail != "" {
		if req.Metadata == nil {
			req.Metadata = map[string]string{}
		}
		if _, ok := req.Metadata[ReceiptEmailMetadataKey]; !ok {
			req.Metadata[ReceiptEmailMetadataKey] = prefs.ReceiptEmail
		}
	}
	return nil
}

func (s *BillingSettingsService) normalizeString(partial map[string]any, key string, fn func(string) (string, error)) error {
	raw, ok := partial[key]
	if !ok {
		return nil
	}
	str, ok := raw.(string)
	if !ok {
		return domainErrors.NewValidationError(key, "must be a string")
	}
	v, err := fn(str)
	if err != nil {
		return domainErrors.NewValidationError(key, err.Error())
	}
	partial[key] = v
	return nil
}
