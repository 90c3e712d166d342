package entity

// BillingPreferences are per-account defaults applied to new intents.
type BillingPreferences struct {
	DefaultProvider string `json:"default_provider"`
	DefaultCurrency string `json:"default_currency"`
	ReceiptEmail    string `json:"receipt_email"`
}

// BillingPreferencesKey is the settings key for an account's preferences.
func BillingPreferencesKey(accountID string) string {
	return "billing_preferences:" + accountID
}
