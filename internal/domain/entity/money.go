package entity

import (
	"strings"

	"github.com/shopspring/decimal"
)

// zeroDecimalCurrencies have no minor unit (ISO 4217 exponent 0).
var zeroDecimalCurrencies = map[string]struct{}{
	"BIF": {}, "CLP": {}, "DJF": {}, "GNF": {}, "JPY": {}, "KMF": {}, "KRW": {},
	"MGA": {}, "PYG": {}, "RWF": {}, "UGX": {}, "VND": {}, "VUV": {}, "XAF": {},
	"XOF": {}, "XPF": {},
}

// CurrencyExponent returns the number of minor-unit digits for code.
func CurrencyExponent(code string) int32 {
	if _, ok := zeroDecimalCurrencies[strings.ToUpper(code)]; ok {
		return 0
	}
	return 2
}

// MajorUnits converts a minor-unit amount to its decimal major-unit value,
// e.g. 999 USD -> 9.99 and 5000 KRW -> 5000.
func MajorUnits(amount int64, currency string) decimal.Decimal {
	return decimal.New(amount, -CurrencyExponent(currency))
}

// FormatAmount renders amount for display, e.g. "9.99 USD".
func FormatAmount(amount int64, currency string) string {
	exp := CurrencyExponent(currency)
	return MajorUnits(amount, currency).StringFixed(exp) + " " + strings.ToUpper(currency)
}
