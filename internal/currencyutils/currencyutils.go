// Package currencyutils provides the currency and decimal operations used to read
// amounts out of M-PESA messages.
package currencyutils

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// CurrencyKES is the ISO code amounts are reported in.
const CurrencyKES = "KES"

// amountPattern matches a currency code immediately followed by optional whitespace
// and a number using ',' for thousands and '.' for decimals: "Ksh1,234.50", "KES 250".
// Only the two shillings spellings are recognised, in any ASCII case. (?i) is not
// used since it also matches the Kelvin sign and long s.
var amountPattern = regexp.MustCompile(`([Kk][Ss][Hh]|[Kk][Ee][Ss])\s*([0-9,]+(\.[0-9]+)?)`)

// ExtractAmount returns the first currency-prefixed amount found in text.
// Missing or unparseable amounts yield zero, never an error.
func ExtractAmount(text string) decimal.Decimal {
	raw, ok := FindAmountToken(text)
	if !ok {
		return decimal.Zero
	}
	amount, err := ParseAmount(raw)
	if err != nil {
		return decimal.Zero
	}
	return amount
}

// FindAmountToken returns the numeric part of the first currency-prefixed amount in text.
func FindAmountToken(text string) (string, bool) {
	m := amountPattern.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return m[2], true
}

// ParseAmount parses a number that uses ',' as thousands separator and '.' as
// decimal separator, e.g. "1,234.50".
func ParseAmount(raw string) (decimal.Decimal, error) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	amount, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse amount '%s': %w", raw, err)
	}
	return amount, nil
}

// FormatAmount renders an amount with two decimal places, e.g. "KES 1250.00".
func FormatAmount(amount decimal.Decimal) string {
	return fmt.Sprintf("%s %s", CurrencyKES, amount.StringFixed(2))
}
