package emvqr

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// amountPlaces is the THB minor-unit precision.
const amountPlaces = 2

// ValidateAmount accepts strictly positive amounts with at most two decimals.
func ValidateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return &EncodingError{Tag: TagAmount, Reason: "amount must be greater than zero"}
	}
	if !amount.Equal(amount.Round(amountPlaces)) {
		return &EncodingError{Tag: TagAmount, Reason: "amount has more than two decimal places"}
	}
	return nil
}

// FormatAmount renders amount as used in tag 54, e.g. "250.00".
func FormatAmount(amount decimal.Decimal) (string, error) {
	if err := ValidateAmount(amount); err != nil {
		return "", err
	}
	return amount.StringFixed(amountPlaces), nil
}

// AmountFromFloat converts a float amount, rounding to satang.
func AmountFromFloat(f float64) (decimal.Decimal, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero, &EncodingError{Tag: TagAmount, Reason: "amount is not a finite number"}
	}
	d := decimal.NewFromFloat(f).Round(amountPlaces)
	if err := ValidateAmount(d); err != nil {
		return decimal.Zero, err
	}
	return d, nil
}

// ParseAmount parses a decimal string amount such as "250" or "250.00".
func ParseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, &EncodingError{Tag: TagAmount, Reason: "amount is not a decimal number"}
	}
	if err := ValidateAmount(d); err != nil {
		return decimal.Zero, err
	}
	return d, nil
}
