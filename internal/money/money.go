// Package money converts between decimal amounts and integer minor units and
// formats amounts for display, always according to the currency's ISO 4217
// fraction digits.
//
// The three operations are mutually consistent: for any supported currency c,
// FromMinorUnit(ToMinorUnit(x, c), c) equals x rounded to c's fraction digits.
package money

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	// ErrUnknownCurrency is returned for currency codes outside the
	// supported ISO 4217 set.
	ErrUnknownCurrency = errors.New("money: unknown currency")

	// ErrInvalidAmount is returned for negative amounts.
	ErrInvalidAmount = errors.New("money: invalid amount")
)

// ToMinorUnit scales amount into the currency's smallest unit, rounding
// half-up. ToMinorUnit(10.00, "EUR") is 1000; ToMinorUnit(1000, "JPY") is 1000.
func ToMinorUnit(amount decimal.Decimal, currency string) (int64, error) {
	if amount.IsNegative() {
		return 0, ErrInvalidAmount
	}
	digits, err := FractionDigits(currency)
	if err != nil {
		return 0, err
	}
	return amount.Shift(digits).Round(0).IntPart(), nil
}

// FromMinorUnit is the inverse of ToMinorUnit. The result carries the
// currency's fraction digits as its exponent, so zero-decimal currencies
// come back as integer-valued decimals.
func FromMinorUnit(minorAmount int64, currency string) (decimal.Decimal, error) {
	digits, err := FractionDigits(currency)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return decimal.New(minorAmount, -digits), nil
}

// Format renders amount with thousands grouping and the currency's fraction
// digits, prefixed with the currency symbol:
//
//	Format(1000, "EUR") => "€ 1,000.00"
//	Format(1000, "JPY") => "¥ 1,000"
func Format(amount decimal.Decimal, currency string) (string, error) {
	digits, err := FractionDigits(currency)
	if err != nil {
		return "", err
	}
	symbol, _ := Symbol(currency)
	return symbol + " " + group(amount.StringFixed(digits)), nil
}

// FormatFromMinorUnit renders a minor-unit amount for display.
// FormatFromMinorUnit(100000, "EUR") => "€ 1,000.00".
func FormatFromMinorUnit(minorAmount int64, currency string) (string, error) {
	amount, err := FromMinorUnit(minorAmount, currency)
	if err != nil {
		return "", err
	}
	return Format(amount, currency)
}

// group inserts thousands separators into the integer part of a fixed-point
// decimal string.
func group(s string) string {
	intPart, fracPart, hasFrac := strings.Cut(s, ".")

	neg := strings.HasPrefix(intPart, "-")
	if neg {
		intPart = intPart[1:]
	}

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if hasFrac {
		b.WriteByte('.')
		b.WriteString(fracPart)
	}
	return b.String()
}
