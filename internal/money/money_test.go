package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToMinorUnit(t *testing.T) {
	tests := []struct {
		name     string
		amount   string
		currency string
		want     int64
	}{
		{"two decimal currency", "10.00", "EUR", 1000},
		{"zero decimal currency", "1000", "JPY", 1000},
		{"three decimal currency", "1.234", "KWD", 1234},
		{"rounds half up", "10.005", "EUR", 1001},
		{"rounds down below half", "10.004", "EUR", 1000},
		{"lowercase currency accepted", "2.50", "eur", 250},
		{"zero amount", "0", "EUR", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ToMinorUnit(decimal.RequireFromString(tt.amount), tt.currency)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestToMinorUnit_Errors(t *testing.T) {
	_, err := ToMinorUnit(decimal.NewFromInt(-1), "EUR")
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = ToMinorUnit(decimal.NewFromInt(1), "XXX")
	assert.ErrorIs(t, err, ErrUnknownCurrency)
}

func TestFromMinorUnit(t *testing.T) {
	got, err := FromMinorUnit(1050, "EUR")
	require.NoError(t, err)
	assert.True(t, got.Equal(decimal.RequireFromString("10.50")))

	got, err = FromMinorUnit(1000, "JPY")
	require.NoError(t, err)
	assert.True(t, got.Equal(decimal.NewFromInt(1000)))
	assert.Equal(t, "1000", got.String())

	_, err = FromMinorUnit(1, "nope")
	assert.ErrorIs(t, err, ErrUnknownCurrency)
}

func TestRoundTrip(t *testing.T) {
	// fromMinorUnit(toMinorUnit(x, c), c) == round(x, fractionDigits(c))
	amounts := []string{"0", "0.01", "1", "10.5", "19.99", "1234.56", "0.005"}

	for _, a := range amounts {
		x := decimal.RequireFromString(a)

		minor, err := ToMinorUnit(x, "EUR")
		require.NoError(t, err)
		back, err := FromMinorUnit(minor, "EUR")
		require.NoError(t, err)
		assert.True(t, back.Equal(x.Round(2)), "EUR round trip for %s: got %s", a, back)

		minor, err = ToMinorUnit(x, "JPY")
		require.NoError(t, err)
		back, err = FromMinorUnit(minor, "JPY")
		require.NoError(t, err)
		assert.True(t, back.Equal(x.Round(0)), "JPY round trip for %s: got %s", a, back)
	}
}

func TestFormat(t *testing.T) {
	tests := []struct {
		amount   string
		currency string
		want     string
	}{
		{"1000", "EUR", "€ 1,000.00"},
		{"1000", "JPY", "¥ 1,000"},
		{"1234567.5", "USD", "$ 1,234,567.50"},
		{"999", "EUR", "€ 999.00"},
		{"0", "EUR", "€ 0.00"},
	}

	for _, tt := range tests {
		got, err := Format(decimal.RequireFromString(tt.amount), tt.currency)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	_, err := Format(decimal.NewFromInt(1), "???")
	assert.ErrorIs(t, err, ErrUnknownCurrency)
}

func TestFormatFromMinorUnit(t *testing.T) {
	got, err := FormatFromMinorUnit(100000, "EUR")
	require.NoError(t, err)
	assert.Equal(t, "€ 1,000.00", got)

	got, err = FormatFromMinorUnit(1000, "JPY")
	require.NoError(t, err)
	assert.Equal(t, "¥ 1,000", got)
}

func TestIsKnown(t *testing.T) {
	assert.True(t, IsKnown("EUR"))
	assert.True(t, IsKnown("eur"))
	assert.False(t, IsKnown("XYZ"))
}
