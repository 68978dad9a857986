package money

import "strings"

// currencyInfo holds the ISO 4217 metadata the formatter needs: how many
// fraction digits the currency uses and the symbol to display it with.
type currencyInfo struct {
	fractionDigits int32
	symbol         string
}

// currencies covers the presentment currencies accepted by the checkout
// provider. Zero-decimal and three-decimal currencies are listed explicitly;
// everything here defaults to two fraction digits otherwise.
var currencies = map[string]currencyInfo{
	"AED": {2, "د.إ"},
	"AUD": {2, "A$"},
	"BGN": {2, "лв"},
	"BHD": {3, ".د.ب"},
	"BIF": {0, "FBu"},
	"BRL": {2, "R$"},
	"CAD": {2, "CA$"},
	"CHF": {2, "CHF"},
	"CLP": {0, "CLP$"},
	"CNY": {2, "CN¥"},
	"CZK": {2, "Kč"},
	"DJF": {0, "Fdj"},
	"DKK": {2, "kr"},
	"EUR": {2, "€"},
	"GBP": {2, "£"},
	"GNF": {0, "FG"},
	"HKD": {2, "HK$"},
	"HUF": {2, "Ft"},
	"IDR": {2, "Rp"},
	"ILS": {2, "₪"},
	"INR": {2, "₹"},
	"ISK": {0, "kr"},
	"JOD": {3, "د.أ"},
	"JPY": {0, "¥"},
	"KMF": {0, "CF"},
	"KRW": {0, "₩"},
	"KWD": {3, "د.ك"},
	"MGA": {0, "Ar"},
	"MXN": {2, "MX$"},
	"MYR": {2, "RM"},
	"NOK": {2, "kr"},
	"NZD": {2, "NZ$"},
	"OMR": {3, "ر.ع."},
	"PHP": {2, "₱"},
	"PLN": {2, "zł"},
	"PYG": {0, "₲"},
	"RON": {2, "lei"},
	"RWF": {0, "FRw"},
	"SEK": {2, "kr"},
	"SGD": {2, "S$"},
	"THB": {2, "฿"},
	"TND": {3, "د.ت"},
	"TRY": {2, "₺"},
	"TWD": {2, "NT$"},
	"UGX": {0, "USh"},
	"USD": {2, "$"},
	"VND": {0, "₫"},
	"VUV": {0, "VT"},
	"XAF": {0, "FCFA"},
	"XOF": {0, "CFA"},
	"XPF": {0, "₣"},
	"ZAR": {2, "R"},
}

// IsKnown reports whether code is a supported ISO 4217 currency code.
// Comparison is case-insensitive.
func IsKnown(code string) bool {
	_, ok := currencies[strings.ToUpper(code)]
	return ok
}

// FractionDigits returns the number of decimal places the currency uses
// (0 for JPY, 2 for EUR, 3 for KWD).
func FractionDigits(currency string) (int32, error) {
	info, ok := currencies[strings.ToUpper(currency)]
	if !ok {
		return 0, ErrUnknownCurrency
	}
	return info.fractionDigits, nil
}

// Symbol returns the display symbol for the currency.
func Symbol(currency string) (string, error) {
	info, ok := currencies[strings.ToUpper(currency)]
	if !ok {
		return "", ErrUnknownCurrency
	}
	return info.symbol, nil
}
