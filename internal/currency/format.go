package currency

import (
	"fmt"
	"strings"

	"fitbook/internal/domain"
)

var currencySymbols = map[domain.Currency]string{
	domain.USD: "$",
	domain.EUR: "€",
	domain.GBP: "£",
	domain.JPY: "¥",
	domain.INR: "₹",
	domain.CAD: "CA$",
	domain.AUD: "A$",
}

// decimalPlaces returns how many fractional digits a currency is displayed
// with. JPY is a zero-decimal currency.
func decimalPlaces(cur domain.Currency) int {
	if cur == domain.JPY {
		return 0
	}
	return 2
}

// FormatAmount produces a display string for amount in cur: currency symbol,
// comma-grouped integer digits, and the currency's usual number of decimals.
// Pure and deterministic per (amount, currency) pair; no locale lookup.
func (c *Converter) FormatAmount(amount float64, cur domain.Currency) string {
	symbol, ok := currencySymbols[cur]
	if !ok {
		symbol = cur.String() + " "
	}

	places := decimalPlaces(cur)
	rounded := roundHalfUp(amount, places)

	var intPart, fracPart string
	if places == 0 {
		intPart = fmt.Sprintf("%.0f", rounded)
	} else {
		parts := strings.SplitN(fmt.Sprintf("%.*f", places, rounded), ".", 2)
		intPart = parts[0]
		fracPart = parts[1]
	}

	negative := strings.HasPrefix(intPart, "-")
	intPart = strings.TrimPrefix(intPart, "-")

	grouped := groupThousands(intPart)

	var b strings.Builder
	if negative {
		b.WriteString("-")
	}
	b.WriteString(symbol)
	b.WriteString(grouped)
	if fracPart != "" {
		b.WriteString(".")
		b.WriteString(fracPart)
	}
	return b.String()
}

// groupThousands inserts commas into a plain digit string every three digits
// from the right.
func groupThousands(digits string) string {
	n := len(digits)
	if n <= 3 {
		return digits
	}

	var b strings.Builder
	head := n % 3
	if head > 0 {
		b.WriteString(digits[:head])
	}
	for i := head; i < n; i += 3 {
		if b.Len() > 0 {
			b.WriteString(",")
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
