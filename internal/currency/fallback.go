package currency

import "fitbook/internal/domain"

// fallbackRates holds static approximate rates used when the live provider is
// unavailable. Only INR carries a table; conversions from any other base
// during an outage surface ErrRateUnavailable instead of silently producing
// garbage amounts.
var fallbackRates = map[domain.Currency]map[domain.Currency]float64{
	domain.INR: {
		domain.USD: 0.012,
		domain.EUR: 0.011,
		domain.GBP: 0.0095,
		domain.JPY: 1.8,
		domain.INR: 1,
		domain.CAD: 0.016,
		domain.AUD: 0.018,
	},
}

// fallbackFor returns a copy of the static table for base, if one exists.
// The copy keeps later cache writes from aliasing the package-level table.
func fallbackFor(base domain.Currency) (map[domain.Currency]float64, bool) {
	table, ok := fallbackRates[base]
	if !ok {
		return nil, false
	}
	rates := make(map[domain.Currency]float64, len(table))
	for to, rate := range table {
		rates[to] = rate
	}
	return rates, true
}
