package currency

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"fitbook/internal/domain"
)

// rateResponse is the provider's wire format: a base code and a mapping of
// target currency codes to conversion factors. A body without a rates field
// is treated as a failed fetch.
type rateResponse struct {
	Base  string              `json:"base"`
	Rates map[string]*float64 `json:"rates"`
}

// fetchRates requests, in a single call, the rates from base to every other
// supported currency. Any transport error, non-2xx status or malformed body
// is returned as an error so the caller can take the fallback path.
func (c *Converter) fetchRates(ctx context.Context, base domain.Currency) (map[domain.Currency]float64, error) {
	symbols := make([]string, 0, len(domain.SupportedCurrencies)-1)
	for _, cur := range domain.SupportedCurrencies {
		if cur != base {
			symbols = append(symbols, cur.String())
		}
	}

	endpoint := fmt.Sprintf("%s/latest?base=%s&symbols=%s",
		strings.TrimRight(c.apiURL, "/"),
		url.QueryEscape(base.String()),
		url.QueryEscape(strings.Join(symbols, ",")),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build rate request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rate provider unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("rate provider returned status %d", resp.StatusCode)
	}

	var body rateResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode rate response: %w", err)
	}
	if body.Rates == nil {
		return nil, fmt.Errorf("rate response missing rates field")
	}

	rates := make(map[domain.Currency]float64, len(body.Rates)+1)
	for code, rate := range body.Rates {
		cur := domain.Currency(code)
		if !cur.IsValid() || rate == nil || *rate <= 0 {
			continue
		}
		rates[cur] = *rate
	}
	// The provider never echoes the base pair; define it explicitly so the
	// cache holds a complete row for this base.
	rates[base] = 1

	return rates, nil
}
