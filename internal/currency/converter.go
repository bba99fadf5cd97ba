package currency

import (
	"context"
	"errors"
	"math"
	"net/http"
	"time"

	"fitbook/internal/domain"

	"go.uber.org/zap"
)

const (
	// DefaultCacheTTL is how long a fetched rate is considered fresh.
	DefaultCacheTTL = time.Hour

	// DefaultHTTPTimeout bounds a single provider request.
	DefaultHTTPTimeout = 8 * time.Second

	// maxPriceAnchorINR is the application-wide "reasonable maximum price"
	// anchor, expressed in the base currency INR. Used only to bound UI
	// range sliders.
	maxPriceAnchorINR = 1_000_000
)

var (
	ErrInvalidAmount       = errors.New("amount must be a finite, non-negative number")
	ErrUnsupportedCurrency = errors.New("currency is not in the supported set")
	ErrRateUnavailable     = errors.New("exchange rate unavailable")
)

// Config holds the converter's tunables. Zero values fall back to sane
// defaults; Clock and HTTPClient exist so tests can drive expiry and the
// provider without a real network or wall clock.
type Config struct {
	APIURL      string
	CacheTTL    time.Duration
	HTTPTimeout time.Duration
	HTTPClient  *http.Client
	Clock       func() time.Time
}

// Converter converts monetary amounts between supported currencies using a
// remote rate provider, a process-wide time-bounded cache, and a static
// fallback table when the provider is unreachable. Construct one at startup
// and share it by reference.
type Converter struct {
	apiURL     string
	ttl        time.Duration
	httpClient *http.Client
	now        func() time.Time
	cache      *rateCache
	logger     *zap.Logger
}

// NewConverter creates a Converter from cfg.
func NewConverter(cfg Config, logger *zap.Logger) *Converter {
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.HTTPTimeout
		if timeout <= 0 {
			timeout = DefaultHTTPTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	now := cfg.Clock
	if now == nil {
		now = time.Now
	}

	return &Converter{
		apiURL:     cfg.APIURL,
		ttl:        ttl,
		httpClient: httpClient,
		now:        now,
		cache:      newRateCache(),
		logger:     logger,
	}
}

// GetExchangeRate returns how many units of to one unit of from buys.
// Identity pairs return 1 without touching the cache or the network. Stale or
// missing pairs trigger a batch fetch of every rate for the base currency;
// when the provider fails, the static fallback table is used and cached for
// the same TTL so an outage does not mean a request per call.
func (c *Converter) GetExchangeRate(ctx context.Context, from, to domain.Currency) (float64, error) {
	rate, err := c.lookupRate(ctx, from, to)
	if err != nil {
		return 0, err
	}
	return rate.Rate, nil
}

func (c *Converter) lookupRate(ctx context.Context, from, to domain.Currency) (ExchangeRate, error) {
	if !from.IsValid() || !to.IsValid() {
		return ExchangeRate{}, ErrUnsupportedCurrency
	}

	now := c.now()

	if from == to {
		return ExchangeRate{From: from, To: to, Rate: 1, ObservedAt: now, Source: SourceIdentity}, nil
	}

	if cached, ok := c.cache.get(from, to, now, c.ttl); ok {
		return cached, nil
	}

	rates, source, err := c.refreshRates(ctx, from)
	if err != nil {
		return ExchangeRate{}, err
	}

	c.cache.putAll(from, rates, now, source)

	rate, ok := rates[to]
	if !ok {
		c.logger.Warn("Rate missing from refreshed set",
			zap.String("from", from.String()),
			zap.String("to", to.String()),
			zap.String("source", string(source)),
		)
		return ExchangeRate{}, ErrRateUnavailable
	}

	return ExchangeRate{From: from, To: to, Rate: rate, ObservedAt: now, Source: source}, nil
}

// refreshRates fetches the full rate row for base, degrading to the static
// fallback table when the provider is unavailable.
func (c *Converter) refreshRates(ctx context.Context, base domain.Currency) (map[domain.Currency]float64, RateSource, error) {
	rates, err := c.fetchRates(ctx, base)
	if err == nil {
		c.logger.Debug("Exchange rates fetched",
			zap.String("base", base.String()),
			zap.Int("count", len(rates)),
		)
		return rates, SourceFetched, nil
	}

	c.logger.Warn("Rate provider unavailable, using fallback table",
		zap.String("base", base.String()),
		zap.Error(err),
	)

	fallback, ok := fallbackFor(base)
	if !ok {
		return nil, "", ErrRateUnavailable
	}
	return fallback, SourceFallback, nil
}

// ConvertAmount converts amount from one currency to another. Identity
// conversions return the amount unchanged with no rounding applied; all
// others are rounded half-up to two decimal places.
func (c *Converter) ConvertAmount(ctx context.Context, amount float64, from, to domain.Currency) (float64, error) {
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount < 0 {
		return 0, ErrInvalidAmount
	}

	if from == to {
		if !from.IsValid() {
			return 0, ErrUnsupportedCurrency
		}
		return amount, nil
	}

	rate, err := c.GetExchangeRate(ctx, from, to)
	if err != nil {
		return 0, err
	}

	return roundHalfUp(amount*rate, 2), nil
}

// MaxPrice returns the slider upper bound for cur: the INR anchor converted
// and rounded up to the nearest 100.
func (c *Converter) MaxPrice(ctx context.Context, cur domain.Currency) (float64, error) {
	if cur == domain.INR {
		return maxPriceAnchorINR, nil
	}

	converted, err := c.ConvertAmount(ctx, maxPriceAnchorINR, domain.INR, cur)
	if err != nil {
		return 0, err
	}
	return math.Ceil(converted/100) * 100, nil
}

// roundHalfUp rounds x to the given number of decimal places, halves away
// from zero for non-negative input.
func roundHalfUp(x float64, places int) float64 {
	shift := math.Pow(10, float64(places))
	return math.Floor(x*shift+0.5) / shift
}
