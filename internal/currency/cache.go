package currency

import (
	"sync"
	"time"

	"fitbook/internal/domain"
)

// ExchangeRate is one directed conversion factor observed at a point in time.
// Entries are superseded by fresh fetches, never mutated in place.
type ExchangeRate struct {
	From       domain.Currency
	To         domain.Currency
	Rate       float64
	ObservedAt time.Time
	Source     RateSource
}

// RateSource tags where a rate came from. It is kept internal to the package
// for logging; the public conversion contract collapses it to a plain number.
type RateSource string

const (
	SourceFetched  RateSource = "fetched"
	SourceFallback RateSource = "fallback"
	SourceIdentity RateSource = "identity"
)

type pairKey struct {
	from, to domain.Currency
}

// rateCache maps ordered currency pairs to the most recent rate. Staleness is
// checked lazily on read; expired entries are simply overwritten by the next
// fetch rather than swept. Concurrent refreshes of the same stale pair may
// both hit the provider; last write wins.
type rateCache struct {
	mu      sync.RWMutex
	entries map[pairKey]ExchangeRate
}

func newRateCache() *rateCache {
	return &rateCache{entries: make(map[pairKey]ExchangeRate)}
}

// get returns the cached rate for (from, to) when its age at now is strictly
// less than ttl.
func (c *rateCache) get(from, to domain.Currency, now time.Time, ttl time.Duration) (ExchangeRate, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[pairKey{from, to}]
	if !ok {
		return ExchangeRate{}, false
	}
	if now.Sub(entry.ObservedAt) >= ttl {
		return ExchangeRate{}, false
	}
	return entry, true
}

// putAll stores one entry per target currency, all sharing the same base,
// observation time and source.
func (c *rateCache) putAll(from domain.Currency, rates map[domain.Currency]float64, observedAt time.Time, source RateSource) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for to, rate := range rates {
		c.entries[pairKey{from, to}] = ExchangeRate{
			From:       from,
			To:         to,
			Rate:       rate,
			ObservedAt: observedAt,
			Source:     source,
		}
	}
}
