package marketdata

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/alpharadar/solana-alpha-tracker/internal/constants"
)

// TokenValuation is the resolver output for one observed swap. A zero-valued
// result means "no data": callers must never read a zero market cap as a
// legitimate cap of zero.
type TokenValuation struct {
	PricePerToken float64
	MarketCap     float64
	Symbol        string
	Decimals      uint8
}

// SolPricer fetches the base-asset price.
type SolPricer interface {
	SolPrice(ctx context.Context) (float64, error)
}

type metaEntry struct {
	meta     TokenMeta
	lastUsed time.Time
}

// Resolver derives price-per-token from the observed swap itself
// (solAmount*solPrice/tokenAmount) and multiplies by supply for an
// approximate market cap. The swap-implied price is the only price
// consistent with the transaction being analyzed.
type Resolver struct {
	prices SolPricer
	supply SupplyFetcher
	logger *logrus.Logger

	mu           sync.Mutex
	solPrice     float64
	solFetchedAt time.Time
	meta         map[string]*metaEntry
	lastSweep    time.Time

	// now is swappable for tests.
	now func() time.Time
}

func NewResolver(prices SolPricer, supply SupplyFetcher, logger *logrus.Logger) *Resolver {
	if logger == nil {
		logger = logrus.New()
	}
	return &Resolver{
		prices: prices,
		supply: supply,
		logger: logger,
		meta:   make(map[string]*metaEntry),
		now:    time.Now,
	}
}

// Resolve values one swap. Every failure path degrades to a zero valuation
// with a symbol fallback rather than returning an error; the pipeline must
// keep moving on partial data.
func (r *Resolver) Resolve(ctx context.Context, mint string, solAmount, tokenAmount float64) TokenValuation {
	val := TokenValuation{Symbol: SymbolFor(mint)}
	if tokenAmount <= 0 || solAmount <= 0 {
		return val
	}

	solPrice, err := r.cachedSolPrice(ctx)
	if err != nil {
		r.logger.WithError(err).WithField("mint", shortMint(mint)).Warn("sol price unavailable")
		return val
	}
	val.PricePerToken = solAmount * solPrice / tokenAmount

	meta, err := r.cachedTokenMeta(ctx, mint)
	if err != nil {
		r.logger.WithError(err).WithField("mint", shortMint(mint)).Warn("token supply unavailable")
		// Price is known but cap is not; report the price alone.
		return val
	}
	val.Decimals = meta.Decimals
	val.MarketCap = val.PricePerToken * meta.UISupply
	return val
}

// SolPrice exposes the cached base-asset price for USD conversion.
func (r *Resolver) SolPrice(ctx context.Context) (float64, error) {
	return r.cachedSolPrice(ctx)
}

func (r *Resolver) cachedSolPrice(ctx context.Context) (float64, error) {
	r.mu.Lock()
	if r.solPrice > 0 && r.now().Sub(r.solFetchedAt) < constants.SolPriceCacheTTL {
		price := r.solPrice
		r.mu.Unlock()
		return price, nil
	}
	r.mu.Unlock()

	// Refresh on expiry. Concurrent callers may race here; the duplicate
	// fetch is harmless and cheaper than holding the lock across I/O.
	price, err := r.prices.SolPrice(ctx)
	if err != nil {
		return 0, err
	}

	r.mu.Lock()
	r.solPrice = price
	r.solFetchedAt = r.now()
	r.mu.Unlock()
	return price, nil
}

func (r *Resolver) cachedTokenMeta(ctx context.Context, mint string) (TokenMeta, error) {
	r.mu.Lock()
	r.sweepLocked()
	if e, ok := r.meta[mint]; ok {
		e.lastUsed = r.now()
		meta := e.meta
		r.mu.Unlock()
		return meta, nil
	}
	r.mu.Unlock()

	meta, err := r.supply.TokenSupply(ctx, mint)
	if err != nil {
		return TokenMeta{}, err
	}

	r.mu.Lock()
	r.meta[mint] = &metaEntry{meta: meta, lastUsed: r.now()}
	r.mu.Unlock()
	return meta, nil
}

// sweepLocked evicts metadata entries unused for the idle TTL. The universe
// of observed mints is unbounded; the cache must not be.
func (r *Resolver) sweepLocked() {
	now := r.now()
	if now.Sub(r.lastSweep) < constants.TokenMetaSweepGap {
		return
	}
	r.lastSweep = now
	for mint, e := range r.meta {
		if now.Sub(e.lastUsed) > constants.TokenMetaIdleTTL {
			delete(r.meta, mint)
		}
	}
}

// SymbolFor maps a mint to a display symbol, shortening unknown mints.
func SymbolFor(mint string) string {
	if sym, ok := constants.TokenSymbols[mint]; ok {
		return sym
	}
	return shortMint(mint)
}

func shortMint(mint string) string {
	if len(mint) <= 10 {
		return mint
	}
	return mint[:4] + "…" + mint[len(mint)-4:]
}
