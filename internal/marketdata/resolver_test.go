package marketdata

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alpharadar/solana-alpha-tracker/internal/constants"
)

const memeMint = "DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263"

type stubPricer struct {
	price float64
	err   error
	calls int
}

func (s *stubPricer) SolPrice(context.Context) (float64, error) {
	s.calls++
	if s.err != nil {
		return 0, s.err
	}
	return s.price, nil
}

type stubSupply struct {
	meta  TokenMeta
	err   error
	calls int
}

func (s *stubSupply) TokenSupply(context.Context, string) (TokenMeta, error) {
	s.calls++
	if s.err != nil {
		return TokenMeta{}, s.err
	}
	return s.meta, nil
}

func TestResolve_SwapImpliedPriceAndCap(t *testing.T) {
	pricer := &stubPricer{price: 200}
	supply := &stubSupply{meta: TokenMeta{UISupply: 1_000_000_000, Decimals: 5}}
	r := NewResolver(pricer, supply, nil)

	// 10 SOL at $200 for 2M tokens: $0.001 per token, $1M cap.
	val := r.Resolve(context.Background(), memeMint, 10, 2_000_000)
	assert.InDelta(t, 0.001, val.PricePerToken, 1e-9)
	assert.InDelta(t, 1_000_000, val.MarketCap, 0.001)
	assert.Equal(t, "BONK", val.Symbol)
	assert.Equal(t, uint8(5), val.Decimals)
}

func TestResolve_SolPriceCached(t *testing.T) {
	pricer := &stubPricer{price: 200}
	supply := &stubSupply{meta: TokenMeta{UISupply: 1_000_000}}
	r := NewResolver(pricer, supply, nil)

	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return now }

	ctx := context.Background()
	r.Resolve(ctx, memeMint, 1, 1000)
	r.Resolve(ctx, memeMint, 1, 1000)
	assert.Equal(t, 1, pricer.calls, "price fetched once inside the TTL")

	// Past the TTL the price refreshes.
	now = now.Add(2 * time.Hour)
	r.Resolve(ctx, memeMint, 1, 1000)
	assert.Equal(t, 2, pricer.calls)
}

func TestResolve_SupplyCachedPerMint(t *testing.T) {
	pricer := &stubPricer{price: 200}
	supply := &stubSupply{meta: TokenMeta{UISupply: 1_000_000}}
	r := NewResolver(pricer, supply, nil)

	ctx := context.Background()
	r.Resolve(ctx, memeMint, 1, 1000)
	r.Resolve(ctx, memeMint, 1, 1000)
	assert.Equal(t, 1, supply.calls)
}

func TestResolve_PriceFailureDegradesToZero(t *testing.T) {
	pricer := &stubPricer{err: errors.New("api down")}
	supply := &stubSupply{meta: TokenMeta{UISupply: 1_000_000}}
	r := NewResolver(pricer, supply, nil)

	val := r.Resolve(context.Background(), memeMint, 10, 1000)
	assert.Zero(t, val.MarketCap)
	assert.Zero(t, val.PricePerToken)
	assert.Equal(t, "BONK", val.Symbol, "symbol fallback survives")
}

func TestResolve_SupplyFailureKeepsPrice(t *testing.T) {
	pricer := &stubPricer{price: 200}
	supply := &stubSupply{err: errors.New("rpc down")}
	r := NewResolver(pricer, supply, nil)

	val := r.Resolve(context.Background(), memeMint, 10, 2_000_000)
	assert.InDelta(t, 0.001, val.PricePerToken, 1e-9)
	assert.Zero(t, val.MarketCap)
}

func TestSymbolFor(t *testing.T) {
	assert.Equal(t, "SOL", SymbolFor(constants.WrappedSolMint))
	assert.Equal(t, "BONK", SymbolFor(memeMint))
	// Unknown mints shorten to head…tail.
	short := SymbolFor("4Nd1mBQtrMJVYVfKf2PJy9NZUZdTAsp7D4xWLs4gDB4T")
	assert.Equal(t, "4Nd1…DB4T", short)
}

func TestPriceClient_ParsesJupiterEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.RawQuery, constants.WrappedSolMint)
		_, _ = w.Write([]byte(`{"data":{"` + constants.WrappedSolMint + `":{"price":"198.42"}}}`))
	}))
	defer srv.Close()

	c := NewPriceClient(srv.URL)
	price, err := c.SolPrice(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 198.42, price, 0.001)
}

func TestPriceClient_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "upstream broke", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewPriceClient(srv.URL)
	_, err := c.SolPrice(context.Background())
	require.Error(t, err)

	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadGateway, httpErr.StatusCode)
}

func TestPriceClient_NonPositivePriceRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"` + constants.WrappedSolMint + `":{"price":"0"}}}`))
	}))
	defer srv.Close()

	c := NewPriceClient(srv.URL)
	_, err := c.SolPrice(context.Background())
	assert.Error(t, err)
}
