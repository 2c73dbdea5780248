package normalizer

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/mr-tron/base58"
	"github.com/sirupsen/logrus"

	"github.com/alpharadar/solana-alpha-tracker/internal/constants"
	"github.com/alpharadar/solana-alpha-tracker/internal/marketdata"
	"github.com/alpharadar/solana-alpha-tracker/internal/models"
	"github.com/alpharadar/solana-alpha-tracker/internal/roster"
)

const lamportsPerSol = 1_000_000_000

// Resolver values one observed swap; see marketdata.Resolver.
type Resolver interface {
	Resolve(ctx context.Context, mint string, solAmount, tokenAmount float64) marketdata.TokenValuation
	SolPrice(ctx context.Context) (float64, error)
}

// Normalizer turns raw webhook transactions into canonical SwapEvents,
// filtering to roster wallets, excluded mints, and a minimum USD floor.
type Normalizer struct {
	roster   *roster.Holder
	resolver Resolver
	minUSD   float64
	logger   *logrus.Logger
}

func New(rosterHolder *roster.Holder, resolver Resolver, minUSD float64, logger *logrus.Logger) *Normalizer {
	if logger == nil {
		logger = logrus.New()
	}
	return &Normalizer{
		roster:   rosterHolder,
		resolver: resolver,
		minUSD:   minUSD,
		logger:   logger,
	}
}

// Normalize emits zero or more SwapEvents for one webhook delivery.
// Transfers resolve market data in parallel so a sluggish fetch for one
// token cannot stall the rest of the batch; the output keeps delivery
// order. A malformed transfer skips only itself.
func (n *Normalizer) Normalize(ctx context.Context, records []TransactionRecord) []models.SwapEvent {
	snap := n.roster.Current()
	if snap == nil {
		return nil
	}

	type unit struct {
		record   TransactionRecord
		transfer TokenTransfer
	}
	var units []unit
	for _, record := range records {
		if !validAddress(record.FeePayer) || !snap.Contains(record.FeePayer) {
			continue
		}
		for _, transfer := range record.TokenTransfers {
			units = append(units, unit{record: record, transfer: transfer})
		}
	}
	if len(units) == 0 {
		return nil
	}

	results := make([]models.SwapEvent, len(units))
	keep := make([]bool, len(units))
	var wg sync.WaitGroup
	for i, u := range units {
		wg.Add(1)
		go func(i int, u unit) {
			defer wg.Done()
			results[i], keep[i] = n.normalizeTransfer(ctx, u.record, u.transfer)
		}(i, u)
	}
	wg.Wait()

	var events []models.SwapEvent
	for i, ok := range keep {
		if ok {
			events = append(events, results[i])
		}
	}
	return events
}

func (n *Normalizer) normalizeTransfer(ctx context.Context, record TransactionRecord, transfer TokenTransfer) (models.SwapEvent, bool) {
	wallet := record.FeePayer

	if transfer.Mint == constants.WrappedSolMint || constants.StablecoinMints[transfer.Mint] {
		return models.SwapEvent{}, false
	}
	if !validAddress(transfer.Mint) || transfer.TokenAmount <= 0 {
		return models.SwapEvent{}, false
	}

	// Direction must be unambiguous: the wallet is strictly the sender or
	// strictly the receiver of this transfer.
	sent := transfer.FromUserAccount == wallet
	received := transfer.ToUserAccount == wallet
	if sent == received {
		return models.SwapEvent{}, false
	}
	direction := models.DirectionBuy
	if sent {
		direction = models.DirectionSell
	}

	solAmount := n.netSolMoved(record, wallet)
	if solAmount <= 0 {
		return models.SwapEvent{}, false
	}

	usdValue := 0.0
	if solPrice, err := n.resolver.SolPrice(ctx); err == nil {
		usdValue = solAmount * solPrice
	} else {
		n.logger.WithError(err).WithField("signature", record.Signature).Warn("cannot price swap in USD")
	}
	if usdValue < n.minUSD {
		return models.SwapEvent{}, false
	}

	val := n.resolver.Resolve(ctx, transfer.Mint, solAmount, transfer.TokenAmount)

	ts := time.Unix(record.Timestamp, 0)
	if record.Timestamp <= 0 {
		ts = time.Now()
	}

	return models.SwapEvent{
		Signature:   record.Signature,
		Wallet:      wallet,
		TokenMint:   transfer.Mint,
		TokenSymbol: val.Symbol,
		Direction:   direction,
		SolAmount:   solAmount,
		TokenAmount: transfer.TokenAmount,
		USDValue:    usdValue,
		MarketCap:   val.MarketCap,
		Timestamp:   ts,
	}, true
}

// netSolMoved returns the absolute net lamport flow for the wallet across
// the transaction's native transfers, in SOL.
func (n *Normalizer) netSolMoved(record TransactionRecord, wallet string) float64 {
	var net int64
	for _, nt := range record.NativeTransfers {
		switch wallet {
		case nt.FromUserAccount:
			net -= nt.Amount
		case nt.ToUserAccount:
			net += nt.Amount
		}
	}
	return math.Abs(float64(net)) / lamportsPerSol
}

// validAddress checks that the string is a base58-encoded 32-byte key.
func validAddress(addr string) bool {
	raw, err := base58.Decode(addr)
	return err == nil && len(raw) == 32
}
