package costbasis

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/alpharadar/solana-alpha-tracker/internal/models"
)

// ErrNoFills is returned when a (wallet, token) pair has no recorded history.
var ErrNoFills = errors.New("no fills recorded")

// Summary is the position view for one (wallet, token) pair. Averages are
// amount-weighted market caps; a nil average means no fills on that side.
type Summary struct {
	Wallet    string
	TokenMint string

	BuyCount  int
	SellCount int

	TotalBought float64
	TotalSold   float64
	NetPosition float64

	AvgBuyMarketCap  *float64
	AvgSellMarketCap *float64

	IsNetBuyer bool
}

// WalletEntry is one wallet's contribution to a confluence analysis.
type WalletEntry struct {
	Wallet       string
	AvgMarketCap float64
}

// SideAnalysis aggregates entry or exit caps across the wallets that acted
// on one side of a confluence.
type SideAnalysis struct {
	Wallets      []WalletEntry
	AvgMarketCap float64
	MinMarketCap float64
	MaxMarketCap float64

	// ProfitMultiple compares the side's average cap to the current cap:
	// current/avg for buyers, avg/current for sellers. Zero when the current
	// cap is unknown.
	ProfitMultiple float64
}

// Analysis is the cost-basis context attached to a fired alert.
type Analysis struct {
	TokenMint        string
	CurrentMarketCap float64
	Buyers           *SideAnalysis
	Sellers          *SideAnalysis
}

// Service records fills and computes weighted cost-basis views over them.
type Service struct {
	store  Store
	logger *logrus.Logger
}

func NewService(store Store, logger *logrus.Logger) *Service {
	if logger == nil {
		logger = logrus.New()
	}
	return &Service{store: store, logger: logger}
}

// RecordSwap appends the swap as a fill. Fills without a known market cap
// carry no cost-basis signal and are skipped rather than poisoning the
// weighted averages.
func (s *Service) RecordSwap(ctx context.Context, ev models.SwapEvent) error {
	if ev.MarketCap <= 0 {
		s.logger.WithFields(logrus.Fields{
			"wallet": ev.Wallet,
			"token":  ev.TokenSymbol,
		}).Debug("skipping fill with unknown market cap")
		return nil
	}
	fill := Fill{
		Side:      ev.Direction,
		Amount:    ev.TokenAmount,
		MarketCap: ev.MarketCap,
		Timestamp: ev.Timestamp,
	}
	if err := s.store.AppendFill(ctx, ev.Wallet, ev.TokenMint, fill); err != nil {
		return fmt.Errorf("record fill: %w", err)
	}
	return nil
}

// AverageCostBasis computes the amount-weighted average entry and exit caps
// for one pair. Weighting by amount makes the result order-invariant: the
// same fills in any order produce the same averages.
func (s *Service) AverageCostBasis(ctx context.Context, wallet, tokenMint string) (*Summary, error) {
	fills, err := s.store.Fills(ctx, wallet, tokenMint)
	if err != nil {
		return nil, err
	}
	if len(fills) == 0 {
		return nil, ErrNoFills
	}

	sum := &Summary{Wallet: wallet, TokenMint: tokenMint}
	var buyWeighted, sellWeighted float64
	for _, f := range fills {
		switch f.Side {
		case models.DirectionBuy:
			sum.BuyCount++
			sum.TotalBought += f.Amount
			buyWeighted += f.Amount * f.MarketCap
		case models.DirectionSell:
			sum.SellCount++
			sum.TotalSold += f.Amount
			sellWeighted += f.Amount * f.MarketCap
		}
	}
	sum.NetPosition = sum.TotalBought - sum.TotalSold
	sum.IsNetBuyer = sum.NetPosition > 0
	if sum.TotalBought > 0 {
		avg := buyWeighted / sum.TotalBought
		sum.AvgBuyMarketCap = &avg
	}
	if sum.TotalSold > 0 {
		avg := sellWeighted / sum.TotalSold
		sum.AvgSellMarketCap = &avg
	}
	return sum, nil
}

// AnalyzeConfluence partitions the given wallets into net buyers and net
// sellers of the token and aggregates each side's cost basis. Wallets with
// no recorded fills or a flat position are left out. A store error for one
// wallet drops that wallet, not the analysis.
func (s *Service) AnalyzeConfluence(ctx context.Context, wallets []string, tokenMint string, currentCap float64) *Analysis {
	var buyers, sellers []WalletEntry
	for _, w := range wallets {
		sum, err := s.AverageCostBasis(ctx, w, tokenMint)
		if err != nil {
			if !errors.Is(err, ErrNoFills) {
				s.logger.WithError(err).WithField("wallet", w).Warn("cost basis lookup failed")
			}
			continue
		}
		switch {
		case sum.IsNetBuyer && sum.AvgBuyMarketCap != nil:
			buyers = append(buyers, WalletEntry{Wallet: w, AvgMarketCap: *sum.AvgBuyMarketCap})
		case !sum.IsNetBuyer && sum.NetPosition < 0 && sum.AvgSellMarketCap != nil:
			sellers = append(sellers, WalletEntry{Wallet: w, AvgMarketCap: *sum.AvgSellMarketCap})
		}
	}

	a := &Analysis{TokenMint: tokenMint, CurrentMarketCap: currentCap}
	if len(buyers) > 0 {
		a.Buyers = analyzeSide(buyers, currentCap, true)
	}
	if len(sellers) > 0 {
		a.Sellers = analyzeSide(sellers, currentCap, false)
	}
	if a.Buyers == nil && a.Sellers == nil {
		return nil
	}
	return a
}

func analyzeSide(entries []WalletEntry, currentCap float64, buySide bool) *SideAnalysis {
	side := &SideAnalysis{
		Wallets:      entries,
		MinMarketCap: math.Inf(1),
		MaxMarketCap: math.Inf(-1),
	}
	var total float64
	for _, e := range entries {
		total += e.AvgMarketCap
		side.MinMarketCap = math.Min(side.MinMarketCap, e.AvgMarketCap)
		side.MaxMarketCap = math.Max(side.MaxMarketCap, e.AvgMarketCap)
	}
	side.AvgMarketCap = total / float64(len(entries))

	if currentCap > 0 && side.AvgMarketCap > 0 {
		if buySide {
			side.ProfitMultiple = currentCap / side.AvgMarketCap
		} else {
			side.ProfitMultiple = side.AvgMarketCap / currentCap
		}
	}
	return side
}
