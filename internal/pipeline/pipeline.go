package pipeline

import (
	"context"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/alpharadar/solana-alpha-tracker/internal/costbasis"
	"github.com/alpharadar/solana-alpha-tracker/internal/detector"
	"github.com/alpharadar/solana-alpha-tracker/internal/ledger"
	"github.com/alpharadar/solana-alpha-tracker/internal/models"
	"github.com/alpharadar/solana-alpha-tracker/internal/normalizer"
	"github.com/alpharadar/solana-alpha-tracker/internal/notify"
	"github.com/alpharadar/solana-alpha-tracker/internal/roster"
)

// Toggler gates dispatch per pattern kind.
type Toggler interface {
	Enabled(ctx context.Context, kind models.PatternKind) bool
}

// Archiver persists fired alerts. Implementations are best effort.
type Archiver interface {
	Record(ctx context.Context, ev models.SwapEvent, patterns []models.Pattern)
}

// AlertSender delivers a rendered alert to its recipients.
type AlertSender interface {
	Send(ctx context.Context, alert notify.Alert)
}

// Pipeline wires ingestion to notification: normalize, record cost basis,
// append to the ledger, run detectors, annotate and dispatch. Each stage
// failure is contained to the event it touched.
type Pipeline struct {
	normalizer *normalizer.Normalizer
	roster     *roster.Holder
	ledger     ledger.Ledger
	detector   *detector.Detector
	costBasis  *costbasis.Service
	toggles    Toggler
	archive    Archiver
	dispatcher AlertSender
	logger     *logrus.Logger
}

type Options struct {
	Normalizer *normalizer.Normalizer
	Roster     *roster.Holder
	Ledger     ledger.Ledger
	Detector   *detector.Detector
	CostBasis  *costbasis.Service
	Toggles    Toggler
	Archive    Archiver
	Dispatcher AlertSender
	Logger     *logrus.Logger
}

func New(opts Options) *Pipeline {
	logger := opts.Logger
	if logger == nil {
		logger = logrus.New()
	}
	return &Pipeline{
		normalizer: opts.Normalizer,
		roster:     opts.Roster,
		ledger:     opts.Ledger,
		detector:   opts.Detector,
		costBasis:  opts.CostBasis,
		toggles:    opts.Toggles,
		archive:    opts.Archive,
		dispatcher: opts.Dispatcher,
		logger:     logger,
	}
}

// Enqueue processes the batch in the background. The webhook handler acks
// immediately; delivery work must never hold the HTTP response open.
func (p *Pipeline) Enqueue(ctx context.Context, records []normalizer.TransactionRecord) {
	go p.Handle(ctx, records)
}

// Handle runs the full pipeline over one ingested batch. Events fan out by
// token so a slow store or market-data call for one token cannot delay
// detection for another; within a token the delivery order holds, keeping
// ledger appends chronological.
func (p *Pipeline) Handle(ctx context.Context, records []normalizer.TransactionRecord) {
	snap := p.roster.Current()
	events := p.normalizer.Normalize(ctx, records)
	if len(events) == 0 {
		return
	}

	byToken := make(map[string][]models.SwapEvent)
	for _, ev := range events {
		byToken[ev.TokenMint] = append(byToken[ev.TokenMint], ev)
	}

	var wg sync.WaitGroup
	for _, group := range byToken {
		wg.Add(1)
		go func(group []models.SwapEvent) {
			defer wg.Done()
			for _, ev := range group {
				p.processEvent(ctx, snap, ev)
			}
		}(group)
	}
	wg.Wait()
}

func (p *Pipeline) processEvent(ctx context.Context, snap *roster.Snapshot, ev models.SwapEvent) {
	log := p.logger.WithFields(logrus.Fields{
		"wallet": ev.Wallet,
		"token":  ev.TokenSymbol,
		"side":   ev.Direction,
	})

	if err := p.costBasis.RecordSwap(ctx, ev); err != nil {
		log.WithError(err).Warn("cost basis record failed")
	}
	if err := p.ledger.Append(ctx, ev); err != nil {
		// Detection still runs over the existing window.
		log.WithError(err).Warn("ledger append failed")
	}

	patterns := p.detector.Check(ctx, snap, ev.TokenMint, ev.TokenSymbol)
	patterns = p.filterMuted(ctx, patterns)
	if len(patterns) == 0 {
		return
	}
	log.WithField("patterns", len(patterns)).Info("patterns detected")

	alert := notify.Alert{
		Event:    ev,
		Profile:  snap.Profile(ev.Wallet),
		Patterns: patterns,
	}
	if sum, err := p.costBasis.AverageCostBasis(ctx, ev.Wallet, ev.TokenMint); err == nil {
		alert.Position = sum
	} else if !errors.Is(err, costbasis.ErrNoFills) {
		log.WithError(err).Warn("position lookup failed")
	}
	alert.Analysis = p.costBasis.AnalyzeConfluence(ctx, patternWallets(patterns), ev.TokenMint, ev.MarketCap)

	if p.archive != nil {
		p.archive.Record(ctx, ev, patterns)
	}
	p.dispatcher.Send(ctx, alert)
}

func (p *Pipeline) filterMuted(ctx context.Context, patterns []models.Pattern) []models.Pattern {
	if p.toggles == nil {
		return patterns
	}
	kept := patterns[:0]
	for _, pat := range patterns {
		if p.toggles.Enabled(ctx, pat.Kind) {
			kept = append(kept, pat)
		} else {
			p.logger.WithField("kind", pat.Kind).Debug("pattern muted")
		}
	}
	return kept
}

// patternWallets unions the wallet sets of every fired pattern, preserving
// first-seen order.
func patternWallets(patterns []models.Pattern) []string {
	seen := map[string]bool{}
	var out []string
	for _, p := range patterns {
		for _, w := range p.Wallets {
			if !seen[w] {
				seen[w] = true
				out = append(out, w)
			}
		}
	}
	return out
}
