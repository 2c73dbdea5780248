package detector

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/alpharadar/solana-alpha-tracker/internal/ledger"
	"github.com/alpharadar/solana-alpha-tracker/internal/models"
	"github.com/alpharadar/solana-alpha-tracker/internal/roster"
)

// Config carries the detector windows and floors. The constants were tuned
// empirically across deployments; treat them as knobs, not invariants.
type Config struct {
	ConfluenceWindow time.Duration
	SequenceWindow   time.Duration
	DiversityWindow  time.Duration

	// ConfluenceMinWallets is the distinct same-direction wallet floor. Two
	// wallets hitting the same illiquid token coincidentally is common;
	// three inside an hour is not.
	ConfluenceMinWallets int
	SequenceMinFollowers int
	SequenceFollowLag    time.Duration
	DiversityMinKinds    int
}

// DefaultConfig mirrors the production tuning.
func DefaultConfig() Config {
	return Config{
		ConfluenceWindow:     time.Hour,
		SequenceWindow:       2 * time.Hour,
		DiversityWindow:      time.Hour,
		ConfluenceMinWallets: 3,
		SequenceMinFollowers: 2,
		SequenceFollowLag:    5 * time.Minute,
		DiversityMinKinds:    3,
	}
}

func (c *Config) applyDefaults() {
	d := DefaultConfig()
	if c.ConfluenceWindow <= 0 {
		c.ConfluenceWindow = d.ConfluenceWindow
	}
	if c.SequenceWindow <= 0 {
		c.SequenceWindow = d.SequenceWindow
	}
	if c.DiversityWindow <= 0 {
		c.DiversityWindow = d.DiversityWindow
	}
	if c.ConfluenceMinWallets <= 0 {
		c.ConfluenceMinWallets = d.ConfluenceMinWallets
	}
	if c.SequenceMinFollowers <= 0 {
		c.SequenceMinFollowers = d.SequenceMinFollowers
	}
	if c.SequenceFollowLag <= 0 {
		c.SequenceFollowLag = d.SequenceFollowLag
	}
	if c.DiversityMinKinds <= 0 {
		c.DiversityMinKinds = d.DiversityMinKinds
	}
}

// Detector runs the three pattern checks over a token's recent ledger
// window. Each run is a stateless function over the current view; all
// history lives in the ledger.
type Detector struct {
	ledger ledger.Ledger
	cfg    Config
	logger *logrus.Logger
}

func New(l ledger.Ledger, cfg Config, logger *logrus.Logger) *Detector {
	cfg.applyDefaults()
	if logger == nil {
		logger = logrus.New()
	}
	return &Detector{ledger: l, cfg: cfg, logger: logger}
}

// Check runs all detectors for the token, in fixed order, and returns every
// finding. A single transaction may trigger more than one. The empty result
// is the dominant case and stays cheap: one ledger read, no allocation
// beyond the view.
func (d *Detector) Check(ctx context.Context, snap *roster.Snapshot, tokenMint, symbol string) []models.Pattern {
	window, err := d.ledger.Recent(ctx, tokenMint, d.cfg.SequenceWindow)
	if err != nil {
		d.logger.WithError(err).WithField("token", symbol).Warn("ledger read failed, skipping pattern check")
		return nil
	}
	if len(window) == 0 {
		return nil
	}

	var patterns []models.Pattern
	if p, ok := d.checkNetFlow(snap, window, symbol); ok {
		patterns = append(patterns, p)
	}
	if p, ok := d.checkSequence(snap, window); ok {
		patterns = append(patterns, p)
	}
	patterns = append(patterns, d.checkDiversity(snap, window, symbol)...)
	return patterns
}

// checkNetFlow partitions the confluence window into buy and sell volume
// restricted to tracked-category wallets, and fires when the net flow beats
// a cap-scaled threshold with enough distinct wallets behind it.
func (d *Detector) checkNetFlow(snap *roster.Snapshot, window []models.SwapEvent, symbol string) (models.Pattern, bool) {
	cutoff := time.Now().Add(-d.cfg.ConfluenceWindow)

	var buyVolume, sellVolume float64
	buyers := map[string]bool{}
	sellers := map[string]bool{}
	lastKnownCap := 0.0

	for _, ev := range window {
		if ev.Timestamp.Before(cutoff) {
			continue
		}
		if ev.MarketCap > 0 {
			lastKnownCap = ev.MarketCap
		}
		if !snap.Tracked(snap.Category(ev.Wallet)) {
			continue
		}
		switch ev.Direction {
		case models.DirectionBuy:
			buyVolume += ev.USDValue
			buyers[ev.Wallet] = true
		case models.DirectionSell:
			sellVolume += ev.USDValue
			sellers[ev.Wallet] = true
		}
	}

	net := buyVolume - sellVolume
	threshold := flowThreshold(lastKnownCap)
	if math.Abs(net) < threshold {
		return models.Pattern{}, false
	}

	switch {
	case net > 0 && len(buyers) >= d.cfg.ConfluenceMinWallets:
		return models.Pattern{
			Kind:      models.PatternConfluence,
			Direction: models.DirectionBuy,
			Wallets:   sortedKeys(buyers),
			VolumeUSD: net,
			Summary: fmt.Sprintf("🎯 Confluence: %d alpha wallets net BUYING %s ($%s net flow in the last hour)",
				len(buyers), symbol, formatUSD(net)),
		}, true
	case net < 0 && len(sellers) >= d.cfg.ConfluenceMinWallets:
		return models.Pattern{
			Kind:      models.PatternConfluence,
			Direction: models.DirectionSell,
			Wallets:   sortedKeys(sellers),
			VolumeUSD: -net,
			Summary: fmt.Sprintf("⚠️ Confluence: %d alpha wallets net SELLING %s ($%s net flow in the last hour)",
				len(sellers), symbol, formatUSD(-net)),
		}, true
	}
	return models.Pattern{}, false
}

// checkSequence looks for follow-through: the earliest tracked-category
// action in the window, then distinct non-tracked wallets doing the same
// thing after the follow lag. Only the earliest qualifying anchor counts.
func (d *Detector) checkSequence(snap *roster.Snapshot, window []models.SwapEvent) (models.Pattern, bool) {
	cutoff := time.Now().Add(-d.cfg.SequenceWindow)

	var anchor *models.SwapEvent
	for i := range window {
		ev := &window[i]
		if ev.Timestamp.Before(cutoff) {
			continue
		}
		if snap.Tracked(snap.Category(ev.Wallet)) {
			if anchor == nil || ev.Timestamp.Before(anchor.Timestamp) {
				anchor = ev
			}
		}
	}
	if anchor == nil {
		return models.Pattern{}, false
	}

	followAfter := anchor.Timestamp.Add(d.cfg.SequenceFollowLag)
	followers := map[string]models.TraderCategory{}
	var followVolume float64
	for _, ev := range window {
		if ev.Timestamp.Before(cutoff) || !ev.Timestamp.After(followAfter) {
			continue
		}
		if ev.Direction != anchor.Direction || ev.Wallet == anchor.Wallet {
			continue
		}
		cat := snap.Category(ev.Wallet)
		if snap.Tracked(cat) {
			continue
		}
		if _, seen := followers[ev.Wallet]; !seen {
			followers[ev.Wallet] = cat
		}
		followVolume += ev.USDValue
	}
	if len(followers) < d.cfg.SequenceMinFollowers {
		return models.Pattern{}, false
	}

	wallets := make([]string, 0, len(followers)+1)
	wallets = append(wallets, anchor.Wallet)
	cats := map[string]bool{}
	for w, c := range followers {
		wallets = append(wallets, w)
		cats[string(c)] = true
	}
	sort.Strings(wallets[1:])

	verb := "buys"
	if anchor.Direction == models.DirectionSell {
		verb = "sells"
	}
	return models.Pattern{
		Kind:      models.PatternSequence,
		Direction: anchor.Direction,
		Wallets:   wallets,
		VolumeUSD: followVolume,
		Summary: fmt.Sprintf("🎯 %s entry followed by %d wallet %s (%s)",
			snap.Category(anchor.Wallet), len(followers), verb, joinSorted(cats)),
	}, true
}

// checkDiversity fires when enough distinct trader categories line up on the
// same side of the token inside the diversity window. Buy and sell sides
// are evaluated independently.
func (d *Detector) checkDiversity(snap *roster.Snapshot, window []models.SwapEvent, symbol string) []models.Pattern {
	cutoff := time.Now().Add(-d.cfg.DiversityWindow)

	type side struct {
		kinds   map[string]bool
		wallets map[string]bool
		volume  float64
	}
	sides := map[models.Direction]*side{
		models.DirectionBuy:  {kinds: map[string]bool{}, wallets: map[string]bool{}},
		models.DirectionSell: {kinds: map[string]bool{}, wallets: map[string]bool{}},
	}

	for _, ev := range window {
		if ev.Timestamp.Before(cutoff) {
			continue
		}
		s := sides[ev.Direction]
		if s == nil {
			continue
		}
		s.kinds[string(snap.Category(ev.Wallet))] = true
		s.wallets[ev.Wallet] = true
		s.volume += ev.USDValue
	}

	var patterns []models.Pattern
	for _, dir := range []models.Direction{models.DirectionBuy, models.DirectionSell} {
		s := sides[dir]
		if len(s.kinds) < d.cfg.DiversityMinKinds {
			continue
		}
		verb := "buying"
		if dir == models.DirectionSell {
			verb = "selling"
		}
		patterns = append(patterns, models.Pattern{
			Kind:      models.PatternDiversity,
			Direction: dir,
			Wallets:   sortedKeys(s.wallets),
			VolumeUSD: s.volume,
			Summary: fmt.Sprintf("💫 %d trader types %s %s (%s): $%s across %d wallets",
				len(s.kinds), verb, symbol, joinSorted(s.kinds), formatUSD(s.volume), len(s.wallets)),
		})
	}
	return patterns
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func joinSorted(set map[string]bool) string {
	return strings.Join(sortedKeys(set), ", ")
}

func formatUSD(v float64) string {
	// Thousands separators for whole dollars; alert text, not accounting.
	n := int64(math.Round(v))
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}
