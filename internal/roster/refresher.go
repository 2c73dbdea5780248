package roster

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/alpharadar/solana-alpha-tracker/internal/models"
)

// Refresher periodically rebuilds the roster snapshot from the provider and
// publishes it to the holder. It is decoupled from request handling: a failed
// fetch logs, keeps the previous snapshot, and never takes the pipeline down.
type Refresher struct {
	holder   *Holder
	provider Provider
	tracked  []models.TraderCategory
	// refreshEvery is the roster staleness bound; checkEvery is the tick at
	// which staleness is evaluated (the analytics view updates on a multi-day
	// cadence, so checking daily is enough).
	refreshEvery time.Duration
	checkEvery   time.Duration
	logger       *logrus.Logger

	// onPublish runs after each new snapshot lands, e.g. to push the wallet
	// list to a provider-side webhook filter.
	onPublish func(context.Context, *Snapshot)
}

func NewRefresher(holder *Holder, provider Provider, tracked []models.TraderCategory, refreshEvery, checkEvery time.Duration, logger *logrus.Logger) *Refresher {
	if logger == nil {
		logger = logrus.New()
	}
	return &Refresher{
		holder:       holder,
		provider:     provider,
		tracked:      tracked,
		refreshEvery: refreshEvery,
		checkEvery:   checkEvery,
		logger:       logger,
	}
}

// OnPublish registers a hook invoked with every published snapshot. Set it
// before Run starts; it is not safe to swap afterwards.
func (r *Refresher) OnPublish(fn func(context.Context, *Snapshot)) {
	r.onPublish = fn
}

// RefreshNow fetches and publishes a fresh snapshot immediately.
func (r *Refresher) RefreshNow(ctx context.Context) error {
	profiles, err := r.provider.Fetch(ctx)
	if err != nil {
		return err
	}
	snap := NewSnapshot(profiles, r.tracked)
	r.holder.Publish(snap)
	r.logger.WithField("wallets", snap.Size()).Info("published alpha roster snapshot")
	if r.onPublish != nil {
		r.onPublish(ctx, snap)
	}
	return nil
}

// Run blocks until ctx is done, refreshing whenever the current snapshot is
// older than refreshEvery.
func (r *Refresher) Run(ctx context.Context) {
	ticker := time.NewTicker(r.checkEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			current := r.holder.Current()
			if current != nil && time.Since(current.FetchedAt) < r.refreshEvery {
				continue
			}
			if err := r.RefreshNow(ctx); err != nil {
				r.logger.WithError(err).Warn("roster refresh failed, keeping previous snapshot")
			}
		}
	}
}
