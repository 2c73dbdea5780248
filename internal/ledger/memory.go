package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/alpharadar/solana-alpha-tracker/internal/constants"
	"github.com/alpharadar/solana-alpha-tracker/internal/models"
)

// MemoryLedger is an in-process Ledger for single-instance deployments and
// tests. Count and age bounds are both enforced on every write.
type MemoryLedger struct {
	mu        sync.Mutex
	entries   map[string][]models.SwapEvent
	maxLen    int
	retention time.Duration

	now func() time.Time
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{
		entries:   make(map[string][]models.SwapEvent),
		maxLen:    constants.LedgerMaxEntries,
		retention: constants.LedgerRetention,
		now:       time.Now,
	}
}

func (l *MemoryLedger) Append(_ context.Context, event models.SwapEvent) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	list := append(l.entries[event.TokenMint], event)

	// Count bound first: a 201st append evicts the oldest entry before the
	// age check runs.
	if len(list) > l.maxLen {
		list = list[len(list)-l.maxLen:]
	}

	cutoff := l.now().Add(-l.retention)
	trimmed := list[:0]
	for _, ev := range list {
		if !ev.Timestamp.Before(cutoff) {
			trimmed = append(trimmed, ev)
		}
	}
	l.entries[event.TokenMint] = trimmed
	return nil
}

func (l *MemoryLedger) Recent(_ context.Context, tokenMint string, window time.Duration) ([]models.SwapEvent, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-window)
	list := l.entries[tokenMint]
	out := make([]models.SwapEvent, 0, len(list))
	for _, ev := range list {
		if !ev.Timestamp.Before(cutoff) {
			out = append(out, ev)
		}
	}
	return out, nil
}
