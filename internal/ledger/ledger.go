package ledger

import (
	"context"
	"time"

	"github.com/alpharadar/solana-alpha-tracker/internal/models"
)

// Ledger is a bounded, time-windowed, append-only store of recent swaps
// keyed by token mint. Appends must be atomic (push+trim+expire as one
// coordinated sequence) because two swaps for a hot token can land within
// the same second.
type Ledger interface {
	// Append pushes the event for its token and trims the list to the
	// configured max count, refreshing the retention TTL.
	Append(ctx context.Context, event models.SwapEvent) error

	// Recent returns entries with timestamp >= now-window, inclusive, in
	// arrival order. Read-only.
	Recent(ctx context.Context, tokenMint string, window time.Duration) ([]models.SwapEvent, error)
}
