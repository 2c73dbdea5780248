package ledger

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alpharadar/solana-alpha-tracker/internal/models"
)

const testMint = "DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263"

func swapAt(ts time.Time, wallet string) models.SwapEvent {
	return models.SwapEvent{
		Signature: "sig-" + wallet,
		Wallet:    wallet,
		TokenMint: testMint,
		Direction: models.DirectionBuy,
		USDValue:  1000,
		Timestamp: ts,
	}
}

func TestMemoryLedger_RecentFiltersByWindow(t *testing.T) {
	l := NewMemoryLedger()
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return base }

	ctx := context.Background()
	require.NoError(t, l.Append(ctx, swapAt(base.Add(-90*time.Minute), "old")))
	require.NoError(t, l.Append(ctx, swapAt(base.Add(-30*time.Minute), "mid")))
	require.NoError(t, l.Append(ctx, swapAt(base, "new")))

	got, err := l.Recent(ctx, testMint, time.Hour)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "mid", got[0].Wallet)
	assert.Equal(t, "new", got[1].Wallet)

	all, err := l.Recent(ctx, testMint, 2*time.Hour)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestMemoryLedger_CountBoundEvictsOldest(t *testing.T) {
	l := NewMemoryLedger()
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return base }

	ctx := context.Background()
	for i := 0; i < 201; i++ {
		ev := swapAt(base.Add(time.Duration(i)*time.Second), fmt.Sprintf("w%03d", i))
		require.NoError(t, l.Append(ctx, ev))
	}

	got, err := l.Recent(ctx, testMint, 2*time.Hour)
	require.NoError(t, err)
	require.Len(t, got, 200)
	// The 201st append evicted the very first entry.
	assert.Equal(t, "w001", got[0].Wallet)
	assert.Equal(t, "w200", got[199].Wallet)
}

func TestMemoryLedger_AgeTrimOnAppend(t *testing.T) {
	l := NewMemoryLedger()
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	now := base
	l.now = func() time.Time { return now }

	ctx := context.Background()
	require.NoError(t, l.Append(ctx, swapAt(base, "early")))

	// Three hours later the first entry is past retention and must drop on
	// the next write.
	now = base.Add(3 * time.Hour)
	require.NoError(t, l.Append(ctx, swapAt(now, "late")))

	got, err := l.Recent(ctx, testMint, 4*time.Hour)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "late", got[0].Wallet)
}

func TestMemoryLedger_ConcurrentAppends(t *testing.T) {
	l := NewMemoryLedger()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ev := swapAt(time.Now(), fmt.Sprintf("w%02d", i))
			assert.NoError(t, l.Append(ctx, ev))
		}(i)
	}
	wg.Wait()

	got, err := l.Recent(ctx, testMint, time.Hour)
	require.NoError(t, err)
	assert.Len(t, got, 50)
}
