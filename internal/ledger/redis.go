package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/alpharadar/solana-alpha-tracker/internal/constants"
	"github.com/alpharadar/solana-alpha-tracker/internal/models"
)

// RedisLedger keeps each token's window in a Redis list. RPUSH+LTRIM+EXPIRE
// run in one pipeline so concurrent appends never interleave a read-modify-
// write on the full list.
type RedisLedger struct {
	client    redis.Cmdable
	maxLen    int64
	retention time.Duration
}

func NewRedisLedger(client redis.Cmdable) (*RedisLedger, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}
	return &RedisLedger{
		client:    client,
		maxLen:    constants.LedgerMaxEntries,
		retention: constants.LedgerRetention,
	}, nil
}

func (l *RedisLedger) Append(ctx context.Context, event models.SwapEvent) error {
	b, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal swap event: %w", err)
	}

	key := ledgerKey(event.TokenMint)
	pipe := l.client.TxPipeline()
	pipe.RPush(ctx, key, b)
	pipe.LTrim(ctx, key, -l.maxLen, -1)
	pipe.Expire(ctx, key, l.retention)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("append ledger entry: %w", err)
	}
	return nil
}

func (l *RedisLedger) Recent(ctx context.Context, tokenMint string, window time.Duration) ([]models.SwapEvent, error) {
	vals, err := l.client.LRange(ctx, ledgerKey(tokenMint), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read ledger: %w", err)
	}

	cutoff := time.Now().Add(-window)
	out := make([]models.SwapEvent, 0, len(vals))
	for _, v := range vals {
		var ev models.SwapEvent
		if err := json.Unmarshal([]byte(v), &ev); err != nil {
			// One corrupt entry must not hide the rest of the window.
			continue
		}
		if !ev.Timestamp.Before(cutoff) {
			out = append(out, ev)
		}
	}
	return out, nil
}

func ledgerKey(tokenMint string) string {
	return constants.RedisKeyLedgerPrefix + tokenMint
}
