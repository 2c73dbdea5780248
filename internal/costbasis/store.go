package costbasis

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/alpharadar/solana-alpha-tracker/internal/constants"
	"github.com/alpharadar/solana-alpha-tracker/internal/models"
)

// Fill is one recorded buy or sell: how much, at what implied market cap.
type Fill struct {
	Side      models.Direction `json:"side"`
	Amount    float64          `json:"amount"`
	MarketCap float64          `json:"market_cap"`
	Timestamp time.Time        `json:"timestamp"`
}

// Store persists fill history per (wallet, token) pair, bounded to the most
// recent fills with a fixed retention horizon.
type Store interface {
	AppendFill(ctx context.Context, wallet, tokenMint string, fill Fill) error
	Fills(ctx context.Context, wallet, tokenMint string) ([]Fill, error)
}

// RedisStore keeps each pair's fills in a Redis list with the same atomic
// push+trim+expire shape as the token ledger.
type RedisStore struct {
	client    redis.Cmdable
	maxFills  int64
	retention time.Duration
}

func NewRedisStore(client redis.Cmdable) (*RedisStore, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}
	return &RedisStore{
		client:    client,
		maxFills:  constants.CostBasisMaxFills,
		retention: constants.CostBasisRetention,
	}, nil
}

func (s *RedisStore) AppendFill(ctx context.Context, wallet, tokenMint string, fill Fill) error {
	b, err := json.Marshal(fill)
	if err != nil {
		return fmt.Errorf("marshal fill: %w", err)
	}

	key := pairKey(wallet, tokenMint)
	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, key, b)
	pipe.LTrim(ctx, key, -s.maxFills, -1)
	pipe.Expire(ctx, key, s.retention)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("append fill: %w", err)
	}
	return nil
}

func (s *RedisStore) Fills(ctx context.Context, wallet, tokenMint string) ([]Fill, error) {
	vals, err := s.client.LRange(ctx, pairKey(wallet, tokenMint), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read fills: %w", err)
	}

	// The key TTL refreshes on every append, so per-fill retention is
	// enforced on read.
	cutoff := time.Now().Add(-s.retention)
	out := make([]Fill, 0, len(vals))
	for _, v := range vals {
		var f Fill
		if err := json.Unmarshal([]byte(v), &f); err != nil {
			continue
		}
		if !f.Timestamp.Before(cutoff) {
			out = append(out, f)
		}
	}
	return out, nil
}

func pairKey(wallet, tokenMint string) string {
	return constants.RedisKeyCostBasisPrefix + wallet + ":" + tokenMint
}

// MemoryStore is the in-process Store used for single-instance runs and
// tests.
type MemoryStore struct {
	mu        sync.Mutex
	fills     map[string][]Fill
	maxFills  int
	retention time.Duration

	now func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		fills:     make(map[string][]Fill),
		maxFills:  constants.CostBasisMaxFills,
		retention: constants.CostBasisRetention,
		now:       time.Now,
	}
}

func (s *MemoryStore) AppendFill(_ context.Context, wallet, tokenMint string, fill Fill) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := pairKey(wallet, tokenMint)
	list := append(s.fills[key], fill)
	if len(list) > s.maxFills {
		list = list[len(list)-s.maxFills:]
	}
	cutoff := s.now().Add(-s.retention)
	kept := list[:0]
	for _, f := range list {
		if !f.Timestamp.Before(cutoff) {
			kept = append(kept, f)
		}
	}
	s.fills[key] = kept
	return nil
}

func (s *MemoryStore) Fills(_ context.Context, wallet, tokenMint string) ([]Fill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-s.retention)
	list := s.fills[pairKey(wallet, tokenMint)]
	out := make([]Fill, 0, len(list))
	for _, f := range list {
		if !f.Timestamp.Before(cutoff) {
			out = append(out, f)
		}
	}
	return out, nil
}
