package flags

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/alpharadar/solana-alpha-tracker/internal/constants"
	"github.com/alpharadar/solana-alpha-tracker/internal/models"
)

const toggleIndexKey = constants.RedisKeyToggleIndex

// Store holds the per-detector mute toggles in Redis so an operator can
// silence one pattern kind at runtime without a redeploy. A toggle that was
// never set reads as enabled; a Redis failure also reads as enabled, since
// dropping alerts on an infra blip is worse than an extra message.
type Store struct {
	client redis.Cmdable
	logger *logrus.Logger
}

func NewStore(client redis.Cmdable, logger *logrus.Logger) *Store {
	if logger == nil {
		logger = logrus.New()
	}
	return &Store{client: client, logger: logger}
}

// Enabled reports whether alerts of the given kind may be dispatched.
func (s *Store) Enabled(ctx context.Context, kind models.PatternKind) bool {
	val, err := s.client.Get(ctx, toggleKey(kind)).Result()
	if errors.Is(err, redis.Nil) {
		return true
	}
	if err != nil {
		s.logger.WithError(err).WithField("toggle", kind).Warn("toggle read failed, defaulting to enabled")
		return true
	}
	return val != "0"
}

// Set records the toggle and registers it in the index so All can list it.
func (s *Store) Set(ctx context.Context, kind models.PatternKind, enabled bool) error {
	val := "1"
	if !enabled {
		val = "0"
	}
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, toggleKey(kind), val, 0)
	pipe.SAdd(ctx, toggleIndexKey, string(kind))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("set toggle %s: %w", kind, err)
	}
	return nil
}

// All returns every toggle ever set, plus the built-in pattern kinds.
func (s *Store) All(ctx context.Context) (map[string]bool, error) {
	names, err := s.client.SMembers(ctx, toggleIndexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("list toggles: %w", err)
	}

	out := map[string]bool{
		string(models.PatternConfluence): true,
		string(models.PatternSequence):   true,
		string(models.PatternDiversity):  true,
	}
	for _, name := range names {
		out[name] = s.Enabled(ctx, models.PatternKind(name))
	}
	return out, nil
}

func toggleKey(kind models.PatternKind) string {
	return constants.RedisKeyTogglePrefix + string(kind)
}
