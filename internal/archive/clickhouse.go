package archive

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/sirupsen/logrus"

	"github.com/alpharadar/solana-alpha-tracker/internal/models"
)

// Row is one fired alert, flattened for columnar storage. Only alerts land
// here; raw swap traffic stays in the bounded Redis window.
type Row struct {
	FiredAt     time.Time
	TokenMint   string
	TokenSymbol string
	PatternKind string
	Direction   string
	VolumeUSD   float64
	MarketCap   float64
	Wallets     []string
	Summary     string
}

const createTableDDL = `
CREATE TABLE IF NOT EXISTS alerts (
    fired_at     DateTime,
    token_mint   String,
    token_symbol String,
    pattern_kind String,
    direction    String,
    volume_usd   Float64,
    market_cap   Float64,
    wallets      Array(String),
    summary      String
) ENGINE = MergeTree()
ORDER BY (token_mint, fired_at)
TTL fired_at + INTERVAL 90 DAY
`

// Archive writes fired alerts to ClickHouse for offline analysis. Every
// write is best effort; archive failures are logged and never block or fail
// the notification path.
type Archive struct {
	conn   driver.Conn
	logger *logrus.Logger
}

// Config mirrors the connection settings from the environment.
type Config struct {
	Addr     string
	Database string
	Username string
	Password string
}

func New(ctx context.Context, cfg Config, logger *logrus.Logger) (*Archive, error) {
	if logger == nil {
		logger = logrus.New()
	}
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{cfg.Addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		DialTimeout: 10 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("open clickhouse: %w", err)
	}
	if err := conn.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping clickhouse: %w", err)
	}
	if err := conn.Exec(ctx, strings.TrimSpace(createTableDDL)); err != nil {
		return nil, fmt.Errorf("create alerts table: %w", err)
	}
	return &Archive{conn: conn, logger: logger}, nil
}

// Record stores one alert row per fired pattern.
func (a *Archive) Record(ctx context.Context, ev models.SwapEvent, patterns []models.Pattern) {
	batch, err := a.conn.PrepareBatch(ctx, "INSERT INTO alerts")
	if err != nil {
		a.logger.WithError(err).Warn("archive batch prepare failed")
		return
	}
	now := time.Now()
	for _, p := range patterns {
		err := batch.Append(
			now,
			ev.TokenMint,
			ev.TokenSymbol,
			string(p.Kind),
			string(p.Direction),
			p.VolumeUSD,
			ev.MarketCap,
			p.Wallets,
			p.Summary,
		)
		if err != nil {
			a.logger.WithError(err).Warn("archive row append failed")
			return
		}
	}
	if err := batch.Send(); err != nil {
		a.logger.WithError(err).Warn("archive write failed")
	}
}

// Close releases the connection pool.
func (a *Archive) Close() error {
	return a.conn.Close()
}
