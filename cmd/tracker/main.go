package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/alpharadar/solana-alpha-tracker/internal/archive"
	"github.com/alpharadar/solana-alpha-tracker/internal/config"
	"github.com/alpharadar/solana-alpha-tracker/internal/costbasis"
	"github.com/alpharadar/solana-alpha-tracker/internal/detector"
	"github.com/alpharadar/solana-alpha-tracker/internal/flags"
	"github.com/alpharadar/solana-alpha-tracker/internal/ledger"
	"github.com/alpharadar/solana-alpha-tracker/internal/marketdata"
	"github.com/alpharadar/solana-alpha-tracker/internal/models"
	"github.com/alpharadar/solana-alpha-tracker/internal/normalizer"
	"github.com/alpharadar/solana-alpha-tracker/internal/notify"
	"github.com/alpharadar/solana-alpha-tracker/internal/pipeline"
	"github.com/alpharadar/solana-alpha-tracker/internal/roster"
	"github.com/alpharadar/solana-alpha-tracker/internal/server"
	"github.com/alpharadar/solana-alpha-tracker/internal/stream"
)

// env bootstrap function
func loadEnv(logger *logrus.Logger) {
	// Get the project root directory (where go.mod is)
	_, filename, _, _ := runtime.Caller(0)
	projectRoot := filepath.Join(filepath.Dir(filename), "../..")
	envPath := filepath.Join(projectRoot, ".env")

	if err := godotenv.Load(envPath); err != nil {
		logger.Warnf("no .env file found at %s, using system environment variables", envPath)
	} else {
		logger.Infof("loaded .env from %s", envPath)
	}
}

// main wires ingestion, detection, and delivery together and runs the HTTP
// server with graceful shutdown
func main() {
	// Initialize structured logger with custom formatting
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	logger.SetLevel(logrus.InfoLevel)

	// load .env BEFORE anything reads os.Getenv
	loadEnv(logger)

	// Load and validate configuration from environment variables
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.WithError(err).Fatal("invalid configuration")
	}

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup signal handling for graceful shutdown (Ctrl+C, SIGTERM)
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	// Redis backs the swap ledger, cost basis history, and detector toggles
	rclient := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
		DB:   0,
	})
	if err := rclient.Ping(ctx).Err(); err != nil {
		logger.WithError(err).Fatal("failed to connect to Redis")
	}

	// Roster: fetch once at startup, then refresh on a staleness schedule.
	// Starting with an empty roster would silently drop every swap.
	holder := roster.NewHolder(roster.NewSnapshot(nil, nil))
	provider := roster.NewHTTPProvider(cfg.RosterURL, cfg.DuneAPIKey)
	tracked := make([]models.TraderCategory, 0, len(cfg.TrackedCategories))
	for _, c := range cfg.TrackedCategories {
		tracked = append(tracked, models.ParseCategory(c))
	}
	refresher := roster.NewRefresher(holder, provider, tracked, cfg.RosterRefreshInterval, cfg.RosterCheckInterval, logger)

	// Keep the provider-side webhook filter in step with the roster; without
	// this, wallets added on a refresh never generate deliveries.
	if cfg.StreamProvider == "webhook" && cfg.HeliusWebhookID != "" {
		webhookSync := stream.NewWebhookSync(cfg.HeliusAPIKey, cfg.HeliusWebhookID, logger)
		refresher.OnPublish(func(ctx context.Context, snap *roster.Snapshot) {
			if err := webhookSync.Sync(ctx, snap.Wallets()); err != nil {
				logger.WithError(err).Warn("webhook address sync failed")
			}
		})
	}

	if err := refresher.RefreshNow(ctx); err != nil {
		logger.WithError(err).Fatal("initial roster fetch failed")
	}
	go refresher.Run(ctx)

	// Market data: SOL price from the aggregator, supply from the RPC node
	prices := marketdata.NewPriceClient(cfg.PriceAPIURL)
	supply := marketdata.NewRPCSupplyFetcher(cfg.SolanaRPCURL)
	resolver := marketdata.NewResolver(prices, supply, logger)

	norm := normalizer.New(holder, resolver, cfg.MinSwapUSD, logger)

	swapLedger, err := ledger.NewRedisLedger(rclient)
	if err != nil {
		logger.WithError(err).Fatal("failed to create swap ledger")
	}
	fillStore, err := costbasis.NewRedisStore(rclient)
	if err != nil {
		logger.WithError(err).Fatal("failed to create cost basis store")
	}
	costBasis := costbasis.NewService(fillStore, logger)

	det := detector.New(swapLedger, detector.Config{
		ConfluenceWindow:     cfg.ConfluenceWindow,
		SequenceWindow:       cfg.SequenceWindow,
		DiversityWindow:      cfg.DiversityWindow,
		ConfluenceMinWallets: cfg.ConfluenceMinWallets,
		SequenceMinFollowers: cfg.SequenceMinFollowers,
		SequenceFollowLag:    cfg.SequenceFollowLag,
		DiversityMinKinds:    cfg.DiversityMinKinds,
	}, logger)

	toggles := flags.NewStore(rclient, logger)

	// Telegram delivery; without a token, alerts only reach the log
	var sender pipeline.AlertSender
	if cfg.TelegramToken != "" {
		limiter := notify.NewRateLimiter(cfg.SendsPerSecond, cfg.SendsPerMinute)
		sender = notify.NewDispatcher(notify.NewTelegramClient(cfg.TelegramToken), limiter, notify.NewRetryPolicy(), cfg.TelegramChatIDs, logger)
	} else {
		logger.Warn("TELEGRAM_TOKEN not set, alerts will be logged only")
		sender = notify.NewLogSender(logger)
	}

	// ClickHouse alert archive (optional)
	var alertArchive pipeline.Archiver
	if cfg.ClickHouseAddr != "" {
		a, err := archive.New(ctx, archive.Config{
			Addr:     cfg.ClickHouseAddr,
			Database: cfg.ClickHouseDatabase,
			Username: cfg.ClickHouseUsername,
			Password: cfg.ClickHousePassword,
		}, logger)
		if err != nil {
			logger.WithError(err).Warn("alert archive unavailable, continuing without it")
		} else {
			alertArchive = a
			defer a.Close()
		}
	}

	pipe := pipeline.New(pipeline.Options{
		Normalizer: norm,
		Roster:     holder,
		Ledger:     swapLedger,
		Detector:   det,
		CostBasis:  costBasis,
		Toggles:    toggles,
		Archive:    alertArchive,
		Dispatcher: sender,
		Logger:     logger,
	})

	// Optional webhook-less ingest over a websocket subscription
	if cfg.StreamProvider == "helius-ws" {
		ws := stream.NewHeliusStream(cfg.HeliusAPIKey, holder, pipe, logger)
		go func() {
			if err := ws.Run(ctx); err != nil && ctx.Err() == nil {
				logger.WithError(err).Error("transaction stream stopped")
			}
		}()
	}

	// Create handlers with all dependencies injected
	h := &server.Handlers{
		Pipeline: pipe,
		Redis:    rclient,
		Roster:   holder,
		Toggles:  toggles,
		DevMode:  cfg.DevMode,
		Logger:   logger,
		AppCtx:   ctx,
	}

	srv, err := server.NewServer(server.ServerDeps{
		Handlers: h,
		Config: server.ServerConfig{
			Addr:    cfg.ListenAddr,
			DevMode: cfg.DevMode,
			APIKey:  cfg.APIKey,
		},
	})
	if err != nil {
		logger.WithError(err).Fatal("failed to create http server")
	}

	// Setup graceful shutdown in a separate goroutine
	go func() {
		<-sigCh // Wait for shutdown signal
		logger.Info("shutting down")
		cancel()                               // Cancel context to stop ongoing operations
		_ = srv.Shutdown(context.Background()) // Gracefully shutdown HTTP server
	}()

	logger.WithField("addr", cfg.ListenAddr).Info("alpha tracker starting")
	if err := srv.Start(); err != nil {
		// "http: Server closed" is expected during graceful shutdown
		if err.Error() == "http: Server closed" {
			return
		}
		logger.WithError(err).Fatal("server failed")
	}

	// Wait for server to be fully shut down
	if err := srv.WaitClosed(context.Background()); err != nil {
		fmt.Println(err)
	}
}
