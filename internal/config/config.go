package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP server
	ListenAddr string
	APIKey     string
	DevMode    bool

	// Redis settings
	RedisAddr string

	// ClickHouse settings (alert archive; optional)
	ClickHouseAddr     string
	ClickHouseDatabase string
	ClickHouseUsername string
	ClickHousePassword string

	// Solana / market data
	SolanaRPCURL string
	PriceAPIURL  string

	// Alpha roster
	RosterURL             string
	DuneAPIKey            string
	RosterRefreshInterval time.Duration
	RosterCheckInterval   time.Duration

	// Telegram delivery
	TelegramToken   string
	TelegramChatIDs []string

	// Ingest
	StreamProvider  string
	HeliusAPIKey    string
	HeliusWebhookID string

	// Detection
	MinSwapUSD           float64
	TrackedCategories    []string
	ConfluenceWindow     time.Duration
	SequenceWindow       time.Duration
	DiversityWindow      time.Duration
	ConfluenceMinWallets int
	SequenceMinFollowers int
	SequenceFollowLag    time.Duration
	DiversityMinKinds    int

	// Delivery throttle
	SendsPerSecond int
	SendsPerMinute int
}

func Load() *Config {
	return &Config{
		ListenAddr: getEnv("LISTEN_ADDR", ":8080"),
		APIKey:     getEnv("API_KEY", ""),
		DevMode:    getBoolEnv("DEV_MODE", false),

		RedisAddr: getEnv("REDIS_ADDR", "localhost:6379"),

		ClickHouseAddr:     getEnv("CLICKHOUSE_ADDR", ""),
		ClickHouseDatabase: getEnv("CLICKHOUSE_DATABASE", "alpha"),
		ClickHouseUsername: getEnv("CLICKHOUSE_USERNAME", "default"),
		ClickHousePassword: getEnv("CLICKHOUSE_PASSWORD", ""),

		SolanaRPCURL: getEnv("SOLANA_RPC_URL", "https://api.mainnet-beta.solana.com"),
		PriceAPIURL:  getEnv("PRICE_API_URL", "https://api.jup.ag/price/v2"),

		RosterURL:             getEnv("ROSTER_URL", ""),
		DuneAPIKey:            getEnv("DUNE_API_KEY", ""),
		RosterRefreshInterval: getDurationEnv("ROSTER_REFRESH_INTERVAL", 7*24*time.Hour),
		RosterCheckInterval:   getDurationEnv("ROSTER_CHECK_INTERVAL", 24*time.Hour),

		TelegramToken:   getEnv("TELEGRAM_TOKEN", ""),
		TelegramChatIDs: getListEnv("TELEGRAM_CHAT_IDS", nil),

		StreamProvider:  getEnv("STREAM_PROVIDER", "webhook"),
		HeliusAPIKey:    getEnv("HELIUS_API_KEY", ""),
		HeliusWebhookID: getEnv("HELIUS_WEBHOOK_ID", ""),

		MinSwapUSD:        getFloatEnv("MIN_SWAP_USD", 100),
		TrackedCategories: getListEnv("TRACKED_CATEGORIES", []string{"Insider", "Alpha Trader", "Volume Leader"}),

		ConfluenceWindow:     getDurationEnv("CONFLUENCE_WINDOW", time.Hour),
		SequenceWindow:       getDurationEnv("SEQUENCE_WINDOW", 2*time.Hour),
		DiversityWindow:      getDurationEnv("DIVERSITY_WINDOW", time.Hour),
		ConfluenceMinWallets: getIntEnv("CONFLUENCE_MIN_WALLETS", 3),
		SequenceMinFollowers: getIntEnv("SEQUENCE_MIN_FOLLOWERS", 2),
		SequenceFollowLag:    getDurationEnv("SEQUENCE_FOLLOW_LAG", 5*time.Minute),
		DiversityMinKinds:    getIntEnv("DIVERSITY_MIN_KINDS", 3),

		SendsPerSecond: getIntEnv("SENDS_PER_SECOND", 3),
		SendsPerMinute: getIntEnv("SENDS_PER_MINUTE", 20),
	}
}

func (c *Config) Validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("LISTEN_ADDR is required")
	}
	if c.RedisAddr == "" {
		return fmt.Errorf("REDIS_ADDR is required")
	}
	if c.RosterURL == "" {
		return fmt.Errorf("ROSTER_URL is required")
	}
	if c.TelegramToken != "" && len(c.TelegramChatIDs) == 0 {
		return fmt.Errorf("TELEGRAM_CHAT_IDS is required when TELEGRAM_TOKEN is set")
	}
	switch c.StreamProvider {
	case "webhook", "helius-ws":
	default:
		return fmt.Errorf("unknown STREAM_PROVIDER %q", c.StreamProvider)
	}
	if c.StreamProvider == "helius-ws" && c.HeliusAPIKey == "" {
		return fmt.Errorf("HELIUS_API_KEY is required when STREAM_PROVIDER=helius-ws")
	}
	if c.HeliusWebhookID != "" && c.HeliusAPIKey == "" {
		return fmt.Errorf("HELIUS_API_KEY is required when HELIUS_WEBHOOK_ID is set")
	}
	if c.MinSwapUSD < 0 {
		return fmt.Errorf("MIN_SWAP_USD must not be negative")
	}
	if c.ConfluenceMinWallets < 1 || c.SequenceMinFollowers < 1 || c.DiversityMinKinds < 1 {
		return fmt.Errorf("detector wallet floors must be at least 1")
	}
	if c.SendsPerSecond < 1 || c.SendsPerMinute < 1 {
		return fmt.Errorf("send rate caps must be at least 1")
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getIntEnv(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getFloatEnv(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getBoolEnv(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}

func getDurationEnv(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}

func getListEnv(key string, defaultVal []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultVal
	}
	return out
}
