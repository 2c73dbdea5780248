package constants

import "time"

// Redis key prefixes
const (
	RedisKeyLedgerPrefix    = "ledger:"
	RedisKeyCostBasisPrefix = "costbasis:"
	RedisKeyToggleIndex     = "toggles:index"
	RedisKeyTogglePrefix    = "toggles:"
)

// Ledger bounds
const (
	LedgerMaxEntries = 200
	// Longest detector retention window; the ledger TTL is pinned to it.
	LedgerRetention = 2 * time.Hour
)

// Cost basis bounds
const (
	CostBasisMaxFills  = 100
	CostBasisRetention = 30 * 24 * time.Hour
)

// Market data caches
const (
	SolPriceCacheTTL  = time.Hour
	TokenMetaIdleTTL  = 14 * 24 * time.Hour
	TokenMetaSweepGap = time.Hour
)

// Telegram transport limits. The hard API limit is 4096; chunk below it so
// a chunk never cuts a line in half.
const (
	TelegramChunkSize = 4000
)

// Well-known mints
const (
	WrappedSolMint = "So11111111111111111111111111111111111111112"
	USDCMint       = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
	USDTMint       = "Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB"
)

// StablecoinMints are excluded from swap normalization; a stablecoin leg is
// the payment side of a swap, not the tracked token.
var StablecoinMints = map[string]bool{
	USDCMint: true,
	USDTMint: true,
}

// TokenSymbols maps well-known mints to display symbols. Mints not listed
// here fall back to a shortened address.
var TokenSymbols = map[string]string{
	WrappedSolMint: "SOL",
	USDCMint:       "USDC",
	USDTMint:       "USDT",
	"mSoLzYCxHdYgdzU16g5QSh3i5K3z3KZK7ytfqcJm7So":  "mSOL",
	"DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263": "BONK",
	"JUPyiwrYJFskUPiHa7hkeR8VUtAeFoSYbKedZNsDvCN":  "JUP",
	"4k3Dyjzvzp8eMZWUXbBCjEvwSkkk59S5iCNLY3QrkX6R": "RAY",
	"7GCihgDB8fe6KNjn2MYtkzZcRjQy3t9GHdC8uHYmW2hr": "POPCAT",
}
