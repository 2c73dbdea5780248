package models

import "time"

// Direction of a swap from the tracked wallet's point of view.
type Direction string

const (
	DirectionBuy  Direction = "buy"
	DirectionSell Direction = "sell"
)

// SwapEvent is the canonical unit of work: one token transfer by a tracked
// wallet, normalized from a provider webhook record. Immutable once built.
type SwapEvent struct {
	Signature   string    `json:"signature"`
	Wallet      string    `json:"wallet"`
	TokenMint   string    `json:"token_mint"`
	TokenSymbol string    `json:"token_symbol"`
	Direction   Direction `json:"direction"`
	SolAmount   float64   `json:"sol_amount"`
	TokenAmount float64   `json:"token_amount"`
	USDValue    float64   `json:"usd_value"`
	// MarketCap at transaction time, swap-implied. Zero means unknown;
	// consumers must not treat it as a legitimate cap of zero.
	MarketCap float64   `json:"market_cap"`
	Timestamp time.Time `json:"timestamp"`
}
