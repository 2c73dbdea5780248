package models

// TraderCategory is the closed set of roster labels produced by the
// analytics process. Anything not in the roster maps to CategoryUnknown.
type TraderCategory string

const (
	CategoryInsider             TraderCategory = "Insider"
	CategoryAlphaTrader         TraderCategory = "Alpha Trader"
	CategoryVolumeLeader        TraderCategory = "Volume Leader"
	CategoryConsistentPerformer TraderCategory = "Consistent Performer"
	CategoryUnknown             TraderCategory = "Unknown"
)

// ParseCategory maps a raw roster label onto the closed enum.
func ParseCategory(s string) TraderCategory {
	switch TraderCategory(s) {
	case CategoryInsider, CategoryAlphaTrader, CategoryVolumeLeader, CategoryConsistentPerformer:
		return TraderCategory(s)
	default:
		return CategoryUnknown
	}
}

// TraderProfile describes one alpha wallet. Behavioral stats are carried for
// display only; detection logic keys on Category alone.
type TraderProfile struct {
	Wallet       string         `json:"wallet"`
	Category     TraderCategory `json:"category"`
	WinRate      float64        `json:"win_rate"`
	AvgHoldHours float64        `json:"avg_hold_hours"`
	TradesPerDay float64        `json:"trades_per_day"`
	TotalProfits float64        `json:"total_profits"`
}
