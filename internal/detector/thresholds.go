package detector

import "math"

// Flow threshold tiers. The numbers were tuned empirically, not derived;
// they are configuration, and the zero Config takes these defaults.
const (
	smallCapCeiling = 1_000_000
	midCapCeiling   = 10_000_000

	smallCapFloorUSD = 2_000
	midCapFloorUSD   = 5_000
	largeCapFloorUSD = 10_000

	smallCapPct = 0.01
	midCapPct   = 0.005
	largeCapPct = 0.003

	unknownCapFloorUSD = 5_000
)

// flowThreshold returns the minimum net flow (USD) a confluence must reach,
// scaled to the token's market cap. A cap of zero means unknown and falls
// back to a fixed floor, never an automatic pass.
// Boundary rule: exactly $1M and exactly $10M use the middle tier.
func flowThreshold(marketCap float64) float64 {
	switch {
	case marketCap <= 0:
		return unknownCapFloorUSD
	case marketCap < smallCapCeiling:
		return math.Max(smallCapFloorUSD, smallCapPct*marketCap)
	case marketCap <= midCapCeiling:
		return math.Max(midCapFloorUSD, midCapPct*marketCap)
	default:
		return math.Max(largeCapFloorUSD, largeCapPct*marketCap)
	}
}
