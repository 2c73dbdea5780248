package models

// PatternKind identifies which detector produced a finding.
type PatternKind string

const (
	PatternConfluence PatternKind = "confluence"
	PatternSequence   PatternKind = "sequence"
	PatternDiversity  PatternKind = "diversity"
)

// Pattern is an ephemeral detector finding. It lives only long enough to be
// rendered into the triggering alert.
type Pattern struct {
	Kind      PatternKind
	Direction Direction
	Wallets   []string
	VolumeUSD float64
	Summary   string
}
