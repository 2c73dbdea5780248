package roster

import (
	"sort"
	"sync/atomic"
	"time"

	"github.com/alpharadar/solana-alpha-tracker/internal/models"
)

// Snapshot is an immutable view of the alpha-wallet roster. A refresh builds
// a whole new Snapshot and swaps the pointer, so in-flight detection runs
// never observe a partially updated roster.
type Snapshot struct {
	profiles  map[string]models.TraderProfile
	tracked   map[models.TraderCategory]bool
	FetchedAt time.Time
}

// NewSnapshot builds a snapshot from profiles keyed by wallet address.
// tracked is the category set that counts as "alpha" for detection.
func NewSnapshot(profiles map[string]models.TraderProfile, tracked []models.TraderCategory) *Snapshot {
	p := make(map[string]models.TraderProfile, len(profiles))
	for addr, prof := range profiles {
		p[addr] = prof
	}
	t := make(map[models.TraderCategory]bool, len(tracked))
	for _, c := range tracked {
		t[c] = true
	}
	return &Snapshot{profiles: p, tracked: t, FetchedAt: time.Now()}
}

// Contains reports whether the wallet is on the roster.
func (s *Snapshot) Contains(wallet string) bool {
	_, ok := s.profiles[wallet]
	return ok
}

// Profile returns the wallet's profile, defaulting to CategoryUnknown for
// addresses not present.
func (s *Snapshot) Profile(wallet string) models.TraderProfile {
	if p, ok := s.profiles[wallet]; ok {
		return p
	}
	return models.TraderProfile{Wallet: wallet, Category: models.CategoryUnknown}
}

// Category is a lookup shorthand used by the detectors.
func (s *Snapshot) Category(wallet string) models.TraderCategory {
	return s.Profile(wallet).Category
}

// Tracked reports whether a category is in the alpha set.
func (s *Snapshot) Tracked(c models.TraderCategory) bool {
	return s.tracked[c]
}

// Size returns the roster wallet count.
func (s *Snapshot) Size() int {
	return len(s.profiles)
}

// Wallets lists every roster address, sorted for stable output.
func (s *Snapshot) Wallets() []string {
	out := make([]string, 0, len(s.profiles))
	for addr := range s.profiles {
		out = append(out, addr)
	}
	sort.Strings(out)
	return out
}

// TrackedCategories lists the alpha category set, sorted for stable output.
func (s *Snapshot) TrackedCategories() []string {
	out := make([]string, 0, len(s.tracked))
	for c := range s.tracked {
		out = append(out, string(c))
	}
	sort.Strings(out)
	return out
}

// Holder publishes the current Snapshot. Reads are lock-free; the refresher
// is the only writer.
type Holder struct {
	ptr atomic.Pointer[Snapshot]
}

func NewHolder(initial *Snapshot) *Holder {
	h := &Holder{}
	h.ptr.Store(initial)
	return h
}

// Current returns the latest published snapshot.
func (h *Holder) Current() *Snapshot {
	return h.ptr.Load()
}

// Publish atomically swaps in a new snapshot.
func (h *Holder) Publish(s *Snapshot) {
	h.ptr.Store(s)
}
