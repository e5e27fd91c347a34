package model

import "fmt"

// Tier identifies one stage in the escalating extraction pipeline. The zero
// value is TierUnknown so a zeroed Tier never aliases Tier0.
type Tier int

const (
	TierUnknown Tier = iota
	Tier0
	Tier05
	Tier1
	Tier15
	Tier2
	Tier3
	Tier4
)

// Order returns the tier's position in the total order {0 < 0.5 < 1 < 1.5 < 2 < 3 < 4}.
// Two tiers compare correctly by comparing Order(), not by comparing Tier values directly.
func (t Tier) Order() int {
	switch t {
	case Tier0:
		return 0
	case Tier05:
		return 1
	case Tier1:
		return 2
	case Tier15:
		return 3
	case Tier2:
		return 4
	case Tier3:
		return 5
	case Tier4:
		return 6
	default:
		return -1
	}
}

func (t Tier) String() string {
	switch t {
	case Tier0:
		return "tier-0"
	case Tier05:
		return "tier-0.5"
	case Tier1:
		return "tier-1"
	case Tier15:
		return "tier-1.5"
	case Tier2:
		return "tier-2"
	case Tier3:
		return "tier-3"
	case Tier4:
		return "tier-4"
	default:
		return "tier-unknown"
	}
}

// DefaultCost returns the static cost estimate for the tier, in the same
// currency unit as Settings.MaxCostPerDocument.
func (t Tier) DefaultCost() float64 {
	switch t {
	case Tier0, Tier05, Tier1, Tier4:
		return 0
	case Tier15:
		return 0.003
	case Tier2:
		return 0.0015 // per page; caller multiplies by page count
	case Tier3:
		return 0.01
	default:
		return 0
	}
}

// DefaultThreshold returns the tier's default confidence threshold, used when
// no override exists in settings.
func (t Tier) DefaultThreshold() float64 {
	switch t {
	case Tier0:
		return 1.0
	case Tier05:
		return 0.95
	case Tier1:
		return 0.85
	case Tier15, Tier2:
		return 0.80
	case Tier3:
		return 0.70
	case Tier4:
		return 0
	default:
		return 0
	}
}

// Next returns the next tier in the sequence and true, or TierUnknown and
// false if t is terminal (Tier4) or unrecognised.
func Next(t Tier) (Tier, bool) {
	sequence := []Tier{Tier0, Tier05, Tier1, Tier15, Tier2, Tier3, Tier4}
	for i, cur := range sequence {
		if cur == t {
			if i+1 < len(sequence) {
				return sequence[i+1], true
			}
			return TierUnknown, false
		}
	}
	return TierUnknown, false
}

// AllTiers returns the full tier sequence in increasing order.
func AllTiers() []Tier {
	return []Tier{Tier0, Tier05, Tier1, Tier15, Tier2, Tier3, Tier4}
}

// TierStatus is the outcome recorded for a single tier attempt.
type TierStatus string

const (
	StatusSuccess   TierStatus = "success"
	StatusEscalated TierStatus = "escalated"
	StatusSkipped   TierStatus = "skipped"
	StatusFailed    TierStatus = "failed"
	StatusPending   TierStatus = "pending"
)

// ErrInvalidTier is returned when a tier value outside the known sequence is used.
func ErrInvalidTier(t Tier) error {
	return fmt.Errorf("invalid extraction tier: %d", int(t))
}
