package returns

import (
	"math"
	"slices"
)

// OuncesPerPound converts a pound weight into ounces
const OuncesPerPound = 16

// DefaultAcceptedOunces are the discrete package weights the carrier accepts by default
var DefaultAcceptedOunces = []int{4, 8, 12, 16, 20, 24, 28, 32, 48, 64, 80, 96, 112, 128, 144, 160}

// DefaultFallbackOunces is used when neither an ounce nor a pound weight resolves
const DefaultFallbackOunces = 32

// WeightPolicy resolves the package weight sent to the carrier.
// A nil Fallback means an unresolved weight stays unknown.
type WeightPolicy struct {
	Accepted []int
	Fallback *int
}

// DefaultWeightPolicy returns the policy with the default accepted set and a 32 oz fallback
func DefaultWeightPolicy() WeightPolicy {
	fallback := DefaultFallbackOunces
	return WeightPolicy{
		Accepted: slices.Clone(DefaultAcceptedOunces),
		Fallback: &fallback,
	}
}

// Resolve applies, first match wins: an accepted ounce value, an accepted
// pound value converted to ounces, then the fallback.
func (p WeightPolicy) Resolve(req ReturnRequest) *int {
	if oz, ok := p.accept(req.WeightOz, 1); ok {
		return &oz
	}
	if oz, ok := p.accept(req.WeightLbs, OuncesPerPound); ok {
		return &oz
	}
	if p.Fallback == nil {
		return nil
	}
	fallback := *p.Fallback
	return &fallback
}

func (p WeightPolicy) accept(value *float64, factor float64) (int, bool) {
	if value == nil {
		return 0, false
	}
	oz := *value * factor
	if math.IsNaN(oz) || math.IsInf(oz, 0) || oz != math.Trunc(oz) {
		return 0, false
	}
	n := int(oz)
	if !slices.Contains(p.Accepted, n) {
		return 0, false
	}
	return n, true
}
