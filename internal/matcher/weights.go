package matcher

import "club-recon/internal/similarity"

// Weights holds every tunable constant of the matching engine. The defaults
// reproduce the behavior treasurers have been working with; deployments can
// override them through configuration.
type Weights struct {
	// Component weights. When a component is unavailable for a pair (for
	// example the candidate has no counterpart name) it is excluded and the
	// remaining weights are renormalized.
	Amount float64
	Date   float64
	Name   float64

	// Flat bonus, in confidence points, when the transaction memo and the
	// candidate label overlap.
	KeywordBonus float64

	// Confidence tiers on the 0-100 scale. Proposals at or above
	// AutoThreshold are auto-reconcilable; proposals below MinimumFloor are
	// never surfaced.
	AutoThreshold float64
	MinimumFloor  float64

	// A transaction whose magnitude exceeds its best candidate's expected
	// amount by this factor yields a split suggestion instead of a match.
	SplitMargin float64

	// Dates farther apart than this score zero.
	DateWindowDays int
}

// DefaultWeights returns the tuning used in production.
func DefaultWeights() Weights {
	return Weights{
		Amount:         0.5,
		Date:           0.3,
		Name:           0.2,
		KeywordBonus:   20,
		AutoThreshold:  85,
		MinimumFloor:   50,
		SplitMargin:    1.5,
		DateWindowDays: similarity.DefaultDateWindowDays,
	}
}
