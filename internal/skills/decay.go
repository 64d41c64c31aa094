package skills

import "math"

// DefaultHalfLifeDays is how long it takes evidence to lose half its
// weight when aggregating skill confidence.
const DefaultHalfLifeDays = 90.0

// DecayConfig controls time decay of skill evidence.
type DecayConfig struct {
	HalfLifeDays float64 `json:"half_life_days" yaml:"half_life_days"`
}

// DefaultDecayConfig returns the standard 90-day half-life.
func DefaultDecayConfig() DecayConfig {
	return DecayConfig{HalfLifeDays: DefaultHalfLifeDays}
}

// TimeDecay returns the multiplicative down-weighting for evidence of the
// given age: 2^(-age/half_life). Evidence exactly at the half-life point
// decays to 0.5. A non-positive half-life disables decay.
func TimeDecay(ageInDays float64, cfg DecayConfig) float64 {
	if cfg.HalfLifeDays <= 0 {
		return 1.0
	}
	if ageInDays < 0 {
		ageInDays = 0
	}
	return math.Exp2(-ageInDays / cfg.HalfLifeDays)
}
