// Package scoring defines the pluggable policies that turn raw step
// metrics into a confidence value. A preset is pure configuration; the
// same metrics replayed under a different preset yield different scores.
package scoring

// ModifierKind names one confidence adjustment applied by a preset.
type ModifierKind string

const (
	ModifierHint     ModifierKind = "hint_penalty"
	ModifierSolution ModifierKind = "solution_penalty"
	ModifierRetry    ModifierKind = "retry_penalty"
	ModifierFirstTry ModifierKind = "first_try_bonus"
)

// Modifier records one adjustment for explanation traces.
type Modifier struct {
	Kind      ModifierKind `json:"kind"`
	Magnitude float64      `json:"magnitude"` // per-unit delta, negative for penalties
	Count     int          `json:"count"`
}

// Total returns the combined delta this modifier contributed.
func (m Modifier) Total() float64 {
	return m.Magnitude * float64(m.Count)
}

// Preset is a named scoring policy. All fields are fractional deltas on a
// 0..1 confidence scale except PassThreshold, which is compared against
// the whole-exercise weighted score.
type Preset struct {
	ID              string  `json:"id" yaml:"id"`
	HintPenalty     float64 `json:"hint_penalty" yaml:"hint_penalty"`
	SolutionPenalty float64 `json:"solution_penalty" yaml:"solution_penalty"`
	RetryPenalty    float64 `json:"retry_penalty" yaml:"retry_penalty"`
	FirstTryBonus   float64 `json:"first_try_bonus" yaml:"first_try_bonus"`
	MinConfidence   float64 `json:"min_confidence" yaml:"min_confidence"`
	PassThreshold   float64 `json:"pass_threshold" yaml:"pass_threshold"`
}

// Confidence computes the confidence for one step. The score starts at
// 1.0, loses HintPenalty per hint, SolutionPenalty once if the solution
// was viewed, RetryPenalty per retry, gains FirstTryBonus only on a clean
// first-try success, and is clamped to [MinConfidence, 1.0].
//
// The first-try bonus is mutually exclusive with every penalty: it
// requires zero hints, no solution view, and zero retries.
func (p Preset) Confidence(hintsUsed int, solutionViewed bool, retryCount int, isFirstTrySuccess bool) (float64, []Modifier) {
	score := 1.0
	var mods []Modifier

	if hintsUsed > 0 {
		score -= p.HintPenalty * float64(hintsUsed)
		mods = append(mods, Modifier{Kind: ModifierHint, Magnitude: -p.HintPenalty, Count: hintsUsed})
	}
	if solutionViewed {
		score -= p.SolutionPenalty
		mods = append(mods, Modifier{Kind: ModifierSolution, Magnitude: -p.SolutionPenalty, Count: 1})
	}
	if retryCount > 0 {
		score -= p.RetryPenalty * float64(retryCount)
		mods = append(mods, Modifier{Kind: ModifierRetry, Magnitude: -p.RetryPenalty, Count: retryCount})
	}
	if isFirstTrySuccess && hintsUsed == 0 && !solutionViewed && retryCount == 0 {
		score += p.FirstTryBonus
		mods = append(mods, Modifier{Kind: ModifierFirstTry, Magnitude: p.FirstTryBonus, Count: 1})
	}

	return clamp(score, p.MinConfidence, 1.0), mods
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
