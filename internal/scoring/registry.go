package scoring

import (
	"fmt"
	"io"
	"sort"

	"github.com/skillforge/labtel/internal/logging"
	"gopkg.in/yaml.v3"
)

// Preset IDs shipped with the engine.
const (
	PresetStrict        = "strict"
	PresetPartialCredit = "partial_credit"
	PresetPractice      = "practice"
)

// DefaultPresetID is used when an unknown preset is requested.
const DefaultPresetID = PresetPartialCredit

// Strict fails a step for any penalty: every penalty zeroes the score and
// passing the exercise requires a perfect 1.0.
func Strict() Preset {
	return Preset{
		ID:              PresetStrict,
		HintPenalty:     1.0,
		SolutionPenalty: 1.0,
		RetryPenalty:    1.0,
		FirstTryBonus:   0.0,
		MinConfidence:   0.0,
		PassThreshold:   1.0,
	}
}

// PartialCredit applies graduated penalties with a 0.2 floor and a 0.7
// pass threshold. Two hints on an otherwise clean pass score exactly 0.70.
func PartialCredit() Preset {
	return Preset{
		ID:              PresetPartialCredit,
		HintPenalty:     0.15,
		SolutionPenalty: 0.30,
		RetryPenalty:    0.10,
		FirstTryBonus:   0.05,
		MinConfidence:   0.2,
		PassThreshold:   0.7,
	}
}

// Practice barely penalizes anything and always passes.
func Practice() Preset {
	return Preset{
		ID:              PresetPractice,
		HintPenalty:     0.05,
		SolutionPenalty: 0.10,
		RetryPenalty:    0.02,
		FirstTryBonus:   0.05,
		MinConfidence:   0.5,
		PassThreshold:   0.0,
	}
}

// Registry resolves preset IDs, including custom presets derived from a
// named base. Lookups of unknown IDs fall back to partial_credit.
type Registry struct {
	presets map[string]Preset
}

// NewRegistry returns a registry holding the three built-in presets.
func NewRegistry() *Registry {
	r := &Registry{presets: make(map[string]Preset)}
	for _, p := range []Preset{Strict(), PartialCredit(), Practice()} {
		r.presets[p.ID] = p
	}
	return r
}

// Get resolves a preset by ID. An unknown or empty ID falls back to the
// partial_credit preset rather than failing.
func (r *Registry) Get(id string) Preset {
	if p, ok := r.presets[id]; ok {
		return p
	}
	if id != "" {
		log := logging.WithComponent("scoring")
		log.Warn().
			Str("preset", id).
			Str("fallback", DefaultPresetID).
			Msg("unknown scoring preset")
	}
	return r.presets[DefaultPresetID]
}

// Register adds or replaces a preset.
func (r *Registry) Register(p Preset) error {
	if p.ID == "" {
		return fmt.Errorf("preset has no id")
	}
	if p.MinConfidence < 0 || p.MinConfidence > 1 {
		return fmt.Errorf("preset %q: min_confidence %v out of [0,1]", p.ID, p.MinConfidence)
	}
	r.presets[p.ID] = p
	return nil
}

// IDs returns all registered preset IDs in sorted order.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.presets))
	for id := range r.presets {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// customPreset is the YAML shape for a derived preset: a named base plus
// per-field overrides. Unset fields keep the base value.
type customPreset struct {
	ID              string   `yaml:"id"`
	Base            string   `yaml:"base"`
	HintPenalty     *float64 `yaml:"hint_penalty"`
	SolutionPenalty *float64 `yaml:"solution_penalty"`
	RetryPenalty    *float64 `yaml:"retry_penalty"`
	FirstTryBonus   *float64 `yaml:"first_try_bonus"`
	MinConfidence   *float64 `yaml:"min_confidence"`
	PassThreshold   *float64 `yaml:"pass_threshold"`
}

// LoadCustom reads YAML preset definitions and registers each one on top
// of its named base.
func (r *Registry) LoadCustom(src io.Reader) error {
	var doc struct {
		Presets []customPreset `yaml:"presets"`
	}
	if err := yaml.NewDecoder(src).Decode(&doc); err != nil {
		return fmt.Errorf("decode presets: %w", err)
	}

	for _, c := range doc.Presets {
		base := r.Get(c.Base)
		p := base
		p.ID = c.ID
		if c.HintPenalty != nil {
			p.HintPenalty = *c.HintPenalty
		}
		if c.SolutionPenalty != nil {
			p.SolutionPenalty = *c.SolutionPenalty
		}
		if c.RetryPenalty != nil {
			p.RetryPenalty = *c.RetryPenalty
		}
		if c.FirstTryBonus != nil {
			p.FirstTryBonus = *c.FirstTryBonus
		}
		if c.MinConfidence != nil {
			p.MinConfidence = *c.MinConfidence
		}
		if c.PassThreshold != nil {
			p.PassThreshold = *c.PassThreshold
		}
		if err := r.Register(p); err != nil {
			return err
		}
	}
	return nil
}
