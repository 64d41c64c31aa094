package skills

import (
	"sort"
	"time"
)

// Thresholds are the ascending confidence cutoffs for level
// classification; the highest satisfied threshold wins.
type Thresholds struct {
	Knows       float64 `json:"knows" yaml:"knows"`
	Understands float64 `json:"understands" yaml:"understands"`
	Applies     float64 `json:"applies" yaml:"applies"`
}

// DefaultThresholds returns the standard 0.30 / 0.50 / 0.70 cutoffs.
func DefaultThresholds() Thresholds {
	return Thresholds{Knows: 0.30, Understands: 0.50, Applies: 0.70}
}

// DetermineLevel maps an aggregated confidence to a proficiency level.
func DetermineLevel(confidence float64, t Thresholds) Level {
	switch {
	case confidence >= t.Applies:
		return LevelApplies
	case confidence >= t.Understands:
		return LevelUnderstands
	case confidence >= t.Knows:
		return LevelKnows
	default:
		return LevelUnassessed
	}
}

// AggregateSkillConfidence computes the decayed weighted average of all
// evidence at the requested level: sum(w*c*decay) / sum(w*decay).
// Returns 0 when no evidence matches the level.
func AggregateSkillConfidence(evidenceList []SkillEvidence, level Level, decay DecayConfig, now time.Time) float64 {
	var num, den float64
	for _, ev := range evidenceList {
		if ev.Level != level {
			continue
		}
		age := now.Sub(ev.Timestamp).Hours() / 24
		d := TimeDecay(age, decay)
		num += ev.Weight * ev.Confidence * d
		den += ev.Weight * d
	}
	if den == 0 {
		return 0
	}
	return num / den
}

// SkillState is the aggregated mastery estimate for one (student, skill)
// pair. It is mutated only by re-aggregation over the full evidence list.
type SkillState struct {
	SkillID        string    `json:"skill_id"`
	Demonstrated   float64   `json:"demonstrated"`
	CurrentLevel   Level     `json:"current_level"`
	EvidenceCount  int       `json:"evidence_count"`
	LastEvidenceAt time.Time `json:"last_evidence_at"`

	// SelfDeclared is an optional student-declared proficiency, kept
	// alongside the demonstrated estimate without influencing it.
	SelfDeclared *Level `json:"self_declared,omitempty"`
}

// ComputeStudentSkillStates groups evidence by skill and aggregates each
// skill's confidence at its highest demonstrated level. Skills with zero
// evidence produce no state.
func ComputeStudentSkillStates(evidenceList []SkillEvidence, decay DecayConfig, thresholds Thresholds, now time.Time) map[string]SkillState {
	bySkill := make(map[string][]SkillEvidence)
	for _, ev := range evidenceList {
		bySkill[ev.SkillID] = append(bySkill[ev.SkillID], ev)
	}

	states := make(map[string]SkillState, len(bySkill))
	for skillID, evs := range bySkill {
		highest := LevelUnassessed
		var latest time.Time
		for _, ev := range evs {
			if ev.Level.Rank() > highest.Rank() {
				highest = ev.Level
			}
			if ev.Timestamp.After(latest) {
				latest = ev.Timestamp
			}
		}

		demonstrated := AggregateSkillConfidence(evs, highest, decay, now)
		states[skillID] = SkillState{
			SkillID:        skillID,
			Demonstrated:   demonstrated,
			CurrentLevel:   DetermineLevel(demonstrated, thresholds),
			EvidenceCount:  len(evs),
			LastEvidenceAt: latest,
		}
	}
	return states
}

// SortedSkillIDs returns state map keys in sorted order for deterministic
// display and serialization.
func SortedSkillIDs(states map[string]SkillState) []string {
	ids := make([]string, 0, len(states))
	for id := range states {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
