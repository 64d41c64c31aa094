// Package skills maps completed lab steps to named skills and aggregates
// the resulting evidence into per-skill mastery estimates with time decay.
package skills

// Level is a proficiency level a skill can be demonstrated at.
type Level string

const (
	LevelUnassessed  Level = "unassessed"
	LevelKnows       Level = "knows"
	LevelUnderstands Level = "understands"
	LevelApplies     Level = "applies"
)

// Rank orders levels for comparison; unassessed ranks lowest.
func (l Level) Rank() int {
	switch l {
	case LevelKnows:
		return 1
	case LevelUnderstands:
		return 2
	case LevelApplies:
		return 3
	default:
		return 0
	}
}

// ParseLevel maps a string to a Level; unknown strings are unassessed.
func ParseLevel(s string) Level {
	switch Level(s) {
	case LevelKnows, LevelUnderstands, LevelApplies:
		return Level(s)
	default:
		return LevelUnassessed
	}
}

// QMatrixEntry maps one (lab, step) pair to a skill it provides evidence
// for, at a proficiency level and with a weight. Static catalog data, not
// student state.
type QMatrixEntry struct {
	LabID   string  `json:"lab_id" yaml:"lab_id"`
	StepID  string  `json:"step_id" yaml:"step_id"`
	SkillID string  `json:"skill_id" yaml:"skill_id"`
	Level   Level   `json:"level" yaml:"level"`
	Weight  float64 `json:"weight" yaml:"weight"`
}

// QMatrix is the full weighted step-to-skill mapping.
type QMatrix []QMatrixEntry

// Lookup returns all entries for a (lab, step) pair.
func (q QMatrix) Lookup(labID, stepID string) []QMatrixEntry {
	var out []QMatrixEntry
	for _, e := range q {
		if e.LabID == labID && e.StepID == stepID {
			out = append(out, e)
		}
	}
	return out
}

// SkillIDs returns the distinct skills referenced by a lab's rows, in
// first-seen order.
func (q QMatrix) SkillIDs(labID string) []string {
	seen := make(map[string]bool)
	var ids []string
	for _, e := range q {
		if e.LabID != labID || seen[e.SkillID] {
			continue
		}
		seen[e.SkillID] = true
		ids = append(ids, e.SkillID)
	}
	return ids
}
