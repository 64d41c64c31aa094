package skills

import "sort"

// Skill is one entry in the static skill catalog.
type Skill struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// Catalog is the static skill catalog, keyed by skill ID.
type Catalog map[string]Skill

// Name resolves a skill ID to its display name, falling back to the ID
// for skills missing from the catalog.
func (c Catalog) Name(skillID string) string {
	if s, ok := c[skillID]; ok && s.Name != "" {
		return s.Name
	}
	return skillID
}

// StudentSkill joins a skill state with its catalog entry.
type StudentSkill struct {
	SkillState
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// StudentSkills joins states with the catalog, sorted by skill ID.
func StudentSkills(states map[string]SkillState, catalog Catalog) []StudentSkill {
	out := make([]StudentSkill, 0, len(states))
	for _, id := range SortedSkillIDs(states) {
		st := states[id]
		ss := StudentSkill{SkillState: st, Name: catalog.Name(id)}
		if s, ok := catalog[id]; ok {
			ss.Description = s.Description
		}
		out = append(out, ss)
	}
	return out
}

// LevelPartition buckets catalog skills by the student's current level.
type LevelPartition struct {
	Mastered   []string `json:"mastered"`    // current_level == applies
	InProgress []string `json:"in_progress"` // knows or understands
	NotStarted []string `json:"not_started"` // unassessed or no evidence
}

// SkillsByLevel partitions every catalog skill ID by the student's
// current level for it.
func SkillsByLevel(states map[string]SkillState, catalog Catalog) LevelPartition {
	ids := make([]string, 0, len(catalog))
	for id := range catalog {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var p LevelPartition
	for _, id := range ids {
		st, ok := states[id]
		switch {
		case !ok || st.CurrentLevel == LevelUnassessed:
			p.NotStarted = append(p.NotStarted, id)
		case st.CurrentLevel == LevelApplies:
			p.Mastered = append(p.Mastered, id)
		default:
			p.InProgress = append(p.InProgress, id)
		}
	}
	return p
}

// SkillGap describes one skill a target lab requires that the student has
// not yet mastered.
type SkillGap struct {
	SkillID      string  `json:"skill_id"`
	Name         string  `json:"name"`
	CurrentLevel Level   `json:"current_level"`
	Demonstrated float64 `json:"demonstrated"`
	Gap          float64 `json:"gap"` // threshold - demonstrated
}

// GapReport is the result of comparing a student against a target lab.
type GapReport struct {
	LabID     string     `json:"lab_id"`
	Threshold float64    `json:"threshold"`
	Mastered  []string   `json:"mastered"`
	Gaps      []SkillGap `json:"gaps"`
}

// GapAnalysis classifies every skill referenced by the target lab's
// Q-matrix rows: mastered when demonstrated confidence meets the
// threshold, otherwise a gap sized threshold - demonstrated. Skills with
// no evidence appear as unassessed gaps.
func GapAnalysis(states map[string]SkillState, catalog Catalog, qmatrix QMatrix, targetLabID string, threshold float64) GapReport {
	report := GapReport{LabID: targetLabID, Threshold: threshold}

	for _, skillID := range qmatrix.SkillIDs(targetLabID) {
		st, ok := states[skillID]
		if ok && st.Demonstrated >= threshold {
			report.Mastered = append(report.Mastered, skillID)
			continue
		}

		gap := SkillGap{
			SkillID:      skillID,
			Name:         catalog.Name(skillID),
			CurrentLevel: LevelUnassessed,
			Gap:          threshold,
		}
		if ok {
			gap.CurrentLevel = st.CurrentLevel
			gap.Demonstrated = st.Demonstrated
			gap.Gap = threshold - st.Demonstrated
		}
		report.Gaps = append(report.Gaps, gap)
	}

	sort.Strings(report.Mastered)
	sort.Slice(report.Gaps, func(i, j int) bool { return report.Gaps[i].SkillID < report.Gaps[j].SkillID })
	return report
}
