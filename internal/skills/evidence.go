package skills

import (
	"fmt"
	"time"

	"github.com/skillforge/labtel/internal/evidence"
)

// SkillEvidence is one row of skill evidence derived from a completed
// step: the step's confidence copied under the Q-matrix row's skill,
// level, and weight.
type SkillEvidence struct {
	SkillID    string    `json:"skill_id"`
	Level      Level     `json:"level"`
	Confidence float64   `json:"confidence"`
	Weight     float64   `json:"weight"`
	SourceID   string    `json:"source_id"` // lab:step
	Timestamp  time.Time `json:"timestamp"`
}

// ProduceSkillEvidence converts completed task evidence into skill
// evidence via the Q-matrix. Steps not in completed status and steps
// absent from the matrix contribute nothing.
func ProduceSkillEvidence(tasks []evidence.TaskEvidence, qmatrix QMatrix, labID string, now time.Time) []SkillEvidence {
	var out []SkillEvidence
	for _, task := range tasks {
		if task.Status != evidence.StatusCompleted {
			continue
		}
		for _, entry := range qmatrix.Lookup(labID, task.StepID) {
			weight := entry.Weight
			if weight <= 0 {
				weight = 1.0
			}
			out = append(out, SkillEvidence{
				SkillID:    entry.SkillID,
				Level:      entry.Level,
				Confidence: task.Confidence,
				Weight:     weight,
				SourceID:   fmt.Sprintf("%s:%s", labID, task.StepID),
				Timestamp:  now,
			})
		}
	}
	return out
}
