package evidence

import (
	"github.com/skillforge/labtel/internal/scoring"
)

// Status classifies how far a step has progressed.
type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusPartial    Status = "partial"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// TaskEvidence is the derived evidence for one step under one preset.
type TaskEvidence struct {
	StepID           string             `json:"step_id"`
	StudentID        string             `json:"student_id"`
	SessionID        string             `json:"session_id"`
	Confidence       float64            `json:"confidence"`
	Status           Status             `json:"status"`
	Modifiers        []scoring.Modifier `json:"modifiers,omitempty"`
	SourceEventIDs   []string           `json:"source_event_ids"`
	TimeSpentSeconds int                `json:"time_spent_seconds"`
}

// GenerateStepEvidence scores one step's metrics under a preset.
func GenerateStepEvidence(m *StepMetrics, preset scoring.Preset, studentID, sessionID string) TaskEvidence {
	confidence, mods := preset.Confidence(
		m.HintCount(),
		m.SolutionViewed,
		m.RetryCount(),
		m.FirstTrySuccess,
	)

	return TaskEvidence{
		StepID:           m.StepID,
		StudentID:        studentID,
		SessionID:        sessionID,
		Confidence:       confidence,
		Status:           deriveStatus(m),
		Modifiers:        mods,
		SourceEventIDs:   append([]string(nil), m.EventIDs...),
		TimeSpentSeconds: m.TimeSpentSeconds(),
	}
}

// deriveStatus maps metrics to a lifecycle status: completed on any pass
// signal, failed when the student gave up to the solution without ever
// passing, partial for attempts without a pass, in_progress otherwise.
func deriveStatus(m *StepMetrics) Status {
	switch {
	case m.HasPassSignal():
		return StatusCompleted
	case m.SolutionViewed && m.HasAttempt():
		return StatusFailed
	case m.HasAttempt():
		return StatusPartial
	default:
		return StatusInProgress
	}
}
