package evidence

import (
	"math"
	"time"

	"github.com/skillforge/labtel/internal/scoring"
	"github.com/skillforge/labtel/internal/telemetry"
)

// Context identifies whose events are being interpreted.
type Context struct {
	SessionID string
	StudentID string

	// Weights gives per-step weights for the overall score. Steps not
	// listed weigh 1.0.
	Weights map[string]float64
}

func (c Context) weight(stepID string) float64 {
	if w, ok := c.Weights[stepID]; ok && w > 0 {
		return w
	}
	return 1.0
}

// LabProgress is the whole-exercise interpretation of one event list
// under one preset.
type LabProgress struct {
	SessionID         string                  `json:"session_id"`
	StudentID         string                  `json:"student_id"`
	PresetID          string                  `json:"preset_id"`
	Steps             map[string]TaskEvidence `json:"steps"`
	OverallScore      float64                 `json:"overall_score"`
	CompletionPercent int                     `json:"completion_percent"`
	Passed            bool                    `json:"passed"`
	StartedAt         *time.Time              `json:"started_at,omitempty"`
	EndedAt           *time.Time              `json:"ended_at,omitempty"`
}

// InterpretLabProgress replays events into per-step evidence and
// whole-exercise aggregates. It is deterministic: the same events and
// preset always produce identical output.
func InterpretLabProgress(events []telemetry.Event, ctx Context, preset scoring.Preset) LabProgress {
	metrics := AggregateEventsByStep(events, ctx.SessionID)

	progress := LabProgress{
		SessionID: ctx.SessionID,
		StudentID: ctx.StudentID,
		PresetID:  preset.ID,
		Steps:     make(map[string]TaskEvidence, len(metrics)),
	}

	var weightedSum, weightTotal float64
	completed := 0

	for _, stepID := range SortedStepIDs(metrics) {
		ev := GenerateStepEvidence(metrics[stepID], preset, ctx.StudentID, ctx.SessionID)
		progress.Steps[stepID] = ev

		w := ctx.weight(stepID)
		weightedSum += w * ev.Confidence
		weightTotal += w
		if ev.Status == StatusCompleted {
			completed++
		}
	}

	if weightTotal > 0 {
		progress.OverallScore = weightedSum / weightTotal
	}
	if len(metrics) > 0 {
		progress.CompletionPercent = int(math.Round(float64(completed) / float64(len(metrics)) * 100))
	}
	progress.Passed = progress.OverallScore >= preset.PassThreshold

	progress.StartedAt, progress.EndedAt = sessionBounds(events, ctx.SessionID)

	return progress
}

// RecomputeWithPreset re-derives the full interpretation under a preset
// resolved by ID. Feeding the identical event list through a different
// preset yields different scores with no side effects, which supports
// retroactive what-if grading.
func RecomputeWithPreset(events []telemetry.Event, ctx Context, presets *scoring.Registry, presetID string) LabProgress {
	return InterpretLabProgress(events, ctx, presets.Get(presetID))
}

func sessionBounds(events []telemetry.Event, sessionID string) (start, end *time.Time) {
	for _, e := range events {
		if sessionID != "" && e.SessionID != sessionID {
			continue
		}
		switch e.Type {
		case telemetry.EventSessionStarted:
			if start == nil {
				t := e.Timestamp
				start = &t
			}
		case telemetry.EventSessionEnded:
			t := e.Timestamp
			end = &t
		}
	}
	return start, end
}
