package evidence

import (
	"time"

	"github.com/skillforge/labtel/internal/scoring"
	"github.com/skillforge/labtel/internal/telemetry"
)

// TraceApplication records one modifier being applied, with the running
// score before and after.
type TraceApplication struct {
	Modifier scoring.Modifier `json:"modifier"`
	Before   float64          `json:"before"`
	After    float64          `json:"after"`
}

// TraceEvent references one contributing event with its timestamp.
type TraceEvent struct {
	EventID   string    `json:"event_id"`
	Timestamp time.Time `json:"timestamp"`
}

// ScoreTrace is a human-auditable explanation of one step's confidence:
// base score, ordered modifier applications, clamping, and the exact
// events that produced the metrics.
type ScoreTrace struct {
	StepID       string             `json:"step_id"`
	PresetID     string             `json:"preset_id"`
	Base         float64            `json:"base"`
	Applications []TraceApplication `json:"applications,omitempty"`
	Clamped      bool               `json:"clamped"`
	Final        float64            `json:"final"`
	Events       []TraceEvent       `json:"events"`
}

// GenerateScoreTrace explains one step's score under a preset. Returns
// nil for a step with zero contributing events.
func GenerateScoreTrace(m *StepMetrics, preset scoring.Preset) *ScoreTrace {
	if m == nil || len(m.EventIDs) == 0 {
		return nil
	}

	final, mods := preset.Confidence(m.HintCount(), m.SolutionViewed, m.RetryCount(), m.FirstTrySuccess)

	trace := &ScoreTrace{
		StepID:   m.StepID,
		PresetID: preset.ID,
		Base:     1.0,
		Final:    final,
	}

	running := 1.0
	for _, mod := range mods {
		before := running
		running += mod.Total()
		trace.Applications = append(trace.Applications, TraceApplication{
			Modifier: mod,
			Before:   before,
			After:    running,
		})
	}
	trace.Clamped = running != final

	for _, id := range m.EventIDs {
		te := TraceEvent{EventID: id}
		if t, ok := m.EventTime(id); ok {
			te.Timestamp = t
		}
		trace.Events = append(trace.Events, te)
	}

	return trace
}

// AllScoreTraces explains every step in an event list under a preset,
// keyed by step ID. Steps with zero events produce no entry.
func AllScoreTraces(events []telemetry.Event, sessionID string, preset scoring.Preset) map[string]*ScoreTrace {
	metrics := AggregateEventsByStep(events, sessionID)
	traces := make(map[string]*ScoreTrace, len(metrics))
	for id, m := range metrics {
		if t := GenerateScoreTrace(m, preset); t != nil {
			traces[id] = t
		}
	}
	return traces
}
