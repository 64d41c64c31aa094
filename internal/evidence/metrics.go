// Package evidence replays the event log into per-step metrics and scores
// them under a scoring preset. Everything here is a pure function over an
// event slice: no I/O, no retained state, safe for concurrent callers.
package evidence

import (
	"sort"
	"time"

	"github.com/skillforge/labtel/internal/telemetry"
)

// StepMetrics is the per-step fold of raw events. It is rebuilt from
// scratch on every interpretation pass and never persisted.
type StepMetrics struct {
	StepID string

	// HintIndices holds distinct hint indices revealed for this step.
	HintIndices map[int]bool

	// SolutionViewed is sticky: once set, a later clean pass does not
	// requalify the step for the first-try bonus.
	SolutionViewed bool

	CheckPasses int
	CheckFails  int

	QuestionAttempts int
	QuestionCorrect  bool

	// FirstTrySuccess is true when the first pass signal arrived with
	// zero prior failures, zero hints, and no solution view.
	FirstTrySuccess bool

	StartedAt   *time.Time
	CompletedAt *time.Time

	// EventIDs lists every event that contributed to this step, in
	// replay order, for score-trace auditability.
	EventIDs []string

	eventTimes map[string]time.Time
}

// HintCount returns the number of distinct hints revealed.
func (m *StepMetrics) HintCount() int {
	return len(m.HintIndices)
}

// RetryCount returns the number of failed attempts: failed checks plus
// question attempts beyond the one that eventually counted.
func (m *StepMetrics) RetryCount() int {
	retries := m.CheckFails
	if m.QuestionAttempts > 1 {
		retries += m.QuestionAttempts - 1
	} else if m.QuestionAttempts == 1 && !m.QuestionCorrect {
		retries++
	}
	return retries
}

// HasPassSignal reports whether any completion evidence exists.
func (m *StepMetrics) HasPassSignal() bool {
	return m.CheckPasses > 0 || m.QuestionCorrect || m.CompletedAt != nil
}

// HasAttempt reports whether the student tried anything at all.
func (m *StepMetrics) HasAttempt() bool {
	return m.CheckPasses > 0 || m.CheckFails > 0 || m.QuestionAttempts > 0 ||
		m.HintCount() > 0 || m.SolutionViewed
}

// TimeSpentSeconds returns the start-to-complete duration, or 0 when
// either bound is missing.
func (m *StepMetrics) TimeSpentSeconds() int {
	if m.StartedAt == nil || m.CompletedAt == nil {
		return 0
	}
	d := m.CompletedAt.Sub(*m.StartedAt)
	if d < 0 {
		return 0
	}
	return int(d.Seconds())
}

// EventTime returns the recorded timestamp of a contributing event.
func (m *StepMetrics) EventTime(eventID string) (time.Time, bool) {
	t, ok := m.eventTimes[eventID]
	return t, ok
}

func newStepMetrics(stepID string) *StepMetrics {
	return &StepMetrics{
		StepID:      stepID,
		HintIndices: make(map[int]bool),
		eventTimes:  make(map[string]time.Time),
	}
}

// AggregateEventsByStep folds an event list into one StepMetrics per
// distinct step ID. When sessionID is non-empty, events from other
// sessions are ignored. Events without a step ID (session lifecycle,
// unattributed actions) contribute nothing here.
func AggregateEventsByStep(events []telemetry.Event, sessionID string) map[string]*StepMetrics {
	steps := make(map[string]*StepMetrics)

	for _, e := range events {
		if sessionID != "" && e.SessionID != sessionID {
			continue
		}
		if e.StepID == "" {
			continue
		}

		m, ok := steps[e.StepID]
		if !ok {
			m = newStepMetrics(e.StepID)
			steps[e.StepID] = m
		}
		m.EventIDs = append(m.EventIDs, e.EventID)
		m.eventTimes[e.EventID] = e.Timestamp

		switch e.Type {
		case telemetry.EventHintRequested:
			if p, err := telemetry.Decode[telemetry.HintPayload](e); err == nil {
				m.HintIndices[p.HintIndex] = true
			} else {
				m.HintIndices[len(m.HintIndices)] = true
			}

		case telemetry.EventSolutionViewed:
			m.SolutionViewed = true

		case telemetry.EventCheckPassed:
			if m.CheckPasses == 0 && m.cleanSoFar() {
				m.FirstTrySuccess = true
			}
			m.CheckPasses++

		case telemetry.EventCheckFailed:
			m.CheckFails++

		case telemetry.EventQuestionAnswered:
			p, err := telemetry.Decode[telemetry.QuestionPayload](e)
			if err != nil {
				m.QuestionAttempts++
				continue
			}
			// Attempts is a cumulative counter on each answer event; take
			// the high-water mark rather than summing across events.
			wasClean := m.cleanSoFar()
			m.QuestionAttempts = max(m.QuestionAttempts+1, p.Attempts)
			if p.IsCorrect {
				if !m.QuestionCorrect && p.Attempts <= 1 && wasClean {
					m.FirstTrySuccess = true
				}
				m.QuestionCorrect = true
			}

		case telemetry.EventStepStarted:
			if m.StartedAt == nil {
				t := e.Timestamp
				m.StartedAt = &t
			}

		case telemetry.EventStepCompleted:
			if m.CompletedAt == nil {
				t := e.Timestamp
				m.CompletedAt = &t
			}
		}
	}

	return steps
}

// cleanSoFar reports whether no disqualifying evidence precedes the
// current event: no failures, no hints, no solution view, no prior pass.
func (m *StepMetrics) cleanSoFar() bool {
	return m.CheckFails == 0 && m.HintCount() == 0 && !m.SolutionViewed &&
		m.QuestionAttempts == 0 && m.CheckPasses == 0 && !m.QuestionCorrect
}

// SortedStepIDs returns the step IDs of a metrics map in sorted order,
// for deterministic iteration.
func SortedStepIDs(steps map[string]*StepMetrics) []string {
	ids := make([]string, 0, len(steps))
	for id := range steps {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
