// Package telemetry defines the event vocabulary shared by every producer
// and consumer in the pipeline: the immutable envelope written to the
// session log, the typed payload carried by each event type, and the
// unified shapes adapters emit before an event is logged.
package telemetry

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventType identifies the payload shape of a TelemetryEvent.
// The set is closed; consumers may rely on exhaustive switches.
type EventType string

const (
	EventSessionStarted   EventType = "session_started"
	EventSessionEnded     EventType = "session_ended"
	EventCommandExecuted  EventType = "command_executed"
	EventStudentAction    EventType = "student_action"
	EventCheckPassed      EventType = "check_passed"
	EventCheckFailed      EventType = "check_failed"
	EventHintRequested    EventType = "hint_requested"
	EventSolutionViewed   EventType = "solution_viewed"
	EventQuestionAnswered EventType = "question_answered"
	EventStepStarted      EventType = "step_started"
	EventStepCompleted    EventType = "step_completed"
)

// LabType discriminates which adapter family produced an event.
type LabType string

const (
	LabLinuxCLI LabType = "linux_cli"
	LabCode     LabType = "code"
	LabQuery    LabType = "query"
)

// Event is the immutable envelope appended to the session log.
// Once written it is never mutated or removed; all derived state is a
// pure function of the event sequence up to some point in time.
type Event struct {
	EventID   string          `json:"event_id"`
	Timestamp time.Time       `json:"timestamp"`
	SessionID string          `json:"session_id"`
	ModuleID  string          `json:"module_id"`
	StudentID string          `json:"student_id"`
	StepID    string          `json:"step_id,omitempty"`
	LabType   LabType         `json:"lab_type"`
	Type      EventType       `json:"event_type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// StudentActionPayload is carried by student_action events.
type StudentActionPayload struct {
	ActionKind ActionKind        `json:"action_kind"`
	Action     string            `json:"action"`
	Result     ActionResult      `json:"result"`
	Evidence   map[string]string `json:"evidence,omitempty"`
	Source     string            `json:"source"`
}

// CommandPayload is carried by legacy command_executed events.
type CommandPayload struct {
	Command    string `json:"command"`
	ExitCode   int    `json:"exit_code"`
	DurationMs int64  `json:"duration_ms,omitempty"`
}

// CheckPayload is carried by check_passed and check_failed events.
type CheckPayload struct {
	Check     string `json:"check"`
	Output    string `json:"output,omitempty"`
	TaskIndex int    `json:"task_index,omitempty"`
}

// HintPayload is carried by hint_requested events.
type HintPayload struct {
	HintIndex  int `json:"hint_index"`
	TotalHints int `json:"total_hints"`
}

// QuestionPayload is carried by question_answered events.
type QuestionPayload struct {
	IsCorrect       bool     `json:"is_correct"`
	SelectedOptions []string `json:"selected_options,omitempty"`
	CorrectOptions  []string `json:"correct_options,omitempty"`
	Attempts        int      `json:"attempts"`
}

// StepPayload is carried by step_started and step_completed events.
type StepPayload struct {
	Source    string `json:"source,omitempty"`
	TaskIndex int    `json:"task_index,omitempty"`
	StepType  string `json:"step_type,omitempty"`
}

// Decode unmarshals an event's payload into the given payload type.
func Decode[T any](e Event) (T, error) {
	var p T
	if len(e.Payload) == 0 {
		return p, fmt.Errorf("event %s has no payload", e.EventID)
	}
	if err := json.Unmarshal(e.Payload, &p); err != nil {
		return p, fmt.Errorf("decode %s payload: %w", e.Type, err)
	}
	return p, nil
}

// MarshalPayload encodes a payload struct for embedding in an envelope.
func MarshalPayload(p any) (json.RawMessage, error) {
	if p == nil {
		return nil, nil
	}
	b, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	return b, nil
}
