package telemetry

import "time"

// ActionKind classifies what kind of attempt a student action represents.
type ActionKind string

const (
	ActionExecuteCommand ActionKind = "execute_command"
	ActionExecuteQuery   ActionKind = "execute_query"
	ActionSubmitCode     ActionKind = "submit_code"
	ActionViewHint       ActionKind = "view_hint"
	ActionViewSolution   ActionKind = "view_solution"
)

// ActionResult classifies the outcome of a single attempt.
type ActionResult string

const (
	ResultSuccess ActionResult = "success"
	ResultFailure ActionResult = "failure"
	ResultPartial ActionResult = "partial"
)

// CompletionSource records which signal path detected a step completion.
type CompletionSource string

const (
	SourceCommand  CompletionSource = "command"
	SourceCheck    CompletionSource = "check"
	SourceTutor    CompletionSource = "tutor"
	SourceQuestion CompletionSource = "question"
)

// UnifiedLabEvent is the normalized form of one raw lab signal, emitted by
// an adapter before the event is enveloped and logged.
type UnifiedLabEvent struct {
	Kind      ActionKind
	Action    string
	Result    ActionResult
	Evidence  map[string]string
	Source    CompletionSource
	StepID    string
	Timestamp time.Time
}

// StepCompletion signals that an adapter's validation condition for a step
// was met. An adapter emits it at most once per step per run; collapsing
// duplicates across adapters is the hub's job.
type StepCompletion struct {
	StepID    string
	Source    CompletionSource
	TaskIndex int
	Timestamp time.Time
}
