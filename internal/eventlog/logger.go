// Package eventlog owns the canonical append-only event history: one
// JSONL file per session, single writer, never mutated. Reads always
// re-parse the file, so a read after an append observes it.
package eventlog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/skillforge/labtel/internal/logging"
	"github.com/skillforge/labtel/internal/telemetry"
)

// DefaultFileName is the canonical event log file name within a session
// directory.
const DefaultFileName = "telemetry.jsonl"

// Session identifies the envelope fields stamped onto every event.
type Session struct {
	SessionID string
	ModuleID  string
	StudentID string
	LabType   telemetry.LabType
}

// Logger appends events to the session log. Append failures are reported
// through the error callback and never returned mid-pipeline: a failed
// append degrades to a no-op.
type Logger struct {
	mu      sync.Mutex
	path    string
	session Session
	onError func(error)
	log     zerolog.Logger

	now   func() time.Time
	newID func() string
}

// Option customizes a Logger.
type Option func(*Logger)

// WithErrorCallback sets the sink for append failures.
func WithErrorCallback(fn func(error)) Option {
	return func(l *Logger) { l.onError = fn }
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(l *Logger) { l.now = now }
}

// WithIDSource overrides event ID generation.
func WithIDSource(fn func() string) Option {
	return func(l *Logger) { l.newID = fn }
}

// New creates a Logger writing to path, creating parent directories as
// needed.
func New(path string, session Session, opts ...Option) (*Logger, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create log dir: %w", err)
		}
	}
	l := &Logger{
		path:    path,
		session: session,
		log:     logging.WithComponent("eventlog"),
		now:     time.Now,
		newID:   func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Path returns the log file path.
func (l *Logger) Path() string { return l.path }

// LogEvent envelopes and appends one event, returning the envelope as
// written. The returned event is valid even when the append failed; the
// failure goes to the error callback.
func (l *Logger) LogEvent(eventType telemetry.EventType, stepID string, payload any) telemetry.Event {
	return l.logAt(eventType, stepID, payload, l.now())
}

// LogUnified records one adapter action. Check-sourced actions become
// check_passed/check_failed events; everything else becomes a
// student_action event.
//
// Dual-write rule: for linux_cli execute_command actions a legacy
// command_executed event is appended alongside the student_action, with
// the same timestamp, for consumers that only understand the older
// vocabulary. No other lab type dual-writes.
func (l *Logger) LogUnified(u telemetry.UnifiedLabEvent) []telemetry.Event {
	ts := u.Timestamp
	if ts.IsZero() {
		ts = l.now()
	}

	// Check-script results have no action kind of their own; they map to
	// the dedicated check event types instead of student_action.
	if u.Source == telemetry.SourceCheck && u.Kind == "" {
		eventType := telemetry.EventCheckFailed
		if u.Result == telemetry.ResultSuccess {
			eventType = telemetry.EventCheckPassed
		}
		payload := telemetry.CheckPayload{Check: u.Action, Output: u.Evidence["output"]}
		return []telemetry.Event{l.logAt(eventType, u.StepID, payload, ts)}
	}

	action := telemetry.StudentActionPayload{
		ActionKind: u.Kind,
		Action:     u.Action,
		Result:     u.Result,
		Evidence:   u.Evidence,
		Source:     string(u.Source),
	}
	events := []telemetry.Event{l.logAt(telemetry.EventStudentAction, u.StepID, action, ts)}

	if l.session.LabType == telemetry.LabLinuxCLI && u.Kind == telemetry.ActionExecuteCommand {
		legacy := telemetry.CommandPayload{Command: u.Action}
		if code, ok := parseExitCode(u.Evidence); ok {
			legacy.ExitCode = code
		}
		events = append(events, l.logAt(telemetry.EventCommandExecuted, u.StepID, legacy, ts))
	}

	return events
}

// LogCompletion records a step_completed event.
func (l *Logger) LogCompletion(c telemetry.StepCompletion) telemetry.Event {
	ts := c.Timestamp
	if ts.IsZero() {
		ts = l.now()
	}
	payload := telemetry.StepPayload{Source: string(c.Source), TaskIndex: c.TaskIndex}
	return l.logAt(telemetry.EventStepCompleted, c.StepID, payload, ts)
}

func (l *Logger) logAt(eventType telemetry.EventType, stepID string, payload any, ts time.Time) telemetry.Event {
	raw, err := telemetry.MarshalPayload(payload)
	if err != nil {
		l.fail(fmt.Errorf("event %s: %w", eventType, err))
	}

	event := telemetry.Event{
		EventID:   l.newID(),
		Timestamp: ts,
		SessionID: l.session.SessionID,
		ModuleID:  l.session.ModuleID,
		StudentID: l.session.StudentID,
		StepID:    stepID,
		LabType:   l.session.LabType,
		Type:      eventType,
		Payload:   raw,
	}

	if err := l.append(event); err != nil {
		l.fail(fmt.Errorf("append %s: %w", eventType, err))
	}
	return event
}

func (l *Logger) append(event telemetry.Event) error {
	line, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

func (l *Logger) fail(err error) {
	l.log.Error().Err(err).Str("event", "eventlog.append_failed").Msg("event not persisted")
	if l.onError != nil {
		l.onError(err)
	}
}

func parseExitCode(evidence map[string]string) (int, bool) {
	s, ok := evidence["exit_code"]
	if !ok {
		return 0, false
	}
	var code int
	if _, err := fmt.Sscanf(s, "%d", &code); err != nil {
		return 0, false
	}
	return code, true
}
