package adapters

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/skillforge/labtel/internal/lab"
	"github.com/skillforge/labtel/internal/logging"
	"github.com/skillforge/labtel/internal/telemetry"
)

// commandRecord is one line of commands.log.
type commandRecord struct {
	Timestamp  time.Time `json:"timestamp"`
	Command    string    `json:"command"`
	ExitCode   int       `json:"exit_code"`
	Cwd        string    `json:"cwd,omitempty"`
	DurationMs int64     `json:"duration_ms,omitempty"`
}

// ShellAdapter watches a shell command log and emits one unified event
// per executed command. Steps complete when a successful command matches
// one of the lab's command patterns.
type ShellAdapter struct {
	emitter
	def  *lab.Definition
	tail *tailer
	log  zerolog.Logger
}

// NewShellAdapter creates an adapter over commands.log for the given lab.
func NewShellAdapter(logPath string, def *lab.Definition) *ShellAdapter {
	a := &ShellAdapter{
		emitter: newEmitter(),
		def:     def,
		log:     logging.WithComponent("adapter.shell"),
	}
	a.tail = newTailer(logPath, a.handleLine, a.log)
	return a
}

// Start begins watching; the full existing log is replayed first.
func (a *ShellAdapter) Start() error {
	a.setRunning(true)
	if err := a.tail.start(); err != nil {
		a.setRunning(false)
		return err
	}
	a.log.Info().Str("event", "adapter.started").Str("path", a.tail.path).Msg("shell adapter watching")
	return nil
}

// Stop closes the watcher and drops further callbacks.
func (a *ShellAdapter) Stop() {
	a.setRunning(false)
	a.tail.stop()
	a.log.Info().Str("event", "adapter.stopped").Msg("shell adapter stopped")
}

func (a *ShellAdapter) handleLine(line []byte) {
	var rec commandRecord
	if err := json.Unmarshal(line, &rec); err != nil || rec.Command == "" {
		a.log.Debug().Str("line", string(line)).Msg("skipping malformed command record")
		return
	}

	result := telemetry.ResultSuccess
	if rec.ExitCode != 0 {
		result = telemetry.ResultFailure
	}

	a.emitAction(telemetry.UnifiedLabEvent{
		Kind:   telemetry.ActionExecuteCommand,
		Action: rec.Command,
		Result: result,
		Evidence: map[string]string{
			"exit_code": strconv.Itoa(rec.ExitCode),
			"cwd":       rec.Cwd,
		},
		Source:    telemetry.SourceCommand,
		Timestamp: rec.Timestamp,
	})

	if rec.ExitCode != 0 {
		return
	}
	for i := range a.def.Rules.CommandPatterns {
		rule := &a.def.Rules.CommandPatterns[i]
		if rule.Matches(rec.Command) {
			a.emitCompletion(telemetry.StepCompletion{
				StepID:    rule.StepID,
				Source:    telemetry.SourceCommand,
				TaskIndex: a.def.TaskIndex(rule.StepID),
				Timestamp: rec.Timestamp,
			})
		}
	}
}
