package adapters

import (
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"github.com/skillforge/labtel/internal/lab"
	"github.com/skillforge/labtel/internal/logging"
	"github.com/skillforge/labtel/internal/telemetry"
)

// checkRecord is one line of checks.log, written by the lab's automated
// check scripts.
type checkRecord struct {
	Timestamp time.Time `json:"timestamp"`
	Check     string    `json:"check"`
	Passed    bool      `json:"passed"`
	Output    string    `json:"output,omitempty"`
	TaskIndex int       `json:"task_index,omitempty"`
}

// CheckWatcher watches the check-script result log. Each record becomes a
// check result event; a passing check mapped in the lab's check table
// completes its step.
type CheckWatcher struct {
	emitter
	def  *lab.Definition
	tail *tailer
	log  zerolog.Logger
}

// NewCheckWatcher creates a watcher over checks.log for the given lab.
func NewCheckWatcher(logPath string, def *lab.Definition) *CheckWatcher {
	a := &CheckWatcher{
		emitter: newEmitter(),
		def:     def,
		log:     logging.WithComponent("adapter.checks"),
	}
	a.tail = newTailer(logPath, a.handleLine, a.log)
	return a
}

// Start begins watching; the full existing log is replayed first.
func (a *CheckWatcher) Start() error {
	a.setRunning(true)
	if err := a.tail.start(); err != nil {
		a.setRunning(false)
		return err
	}
	a.log.Info().Str("event", "adapter.started").Str("path", a.tail.path).Msg("check watcher watching")
	return nil
}

// Stop closes the watcher and drops further callbacks.
func (a *CheckWatcher) Stop() {
	a.setRunning(false)
	a.tail.stop()
	a.log.Info().Str("event", "adapter.stopped").Msg("check watcher stopped")
}

func (a *CheckWatcher) handleLine(line []byte) {
	var rec checkRecord
	if err := json.Unmarshal(line, &rec); err != nil || rec.Check == "" {
		a.log.Debug().Str("line", string(line)).Msg("skipping malformed check record")
		return
	}

	stepID := a.def.Rules.Checks[rec.Check]

	result := telemetry.ResultFailure
	if rec.Passed {
		result = telemetry.ResultSuccess
	}

	a.emitAction(telemetry.UnifiedLabEvent{
		// Kind left empty: check results route to the check event types.
		Action:    rec.Check,
		Result:    result,
		Evidence:  map[string]string{"output": rec.Output},
		Source:    telemetry.SourceCheck,
		StepID:    stepID,
		Timestamp: rec.Timestamp,
	})

	if !rec.Passed || stepID == "" {
		return
	}
	taskIndex := rec.TaskIndex
	if taskIndex == 0 {
		taskIndex = a.def.TaskIndex(stepID)
	}
	a.emitCompletion(telemetry.StepCompletion{
		StepID:    stepID,
		Source:    telemetry.SourceCheck,
		TaskIndex: taskIndex,
		Timestamp: rec.Timestamp,
	})
}
