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

// testResult is one test outcome inside a submission record.
type testResult struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Output string `json:"output,omitempty"`
}

// submissionRecord is one line of submissions.log.
type submissionRecord struct {
	Timestamp time.Time    `json:"timestamp"`
	File      string       `json:"file,omitempty"`
	Tests     []testResult `json:"tests"`
}

// CodeAdapter watches a code-submission log. Each submission becomes one
// unified event classified by how many of its tests passed; steps
// complete via the lab's test-name-to-step map.
type CodeAdapter struct {
	emitter
	def  *lab.Definition
	tail *tailer
	log  zerolog.Logger
}

// NewCodeAdapter creates an adapter over submissions.log for the given lab.
func NewCodeAdapter(logPath string, def *lab.Definition) *CodeAdapter {
	a := &CodeAdapter{
		emitter: newEmitter(),
		def:     def,
		log:     logging.WithComponent("adapter.code"),
	}
	a.tail = newTailer(logPath, a.handleLine, a.log)
	return a
}

// Start begins watching; the full existing log is replayed first.
func (a *CodeAdapter) Start() error {
	a.setRunning(true)
	if err := a.tail.start(); err != nil {
		a.setRunning(false)
		return err
	}
	a.log.Info().Str("event", "adapter.started").Str("path", a.tail.path).Msg("code adapter watching")
	return nil
}

// Stop closes the watcher and drops further callbacks.
func (a *CodeAdapter) Stop() {
	a.setRunning(false)
	a.tail.stop()
	a.log.Info().Str("event", "adapter.stopped").Msg("code adapter stopped")
}

func (a *CodeAdapter) handleLine(line []byte) {
	var rec submissionRecord
	if err := json.Unmarshal(line, &rec); err != nil || len(rec.Tests) == 0 {
		a.log.Debug().Str("line", string(line)).Msg("skipping malformed submission record")
		return
	}

	passed := 0
	for _, t := range rec.Tests {
		if t.Passed {
			passed++
		}
	}

	result := telemetry.ResultFailure
	switch {
	case passed == len(rec.Tests):
		result = telemetry.ResultSuccess
	case passed > 0:
		result = telemetry.ResultPartial
	}

	a.emitAction(telemetry.UnifiedLabEvent{
		Kind:   telemetry.ActionSubmitCode,
		Action: rec.File,
		Result: result,
		Evidence: map[string]string{
			"tests_total":  strconv.Itoa(len(rec.Tests)),
			"tests_passed": strconv.Itoa(passed),
		},
		Source:    telemetry.SourceCheck,
		Timestamp: rec.Timestamp,
	})

	for _, t := range rec.Tests {
		if !t.Passed {
			continue
		}
		stepID, ok := a.def.Rules.Tests[t.Name]
		if !ok {
			continue
		}
		a.emitCompletion(telemetry.StepCompletion{
			StepID:    stepID,
			Source:    telemetry.SourceCheck,
			TaskIndex: a.def.TaskIndex(stepID),
			Timestamp: rec.Timestamp,
		})
	}
}
