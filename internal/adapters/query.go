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

// queryRecord is one line of queries.log.
type queryRecord struct {
	Timestamp time.Time `json:"timestamp"`
	Query     string    `json:"query"`
	Success   bool      `json:"success"`
	Rows      int       `json:"rows,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// QueryAdapter watches a query-submission log. Steps complete when a
// successful query matches one of the lab's query patterns.
type QueryAdapter struct {
	emitter
	def  *lab.Definition
	tail *tailer
	log  zerolog.Logger
}

// NewQueryAdapter creates an adapter over queries.log for the given lab.
func NewQueryAdapter(logPath string, def *lab.Definition) *QueryAdapter {
	a := &QueryAdapter{
		emitter: newEmitter(),
		def:     def,
		log:     logging.WithComponent("adapter.query"),
	}
	a.tail = newTailer(logPath, a.handleLine, a.log)
	return a
}

// Start begins watching; the full existing log is replayed first.
func (a *QueryAdapter) Start() error {
	a.setRunning(true)
	if err := a.tail.start(); err != nil {
		a.setRunning(false)
		return err
	}
	a.log.Info().Str("event", "adapter.started").Str("path", a.tail.path).Msg("query adapter watching")
	return nil
}

// Stop closes the watcher and drops further callbacks.
func (a *QueryAdapter) Stop() {
	a.setRunning(false)
	a.tail.stop()
	a.log.Info().Str("event", "adapter.stopped").Msg("query adapter stopped")
}

func (a *QueryAdapter) handleLine(line []byte) {
	var rec queryRecord
	if err := json.Unmarshal(line, &rec); err != nil || rec.Query == "" {
		a.log.Debug().Str("line", string(line)).Msg("skipping malformed query record")
		return
	}

	result := telemetry.ResultFailure
	if rec.Success {
		result = telemetry.ResultSuccess
	}

	evidence := map[string]string{"rows": strconv.Itoa(rec.Rows)}
	if rec.Error != "" {
		evidence["error"] = rec.Error
	}

	a.emitAction(telemetry.UnifiedLabEvent{
		Kind:      telemetry.ActionExecuteQuery,
		Action:    rec.Query,
		Result:    result,
		Evidence:  evidence,
		Source:    telemetry.SourceCommand,
		Timestamp: rec.Timestamp,
	})

	if !rec.Success {
		return
	}
	for i := range a.def.Rules.QueryPatterns {
		rule := &a.def.Rules.QueryPatterns[i]
		if rule.Matches(rec.Query) {
			a.emitCompletion(telemetry.StepCompletion{
				StepID:    rule.StepID,
				Source:    telemetry.SourceCommand,
				TaskIndex: a.def.TaskIndex(rule.StepID),
				Timestamp: rec.Timestamp,
			})
		}
	}
}
