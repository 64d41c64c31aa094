// Package hub is the per-session coordination point: it accepts events
// from every active adapter and from the rendering layer, collapses
// duplicate step completions, forwards everything to the event logger,
// maintains the state snapshot file, and rebroadcasts completions.
package hub

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/skillforge/labtel/internal/adapters"
	"github.com/skillforge/labtel/internal/eventlog"
	"github.com/skillforge/labtel/internal/logging"
	"github.com/skillforge/labtel/internal/telemetry"
)

// DefaultDedupWindow is how long after a step completion an identical
// completion (same step, any source) is dropped. It exists to collapse
// the race between the command-pattern and check-script signal paths.
const DefaultDedupWindow = time.Second

// Hub coordinates one session.
type Hub struct {
	mu        sync.Mutex
	logger    *eventlog.Logger
	adapters  []adapters.Adapter
	window    time.Duration
	recent    map[string]time.Time
	snapshot  *snapshotWriter
	listeners []func(telemetry.StepCompletion)
	stopped   bool

	now func() time.Time
	log zerolog.Logger
}

// Option customizes a Hub.
type Option func(*Hub)

// WithDedupWindow overrides the completion deduplication window.
func WithDedupWindow(d time.Duration) Option {
	return func(h *Hub) { h.window = d }
}

// WithClock overrides the wall clock used for deduplication.
func WithClock(now func() time.Time) Option {
	return func(h *Hub) { h.now = now }
}

// New creates a hub writing accepted events through logger and keeping
// the completion snapshot at statePath.
func New(logger *eventlog.Logger, statePath string, opts ...Option) *Hub {
	h := &Hub{
		logger:   logger,
		window:   DefaultDedupWindow,
		recent:   make(map[string]time.Time),
		snapshot: newSnapshotWriter(statePath),
		now:      time.Now,
		log:      logging.WithComponent("hub"),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Attach wires an adapter's callbacks into the hub. Call before Start.
func (h *Hub) Attach(a adapters.Adapter) {
	a.SetOnStudentAction(h.HandleAction)
	a.SetOnStepCompleted(h.HandleCompletion)
	h.mu.Lock()
	h.adapters = append(h.adapters, a)
	h.mu.Unlock()
}

// Subscribe registers a listener for accepted step completions.
func (h *Hub) Subscribe(fn func(telemetry.StepCompletion)) {
	h.mu.Lock()
	h.listeners = append(h.listeners, fn)
	h.mu.Unlock()
}

// Start logs session_started and starts every attached adapter. Adapters
// that fail to start are logged and skipped; the session survives.
func (h *Hub) Start(sessionID string) {
	h.logger.LogEvent(telemetry.EventSessionStarted, "", nil)
	h.snapshot.init(sessionID, h.now())

	h.mu.Lock()
	attached := append([]adapters.Adapter(nil), h.adapters...)
	h.mu.Unlock()

	for _, a := range attached {
		if err := a.Start(); err != nil {
			h.log.Error().Err(err).Str("event", "hub.adapter_start_failed").Msg("adapter disabled")
		}
	}
	h.log.Info().Str("event", "hub.started").Str("session_id", sessionID).Msg("session hub running")
}

// Stop stops every adapter and logs session_ended. Further events are
// dropped.
func (h *Hub) Stop() {
	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		return
	}
	h.stopped = true
	attached := append([]adapters.Adapter(nil), h.adapters...)
	h.mu.Unlock()

	for _, a := range attached {
		if a.IsRunning() {
			a.Stop()
		}
	}
	h.logger.LogEvent(telemetry.EventSessionEnded, "", nil)
	h.log.Info().Str("event", "hub.stopped").Msg("session hub stopped")
}

// HandleAction forwards one unified adapter event to the logger.
func (h *Hub) HandleAction(u telemetry.UnifiedLabEvent) {
	h.mu.Lock()
	stopped := h.stopped
	h.mu.Unlock()
	if stopped {
		return
	}
	h.logger.LogUnified(u)
}

// HandleCompletion applies the dedup window, logs the completion, updates
// the snapshot, and rebroadcasts.
func (h *Hub) HandleCompletion(c telemetry.StepCompletion) {
	now := h.now()
	if c.Timestamp.IsZero() {
		c.Timestamp = now
	}

	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		return
	}
	if last, ok := h.recent[c.StepID]; ok && now.Sub(last) < h.window {
		h.mu.Unlock()
		h.log.Debug().
			Str("event", "hub.completion_deduped").
			Str("step_id", c.StepID).
			Str("source", string(c.Source)).
			Msg("duplicate completion dropped")
		return
	}
	h.recent[c.StepID] = now
	listeners := make([]func(telemetry.StepCompletion), len(h.listeners))
	copy(listeners, h.listeners)
	h.mu.Unlock()

	h.logger.LogCompletion(c)
	h.snapshot.markCompleted(c, now)

	for _, fn := range listeners {
		fn(c)
	}
}

// HintRequested records a hint reveal reported by the rendering layer.
func (h *Hub) HintRequested(stepID string, hintIndex, totalHints int) {
	h.logger.LogEvent(telemetry.EventHintRequested, stepID, telemetry.HintPayload{
		HintIndex:  hintIndex,
		TotalHints: totalHints,
	})
}

// SolutionViewed records a solution reveal reported by the rendering layer.
func (h *Hub) SolutionViewed(stepID string) {
	h.logger.LogEvent(telemetry.EventSolutionViewed, stepID, nil)
}

// QuestionAnswered records a quiz answer. A correct answer also counts as
// a step completion from the question source.
func (h *Hub) QuestionAnswered(stepID string, isCorrect bool, selected, correct []string, attempts int) {
	h.logger.LogEvent(telemetry.EventQuestionAnswered, stepID, telemetry.QuestionPayload{
		IsCorrect:       isCorrect,
		SelectedOptions: selected,
		CorrectOptions:  correct,
		Attempts:        attempts,
	})
	if isCorrect {
		h.HandleCompletion(telemetry.StepCompletion{
			StepID: stepID,
			Source: telemetry.SourceQuestion,
		})
	}
}

// StepViewed records that the student opened a step.
func (h *Hub) StepViewed(stepID, stepType string) {
	h.logger.LogEvent(telemetry.EventStepStarted, stepID, telemetry.StepPayload{StepType: stepType})
}
