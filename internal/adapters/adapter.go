// Package adapters watches lab-native logs and translates their raw
// records into the unified event vocabulary. Adapters follow a two-phase
// lifecycle: construct with no listeners, wire callbacks, then Start.
package adapters

import (
	"sync"

	"github.com/skillforge/labtel/internal/telemetry"
)

// Adapter is the contract every lab adapter satisfies.
type Adapter interface {
	// Start begins watching the adapter's raw log. The entire existing
	// log is replayed from offset zero first, so entries written before
	// the watcher attached are not lost.
	Start() error

	// Stop closes the watcher and drops further callbacks. In-flight
	// parses may finish; their results are discarded.
	Stop()

	IsRunning() bool

	// SetOnStudentAction registers the listener invoked once per parsed
	// raw record.
	SetOnStudentAction(fn func(telemetry.UnifiedLabEvent))

	// SetOnStepCompleted registers the listener invoked when a step's
	// validation condition is met, at most once per step per adapter
	// lifetime.
	SetOnStepCompleted(fn func(telemetry.StepCompletion))
}

// emitter holds the wired callbacks and the adapter-local completion
// de-dup set shared by every adapter implementation.
type emitter struct {
	mu          sync.Mutex
	running     bool
	onAction    func(telemetry.UnifiedLabEvent)
	onCompleted func(telemetry.StepCompletion)
	completed   map[string]bool
}

func newEmitter() emitter {
	return emitter{completed: make(map[string]bool)}
}

func (e *emitter) SetOnStudentAction(fn func(telemetry.UnifiedLabEvent)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onAction = fn
}

func (e *emitter) SetOnStepCompleted(fn func(telemetry.StepCompletion)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onCompleted = fn
}

func (e *emitter) IsRunning() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

func (e *emitter) setRunning(v bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.running = v
}

// emitAction forwards one unified event if a listener is wired and the
// adapter has not been stopped.
func (e *emitter) emitAction(u telemetry.UnifiedLabEvent) {
	e.mu.Lock()
	fn := e.onAction
	running := e.running
	e.mu.Unlock()
	if running && fn != nil {
		fn(u)
	}
}

// emitCompletion forwards a step completion at most once per step.
func (e *emitter) emitCompletion(c telemetry.StepCompletion) {
	e.mu.Lock()
	if !e.running || e.completed[c.StepID] {
		e.mu.Unlock()
		return
	}
	e.completed[c.StepID] = true
	fn := e.onCompleted
	e.mu.Unlock()
	if fn != nil {
		fn(c)
	}
}
