package hub

import (
	"encoding/json"
	"os"
	"sync"
	"time"

	"github.com/google/renameio/v2"
	"github.com/rs/zerolog"

	"github.com/skillforge/labtel/internal/logging"
	"github.com/skillforge/labtel/internal/telemetry"
)

// StepState is one step's entry in the snapshot file.
type StepState struct {
	Completed   bool      `json:"completed"`
	CompletedAt time.Time `json:"completed_at,omitempty"`
	Source      string    `json:"source,omitempty"`
	TaskIndex   int       `json:"task_index,omitempty"`
}

// Snapshot is the state.json shape: current per-step completion for
// cheap polling by external collaborators.
type Snapshot struct {
	SessionID      string               `json:"session_id"`
	UpdatedAt      time.Time            `json:"updated_at"`
	CompletedSteps int                  `json:"completed_steps"`
	Steps          map[string]StepState `json:"steps"`
}

// ReadSnapshot loads a snapshot file; a missing file returns (nil, nil).
func ReadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// snapshotWriter keeps the in-memory snapshot and mirrors every change to
// disk atomically. Write failures are logged and skipped; the snapshot is
// a cache, never the source of truth.
type snapshotWriter struct {
	mu    sync.Mutex
	path  string
	state Snapshot
	log   zerolog.Logger
}

func newSnapshotWriter(path string) *snapshotWriter {
	return &snapshotWriter{
		path:  path,
		state: Snapshot{Steps: make(map[string]StepState)},
		log:   logging.WithComponent("hub"),
	}
}

func (w *snapshotWriter) init(sessionID string, now time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.state.SessionID = sessionID
	w.state.UpdatedAt = now
	w.flushLocked()
}

func (w *snapshotWriter) markCompleted(c telemetry.StepCompletion, now time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if prev, ok := w.state.Steps[c.StepID]; !ok || !prev.Completed {
		w.state.CompletedSteps++
	}
	w.state.Steps[c.StepID] = StepState{
		Completed:   true,
		CompletedAt: c.Timestamp,
		Source:      string(c.Source),
		TaskIndex:   c.TaskIndex,
	}
	w.state.UpdatedAt = now
	w.flushLocked()
}

func (w *snapshotWriter) flushLocked() {
	if w.path == "" {
		return
	}
	data, err := json.MarshalIndent(&w.state, "", "  ")
	if err != nil {
		w.log.Error().Err(err).Msg("marshal snapshot failed")
		return
	}
	if err := renameio.WriteFile(w.path, data, 0o644); err != nil {
		w.log.Error().Err(err).Str("path", w.path).Msg("write snapshot failed")
	}
}
