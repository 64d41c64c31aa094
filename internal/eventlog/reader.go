package eventlog

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"

	"github.com/skillforge/labtel/internal/logging"
	"github.com/skillforge/labtel/internal/telemetry"
)

// maxLineBytes bounds a single event line; oversized lines are treated as
// malformed.
const maxLineBytes = 1 << 20

// ReadEvents parses every event in a log file, in file order. Malformed
// lines are skipped and counted, never fatal; the rest of the file is
// still read. A missing file yields an empty slice.
func ReadEvents(path string) ([]telemetry.Event, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer f.Close()

	var events []telemetry.Event
	skipped := 0

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var e telemetry.Event
		if err := json.Unmarshal(line, &e); err != nil || e.EventID == "" {
			skipped++
			continue
		}
		events = append(events, e)
	}
	if err := scanner.Err(); err != nil {
		return events, fmt.Errorf("scan log: %w", err)
	}

	if skipped > 0 {
		log := logging.WithComponent("eventlog")
		log.Warn().
			Int("skipped", skipped).
			Str("path", path).
			Msg("malformed log lines skipped")
	}
	return events, nil
}

// Events re-parses the log and returns every event. There is no cache,
// which guarantees read-after-write consistency in one process.
func (l *Logger) Events() ([]telemetry.Event, error) {
	return ReadEvents(l.path)
}

// EventsByType returns events of one type, in file order.
func (l *Logger) EventsByType(t telemetry.EventType) ([]telemetry.Event, error) {
	events, err := l.Events()
	if err != nil {
		return nil, err
	}
	return filter(events, func(e telemetry.Event) bool { return e.Type == t }), nil
}

// EventsByStep returns events attributed to one step, in file order.
func (l *Logger) EventsByStep(stepID string) ([]telemetry.Event, error) {
	events, err := l.Events()
	if err != nil {
		return nil, err
	}
	return filter(events, func(e telemetry.Event) bool { return e.StepID == stepID }), nil
}

// EventsBySession returns events belonging to one session, in file order.
func (l *Logger) EventsBySession(sessionID string) ([]telemetry.Event, error) {
	events, err := l.Events()
	if err != nil {
		return nil, err
	}
	return filter(events, func(e telemetry.Event) bool { return e.SessionID == sessionID }), nil
}

func filter(events []telemetry.Event, keep func(telemetry.Event) bool) []telemetry.Event {
	var out []telemetry.Event
	for _, e := range events {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}
