package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/skillforge/labtel/internal/logging"
)

// Sink receives decoded rendering-layer messages. The hub implements it.
type Sink interface {
	HintRequested(stepID string, hintIndex, totalHints int)
	SolutionViewed(stepID string)
	QuestionAnswered(stepID string, isCorrect bool, selected, correct []string, attempts int)
	StepViewed(stepID, stepType string)
}

// Heartbeat defaults: the channel counts as stale after this many
// intervals without a ping.
const (
	DefaultHeartbeatInterval = 5 * time.Second
	DefaultMissedLimit       = 3
)

// Listener decodes inbound messages and dispatches them to a sink.
// Malformed messages are skipped, never fatal.
type Listener struct {
	sink     Sink
	interval time.Duration
	missed   int
	log      zerolog.Logger

	mu       sync.Mutex
	lastPing time.Time
}

// NewListener creates a listener dispatching to sink.
func NewListener(sink Sink) *Listener {
	return &Listener{
		sink:     sink,
		interval: DefaultHeartbeatInterval,
		missed:   DefaultMissedLimit,
		log:      logging.WithComponent("ipc"),
	}
}

// Stale reports whether the rendering channel has missed enough
// heartbeats to be considered dead. Acting on staleness is the consuming
// layer's responsibility.
func (l *Listener) Stale(now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.lastPing.IsZero() {
		return false
	}
	return now.Sub(l.lastPing) > time.Duration(l.missed)*l.interval
}

// Run reads newline-delimited messages from r until EOF, the reader
// fails, or ctx is canceled between messages.
func (l *Listener) Run(ctx context.Context, r io.Reader) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		l.dispatch(line)
	}
	return scanner.Err()
}

func (l *Listener) dispatch(line []byte) {
	var env Envelope
	if err := json.Unmarshal(line, &env); err != nil {
		l.log.Debug().Str("line", string(line)).Msg("skipping malformed ipc message")
		return
	}

	switch env.Type {
	case TypeHeartbeat:
		l.mu.Lock()
		l.lastPing = time.Now()
		l.mu.Unlock()

	case TypeHintRequested:
		if p, err := decodePayload[HintRequested](env); err == nil {
			l.sink.HintRequested(p.StepID, p.HintIndex, p.TotalHints)
		} else {
			l.warn(env.Type, err)
		}

	case TypeSolutionViewed:
		if p, err := decodePayload[SolutionViewed](env); err == nil {
			l.sink.SolutionViewed(p.StepID)
		} else {
			l.warn(env.Type, err)
		}

	case TypeQuestionAnswered:
		if p, err := decodePayload[QuestionAnswered](env); err == nil {
			l.sink.QuestionAnswered(p.StepID, p.IsCorrect, p.SelectedOptions, p.CorrectOptions, p.Attempts)
		} else {
			l.warn(env.Type, err)
		}

	case TypeStepViewed:
		if p, err := decodePayload[StepViewed](env); err == nil {
			l.sink.StepViewed(p.StepID, p.StepType)
		} else {
			l.warn(env.Type, err)
		}

	default:
		l.log.Debug().Str("type", env.Type).Msg("ignoring unknown ipc message type")
	}
}

func (l *Listener) warn(msgType string, err error) {
	l.log.Warn().Err(err).Str("type", msgType).Msg("dropping undecodable ipc message")
}
