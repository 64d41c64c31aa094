package ipc

import (
	"context"
	"strings"
	"testing"
	"time"
)

// fakeSink records dispatched calls.
type fakeSink struct {
	hints     []HintRequested
	solutions []string
	questions []QuestionAnswered
	views     []StepViewed
}

func (s *fakeSink) HintRequested(stepID string, hintIndex, totalHints int) {
	s.hints = append(s.hints, HintRequested{StepID: stepID, HintIndex: hintIndex, TotalHints: totalHints})
}

func (s *fakeSink) SolutionViewed(stepID string) {
	s.solutions = append(s.solutions, stepID)
}

func (s *fakeSink) QuestionAnswered(stepID string, isCorrect bool, selected, correct []string, attempts int) {
	s.questions = append(s.questions, QuestionAnswered{
		StepID: stepID, IsCorrect: isCorrect,
		SelectedOptions: selected, CorrectOptions: correct, Attempts: attempts,
	})
}

func (s *fakeSink) StepViewed(stepID, stepType string) {
	s.views = append(s.views, StepViewed{StepID: stepID, StepType: stepType})
}

func TestRun_DispatchesMessages(t *testing.T) {
	input := strings.Join([]string{
		`{"type":"stepViewed","payload":{"stepId":"s1","stepType":"exercise"}}`,
		`{"type":"hintRequested","payload":{"stepId":"s1","hintIndex":1,"totalHints":3}}`,
		`{"type":"solutionViewed","payload":{"stepId":"s1"}}`,
		`{"type":"questionAnswered","payload":{"stepId":"q1","isCorrect":true,"selectedOptions":["a"],"correctOptions":["a"],"attempts":2}}`,
	}, "\n") + "\n"

	sink := &fakeSink{}
	l := NewListener(sink)
	if err := l.Run(context.Background(), strings.NewReader(input)); err != nil {
		t.Fatal(err)
	}

	if len(sink.views) != 1 || sink.views[0].StepID != "s1" || sink.views[0].StepType != "exercise" {
		t.Errorf("views = %+v", sink.views)
	}
	if len(sink.hints) != 1 || sink.hints[0].HintIndex != 1 || sink.hints[0].TotalHints != 3 {
		t.Errorf("hints = %+v", sink.hints)
	}
	if len(sink.solutions) != 1 || sink.solutions[0] != "s1" {
		t.Errorf("solutions = %v", sink.solutions)
	}
	if len(sink.questions) != 1 {
		t.Fatalf("questions = %+v", sink.questions)
	}
	q := sink.questions[0]
	if q.StepID != "q1" || !q.IsCorrect || q.Attempts != 2 || len(q.SelectedOptions) != 1 {
		t.Errorf("question = %+v", q)
	}
}

func TestRun_SkipsMalformedAndUnknown(t *testing.T) {
	input := strings.Join([]string{
		`not json`,
		``,
		`{"type":"somethingNew","payload":{}}`,
		`{"type":"hintRequested","payload":"not an object"}`,
		`{"type":"solutionViewed","payload":{"stepId":"s2"}}`,
	}, "\n") + "\n"

	sink := &fakeSink{}
	l := NewListener(sink)
	if err := l.Run(context.Background(), strings.NewReader(input)); err != nil {
		t.Fatal(err)
	}

	if len(sink.hints) != 0 {
		t.Errorf("undecodable hint dispatched: %+v", sink.hints)
	}
	if len(sink.solutions) != 1 || sink.solutions[0] != "s2" {
		t.Errorf("valid message after garbage should still dispatch, got %v", sink.solutions)
	}
}

func TestRun_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	l := NewListener(&fakeSink{})
	err := l.Run(ctx, strings.NewReader(`{"type":"heartbeat"}`+"\n"))
	if err != context.Canceled {
		t.Errorf("Run = %v, want context.Canceled", err)
	}
}

func TestStale(t *testing.T) {
	l := NewListener(&fakeSink{})
	now := time.Now()

	if l.Stale(now) {
		t.Error("listener with no pings yet must not be stale")
	}

	if err := l.Run(context.Background(), strings.NewReader(`{"type":"heartbeat"}`+"\n")); err != nil {
		t.Fatal(err)
	}

	if l.Stale(time.Now().Add(2 * time.Second)) {
		t.Error("stale right after a ping")
	}
	// 3 missed intervals of 5s is the cutoff.
	if !l.Stale(time.Now().Add(16 * time.Second)) {
		t.Error("not stale after missing the heartbeat limit")
	}
}
