package hub

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/skillforge/labtel/internal/eventlog"
	"github.com/skillforge/labtel/internal/telemetry"
)

func testHub(t *testing.T, opts ...Option) (*Hub, *eventlog.Logger, string) {
	t.Helper()
	dir := t.TempDir()
	logger, err := eventlog.New(filepath.Join(dir, eventlog.DefaultFileName), eventlog.Session{
		SessionID: "sess-1",
		ModuleID:  "mod-1",
		StudentID: "student-1",
		LabType:   telemetry.LabLinuxCLI,
	})
	if err != nil {
		t.Fatal(err)
	}
	statePath := filepath.Join(dir, "state.json")
	return New(logger, statePath, opts...), logger, statePath
}

func completionEvents(t *testing.T, logger *eventlog.Logger) []telemetry.Event {
	t.Helper()
	events, err := logger.EventsByType(telemetry.EventStepCompleted)
	if err != nil {
		t.Fatal(err)
	}
	return events
}

func TestHandleCompletion_DedupWindow(t *testing.T) {
	now := time.Date(2026, 8, 23, 10, 0, 0, 0, time.UTC)
	h, logger, _ := testHub(t, WithClock(func() time.Time { return now }))

	var broadcast int
	h.Subscribe(func(telemetry.StepCompletion) { broadcast++ })

	// Command pattern and check script race on the same step.
	h.HandleCompletion(telemetry.StepCompletion{StepID: "s1", Source: telemetry.SourceCommand})
	now = now.Add(200 * time.Millisecond)
	h.HandleCompletion(telemetry.StepCompletion{StepID: "s1", Source: telemetry.SourceCheck})

	if got := len(completionEvents(t, logger)); got != 1 {
		t.Errorf("step_completed count = %d, want 1 within the window", got)
	}
	if broadcast != 1 {
		t.Errorf("broadcasts = %d, want 1", broadcast)
	}

	// A different step is never deduped against s1.
	h.HandleCompletion(telemetry.StepCompletion{StepID: "s2", Source: telemetry.SourceCheck})
	if got := len(completionEvents(t, logger)); got != 2 {
		t.Errorf("step_completed count = %d, want 2", got)
	}

	// Past the window the same step is accepted again.
	now = now.Add(2 * time.Second)
	h.HandleCompletion(telemetry.StepCompletion{StepID: "s1", Source: telemetry.SourceCheck})
	if got := len(completionEvents(t, logger)); got != 3 {
		t.Errorf("step_completed count = %d, want 3 after window expiry", got)
	}
}

func TestStartStop_SessionLifecycleEvents(t *testing.T) {
	h, logger, _ := testHub(t)

	h.Start("sess-1")
	h.Stop()
	h.Stop() // idempotent

	events, err := logger.Events()
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events, want session_started + session_ended", len(events))
	}
	if events[0].Type != telemetry.EventSessionStarted || events[1].Type != telemetry.EventSessionEnded {
		t.Errorf("lifecycle = %s, %s", events[0].Type, events[1].Type)
	}
}

func TestStop_DropsLaterEvents(t *testing.T) {
	h, logger, _ := testHub(t)
	h.Start("sess-1")
	h.Stop()

	h.HandleAction(telemetry.UnifiedLabEvent{
		Kind:   telemetry.ActionExecuteCommand,
		Action: "ls",
		Result: telemetry.ResultSuccess,
		Source: telemetry.SourceCommand,
	})
	h.HandleCompletion(telemetry.StepCompletion{StepID: "s1", Source: telemetry.SourceCommand})

	events, err := logger.Events()
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 2 {
		t.Errorf("got %d events, want only the lifecycle pair", len(events))
	}
}

func TestSnapshot_WrittenOnCompletion(t *testing.T) {
	h, _, statePath := testHub(t)
	h.Start("sess-1")

	h.HandleCompletion(telemetry.StepCompletion{
		StepID:    "s1",
		Source:    telemetry.SourceCheck,
		TaskIndex: 2,
	})
	// Re-completing after the window must not inflate the counter.
	h.HandleCompletion(telemetry.StepCompletion{StepID: "s2", Source: telemetry.SourceCommand})

	snap, err := ReadSnapshot(statePath)
	if err != nil {
		t.Fatal(err)
	}
	if snap == nil {
		t.Fatal("snapshot file not written")
	}
	if snap.SessionID != "sess-1" {
		t.Errorf("SessionID = %s", snap.SessionID)
	}
	if snap.CompletedSteps != 2 {
		t.Errorf("CompletedSteps = %d, want 2", snap.CompletedSteps)
	}
	s1 := snap.Steps["s1"]
	if !s1.Completed || s1.Source != "check" || s1.TaskIndex != 2 {
		t.Errorf("s1 state = %+v", s1)
	}
}

func TestSnapshot_WriteFailureDoesNotStopTheHub(t *testing.T) {
	dir := t.TempDir()
	logger, err := eventlog.New(filepath.Join(dir, eventlog.DefaultFileName), eventlog.Session{
		SessionID: "sess-1",
		LabType:   telemetry.LabLinuxCLI,
	})
	if err != nil {
		t.Fatal(err)
	}

	// Point the snapshot at a non-empty directory so every flush fails;
	// the snapshot is a cache, so the session must carry on regardless.
	h := New(logger, dir)
	h.Start("sess-1")
	h.HandleCompletion(telemetry.StepCompletion{StepID: "s1", Source: telemetry.SourceCheck})

	if got := len(completionEvents(t, logger)); got != 1 {
		t.Errorf("step_completed count = %d, want 1 despite snapshot failures", got)
	}
}

func TestReadSnapshot_MissingFile(t *testing.T) {
	snap, err := ReadSnapshot(filepath.Join(t.TempDir(), "absent.json"))
	if err != nil || snap != nil {
		t.Errorf("ReadSnapshot(missing) = %v, %v, want nil, nil", snap, err)
	}
}

func TestQuestionAnswered_CorrectCompletesStep(t *testing.T) {
	h, logger, _ := testHub(t)

	h.QuestionAnswered("quiz-1", false, []string{"b"}, []string{"a"}, 1)
	h.QuestionAnswered("quiz-1", true, []string{"a"}, []string{"a"}, 2)

	answered, err := logger.EventsByType(telemetry.EventQuestionAnswered)
	if err != nil {
		t.Fatal(err)
	}
	if len(answered) != 2 {
		t.Errorf("question_answered = %d, want 2", len(answered))
	}

	completed := completionEvents(t, logger)
	if len(completed) != 1 {
		t.Fatalf("step_completed = %d, want 1 (correct answer only)", len(completed))
	}
	payload, err := telemetry.Decode[telemetry.StepPayload](completed[0])
	if err != nil {
		t.Fatal(err)
	}
	if payload.Source != string(telemetry.SourceQuestion) {
		t.Errorf("completion source = %s, want question", payload.Source)
	}
}

func TestHintAndSolutionAndStepViewed(t *testing.T) {
	h, logger, _ := testHub(t)

	h.StepViewed("s1", "exercise")
	h.HintRequested("s1", 0, 3)
	h.SolutionViewed("s1")

	events, err := logger.EventsByStep("s1")
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 3 {
		t.Fatalf("got %d events, want 3", len(events))
	}
	want := []telemetry.EventType{
		telemetry.EventStepStarted,
		telemetry.EventHintRequested,
		telemetry.EventSolutionViewed,
	}
	for i, w := range want {
		if events[i].Type != w {
			t.Errorf("event %d = %s, want %s", i, events[i].Type, w)
		}
	}
}
