package evidence

import (
	"encoding/json"
	"reflect"
	"testing"
	"time"

	"github.com/skillforge/labtel/internal/scoring"
	"github.com/skillforge/labtel/internal/telemetry"
)

// twoHintsAndAPass builds the reference scenario: one step, two distinct
// hints, then a passing check.
func twoHintsAndAPass(t *testing.T) []telemetry.Event {
	t.Helper()
	now := time.Now()
	return []telemetry.Event{
		mkEvent(t, telemetry.EventSessionStarted, "", nil, now),
		mkEvent(t, telemetry.EventHintRequested, "s1", telemetry.HintPayload{HintIndex: 0, TotalHints: 2}, now.Add(time.Second)),
		mkEvent(t, telemetry.EventHintRequested, "s1", telemetry.HintPayload{HintIndex: 1, TotalHints: 2}, now.Add(2*time.Second)),
		mkEvent(t, telemetry.EventCheckPassed, "s1", telemetry.CheckPayload{Check: "c1"}, now.Add(3*time.Second)),
		mkEvent(t, telemetry.EventSessionEnded, "", nil, now.Add(4*time.Second)),
	}
}

func TestInterpretLabProgress_StrictVsPartial(t *testing.T) {
	events := twoHintsAndAPass(t)
	ctx := Context{SessionID: "sess-1", StudentID: "student-1"}

	strict := InterpretLabProgress(events, ctx, scoring.Strict())
	if got := strict.Steps["s1"].Confidence; got != 0.0 {
		t.Errorf("strict confidence = %v, want 0.0", got)
	}
	if strict.Passed {
		t.Error("strict: passed = true, want false")
	}

	partial := InterpretLabProgress(events, ctx, scoring.PartialCredit())
	if got := partial.Steps["s1"].Confidence; !almost(got, 0.70) {
		t.Errorf("partial_credit confidence = %v, want 0.70", got)
	}
	if !partial.Passed {
		t.Error("partial_credit: passed = false, want true (threshold 0.70)")
	}
}

func TestInterpretLabProgress_Deterministic(t *testing.T) {
	events := twoHintsAndAPass(t)
	ctx := Context{SessionID: "sess-1"}

	a := InterpretLabProgress(events, ctx, scoring.PartialCredit())
	b := InterpretLabProgress(events, ctx, scoring.PartialCredit())
	if !reflect.DeepEqual(a, b) {
		t.Error("repeated interpretation of identical input diverged")
	}
}

func TestRecomputeWithPreset_Idempotent(t *testing.T) {
	events := twoHintsAndAPass(t)
	ctx := Context{SessionID: "sess-1"}
	registry := scoring.NewRegistry()

	a := RecomputeWithPreset(events, ctx, registry, scoring.PresetPractice)
	b := RecomputeWithPreset(events, ctx, registry, scoring.PresetPractice)

	aj, err := json.Marshal(a)
	if err != nil {
		t.Fatal(err)
	}
	bj, err := json.Marshal(b)
	if err != nil {
		t.Fatal(err)
	}
	if string(aj) != string(bj) {
		t.Error("recompute with identical inputs is not byte-identical")
	}
}

func TestRecomputeWithPreset_UnknownPresetFallsBack(t *testing.T) {
	events := twoHintsAndAPass(t)
	ctx := Context{SessionID: "sess-1"}

	got := RecomputeWithPreset(events, ctx, scoring.NewRegistry(), "bogus")
	if got.PresetID != scoring.PresetPartialCredit {
		t.Errorf("preset = %s, want fallback %s", got.PresetID, scoring.PresetPartialCredit)
	}
}

func TestInterpretLabProgress_CompletionAndWeights(t *testing.T) {
	now := time.Now()
	events := []telemetry.Event{
		mkEvent(t, telemetry.EventCheckPassed, "s1", telemetry.CheckPayload{Check: "c1"}, now),
		mkEvent(t, telemetry.EventCheckFailed, "s2", telemetry.CheckPayload{Check: "c2"}, now),
		mkEvent(t, telemetry.EventCheckFailed, "s3", telemetry.CheckPayload{Check: "c3"}, now),
	}

	ctx := Context{SessionID: "sess-1", Weights: map[string]float64{"s1": 2.0}}
	got := InterpretLabProgress(events, ctx, scoring.PartialCredit())

	// One of three steps completed.
	if got.CompletionPercent != 33 {
		t.Errorf("CompletionPercent = %d, want 33", got.CompletionPercent)
	}
	if got.Steps["s1"].Status != StatusCompleted {
		t.Errorf("s1 status = %s, want completed", got.Steps["s1"].Status)
	}
	if got.Steps["s2"].Status != StatusPartial {
		t.Errorf("s2 status = %s, want partial", got.Steps["s2"].Status)
	}

	// Weighted mean: s1 first-try pass = 1.0 (w=2), s2 and s3 one
	// failed retry each = 0.90 (w=1): (2.0 + 0.9 + 0.9) / 4 = 0.95.
	if !almost(got.OverallScore, 0.95) {
		t.Errorf("OverallScore = %v, want 0.95", got.OverallScore)
	}
}

func TestInterpretLabProgress_SessionBounds(t *testing.T) {
	events := twoHintsAndAPass(t)
	got := InterpretLabProgress(events, Context{SessionID: "sess-1"}, scoring.PartialCredit())

	if got.StartedAt == nil || got.EndedAt == nil {
		t.Fatal("session bounds missing")
	}
	if !got.EndedAt.After(*got.StartedAt) {
		t.Error("EndedAt not after StartedAt")
	}
}

func TestInterpretLabProgress_EmptyEvents(t *testing.T) {
	got := InterpretLabProgress(nil, Context{}, scoring.PartialCredit())
	if len(got.Steps) != 0 || got.OverallScore != 0 || got.CompletionPercent != 0 {
		t.Errorf("empty interpretation = %+v, want zero values", got)
	}
}

func almost(got, want float64) bool {
	diff := got - want
	return diff < 1e-9 && diff > -1e-9
}
