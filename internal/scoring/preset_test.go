package scoring

import (
	"strings"
	"testing"
)

func TestConfidence_Bounds(t *testing.T) {
	presets := []Preset{Strict(), PartialCredit(), Practice()}

	cases := []struct {
		hints    int
		solution bool
		retries  int
		firstTry bool
	}{
		{0, false, 0, false},
		{0, false, 0, true},
		{1, false, 0, false},
		{10, true, 25, false},
		{100, true, 1000, false},
		{0, true, 0, false},
	}

	for _, p := range presets {
		for _, c := range cases {
			got, _ := p.Confidence(c.hints, c.solution, c.retries, c.firstTry)
			if got < p.MinConfidence || got > 1.0 {
				t.Errorf("%s: Confidence(%d,%v,%d,%v) = %v, outside [%v, 1.0]",
					p.ID, c.hints, c.solution, c.retries, c.firstTry, got, p.MinConfidence)
			}
		}
	}
}

func TestConfidence_FirstTryExclusivity(t *testing.T) {
	p := PartialCredit()

	cases := []struct {
		name     string
		hints    int
		solution bool
		retries  int
	}{
		{"hints used", 1, false, 0},
		{"solution viewed", 0, true, 0},
		{"retries", 0, false, 1},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, mods := p.Confidence(c.hints, c.solution, c.retries, true)
			for _, m := range mods {
				if m.Kind == ModifierFirstTry {
					t.Errorf("first-try bonus applied with hints=%d solution=%v retries=%d",
						c.hints, c.solution, c.retries)
				}
			}
		})
	}
}

func TestConfidence_FirstTryBonusClampsAtOne(t *testing.T) {
	p := PartialCredit()
	got, mods := p.Confidence(0, false, 0, true)
	if got != 1.0 {
		t.Errorf("clean first try = %v, want 1.0", got)
	}
	if len(mods) != 1 || mods[0].Kind != ModifierFirstTry {
		t.Errorf("mods = %+v, want single first_try_bonus", mods)
	}
}

func TestConfidence_TwoHintsScenario(t *testing.T) {
	// Two hints plus a pass: 0.0 under strict, exactly 0.70 under
	// partial credit.
	strict, _ := Strict().Confidence(2, false, 0, false)
	if strict != 0.0 {
		t.Errorf("strict two hints = %v, want 0.0", strict)
	}

	partial, _ := PartialCredit().Confidence(2, false, 0, false)
	if diff := partial - 0.70; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("partial_credit two hints = %v, want 0.70", partial)
	}
}

func TestConfidence_ModifierTrace(t *testing.T) {
	p := PartialCredit()
	got, mods := p.Confidence(1, true, 2, false)

	// 1.0 - 0.15 - 0.30 - 0.20 = 0.35
	if diff := got - 0.35; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("confidence = %v, want 0.35", got)
	}

	wantKinds := []ModifierKind{ModifierHint, ModifierSolution, ModifierRetry}
	if len(mods) != len(wantKinds) {
		t.Fatalf("got %d modifiers, want %d", len(mods), len(wantKinds))
	}
	for i, k := range wantKinds {
		if mods[i].Kind != k {
			t.Errorf("modifier %d = %s, want %s", i, mods[i].Kind, k)
		}
	}
}

func TestRegistry_UnknownFallsBack(t *testing.T) {
	r := NewRegistry()
	p := r.Get("no-such-preset")
	if p.ID != PresetPartialCredit {
		t.Errorf("fallback preset = %s, want %s", p.ID, PresetPartialCredit)
	}
}

func TestRegistry_LoadCustom(t *testing.T) {
	r := NewRegistry()
	yaml := `
presets:
  - id: exam
    base: strict
    min_confidence: 0.1
  - id: gentle
    base: practice
    hint_penalty: 0.01
`
	if err := r.LoadCustom(strings.NewReader(yaml)); err != nil {
		t.Fatalf("LoadCustom: %v", err)
	}

	exam := r.Get("exam")
	if exam.MinConfidence != 0.1 {
		t.Errorf("exam.MinConfidence = %v, want 0.1", exam.MinConfidence)
	}
	if exam.PassThreshold != 1.0 {
		t.Errorf("exam.PassThreshold = %v, want base strict 1.0", exam.PassThreshold)
	}

	gentle := r.Get("gentle")
	if gentle.HintPenalty != 0.01 {
		t.Errorf("gentle.HintPenalty = %v, want 0.01", gentle.HintPenalty)
	}
	if gentle.MinConfidence != 0.5 {
		t.Errorf("gentle.MinConfidence = %v, want base practice 0.5", gentle.MinConfidence)
	}
}
