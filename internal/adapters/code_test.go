package adapters

import (
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/skillforge/labtel/internal/lab"
	"github.com/skillforge/labtel/internal/telemetry"
)

const codeLabYAML = `
lab_id: go-basics
title: Go basics
lab_type: code
steps:
  - id: step-impl
    title: Implement the function
  - id: step-edge
    title: Handle the edge cases
rules:
  tests:
    TestImplementation: step-impl
    TestEdgeCases: step-edge
`

func codeLab(t *testing.T) *lab.Definition {
	t.Helper()
	def, err := lab.Parse([]byte(codeLabYAML))
	if err != nil {
		t.Fatal(err)
	}
	return def
}

func submissionLine(t *testing.T, file string, tests map[string]bool) string {
	t.Helper()
	rec := submissionRecord{Timestamp: time.Date(2026, 8, 23, 10, 0, 0, 0, time.UTC), File: file}
	for name, passed := range tests {
		rec.Tests = append(rec.Tests, testResult{Name: name, Passed: passed})
	}
	b, err := json.Marshal(rec)
	if err != nil {
		t.Fatal(err)
	}
	return string(b)
}

func TestCodeAdapter_ClassifiesByTestOutcome(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "submissions.log")
	appendLine(t, logPath, submissionLine(t, "main.go", map[string]bool{"TestImplementation": true, "TestEdgeCases": true}))
	appendLine(t, logPath, submissionLine(t, "main.go", map[string]bool{"TestImplementation": true, "TestEdgeCases": false}))
	appendLine(t, logPath, submissionLine(t, "main.go", map[string]bool{"TestImplementation": false, "TestEdgeCases": false}))

	a := NewCodeAdapter(logPath, codeLab(t))
	rec := &recorder{}
	rec.wire(a)
	if err := a.Start(); err != nil {
		t.Fatal(err)
	}
	defer a.Stop()

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.actions) != 3 {
		t.Fatalf("actions = %d, want 3", len(rec.actions))
	}
	want := []telemetry.ActionResult{telemetry.ResultSuccess, telemetry.ResultPartial, telemetry.ResultFailure}
	for i, w := range want {
		if rec.actions[i].Result != w {
			t.Errorf("submission %d result = %s, want %s", i, rec.actions[i].Result, w)
		}
	}
	first := rec.actions[0]
	if first.Kind != telemetry.ActionSubmitCode || first.Source != telemetry.SourceCheck {
		t.Errorf("kind/source = %s/%s", first.Kind, first.Source)
	}
	if first.Evidence["tests_passed"] != "2" || first.Evidence["tests_total"] != "2" {
		t.Errorf("evidence = %v", first.Evidence)
	}
}

func TestCodeAdapter_CompletionViaTestMap(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "submissions.log")

	// First submission passes one mapped test; the second passes it again
	// (no duplicate completion) plus an unmapped test.
	appendLine(t, logPath, submissionLine(t, "main.go", map[string]bool{"TestImplementation": true, "TestEdgeCases": false}))
	appendLine(t, logPath, submissionLine(t, "main.go", map[string]bool{"TestImplementation": true, "TestHelper": true}))

	a := NewCodeAdapter(logPath, codeLab(t))
	rec := &recorder{}
	rec.wire(a)
	if err := a.Start(); err != nil {
		t.Fatal(err)
	}
	defer a.Stop()

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.completions) != 1 {
		t.Fatalf("completions = %d, want 1 (dedup + unmapped ignored)", len(rec.completions))
	}
	c := rec.completions[0]
	if c.StepID != "step-impl" || c.Source != telemetry.SourceCheck {
		t.Errorf("completion = %+v", c)
	}
}

func TestCodeAdapter_SkipsMalformedLines(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "submissions.log")
	appendLine(t, logPath, "not json")
	appendLine(t, logPath, `{"file":"main.go","tests":[]}`) // no test results
	appendLine(t, logPath, submissionLine(t, "main.go", map[string]bool{"TestImplementation": true}))

	a := NewCodeAdapter(logPath, codeLab(t))
	rec := &recorder{}
	rec.wire(a)
	if err := a.Start(); err != nil {
		t.Fatal(err)
	}
	defer a.Stop()

	if actions, _ := rec.counts(); actions != 1 {
		t.Errorf("actions = %d, want 1 (malformed skipped)", actions)
	}
}
