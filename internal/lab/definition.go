// Package lab loads the static content a session needs: the lab
// definition (steps, completion rules, Q-matrix rows), the skill catalog,
// and the session configuration. Definitions are validated against a
// JSON schema before use so malformed content fails at load time, not
// mid-session.
package lab

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/skillforge/labtel/internal/skills"
	"github.com/skillforge/labtel/internal/telemetry"
)

// Step is one task within a lab.
type Step struct {
	ID        string  `yaml:"id" json:"id"`
	Title     string  `yaml:"title" json:"title"`
	Weight    float64 `yaml:"weight,omitempty" json:"weight,omitempty"`
	TaskIndex int     `yaml:"task_index,omitempty" json:"task_index,omitempty"`
}

// PatternRule maps a regular expression over raw attempt text to the step
// it completes.
type PatternRule struct {
	StepID  string `yaml:"step_id" json:"step_id"`
	Pattern string `yaml:"pattern" json:"pattern"`

	re *regexp.Regexp
}

// Matches reports whether the rule's pattern matches the attempt text.
func (r *PatternRule) Matches(text string) bool {
	return r.re != nil && r.re.MatchString(text)
}

// Rules holds the lab-specific completion rule tables consulted by the
// adapters.
type Rules struct {
	// CommandPatterns complete steps when a successful shell command
	// matches.
	CommandPatterns []PatternRule `yaml:"command_patterns,omitempty" json:"command_patterns,omitempty"`

	// QueryPatterns complete steps when a successful query matches.
	QueryPatterns []PatternRule `yaml:"query_patterns,omitempty" json:"query_patterns,omitempty"`

	// Checks maps check-script names to the step they validate.
	Checks map[string]string `yaml:"checks,omitempty" json:"checks,omitempty"`

	// Tests maps code test names to the step they validate.
	Tests map[string]string `yaml:"tests,omitempty" json:"tests,omitempty"`
}

// Definition is one lab's full static description.
type Definition struct {
	LabID   string                `yaml:"lab_id" json:"lab_id"`
	Title   string                `yaml:"title" json:"title"`
	LabType telemetry.LabType     `yaml:"lab_type" json:"lab_type"`
	Steps   []Step                `yaml:"steps" json:"steps"`
	Rules   Rules                 `yaml:"rules,omitempty" json:"rules,omitempty"`
	Matrix  []skills.QMatrixEntry `yaml:"qmatrix,omitempty" json:"qmatrix,omitempty"`
}

// QMatrix returns the lab's Q-matrix rows, stamping the lab ID onto rows
// that omit it.
func (d *Definition) QMatrix() skills.QMatrix {
	qm := make(skills.QMatrix, 0, len(d.Matrix))
	for _, e := range d.Matrix {
		if e.LabID == "" {
			e.LabID = d.LabID
		}
		qm = append(qm, e)
	}
	return qm
}

// StepWeights returns the per-step weights for scoring; unset weights
// default to 1 at interpretation time.
func (d *Definition) StepWeights() map[string]float64 {
	weights := make(map[string]float64, len(d.Steps))
	for _, s := range d.Steps {
		if s.Weight > 0 {
			weights[s.ID] = s.Weight
		}
	}
	return weights
}

// TaskIndex returns the task index for a step, or 0 when unknown.
func (d *Definition) TaskIndex(stepID string) int {
	for _, s := range d.Steps {
		if s.ID == stepID {
			return s.TaskIndex
		}
	}
	return 0
}

// Load reads, validates, and compiles a lab definition.
func Load(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read lab definition: %w", err)
	}
	return Parse(data)
}

// Parse validates raw YAML against the definition schema and compiles
// rule patterns.
func Parse(data []byte) (*Definition, error) {
	if err := validateDefinition(data); err != nil {
		return nil, err
	}

	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("decode lab definition: %w", err)
	}

	for i := range def.Rules.CommandPatterns {
		if err := compileRule(&def.Rules.CommandPatterns[i]); err != nil {
			return nil, err
		}
	}
	for i := range def.Rules.QueryPatterns {
		if err := compileRule(&def.Rules.QueryPatterns[i]); err != nil {
			return nil, err
		}
	}
	return &def, nil
}

func compileRule(r *PatternRule) error {
	re, err := regexp.Compile(r.Pattern)
	if err != nil {
		return fmt.Errorf("rule for step %s: compile pattern %q: %w", r.StepID, r.Pattern, err)
	}
	r.re = re
	return nil
}
