package lab

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/skillforge/labtel/internal/eventlog"
	"github.com/skillforge/labtel/internal/telemetry"
)

// LogPaths names the lab-native input logs a session's adapters consume.
// Relative paths resolve against the session directory.
type LogPaths struct {
	Commands    string `yaml:"commands,omitempty"`
	Checks      string `yaml:"checks,omitempty"`
	Submissions string `yaml:"submissions,omitempty"`
	Queries     string `yaml:"queries,omitempty"`
}

// SessionConfig describes one live session: who is working, which lab,
// and where the files live.
type SessionConfig struct {
	SessionID string   `yaml:"session_id"`
	StudentID string   `yaml:"student_id"`
	ModuleID  string   `yaml:"module_id"`
	LabPath   string   `yaml:"lab"`
	Preset    string   `yaml:"preset,omitempty"`
	Logs      LogPaths `yaml:"logs,omitempty"`

	// TelemetryFile and StateFile default to telemetry.jsonl and
	// state.json in the session directory.
	TelemetryFile string `yaml:"telemetry_file,omitempty"`
	StateFile     string `yaml:"state_file,omitempty"`

	dir string
}

// LoadSession reads a session config; relative paths resolve against the
// config file's directory.
func LoadSession(path string) (*SessionConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read session config: %w", err)
	}

	var cfg SessionConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("decode session config: %w", err)
	}
	cfg.dir = filepath.Dir(path)

	if cfg.SessionID == "" {
		return nil, fmt.Errorf("session config: session_id is required")
	}
	if cfg.StudentID == "" {
		return nil, fmt.Errorf("session config: student_id is required")
	}
	if cfg.LabPath == "" {
		return nil, fmt.Errorf("session config: lab is required")
	}

	if cfg.TelemetryFile == "" {
		cfg.TelemetryFile = eventlog.DefaultFileName
	}
	if cfg.StateFile == "" {
		cfg.StateFile = "state.json"
	}
	return &cfg, nil
}

// Resolve turns a config-relative path into an absolute one.
func (c *SessionConfig) Resolve(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.dir, path)
}

// LoadLab loads the lab definition the session points at.
func (c *SessionConfig) LoadLab() (*Definition, error) {
	return Load(c.Resolve(c.LabPath))
}

// EventLogSession builds the envelope fields for the session's logger.
func (c *SessionConfig) EventLogSession(labType telemetry.LabType) eventlog.Session {
	return eventlog.Session{
		SessionID: c.SessionID,
		ModuleID:  c.ModuleID,
		StudentID: c.StudentID,
		LabType:   labType,
	}
}
