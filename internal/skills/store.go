package skills

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/renameio/v2"
)

// StudentSkillProfile is the persisted form of a student's skill model:
// the aggregated states plus the raw evidence they were derived from, so
// states can always be recomputed.
type StudentSkillProfile struct {
	StudentID string                `json:"student_id"`
	UpdatedAt time.Time             `json:"updated_at"`
	Skills    map[string]SkillState `json:"skills"`
	Evidence  []SkillEvidence       `json:"evidence"`
}

// Store persists one profile file per student under a directory.
type Store struct {
	dir string
}

// NewStore creates a profile store rooted at dir.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create profile dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) path(studentID string) string {
	return filepath.Join(s.dir, studentID+".json")
}

// Save writes the profile as a full atomic overwrite.
func (s *Store) Save(profile *StudentSkillProfile) error {
	if profile.StudentID == "" {
		return fmt.Errorf("profile has no student id")
	}
	data, err := json.MarshalIndent(profile, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal profile: %w", err)
	}
	if err := renameio.WriteFile(s.path(profile.StudentID), data, 0o644); err != nil {
		return fmt.Errorf("write profile %s: %w", profile.StudentID, err)
	}
	return nil
}

// Load reads a student's profile. A missing file returns (nil, nil).
func (s *Store) Load(studentID string) (*StudentSkillProfile, error) {
	data, err := os.ReadFile(s.path(studentID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read profile %s: %w", studentID, err)
	}
	var profile StudentSkillProfile
	if err := json.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("decode profile %s: %w", studentID, err)
	}
	return &profile, nil
}

// Merge appends new evidence to a profile and recomputes every state from
// the full evidence list, never by partial update.
func Merge(profile *StudentSkillProfile, newEvidence []SkillEvidence, decay DecayConfig, thresholds Thresholds, now time.Time) *StudentSkillProfile {
	merged := &StudentSkillProfile{
		StudentID: profile.StudentID,
		UpdatedAt: now,
		Evidence:  append(append([]SkillEvidence(nil), profile.Evidence...), newEvidence...),
	}
	merged.Skills = ComputeStudentSkillStates(merged.Evidence, decay, thresholds, now)

	// Carry self-declared levels forward; re-aggregation never touches them.
	for id, prev := range profile.Skills {
		if prev.SelfDeclared == nil {
			continue
		}
		if st, ok := merged.Skills[id]; ok {
			st.SelfDeclared = prev.SelfDeclared
			merged.Skills[id] = st
		}
	}
	return merged
}
