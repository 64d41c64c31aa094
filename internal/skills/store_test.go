package skills

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_RoundTrip(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	now := time.Now().UTC().Truncate(time.Second)
	profile := &StudentSkillProfile{
		StudentID: "student-1",
		UpdatedAt: now,
		Skills: map[string]SkillState{
			"nav": {SkillID: "nav", Demonstrated: 0.8, CurrentLevel: LevelApplies, EvidenceCount: 3, LastEvidenceAt: now},
		},
		Evidence: []SkillEvidence{
			{SkillID: "nav", Level: LevelApplies, Confidence: 0.8, Weight: 1, SourceID: "lab-1:s1", Timestamp: now},
		},
	}

	require.NoError(t, store.Save(profile))

	loaded, err := store.Load("student-1")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, profile.StudentID, loaded.StudentID)
	assert.Equal(t, profile.Skills["nav"].Demonstrated, loaded.Skills["nav"].Demonstrated)
	assert.Len(t, loaded.Evidence, 1)
}

func TestStore_LoadMissingReturnsNil(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	loaded, err := store.Load("nobody")
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestStore_SaveIsFullOverwrite(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	first := &StudentSkillProfile{
		StudentID: "student-1",
		Skills:    map[string]SkillState{"a": {SkillID: "a"}, "b": {SkillID: "b"}},
	}
	require.NoError(t, store.Save(first))

	second := &StudentSkillProfile{
		StudentID: "student-1",
		Skills:    map[string]SkillState{"a": {SkillID: "a"}},
	}
	require.NoError(t, store.Save(second))

	loaded, err := store.Load("student-1")
	require.NoError(t, err)
	assert.Len(t, loaded.Skills, 1, "save must replace, not merge")
}

func TestMerge_RecomputesFromFullEvidence(t *testing.T) {
	now := time.Now()
	self := LevelUnderstands
	profile := &StudentSkillProfile{
		StudentID: "student-1",
		Skills: map[string]SkillState{
			"nav": {SkillID: "nav", Demonstrated: 0.3, CurrentLevel: LevelKnows, SelfDeclared: &self},
		},
		Evidence: []SkillEvidence{
			{SkillID: "nav", Level: LevelApplies, Confidence: 0.3, Weight: 1, Timestamp: now.Add(-time.Hour)},
		},
	}

	merged := Merge(profile, []SkillEvidence{
		{SkillID: "nav", Level: LevelApplies, Confidence: 0.9, Weight: 1, Timestamp: now},
	}, DefaultDecayConfig(), DefaultThresholds(), now)

	require.Len(t, merged.Evidence, 2)
	nav := merged.Skills["nav"]
	assert.Equal(t, 2, nav.EvidenceCount)
	assert.Greater(t, nav.Demonstrated, 0.3)
	require.NotNil(t, nav.SelfDeclared, "self-declared level must survive re-aggregation")
	assert.Equal(t, LevelUnderstands, *nav.SelfDeclared)
}
