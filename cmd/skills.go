package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/skillforge/labtel/internal/eventlog"
	"github.com/skillforge/labtel/internal/evidence"
	"github.com/skillforge/labtel/internal/lab"
	"github.com/skillforge/labtel/internal/scoring"
	"github.com/skillforge/labtel/internal/skills"
)

var skillsCmd = &cobra.Command{
	Use:   "skills",
	Short: "Update and inspect a student's skill profile",
}

var skillsUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Fold a session's completed steps into the student's skill profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		logPath, _ := cmd.Flags().GetString("log")
		sessionID, _ := cmd.Flags().GetString("session")
		studentID, _ := cmd.Flags().GetString("student")
		labPath, _ := cmd.Flags().GetString("lab")
		presetID, _ := cmd.Flags().GetString("preset")
		profilesDir, _ := cmd.Flags().GetString("profiles")

		if studentID == "" {
			return fmt.Errorf("--student is required")
		}

		def, err := lab.Load(labPath)
		if err != nil {
			return err
		}
		events, err := eventlog.ReadEvents(logPath)
		if err != nil {
			return err
		}

		ctx := evidence.Context{
			SessionID: sessionID,
			StudentID: studentID,
			Weights:   def.StepWeights(),
		}
		progress := evidence.RecomputeWithPreset(events, ctx, scoring.NewRegistry(), presetID)

		tasks := make([]evidence.TaskEvidence, 0, len(progress.Steps))
		for _, ev := range progress.Steps {
			tasks = append(tasks, ev)
		}

		now := time.Now()
		newEvidence := skills.ProduceSkillEvidence(tasks, def.QMatrix(), def.LabID, now)

		store, err := skills.NewStore(profilesDir)
		if err != nil {
			return err
		}
		profile, err := store.Load(studentID)
		if err != nil {
			return err
		}
		if profile == nil {
			profile = &skills.StudentSkillProfile{StudentID: studentID}
		}

		merged := skills.Merge(profile, newEvidence, skills.DefaultDecayConfig(), skills.DefaultThresholds(), now)
		if err := store.Save(merged); err != nil {
			return err
		}

		fmt.Printf("added %d evidence records; %d skills tracked\n", len(newEvidence), len(merged.Skills))
		return nil
	},
}

var skillsListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show the student's per-skill mastery states",
	RunE: func(cmd *cobra.Command, args []string) error {
		studentID, _ := cmd.Flags().GetString("student")
		profilesDir, _ := cmd.Flags().GetString("profiles")
		catalogPath, _ := cmd.Flags().GetString("catalog")
		asJSON, _ := cmd.Flags().GetBool("json")

		profile, catalog, err := loadProfileAndCatalog(studentID, profilesDir, catalogPath)
		if err != nil {
			return err
		}

		states := map[string]skills.SkillState{}
		if profile != nil {
			states = profile.Skills
		}
		joined := skills.StudentSkills(states, catalog)

		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(joined)
		}

		fmt.Printf("%-24s  %-28s  %-12s  %12s  %8s\n", "ID", "Name", "Level", "Demonstrated", "Evidence")
		for _, s := range joined {
			fmt.Printf("%-24s  %-28s  %-12s  %12.2f  %8d\n",
				s.SkillID, s.Name, s.CurrentLevel, s.Demonstrated, s.EvidenceCount)
		}

		partition := skills.SkillsByLevel(states, catalog)
		fmt.Printf("\nmastered: %d  in progress: %d  not started: %d\n",
			len(partition.Mastered), len(partition.InProgress), len(partition.NotStarted))
		return nil
	},
}

var skillsGapsCmd = &cobra.Command{
	Use:   "gaps",
	Short: "Compare the student's skills against a target lab's requirements",
	RunE: func(cmd *cobra.Command, args []string) error {
		studentID, _ := cmd.Flags().GetString("student")
		profilesDir, _ := cmd.Flags().GetString("profiles")
		catalogPath, _ := cmd.Flags().GetString("catalog")
		labPath, _ := cmd.Flags().GetString("lab")
		threshold, _ := cmd.Flags().GetFloat64("threshold")
		asJSON, _ := cmd.Flags().GetBool("json")

		def, err := lab.Load(labPath)
		if err != nil {
			return err
		}
		profile, catalog, err := loadProfileAndCatalog(studentID, profilesDir, catalogPath)
		if err != nil {
			return err
		}

		states := map[string]skills.SkillState{}
		if profile != nil {
			states = profile.Skills
		}
		report := skills.GapAnalysis(states, catalog, def.QMatrix(), def.LabID, threshold)

		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		}

		fmt.Printf("lab %s (threshold %.2f)\n", report.LabID, report.Threshold)
		for _, id := range report.Mastered {
			fmt.Printf("  mastered  %s\n", id)
		}
		for _, g := range report.Gaps {
			fmt.Printf("  gap       %-24s  %-12s  demonstrated %.2f  gap %.2f\n",
				g.SkillID, g.CurrentLevel, g.Demonstrated, g.Gap)
		}
		return nil
	},
}

func loadProfileAndCatalog(studentID, profilesDir, catalogPath string) (*skills.StudentSkillProfile, skills.Catalog, error) {
	if studentID == "" {
		return nil, nil, fmt.Errorf("--student is required")
	}
	store, err := skills.NewStore(profilesDir)
	if err != nil {
		return nil, nil, err
	}
	profile, err := store.Load(studentID)
	if err != nil {
		return nil, nil, err
	}
	catalog, err := lab.LoadCatalog(catalogPath)
	if err != nil {
		return nil, nil, err
	}
	return profile, catalog, nil
}

func init() {
	for _, c := range []*cobra.Command{skillsUpdateCmd, skillsListCmd, skillsGapsCmd} {
		c.Flags().String("student", "", "Student ID")
		c.Flags().String("profiles", "profiles", "Directory of skill-profile files")
	}

	skillsUpdateCmd.Flags().String("log", eventlog.DefaultFileName, "Path to the event log")
	skillsUpdateCmd.Flags().String("session", "", "Session ID to interpret (empty = all)")
	skillsUpdateCmd.Flags().String("lab", "lab.yaml", "Lab definition with the Q-matrix")
	skillsUpdateCmd.Flags().String("preset", scoring.DefaultPresetID, "Scoring preset ID")

	skillsListCmd.Flags().String("catalog", "skills.yaml", "Skill catalog file")
	skillsListCmd.Flags().Bool("json", false, "Emit JSON")

	skillsGapsCmd.Flags().String("catalog", "skills.yaml", "Skill catalog file")
	skillsGapsCmd.Flags().String("lab", "lab.yaml", "Target lab definition")
	skillsGapsCmd.Flags().Float64("threshold", 0.7, "Mastery threshold")
	skillsGapsCmd.Flags().Bool("json", false, "Emit JSON")

	skillsCmd.AddCommand(skillsUpdateCmd)
	skillsCmd.AddCommand(skillsListCmd)
	skillsCmd.AddCommand(skillsGapsCmd)
}
