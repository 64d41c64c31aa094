package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/skillforge/labtel/internal/eventlog"
	"github.com/skillforge/labtel/internal/evidence"
	"github.com/skillforge/labtel/internal/lab"
	"github.com/skillforge/labtel/internal/scoring"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Interpret a session log into per-step evidence and an overall score",
	RunE: func(cmd *cobra.Command, args []string) error {
		logPath, _ := cmd.Flags().GetString("log")
		sessionID, _ := cmd.Flags().GetString("session")
		studentID, _ := cmd.Flags().GetString("student")
		presetID, _ := cmd.Flags().GetString("preset")
		labPath, _ := cmd.Flags().GetString("lab")
		asJSON, _ := cmd.Flags().GetBool("json")

		events, err := eventlog.ReadEvents(logPath)
		if err != nil {
			return err
		}

		ctx := evidence.Context{SessionID: sessionID, StudentID: studentID}
		if labPath != "" {
			def, err := lab.Load(labPath)
			if err != nil {
				return err
			}
			ctx.Weights = def.StepWeights()
		}

		registry, err := loadPresets(cmd)
		if err != nil {
			return err
		}
		progress := evidence.RecomputeWithPreset(events, ctx, registry, presetID)

		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(progress)
		}

		stepIDs := make([]string, 0, len(progress.Steps))
		for id := range progress.Steps {
			stepIDs = append(stepIDs, id)
		}
		sort.Strings(stepIDs)

		fmt.Printf("preset: %s\n", progress.PresetID)
		for _, stepID := range stepIDs {
			ev := progress.Steps[stepID]
			fmt.Printf("  %-20s  %.2f  %s\n", stepID, ev.Confidence, ev.Status)
		}
		fmt.Printf("overall: %.2f  completion: %d%%  passed: %v\n",
			progress.OverallScore, progress.CompletionPercent, progress.Passed)
		return nil
	},
}

// loadPresets builds the registry, layering custom YAML presets on the
// built-ins when --presets is given.
func loadPresets(cmd *cobra.Command) (*scoring.Registry, error) {
	registry := scoring.NewRegistry()
	presetsPath, _ := cmd.Flags().GetString("presets")
	if presetsPath == "" {
		return registry, nil
	}
	f, err := os.Open(presetsPath)
	if err != nil {
		return nil, fmt.Errorf("open presets: %w", err)
	}
	defer f.Close()
	if err := registry.LoadCustom(f); err != nil {
		return nil, err
	}
	return registry, nil
}

func init() {
	scoreCmd.Flags().String("log", eventlog.DefaultFileName, "Path to the event log")
	scoreCmd.Flags().String("session", "", "Session ID to interpret (empty = all)")
	scoreCmd.Flags().String("student", "", "Student ID for the evidence records")
	scoreCmd.Flags().String("preset", scoring.DefaultPresetID, "Scoring preset ID")
	scoreCmd.Flags().String("presets", "", "Optional YAML file of custom presets")
	scoreCmd.Flags().String("lab", "", "Lab definition for per-step weights")
	scoreCmd.Flags().Bool("json", false, "Emit the full interpretation as JSON")
}
