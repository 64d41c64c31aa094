package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/skillforge/labtel/internal/eventlog"
	"github.com/skillforge/labtel/internal/evidence"
	"github.com/skillforge/labtel/internal/scoring"
)

var traceCmd = &cobra.Command{
	Use:   "trace",
	Short: "Explain how each step's confidence was computed",
	RunE: func(cmd *cobra.Command, args []string) error {
		logPath, _ := cmd.Flags().GetString("log")
		sessionID, _ := cmd.Flags().GetString("session")
		stepID, _ := cmd.Flags().GetString("step")
		presetID, _ := cmd.Flags().GetString("preset")
		asJSON, _ := cmd.Flags().GetBool("json")

		events, err := eventlog.ReadEvents(logPath)
		if err != nil {
			return err
		}

		registry, err := loadPresets(cmd)
		if err != nil {
			return err
		}
		preset := registry.Get(presetID)

		traces := evidence.AllScoreTraces(events, sessionID, preset)
		if stepID != "" {
			t, ok := traces[stepID]
			if !ok {
				return fmt.Errorf("no events for step %q", stepID)
			}
			traces = map[string]*evidence.ScoreTrace{stepID: t}
		}

		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(traces)
		}

		ids := make([]string, 0, len(traces))
		for id := range traces {
			ids = append(ids, id)
		}
		sort.Strings(ids)

		for _, id := range ids {
			t := traces[id]
			fmt.Printf("%s (preset %s)\n", t.StepID, t.PresetID)
			fmt.Printf("  base: %.2f\n", t.Base)
			for _, app := range t.Applications {
				fmt.Printf("  %-18s x%d  %.2f -> %.2f\n",
					app.Modifier.Kind, app.Modifier.Count, app.Before, app.After)
			}
			if t.Clamped {
				fmt.Printf("  clamped\n")
			}
			fmt.Printf("  final: %.2f  (%d events)\n", t.Final, len(t.Events))
		}
		return nil
	},
}

func init() {
	traceCmd.Flags().String("log", eventlog.DefaultFileName, "Path to the event log")
	traceCmd.Flags().String("session", "", "Session ID to interpret (empty = all)")
	traceCmd.Flags().String("step", "", "Limit to one step")
	traceCmd.Flags().String("preset", scoring.DefaultPresetID, "Scoring preset ID")
	traceCmd.Flags().String("presets", "", "Optional YAML file of custom presets")
	traceCmd.Flags().Bool("json", false, "Emit traces as JSON")
}
