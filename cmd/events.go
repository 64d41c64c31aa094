package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/skillforge/labtel/internal/eventlog"
	"github.com/skillforge/labtel/internal/telemetry"
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "List events from a session log",
	RunE: func(cmd *cobra.Command, args []string) error {
		logPath, _ := cmd.Flags().GetString("log")
		typeFilter, _ := cmd.Flags().GetString("type")
		stepFilter, _ := cmd.Flags().GetString("step")
		sessionFilter, _ := cmd.Flags().GetString("session")
		asJSON, _ := cmd.Flags().GetBool("json")

		events, err := eventlog.ReadEvents(logPath)
		if err != nil {
			return err
		}

		var out []telemetry.Event
		for _, e := range events {
			if typeFilter != "" && string(e.Type) != typeFilter {
				continue
			}
			if stepFilter != "" && e.StepID != stepFilter {
				continue
			}
			if sessionFilter != "" && e.SessionID != sessionFilter {
				continue
			}
			out = append(out, e)
		}

		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			for _, e := range out {
				if err := enc.Encode(e); err != nil {
					return err
				}
			}
			return nil
		}

		for _, e := range out {
			step := e.StepID
			if step == "" {
				step = "-"
			}
			fmt.Printf("%s  %-18s  %-12s  %s\n",
				e.Timestamp.Format("2006-01-02 15:04:05"), e.Type, step, e.EventID)
		}
		fmt.Printf("\n%d events\n", len(out))
		return nil
	},
}

func init() {
	eventsCmd.Flags().String("log", eventlog.DefaultFileName, "Path to the event log")
	eventsCmd.Flags().String("type", "", "Filter by event type")
	eventsCmd.Flags().String("step", "", "Filter by step ID")
	eventsCmd.Flags().String("session", "", "Filter by session ID")
	eventsCmd.Flags().Bool("json", false, "Emit raw JSON lines")
}
