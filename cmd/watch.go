package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/skillforge/labtel/internal/adapters"
	"github.com/skillforge/labtel/internal/eventlog"
	"github.com/skillforge/labtel/internal/hub"
	"github.com/skillforge/labtel/internal/ipc"
	"github.com/skillforge/labtel/internal/lab"
	"github.com/skillforge/labtel/internal/logging"
	"github.com/skillforge/labtel/internal/telemetry"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run the adapters and event hub for a live session",
	Long: "Loads the session config, starts the adapters matching the lab type,\n" +
		"and runs the event hub until interrupted. With --ipc, rendering-layer\n" +
		"messages are read as newline-delimited JSON from stdin.",
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")
		withIPC, _ := cmd.Flags().GetBool("ipc")

		cfg, err := lab.LoadSession(configPath)
		if err != nil {
			return err
		}
		def, err := cfg.LoadLab()
		if err != nil {
			return err
		}

		logger, err := eventlog.New(cfg.Resolve(cfg.TelemetryFile), cfg.EventLogSession(def.LabType))
		if err != nil {
			return err
		}

		h := hub.New(logger, cfg.Resolve(cfg.StateFile))
		for _, a := range buildAdapters(cfg, def) {
			h.Attach(a)
		}
		h.Subscribe(func(c telemetry.StepCompletion) {
			fmt.Printf("step completed: %s (via %s)\n", c.StepID, c.Source)
		})

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		h.Start(cfg.SessionID)
		defer h.Stop()

		if withIPC {
			listener := ipc.NewListener(h)
			ipcLog := logging.WithComponent("ipc")
			go func() {
				if err := listener.Run(ctx, os.Stdin); err != nil && ctx.Err() == nil {
					ipcLog.Warn().Err(err).Msg("ipc listener exited")
				}
			}()
		}

		<-ctx.Done()
		return nil
	},
}

// buildAdapters creates one adapter per configured input log. Unconfigured
// logs are simply not watched.
func buildAdapters(cfg *lab.SessionConfig, def *lab.Definition) []adapters.Adapter {
	var out []adapters.Adapter
	if p := cfg.Logs.Commands; p != "" {
		out = append(out, adapters.NewShellAdapter(cfg.Resolve(p), def))
	}
	if p := cfg.Logs.Checks; p != "" {
		out = append(out, adapters.NewCheckWatcher(cfg.Resolve(p), def))
	}
	if p := cfg.Logs.Submissions; p != "" {
		out = append(out, adapters.NewCodeAdapter(cfg.Resolve(p), def))
	}
	if p := cfg.Logs.Queries; p != "" {
		out = append(out, adapters.NewQueryAdapter(cfg.Resolve(p), def))
	}
	return out
}

func init() {
	watchCmd.Flags().String("config", "session.yaml", "Path to the session config")
	watchCmd.Flags().Bool("ipc", false, "Read rendering-layer messages from stdin")
}
