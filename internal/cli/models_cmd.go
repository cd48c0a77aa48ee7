package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"edgeday-journal/internal/execution"
	"edgeday-journal/internal/sessions"
)

// addModelCommands adds the execution-model and session commands.
func addModelCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newModelsCmd(app))
	rootCmd.AddCommand(newSessionCmd())
}

func newModelsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "models",
		Short: "List execution models",
		Long: `List execution models. By default only models allowed under today's
market state are shown; --all lists the full registry.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			all, _ := cmd.Flags().GetBool("all")
			checklist, _ := cmd.Flags().GetBool("checklist")

			models := execution.AllModels()
			if !all {
				if app.Gate == nil {
					return fmt.Errorf("bias backend unavailable; use --all for the full registry")
				}
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()

				snap, err := app.Gate.Current(ctx)
				if err != nil {
					return fmt.Errorf("loading bias: %w", err)
				}
				if snap == nil || !snap.HasContext() {
					output.Dim("No execution context today. Models are locked; use --all to browse.")
					return nil
				}
				models = execution.ModelsFor(snap.MarketState)
			}

			if output.IsJSON() {
				type modelJSON struct {
					ID        string   `json:"id"`
					Label     string   `json:"label"`
					Checklist []string `json:"checklist"`
				}
				out := make([]modelJSON, 0, len(models))
				for _, m := range models {
					out = append(out, modelJSON{
						ID:        string(m),
						Label:     execution.Label(m),
						Checklist: execution.Checklist(m),
					})
				}
				return output.JSON(out)
			}

			for _, m := range models {
				output.Bold("%s", execution.Label(m))
				output.Dim("  id: %s", m)
				if checklist {
					for _, item := range execution.Checklist(m) {
						output.Printf("  [ ] %s\n", item)
					}
				}
				output.Println()
			}
			return nil
		},
	}

	cmd.Flags().Bool("all", false, "List every model regardless of market state")
	cmd.Flags().Bool("checklist", false, "Show each model's checklist")

	return cmd
}

func newSessionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "session",
		Short: "Show the current trading session",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			now := time.Now()
			active := sessions.Active(now)

			if output.IsJSON() {
				return output.JSON(map[string]interface{}{
					"session": active,
					"time":    now.Format(time.RFC3339),
				})
			}

			if active == nil {
				output.Dim("No session active right now.")
			} else {
				output.Bold("%s", active.Name)
				output.Printf("  %02d:%02d to %02d:%02d New York time\n",
					active.StartHour, active.StartMinute, active.EndHour, active.EndMinute)
				if active.Description != "" {
					output.Dim("  %s", active.Description)
				}
			}

			output.Println()
			output.Bold("All sessions")
			table := NewTable(output, "ID", "Name", "Window (NY)")
			for _, s := range sessions.Windows {
				table.AddRow(s.ID, s.Name, fmt.Sprintf("%02d:%02d-%02d:%02d",
					s.StartHour, s.StartMinute, s.EndHour, s.EndMinute))
			}
			table.Render()
			return nil
		},
	}
}
