package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// addHypothesisCommands adds the experiment commands.
func addHypothesisCommands(rootCmd *cobra.Command, app *App) {
	cmd := &cobra.Command{
		Use:   "hypothesis",
		Short: "Experiment hypotheses",
		Long: `Manage experiment hypotheses. Trades flagged --experimental attach to a
hypothesis and are compared against the regular playbook.`,
	}

	cmd.AddCommand(newHypothesisAddCmd(app))
	cmd.AddCommand(newHypothesisListCmd(app))
	cmd.AddCommand(newHypothesisCompareCmd(app))

	rootCmd.AddCommand(cmd)
}

func newHypothesisAddCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "add <title>",
		Short:   "Record a new hypothesis",
		Example: `  edgeday hypothesis add "Silver bullet entries only" --description "10-11 NY window"`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.requireJournal(); err != nil {
				return err
			}
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			description, _ := cmd.Flags().GetString("description")
			var desc *string
			if description != "" {
				desc = &description
			}

			h, err := app.Journal.AddHypothesis(ctx, args[0], desc)
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(h)
			}
			output.Success("Hypothesis recorded: %s", h.ID)
			return nil
		},
	}
	cmd.Flags().String("description", "", "Longer description")
	return cmd
}

func newHypothesisListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List hypotheses",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.requireJournal(); err != nil {
				return err
			}
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			hs, err := app.Journal.Hypotheses(ctx)
			if err != nil {
				return fmt.Errorf("loading hypotheses: %w", err)
			}
			if output.IsJSON() {
				return output.JSON(hs)
			}
			if len(hs) == 0 {
				output.Dim("No hypotheses yet.")
				return nil
			}

			table := NewTable(output, "ID", "Title", "Status", "Created")
			for i := range hs {
				h := &hs[i]
				table.AddRow(TruncateString(h.ID, 8), TruncateString(h.Title, 40),
					h.Status, FormatDate(h.CreatedAt))
			}
			table.Render()
			return nil
		},
	}
}

func newHypothesisCompareCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "compare <hypothesis-id>",
		Short: "Compare a hypothesis against the regular playbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.requireJournal(); err != nil {
				return err
			}
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			cmp, err := app.Journal.CompareHypothesis(ctx, args[0])
			if err != nil {
				return fmt.Errorf("comparing hypothesis: %w", err)
			}
			if output.IsJSON() {
				return output.JSON(cmp)
			}

			output.Bold("%s", cmp.Hypothesis.Title)
			if cmp.Hypothesis.Description != nil {
				output.Dim("  %s", *cmp.Hypothesis.Description)
			}
			output.Println()

			table := NewTable(output, "", "Trades", "Win rate", "P&L", "Avg R", "Profit factor")
			table.AddRow("Experimental",
				fmt.Sprintf("%d", cmp.Experimental.TotalTrades),
				fmt.Sprintf("%.1f%%", cmp.Experimental.WinRate),
				output.FormatPnL(cmp.Experimental.TotalPnL),
				fmt.Sprintf("%.2f", cmp.Experimental.AvgR),
				fmt.Sprintf("%.2f", cmp.Experimental.ProfitFactor))
			table.AddRow("Baseline",
				fmt.Sprintf("%d", cmp.Baseline.TotalTrades),
				fmt.Sprintf("%.1f%%", cmp.Baseline.WinRate),
				output.FormatPnL(cmp.Baseline.TotalPnL),
				fmt.Sprintf("%.2f", cmp.Baseline.AvgR),
				fmt.Sprintf("%.2f", cmp.Baseline.ProfitFactor))
			table.Render()
			return nil
		},
	}
}
