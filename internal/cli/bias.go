package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"edgeday-journal/internal/bias"
	"edgeday-journal/internal/models"
	"edgeday-journal/internal/sessions"
)

// addBiasCommands adds the bias quiz and state commands.
func addBiasCommands(rootCmd *cobra.Command, app *App) {
	cmd := &cobra.Command{
		Use:   "bias",
		Short: "Daily bias quiz and state",
		Long:  "Run the pre-market bias quiz and inspect the day's active bias.",
	}

	cmd.AddCommand(newBiasQuizCmd(app))
	cmd.AddCommand(newBiasShowCmd(app))
	cmd.AddCommand(newBiasHistoryCmd(app))
	cmd.AddCommand(newBiasOptionsCmd())

	rootCmd.AddCommand(cmd)
}

func newBiasQuizCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quiz",
		Short: "Answer the bias quiz and set today's bias",
		Long: `Answer the five-step bias quiz and persist the result as today's
active bias snapshot. Steps one to three take 1-based indices into the
option lists shown by 'edgeday bias options'.`,
		Example: `  edgeday bias quiz --location 1 --orderflow 1,2 --structure 1 --direction long
  edgeday bias quiz --location 2 --orderflow 3 --structure 2 --direction short --confidence high`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Gate == nil {
				return fmt.Errorf("bias backend unavailable")
			}
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			location, _ := cmd.Flags().GetInt("location")
			orderflow, _ := cmd.Flags().GetIntSlice("orderflow")
			structure, _ := cmd.Flags().GetInt("structure")
			direction, _ := cmd.Flags().GetString("direction")
			confidence, _ := cmd.Flags().GetString("confidence")

			answers, err := buildAnswers(location, orderflow, structure, direction, confidence)
			if err != nil {
				return err
			}

			result := bias.Classify(*answers)

			var session *string
			if name := sessions.ActiveName(time.Now()); name != "" {
				session = &name
			}

			snap, err := app.Gate.SetBias(ctx, result, session)
			if err != nil {
				return fmt.Errorf("setting bias: %w", err)
			}

			if output.IsJSON() {
				return output.JSON(snap)
			}
			printSnapshot(output, &snap)
			if !snap.HasContext() {
				output.Warning("No execution context: trade entry stays locked today.")
			}
			return nil
		},
	}

	cmd.Flags().Int("location", 0, "Step 1: price location (1-based index)")
	cmd.Flags().IntSlice("orderflow", nil, "Step 2: order-flow observations (1-based indices)")
	cmd.Flags().Int("structure", 0, "Step 3: structure read (1-based index)")
	cmd.Flags().String("direction", "", "Step 4: direction (long, short or none)")
	cmd.Flags().String("confidence", "", "Step 5: confidence (low, medium or high, optional)")

	return cmd
}

func buildAnswers(location int, orderflow []int, structure int, direction, confidence string) (*bias.Answers, error) {
	answers := &bias.Answers{}

	if location > 0 {
		if location > len(bias.LocationOptions) {
			return nil, fmt.Errorf("location index %d out of range (1-%d)", location, len(bias.LocationOptions))
		}
		answers.Location = bias.LocationOptions[location-1]
	}

	selected := []string{}
	for _, idx := range orderflow {
		if idx < 1 || idx > len(bias.OrderFlowOptions) {
			return nil, fmt.Errorf("orderflow index %d out of range (1-%d)", idx, len(bias.OrderFlowOptions))
		}
		selected = bias.ToggleOrderFlow(selected, bias.OrderFlowOptions[idx-1])
	}
	answers.OrderFlow = selected

	if structure > 0 {
		if structure > len(bias.StructureOptions) {
			return nil, fmt.Errorf("structure index %d out of range (1-%d)", structure, len(bias.StructureOptions))
		}
		answers.Structure = bias.StructureOptions[structure-1]
	}

	switch strings.ToLower(direction) {
	case "long":
		d := models.DirectionLong
		answers.Direction = &d
	case "short":
		d := models.DirectionShort
		answers.Direction = &d
	case "", "none":
	default:
		return nil, fmt.Errorf("invalid direction %q (long, short or none)", direction)
	}

	switch strings.ToLower(confidence) {
	case "low":
		c := models.ConfidenceLow
		answers.Confidence = &c
	case "medium":
		c := models.ConfidenceMedium
		answers.Confidence = &c
	case "high":
		c := models.ConfidenceHigh
		answers.Confidence = &c
	case "":
	default:
		return nil, fmt.Errorf("invalid confidence %q (low, medium or high)", confidence)
	}

	return answers, nil
}

func newBiasShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show today's active bias",
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Gate == nil {
				return fmt.Errorf("bias backend unavailable")
			}
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			snap, err := app.Gate.Current(ctx)
			if err != nil {
				return fmt.Errorf("loading bias: %w", err)
			}
			if snap == nil {
				if output.IsJSON() {
					return output.JSON(map[string]interface{}{"bias": nil})
				}
				output.Dim("No bias set for today. Run 'edgeday bias quiz' first.")
				return nil
			}
			if output.IsJSON() {
				return output.JSON(snap)
			}
			printSnapshot(output, snap)
			return nil
		},
	}
}

func newBiasHistoryCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent bias snapshots",
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Gate == nil {
				return fmt.Errorf("bias backend unavailable")
			}
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			limit, _ := cmd.Flags().GetInt("limit")
			snaps, err := app.Gate.History(ctx, limit)
			if err != nil {
				return fmt.Errorf("loading history: %w", err)
			}
			if output.IsJSON() {
				return output.JSON(snaps)
			}
			if len(snaps) == 0 {
				output.Dim("No bias history yet.")
				return nil
			}

			table := NewTable(output, "Day", "Bias", "State", "Confidence", "Session", "Active")
			for i := range snaps {
				s := &snaps[i]
				state := ""
				if s.MarketState != nil {
					state = string(*s.MarketState)
				}
				confidence := ""
				if s.Confidence != nil {
					confidence = string(*s.Confidence)
				}
				session := ""
				if s.Session != nil {
					session = *s.Session
				}
				active := ""
				if s.Active {
					active = "yes"
				}
				table.AddRow(s.DayKey, string(s.Bias), state, confidence, session, active)
			}
			table.Render()
			return nil
		},
	}

	cmd.Flags().Int("limit", 14, "Number of snapshots to show")
	return cmd
}

func newBiasOptionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "options",
		Short: "List the quiz answer options",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string][]string{
					"location":  bias.LocationOptions,
					"orderflow": bias.OrderFlowOptions,
					"structure": bias.StructureOptions,
				})
				return
			}

			output.Bold("Step 1: Where is price?")
			for i, opt := range bias.LocationOptions {
				output.Printf("  %d. %s\n", i+1, opt)
			}
			output.Println()
			output.Bold("Step 2: What does order flow show?")
			for i, opt := range bias.OrderFlowOptions {
				output.Printf("  %d. %s\n", i+1, opt)
			}
			output.Println()
			output.Bold("Step 3: What is the structure?")
			for i, opt := range bias.StructureOptions {
				output.Printf("  %d. %s\n", i+1, opt)
			}
		},
	}
}

func printSnapshot(output *Output, snap *models.BiasStateSnapshot) {
	output.Bold("%s", snap.Bias.Label())
	if snap.MarketState != nil {
		output.Printf("  %s\n", snap.MarketState.Label())
	}
	if snap.Confidence != nil {
		output.Printf("  Confidence: %s\n", *snap.Confidence)
	}
	if len(snap.Tags) > 0 {
		output.Printf("  Tags: %s\n", strings.Join(snap.Tags, ", "))
	}
	if snap.Session != nil {
		output.Printf("  Session: %s\n", *snap.Session)
	}
	output.Dim("  Selected at %s", FormatDateTime(snap.SelectedAt))
}
