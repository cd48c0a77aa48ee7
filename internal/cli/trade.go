package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"edgeday-journal/internal/biasstate"
	"edgeday-journal/internal/execution"
	"edgeday-journal/internal/journal"
	"edgeday-journal/internal/models"
	"edgeday-journal/internal/store"
)

// addTradeCommands adds the trade journal commands.
func addTradeCommands(rootCmd *cobra.Command, app *App) {
	cmd := &cobra.Command{
		Use:   "trade",
		Short: "Trade journal",
		Long:  "Add, close and list journal trades.",
	}

	cmd.AddCommand(newTradeAddCmd(app))
	cmd.AddCommand(newTradeCloseCmd(app))
	cmd.AddCommand(newTradeListCmd(app))
	cmd.AddCommand(newTradeOpenCmd(app))

	rootCmd.AddCommand(cmd)
}

func newTradeAddCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Journal a new trade entry",
		Long: `Journal a new trade entry. The entry must pass the execution-context
gate: an active bias with a market state, a model allowed under that state,
a fully checked model checklist, and the daily stop rule.`,
		Example: `  edgeday trade add --asset EURUSD --direction long --model TREND_IMPULSE_PB \
      --entry 1.1000 --stop 1.0950 --tier a --locations LVN,POC --aggression "Delta Push"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.requireJournal(); err != nil {
				return err
			}
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			asset, _ := cmd.Flags().GetString("asset")
			direction, _ := cmd.Flags().GetString("direction")
			model, _ := cmd.Flags().GetString("model")
			entry, _ := cmd.Flags().GetFloat64("entry")
			stop, _ := cmd.Flags().GetFloat64("stop")
			tier, _ := cmd.Flags().GetString("tier")
			locations, _ := cmd.Flags().GetStringSlice("locations")
			aggression, _ := cmd.Flags().GetStringSlice("aggression")
			scenarios, _ := cmd.Flags().GetStringSlice("scenarios")
			externals, _ := cmd.Flags().GetStringSlice("externals")
			notes, _ := cmd.Flags().GetString("notes")
			calm, _ := cmd.Flags().GetInt("calm")
			focus, _ := cmd.Flags().GetInt("focus")
			urge, _ := cmd.Flags().GetInt("urge")
			experimental, _ := cmd.Flags().GetBool("experimental")
			hypothesisID, _ := cmd.Flags().GetString("hypothesis")
			override, _ := cmd.Flags().GetString("override-reason")

			snap, err := app.Gate.Current(ctx)
			if err != nil {
				return fmt.Errorf("loading bias context: %w", err)
			}
			checklist, err := confirmedChecklist(execution.Model(model), snap)
			if err != nil {
				return err
			}

			in := journal.AddTradeInput{
				Asset:          asset,
				Direction:      models.Direction(strings.ToLower(direction)),
				Model:          execution.Model(model),
				Checklist:      checklist,
				Locations:      locations,
				Aggression:     aggression,
				RiskTier:       models.RiskTier(strings.ToLower(tier)),
				EntryPrice:     entry,
				StopLoss:       stop,
				EntryTime:      time.Now(),
				Scenarios:      scenarios,
				Externals:      externals,
				IsExperimental: experimental,
			}
			if cmd.Flags().Changed("calm") || cmd.Flags().Changed("focus") || cmd.Flags().Changed("urge") {
				in.Emotions = &models.Emotions{CalmStressed: calm, Focus: focus, UrgeRecover: urge}
			}
			if notes != "" {
				in.Notes = &notes
			}
			if hypothesisID != "" {
				in.HypothesisID = &hypothesisID
			}
			if override != "" {
				in.OverrideReason = &override
			}

			trade, err := app.Journal.AddTrade(ctx, in)
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(trade)
			}
			output.Success("Trade journaled: %s", trade.ID)
			output.Printf("  %s %s %s @ %s, stop %s\n", trade.Asset,
				strings.ToUpper(string(trade.Direction)), execution.Label(execution.Model(trade.Model)),
				FormatPrice(trade.EntryPrice), FormatPrice(trade.StopLoss))
			output.Printf("  Risk: tier %s (%.0f)\n", trade.RiskTier, trade.RiskAmount)
			if trade.Session != nil {
				output.Printf("  Session: %s\n", *trade.Session)
			}
			return nil
		},
	}

	cmd.Flags().String("asset", "", "Asset symbol")
	cmd.Flags().String("direction", "", "Direction: long or short")
	cmd.Flags().String("model", "", "Execution model id (see 'edgeday models')")
	cmd.Flags().Float64("entry", 0, "Entry price")
	cmd.Flags().Float64("stop", 0, "Stop-loss price")
	cmd.Flags().String("tier", "a", "Risk tier: a, b or c")
	cmd.Flags().StringSlice("locations", nil, "Entry locations (LVN, POC, OB, FVG, IFVG, Breaker)")
	cmd.Flags().StringSlice("aggression", nil, "Aggression types observed")
	cmd.Flags().StringSlice("scenarios", nil, "Planned management scenarios")
	cmd.Flags().StringSlice("externals", nil, "External factors")
	cmd.Flags().String("notes", "", "Free-form notes")
	cmd.Flags().Int("calm", 5, "Calm/stressed slider (0-10)")
	cmd.Flags().Int("focus", 7, "Focus slider (0-10)")
	cmd.Flags().Int("urge", 3, "Urge-to-recover slider (0-10)")
	cmd.Flags().Bool("experimental", false, "Mark as an experimental trade")
	cmd.Flags().String("hypothesis", "", "Hypothesis id for experimental trades")
	cmd.Flags().String("override-reason", "", "Reason for overriding the daily stop rule")

	return cmd
}

// confirmedChecklist routes the model through the selection gate and returns
// its checklist with every item confirmed. Running the command stands in for
// checking each item interactively; context and model gating still apply
// before the journal service sees the trade.
func confirmedChecklist(m execution.Model, snap *models.BiasStateSnapshot) ([]models.ChecklistItem, error) {
	var sel biasstate.Selection
	if err := sel.Choose(m, snap); err != nil {
		return nil, err
	}
	for i := range sel.Checklist() {
		sel.Toggle(i)
	}
	return sel.Checklist(), nil
}

func newTradeCloseCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "close <trade-id>",
		Short: "Close an open trade",
		Example: `  edgeday trade close 6a1f0c --exit 1.1050
  edgeday trade close 6a1f0c --exit 1.0930 --mistakes FOMO,Chased --notes "late entry"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.requireJournal(); err != nil {
				return err
			}
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			exit, _ := cmd.Flags().GetFloat64("exit")
			mistakes, _ := cmd.Flags().GetStringSlice("mistakes")
			notes, _ := cmd.Flags().GetString("notes")

			in := journal.CloseTradeInput{
				TradeID:     args[0],
				ExitPrice:   exit,
				MistakeTags: mistakes,
			}
			if notes != "" {
				in.Notes = &notes
			}

			trade, err := app.Journal.CloseTrade(ctx, in)
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(trade)
			}
			output.Success("Trade closed: %s", trade.ID)
			if trade.PnL != nil && trade.RMultiple != nil {
				output.Printf("  P&L: %s  R: %s\n", output.FormatPnL(*trade.PnL), output.FormatR(*trade.RMultiple))
			}
			if trade.DurationMinutes != nil {
				output.Printf("  Duration: %s\n", FormatMinutes(*trade.DurationMinutes))
			}

			canAdd, err := app.Journal.CanAddTrade(ctx)
			if err == nil && !canAdd {
				output.Warning("Daily loss limit reached. Trade entry is disabled for today.")
			}
			return nil
		},
	}

	cmd.Flags().Float64("exit", 0, "Exit price")
	cmd.Flags().StringSlice("mistakes", nil, "Mistake tags")
	cmd.Flags().String("notes", "", "Closing notes")

	return cmd
}

func newTradeListCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List journal trades",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.requireJournal(); err != nil {
				return err
			}
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			day, _ := cmd.Flags().GetString("day")
			asset, _ := cmd.Flags().GetString("asset")
			model, _ := cmd.Flags().GetString("model")
			status, _ := cmd.Flags().GetString("status")
			limit, _ := cmd.Flags().GetInt("limit")

			filter := store.TradeFilter{
				DayKey: day,
				Asset:  asset,
				Model:  model,
				Status: models.TradeStatus(status),
				Limit:  limit,
			}
			trades, err := app.Journal.Trades(ctx, filter)
			if err != nil {
				return fmt.Errorf("loading trades: %w", err)
			}

			if output.IsJSON() {
				return output.JSON(trades)
			}
			if len(trades) == 0 {
				output.Dim("No trades found.")
				return nil
			}
			renderTradeTable(output, trades)
			return nil
		},
	}

	cmd.Flags().String("day", "", "Filter by day (YYYY-MM-DD)")
	cmd.Flags().String("asset", "", "Filter by asset")
	cmd.Flags().String("model", "", "Filter by execution model")
	cmd.Flags().String("status", "", "Filter by status (open, closed)")
	cmd.Flags().Int("limit", 50, "Maximum number of trades")

	return cmd
}

func newTradeOpenCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "open",
		Short: "List open trades",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.requireJournal(); err != nil {
				return err
			}
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			trades, err := app.Journal.OpenTrades(ctx)
			if err != nil {
				return fmt.Errorf("loading open trades: %w", err)
			}
			if output.IsJSON() {
				return output.JSON(trades)
			}
			if len(trades) == 0 {
				output.Dim("No open trades.")
				return nil
			}
			renderTradeTable(output, trades)
			return nil
		},
	}
}

func renderTradeTable(output *Output, trades []models.Trade) {
	table := NewTable(output, "ID", "Day", "Asset", "Dir", "Model", "Entry", "Exit", "P&L", "R", "Status")
	for i := range trades {
		t := &trades[i]
		exit, pnl, r := "", "", ""
		if t.ExitPrice != nil {
			exit = FormatPrice(*t.ExitPrice)
		}
		if t.PnL != nil {
			pnl = output.FormatPnL(*t.PnL)
		}
		if t.RMultiple != nil {
			r = output.FormatR(*t.RMultiple)
		}
		table.AddRow(
			TruncateString(t.ID, 8),
			models.DayKeyFor(t.EntryTime),
			t.Asset,
			string(t.Direction),
			TruncateString(t.Model, 20),
			FormatPrice(t.EntryPrice),
			exit,
			pnl,
			r,
			string(t.Status),
		)
	}
	table.Render()
}
