package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"edgeday-journal/internal/journal"
	"edgeday-journal/internal/models"
	"edgeday-journal/internal/scheduler"
	"edgeday-journal/internal/store"
)

// addReportCommands adds the analytics and wrap commands.
func addReportCommands(rootCmd *cobra.Command, app *App) {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Performance reports",
		Long:  "Daily stats, trade analytics, and CSV export.",
	}
	cmd.AddCommand(newReportDailyCmd(app))
	cmd.AddCommand(newReportStatsCmd(app))
	cmd.AddCommand(newReportCSVCmd(app))
	cmd.AddCommand(newReportJSONCmd(app))
	rootCmd.AddCommand(cmd)

	wrap := &cobra.Command{
		Use:   "wrap",
		Short: "Daily wrap",
		Long:  "Run or schedule the end-of-day wrap.",
	}
	wrap.AddCommand(newWrapNowCmd(app))
	wrap.AddCommand(newWrapServeCmd(app))
	rootCmd.AddCommand(wrap)
}

func newReportDailyCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "daily",
		Short: "Show the daily report",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.requireJournal(); err != nil {
				return err
			}
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			day, _ := cmd.Flags().GetString("date")
			if day == "" {
				day = models.DayKeyFor(time.Now())
			}

			wrap, err := app.Journal.BuildDailyWrap(ctx, day)
			if err != nil {
				return fmt.Errorf("building daily report: %w", err)
			}
			if output.IsJSON() {
				return output.JSON(wrap)
			}
			renderWrap(output, wrap)
			return nil
		},
	}
	cmd.Flags().String("date", "", "Day to report on (YYYY-MM-DD, default today)")
	return cmd
}

func newReportStatsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show aggregate performance stats",
		Long:  "KPIs, hour heatmap, mistake costs, psychology averages and model-family comparison over a date range.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.requireJournal(); err != nil {
				return err
			}
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			from, to, err := parseRange(cmd)
			if err != nil {
				return err
			}

			trades, err := app.Journal.Trades(ctx, store.TradeFilter{
				StartDate: from,
				EndDate:   to,
			})
			if err != nil {
				return fmt.Errorf("loading trades: %w", err)
			}

			kpi := journal.KPI(trades)
			heatmap := journal.HourHeatmap(trades)
			mistakes := journal.MistakeImpacts(trades)
			allEmotions, lossEmotions := journal.EmotionAverages(trades)
			families := journal.FamilyComparison(trades)

			if output.IsJSON() {
				return output.JSON(map[string]interface{}{
					"kpi":              kpi,
					"hour_heatmap":     heatmap,
					"mistakes":         mistakes,
					"emotions":         allEmotions,
					"emotions_losses":  lossEmotions,
					"model_families":   families,
				})
			}

			output.Bold("KPIs")
			output.Printf("  Trades: %d  Wins: %d  Losses: %d  Win rate: %.1f%%\n",
				kpi.TotalTrades, kpi.Wins, kpi.Losses, kpi.WinRate)
			output.Printf("  P&L: %s  Total R: %.2f  Avg R: %.2f\n",
				output.FormatPnL(kpi.TotalPnL), kpi.TotalR, kpi.AvgR)
			output.Printf("  Profit factor: %.2f  Expectancy: %.2f\n", kpi.ProfitFactor, kpi.Expectancy)
			output.Println()

			if len(heatmap) > 0 {
				output.Bold("By hour (UTC)")
				table := NewTable(output, "Hour", "Trades", "Wins", "P&L", "Total R")
				for _, b := range heatmap {
					table.AddRow(fmt.Sprintf("%02d:00", b.Hour), fmt.Sprintf("%d", b.Trades),
						fmt.Sprintf("%d", b.Wins), output.FormatPnL(b.PnL), fmt.Sprintf("%.2f", b.TotalR))
				}
				table.Render()
				output.Println()
			}

			if len(mistakes) > 0 {
				output.Bold("Mistakes by cost")
				table := NewTable(output, "Tag", "Count", "P&L", "Total R")
				for _, m := range mistakes {
					table.AddRow(m.Tag, fmt.Sprintf("%d", m.Count),
						output.FormatPnL(m.PnL), fmt.Sprintf("%.2f", m.TotalR))
				}
				table.Render()
				output.Println()
			}

			if len(allEmotions) > 0 {
				output.Bold("Psychology (all trades vs losses)")
				table := NewTable(output, "Slider", "All", "Losses")
				for i, e := range allEmotions {
					loss := ""
					if i < len(lossEmotions) {
						loss = fmt.Sprintf("%.1f", lossEmotions[i].Average)
					}
					table.AddRow(e.Emotion, fmt.Sprintf("%.1f", e.Average), loss)
				}
				table.Render()
				output.Println()
			}

			if len(families) > 0 {
				output.Bold("Model families")
				table := NewTable(output, "Family", "Trades", "Win rate", "Avg R", "P&L")
				for _, f := range families {
					table.AddRow(f.Family, fmt.Sprintf("%d", f.Trades),
						fmt.Sprintf("%.1f%%", f.WinRate), fmt.Sprintf("%.2f", f.AvgR),
						output.FormatPnL(f.TotalPnL))
				}
				table.Render()
			}
			return nil
		},
	}
	cmd.Flags().String("from", "", "Range start (YYYY-MM-DD)")
	cmd.Flags().String("to", "", "Range end (YYYY-MM-DD)")
	return cmd
}

func newReportCSVCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "csv",
		Short: "Export trades as CSV",
		Example: `  edgeday report csv --from 2026-08-01 --to 2026-08-28
  edgeday report csv --from 2026-08-01 --out trades.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.requireJournal(); err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			from, to, err := parseRange(cmd)
			if err != nil {
				return err
			}

			out, _ := cmd.Flags().GetString("out")
			w := cmd.OutOrStdout()
			if out != "" {
				f, err := os.Create(out)
				if err != nil {
					return fmt.Errorf("creating %s: %w", out, err)
				}
				defer f.Close()
				w = f
			}

			if err := app.Journal.ExportTradesCSV(ctx, w, from, to); err != nil {
				return fmt.Errorf("exporting CSV: %w", err)
			}
			if out != "" {
				NewOutput(cmd).Success("Exported to %s", out)
			}
			return nil
		},
	}
	cmd.Flags().String("from", "", "Range start (YYYY-MM-DD)")
	cmd.Flags().String("to", "", "Range end (YYYY-MM-DD)")
	cmd.Flags().String("out", "", "Output file (default stdout)")
	return cmd
}

func newReportJSONCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "json",
		Short: "Export the daily report bundle as JSON",
		Example: `  edgeday report json
  edgeday report json --date 2026-08-28 --out wrap.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.requireJournal(); err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			day, _ := cmd.Flags().GetString("date")
			if day == "" {
				day = models.DayKeyFor(time.Now())
			}

			wrap, err := app.Journal.BuildDailyWrap(ctx, day)
			if err != nil {
				return fmt.Errorf("building daily report: %w", err)
			}

			out, _ := cmd.Flags().GetString("out")
			w := cmd.OutOrStdout()
			if out != "" {
				f, err := os.Create(out)
				if err != nil {
					return fmt.Errorf("creating %s: %w", out, err)
				}
				defer f.Close()
				w = f
			}

			if err := journal.ExportDailyWrapJSON(w, wrap); err != nil {
				return fmt.Errorf("exporting JSON: %w", err)
			}
			if out != "" {
				NewOutput(cmd).Success("Exported to %s", out)
			}
			return nil
		},
	}
	cmd.Flags().String("date", "", "Day to report on (YYYY-MM-DD, default today)")
	cmd.Flags().String("out", "", "Output file (default stdout)")
	return cmd
}

func newWrapNowCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "now",
		Short: "Run the daily wrap immediately",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.requireJournal(); err != nil {
				return err
			}
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			day, _ := cmd.Flags().GetString("date")
			if day == "" {
				day = models.DayKeyFor(time.Now())
			}

			wrap, err := app.Journal.WrapDay(ctx, day)
			if err != nil {
				return fmt.Errorf("running wrap: %w", err)
			}

			if output.IsJSON() {
				return output.JSON(wrap)
			}
			renderWrap(output, wrap)
			return nil
		},
	}
	cmd.Flags().String("date", "", "Day to wrap (YYYY-MM-DD, default today)")
	return cmd
}

func newWrapServeCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the wrap scheduler until interrupted",
		Long:  "Keeps the process alive and runs the daily wrap at the configured time.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.requireJournal(); err != nil {
				return err
			}
			output := NewOutput(cmd)

			sched := scheduler.New(app.Journal, app.Notifier, app.Config.Journal.ReportDir, app.Logger)
			if err := sched.RegisterDailyWrap(app.Config.Journal.DailyWrapTime); err != nil {
				return err
			}
			sched.Start()
			defer sched.Stop()

			output.Info("Wrap scheduled daily at %s. Press Ctrl-C to stop.", app.Config.Journal.DailyWrapTime)

			sig := make(chan os.Signal, 1)
			signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
			<-sig
			output.Println()
			return nil
		},
	}
}

func parseRange(cmd *cobra.Command) (from, to time.Time, err error) {
	fromStr, _ := cmd.Flags().GetString("from")
	toStr, _ := cmd.Flags().GetString("to")

	if fromStr != "" {
		from, err = time.Parse("2006-01-02", fromStr)
		if err != nil {
			return from, to, fmt.Errorf("invalid --from date %q", fromStr)
		}
	}
	if toStr != "" {
		to, err = time.Parse("2006-01-02", toStr)
		if err != nil {
			return from, to, fmt.Errorf("invalid --to date %q", toStr)
		}
		// Make the end bound inclusive of the whole day.
		to = to.Add(24*time.Hour - time.Second)
	}
	return from, to, nil
}

func renderWrap(output *Output, wrap *journal.DailyWrap) {
	output.Bold("Daily Wrap %s", wrap.Date)
	output.Printf("  Trades: %d  P&L: %s  Total R: %.2f\n",
		wrap.Summary.TotalTrades, output.FormatPnL(wrap.Summary.TotalPnL), wrap.Summary.TotalR)
	output.Printf("  Win rate: %.1f%%  Avg R: %.2f\n", wrap.Summary.WinRate, wrap.Summary.AvgR)

	if wrap.Analysis.BestHour != nil {
		output.Printf("  Best hour: %02d:00  Worst hour: %02d:00\n",
			*wrap.Analysis.BestHour, *wrap.Analysis.WorstHour)
	}

	if len(wrap.Analysis.TopMistakes) > 0 {
		output.Println()
		output.Bold("Top mistakes")
		for _, m := range wrap.Analysis.TopMistakes {
			output.Printf("  %s: %d trade(s), %s\n", m.Tag, m.Count, output.FormatPnL(m.PnL))
		}
	}

	if len(wrap.Trades) > 0 {
		output.Println()
		output.Bold("Trades")
		renderTradeTable(output, wrap.Trades)
	}
}
