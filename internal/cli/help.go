package cli

import (
	"github.com/spf13/cobra"
)

// addHelpCommands adds the extended help commands.
func addHelpCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newExamplesCmd())
	rootCmd.AddCommand(newQuickstartCmd())
}

func newExamplesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "examples",
		Short: "Show common workflows",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)

			output.Bold("Morning routine")
			output.Println("  edgeday bias options")
			output.Println("  edgeday bias quiz --location 1 --orderflow 1 --structure 1 --direction long")
			output.Println("  edgeday models --checklist")
			output.Println()

			output.Bold("Journal a trade")
			output.Println("  edgeday trade add --asset EURUSD --direction long --model TREND_IMPULSE_PB \\")
			output.Println("      --entry 1.1000 --stop 1.0950 --tier a --locations LVN --aggression \"Delta Push\"")
			output.Println("  edgeday trade close <trade-id> --exit 1.1050")
			output.Println()

			output.Bold("End of day")
			output.Println("  edgeday wrap now")
			output.Println("  edgeday report stats --from 2026-08-01")
			output.Println("  edgeday report csv --from 2026-08-01 --out trades.csv")
			output.Println()

			output.Bold("Experiments")
			output.Println("  edgeday hypothesis add \"Overlap entries only\"")
			output.Println("  edgeday trade add ... --experimental --hypothesis <id>")
			output.Println("  edgeday hypothesis compare <id>")
		},
	}
}

func newQuickstartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "quickstart",
		Short: "Getting started guide",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)

			output.Bold("Edgeday Quickstart")
			output.Println()
			output.Println("1. Run 'edgeday config show' to see where data lives.")
			output.Println("2. Each morning, run 'edgeday bias quiz' before anything else.")
			output.Println("   Without a bias and market state, trade entry stays locked.")
			output.Println("3. Check 'edgeday models' for the models your market state allows.")
			output.Println("4. Journal entries with 'edgeday trade add' and close them with")
			output.Println("   'edgeday trade close'. Three losing trades end the day.")
			output.Println("5. Run 'edgeday wrap now', or keep 'edgeday wrap serve' running to")
			output.Println("   get the wrap automatically at the configured time.")
		},
	}
}
