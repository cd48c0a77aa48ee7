package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"edgeday-journal/internal/stream"
)

// addWatchCommands adds the live event watcher.
func addWatchCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newWatchCmd(app))
}

func newWatchCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Watch live journal events",
		Long:  "Subscribes to bias, trade and settings changes and prints them until interrupted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			app.Feed.Start(ctx)
			defer app.Feed.Stop()

			biasCh := app.Feed.Subscribe(stream.TopicBias)
			tradesCh := app.Feed.Subscribe(stream.TopicTrades)
			settingsCh := app.Feed.Subscribe(stream.TopicSettings)

			output.Info("Watching journal events. Press Ctrl-C to stop.")

			sig := make(chan os.Signal, 1)
			signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

			for {
				select {
				case <-sig:
					output.Println()
					return nil
				case ev := <-biasCh:
					output.Printf("[%s] bias changed\n", FormatTime(ev.At))
				case ev := <-tradesCh:
					output.Printf("[%s] trades changed\n", FormatTime(ev.At))
				case ev := <-settingsCh:
					output.Printf("[%s] settings changed\n", FormatTime(ev.At))
				}
			}
		},
	}
}
