// Package cli provides the command-line interface for the journal.
package cli

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"edgeday-journal/internal/backend"
	"edgeday-journal/internal/biasstate"
	"edgeday-journal/internal/config"
	"edgeday-journal/internal/journal"
	"edgeday-journal/internal/logging"
	"edgeday-journal/internal/notify"
	"edgeday-journal/internal/store"
	"edgeday-journal/internal/stream"
)

// Version information
const (
	Version   = "0.1.0"
	BuildDate = "2026-08-01"
)

// App holds the application dependencies.
type App struct {
	Config   *config.Config
	Logger   zerolog.Logger
	Store    store.DataStore
	Backend  backend.Backend
	Gate     *biasstate.Gate
	Journal  *journal.Service
	Feed     *stream.Feed
	Notifier notify.Notifier
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd(cfg *config.Config, logger zerolog.Logger) *cobra.Command {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	dataStore, err := store.NewSQLiteStore(cfg.Journal.DBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to initialize store, some features may be unavailable")
	} else {
		app.Store = dataStore
		logger.Debug().Msg("SQLite store initialized")
	}

	be, err := backend.NewSQLiteBackend(cfg.Backend.DBPath, backend.Provisioning{
		RPC:   cfg.Backend.RPCProvisioned,
		View:  cfg.Backend.ViewProvisioned,
		Table: cfg.Backend.TableProvisioned,
	})
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to initialize bias backend")
	} else {
		app.Backend = be
	}

	cache, err := backend.NewLocalCache(cfg.Journal.CacheDir)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to initialize local bias cache")
	}

	advisory := func(msg string) {
		fmt.Fprintf(os.Stderr, "\033[33m! %s\033[0m\n", msg)
	}
	app.Feed = stream.NewFeed()

	if app.Backend != nil {
		app.Gate = biasstate.NewGate(app.Backend, cache, biasstate.AllCapabilities(),
			cfg.Journal.UserID, advisory, logger)
		app.Gate.SetOnChange(func() { app.Feed.Publish(stream.TopicBias) })
	}

	if app.Store != nil && app.Gate != nil {
		app.Journal = journal.NewService(app.Store, app.Gate, app.Feed,
			cfg.Journal.UserID, logger)
	}

	mn := notify.NewMultiNotifier(notify.NotificationLevel(cfg.Notifications.Level))
	if cfg.Notifications.Enabled && cfg.Notifications.Webhook.Enabled {
		mn.AddChannel(notify.NewWebhookNotifier(cfg.Notifications.Webhook.URL))
	}
	app.Notifier = mn

	rootCmd := &cobra.Command{
		Use:   "edgeday",
		Short: "Edgeday - discretionary day-trading journal CLI",
		Long: `Edgeday is a discretionary day-trading journal.

It runs a pre-market bias quiz, gates trade entries behind the day's bias
and execution-model checklists, enforces the daily stop rule, and produces
an end-of-day wrap with per-hour, mistake, and psychology analytics.

Use 'edgeday help <command>' for more information about a command.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			debug, _ := cmd.Flags().GetBool("debug")
			if debug {
				logging.SetDebugLevel()
				app.Logger = app.Logger.Level(zerolog.DebugLevel)
			}
			return nil
		},
	}

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/edgeday)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	addCoreCommands(rootCmd, app)
	addBiasCommands(rootCmd, app)
	addTradeCommands(rootCmd, app)
	addModelCommands(rootCmd, app)
	addReportCommands(rootCmd, app)
	addHypothesisCommands(rootCmd, app)
	addWatchCommands(rootCmd, app)
	addHelpCommands(rootCmd, app)

	return rootCmd
}

// requireJournal returns an error when the journal service failed to wire.
func (app *App) requireJournal() error {
	if app.Journal == nil {
		return fmt.Errorf("journal unavailable: store or bias backend failed to initialize")
	}
	return nil
}

// addCoreCommands adds core utility commands.
func addCoreCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(app))
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{
					"version":    Version,
					"build_date": BuildDate,
				})
			} else {
				output.Printf("Edgeday v%s\n", Version)
				output.Dim("Build date: %s", BuildDate)
			}
		},
	}
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  "View and manage application configuration.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(app.Config)
			}
			return showConfig(output, app.Config)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration directory path",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{"path": config.DefaultConfigDir()})
			} else {
				output.Println(config.DefaultConfigDir())
			}
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration files",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := app.Config.Validate(); err != nil {
				output.Error("Configuration validation failed: %v", err)
				return err
			}
			if output.IsJSON() {
				output.JSON(map[string]bool{"valid": true})
			} else {
				output.Success("Configuration is valid")
			}
			return nil
		},
	})

	return cmd
}

func showConfig(output *Output, cfg *config.Config) error {
	output.Bold("Journal Configuration")
	output.Printf("  User ID:         %s\n", cfg.Journal.UserID)
	output.Printf("  Database:        %s\n", cfg.Journal.DBPath)
	output.Printf("  Reports:         %s\n", cfg.Journal.ReportDir)
	output.Printf("  Cache:           %s\n", cfg.Journal.CacheDir)
	output.Printf("  Daily Wrap Time: %s\n", cfg.Journal.DailyWrapTime)
	output.Println()

	output.Bold("Backend Configuration")
	output.Printf("  Database:        %s\n", cfg.Backend.DBPath)
	output.Printf("  RPC Tier:        %v\n", cfg.Backend.RPCProvisioned)
	output.Printf("  View Tier:       %v\n", cfg.Backend.ViewProvisioned)
	output.Printf("  Table Tier:      %v\n", cfg.Backend.TableProvisioned)
	output.Println()

	output.Bold("Notifications")
	output.Printf("  Enabled:         %v\n", cfg.Notifications.Enabled)
	output.Printf("  Level:           %s\n", cfg.Notifications.Level)
	output.Printf("  Webhook:         %v\n", cfg.Notifications.Webhook.Enabled)
	output.Println()

	output.Bold("Logging")
	output.Printf("  Level:           %s\n", cfg.Logging.Level)
	output.Printf("  File:            %s\n", cfg.Logging.FilePath)

	return nil
}
