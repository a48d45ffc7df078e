package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"experiment-logger/internal/config"
	"experiment-logger/internal/dashboard"
	"experiment-logger/internal/logging"
	"experiment-logger/internal/store"
	"experiment-logger/pkg/utils"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Config  string // settings file
	Verbose bool
}

// NewRootCommand creates the root command for the experiment logger CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "experiment-logger",
		Short: "Log experiment runs and plot the results",
		Long: `Experiment logger serves a configurable entry form that appends one row per
run to a log store (SQLite, an XLSX workbook or a Google Sheet), and plots
the accumulated log as binned bubble charts.`,
		SilenceUsage: true,
	}

	// Global flags
	cmd.PersistentFlags().StringVarP(&opts.Config, "config", "c", "settings.yaml", "settings file")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "debug logging")

	// Add subcommands
	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))
	cmd.AddCommand(NewPlotCommand(opts))
	cmd.AddCommand(NewImportCommand(opts))
	cmd.AddCommand(NewCheckConfigCommand(opts))

	return cmd
}

// loadSettings reads and validates the settings file
func loadSettings(opts *RootOptions) (config.Settings, error) {
	settings, err := config.LoadSettings(opts.Config)
	if err != nil {
		return settings, err
	}
	if opts.Verbose {
		settings.Log.Level = "debug"
	}
	if err := settings.Validate(); err != nil {
		return settings, fmt.Errorf("invalid settings in %s:\n%w", opts.Config, err)
	}
	return settings, nil
}

// app is everything a command needs to talk to the log
type app struct {
	settings config.Settings
	logger   *zap.Logger
	store    *store.LogStore
	svc      *dashboard.Service
}

func openApp(ctx context.Context, opts *RootOptions) (*app, error) {
	settings, err := loadSettings(opts)
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(settings.Log.Level, settings.Log.JSON)
	if err != nil {
		return nil, err
	}
	schema, err := config.LoadSchema(settings.Schema)
	if err != nil {
		return nil, err
	}
	sheet, err := store.Open(ctx, settings.Store)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", settings.Store.Backend, err)
	}
	logStore := store.NewLogStore(sheet, logger.Named("store"))

	svc := dashboard.New(schema, logStore, logger.Named("dashboard"), dashboard.Options{
		RecentRows: settings.Plot.RecentRows,
		MaxSize:    settings.Plot.MaxSize,
		SessionTTL: utils.ParseDuration(settings.Server.SessionTTL, dashboard.DefaultSessionTTL),
	})
	logger.Debug("Application ready",
		zap.String("backend", settings.Store.Backend),
		zap.Int("groups", len(schema.Groups)),
	)
	return &app{settings: settings, logger: logger, store: logStore, svc: svc}, nil
}

func (a *app) Close() error {
	a.logger.Sync()
	return a.store.Close()
}
