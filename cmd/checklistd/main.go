// Package main implements the checklistd CLI: admin template management,
// user record inspection, synchronization passes, and completion toggles.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"checklistd/internal/config"
	"checklistd/internal/logging"
	"checklistd/internal/session"
	"checklistd/internal/store"
)

var (
	// Global flags
	verbose   bool
	workspace string
	dbPath    string

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "checklistd",
	Short: "checklistd - checklist template assignment and synchronization",
	Long: `checklistd assigns reusable checklist templates to a population of
users and keeps each user's private completion state consistent as templates
are created, broadened in audience, or deleted.

Templates are authored by administrators; each user receives their own
mutable copy (a bundle) the first time a template becomes eligible for them.
Completion state belongs to the user and survives every re-synchronization.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&workspace, "workspace", "w", ".", "workspace directory")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "database path (overrides config)")

	rootCmd.AddCommand(templateCmd)
	rootCmd.AddCommand(userCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(signinCmd)
	rootCmd.AddCommand(toggleCmd)
}

// openService loads config, sets up the debug logger, and opens the store
// and synchronization service. The caller owns closing the returned store.
func openService() (*store.LocalStore, *session.Service, error) {
	cfg, err := config.Load(workspace)
	if err != nil {
		return nil, nil, err
	}

	if err := logging.Initialize(workspace, cfg.Logging.DebugMode, cfg.Logging.Level); err != nil {
		logger.Warn("debug logging unavailable", zap.Error(err))
	}

	path := dbPath
	if path == "" {
		path = cfg.Store.DatabasePath
	}

	st, err := store.NewLocalStore(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open store: %w", err)
	}

	logger.Debug("store opened",
		zap.String("path", path),
		zap.Int("cascade_workers", cfg.Sync.CascadeWorkers))

	return st, session.NewService(st, cfg.Sync.CascadeWorkers), nil
}

func main() {
	err := rootCmd.Execute()
	logging.CloseAll()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
