package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abhisek/readgate/internal/config"
	"github.com/abhisek/readgate/internal/logging"
	"github.com/abhisek/readgate/internal/store"
)

var (
	cfg    config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:           "readgate",
	Short:         "Comprehension gate for sharing and commenting",
	Long:          "readgate asks people to show they read a link before they post, share or comment on it.",
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return bootstrap(cmd)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "Path to config file (default $XDG_CONFIG_HOME/readgate/config.yaml)")
	pf.String("db", "", "Path to SQLite database file (overrides READGATE_DB env var)")
	pf.String("log-level", "", "Log level: debug, info, warn, error")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(gateCmd)
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(postCmd)
	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

// bootstrap loads configuration and builds the logger. Commands that own
// the terminal send logs to a file next to the database.
func bootstrap(cmd *cobra.Command) error {
	path, _ := cmd.Flags().GetString("config")
	loaded, err := config.Load(path)
	if err != nil {
		return err
	}
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		loaded.Store.Path = p
	}
	if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
		loaded.Log.Level = lvl
	}
	if err := loaded.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	cfg = loaded

	logCfg := cfg.Log
	if ownsTerminal(cmd) && logCfg.File == "" {
		dbPath, err := resolveDBPath()
		if err != nil {
			return err
		}
		logCfg.File = filepath.Join(filepath.Dir(dbPath), "readgate.log")
	}
	logger, err = logging.New(logCfg)
	if err != nil {
		return err
	}
	return nil
}

func ownsTerminal(cmd *cobra.Command) bool {
	return cmd == gateCmd
}

// resolveDBPath returns the database path using --db / store.path (highest
// priority), then READGATE_DB, then the default XDG path.
func resolveDBPath() (string, error) {
	if cfg.Store.Path != "" {
		return cfg.Store.Path, store.EnsureDir(cfg.Store.Path)
	}
	return store.DefaultDBPath()
}

// openStore opens the configured database.
func openStore() (*store.Store, error) {
	dbPath, err := resolveDBPath()
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return st, nil
}
