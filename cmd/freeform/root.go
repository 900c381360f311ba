// Root command and global flags for the freeform CLI.
package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/freeform-db/freeform/pkg/freeform"
)

// Global flag values.
var (
	flagConfigDir string
	flagDBPath    string
	flagVerbose   bool
)

// configDBPath holds the db_path value loaded from config.yaml. Set by
// PersistentPreRunE so all subcommands can use it.
var configDBPath string

var rootCmd = &cobra.Command{
	Use:     "freeform",
	Short:   "Freeform is a schema-less virtual table store over SQLite",
	Version: freeform.Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logLevel := slog.LevelInfo
		if flagVerbose {
			logLevel = slog.LevelDebug
		}
		handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: logLevel,
		})
		slog.SetDefault(slog.New(handler))

		configDir, err := resolveConfigDir()
		if err != nil {
			return err
		}

		cfg, err := loadConfig(configDir)
		if err != nil {
			return err
		}

		configDBPath = cfg.GetString(cfgKeyDBPath)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfigDir, "config-dir", "", "configuration directory (default: $(CWD)/.freeform)")
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "", "database file (default: $(CWD)/freeform.db)")
	rootCmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "enable debug logging")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(defineCmd)
	rootCmd.AddCommand(undefineCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(schemaCmd)
	rootCmd.AddCommand(dropCmd)
	rootCmd.AddCommand(resetCmd)
}
