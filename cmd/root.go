// Package cmd holds the mailtriage command line.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"mailtriage/internal/config"
	"mailtriage/internal/logger"
)

var (
	cfg       *config.Config
	appLogger *logger.Logger
)

var rootCmd = &cobra.Command{
	Use:   "mailtriage",
	Short: "Classify business emails and draft replies",
	Long: `mailtriage classifies incoming business emails (Quote Request, New Order
Received, Delivery Follow-up, Other), drafts replies for the actionable ones and
keeps the results in an editable table.

Configuration is read from the environment and an optional .env file.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.LoadConfig()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if csvPath, _ := cmd.Flags().GetString("csv"); csvPath != "" {
			cfg.CSVFilePath = csvPath
			cfg.BackupFilePath = csvPath + ".backup"
		}
		if storage, _ := cmd.Flags().GetString("storage"); storage != "" {
			cfg.Storage = storage
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}
		appLogger = logger.NewWithLevel(cfg.LogLevel)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if appLogger != nil {
			_ = appLogger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().String("csv", "", "path of the processed email CSV (overrides CSV_FILE_PATH)")
	rootCmd.PersistentFlags().String("storage", "", "table storage: csv, memory or postgres (overrides STORAGE)")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
