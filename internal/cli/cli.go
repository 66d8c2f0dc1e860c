//-------------------------------------------------------------------------
//
// Sales ETL Pipeline
//
// Portions copyright (c) 2025 - 2026, Mini Data Platform contributors
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package cli implements the command-line interface for sales-etl.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/minidataplatform/sales-etl/internal/config"
	"github.com/minidataplatform/sales-etl/internal/logging"
	"github.com/minidataplatform/sales-etl/pkg/version"
)

var (
	// Global flags
	cfgFile    string
	connection string
	logLevel   string

	// Global config
	cfg *config.Config

	rootCmd = &cobra.Command{
		Use:   "sales-etl",
		Short: "Batch ETL pipeline for sales data",
		Long: `sales-etl moves raw sales CSV files from object storage into a
PostgreSQL star-schema warehouse. Each run validates every row,
quarantines the rejects with their reasons, anonymizes customer PII,
derives profit and calendar attributes, and loads the result with
idempotent upserts so that re-processing a file is always safe.

The warehouse schema is created with 'init'; files are processed one
at a time with 'run'; 'generate' produces sample input data.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default: ./sales-etl.yaml)")
	rootCmd.PersistentFlags().StringVar(&connection, "connection", "",
		"PostgreSQL connection string for the warehouse")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"log level (debug, info, warn, error)")

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(generateCmd)
}

func initConfig() error {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return err
	}

	// Override with CLI flags
	if connection != "" {
		cfg.Connection = connection
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	// Reinitialize logger with config
	logging.Init(logging.Config{
		Level:  cfg.LogLevel,
		Pretty: true,
	})

	return nil
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Println(version.Info())
	},
}
