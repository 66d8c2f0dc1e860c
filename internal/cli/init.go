package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/minidataplatform/sales-etl/internal/db"
	"github.com/minidataplatform/sales-etl/internal/logging"
	"github.com/minidataplatform/sales-etl/internal/warehouse"
)

var initDropExisting bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the warehouse with the star schema",
	Long: `Initialize the analytics warehouse: create the dimension and fact
tables, their indexes, and the metadata table that records the schema
version.

Example:
  sales-etl init --connection "postgres://..."`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initDropExisting, "drop-existing", false,
		"drop existing schema before initialization")
}

func runInit(cmd *cobra.Command, args []string) error {
	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return err
	}

	// Connect to database
	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.Connection)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	// Check for an existing incompatible schema
	existingVersion, err := db.GetMetadataValue(ctx, pool, "schema_version")
	if err == nil && existingVersion != "" && existingVersion != warehouse.SchemaVersion {
		if !initDropExisting {
			return fmt.Errorf(
				"warehouse holds schema version %s but this build expects %s; "+
					"use --drop-existing to reinitialize",
				existingVersion, warehouse.SchemaVersion)
		}
		logging.Warn().
			Str("existing_version", existingVersion).
			Str("new_version", warehouse.SchemaVersion).
			Msg("Dropping existing schema")
	}

	// Drop existing schema if requested
	if initDropExisting {
		logging.Info().Msg("Dropping existing schema")
		if err := warehouse.DropSchema(ctx, pool); err != nil {
			return fmt.Errorf("failed to drop schema: %w", err)
		}
		if err := db.DropMetadata(ctx, pool); err != nil {
			logging.Debug().Err(err).Msg("No metadata table to drop")
		}
	}

	// Create schema
	logging.Info().Msg("Creating star schema")
	if err := warehouse.CreateSchema(ctx, pool); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	// Save metadata
	if err := db.SaveMetadata(ctx, pool, warehouse.SchemaVersion); err != nil {
		return fmt.Errorf("failed to save metadata: %w", err)
	}

	logging.Info().
		Str("schema_version", warehouse.SchemaVersion).
		Msg("Warehouse initialization complete")

	return nil
}
