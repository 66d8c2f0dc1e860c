package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/minidataplatform/sales-etl/internal/datagen"
	"github.com/minidataplatform/sales-etl/internal/logging"
	"github.com/minidataplatform/sales-etl/internal/storage"
)

var (
	generateRows        int
	generateInvalidRate float64
	generateSeed        uint64
	generateOutput      string
	generateUpload      string
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate sample sales data",
	Long: `Generate a sample sales CSV file in the pipeline's input format.
The output goes to a local file by default, or straight into the
object store's raw area with --upload. An invalid rate above zero
corrupts a fraction of the rows for exercising the quarantine path.

Example:
  sales-etl generate --rows 50000 --output sales.csv
  sales-etl generate --rows 50000 --invalid-rate 0.05 --upload raw/sales.csv`,
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().IntVar(&generateRows, "rows", 0,
		"number of data rows to generate")
	generateCmd.Flags().Float64Var(&generateInvalidRate, "invalid-rate", 0,
		"fraction of rows to corrupt (0 to 1)")
	generateCmd.Flags().Uint64Var(&generateSeed, "seed", 0,
		"random seed for reproducible output (0 = random)")
	generateCmd.Flags().StringVar(&generateOutput, "output", "",
		"local output file path (default: sales_data.csv)")
	generateCmd.Flags().StringVar(&generateUpload, "upload", "",
		"object key to upload to instead of writing a local file")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	// Override config with CLI flags
	if generateRows > 0 {
		cfg.Generate.Rows = generateRows
	}
	if generateInvalidRate > 0 {
		cfg.Generate.InvalidRate = generateInvalidRate
	}
	if generateSeed != 0 {
		cfg.Generate.Seed = generateSeed
	}

	// Validate configuration
	if err := cfg.ValidateGenerate(); err != nil {
		return err
	}

	gen := datagen.NewSalesGenerator(cfg.Generate.Seed, cfg.Generate.InvalidRate)

	logging.Info().
		Int("rows", cfg.Generate.Rows).
		Float64("invalid_rate", cfg.Generate.InvalidRate).
		Msg("Generating sample sales data")

	var buf bytes.Buffer
	if err := gen.WriteCSV(&buf, cfg.Generate.Rows); err != nil {
		return fmt.Errorf("failed to generate data: %w", err)
	}

	if generateUpload != "" {
		ctx := context.Background()
		store, err := storage.NewMinIO(ctx, cfg.Storage)
		if err != nil {
			return fmt.Errorf("failed to connect to object store: %w", err)
		}
		if err := store.Put(ctx, generateUpload, buf.Bytes(), "text/csv"); err != nil {
			return fmt.Errorf("failed to upload: %w", err)
		}
		cmd.Printf("Uploaded %d rows to %s\n", cfg.Generate.Rows, generateUpload)
		return nil
	}

	output := generateOutput
	if output == "" {
		output = "sales_data.csv"
	}
	if err := os.WriteFile(output, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", output, err)
	}
	cmd.Printf("Wrote %d rows to %s\n", cfg.Generate.Rows, output)
	return nil
}
