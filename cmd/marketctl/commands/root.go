package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jafarshop/marketplace/internal/app"
	"github.com/jafarshop/marketplace/internal/config"
)

var (
	// Global flags
	verbose    bool
	jsonOutput bool
	envFile    string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "marketctl",
	Short: "Operator tool for the marketplace",
	Long: `marketctl runs maintenance tasks against the marketplace database using the
same configuration as the server (.env and environment variables).

Commands:
  migrate         - Apply the embedded schema
  create-admin    - Create an admin account
  approve-seller  - Approve a pending seller
  payouts         - List and process payouts
  wallet verify   - Check a wallet against its transaction log`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "Load variables from this file before reading configuration")
}

// loadConfig reads configuration and builds the logger; logs stay quiet unless --verbose.
// Variables already set in the environment win over --env-file.
func loadConfig() (*config.Config, *zap.Logger, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, nil, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if !verbose {
		return cfg, zap.NewNop(), nil
	}
	logger, err := app.NewLogger(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

// openApp wires storage and services. The schema is not migrated here; run `marketctl migrate` first.
func openApp(ctx context.Context) (*app.App, error) {
	cfg, logger, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if cfg.StorageDriver == config.StorageMemory {
		return nil, fmt.Errorf("marketctl needs persistent storage; STORAGE_DRIVER is %q", cfg.StorageDriver)
	}
	return app.New(ctx, cfg, logger, false)
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
