package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pallet-group/partsdb/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "partsdb",
	Short: "Manifest importer and parts search API",
	Long:  "Imports Costco return-manifest spreadsheets into Postgres and serves the parts search API over the local Costco, Amazon and manifest catalogs plus the international Costco proxy search.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
