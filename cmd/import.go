package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pallet-group/partsdb/internal/db"
	"github.com/pallet-group/partsdb/internal/manifest"
)

var importManifestsPath string

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import manifest spreadsheets into the manifest table",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		importCfg := cfg.Import
		if importManifestsPath != "" {
			importCfg.ManifestsPath = importManifestsPath
		}
		if importCfg.ManifestsPath == "" {
			return eris.New("manifests path is required (PARTSDB_IMPORT_MANIFESTS_PATH or --manifests)")
		}
		if cfg.Store.DatabaseURL == "" {
			return eris.New("database URL is required (PARTSDB_STORE_DATABASE_URL)")
		}

		pool, err := db.Connect(ctx, cfg.Store.DatabaseURL, cfg.Store.Pool)
		if err != nil {
			return err
		}
		defer pool.Close()

		zap.L().Info("starting import run",
			zap.String("manifests", importCfg.ManifestsPath),
			zap.String("state_file", importCfg.StateFile),
		)

		return manifest.NewImporter(pool, importCfg).Run(ctx)
	},
}

func init() {
	importCmd.Flags().StringVar(&importManifestsPath, "manifests", "", "manifest directory root (default from config)")
	rootCmd.AddCommand(importCmd)
}
