package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pallet-group/partsdb/internal/db"
)

// migrationSQL creates the tables this system owns. The catalog tables
// (product/images, amazon_product/amazon_images) belong to the catalog
// mirror jobs and are read-only here.
const migrationSQL = `
CREATE TABLE IF NOT EXISTS manifest (
	manifest_item_number   TEXT PRIMARY KEY,
	manifest_description   TEXT,
	manifest_price         NUMERIC(12,2),
	manifest_last_received DATE
);

CREATE TABLE IF NOT EXISTS import_runs (
	id              TEXT PRIMARY KEY,
	status          TEXT NOT NULL DEFAULT 'running',
	started_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
	completed_at    TIMESTAMPTZ,
	files_processed BIGINT NOT NULL DEFAULT 0,
	rows_upserted   BIGINT NOT NULL DEFAULT 0,
	error           TEXT
);

CREATE INDEX IF NOT EXISTS idx_import_runs_started_at ON import_runs(started_at DESC);
`

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the manifest and import_runs tables",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if cfg.Store.DatabaseURL == "" {
			return eris.New("database URL is required (PARTSDB_STORE_DATABASE_URL)")
		}

		pool, err := db.Connect(ctx, cfg.Store.DatabaseURL, cfg.Store.Pool)
		if err != nil {
			return err
		}
		defer pool.Close()

		if _, err := pool.Exec(ctx, migrationSQL); err != nil {
			return eris.Wrap(err, "migrate: apply schema")
		}

		zap.L().Info("migration complete")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
