package manifest

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/pallet-group/partsdb/internal/db"
)

// Entry is one manifest row keyed by item number. Upserts overwrite
// description, price and last-received date with the latest values; no
// history is kept.
type Entry struct {
	ItemNumber   string
	Description  string
	UnitPrice    float64
	LastReceived *time.Time
}

// Store writes manifest entries through a Querier, which is the import
// run's transaction in normal operation.
type Store struct {
	q db.Querier
}

// NewStore creates a Store on top of a pool or transaction.
func NewStore(q db.Querier) *Store {
	return &Store{q: q}
}

const upsertSQL = `
INSERT INTO manifest (manifest_item_number, manifest_description, manifest_price, manifest_last_received)
VALUES ($1, $2, $3, $4)
ON CONFLICT (manifest_item_number) DO UPDATE
SET manifest_description = EXCLUDED.manifest_description,
    manifest_price = EXCLUDED.manifest_price,
    manifest_last_received = EXCLUDED.manifest_last_received`

// Upsert inserts or overwrites the entry for its item number.
func (s *Store) Upsert(ctx context.Context, e Entry) error {
	_, err := s.q.Exec(ctx, upsertSQL, e.ItemNumber, e.Description, e.UnitPrice, e.LastReceived)
	if err != nil {
		return eris.Wrapf(err, "manifest: upsert item %s", e.ItemNumber)
	}
	return nil
}

// RunLog records import runs in the import_runs table. It writes through the
// pool, outside the run transaction, so failed runs stay visible after
// rollback.
type RunLog struct {
	q db.Querier
}

// NewRunLog creates a RunLog backed by the given pool.
func NewRunLog(q db.Querier) *RunLog {
	return &RunLog{q: q}
}

// Begin records the start of an import run and returns its ID.
func (l *RunLog) Begin(ctx context.Context) (string, error) {
	id := uuid.NewString()
	_, err := l.q.Exec(ctx,
		`INSERT INTO import_runs (id, status, started_at) VALUES ($1, 'running', now())`,
		id,
	)
	if err != nil {
		return "", eris.Wrap(err, "manifest: begin run log")
	}
	return id, nil
}

// Complete marks a run as successfully finished.
func (l *RunLog) Complete(ctx context.Context, id string, files, rows int64) error {
	_, err := l.q.Exec(ctx,
		`UPDATE import_runs SET status = 'complete', completed_at = now(), files_processed = $2, rows_upserted = $3 WHERE id = $1`,
		id, files, rows,
	)
	if err != nil {
		return eris.Wrapf(err, "manifest: complete run %s", id)
	}
	return nil
}

// Fail marks a run as failed with its error message.
func (l *RunLog) Fail(ctx context.Context, id, msg string) error {
	_, err := l.q.Exec(ctx,
		`UPDATE import_runs SET status = 'failed', completed_at = now(), error = $2 WHERE id = $1`,
		id, msg,
	)
	if err != nil {
		return eris.Wrapf(err, "manifest: fail run %s", id)
	}
	return nil
}
