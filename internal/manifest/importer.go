package manifest

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/pallet-group/partsdb/internal/config"
	"github.com/pallet-group/partsdb/internal/db"
)

// Importer walks the manifest directory tree and imports every workbook not
// yet in the processed-file set. The whole run executes in one transaction:
// a row failure anywhere rolls back everything, so a rerun starts clean.
type Importer struct {
	pool db.Pool
	cfg  config.ImportConfig
}

// NewImporter creates an Importer.
func NewImporter(pool db.Pool, cfg config.ImportConfig) *Importer {
	return &Importer{pool: pool, cfg: cfg}
}

// Run executes one import pass: load state, visit dated subdirectories
// oldest first, import unseen workbooks, commit, then flush state. The
// commit happens before the state write; a crash between the two re-imports
// files on the next run, which the upsert makes harmless.
func (imp *Importer) Run(ctx context.Context) error {
	state, err := LoadState(imp.cfg.StateFile)
	if err != nil {
		return err
	}

	subdirs, err := listSubdirsByAge(imp.cfg.ManifestsPath)
	if err != nil {
		return err
	}

	runlog := NewRunLog(imp.pool)
	runID, err := runlog.Begin(ctx)
	if err != nil {
		return err
	}

	files, rows, err := imp.runTx(ctx, state, subdirs)
	if err != nil {
		if logErr := runlog.Fail(ctx, runID, err.Error()); logErr != nil {
			zap.L().Warn("manifest: run log update failed", zap.Error(logErr))
		}
		return err
	}

	if err := state.Save(); err != nil {
		return err
	}
	if err := runlog.Complete(ctx, runID, files, rows); err != nil {
		zap.L().Warn("manifest: run log update failed", zap.Error(err))
	}

	zap.L().Info("manifest: import run complete",
		zap.String("run_id", runID),
		zap.Int64("files", files),
		zap.Int64("rows", rows),
	)
	return nil
}

// runTx imports all unseen workbooks inside a single transaction and
// commits it.
func (imp *Importer) runTx(ctx context.Context, state *State, subdirs []string) (files, rows int64, err error) {
	tx, err := imp.pool.Begin(ctx)
	if err != nil {
		return 0, 0, eris.Wrap(err, "manifest: begin tx")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := NewStore(tx)

	for _, dir := range subdirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return files, rows, eris.Wrapf(err, "manifest: read dir %s", dir)
		}

		for _, entry := range entries {
			name := entry.Name()
			if entry.IsDir() || !strings.HasSuffix(name, ".xlsx") {
				continue
			}
			if strings.HasPrefix(name, "~$") {
				// Excel lock artifact.
				zap.L().Debug("manifest: skipping lock file", zap.String("file", name))
				continue
			}

			path := filepath.Join(dir, name)
			if state.Has(path) {
				zap.L().Debug("manifest: already imported", zap.String("file", path))
				continue
			}

			fileDate, err := ParseFileDate(name)
			if err != nil {
				return files, rows, err
			}

			n, err := ProcessWorkbook(ctx, store, path, fileDate, state)
			if err != nil {
				return files, rows, err
			}
			if state.Has(path) {
				files++
			}
			rows += n
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return files, rows, eris.Wrap(err, "manifest: commit tx")
	}
	return files, rows, nil
}

// listSubdirsByAge returns the immediate subdirectories of root ordered by
// modification time ascending, so the oldest manifest batch imports first
// and the newest wins overwrite precedence.
func listSubdirsByAge(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, eris.Wrapf(err, "manifest: read manifests dir %s", root)
	}

	type dirAge struct {
		path string
		mod  int64
	}
	var dirs []dirAge
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return nil, eris.Wrapf(err, "manifest: stat %s", entry.Name())
		}
		dirs = append(dirs, dirAge{
			path: filepath.Join(root, entry.Name()),
			mod:  info.ModTime().UnixNano(),
		})
	}

	sort.Slice(dirs, func(i, j int) bool { return dirs[i].mod < dirs[j].mod })

	paths := make([]string, len(dirs))
	for i, d := range dirs {
		paths[i] = d.path
	}
	return paths, nil
}
