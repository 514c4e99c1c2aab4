package manifest

import (
	"context"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"
)

// headerToken is the expected first-row item-number cell of a well-formed
// manifest sheet.
const headerToken = "Item #"

// ProcessWorkbook imports every data row of one manifest workbook through
// the store and, on success, marks the path processed. The workbook is
// copied to a private temp location before reading so a live Excel lock on
// the original cannot corrupt the read.
//
// Sheet layout: columns 1-4 are item number, description, quantity and
// price; column 0 and columns past 4 are ignored. A first row whose item
// cell is not the header token marks the file malformed: it is skipped with
// a warning and left out of the state set, so it is retried next run. A row
// with empty item number and description ends the sheet.
//
// Any row-level failure (bad numbers, zero quantity, store error) aborts
// the whole file with an error; the caller owns the transaction and decides
// to roll back the run.
func ProcessWorkbook(ctx context.Context, store *Store, path string, fileDate *time.Time, state *State) (int64, error) {
	tmpDir, err := os.MkdirTemp("", "partsdb-manifest-")
	if err != nil {
		return 0, eris.Wrap(err, "manifest: create temp dir")
	}
	defer os.RemoveAll(tmpDir)

	tmpPath := filepath.Join(tmpDir, filepath.Base(path))
	if err := copyFile(path, tmpPath); err != nil {
		return 0, err
	}

	f, err := xlsx.OpenFile(tmpPath)
	if err != nil {
		return 0, eris.Wrapf(err, "manifest: open workbook %s", path)
	}
	if len(f.Sheets) == 0 {
		return 0, eris.Errorf("manifest: workbook %s has no sheets", path)
	}
	sheet := f.Sheets[0]

	var rows int64
	for i, row := range sheet.Rows {
		item := strings.TrimSpace(cellString(row, 1))
		desc := cellString(row, 2)

		if i == 0 {
			if item != headerToken {
				zap.L().Warn("manifest: malformed header, skipping file",
					zap.String("file", path),
					zap.String("got", item),
				)
				return 0, nil
			}
			continue
		}

		if item == "" && strings.TrimSpace(desc) == "" {
			// End-of-data sentinel.
			break
		}

		quantity, err := cellFloat(row, 3)
		if err != nil {
			return rows, eris.Wrapf(err, "manifest: item %s in %s: bad quantity", item, path)
		}
		price, err := cellFloat(row, 4)
		if err != nil {
			return rows, eris.Wrapf(err, "manifest: item %s in %s: bad price", item, path)
		}

		unitPrice, err := UnitPrice(price, quantity)
		if err != nil {
			return rows, eris.Wrapf(err, "manifest: item %s in %s", item, path)
		}

		entry := Entry{
			ItemNumber:   item,
			Description:  desc,
			UnitPrice:    unitPrice,
			LastReceived: fileDate,
		}
		if err := store.Upsert(ctx, entry); err != nil {
			return rows, eris.Wrapf(err, "manifest: item %s in %s", item, path)
		}
		rows++
	}

	state.Add(path)
	zap.L().Info("manifest: file imported",
		zap.String("file", path),
		zap.Int64("rows", rows),
	)
	return rows, nil
}

// UnitPrice computes the per-item price, rounded half-to-even at two
// decimal places. A zero quantity is an error that aborts the run.
func UnitPrice(price, quantity float64) (float64, error) {
	if quantity == 0 {
		return 0, eris.New("division by zero quantity")
	}
	return math.RoundToEven(price/quantity*100) / 100, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return eris.Wrapf(err, "manifest: open %s", src)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return eris.Wrapf(err, "manifest: create %s", dst)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return eris.Wrapf(err, "manifest: copy %s", src)
	}
	return nil
}

func cellString(row *xlsx.Row, idx int) string {
	if idx >= len(row.Cells) {
		return ""
	}
	return row.Cells[idx].String()
}

func cellFloat(row *xlsx.Row, idx int) (float64, error) {
	if idx >= len(row.Cells) {
		return 0, eris.Errorf("missing cell %d", idx)
	}
	return row.Cells[idx].Float()
}
