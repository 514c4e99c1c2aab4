package manifest

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
)

// writeWorkbook writes an xlsx file whose rows use the manifest layout:
// column 0 unused, columns 1-4 item/description/quantity/price.
func writeWorkbook(t *testing.T, path string, rows [][]any) {
	t.Helper()

	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Sheet1")
	require.NoError(t, err)

	for _, cells := range rows {
		row := sheet.AddRow()
		for _, v := range cells {
			cell := row.AddCell()
			switch val := v.(type) {
			case string:
				cell.SetString(val)
			case float64:
				cell.SetFloat(val)
			case int:
				cell.SetInt(val)
			}
		}
	}
	require.NoError(t, f.Save(path))
}

func headerRow() []any {
	return []any{"", headerToken, "Description", "Qty", "Price"}
}

func newMockStore(t *testing.T) (*Store, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })
	return NewStore(mock), mock
}

func TestProcessWorkbook(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "230914_manifest.xlsx")
	writeWorkbook(t, path, [][]any{
		headerRow(),
		{"", "1733546", "Widget", 4.0, 10.0},
		{"", "1733547", "Bracket", 3.0, 10.0},
		{"", "", "", "", ""}, // sentinel
		{"", "9999999", "never reached", 1.0, 1.0},
	})

	store, mock := newMockStore(t)
	date, err := ParseFileDate("230914_manifest.xlsx")
	require.NoError(t, err)

	mock.ExpectExec(`INSERT INTO manifest`).
		WithArgs("1733546", "Widget", 2.5, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`INSERT INTO manifest`).
		WithArgs("1733547", "Bracket", 3.33, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	state, err := LoadState(filepath.Join(dir, "filenames.json"))
	require.NoError(t, err)

	rows, err := ProcessWorkbook(context.Background(), store, path, date, state)
	require.NoError(t, err)
	assert.Equal(t, int64(2), rows)
	assert.True(t, state.Has(path))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProcessWorkbookMalformedHeader(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "230914.xlsx")
	writeWorkbook(t, path, [][]any{
		{"", "1733546", "Widget", 4.0, 10.0}, // data where header should be
	})

	store, mock := newMockStore(t)
	state, err := LoadState(filepath.Join(dir, "filenames.json"))
	require.NoError(t, err)

	rows, err := ProcessWorkbook(context.Background(), store, path, nil, state)
	require.NoError(t, err)
	assert.Equal(t, int64(0), rows)

	// Not marked processed: the file is retried on the next run.
	assert.False(t, state.Has(path))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProcessWorkbookZeroQuantity(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "230914.xlsx")
	writeWorkbook(t, path, [][]any{
		headerRow(),
		{"", "1733546", "Widget", 0.0, 10.0},
	})

	store, mock := newMockStore(t)
	state, err := LoadState(filepath.Join(dir, "filenames.json"))
	require.NoError(t, err)

	_, err = ProcessWorkbook(context.Background(), store, path, nil, state)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "division by zero")
	assert.Contains(t, err.Error(), "1733546")
	assert.False(t, state.Has(path))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProcessWorkbookRowErrorIsFatal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "230914.xlsx")
	writeWorkbook(t, path, [][]any{
		headerRow(),
		{"", "1733546", "Widget", 4.0, 10.0},
		{"", "1733547", "Bracket", 2.0, 8.0},
	})

	store, mock := newMockStore(t)
	mock.ExpectExec(`INSERT INTO manifest`).
		WithArgs("1733546", "Widget", 2.5, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`INSERT INTO manifest`).
		WithArgs("1733547", "Bracket", 4.0, pgxmock.AnyArg()).
		WillReturnError(assert.AnError)

	state, err := LoadState(filepath.Join(dir, "filenames.json"))
	require.NoError(t, err)

	_, err = ProcessWorkbook(context.Background(), store, path, nil, state)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1733547")
	assert.Contains(t, err.Error(), path)
	assert.False(t, state.Has(path))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUnitPrice(t *testing.T) {
	got, err := UnitPrice(10, 4)
	require.NoError(t, err)
	assert.InDelta(t, 2.50, got, 1e-9)

	got, err = UnitPrice(10, 3)
	require.NoError(t, err)
	assert.InDelta(t, 3.33, got, 1e-9)

	// Half-to-even: 1/8 = 0.125 rounds down to 0.12.
	got, err = UnitPrice(1, 8)
	require.NoError(t, err)
	assert.InDelta(t, 0.12, got, 1e-9)

	_, err = UnitPrice(10, 0)
	require.Error(t, err)
}
