package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockPool(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })
	return mock
}

func productRows(rows ...[]any) *pgxmock.Rows {
	r := pgxmock.NewRows([]string{"part_number", "description", "image_path"})
	for _, row := range rows {
		r.AddRow(row...)
	}
	return r
}

func TestSearchProductsTwoPhases(t *testing.T) {
	mock := newMockPool(t)

	// Prefix phase hits AB100; description phase hits XY200.
	mock.ExpectQuery(`(?s)FROM product p JOIN images i.+p\.part_number ILIKE \$1`).
		WithArgs("AB").
		WillReturnRows(productRows([]any{"AB100", "widget", "/img/ab100.jpg"}))
	mock.ExpectQuery(`(?s)FROM product p JOIN images i.+p\.description ILIKE`).
		WithArgs("AB").
		WillReturnRows(productRows([]any{"XY200", "AB bracket", "/img/xy200.jpg"}))

	got, err := SearchProducts(context.Background(), mock, Costco, "AB")
	require.NoError(t, err)

	// Prefix results precede description results.
	require.Len(t, got, 2)
	assert.Equal(t, "AB100", got[0].PartNumber)
	assert.Equal(t, "XY200", got[1].PartNumber)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSearchProductsDedupesAcrossPhases(t *testing.T) {
	mock := newMockPool(t)

	// AB100 matches both phases; the prefix hit wins.
	mock.ExpectQuery(`part_number ILIKE \$1`).
		WithArgs("AB").
		WillReturnRows(productRows([]any{"AB100", "AB widget", "/img/a.jpg"}))
	mock.ExpectQuery(`description ILIKE`).
		WithArgs("AB").
		WillReturnRows(productRows(
			[]any{"AB100", "AB widget", "/img/a.jpg"},
			[]any{"ZZ900", "AB mount", "/img/z.jpg"},
		))

	got, err := SearchProducts(context.Background(), mock, Costco, "AB")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "AB100", got[0].PartNumber)
	assert.Equal(t, "ZZ900", got[1].PartNumber)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSearchProductsMultiTermConjunction(t *testing.T) {
	mock := newMockPool(t)

	mock.ExpectQuery(`part_number ILIKE \$1`).
		WithArgs("steel bracket").
		WillReturnRows(productRows())
	// Two terms, two placeholders, AND-joined.
	mock.ExpectQuery(`\(p\.description ILIKE '%' \|\| \$1 \|\| '%'\) AND \(p\.description ILIKE '%' \|\| \$2 \|\| '%'\)`).
		WithArgs("steel", "bracket").
		WillReturnRows(productRows([]any{"ST500", "steel wall bracket", "/img/st.jpg"}))

	got, err := SearchProducts(context.Background(), mock, Costco, "steel bracket")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "ST500", got[0].PartNumber)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSearchProductsAmazonTables(t *testing.T) {
	mock := newMockPool(t)

	mock.ExpectQuery(`FROM amazon_product p JOIN amazon_images i`).
		WithArgs("B0").
		WillReturnRows(productRows([]any{"B0TEST", "cable", "/img/b0.jpg"}))
	mock.ExpectQuery(`FROM amazon_product p JOIN amazon_images i`).
		WithArgs("B0").
		WillReturnRows(productRows())

	got, err := SearchProducts(context.Background(), mock, Amazon, "B0")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSearchManifest(t *testing.T) {
	mock := newMockPool(t)

	date := time.Date(2023, 9, 14, 0, 0, 0, 0, time.UTC)
	prefix := pgxmock.NewRows([]string{"manifest_item_number", "manifest_description", "manifest_price", "manifest_last_received"}).
		AddRow("1733546", "Widget", 2.5, &date)
	desc := pgxmock.NewRows([]string{"manifest_item_number", "manifest_description", "manifest_price", "manifest_last_received"}).
		AddRow("9900011", "Widget crate", 7.33, (*time.Time)(nil))

	mock.ExpectQuery(`FROM manifest\s+WHERE manifest_item_number ILIKE \$1`).
		WithArgs("Widget").
		WillReturnRows(prefix)
	mock.ExpectQuery(`FROM manifest\s+WHERE \(manifest_description ILIKE`).
		WithArgs("Widget").
		WillReturnRows(desc)

	got, err := SearchManifest(context.Background(), mock, "Widget")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "1733546", got[0].PartNumber)
	require.NotNil(t, got[0].Date)
	assert.Equal(t, "2023-09-14", got[0].Date.Format("2006-01-02"))
	assert.Nil(t, got[1].Date)
	assert.NoError(t, mock.ExpectationsWereMet())
}
