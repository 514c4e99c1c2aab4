package catalog

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/pallet-group/partsdb/internal/db"
)

// SearchProducts runs both search phases against a catalog and returns the
// concatenated results, prefix hits first, deduplicated by part number.
// A query with no whitespace-separated terms skips the description phase
// rather than degrading it to a match-all filter.
func SearchProducts(ctx context.Context, q db.Querier, cat Catalog, query string) ([]Product, error) {
	results, err := queryProducts(ctx, q, cat.prefixSQL(), query)
	if err != nil {
		return nil, eris.Wrapf(err, "catalog: %s prefix search", cat.ProductTable)
	}

	terms := strings.Fields(query)
	if len(terms) > 0 {
		descHits, err := queryProducts(ctx, q, cat.descriptionSQL(len(terms)), termArgs(terms)...)
		if err != nil {
			return nil, eris.Wrapf(err, "catalog: %s description search", cat.ProductTable)
		}
		results = append(results, descHits...)
	}

	return dedupeProducts(results), nil
}

// SearchManifest runs both search phases against the manifest table.
func SearchManifest(ctx context.Context, q db.Querier, query string) ([]ManifestRow, error) {
	const prefixSQL = `SELECT manifest_item_number, manifest_description, manifest_price, manifest_last_received
FROM manifest
WHERE manifest_item_number ILIKE $1 || '%'
ORDER BY manifest_item_number ASC`

	results, err := queryManifest(ctx, q, prefixSQL, query)
	if err != nil {
		return nil, eris.Wrap(err, "catalog: manifest prefix search")
	}

	terms := strings.Fields(query)
	if len(terms) > 0 {
		descSQL := `SELECT manifest_item_number, manifest_description, manifest_price, manifest_last_received
FROM manifest
WHERE ` + termConditions("manifest_description", len(terms)) + `
ORDER BY manifest_item_number ASC`

		descHits, err := queryManifest(ctx, q, descSQL, termArgs(terms)...)
		if err != nil {
			return nil, eris.Wrap(err, "catalog: manifest description search")
		}
		results = append(results, descHits...)
	}

	return dedupeManifest(results), nil
}

func queryProducts(ctx context.Context, q db.Querier, sql string, args ...any) ([]Product, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.PartNumber, &p.Description, &p.Image); err != nil {
			return nil, eris.Wrap(err, "catalog: scan product row")
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "catalog: rows iteration")
	}
	return out, nil
}

func queryManifest(ctx context.Context, q db.Querier, sql string, args ...any) ([]ManifestRow, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ManifestRow
	for rows.Next() {
		var m ManifestRow
		if err := rows.Scan(&m.PartNumber, &m.Description, &m.Price, &m.Date); err != nil {
			return nil, eris.Wrap(err, "catalog: scan manifest row")
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "catalog: rows iteration")
	}
	return out, nil
}

// dedupeProducts keeps the first occurrence of each part number, which
// preserves prefix-phase ordering priority.
func dedupeProducts(in []Product) []Product {
	seen := make(map[string]struct{}, len(in))
	out := in[:0]
	for _, p := range in {
		if _, ok := seen[p.PartNumber]; ok {
			continue
		}
		seen[p.PartNumber] = struct{}{}
		out = append(out, p)
	}
	return out
}

func dedupeManifest(in []ManifestRow) []ManifestRow {
	seen := make(map[string]struct{}, len(in))
	out := in[:0]
	for _, m := range in {
		if _, ok := seen[m.PartNumber]; ok {
			continue
		}
		seen[m.PartNumber] = struct{}{}
		out = append(out, m)
	}
	return out
}
