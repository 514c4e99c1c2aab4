// Package catalog runs the two-phase part search used by every catalog
// endpoint: an exact prefix match on the part number, then a token-AND
// substring match on the description, both case-insensitive and ordered by
// part number. Prefix hits come first and win deduplication.
package catalog

import (
	"fmt"
	"strings"
	"time"
)

// Catalog describes a product table and its 1:1 image table joined on
// part_number.
type Catalog struct {
	ProductTable string
	ImageTable   string
}

// The two locally mirrored catalogs.
var (
	Costco = Catalog{ProductTable: "product", ImageTable: "images"}
	Amazon = Catalog{ProductTable: "amazon_product", ImageTable: "amazon_images"}
)

// Product is one catalog search hit.
type Product struct {
	PartNumber  string `json:"part_number"`
	Description string `json:"description"`
	Image       string `json:"image"`
}

// ManifestRow is one manifest search hit.
type ManifestRow struct {
	PartNumber  string     `json:"part_number"`
	Description string     `json:"description"`
	Price       float64    `json:"price"`
	Date        *time.Time `json:"date"`
}

// prefixSQL matches part numbers starting with the whole query string.
func (c Catalog) prefixSQL() string {
	return fmt.Sprintf(`SELECT p.part_number, p.description, i.image_path
FROM %s p JOIN %s i ON i.part_number = p.part_number
WHERE p.part_number ILIKE $1 || '%%'
ORDER BY p.part_number ASC`, c.ProductTable, c.ImageTable)
}

// descriptionSQL matches descriptions containing every query term.
func (c Catalog) descriptionSQL(nTerms int) string {
	return fmt.Sprintf(`SELECT p.part_number, p.description, i.image_path
FROM %s p JOIN %s i ON i.part_number = p.part_number
WHERE %s
ORDER BY p.part_number ASC`, c.ProductTable, c.ImageTable, termConditions("p.description", nTerms))
}

// termConditions builds the AND-joined ILIKE filters for n placeholders.
func termConditions(column string, n int) string {
	conds := make([]string, n)
	for i := range conds {
		conds[i] = fmt.Sprintf("(%s ILIKE '%%' || $%d || '%%')", column, i+1)
	}
	return strings.Join(conds, " AND ")
}

// termArgs converts query terms to query arguments.
func termArgs(terms []string) []any {
	args := make([]any, len(terms))
	for i, t := range terms {
		args[i] = t
	}
	return args
}
