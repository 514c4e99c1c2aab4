// Package manifest implements the Costco return-manifest importer: filename
// date extraction, workbook row processing, the processed-file state set,
// and the directory-walking import driver.
package manifest

import (
	"regexp"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
)

// Manifest filenames carry a YYMMDD run, sometimes with a trailing batch
// suffix, e.g. "230914_manifest.xlsx" or "230914b.xlsx".
var fileDatePattern = regexp.MustCompile(`\d{6}[a-zA-Z0-9]*`)

// ParseFileDate extracts the received date from a manifest filename.
// Returns nil with no error when the filename carries no date run; rows from
// such a file are imported with a NULL last-received date. An out-of-range
// month or day is a hard error for the file.
func ParseFileDate(filename string) (*time.Time, error) {
	match := fileDatePattern.FindString(filename)
	if match == "" {
		return nil, nil
	}

	year, _ := strconv.Atoi(match[0:2])
	month, _ := strconv.Atoi(match[2:4])
	day, _ := strconv.Atoi(match[4:6])

	// time.Date normalizes out-of-range components instead of failing,
	// so validate by round-trip.
	t := time.Date(2000+year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Year() != 2000+year || int(t.Month()) != month || t.Day() != day {
		return nil, eris.Errorf("manifest: invalid date %q in filename %q", match[:6], filename)
	}

	return &t, nil
}
