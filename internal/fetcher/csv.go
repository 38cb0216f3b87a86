// Package fetcher downloads and parses data from HTTP, CSV, XML, XLSX, ODS, and ZIP sources.
package fetcher

import (
	"encoding/csv"
	"io"
)

// CSVOptions configures the CSV reader.
type CSVOptions struct {
	Delimiter        rune // default ','
	Comment          rune // comment character (0 = none)
	LazyQuotes       bool
	TrimLeadingSpace bool // accept `"a", "b"` style rows
}

// NewCSVReader returns a csv.Reader configured from opts. Rows may have a
// variable number of fields.
func NewCSVReader(r io.Reader, opts CSVOptions) *csv.Reader {
	reader := csv.NewReader(r)
	if opts.Delimiter != 0 {
		reader.Comma = opts.Delimiter
	}
	if opts.Comment != 0 {
		reader.Comment = opts.Comment
	}
	reader.LazyQuotes = opts.LazyQuotes
	reader.TrimLeadingSpace = opts.TrimLeadingSpace
	reader.FieldsPerRecord = -1 // allow variable fields
	return reader
}
