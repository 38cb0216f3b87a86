package dataset

import (
	"context"
	"math"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/sells-group/geomap/internal/fetcher"
)

// StatsOptions describes the layout of the statistics sheet.
type StatsOptions struct {
	Sheet         string
	HeaderRow     int // 0-based index of the header within the sheet
	CountryColumn string
	DropColumns   []string
	SummaryRows   int // rows removed from the bottom (totals, footnotes)
}

// LoadStatistics reads the configured sheet from path and prepares it.
func LoadStatistics(ctx context.Context, fs afero.Fs, path string, opts StatsOptions) ([]CountryTotal, error) {
	rows, err := fetcher.ReadSheet(ctx, fs, path, fetcher.SheetOptions{SheetName: opts.Sheet})
	if err != nil {
		return nil, eris.Wrap(err, "dataset: load statistics")
	}

	totals, err := Prepare(rows, opts)
	if err != nil {
		return nil, err
	}

	zap.L().Info("dataset: statistics prepared",
		zap.String("path", path),
		zap.String("sheet", opts.Sheet),
		zap.Int("rows", len(totals)),
	)
	return totals, nil
}

// Prepare turns raw sheet rows into per-country totals. Rows above the
// header are ignored and blank rows are discarded. Each total is the sum of
// the numeric cells outside the country and dropped columns; thousands
// separators are accepted and cells such as "[x]" are skipped. The last
// SummaryRows data rows are removed.
func Prepare(rows [][]string, opts StatsOptions) ([]CountryTotal, error) {
	if opts.HeaderRow < 0 || opts.HeaderRow >= len(rows) {
		return nil, eris.Errorf("dataset: header row %d not found (sheet has %d rows)", opts.HeaderRow, len(rows))
	}
	if opts.SummaryRows < 0 {
		return nil, eris.Errorf("dataset: summary rows must not be negative, got %d", opts.SummaryRows)
	}

	header := rows[opts.HeaderRow]
	countryIdx := columnIndex(header, opts.CountryColumn)
	if countryIdx < 0 {
		return nil, eris.Errorf("dataset: country column %q not in header", opts.CountryColumn)
	}

	skip := map[int]bool{countryIdx: true}
	for _, col := range opts.DropColumns {
		idx := columnIndex(header, col)
		if idx < 0 {
			return nil, eris.Errorf("dataset: drop column %q not in header", col)
		}
		skip[idx] = true
	}

	var data []CountryTotal
	for _, row := range rows[opts.HeaderRow+1:] {
		if isBlank(row) {
			continue
		}
		ct := CountryTotal{}
		if countryIdx < len(row) {
			ct.Country = strings.TrimSpace(row[countryIdx])
		}
		for i, cell := range row {
			if i >= len(header) || skip[i] {
				continue
			}
			if n, ok := parseNumber(cell); ok {
				ct.Total += n
			}
		}
		data = append(data, ct)
	}

	if opts.SummaryRows > len(data) {
		return nil, eris.Errorf("dataset: %d summary rows requested but sheet has %d data rows", opts.SummaryRows, len(data))
	}
	return data[:len(data)-opts.SummaryRows], nil
}

func columnIndex(header []string, name string) int {
	want := Key(name)
	for i, h := range header {
		if Key(h) == want {
			return i
		}
	}
	return -1
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// parseNumber parses a numeric cell, tolerating thousands separators.
func parseNumber(s string) (float64, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0, false
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	// ParseFloat accepts "NaN" and "Inf" spellings.
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}
