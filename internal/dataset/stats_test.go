package dataset

import (
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sheetRows mirrors the layout of the published arrivals table: a title,
// a notes line, the header, data rows, then summary rows.
func sheetRows() [][]string {
	return [][]string{
		{"Small boat arrivals by nationality"},
		{"Source: Home Office"},
		{"Nationality", "Jan 2022", "Feb 2022", "Mar 2022", "End of table"},
		{"Albania", "1,200", "800", "3000", "x"},
		{},
		{"Iran, Islamic Republic of", "400", "[x]", "800"},
		{"Eritrea", "0", "0", "15", ""},
		{"Total", "1,600", "800", "3,815"},
		{"Notes", "", "", ""},
	}
}

func defaultStatsOptions() StatsOptions {
	return StatsOptions{
		Sheet:         "IMB_01b",
		HeaderRow:     2,
		CountryColumn: "Nationality",
		DropColumns:   []string{"End of table"},
		SummaryRows:   2,
	}
}

func TestPrepare(t *testing.T) {
	totals, err := Prepare(sheetRows(), defaultStatsOptions())
	require.NoError(t, err)

	assert.Equal(t, []CountryTotal{
		{Country: "Albania", Total: 5000},
		{Country: "Iran, Islamic Republic of", Total: 1200},
		{Country: "Eritrea", Total: 15},
	}, totals)
}

func TestPrepare_LengthAndSign(t *testing.T) {
	rows := sheetRows()
	opts := defaultStatsOptions()

	// Five non-blank rows below the header.
	for summary := 0; summary <= 5; summary++ {
		opts.SummaryRows = summary
		totals, err := Prepare(rows, opts)
		require.NoError(t, err)
		assert.Len(t, totals, 5-summary)
		for _, ct := range totals {
			assert.GreaterOrEqual(t, ct.Total, 0.0, ct.Country)
		}
	}
}

func TestPrepare_TooManySummaryRows(t *testing.T) {
	opts := defaultStatsOptions()
	opts.SummaryRows = 6

	_, err := Prepare(sheetRows(), opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "6 summary rows")
}

func TestPrepare_MissingDropColumn(t *testing.T) {
	opts := defaultStatsOptions()
	opts.DropColumns = []string{"Notes column"}

	_, err := Prepare(sheetRows(), opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `drop column "Notes column"`)
}

func TestPrepare_MissingCountryColumn(t *testing.T) {
	opts := defaultStatsOptions()
	opts.CountryColumn = "Citizenship"

	_, err := Prepare(sheetRows(), opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "country column")
}

func TestPrepare_HeaderOutOfRange(t *testing.T) {
	opts := defaultStatsOptions()
	opts.HeaderRow = 20

	_, err := Prepare(sheetRows(), opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "header row 20")
}

func TestPrepare_HeaderMatchIsNormalized(t *testing.T) {
	rows := [][]string{
		{" NATIONALITY ", "Jan"},
		{"Syria", "7"},
	}
	totals, err := Prepare(rows, StatsOptions{CountryColumn: "Nationality"})
	require.NoError(t, err)
	assert.Equal(t, []CountryTotal{{Country: "Syria", Total: 7}}, totals)
}

func TestPrepare_IgnoresCellsBeyondHeader(t *testing.T) {
	rows := [][]string{
		{"Nationality", "Jan"},
		{"Syria", "7", "1000"},
	}
	totals, err := Prepare(rows, StatsOptions{CountryColumn: "Nationality"})
	require.NoError(t, err)
	assert.InDelta(t, 7, totals[0].Total, 0.001)
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"12", 12, true},
		{" 1,234 ", 1234, true},
		{"2.5", 2.5, true},
		{"[x]", 0, false},
		{"", 0, false},
		{"NaN", 0, false},
		{"Inf", 0, false},
	}
	for _, tt := range tests {
		got, ok := parseNumber(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.InDelta(t, tt.want, got, 0.0001, tt.in)
	}
}

func TestLoadStatistics_CSV(t *testing.T) {
	fs := afero.NewMemMapFs()
	content := "title\nnotes\nNationality,Jan,Feb,End of table\nAlbania,10,20,\nTotal,10,20,\n"
	require.NoError(t, afero.WriteFile(fs, "stats.csv", []byte(content), 0o644))

	opts := defaultStatsOptions()
	opts.SummaryRows = 1

	totals, err := LoadStatistics(context.Background(), fs, "stats.csv", opts)
	require.NoError(t, err)
	assert.Equal(t, []CountryTotal{{Country: "Albania", Total: 30}}, totals)
}

func TestLoadStatistics_MissingFile(t *testing.T) {
	_, err := LoadStatistics(context.Background(), afero.NewMemMapFs(), "missing.ods", defaultStatsOptions())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dataset: load statistics")
}
