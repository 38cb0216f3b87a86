package fetcher

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readAllRows(t *testing.T, input string, opts CSVOptions) [][]string {
	t.Helper()
	r := NewCSVReader(strings.NewReader(input), opts)
	var rows [][]string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		rows = append(rows, rec)
	}
	return rows
}

func TestNewCSVReader_Basic(t *testing.T) {
	rows := readAllRows(t, "a,b,c\n1,2,3\n4,5,6\n", CSVOptions{})
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"a", "b", "c"}, rows[0])
	assert.Equal(t, []string{"4", "5", "6"}, rows[2])
}

func TestNewCSVReader_PipeDelimited(t *testing.T) {
	rows := readAllRows(t, "a|b|c\n1|2|3\n", CSVOptions{Delimiter: '|'})
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"1", "2", "3"}, rows[1])
}

func TestNewCSVReader_SpacedQuotes(t *testing.T) {
	input := `"Country","Alpha-2 code","Latitude (average)"` + "\n" +
		`"Albania", "AL", "41"` + "\n" +
		`"Iran, Islamic Republic of", "IR", "32"` + "\n"

	rows := readAllRows(t, input, CSVOptions{TrimLeadingSpace: true})
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Albania", "AL", "41"}, rows[1])
	assert.Equal(t, []string{"Iran, Islamic Republic of", "IR", "32"}, rows[2])
}

func TestNewCSVReader_VariableFields(t *testing.T) {
	rows := readAllRows(t, "a,b\n1\n1,2,3\n", CSVOptions{})
	require.Len(t, rows, 3)
	assert.Len(t, rows[1], 1)
	assert.Len(t, rows[2], 3)
}

func TestNewCSVReader_Comment(t *testing.T) {
	rows := readAllRows(t, "# generated\na,b\n", CSVOptions{Comment: '#'})
	require.Len(t, rows, 1)
	assert.Equal(t, []string{"a", "b"}, rows[0])
}

func TestNewCSVReader_LazyQuotes(t *testing.T) {
	rows := readAllRows(t, "a,b\"c,d\n", CSVOptions{LazyQuotes: true})
	require.Len(t, rows, 1)
	assert.Equal(t, `b"c`, rows[0][1])
}
