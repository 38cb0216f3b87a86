package fetcher

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
)

func createTestXLSX(t *testing.T, sheets map[string][][]string) []byte {
	t.Helper()
	f := xlsx.NewFile()
	for name, rows := range sheets {
		sheet, err := f.AddSheet(name)
		require.NoError(t, err)
		for _, rowData := range rows {
			row := sheet.AddRow()
			for _, cellData := range rowData {
				cell := row.AddCell()
				cell.SetString(cellData)
			}
		}
	}
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return buf.Bytes()
}

func TestReadXLSX_Basic(t *testing.T) {
	data := createTestXLSX(t, map[string][][]string{
		"Sheet1": {
			{"Name", "Age", "City"},
			{"Alice", "30", "NYC"},
			{"Bob", "25", "LA"},
		},
	})

	rows, err := ReadXLSX(data, SheetOptions{})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Name", "Age", "City"}, rows[0])
	assert.Equal(t, []string{"Alice", "30", "NYC"}, rows[1])
	assert.Equal(t, []string{"Bob", "25", "LA"}, rows[2])
}

func TestReadXLSX_SkipRows(t *testing.T) {
	data := createTestXLSX(t, map[string][][]string{
		"Sheet1": {
			{"Header1", "Header2"},
			{"a", "b"},
			{"c", "d"},
		},
	})

	rows, err := ReadXLSX(data, SheetOptions{SkipRows: 1})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"a", "b"}, rows[0])
	assert.Equal(t, []string{"c", "d"}, rows[1])
}

func TestReadXLSX_SheetName(t *testing.T) {
	data := createTestXLSX(t, map[string][][]string{
		"First":   {{"a", "b"}},
		"IMB_01b": {{"x", "y"}, {"1", "2"}},
	})

	rows, err := ReadXLSX(data, SheetOptions{SheetName: "IMB_01b"})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"x", "y"}, rows[0])
	assert.Equal(t, []string{"1", "2"}, rows[1])
}

func TestReadXLSX_SheetNameNotFound(t *testing.T) {
	data := createTestXLSX(t, map[string][][]string{
		"Sheet1": {{"a"}},
	})

	_, err := ReadXLSX(data, SheetOptions{SheetName: "Missing"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestReadXLSX_SheetIndexOutOfRange(t *testing.T) {
	data := createTestXLSX(t, map[string][][]string{
		"Sheet1": {{"a"}},
	})

	_, err := ReadXLSX(data, SheetOptions{SheetIndex: 5})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of range")
}

func TestReadXLSX_NotAWorkbook(t *testing.T) {
	_, err := ReadXLSX([]byte("not a zip"), SheetOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "xlsx: open file")
}
