package fetcher

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/afero"
)

// ReadSheet reads one worksheet from an .xlsx, .ods or .csv file on fs.
// CSV files have a single sheet, so sheet selection is ignored for them.
func ReadSheet(ctx context.Context, fs afero.Fs, path string, opts SheetOptions) ([][]string, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, eris.Wrapf(err, "spreadsheet: read %s", path)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".xlsx", ".xlsm":
		return ReadXLSX(data, opts)
	case ".ods":
		return ReadODS(ctx, data, opts)
	case ".csv":
		return readCSVSheet(data, opts)
	default:
		return nil, eris.Errorf("spreadsheet: unsupported file type %q", ext)
	}
}

func readCSVSheet(data []byte, opts SheetOptions) ([][]string, error) {
	reader := NewCSVReader(bytes.NewReader(data), CSVOptions{TrimLeadingSpace: true})

	var rows [][]string
	for i := 0; ; i++ {
		record, err := reader.Read()
		if err == io.EOF {
			return rows, nil
		}
		if err != nil {
			return nil, eris.Wrap(err, "csv: read row")
		}
		if i < opts.SkipRows {
			continue
		}
		rows = append(rows, record)
	}
}
