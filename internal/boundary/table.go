package boundary

import (
	"encoding/csv"
	"io"
	"path/filepath"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"
	"github.com/spf13/afero"
	"github.com/twpayne/go-geom"
)

// Row is the flattened, tabular view of one boundary.
type Row struct {
	ID           string  `csv:"id"`
	Name         string  `csv:"name"`
	Key          string  `csv:"key"`
	GeometryType string  `csv:"geometry_type"`
	Polygons     int     `csv:"polygons"`
	MinLon       float64 `csv:"min_lon"`
	MinLat       float64 `csv:"min_lat"`
	MaxLon       float64 `csv:"max_lon"`
	MaxLat       float64 `csv:"max_lat"`
}

// Flatten returns one row per boundary in input order.
func Flatten(bs []Boundary) []Row {
	rows := make([]Row, 0, len(bs))
	for _, b := range bs {
		r := Row{ID: b.ID, Name: b.Name, Key: b.Key}

		switch g := b.Geometry.(type) {
		case *geom.Polygon:
			r.GeometryType, r.Polygons = "Polygon", 1
		case *geom.MultiPolygon:
			r.GeometryType, r.Polygons = "MultiPolygon", g.NumPolygons()
		}

		if b.Geometry != nil && !b.Geometry.Bounds().IsEmpty() {
			bounds := b.Geometry.Bounds()
			r.MinLon, r.MinLat = bounds.Min(0), bounds.Min(1)
			r.MaxLon, r.MaxLat = bounds.Max(0), bounds.Max(1)
		}
		rows = append(rows, r)
	}
	return rows
}

// WriteTable encodes rows as CSV with a header line.
func WriteTable(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	enc := csvutil.NewEncoder(cw)
	enc.AutoHeader = false

	if err := enc.EncodeHeader(Row{}); err != nil {
		return eris.Wrap(err, "boundary: write table header")
	}
	for _, r := range rows {
		if err := enc.Encode(r); err != nil {
			return eris.Wrapf(err, "boundary: write table row %s", r.ID)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return eris.Wrap(err, "boundary: flush table")
	}
	return nil
}

// WriteTableFile writes the flattened table for bs to path on fs.
func WriteTableFile(fs afero.Fs, path string, bs []Boundary) error {
	if err := fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrapf(err, "boundary: create directory for %s", path)
	}
	f, err := fs.Create(path)
	if err != nil {
		return eris.Wrapf(err, "boundary: create %s", path)
	}
	if err := WriteTable(f, Flatten(bs)); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return eris.Wrapf(err, "boundary: close %s", path)
	}
	return nil
}
