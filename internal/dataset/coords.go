package dataset

import (
	"io"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"
	"github.com/spf13/afero"

	"github.com/sells-group/geomap/internal/fetcher"
)

// CoordColumns names the reference table columns. Empty fields fall back to
// the column names of the published country-coord.csv.
type CoordColumns struct {
	Country   string
	Latitude  string
	Longitude string
}

func (c CoordColumns) withDefaults() CoordColumns {
	if c.Country == "" {
		c.Country = "Country"
	}
	if c.Latitude == "" {
		c.Latitude = "Latitude (average)"
	}
	if c.Longitude == "" {
		c.Longitude = "Longitude (average)"
	}
	return c
}

// LoadCentroidsFile reads the reference table at path on fs.
func LoadCentroidsFile(fs afero.Fs, path string, cols CoordColumns) ([]Centroid, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "dataset: open coordinates %s", path)
	}
	defer f.Close() //nolint:errcheck

	return LoadCentroids(f, cols)
}

// LoadCentroids decodes the country reference table. Values may carry a
// leading space after the delimiter, as in `"Albania", "AL"`.
func LoadCentroids(r io.Reader, cols CoordColumns) ([]Centroid, error) {
	cols = cols.withDefaults()
	reader := fetcher.NewCSVReader(r, fetcher.CSVOptions{TrimLeadingSpace: true})

	raw, err := reader.Read()
	if err == io.EOF {
		return nil, eris.New("dataset: coordinates file is empty")
	}
	if err != nil {
		return nil, eris.Wrap(err, "dataset: read coordinates header")
	}

	// Rename the configured columns to the struct tag names.
	rename := map[string]string{
		Key(cols.Country):   "Country",
		Key(cols.Latitude):  "Latitude (average)",
		Key(cols.Longitude): "Longitude (average)",
	}
	header := make([]string, len(raw))
	found := make(map[string]bool, len(rename))
	for i, h := range raw {
		header[i] = h
		if to, ok := rename[Key(h)]; ok {
			header[i] = to
			found[to] = true
		}
	}
	for _, want := range []string{"Country", "Latitude (average)", "Longitude (average)"} {
		if !found[want] {
			return nil, eris.Errorf("dataset: coordinates missing column for %q", want)
		}
	}

	dec, err := csvutil.NewDecoder(reader, header...)
	if err != nil {
		return nil, eris.Wrap(err, "dataset: coordinates decoder")
	}

	var out []Centroid
	for {
		var c Centroid
		if err := dec.Decode(&c); err == io.EOF {
			break
		} else if err != nil {
			return nil, eris.Wrapf(err, "dataset: decode coordinates row %d", len(out)+2)
		}
		out = append(out, c)
	}
	return out, nil
}
