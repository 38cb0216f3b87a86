package pipeline

import (
	"image"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/geomap/internal/config"
)

const statsCSV = `Small boat arrivals by nationality
Source: Home Office
Nationality,Jan 2022,Feb 2022,End of table
Albania,"1,200",800,x

"Iran, Islamic Republic of",400,[x],
Atlantis,10,5,
Total,"1,610",805,
Notes
`

const coordsCSV = `"Country", "Alpha-2 code", "Alpha-3 code", "Numeric code", "Latitude (average)", "Longitude (average)"
"Albania", "AL", "ALB", "8", "41", "20"
"Iran, Islamic Republic of", "IR", "IRN", "364", "32", "53"
"United Kingdom", "GB", "GBR", "826", "54", "-2"
`

const worldJSON = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "id": "ALB", "properties": {"name": "Albania"},
     "geometry": {"type": "Polygon", "coordinates": [[[19,39],[21,39],[21,42],[19,42],[19,39]]]}},
    {"type": "Feature", "id": "IRN", "properties": {"name": "Iran"},
     "geometry": {"type": "Polygon", "coordinates": [[[45,26],[61,26],[61,39],[45,39],[45,26]]]}},
    {"type": "Feature", "id": "GBR", "properties": {"name": "United Kingdom"},
     "geometry": {"type": "MultiPolygon", "coordinates": [
       [[[-5,50],[1,50],[1,58],[-5,58],[-5,50]]],
       [[[-8,54],[-6,54],[-6,55],[-8,55],[-8,54]]]
     ]}}
  ]
}`

// testConfig returns the default configuration pointed at in-memory inputs.
func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)

	cfg.Output.Dir = "out"
	cfg.Choropleth.Statistics.Path = "data/stats.csv"
	cfg.Choropleth.Coordinates.Path = "data/country-coord.csv"
	cfg.Choropleth.Boundaries.Source = "data/world-countries.json"
	return cfg
}

func testFs(t *testing.T) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "data/stats.csv", []byte(statsCSV), 0o644))
	require.NoError(t, afero.WriteFile(fs, "data/country-coord.csv", []byte(coordsCSV), 0o644))
	require.NoError(t, afero.WriteFile(fs, "data/world-countries.json", []byte(worldJSON), 0o644))
	return fs
}

func blankImage(w, h int) image.Image {
	return image.NewRGBA(image.Rect(0, 0, w, h))
}
