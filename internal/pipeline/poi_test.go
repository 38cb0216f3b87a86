package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/geomap/internal/leaflet"
)

func TestPOIMap(t *testing.T) {
	p := New(testConfig(t), afero.NewMemMapFs(), nil, nil)

	m, err := p.POIMap()
	require.NoError(t, err)

	assert.Equal(t, "NASA Johnson Space Center Location", m.Title)
	assert.Equal(t, 10, m.Zoom)
	assert.Equal(t, "OpenStreetMap", m.Tiles.Name)

	layers := m.Layers()
	require.Len(t, layers, 2)

	circle, ok := layers[0].(*leaflet.Circle)
	require.True(t, ok)
	assert.Equal(t, leaflet.LatLng{Lat: 29.559684888503615, Lng: -95.0830971930759}, circle.Center)
	assert.InDelta(t, 1000, circle.RadiusMeters, 0.001)
	assert.Equal(t, "black", circle.Color)
	assert.True(t, circle.Fill)
	assert.Equal(t, "NASA Johnson Space Center", circle.Popup)

	marker, ok := layers[1].(*leaflet.Marker)
	require.True(t, ok)
	assert.Equal(t, leaflet.LatLng{Lat: 29.55, Lng: -95.05}, marker.Location)
	require.NotNil(t, marker.Icon)
	assert.Equal(t, [2]int{20, 20}, marker.Icon.Size)
	assert.Equal(t, [2]int{0, 0}, marker.Icon.Anchor)
	require.NotNil(t, marker.Icon.Label)
	assert.True(t, marker.Icon.Label.Bold)
	assert.Equal(t, "NASA Johnson Space Center", marker.Icon.Label.Text)

	headings := m.Headings()
	require.Len(t, headings, 1)
	assert.Equal(t, `<h1 style="position:absolute;z-index:100000;left:40vw" >NASA Johnson Space Center Location</h1>`, headings[0].HTML)
}

func TestPOIMap_NoTitle(t *testing.T) {
	cfg := testConfig(t)
	cfg.POI.Title = ""
	m, err := New(cfg, afero.NewMemMapFs(), nil, nil).POIMap()
	require.NoError(t, err)
	assert.Empty(t, m.Headings())
}

func TestPOIMap_UnknownTiles(t *testing.T) {
	cfg := testConfig(t)
	cfg.POI.Tiles = "stamen.watercolor"
	_, err := New(cfg, afero.NewMemMapFs(), nil, nil).POIMap()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown tiles")
}

func TestRunPOI(t *testing.T) {
	fs := afero.NewMemMapFs()
	r := new(mockRenderer)
	r.On("Render", mock.Anything, mock.AnythingOfType("*leaflet.Map")).Return(blankImage(64, 48), nil)

	res, err := New(testConfig(t), fs, nil, r).RunPOI(context.Background())
	require.NoError(t, err)
	r.AssertExpectations(t)

	assert.Equal(t, "NASA_JSC", res.Name)
	assert.Equal(t, "out/NASA_JSC.html", res.HTMLPath)
	assert.Equal(t, "out/NASA_JSC.png", res.PNGPath)
	assert.Empty(t, res.ReportPath)
	assert.Equal(t, 64, res.Width)
	assert.Equal(t, 48, res.Height)

	var names []string
	for _, s := range res.Stages {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{"compose", "html", "png"}, names)

	page, err := afero.ReadFile(fs, res.HTMLPath)
	require.NoError(t, err)
	html := string(page)
	assert.Equal(t, 1, strings.Count(html, "L.circle("))
	assert.Equal(t, 1, strings.Count(html, "L.divIcon("))
	assert.Contains(t, html, "L.circle([29.559684888503615,-95.0830971930759]")
	assert.Contains(t, html, "L.marker([29.55,-95.05]")
	assert.Contains(t, html, "NASA Johnson Space Center Location</h1>")

	png, err := afero.ReadFile(fs, res.PNGPath)
	require.NoError(t, err)
	assert.NotEmpty(t, png)

	exists, err := afero.Exists(fs, "out/NASA_JSC.report.yaml")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestRunPOI_Deterministic(t *testing.T) {
	fs := afero.NewMemMapFs()
	r := new(mockRenderer)
	r.On("Render", mock.Anything, mock.Anything).Return(blankImage(32, 32), nil)
	p := New(testConfig(t), fs, nil, r)

	_, err := p.RunPOI(context.Background())
	require.NoError(t, err)
	first, err := afero.ReadFile(fs, "out/NASA_JSC.html")
	require.NoError(t, err)

	_, err = p.RunPOI(context.Background())
	require.NoError(t, err)
	second, err := afero.ReadFile(fs, "out/NASA_JSC.html")
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestRunPOI_Report(t *testing.T) {
	fs := afero.NewMemMapFs()
	cfg := testConfig(t)
	cfg.Output.Report = true
	r := new(mockRenderer)
	r.On("Render", mock.Anything, mock.Anything).Return(blankImage(16, 8), nil)

	res, err := New(cfg, fs, nil, r).RunPOI(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "out/NASA_JSC.report.yaml", res.ReportPath)

	data, err := afero.ReadFile(fs, res.ReportPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "map: NASA_JSC")
	assert.Contains(t, string(data), "width: 16")
	assert.Contains(t, string(data), "- out/NASA_JSC.png")
}

func TestRunPOI_RenderError(t *testing.T) {
	fs := afero.NewMemMapFs()
	r := new(mockRenderer)
	r.On("Render", mock.Anything, mock.Anything).Return(nil, errors.New("tile server down"))

	_, err := New(testConfig(t), fs, nil, r).RunPOI(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pipeline: rasterize NASA_JSC")

	// The page is written before rasterizing.
	exists, err := afero.Exists(fs, "out/NASA_JSC.html")
	require.NoError(t, err)
	assert.True(t, exists)
	exists, err = afero.Exists(fs, "out/NASA_JSC.png")
	require.NoError(t, err)
	assert.False(t, exists)
}
