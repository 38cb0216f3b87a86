package leaflet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupTiles(t *testing.T) {
	p, err := LookupTiles("Esri.WorldShadedRelief")
	require.NoError(t, err)
	assert.Equal(t, 13, p.MaxZoom)
	assert.Equal(t,
		"https://server.arcgisonline.com/ArcGIS/rest/services/World_Shaded_Relief/MapServer/tile/3/2/4",
		p.TileURL(3, 4, 2))

	_, err = LookupTiles("stamen.toner")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "openstreetmap")
}

func TestTileURL(t *testing.T) {
	osm, err := LookupTiles("openstreetmap")
	require.NoError(t, err)
	assert.Equal(t, "https://tile.openstreetmap.org/10/235/422.png", osm.TileURL(10, 235, 422))

	carto, err := LookupTiles("cartodb.positron")
	require.NoError(t, err)
	assert.Equal(t, "https://b.basemaps.cartocdn.com/light_all/1/0/1.png", carto.TileURL(1, 0, 1))
}
