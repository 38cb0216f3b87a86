package boundary

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"
)

// writeTestShapefile writes a two-record polygon shapefile: Albania as a
// square with a hole, and Kosovo as a single ring.
func writeTestShapefile(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "countries.shp")

	w, err := shp.Create(path, shp.POLYGON)
	require.NoError(t, err)
	require.NoError(t, w.SetFields([]shp.Field{
		shp.StringField("NAME", 40),
		shp.StringField("ISO_A3", 3),
	}))

	albania := shp.Polygon(*shp.NewPolyLine([][]shp.Point{
		// clockwise outer ring
		{{X: 19, Y: 39}, {X: 19, Y: 42}, {X: 21, Y: 42}, {X: 21, Y: 39}, {X: 19, Y: 39}},
		// counter-clockwise hole
		{{X: 19.5, Y: 39.5}, {X: 20.5, Y: 39.5}, {X: 20.5, Y: 41.5}, {X: 19.5, Y: 41.5}, {X: 19.5, Y: 39.5}},
	}))
	idx := w.Write(&albania)
	require.NoError(t, w.WriteAttribute(int(idx), 0, "Albania"))
	require.NoError(t, w.WriteAttribute(int(idx), 1, "ALB"))

	kosovo := shp.Polygon(*shp.NewPolyLine([][]shp.Point{
		{{X: 20, Y: 42}, {X: 20, Y: 43}, {X: 21, Y: 43}, {X: 21, Y: 42}, {X: 20, Y: 42}},
	}))
	idx = w.Write(&kosovo)
	require.NoError(t, w.WriteAttribute(int(idx), 0, "Kosovo"))
	require.NoError(t, w.WriteAttribute(int(idx), 1, "XKX"))

	w.Close()

	// go-shp v0.1.1 names the attribute table "<base>dbf" while its reader
	// opens "<base>.dbf".
	base := strings.TrimSuffix(path, ".shp")
	if _, err := os.Stat(base + "dbf"); err == nil {
		require.NoError(t, os.Rename(base+"dbf", base+".dbf"))
	}
	require.FileExists(t, base+".dbf")
	return path
}

func TestReadShapefile(t *testing.T) {
	path := writeTestShapefile(t, t.TempDir())

	bs, err := ReadShapefile(path, "properties.ISO_A3")
	require.NoError(t, err)
	require.Len(t, bs, 2)

	assert.Equal(t, "0", bs[0].ID)
	assert.Equal(t, "Albania", bs[0].Name)
	assert.Equal(t, "ALB", bs[0].Key)
	assert.Equal(t, "ALB", bs[0].Properties["ISO_A3"])

	mp, ok := bs[0].Geometry.(*geom.MultiPolygon)
	require.True(t, ok)
	require.Equal(t, 1, mp.NumPolygons())
	assert.Equal(t, 2, mp.Polygon(0).NumLinearRings(), "hole stays inside its polygon")

	assert.Equal(t, "XKX", bs[1].Key)
}

func TestReadShapefile_CaseInsensitiveKey(t *testing.T) {
	path := writeTestShapefile(t, t.TempDir())

	bs, err := ReadShapefile(path, "feature.properties.name")
	require.NoError(t, err)
	assert.Equal(t, "Kosovo", bs[1].Key)
}

func TestReadShapefile_MissingKey(t *testing.T) {
	path := writeTestShapefile(t, t.TempDir())

	_, err := ReadShapefile(path, "properties.ADMIN")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `no attribute "admin"`)
}

func TestReadShapefile_MissingFile(t *testing.T) {
	_, err := ReadShapefile(filepath.Join(t.TempDir(), "nope.shp"), "NAME")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open shapefile")
}

func TestRingsToMultiPolygon_SeparateOuterRings(t *testing.T) {
	parts := []int32{0, 5}
	points := []shp.Point{
		{X: 0, Y: 0}, {X: 0, Y: 1}, {X: 1, Y: 1}, {X: 1, Y: 0}, {X: 0, Y: 0},
		{X: 2, Y: 0}, {X: 2, Y: 1}, {X: 3, Y: 1}, {X: 3, Y: 0}, {X: 2, Y: 0},
	}

	mp := ringsToMultiPolygon(parts, points)
	require.NotNil(t, mp)
	assert.Equal(t, 2, mp.NumPolygons())
}

func TestRingsToMultiPolygon_Empty(t *testing.T) {
	assert.Nil(t, ringsToMultiPolygon(nil, nil))
	assert.Nil(t, ringsToMultiPolygon([]int32{0}, []shp.Point{{X: 0, Y: 0}, {X: 1, Y: 1}}))
}

func TestSignedArea(t *testing.T) {
	cw := []float64{0, 0, 0, 1, 1, 1, 1, 0, 0, 0}
	ccw := []float64{0, 0, 1, 0, 1, 1, 0, 1, 0, 0}
	assert.InDelta(t, -1, signedArea(cw), 1e-9)
	assert.InDelta(t, 1, signedArea(ccw), 1e-9)
}
