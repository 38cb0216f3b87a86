package raster

import (
	"math"

	"github.com/sells-group/geomap/internal/leaflet"
)

const (
	tileSize = 256
	maxLat   = 85.0511287798066

	// equatorial metres per pixel at zoom 0 for 256px tiles
	metersPerPixelZ0 = 156543.03392
)

// Viewport maps WGS84 coordinates onto image pixels using Web Mercator,
// the projection Leaflet uses by default.
type Viewport struct {
	Center leaflet.LatLng
	Zoom   int
	Width  int
	Height int

	cx, cy float64 // centre in world pixels
}

// NewViewport centres a width×height image on center at zoom.
func NewViewport(center leaflet.LatLng, zoom, width, height int) Viewport {
	v := Viewport{Center: center, Zoom: zoom, Width: width, Height: height}
	v.cx, v.cy = worldPixel(center, zoom)
	return v
}

// worldSize is the width of the whole world in pixels at zoom z.
func worldSize(z int) float64 {
	return tileSize * math.Exp2(float64(z))
}

func worldPixel(p leaflet.LatLng, z int) (float64, float64) {
	lat := math.Max(-maxLat, math.Min(maxLat, p.Lat))
	size := worldSize(z)
	x := (p.Lng + 180) / 360 * size
	rad := lat * math.Pi / 180
	y := (1 - math.Log(math.Tan(rad)+1/math.Cos(rad))/math.Pi) / 2 * size
	return x, y
}

// Point returns the image pixel for p.
func (v Viewport) Point(p leaflet.LatLng) (float64, float64) {
	x, y := worldPixel(p, v.Zoom)
	return x - v.cx + float64(v.Width)/2, y - v.cy + float64(v.Height)/2
}

// MetersToPixels converts a ground distance at latitude lat to pixels.
func (v Viewport) MetersToPixels(meters, lat float64) float64 {
	res := metersPerPixelZ0 * math.Cos(lat*math.Pi/180) / math.Exp2(float64(v.Zoom))
	if res <= 0 {
		return 0
	}
	return meters / res
}

// tileRef is one basemap tile and where its top-left corner lands.
type tileRef struct {
	Z, X, Y int
	PX, PY  float64
}

// tiles lists the tiles covering the viewport, row by row. X indices wrap
// around the antimeridian; rows beyond the poles are omitted.
func (v Viewport) tiles() []tileRef {
	n := int(math.Exp2(float64(v.Zoom)))
	left := v.cx - float64(v.Width)/2
	top := v.cy - float64(v.Height)/2

	minTX := int(math.Floor(left / tileSize))
	maxTX := int(math.Floor((left + float64(v.Width) - 1) / tileSize))
	minTY := max(int(math.Floor(top/tileSize)), 0)
	maxTY := min(int(math.Floor((top+float64(v.Height)-1)/tileSize)), n-1)

	var refs []tileRef
	for ty := minTY; ty <= maxTY; ty++ {
		for tx := minTX; tx <= maxTX; tx++ {
			refs = append(refs, tileRef{
				Z:  v.Zoom,
				X:  ((tx % n) + n) % n,
				Y:  ty,
				PX: float64(tx*tileSize) - left,
				PY: float64(ty*tileSize) - top,
			})
		}
	}
	return refs
}
