// Package leaflet builds Leaflet web maps and renders them as standalone HTML.
//
// A Map holds layers in insertion order; that order is also the drawing
// order in the page and in the rasterized image.
package leaflet

// LatLng is a WGS84 coordinate.
type LatLng struct {
	Lat float64 `yaml:"lat"`
	Lng float64 `yaml:"lng"`
}

func (p LatLng) array() [2]float64 { return [2]float64{p.Lat, p.Lng} }

// Layer is something drawn on the map: *Circle, *CircleMarker, *Marker or
// *Choropleth.
type Layer interface {
	kind() string
	script(id string) (string, error)
}

// Heading is a title pinned to the viewport rather than to a coordinate.
type Heading struct {
	Text   string
	HTML   string  // element placed in the page body
	FontPx float64 // raster font size
	Left   float64 // raster x position as a fraction of the image width
}

// Map is a Leaflet map under construction.
type Map struct {
	Title  string // document title
	Center LatLng
	Zoom   int
	Tiles  TileProvider

	layers   []Layer
	headings []Heading
	styles   []string
}

// New creates an empty map.
func New(center LatLng, zoom int, tiles TileProvider) *Map {
	return &Map{Center: center, Zoom: zoom, Tiles: tiles}
}

// Add appends a layer. Later layers draw above earlier ones.
func (m *Map) Add(l Layer) *Map {
	m.layers = append(m.layers, l)
	return m
}

// AddHeading appends a viewport title.
func (m *Map) AddHeading(h Heading) *Map {
	m.headings = append(m.headings, h)
	return m
}

// AddCSS appends a stylesheet to the page head.
func (m *Map) AddCSS(css string) *Map {
	m.styles = append(m.styles, css)
	return m
}

// Layers returns the layers in insertion order.
func (m *Map) Layers() []Layer { return m.layers }

// Headings returns the viewport titles in insertion order.
func (m *Map) Headings() []Heading { return m.headings }
