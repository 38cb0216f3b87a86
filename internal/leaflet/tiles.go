package leaflet

import (
	"sort"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// TileProvider is an XYZ raster tile source.
type TileProvider struct {
	Name        string
	URL         string // template with {z}, {x}, {y} and optional {s}
	Attribution string
	MaxZoom     int
	Subdomains  string
}

var tileProviders = map[string]TileProvider{
	"openstreetmap": {
		Name:        "OpenStreetMap",
		URL:         "https://tile.openstreetmap.org/{z}/{x}/{y}.png",
		Attribution: `&copy; <a href="https://www.openstreetmap.org/copyright">OpenStreetMap</a> contributors`,
		MaxZoom:     19,
	},
	"esri.worldshadedrelief": {
		Name:        "Esri.WorldShadedRelief",
		URL:         "https://server.arcgisonline.com/ArcGIS/rest/services/World_Shaded_Relief/MapServer/tile/{z}/{y}/{x}",
		Attribution: "Tiles &copy; Esri &mdash; Source: Esri",
		MaxZoom:     13,
	},
	"esri.worldimagery": {
		Name:        "Esri.WorldImagery",
		URL:         "https://server.arcgisonline.com/ArcGIS/rest/services/World_Imagery/MapServer/tile/{z}/{y}/{x}",
		Attribution: "Tiles &copy; Esri &mdash; Source: Esri, Maxar, Earthstar Geographics, and the GIS User Community",
		MaxZoom:     18,
	},
	"cartodb.positron": {
		Name:        "CartoDB.Positron",
		URL:         "https://{s}.basemaps.cartocdn.com/light_all/{z}/{x}/{y}.png",
		Attribution: `&copy; <a href="https://www.openstreetmap.org/copyright">OpenStreetMap</a> contributors &copy; <a href="https://carto.com/attributions">CARTO</a>`,
		MaxZoom:     20,
		Subdomains:  "abcd",
	},
}

// LookupTiles returns the provider registered under name, ignoring case.
func LookupTiles(name string) (TileProvider, error) {
	p, ok := tileProviders[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		names := make([]string, 0, len(tileProviders))
		for k := range tileProviders {
			names = append(names, k)
		}
		sort.Strings(names)
		return TileProvider{}, eris.Errorf("leaflet: unknown tiles %q (known: %s)", name, strings.Join(names, ", "))
	}
	return p, nil
}

// TileURL expands the URL template for one tile.
func (p TileProvider) TileURL(z, x, y int) string {
	s := "a"
	if p.Subdomains != "" {
		s = string(p.Subdomains[(x+y)%len(p.Subdomains)])
	}
	return strings.NewReplacer(
		"{z}", strconv.Itoa(z),
		"{x}", strconv.Itoa(x),
		"{y}", strconv.Itoa(y),
		"{s}", s,
		"{r}", "",
	).Replace(p.URL)
}
