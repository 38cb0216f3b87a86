package leaflet

import (
	"image/color"
	"math"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// ColorBrewer sequential schemes, indexed by class count (3 to 9).
var schemes = map[string]map[int][]string{
	"ylorrd": {
		3: {"#ffeda0", "#feb24c", "#f03b20"},
		4: {"#ffffb2", "#fecc5c", "#fd8d3c", "#e31a1c"},
		5: {"#ffffb2", "#fecc5c", "#fd8d3c", "#f03b20", "#bd0026"},
		6: {"#ffffb2", "#fed976", "#feb24c", "#fd8d3c", "#f03b20", "#bd0026"},
		7: {"#ffffb2", "#fed976", "#feb24c", "#fd8d3c", "#fc4e2a", "#e31a1c", "#b10026"},
		8: {"#ffffcc", "#ffeda0", "#fed976", "#feb24c", "#fd8d3c", "#fc4e2a", "#e31a1c", "#b10026"},
		9: {"#ffffcc", "#ffeda0", "#fed976", "#feb24c", "#fd8d3c", "#fc4e2a", "#e31a1c", "#bd0026", "#800026"},
	},
	"blues": {
		3: {"#deebf7", "#9ecae1", "#3182bd"},
		4: {"#eff3ff", "#bdd7e7", "#6baed6", "#2171b5"},
		5: {"#eff3ff", "#bdd7e7", "#6baed6", "#3182bd", "#08519c"},
		6: {"#eff3ff", "#c6dbef", "#9ecae1", "#6baed6", "#3182bd", "#08519c"},
		7: {"#eff3ff", "#c6dbef", "#9ecae1", "#6baed6", "#4292c6", "#2171b5", "#084594"},
		8: {"#f7fbff", "#deebf7", "#c6dbef", "#9ecae1", "#6baed6", "#4292c6", "#2171b5", "#084594"},
		9: {"#f7fbff", "#deebf7", "#c6dbef", "#9ecae1", "#6baed6", "#4292c6", "#2171b5", "#08519c", "#08306b"},
	},
	"ylgn": {
		3: {"#f7fcb9", "#addd8e", "#31a354"},
		4: {"#ffffcc", "#c2e699", "#78c679", "#238443"},
		5: {"#ffffcc", "#c2e699", "#78c679", "#31a354", "#006837"},
		6: {"#ffffcc", "#d9f0a3", "#addd8e", "#78c679", "#31a354", "#006837"},
		7: {"#ffffcc", "#d9f0a3", "#addd8e", "#78c679", "#41ab5d", "#238443", "#005a32"},
		8: {"#ffffe5", "#f7fcb9", "#d9f0a3", "#addd8e", "#78c679", "#41ab5d", "#238443", "#005a32"},
		9: {"#ffffe5", "#f7fcb9", "#d9f0a3", "#addd8e", "#78c679", "#41ab5d", "#238443", "#006837", "#004529"},
	},
}

// ColorScale maps values to equal-width classes over [Min, Max].
type ColorScale struct {
	Colors   []string
	Min      float64
	Max      float64
	NaNColor string
}

// NewColorScale builds a scale from a named ColorBrewer scheme. Fewer than
// three bins take the lightest colours of the three-class palette.
func NewColorScale(scheme string, bins int, lo, hi float64, nanColor string) (*ColorScale, error) {
	palettes, ok := schemes[strings.ToLower(scheme)]
	if !ok {
		return nil, eris.Errorf("leaflet: unknown colour scheme %q", scheme)
	}
	if bins < 1 || bins > 9 {
		return nil, eris.Errorf("leaflet: scheme %s supports 1 to 9 bins, got %d", scheme, bins)
	}
	if lo > hi {
		lo, hi = hi, lo
	}

	var colors []string
	if bins < 3 {
		colors = append(colors, palettes[3][:bins]...)
	} else {
		colors = append(colors, palettes[bins]...)
	}

	return &ColorScale{Colors: colors, Min: lo, Max: hi, NaNColor: nanColor}, nil
}

// Class returns the bin index for v, or -1 for NaN.
func (s *ColorScale) Class(v float64) int {
	if math.IsNaN(v) {
		return -1
	}
	n := len(s.Colors)
	if s.Max == s.Min {
		return 0
	}
	i := int(math.Floor((v - s.Min) / (s.Max - s.Min) * float64(n)))
	return min(max(i, 0), n-1)
}

// Color returns the fill colour for v.
func (s *ColorScale) Color(v float64) string {
	i := s.Class(v)
	if i < 0 {
		return s.NaNColor
	}
	return s.Colors[i]
}

// Thresholds returns the len(Colors)+1 bin edges.
func (s *ColorScale) Thresholds() []float64 {
	n := len(s.Colors)
	edges := make([]float64, n+1)
	for i := range edges {
		edges[i] = s.Min + (s.Max-s.Min)*float64(i)/float64(n)
	}
	return edges
}

var namedColors = map[string]color.NRGBA{
	"black":       {0, 0, 0, 255},
	"white":       {255, 255, 255, 255},
	"red":         {255, 0, 0, 255},
	"green":       {0, 128, 0, 255},
	"blue":        {0, 0, 255, 255},
	"yellow":      {255, 255, 0, 255},
	"orange":      {255, 165, 0, 255},
	"purple":      {128, 0, 128, 255},
	"grey":        {128, 128, 128, 255},
	"gray":        {128, 128, 128, 255},
	"lightgrey":   {211, 211, 211, 255},
	"lightgray":   {211, 211, 211, 255},
	"darkgrey":    {169, 169, 169, 255},
	"darkgray":    {169, 169, 169, 255},
	"transparent": {0, 0, 0, 0},
}

// ParseColor parses a CSS colour name, #rgb or #rrggbb.
func ParseColor(s string) (color.NRGBA, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if c, ok := namedColors[s]; ok {
		return c, nil
	}
	if !strings.HasPrefix(s, "#") {
		return color.NRGBA{}, eris.Errorf("leaflet: unknown colour %q", s)
	}

	hex := s[1:]
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return color.NRGBA{}, eris.Errorf("leaflet: bad colour %q", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.NRGBA{}, eris.Wrapf(err, "leaflet: bad colour %q", s)
	}
	return color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, nil
}
