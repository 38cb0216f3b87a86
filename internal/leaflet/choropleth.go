package leaflet

import (
	"encoding/json"
	"fmt"
	"html"
	"math"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/sells-group/geomap/internal/boundary"
	"github.com/sells-group/geomap/internal/dataset"
)

// Region is one shaded boundary of a choropleth.
type Region struct {
	ID        string
	Name      string
	Geometry  geom.T
	Value     float64 // NaN when no data matched
	FillColor string
}

// HasValue reports whether data matched the region.
func (r Region) HasValue() bool { return !math.IsNaN(r.Value) }

// ChoroplethOptions styles a choropleth.
type ChoroplethOptions struct {
	Scheme       string
	Bins         int
	FillOpacity  float64
	LineOpacity  float64
	LineColor    string
	LineWeight   float64
	NaNFillColor string
	Legend       string
}

// Choropleth is a set of regions shaded by value, plus its legend.
type Choropleth struct {
	Regions     []Region
	Scale       *ColorScale
	FillOpacity float64
	LineOpacity float64
	LineColor   string
	LineWeight  float64
	Legend      string
}

// NewChoropleth shades each boundary by the value whose normalized country
// name equals the boundary key. The scale spans the values that matched a
// boundary; unmatched boundaries get opts.NaNFillColor.
func NewChoropleth(bs []boundary.Boundary, values map[string]float64, opts ChoroplethOptions) (*Choropleth, error) {
	byKey := make(map[string]float64, len(values))
	for name, v := range values {
		byKey[dataset.Key(name)] += v
	}

	regions := make([]Region, 0, len(bs))
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, b := range bs {
		r := Region{ID: b.ID, Name: b.Name, Geometry: b.Geometry, Value: math.NaN()}
		if v, ok := byKey[dataset.Key(b.Key)]; ok {
			r.Value = v
			lo, hi = math.Min(lo, v), math.Max(hi, v)
		}
		regions = append(regions, r)
	}
	if math.IsInf(lo, 1) {
		lo, hi = 0, 0
	}

	scale, err := NewColorScale(opts.Scheme, opts.Bins, lo, hi, opts.NaNFillColor)
	if err != nil {
		return nil, err
	}
	for i := range regions {
		regions[i].FillColor = scale.Color(regions[i].Value)
	}

	lineColor := opts.LineColor
	if lineColor == "" {
		lineColor = "black"
	}
	weight := opts.LineWeight
	if weight == 0 {
		weight = 1
	}

	return &Choropleth{
		Regions:     regions,
		Scale:       scale,
		FillOpacity: opts.FillOpacity,
		LineOpacity: opts.LineOpacity,
		LineColor:   lineColor,
		LineWeight:  weight,
		Legend:      opts.Legend,
	}, nil
}

func (c *Choropleth) kind() string { return "choropleth" }

type featureStyle struct {
	FillColor   string  `json:"fillColor"`
	FillOpacity float64 `json:"fillOpacity"`
	Color       string  `json:"color"`
	Opacity     float64 `json:"opacity"`
	Weight      float64 `json:"weight"`
}

type featureProps struct {
	Name  string       `json:"name"`
	Value *float64     `json:"value,omitempty"`
	Style featureStyle `json:"style"`
}

type feature struct {
	Type       string          `json:"type"`
	ID         string          `json:"id,omitempty"`
	Properties featureProps    `json:"properties"`
	Geometry   json.RawMessage `json:"geometry"`
}

func (c *Choropleth) script(id string) (string, error) {
	features := make([]feature, 0, len(c.Regions))
	for _, r := range c.Regions {
		g, err := geojson.Marshal(r.Geometry)
		if err != nil {
			return "", eris.Wrapf(err, "leaflet: encode geometry of %s", r.Name)
		}
		f := feature{
			Type: "Feature",
			ID:   r.ID,
			Properties: featureProps{
				Name: r.Name,
				Style: featureStyle{
					FillColor:   r.FillColor,
					FillOpacity: c.FillOpacity,
					Color:       c.LineColor,
					Opacity:     c.LineOpacity,
					Weight:      c.LineWeight,
				},
			},
			Geometry: g,
		}
		if r.HasValue() {
			v := r.Value
			f.Properties.Value = &v
		}
		features = append(features, f)
	}

	data, err := toJSON(struct {
		Type     string    `json:"type"`
		Features []feature `json:"features"`
	}{"FeatureCollection", features})
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "var %s = L.geoJson(%s, {style: function(feature) { return feature.properties.style; }}).addTo(map);\n", id, data)
	fmt.Fprintf(&b, "%s.eachLayer(function(layer) { layer.bindTooltip(layer.feature.properties.name); });\n", id)

	if c.Legend != "" {
		legend, err := toJSON(c.legendHTML())
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, "var %s_legend = L.control({position: \"topright\"});\n", id)
		fmt.Fprintf(&b, "%s_legend.onAdd = function() { var div = L.DomUtil.create(\"div\", \"legend\"); div.innerHTML = %s; return div; };\n", id, legend)
		fmt.Fprintf(&b, "%s_legend.addTo(map);\n", id)
	}
	return b.String(), nil
}

func (c *Choropleth) legendHTML() string {
	var b strings.Builder
	fmt.Fprintf(&b, "<div class=\"legend-caption\">%s</div>", html.EscapeString(c.Legend))
	edges := c.Scale.Thresholds()
	for i, col := range c.Scale.Colors {
		fmt.Fprintf(&b, "<div><i style=\"background:%s\"></i>%s&ndash;%s</div>",
			col, formatValue(edges[i]), formatValue(edges[i+1]))
	}
	return b.String()
}

func formatValue(v float64) string {
	return strconv.FormatFloat(math.Round(v), 'f', 0, 64)
}

// LegendLabels returns one "lo–hi" label per colour class.
func (c *Choropleth) LegendLabels() []string {
	edges := c.Scale.Thresholds()
	labels := make([]string, len(c.Scale.Colors))
	for i := range labels {
		labels[i] = formatValue(edges[i]) + "–" + formatValue(edges[i+1])
	}
	return labels
}
