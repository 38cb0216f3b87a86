package leaflet

import (
	"encoding/json"
	"fmt"
	"html"
	"strings"

	"github.com/rotisserie/eris"
)

// Font families understood by both the page and the rasterizer.
const (
	FamilySans = "sans"
	FamilyMono = "mono"
)

// Label is plain text drawn at a marker location.
type Label struct {
	Text   string
	FontPx float64
	Bold   bool
	Color  string
	Family string // FamilySans or FamilyMono
}

func (l Label) cssFamily() string {
	if l.Family == FamilyMono {
		return "courier new, monospace"
	}
	return "sans-serif"
}

// Circle is a circle with a radius in metres.
type Circle struct {
	Center       LatLng
	RadiusMeters float64
	Color        string
	Weight       float64
	Fill         bool
	FillColor    string // defaults to Color
	FillOpacity  float64
	Popup        string
}

func (c *Circle) kind() string { return "circle" }

func (c *Circle) script(id string) (string, error) {
	fillColor := c.FillColor
	if fillColor == "" {
		fillColor = c.Color
	}
	opts := struct {
		Radius      float64 `json:"radius"`
		Color       string  `json:"color"`
		Weight      float64 `json:"weight"`
		Fill        bool    `json:"fill"`
		FillColor   string  `json:"fillColor"`
		FillOpacity float64 `json:"fillOpacity"`
	}{c.RadiusMeters, c.Color, c.Weight, c.Fill, fillColor, c.FillOpacity}

	return layerScript(id, "L.circle", c.Center, opts, c.Popup)
}

// CircleMarker is a circle with a radius in screen pixels.
type CircleMarker struct {
	Center      LatLng
	RadiusPx    float64
	Color       string
	Weight      float64
	Stroke      bool
	Opacity     float64
	Fill        bool
	FillColor   string
	FillOpacity float64
	Popup       string
}

func (c *CircleMarker) kind() string { return "circle_marker" }

func (c *CircleMarker) script(id string) (string, error) {
	fillColor := c.FillColor
	if fillColor == "" {
		fillColor = c.Color
	}
	opts := struct {
		Radius      float64 `json:"radius"`
		Color       string  `json:"color"`
		Weight      float64 `json:"weight"`
		Stroke      bool    `json:"stroke"`
		Opacity     float64 `json:"opacity"`
		Fill        bool    `json:"fill"`
		FillColor   string  `json:"fillColor"`
		FillOpacity float64 `json:"fillOpacity"`
	}{c.RadiusPx, c.Color, c.Weight, c.Stroke, c.Opacity, c.Fill, fillColor, c.FillOpacity}

	return layerScript(id, "L.circleMarker", c.Center, opts, c.Popup)
}

// DivIcon is a marker icon made of HTML.
type DivIcon struct {
	HTML      string
	ClassName string
	Size      [2]int
	Anchor    [2]int
	Label     *Label // what the rasterizer draws in place of HTML
}

// TextIcon returns a DivIcon showing label as styled text.
func TextIcon(label Label) *DivIcon {
	color := label.Color
	if color == "" {
		color = "black"
	}
	text := html.EscapeString(label.Text)
	if label.Bold {
		text = "<b>" + text + "</b>"
	}
	return &DivIcon{
		HTML: fmt.Sprintf(`<div style="font-size: %gpx; font-family: %s; color: %s; white-space: nowrap;">%s</div>`,
			label.FontPx, label.cssFamily(), color, text),
		ClassName: "empty",
		Size:      [2]int{20, 20},
		Anchor:    [2]int{0, 0},
		Label:     &label,
	}
}

// Marker is a point marker. A nil Icon gives Leaflet's default pin.
type Marker struct {
	Location LatLng
	Icon     *DivIcon
	Popup    string
}

func (m *Marker) kind() string { return "marker" }

func (m *Marker) script(id string) (string, error) {
	if m.Icon == nil {
		return layerScript(id, "L.marker", m.Location, struct{}{}, m.Popup)
	}

	icon, err := toJSON(struct {
		HTML       string `json:"html"`
		ClassName  string `json:"className"`
		IconSize   [2]int `json:"iconSize"`
		IconAnchor [2]int `json:"iconAnchor"`
	}{m.Icon.HTML, m.Icon.ClassName, m.Icon.Size, m.Icon.Anchor})
	if err != nil {
		return "", err
	}
	loc, err := toJSON(m.Location.array())
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "var %s = L.marker(%s, {icon: L.divIcon(%s)}).addTo(map);\n", id, loc, icon)
	if err := bindPopup(&b, id, m.Popup); err != nil {
		return "", err
	}
	return b.String(), nil
}

func layerScript(id, ctor string, at LatLng, opts any, popup string) (string, error) {
	loc, err := toJSON(at.array())
	if err != nil {
		return "", err
	}
	o, err := toJSON(opts)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "var %s = %s(%s, %s).addTo(map);\n", id, ctor, loc, o)
	if err := bindPopup(&b, id, popup); err != nil {
		return "", err
	}
	return b.String(), nil
}

func bindPopup(b *strings.Builder, id, popup string) error {
	if popup == "" {
		return nil
	}
	content, err := toJSON(popup)
	if err != nil {
		return err
	}
	fmt.Fprintf(b, "%s.bindPopup(%s, {maxWidth: 300});\n", id, content)
	return nil
}

// toJSON encodes v as a JavaScript literal. encoding/json escapes <, > and
// &, so the result is safe inside a script element.
func toJSON(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", eris.Wrap(err, "leaflet: encode script value")
	}
	return string(data), nil
}
