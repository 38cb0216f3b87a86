package leaflet

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"

	"github.com/rotisserie/eris"
)

//go:embed templates/map.html
var templates embed.FS

var pageTemplate = template.Must(template.ParseFS(templates, "templates/map.html"))

type pageData struct {
	Title    string
	Styles   []template.CSS
	Headings []template.HTML
	Setup    template.JS
	Scripts  []template.JS
}

// HTML renders the map as a standalone page. Element ids are numbered in
// layer order, so the same map always renders to the same bytes.
func (m *Map) HTML() ([]byte, error) {
	setup, err := m.setupScript()
	if err != nil {
		return nil, err
	}

	data := pageData{Title: m.Title, Setup: template.JS(setup)}
	for _, css := range m.styles {
		data.Styles = append(data.Styles, template.CSS(css))
	}
	for _, h := range m.headings {
		data.Headings = append(data.Headings, template.HTML(h.HTML))
	}
	for i, l := range m.layers {
		js, err := l.script(fmt.Sprintf("%s_%d", l.kind(), i+1))
		if err != nil {
			return nil, eris.Wrapf(err, "leaflet: render %s layer %d", l.kind(), i+1)
		}
		data.Scripts = append(data.Scripts, template.JS(js))
	}

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		return nil, eris.Wrap(err, "leaflet: execute template")
	}
	return buf.Bytes(), nil
}

func (m *Map) setupScript() (string, error) {
	opts, err := toJSON(struct {
		Center      [2]float64 `json:"center"`
		Zoom        int        `json:"zoom"`
		ZoomControl bool       `json:"zoomControl"`
	}{m.Center.array(), m.Zoom, true})
	if err != nil {
		return "", err
	}
	if m.Tiles.URL == "" {
		return fmt.Sprintf("var map = L.map(\"map\", %s);", opts), nil
	}

	url, err := toJSON(m.Tiles.URL)
	if err != nil {
		return "", err
	}
	tileOpts, err := toJSON(struct {
		Attribution string `json:"attribution"`
		MaxZoom     int    `json:"maxZoom"`
		Subdomains  string `json:"subdomains,omitempty"`
	}{m.Tiles.Attribution, m.Tiles.MaxZoom, m.Tiles.Subdomains})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("var map = L.map(\"map\", %s);\nvar tiles = L.tileLayer(%s, %s).addTo(map);", opts, url, tileOpts), nil
}
