package pipeline

import (
	"context"
	"fmt"
	"html"

	"go.uber.org/zap"

	"github.com/sells-group/geomap/internal/leaflet"
)

// POIMap builds the point-of-interest map: a filled circle with a popup at
// the location, a bold text label beside it and a page title.
func (p *Pipeline) POIMap() (*leaflet.Map, error) {
	c := p.cfg.POI

	tiles, err := leaflet.LookupTiles(c.Tiles)
	if err != nil {
		return nil, err
	}

	m := leaflet.New(latLng(c.Location), c.Zoom, tiles)
	m.Title = c.Title

	m.Add(&leaflet.Circle{
		Center:       latLng(c.Location),
		RadiusMeters: c.RadiusMeters,
		Color:        c.Color,
		Weight:       3,
		Fill:         true,
		FillOpacity:  0.2,
		Popup:        c.Label,
	})
	m.Add(&leaflet.Marker{
		Location: latLng(c.LabelLocation),
		Icon: leaflet.TextIcon(leaflet.Label{
			Text:   c.Label,
			FontPx: 16,
			Bold:   true,
			Color:  "black",
			Family: leaflet.FamilySans,
		}),
	})

	if c.Title != "" {
		m.AddHeading(leaflet.Heading{
			Text:   c.Title,
			HTML:   fmt.Sprintf(`<h1 style="position:absolute;z-index:100000;left:40vw" >%s</h1>`, html.EscapeString(c.Title)),
			FontPx: 32,
			Left:   0.4,
		})
	}

	return m, nil
}

// RunPOI builds the point-of-interest map and writes <name>.html and
// <name>.png.
func (p *Pipeline) RunPOI(ctx context.Context) (*Result, error) {
	log := zap.L().With(zap.String("map", p.cfg.POI.Name))
	log.Info("pipeline: building point-of-interest map")

	t := newStageTracker(log)
	res := &Result{Name: p.cfg.POI.Name}

	var m *leaflet.Map
	if err := t.track("compose", func() error {
		var err error
		m, err = p.POIMap()
		return err
	}); err != nil {
		return nil, err
	}

	if err := p.export(ctx, t, res, m); err != nil {
		return nil, err
	}

	log.Info("pipeline: map written",
		zap.String("html", res.HTMLPath),
		zap.String("png", res.PNGPath),
	)
	return res, nil
}
