package pipeline

import (
	"context"
	"fmt"
	"html"

	"go.uber.org/zap"

	"github.com/sells-group/geomap/internal/boundary"
	"github.com/sells-group/geomap/internal/config"
	"github.com/sells-group/geomap/internal/dataset"
	"github.com/sells-group/geomap/internal/leaflet"
)

// ChoroplethData is the loaded and joined input of the choropleth map.
type ChoroplethData struct {
	Join       *dataset.JoinResult
	Boundaries []boundary.Boundary
}

// LoadChoroplethData prepares the statistics, joins them to the centroid
// table and loads the boundaries.
func (p *Pipeline) LoadChoroplethData(ctx context.Context) (*ChoroplethData, error) {
	return p.loadChoroplethData(ctx, newStageTracker(zap.L()))
}

func (p *Pipeline) loadChoroplethData(ctx context.Context, t *stageTracker) (*ChoroplethData, error) {
	c := p.cfg.Choropleth

	var totals []dataset.CountryTotal
	if err := t.track("statistics", func() error {
		var err error
		totals, err = dataset.LoadStatistics(ctx, p.fs, c.Statistics.Path, dataset.StatsOptions{
			Sheet:         c.Statistics.Sheet,
			HeaderRow:     c.Statistics.HeaderRow,
			CountryColumn: c.Statistics.CountryColumn,
			DropColumns:   c.Statistics.DropColumns,
			SummaryRows:   c.Statistics.SummaryRows,
		})
		return err
	}); err != nil {
		return nil, err
	}

	var centroids []dataset.Centroid
	if err := t.track("centroids", func() error {
		var err error
		centroids, err = dataset.LoadCentroidsFile(p.fs, c.Coordinates.Path, dataset.CoordColumns{
			Country:   c.Coordinates.CountryColumn,
			Latitude:  c.Coordinates.LatitudeColumn,
			Longitude: c.Coordinates.LongitudeColumn,
		})
		return err
	}); err != nil {
		return nil, err
	}

	data := &ChoroplethData{}
	if err := t.track("join", func() error {
		policy, err := dataset.ParsePolicy(c.JoinPolicy)
		if err != nil {
			return err
		}
		data.Join, err = dataset.Join(totals, centroids, substitutions(c.Substitutions), policy)
		return err
	}); err != nil {
		return nil, err
	}

	if err := t.track("boundaries", func() error {
		var err error
		data.Boundaries, err = boundary.Load(ctx, p.fs, p.fetcher, c.Boundaries.Source, c.Boundaries.KeyOn)
		return err
	}); err != nil {
		return nil, err
	}

	if c.Boundaries.TablePath != "" {
		if err := t.track("boundary_table", func() error {
			return boundary.WriteTableFile(p.fs, c.Boundaries.TablePath, data.Boundaries)
		}); err != nil {
			return nil, err
		}
	}

	return data, nil
}

// ChoroplethMap composes the choropleth map from loaded data. Layers are
// added bottom to top: shaded countries, country labels, the destination
// label, the title, the highlight ring and the destination pin.
func (p *Pipeline) ChoroplethMap(data *ChoroplethData) (*leaflet.Map, error) {
	c := p.cfg.Choropleth

	tiles, err := leaflet.LookupTiles(c.Tiles)
	if err != nil {
		return nil, err
	}

	m := leaflet.New(latLng(c.Center), c.Zoom, tiles)
	m.Title = c.Title.Text

	values := make(map[string]float64, len(data.Join.Records))
	for _, r := range data.Join.Records {
		values[r.Country] += r.Total
	}
	layer, err := leaflet.NewChoropleth(data.Boundaries, values, leaflet.ChoroplethOptions{
		Scheme:       c.Scale.Scheme,
		Bins:         c.Scale.Bins,
		FillOpacity:  c.Scale.FillOpacity,
		LineOpacity:  c.Scale.LineOpacity,
		NaNFillColor: c.Scale.NaNFillColor,
		Legend:       c.Scale.Legend,
	})
	if err != nil {
		return nil, err
	}
	m.Add(layer)

	offsets := make(map[string]config.LabelOffset, len(c.LabelOffsets))
	for _, o := range c.LabelOffsets {
		offsets[dataset.Key(o.Country)] = o
	}
	for _, r := range data.Join.Records {
		if !r.Located {
			continue
		}
		at := leaflet.LatLng{Lat: r.Latitude, Lng: r.Longitude}
		size := c.LabelFontPx
		if o, ok := offsets[dataset.Key(r.Country)]; ok {
			at.Lat += o.Lat
			at.Lng += o.Lon
			if o.FontPx > 0 {
				size = o.FontPx
			}
		}
		m.Add(labelMarker(at, r.Country, size))
	}

	if d := c.Destination; d.Name != "" {
		name := d.Name
		if b, ok := boundary.NewIndex(data.Boundaries).Lookup(d.Name); ok {
			name = b.Name
		} else {
			zap.L().Warn("pipeline: destination not found in boundaries", zap.String("destination", d.Name))
		}
		m.Add(labelMarker(latLng(d.LabelLocation), name, d.FontPx))
	}

	if title := c.Title; title.Text != "" {
		m.AddCSS(fmt.Sprintf(".mapText {color:black; font-family:courier new; font-weight:bold; font-size:%dpx}", title.FontPx))
		m.Add(&leaflet.Marker{
			Location: latLng(title.Location),
			Icon: &leaflet.DivIcon{
				HTML:      "<span>" + html.EscapeString(title.Text) + "</span>",
				ClassName: "mapText",
				Label: &leaflet.Label{
					Text:   title.Text,
					FontPx: float64(title.FontPx),
					Bold:   true,
					Color:  "black",
					Family: leaflet.FamilyMono,
				},
			},
		})
	}

	if h := c.Highlight; h.Enabled {
		m.Add(&leaflet.CircleMarker{
			Center:      latLng(h.Location),
			RadiusPx:    h.RadiusPx,
			Color:       "black",
			Weight:      3,
			Stroke:      true,
			Opacity:     1,
			Fill:        false,
			FillOpacity: 0.6,
			Popup:       fmt.Sprintf("%g pixels", h.RadiusPx),
		})
	}

	if c.Destination.Name != "" {
		m.Add(&leaflet.Marker{Location: latLng(c.Destination.MarkerLocation)})
	}

	return m, nil
}

// RunChoropleth loads the data, composes the choropleth map and writes
// <name>.html and <name>.png.
func (p *Pipeline) RunChoropleth(ctx context.Context) (*Result, error) {
	log := zap.L().With(zap.String("map", p.cfg.Choropleth.Name))
	log.Info("pipeline: building choropleth map")

	t := newStageTracker(log)
	res := &Result{Name: p.cfg.Choropleth.Name}

	data, err := p.loadChoroplethData(ctx, t)
	if err != nil {
		return nil, err
	}
	res.Records = len(data.Join.Records)
	res.Unmatched = data.Join.Unmatched
	if len(res.Unmatched) > 0 {
		log.Info("pipeline: countries without coordinates",
			zap.Strings("countries", res.Unmatched),
			zap.String("policy", p.cfg.Choropleth.JoinPolicy),
		)
	}

	var m *leaflet.Map
	if err := t.track("compose", func() error {
		var err error
		m, err = p.ChoroplethMap(data)
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
		zap.Int("records", res.Records),
		zap.Int("unmatched", len(res.Unmatched)),
	)
	return res, nil
}

// WriteBoundaryTable loads the configured boundaries and writes their
// flattened table to path. It returns the number of rows written.
func (p *Pipeline) WriteBoundaryTable(ctx context.Context, path string) (int, error) {
	b := p.cfg.Choropleth.Boundaries
	bs, err := boundary.Load(ctx, p.fs, p.fetcher, b.Source, b.KeyOn)
	if err != nil {
		return 0, err
	}
	if err := boundary.WriteTableFile(p.fs, path, bs); err != nil {
		return 0, err
	}
	zap.L().Info("pipeline: boundary table written", zap.String("path", path), zap.Int("rows", len(bs)))
	return len(bs), nil
}

func labelMarker(at leaflet.LatLng, text string, fontPx int) *leaflet.Marker {
	return &leaflet.Marker{
		Location: at,
		Popup:    text,
		Icon: leaflet.TextIcon(leaflet.Label{
			Text:   text,
			FontPx: float64(fontPx),
			Color:  "black",
			Family: leaflet.FamilyMono,
		}),
	}
}

func substitutions(subs []config.Substitution) []dataset.Substitution {
	out := make([]dataset.Substitution, len(subs))
	for i, s := range subs {
		out[i] = dataset.Substitution{From: s.From, To: s.To}
	}
	return out
}
