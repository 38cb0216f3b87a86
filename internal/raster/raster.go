// Package raster draws Leaflet maps to images.
//
// The rasterizer reproduces what a browser shows when the HTML page first
// loads: basemap tiles, then layers in insertion order, then the legend and
// any viewport headings. Popups start closed and are not drawn.
package raster

import (
	"context"
	"image"
	"image/color"
	"math"
	"time"

	"github.com/fogleman/gg"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"

	"github.com/sells-group/geomap/internal/fetcher"
	"github.com/sells-group/geomap/internal/leaflet"
)

// Options configures the rasterizer.
type Options struct {
	Width           int
	Height          int
	Basemap         bool // fetch and draw basemap tiles
	TileConcurrency int

	// Consecutive tile failures before a provider is skipped, and how long
	// it is skipped for.
	BreakerThreshold int
	BreakerCooldown  time.Duration
}

// Rasterizer renders maps to images.
type Rasterizer struct {
	opts    Options
	fetcher fetcher.Fetcher
	cache   *TileCache
	breaker *tileBreaker
}

var background = color.NRGBA{0xdd, 0xdd, 0xdd, 0xff}

// New creates a Rasterizer. f and cache may be nil when Basemap is false.
func New(opts Options, f fetcher.Fetcher, cache *TileCache) *Rasterizer {
	if opts.TileConcurrency <= 0 {
		opts.TileConcurrency = 4
	}
	if cache == nil {
		cache = NewTileCache(256, 0)
	}
	return &Rasterizer{
		opts:    opts,
		fetcher: f,
		cache:   cache,
		breaker: newTileBreaker(opts.BreakerThreshold, opts.BreakerCooldown),
	}
}

// Render draws m. The image size comes from the options, not the map.
func (r *Rasterizer) Render(ctx context.Context, m *leaflet.Map) (image.Image, error) {
	if r.opts.Width <= 0 || r.opts.Height <= 0 {
		return nil, eris.Errorf("raster: image size must be positive, got %dx%d", r.opts.Width, r.opts.Height)
	}

	dc := gg.NewContext(r.opts.Width, r.opts.Height)
	dc.SetColor(background)
	dc.Clear()

	vp := NewViewport(m.Center, m.Zoom, r.opts.Width, r.opts.Height)

	if r.opts.Basemap && m.Tiles.URL != "" {
		if r.fetcher == nil {
			zap.L().Warn("raster: no fetcher configured, skipping basemap")
		} else if err := r.drawBasemap(ctx, dc, vp, m.Tiles); err != nil {
			return nil, err
		}
	}

	var legends []*leaflet.Choropleth
	for _, l := range m.Layers() {
		if err := ctx.Err(); err != nil {
			return nil, eris.Wrap(err, "raster: render cancelled")
		}
		switch layer := l.(type) {
		case *leaflet.Choropleth:
			if err := drawChoropleth(dc, vp, layer); err != nil {
				return nil, err
			}
			if layer.Legend != "" {
				legends = append(legends, layer)
			}
		case *leaflet.Circle:
			x, y := vp.Point(layer.Center)
			radius := vp.MetersToPixels(layer.RadiusMeters, layer.Center.Lat)
			fill := layer.FillColor
			if fill == "" {
				fill = layer.Color
			}
			drawCircle(dc, x, y, radius, circleStyle{
				stroke: true, color: layer.Color, weight: layer.Weight, opacity: 1,
				fill: layer.Fill, fillColor: fill, fillOpacity: layer.FillOpacity,
			})
		case *leaflet.CircleMarker:
			x, y := vp.Point(layer.Center)
			fill := layer.FillColor
			if fill == "" {
				fill = layer.Color
			}
			drawCircle(dc, x, y, layer.RadiusPx, circleStyle{
				stroke: layer.Stroke, color: layer.Color, weight: layer.Weight, opacity: layer.Opacity,
				fill: layer.Fill, fillColor: fill, fillOpacity: layer.FillOpacity,
			})
		case *leaflet.Marker:
			if err := drawMarker(dc, vp, layer); err != nil {
				return nil, err
			}
		default:
			return nil, eris.Errorf("raster: unsupported layer %T", l)
		}
	}

	for i, c := range legends {
		if err := drawLegend(dc, c, i); err != nil {
			return nil, err
		}
	}
	for _, h := range m.Headings() {
		if err := drawHeading(dc, h); err != nil {
			return nil, err
		}
	}

	return dc.Image(), nil
}

func setColor(dc *gg.Context, name string, opacity float64) {
	c, err := leaflet.ParseColor(name)
	if err != nil {
		c = color.NRGBA{A: 255}
	}
	c.A = uint8(math.Round(float64(c.A) * math.Max(0, math.Min(1, opacity))))
	dc.SetColor(c)
}

func drawChoropleth(dc *gg.Context, vp Viewport, c *leaflet.Choropleth) error {
	for _, region := range c.Regions {
		var polys []*geom.Polygon
		switch g := region.Geometry.(type) {
		case *geom.Polygon:
			polys = []*geom.Polygon{g}
		case *geom.MultiPolygon:
			for i := range g.NumPolygons() {
				polys = append(polys, g.Polygon(i))
			}
		default:
			return eris.Errorf("raster: region %s has unsupported geometry %T", region.Name, region.Geometry)
		}

		dc.ClearPath()
		for _, p := range polys {
			for i := range p.NumLinearRings() {
				ring := p.LinearRing(i).Coords()
				for j, coord := range ring {
					x, y := vp.Point(leaflet.LatLng{Lat: coord.Y(), Lng: coord.X()})
					if j == 0 {
						dc.MoveTo(x, y)
					} else {
						dc.LineTo(x, y)
					}
				}
				dc.ClosePath()
			}
		}

		dc.SetFillRule(gg.FillRuleEvenOdd)
		setColor(dc, region.FillColor, c.FillOpacity)
		dc.FillPreserve()
		setColor(dc, c.LineColor, c.LineOpacity)
		dc.SetLineWidth(c.LineWeight)
		dc.Stroke()
	}
	return nil
}

type circleStyle struct {
	stroke      bool
	color       string
	weight      float64
	opacity     float64
	fill        bool
	fillColor   string
	fillOpacity float64
}

func drawCircle(dc *gg.Context, x, y, radius float64, s circleStyle) {
	if radius <= 0 {
		return
	}
	dc.NewSubPath()
	dc.DrawCircle(x, y, radius)
	if s.fill {
		setColor(dc, s.fillColor, s.fillOpacity)
		dc.FillPreserve()
	}
	if s.stroke {
		setColor(dc, s.color, s.opacity)
		dc.SetLineWidth(math.Max(s.weight, 1))
		dc.StrokePreserve()
	}
	dc.ClearPath()
}

func drawMarker(dc *gg.Context, vp Viewport, m *leaflet.Marker) error {
	x, y := vp.Point(m.Location)
	if m.Icon == nil {
		drawPin(dc, x, y)
		return nil
	}
	if m.Icon.Label == nil || m.Icon.Label.Text == "" {
		return nil
	}

	l := m.Icon.Label
	face, err := fontFace(l.Family, l.Bold, l.FontPx)
	if err != nil {
		return err
	}
	dc.SetFontFace(face)
	textColor := l.Color
	if textColor == "" {
		textColor = "black"
	}
	setColor(dc, textColor, 1)
	dc.DrawStringAnchored(l.Text, x-float64(m.Icon.Anchor[0]), y-float64(m.Icon.Anchor[1]), 0, 1)
	return nil
}

// drawPin draws a teardrop pin with its tip at (x, y), sized like
// Leaflet's default 25×41 marker icon.
func drawPin(dc *gg.Context, x, y float64) {
	const radius = 11.0
	cy := y - 28

	dc.NewSubPath()
	dc.MoveTo(x, y)
	dc.LineTo(x-radius*0.87, cy+radius*0.5)
	dc.DrawArc(x, cy, radius, gg.Radians(150), gg.Radians(390))
	dc.LineTo(x, y)
	dc.ClosePath()
	setColor(dc, "#2a81cb", 1)
	dc.FillPreserve()
	setColor(dc, "#3274a3", 1)
	dc.SetLineWidth(1)
	dc.Stroke()

	dc.DrawCircle(x, cy, 4)
	setColor(dc, "white", 1)
	dc.Fill()
}

func drawLegend(dc *gg.Context, c *leaflet.Choropleth, index int) error {
	caption, err := fontFace(leaflet.FamilySans, true, 12)
	if err != nil {
		return err
	}
	body, err := fontFace(leaflet.FamilySans, false, 12)
	if err != nil {
		return err
	}

	const (
		pad    = 8.0
		swatch = 18.0
		margin = 10.0
	)
	labels := c.LegendLabels()

	dc.SetFontFace(caption)
	width, _ := dc.MeasureString(c.Legend)
	dc.SetFontFace(body)
	for _, l := range labels {
		w, _ := dc.MeasureString(l)
		width = math.Max(width, swatch+6+w)
	}
	width += 2 * pad
	height := 2*pad + swatch + float64(len(labels))*swatch

	left := float64(dc.Width()) - width - margin
	top := margin + float64(index)*(height+margin)

	dc.DrawRectangle(left, top, width, height)
	dc.SetRGBA(1, 1, 1, 0.85)
	dc.Fill()

	dc.SetFontFace(caption)
	setColor(dc, "black", 1)
	dc.DrawStringAnchored(c.Legend, left+pad, top+pad, 0, 1)

	dc.SetFontFace(body)
	for i, l := range labels {
		rowTop := top + pad + swatch + float64(i)*swatch
		dc.DrawRectangle(left+pad, rowTop, swatch, swatch-2)
		setColor(dc, c.Scale.Colors[i], 0.8)
		dc.Fill()
		setColor(dc, "black", 1)
		dc.DrawStringAnchored(l, left+pad+swatch+6, rowTop+swatch/2, 0, 0.35)
	}
	return nil
}

func drawHeading(dc *gg.Context, h leaflet.Heading) error {
	size := h.FontPx
	if size <= 0 {
		size = 32
	}
	face, err := fontFace(leaflet.FamilySans, true, size)
	if err != nil {
		return err
	}
	dc.SetFontFace(face)
	setColor(dc, "black", 1)
	dc.DrawStringAnchored(h.Text, h.Left*float64(dc.Width()), size*0.67, 0, 1)
	return nil
}
