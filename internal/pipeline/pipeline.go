// Package pipeline builds the point-of-interest and choropleth maps and
// exports each as HTML and PNG.
package pipeline

import (
	"context"
	"image"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/sells-group/geomap/internal/config"
	"github.com/sells-group/geomap/internal/export"
	"github.com/sells-group/geomap/internal/fetcher"
	"github.com/sells-group/geomap/internal/leaflet"
)

// Renderer rasterizes a map.
type Renderer interface {
	Render(ctx context.Context, m *leaflet.Map) (image.Image, error)
}

// Pipeline runs the map pipelines against one configuration.
type Pipeline struct {
	cfg      *config.Config
	fs       afero.Fs
	fetcher  fetcher.Fetcher
	renderer Renderer
	out      *export.Writer
}

// New creates a Pipeline. Inputs are read from fs and outputs are written
// to cfg.Output.Dir on the same filesystem.
func New(cfg *config.Config, fs afero.Fs, f fetcher.Fetcher, r Renderer) *Pipeline {
	return &Pipeline{
		cfg:      cfg,
		fs:       fs,
		fetcher:  f,
		renderer: r,
		out:      export.NewWriter(fs, cfg.Output.Dir),
	}
}

// Result describes one finished map.
type Result struct {
	Name       string
	HTMLPath   string
	PNGPath    string
	ReportPath string
	Width      int
	Height     int
	Records    int
	Unmatched  []string
	Stages     []export.Stage
}

// stageTracker times named steps and logs the ones that fail.
type stageTracker struct {
	log    *zap.Logger
	stages []export.Stage
}

func newStageTracker(log *zap.Logger) *stageTracker {
	return &stageTracker{log: log}
}

func (t *stageTracker) track(name string, fn func() error) error {
	start := time.Now()
	err := fn()
	duration := time.Since(start).Milliseconds()
	t.stages = append(t.stages, export.Stage{Name: name, DurationMS: duration})

	if err != nil {
		t.log.Error("pipeline: stage failed",
			zap.String("stage", name),
			zap.Int64("duration_ms", duration),
			zap.Error(err),
		)
		return err
	}
	t.log.Debug("pipeline: stage complete",
		zap.String("stage", name),
		zap.Int64("duration_ms", duration),
	)
	return nil
}

// export writes the HTML page first and then the rasterized image, both
// from the same map.
func (p *Pipeline) export(ctx context.Context, t *stageTracker, res *Result, m *leaflet.Map) error {
	if err := t.track("html", func() error {
		path, err := p.out.HTML(res.Name, m)
		res.HTMLPath = path
		return err
	}); err != nil {
		return err
	}

	if err := t.track("png", func() error {
		img, err := p.renderer.Render(ctx, m)
		if err != nil {
			return eris.Wrapf(err, "pipeline: rasterize %s", res.Name)
		}
		res.Width, res.Height = img.Bounds().Dx(), img.Bounds().Dy()
		path, err := p.out.PNG(res.Name, img)
		res.PNGPath = path
		return err
	}); err != nil {
		return err
	}

	res.Stages = t.stages
	if !p.cfg.Output.Report {
		return nil
	}
	path, err := p.out.Report(res.Name, &export.Report{
		Map:       res.Name,
		Outputs:   []string{res.HTMLPath, res.PNGPath},
		Image:     export.ImageSize{Width: res.Width, Height: res.Height},
		Stages:    res.Stages,
		Records:   res.Records,
		Unmatched: res.Unmatched,
	})
	if err != nil {
		return err
	}
	res.ReportPath = path
	return nil
}

func latLng(p config.Point) leaflet.LatLng {
	return leaflet.LatLng{Lat: p.Lat, Lng: p.Lon}
}
