package main

import (
	"time"

	"github.com/spf13/afero"
	"golang.org/x/time/rate"

	"github.com/sells-group/geomap/internal/fetcher"
	"github.com/sells-group/geomap/internal/pipeline"
	"github.com/sells-group/geomap/internal/raster"
)

// initPipeline wires the HTTP fetcher, tile cache and rasterizer from the
// loaded config and builds the Pipeline on the OS filesystem.
func initPipeline() *pipeline.Pipeline {
	f := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
		UserAgent:   cfg.Fetch.UserAgent,
		Timeout:     time.Duration(cfg.Fetch.TimeoutSecs) * time.Second,
		MaxRetries:  cfg.Fetch.MaxRetries,
		RatePerHost: rate.Limit(cfg.Fetch.RatePerHost),
	})

	cache := raster.NewTileCache(cfg.Render.TileCacheSize, time.Duration(cfg.Render.TileCacheTTLMins)*time.Minute)
	r := raster.New(raster.Options{
		Width:            cfg.Render.Width,
		Height:           cfg.Render.Height,
		Basemap:          cfg.Render.Basemap,
		TileConcurrency:  cfg.Render.TileConcurrency,
		BreakerThreshold: cfg.Render.TileFailureThreshold,
		BreakerCooldown:  time.Duration(cfg.Render.TileFailureCooldownSecs) * time.Second,
	}, f, cache)

	return pipeline.New(cfg, afero.NewOsFs(), f, r)
}
