package raster

import (
	"bytes"
	"context"
	"image"
	_ "image/jpeg" // Esri tiles are JPEG
	_ "image/png"
	"io"
	"math"

	"github.com/fogleman/gg"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/geomap/internal/leaflet"
)

// drawBasemap fetches the tiles under the viewport and draws them. Tiles
// that cannot be fetched or decoded are logged and left blank, as are the
// remaining tiles of a provider whose breaker has opened. Only cancellation
// aborts.
func (r *Rasterizer) drawBasemap(ctx context.Context, dc *gg.Context, vp Viewport, provider leaflet.TileProvider) error {
	if provider.MaxZoom > 0 && vp.Zoom > provider.MaxZoom {
		zap.L().Warn("raster: zoom beyond tile provider limit, skipping basemap",
			zap.String("tiles", provider.Name),
			zap.Int("zoom", vp.Zoom),
			zap.Int("max_zoom", provider.MaxZoom),
		)
		return nil
	}

	refs := vp.tiles()
	imgs := make([]image.Image, len(refs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.TileConcurrency)
	for i, ref := range refs {
		g.Go(func() error {
			if !r.breaker.allow(provider.Name) {
				return nil
			}
			img, err := r.tile(gctx, provider, ref)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				r.breaker.record(provider.Name, err)
				zap.L().Warn("raster: tile unavailable",
					zap.String("tiles", provider.Name),
					zap.Int("z", ref.Z), zap.Int("x", ref.X), zap.Int("y", ref.Y),
					zap.Error(err),
				)
				return nil
			}
			r.breaker.record(provider.Name, nil)
			imgs[i] = img
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return eris.Wrap(err, "raster: fetch tiles")
	}

	drawn := 0
	for i, ref := range refs {
		if imgs[i] == nil {
			continue
		}
		dc.DrawImage(imgs[i], int(math.Round(ref.PX)), int(math.Round(ref.PY)))
		drawn++
	}

	stats := r.cache.Stats()
	zap.L().Debug("raster: basemap drawn",
		zap.String("tiles", provider.Name),
		zap.Int("requested", len(refs)),
		zap.Int("drawn", drawn),
		zap.Int64("cache_hits", stats.Hits),
		zap.Int64("cache_misses", stats.Misses),
	)
	return nil
}

func (r *Rasterizer) tile(ctx context.Context, provider leaflet.TileProvider, ref tileRef) (image.Image, error) {
	data := r.cache.Get(provider.Name, ref.Z, ref.X, ref.Y)
	if data == nil {
		body, err := r.fetcher.Download(ctx, provider.TileURL(ref.Z, ref.X, ref.Y))
		if err != nil {
			return nil, err
		}
		data, err = io.ReadAll(body)
		_ = body.Close()
		if err != nil {
			return nil, eris.Wrap(err, "raster: read tile")
		}
		r.cache.Put(provider.Name, ref.Z, ref.X, ref.Y, data)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, eris.Wrap(err, "raster: decode tile")
	}
	return img, nil
}
