// Package boundary loads country outlines from GeoJSON or shapefile sources.
package boundary

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/afero"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"

	"github.com/sells-group/geomap/internal/dataset"
	"github.com/sells-group/geomap/internal/fetcher"
)

// Boundary is one named outline. Key holds the value found at the key_on
// path and is what statistics are matched against.
type Boundary struct {
	ID         string
	Name       string
	Key        string
	Geometry   geom.T // *geom.Polygon or *geom.MultiPolygon
	Properties map[string]any
}

// Load reads boundaries from source: an http(s) URL or local path to a
// GeoJSON FeatureCollection, a local .shp file, or a .zip holding one
// shapefile. Shapefiles are read from the OS filesystem.
func Load(ctx context.Context, fs afero.Fs, f fetcher.Fetcher, source, keyOn string) ([]Boundary, error) {
	var (
		out []Boundary
		err error
	)

	switch strings.ToLower(filepath.Ext(source)) {
	case ".shp":
		out, err = ReadShapefile(source, keyOn)
	case ".zip":
		out, err = loadZippedShapefile(ctx, f, source, keyOn)
	default:
		var data []byte
		data, err = fetcher.ReadSource(ctx, fs, f, source)
		if err != nil {
			return nil, eris.Wrap(err, "boundary: fetch")
		}
		out, err = ParseGeoJSON(data, keyOn)
	}
	if err != nil {
		return nil, err
	}

	zap.L().Info("boundary: loaded",
		zap.String("source", source),
		zap.Int("features", len(out)),
	)
	return out, nil
}

func loadZippedShapefile(ctx context.Context, f fetcher.Fetcher, source, keyOn string) ([]Boundary, error) {
	dir, err := os.MkdirTemp("", "geomap-boundary-*")
	if err != nil {
		return nil, eris.Wrap(err, "boundary: create temp dir")
	}
	defer os.RemoveAll(dir) //nolint:errcheck

	zipPath := source
	if fetcher.IsRemote(source) {
		if f == nil {
			return nil, eris.Errorf("boundary: no fetcher configured for %s", source)
		}
		zipPath = filepath.Join(dir, "boundaries.zip")
		if _, err := f.DownloadToFile(ctx, source, zipPath); err != nil {
			return nil, eris.Wrap(err, "boundary: fetch")
		}
	}

	files, err := fetcher.ExtractZIP(zipPath, filepath.Join(dir, "extract"))
	if err != nil {
		return nil, eris.Wrap(err, "boundary: extract")
	}

	shpPath := findShapefile(files)
	if shpPath == "" {
		return nil, eris.Errorf("boundary: no .shp file in %s", source)
	}
	return ReadShapefile(shpPath, keyOn)
}

func findShapefile(files []string) string {
	for _, f := range files {
		if strings.EqualFold(filepath.Ext(f), ".shp") {
			return f
		}
	}
	return ""
}

// Index finds boundaries by normalized key.
type Index struct {
	byKey map[string]int
	all   []Boundary
}

// NewIndex indexes bs. The first boundary wins when keys repeat.
func NewIndex(bs []Boundary) *Index {
	idx := &Index{byKey: make(map[string]int, len(bs)), all: bs}
	for i, b := range bs {
		k := dataset.Key(b.Key)
		if _, ok := idx.byKey[k]; !ok {
			idx.byKey[k] = i
		}
	}
	return idx
}

// Lookup returns the boundary whose key matches name.
func (idx *Index) Lookup(name string) (Boundary, bool) {
	i, ok := idx.byKey[dataset.Key(name)]
	if !ok {
		return Boundary{}, false
	}
	return idx.all[i], true
}

// trimKeyOn converts a folium style key path ("feature.properties.name")
// into a path relative to the feature.
func trimKeyOn(keyOn string) string {
	keyOn = strings.TrimSpace(keyOn)
	keyOn = strings.TrimPrefix(keyOn, "feature.")
	if keyOn == "" {
		return "properties.name"
	}
	return keyOn
}
