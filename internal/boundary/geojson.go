package boundary

import (
	"github.com/rotisserie/eris"
	"github.com/tidwall/gjson"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"
)

// ParseGeoJSON parses a FeatureCollection. Features without polygon
// geometry are skipped.
func ParseGeoJSON(data []byte, keyOn string) ([]Boundary, error) {
	if !gjson.ValidBytes(data) {
		return nil, eris.New("boundary: invalid JSON")
	}
	doc := gjson.ParseBytes(data)
	if t := doc.Get("type").String(); t != "FeatureCollection" {
		return nil, eris.Errorf("boundary: expected FeatureCollection, got %q", t)
	}

	keyPath := trimKeyOn(keyOn)
	var (
		out     []Boundary
		skipped int
		geomErr error
	)

	doc.Get("features").ForEach(func(_, feature gjson.Result) bool {
		raw := feature.Get("geometry")
		if !raw.IsObject() {
			skipped++
			return true
		}

		var g geom.T
		if err := geojson.Unmarshal([]byte(raw.Raw), &g); err != nil {
			geomErr = eris.Wrapf(err, "boundary: decode geometry of feature %d", len(out)+skipped)
			return false
		}
		switch g.(type) {
		case *geom.Polygon, *geom.MultiPolygon:
		default:
			skipped++
			return true
		}

		b := Boundary{
			ID:       feature.Get("id").String(),
			Key:      feature.Get(keyPath).String(),
			Geometry: g,
		}
		if props, ok := feature.Get("properties").Value().(map[string]any); ok {
			b.Properties = props
		}
		b.Name = feature.Get("properties.name").String()
		if b.Name == "" {
			b.Name = b.Key
		}
		out = append(out, b)
		return true
	})
	if geomErr != nil {
		return nil, geomErr
	}

	if skipped > 0 {
		zap.L().Debug("boundary: skipped features without polygon geometry", zap.Int("skipped", skipped))
	}
	return out, nil
}
