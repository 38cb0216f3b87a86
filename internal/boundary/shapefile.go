package boundary

import (
	"strconv"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"
)

// ReadShapefile reads polygon records from an ESRI shapefile. The key_on
// path names a DBF attribute ("properties.NAME" or just "NAME"); attribute
// names match case-insensitively. Record numbers become boundary IDs.
func ReadShapefile(shpPath, keyOn string) ([]Boundary, error) {
	reader, err := shp.Open(shpPath)
	if err != nil {
		return nil, eris.Wrapf(err, "boundary: open shapefile %s", shpPath)
	}
	defer func() { _ = reader.Close() }()

	fields := reader.Fields()
	names := make([]string, len(fields))
	fieldIdx := make(map[string]int, len(fields))
	for i, f := range fields {
		name := strings.TrimRight(f.String(), "\x00")
		names[i] = name
		fieldIdx[strings.ToLower(name)] = i
	}

	keyField := strings.ToLower(strings.TrimPrefix(trimKeyOn(keyOn), "properties."))
	keyIdx, ok := fieldIdx[keyField]
	if !ok {
		return nil, eris.Errorf("boundary: shapefile has no attribute %q", keyField)
	}
	nameIdx, hasName := fieldIdx["name"]
	if !hasName {
		nameIdx = keyIdx
	}

	var out []Boundary
	var skipped int

	for reader.Next() {
		n, shape := reader.Shape()

		g := shapeToMultiPolygon(shape)
		if g == nil {
			skipped++
			continue
		}

		props := make(map[string]any, len(names))
		for i, name := range names {
			props[name] = attribute(reader, i)
		}

		out = append(out, Boundary{
			ID:         strconv.Itoa(n),
			Name:       attribute(reader, nameIdx),
			Key:        attribute(reader, keyIdx),
			Geometry:   g,
			Properties: props,
		})
	}

	if skipped > 0 {
		zap.L().Debug("boundary: skipped non-polygon shapefile records",
			zap.String("path", shpPath),
			zap.Int("skipped", skipped),
		)
	}

	return out, nil
}

func attribute(reader *shp.Reader, idx int) string {
	return strings.TrimSpace(strings.TrimRight(reader.Attribute(idx), "\x00"))
}

// shapeToMultiPolygon converts polygon shapes to a geom.MultiPolygon.
// Returns nil for other shape types and empty polygons.
func shapeToMultiPolygon(shape shp.Shape) *geom.MultiPolygon {
	switch s := shape.(type) {
	case *shp.Polygon:
		return ringsToMultiPolygon(s.Parts, s.Points)
	case *shp.PolygonZ:
		return ringsToMultiPolygon(s.Parts, s.Points)
	case *shp.PolygonM:
		return ringsToMultiPolygon(s.Parts, s.Points)
	default:
		return nil
	}
}

// ringsToMultiPolygon groups shapefile rings into polygons. Outer rings are
// clockwise and start a new polygon; counter-clockwise rings are holes of
// the polygon before them.
func ringsToMultiPolygon(parts []int32, points []shp.Point) *geom.MultiPolygon {
	if len(parts) == 0 || len(points) == 0 {
		return nil
	}

	mp := geom.NewMultiPolygon(geom.XY)
	var current *geom.Polygon

	flush := func() {
		if current == nil {
			return
		}
		if err := mp.Push(current); err != nil {
			zap.L().Debug("boundary: skipping malformed polygon", zap.Error(err))
		}
		current = nil
	}

	for i, start := range parts {
		end := int32(len(points))
		if i+1 < len(parts) {
			end = parts[i+1]
		}
		if start < 0 || start >= end || int(end) > len(points) {
			continue
		}

		flat := make([]float64, 0, (end-start)*2)
		for _, p := range points[start:end] {
			flat = append(flat, p.X, p.Y)
		}
		if len(flat) < 8 {
			continue
		}
		ring := geom.NewLinearRingFlat(geom.XY, flat)

		if signedArea(flat) <= 0 || current == nil {
			flush()
			current = geom.NewPolygon(geom.XY)
		}
		if err := current.Push(ring); err != nil {
			zap.L().Debug("boundary: skipping malformed ring", zap.Int("part", i), zap.Error(err))
		}
	}
	flush()

	if mp.NumPolygons() == 0 {
		return nil
	}
	return mp
}

// signedArea is the shoelace area of a flat XY ring; negative when the
// ring is clockwise.
func signedArea(flat []float64) float64 {
	var sum float64
	n := len(flat) / 2
	for i := range n {
		j := (i + 1) % n
		sum += flat[2*i]*flat[2*j+1] - flat[2*j]*flat[2*i+1]
	}
	return sum / 2
}
