package raster

import (
	"sync"

	"github.com/rotisserie/eris"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"

	"github.com/sells-group/geomap/internal/leaflet"
)

type faceKey struct {
	family string
	bold   bool
	size   float64
}

var (
	fontMu    sync.Mutex
	fontData  = make(map[faceKey]*opentype.Font) // size is zero in these keys
	faceCache = make(map[faceKey]font.Face)
)

func fontTTF(family string, bold bool) []byte {
	switch {
	case family == leaflet.FamilyMono && bold:
		return gomonobold.TTF
	case family == leaflet.FamilyMono:
		return gomono.TTF
	case bold:
		return gobold.TTF
	default:
		return goregular.TTF
	}
}

// fontFace returns a cached face for the Go font matching family and weight.
func fontFace(family string, bold bool, size float64) (font.Face, error) {
	if family != leaflet.FamilyMono {
		family = leaflet.FamilySans
	}
	if size <= 0 {
		size = 12
	}
	key := faceKey{family: family, bold: bold, size: size}

	fontMu.Lock()
	defer fontMu.Unlock()

	if face, ok := faceCache[key]; ok {
		return face, nil
	}

	dataKey := faceKey{family: family, bold: bold}
	f, ok := fontData[dataKey]
	if !ok {
		var err error
		f, err = opentype.Parse(fontTTF(family, bold))
		if err != nil {
			return nil, eris.Wrap(err, "raster: parse font")
		}
		fontData[dataKey] = f
	}

	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, eris.Wrap(err, "raster: create font face")
	}
	faceCache[key] = face
	return face, nil
}
