// Package export writes rendered maps to the output directory.
package export

import (
	"bytes"
	"image"
	"path/filepath"

	"github.com/fogleman/gg"
	"github.com/rotisserie/eris"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/sells-group/geomap/internal/leaflet"
)

// Writer writes <name>.html, <name>.png and <name>.report.yaml into Dir.
// Existing files are overwritten.
type Writer struct {
	fs  afero.Fs
	dir string
}

// NewWriter creates a Writer rooted at dir on fs.
func NewWriter(fs afero.Fs, dir string) *Writer {
	if dir == "" {
		dir = "."
	}
	return &Writer{fs: fs, dir: dir}
}

// Path returns the output path for name with the given extension.
func (w *Writer) Path(name, ext string) string {
	return filepath.Join(w.dir, name+ext)
}

// HTML renders m and writes it to <name>.html.
func (w *Writer) HTML(name string, m *leaflet.Map) (string, error) {
	page, err := m.HTML()
	if err != nil {
		return "", eris.Wrapf(err, "export: render %s", name)
	}
	path := w.Path(name, ".html")
	if err := w.write(path, page); err != nil {
		return "", err
	}
	return path, nil
}

// PNG encodes img and writes it to <name>.png.
func (w *Writer) PNG(name string, img image.Image) (string, error) {
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return "", eris.Errorf("export: %s image is empty", name)
	}

	var buf bytes.Buffer
	if err := gg.NewContextForImage(img).EncodePNG(&buf); err != nil {
		return "", eris.Wrapf(err, "export: encode %s png", name)
	}
	path := w.Path(name, ".png")
	if err := w.write(path, buf.Bytes()); err != nil {
		return "", err
	}
	return path, nil
}

func (w *Writer) write(path string, data []byte) error {
	if err := w.fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrapf(err, "export: create directory for %s", path)
	}
	if err := afero.WriteFile(w.fs, path, data, 0o644); err != nil {
		return eris.Wrapf(err, "export: write %s", path)
	}
	zap.L().Info("export: wrote file", zap.String("path", path), zap.Int("bytes", len(data)))
	return nil
}
