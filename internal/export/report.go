package export

import (
	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Report summarizes one map run.
type Report struct {
	Map       string    `yaml:"map"`
	Outputs   []string  `yaml:"outputs"`
	Image     ImageSize `yaml:"image"`
	Stages    []Stage   `yaml:"stages"`
	Records   int       `yaml:"records,omitempty"`
	Unmatched []string  `yaml:"unmatched,omitempty"`
}

// ImageSize is the rasterized image size in pixels.
type ImageSize struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// Stage records how long one pipeline step took.
type Stage struct {
	Name       string `yaml:"name"`
	DurationMS int64  `yaml:"duration_ms"`
}

// Report writes r to <name>.report.yaml.
func (w *Writer) Report(name string, r *Report) (string, error) {
	data, err := yaml.Marshal(r)
	if err != nil {
		return "", eris.Wrapf(err, "export: encode %s report", name)
	}
	path := w.Path(name, ".report.yaml")
	if err := w.write(path, data); err != nil {
		return "", err
	}
	return path, nil
}
