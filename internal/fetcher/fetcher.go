package fetcher

import (
	"context"
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/afero"
)

// Fetcher defines the interface for downloading remote data.
type Fetcher interface {
	// Download fetches the URL and returns the response body.
	Download(ctx context.Context, url string) (io.ReadCloser, error)

	// DownloadToFile fetches the URL and writes it to the given path. Returns bytes written.
	DownloadToFile(ctx context.Context, url string, path string) (int64, error)
}

// IsRemote reports whether source is an http(s) URL rather than a local path.
func IsRemote(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

// ReadSource returns the full contents of source, downloading it when it is
// a URL and reading it from fs otherwise.
func ReadSource(ctx context.Context, fs afero.Fs, f Fetcher, source string) ([]byte, error) {
	if !IsRemote(source) {
		data, err := afero.ReadFile(fs, source)
		if err != nil {
			return nil, eris.Wrapf(err, "read %s", source)
		}
		return data, nil
	}

	if f == nil {
		return nil, eris.Errorf("no fetcher configured for %s", source)
	}
	body, err := f.Download(ctx, source)
	if err != nil {
		return nil, err
	}
	defer body.Close() //nolint:errcheck

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, eris.Wrapf(err, "read body of %s", source)
	}
	return data, nil
}
