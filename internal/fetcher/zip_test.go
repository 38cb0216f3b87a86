package fetcher

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func zipBytes(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range files {
		fw, err := w.Create(name)
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func createTestZIP(t *testing.T, files map[string]string) string {
	t.Helper()
	zipPath := filepath.Join(t.TempDir(), "test.zip")
	require.NoError(t, os.WriteFile(zipPath, zipBytes(t, files), 0o644))
	return zipPath
}

func TestExtractZIP_MultiFile(t *testing.T) {
	zipPath := createTestZIP(t, map[string]string{
		"countries.shp": "shp",
		"countries.dbf": "dbf",
		"countries.shx": "shx",
	})

	destDir := t.TempDir()
	extracted, err := ExtractZIP(zipPath, destDir)
	require.NoError(t, err)
	assert.Len(t, extracted, 3)

	data, err := os.ReadFile(filepath.Join(destDir, "countries.dbf"))
	require.NoError(t, err)
	assert.Equal(t, "dbf", string(data))
}

func TestExtractZIP_ZipSlipPrevention(t *testing.T) {
	zipPath := createTestZIP(t, map[string]string{
		"../../evil.txt": "pwned",
	})

	_, err := ExtractZIP(zipPath, t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "zip slip")
}

func TestExtractZIP_InvalidArchive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.zip")
	require.NoError(t, os.WriteFile(path, []byte("not a zip"), 0o644))

	_, err := ExtractZIP(path, t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "zip: open archive")
}

func TestReadZIPEntry(t *testing.T) {
	data := zipBytes(t, map[string]string{
		"mimetype":    "application/vnd.oasis.opendocument.spreadsheet",
		"content.xml": "<doc/>",
	})

	out, err := ReadZIPEntry(data, "content.xml")
	require.NoError(t, err)
	assert.Equal(t, "<doc/>", string(out))
}

func TestReadZIPEntry_NotFound(t *testing.T) {
	data := zipBytes(t, map[string]string{"a.txt": "a"})

	_, err := ReadZIPEntry(data, "content.xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}
