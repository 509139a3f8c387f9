package ingest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civiclens/grievance-analyzer/constants"
)

func writeFiles(t *testing.T, files map[string][]byte) string {
	t.Helper()
	root := t.TempDir()
	for name, data := range files {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, data, 0o600))
	}
	return root
}

func TestLoadDirectory(t *testing.T) {
	root := writeFiles(t, map[string][]byte{
		"a.png":        []byte("png-bytes"),
		"b.pdf":        []byte("%PDF-1.4"),
		"sub/c.jpeg":   []byte("jpeg-bytes"),
		"readme.txt":   []byte("not a complaint"),
		".hidden.png":  []byte("hidden"),
		".git/d.png":   []byte("in hidden dir"),
	})

	arts, stats, err := LoadDirectory(root, Options{SkipHidden: true}, nil)
	require.NoError(t, err)

	require.Len(t, arts, 3)
	names := map[string]constants.FileFormat{}
	for _, a := range arts {
		names[a.Name] = a.Format
		assert.NotEmpty(t, a.Data)
	}
	assert.Equal(t, constants.PNG, names["a.png"])
	assert.Equal(t, constants.PDF, names["b.pdf"])
	assert.Equal(t, constants.JPEG, names["c.jpeg"])

	assert.Equal(t, uint32(3), stats.Matched)
	assert.Equal(t, uint32(3), stats.Loaded)
	assert.Equal(t, uint32(0), stats.Failed)
}

func TestLoadDirectoryIncludeUnknown(t *testing.T) {
	root := writeFiles(t, map[string][]byte{
		"a.png":      []byte("png-bytes"),
		"readme.txt": []byte("not a complaint"),
	})

	arts, _, err := LoadDirectory(root, Options{IncludeUnknown: true}, nil)
	require.NoError(t, err)
	require.Len(t, arts, 2)

	var unknown int
	for _, a := range arts {
		if a.Format == "" {
			unknown++
			assert.Equal(t, "readme.txt", a.Name)
		}
	}
	assert.Equal(t, 1, unknown, "unknown-format file loaded for pipeline-side exclusion")
}

func TestLoadDirectoryEmptyRoot(t *testing.T) {
	_, _, err := LoadDirectory("  ", Options{}, nil)
	assert.Error(t, err)
}
