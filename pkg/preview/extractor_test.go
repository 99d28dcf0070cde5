package preview

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	v1 "github.com/ChrisCarter22/Cataloger/pkg/api/v1"
)

func TestExtractReadsBoundedPrefix(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "big.jpg")
	data := make([]byte, MaxPrefixBytes+1000)
	for i := range data {
		data[i] = byte(i)
	}
	require.NoError(t, os.WriteFile(path, data, 0o644))

	d := v1.PreviewDescriptor{RootID: 1, RelativePath: "big.jpg", AbsolutePath: path, FileSize: int64(len(data))}
	img := Extract(d)

	assert.Len(t, img.Pixels, MaxPrefixBytes)
	assert.Equal(t, d.CacheKey(), img.CacheKey)
}

func TestExtractDegradesOnIOFailure(t *testing.T) {
	d := v1.PreviewDescriptor{RootID: 1, RelativePath: "missing.jpg", AbsolutePath: filepath.Join(t.TempDir(), "missing.jpg")}
	img := Extract(d)
	assert.Equal(t, []byte{0}, img.Pixels)
}

func TestExtractDimensionsDeterministic(t *testing.T) {
	d := v1.PreviewDescriptor{FileSize: 5000}
	img1 := Extract(v1.PreviewDescriptor{AbsolutePath: writeTemp(t, "x"), FileSize: d.FileSize})
	img2 := Extract(v1.PreviewDescriptor{AbsolutePath: writeTemp(t, "y"), FileSize: d.FileSize})

	assert.Equal(t, img1.Width, img2.Width)
	assert.Equal(t, img1.Height, img2.Height)
	assert.GreaterOrEqual(t, img1.Width, 512)
	assert.GreaterOrEqual(t, img1.Height, 256)
}

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "f.jpg")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}
