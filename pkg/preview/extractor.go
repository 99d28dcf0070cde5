// Package preview implements the preview pipeline's leaf components: the
// bounded-prefix preview extractor (C4), the JPEG ICC profile extractor
// (C5), the color transformer (C6) and the GPU bridge capability (C7).
package preview

import (
	"io"
	"os"

	v1 "github.com/ChrisCarter22/Cataloger/pkg/api/v1"
)

// MaxPrefixBytes is the largest head-of-file slice the extractor reads.
const MaxPrefixBytes = 262144

// Extract reads a bounded byte prefix from the descriptor's file and
// returns it as a deterministic preview surrogate. It never returns an
// error: I/O failures degrade to a single zero byte, matching the
// ExtractError policy (degraded operation, not surfaced to the caller).
func Extract(d v1.PreviewDescriptor) v1.PreviewImage {
	pixels, err := readPrefix(d.AbsolutePath, MaxPrefixBytes)
	if err != nil {
		pixels = []byte{0}
	}

	width := 512 + int(d.FileSize%2048)
	if width < 512 {
		width = 512
	}
	height := 256 + int((d.FileSize/2)%2048)
	if height < 256 {
		height = 256
	}

	return v1.PreviewImage{
		CacheKey:   d.CacheKey(),
		SourcePath: d.AbsolutePath,
		Pixels:     pixels,
		Width:      width,
		Height:     height,
	}
}

func readPrefix(path string, limit int) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	pixels, err := io.ReadAll(io.LimitReader(f, int64(limit)))
	if err != nil {
		return nil, err
	}
	return pixels, nil
}
