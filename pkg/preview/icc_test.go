package preview

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildJPEGWithICC writes a minimal well-formed-enough JPEG: SOI, one or
// more APP2 segments carrying the ICC_PROFILE chunks, then EOI. It is not
// a decodable image, only a vehicle for exercising the marker walk.
func buildJPEGWithICC(t *testing.T, chunks [][]byte) string {
	t.Helper()
	var buf bytes.Buffer
	buf.Write([]byte{0xFF, 0xD8})

	total := len(chunks)
	for i, chunk := range chunks {
		payload := bytes.NewBuffer(nil)
		payload.WriteString("ICC_PROFILE")
		payload.WriteByte(0x00)
		payload.WriteByte(byte(i + 1))
		payload.WriteByte(byte(total))
		payload.Write(chunk)

		segLen := payload.Len() + 2
		buf.Write([]byte{0xFF, 0xE2})
		buf.Write([]byte{byte(segLen >> 8), byte(segLen & 0xFF)})
		buf.Write(payload.Bytes())
	}
	buf.Write([]byte{0xFF, 0xD9})

	path := filepath.Join(t.TempDir(), "with-icc.jpg")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func TestExtractEmbeddedProfileRoundtrip(t *testing.T) {
	chunk1 := bytes.Repeat([]byte{0xAA}, 40)
	chunk2 := bytes.Repeat([]byte{0xBB}, 25)
	path := buildJPEGWithICC(t, [][]byte{chunk1, chunk2})

	got := ExtractEmbeddedProfile(path)
	want := append(append([]byte{}, chunk1...), chunk2...)
	assert.Equal(t, want, got)
}

func TestExtractEmbeddedProfileSingleChunk(t *testing.T) {
	chunk := []byte("some-icc-bytes-here")
	path := buildJPEGWithICC(t, [][]byte{chunk})

	got := ExtractEmbeddedProfile(path)
	assert.Equal(t, chunk, got)
}

func TestExtractEmbeddedProfileMissingChunkReturnsNil(t *testing.T) {
	// Build a JPEG that only has chunk 2 of 2; chunk 1 is missing.
	var buf bytes.Buffer
	buf.Write([]byte{0xFF, 0xD8})
	payload := bytes.NewBuffer(nil)
	payload.WriteString("ICC_PROFILE")
	payload.WriteByte(0x00)
	payload.WriteByte(2)
	payload.WriteByte(2)
	payload.WriteString("chunk-two")
	segLen := payload.Len() + 2
	buf.Write([]byte{0xFF, 0xE2})
	buf.Write([]byte{byte(segLen >> 8), byte(segLen & 0xFF)})
	buf.Write(payload.Bytes())
	buf.Write([]byte{0xFF, 0xD9})

	path := filepath.Join(t.TempDir(), "partial.jpg")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	assert.Nil(t, ExtractEmbeddedProfile(path))
}

func TestExtractEmbeddedProfileNonJPEGReturnsNil(t *testing.T) {
	path := filepath.Join(t.TempDir(), "raw.cr3")
	require.NoError(t, os.WriteFile(path, []byte{0xFF, 0xD8, 0xFF, 0xD9}, 0o644))
	assert.Nil(t, ExtractEmbeddedProfile(path))
}

func TestExtractEmbeddedProfileNoICCSegmentReturnsNil(t *testing.T) {
	path := buildJPEGWithICC(t, nil)
	assert.Nil(t, ExtractEmbeddedProfile(path))
}

func TestExtractEmbeddedProfileSkipsOtherSegments(t *testing.T) {
	var buf bytes.Buffer
	buf.Write([]byte{0xFF, 0xD8})
	// an unrelated APP0 (JFIF) segment that must be skipped correctly
	buf.Write([]byte{0xFF, 0xE0, 0x00, 0x06, 'J', 'F', 'I', 'F'})

	chunk := []byte("profile-bytes")
	payload := bytes.NewBuffer(nil)
	payload.WriteString("ICC_PROFILE")
	payload.WriteByte(0x00)
	payload.WriteByte(1)
	payload.WriteByte(1)
	payload.Write(chunk)
	segLen := payload.Len() + 2
	buf.Write([]byte{0xFF, 0xE2})
	buf.Write([]byte{byte(segLen >> 8), byte(segLen & 0xFF)})
	buf.Write(payload.Bytes())
	buf.Write([]byte{0xFF, 0xD9})

	path := filepath.Join(t.TempDir(), "with-app0.jpg")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	assert.Equal(t, chunk, ExtractEmbeddedProfile(path))
}
