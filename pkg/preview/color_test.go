package preview

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"

	v1 "github.com/ChrisCarter22/Cataloger/pkg/api/v1"
)

func validICCBytes(description string) []byte {
	return iccBytesWithColorSpace(description, "RGB ")
}

func iccBytesWithColorSpace(description, colorSpace string) []byte {
	header := make([]byte, iccHeaderSize)
	binary.BigEndian.PutUint32(header[0:4], uint32(iccHeaderSize))
	copy(header[16:20], []byte(colorSpace))

	var buf bytes.Buffer
	buf.Write(header)
	lenBuf := make([]byte, 4)
	binary.BigEndian.PutUint32(lenBuf, uint32(len(description)))
	buf.Write(lenBuf)
	buf.WriteString(description)
	return buf.Bytes()
}

func TestColorTransformerEmptyPixels(t *testing.T) {
	ct := NewColorTransformer()
	result := ct.Apply(v1.PreviewImage{}, nil)
	assert.Equal(t, profileEmpty, result.SourceProfile)
}

func TestColorTransformerUsesSRGBWhenNoICC(t *testing.T) {
	ct := NewColorTransformer()
	result := ct.Apply(v1.PreviewImage{Pixels: []byte{1, 2, 3, 4, 5, 6}}, nil)
	assert.Equal(t, "sRGB IEC61966-2.1", result.SourceProfile)
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6}, result.Pixels)
}

func TestColorTransformerSidecarProfile(t *testing.T) {
	ct := NewColorTransformer()
	icc := validICCBytes("sRGB built-in")
	result := ct.Apply(v1.PreviewImage{Pixels: []byte{10, 20, 30}}, icc)
	assert.Contains(t, result.SourceProfile, "sRGB")
}

func TestColorTransformerFallsBackOnUnparsableBytes(t *testing.T) {
	ct := NewColorTransformer()
	result := ct.Apply(v1.PreviewImage{Pixels: []byte{1, 2, 3}}, []byte("not-a-profile"))
	assert.Equal(t, "sRGB IEC61966-2.1", result.SourceProfile)
}

func TestColorTransformerTrailingBytesIgnored(t *testing.T) {
	ct := NewColorTransformer()
	result := ct.Apply(v1.PreviewImage{Pixels: []byte{1, 2, 3, 4}}, nil)
	assert.Len(t, result.Pixels, 3)
}

func TestColorTransformerTargetName(t *testing.T) {
	ct := NewColorTransformer()
	assert.Equal(t, "sRGB IEC61966-2.1", ct.TargetProfileName())
}

func TestComposedProfileLabelContainsArrow(t *testing.T) {
	ct := NewColorTransformer()
	result := ct.Apply(v1.PreviewImage{Pixels: []byte{1, 2, 3}}, nil)
	label := result.SourceProfile + " -> " + ct.TargetProfileName()
	assert.Contains(t, label, " -> ")
}

func TestColorTransformerUnrecognizedColorSpaceIsUnmanaged(t *testing.T) {
	ct := NewColorTransformer()
	icc := iccBytesWithColorSpace("bogus profile", "????")
	result := ct.Apply(v1.PreviewImage{Pixels: []byte{1, 2, 3}}, icc)
	assert.Equal(t, profileUnmanaged, result.SourceProfile)
	assert.Equal(t, []byte{1, 2, 3}, result.Pixels)
}

func TestColorTransformerMismatchedColorSpaceFailsTransform(t *testing.T) {
	ct := NewColorTransformer()
	icc := iccBytesWithColorSpace("CMYK press profile", "CMYK")
	result := ct.Apply(v1.PreviewImage{Pixels: []byte{1, 2, 3}}, icc)
	assert.Equal(t, profileTransformFailed, result.SourceProfile)
	assert.Equal(t, []byte{1, 2, 3}, result.Pixels)
}
