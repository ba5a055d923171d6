package imageinfo

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testImage(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 80, A: 255})
		}
	}
	return img
}

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, testImage(w, h)))
	return buf.Bytes()
}

// withPHYs inserts a pHYs chunk right after IHDR.
func withPHYs(t *testing.T, data []byte, ppm uint32, unit byte) []byte {
	t.Helper()
	const ihdrEnd = 8 + 4 + 4 + 13 + 4
	body := make([]byte, 9)
	binary.BigEndian.PutUint32(body[0:4], ppm)
	binary.BigEndian.PutUint32(body[4:8], ppm)
	body[8] = unit

	chunk := make([]byte, 0, 21)
	chunk = binary.BigEndian.AppendUint32(chunk, uint32(len(body)))
	chunk = append(chunk, "pHYs"...)
	chunk = append(chunk, body...)
	crc := crc32.ChecksumIEEE(append([]byte("pHYs"), body...))
	chunk = binary.BigEndian.AppendUint32(chunk, crc)

	out := append([]byte{}, data[:ihdrEnd]...)
	out = append(out, chunk...)
	return append(out, data[ihdrEnd:]...)
}

func encodeJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, testImage(w, h), nil))
	return buf.Bytes()
}

// withJFIF inserts an APP0 JFIF segment right after SOI.
func withJFIF(data []byte, units byte, density uint16) []byte {
	seg := []byte{0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00, 0x01, 0x01, units}
	seg = binary.BigEndian.AppendUint16(seg, density)
	seg = binary.BigEndian.AppendUint16(seg, density)
	seg = append(seg, 0x00, 0x00)
	out := append([]byte{}, data[:2]...)
	out = append(out, seg...)
	return append(out, data[2:]...)
}

func TestProbePNGWithoutDPI(t *testing.T) {
	info, err := Probe(encodePNG(t, 40, 20))
	require.NoError(t, err)
	assert.Equal(t, Info{Width: 40, Height: 20, Format: "png"}, info)
}

func TestProbePNGWithPHYs(t *testing.T) {
	data := withPHYs(t, encodePNG(t, 40, 20), 3937, 1)
	info, err := Probe(data)
	require.NoError(t, err)
	assert.Equal(t, 40, info.Width)
	assert.InDelta(t, 100.0, info.DPI, 0.01)
}

func TestProbePNGAspectOnlyPHYs(t *testing.T) {
	data := withPHYs(t, encodePNG(t, 8, 8), 3937, 0)
	info, err := Probe(data)
	require.NoError(t, err)
	assert.Zero(t, info.DPI)
}

func TestProbeJPEG(t *testing.T) {
	plain := encodeJPEG(t, 30, 10)
	info, err := Probe(plain)
	require.NoError(t, err)
	assert.Equal(t, "jpeg", info.Format)
	assert.Equal(t, 30, info.Width)
	assert.Equal(t, 10, info.Height)
	assert.Zero(t, info.DPI)

	info, err = Probe(withJFIF(plain, 1, 300))
	require.NoError(t, err)
	assert.Equal(t, 300.0, info.DPI)

	info, err = Probe(withJFIF(plain, 2, 100))
	require.NoError(t, err)
	assert.InDelta(t, 254.0, info.DPI, 1e-9)

	info, err = Probe(withJFIF(plain, 0, 1))
	require.NoError(t, err)
	assert.Zero(t, info.DPI)
}

// tiffResolution builds a minimal TIFF structure holding XResolution and ResolutionUnit.
func tiffResolution(bo interface {
	binary.ByteOrder
	binary.AppendByteOrder
}, num, den uint32, unit uint16) []byte {
	b := []byte("II*\x00")
	if bo == binary.BigEndian {
		b = []byte("MM\x00*")
	}
	b = bo.AppendUint32(b, 8)
	b = bo.AppendUint16(b, 2)
	// XResolution, RATIONAL, count 1, value at offset 38
	b = bo.AppendUint16(b, 282)
	b = bo.AppendUint16(b, 5)
	b = bo.AppendUint32(b, 1)
	b = bo.AppendUint32(b, 38)
	// ResolutionUnit, SHORT, count 1, inline value
	b = bo.AppendUint16(b, 296)
	b = bo.AppendUint16(b, 3)
	b = bo.AppendUint32(b, 1)
	b = bo.AppendUint16(b, unit)
	b = bo.AppendUint16(b, 0)
	b = bo.AppendUint32(b, 0)
	b = bo.AppendUint32(b, num)
	return bo.AppendUint32(b, den)
}

// withExif inserts an APP1 Exif segment right after SOI.
func withExif(data, tiff []byte) []byte {
	payload := append([]byte("Exif\x00\x00"), tiff...)
	seg := []byte{0xFF, 0xE1}
	seg = binary.BigEndian.AppendUint16(seg, uint16(len(payload)+2))
	seg = append(seg, payload...)
	out := append([]byte{}, data[:2]...)
	out = append(out, seg...)
	return append(out, data[2:]...)
}

func TestTIFFResolution(t *testing.T) {
	assert.Equal(t, 300.0, tiffDPI(tiffResolution(binary.LittleEndian, 300, 1, 2)))
	assert.Equal(t, 72.0, tiffDPI(tiffResolution(binary.BigEndian, 144, 2, 2)))
	assert.InDelta(t, 254.0, tiffDPI(tiffResolution(binary.LittleEndian, 100, 1, 3)), 1e-9)
	assert.Zero(t, tiffDPI(tiffResolution(binary.LittleEndian, 300, 1, 1)))
	assert.Zero(t, tiffDPI(tiffResolution(binary.LittleEndian, 300, 0, 2)))
	assert.Zero(t, tiffDPI([]byte("II*\x00\xff\xff\xff\xff")))
}

func TestProbeJPEGExifResolution(t *testing.T) {
	plain := encodeJPEG(t, 30, 10)
	info, err := Probe(withExif(plain, tiffResolution(binary.BigEndian, 240, 1, 2)))
	require.NoError(t, err)
	assert.Equal(t, 30, info.Width)
	assert.Equal(t, 240.0, info.DPI)

	// JFIF 密度优先于 EXIF
	both := withJFIF(withExif(plain, tiffResolution(binary.BigEndian, 240, 1, 2)), 1, 96)
	info, err = Probe(both)
	require.NoError(t, err)
	assert.Equal(t, 96.0, info.DPI)
}

func TestProbeMalformed(t *testing.T) {
	for _, data := range [][]byte{nil, []byte("not an image"), []byte("\x89PNG\r\n\x1a\n")} {
		_, err := Probe(data)
		require.ErrorIs(t, err, ErrMalformedImageData)
	}
}

func TestNormalizePassesThroughEmbeddable(t *testing.T) {
	data := encodePNG(t, 4, 4)
	info, err := Probe(data)
	require.NoError(t, err)
	out, outInfo, err := Normalize(data, info)
	require.NoError(t, err)
	assert.Equal(t, data, out)
	assert.Equal(t, info, outInfo)
	assert.Equal(t, "png", Extension(outInfo.Format))
	assert.Equal(t, "image/jpeg", ContentType("jpeg"))
	assert.Empty(t, Extension("webp"))
}
