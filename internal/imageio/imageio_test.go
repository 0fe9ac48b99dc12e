package imageio

import (
	"bytes"
	"context"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scantailor/scantailor-cli/internal/domain"
	"github.com/scantailor/scantailor-cli/internal/observability"
)

func grayImage(w, h int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = uint8(i % 256)
	}
	return img
}

// withPHYs inserts a pHYs chunk right after IHDR.
func withPHYs(t *testing.T, pngData []byte, ppm uint32) []byte {
	t.Helper()
	ihdrEnd := 8 + 4 + 4 + 13 + 4
	body := make([]byte, 9)
	binary.BigEndian.PutUint32(body[0:], ppm)
	binary.BigEndian.PutUint32(body[4:], ppm)
	body[8] = 1

	var chunk bytes.Buffer
	require.NoError(t, binary.Write(&chunk, binary.BigEndian, uint32(len(body))))
	chunk.WriteString("pHYs")
	chunk.Write(body)
	crc := crc32.ChecksumIEEE(append([]byte("pHYs"), body...))
	require.NoError(t, binary.Write(&chunk, binary.BigEndian, crc))

	out := append([]byte{}, pngData[:ihdrEnd]...)
	out = append(out, chunk.Bytes()...)
	return append(out, pngData[ihdrEnd:]...)
}

// withJFIF puts a JFIF APP0 segment after the start of image marker.
func withJFIF(jpegData []byte, units byte, x, y uint16) []byte {
	seg := []byte{0xFF, 0xE0, 0, 16, 'J', 'F', 'I', 'F', 0, 1, 2, units, 0, 0, 0, 0, 0, 0}
	binary.BigEndian.PutUint16(seg[12:], x)
	binary.BigEndian.PutUint16(seg[14:], y)
	out := append([]byte{}, jpegData[:2]...)
	out = append(out, seg...)
	return append(out, jpegData[2:]...)
}

func TestSniffDpi_PNG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, grayImage(4, 4)))

	assert.True(t, SniffDpi(buf.Bytes()).IsNull())
	// 11811 pixels per meter is 300 dpi
	assert.Equal(t, domain.NewDpi(300), SniffDpi(withPHYs(t, buf.Bytes(), 11811)))
}

func TestSniffDpi_JPEG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, grayImage(8, 8), nil))

	assert.Equal(t, domain.Dpi{Horizontal: 400, Vertical: 200}, SniffDpi(withJFIF(buf.Bytes(), 1, 400, 200)))
	assert.Equal(t, domain.NewDpi(300), SniffDpi(withJFIF(buf.Bytes(), 2, 118, 118)))
	assert.True(t, SniffDpi(withJFIF(buf.Bytes(), 0, 1, 1)).IsNull())
}

func TestSniffDpi_TIFF(t *testing.T) {
	b := make([]byte, 8+2+3*12+4+16)
	copy(b, "II*\x00")
	binary.LittleEndian.PutUint32(b[4:], 8)
	binary.LittleEndian.PutUint16(b[8:], 3)
	rationals := 8 + 2 + 3*12 + 4
	entry := func(i int, tag, typ uint16, value uint32) {
		e := 10 + i*12
		binary.LittleEndian.PutUint16(b[e:], tag)
		binary.LittleEndian.PutUint16(b[e+2:], typ)
		binary.LittleEndian.PutUint32(b[e+4:], 1)
		binary.LittleEndian.PutUint32(b[e+8:], value)
	}
	entry(0, tiffTagXResolution, 5, uint32(rationals))
	entry(1, tiffTagYResolution, 5, uint32(rationals+8))
	entry(2, tiffTagResolutionUnit, 3, 2)
	binary.LittleEndian.PutUint32(b[rationals:], 600)
	binary.LittleEndian.PutUint32(b[rationals+4:], 1)
	binary.LittleEndian.PutUint32(b[rationals+8:], 1200)
	binary.LittleEndian.PutUint32(b[rationals+12:], 2)

	assert.Equal(t, domain.NewDpi(600), SniffDpi(b))
}

func TestSniffDpi_Unknown(t *testing.T) {
	assert.True(t, SniffDpi([]byte("GIF89a")).IsNull())
	assert.True(t, SniffDpi(nil).IsNull())
}

func TestNormalize(t *testing.T) {
	gray := grayImage(3, 3)
	assert.Same(t, gray, Normalize(gray))

	rgbGray := image.NewRGBA(image.Rect(0, 0, 2, 2))
	for i := range rgbGray.Pix {
		rgbGray.Pix[i] = 0x80
		if i%4 == 3 {
			rgbGray.Pix[i] = 0xFF
		}
	}
	_, ok := Normalize(rgbGray).(*image.Gray)
	assert.True(t, ok)

	colored := image.NewNRGBA(image.Rect(1, 1, 3, 3))
	colored.Set(1, 1, color.NRGBA{R: 0xFF, A: 0xFF})
	out, ok := Normalize(colored).(*image.RGBA)
	require.True(t, ok)
	assert.Equal(t, image.Rect(0, 0, 2, 2), out.Rect)
	assert.Equal(t, color.RGBA{R: 0xFF, A: 0xFF}, out.RGBAAt(0, 0))
}

func TestLoader_LoadPNG(t *testing.T) {
	dir := t.TempDir()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, grayImage(30, 20)))
	path := filepath.Join(dir, "page.png")
	require.NoError(t, os.WriteFile(path, withPHYs(t, buf.Bytes(), 11811), 0o644))

	l := NewLoader(0)
	meta, err := l.Metadata(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, meta, 1)
	assert.Equal(t, domain.ImageMetadata{Width: 30, Height: 20, Dpi: domain.NewDpi(300)}, meta[0])

	img, m, err := l.Load(context.Background(), domain.NewImageID(path, 0))
	require.NoError(t, err)
	assert.Equal(t, meta[0], m)
	assert.Equal(t, 30, img.Bounds().Dx())

	_, _, err = l.Load(context.Background(), domain.NewImageID(path, 1))
	assert.True(t, domain.IsType(err, domain.ErrorTypeLoad))
}

func TestLoader_Undecodable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.png")
	require.NoError(t, os.WriteFile(path, []byte("definitely not an image"), 0o644))

	_, _, err := NewLoader(0).Load(context.Background(), domain.NewImageID(path, 0))
	require.Error(t, err)
	assert.True(t, domain.IsType(err, domain.ErrorTypeLoad))
}

func TestValidateInputPath(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "a.TIF")
	require.NoError(t, os.WriteFile(good, []byte("x"), 0o644))
	other := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(other, []byte("x"), 0o644))

	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{"supported", good, false},
		{"empty", " ", true},
		{"missing", filepath.Join(dir, "missing.png"), true},
		{"directory", dir, true},
		{"unsupported", other, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateInputPath(tt.path, observability.Nop())
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, domain.IsType(err, domain.ErrorTypeValidation))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
