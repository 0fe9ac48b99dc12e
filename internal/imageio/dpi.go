package imageio

import (
	"bytes"
	"encoding/binary"
	"math"

	"github.com/scantailor/scantailor-cli/internal/domain"
)

const (
	metersPerInch = 0.0254
	cmPerInch     = 2.54
)

// SniffDpi reads the resolution stored in the header of a PNG, JPEG, TIFF or
// BMP file. It returns a null Dpi when the format carries none.
func SniffDpi(header []byte) domain.Dpi {
	switch {
	case bytes.HasPrefix(header, []byte("\x89PNG\r\n\x1a\n")):
		return pngDpi(header)
	case bytes.HasPrefix(header, []byte{0xFF, 0xD8}):
		return jpegDpi(header)
	case bytes.HasPrefix(header, []byte("II*\x00")):
		return tiffDpi(header, binary.LittleEndian)
	case bytes.HasPrefix(header, []byte("MM\x00*")):
		return tiffDpi(header, binary.BigEndian)
	case bytes.HasPrefix(header, []byte("BM")):
		return bmpDpi(header)
	}
	return domain.Dpi{}
}

func pngDpi(b []byte) domain.Dpi {
	pos := 8
	for pos+8 <= len(b) {
		n := int(binary.BigEndian.Uint32(b[pos:]))
		typ := string(b[pos+4 : pos+8])
		data := pos + 8
		if typ == "pHYs" && n >= 9 && data+9 <= len(b) {
			x := binary.BigEndian.Uint32(b[data:])
			y := binary.BigEndian.Uint32(b[data+4:])
			if b[data+8] != 1 {
				return domain.Dpi{}
			}
			return domain.Dpi{
				Horizontal: int(math.Round(float64(x) * metersPerInch)),
				Vertical:   int(math.Round(float64(y) * metersPerInch)),
			}
		}
		if typ == "IDAT" || typ == "IEND" {
			break
		}
		pos = data + n + 4
	}
	return domain.Dpi{}
}

func jpegDpi(b []byte) domain.Dpi {
	pos := 2
	for pos+4 <= len(b) {
		if b[pos] != 0xFF {
			break
		}
		marker := b[pos+1]
		n := int(binary.BigEndian.Uint16(b[pos+2:]))
		seg := b[pos+4:]
		if marker == 0xE0 && n >= 14 && len(seg) >= 12 && bytes.HasPrefix(seg, []byte("JFIF\x00")) {
			units := seg[7]
			x := float64(binary.BigEndian.Uint16(seg[8:]))
			y := float64(binary.BigEndian.Uint16(seg[10:]))
			switch units {
			case 1:
				return domain.Dpi{Horizontal: int(x), Vertical: int(y)}
			case 2:
				return domain.Dpi{Horizontal: int(math.Round(x * cmPerInch)), Vertical: int(math.Round(y * cmPerInch))}
			}
			return domain.Dpi{}
		}
		// start of scan: no more metadata
		if marker == 0xDA {
			break
		}
		pos += 2 + n
	}
	return domain.Dpi{}
}

const (
	tiffTagXResolution    = 282
	tiffTagYResolution    = 283
	tiffTagResolutionUnit = 296
)

func tiffDpi(b []byte, order binary.ByteOrder) domain.Dpi {
	if len(b) < 8 {
		return domain.Dpi{}
	}
	ifd := int(order.Uint32(b[4:]))
	if ifd+2 > len(b) {
		return domain.Dpi{}
	}
	count := int(order.Uint16(b[ifd:]))
	rational := func(off int) float64 {
		if off+8 > len(b) {
			return 0
		}
		num, den := order.Uint32(b[off:]), order.Uint32(b[off+4:])
		if den == 0 {
			return 0
		}
		return float64(num) / float64(den)
	}
	var x, y float64
	unit := 2
	for i := 0; i < count; i++ {
		e := ifd + 2 + i*12
		if e+12 > len(b) {
			break
		}
		switch order.Uint16(b[e:]) {
		case tiffTagXResolution:
			x = rational(int(order.Uint32(b[e+8:])))
		case tiffTagYResolution:
			y = rational(int(order.Uint32(b[e+8:])))
		case tiffTagResolutionUnit:
			unit = int(order.Uint16(b[e+8:]))
		}
	}
	switch unit {
	case 2:
	case 3:
		x, y = x*cmPerInch, y*cmPerInch
	default:
		return domain.Dpi{}
	}
	return domain.Dpi{Horizontal: int(math.Round(x)), Vertical: int(math.Round(y))}
}

func bmpDpi(b []byte) domain.Dpi {
	if len(b) < 46 {
		return domain.Dpi{}
	}
	x := int32(binary.LittleEndian.Uint32(b[38:]))
	y := int32(binary.LittleEndian.Uint32(b[42:]))
	return domain.Dpi{
		Horizontal: int(math.Round(float64(x) * metersPerInch)),
		Vertical:   int(math.Round(float64(y) * metersPerInch)),
	}
}
