// Package imageinfo reads the pixel size and resolution hint of an encoded image.
package imageinfo

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrMalformedImageData 表示字节流无法识别为受支持的图片格式。
var ErrMalformedImageData = errors.New("malformed image data")

// Info 是图片头部信息。DPI 为 0 表示文件未携带分辨率。
type Info struct {
	Width  int     `json:"width"`
	Height int     `json:"height"`
	DPI    float64 `json:"dpi"`
	Format string  `json:"format"`
}

const (
	metersPerInch  = 0.0254
	inchesPerMeter = 39.3701
	cmPerInch      = 2.54
)

// Probe 解析图片头部，返回像素尺寸、格式与 DPI。
func Probe(data []byte) (Info, error) {
	if len(data) == 0 {
		return Info{}, fmt.Errorf("%w: empty buffer", ErrMalformedImageData)
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Info{}, fmt.Errorf("%w: %v", ErrMalformedImageData, err)
	}
	info := Info{Width: cfg.Width, Height: cfg.Height, Format: format}
	switch format {
	case "png":
		info.DPI = pngDPI(data)
	case "jpeg":
		info.DPI = jpegDPI(data)
	case "bmp":
		info.DPI = bmpDPI(data)
	case "tiff":
		info.DPI = tiffDPI(data)
	}
	return info, nil
}

var pngSignature = []byte("\x89PNG\r\n\x1a\n")

// pngDPI 读取 pHYs 块；单位不是米时没有绝对分辨率。
func pngDPI(data []byte) float64 {
	if !bytes.HasPrefix(data, pngSignature) {
		return 0
	}
	rest := data[len(pngSignature):]
	for len(rest) >= 12 {
		n := int(binary.BigEndian.Uint32(rest[:4]))
		typ := string(rest[4:8])
		if n < 0 || len(rest) < 12+n {
			return 0
		}
		body := rest[8 : 8+n]
		switch typ {
		case "pHYs":
			if n < 9 || body[8] != 1 {
				return 0
			}
			ppm := binary.BigEndian.Uint32(body[:4])
			return float64(ppm) * metersPerInch
		case "IDAT", "IEND":
			// pHYs 必须出现在 IDAT 之前
			return 0
		}
		rest = rest[12+n:]
	}
	return 0
}

// jpegDPI 读取 JFIF APP0 段的密度字段；没有 JFIF 密度时使用 EXIF (APP1) 的 XResolution。
func jpegDPI(data []byte) float64 {
	if len(data) < 4 || data[0] != 0xFF || data[1] != 0xD8 {
		return 0
	}
	var exif float64
	rest := data[2:]
	for len(rest) >= 4 {
		if rest[0] != 0xFF {
			break
		}
		marker := rest[1]
		if marker == 0xD8 || (marker >= 0xD0 && marker <= 0xD7) || marker == 0x01 {
			rest = rest[2:]
			continue
		}
		// SOS 之后是熵编码数据，不再有 APP 段
		if marker == 0xDA || marker == 0xD9 {
			break
		}
		n := int(binary.BigEndian.Uint16(rest[2:4]))
		if n < 2 || len(rest) < 2+n {
			break
		}
		seg := rest[4 : 2+n]
		switch {
		case marker == 0xE0 && len(seg) >= 12 && string(seg[:5]) == "JFIF\x00":
			x := float64(binary.BigEndian.Uint16(seg[8:10]))
			switch seg[7] {
			case 1:
				return x
			case 2:
				return x * cmPerInch
			}
		case marker == 0xE1 && len(seg) > 6 && string(seg[:6]) == "Exif\x00\x00" && exif == 0:
			exif = tiffDPI(seg[6:])
		}
		rest = rest[2+n:]
	}
	return exif
}

const (
	tagXResolution    = 282
	tagResolutionUnit = 296
	tiffTypeShort     = 3
	tiffTypeRational  = 5
)

// tiffDPI 读取 TIFF（或 EXIF 中的 TIFF 结构）第一个 IFD 的 XResolution 与 ResolutionUnit。
// ResolutionUnit 缺省为英寸；单位为 1（无单位）时没有绝对分辨率。
func tiffDPI(b []byte) float64 {
	if len(b) < 8 {
		return 0
	}
	var bo binary.ByteOrder
	switch string(b[:4]) {
	case "II*\x00":
		bo = binary.LittleEndian
	case "MM\x00*":
		bo = binary.BigEndian
	default:
		return 0
	}
	ifd := int(bo.Uint32(b[4:8]))
	if ifd < 8 || ifd+2 > len(b) {
		return 0
	}
	count := int(bo.Uint16(b[ifd : ifd+2]))
	var res float64
	unit := uint16(2)
	for i := 0; i < count; i++ {
		e := ifd + 2 + i*12
		if e+12 > len(b) {
			break
		}
		tag, typ := bo.Uint16(b[e:e+2]), bo.Uint16(b[e+2:e+4])
		switch {
		case tag == tagXResolution && typ == tiffTypeRational:
			off := int(bo.Uint32(b[e+8 : e+12]))
			if off < 0 || off+8 > len(b) {
				return 0
			}
			num, den := bo.Uint32(b[off:off+4]), bo.Uint32(b[off+4:off+8])
			if den == 0 {
				return 0
			}
			res = float64(num) / float64(den)
		case tag == tagResolutionUnit && typ == tiffTypeShort:
			unit = bo.Uint16(b[e+8 : e+10])
		}
	}
	switch unit {
	case 2:
		return res
	case 3:
		return res * cmPerInch
	default:
		return 0
	}
}

// bmpDPI 读取 BITMAPINFOHEADER 中的水平像素/米。
func bmpDPI(data []byte) float64 {
	if len(data) < 42 || data[0] != 'B' || data[1] != 'M' {
		return 0
	}
	ppm := int32(binary.LittleEndian.Uint32(data[38:42]))
	if ppm <= 0 {
		return 0
	}
	return float64(ppm) / inchesPerMeter
}
