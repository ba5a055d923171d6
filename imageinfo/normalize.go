package imageinfo

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// embeddable 是演示文稿可以直接嵌入的格式及其扩展名与 MIME 类型。
var embeddable = map[string]struct{ ext, mime string }{
	"png":  {"png", "image/png"},
	"jpeg": {"jpeg", "image/jpeg"},
	"gif":  {"gif", "image/gif"},
	"bmp":  {"bmp", "image/bmp"},
	"tiff": {"tiff", "image/tiff"},
}

// Extension 返回格式对应的文件扩展名，未知格式返回空串。
func Extension(format string) string { return embeddable[format].ext }

// ContentType 返回格式对应的 MIME 类型，未知格式返回空串。
func ContentType(format string) string { return embeddable[format].mime }

// Normalize 把演示文稿无法嵌入的格式（如 WebP）转码为 PNG；其余格式原样返回。
func Normalize(data []byte, info Info) ([]byte, Info, error) {
	if _, ok := embeddable[info.Format]; ok {
		return data, info, nil
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, Info{}, fmt.Errorf("%w: %v", ErrMalformedImageData, err)
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, Info{}, fmt.Errorf("转码 %s 为 png 失败: %w", info.Format, err)
	}
	info.Format = "png"
	return buf.Bytes(), info, nil
}
