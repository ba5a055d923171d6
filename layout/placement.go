package layout

import (
	"errors"
	"fmt"
	"math"
)

// Canvas 默认值：1920×1080 像素，参考 DPI 96。
const (
	DefaultWidthPx  = 1920
	DefaultHeightPx = 1080
	DefaultDPI      = 96.0
)

// ErrInvalidImageDimensions 表示图片像素尺寸或 DPI 无法参与换算。
var ErrInvalidImageDimensions = errors.New("invalid image dimensions")

// Canvas 描述输出幻灯片的固定尺寸。零值不可用，请使用 DefaultCanvas 或 NewCanvas。
type Canvas struct {
	WidthPx  int     `json:"widthPx" yaml:"width_px"`
	HeightPx int     `json:"heightPx" yaml:"height_px"`
	DPI      float64 `json:"dpi" yaml:"dpi"`
}

// DefaultCanvas 返回 1920×1080@96 的画布。
func DefaultCanvas() Canvas {
	return Canvas{WidthPx: DefaultWidthPx, HeightPx: DefaultHeightPx, DPI: DefaultDPI}
}

// NewCanvas 校验并构造画布。
func NewCanvas(widthPx, heightPx int, dpi float64) (Canvas, error) {
	c := Canvas{WidthPx: widthPx, HeightPx: heightPx, DPI: dpi}
	if err := c.Validate(); err != nil {
		return Canvas{}, err
	}
	return c, nil
}

// Validate reports whether the canvas can be converted to EMU.
func (c Canvas) Validate() error {
	if c.WidthPx <= 0 || c.HeightPx <= 0 {
		return fmt.Errorf("画布尺寸必须为正数: %dx%d", c.WidthPx, c.HeightPx)
	}
	if c.DPI <= 0 || math.IsNaN(c.DPI) || math.IsInf(c.DPI, 0) {
		return fmt.Errorf("画布 DPI 无效: %g", c.DPI)
	}
	return nil
}

func (c Canvas) WidthEMU() EMU  { return Pixels(float64(c.WidthPx), c.DPI) }
func (c Canvas) HeightEMU() EMU { return Pixels(float64(c.HeightPx), c.DPI) }

// Place 计算图片在本画布上的位置；DPI 缺失时回退到画布参考 DPI。
func (c Canvas) Place(img SourceImage) (Placement, error) {
	dpi := img.DPI
	if dpi <= 0 {
		dpi = c.DPI
	}
	return ComputePlacement(img.WidthPx, img.HeightPx, dpi, c.WidthEMU(), c.HeightEMU())
}

// ComputePlacement 计算图片等比缩放并居中后的位置与尺寸（fit inside，不裁剪）。
//
// 像素先按 dpi 换算为 EMU，缩放系数取 min(canvasW/imageW, canvasH/imageH)，
// 宽高与居中偏移统一向零截断，保证结果确定。dpi <= 0 时使用 DefaultDPI。
func ComputePlacement(widthPx, heightPx int, dpi float64, canvasWidth, canvasHeight EMU) (Placement, error) {
	if widthPx <= 0 || heightPx <= 0 {
		return Placement{}, fmt.Errorf("%w: %dx%d px", ErrInvalidImageDimensions, widthPx, heightPx)
	}
	if canvasWidth <= 0 || canvasHeight <= 0 {
		return Placement{}, fmt.Errorf("%w: canvas %dx%d emu", ErrInvalidImageDimensions, canvasWidth, canvasHeight)
	}
	if dpi <= 0 || math.IsNaN(dpi) {
		dpi = DefaultDPI
	}

	imgW := Pixels(float64(widthPx), dpi)
	imgH := Pixels(float64(heightPx), dpi)
	if imgW <= 0 || imgH <= 0 {
		return Placement{}, fmt.Errorf("%w: %dx%d px @ %g dpi truncates to zero", ErrInvalidImageDimensions, widthPx, heightPx, dpi)
	}

	scale := math.Min(float64(canvasWidth)/float64(imgW), float64(canvasHeight)/float64(imgH))
	w := EMU(math.Trunc(float64(imgW) * scale))
	h := EMU(math.Trunc(float64(imgH) * scale))
	// 浮点误差不应让结果越过画布边界
	w = min(w, canvasWidth)
	h = min(h, canvasHeight)

	return Placement{
		Left:   (canvasWidth - w) / 2,
		Top:    (canvasHeight - h) / 2,
		Width:  w,
		Height: h,
	}, nil
}

// TextBandHeight 为文字带的固定高度（1.2 英寸）。
var TextBandHeight = Inches(1.2)

// TextBand 返回横跨整幅画布、垂直居中的文字带。
func (c Canvas) TextBand() Placement {
	h := c.HeightEMU()
	return Placement{
		Left:   0,
		Top:    (h - TextBandHeight) / 2,
		Width:  c.WidthEMU(),
		Height: TextBandHeight,
	}
}
