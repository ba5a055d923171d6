package layout

// 演示文稿格式没有文字描边，这里用"光晕"模拟：
// 先按偏移绘制若干份描边色副本，最后在原位绘制一份填充色副本。

// PixelOffset 以画布像素为单位的平移。
type PixelOffset struct {
	DX float64 `json:"dx" yaml:"dx"`
	DY float64 `json:"dy" yaml:"dy"`
}

// OutlineStyle 描述光晕文字的样式。
type OutlineStyle struct {
	Offsets  []PixelOffset `json:"offsets" yaml:"offsets"`
	Stroke   Color         `json:"stroke" yaml:"stroke"`
	Fill     Color         `json:"fill" yaml:"fill"`
	FontSize float64       `json:"fontSize" yaml:"font_size"` // pt
	Bold     bool          `json:"bold" yaml:"bold"`
}

// DefaultHaloWidth 默认光晕偏移（像素）。
const DefaultHaloWidth = 2

// DefaultFontSize 默认字号（pt）。
const DefaultFontSize = 60.0

// DefaultOutline 返回黑色 2px 光晕、白色填充、60pt 的默认样式。
func DefaultOutline() OutlineStyle {
	return OutlineStyle{
		Offsets:  HaloOffsets(DefaultHaloWidth),
		Stroke:   Black,
		Fill:     White,
		FontSize: DefaultFontSize,
	}
}

// HaloOffsets 生成 {-w,0,w}×{-w,0,w} 去掉 (0,0) 的 8 个偏移，按 dx 为外层循环排序。
func HaloOffsets(width float64) []PixelOffset {
	steps := []float64{-width, 0, width}
	out := make([]PixelOffset, 0, 8)
	for _, dx := range steps {
		for _, dy := range steps {
			if dx == 0 && dy == 0 {
				continue
			}
			out = append(out, PixelOffset{DX: dx, DY: dy})
		}
	}
	return out
}

// Layers 返回在 band 上绘制 content 所需的全部文本框：
// 每个偏移一份描边色副本，最后一份填充色副本位于零偏移处，保证绘制在最上层。
// 像素偏移按 dpi 换算为 EMU。
func (s OutlineStyle) Layers(content string, band Placement, dpi float64) []TextBox {
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	size := s.FontSize
	if size <= 0 {
		size = DefaultFontSize
	}
	boxes := make([]TextBox, 0, len(s.Offsets)+1)
	for _, off := range s.Offsets {
		if off.DX == 0 && off.DY == 0 {
			continue
		}
		boxes = append(boxes, TextBox{
			Content:   content,
			FontSize:  size,
			Bold:      s.Bold,
			Color:     s.Stroke,
			Align:     AlignCenter,
			Placement: band.Offset(Pixels(off.DX, dpi), Pixels(off.DY, dpi)),
		})
	}
	boxes = append(boxes, TextBox{
		Content:   content,
		FontSize:  size,
		Bold:      s.Bold,
		Color:     s.Fill,
		Align:     AlignCenter,
		Placement: band,
	})
	return boxes
}
