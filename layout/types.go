package layout

// 该文件定义幻灯片布局结果与资源描述，供布局计算、渲染与调试 JSON 共用。
// 所有坐标与尺寸均为 EMU，原点在画布左上角。

// Deck 保存排好版的幻灯片与共享资源。
type Deck struct {
	Canvas    Canvas        `json:"canvas"`
	Width     EMU           `json:"width"`
	Height    EMU           `json:"height"`
	Slides    []Slide       `json:"slides"`
	Resources ResourceSet   `json:"resources"`
	Meta      DocumentMeta  `json:"meta"`
	Pairing   PairingInfo   `json:"pairing"`
	Skipped   []SkippedPair `json:"skipped,omitempty"`
}

// PairingInfo 记录图片与文字按位置配对的结果。
type PairingInfo struct {
	Images    int  `json:"images"`
	Words     int  `json:"words"`
	Pairs     int  `json:"pairs"`
	Truncated bool `json:"truncated"`
}

// SkippedPair 记录宽松模式下被跳过的配对。
type SkippedPair struct {
	Index  int    `json:"index"`
	Word   string `json:"word"`
	Reason string `json:"reason"`
}

// ResourceSet 记录图片资源，按名称索引。
type ResourceSet struct {
	Images map[string]ImageResource `json:"images"`
}

// SourceImage 是布局计算的输入：像素尺寸与 DPI（0 表示缺失）。
type SourceImage struct {
	Name     string  `json:"name"`
	WidthPx  int     `json:"widthPx"`
	HeightPx int     `json:"heightPx"`
	DPI      float64 `json:"dpi"`
	Format   string  `json:"format"`
	Data     []byte  `json:"-"`
}

// ImageResource 是可被多个幻灯片引用的图片数据。
type ImageResource struct {
	Name     string  `json:"name"`
	Format   string  `json:"format"`
	WidthPx  int     `json:"widthPx"`
	HeightPx int     `json:"heightPx"`
	DPI      float64 `json:"dpi"`
	Data     []byte  `json:"-"`
}

// Color 采用 0-255 的 RGB 数值。
type Color struct {
	R int `json:"r"`
	G int `json:"g"`
	B int `json:"b"`
}

var (
	Black = Color{0, 0, 0}
	White = Color{255, 255, 255}
)

// Placement 是元素在画布上的位置与尺寸。
type Placement struct {
	Left   EMU `json:"left"`
	Top    EMU `json:"top"`
	Width  EMU `json:"width"`
	Height EMU `json:"height"`
}

// Offset 返回平移后的位置，尺寸不变。
func (p Placement) Offset(dx, dy EMU) Placement {
	p.Left += dx
	p.Top += dy
	return p
}

// SlideKind 区分纯图片页与带文字页。
type SlideKind string

const (
	SlideImage   SlideKind = "image"
	SlideCaption SlideKind = "caption"
)

// Slide 描述一页幻灯片。Images 先于 Texts 绘制，Texts 按切片顺序绘制（后者在上）。
type Slide struct {
	Kind   SlideKind  `json:"kind"`
	Images []ImageBox `json:"images"`
	Texts  []TextBox  `json:"texts,omitempty"`
}

// ImageBox 引用 ResourceSet 中的一张图片。
type ImageBox struct {
	Ref string `json:"ref"`
	Placement
}

// Align 是文本水平对齐方式。
type Align string

const (
	AlignLeft   Align = "left"
	AlignCenter Align = "center"
	AlignRight  Align = "right"
)

// TextBox 表示一个已经排好坐标的单行文本框。
type TextBox struct {
	Content  string  `json:"content"`
	FontSize float64 `json:"fontSize"` // pt
	Bold     bool    `json:"bold,omitempty"`
	Color    Color   `json:"color"`
	Align    Align   `json:"align"`
	Placement
}

// DocumentMeta 保存文档元信息。
type DocumentMeta struct {
	Title    string   `json:"title"`
	Author   string   `json:"author"`
	Subject  string   `json:"subject"`
	Creator  string   `json:"creator"`
	Keywords []string `json:"keywords"`
}
