package canvasrenderer

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"strings"
	"sync"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/pdf"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"

	"github.com/ByLCY/wordslides/fonts"
	"github.com/ByLCY/wordslides/layout"
	"github.com/ByLCY/wordslides/renderer"
)

// Renderer draws decks into a PDF via github.com/tdewolff/canvas.
// 每张幻灯片一页，页面尺寸等于画布尺寸（mm）。
type Renderer struct {
	fontBlobs map[canvas.FontStyle][]byte

	fontMu   sync.Mutex
	families map[canvas.FontStyle]*canvas.FontFamily
}

var _ renderer.Renderer = (*Renderer)(nil)

// Options configures the canvas renderer.
type Options struct {
	// Regular/Bold 覆盖内置 Go 字体；为空时使用 fonts.Regular / fonts.Bold。
	Regular Resource
	Bold    Resource
}

// Resource can be provided either by Bytes or by Path.
// Path 以 "embed:" 开头时从内置字体读取。
type Resource struct {
	Bytes []byte
	Path  string
}

// NewRenderer creates a renderer using the built-in Go fonts.
func NewRenderer() *Renderer { return NewRendererWithOptions(Options{}) }

// NewRendererWithOptions creates a renderer with injected font resources.
// 资源读取失败在第一次使用时报告。
func NewRendererWithOptions(opts Options) *Renderer {
	r := &Renderer{
		fontBlobs: map[canvas.FontStyle][]byte{},
		families:  map[canvas.FontStyle]*canvas.FontFamily{},
	}
	for style, res := range map[canvas.FontStyle]Resource{canvas.FontRegular: opts.Regular, canvas.FontBold: opts.Bold} {
		if data := res.load(); len(data) > 0 {
			r.fontBlobs[style] = data
		}
	}
	return r
}

func (res Resource) load() []byte {
	if len(res.Bytes) > 0 {
		return res.Bytes
	}
	if res.Path == "" {
		return nil
	}
	if strings.HasPrefix(res.Path, "embed:") {
		data, _ := fonts.Load(res.Path)
		return data
	}
	data, _ := os.ReadFile(res.Path)
	return data
}

func (r *Renderer) ContentType() string { return "application/pdf" }

func (r *Renderer) Extension() string { return "pdf" }

// Render renders the deck into a PDF byte slice.
func (r *Renderer) Render(deck *layout.Deck) ([]byte, error) {
	if deck == nil {
		return nil, fmt.Errorf("渲染结果为空")
	}
	width, height := deck.Width.MM(), deck.Height.MM()
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("无效的幻灯片尺寸: %dx%d", deck.Width, deck.Height)
	}

	images, err := decodeImages(deck)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	writer := pdf.New(&buf, width, height, nil)
	r.applyMeta(writer, deck.Meta)
	// 没有幻灯片时输出一张空白页，PDF 至少需要一页
	if len(deck.Slides) == 0 {
		canvas.New(width, height).RenderTo(writer)
	}
	for i, slide := range deck.Slides {
		if i > 0 {
			writer.NewPage(width, height)
		}
		c := canvas.New(width, height)
		ctx := canvas.NewContext(c)
		ctx.SetCoordSystem(canvas.CartesianIV) // 使坐标与布局保持左上角为原点

		if err := r.drawSlide(ctx, slide, images); err != nil {
			return nil, fmt.Errorf("第 %d 页: %w", i+1, err)
		}
		c.RenderTo(writer)
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("写入 PDF 失败: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) applyMeta(writer *pdf.PDF, meta layout.DocumentMeta) {
	if writer == nil {
		return
	}
	keywords := strings.Join(meta.Keywords, ", ")
	writer.SetInfo(meta.Title, meta.Subject, keywords, meta.Author, meta.Creator)
}

// decodeImages 每个资源只解码一次，两页共享同一张图片。
func decodeImages(deck *layout.Deck) (map[string]image.Image, error) {
	out := make(map[string]image.Image, len(deck.Resources.Images))
	for _, slide := range deck.Slides {
		for _, box := range slide.Images {
			if _, ok := out[box.Ref]; ok {
				continue
			}
			res, ok := deck.Resources.Images[box.Ref]
			if !ok {
				return nil, fmt.Errorf("找不到图片资源 %s", box.Ref)
			}
			img, _, err := image.Decode(bytes.NewReader(res.Data))
			if err != nil {
				return nil, fmt.Errorf("解码图片 %s 失败: %w", box.Ref, err)
			}
			out[box.Ref] = img
		}
	}
	return out, nil
}

// drawSlide 先绘制图片，再按切片顺序绘制文本框（后绘制者在上）。
func (r *Renderer) drawSlide(ctx *canvas.Context, slide layout.Slide, images map[string]image.Image) error {
	for _, box := range slide.Images {
		drawImage(ctx, box, images[box.Ref])
	}
	for _, tb := range slide.Texts {
		if err := r.drawTextBox(ctx, tb); err != nil {
			return err
		}
	}
	return nil
}

func drawImage(ctx *canvas.Context, box layout.ImageBox, img image.Image) {
	if img == nil {
		return
	}
	width := box.Width.MM()
	if width <= 0 {
		return
	}
	dpmm := float64(img.Bounds().Dx()) / width
	if dpmm <= 0 {
		dpmm = 1
	}
	ctx.DrawImage(box.Left.MM(), box.Top.MM(), img, canvas.DPMM(dpmm))
}

// textInsetTop 是 DrawingML bodyPr 的默认上内边距。
var textInsetTop = layout.Inches(0.05)

func (r *Renderer) drawTextBox(ctx *canvas.Context, tb layout.TextBox) error {
	style := canvas.FontRegular
	if tb.Bold {
		style = canvas.FontBold
	}
	face, err := r.fontFace(style, tb.FontSize, tb.Color)
	if err != nil {
		return err
	}

	// 处理水平对齐：left/center（默认）/right。
	var textAlign canvas.TextAlign
	x, width := tb.Left.MM(), tb.Width.MM()
	anchorX := x + width/2
	switch tb.Align {
	case layout.AlignLeft:
		textAlign = canvas.Left
		anchorX = x
	case layout.AlignRight:
		textAlign = canvas.Right
		anchorX = x + width
	default:
		textAlign = canvas.Center
	}

	// 与 PPTX 文本框一致：顶部对齐，上内边距 0.05in；基线 = 行顶部 + Ascent。
	metrics := face.Metrics()
	baseline := tb.Top.MM() + textInsetTop.MM() + metrics.Ascent

	ctx.DrawText(anchorX, baseline, canvas.NewTextLine(face, tb.Content, textAlign))
	return nil
}

func (r *Renderer) fontFace(style canvas.FontStyle, sizePt float64, col layout.Color) (*canvas.FontFace, error) {
	if sizePt <= 0 {
		sizePt = layout.DefaultFontSize
	}
	family, err := r.ensureFontFamily(style)
	if err != nil {
		return nil, err
	}
	return family.Face(sizePt, colorFromLayout(col), style, canvas.FontNormal), nil
}

func (r *Renderer) ensureFontFamily(style canvas.FontStyle) (*canvas.FontFamily, error) {
	r.fontMu.Lock()
	defer r.fontMu.Unlock()

	if family, ok := r.families[style]; ok {
		return family, nil
	}
	data, ok := r.fontBlobs[style]
	if !ok {
		name := fonts.Regular
		if style == canvas.FontBold {
			name = fonts.Bold
		}
		var err error
		if data, err = fonts.Load(name); err != nil {
			return nil, err
		}
	}
	family := canvas.NewFontFamily("wordslides")
	if err := family.LoadFont(data, 0, style); err != nil {
		return nil, fmt.Errorf("加载字体失败: %w", err)
	}
	r.families[style] = family
	return family, nil
}

func colorFromLayout(c layout.Color) color.Color {
	return canvas.RGBA(float64(c.R)/255.0, float64(c.G)/255.0, float64(c.B)/255.0, 1.0)
}
