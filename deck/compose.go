// Package deck turns ordered images and words into slide pairs.
package deck

import (
	"fmt"

	"github.com/ByLCY/wordslides/layout"
)

// Mode 决定某一对失败时的处理方式。
type Mode int

const (
	// Strict 遇到第一对失败即中止并返回错误。
	Strict Mode = iota
	// Lenient 跳过失败的配对并记录在 Deck.Skipped 中。
	Lenient
)

// ParseMode 解析 "strict" / "lenient"，空串视为 strict。
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "strict":
		return Strict, nil
	case "lenient":
		return Lenient, nil
	default:
		return Strict, fmt.Errorf("unknown compose mode %q", s)
	}
}

func (m Mode) String() string {
	if m == Lenient {
		return "lenient"
	}
	return "strict"
}

// Options 配置一次组装。零值字段使用默认画布与默认光晕样式。
type Options struct {
	Canvas      layout.Canvas
	Outline     layout.OutlineStyle
	Mode        Mode
	Meta        layout.DocumentMeta
	Concurrency int // ComposeBlobs 并行解析图片的上限，<=0 表示不限
}

// DefaultOptions 返回 1920×1080@96、默认光晕、严格模式。
func DefaultOptions() Options {
	return Options{
		Canvas:  layout.DefaultCanvas(),
		Outline: layout.DefaultOutline(),
		Mode:    Strict,
	}
}

func (o Options) withDefaults() Options {
	if o.Canvas == (layout.Canvas{}) {
		o.Canvas = layout.DefaultCanvas()
	}
	if o.Outline.Offsets == nil && o.Outline.FontSize == 0 {
		o.Outline = layout.DefaultOutline()
	}
	return o
}

// PairError 标识失败的配对。
type PairError struct {
	Index int
	Word  string
	Err   error
}

func (e *PairError) Error() string {
	return fmt.Sprintf("pair %d (%q): %v", e.Index, e.Word, e.Err)
}

func (e *PairError) Unwrap() error { return e.Err }

// Compose 为每个 (图片, 文字) 生成两页：纯图片页与带光晕文字页。
// 两个序列长度不一致时只使用重叠的前缀，结果记录在 Deck.Pairing 中。
func Compose(images []layout.SourceImage, words []string, opts Options) (*layout.Deck, error) {
	pairing := Pair(len(images), len(words))
	return compose(pairing, words, opts, func(i int) (layout.SourceImage, error) {
		return images[i], nil
	})
}

// compose 是 Compose 与 ComposeBlobs 共用的主循环；source 返回第 i 张图片或其解析错误。
func compose(pairing Pairing, words []string, opts Options, source func(int) (layout.SourceImage, error)) (*layout.Deck, error) {
	opts = opts.withDefaults()
	if err := opts.Canvas.Validate(); err != nil {
		return nil, err
	}

	n := pairing.Count()
	d := &layout.Deck{
		Canvas:    opts.Canvas,
		Width:     opts.Canvas.WidthEMU(),
		Height:    opts.Canvas.HeightEMU(),
		Slides:    make([]layout.Slide, 0, 2*n),
		Resources: layout.ResourceSet{Images: make(map[string]layout.ImageResource, n)},
		Meta:      opts.Meta,
		Pairing: layout.PairingInfo{
			Images:    pairing.Images,
			Words:     pairing.Words,
			Pairs:     n,
			Truncated: pairing.Truncated(),
		},
	}
	band := opts.Canvas.TextBand()

	for i := 0; i < n; i++ {
		word := words[i]
		img, err := source(i)
		var placement layout.Placement
		if err == nil {
			placement, err = opts.Canvas.Place(img)
		}
		if err != nil {
			pe := &PairError{Index: i, Word: word, Err: err}
			if opts.Mode == Strict {
				return nil, pe
			}
			d.Skipped = append(d.Skipped, layout.SkippedPair{Index: i, Word: word, Reason: err.Error()})
			continue
		}

		ref := img.Name
		if ref == "" {
			ref = fmt.Sprintf("image%d", i+1)
		}
		if _, dup := d.Resources.Images[ref]; dup {
			ref = fmt.Sprintf("%s#%d", ref, i+1)
		}
		d.Resources.Images[ref] = layout.ImageResource{
			Name:     ref,
			Format:   img.Format,
			WidthPx:  img.WidthPx,
			HeightPx: img.HeightPx,
			DPI:      img.DPI,
			Data:     img.Data,
		}

		box := layout.ImageBox{Ref: ref, Placement: placement}
		d.Slides = append(d.Slides,
			layout.Slide{
				Kind:   layout.SlideImage,
				Images: []layout.ImageBox{box},
			},
			layout.Slide{
				Kind:   layout.SlideCaption,
				Images: []layout.ImageBox{box},
				Texts:  opts.Outline.Layers(word, band, opts.Canvas.DPI),
			},
		)
	}
	return d, nil
}
