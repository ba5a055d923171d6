// Package manifest turns a parsed deck manifest into compose inputs.
package manifest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
	"golang.org/x/sync/errgroup"

	"github.com/ByLCY/wordslides/deck"
	"github.com/ByLCY/wordslides/dsl"
	"github.com/ByLCY/wordslides/layout"
)

// Entry 是一对 (图片路径, 文字)。Image 已按 baseDir 解析。
type Entry struct {
	Image string
	Word  string
	Pos   lexer.Position
}

// Manifest 是清单解析后的结果。
type Manifest struct {
	Name    string
	Canvas  layout.Canvas
	Outline layout.OutlineStyle
	Meta    layout.DocumentMeta
	Entries []Entry
}

// Load 读取并构建清单文件；相对图片路径以清单所在目录为基准。
func Load(path string) (*Manifest, error) {
	return LoadWith(path, deck.DefaultOptions())
}

// LoadWith 与 Load 相同，但清单未声明的画布、光晕与 meta 取自 base。
func LoadWith(path string, base deck.Options) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("读取清单 %s 失败: %w", path, err)
	}
	defer f.Close()
	doc, err := dsl.Parse(path, f)
	if err != nil {
		return nil, fmt.Errorf("解析清单失败: %w", err)
	}
	return BuildWith(doc, filepath.Dir(path), base)
}

// Build 解释 AST。未知段落、命令或属性均报错并附带位置。
func Build(doc *dsl.Document, baseDir string) (*Manifest, error) {
	return BuildWith(doc, baseDir, deck.DefaultOptions())
}

// BuildWith 以 base 为默认值解释 AST；清单中的 canvas、outline、meta 覆盖对应字段。
func BuildWith(doc *dsl.Document, baseDir string, base deck.Options) (*Manifest, error) {
	if doc == nil {
		return nil, fmt.Errorf("清单为空")
	}
	defaults := deck.DefaultOptions()
	m := &Manifest{
		Name:    string(doc.Name),
		Canvas:  base.Canvas,
		Outline: base.Outline,
		Meta:    base.Meta,
	}
	if m.Canvas == (layout.Canvas{}) {
		m.Canvas = defaults.Canvas
	}
	if m.Outline.Offsets == nil && m.Outline.FontSize == 0 {
		m.Outline = defaults.Outline
	}
	m.Outline.Offsets = append([]layout.PixelOffset(nil), m.Outline.Offsets...)
	m.Meta.Keywords = append([]string(nil), m.Meta.Keywords...)
	if m.Meta.Title == "" {
		m.Meta.Title = string(doc.Name)
	}
	if m.Meta.Creator == "" {
		m.Meta.Creator = "wordslides"
	}

	// canvas 需先于 outline 解析，偏移量按画布 DPI 换算为像素。
	for _, section := range doc.Sections {
		if section.Command != nil && section.Command.Name == "canvas" {
			c, err := parseCanvas(section.Command)
			if err != nil {
				return nil, err
			}
			m.Canvas = c
		}
	}

	for _, section := range doc.Sections {
		switch {
		case section.Meta != nil:
			if err := applyMeta(&m.Meta, section.Meta.Block); err != nil {
				return nil, err
			}
		case section.Outline != nil:
			if err := applyOutline(&m.Outline, section.Outline.Block, m.Canvas.DPI); err != nil {
				return nil, err
			}
		case section.Command != nil:
			cmd := section.Command
			switch cmd.Name {
			case "canvas":
			case "slide":
				e, err := parseSlide(cmd, baseDir)
				if err != nil {
					return nil, err
				}
				m.Entries = append(m.Entries, e)
			default:
				return nil, fmt.Errorf("%s: 未知命令 %q", cmd.Pos, cmd.Name)
			}
		}
	}
	return m, nil
}

// Words 返回按顺序排列的文字。
func (m *Manifest) Words() []string {
	out := make([]string, len(m.Entries))
	for i, e := range m.Entries {
		out[i] = e.Word
	}
	return out
}

// Options 返回与清单一致的组装选项。
func (m *Manifest) Options(mode deck.Mode) deck.Options {
	return deck.Options{
		Canvas:  m.Canvas,
		Outline: m.Outline,
		Mode:    mode,
		Meta:    m.Meta,
	}
}

// Blobs 并行读取全部图片文件，结果顺序与 Entries 一致。
func (m *Manifest) Blobs(ctx context.Context, concurrency int) ([]deck.Blob, error) {
	blobs := make([]deck.Blob, len(m.Entries))
	eg, egCtx := errgroup.WithContext(ctx)
	if concurrency > 0 {
		eg.SetLimit(concurrency)
	}
	for i, e := range m.Entries {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			data, err := os.ReadFile(e.Image)
			if err != nil {
				return fmt.Errorf("%s: 读取图片失败: %w", e.Pos, err)
			}
			blobs[i] = deck.Blob{Name: filepath.Base(e.Image), Data: data}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return blobs, nil
}

func parseSlide(cmd *dsl.Command, baseDir string) (Entry, error) {
	if len(cmd.Args) != 2 || cmd.Args[0].Type != "String" || cmd.Args[1].Type != "String" {
		return Entry{}, fmt.Errorf(`%s: slide 需要两个字符串参数: slide "图片路径" "文字"`, cmd.Pos)
	}
	path := cmd.Args[0].Value
	if path == "" {
		return Entry{}, fmt.Errorf("%s: 图片路径为空", cmd.Pos)
	}
	if !filepath.IsAbs(path) && baseDir != "" {
		path = filepath.Join(baseDir, path)
	}
	return Entry{Image: path, Word: cmd.Args[1].Value, Pos: cmd.Pos}, nil
}

// parseCanvas 解析 `canvas <宽> <高> [dpi <n>]`，宽高可带单位，默认为像素。
func parseCanvas(cmd *dsl.Command) (layout.Canvas, error) {
	args := cmd.Args
	if len(args) != 2 && len(args) != 4 {
		return layout.Canvas{}, fmt.Errorf("%s: canvas 用法: canvas <宽> <高> [dpi <n>]", cmd.Pos)
	}
	dpi := layout.DefaultDPI
	if len(args) == 4 {
		if args[2].Value != "dpi" {
			return layout.Canvas{}, fmt.Errorf("%s: 期望 dpi，实际 %q", args[2].Pos, args[2].Value)
		}
		v, err := strconv.ParseFloat(args[3].Value, 64)
		if err != nil {
			return layout.Canvas{}, fmt.Errorf("%s: dpi 无效: %q", args[3].Pos, args[3].Value)
		}
		dpi = v
	}
	w := layout.ParseRawLengthStr(args[0].Value)
	h := layout.ParseRawLengthStr(args[1].Value)
	c, err := layout.NewCanvas(int(w.Pixels(dpi)), int(h.Pixels(dpi)), dpi)
	if err != nil {
		return layout.Canvas{}, fmt.Errorf("%s: %w", cmd.Pos, err)
	}
	return c, nil
}

func applyMeta(meta *layout.DocumentMeta, block *dsl.Block) error {
	for _, stmt := range block.Statements {
		a := stmt.Assignment
		if a == nil {
			return fmt.Errorf("%s: meta 中只允许 key: value", stmt.Command.Pos)
		}
		switch strings.ToLower(a.Key) {
		case "title":
			meta.Title = valueToString(a.Value)
		case "author":
			meta.Author = valueToString(a.Value)
		case "subject":
			meta.Subject = valueToString(a.Value)
		case "creator":
			meta.Creator = valueToString(a.Value)
		case "keywords":
			meta.Keywords = valueToStringSlice(a.Value)
		default:
			return fmt.Errorf("%s: 未知的 meta 属性 %q", a.Pos, a.Key)
		}
	}
	return nil
}

func applyOutline(style *layout.OutlineStyle, block *dsl.Block, dpi float64) error {
	for _, stmt := range block.Statements {
		a := stmt.Assignment
		if a == nil {
			return fmt.Errorf("%s: outline 中只允许 key: value", stmt.Command.Pos)
		}
		raw := valueToString(a.Value)
		switch strings.ToLower(a.Key) {
		case "offset":
			l := layout.ParseRawLengthStr(raw)
			if l.Value < 0 {
				return fmt.Errorf("%s: offset 不能为负: %q", a.Pos, raw)
			}
			style.Offsets = layout.HaloOffsets(l.Pixels(dpi))
		case "stroke", "fill":
			c, err := layout.ParseColor(raw)
			if err != nil {
				return fmt.Errorf("%s: %w", a.Pos, err)
			}
			if a.Key == "stroke" {
				style.Stroke = c
			} else {
				style.Fill = c
			}
		case "size":
			l := layout.ParseRawLengthStr(raw)
			if l.Value <= 0 {
				return fmt.Errorf("%s: size 必须为正数: %q", a.Pos, raw)
			}
			if l.Unit == layout.UnitNone {
				l.Unit = layout.UnitPT
			}
			style.FontSize = l.ToPT(dpi)
		case "bold":
			b, err := strconv.ParseBool(raw)
			if err != nil {
				return fmt.Errorf("%s: bold 需要 true/false: %q", a.Pos, raw)
			}
			style.Bold = b
		default:
			return fmt.Errorf("%s: 未知的 outline 属性 %q", a.Pos, a.Key)
		}
	}
	return nil
}

func valueToString(val *dsl.Value) string {
	if val == nil {
		return ""
	}
	switch {
	case val.String != nil:
		return string(*val.String)
	case val.Number != nil:
		return *val.Number
	case val.Color != nil:
		return *val.Color
	case val.Expr != nil:
		var builder strings.Builder
		for _, part := range val.Expr.Parts {
			builder.WriteString(part.Value)
		}
		return builder.String()
	default:
		return ""
	}
}

func valueToStringSlice(val *dsl.Value) []string {
	if val == nil {
		return nil
	}
	if val.Array != nil {
		out := make([]string, 0, len(val.Array.Values))
		for _, item := range val.Array.Values {
			if s := valueToString(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	if s := valueToString(val); s != "" {
		return []string{s}
	}
	return nil
}
