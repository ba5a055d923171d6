package manifest

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ByLCY/wordslides/deck"
	"github.com/ByLCY/wordslides/dsl"
	"github.com/ByLCY/wordslides/layout"
)

const weather = `
deck "Weather" {
  meta { title: "Weather words"; author: "ann"; keywords: ["weather", "ru"] }
  canvas 1280px 720px dpi 72
  outline { offset: 3px; stroke: #112233; fill: #FFF; size: 48pt; bold: true }
  slide "img/sun.png" "Солнце"
  slide "/abs/rain.png" "Дождь"
}
`

func build(t *testing.T, src, baseDir string) (*Manifest, error) {
	t.Helper()
	doc, err := dsl.ParseString(src)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	return Build(doc, baseDir)
}

func TestBuild(t *testing.T) {
	m, err := build(t, weather, "decks")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if m.Name != "Weather" || m.Meta.Title != "Weather words" || m.Meta.Author != "ann" {
		t.Fatalf("meta 解析错误: %+v", m.Meta)
	}
	if strings.Join(m.Meta.Keywords, ",") != "weather,ru" {
		t.Fatalf("keywords 解析错误: %v", m.Meta.Keywords)
	}
	if m.Canvas != (layout.Canvas{WidthPx: 1280, HeightPx: 720, DPI: 72}) {
		t.Fatalf("canvas 解析错误: %+v", m.Canvas)
	}
	o := m.Outline
	if len(o.Offsets) != 8 || o.Offsets[0] != (layout.PixelOffset{DX: -3, DY: -3}) {
		t.Fatalf("offset 解析错误: %+v", o.Offsets)
	}
	if o.Stroke != (layout.Color{R: 0x11, G: 0x22, B: 0x33}) || o.Fill != layout.White {
		t.Fatalf("颜色解析错误: %+v", o)
	}
	if o.FontSize != 48 || !o.Bold {
		t.Fatalf("字号或粗体解析错误: %+v", o)
	}

	if len(m.Entries) != 2 {
		t.Fatalf("期望 2 个 slide，实际 %d", len(m.Entries))
	}
	if m.Entries[0].Image != filepath.Join("decks", "img/sun.png") || m.Entries[1].Image != "/abs/rain.png" {
		t.Fatalf("图片路径解析错误: %+v", m.Entries)
	}
	if strings.Join(m.Words(), ",") != "Солнце,Дождь" {
		t.Fatalf("Words() = %v", m.Words())
	}

	opts := m.Options(deck.Lenient)
	if opts.Canvas != m.Canvas || opts.Mode != deck.Lenient || opts.Meta.Title != "Weather words" {
		t.Fatalf("Options() 异常: %+v", opts)
	}
}

func TestBuildDefaults(t *testing.T) {
	m, err := build(t, `deck "Plain" { slide "a.png" "a" }`, "")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if m.Canvas != layout.DefaultCanvas() || m.Outline.FontSize != layout.DefaultFontSize {
		t.Fatalf("默认值异常: %+v %+v", m.Canvas, m.Outline)
	}
	if m.Meta.Title != "Plain" || m.Entries[0].Image != "a.png" {
		t.Fatalf("默认标题或路径异常: %+v", m)
	}
}

// 画布尺寸可使用物理单位，按 dpi 换算为像素。
func TestBuildCanvasUnits(t *testing.T) {
	m, err := build(t, `deck "x" { canvas 10in 5in dpi 100 }`, "")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if m.Canvas.WidthPx != 1000 || m.Canvas.HeightPx != 500 {
		t.Fatalf("canvas 换算错误: %+v", m.Canvas)
	}
}

func TestBuildErrors(t *testing.T) {
	cases := map[string]string{
		`deck "x" { page A4 }`:                     "未知命令",
		`deck "x" { slide "a.png" }`:               "两个字符串参数",
		`deck "x" { slide a "b" }`:                 "两个字符串参数",
		`deck "x" { canvas 0px 10px }`:             "画布尺寸",
		`deck "x" { canvas 10px 10px ppi 3 }`:      "期望 dpi",
		`deck "x" { outline { stroke: "nope" } }`:  "无法解析",
		`deck "x" { outline { size: 0pt } }`:       "size",
		`deck "x" { outline { glow: 1px } }`:       "未知的 outline 属性",
		`deck "x" { meta { colour: "red" } }`:      "未知的 meta 属性",
		`deck "x" { outline { bold: maybe } }`:     "bold",
		`deck "x" {
  slide "a.png" "a"
  frame "b"
}`: "3:3",
	}
	for src, want := range cases {
		_, err := build(t, src, "")
		if err == nil || !strings.Contains(err.Error(), want) {
			t.Fatalf("%s: 期望包含 %q 的错误，实际 %v", src, want, err)
		}
	}
}

func TestLoadAndBlobs(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "img"), 0o755); err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewGray(image.Rect(0, 0, 4, 2))); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "img", "sun.png"), buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "deck.ws")
	src := `deck "W" { slide "img/sun.png" "Солнце" }`
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}

	m, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	blobs, err := m.Blobs(context.Background(), 2)
	if err != nil {
		t.Fatalf("Blobs: %v", err)
	}
	if len(blobs) != 1 || blobs[0].Name != "sun.png" || !bytes.Equal(blobs[0].Data, buf.Bytes()) {
		t.Fatalf("Blobs 结果异常: %+v", blobs)
	}

	m.Entries = append(m.Entries, Entry{Image: filepath.Join(dir, "missing.png"), Word: "x"})
	if _, err := m.Blobs(context.Background(), 0); err == nil {
		t.Fatalf("缺失图片应报错")
	}
	if _, err := Load(filepath.Join(dir, "nope.ws")); err == nil {
		t.Fatalf("缺失清单应报错")
	}
}

func TestBindData(t *testing.T) {
	dir := t.TempDir()
	dataPath := filepath.Join(dir, "data.json")
	if err := os.WriteFile(dataPath, []byte(`{"city": "Lisbon", "stops": ["Belém", "Sintra"]}`), 0o644); err != nil {
		t.Fatal(err)
	}
	data, err := LoadData(dataPath)
	if err != nil {
		t.Fatalf("LoadData: %v", err)
	}

	src := `deck "Trip" {
  meta { title: "Trip to ${city}" }
  slide "a.png" "${stops[0]}"
  slide "b.png" "${stops[1]}"
}`
	m, err := build(t, src, "")
	if err != nil {
		t.Fatal(err)
	}
	if err := m.Bind(data); err != nil {
		t.Fatalf("Bind: %v", err)
	}
	if got := strings.Join(m.Words(), ","); got != "Belém,Sintra" {
		t.Fatalf("words = %q", got)
	}
	if m.Meta.Title != "Trip to Lisbon" {
		t.Fatalf("title = %q", m.Meta.Title)
	}

	m, err = build(t, `deck "T" {
  slide "a.png" "${nope}"
}`, "")
	if err != nil {
		t.Fatal(err)
	}
	err = m.Bind(data)
	if err == nil || !strings.Contains(err.Error(), "2:3") || !strings.Contains(err.Error(), "nope") {
		t.Fatalf("期望带位置的缺失占位符错误，实际 %v", err)
	}
}
