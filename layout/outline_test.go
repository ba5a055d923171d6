package layout

import "testing"

func TestHaloOffsetsOrder(t *testing.T) {
	got := HaloOffsets(2)
	want := []PixelOffset{
		{-2, -2}, {-2, 0}, {-2, 2},
		{0, -2}, {0, 2},
		{2, -2}, {2, 0}, {2, 2},
	}
	if len(got) != len(want) {
		t.Fatalf("期望 %d 个偏移，实际 %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("偏移 %d 期望 %+v，实际 %+v", i, want[i], got[i])
		}
	}
}

// TestLayersHaloThenFill 8 个黑色偏移副本在前，白色零偏移副本最后绘制。
func TestLayersHaloThenFill(t *testing.T) {
	c := DefaultCanvas()
	band := c.TextBand()
	boxes := DefaultOutline().Layers("Солнце", band, c.DPI)
	if len(boxes) != 9 {
		t.Fatalf("期望 9 个文本框，实际 %d", len(boxes))
	}
	seen := map[Placement]bool{}
	for i, b := range boxes[:8] {
		if b.Color != Black {
			t.Fatalf("第 %d 个光晕副本应为黑色，实际 %+v", i, b.Color)
		}
		if b.Placement == band {
			t.Fatalf("第 %d 个光晕副本不应位于零偏移", i)
		}
		dx, dy := b.Left-band.Left, b.Top-band.Top
		for _, d := range []EMU{dx, dy} {
			if d != -19050 && d != 0 && d != 19050 {
				t.Fatalf("第 %d 个光晕副本偏移异常: dx=%d dy=%d", i, dx, dy)
			}
		}
		seen[b.Placement] = true
	}
	if len(seen) != 8 {
		t.Fatalf("光晕偏移应互不相同，实际 %d 种", len(seen))
	}
	last := boxes[8]
	if last.Color != White || last.Placement != band {
		t.Fatalf("最后一个文本框应为零偏移白色，实际 %+v", last)
	}
	for i, b := range boxes {
		if b.Content != "Солнце" || b.FontSize != 60 || b.Align != AlignCenter {
			t.Fatalf("文本框 %d 属性异常: %+v", i, b)
		}
		if b.Width != band.Width || b.Height != band.Height {
			t.Fatalf("文本框 %d 尺寸应与文字带一致: %+v", i, b)
		}
	}
}

// TestLayersCustomStyle 自定义偏移与颜色；零偏移条目被忽略。
func TestLayersCustomStyle(t *testing.T) {
	red := Color{R: 255}
	style := OutlineStyle{
		Offsets: []PixelOffset{{DX: 4}, {}, {DY: -4}},
		Stroke:  red,
		Fill:    Black,
	}
	band := Placement{Width: 1000, Height: 100}
	boxes := style.Layers("x", band, 96)
	if len(boxes) != 3 {
		t.Fatalf("期望 3 个文本框，实际 %d", len(boxes))
	}
	if boxes[0].Left != 38100 || boxes[1].Top != -38100 {
		t.Fatalf("偏移换算错误: %+v %+v", boxes[0].Placement, boxes[1].Placement)
	}
	if boxes[0].Color != red || boxes[2].Color != Black {
		t.Fatalf("颜色错误: %+v", boxes)
	}
	if boxes[2].FontSize != DefaultFontSize {
		t.Fatalf("未设置字号时应使用默认值，实际 %g", boxes[2].FontSize)
	}
}

func TestParseColor(t *testing.T) {
	cases := map[string]Color{
		"#000000": Black,
		"#FFF":    White,
		"0f62fe":  {R: 0x0F, G: 0x62, B: 0xFE},
	}
	for in, want := range cases {
		got, err := ParseColor(in)
		if err != nil || got != want {
			t.Fatalf("ParseColor(%q) = %+v, %v；期望 %+v", in, got, err, want)
		}
	}
	for _, bad := range []string{"", "#12", "#GGGGGG", "#12345678"} {
		if _, err := ParseColor(bad); err == nil {
			t.Fatalf("ParseColor(%q) 应报错", bad)
		}
	}
	if got := (Color{R: 300, G: -1, B: 16}).Hex(); got != "FF0010" {
		t.Fatalf("Hex() = %s", got)
	}
}
