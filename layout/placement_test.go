package layout

import (
	"errors"
	"math"
	"testing"
)

var placementSamples = []struct {
	w, h int
	dpi  float64
}{
	{1000, 500, 100},
	{1920, 1080, 96},
	{1080, 1920, 96},
	{640, 480, 72},
	{4032, 3024, 300},
	{1, 1, 96},
	{3, 7919, 96},
	{7919, 3, 96},
	{800, 800, 0},
	{1234, 567, 144.5},
}

// TestPlacementFitsInsideCanvas 结果不越界，且至少一边贴合画布（允许 1 EMU 截断误差）。
func TestPlacementFitsInsideCanvas(t *testing.T) {
	c := DefaultCanvas()
	cw, ch := c.WidthEMU(), c.HeightEMU()
	for _, s := range placementSamples {
		p, err := ComputePlacement(s.w, s.h, s.dpi, cw, ch)
		if err != nil {
			t.Fatalf("%dx%d@%g: %v", s.w, s.h, s.dpi, err)
		}
		if p.Width > cw || p.Height > ch {
			t.Fatalf("%dx%d@%g 越界: %+v", s.w, s.h, s.dpi, p)
		}
		if cw-p.Width > 1 && ch-p.Height > 1 {
			t.Fatalf("%dx%d@%g 未贴合任一边: %+v", s.w, s.h, s.dpi, p)
		}
	}
}

// TestPlacementCentered 左/上偏移等于剩余空间的一半（向下取整）。
func TestPlacementCentered(t *testing.T) {
	c := DefaultCanvas()
	cw, ch := c.WidthEMU(), c.HeightEMU()
	for _, s := range placementSamples {
		p, err := ComputePlacement(s.w, s.h, s.dpi, cw, ch)
		if err != nil {
			t.Fatalf("%dx%d@%g: %v", s.w, s.h, s.dpi, err)
		}
		if p.Left != (cw-p.Width)/2 || p.Top != (ch-p.Height)/2 {
			t.Fatalf("%dx%d@%g 未居中: %+v", s.w, s.h, s.dpi, p)
		}
		if p.Left < 0 || p.Top < 0 {
			t.Fatalf("%dx%d@%g 偏移为负: %+v", s.w, s.h, s.dpi, p)
		}
	}
}

// TestPlacementPreservesAspectRatio 宽高比在截断误差范围内保持不变。
func TestPlacementPreservesAspectRatio(t *testing.T) {
	c := DefaultCanvas()
	for _, s := range placementSamples {
		p, err := c.Place(SourceImage{WidthPx: s.w, HeightPx: s.h, DPI: s.dpi})
		if err != nil {
			t.Fatalf("%dx%d@%g: %v", s.w, s.h, s.dpi, err)
		}
		want := float64(s.w) / float64(s.h)
		got := float64(p.Width) / float64(p.Height)
		// 1 EMU 的截断在较短边上引起的相对误差
		eps := want * (1/float64(p.Height) + 1/float64(p.Width)) * 2
		if math.Abs(got-want) > math.Max(eps, 1e-6) {
			t.Fatalf("%dx%d@%g 宽高比 %g，期望 %g", s.w, s.h, s.dpi, got, want)
		}
	}
}

// TestPlacementWidthBound 1000×500@100dpi：宽度为约束边，宽度恰好等于画布宽度。
func TestPlacementWidthBound(t *testing.T) {
	c := DefaultCanvas()
	p, err := ComputePlacement(1000, 500, 100, c.WidthEMU(), c.HeightEMU())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := Placement{Left: 0, Top: 571500, Width: 18288000, Height: 9144000}
	if p != want {
		t.Fatalf("期望 %+v，实际 %+v", want, p)
	}
}

// TestPlacementZeroDPIFallsBack DPI 为 0 或负数时回退到参考 DPI。
func TestPlacementZeroDPIFallsBack(t *testing.T) {
	c := DefaultCanvas()
	for _, dpi := range []float64{0, -1, math.NaN()} {
		p, err := ComputePlacement(1920, 1080, dpi, c.WidthEMU(), c.HeightEMU())
		if err != nil {
			t.Fatalf("dpi=%g: %v", dpi, err)
		}
		want := Placement{Width: c.WidthEMU(), Height: c.HeightEMU()}
		if p != want {
			t.Fatalf("dpi=%g 期望 %+v，实际 %+v", dpi, want, p)
		}
	}
}

// TestCanvasPlaceUsesCanvasDPI 画布参考 DPI 不是 96 时，缺失 DPI 的图片按画布 DPI 换算。
func TestCanvasPlaceUsesCanvasDPI(t *testing.T) {
	c, err := NewCanvas(800, 600, 72)
	if err != nil {
		t.Fatalf("NewCanvas: %v", err)
	}
	p, err := c.Place(SourceImage{WidthPx: 800, HeightPx: 600})
	if err != nil {
		t.Fatalf("Place: %v", err)
	}
	if p.Width != c.WidthEMU() || p.Height != c.HeightEMU() || p.Left != 0 || p.Top != 0 {
		t.Fatalf("同尺寸图片应铺满画布，实际 %+v", p)
	}
}

func TestPlacementInvalidDimensions(t *testing.T) {
	c := DefaultCanvas()
	cases := []struct {
		w, h int
		dpi  float64
	}{
		{0, 100, 96},
		{100, 0, 96},
		{-5, 100, 96},
		{1, 1, 1e12}, // 换算后截断为 0
	}
	for _, tc := range cases {
		_, err := ComputePlacement(tc.w, tc.h, tc.dpi, c.WidthEMU(), c.HeightEMU())
		if !errors.Is(err, ErrInvalidImageDimensions) {
			t.Fatalf("%dx%d@%g 期望 ErrInvalidImageDimensions，实际 %v", tc.w, tc.h, tc.dpi, err)
		}
	}
}

func TestNewCanvasValidates(t *testing.T) {
	if _, err := NewCanvas(0, 1080, 96); err == nil {
		t.Fatalf("宽度为 0 应报错")
	}
	if _, err := NewCanvas(1920, 1080, 0); err == nil {
		t.Fatalf("DPI 为 0 应报错")
	}
}

// TestTextBandCentered 文字带高 1.2in、全宽、垂直居中。
func TestTextBandCentered(t *testing.T) {
	band := DefaultCanvas().TextBand()
	want := Placement{Left: 0, Top: 4594860, Width: 18288000, Height: 1097280}
	if band != want {
		t.Fatalf("期望 %+v，实际 %+v", want, band)
	}
}
