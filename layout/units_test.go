package layout

import (
	"math"
	"testing"
)

// TestEMUConstants 验证常用换算：1in、1pt、以及 96 DPI 下的默认画布。
func TestEMUConstants(t *testing.T) {
	if got := Inches(1); got != 914400 {
		t.Fatalf("1in 期望 914400 EMU，实际 %d", got)
	}
	if got := Points(60); got != 762000 {
		t.Fatalf("60pt 期望 762000 EMU，实际 %d", got)
	}
	if got := Inches(1.2); got != 1097280 {
		t.Fatalf("1.2in 期望 1097280 EMU，实际 %d", got)
	}
	c := DefaultCanvas()
	if c.WidthEMU() != 18288000 || c.HeightEMU() != 10287000 {
		t.Fatalf("默认画布 EMU 错误: %dx%d", c.WidthEMU(), c.HeightEMU())
	}
}

// TestPixelsTruncatesTowardZero 负偏移同样向零截断。
func TestPixelsTruncatesTowardZero(t *testing.T) {
	if got := Pixels(2, 96); got != 19050 {
		t.Fatalf("2px@96 期望 19050，实际 %d", got)
	}
	if got := Pixels(-2, 96); got != -19050 {
		t.Fatalf("-2px@96 期望 -19050，实际 %d", got)
	}
	if got := Pixels(1, 7); got != 130628 {
		t.Fatalf("1px@7 期望 130628，实际 %d", got)
	}
}

// TestEMURoundTrip 验证 EMU 到 in/pt/mm 的换算。
func TestEMURoundTrip(t *testing.T) {
	e := Inches(2)
	if diff := math.Abs(e.Inches() - 2); diff > 1e-9 {
		t.Fatalf("2in 往返误差过大: %g", diff)
	}
	if diff := math.Abs(e.Points() - 144); diff > 1e-9 {
		t.Fatalf("2in 转 pt 期望 144，实际 %g", e.Points())
	}
	if diff := math.Abs(e.MM() - 50.8); diff > 1e-9 {
		t.Fatalf("2in 转 mm 期望 50.8，实际 %g", e.MM())
	}
}

func TestParseRawLengthStr(t *testing.T) {
	cases := []struct {
		in   string
		want Length
	}{
		{"2px", Length{Value: 2, Unit: UnitPX}},
		{" 60pt ", Length{Value: 60, Unit: UnitPT}},
		{"1.2in", Length{Value: 1.2, Unit: UnitIN}},
		{"10mm", Length{Value: 10, Unit: UnitMM}},
		{"2.54cm", Length{Value: 2.54, Unit: UnitCM}},
		{"19050emu", Length{Value: 19050, Unit: UnitEMU}},
		{"42", Length{Value: 42, Unit: UnitNone}},
		{"abc", Length{}},
		{"", Length{}},
	}
	for _, tc := range cases {
		if got := ParseRawLengthStr(tc.in); got != tc.want {
			t.Fatalf("ParseRawLengthStr(%q) = %+v, 期望 %+v", tc.in, got, tc.want)
		}
	}
}

// TestLengthEMU 覆盖 Length 在各单位上到 EMU 的换算。
func TestLengthEMU(t *testing.T) {
	cases := []struct {
		l    Length
		dpi  float64
		want EMU
	}{
		{Length{2, UnitPX}, 96, 19050},
		{Length{2, UnitNone}, 0, 19050},
		{Length{1, UnitIN}, 96, 914400},
		{Length{25.4, UnitMM}, 96, 914400},
		{Length{2.54, UnitCM}, 96, 914400},
		{Length{72, UnitPT}, 96, 914400},
		{Length{12345, UnitEMU}, 96, 12345},
	}
	for _, tc := range cases {
		if got := tc.l.EMU(tc.dpi); got != tc.want {
			t.Fatalf("%+v.EMU(%g) = %d, 期望 %d", tc.l, tc.dpi, got, tc.want)
		}
	}
	if got := (Length{1, UnitIN}).Pixels(96); math.Abs(got-96) > 1e-9 {
		t.Fatalf("1in@96 期望 96px，实际 %g", got)
	}
	if got := (Length{1, UnitIN}).ToPT(96); math.Abs(got-72) > 1e-9 {
		t.Fatalf("1in 期望 72pt，实际 %g", got)
	}
}
