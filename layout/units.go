package layout

import (
	"math"
	"strconv"
	"strings"
)

// 本文件定义长度单位与换算。演示文稿的原生单位是 EMU（English Metric Unit），
// 所有布局结果都以 EMU 保存，渲染器在边界处再换算为自己的单位。

// EMU 是 OOXML 文档使用的整数长度单位。
type EMU int64

// 单位换算常量。
const (
	EMUPerInch  = 914400
	EMUPerPoint = 12700
	EMUPerMM    = 36000
	PtPerInch   = 72.0
	MmPerInch   = 25.4
)

// Unit represents the original unit of a length value as written in a manifest.
type Unit int

const (
	UnitNone Unit = iota // unit-less numbers
	UnitPX               // pixels, resolved against a DPI
	UnitPT               // points
	UnitIN               // inches
	UnitMM               // millimeters
	UnitCM               // centimeters
	UnitEMU              // raw EMU
)

// UnitToString returns a short string for a Unit value.
func UnitToString(u Unit) string {
	switch u {
	case UnitPX:
		return "px"
	case UnitPT:
		return "pt"
	case UnitIN:
		return "in"
	case UnitMM:
		return "mm"
	case UnitCM:
		return "cm"
	case UnitEMU:
		return "emu"
	default:
		return ""
	}
}

// Inches 将英寸换算为 EMU（向零截断）。
func Inches(in float64) EMU { return EMU(math.Trunc(in * EMUPerInch)) }

// Points 将磅换算为 EMU。
func Points(pt float64) EMU { return EMU(math.Trunc(pt * EMUPerPoint)) }

// Pixels 按给定 DPI 将像素换算为 EMU：px / dpi * 914400，向零截断。
// 调用方需保证 dpi > 0。
func Pixels(px, dpi float64) EMU { return EMU(math.Trunc(px / dpi * EMUPerInch)) }

func (e EMU) Inches() float64 { return float64(e) / EMUPerInch }
func (e EMU) Points() float64 { return float64(e) / EMUPerPoint }
func (e EMU) MM() float64     { return float64(e) / EMUPerMM }

// Length preserves a numeric value with its unit.
type Length struct {
	Value float64 `json:"value"`
	Unit  Unit    `json:"unit"`
}

func (l Length) IsZero() bool { return l.Value == 0 }

// EMU converts the length to EMU. Pixel values are resolved against dpi;
// unit-less values are treated as pixels as well.
func (l Length) EMU(dpi float64) EMU {
	switch l.Unit {
	case UnitPT:
		return Points(l.Value)
	case UnitIN:
		return Inches(l.Value)
	case UnitMM:
		return Inches(l.Value / MmPerInch)
	case UnitCM:
		return Inches(l.Value * 10 / MmPerInch)
	case UnitEMU:
		return EMU(math.Trunc(l.Value))
	default:
		if dpi <= 0 {
			dpi = DefaultDPI
		}
		return Pixels(l.Value, dpi)
	}
}

// Pixels converts the length to pixels at dpi.
func (l Length) Pixels(dpi float64) float64 {
	if l.Unit == UnitPX || l.Unit == UnitNone {
		return l.Value
	}
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	return l.EMU(dpi).Inches() * dpi
}

// ToPT converts the length to points.
func (l Length) ToPT(dpi float64) float64 {
	if l.Unit == UnitPT {
		return l.Value
	}
	return l.EMU(dpi).Points()
}

// ParseRawLengthStr parses a manifest length string preserving its unit.
// Unknown or malformed input yields a zero length.
func ParseRawLengthStr(value string) Length {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" {
		return Length{}
	}
	unit := UnitNone
	num := v
	for _, suf := range []struct {
		s string
		u Unit
	}{{"emu", UnitEMU}, {"px", UnitPX}, {"pt", UnitPT}, {"in", UnitIN}, {"mm", UnitMM}, {"cm", UnitCM}} {
		if strings.HasSuffix(v, suf.s) {
			unit = suf.u
			num = strings.TrimSpace(strings.TrimSuffix(v, suf.s))
			break
		}
	}
	f, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return Length{}
	}
	return Length{Value: f, Unit: unit}
}
