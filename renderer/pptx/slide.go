package pptx

import (
	"fmt"
	"math"
	"strings"

	"github.com/ByLCY/wordslides/layout"
)

// buildSlide 生成第 n 页的 slide XML 及其关系文件。
// 绘制顺序即 spTree 中的顺序：先图片，后文本框。
func buildSlide(n int, s layout.Slide, media map[string]mediaPart) (slidePart, error) {
	var rels strings.Builder
	rels.WriteString(xmlHeader)
	rels.WriteString(`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">`)
	rels.WriteString(`<Relationship Id="rId1" Type="` + relSlideLayout + `" Target="../slideLayouts/slideLayout1.xml"/>`)

	var tree strings.Builder
	tree.WriteString(emptyGroup)

	shapeID := 2
	relByMedia := map[string]string{}
	for _, box := range s.Images {
		m, ok := media[box.Ref]
		if !ok {
			return slidePart{}, fmt.Errorf("第 %d 页引用了未知图片 %q", n, box.Ref)
		}
		rid, ok := relByMedia[m.Name]
		if !ok {
			rid = fmt.Sprintf("rId%d", len(relByMedia)+2)
			relByMedia[m.Name] = rid
			fmt.Fprintf(&rels, `<Relationship Id="%s" Type="%s" Target="../media/%s"/>`, rid, relImage, m.Name)
		}
		writePicture(&tree, shapeID, rid, box)
		shapeID++
	}
	for _, tb := range s.Texts {
		writeTextBox(&tree, shapeID, tb)
		shapeID++
	}
	rels.WriteString(`</Relationships>`)

	body := xmlHeader + `<p:sld xmlns:a="` + nsA + `" xmlns:r="` + nsR + `" xmlns:p="` + nsP + `">` +
		`<p:cSld><p:spTree>` + tree.String() + `</p:spTree></p:cSld>` +
		`<p:clrMapOvr><a:masterClrMapping/></p:clrMapOvr></p:sld>`

	return slidePart{
		Number: n,
		ID:     255 + n,
		RelID:  fmt.Sprintf("rId%d", n+1),
		XML:    body,
		Rels:   rels.String(),
	}, nil
}

func writeXfrm(b *strings.Builder, p layout.Placement) {
	fmt.Fprintf(b, `<a:xfrm><a:off x="%d" y="%d"/><a:ext cx="%d" cy="%d"/></a:xfrm>`, p.Left, p.Top, p.Width, p.Height)
}

func writePicture(b *strings.Builder, id int, rid string, box layout.ImageBox) {
	fmt.Fprintf(b, `<p:pic><p:nvPicPr><p:cNvPr id="%d" name="Picture %d"/>`, id, id-1)
	b.WriteString(`<p:cNvPicPr><a:picLocks noChangeAspect="1"/></p:cNvPicPr><p:nvPr/></p:nvPicPr>`)
	fmt.Fprintf(b, `<p:blipFill><a:blip r:embed="%s"/><a:stretch><a:fillRect/></a:stretch></p:blipFill>`, rid)
	b.WriteString(`<p:spPr>`)
	writeXfrm(b, box.Placement)
	b.WriteString(`<a:prstGeom prst="rect"><a:avLst/></a:prstGeom></p:spPr></p:pic>`)
}

func writeTextBox(b *strings.Builder, id int, tb layout.TextBox) {
	fmt.Fprintf(b, `<p:sp><p:nvSpPr><p:cNvPr id="%d" name="TextBox %d"/><p:cNvSpPr txBox="1"/><p:nvPr/></p:nvSpPr>`, id, id-1)
	b.WriteString(`<p:spPr>`)
	writeXfrm(b, tb.Placement)
	b.WriteString(`<a:prstGeom prst="rect"><a:avLst/></a:prstGeom><a:noFill/></p:spPr>`)
	// 与 PowerPoint 新建文本框一致：默认内边距、顶部对齐、形状随文字调整
	b.WriteString(`<p:txBody><a:bodyPr wrap="none" rtlCol="0"><a:spAutoFit/></a:bodyPr><a:lstStyle/>`)
	fmt.Fprintf(b, `<a:p><a:pPr algn="%s"/>`, alignment(tb.Align))
	fmt.Fprintf(b, `<a:r><a:rPr lang="en-US" sz="%d" b="%d" dirty="0">`, fontSize(tb.FontSize), boolAttr(tb.Bold))
	b.WriteString(solidFill(tb.Color.Hex()))
	b.WriteString(`</a:rPr><a:t>`)
	b.WriteString(escape(tb.Content))
	b.WriteString(`</a:t></a:r></a:p></p:txBody></p:sp>`)
}

func alignment(a layout.Align) string {
	switch a {
	case layout.AlignLeft:
		return "l"
	case layout.AlignRight:
		return "r"
	default:
		return "ctr"
	}
}

// fontSize 把 pt 转为 DrawingML 的百分之一磅。
func fontSize(pt float64) int {
	return int(math.Round(pt * 100))
}

func boolAttr(v bool) int {
	if v {
		return 1
	}
	return 0
}
