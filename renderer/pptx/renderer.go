// Package pptx 把 layout.Deck 序列化为 PresentationML (.pptx) 包。
package pptx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
	"text/template"
	"time"

	"github.com/ByLCY/wordslides/imageinfo"
	"github.com/ByLCY/wordslides/layout"
)

// MIMEType 是 .pptx 文件的内容类型。
const MIMEType = "application/vnd.openxmlformats-officedocument.presentationml.presentation"

const defaultApplication = "wordslides"

// Renderer 生成 .pptx 字节流。零值可用。
type Renderer struct {
	// Application 写入 docProps/app.xml。
	Application string
	// Now 返回写入 core.xml 与 zip 条目的时间；nil 时使用 time.Now。
	Now func() time.Time
}

// NewRenderer 返回默认配置的渲染器。
func NewRenderer() *Renderer {
	return &Renderer{Application: defaultApplication}
}

func (r *Renderer) ContentType() string { return MIMEType }

func (r *Renderer) Extension() string { return "pptx" }

var funcs = template.FuncMap{
	"xml":  escape,
	"join": func(s []string) string { return strings.Join(s, ", ") },
}

var (
	contentTypesT     = template.Must(template.New("ct").Funcs(funcs).Parse(contentTypesTmpl))
	coreT             = template.Must(template.New("core").Funcs(funcs).Parse(coreTmpl))
	appT              = template.Must(template.New("app").Funcs(funcs).Parse(appTmpl))
	presentationT     = template.Must(template.New("pres").Funcs(funcs).Parse(presentationTmpl))
	presentationRelsT = template.Must(template.New("presRels").Funcs(funcs).Parse(presentationRelsTmpl))
)

type mediaPart struct {
	Name        string // ppt/media 下的文件名
	Ext         string
	ContentType string
	Data        []byte
}

type slidePart struct {
	Number int
	ID     int
	RelID  string
	XML    string
	Rels   string
}

type packageModel struct {
	Width, Height  layout.EMU
	Meta           layout.DocumentMeta
	Application    string
	Created        string
	Slides         []slidePart
	Media          []mediaPart // 按扩展名去重后的 Default 条目
	PresPropsRel   string
	ViewPropsRel   string
	ThemeRel       string
	TableStylesRel string
}

// Render 实现 renderer.Renderer。
func (r *Renderer) Render(deck *layout.Deck) ([]byte, error) {
	if deck == nil {
		return nil, fmt.Errorf("deck is nil")
	}
	if deck.Width <= 0 || deck.Height <= 0 {
		return nil, fmt.Errorf("无效的幻灯片尺寸: %dx%d", deck.Width, deck.Height)
	}

	now := time.Now
	if r.Now != nil {
		now = r.Now
	}
	ts := now().UTC().Truncate(time.Second)
	app := r.Application
	if app == "" {
		app = defaultApplication
	}

	media, mediaByRef, err := collectMedia(deck)
	if err != nil {
		return nil, err
	}

	model := packageModel{
		Width:       deck.Width,
		Height:      deck.Height,
		Meta:        deck.Meta,
		Application: app,
		Created:     ts.Format(time.RFC3339),
	}
	for i, s := range deck.Slides {
		part, err := buildSlide(i+1, s, mediaByRef)
		if err != nil {
			return nil, err
		}
		model.Slides = append(model.Slides, part)
	}
	next := len(deck.Slides) + 2
	model.PresPropsRel = fmt.Sprintf("rId%d", next)
	model.ViewPropsRel = fmt.Sprintf("rId%d", next+1)
	model.ThemeRel = fmt.Sprintf("rId%d", next+2)
	model.TableStylesRel = fmt.Sprintf("rId%d", next+3)

	seenExt := map[string]bool{}
	for _, m := range media {
		if seenExt[m.Ext] {
			continue
		}
		seenExt[m.Ext] = true
		model.Media = append(model.Media, m)
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w := &packageWriter{zw: zw, modified: ts}

	w.template("[Content_Types].xml", contentTypesT, model)
	w.static("_rels/.rels", rootRelsXML)
	w.template("docProps/core.xml", coreT, model)
	w.template("docProps/app.xml", appT, model)
	w.template("ppt/presentation.xml", presentationT, model)
	w.template("ppt/_rels/presentation.xml.rels", presentationRelsT, model)
	w.static("ppt/presProps.xml", presPropsXML)
	w.static("ppt/viewProps.xml", viewPropsXML)
	w.static("ppt/tableStyles.xml", tableStylesXML)
	w.static("ppt/theme/theme1.xml", themeXML)
	w.static("ppt/slideMasters/slideMaster1.xml", slideMasterXML)
	w.static("ppt/slideMasters/_rels/slideMaster1.xml.rels", slideMasterRelsXML)
	w.static("ppt/slideLayouts/slideLayout1.xml", slideLayoutXML)
	w.static("ppt/slideLayouts/_rels/slideLayout1.xml.rels", slideLayoutRelsXML)
	for _, s := range model.Slides {
		w.static(fmt.Sprintf("ppt/slides/slide%d.xml", s.Number), s.XML)
		w.static(fmt.Sprintf("ppt/slides/_rels/slide%d.xml.rels", s.Number), s.Rels)
	}
	for _, m := range media {
		w.stored("ppt/media/"+m.Name, m.Data)
	}
	if w.err != nil {
		return nil, w.err
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("写入 pptx 失败: %w", err)
	}
	return buf.Bytes(), nil
}

// collectMedia 按幻灯片中首次出现的顺序为每个资源分配一个媒体文件，同一资源只写一次。
func collectMedia(deck *layout.Deck) ([]mediaPart, map[string]mediaPart, error) {
	var media []mediaPart
	byRef := map[string]mediaPart{}
	for _, s := range deck.Slides {
		for _, box := range s.Images {
			if _, ok := byRef[box.Ref]; ok {
				continue
			}
			res, ok := deck.Resources.Images[box.Ref]
			if !ok {
				return nil, nil, fmt.Errorf("图片资源 %q 不存在", box.Ref)
			}
			ext := imageinfo.Extension(res.Format)
			if ext == "" {
				return nil, nil, fmt.Errorf("图片 %q 的格式 %q 无法嵌入", box.Ref, res.Format)
			}
			if len(res.Data) == 0 {
				return nil, nil, fmt.Errorf("图片资源 %q 没有数据", box.Ref)
			}
			m := mediaPart{
				Name:        fmt.Sprintf("image%d.%s", len(media)+1, ext),
				Ext:         ext,
				ContentType: imageinfo.ContentType(res.Format),
				Data:        res.Data,
			}
			media = append(media, m)
			byRef[box.Ref] = m
		}
	}
	return media, byRef, nil
}

// packageWriter 记录第一个错误，后续写入直接跳过。
type packageWriter struct {
	zw       *zip.Writer
	modified time.Time
	err      error
}

func (w *packageWriter) create(name string, method uint16) io.Writer {
	if w.err != nil {
		return nil
	}
	f, err := w.zw.CreateHeader(&zip.FileHeader{Name: name, Method: method, Modified: w.modified})
	if err != nil {
		w.err = fmt.Errorf("创建 %s 失败: %w", name, err)
		return nil
	}
	return f
}

func (w *packageWriter) static(name, content string) {
	if f := w.create(name, zip.Deflate); f != nil {
		if _, err := io.WriteString(f, content); err != nil {
			w.err = fmt.Errorf("写入 %s 失败: %w", name, err)
		}
	}
}

func (w *packageWriter) template(name string, t *template.Template, data any) {
	if f := w.create(name, zip.Deflate); f != nil {
		if err := t.Execute(f, data); err != nil {
			w.err = fmt.Errorf("渲染 %s 失败: %w", name, err)
		}
	}
}

// stored 用于已压缩的图片数据。
func (w *packageWriter) stored(name string, data []byte) {
	if f := w.create(name, zip.Store); f != nil {
		if _, err := f.Write(data); err != nil {
			w.err = fmt.Errorf("写入 %s 失败: %w", name, err)
		}
	}
}

func escape(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}
