package renderer

import "github.com/ByLCY/wordslides/layout"

// Renderer 将排好版的幻灯片输出为最终文件，例如 PPTX 或 PDF。
// Render 返回生成的二进制数据以及可能的错误。
type Renderer interface {
	Render(deck *layout.Deck) ([]byte, error)
	// ContentType 返回输出文件的 MIME 类型。
	ContentType() string
	// Extension 返回输出文件扩展名（不含点）。
	Extension() string
}
