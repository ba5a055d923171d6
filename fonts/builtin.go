package fonts

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/goregular"
)

// 内置字体使用 Go 字体家族（覆盖拉丁、希腊与西里尔字母）。
const (
	Regular    = "Go-Regular"
	Bold       = "Go-Bold"
	Italic     = "Go-Italic"
	BoldItalic = "Go-BoldItalic"
)

var builtin = map[string][]byte{
	Regular:    goregular.TTF,
	Bold:       gobold.TTF,
	Italic:     goitalic.TTF,
	BoldItalic: gobolditalic.TTF,
}

// Load 返回内置字体的字节数据，name 可写为 "embed:Go-Bold" 或直接 "Go-Bold"，忽略大小写与 .ttf 后缀。
func Load(name string) ([]byte, error) {
	clean := strings.TrimSuffix(strings.TrimPrefix(name, "embed:"), ".ttf")
	for k, data := range builtin {
		if strings.EqualFold(k, clean) {
			return data, nil
		}
	}
	return nil, fmt.Errorf("内置字体 %s 不存在（可用: %s）", name, strings.Join(Names(), ", "))
}

// Names 返回所有内置字体名，按字母排序。
func Names() []string {
	out := make([]string, 0, len(builtin))
	for k := range builtin {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
