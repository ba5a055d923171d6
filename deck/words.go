package deck

import "strings"

// WordSeparator 分隔表单中一次提交的多个词。
const WordSeparator = ";"

// SplitWords 按 ";" 切分，去掉首尾空白并丢弃空项，顺序不变。
func SplitWords(text string) []string {
	parts := strings.Split(text, WordSeparator)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
