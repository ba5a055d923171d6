package manifest

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ByLCY/wordslides/binding"
)

// LoadData 读取 YAML 或 JSON 数据文件（JSON 是 YAML 的子集）。
func LoadData(path string) (any, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取数据文件 %s 失败: %w", path, err)
	}
	var data any
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("解析数据文件 %s 失败: %w", path, err)
	}
	return data, nil
}

// Bind 展开文字与 meta 中的 ${path} 占位符；任一占位符缺失即报错并附带位置。
func (m *Manifest) Bind(data any) error {
	for i := range m.Entries {
		e := &m.Entries[i]
		word, err := binding.Expand(e.Word, data)
		if err != nil {
			return fmt.Errorf("%s: %w", e.Pos, err)
		}
		e.Word = word
	}
	for name, field := range map[string]*string{
		"title":   &m.Meta.Title,
		"author":  &m.Meta.Author,
		"subject": &m.Meta.Subject,
	} {
		v, err := binding.Expand(*field, data)
		if err != nil {
			return fmt.Errorf("meta.%s: %w", name, err)
		}
		*field = v
	}
	for i, kw := range m.Meta.Keywords {
		v, err := binding.Expand(kw, data)
		if err != nil {
			return fmt.Errorf("meta.keywords[%d]: %w", i, err)
		}
		m.Meta.Keywords[i] = v
	}
	return nil
}
