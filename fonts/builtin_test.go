package fonts

import "testing"

func TestLoad(t *testing.T) {
	for _, name := range []string{"Go-Regular", "embed:go-bold", "Go-Italic.ttf"} {
		data, err := Load(name)
		if err != nil {
			t.Fatalf("Load(%q): %v", name, err)
		}
		if len(data) == 0 {
			t.Fatalf("Load(%q) 返回空数据", name)
		}
	}
	if _, err := Load("Inter-Regular"); err == nil {
		t.Fatalf("未知字体应报错")
	}
	if got := Names(); len(got) != 4 || got[0] != Bold {
		t.Fatalf("Names() = %v", got)
	}
}
