package fonts

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadBuiltin(t *testing.T) {
	for _, name := range []string{"embed:go-regular", Bold, " GO-MONO "} {
		data, err := Load(name)
		if err != nil {
			t.Fatalf("读取 %q 失败: %v", name, err)
		}
		if len(data) == 0 {
			t.Fatalf("字体 %q 为空", name)
		}
	}
	if _, err := Load("Inter-Regular.ttf"); err == nil {
		t.Fatalf("未知字体应返回错误")
	}
}

func TestForWeight(t *testing.T) {
	if ForWeight("700") != Bold || ForWeight("bold") != Bold {
		t.Fatalf("粗体映射错误")
	}
	if ForWeight("") != Regular || ForWeight("400") != Regular {
		t.Fatalf("常规字重映射错误")
	}
}

func TestForStyle(t *testing.T) {
	if ForStyle("mono", "bold") != Mono || ForStyle(" Monospace ", "") != Mono {
		t.Fatalf("等宽字体映射错误")
	}
	if ForStyle("", "bold") != Bold || ForStyle("serif", "") != Regular {
		t.Fatalf("非等宽字体应按字重选择")
	}
}

func TestReadFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cjk.ttf")
	mono, _ := Load(Mono)
	if err := os.WriteFile(path, mono, 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := ReadFiles(map[string]string{Regular: path, Bold: ""})
	if err != nil {
		t.Fatalf("ReadFiles: %v", err)
	}
	if len(got) != 1 || !bytes.Equal(got[Regular], mono) {
		t.Fatalf("unexpected overrides: %d entries", len(got))
	}
	if _, err := ReadFiles(map[string]string{Regular: filepath.Join(dir, "missing.ttf")}); err == nil {
		t.Fatalf("缺失的字体文件应返回错误")
	}
	if _, err := ReadFiles(map[string]string{"inter": path}); err == nil {
		t.Fatalf("未知字体名应返回错误")
	}
}
