package fonts

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
)

// 内置字体名。
const (
	Regular = "go-regular"
	Bold    = "go-bold"
	Mono    = "go-mono"
)

var builtin = map[string][]byte{
	Regular: goregular.TTF,
	Bold:    gobold.TTF,
	Mono:    gomono.TTF,
}

// Load 返回内置字体的字节数据，name 可写为 "embed:go-regular" 或直接 "go-regular"。
func Load(name string) ([]byte, error) {
	key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "embed:")))
	data, ok := builtin[key]
	if !ok {
		return nil, fmt.Errorf("读取内置字体 %s 失败: 不存在", name)
	}
	return data, nil
}

// ForStyle 按 fontFamily 与 fontWeight 选择内置字体；family 为 mono/monospace 时使用等宽字体。
func ForStyle(family, weight string) string {
	switch strings.ToLower(strings.TrimSpace(family)) {
	case "mono", "monospace", Mono:
		return Mono
	}
	return ForWeight(weight)
}

// ReadFiles 按内置字体名读取替换字体文件，空路径跳过。
func ReadFiles(paths map[string]string) (map[string][]byte, error) {
	out := make(map[string][]byte, len(paths))
	for name, path := range paths {
		if strings.TrimSpace(path) == "" {
			continue
		}
		if _, ok := builtin[name]; !ok {
			return nil, fmt.Errorf("未知的内置字体名 %s", name)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("读取字体文件 %s 失败: %w", path, err)
		}
		out[name] = data
	}
	return out, nil
}

// ForWeight 按 CSS fontWeight 选择内置字体。
func ForWeight(weight string) string {
	switch strings.ToLower(strings.TrimSpace(weight)) {
	case "bold", "bolder", "600", "700", "800", "900":
		return Bold
	default:
		return Regular
	}
}
