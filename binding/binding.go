package binding

import (
	"regexp"
	"strings"

	"github.com/ByLCY/papyrus-label/element"
)

var exprPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// Values 是一条记录中 字段 id → 单元格文本 的映射。
type Values map[string]string

// Lookup 查找字段值；键两侧空白会被忽略。
func (v Values) Lookup(key string) (string, bool) {
	if v == nil {
		return "", false
	}
	val, ok := v[strings.TrimSpace(key)]
	return val, ok
}

// Interpolate 将文本中的 ${fieldId} 替换为记录中的值。
// 若 values 为空或字段不存在，则保留原占位符。
func Interpolate(text string, values Values) string {
	if len(values) == 0 || !strings.Contains(text, "${") {
		return text
	}
	return exprPattern.ReplaceAllStringFunc(text, func(match string) string {
		groups := exprPattern.FindStringSubmatch(match)
		if len(groups) < 2 || strings.TrimSpace(groups[1]) == "" {
			return match
		}
		if val, ok := values.Lookup(groups[1]); ok {
			return val
		}
		return match
	})
}

// Fields 返回文本中引用的字段 id，按出现顺序去重。
func Fields(text string) []string {
	var out []string
	seen := map[string]bool{}
	for _, groups := range exprPattern.FindAllStringSubmatch(text, -1) {
		id := strings.TrimSpace(groups[1])
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// Content 返回元素在给定记录下的显示内容：
// 绑定元素取字段值（缺失时为空串），画布元素对自身内容做插值。
func Content(el element.Element, values Values) string {
	if el.Bound() {
		v, _ := values.Lookup(el.FieldID)
		return v
	}
	return Interpolate(el.Content, values)
}
