// Package udi 处理 GS1 应用标识符（AI）括号表示法的 UDI 编码：解析、校验、格式化与条码生成。
package udi

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// 常用 AI。
const (
	AIProduct       = "01"
	AIExpiration    = "17"
	AILot           = "10"
	AISerial        = "21"
	AIManufacturing = "11"
)

// 生产标识（PI）的规范键名。
const (
	KeyExpirationDate    = "expirationDate"
	KeyLotNumber         = "lotNumber"
	KeySerialNumber      = "serialNumber"
	KeyManufacturingDate = "manufacturingDate"
)

// canonical 按格式化输出顺序列出规范键及其 AI。
var canonical = []struct {
	key string
	ai  string
}{
	{KeyExpirationDate, AIExpiration},
	{KeyLotNumber, AILot},
	{KeySerialNumber, AISerial},
	{KeyManufacturingDate, AIManufacturing},
}

var (
	aiGroupPattern = regexp.MustCompile(`\((\d{2,4})\)([^(]+)`)
	aiPattern      = regexp.MustCompile(`\(\d{2,4}\)`)
)

// ParseResult 是 UDI 解析结果：产品标识 DI、生产标识 PI 以及原始字符串。
type ParseResult struct {
	DI          string            `json:"di"`
	PI          map[string]string `json:"pi"`
	OriginalUDI string            `json:"originalUdi"`
}

// Parts 是 Format 的输入，等价于去掉原始串的 ParseResult。
type Parts struct {
	DI string            `json:"di"`
	PI map[string]string `json:"pi,omitempty"`
}

// Parts 返回可再次格式化的部分。
func (r ParseResult) Parts() Parts {
	return Parts{DI: r.DI, PI: r.PI}
}

// Parse 扫描 "(AI)值" 分组；值截止到下一个 "(" 或字符串末尾。
// 没有任何分组时返回空结果，从不失败。
func Parse(source string) ParseResult {
	result := ParseResult{
		PI:          map[string]string{},
		OriginalUDI: source,
	}
	for _, m := range aiGroupPattern.FindAllStringSubmatch(source, -1) {
		ai, value := m[1], m[2]
		switch ai {
		case AIProduct:
			result.DI = value
		case AIExpiration:
			result.PI[KeyExpirationDate] = value
		case AILot:
			result.PI[KeyLotNumber] = value
		case AISerial:
			result.PI[KeySerialNumber] = value
		case AIManufacturing:
			result.PI[KeyManufacturingDate] = value
		default:
			result.PI[ai] = value
		}
	}
	return result
}

// Validate 只检查是否至少存在一个 "(AI)" 分组。
// 它不校验校验位或 AI 语义，返回 true 并不代表符合 GS1 规范。
func Validate(source string) bool {
	return aiPattern.MatchString(source)
}

// Format 是 Parse 的逆操作：先输出 (01)DI，再按 17/10/21/11 输出已有的规范字段，
// 其余键按字典序追加为 "(键)值"。空值被忽略。
func Format(parts Parts) string {
	var b strings.Builder
	b.WriteString("(" + AIProduct + ")")
	b.WriteString(parts.DI)

	isCanonical := make(map[string]bool, len(canonical))
	for _, c := range canonical {
		isCanonical[c.key] = true
		if v := parts.PI[c.key]; v != "" {
			fmt.Fprintf(&b, "(%s)%s", c.ai, v)
		}
	}

	rest := make([]string, 0, len(parts.PI))
	for k, v := range parts.PI {
		if isCanonical[k] || v == "" {
			continue
		}
		rest = append(rest, k)
	}
	sort.Strings(rest)
	for _, k := range rest {
		fmt.Fprintf(&b, "(%s)%s", k, parts.PI[k])
	}
	return b.String()
}

// groupSeparator 是 GS1 中可变长字段的结束符（ASCII 29）。
const groupSeparator = "\x1d"

// ElementString 把括号表示法转为编码器使用的 GS1 元素串：
// 去掉括号，可变长字段（非最后一个）后追加 GS 分隔符。
func ElementString(source string) (string, error) {
	groups := aiGroupPattern.FindAllStringSubmatch(source, -1)
	if len(groups) == 0 {
		return "", fmt.Errorf("%w: %q", ErrInvalidFormat, source)
	}
	var b strings.Builder
	for i, g := range groups {
		ai, value := g[1], strings.TrimSpace(g[2])
		b.WriteString(ai)
		b.WriteString(value)
		// 长度与预定义不符的定长字段同样按可变长处理，保证扫描端能正确切分。
		if n, fixed := fixedLength(ai); (!fixed || len(value) != n) && i < len(groups)-1 {
			b.WriteString(groupSeparator)
		}
	}
	return b.String(), nil
}

// fixedLength 返回 GS1 预定义定长 AI 的数据长度。
func fixedLength(ai string) (int, bool) {
	if len(ai) < 2 {
		return 0, false
	}
	switch prefix := ai[:2]; prefix {
	case "00":
		return 18, true
	case "01", "02", "03":
		return 14, true
	case "04":
		return 16, true
	case "11", "12", "13", "14", "15", "16", "17", "18", "19":
		return 6, true
	case "20":
		return 2, true
	case "31", "32", "33", "34", "35", "36":
		if len(ai) == 4 {
			return 6, true
		}
	case "41":
		if len(ai) == 3 {
			return 13, true
		}
	}
	return 0, false
}
