package element

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// 以 CSS 像素（96dpi）为基准的换算系数。
const (
	PxPerMm = 96.0 / 25.4
	PxPerPt = 96.0 / 72.0
	PxPerCm = PxPerMm * 10
	PxPerIn = 96.0
)

// Dimension 是以 px 为单位的几何数值。
// 解码时接受数字或带单位的字符串（"120"、"120px"、"12mm"、"9pt"），持久化时总是输出数字。
type Dimension float64

// Float 返回底层数值。
func (d Dimension) Float() float64 { return float64(d) }

// UnmarshalJSON 将数字、字符串或 null 统一转换为 px 数值。
func (d *Dimension) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*d = 0
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		v, err := ParseDimension(s)
		if err != nil {
			return err
		}
		*d = v
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("%w: 尺寸 %s 不是数字", ErrInvalid, string(data))
	}
	*d = Dimension(f)
	return nil
}

// ParseDimension 解析带可选单位的尺寸字符串，结果以 px 表示。空串视为 0。
func ParseDimension(value string) (Dimension, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" {
		return 0, nil
	}
	factor := 1.0
	for _, suf := range []struct {
		s string
		f float64
	}{{"px", 1}, {"mm", PxPerMm}, {"cm", PxPerCm}, {"in", PxPerIn}, {"pt", PxPerPt}} {
		if strings.HasSuffix(v, suf.s) {
			factor = suf.f
			v = strings.TrimSpace(strings.TrimSuffix(v, suf.s))
			break
		}
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: 无法解析尺寸 %q", ErrInvalid, value)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: 尺寸 %q 不是有限数值", ErrInvalid, value)
	}
	return Dimension(f * factor), nil
}

// ToMM 将 px 换算为毫米。
func (d Dimension) ToMM() float64 { return float64(d) / PxPerMm }
