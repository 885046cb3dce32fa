// Package element 定义画布上可放置的打印元素：文本与 UDI 条码。
package element

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalid 表示元素违反了模型约束。
var ErrInvalid = errors.New("element: 无效元素")

// Kind 区分元素的呈现类型。
type Kind string

const (
	KindText Kind = "text"
	KindUDI  Kind = "udi"
)

// SourceType 是元素的来源标记，决定其所属集合。
type SourceType string

const (
	// SourceBase 画布元素，内容由用户直接编写。
	SourceBase SourceType = "Base"
	// SourceTable 记录绑定元素，内容来自表格字段。
	SourceTable SourceType = "Table"
)

// Valid 判断来源标记是否为已知值。
func (s SourceType) Valid() bool { return s == SourceBase || s == SourceTable }

// Styles 保存几何与外观。几何单位为 px，均为有限数值。
type Styles struct {
	Top        Dimension `json:"top"`
	Left       Dimension `json:"left"`
	Width      Dimension `json:"width"`
	Height     Dimension `json:"height"`
	Color      string    `json:"color,omitempty"`
	FontSize   Dimension `json:"fontSize,omitempty"`
	FontFamily string    `json:"fontFamily,omitempty"`
	FontWeight string    `json:"fontWeight,omitempty"`
	TextAlign  string    `json:"textAlign,omitempty"`
}

// Element 是可放置的打印单元。
type Element struct {
	UUID       string     `json:"uuid"`
	Type       Kind       `json:"type"`
	SourceType SourceType `json:"sourceType"`
	Content    string     `json:"content"`
	FieldID    string     `json:"fieldId,omitempty"`
	FieldType  int        `json:"fieldType,omitempty"`
	Rotate     float64    `json:"rotate"`
	Styles     Styles     `json:"styles"`
}

// Bound 表示元素内容来自记录字段。
func (e Element) Bound() bool { return e.SourceType == SourceTable }

// Validate 校验标识、来源、绑定字段与几何数值。
func (e Element) Validate() error {
	if e.UUID == "" {
		return fmt.Errorf("%w: uuid 为空", ErrInvalid)
	}
	if !e.SourceType.Valid() {
		return fmt.Errorf("%w: 元素 %s 的 sourceType %q 未知", ErrInvalid, e.UUID, e.SourceType)
	}
	if e.Bound() && e.FieldID == "" {
		return fmt.Errorf("%w: 绑定元素 %s 缺少 fieldId", ErrInvalid, e.UUID)
	}
	geometry := []struct {
		name string
		v    float64
	}{
		{"top", float64(e.Styles.Top)},
		{"left", float64(e.Styles.Left)},
		{"width", float64(e.Styles.Width)},
		{"height", float64(e.Styles.Height)},
		{"fontSize", float64(e.Styles.FontSize)},
		{"rotate", e.Rotate},
	}
	for _, g := range geometry {
		if math.IsNaN(g.v) || math.IsInf(g.v, 0) {
			return fmt.Errorf("%w: 元素 %s 的 %s 不是有限数值", ErrInvalid, e.UUID, g.name)
		}
	}
	return nil
}

// Moved 返回平移 (dx, dy) 后的副本。
func (e Element) Moved(dx, dy float64) Element {
	e.Styles.Left += Dimension(dx)
	e.Styles.Top += Dimension(dy)
	return e
}

// Defaults 给出拖拽面板中元素的初始外观。
func Defaults(kind Kind) Element {
	switch kind {
	case KindUDI:
		return Element{
			Type:    KindUDI,
			Content: "UDI",
			Styles: Styles{
				Width:  200,
				Height: 200,
				Color:  "#000000",
			},
		}
	default:
		return Element{
			Type:    KindText,
			Content: "文本",
			Styles: Styles{
				Width:    100,
				Height:   30,
				Color:    "#000000",
				FontSize: 14,
			},
		}
	}
}
