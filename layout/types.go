package layout

import "github.com/ByLCY/papyrus-label/udi"

// 该文件定义布局结果与资源描述，供布局计算、渲染与调试 JSON 共用。

// Result 保存布局后的页面与资源信息。
type Result struct {
	Pages     []Page       `json:"pages"`
	Resources ResourceSet  `json:"resources"`
	Meta      DocumentMeta `json:"meta"`
}

// ResourceSet 记录布局中用到的字体。
type ResourceSet struct {
	Fonts map[string]FontResource `json:"fonts"`
}

// FontResource 描述字体资源，src 为 embed:* 形式的内置字体。
type FontResource struct {
	Name      string `json:"name"`
	Src       string `json:"src"`
	Family    string `json:"family"`    // 渲染器使用的 Family 名称
	IsBuiltin bool   `json:"isBuiltin"` // 是否为内建字体
}

// Color 采用 0-255 的 RGB 数值。
type Color struct {
	R int `json:"r"`
	G int `json:"g"`
	B int `json:"b"`
}

// Page 对应一条记录的一张标签，坐标均为页面坐标（单位：mm，原点左上）。
type Page struct {
	Width    float64      `json:"width"`
	Height   float64      `json:"height"`
	Record   string       `json:"record,omitempty"`
	Rects    []Rect       `json:"rects,omitempty"`
	Texts    []TextBox    `json:"texts"`
	Barcodes []BarcodeBox `json:"barcodes"`
}

// TextBox 表示一个已经排好坐标的文本块。
type TextBox struct {
	Element    string        `json:"element,omitempty"`
	Content    string        `json:"content"`
	X          float64       `json:"x"`
	Y          float64       `json:"y"`
	Width      float64       `json:"width"`
	LineHeight float64       `json:"lineHeight"`
	Font       string        `json:"font"`
	FontSize   float64       `json:"fontSize"`
	Color      Color         `json:"color"`
	Lines      []TextLine    `json:"lines"`
	Height     float64       `json:"height"`
	Align      string        `json:"align,omitempty"`  // 文本水平对齐方式：left/center/right（默认 left）
	Rotate     float64       `json:"rotate,omitempty"` // 顺时针角度，绕框中心
	Box        float64       `json:"box,omitempty"`    // 元素框高度，旋转中心以此计算
	Debug      *TextBoxDebug `json:"debug,omitempty"`
}

// TextLine 表示排版后的一行文本内容及其宽高。
type TextLine struct {
	Content   string  `json:"content"`
	Width     float64 `json:"width"`
	Height    float64 `json:"height"`
	GapBefore float64 `json:"gapBefore,omitempty"`
}

// TextBoxDebug holds optional debug info displayed only when enabled by BuildOptions.
type TextBoxDebug struct {
	RawUnits *RawUnits `json:"rawUnits,omitempty"`
}

// RawUnits describes original author-specified units for key fields.
type RawUnits struct {
	FontSize   *RawLengthJSON     `json:"fontSize,omitempty"`
	LineHeight *RawLineHeightJSON `json:"lineHeight,omitempty"`
}

// RawLengthJSON is a JSON-friendly representation of Length.
type RawLengthJSON struct {
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
}

// RawLineHeightJSON is a JSON-friendly representation of LineHeightSpec.
type RawLineHeightJSON struct {
	Kind   string  `json:"kind"` // "factor" | "absolute"
	Factor float64 `json:"factor,omitempty"`
	Value  float64 `json:"value,omitempty"`
	Unit   string  `json:"unit,omitempty"`
}

// BarcodeBox 是放置好的 UDI 条码。Symbol 以 px 为单位，渲染时按 PxPerMm 缩放到框内。
type BarcodeBox struct {
	Element string      `json:"element,omitempty"`
	X       float64     `json:"x"`
	Y       float64     `json:"y"`
	Width   float64     `json:"width"`
	Height  float64     `json:"height"`
	Rotate  float64     `json:"rotate,omitempty"`
	Content string      `json:"content"`
	State   udi.State   `json:"state"`
	Symbol  *udi.Symbol `json:"-"`
}

// Rect 表示一个矩形（单位 mm）。
type Rect struct {
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Width       float64 `json:"width"`
	Height      float64 `json:"height"`
	Rotate      float64 `json:"rotate,omitempty"`
	StrokeColor Color   `json:"strokeColor"`
	StrokeWidth float64 `json:"strokeWidth"`         // mm
	FillColor   *Color  `json:"fillColor,omitempty"` // 为空表示不填充
}

// DocumentMeta 保存 PDF 元信息。
type DocumentMeta struct {
	Title    string   `json:"title"`
	Author   string   `json:"author,omitempty"`
	Subject  string   `json:"subject,omitempty"`
	Creator  string   `json:"creator"`
	Keywords []string `json:"keywords,omitempty"`
}
