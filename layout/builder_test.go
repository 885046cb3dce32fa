package layout

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ByLCY/papyrus-label/binding"
	"github.com/ByLCY/papyrus-label/config"
	"github.com/ByLCY/papyrus-label/element"
	"github.com/ByLCY/papyrus-label/fonts"
	"github.com/ByLCY/papyrus-label/udi"
)

const validUDI = "(01)00844588003288(17)141120(10)7654321D(21)10987654d321"

// stubTypesetter 是一个最小实现，仅用于测试，避免引入 renderer 造成循环依赖。
type stubTypesetter struct{}

func (s *stubTypesetter) LayoutLines(content string, width float64, font FontResource, fontSize float64, lineHeight float64) ([]TextLine, error) {
	// 极简策略：每个空格分出一行。
	parts := strings.Fields(content)
	lines := make([]TextLine, 0, len(parts))
	for _, p := range parts {
		lines = append(lines, TextLine{Content: p, Height: fontSize})
	}
	return lines, nil
}

func paper() config.PaperConfig { return config.PaperConfig{Name: "测试", Width: 100, Height: 70} }

func textElement(id, content string) element.Element {
	el := element.Defaults(element.KindText)
	el.UUID = id
	el.SourceType = element.SourceBase
	el.Content = content
	el.Styles.Left = element.Dimension(element.PxPerMm * 10)
	el.Styles.Top = element.Dimension(element.PxPerMm * 5)
	return el
}

func udiElement(id, field string) element.Element {
	el := element.Defaults(element.KindUDI)
	el.UUID = id
	el.SourceType = element.SourceTable
	el.FieldID = field
	return el
}

func build(t *testing.T, in Input, opts BuildOptions) *Result {
	t.Helper()
	res, err := Build(in, opts)
	if err != nil {
		t.Fatalf("布局计算失败: %v", err)
	}
	return res
}

func eq(a, b float64) bool {
	d := a - b
	return d < 1e-6 && d > -1e-6
}

func TestBuildOnePagePerRecord(t *testing.T) {
	in := Input{
		Paper:    paper(),
		Elements: []element.Element{textElement("title", "批号 ${fldLot}"), udiElement("code", "fldUDI")},
		Records: []Record{
			{ID: "rec1", Values: binding.Values{"fldLot": "A1", "fldUDI": validUDI}},
			{ID: "rec2", Values: binding.Values{"fldLot": "B2", "fldUDI": "bad"}},
		},
	}
	res := build(t, in, BuildOptions{})
	if len(res.Pages) != 2 {
		t.Fatalf("期望 2 页，实际 %d", len(res.Pages))
	}

	p1 := res.Pages[0]
	if p1.Record != "rec1" || !eq(p1.Width, 100) || !eq(p1.Height, 70) {
		t.Fatalf("第一页属性错误: %+v", p1)
	}
	if p1.Texts[0].Content != "批号 A1" {
		t.Fatalf("文本未插值: %q", p1.Texts[0].Content)
	}
	if !eq(p1.Texts[0].X, 10) || !eq(p1.Texts[0].Y, 5) {
		t.Fatalf("px→mm 换算错误: x=%g y=%g", p1.Texts[0].X, p1.Texts[0].Y)
	}
	if len(p1.Barcodes) != 1 || p1.Barcodes[0].State != udi.StateOK || p1.Barcodes[0].Symbol == nil {
		t.Fatalf("第一页条码应生成成功: %+v", p1.Barcodes)
	}
	if len(p1.Rects) != 0 {
		t.Fatalf("有效条码不应产生占位框")
	}

	p2 := res.Pages[1]
	if p2.Barcodes[0].State != udi.StateInvalid || p2.Barcodes[0].Symbol != nil {
		t.Fatalf("第二页条码应为无效状态: %+v", p2.Barcodes[0])
	}
	if len(p2.Rects) != 1 || p2.Rects[0].FillColor == nil {
		t.Fatalf("无效条码应产生灰底占位框: %+v", p2.Rects)
	}
	last := p2.Texts[len(p2.Texts)-1]
	if last.Content != udi.InvalidFormatText || last.Align != "center" {
		t.Fatalf("无效条码应显示提示文字: %+v", last)
	}
}

func TestBuildWithoutRecords(t *testing.T) {
	res := build(t, Input{Paper: paper(), Elements: []element.Element{textElement("a", "x")}}, BuildOptions{})
	if len(res.Pages) != 1 || res.Pages[0].Record != "" {
		t.Fatalf("无记录时应输出一页: %+v", res.Pages)
	}
	if _, ok := res.Resources.Fonts[fonts.Regular]; !ok {
		t.Fatalf("应登记常规字体: %+v", res.Resources.Fonts)
	}
	if _, err := Build(Input{}, BuildOptions{}); err == nil {
		t.Fatalf("纸张尺寸为零应报错")
	}
}

func TestBarcodeCacheSharedAcrossPages(t *testing.T) {
	codec := udi.NewCodec()
	rec := Record{Values: binding.Values{"fldUDI": validUDI}}
	res := build(t, Input{
		Paper:    paper(),
		Elements: []element.Element{udiElement("code", "fldUDI")},
		Records:  []Record{rec, rec, rec},
	}, BuildOptions{Codec: codec})

	first := res.Pages[0].Barcodes[0].Symbol
	for _, p := range res.Pages[1:] {
		if p.Barcodes[0].Symbol != first {
			t.Fatalf("相同内容应复用缓存中的符号")
		}
	}
	if codec.Cache().Len() != 1 {
		t.Fatalf("缓存条目应为 1，实际 %d", codec.Cache().Len())
	}
}

// TestTextBoxTotalHeightInvariant 断言：TextBox.Height == Σ(line.Height + line.GapBefore)。
func TestTextBoxTotalHeightInvariant(t *testing.T) {
	el := textElement("long", "aa bb cc dd")
	el.Styles.FontWeight = "bold"
	el.Styles.TextAlign = "end"
	el.Rotate = 90
	res := build(t, Input{Paper: paper(), Elements: []element.Element{el}}, BuildOptions{Typesetter: &stubTypesetter{}})

	tb := res.Pages[0].Texts[0]
	if len(tb.Lines) != 4 {
		t.Fatalf("期望 4 行，实际 %d", len(tb.Lines))
	}
	sum := 0.0
	for i, ln := range tb.Lines {
		if i == 0 && ln.GapBefore != 0 {
			t.Fatalf("首行不应有行前间距")
		}
		sum += ln.Height + ln.GapBefore
	}
	if !eq(sum, tb.Height) {
		t.Fatalf("高度不一致: sum=%g height=%g", sum, tb.Height)
	}
	if tb.Font != fonts.Bold || tb.Align != "right" || tb.Rotate != 90 {
		t.Fatalf("字重/对齐/旋转未生效: %+v", tb)
	}
	if !eq(tb.FontSize, Px(14).ToMM()) {
		t.Fatalf("字号换算错误: %g", tb.FontSize)
	}
}

func TestMonoFamilyRegistersMonoFont(t *testing.T) {
	el := textElement("sn", "SN 10987654")
	el.Styles.FontFamily = "mono"
	res := build(t, Input{Paper: paper(), Elements: []element.Element{el}}, BuildOptions{Typesetter: &stubTypesetter{}})

	tb := res.Pages[0].Texts[0]
	if tb.Font != fonts.Mono {
		t.Fatalf("fontFamily mono 应使用等宽字体，实际 %q", tb.Font)
	}
	if _, ok := res.Resources.Fonts[fonts.Mono]; !ok {
		t.Fatalf("等宽字体未登记到资源表: %+v", res.Resources.Fonts)
	}
}

// TestDebugRawUnitsOutput 验证在开启 Debug.RawUnits 后，JSON 里会输出 debug.rawUnits。
func TestDebugRawUnitsOutput(t *testing.T) {
	res := build(t, Input{Paper: paper(), Elements: []element.Element{textElement("a", "x")}},
		BuildOptions{Debug: DebugOptions{RawUnits: true}})

	path := filepath.Join(t.TempDir(), "layout.json")
	if err := WriteDebugJSON(res, path); err != nil {
		t.Fatalf("写入调试 JSON 失败: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("读取调试 JSON 失败: %v", err)
	}
	var decoded Result
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("调试 JSON 无法解析: %v", err)
	}
	raw := decoded.Pages[0].Texts[0].Debug.RawUnits
	if raw.FontSize.Unit != "px" || raw.FontSize.Value != 14 {
		t.Fatalf("字号应为 14px，实际: %#v", raw.FontSize)
	}
	if raw.LineHeight.Kind != "factor" || raw.LineHeight.Factor != defaultLineFactor {
		t.Fatalf("行高应为 factor 语义，实际: %#v", raw.LineHeight)
	}
}

func TestAlignOffset(t *testing.T) {
	if !eq(AlignOffset(10, 4, "center"), 3) || !eq(AlignOffset(10, 4, "right"), 6) || AlignOffset(10, 4, "") != 0 {
		t.Fatalf("对齐偏移计算错误")
	}
	if AlignOffset(4, 10, "right") != 0 {
		t.Fatalf("内容超宽时不应偏移")
	}
}
