package layout

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/ByLCY/papyrus-label/binding"
	"github.com/ByLCY/papyrus-label/config"
	"github.com/ByLCY/papyrus-label/element"
	"github.com/ByLCY/papyrus-label/fonts"
	"github.com/ByLCY/papyrus-label/udi"
)

const (
	defaultLineFactor = 1.4
	defaultFontSizePx = 14
	placeholderSizePx = 12
)

var (
	defaultTextColor  = Color{R: 30, G: 30, B: 30}
	placeholderFill   = Color{R: 245, G: 245, B: 245}
	placeholderStroke = Color{R: 153, G: 153, B: 153}
)

// Record 是一条待打印的数据行。
type Record struct {
	ID     string
	Values binding.Values
}

// Input 描述一次排版：纸张、按图层顺序排列的元素，以及逐页套用的记录。
type Input struct {
	Title    string
	Paper    config.PaperConfig
	Elements []element.Element
	Records  []Record // 为空时只输出一页，绑定元素内容为空
}

// Build 为每条记录生成一页标签。元素坐标由 px 换算为 mm，条码经 Codec 生成并复用缓存。
func Build(in Input, opts BuildOptions) (*Result, error) {
	if in.Paper.Width <= 0 || in.Paper.Height <= 0 {
		return nil, fmt.Errorf("纸张尺寸无效: %gx%g mm", in.Paper.Width, in.Paper.Height)
	}
	codec := opts.Codec
	if codec == nil {
		codec = udi.NewCodec()
	}

	res := &Result{
		Resources: ResourceSet{Fonts: map[string]FontResource{}},
		Meta: DocumentMeta{
			Title:   in.Title,
			Creator: "papyrus-label",
		},
	}

	records := in.Records
	if len(records) == 0 {
		records = []Record{{}}
	}
	for _, rec := range records {
		page := Page{Width: in.Paper.Width, Height: in.Paper.Height, Record: rec.ID}
		for _, el := range in.Elements {
			var err error
			switch el.Type {
			case element.KindUDI:
				placeBarcode(&page, el, binding.Content(el, rec.Values), codec, opts.Scale)
			default:
				err = placeText(&page, el, binding.Content(el, rec.Values), res.Resources, opts)
			}
			if err != nil {
				return nil, fmt.Errorf("排版元素 %s 失败: %w", el.UUID, err)
			}
		}
		res.Pages = append(res.Pages, page)
	}
	return res, nil
}

// placeText 将文本元素排入页面。
func placeText(page *Page, el element.Element, content string, res ResourceSet, opts BuildOptions) error {
	x, y := el.Styles.Left.ToMM(), el.Styles.Top.ToMM()
	tb, err := composeTextBox(el, content, x, y, el.Styles.Width.ToMM(), res, opts.Typesetter, opts.Debug)
	if err != nil {
		return err
	}
	tb.Box = el.Styles.Height.ToMM()
	page.Texts = append(page.Texts, tb)
	return nil
}

// placeBarcode 放置条码；内容无效时改为灰底占位框与提示文字，生成失败时只留空框。
func placeBarcode(page *Page, el element.Element, content string, codec *udi.Codec, scale float64) {
	x, y := el.Styles.Left.ToMM(), el.Styles.Top.ToMM()
	w, h := el.Styles.Width.ToMM(), el.Styles.Height.ToMM()
	preview := codec.Preview(content, float64(el.Styles.Width), float64(el.Styles.Height), scale, el.Styles.Color)

	box := BarcodeBox{
		Element: el.UUID,
		X:       x,
		Y:       y,
		Width:   w,
		Height:  h,
		Rotate:  el.Rotate,
		Content: content,
		State:   preview.State,
		Symbol:  preview.Symbol,
	}
	if box.Symbol != nil && (w <= 0 || h <= 0) {
		box.Width = box.Symbol.Width * PxToMm
		box.Height = box.Symbol.Height * PxToMm
	}
	page.Barcodes = append(page.Barcodes, box)

	switch preview.State {
	case udi.StateInvalid:
		fill := placeholderFill
		page.Rects = append(page.Rects, Rect{
			X: x, Y: y, Width: w, Height: h, Rotate: el.Rotate,
			StrokeColor: placeholderStroke, StrokeWidth: 0.2, FillColor: &fill,
		})
		size := Px(placeholderSizePx).ToMM()
		lines := []TextLine{{Content: udi.InvalidFormatText, Width: w, Height: size}}
		page.Texts = append(page.Texts, TextBox{
			Element:    el.UUID,
			Content:    udi.InvalidFormatText,
			X:          x,
			Y:          y + math.Max(h-size, 0)/2,
			Width:      w,
			LineHeight: size * defaultLineFactor,
			Font:       fonts.Regular,
			FontSize:   size,
			Color:      placeholderStroke,
			Lines:      lines,
			Height:     size,
			Align:      "center",
			Rotate:     el.Rotate,
			Box:        size,
		})
	case udi.StateEmpty:
		page.Rects = append(page.Rects, Rect{
			X: x, Y: y, Width: w, Height: h, Rotate: el.Rotate,
			StrokeColor: placeholderStroke, StrokeWidth: 0.2,
		})
	}
}

func composeTextBox(el element.Element, content string, x, y, width float64, res ResourceSet, ts Typesetter, debug DebugOptions) (TextBox, error) {
	fontName := fonts.ForStyle(el.Styles.FontFamily, el.Styles.FontWeight)
	fontRes := registerFont(res, fontName)

	sizePx := el.Styles.FontSize
	if sizePx <= 0 {
		sizePx = defaultFontSizePx
	}
	size := Px(sizePx)
	spec := LineHeightSpec{Kind: LineHeightFactor, Factor: defaultLineFactor}
	fontSize := size.ToMM()
	lineHeight := spec.Resolve(size, UnitMM)

	lines, err := layoutLines(content, width, fontRes, fontSize, lineHeight, ts)
	if err != nil {
		return TextBox{}, err
	}

	totalHeight := 0.0
	defaultLeading := math.Max(lineHeight-fontSize, 0)
	for i := range lines {
		if lines[i].Height <= 0 {
			lines[i].Height = fontSize
		}
		if i == 0 {
			lines[i].GapBefore = 0
		} else if lines[i].GapBefore <= 0 {
			lines[i].GapBefore = defaultLeading
		}
		totalHeight += lines[i].GapBefore + lines[i].Height
	}

	tb := TextBox{
		Element:    el.UUID,
		Content:    content,
		X:          x,
		Y:          y,
		Width:      width,
		LineHeight: lineHeight,
		Font:       fontName,
		FontSize:   fontSize,
		Color:      resolveColor(el.Styles.Color),
		Lines:      lines,
		Height:     totalHeight,
		Align:      normalizeAlign(el.Styles.TextAlign),
		Rotate:     el.Rotate,
	}
	if debug.RawUnits {
		tb.Debug = &TextBoxDebug{RawUnits: &RawUnits{
			FontSize:   &RawLengthJSON{Value: size.Value, Unit: UnitToString(size.Unit)},
			LineHeight: &RawLineHeightJSON{Kind: "factor", Factor: spec.Factor},
		}}
	}
	return tb, nil
}

// registerFont 在资源表中登记内置字体并返回其描述。
func registerFont(res ResourceSet, name string) FontResource {
	if font, ok := res.Fonts[name]; ok {
		return font
	}
	font := FontResource{Name: name, Src: "embed:" + name, Family: name, IsBuiltin: true}
	if res.Fonts != nil {
		res.Fonts[name] = font
	}
	return font
}

func layoutLines(content string, width float64, font FontResource, fontSize, lineHeight float64, ts Typesetter) ([]TextLine, error) {
	if ts == nil {
		parts := strings.Split(content, "\n")
		out := make([]TextLine, 0, len(parts))
		leading := math.Max(lineHeight-fontSize, 0)
		for _, l := range parts {
			out = append(out, TextLine{
				Content:   l,
				Width:     width,
				Height:    fontSize,
				GapBefore: leading,
			})
		}
		out[0].GapBefore = 0
		return out, nil
	}
	lines, err := ts.LayoutLines(content, width, font, fontSize, lineHeight)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		lines = []TextLine{{Content: "", Width: width, Height: fontSize}}
	}
	lines[0].GapBefore = 0
	return lines, nil
}

// normalizeAlign 支持 start/end 别名，默认 left（省略时不写入 JSON）。
func normalizeAlign(v string) string {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "center", "middle":
		return "center"
	case "right", "end":
		return "right"
	default:
		return ""
	}
}

func resolveColor(value string) Color {
	if strings.HasPrefix(value, "#") {
		if c, err := parseColor(value); err == nil {
			return c
		}
	}
	return defaultTextColor
}

func parseColor(value string) (Color, error) {
	value = strings.TrimPrefix(value, "#")
	switch len(value) {
	case 3:
		return Color{
			R: mustHex(strings.Repeat(value[0:1], 2)),
			G: mustHex(strings.Repeat(value[1:2], 2)),
			B: mustHex(strings.Repeat(value[2:3], 2)),
		}, nil
	case 6, 8:
		return Color{
			R: mustHex(value[0:2]),
			G: mustHex(value[2:4]),
			B: mustHex(value[4:6]),
		}, nil
	default:
		return Color{}, fmt.Errorf("颜色值 %s 无法解析", value)
	}
}

func mustHex(s string) int {
	v, _ := strconv.ParseInt(s, 16, 64)
	return int(v)
}

// AlignOffset 返回行在容器内的水平偏移。
func AlignOffset(container, width float64, align string) float64 {
	if container <= width {
		return 0
	}
	switch align {
	case "center":
		return (container - width) / 2
	case "right":
		return container - width
	default:
		return 0
	}
}
