package dsl

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/ByLCY/papyrus-label/config"
	"github.com/ByLCY/papyrus-label/element"
	"github.com/ByLCY/papyrus-label/layout"
)

// ErrTemplate marks semantic errors in a parsed template.
var ErrTemplate = errors.New("dsl: invalid template")

var colorPattern = regexp.MustCompile(`^#(?:[0-9A-Fa-f]{8}|[0-9A-Fa-f]{6}|[0-9A-Fa-f]{3})$`)

// Label is a compiled template: paper plus elements in declaration order.
type Label struct {
	Name     string
	Paper    config.PaperConfig
	Elements []element.Element
}

// Compile resolves a parsed template. paper supplies defaults for keys the template omits.
func Compile(tpl *Template, paper config.PaperConfig) (*Label, error) {
	if tpl == nil {
		return nil, fmt.Errorf("%w: empty template", ErrTemplate)
	}
	out := &Label{Name: string(tpl.Name), Paper: paper}
	seen := map[string]bool{}
	for _, item := range tpl.Items {
		switch {
		case item.Paper != nil:
			if err := compilePaper(item.Paper, &out.Paper); err != nil {
				return nil, err
			}
		case item.Element != nil:
			el, err := compileElement(item.Element)
			if err != nil {
				return nil, err
			}
			if seen[el.UUID] {
				return nil, fmt.Errorf("%w: %s: duplicate element %q", ErrTemplate, item.Element.Pos, el.UUID)
			}
			seen[el.UUID] = true
			out.Elements = append(out.Elements, el)
		}
	}
	if out.Paper.Width <= 0 || out.Paper.Height <= 0 {
		return nil, fmt.Errorf("%w: paper size must be positive", ErrTemplate)
	}
	return out, nil
}

// CompileString parses and compiles in one step.
func CompileString(input string, paper config.PaperConfig) (*Label, error) {
	tpl, err := ParseString(input)
	if err != nil {
		return nil, err
	}
	return Compile(tpl, paper)
}

// Split separates elements into the Base and Table collections, keeping order.
func (l *Label) Split() (base, table []element.Element) {
	for _, el := range l.Elements {
		if el.Bound() {
			table = append(table, el)
		} else {
			base = append(base, el)
		}
	}
	return base, table
}

func compilePaper(block *PaperBlock, paper *config.PaperConfig) error {
	for _, p := range block.Props {
		var err error
		switch p.Key {
		case "name":
			paper.Name = p.Value.Text()
		case "width":
			paper.Width, err = parseMM(p.Value.Text())
		case "height":
			paper.Height, err = parseMM(p.Value.Text())
		default:
			err = fmt.Errorf("unknown paper property %q", p.Key)
		}
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrTemplate, p.Pos, err)
		}
	}
	return nil
}

func compileElement(decl *ElementDecl) (element.Element, error) {
	kind := element.Kind(decl.Kind)
	el := element.Defaults(kind)
	el.UUID = string(decl.ID)
	el.SourceType = element.SourceBase

	for _, p := range decl.Props {
		if err := applyProperty(&el, p); err != nil {
			return element.Element{}, fmt.Errorf("%w: %s: %v", ErrTemplate, p.Pos, err)
		}
	}
	if err := el.Validate(); err != nil {
		return element.Element{}, fmt.Errorf("%s: %w", decl.Pos, err)
	}
	return el, nil
}

func applyProperty(el *element.Element, p *Property) error {
	raw := p.Value.Text()
	var err error
	switch p.Key {
	case "source":
		el.SourceType = element.SourceType(raw)
		if !el.SourceType.Valid() {
			return fmt.Errorf("unknown source %q", raw)
		}
	case "content":
		el.Content = raw
	case "field":
		el.FieldID = raw
	case "fieldType":
		el.FieldType, err = strconv.Atoi(raw)
	case "left":
		el.Styles.Left, err = element.ParseDimension(raw)
	case "top":
		el.Styles.Top, err = element.ParseDimension(raw)
	case "width":
		el.Styles.Width, err = element.ParseDimension(raw)
	case "height":
		el.Styles.Height, err = element.ParseDimension(raw)
	case "fontSize":
		el.Styles.FontSize, err = element.ParseDimension(raw)
	case "fontFamily":
		el.Styles.FontFamily = raw
	case "fontWeight":
		el.Styles.FontWeight = raw
	case "align", "textAlign":
		el.Styles.TextAlign = raw
	case "color":
		el.Styles.Color = raw
	case "rotate":
		el.Rotate, err = strconv.ParseFloat(raw, 64)
	default:
		return fmt.Errorf("unknown property %q", p.Key)
	}
	return err
}

// parseMM 解析纸张尺寸：无单位时按毫米处理。
func parseMM(raw string) (float64, error) {
	l, err := layout.ParseLength(raw)
	if err != nil {
		return 0, err
	}
	return l.ToMM(), nil
}

// Write serialises a label back into template syntax that Compile accepts.
// Every property is written, so compiling the output does not fall back to element defaults.
func Write(w io.Writer, l *Label) error {
	var b strings.Builder
	fmt.Fprintf(&b, "label %s {\n", quoteName(l.Name))
	fmt.Fprintf(&b, "  paper { name: %s width: %smm height: %smm }\n",
		strconv.Quote(l.Paper.Name), formatFloat(l.Paper.Width), formatFloat(l.Paper.Height))
	for _, el := range l.Elements {
		fmt.Fprintf(&b, "\n  %s %s {\n", el.Type, quoteName(el.UUID))
		fmt.Fprintf(&b, "    source: %s\n", el.SourceType)
		fmt.Fprintf(&b, "    content: %s\n", strconv.Quote(el.Content))
		fmt.Fprintf(&b, "    field: %s fieldType: %d\n", strconv.Quote(el.FieldID), el.FieldType)
		fmt.Fprintf(&b, "    left: %s top: %s width: %s height: %s rotate: %s\n",
			formatDim(el.Styles.Left), formatDim(el.Styles.Top), formatDim(el.Styles.Width), formatDim(el.Styles.Height),
			formatFloat(el.Rotate))
		fmt.Fprintf(&b, "    fontSize: %s fontFamily: %s fontWeight: %s align: %s color: %s\n",
			formatDim(el.Styles.FontSize), strconv.Quote(el.Styles.FontFamily), strconv.Quote(el.Styles.FontWeight),
			strconv.Quote(el.Styles.TextAlign), formatColor(el.Styles.Color))
		b.WriteString("  }\n")
	}
	b.WriteString("}\n")
	_, err := io.WriteString(w, b.String())
	return err
}

func quoteName(s string) string {
	if identPattern.MatchString(s) && s != "label" && s != "paper" && s != "text" && s != "udi" {
		return s
	}
	return strconv.Quote(s)
}

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_-]*$`)

func formatColor(c string) string {
	if colorPattern.MatchString(c) {
		return c
	}
	return strconv.Quote(c)
}

func formatDim(d element.Dimension) string { return formatFloat(float64(d)) }

func formatFloat(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }
