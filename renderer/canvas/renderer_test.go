package canvasrenderer

import (
	"bytes"
	"math"
	"testing"

	"github.com/ByLCY/papyrus-label/binding"
	"github.com/ByLCY/papyrus-label/config"
	"github.com/ByLCY/papyrus-label/element"
	"github.com/ByLCY/papyrus-label/fonts"
	"github.com/ByLCY/papyrus-label/layout"
)

var bodyFont = layout.FontResource{Name: fonts.Regular, Src: "embed:" + fonts.Regular}

func TestLayoutLinesGreedyWrapsText(t *testing.T) {
	r := NewRenderer()

	// 这里的宽度/字号/行高均为 mm
	fontSizeMM := 12 * layout.PtToMm
	lineHeightMM := fontSizeMM * 1.2

	lines, err := r.LayoutLines("hello world again", 10, bodyFont, fontSizeMM, lineHeightMM)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(lines) < 2 {
		t.Fatalf("expected wrapping into multiple lines, got %d", len(lines))
	}
}

func TestGreedyWrapHonorsNewlines(t *testing.T) {
	r := NewRenderer()
	fontSizeMM := 12 * layout.PtToMm

	lines, err := r.LayoutLines("foo\n\nbar", 100, bodyFont, fontSizeMM, fontSizeMM*1.2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines including blank, got %d", len(lines))
	}
	if lines[1].Content != "" {
		t.Fatalf("expected middle line to be blank, got %q", lines[1].Content)
	}
}

// TestLineHeightsInvariant 验证：首行 GapBefore == 0；其余行 GapBefore ≈ max(lineHeight - textHeight, 0)。
func TestLineHeightsInvariant(t *testing.T) {
	r := NewRenderer()
	fontSizeMM := 12 * layout.PtToMm
	lineHeightMM := fontSizeMM * 1.3

	content := "longlonglong longlonglong longlonglong longlonglong longlonglong"
	lines, err := r.LayoutLines(content, 40, bodyFont, fontSizeMM, lineHeightMM)
	if err != nil {
		t.Fatalf("LayoutLines error: %v", err)
	}
	if len(lines) < 2 {
		t.Fatalf("expected multiple lines for height check, got %d", len(lines))
	}

	textHeight := lines[0].Height
	if textHeight <= 0 {
		t.Fatalf("invalid text height: %g", textHeight)
	}
	wantLeading := math.Max(lineHeightMM-textHeight, 0)
	if lines[0].GapBefore != 0 {
		t.Fatalf("first line GapBefore must be 0, got %g", lines[0].GapBefore)
	}
	const eps = 1e-6
	for i := 1; i < len(lines); i++ {
		if diff := math.Abs(lines[i].GapBefore - wantLeading); diff > eps {
			t.Fatalf("line %d GapBefore mismatch: got=%g want=%g", i, lines[i].GapBefore, wantLeading)
		}
		if diff := math.Abs(lines[i].Height - textHeight); diff > eps {
			t.Fatalf("line %d Height mismatch: got=%g want=%g", i, lines[i].Height, textHeight)
		}
	}
}

// TestGreedyWrapWidthLimit 验证每行宽度不超过限制（mm）。
func TestGreedyWrapWidthLimit(t *testing.T) {
	r := NewRenderer()
	fontSizeMM := 12 * layout.PtToMm

	limit := 30.0
	content := "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	lines, err := r.LayoutLines(content, limit, bodyFont, fontSizeMM, fontSizeMM*1.2)
	if err != nil {
		t.Fatalf("LayoutLines error: %v", err)
	}
	if len(lines) < 2 {
		t.Fatalf("expected long token to be split, got %d lines", len(lines))
	}
	for i, ln := range lines {
		if ln.Width-limit > 1e-6 {
			t.Fatalf("line %d width exceeds limit: width=%g limit=%g", i, ln.Width, limit)
		}
	}
}

func TestUnknownFontFallsBack(t *testing.T) {
	r := NewRenderer()
	font := layout.FontResource{Name: "missing", Src: "embed:missing"}
	if _, err := r.LayoutLines("abc", 50, font, 4, 5); err != nil {
		t.Fatalf("unknown font should fall back, got %v", err)
	}
}

func TestInjectedFontOverridesBuiltin(t *testing.T) {
	mono, err := fonts.Load(fonts.Mono)
	if err != nil {
		t.Fatalf("load mono: %v", err)
	}
	injected := NewRendererWithOptions(Options{Fonts: map[string]Resource{fonts.Regular: {Bytes: mono}}})
	plain := NewRenderer()

	// 等宽字体中 "iiii" 与 "MMMM" 同宽，常规字体中不同。
	a, _ := injected.LayoutLines("iiii", 0, bodyFont, 4, 5)
	b, _ := injected.LayoutLines("MMMM", 0, bodyFont, 4, 5)
	if math.Abs(a[0].Width-b[0].Width) > 1e-6 {
		t.Fatalf("injected mono font not used: %g vs %g", a[0].Width, b[0].Width)
	}
	c, _ := plain.LayoutLines("iiii", 0, bodyFont, 4, 5)
	d, _ := plain.LayoutLines("MMMM", 0, bodyFont, 4, 5)
	if math.Abs(c[0].Width-d[0].Width) < 1e-6 {
		t.Fatalf("regular font should be proportional")
	}
}

func sampleResult(t *testing.T, r *Renderer) *layout.Result {
	t.Helper()
	text := element.Defaults(element.KindText)
	text.UUID, text.SourceType, text.Content, text.Rotate = "t", element.SourceBase, "LOT ${fldLot}", 90
	code := element.Defaults(element.KindUDI)
	code.UUID, code.SourceType, code.FieldID = "c", element.SourceTable, "fldUDI"
	code.Styles.Top = 40

	res, err := layout.Build(layout.Input{
		Title:    "label",
		Paper:    config.PaperConfig{Width: 100, Height: 70},
		Elements: []element.Element{text, code},
		Records: []layout.Record{
			{ID: "ok", Values: binding.Values{"fldLot": "A1", "fldUDI": "(01)00844588003288(17)141120(10)7654321D(21)10987654d321"}},
			{ID: "bad", Values: binding.Values{"fldLot": "B2", "fldUDI": "nope"}},
		},
	}, layout.BuildOptions{Typesetter: r})
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	return res
}

func TestRenderPDF(t *testing.T) {
	r := NewRenderer()
	pdf, err := r.Render(sampleResult(t, r))
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if !bytes.HasPrefix(pdf, []byte("%PDF")) {
		t.Fatalf("output is not a PDF")
	}
	if _, err := r.Render(&layout.Result{}); err == nil {
		t.Fatalf("empty result should fail")
	}
}

func TestRenderPageSVG(t *testing.T) {
	r := NewRenderer()
	res := sampleResult(t, r)
	for _, page := range res.Pages {
		out, err := r.RenderPageSVG(page, res.Resources)
		if err != nil {
			t.Fatalf("render svg failed: %v", err)
		}
		if !bytes.Contains(out, []byte("<svg")) {
			t.Fatalf("output is not svg")
		}
	}
}
