package preview

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/golang/freetype/truetype"
	"github.com/stretchr/testify/require"

	"github.com/ByLCY/papyrus-label/binding"
	"github.com/ByLCY/papyrus-label/config"
	"github.com/ByLCY/papyrus-label/element"
	"github.com/ByLCY/papyrus-label/fonts"
	"github.com/ByLCY/papyrus-label/layout"
)

const validUDI = "(01)00844588003288(17)141120(10)7654321D(21)10987654d321"

func buildResult(t *testing.T, values ...binding.Values) *layout.Result {
	t.Helper()
	code := element.Defaults(element.KindUDI)
	code.UUID, code.SourceType, code.FieldID = "code", element.SourceTable, "fldUDI"
	code.Styles.Left = element.Dimension(10 * element.PxPerMm)
	code.Styles.Top = element.Dimension(10 * element.PxPerMm)
	code.Styles.Width = element.Dimension(30 * element.PxPerMm)
	code.Styles.Height = element.Dimension(30 * element.PxPerMm)

	title := element.Defaults(element.KindText)
	title.UUID, title.SourceType, title.Content = "title", element.SourceBase, "LOT"

	var records []layout.Record
	for _, v := range values {
		records = append(records, layout.Record{Values: v})
	}
	res, err := layout.Build(layout.Input{
		Paper:    config.PaperConfig{Width: 50, Height: 50},
		Elements: []element.Element{title, code},
		Records:  records,
	}, layout.BuildOptions{})
	require.NoError(t, err)
	return res
}

func darkPixels(t *testing.T, r *Renderer, page layout.Page, x0, y0, x1, y1 int) int {
	t.Helper()
	img, err := r.RenderPage(page)
	require.NoError(t, err)
	n := 0
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			cr, cg, cb, _ := img.At(x, y).RGBA()
			if cr+cg+cb < 3*0x4000 {
				n++
			}
		}
	}
	return n
}

func TestRenderPageDrawsBarcode(t *testing.T) {
	r := New(4)
	res := buildResult(t, binding.Values{"fldUDI": validUDI})
	page := res.Pages[0]

	img, err := r.RenderPage(page)
	require.NoError(t, err)
	assert.Equal(t, 200, img.Bounds().Dx())
	assert.Equal(t, 200, img.Bounds().Dy())

	// 条码区域 (10mm..40mm) 内应有深色模块，右下角保持空白。
	assert.Positive(t, darkPixels(t, r, page, 40, 40, 160, 160))
	assert.Zero(t, darkPixels(t, r, page, 170, 170, 200, 200))
}

func TestInvalidBarcodeLeavesNoModules(t *testing.T) {
	r := New(4)
	res := buildResult(t, binding.Values{"fldUDI": "invalid"})
	page := res.Pages[0]
	require.Len(t, page.Rects, 1)
	// 占位框为浅灰底，框内不应出现大片深色模块。
	assert.Less(t, darkPixels(t, r, page, 44, 44, 156, 156), 112*112/4)
}

func TestRenderStacksPages(t *testing.T) {
	r := New(2)
	res := buildResult(t, binding.Values{"fldUDI": validUDI}, binding.Values{"fldUDI": validUDI})

	data, err := r.Render(res)
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 100, img.Bounds().Dx())
	assert.Equal(t, (50+pageGap+50)*2, img.Bounds().Dy())

	var buf bytes.Buffer
	require.NoError(t, r.EncodePNG(&buf, res.Pages[0]))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")))

	_, err = r.Render(&layout.Result{})
	assert.Error(t, err)
}

func TestInjectedFontReplacesBuiltin(t *testing.T) {
	mono, err := fonts.Load(fonts.Mono)
	require.NoError(t, err)

	plain, err := New(4).font(fonts.Regular)
	require.NoError(t, err)
	assert.NotContains(t, plain.Name(truetype.NameIDFontFullName), "Mono")

	injected, err := New(4, WithFonts(map[string][]byte{fonts.Regular: mono})).font(fonts.Regular)
	require.NoError(t, err)
	assert.Contains(t, injected.Name(truetype.NameIDFontFullName), "Mono")
}
