// Package preview 将布局结果栅格化为 PNG，供设计器画布缩略图与打印前预览使用。
package preview

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"io"
	"math"
	"sync"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/rasterizer"
	"golang.org/x/image/font"

	"github.com/ByLCY/papyrus-label/fonts"
	"github.com/ByLCY/papyrus-label/layout"
	"github.com/ByLCY/papyrus-label/renderer"
	"github.com/ByLCY/papyrus-label/udi"
)

// DefaultDPMM 对应 203dpi 的热敏标签打印机。
const DefaultDPMM = 8.0

const pageGap = 4 // 多页拼接时的页间距（mm）

var _ renderer.Renderer = (*Renderer)(nil)

// Renderer 使用 gg 绘制文本与占位框，条码经 canvas 栅格化后贴图。
type Renderer struct {
	dpmm      float64
	fontBlobs map[string][]byte

	mu    sync.Mutex
	fonts map[string]*truetype.Font
}

// Option 配置预览渲染器。
type Option func(*Renderer)

// WithFonts 按内置字体名注入替换字体，与 PDF 渲染器使用同一组字体。
func WithFonts(blobs map[string][]byte) Option {
	return func(r *Renderer) {
		for name, data := range blobs {
			if len(data) > 0 {
				r.fontBlobs[name] = data
			}
		}
	}
}

// New 创建分辨率为 dpmm（像素/毫米）的预览渲染器，非正值使用 DefaultDPMM。
func New(dpmm float64, opts ...Option) *Renderer {
	if dpmm <= 0 {
		dpmm = DefaultDPMM
	}
	r := &Renderer{dpmm: dpmm, fontBlobs: map[string][]byte{}, fonts: map[string]*truetype.Font{}}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RenderPage 将单页绘制为图像。
func (r *Renderer) RenderPage(page layout.Page) (image.Image, error) {
	dc := gg.NewContext(r.px(page.Width), r.px(page.Height))
	dc.SetColor(color.White)
	dc.Clear()
	if err := r.drawPage(dc, page, 0); err != nil {
		return nil, err
	}
	return dc.Image(), nil
}

// EncodePNG 将单页以 PNG 写入 w。
func (r *Renderer) EncodePNG(w io.Writer, page layout.Page) error {
	dc := gg.NewContext(r.px(page.Width), r.px(page.Height))
	dc.SetColor(color.White)
	dc.Clear()
	if err := r.drawPage(dc, page, 0); err != nil {
		return err
	}
	return dc.EncodePNG(w)
}

// Render 将所有页面纵向拼接为一张 PNG。
func (r *Renderer) Render(result *layout.Result) ([]byte, error) {
	if result == nil || len(result.Pages) == 0 {
		return nil, fmt.Errorf("缺少可渲染的页面")
	}
	width, height := 0.0, 0.0
	for i, p := range result.Pages {
		width = math.Max(width, p.Width)
		height += p.Height
		if i > 0 {
			height += pageGap
		}
	}

	dc := gg.NewContext(r.px(width), r.px(height))
	dc.SetColor(color.RGBA{0xdd, 0xdd, 0xdd, 0xff})
	dc.Clear()
	offset := 0.0
	for _, p := range result.Pages {
		dc.SetColor(color.White)
		dc.DrawRectangle(0, offset*r.dpmm, p.Width*r.dpmm, p.Height*r.dpmm)
		dc.Fill()
		if err := r.drawPage(dc, p, offset); err != nil {
			return nil, err
		}
		offset += p.Height + pageGap
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("编码 PNG 失败: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) px(mm float64) int { return int(math.Ceil(mm * r.dpmm)) }

// drawPage 与 PDF 渲染保持相同的绘制顺序；offsetY 以 mm 计。
func (r *Renderer) drawPage(dc *gg.Context, page layout.Page, offsetY float64) error {
	for _, rc := range page.Rects {
		r.drawRect(dc, rc, offsetY)
	}
	for _, tb := range page.Texts {
		if err := r.drawText(dc, tb, offsetY); err != nil {
			return err
		}
	}
	for _, box := range page.Barcodes {
		r.drawBarcode(dc, box, offsetY)
	}
	return nil
}

// at 将页面 mm 坐标换算为图像像素坐标。
func (r *Renderer) at(x, y, offsetY float64) (float64, float64) {
	return x * r.dpmm, (y + offsetY) * r.dpmm
}

func rotateAbout(dc *gg.Context, deg, cx, cy float64) {
	if deg != 0 {
		dc.RotateAbout(gg.Radians(deg), cx, cy)
	}
}

func (r *Renderer) drawRect(dc *gg.Context, rc layout.Rect, offsetY float64) {
	x, y := r.at(rc.X, rc.Y, offsetY)
	w, h := rc.Width*r.dpmm, rc.Height*r.dpmm

	dc.Push()
	defer dc.Pop()
	rotateAbout(dc, rc.Rotate, x+w/2, y+h/2)
	dc.DrawRectangle(x, y, w, h)
	if rc.FillColor != nil {
		dc.SetColor(toRGBA(*rc.FillColor))
		dc.FillPreserve()
	}
	dc.SetColor(toRGBA(rc.StrokeColor))
	dc.SetLineWidth(math.Max(rc.StrokeWidth*r.dpmm, 1))
	dc.Stroke()
}

func (r *Renderer) drawText(dc *gg.Context, tb layout.TextBox, offsetY float64) error {
	ttf, err := r.font(tb.Font)
	if err != nil {
		return err
	}
	// 72dpi 下 Size 即像素高度。
	face := truetype.NewFace(ttf, &truetype.Options{Size: tb.FontSize * r.dpmm, DPI: 72, Hinting: font.HintingFull})
	defer face.Close()

	x, y := r.at(tb.X, tb.Y, offsetY)
	w := tb.Width * r.dpmm
	box := tb.Box
	if box <= 0 {
		box = tb.Height
	}

	dc.Push()
	defer dc.Pop()
	dc.SetFontFace(face)
	dc.SetColor(toRGBA(tb.Color))
	rotateAbout(dc, tb.Rotate, x+w/2, y+box*r.dpmm/2)

	anchorX, ax := x, 0.0
	switch tb.Align {
	case "center":
		anchorX, ax = x+w/2, 0.5
	case "right":
		anchorX, ax = x+w, 1
	}
	for _, line := range tb.Lines {
		y += line.GapBefore * r.dpmm
		dc.DrawStringAnchored(line.Content, anchorX, y, ax, 1)
		y += line.Height * r.dpmm
	}
	return nil
}

// drawBarcode 将符号路径按框尺寸栅格化后贴到页面上。
func (r *Renderer) drawBarcode(dc *gg.Context, box layout.BarcodeBox, offsetY float64) {
	sym := box.Symbol
	if box.State != udi.StateOK || sym == nil || sym.Path == nil || sym.Width <= 0 || sym.Height <= 0 {
		return
	}
	c := canvas.New(box.Width, box.Height)
	ctx := canvas.NewContext(c)
	ctx.SetCoordSystem(canvas.CartesianIV)
	scale := math.Min(box.Width/sym.Width, box.Height/sym.Height)
	ctx.SetFillColor(sym.Fill())
	ctx.SetStrokeColor(color.RGBA{0, 0, 0, 0})
	ctx.DrawPath(0, 0, sym.Path.Copy().Transform(canvas.Identity.Scale(scale, scale)))
	img := rasterizer.Draw(c, canvas.DPMM(r.dpmm), canvas.DefaultColorSpace)

	x, y := r.at(box.X, box.Y, offsetY)
	w, h := box.Width*r.dpmm, box.Height*r.dpmm
	dc.Push()
	defer dc.Pop()
	rotateAbout(dc, box.Rotate, x+w/2, y+h/2)
	dc.DrawImage(img, int(math.Round(x)), int(math.Round(y)))
}

func (r *Renderer) font(name string) (*truetype.Font, error) {
	if name == "" {
		name = fonts.Regular
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if f, ok := r.fonts[name]; ok {
		return f, nil
	}
	data, ok := r.fontBlobs[name]
	var err error
	if !ok {
		data, err = fonts.Load(name)
	}
	if err != nil {
		data, err = fonts.Load(fonts.Regular)
		if err != nil {
			return nil, err
		}
	}
	f, err := truetype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("解析字体 %s 失败: %w", name, err)
	}
	r.fonts[name] = f
	return f, nil
}

func toRGBA(c layout.Color) color.RGBA {
	return color.RGBA{R: uint8(c.R), G: uint8(c.G), B: uint8(c.B), A: 0xff}
}
