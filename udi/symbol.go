package udi

import (
	"bytes"
	"fmt"
	"image/color"
	"math"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/datamatrix"
	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/svg"
)

// DefaultColor 是未指定颜色时的条码颜色。
const DefaultColor = "#000000"

// Encoder 把 GS1 元素串编码为二维码矩阵。
type Encoder func(data string) (barcode.Barcode, error)

// DataMatrix 是默认的编码器。
func DataMatrix(data string) (barcode.Barcode, error) {
	return datamatrix.Encode(data)
}

// Symbol 是一个已生成的矢量条码，生成后不可变。
// Path 以符号框左上角为原点、y 轴向下，单位与 Width/Height 相同。
type Symbol struct {
	Content string
	Width   float64
	Height  float64
	Color   string
	Columns int
	Rows    int
	Module  float64
	Path    *canvas.Path

	svg []byte
}

// SVG 返回符号的 SVG 文本副本。
func (s *Symbol) SVG() []byte {
	if s == nil {
		return nil
	}
	out := make([]byte, len(s.svg))
	copy(out, s.svg)
	return out
}

// Fill 返回符号颜色。
func (s *Symbol) Fill() color.RGBA {
	if s == nil || s.Color == "" {
		return canvas.Hex(DefaultColor)
	}
	return canvas.Hex(s.Color)
}

// generate 编码并矢量化，模块边长取能放进 width x height 的最大值，符号居中。
func generate(enc Encoder, content string, width, height float64, col string) (*Symbol, error) {
	data, err := ElementString(content)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRenderFailed, err)
	}
	code, err := enc(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRenderFailed, err)
	}
	bounds := code.Bounds()
	cols, rows := bounds.Dx(), bounds.Dy()
	if cols <= 0 || rows <= 0 {
		return nil, fmt.Errorf("%w: 编码结果为空", ErrRenderFailed)
	}

	module := math.Min(width/float64(cols), height/float64(rows))
	offX := (width - module*float64(cols)) / 2
	offY := (height - module*float64(rows)) / 2

	// 同一行连续的深色模块合并为一个矩形，减少路径节点。
	path := &canvas.Path{}
	for y := 0; y < rows; y++ {
		run := -1
		for x := 0; x <= cols; x++ {
			dark := x < cols && isDark(code.At(bounds.Min.X+x, bounds.Min.Y+y))
			switch {
			case dark && run < 0:
				run = x
			case !dark && run >= 0:
				addRect(path, offX+float64(run)*module, offY+float64(y)*module, float64(x-run)*module, module)
				run = -1
			}
		}
	}

	if col == "" {
		col = DefaultColor
	}
	sym := &Symbol{
		Content: content,
		Width:   width,
		Height:  height,
		Color:   col,
		Columns: cols,
		Rows:    rows,
		Module:  module,
		Path:    path,
	}
	out, err := sym.renderSVG()
	if err != nil {
		return nil, err
	}
	sym.svg = out
	return sym, nil
}

func (s *Symbol) renderSVG() ([]byte, error) {
	c := canvas.New(s.Width, s.Height)
	ctx := canvas.NewContext(c)
	ctx.SetCoordSystem(canvas.CartesianIV)
	ctx.SetFillColor(s.Fill())
	ctx.SetStrokeColor(color.RGBA{0, 0, 0, 0})
	ctx.DrawPath(0, 0, s.Path)

	var buf bytes.Buffer
	writer := svg.New(&buf, s.Width, s.Height, nil)
	c.RenderTo(writer)
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("%w: 写入 SVG 失败: %v", ErrRenderFailed, err)
	}
	return buf.Bytes(), nil
}

func addRect(p *canvas.Path, x, y, w, h float64) {
	p.MoveTo(x, y)
	p.LineTo(x+w, y)
	p.LineTo(x+w, y+h)
	p.LineTo(x, y+h)
	p.Close()
}

func isDark(c color.Color) bool {
	r, g, b, _ := c.RGBA()
	return r+g+b < 3*0x8000
}
