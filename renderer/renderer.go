package renderer

import "github.com/ByLCY/papyrus-label/layout"

// Renderer 将布局结果输出为最终文件：canvas 实现输出多页 PDF，preview 实现输出拼接后的 PNG。
type Renderer interface {
	Render(result *layout.Result) ([]byte, error)
}
