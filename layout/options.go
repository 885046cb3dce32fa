package layout

import "github.com/ByLCY/papyrus-label/udi"

// BuildOptions 配置布局阶段所需的依赖，例如排版后端与条码编码器。
type BuildOptions struct {
	Typesetter Typesetter
	Codec      *udi.Codec // 为空时使用新的 DataMatrix Codec
	Scale      float64    // 条码模块缩放，仅在元素未给出宽高时生效
	Debug      DebugOptions
}

// DebugOptions 控制调试相关输出。
type DebugOptions struct {
	RawUnits bool // 在调试 JSON 中输出 debug.rawUnits 影子字段
}

// Typesetter 负责根据字体与宽度约束将文本拆成可绘制的行。
type Typesetter interface {
	LayoutLines(content string, width float64, font FontResource, fontSize float64, lineHeight float64) ([]TextLine, error)
}
