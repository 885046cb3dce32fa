package udi

import (
	"errors"
	"fmt"
	"math"

	"github.com/ByLCY/papyrus-label/logger"
)

var (
	// ErrInvalidFormat 表示内容未通过 Validate，调用方应展示“无效格式”占位。
	ErrInvalidFormat = errors.New("udi: invalid format")
	// ErrRenderFailed 表示编码器对输入失败，或符号尺寸无效。
	ErrRenderFailed = errors.New("udi: render failed")
)

// State 描述渲染边界上的展示状态。
type State int

const (
	StateOK      State = iota
	StateInvalid       // 内容格式无效，显示 "Invalid UDI format"
	StateEmpty         // 生成失败，显示空白占位
)

// InvalidFormatText 是无效内容的占位文字。
const InvalidFormatText = "Invalid UDI format"

// Preview 是渲染边界的结果，从不携带错误。
type Preview struct {
	Symbol *Symbol
	State  State
}

// Codec 组合编码器与符号缓存。
type Codec struct {
	cache  *Cache
	encode Encoder
	log    *logger.Logger
}

// Option 配置 Codec。
type Option func(*Codec)

// WithEncoder 替换底层编码器（测试中用于注入失败或计数）。
func WithEncoder(enc Encoder) Option {
	return func(c *Codec) {
		if enc != nil {
			c.encode = enc
		}
	}
}

// WithCache 让多个 Codec 共享同一缓存。
func WithCache(cache *Cache) Option {
	return func(c *Codec) {
		if cache != nil {
			c.cache = cache
		}
	}
}

// WithLogger 设置日志器。
func WithLogger(l *logger.Logger) Option {
	return func(c *Codec) { c.log = l.Named("udi") }
}

// NewCodec 创建使用 DataMatrix 编码的 Codec。
func NewCodec(opts ...Option) *Codec {
	c := &Codec{
		cache:  NewCache(),
		encode: DataMatrix,
		log:    logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Cache 返回底层缓存。
func (c *Codec) Cache() *Cache { return c.cache }

// Render 为合法内容生成矢量符号。先按 (content, width, height, color) 查缓存：
// 命中返回同一指针，未命中调用编码器并写入缓存。
// 符号尺寸完全由 width/height 决定，scale 只对应位图预览的分辨率，不影响矢量结果。
// width 或 height 非正时返回 ErrRenderFailed，且不写入缓存。
func (c *Codec) Render(content string, width, height, scale float64, color string) (*Symbol, error) {
	if !Validate(content) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidFormat, content)
	}
	if !(width > 0 && height > 0) || math.IsInf(width, 0) || math.IsInf(height, 0) {
		return nil, fmt.Errorf("%w: 符号尺寸无效 %gx%g", ErrRenderFailed, width, height)
	}
	if color == "" {
		color = DefaultColor
	}
	key := cacheKey{content: content, width: width, height: height, color: color}
	if sym, ok := c.cache.get(key); ok {
		return sym, nil
	}
	sym, err := c.generate(content, width, height, color)
	if err != nil {
		return nil, err
	}
	return c.cache.put(key, sym), nil
}

// generate 在边界处捕获编码器的 panic。
func (c *Codec) generate(content string, width, height float64, color string) (sym *Symbol, err error) {
	defer func() {
		if r := recover(); r != nil {
			sym = nil
			err = fmt.Errorf("%w: %v", ErrRenderFailed, r)
		}
	}()
	return generate(c.encode, content, width, height, color)
}

// Preview 是面向界面的渲染入口：格式无效返回 StateInvalid，生成失败返回 StateEmpty，错误只记录日志。
func (c *Codec) Preview(content string, width, height, scale float64, color string) Preview {
	sym, err := c.Render(content, width, height, scale, color)
	switch {
	case err == nil:
		return Preview{Symbol: sym, State: StateOK}
	case errors.Is(err, ErrInvalidFormat):
		return Preview{State: StateInvalid}
	default:
		c.log.Warn("生成条码失败", "content", content, "error", err)
		return Preview{State: StateEmpty}
	}
}
