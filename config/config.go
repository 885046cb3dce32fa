// Package config 读取设计器的 TOML 配置文件。
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/ByLCY/papyrus-label/fonts"
)

// Config 汇总编辑器、条码、纸张、会话、日志与字体配置。
type Config struct {
	Editor  EditorConfig  `toml:"editor"`
	Barcode BarcodeConfig `toml:"barcode"`
	Paper   PaperConfig   `toml:"paper"`
	Session SessionConfig `toml:"session"`
	Log     LogConfig     `toml:"log"`
	Fonts   FontsConfig   `toml:"fonts"`
}

// EditorConfig 控制交互相关的默认值。
type EditorConfig struct {
	PasteOffset float64 `toml:"paste_offset"` // 粘贴偏移量（px）
}

// BarcodeConfig 是新建 UDI 元素时的外观默认值。
type BarcodeConfig struct {
	Width  float64 `toml:"width"`
	Height float64 `toml:"height"`
	Scale  float64 `toml:"scale"`
	Color  string  `toml:"color"`
}

// PaperConfig 纸张尺寸（mm）。
type PaperConfig struct {
	Name   string  `toml:"name"`
	Width  float64 `toml:"width"`
	Height float64 `toml:"height"`
}

// SessionConfig 会话存储位置；Path 为空时使用内存存储。
type SessionConfig struct {
	Path string `toml:"path"`
}

// LogConfig 日志模式：dev / prod / quiet。
type LogConfig struct {
	Mode string `toml:"mode"`
}

// FontsConfig 用 TrueType 文件替换内置字体，通常用于注入 CJK 字体。路径为空时使用内置字体。
type FontsConfig struct {
	Regular string `toml:"regular"`
	Bold    string `toml:"bold"`
	Mono    string `toml:"mono"`
}

// Paths 返回按内置字体名索引的替换文件路径，省略空值。
func (f FontsConfig) Paths() map[string]string {
	out := map[string]string{}
	for name, path := range map[string]string{fonts.Regular: f.Regular, fonts.Bold: f.Bold, fonts.Mono: f.Mono} {
		if strings.TrimSpace(path) != "" {
			out[name] = path
		}
	}
	return out
}

// Default 返回内置默认配置。
func Default() Config {
	return Config{
		Editor: EditorConfig{PasteOffset: 20},
		Barcode: BarcodeConfig{
			Width:  200,
			Height: 200,
			Scale:  2,
			Color:  "#000000",
		},
		Paper: PaperConfig{Name: "标准外箱签", Width: 100, Height: 70},
		Log:   LogConfig{Mode: "dev"},
	}
}

// Load 在默认配置之上合并 path 指向的 TOML 文件；path 为空时直接返回默认值。
func Load(path string) (Config, error) {
	cfg := Default()
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("读取配置文件 %s 失败: %w", path, err)
	}
	return Parse(data, cfg)
}

// Parse 将 TOML 内容解码到 base 之上，未出现的键保持 base 的值。
func Parse(data []byte, base Config) (Config, error) {
	cfg := base
	if err := toml.Unmarshal(data, &cfg); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			return base, fmt.Errorf("解析配置失败（第 %d 行第 %d 列）: %w", row, col, err)
		}
		return base, fmt.Errorf("解析配置失败: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return base, err
	}
	return cfg, nil
}

// Validate 检查数值范围。
func (c Config) Validate() error {
	if c.Editor.PasteOffset < 0 {
		return fmt.Errorf("editor.paste_offset 不能为负数: %g", c.Editor.PasteOffset)
	}
	if c.Barcode.Width <= 0 || c.Barcode.Height <= 0 {
		return fmt.Errorf("barcode 宽高必须为正数: %gx%g", c.Barcode.Width, c.Barcode.Height)
	}
	if c.Barcode.Scale <= 0 {
		return fmt.Errorf("barcode.scale 必须为正数: %g", c.Barcode.Scale)
	}
	if c.Paper.Width <= 0 || c.Paper.Height <= 0 {
		return fmt.Errorf("paper 宽高必须为正数: %gx%g", c.Paper.Width, c.Paper.Height)
	}
	return nil
}
