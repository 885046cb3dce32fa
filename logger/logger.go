// Package logger 封装 zap，为设计器核心提供带键值对的结构化日志。
package logger

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger 是 zap.SugaredLogger 的薄封装，nil 接收者安全。
type Logger struct {
	sugar *zap.SugaredLogger
}

// New 按运行模式创建日志器：prod/production 输出 JSON，其余为开发模式的彩色控制台输出。
func New(mode string) (*Logger, error) {
	var cfg zap.Config
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "prod", "production":
		cfg = zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	case "quiet":
		cfg = zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.ErrorLevel)
	default:
		cfg = zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	z, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return &Logger{sugar: z.Sugar()}, nil
}

// Nop 返回丢弃所有输出的日志器，测试与库默认值使用。
func Nop() *Logger {
	return &Logger{sugar: zap.NewNop().Sugar()}
}

// FromZap 包装一个已有的 zap.Logger（例如测试中的 observer）。
func FromZap(z *zap.Logger) *Logger {
	if z == nil {
		return Nop()
	}
	return &Logger{sugar: z.Sugar()}
}

func (l *Logger) s() *zap.SugaredLogger {
	if l == nil || l.sugar == nil {
		return zap.NewNop().Sugar()
	}
	return l.sugar
}

// Sync 刷新缓冲区，忽略 stderr 不支持 fsync 的错误。
func (l *Logger) Sync() {
	_ = l.s().Sync()
}

func (l *Logger) Debug(msg string, keysAndValues ...any) { l.s().Debugw(msg, keysAndValues...) }
func (l *Logger) Info(msg string, keysAndValues ...any)  { l.s().Infow(msg, keysAndValues...) }
func (l *Logger) Warn(msg string, keysAndValues ...any)  { l.s().Warnw(msg, keysAndValues...) }
func (l *Logger) Error(msg string, keysAndValues ...any) { l.s().Errorw(msg, keysAndValues...) }

// With 返回附带固定字段的子日志器。
func (l *Logger) With(keysAndValues ...any) *Logger {
	return &Logger{sugar: l.s().With(keysAndValues...)}
}

// Named 为子系统追加名称，例如 "store"、"udi"。
func (l *Logger) Named(name string) *Logger {
	return &Logger{sugar: l.s().Named(name)}
}
