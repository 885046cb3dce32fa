// Package clipboard 实现元素的复制与粘贴。
//
// 粘贴得到的新元素拥有新的 uuid，位置在快照基础上偏移固定距离，
// 其余字段原样复制。可选地把快照以 JSON 镜像到系统剪贴板。
package clipboard

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/google/uuid"

	"github.com/ByLCY/papyrus-label/element"
	"github.com/ByLCY/papyrus-label/logger"
)

// DefaultOffset 是粘贴时左上角的默认偏移（px）。
const DefaultOffset = 20

// ErrEmpty 表示还没有复制过任何元素。
var ErrEmpty = errors.New("clipboard: 剪贴板为空")

// System 抽象系统剪贴板。
type System interface {
	ReadAll() (string, error)
	WriteAll(text string) error
}

type osClipboard struct{}

func (osClipboard) ReadAll() (string, error)   { return clipboard.ReadAll() }
func (osClipboard) WriteAll(text string) error { return clipboard.WriteAll(text) }

// OS 返回基于 atotto/clipboard 的系统剪贴板；无可用剪贴板程序时返回 nil。
func OS() System {
	if clipboard.Unsupported {
		return nil
	}
	return osClipboard{}
}

// Board 是应用内剪贴板。
type Board struct {
	snapshot *element.Element
	offset   float64
	newID    func() string
	system   System
	log      *logger.Logger
}

// Option 配置 Board。
type Option func(*Board)

// WithOffset 设置粘贴偏移。
func WithOffset(offset float64) Option { return func(b *Board) { b.offset = offset } }

// WithIDGenerator 替换 uuid 生成函数。
func WithIDGenerator(fn func() string) Option { return func(b *Board) { b.newID = fn } }

// WithSystem 启用系统剪贴板镜像。
func WithSystem(s System) Option { return func(b *Board) { b.system = s } }

// WithLogger 设置日志。
func WithLogger(l *logger.Logger) Option { return func(b *Board) { b.log = l } }

// New 创建剪贴板。
func New(opts ...Option) *Board {
	b := &Board{offset: DefaultOffset, newID: uuid.NewString}
	for _, opt := range opts {
		opt(b)
	}
	b.log = b.log.Named("clipboard")
	return b
}

// Copy 保存元素快照。
func (b *Board) Copy(el element.Element) {
	snap := el
	b.snapshot = &snap
	if b.system == nil {
		return
	}
	data, err := json.Marshal(el)
	if err != nil {
		b.log.Warn("序列化剪贴板内容失败", "uuid", el.UUID, "err", err)
		return
	}
	if err := b.system.WriteAll(string(data)); err != nil {
		b.log.Warn("写入系统剪贴板失败", "err", err)
	}
}

// Snapshot 返回当前快照。
func (b *Board) Snapshot() (element.Element, bool) {
	if b.snapshot == nil {
		return element.Element{}, false
	}
	return *b.snapshot, true
}

// Paste 基于快照生成新元素，不修改快照本身，可重复粘贴。
// 启用系统剪贴板时优先使用其中合法的元素 JSON。
func (b *Board) Paste() (element.Element, error) {
	src, ok := b.fromSystem()
	if !ok {
		if b.snapshot == nil {
			return element.Element{}, ErrEmpty
		}
		src = *b.snapshot
	}
	return b.Duplicate(src), nil
}

// Duplicate 复制元素并偏移位置。
func (b *Board) Duplicate(src element.Element) element.Element {
	dup := src.Moved(b.offset, b.offset)
	dup.UUID = b.newID()
	return dup
}

func (b *Board) fromSystem() (element.Element, bool) {
	if b.system == nil {
		return element.Element{}, false
	}
	text, err := b.system.ReadAll()
	if err != nil {
		b.log.Debug("读取系统剪贴板失败", "err", err)
		return element.Element{}, false
	}
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "{") {
		return element.Element{}, false
	}
	var el element.Element
	if err := json.Unmarshal([]byte(text), &el); err != nil {
		return element.Element{}, false
	}
	if err := el.Validate(); err != nil {
		b.log.Debug("系统剪贴板中的元素无效，使用应用内快照", "err", err)
		return element.Element{}, false
	}
	return el, true
}
