// Package history 记录元素增删改操作，提供线性的撤销/重做。
//
// 游标指向最近一次已生效的条目，-1 表示没有可撤销的操作。
// 新的记录会截断游标之后的重做分支。
package history

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ByLCY/papyrus-label/element"
)

// ErrEmpty 表示没有可撤销或可重做的条目。
var ErrEmpty = errors.New("history: 没有可用的历史记录")

// Op 是操作类型。
type Op string

const (
	OpAdd    Op = "add"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

func (o Op) valid() bool {
	switch o {
	case OpAdd, OpUpdate, OpDelete:
		return true
	}
	return false
}

// Entry 是一条历史记录。
//
// Element 为操作后的状态（删除时为被删除的元素），Before 只在更新时存在。
// Position 记录删除前的层级位置，撤销删除时据此插回原处。
type Entry struct {
	Op       Op               `json:"type"`
	Element  element.Element  `json:"element"`
	Before   *element.Element `json:"oldElement,omitempty"`
	Position int              `json:"position"`
}

// Source 返回条目所属的集合。
func (e Entry) Source() element.SourceType { return e.Element.SourceType }

// Validate 检查条目结构。
func (e Entry) Validate() error {
	if !e.Op.valid() {
		return fmt.Errorf("history: 未知操作 %q", e.Op)
	}
	if e.Element.UUID == "" {
		return errors.New("history: 条目缺少元素")
	}
	if e.Op == OpUpdate {
		if e.Before == nil {
			return errors.New("history: 更新条目缺少 oldElement")
		}
		if e.Before.UUID != e.Element.UUID {
			return fmt.Errorf("history: 更新前后 uuid 不一致 %s/%s", e.Before.UUID, e.Element.UUID)
		}
	}
	return nil
}

// Added 构造新增条目。
func Added(el element.Element) Entry { return Entry{Op: OpAdd, Element: el, Position: -1} }

// Updated 构造更新条目。
func Updated(before, after element.Element) Entry {
	b := before
	return Entry{Op: OpUpdate, Element: after, Before: &b, Position: -1}
}

// Deleted 构造删除条目。
func Deleted(el element.Element, pos int) Entry {
	return Entry{Op: OpDelete, Element: el, Position: pos}
}

// Log 是撤销/重做日志。零值不可用，请使用 New。
type Log struct {
	entries []Entry
	cursor  int
}

// New 创建空日志。
func New() *Log { return &Log{cursor: -1} }

// Record 追加一条记录并截断重做分支。
func (l *Log) Record(e Entry) {
	l.entries = append(l.entries[:l.cursor+1], e)
	l.cursor = len(l.entries) - 1
}

// Undo 返回需要回滚的条目并将游标前移。
func (l *Log) Undo() (Entry, error) {
	if !l.CanUndo() {
		return Entry{}, ErrEmpty
	}
	e := l.entries[l.cursor]
	l.cursor--
	return e, nil
}

// Redo 将游标后移并返回需要重放的条目。
func (l *Log) Redo() (Entry, error) {
	if !l.CanRedo() {
		return Entry{}, ErrEmpty
	}
	l.cursor++
	return l.entries[l.cursor], nil
}

func (l *Log) CanUndo() bool { return l.cursor >= 0 }
func (l *Log) CanRedo() bool { return l.cursor < len(l.entries)-1 }
func (l *Log) Len() int      { return len(l.entries) }
func (l *Log) Cursor() int   { return l.cursor }

// Clear 清空全部记录。
func (l *Log) Clear() {
	l.entries = nil
	l.cursor = -1
}

// Entries 返回记录快照。
func (l *Log) Entries() []Entry {
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

type snapshot struct {
	Entries []Entry `json:"entries"`
	Cursor  int     `json:"cursor"`
}

// MarshalJSON 将日志连同游标一起序列化。
func (l *Log) MarshalJSON() ([]byte, error) {
	entries := l.entries
	if entries == nil {
		entries = []Entry{}
	}
	return json.Marshal(snapshot{Entries: entries, Cursor: l.cursor})
}

// UnmarshalJSON 恢复日志；游标越界或条目无效时报错且不修改原日志。
func (l *Log) UnmarshalJSON(data []byte) error {
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("history: 解析失败: %w", err)
	}
	if snap.Cursor < -1 || snap.Cursor >= len(snap.Entries) {
		return fmt.Errorf("history: 游标 %d 越界（共 %d 条）", snap.Cursor, len(snap.Entries))
	}
	for i, e := range snap.Entries {
		if err := e.Validate(); err != nil {
			return fmt.Errorf("第 %d 条: %w", i, err)
		}
	}
	l.entries = snap.Entries
	l.cursor = snap.Cursor
	return nil
}
