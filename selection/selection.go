// Package selection 保存界面交互状态：单选（含编辑标记）与多选集合。
// 这些状态不进入撤销历史。
package selection

import (
	"sort"

	"github.com/ByLCY/papyrus-label/element"
)

// Selection 最多引用一个元素，并附带瞬时的编辑标记。
type Selection struct {
	current *element.Element
	editing bool
}

// Select 整体替换当前选中项；编辑标记必须显式给出。el 为 nil 时清空。
func (s *Selection) Select(el *element.Element, edit bool) {
	if el == nil {
		s.current = nil
		s.editing = false
		return
	}
	snapshot := *el
	s.current = &snapshot
	s.editing = edit
}

// Current 返回当前选中元素的副本。
func (s *Selection) Current() (element.Element, bool) {
	if s.current == nil {
		return element.Element{}, false
	}
	return *s.current, true
}

// ID 返回选中元素的 uuid，未选中时为空串。
func (s *Selection) ID() string {
	if s.current == nil {
		return ""
	}
	return s.current.UUID
}

// Editing 报告是否处于文本编辑模式。
func (s *Selection) Editing() bool { return s.current != nil && s.editing }

// IsEditing 报告指定元素是否处于编辑模式。
func (s *Selection) IsEditing(id string) bool { return s.Editing() && s.current.UUID == id }

// CommitEdit 对应点击可编辑区域之外：只清除编辑标记，保留选中项。
func (s *Selection) CommitEdit() bool {
	if !s.Editing() {
		return false
	}
	s.editing = false
	return true
}

// Forget 在元素被删除时清空对它的引用。
func (s *Selection) Forget(id string) bool {
	if s.current == nil || s.current.UUID != id {
		return false
	}
	s.current = nil
	s.editing = false
	return true
}

// Refresh 在元素更新后同步快照，编辑标记保持不变。
func (s *Selection) Refresh(el element.Element) {
	if s.current != nil && s.current.UUID == el.UUID {
		snapshot := el
		s.current = &snapshot
	}
}

// Multi 是去重的多选集合，按 uuid 索引，不保证顺序。
type Multi struct {
	members map[string]element.Element
}

// NewMulti 创建空集合。
func NewMulti() *Multi {
	return &Multi{members: map[string]element.Element{}}
}

// Add 幂等：已存在的 uuid 不会重复加入。
func (m *Multi) Add(el element.Element) bool {
	if _, ok := m.members[el.UUID]; ok {
		return false
	}
	m.members[el.UUID] = el
	return true
}

// Remove 移除一个成员。
func (m *Multi) Remove(id string) bool {
	if _, ok := m.members[id]; !ok {
		return false
	}
	delete(m.members, id)
	return true
}

// Clear 清空集合。
func (m *Multi) Clear() { m.members = map[string]element.Element{} }

// SetAll 整体替换成员。
func (m *Multi) SetAll(list []element.Element) {
	m.members = make(map[string]element.Element, len(list))
	for _, el := range list {
		m.members[el.UUID] = el
	}
}

// Contains 报告 uuid 是否被选中。
func (m *Multi) Contains(id string) bool {
	_, ok := m.members[id]
	return ok
}

// Len 返回成员数量。
func (m *Multi) Len() int { return len(m.members) }

// IDs 返回成员 uuid，排序只为结果稳定。
func (m *Multi) IDs() []string {
	ids := make([]string, 0, len(m.members))
	for id := range m.members {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Elements 返回成员快照，顺序同 IDs。
func (m *Multi) Elements() []element.Element {
	out := make([]element.Element, 0, len(m.members))
	for _, id := range m.IDs() {
		out = append(out, m.members[id])
	}
	return out
}

// Refresh 更新已选成员的快照。
func (m *Multi) Refresh(el element.Element) {
	if _, ok := m.members[el.UUID]; ok {
		m.members[el.UUID] = el
	}
}
