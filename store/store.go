// Package store 维护两个互斥的元素集合：画布元素（Base）与记录绑定元素（Table）。
// 集合顺序即渲染层级。所有操作同步且原子：要么完整生效，要么状态不变。
package store

import (
	"errors"
	"fmt"

	"github.com/ByLCY/papyrus-label/element"
	"github.com/ByLCY/papyrus-label/logger"
)

var (
	// ErrNotFound 表示更新或删除的目标不存在。
	ErrNotFound = errors.New("store: 元素不存在")
	// ErrDuplicate 表示 uuid 已存在于某个集合中。
	ErrDuplicate = errors.New("store: 元素已存在")
)

// Collection 是一个有序元素序列。
type Collection struct {
	source   element.SourceType
	elements []element.Element
}

// Source 返回集合对应的来源标记。
func (c *Collection) Source() element.SourceType { return c.source }

// Len 返回元素数量。
func (c *Collection) Len() int { return len(c.elements) }

// IndexOf 返回 uuid 的位置，不存在时为 -1。
func (c *Collection) IndexOf(id string) int {
	for i := range c.elements {
		if c.elements[i].UUID == id {
			return i
		}
	}
	return -1
}

// Get 按 uuid 取元素副本。
func (c *Collection) Get(id string) (element.Element, bool) {
	if i := c.IndexOf(id); i >= 0 {
		return c.elements[i], true
	}
	return element.Element{}, false
}

// List 返回元素快照，调用方修改不会影响集合。
func (c *Collection) List() []element.Element {
	out := make([]element.Element, len(c.elements))
	copy(out, c.elements)
	return out
}

// Store 持有两个集合。
type Store struct {
	canvas *Collection
	record *Collection
	log    *logger.Logger
}

// New 创建空 Store。
func New(log *logger.Logger) *Store {
	return &Store{
		canvas: &Collection{source: element.SourceBase},
		record: &Collection{source: element.SourceTable},
		log:    log.Named("store"),
	}
}

// Collection 返回来源标记对应的集合；未知标记返回 nil。
func (s *Store) Collection(source element.SourceType) *Collection {
	switch source {
	case element.SourceBase:
		return s.canvas
	case element.SourceTable:
		return s.record
	default:
		return nil
	}
}

func (s *Store) target(source element.SourceType) (*Collection, error) {
	c := s.Collection(source)
	if c == nil {
		return nil, fmt.Errorf("%w: 未知来源 %q", element.ErrInvalid, source)
	}
	return c, nil
}

// Find 在两个集合中查找 uuid。
func (s *Store) Find(id string) (element.Element, bool) {
	if el, ok := s.canvas.Get(id); ok {
		return el, true
	}
	return s.record.Get(id)
}

// Get 在指定集合中查找。
func (s *Store) Get(source element.SourceType, id string) (element.Element, bool) {
	c := s.Collection(source)
	if c == nil {
		return element.Element{}, false
	}
	return c.Get(id)
}

// List 返回指定集合的快照。
func (s *Store) List(source element.SourceType) []element.Element {
	c := s.Collection(source)
	if c == nil {
		return nil
	}
	return c.List()
}

// All 按 画布→记录 的顺序返回全部元素。
func (s *Store) All() []element.Element {
	return append(s.canvas.List(), s.record.List()...)
}

// Add 追加到 el.SourceType 对应集合的末尾。
// uuid 已存在于任一集合时拒绝（集合成员互斥）。
func (s *Store) Add(el element.Element) error {
	return s.Insert(-1, el)
}

// Insert 在 pos 处插入；pos 越界或为负时追加到末尾。撤销删除时用于恢复原层级。
func (s *Store) Insert(pos int, el element.Element) error {
	if err := el.Validate(); err != nil {
		return err
	}
	c, err := s.target(el.SourceType)
	if err != nil {
		return err
	}
	if _, exists := s.Find(el.UUID); exists {
		s.log.Warn("重复添加元素，已忽略", "uuid", el.UUID, "collection", el.SourceType)
		return fmt.Errorf("%w: %s", ErrDuplicate, el.UUID)
	}
	if pos < 0 || pos >= len(c.elements) {
		c.elements = append(c.elements, el)
		return nil
	}
	c.elements = append(c.elements, element.Element{})
	copy(c.elements[pos+1:], c.elements[pos:])
	c.elements[pos] = el
	return nil
}

// Update 原位替换同 uuid 的元素，保持其层级位置。
func (s *Store) Update(el element.Element) error {
	if err := el.Validate(); err != nil {
		return err
	}
	c, err := s.target(el.SourceType)
	if err != nil {
		return err
	}
	i := c.IndexOf(el.UUID)
	if i < 0 {
		s.log.Warn("更新的元素不存在，已忽略", "uuid", el.UUID, "collection", el.SourceType)
		return fmt.Errorf("%w: %s", ErrNotFound, el.UUID)
	}
	c.elements[i] = el
	return nil
}

// Delete 删除唯一匹配项并返回被删除的元素及其原位置。
func (s *Store) Delete(source element.SourceType, id string) (element.Element, int, error) {
	c, err := s.target(source)
	if err != nil {
		return element.Element{}, -1, err
	}
	i := c.IndexOf(id)
	if i < 0 {
		s.log.Warn("删除的元素不存在，已忽略", "uuid", id, "collection", source)
		return element.Element{}, -1, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	removed := c.elements[i]
	c.elements = append(c.elements[:i], c.elements[i+1:]...)
	return removed, i, nil
}

// Reset 清空一个集合。
func (s *Store) Reset(source element.SourceType) {
	if c := s.Collection(source); c != nil {
		c.elements = nil
	}
}

// Import 整体替换一个集合的内容（批量载入，不进入历史）。
// 列表作为整体校验：任一元素无效、来源不符或 uuid 冲突时不做任何修改。
func (s *Store) Import(source element.SourceType, list []element.Element) error {
	c, err := s.target(source)
	if err != nil {
		return err
	}
	other := s.canvas
	if c == s.canvas {
		other = s.record
	}
	seen := make(map[string]bool, len(list))
	for _, el := range list {
		if err := el.Validate(); err != nil {
			return fmt.Errorf("导入 %s 失败: %w", source, err)
		}
		if el.SourceType != source {
			return fmt.Errorf("导入 %s 失败: %w: 元素 %s 的来源为 %s", source, element.ErrInvalid, el.UUID, el.SourceType)
		}
		if seen[el.UUID] || other.IndexOf(el.UUID) >= 0 {
			return fmt.Errorf("导入 %s 失败: %w: %s", source, ErrDuplicate, el.UUID)
		}
		seen[el.UUID] = true
	}
	c.elements = make([]element.Element, len(list))
	copy(c.elements, list)
	return nil
}
