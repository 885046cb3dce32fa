package document

import (
	"fmt"

	"github.com/ByLCY/papyrus-label/element"
)

// Select 选中元素；id 为空时清空选择。选择与编辑标记不进入历史。
func (d *Document) Select(id string, edit bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if id == "" {
		d.sel.Select(nil, false)
		return nil
	}
	el, err := d.lookup(id)
	if err != nil {
		return err
	}
	d.sel.Select(&el, edit)
	return nil
}

// Selected 返回当前选中的元素。
func (d *Document) Selected() (element.Element, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sel.Current()
}

// Editing 报告元素是否处于文本编辑模式。
func (d *Document) Editing(id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sel.IsEditing(id)
}

// CommitEdit 对应点击可编辑区域之外：结束编辑但保留选择。
func (d *Document) CommitEdit() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sel.CommitEdit()
}

// DeleteSelected 删除选中的元素（Delete/Backspace）。正在编辑文本时不删除。
func (d *Document) DeleteSelected() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	el, ok := d.sel.Current()
	if !ok {
		return ErrNoSelection
	}
	if d.sel.Editing() {
		return nil
	}
	return d.delete(el.SourceType, el.UUID)
}

// Copy 把元素快照放入剪贴板；id 为空时复制当前选中项。
func (d *Document) Copy(id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	var (
		el  element.Element
		err error
	)
	if id == "" {
		var ok bool
		if el, ok = d.sel.Current(); !ok {
			return ErrNoSelection
		}
		// 选择中的快照可能落后于集合
		if cur, found := d.store.Find(el.UUID); found {
			el = cur
		}
	} else if el, err = d.lookup(id); err != nil {
		return err
	}
	d.board.Copy(el)
	return nil
}

// Paste 生成剪贴板快照的偏移副本，加入与快照来源一致的集合并记录历史。
func (d *Document) Paste() (element.Element, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	el, err := d.board.Paste()
	if err != nil {
		return element.Element{}, err
	}
	if err := d.add(el); err != nil {
		return element.Element{}, fmt.Errorf("document: 粘贴失败: %w", err)
	}
	return el, nil
}

// ToggleMulti 在多选集合中加入或移除元素。
func (d *Document) ToggleMulti(id string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.multi.Remove(id) {
		return false, nil
	}
	el, err := d.lookup(id)
	if err != nil {
		return false, err
	}
	d.multi.Add(el)
	return true, nil
}

// SelectAll 多选全部元素。
func (d *Document) SelectAll() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.multi.SetAll(d.store.All())
	return d.multi.Len()
}

// ClearMulti 清空多选。
func (d *Document) ClearMulti() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.multi.Clear()
}

// MultiSelected 返回多选成员的 uuid。
func (d *Document) MultiSelected() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.multi.IDs()
}

// MoveSelected 平移全部多选元素，每个元素各记录一条历史。
// 已不在集合中的成员被移出多选。
func (d *Document) MoveSelected(dx, dy float64) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	moved := 0
	for _, id := range d.multi.IDs() {
		cur, ok := d.store.Find(id)
		if !ok {
			d.multi.Remove(id)
			continue
		}
		if err := d.update(cur.Moved(dx, dy)); err != nil {
			return moved, err
		}
		moved++
	}
	return moved, nil
}

// DeleteMultiSelected 删除全部多选元素并清空多选。
func (d *Document) DeleteMultiSelected() (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	deleted := 0
	for _, id := range d.multi.IDs() {
		cur, ok := d.store.Find(id)
		if !ok {
			continue
		}
		if err := d.delete(cur.SourceType, id); err != nil {
			return deleted, err
		}
		deleted++
	}
	d.multi.Clear()
	return deleted, nil
}
