package document

import (
	"fmt"
	"math"

	"github.com/ByLCY/papyrus-label/element"
	"github.com/ByLCY/papyrus-label/history"
	"github.com/ByLCY/papyrus-label/store"
)

// Add 追加元素并记录历史。
func (d *Document) Add(el element.Element) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.add(el)
}

func (d *Document) add(el element.Element) error {
	if err := d.store.Add(el); err != nil {
		return err
	}
	d.hist.Record(history.Added(el))
	return nil
}

// Update 原位替换元素并记录历史，同时刷新选择中的快照。
func (d *Document) Update(el element.Element) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.update(el)
}

func (d *Document) update(el element.Element) error {
	before, _ := d.store.Get(el.SourceType, el.UUID)
	if err := d.store.Update(el); err != nil {
		return err
	}
	d.hist.Record(history.Updated(before, el))
	d.sel.Refresh(el)
	d.multi.Refresh(el)
	return nil
}

// Delete 删除元素并记录历史；被删除的元素同时从选择与多选中移除。
func (d *Document) Delete(source element.SourceType, id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.delete(source, id)
}

func (d *Document) delete(source element.SourceType, id string) error {
	removed, pos, err := d.store.Delete(source, id)
	if err != nil {
		return err
	}
	d.hist.Record(history.Deleted(removed, pos))
	d.sel.Forget(id)
	d.multi.Remove(id)
	return nil
}

// Undo 回滚游标处的操作。没有可撤销的操作时返回 history.ErrEmpty。
func (d *Document) Undo() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	e, err := d.hist.Undo()
	if err != nil {
		return err
	}
	switch e.Op {
	case history.OpAdd:
		_, _, err = d.store.Delete(e.Source(), e.Element.UUID)
		d.sel.Forget(e.Element.UUID)
		d.multi.Remove(e.Element.UUID)
	case history.OpUpdate:
		err = d.store.Update(*e.Before)
		d.sel.Refresh(*e.Before)
		d.multi.Refresh(*e.Before)
	case history.OpDelete:
		err = d.store.Insert(e.Position, e.Element)
	}
	if err != nil {
		d.log.Error("撤销失败，集合与历史不一致", "op", e.Op, "uuid", e.Element.UUID, "error", err)
		return fmt.Errorf("document: 撤销 %s 失败: %w", e.Op, err)
	}
	return nil
}

// Redo 重放游标之后的操作。
func (d *Document) Redo() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	e, err := d.hist.Redo()
	if err != nil {
		return err
	}
	switch e.Op {
	case history.OpAdd:
		err = d.store.Add(e.Element)
	case history.OpUpdate:
		err = d.store.Update(e.Element)
		d.sel.Refresh(e.Element)
		d.multi.Refresh(e.Element)
	case history.OpDelete:
		_, _, err = d.store.Delete(e.Source(), e.Element.UUID)
		d.sel.Forget(e.Element.UUID)
		d.multi.Remove(e.Element.UUID)
	}
	if err != nil {
		d.log.Error("重做失败，集合与历史不一致", "op", e.Op, "uuid", e.Element.UUID, "error", err)
		return fmt.Errorf("document: 重做 %s 失败: %w", e.Op, err)
	}
	return nil
}

// Place 把面板中的元素放到文档坐标 (left, top)，生成新 uuid。
// 绑定元素需要 fieldID；条码尺寸与颜色取配置默认值。
func (d *Document) Place(kind element.Kind, source element.SourceType, left, top float64, fieldID string) (element.Element, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	el := element.Defaults(kind)
	if kind == element.KindUDI {
		el.Styles.Width = element.Dimension(d.cfg.Barcode.Width)
		el.Styles.Height = element.Dimension(d.cfg.Barcode.Height)
		el.Styles.Color = d.cfg.Barcode.Color
	}
	el.UUID = d.newID()
	el.SourceType = source
	el.Styles.Left = element.Dimension(left)
	el.Styles.Top = element.Dimension(top)
	if source == element.SourceTable {
		if !d.fields.Has(fieldID) {
			d.log.Warn("绑定的字段不在当前表格中", "fieldId", fieldID)
		}
		el.FieldID = fieldID
		if f, ok := d.fields.Get(fieldID); ok {
			el.FieldType = f.Type
		}
	}
	if err := d.add(el); err != nil {
		return element.Element{}, err
	}
	return el, nil
}

// Gesture 是一次拖拽/缩放/旋转结束时的变换。Rotate 为弧度。
type Gesture struct {
	DX, DY        float64
	Width, Height float64
	Rotate        float64
}

// Transform 应用拖拽结束时的变换：平移、新尺寸与旋转（转换为角度）。
// Width/Height 不大于 0 时保留原尺寸。
func (d *Document) Transform(id string, g Gesture) (element.Element, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	el, err := d.lookup(id)
	if err != nil {
		return element.Element{}, err
	}
	el = el.Moved(g.DX, g.DY)
	if g.Width > 0 {
		el.Styles.Width = element.Dimension(g.Width)
	}
	if g.Height > 0 {
		el.Styles.Height = element.Dimension(g.Height)
	}
	el.Rotate = g.Rotate * 180 / math.Pi
	if err := d.update(el); err != nil {
		return element.Element{}, err
	}
	return el, nil
}

// EditContent 修改画布元素的文本内容。绑定元素的内容来自记录，改为修改 fieldId。
func (d *Document) EditContent(id, content string) (element.Element, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	el, err := d.lookup(id)
	if err != nil {
		return element.Element{}, err
	}
	if el.Bound() {
		f, _ := d.fields.Get(content)
		el.FieldID = content
		el.FieldType = f.Type
	} else {
		el.Content = content
	}
	if err := d.update(el); err != nil {
		return element.Element{}, err
	}
	return el, nil
}

func (d *Document) lookup(id string) (element.Element, error) {
	el, ok := d.store.Find(id)
	if !ok {
		d.log.Warn("元素不存在", "uuid", id)
		return element.Element{}, fmt.Errorf("document: %s: %w", id, store.ErrNotFound)
	}
	return el, nil
}
