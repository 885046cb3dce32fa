package document

import (
	"context"
	"errors"
	"fmt"

	"github.com/ByLCY/papyrus-label/element"
	"github.com/ByLCY/papyrus-label/record"
	"github.com/ByLCY/papyrus-label/session"
	"github.com/ByLCY/papyrus-label/store"
)

// envelope 与页面端持久化中间件的格式保持一致。
type envelope[T any] struct {
	State   T   `json:"state"`
	Version int `json:"version"`
}

type printList struct {
	PrintList []element.Element `json:"printList"`
}

type printRecordList struct {
	PrintRecordList []element.Element `json:"printRecordList"`
}

type fieldData struct {
	Fields   []record.Field `json:"fields"`
	FieldIDs []string       `json:"fieldIds"`
}

// Save 把两个集合、记录导航与字段元信息写入会话存储。历史与选择不持久化。
func (d *Document) Save(ctx context.Context, s session.Storage) error {
	d.mu.Lock()
	base := d.store.List(element.SourceBase)
	bound := d.store.List(element.SourceTable)
	fields := d.fields.Search("")
	d.mu.Unlock()
	nav := d.nav.State()

	ids := make([]string, 0, len(fields))
	for _, f := range fields {
		ids = append(ids, f.ID)
	}
	blocks := []struct {
		name string
		v    any
	}{
		{session.PrintElementList, envelope[printList]{State: printList{PrintList: base}}},
		{session.PrintRecordList, envelope[printRecordList]{State: printRecordList{PrintRecordList: bound}}},
		{session.RecordData, envelope[record.State]{State: nav}},
		{session.FieldData, envelope[fieldData]{State: fieldData{Fields: fields, FieldIDs: ids}}},
	}
	for _, b := range blocks {
		if err := session.SaveJSON(ctx, s, b.name, b.v); err != nil {
			return err
		}
	}
	d.log.Debug("会话已保存", "base", len(base), "bound", len(bound))
	return nil
}

// Restore 从会话存储恢复。缺失的状态块保持当前值；
// 元素集合先整体校验再替换，任一集合无效时文档不变。恢复后历史与选择被清空。
func (d *Document) Restore(ctx context.Context, s session.Storage) error {
	var (
		base  envelope[printList]
		bound envelope[printRecordList]
		nav   envelope[record.State]
		flds  envelope[fieldData]
	)
	found := map[string]bool{}
	for name, v := range map[string]any{
		session.PrintElementList: &base,
		session.PrintRecordList:  &bound,
		session.RecordData:       &nav,
		session.FieldData:        &flds,
	} {
		err := session.LoadJSON(ctx, s, name, v)
		if errors.Is(err, session.ErrNotFound) {
			continue
		}
		if err != nil {
			return err
		}
		found[name] = true
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	next := store.New(d.log)
	keep := func(source element.SourceType, name string, list []element.Element) error {
		if !found[name] {
			list = d.store.List(source)
		}
		if err := next.Import(source, list); err != nil {
			return fmt.Errorf("document: 恢复 %s 失败: %w", name, err)
		}
		return nil
	}
	if err := keep(element.SourceBase, session.PrintElementList, base.State.PrintList); err != nil {
		return err
	}
	if err := keep(element.SourceTable, session.PrintRecordList, bound.State.PrintRecordList); err != nil {
		return err
	}

	d.store = next
	d.sel.Select(nil, false)
	d.multi.Clear()
	d.hist.Clear()
	if found[session.FieldData] {
		d.fields = record.NewFieldIndex(flds.State.Fields)
	}
	if found[session.RecordData] {
		d.nav.Restore(nav.State)
		d.values = map[string]string{}
	}
	d.log.Info("会话已恢复", "blocks", len(found))
	return nil
}
