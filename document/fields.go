package document

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/ByLCY/papyrus-label/binding"
	"github.com/ByLCY/papyrus-label/element"
	"github.com/ByLCY/papyrus-label/record"
	"github.com/ByLCY/papyrus-label/store"
	"github.com/ByLCY/papyrus-label/udi"
)

// fetchLimit 限制同时进行的单元格取值数量。
const fetchLimit = 8

// LoadTable 从数据源读取字段元信息与记录列表，并激活当前下标对应的记录。
func (d *Document) LoadTable(ctx context.Context) error {
	d.mu.Lock()
	src := d.source
	d.mu.Unlock()
	if src == nil {
		return errors.New("document: 未设置数据源")
	}

	fields, err := src.Fields(ctx)
	if err != nil {
		return fmt.Errorf("document: 读取字段失败: %w", err)
	}
	ids, err := src.RecordIDs(ctx)
	if err != nil {
		return fmt.Errorf("document: 读取记录失败: %w", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.fields = record.NewFieldIndex(fields)
	d.nav.SetRecordIDs(ids)
	d.values = map[string]string{}
	d.log.Info("载入表格", "fields", len(fields), "records", len(ids))
	return nil
}

// Fields 按名称或 id 模糊搜索字段，空查询返回全部。
func (d *Document) Fields(query string) []record.Field {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.fields.Search(query)
}

// Navigator 返回记录导航器。切换记录后需重新调用 ResolveFieldValues。
func (d *Document) Navigator() *record.Navigator { return d.nav }

// ActiveRecord 返回当前记录 id。
func (d *Document) ActiveRecord() string { return d.nav.Active() }

// NextRecord 前进一条记录，并丢弃上一条记录的取值。
func (d *Document) NextRecord() bool { return d.navigate(d.nav.Next) }

// PrevRecord 后退一条记录。
func (d *Document) PrevRecord() bool { return d.navigate(d.nav.Prev) }

// SetActiveRecord 响应表格中的记录选择。
func (d *Document) SetActiveRecord(id string) {
	d.navigate(func() bool {
		d.nav.SetActive(id)
		return true
	})
}

func (d *Document) navigate(move func() bool) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !move() {
		return false
	}
	d.values = map[string]string{}
	return true
}

type fieldRef struct {
	id  string
	typ int
}

// ResolveFieldValues 为当前记录并发读取全部绑定字段的值。
// 读取期间记录发生切换时结果被丢弃，返回 record.ErrStale。
// 单个单元格读取失败只记录日志，该字段视为空值。
func (d *Document) ResolveFieldValues(ctx context.Context) error {
	d.mu.Lock()
	src := d.source
	tok := d.nav.Token()
	refs := d.boundFields()
	d.mu.Unlock()

	if src == nil || tok.RecordID == "" || len(refs) == 0 {
		return nil
	}

	var (
		mu     sync.Mutex
		values = make(map[string]string, len(refs))
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchLimit)
	for _, ref := range refs {
		g.Go(func() error {
			v, err := src.CellString(gctx, ref.id, tok.RecordID, ref.typ)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				d.log.Warn("读取单元格失败", "field", ref.id, "record", tok.RecordID, "error", err)
				return nil
			}
			mu.Lock()
			values[ref.id] = v
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("document: 读取字段值失败: %w", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.nav.Check(tok); err != nil {
		d.log.Debug("记录已切换，丢弃过期的字段值", "record", tok.RecordID, "seq", tok.Seq)
		return err
	}
	for id, v := range values {
		d.values[id] = v
	}
	return nil
}

// ApplyFieldValue 写入单个异步取值结果；令牌过期时丢弃并返回 record.ErrStale。
func (d *Document) ApplyFieldValue(tok record.Token, fieldID, value string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.nav.Check(tok); err != nil {
		d.log.Debug("丢弃过期的字段值", "field", fieldID, "record", tok.RecordID)
		return err
	}
	d.values[fieldID] = value
	return nil
}

// FieldValue 返回当前记录中字段的值。
func (d *Document) FieldValue(fieldID string) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	v, ok := d.values[fieldID]
	return v, ok
}

// FieldValues 返回当前记录已取得的字段值副本。
func (d *Document) FieldValues() map[string]string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make(map[string]string, len(d.values))
	for k, v := range d.values {
		out[k] = v
	}
	return out
}

// boundFields 收集绑定元素的字段，以及画布文本中 ${fieldId} 引用的字段。
func (d *Document) boundFields() []fieldRef {
	seen := map[string]bool{}
	var refs []fieldRef
	add := func(id string, typ int) {
		if id == "" || seen[id] {
			return
		}
		seen[id] = true
		refs = append(refs, fieldRef{id: id, typ: typ})
	}
	for _, el := range d.store.List(element.SourceTable) {
		add(el.FieldID, el.FieldType)
	}
	for _, el := range d.store.List(element.SourceBase) {
		for _, id := range binding.Fields(el.Content) {
			f, _ := d.fields.Get(id)
			add(id, f.Type)
		}
	}
	return refs
}

// ContentOf 返回元素在当前记录下实际显示的内容。
func (d *Document) ContentOf(el element.Element) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return binding.Content(el, d.values)
}

// BarcodePreview 渲染 UDI 元素的预览。内容无效时返回占位状态，不返回错误。
func (d *Document) BarcodePreview(id string) (udi.Preview, error) {
	el, ok := d.Find(id)
	if !ok {
		return udi.Preview{}, fmt.Errorf("document: %s: %w", id, store.ErrNotFound)
	}
	if el.Type != element.KindUDI {
		return udi.Preview{}, ErrNotBarcode
	}
	return d.codec.Preview(
		d.ContentOf(el),
		el.Styles.Width.Float(),
		el.Styles.Height.Float(),
		d.Config().Barcode.Scale,
		el.Styles.Color,
	), nil
}
