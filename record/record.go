// Package record 描述绑定元素的数据来源：表格字段、记录以及当前记录的导航。
package record

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrStale 表示取值结果所属的记录已不是当前记录。
	ErrStale = errors.New("record: 结果已过期")
	// ErrUnknownRecord 表示数据源中不存在该记录。
	ErrUnknownRecord = errors.New("record: 记录不存在")
)

// Field 是表格列的元信息。
type Field struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type int    `json:"type"`
}

// DataSource 是外部表格的只读视图。所有方法可能阻塞。
type DataSource interface {
	Fields(ctx context.Context) ([]Field, error)
	RecordIDs(ctx context.Context) ([]string, error)
	// CellString 返回单元格的字符串形式；fieldType 决定取值的转换方式。
	CellString(ctx context.Context, fieldID, recordID string, fieldType int) (string, error)
}

// Row 是一条内存记录。
type Row struct {
	ID    string            `json:"id"`
	Cells map[string]string `json:"fields"`
}

// StaticSource 是内存数据源，命令行与测试使用。
type StaticSource struct {
	FieldList []Field `json:"fields"`
	Rows      []Row   `json:"records"`
}

var _ DataSource = (*StaticSource)(nil)

func (s *StaticSource) Fields(ctx context.Context) ([]Field, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]Field, len(s.FieldList))
	copy(out, s.FieldList)
	return out, nil
}

func (s *StaticSource) RecordIDs(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(s.Rows))
	for _, r := range s.Rows {
		ids = append(ids, r.ID)
	}
	return ids, nil
}

// CellString 对缺失的单元格返回空串。
func (s *StaticSource) CellString(ctx context.Context, fieldID, recordID string, _ int) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	for _, r := range s.Rows {
		if r.ID == recordID {
			return r.Cells[fieldID], nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownRecord, recordID)
}

// FieldIndex 按 id 索引字段并支持模糊搜索，保持原始列顺序。
type FieldIndex struct {
	order []string
	byID  map[string]Field
}

// NewFieldIndex 建立索引，重复 id 以首次出现为准。
func NewFieldIndex(fields []Field) *FieldIndex {
	idx := &FieldIndex{byID: make(map[string]Field, len(fields))}
	for _, f := range fields {
		if _, dup := idx.byID[f.ID]; dup {
			continue
		}
		idx.byID[f.ID] = f
		idx.order = append(idx.order, f.ID)
	}
	return idx
}

// Has 报告字段是否存在。空 id 视为未绑定，返回 true。
func (i *FieldIndex) Has(id string) bool {
	if id == "" {
		return true
	}
	_, ok := i.byID[id]
	return ok
}

// Get 按 id 取字段。
func (i *FieldIndex) Get(id string) (Field, bool) {
	f, ok := i.byID[id]
	return f, ok
}

// Len 返回字段数量。
func (i *FieldIndex) Len() int { return len(i.order) }

// Search 按名称或 id 做不区分大小写的子串匹配；空查询返回全部字段。
func (i *FieldIndex) Search(query string) []Field {
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]Field, 0, len(i.order))
	for _, id := range i.order {
		f := i.byID[id]
		if q == "" || strings.Contains(strings.ToLower(f.Name), q) || strings.Contains(strings.ToLower(f.ID), q) {
			out = append(out, f)
		}
	}
	return out
}

// Fields 返回全部字段，按 id 排序。
func (i *FieldIndex) Fields() []Field {
	ids := append([]string(nil), i.order...)
	sort.Strings(ids)
	out := make([]Field, 0, len(ids))
	for _, id := range ids {
		out = append(out, i.byID[id])
	}
	return out
}
