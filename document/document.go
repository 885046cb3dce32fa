// Package document 是设计器的文档上下文：持有元素集合、选择状态、撤销历史、
// 剪贴板与记录导航，并保证每次集合变更都同时写入历史。
//
// 所有方法都在文档锁内串行执行，调用方可以来自多个 goroutine。
package document

import (
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/ByLCY/papyrus-label/clipboard"
	"github.com/ByLCY/papyrus-label/config"
	"github.com/ByLCY/papyrus-label/element"
	"github.com/ByLCY/papyrus-label/history"
	"github.com/ByLCY/papyrus-label/logger"
	"github.com/ByLCY/papyrus-label/record"
	"github.com/ByLCY/papyrus-label/selection"
	"github.com/ByLCY/papyrus-label/store"
	"github.com/ByLCY/papyrus-label/udi"
)

var (
	// ErrNoSelection 表示操作需要选中元素但当前没有。
	ErrNoSelection = errors.New("document: 没有选中的元素")
	// ErrNotBarcode 表示元素不是 UDI 条码。
	ErrNotBarcode = errors.New("document: 元素不是 UDI 条码")
)

// Document 聚合一个标签模板的全部编辑状态。
type Document struct {
	mu sync.Mutex

	cfg   config.Config
	log   *logger.Logger
	newID func() string

	store *store.Store
	sel   selection.Selection
	multi *selection.Multi
	hist  *history.Log
	board *clipboard.Board
	codec *udi.Codec

	source record.DataSource
	nav    *record.Navigator
	fields *record.FieldIndex
	values map[string]string
}

// Option 配置 Document。
type Option func(*Document)

// WithConfig 设置配置，默认使用 config.Default()。
func WithConfig(cfg config.Config) Option { return func(d *Document) { d.cfg = cfg } }

// WithLogger 设置日志器。
func WithLogger(l *logger.Logger) Option { return func(d *Document) { d.log = l } }

// WithCodec 共享一个 UDI 编解码器（及其符号缓存）。
func WithCodec(c *udi.Codec) Option { return func(d *Document) { d.codec = c } }

// WithDataSource 设置绑定元素的数据源。
func WithDataSource(src record.DataSource) Option { return func(d *Document) { d.source = src } }

// WithClipboard 替换剪贴板，例如启用系统剪贴板镜像。
func WithClipboard(b *clipboard.Board) Option { return func(d *Document) { d.board = b } }

// WithIDGenerator 替换新元素的 uuid 生成函数。
func WithIDGenerator(fn func() string) Option { return func(d *Document) { d.newID = fn } }

// New 创建空文档。
func New(opts ...Option) *Document {
	d := &Document{
		cfg:    config.Default(),
		newID:  uuid.NewString,
		multi:  selection.NewMulti(),
		hist:   history.New(),
		nav:    record.NewNavigator(),
		fields: record.NewFieldIndex(nil),
		values: map[string]string{},
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.log == nil {
		d.log = logger.Nop()
	}
	d.log = d.log.Named("document")
	d.store = store.New(d.log)
	if d.codec == nil {
		d.codec = udi.NewCodec(udi.WithLogger(d.log))
	}
	if d.board == nil {
		d.board = clipboard.New(
			clipboard.WithOffset(d.cfg.Editor.PasteOffset),
			clipboard.WithIDGenerator(d.newID),
			clipboard.WithLogger(d.log),
		)
	}
	return d
}

// Config 返回文档使用的配置。
func (d *Document) Config() config.Config {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cfg
}

// Paper 返回纸张设置。
func (d *Document) Paper() config.PaperConfig {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cfg.Paper
}

// SetPaper 修改纸张尺寸（mm），非正值被忽略。
func (d *Document) SetPaper(p config.PaperConfig) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if p.Width <= 0 || p.Height <= 0 {
		d.log.Warn("纸张尺寸无效，已忽略", "width", p.Width, "height", p.Height)
		return
	}
	d.cfg.Paper = p
}

// Codec 返回文档使用的 UDI 编解码器。
func (d *Document) Codec() *udi.Codec { return d.codec }

// Find 在两个集合中按 uuid 查找。
func (d *Document) Find(id string) (element.Element, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.store.Find(id)
}

// Elements 返回指定集合的快照。
func (d *Document) Elements(source element.SourceType) []element.Element {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.store.List(source)
}

// All 返回全部元素（画布在前）。
func (d *Document) All() []element.Element {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.store.All()
}

// History 返回历史记录快照与游标。
func (d *Document) History() ([]history.Entry, int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.hist.Entries(), d.hist.Cursor()
}

func (d *Document) CanUndo() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.hist.CanUndo()
}

func (d *Document) CanRedo() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.hist.CanRedo()
}

// Reset 清空两个集合、选择状态与历史。
func (d *Document) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.store.Reset(element.SourceBase)
	d.store.Reset(element.SourceTable)
	d.sel.Select(nil, false)
	d.multi.Clear()
	d.hist.Clear()
}

// Import 整体替换一个集合，不进入历史。
// 已有历史可能引用被替换的元素，因此导入成功后清空历史与选择。
func (d *Document) Import(source element.SourceType, list []element.Element) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.store.Import(source, list); err != nil {
		return err
	}
	d.sel.Select(nil, false)
	d.multi.Clear()
	d.hist.Clear()
	d.log.Info("导入元素", "collection", source, "count", len(list))
	return nil
}
