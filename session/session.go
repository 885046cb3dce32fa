// Package session 持久化设计器的会话状态。每个状态块按名称保存为一段 JSON。
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// 状态块名称，与页面会话存储使用的键一致。
const (
	PrintElementList = "printElementListStore"
	PrintRecordList  = "printRecordListStore"
	RecordData       = "recordDataStore"
	FieldData        = "fieldDataStore"
)

// ErrNotFound 表示状态块不存在。
var ErrNotFound = errors.New("session: 状态不存在")

// Storage 保存按名称区分的状态块。
type Storage interface {
	Load(ctx context.Context, name string) ([]byte, error)
	Save(ctx context.Context, name string, data []byte) error
	Delete(ctx context.Context, name string) error
	Names(ctx context.Context) ([]string, error)
	Close() error
}

// SaveJSON 序列化 v 并保存到 name。
func SaveJSON(ctx context.Context, s Storage, name string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("session: 序列化 %s 失败: %w", name, err)
	}
	return s.Save(ctx, name, data)
}

// LoadJSON 读取 name 并反序列化到 v；不存在时返回 ErrNotFound。
func LoadJSON(ctx context.Context, s Storage, name string, v any) error {
	data, err := s.Load(ctx, name)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("session: 解析 %s 失败: %w", name, err)
	}
	return nil
}

// Memory 是进程内存储，生命周期同进程。
type Memory struct {
	mu     sync.RWMutex
	blocks map[string][]byte
}

var _ Storage = (*Memory)(nil)

// NewMemory 创建空的内存存储。
func NewMemory() *Memory {
	return &Memory{blocks: map[string][]byte{}}
}

func (m *Memory) Load(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.blocks[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return append([]byte(nil), data...), nil
}

func (m *Memory) Save(ctx context.Context, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blocks[name] = append([]byte(nil), data...)
	return nil
}

func (m *Memory) Delete(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.blocks, name)
	return nil
}

func (m *Memory) Names(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.blocks))
	for n := range m.blocks {
		names = append(names, n)
	}
	sort.Strings(names)
	return names, nil
}

func (m *Memory) Close() error { return nil }
