package udi

import "sync"

// cacheKey 组合了决定符号外观的全部输入。
type cacheKey struct {
	content string
	width   float64
	height  float64
	color   string
}

// Cache 按 (内容, 宽, 高, 颜色) 缓存已生成的符号。
// 条目生成后不可变，容量不设上限。
type Cache struct {
	mu      sync.Mutex
	entries map[cacheKey]*Symbol
	hits    int
	misses  int
}

// NewCache 创建空缓存。
func NewCache() *Cache {
	return &Cache{entries: map[cacheKey]*Symbol{}}
}

func (c *Cache) get(k cacheKey) (*Symbol, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	sym, ok := c.entries[k]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return sym, ok
}

// put 写入条目；并发生成同一键时保留先写入者，保证调用方拿到同一个指针。
func (c *Cache) put(k cacheKey, sym *Symbol) *Symbol {
	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.entries[k]; ok {
		return existing
	}
	c.entries[k] = sym
	return sym
}

// Len 返回缓存条目数。
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats 返回命中与未命中次数。
func (c *Cache) Stats() (hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}
