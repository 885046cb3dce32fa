package record

import "sync"

// Token 标记一次异步取值所针对的记录。
// Seq 在每次切换当前记录时递增，旧 Token 因此失效。
type Token struct {
	RecordID string
	Seq      uint64
}

// State 是导航状态的可持久化快照。
type State struct {
	RecordIndex    int      `json:"recordIndex"`
	RecordIDs      []string `json:"recordIds"`
	RecordsTotal   int      `json:"recordsTotal"`
	ActiveRecordID string   `json:"activeRecordId"`
}

// Navigator 维护记录列表与当前记录，可在多个 goroutine 中使用。
type Navigator struct {
	mu     sync.Mutex
	ids    []string
	index  int
	active string
	seq    uint64
}

// NewNavigator 创建空导航器。
func NewNavigator() *Navigator { return &Navigator{} }

// SetRecordIDs 替换记录列表，保留当前下标（越界时夹到范围内）。
func (n *Navigator) SetRecordIDs(ids []string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.ids = append([]string(nil), ids...)
	if n.index >= len(n.ids) {
		n.index = len(n.ids) - 1
	}
	if n.index < 0 {
		n.index = 0
	}
	active := ""
	if len(n.ids) > 0 {
		active = n.ids[n.index]
	}
	n.activate(active)
}

func (n *Navigator) activate(id string) {
	n.active = id
	n.seq++
}

// Next 前进一条记录，已在末尾时返回 false。
func (n *Navigator) Next() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.index >= len(n.ids)-1 {
		return false
	}
	n.index++
	n.activate(n.ids[n.index])
	return true
}

// Prev 后退一条记录，已在开头时返回 false。
func (n *Navigator) Prev() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.index <= 0 || len(n.ids) == 0 {
		return false
	}
	n.index--
	n.activate(n.ids[n.index])
	return true
}

// SetActive 响应外部的记录选择。记录在列表中时同步下标。
func (n *Navigator) SetActive(id string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for i, rid := range n.ids {
		if rid == id {
			n.index = i
			break
		}
	}
	n.activate(id)
}

func (n *Navigator) CanNext() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.index < len(n.ids)-1
}

func (n *Navigator) CanPrev() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.index > 0
}

// Active 返回当前记录 id。
func (n *Navigator) Active() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.active
}

// Len 返回记录总数。
func (n *Navigator) Len() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.ids)
}

// Token 返回当前记录的取值令牌。
func (n *Navigator) Token() Token {
	n.mu.Lock()
	defer n.mu.Unlock()
	return Token{RecordID: n.active, Seq: n.seq}
}

// Check 在令牌过期时返回 ErrStale。
func (n *Navigator) Check(t Token) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if t.Seq != n.seq || t.RecordID != n.active {
		return ErrStale
	}
	return nil
}

// State 导出快照。
func (n *Navigator) State() State {
	n.mu.Lock()
	defer n.mu.Unlock()
	return State{
		RecordIndex:    n.index,
		RecordIDs:      append([]string(nil), n.ids...),
		RecordsTotal:   len(n.ids),
		ActiveRecordID: n.active,
	}
}

// Restore 从快照恢复，同时使所有已发出的令牌失效。
func (n *Navigator) Restore(s State) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.ids = append([]string(nil), s.RecordIDs...)
	n.index = s.RecordIndex
	if n.index >= len(n.ids) {
		n.index = len(n.ids) - 1
	}
	if n.index < 0 {
		n.index = 0
	}
	n.activate(s.ActiveRecordID)
}
