package selection

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ByLCY/papyrus-label/element"
)

func el(id string) element.Element {
	return element.Element{UUID: id, SourceType: element.SourceBase, Content: id}
}

func TestSelectReplacesWholesale(t *testing.T) {
	var s Selection
	a, b := el("a"), el("b")

	s.Select(&a, true)
	assert.True(t, s.IsEditing("a"))

	s.Select(&b, false)
	cur, ok := s.Current()
	assert.True(t, ok)
	assert.Equal(t, "b", cur.UUID)
	assert.False(t, s.Editing(), "编辑标记随选择一起替换")

	a.Content = "mutated"
	s.Select(&a, false)
	a.Content = "again"
	cur, _ = s.Current()
	assert.Equal(t, "mutated", cur.Content, "选择保存的是快照")

	s.Select(nil, true)
	_, ok = s.Current()
	assert.False(t, ok)
	assert.False(t, s.Editing())
}

func TestCommitEditKeepsSelection(t *testing.T) {
	var s Selection
	a := el("a")
	assert.False(t, s.CommitEdit())

	s.Select(&a, true)
	assert.True(t, s.CommitEdit())
	assert.False(t, s.Editing())
	assert.Equal(t, "a", s.ID())
}

func TestForgetOnlyMatchingID(t *testing.T) {
	var s Selection
	a := el("a")
	s.Select(&a, true)

	assert.False(t, s.Forget("b"))
	assert.Equal(t, "a", s.ID())
	assert.True(t, s.Forget("a"))
	assert.Empty(t, s.ID())
}

func TestRefresh(t *testing.T) {
	var s Selection
	a := el("a")
	s.Select(&a, true)
	updated := a
	updated.Content = "new"
	s.Refresh(updated)
	cur, _ := s.Current()
	assert.Equal(t, "new", cur.Content)
	assert.True(t, s.Editing())
}

func TestMultiAddIsIdempotent(t *testing.T) {
	m := NewMulti()
	assert.True(t, m.Add(el("a")))
	assert.False(t, m.Add(el("a")))
	assert.True(t, m.Add(el("b")))
	assert.Equal(t, 2, m.Len())
	assert.Equal(t, []string{"a", "b"}, m.IDs())

	assert.True(t, m.Remove("a"))
	assert.False(t, m.Remove("a"))
	assert.False(t, m.Contains("a"))

	m.SetAll([]element.Element{el("x"), el("y"), el("x")})
	assert.Equal(t, []string{"x", "y"}, m.IDs())

	m.Clear()
	assert.Zero(t, m.Len())
}
