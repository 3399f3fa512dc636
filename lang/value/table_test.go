package value_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/whimbree/clox/lang/value"
)

func intern(h *value.Heap, t *value.Table, s string) *value.ObjString {
	hash := value.HashFNV1a(s)
	if found := t.FindString(s, hash); found != nil {
		return found
	}
	obj := h.NewString(s, hash)
	t.Set(obj, value.Bool(true))
	return obj
}

func TestTableSetGetDelete(t *testing.T) {
	h := value.NewHeap()
	tbl := value.NewTable()
	foo := intern(h, value.NewTable(), "foo")

	isNew := tbl.Set(foo, value.Number(42))
	assert.True(t, isNew)

	v, ok := tbl.Get(foo)
	assert.True(t, ok)
	assert.Equal(t, value.Number(42), v)

	isNew = tbl.Set(foo, value.Number(43))
	assert.False(t, isNew)
	v, _ = tbl.Get(foo)
	assert.Equal(t, value.Number(43), v)

	assert.True(t, tbl.Delete(foo))
	_, ok = tbl.Get(foo)
	assert.False(t, ok)

	assert.False(t, tbl.Delete(foo))
}

func TestTableFindStringInterns(t *testing.T) {
	h := value.NewHeap()
	strs := value.NewTable()

	a := intern(h, strs, "hello")
	b := intern(h, strs, "hello")
	assert.Same(t, a, b)

	c := intern(h, strs, "world")
	assert.NotSame(t, a, c)
}

func TestTableGrowsPastLoadFactor(t *testing.T) {
	h := value.NewHeap()
	tbl := value.NewTable()
	names := make([]*value.ObjString, 0, 64)
	for i := 0; i < 64; i++ {
		s := intern(h, value.NewTable(), string(rune('a'+i%26))+string(rune('A'+i%26))+string(rune(i)))
		tbl.Set(s, value.Number(float64(i)))
		names = append(names, s)
	}
	for i, n := range names {
		v, ok := tbl.Get(n)
		assert.True(t, ok)
		assert.Equal(t, value.Number(float64(i)), v)
	}
}

func TestTableAddAll(t *testing.T) {
	h := value.NewHeap()
	strs := value.NewTable()
	src := value.NewTable()
	dst := value.NewTable()

	a := intern(h, strs, "greet")
	src.Set(a, value.Number(1))
	src.AddAll(dst)

	v, ok := dst.Get(a)
	assert.True(t, ok)
	assert.Equal(t, value.Number(1), v)
}

func TestTableRemoveWhite(t *testing.T) {
	h := value.NewHeap()
	strs := value.NewTable()
	live := intern(h, strs, "live")
	dead := intern(h, strs, "dead")
	live.IsMarked = true
	dead.IsMarked = false

	strs.RemoveWhite()

	assert.NotNil(t, strs.FindString("live", value.HashFNV1a("live")))
	assert.Nil(t, strs.FindString("dead", value.HashFNV1a("dead")))
}
