package value_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/whimbree/clox/lang/value"
)

func TestFalsey(t *testing.T) {
	assert.True(t, value.Nil.Falsey())
	assert.True(t, value.Bool(false).Falsey())
	assert.False(t, value.Bool(true).Falsey())
	assert.False(t, value.Number(0).Falsey())
	assert.False(t, value.Number(0).Falsey())
}

func TestEqual(t *testing.T) {
	assert.True(t, value.Equal(value.Number(1), value.Number(1)))
	assert.False(t, value.Equal(value.Number(1), value.Number(2)))
	assert.True(t, value.Equal(value.Nil, value.Nil))
	assert.False(t, value.Equal(value.Nil, value.Bool(false)))
	assert.True(t, value.Equal(value.Bool(true), value.Bool(true)))
}

func TestEqualStringsAreInternedIdentity(t *testing.T) {
	h := value.NewHeap()
	a := h.NewString("hi", value.HashFNV1a("hi"))
	b := h.NewString("hi", value.HashFNV1a("hi"))
	// two separate allocations of equal content are NOT equal without
	// going through the intern table: Value equality is reference identity.
	assert.False(t, value.Equal(value.FromObj(a), value.FromObj(b)))
	assert.True(t, value.Equal(value.FromObj(a), value.FromObj(a)))
}

func TestValueString(t *testing.T) {
	assert.Equal(t, "nil", value.Nil.String())
	assert.Equal(t, "true", value.Bool(true).String())
	assert.Equal(t, "7", value.Number(7).String())
	assert.Equal(t, "3.14", value.Number(3.14).String())
}
