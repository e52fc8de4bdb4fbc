package object

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStrictCoercions(t *testing.T) {
	_, ok := AsInt(Byte(5))
	assert.False(t, ok, "AsInt must not widen a Byte")

	n, ok := AsInt(Int(5))
	require.True(t, ok)
	assert.Equal(t, int32(5), n)

	_, ok = AsLong(Int(5))
	assert.False(t, ok, "AsLong must not widen an Int")

	l, ok := AsLong(Long(5))
	require.True(t, ok)
	assert.Equal(t, int64(5), l)
}

func TestArrayIsSharedByReference(t *testing.T) {
	arr := NewArray("I", 3, Int(0))
	alias := arr
	alias.Elements[1] = Int(42)
	assert.Equal(t, Int(42), arr.Elements[1])
	assert.Equal(t, "[I", arr.ClassName())
}

func TestObjectFieldDelegatesToParent(t *testing.T) {
	parent := NewObject("A", nil)
	parent.SetField("x", Int(1))
	child := NewObject("B", parent)

	v, ok := child.Field("x")
	require.True(t, ok)
	assert.Equal(t, Int(1), v)

	child.SetField("x", Int(2))
	pv, _ := parent.Field("x")
	assert.Equal(t, Int(2), pv, "an inherited field write goes to where the field was declared")

	child.SetField("y", Int(3))
	_, ok = parent.Field("y")
	assert.False(t, ok, "a field declared only on the child must not leak to the parent")
}

func TestObjectSupportsInterfaceWalksParentChain(t *testing.T) {
	grandparent := NewObject("java/lang/Object", nil)
	parent := NewObject("A", grandparent)
	child := NewObject("B", parent)

	assert.True(t, child.SupportsInterface("B"))
	assert.True(t, child.SupportsInterface("A"))
	assert.True(t, child.SupportsInterface("java/lang/Object"))
	assert.False(t, child.SupportsInterface("C"))
}

func TestNullIsDistinctFromEveryValue(t *testing.T) {
	var n Value = Null{}
	assert.True(t, n.IsNull())
	assert.False(t, Int(0).IsNull())
	assert.False(t, Str("").IsNull())
}
