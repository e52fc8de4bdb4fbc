package natives

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jgvm/internal/object"
	"jgvm/internal/trace"
	"jgvm/internal/vm"
)

func newTestRegistry() *vm.Registry {
	return vm.NewRegistry(trace.New(trace.LevelSilent))
}

func base(t *testing.T, reg *vm.Registry, className string) *Base {
	t.Helper()
	c, err := reg.Get(className)
	require.NoError(t, err)
	b, ok := c.(*Base)
	require.True(t, ok, "%s must be backed by *Base", className)
	return b
}

func TestIntegerParseInt(t *testing.T) {
	reg := newTestRegistry()
	registerInteger(reg)
	b := base(t, reg, IntegerClass)

	n, err := b.Statics["parseInt"](reg, []object.Value{object.Str("42")})
	require.NoError(t, err)
	assert.Equal(t, object.Int(42), n)

	_, err = b.Statics["parseInt"](reg, []object.Value{object.Str("not a number")})
	require.Error(t, err)
	jerr, ok := err.(*numberFormat)
	require.True(t, ok)
	assert.Equal(t, "java/lang/NumberFormatException", jerr.JavaClass())
}

func TestIntegerMinMax(t *testing.T) {
	reg := newTestRegistry()
	registerInteger(reg)
	b := base(t, reg, IntegerClass)

	max, err := b.Statics["max"](reg, []object.Value{object.Int(3), object.Int(7)})
	require.NoError(t, err)
	assert.Equal(t, object.Int(7), max)

	min, err := b.Statics["min"](reg, []object.Value{object.Int(3), object.Int(7)})
	require.NoError(t, err)
	assert.Equal(t, object.Int(3), min)
}

func TestStringStartsWithAndSplit(t *testing.T) {
	reg := newTestRegistry()
	registerString(reg)
	b := base(t, reg, StringClass)

	this := object.Str("hello,world,again")
	ok, err := b.Methods["startsWith"](reg, this, []object.Value{object.Str("hello")})
	require.NoError(t, err)
	assert.Equal(t, object.Bool(true), ok)

	parts, err := b.Methods["split"](reg, this, []object.Value{object.Str(",")})
	require.NoError(t, err)
	arr, ok := object.AsArray(parts)
	require.True(t, ok)
	require.Equal(t, 3, arr.Len())
	assert.Equal(t, object.Str("world"), arr.Elements[1])
}

func TestStringFormat(t *testing.T) {
	reg := newTestRegistry()
	registerString(reg)
	b := base(t, reg, StringClass)

	result, err := b.Statics["format"](reg, []object.Value{
		object.Str("%s scored %d points (%.0f%%)"),
		object.Str("Ana"),
		object.Int(7),
		object.Double(87.5),
	})
	require.NoError(t, err)
	assert.Equal(t, object.Str("Ana scored 7 points (87.500000%)"), result)
}

func TestStringCharAtOutOfBounds(t *testing.T) {
	reg := newTestRegistry()
	registerString(reg)
	b := base(t, reg, StringClass)

	_, err := b.Methods["charAt"](reg, object.Str("hi"), []object.Value{object.Int(5)})
	require.Error(t, err)
	_, ok := err.(*indexOutOfBounds)
	assert.True(t, ok)
}

func TestMathAbsPreservesNumericKind(t *testing.T) {
	reg := newTestRegistry()
	registerMath(reg)
	b := base(t, reg, MathClass)

	i, err := b.Statics["abs"](reg, []object.Value{object.Int(-5)})
	require.NoError(t, err)
	assert.Equal(t, object.Int(5), i)

	l, err := b.Statics["abs"](reg, []object.Value{object.Long(-9)})
	require.NoError(t, err)
	assert.Equal(t, object.Long(9), l)
}

func TestMathMaxDoubles(t *testing.T) {
	reg := newTestRegistry()
	registerMath(reg)
	b := base(t, reg, MathClass)

	result, err := b.Statics["max"](reg, []object.Value{object.Double(1.5), object.Double(2.5)})
	require.NoError(t, err)
	assert.Equal(t, object.Double(2.5), result)
}

func TestArraysToStringAndFill(t *testing.T) {
	reg := newTestRegistry()
	registerArrays(reg)
	b := base(t, reg, ArraysClass)

	arr := object.NewArray("I", 3, object.Int(0))
	_, err := b.Statics["fill"](reg, []object.Value{arr, object.Int(9)})
	require.NoError(t, err)

	s, err := b.Statics["toString"](reg, []object.Value{arr})
	require.NoError(t, err)
	assert.Equal(t, object.Str("[9, 9, 9]"), s)
}

func TestArraysAsListIsIndependentOfBackingArray(t *testing.T) {
	reg := newTestRegistry()
	registerArrays(reg)
	registerArrayList(reg)
	b := base(t, reg, ArraysClass)

	arr := object.NewArray("I", 2, object.Int(0))
	arr.Elements[0] = object.Int(1)
	arr.Elements[1] = object.Int(2)

	listVal, err := b.Statics["asList"](reg, []object.Value{arr})
	require.NoError(t, err)
	list := listVal.(*arrayListInstance)
	require.Len(t, list.elems, 2)

	arr.Elements[0] = object.Int(99)
	assert.Equal(t, object.Int(1), list.elems[0], "asList must copy, not alias, the source array")
}

func TestArrayListAddGetRemove(t *testing.T) {
	reg := newTestRegistry()
	registerArrayList(reg)
	b := base(t, reg, ArrayListClass)

	inst, err := b.New(reg)
	require.NoError(t, err)

	_, err = b.Methods["add"](reg, inst, []object.Value{object.Str("a")})
	require.NoError(t, err)
	_, err = b.Methods["add"](reg, inst, []object.Value{object.Str("b")})
	require.NoError(t, err)

	size, err := b.Methods["size"](reg, inst, nil)
	require.NoError(t, err)
	assert.Equal(t, object.Int(2), size)

	got, err := b.Methods["get"](reg, inst, []object.Value{object.Int(0)})
	require.NoError(t, err)
	assert.Equal(t, object.Str("a"), got)

	_, err = b.Methods["get"](reg, inst, []object.Value{object.Int(5)})
	require.Error(t, err)

	removed, err := b.Methods["remove"](reg, inst, []object.Value{object.Int(0)})
	require.NoError(t, err)
	assert.Equal(t, object.Str("a"), removed)

	size, err = b.Methods["size"](reg, inst, nil)
	require.NoError(t, err)
	assert.Equal(t, object.Int(1), size)
}

func TestArrayListSortNaturalOrder(t *testing.T) {
	reg := newTestRegistry()
	registerArrayList(reg)
	b := base(t, reg, ArrayListClass)

	inst, err := b.New(reg)
	require.NoError(t, err)
	for _, n := range []int32{3, 1, 2} {
		_, err := b.Methods["add"](reg, inst, []object.Value{object.Int(n)})
		require.NoError(t, err)
	}

	_, err = b.Methods["sort"](reg, inst, nil)
	require.NoError(t, err)

	l := inst.(*arrayListInstance)
	assert.Equal(t, []object.Value{object.Int(1), object.Int(2), object.Int(3)}, l.elems)
}

func TestArrayListStreamCountsElements(t *testing.T) {
	reg := newTestRegistry()
	registerArrayList(reg)
	registerStream(reg)
	b := base(t, reg, ArrayListClass)

	inst, err := b.New(reg)
	require.NoError(t, err)
	_, err = b.Methods["add"](reg, inst, []object.Value{object.Int(1)})
	require.NoError(t, err)
	_, err = b.Methods["add"](reg, inst, []object.Value{object.Int(2)})
	require.NoError(t, err)

	streamVal, err := b.Methods["stream"](reg, inst, nil)
	require.NoError(t, err)

	sb := base(t, reg, StreamClass)
	count, err := sb.Methods["count"](reg, streamVal, nil)
	require.NoError(t, err)
	assert.Equal(t, object.Long(2), count)
}

func TestThrowableGetMessageAndToString(t *testing.T) {
	reg := newTestRegistry()
	registerThrowables(reg)
	b := base(t, reg, "java/lang/RuntimeException")

	inst, err := b.New(reg)
	require.NoError(t, err)

	err = b.ExecuteMethod(reg, nil, "<init>", inst, []object.Value{object.Str("boom")})
	require.NoError(t, err)

	msg, err := b.Methods["getMessage"](reg, inst, nil)
	require.NoError(t, err)
	assert.Equal(t, object.Str("boom"), msg)

	str, err := b.Methods["toString"](reg, inst, nil)
	require.NoError(t, err)
	assert.Equal(t, object.Str("java/lang/RuntimeException: boom"), str)
}
