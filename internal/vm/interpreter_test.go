package vm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jgvm/internal/classfile"
	"jgvm/internal/object"
	"jgvm/internal/trace"
)

func newTestRegistry() *Registry {
	return NewRegistry(trace.New(trace.LevelSilent))
}

// staticClass registers one static method under className/methodName and
// returns the class it's installed in, so tests can drive it with
// RunStatic exactly the way cmd/jgvm does.
func staticClass(reg *Registry, className, methodName string, m *classfile.Method) Class {
	file := &classfile.Class{
		Name:             className,
		Methods:          map[string]*classfile.Method{methodName: m},
		StaticFields:     map[string]object.Value{},
		StaticFieldDescs: map[string]string{},
	}
	c := newLoadedClass(reg, file)
	reg.classes[className] = c
	return c
}

func TestRunStaticSimpleReturn(t *testing.T) {
	reg := newTestRegistry()
	m := &classfile.Method{
		Name:     "answer",
		IsStatic: true,
		Code: []classfile.Instruction{
			{Op: classfile.OpBipush, Push: object.Int(42)},
			{Op: classfile.OpIreturn},
		},
	}
	c := staticClass(reg, "Test", "answer", m)

	result, err := RunStatic(reg, c, "answer", nil)
	require.NoError(t, err)
	assert.Equal(t, object.Int(42), result)
}

func TestRunStaticLoopAndSum(t *testing.T) {
	// local 1: i = 0; local 2: sum = 0
	// loop: if i >= 10 goto done
	//   sum += i; i++; goto loop
	// done: return sum
	reg := newTestRegistry()
	m := &classfile.Method{
		Name:     "sum",
		IsStatic: true,
		Code: []classfile.Instruction{
			/*0*/ {Op: classfile.OpIconst0},
			/*1*/ {Op: classfile.OpIstore1, VarIndex: 1},
			/*2*/ {Op: classfile.OpIconst0},
			/*3*/ {Op: classfile.OpIstore2, VarIndex: 2},
			/*4*/ {Op: classfile.OpIload1, VarIndex: 1},
			/*5*/ {Op: classfile.OpBipush, Push: object.Int(10)},
			/*6*/ {Op: classfile.OpIfIcmpge, Branch: 13},
			/*7*/ {Op: classfile.OpIload2, VarIndex: 2},
			/*8*/ {Op: classfile.OpIload1, VarIndex: 1},
			/*9*/ {Op: classfile.OpIadd},
			/*10*/ {Op: classfile.OpIstore2, VarIndex: 2},
			/*11*/ {Op: classfile.OpIinc, VarIndex: 1, IincDelta: 1},
			/*12*/ {Op: classfile.OpGoto, Branch: 4},
			/*13*/ {Op: classfile.OpIload2, VarIndex: 2},
			/*14*/ {Op: classfile.OpIreturn},
		},
	}
	c := staticClass(reg, "Test", "sum", m)

	result, err := RunStatic(reg, c, "sum", nil)
	require.NoError(t, err)
	assert.Equal(t, object.Int(45), result)
}

func TestDivideByZeroIsCatchable(t *testing.T) {
	// iconst_5; iconst_0; idiv  -> exception, caught by handler that
	// pushes -1 and returns it
	reg := newTestRegistry()
	m := &classfile.Method{
		Name:     "divOrCatch",
		IsStatic: true,
		Code: []classfile.Instruction{
			/*0*/ {Op: classfile.OpIconst5},
			/*1*/ {Op: classfile.OpIconst0},
			/*2*/ {Op: classfile.OpIdiv},
			/*3*/ {Op: classfile.OpIreturn},
			/*4*/ {Op: classfile.OpPop}, // handler: discard exception value
			/*5*/ {Op: classfile.OpIconstM1},
			/*6*/ {Op: classfile.OpIreturn},
		},
		Exceptions: []classfile.ExceptionHandler{
			{Start: 0, End: 3, Handler: 4, ClassName: "java/lang/ArithmeticException"},
		},
	}
	c := staticClass(reg, "Test", "divOrCatch", m)

	result, err := RunStatic(reg, c, "divOrCatch", nil)
	require.NoError(t, err)
	assert.Equal(t, object.Int(-1), result)
}

func TestUncaughtExceptionPropagates(t *testing.T) {
	reg := newTestRegistry()
	m := &classfile.Method{
		Name:     "boom",
		IsStatic: true,
		Code: []classfile.Instruction{
			{Op: classfile.OpIconst1},
			{Op: classfile.OpIconst0},
			{Op: classfile.OpIdiv},
			{Op: classfile.OpIreturn},
		},
	}
	c := staticClass(reg, "Test", "boom", m)

	_, err := RunStatic(reg, c, "boom", nil)
	require.Error(t, err)
	excVal, ok := UncaughtValue(err)
	require.True(t, ok)
	assert.Equal(t, "java/lang/ArithmeticException", excVal.ClassName())
}

func TestStackUnderflowIsFatalFault(t *testing.T) {
	reg := newTestRegistry()
	m := &classfile.Method{
		Name:     "underflow",
		IsStatic: true,
		Code: []classfile.Instruction{
			{Op: classfile.OpIreturn}, // nothing pushed first
		},
	}
	c := staticClass(reg, "Test", "underflow", m)

	_, err := RunStatic(reg, c, "underflow", nil)
	require.Error(t, err)
	_, uncaught := UncaughtValue(err)
	assert.False(t, uncaught, "a stack underflow must never look like a catchable Java exception")
	var fault *Fault
	assert.ErrorAs(t, err, &fault)
}

func TestLogicalShiftIsUnsigned(t *testing.T) {
	reg := newTestRegistry()
	m := &classfile.Method{
		Name:     "ushr",
		IsStatic: true,
		Code: []classfile.Instruction{
			{Op: classfile.OpBipush, Push: object.Int(-1)}, // 0xFFFFFFFF
			{Op: classfile.OpBipush, Push: object.Int(28)},
			{Op: classfile.OpIushr},
			{Op: classfile.OpIreturn},
		},
	}
	c := staticClass(reg, "Test", "ushr", m)

	result, err := RunStatic(reg, c, "ushr", nil)
	require.NoError(t, err)
	assert.Equal(t, object.Int(15), result, "-1 >>> 28 must be the top 4 bits, not sign-extended")
}

func TestNaNComparisonMatchesFcmplFcmpg(t *testing.T) {
	reg := newTestRegistry()
	nan := object.Float(float32(nanValue()))

	gMethod := &classfile.Method{
		Name:     "g",
		IsStatic: true,
		Code: []classfile.Instruction{
			{Op: classfile.OpLdc, Push: nan},
			{Op: classfile.OpLdc, Push: object.Float(1)},
			{Op: classfile.OpFcmpg},
			{Op: classfile.OpIreturn},
		},
	}
	lMethod := &classfile.Method{
		Name:     "l",
		IsStatic: true,
		Code: []classfile.Instruction{
			{Op: classfile.OpLdc, Push: nan},
			{Op: classfile.OpLdc, Push: object.Float(1)},
			{Op: classfile.OpFcmpl},
			{Op: classfile.OpIreturn},
		},
	}
	file := &classfile.Class{
		Name: "Test",
		Methods: map[string]*classfile.Method{
			"g": gMethod,
			"l": lMethod,
		},
		StaticFields:     map[string]object.Value{},
		StaticFieldDescs: map[string]string{},
	}
	c := newLoadedClass(reg, file)
	reg.classes["Test"] = c

	g, err := RunStatic(reg, c, "g", nil)
	require.NoError(t, err)
	assert.Equal(t, object.Int(1), g)

	l, err := RunStatic(reg, c, "l", nil)
	require.NoError(t, err)
	assert.Equal(t, object.Int(-1), l)
}

func nanValue() float64 {
	var zero float64
	return zero / zero
}

func TestReferenceIdentityComparesValuesNotSlots(t *testing.T) {
	a := object.NewObject("java/lang/Object", nil)
	b := object.NewObject("java/lang/Object", nil)

	assert.True(t, sameReference(a, a))
	assert.False(t, sameReference(a, b), "two distinct instances must not compare reference-equal")
	assert.True(t, sameReference(object.Null{}, object.Null{}))
}

func TestArrayCastRemapIsSymmetric(t *testing.T) {
	reg := newTestRegistry()
	arr := object.NewArray("I", 2, object.Int(0))

	assert.True(t, castOK(reg, arr, "[I"), "an int array must cast to its own array type")
	assert.True(t, castOK(reg, arr, "java/lang/Object"), "an array must be castable to Object without registering [I")
}

func TestInstanceofIsExactClassNameOnly(t *testing.T) {
	parent := object.NewObject("java/lang/Object", nil)
	child := object.NewObject("Dog", parent)

	assert.True(t, instanceofCheck(child, "Dog"))
	assert.False(t, instanceofCheck(child, "java/lang/Object"), "instanceof does not walk the ancestor chain in this implementation")
}

func TestArrayElementWidthRoundTrips(t *testing.T) {
	assert.Equal(t, object.Byte(-1), narrowArrayElem(classfile.OpBastore, -1))
	assert.Equal(t, int32(-1), widenToInt(object.Byte(-1)))
	assert.Equal(t, object.Char(65), narrowArrayElem(classfile.OpCastore, 65))
	assert.Equal(t, int32(65), widenToInt(object.Char(65)))
}
