package vm

import (
	"math"

	"jgvm/internal/classfile"
	"jgvm/internal/object"
)

func mustInt(v object.Value) int32 {
	n, ok := object.AsInt(v)
	if !ok {
		panic(faultf("expected int, got %s", v.ClassName()))
	}
	return n
}

func mustLong(v object.Value) int64 {
	n, ok := object.AsLong(v)
	if !ok {
		panic(faultf("expected long, got %s", v.ClassName()))
	}
	return n
}

func mustFloat(v object.Value) float32 {
	n, ok := object.AsFloat(v)
	if !ok {
		panic(faultf("expected float, got %s", v.ClassName()))
	}
	return n
}

func mustDouble(v object.Value) float64 {
	n, ok := object.AsDouble(v)
	if !ok {
		panic(faultf("expected double, got %s", v.ClassName()))
	}
	return n
}

func mustArray(v object.Value) *object.Array {
	a, ok := object.AsArray(v)
	if !ok {
		panic(faultf("expected array, got %s", v.ClassName()))
	}
	return a
}

func mustBool(v object.Value) bool {
	b, ok := object.AsBool(v)
	if !ok {
		panic(faultf("expected boolean, got %s", v.ClassName()))
	}
	return b
}

// lcmp/fcmpl/fcmpg/dcmpl/dcmpg all reduce to pushing -1/0/1, differing
// only in how a NaN operand is treated: fcmpg/dcmpg push 1 on NaN,
// fcmpl/dcmpl push -1, matching javac's compiled comparisons against
// NaN.
func cmpLong(a, b int64) int32 {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func cmpFloat(a, b float32, nanIsGreater bool) int32 {
	if math.IsNaN(float64(a)) || math.IsNaN(float64(b)) {
		if nanIsGreater {
			return 1
		}
		return -1
	}
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func cmpDouble(a, b float64, nanIsGreater bool) int32 {
	if math.IsNaN(a) || math.IsNaN(b) {
		if nanIsGreater {
			return 1
		}
		return -1
	}
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// widenToInt reproduces the sign/zero-extension a real JVM applies
// when baload/caload/saload lift a narrow array element onto the
// operand stack, where every int-category value lives as a plain
// int32.
func widenToInt(v object.Value) int32 {
	switch e := v.(type) {
	case object.Byte:
		return int32(e)
	case object.Char:
		return int32(e)
	case object.Short:
		return int32(e)
	case object.Bool:
		if e {
			return 1
		}
		return 0
	default:
		n, ok := object.AsInt(v)
		if !ok {
			panic(faultf("expected narrow array element, got %s", v.ClassName()))
		}
		return n
	}
}

// narrowArrayElem reproduces bastore/castore/sastore's truncation of
// the popped int back down to the array's declared element width.
// bastore also backs the boolean-array case, since boolean[] and
// byte[] share an opcode and storage width on a real JVM.
func narrowArrayElem(op classfile.Op, v int32) object.Value {
	switch op {
	case classfile.OpBastore:
		return object.Byte(int8(v))
	case classfile.OpCastore:
		return object.Char(uint16(v))
	case classfile.OpSastore:
		return object.Short(int16(v))
	default:
		return object.Int(v)
	}
}
