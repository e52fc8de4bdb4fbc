package natives

import (
	"math"

	"jgvm/internal/object"
	"jgvm/internal/vm"
)

const MathClass = "java/lang/Math"

func registerMath(reg *vm.Registry) {
	b := NewBase(MathClass, "java/lang/Object")

	unary := func(f func(float64) float64) StaticFn {
		return func(reg *vm.Registry, args []object.Value) (object.Value, error) {
			n, _ := object.AsDouble(args[0])
			return object.Double(f(n)), nil
		}
	}
	b.Statics["sqrt"] = unary(math.Sqrt)
	b.Statics["abs"] = func(reg *vm.Registry, args []object.Value) (object.Value, error) {
		switch v := args[0].(type) {
		case object.Int:
			if v < 0 {
				return -v, nil
			}
			return v, nil
		case object.Long:
			if v < 0 {
				return -v, nil
			}
			return v, nil
		case object.Float:
			return object.Float(math.Abs(float64(v))), nil
		default:
			n, _ := object.AsDouble(args[0])
			return object.Double(math.Abs(n)), nil
		}
	}
	b.Statics["pow"] = func(reg *vm.Registry, args []object.Value) (object.Value, error) {
		a, _ := object.AsDouble(args[0])
		e, _ := object.AsDouble(args[1])
		return object.Double(math.Pow(a, e)), nil
	}
	b.Statics["max"] = func(reg *vm.Registry, args []object.Value) (object.Value, error) {
		return numericExtreme(args[0], args[1], true)
	}
	b.Statics["min"] = func(reg *vm.Registry, args []object.Value) (object.Value, error) {
		return numericExtreme(args[0], args[1], false)
	}
	b.Statics["floor"] = unary(math.Floor)
	b.Statics["ceil"] = unary(math.Ceil)
	b.Statics["random"] = func(reg *vm.Registry, args []object.Value) (object.Value, error) {
		return object.Double(0), nil
	}

	reg.RegisterNative(MathClass, func(reg *vm.Registry) vm.Class { return b })
}

func numericExtreme(a, b object.Value, max bool) (object.Value, error) {
	if ai, ok := a.(object.Int); ok {
		bi, _ := object.AsInt(b)
		if (max && int32(ai) >= bi) || (!max && int32(ai) <= bi) {
			return ai, nil
		}
		return object.Int(bi), nil
	}
	if al, ok := a.(object.Long); ok {
		bl, _ := object.AsLong(b)
		if (max && int64(al) >= bl) || (!max && int64(al) <= bl) {
			return al, nil
		}
		return object.Long(bl), nil
	}
	ad, _ := object.AsDouble(a)
	bd, _ := object.AsDouble(b)
	if (max && ad >= bd) || (!max && ad <= bd) {
		return object.Double(ad), nil
	}
	return object.Double(bd), nil
}
