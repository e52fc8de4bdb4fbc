package natives

import (
	"strings"

	"jgvm/internal/object"
	"jgvm/internal/vm"
)

const ArraysClass = "java/util/Arrays"

func registerArrays(reg *vm.Registry) {
	b := NewBase(ArraysClass, "java/lang/Object")

	b.Statics["toString"] = func(reg *vm.Registry, args []object.Value) (object.Value, error) {
		arr, ok := object.AsArray(args[0])
		if !ok || arr == nil {
			return object.Str("null"), nil
		}
		parts := make([]string, arr.Len())
		for i, e := range arr.Elements {
			parts[i] = displayArg(e)
		}
		return object.Str("[" + strings.Join(parts, ", ") + "]"), nil
	}

	b.Statics["fill"] = func(reg *vm.Registry, args []object.Value) (object.Value, error) {
		arr, ok := object.AsArray(args[0])
		if !ok {
			return nil, nil
		}
		for i := range arr.Elements {
			arr.Elements[i] = args[1]
		}
		return nil, nil
	}

	b.Statics["equals"] = func(reg *vm.Registry, args []object.Value) (object.Value, error) {
		a, aok := object.AsArray(args[0])
		c, cok := object.AsArray(args[1])
		if !aok || !cok {
			return object.Bool(aok == cok), nil
		}
		if a.Len() != c.Len() {
			return object.Bool(false), nil
		}
		for i := range a.Elements {
			if displayArg(a.Elements[i]) != displayArg(c.Elements[i]) {
				return object.Bool(false), nil
			}
		}
		return object.Bool(true), nil
	}

	b.Statics["sort"] = func(reg *vm.Registry, args []object.Value) (object.Value, error) {
		arr, ok := object.AsArray(args[0])
		if !ok {
			return nil, nil
		}
		sortValues(reg, arr.Elements, nil)
		return nil, nil
	}

	b.Statics["asList"] = func(reg *vm.Registry, args []object.Value) (object.Value, error) {
		arr, ok := object.AsArray(args[0])
		if !ok {
			return nil, nil
		}
		return newArrayList(append([]object.Value{}, arr.Elements...)), nil
	}

	reg.RegisterNative(ArraysClass, func(reg *vm.Registry) vm.Class { return b })
}
