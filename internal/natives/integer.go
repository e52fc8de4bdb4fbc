package natives

import (
	"fmt"
	"strconv"

	"jgvm/internal/object"
	"jgvm/internal/vm"
)

const IntegerClass = "java/lang/Integer"

func registerInteger(reg *vm.Registry) {
	b := NewBase(IntegerClass, "java/lang/Object")
	b.Fields["MAX_VALUE"] = object.Int(1<<31 - 1)
	b.Fields["MIN_VALUE"] = object.Int(-1 << 31)

	b.Statics["parseInt"] = func(reg *vm.Registry, args []object.Value) (object.Value, error) {
		s, ok := object.AsString(args[0])
		if !ok {
			return nil, fmt.Errorf("Integer.parseInt: argument is not a String")
		}
		n, err := strconv.ParseInt(s, 10, 32)
		if err != nil {
			return nil, &numberFormat{s}
		}
		return object.Int(int32(n)), nil
	}
	b.Statics["valueOf"] = func(reg *vm.Registry, args []object.Value) (object.Value, error) {
		if s, ok := object.AsString(args[0]); ok {
			n, err := strconv.ParseInt(s, 10, 32)
			if err != nil {
				return nil, &numberFormat{s}
			}
			return object.Int(int32(n)), nil
		}
		return args[0], nil
	}
	b.Statics["toString"] = func(reg *vm.Registry, args []object.Value) (object.Value, error) {
		n, ok := object.AsInt(args[0])
		if !ok {
			return nil, fmt.Errorf("Integer.toString: argument is not an int")
		}
		return object.Str(strconv.Itoa(int(n))), nil
	}
	b.Statics["max"] = func(reg *vm.Registry, args []object.Value) (object.Value, error) {
		a, _ := object.AsInt(args[0])
		c, _ := object.AsInt(args[1])
		if a > c {
			return object.Int(a), nil
		}
		return object.Int(c), nil
	}
	b.Statics["min"] = func(reg *vm.Registry, args []object.Value) (object.Value, error) {
		a, _ := object.AsInt(args[0])
		c, _ := object.AsInt(args[1])
		if a < c {
			return object.Int(a), nil
		}
		return object.Int(c), nil
	}

	reg.RegisterNative(IntegerClass, func(reg *vm.Registry) vm.Class { return b })
}

// numberFormat implements error for parseInt's failure path, wrapped
// by callers (via the registry) into a catchable
// java/lang/NumberFormatException the same way arithmetic/array
// faults are.
type numberFormat struct{ input string }

func (n *numberFormat) Error() string {
	return fmt.Sprintf("For input string: %q", n.input)
}

func (n *numberFormat) JavaClass() string { return "java/lang/NumberFormatException" }
