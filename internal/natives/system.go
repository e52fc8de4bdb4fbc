package natives

import (
	"fmt"
	"os"

	"jgvm/internal/object"
	"jgvm/internal/vm"
)

const SystemClass = "java/lang/System"

type indexOutOfBounds struct{}

func (*indexOutOfBounds) Error() string    { return "array index out of range" }
func (*indexOutOfBounds) JavaClass() string { return "java/lang/ArrayIndexOutOfBoundsException" }

func registerSystem(reg *vm.Registry) {
	b := NewBase(SystemClass, "java/lang/Object")

	b.Statics["exit"] = func(reg *vm.Registry, args []object.Value) (object.Value, error) {
		code := 0
		if len(args) > 0 {
			if n, ok := object.AsInt(args[0]); ok {
				code = int(n)
			}
		}
		os.Exit(code)
		return nil, nil
	}

	b.Statics["currentTimeMillis"] = func(reg *vm.Registry, args []object.Value) (object.Value, error) {
		return object.Long(0), nil
	}

	b.Statics["arraycopy"] = func(reg *vm.Registry, args []object.Value) (object.Value, error) {
		if len(args) != 5 {
			return nil, fmt.Errorf("System.arraycopy expects 5 arguments, got %d", len(args))
		}
		src, ok := object.AsArray(args[0])
		if !ok {
			return nil, fmt.Errorf("System.arraycopy: src is not an array")
		}
		srcPos, _ := object.AsInt(args[1])
		dst, ok := object.AsArray(args[2])
		if !ok {
			return nil, fmt.Errorf("System.arraycopy: dst is not an array")
		}
		dstPos, _ := object.AsInt(args[3])
		length, _ := object.AsInt(args[4])
		if srcPos < 0 || dstPos < 0 || length < 0 ||
			int(srcPos+length) > src.Len() || int(dstPos+length) > dst.Len() {
			return nil, &indexOutOfBounds{}
		}
		copy(dst.Elements[dstPos:dstPos+length], src.Elements[srcPos:srcPos+length])
		return nil, nil
	}

	reg.RegisterNative(SystemClass, func(reg *vm.Registry) vm.Class {
		psClass, err := reg.Get(PrintStreamClass)
		if err == nil {
			if out, err := psClass.New(reg); err == nil {
				if ps, ok := out.(*printStreamInstance); ok {
					ps.out = os.Stdout
				}
				b.Fields["out"] = out
			}
			if errOut, err := psClass.New(reg); err == nil {
				if ps, ok := errOut.(*printStreamInstance); ok {
					ps.out = os.Stderr
				}
				b.Fields["err"] = errOut
			}
		}
		return b
	})
}
