package natives

import (
	"jgvm/internal/object"
	"jgvm/internal/vm"
)

// throwableHierarchy lists the standard exception classes this
// interpreter constructs on its own (array bounds, division by zero,
// bad casts, null dereferences) plus the common ones a compiled
// program is likely to construct and catch explicitly, wired into a
// SuperName chain so catch clauses written against a supertype (e.g.
// catching java/lang/Exception) match correctly.
var throwableHierarchy = []struct{ name, super string }{
	{"java/lang/Throwable", ""},
	{"java/lang/Exception", "java/lang/Throwable"},
	{"java/lang/RuntimeException", "java/lang/Exception"},
	{"java/lang/ArithmeticException", "java/lang/RuntimeException"},
	{"java/lang/NullPointerException", "java/lang/RuntimeException"},
	{"java/lang/ClassCastException", "java/lang/RuntimeException"},
	{"java/lang/ArrayIndexOutOfBoundsException", "java/lang/IndexOutOfBoundsException"},
	{"java/lang/IndexOutOfBoundsException", "java/lang/RuntimeException"},
	{"java/lang/NegativeArraySizeException", "java/lang/RuntimeException"},
	{"java/lang/IllegalArgumentException", "java/lang/RuntimeException"},
	{"java/lang/IllegalStateException", "java/lang/RuntimeException"},
	{"java/lang/NumberFormatException", "java/lang/IllegalArgumentException"},
	{"java/lang/UnsupportedOperationException", "java/lang/RuntimeException"},
	{"java/lang/Error", "java/lang/Throwable"},
	{"java/lang/Object", ""},
}

func registerThrowables(reg *vm.Registry) {
	for _, t := range throwableHierarchy {
		name, super := t.name, t.super
		b := NewBase(name, super)
		b.Methods["getMessage"] = func(reg *vm.Registry, this object.Value, args []object.Value) (object.Value, error) {
			if inst, ok := this.(interface {
				Field(string) (object.Value, bool)
			}); ok {
				if v, ok := inst.Field("message"); ok {
					return v, nil
				}
			}
			return object.Null{}, nil
		}
		b.Methods["toString"] = func(reg *vm.Registry, this object.Value, args []object.Value) (object.Value, error) {
			msg := ""
			if inst, ok := this.(interface {
				Field(string) (object.Value, bool)
			}); ok {
				if v, ok := inst.Field("message"); ok {
					if s, ok := object.AsString(v); ok && s != "" {
						msg = ": " + s
					}
				}
			}
			return object.Str(this.ClassName() + msg), nil
		}
		b.Methods["<init>"] = func(reg *vm.Registry, this object.Value, args []object.Value) (object.Value, error) {
			if inst, ok := this.(interface {
				SetField(string, object.Value)
			}); ok && len(args) > 0 {
				inst.SetField("message", args[0])
			}
			return nil, nil
		}
		reg.RegisterNative(name, func(reg *vm.Registry) vm.Class { return b })
	}
}
