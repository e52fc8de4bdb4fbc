package natives

import (
	"fmt"
	"os"

	"jgvm/internal/object"
	"jgvm/internal/vm"
)

const PrintStreamClass = "java/io/PrintStream"

// printStreamInstance backs java.io.PrintStream with a real
// io.Writer (os.Stdout or os.Stderr) so println/print have somewhere
// to go; it embeds object.Object purely so it still satisfies the
// Field/SetField/Parent contract the interpreter's getfield/putfield
// and exception matching rely on, even though PrintStream declares
// no visible fields of its own.
type printStreamInstance struct {
	*object.Object
	out *os.File
}

func registerPrintStream(reg *vm.Registry) {
	b := NewBase(PrintStreamClass, "java/lang/Object")
	b.NewFn = func(reg *vm.Registry) (object.Value, error) {
		return &printStreamInstance{Object: object.NewObject(PrintStreamClass, nil), out: os.Stdout}, nil
	}
	printer := func(this object.Value, args []object.Value, newline bool) (object.Value, error) {
		ps, ok := this.(*printStreamInstance)
		if !ok {
			return nil, fmt.Errorf("println called on non-PrintStream receiver")
		}
		text := ""
		if len(args) > 0 {
			text = displayArg(args[0])
		}
		if newline {
			fmt.Fprintln(ps.out, text)
		} else {
			fmt.Fprint(ps.out, text)
		}
		return nil, nil
	}
	b.Methods["println"] = func(reg *vm.Registry, this object.Value, args []object.Value) (object.Value, error) {
		return printer(this, args, true)
	}
	b.Methods["print"] = func(reg *vm.Registry, this object.Value, args []object.Value) (object.Value, error) {
		return printer(this, args, false)
	}
	b.Methods["flush"] = func(reg *vm.Registry, this object.Value, args []object.Value) (object.Value, error) {
		return nil, nil
	}
	reg.RegisterNative(PrintStreamClass, func(reg *vm.Registry) vm.Class { return b })
}

// displayArg renders a value the way println would for any of
// PrintStream's overloads: a raw boolean/char/number prints its
// literal form, a String prints itself, anything else falls back to
// its toString-equivalent Display.
func displayArg(v object.Value) string {
	if v == nil || v.IsNull() {
		return "null"
	}
	if s, ok := object.AsString(v); ok {
		return s
	}
	return v.Display()
}
