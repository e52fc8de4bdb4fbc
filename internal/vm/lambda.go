package vm

import (
	"jgvm/internal/classfile"
	"jgvm/internal/object"
)

// Lambda is the runtime value produced by invokedynamic: a bound
// functional-interface implementation backed by a method handle plus
// whatever arguments the call site captured. It satisfies
// object.Value so it can sit on the operand stack and in fields like
// any other reference, and natives that accept functional interfaces
// (Predicate, Function, Consumer, Comparator...) type-assert to
// *Lambda and invoke it directly rather than going through bytecode.
type Lambda struct {
	InterfaceName string
	Target        *classfile.MethodHandle
	Captured      []object.Value
}

func (l *Lambda) ClassName() string { return l.InterfaceName }
func (l *Lambda) IsNull() bool      { return false }
func (l *Lambda) Display() string   { return "lambda$" + l.Target.ClassName + "$" + l.Target.MemberName }

// Call invokes the bound target with capturedArgs followed by the
// call-site's own args, returning whatever the target method returns
// (object.Null{} for void).
func (l *Lambda) Call(reg *Registry, args []object.Value) (object.Value, error) {
	all := make([]object.Value, 0, len(l.Captured)+len(args))
	all = append(all, l.Captured...)
	all = append(all, args...)

	target, err := reg.Get(l.Target.ClassName)
	if err != nil {
		return nil, err
	}
	frame := NewFrame([localSlots]object.Value{})

	switch l.Target.Kind {
	case classfile.RefInvokeStatic:
		for _, a := range all {
			frame.Push(a)
		}
		if err := target.ExecuteStaticMethod(reg, frame, l.Target.MemberName, len(all)); err != nil {
			return nil, err
		}
	case classfile.RefNewInvokeSpecial:
		recv, err := target.New(reg)
		if err != nil {
			return nil, err
		}
		if err := target.ExecuteMethod(reg, frame, "<init>", recv, all); err != nil {
			return nil, err
		}
		if len(frame.stack) == 0 {
			return recv, nil
		}
	default: // virtual/special/interface: first captured/passed value is the receiver
		if len(all) == 0 {
			return nil, faultf("lambda target %s.%s expects a receiver", l.Target.ClassName, l.Target.MemberName)
		}
		this := all[0]
		rest := all[1:]
		recvClass := target
		if rc, err := reg.Get(this.ClassName()); err == nil {
			recvClass = rc
		}
		if err := recvClass.ExecuteMethod(reg, frame, l.Target.MemberName, this, rest); err != nil {
			return nil, err
		}
	}

	// frame is never itself run by the interpreter loop, so its own
	// HasReturn flag (set only when a return opcode executes against
	// the exact frame it targets) never reflects what the callee
	// pushed here; a pending stack value is the only reliable signal
	// that the target method returned something.
	if len(frame.stack) > 0 {
		return frame.Pop(), nil
	}
	return object.Null{}, nil
}

// buildLambda resolves a DynCall's bootstrap entry into a Lambda. The
// standard LambdaMetafactory.metafactory bootstrap captures the
// functional interface's single abstract method as the call site's
// own NameAndType and the concrete implementation method as the
// bootstrap's first captured argument; earlier captured arguments (if
// any, for a lambda that closes over local variables) are values
// already sitting on the caller's operand stack, popped by the
// invokedynamic instruction before this runs.
func buildLambda(class Class, dyn *classfile.DynCall, captured []object.Value) (*Lambda, error) {
	bootstrap, ok := class.BootstrapMethod(dyn.BootstrapIdx)
	if !ok {
		return nil, faultf("unresolved bootstrap method index %d", dyn.BootstrapIdx)
	}
	if len(bootstrap.Args) == 0 {
		return nil, faultf("bootstrap method for %s has no implementation argument", dyn.MethodName)
	}

	lc, ok := class.(*loadedClass)
	if !ok {
		return nil, faultf("invokedynamic used from a non-parsed class")
	}
	implRaw, err := lc.file.ResolveBootstrapArg(bootstrap.Args[0])
	if err != nil {
		return nil, err
	}
	impl, ok := implRaw.(*classfile.MethodHandle)
	if !ok {
		return nil, faultf("bootstrap implementation argument for %s is not a method handle", dyn.MethodName)
	}

	retDesc, err := classfile.ReturnDescriptor(dyn.Descriptor)
	if err != nil {
		return nil, err
	}
	return &Lambda{
		InterfaceName: classfile.ObjectClassName(retDesc),
		Target:        impl,
		Captured:      captured,
	}, nil
}
