package vm

import "jgvm/internal/object"

// RunStatic invokes a static method by name on class with args already
// evaluated, recovering from any interpreter Fault (or other panic)
// the way the teacher's own VM wraps a run in a deferred recover, so
// a malformed or unsupported bytecode sequence becomes a returned
// error instead of crashing the host process.
func RunStatic(reg *Registry, class Class, methodName string, args []object.Value) (result object.Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			switch v := r.(type) {
			case error:
				err = v
			default:
				err = faultf("panic during %s.%s: %v", class.Name(), methodName, v)
			}
		}
	}()

	frame := NewFrame([localSlots]object.Value{})
	for _, a := range args {
		frame.Push(a)
	}
	if e := class.ExecuteStaticMethod(reg, frame, methodName, len(args)); e != nil {
		return nil, e
	}
	// frame is never itself run by the interpreter loop here, only
	// handed to a nested ExecuteStaticMethod that pushes its result
	// onto it without touching its HasReturn flag (that flag is only
	// ever set on the exact frame a return opcode executes against,
	// see execStep) — a pending stack value is what actually signals
	// a non-void result reached the caller.
	if len(frame.stack) > 0 {
		return frame.Pop(), nil
	}
	return object.Null{}, nil
}
