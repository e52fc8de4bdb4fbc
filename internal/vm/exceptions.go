package vm

import (
	"jgvm/internal/classfile"
	"jgvm/internal/object"
)

// throwBuiltin constructs a runtime-raised exception value (division
// by zero, a bad array index, a failed cast...). When className is
// registered (either natively or as a parsed class), New is used so
// the value's parent chain and any fields the real class declares
// are set up correctly and findHandler's ancestor walk works
// uniformly with user-thrown exceptions of the same classes; when it
// isn't registered, a minimal standalone object carries the message.
func throwBuiltin(reg *Registry, className, message string) object.Value {
	if c, err := reg.Get(className); err == nil {
		if v, err := c.New(reg); err == nil {
			if inst, ok := v.(instance); ok {
				inst.SetField("message", object.Str(message))
			}
			return v
		}
	}
	obj := object.NewObject(className, nil)
	obj.SetField("message", object.Str(message))
	return obj
}

// findHandler walks m's exception table looking for a handler whose
// half-open [Start, End) range covers instrIdx and whose class
// matches excClassName (by walking excClassName's own ancestor
// chain), or whose ClassName is empty (catch-all, used for compiled
// finally blocks).
func findHandler(reg *Registry, m *classfile.Method, instrIdx int, excClassName string) (int, bool) {
	for _, h := range m.Exceptions {
		if instrIdx < h.Start || instrIdx >= h.End {
			continue
		}
		if h.ClassName == "" {
			return h.Handler, true
		}
		if classIsOrExtends(reg, excClassName, h.ClassName) {
			return h.Handler, true
		}
	}
	return 0, false
}

// classIsOrExtends reports whether name is target or has target as a
// (possibly indirect) superclass, walking name's SuperName chain via
// the registry.
func classIsOrExtends(reg *Registry, name, target string) bool {
	current := name
	for current != "" {
		if current == target {
			return true
		}
		c, err := reg.Get(current)
		if err != nil {
			return false
		}
		current = c.SuperName()
	}
	return false
}
