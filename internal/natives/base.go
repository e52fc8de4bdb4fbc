// Package natives implements the slice of the standard library this
// interpreter actually needs: console output, boxed-number parsing
// and formatting, arrays/collections helpers, and the functional
// pipeline (Stream/Predicate/Function/Consumer) used by lambdas built
// from invokedynamic. Each is a vm.Class backed by Go functions
// instead of parsed bytecode, registered once into a Registry by
// Register.
package natives

import (
	"fmt"

	"jgvm/internal/classfile"
	"jgvm/internal/object"
	"jgvm/internal/vm"
)

// StaticFn implements one native static method. A nil result with a
// nil error means the method is void.
type StaticFn func(reg *vm.Registry, args []object.Value) (object.Value, error)

// MethodFn implements one native instance method.
type MethodFn func(reg *vm.Registry, this object.Value, args []object.Value) (object.Value, error)

// parented is satisfied by object.Object (and by anything this
// package returns from New), letting base.go delegate unresolved
// calls up a native class's own parent chain.
type parented interface {
	object.Value
	Parent() object.Value
}

// Base is a minimal vm.Class: a flat name/parent pair plus static and
// instance method tables. Classes in this package are built by
// embedding or constructing a Base and filling in its tables.
type Base struct {
	ClassName string
	Super     string

	Statics map[string]StaticFn
	Methods map[string]MethodFn
	Fields  map[string]object.Value

	// NewFn overrides default instance construction, used by classes
	// that need a custom Go-level representation (ArrayList's
	// backing slice, ...).
	NewFn func(reg *vm.Registry) (object.Value, error)
}

func NewBase(name, super string) *Base {
	return &Base{
		ClassName: name,
		Super:     super,
		Statics:   make(map[string]StaticFn),
		Methods:   make(map[string]MethodFn),
		Fields:    make(map[string]object.Value),
	}
}

func (b *Base) Name() string      { return b.ClassName }
func (b *Base) SuperName() string { return b.Super }

func (b *Base) BootstrapMethod(int) (*classfile.BootstrapMethod, bool) { return nil, false }

func (b *Base) StaticField(name string) (object.Value, bool) {
	v, ok := b.Fields[name]
	return v, ok
}

func (b *Base) SetStaticField(name string, v object.Value) {
	b.Fields[name] = v
}

func (b *Base) New(reg *vm.Registry) (object.Value, error) {
	if b.NewFn != nil {
		return b.NewFn(reg)
	}
	var parent object.Value
	if b.Super != "" {
		pc, err := reg.Get(b.Super)
		if err != nil {
			return nil, err
		}
		parent, err = pc.New(reg)
		if err != nil {
			return nil, err
		}
	}
	return object.NewObject(b.ClassName, parent), nil
}

func (b *Base) ExecuteMethod(reg *vm.Registry, frame *vm.Frame, methodName string, this object.Value, args []object.Value) error {
	if fn, ok := b.Methods[methodName]; ok {
		result, err := fn(reg, this, args)
		if err != nil {
			return err
		}
		if result != nil {
			frame.Push(result)
		}
		return nil
	}
	if b.Super != "" {
		pc, err := reg.Get(b.Super)
		if err != nil {
			return err
		}
		var parentThis object.Value
		if p, ok := this.(parented); ok {
			parentThis = p.Parent()
		}
		return pc.ExecuteMethod(reg, frame, methodName, parentThis, args)
	}
	return &vm.Fault{Reason: fmt.Sprintf("no native method %s.%s", b.ClassName, methodName)}
}

func (b *Base) ExecuteStaticMethod(reg *vm.Registry, frame *vm.Frame, methodName string, nbArgs int) error {
	fn, ok := b.Statics[methodName]
	if !ok {
		if b.Super != "" {
			pc, err := reg.Get(b.Super)
			if err != nil {
				return err
			}
			return pc.ExecuteStaticMethod(reg, frame, methodName, nbArgs)
		}
		return &vm.Fault{Reason: fmt.Sprintf("no native static method %s.%s", b.ClassName, methodName)}
	}
	args := make([]object.Value, nbArgs)
	for i := nbArgs - 1; i >= 0; i-- {
		args[i] = frame.Pop()
	}
	result, err := fn(reg, args)
	if err != nil {
		return err
	}
	if result != nil {
		frame.Push(result)
	}
	return nil
}
