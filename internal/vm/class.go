package vm

import (
	"jgvm/internal/classfile"
	"jgvm/internal/object"
)

// Class is the contract the interpreter uses to reach a method or
// static field, whatever backs it: a parsed .class file or a
// natively-implemented standard-library class. Native classes under
// internal/natives implement this directly; parsed ones are wrapped
// by loadedClass below. Neither the interpreter nor the registry
// cares which.
type Class interface {
	Name() string
	SuperName() string

	// New constructs a fresh instance, recursively constructing and
	// linking the parent chain first.
	New(reg *Registry) (object.Value, error)

	// ExecuteMethod runs an instance method with the receiver already
	// bound as the Java-visible "this" and args already evaluated.
	// Any return value is left on frame's stack. Classes that don't
	// define methodName must delegate up their own parent chain.
	ExecuteMethod(reg *Registry, frame *Frame, methodName string, this object.Value, args []object.Value) error

	// ExecuteStaticMethod pops nbArgs arguments off frame itself,
	// runs the static method, and leaves any return value on frame.
	ExecuteStaticMethod(reg *Registry, frame *Frame, methodName string, nbArgs int) error

	StaticField(name string) (object.Value, bool)
	SetStaticField(name string, v object.Value)

	BootstrapMethod(idx int) (*classfile.BootstrapMethod, bool)
}

// loadedClass adapts a parsed classfile.Class to the Class interface,
// lazily running its static field initializers and <clinit> the
// first time it is touched.
type loadedClass struct {
	file        *classfile.Class
	registry    *Registry
	initialized bool
}

func newLoadedClass(reg *Registry, file *classfile.Class) *loadedClass {
	return &loadedClass{file: file, registry: reg}
}

func (c *loadedClass) Name() string      { return c.file.Name }
func (c *loadedClass) SuperName() string { return c.file.SuperName }

func (c *loadedClass) BootstrapMethod(idx int) (*classfile.BootstrapMethod, bool) {
	if idx < 0 || idx >= len(c.file.Bootstrap) {
		return nil, false
	}
	return &c.file.Bootstrap[idx], true
}

func (c *loadedClass) StaticField(name string) (object.Value, bool) {
	if v, ok := c.file.StaticFields[name]; ok {
		return v, true
	}
	if c.SuperName() != "" {
		parent, err := c.registry.Get(c.SuperName())
		if err == nil {
			return parent.StaticField(name)
		}
	}
	return nil, false
}

func (c *loadedClass) SetStaticField(name string, v object.Value) {
	if _, ok := c.file.StaticFields[name]; ok {
		c.file.StaticFields[name] = v
		return
	}
	if c.SuperName() != "" {
		parent, err := c.registry.Get(c.SuperName())
		if err == nil {
			parent.SetStaticField(name, v)
			return
		}
	}
	c.file.StaticFields[name] = v
}

// ensureInit runs deferred object-typed static field construction and
// <clinit>, exactly once, the first time this class is touched by New
// or any method invocation.
func (c *loadedClass) ensureInit(reg *Registry) error {
	if c.initialized {
		return nil
	}
	c.initialized = true

	for name, desc := range c.file.StaticFieldDescs {
		className := classfile.ObjectClassName(desc)
		target, err := reg.Get(className)
		if err != nil {
			return err
		}
		inst, err := target.New(reg)
		if err != nil {
			return err
		}
		c.file.StaticFields[name] = inst
	}

	if c.file.HasStaticInit {
		frame := NewFrame([localSlots]object.Value{})
		if err := c.ExecuteStaticMethod(reg, frame, "<clinit>", 0); err != nil {
			return err
		}
	}
	return nil
}

func (c *loadedClass) New(reg *Registry) (object.Value, error) {
	if err := c.ensureInit(reg); err != nil {
		return nil, err
	}
	var parent object.Value
	if c.SuperName() != "" {
		parentClass, err := reg.Get(c.SuperName())
		if err != nil {
			return nil, err
		}
		parent, err = parentClass.New(reg)
		if err != nil {
			return nil, err
		}
	}
	return object.NewObject(c.Name(), parent), nil
}

func (c *loadedClass) ExecuteMethod(reg *Registry, frame *Frame, methodName string, this object.Value, args []object.Value) error {
	if err := c.ensureInit(reg); err != nil {
		return err
	}
	m, ok := c.file.Methods[methodName]
	if !ok || m.IsStatic || m.Code == nil {
		if c.SuperName() == "" {
			return faultf("no method %s on %s", methodName, c.Name())
		}
		parentClass, err := reg.Get(c.SuperName())
		if err != nil {
			return err
		}
		var parentThis object.Value
		if inst, ok := this.(instance); ok {
			parentThis = inst.Parent()
		}
		return parentClass.ExecuteMethod(reg, frame, methodName, parentThis, args)
	}

	var locals [localSlots]object.Value
	locals[0] = this
	for i, a := range args {
		if i+1 >= localSlots {
			break
		}
		locals[i+1] = a
	}
	callee := NewFrame(locals)
	if err := runMethod(reg, c, m, callee); err != nil {
		return err
	}
	if callee.HasReturn {
		frame.Push(callee.Pop())
	}
	return nil
}

func (c *loadedClass) ExecuteStaticMethod(reg *Registry, frame *Frame, methodName string, nbArgs int) error {
	if err := c.ensureInit(reg); err != nil {
		return err
	}
	m, ok := c.file.Methods[methodName]
	if !ok || m.Code == nil {
		if c.SuperName() == "" {
			return faultf("no static method %s on %s", methodName, c.Name())
		}
		parentClass, err := reg.Get(c.SuperName())
		if err != nil {
			return err
		}
		return parentClass.ExecuteStaticMethod(reg, frame, methodName, nbArgs)
	}

	args := make([]object.Value, nbArgs)
	for i := nbArgs - 1; i >= 0; i-- {
		args[i] = frame.Pop()
	}
	var locals [localSlots]object.Value
	copy(locals[:], args)
	callee := NewFrame(locals)
	if err := runMethod(reg, c, m, callee); err != nil {
		return err
	}
	if callee.HasReturn {
		frame.Push(callee.Pop())
	}
	return nil
}

// instance is satisfied by object.Object (and by any native instance
// type that embeds it), letting the interpreter walk the parent
// chain and field table without depending on object.Object directly.
type instance interface {
	object.Value
	Parent() object.Value
	Field(name string) (object.Value, bool)
	SetField(name string, v object.Value)
	SupportsInterface(name string) bool
}
