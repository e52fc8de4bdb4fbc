package natives

import (
	"jgvm/internal/object"
	"jgvm/internal/vm"
)

const StreamClass = "java/util/stream/Stream"

// streamInstance backs java.util.stream.Stream. Unlike a real lazy,
// pull-based pipeline, each intermediate operation here runs its
// function over every element as soon as it is called and
// materializes the result into a new slice. Elements are not pulled
// one at a time through the chain: a stage starts only after the
// previous stage has processed every element.
type streamInstance struct {
	*object.Object
	elems []object.Value
}

func newStream(elems []object.Value) *streamInstance {
	return &streamInstance{Object: object.NewObject(StreamClass, nil), elems: elems}
}

func callFunctional(reg *vm.Registry, fn object.Value, args []object.Value) (object.Value, error) {
	lam, ok := fn.(*vm.Lambda)
	if !ok {
		return nil, nil
	}
	return lam.Call(reg, args)
}

func registerStream(reg *vm.Registry) {
	b := NewBase(StreamClass, "java/lang/Object")

	self := func(this object.Value) *streamInstance {
		s, _ := this.(*streamInstance)
		return s
	}

	b.Methods["filter"] = func(reg *vm.Registry, this object.Value, args []object.Value) (object.Value, error) {
		s := self(this)
		out := make([]object.Value, 0, len(s.elems))
		for _, e := range s.elems {
			keep, err := callFunctional(reg, args[0], []object.Value{e})
			if err != nil {
				return nil, err
			}
			if b, _ := object.AsBool(keep); b {
				out = append(out, e)
			}
		}
		return newStream(out), nil
	}

	b.Methods["map"] = func(reg *vm.Registry, this object.Value, args []object.Value) (object.Value, error) {
		s := self(this)
		out := make([]object.Value, len(s.elems))
		for i, e := range s.elems {
			v, err := callFunctional(reg, args[0], []object.Value{e})
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return newStream(out), nil
	}

	b.Methods["forEach"] = func(reg *vm.Registry, this object.Value, args []object.Value) (object.Value, error) {
		for _, e := range self(this).elems {
			if _, err := callFunctional(reg, args[0], []object.Value{e}); err != nil {
				return nil, err
			}
		}
		return nil, nil
	}

	b.Methods["count"] = func(reg *vm.Registry, this object.Value, args []object.Value) (object.Value, error) {
		return object.Long(int64(len(self(this).elems))), nil
	}

	b.Methods["sorted"] = func(reg *vm.Registry, this object.Value, args []object.Value) (object.Value, error) {
		s := self(this)
		out := append([]object.Value{}, s.elems...)
		var cmp *vm.Lambda
		if len(args) > 0 {
			cmp, _ = args[0].(*vm.Lambda)
		}
		if err := sortValues(reg, out, cmp); err != nil {
			return nil, err
		}
		return newStream(out), nil
	}

	b.Methods["anyMatch"] = func(reg *vm.Registry, this object.Value, args []object.Value) (object.Value, error) {
		for _, e := range self(this).elems {
			v, err := callFunctional(reg, args[0], []object.Value{e})
			if err != nil {
				return nil, err
			}
			if ok, _ := object.AsBool(v); ok {
				return object.Bool(true), nil
			}
		}
		return object.Bool(false), nil
	}

	b.Methods["allMatch"] = func(reg *vm.Registry, this object.Value, args []object.Value) (object.Value, error) {
		for _, e := range self(this).elems {
			v, err := callFunctional(reg, args[0], []object.Value{e})
			if err != nil {
				return nil, err
			}
			if ok, _ := object.AsBool(v); !ok {
				return object.Bool(false), nil
			}
		}
		return object.Bool(true), nil
	}

	b.Methods["reduce"] = func(reg *vm.Registry, this object.Value, args []object.Value) (object.Value, error) {
		acc := args[0]
		op := args[1]
		for _, e := range self(this).elems {
			v, err := callFunctional(reg, op, []object.Value{acc, e})
			if err != nil {
				return nil, err
			}
			acc = v
		}
		return acc, nil
	}

	b.Methods["collect"] = func(reg *vm.Registry, this object.Value, args []object.Value) (object.Value, error) {
		return newArrayList(append([]object.Value{}, self(this).elems...)), nil
	}

	b.Methods["toArray"] = func(reg *vm.Registry, this object.Value, args []object.Value) (object.Value, error) {
		s := self(this)
		arr := object.NewArray(ObjectDesc("java/lang/Object"), len(s.elems), object.Null{})
		copy(arr.Elements, s.elems)
		return arr, nil
	}

	reg.RegisterNative(StreamClass, func(reg *vm.Registry) vm.Class { return b })
}
