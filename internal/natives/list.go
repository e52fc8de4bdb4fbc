package natives

import (
	"sort"
	"strings"

	"jgvm/internal/object"
	"jgvm/internal/vm"
)

const ArrayListClass = "java/util/ArrayList"

type arrayListInstance struct {
	*object.Object
	elems []object.Value
}

func newArrayList(elems []object.Value) *arrayListInstance {
	return &arrayListInstance{Object: object.NewObject(ArrayListClass, nil), elems: elems}
}

func registerArrayList(reg *vm.Registry) {
	b := NewBase(ArrayListClass, "java/lang/Object")
	b.NewFn = func(reg *vm.Registry) (object.Value, error) {
		return newArrayList(nil), nil
	}

	list := func(this object.Value) *arrayListInstance {
		l, _ := this.(*arrayListInstance)
		return l
	}

	b.Methods["add"] = func(reg *vm.Registry, this object.Value, args []object.Value) (object.Value, error) {
		l := list(this)
		l.elems = append(l.elems, args[0])
		return object.Bool(true), nil
	}
	b.Methods["get"] = func(reg *vm.Registry, this object.Value, args []object.Value) (object.Value, error) {
		l := list(this)
		i, _ := object.AsInt(args[0])
		if i < 0 || int(i) >= len(l.elems) {
			return nil, &indexOutOfBounds{}
		}
		return l.elems[i], nil
	}
	b.Methods["set"] = func(reg *vm.Registry, this object.Value, args []object.Value) (object.Value, error) {
		l := list(this)
		i, _ := object.AsInt(args[0])
		if i < 0 || int(i) >= len(l.elems) {
			return nil, &indexOutOfBounds{}
		}
		old := l.elems[i]
		l.elems[i] = args[1]
		return old, nil
	}
	b.Methods["size"] = func(reg *vm.Registry, this object.Value, args []object.Value) (object.Value, error) {
		return object.Int(int32(len(list(this).elems))), nil
	}
	b.Methods["isEmpty"] = func(reg *vm.Registry, this object.Value, args []object.Value) (object.Value, error) {
		return object.Bool(len(list(this).elems) == 0), nil
	}
	b.Methods["remove"] = func(reg *vm.Registry, this object.Value, args []object.Value) (object.Value, error) {
		l := list(this)
		i, ok := object.AsInt(args[0])
		if !ok {
			return object.Bool(false), nil
		}
		if i < 0 || int(i) >= len(l.elems) {
			return nil, &indexOutOfBounds{}
		}
		removed := l.elems[i]
		l.elems = append(l.elems[:i], l.elems[i+1:]...)
		return removed, nil
	}
	b.Methods["contains"] = func(reg *vm.Registry, this object.Value, args []object.Value) (object.Value, error) {
		for _, e := range list(this).elems {
			if displayArg(e) == displayArg(args[0]) {
				return object.Bool(true), nil
			}
		}
		return object.Bool(false), nil
	}
	b.Methods["indexOf"] = func(reg *vm.Registry, this object.Value, args []object.Value) (object.Value, error) {
		for i, e := range list(this).elems {
			if displayArg(e) == displayArg(args[0]) {
				return object.Int(int32(i)), nil
			}
		}
		return object.Int(-1), nil
	}
	b.Methods["toString"] = func(reg *vm.Registry, this object.Value, args []object.Value) (object.Value, error) {
		parts := make([]string, len(list(this).elems))
		for i, e := range list(this).elems {
			parts[i] = displayArg(e)
		}
		return object.Str("[" + strings.Join(parts, ", ") + "]"), nil
	}
	b.Methods["sort"] = func(reg *vm.Registry, this object.Value, args []object.Value) (object.Value, error) {
		l := list(this)
		var cmp *vm.Lambda
		if len(args) > 0 {
			cmp, _ = args[0].(*vm.Lambda)
		}
		if err := sortValues(reg, l.elems, cmp); err != nil {
			return nil, err
		}
		return nil, nil
	}
	b.Methods["stream"] = func(reg *vm.Registry, this object.Value, args []object.Value) (object.Value, error) {
		return newStream(append([]object.Value{}, list(this).elems...)), nil
	}

	reg.RegisterNative(ArrayListClass, func(reg *vm.Registry) vm.Class { return b })
}

// sortValues sorts in place: by a Comparator lambda if given,
// otherwise by natural ordering for the numeric/string value kinds
// this interpreter supports.
func sortValues(reg *vm.Registry, elems []object.Value, cmp *vm.Lambda) error {
	var sortErr error
	sort.SliceStable(elems, func(i, j int) bool {
		if sortErr != nil {
			return false
		}
		if cmp != nil {
			result, err := cmp.Call(reg, []object.Value{elems[i], elems[j]})
			if err != nil {
				sortErr = err
				return false
			}
			n, _ := object.AsInt(result)
			return n < 0
		}
		return naturalLess(elems[i], elems[j])
	})
	return sortErr
}

func naturalLess(a, b object.Value) bool {
	if ai, ok := object.AsInt(a); ok {
		bi, _ := object.AsInt(b)
		return ai < bi
	}
	if ai, ok := object.AsLong(a); ok {
		bi, _ := object.AsLong(b)
		return ai < bi
	}
	if ad, ok := object.AsDouble(a); ok {
		bd, _ := object.AsDouble(b)
		return ad < bd
	}
	as, _ := object.AsString(a)
	bs, _ := object.AsString(b)
	return as < bs
}
