package natives

import (
	"fmt"

	"jgvm/internal/object"
	"jgvm/internal/vm"
)

const (
	PredicateClass         = "java/util/function/Predicate"
	FunctionClass          = "java/util/function/Function"
	ConsumerClass          = "java/util/function/Consumer"
	LambdaMetafactoryClass = "java/lang/invoke/LambdaMetafactory"
)

// callLambda backs every functional-interface carrier's single
// abstract method: the receiver is always the *vm.Lambda invokedynamic
// built, and running it means invoking its bound target.
func callLambda(reg *vm.Registry, this object.Value, args []object.Value) (object.Value, error) {
	lam, ok := this.(*vm.Lambda)
	if !ok {
		return nil, fmt.Errorf("%s: receiver is not a lambda carrier", this.ClassName())
	}
	return lam.Call(reg, args)
}

// registerFunctionalInterfaces installs the lambda carrier classes
// metafactory produces. Each is a real vm.Class participating in the
// ordinary invokevirtual/invokeinterface dispatch contract, so a
// compiled program calling a functional reference's own method
// (predicate.test(x), not just Stream's Go-level shortcuts) resolves
// through the registry like any other virtual call.
func registerFunctionalInterfaces(reg *vm.Registry) {
	predicate := NewBase(PredicateClass, "java/lang/Object")
	predicate.Methods["test"] = callLambda
	reg.RegisterNative(PredicateClass, func(reg *vm.Registry) vm.Class { return predicate })

	function := NewBase(FunctionClass, "java/lang/Object")
	function.Methods["apply"] = callLambda
	reg.RegisterNative(FunctionClass, func(reg *vm.Registry) vm.Class { return function })

	consumer := NewBase(ConsumerClass, "java/lang/Object")
	consumer.Methods["accept"] = callLambda
	reg.RegisterNative(ConsumerClass, func(reg *vm.Registry) vm.Class { return consumer })
}

// registerLambdaMetafactory installs java/lang/invoke/LambdaMetafactory,
// the bootstrap class every invokedynamic call site in this
// interpreter resolves against. Its one static method hands back the
// functional-interface carrier the interpreter already built from the
// call site's bootstrap entry; the point of routing it through a real
// ExecuteStaticMethod call rather than returning it straight out of
// OpInvokedynamic is that invokedynamic then touches the same
// registry/class contract every other invoke* opcode does, instead of
// being a special case the registry never sees.
func registerLambdaMetafactory(reg *vm.Registry) {
	b := NewBase(LambdaMetafactoryClass, "java/lang/Object")
	b.Statics["metafactory"] = func(reg *vm.Registry, args []object.Value) (object.Value, error) {
		if len(args) == 0 {
			return nil, fmt.Errorf("LambdaMetafactory.metafactory: missing carrier argument")
		}
		return args[0], nil
	}
	reg.RegisterNative(LambdaMetafactoryClass, func(reg *vm.Registry) vm.Class { return b })
}
