package natives

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jgvm/internal/classfile"
	"jgvm/internal/object"
	"jgvm/internal/vm"
)

func registerFunctional(reg *vm.Registry) {
	registerMath(reg)
	registerFunctionalInterfaces(reg)
	registerLambdaMetafactory(reg)
}

func TestRegisterInstallsAllCarrierClasses(t *testing.T) {
	reg := newTestRegistry()
	registerFunctional(reg)

	for _, name := range []string{PredicateClass, FunctionClass, ConsumerClass, LambdaMetafactoryClass} {
		_, err := reg.Get(name)
		assert.NoError(t, err, "%s must be registered as a native class", name)
	}
}

func TestLambdaMetafactoryReturnsCarrierUnchanged(t *testing.T) {
	reg := newTestRegistry()
	registerFunctional(reg)
	b := base(t, reg, LambdaMetafactoryClass)

	lam := &vm.Lambda{
		InterfaceName: FunctionClass,
		Target: &classfile.MethodHandle{
			Kind:       classfile.RefInvokeStatic,
			ClassName:  MathClass,
			MemberName: "abs",
		},
	}
	result, err := b.Statics["metafactory"](reg, []object.Value{lam})
	require.NoError(t, err)
	assert.Same(t, lam, result, "metafactory must hand back the carrier invokedynamic built, unchanged")
}

func TestFunctionApplyDispatchesThroughLambdaCall(t *testing.T) {
	reg := newTestRegistry()
	registerFunctional(reg)
	function := base(t, reg, FunctionClass)

	lam := &vm.Lambda{
		InterfaceName: FunctionClass,
		Target: &classfile.MethodHandle{
			Kind:       classfile.RefInvokeStatic,
			ClassName:  MathClass,
			MemberName: "abs",
		},
	}

	result, err := function.Methods["apply"](reg, lam, []object.Value{object.Int(-7)})
	require.NoError(t, err)
	assert.Equal(t, object.Int(7), result, "Function.apply must proxy to the bound target via Lambda.Call")
}

func TestPredicateTestRejectsNonLambdaReceiver(t *testing.T) {
	reg := newTestRegistry()
	registerFunctional(reg)
	predicate := base(t, reg, PredicateClass)

	notALambda := object.NewObject("java/lang/Object", nil)
	_, err := predicate.Methods["test"](reg, notALambda, []object.Value{object.Int(1)})
	require.Error(t, err, "test must reject a receiver that isn't a lambda carrier instead of panicking")
}
