package vm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jgvm/internal/classfile"
	"jgvm/internal/object"
)

// stubClass is a hand-rolled Class used only to stand in for the
// registered functional-interface carrier and LambdaMetafactory in
// this package's own tests, without importing internal/natives (which
// itself imports this package).
type stubClass struct {
	name, super string
	methods     map[string]func(reg *Registry, frame *Frame, this object.Value, args []object.Value) error
	statics     map[string]func(reg *Registry, frame *Frame, nbArgs int) error
}

func (s *stubClass) Name() string      { return s.name }
func (s *stubClass) SuperName() string { return s.super }

func (s *stubClass) New(reg *Registry) (object.Value, error) {
	return object.NewObject(s.name, nil), nil
}

func (s *stubClass) ExecuteMethod(reg *Registry, frame *Frame, methodName string, this object.Value, args []object.Value) error {
	fn, ok := s.methods[methodName]
	if !ok {
		return faultf("no stub method %s.%s", s.name, methodName)
	}
	return fn(reg, frame, this, args)
}

func (s *stubClass) ExecuteStaticMethod(reg *Registry, frame *Frame, methodName string, nbArgs int) error {
	fn, ok := s.statics[methodName]
	if !ok {
		return faultf("no stub static %s.%s", s.name, methodName)
	}
	return fn(reg, frame, nbArgs)
}

func (s *stubClass) StaticField(string) (object.Value, bool)     { return nil, false }
func (s *stubClass) SetStaticField(string, object.Value)         {}
func (s *stubClass) BootstrapMethod(int) (*classfile.BootstrapMethod, bool) {
	return nil, false
}

// registerLambdaStubs installs a minimal Predicate carrier and
// LambdaMetafactory, mirroring the real contract internal/natives
// wires up: metafactory hands back whatever invokedynamic built, and
// the carrier's functional method proxies straight to Lambda.Call.
// This exists so OpInvokedynamic's registry round trip can be
// exercised without an import cycle.
func registerLambdaStubs(reg *Registry) {
	predicate := &stubClass{
		name:  "java/util/function/Predicate",
		super: "java/lang/Object",
		methods: map[string]func(reg *Registry, frame *Frame, this object.Value, args []object.Value) error{
			"test": func(reg *Registry, frame *Frame, this object.Value, args []object.Value) error {
				lam, ok := this.(*Lambda)
				if !ok {
					return faultf("Predicate.test: receiver is not a lambda carrier")
				}
				result, err := lam.Call(reg, args)
				if err != nil {
					return err
				}
				frame.Push(result)
				return nil
			},
		},
	}
	reg.RegisterNative(predicate.name, func(reg *Registry) Class { return predicate })

	metafactory := &stubClass{
		name:  "java/lang/invoke/LambdaMetafactory",
		super: "java/lang/Object",
		statics: map[string]func(reg *Registry, frame *Frame, nbArgs int) error{
			"metafactory": func(reg *Registry, frame *Frame, nbArgs int) error {
				args := make([]object.Value, nbArgs)
				for i := nbArgs - 1; i >= 0; i-- {
					args[i] = frame.Pop()
				}
				frame.Push(args[0])
				return nil
			},
		},
	}
	reg.RegisterNative(metafactory.name, func(reg *Registry) Class { return metafactory })
}

// TestInvokedynamicDispatchesThroughRegisteredCarrier drives
// anewarray-free but otherwise equivalent shape of a compiled
// `Predicate<Integer> p = x -> x > 0; p.test(5);`: invokedynamic
// builds the lambda and hands it to the registry's LambdaMetafactory,
// then an ordinary invokeinterface resolves the carrier's own class
// through reg.Get(this.ClassName()) and calls its test method, which
// in turn calls the lambda's bound target.
func TestInvokedynamicDispatchesThroughRegisteredCarrier(t *testing.T) {
	reg := newTestRegistry()
	registerLambdaStubs(reg)

	isPositive := &classfile.Method{
		Name:       "isPositive",
		IsStatic:   true,
		ParamCount: 1,
		Code: []classfile.Instruction{
			/*0*/ {Op: classfile.OpIload0, VarIndex: 0},
			/*1*/ {Op: classfile.OpIfgt, Branch: 4},
			/*2*/ {Op: classfile.OpIconst0},
			/*3*/ {Op: classfile.OpIreturn},
			/*4*/ {Op: classfile.OpIconst1},
			/*5*/ {Op: classfile.OpIreturn},
		},
	}

	run := &classfile.Method{
		Name:     "run",
		IsStatic: true,
		Code: []classfile.Instruction{
			/*0*/ {Op: classfile.OpInvokedynamic, Dyn: &classfile.DynCall{
				BootstrapIdx: 0,
				MethodName:   "test",
				Descriptor:   "()Ljava/util/function/Predicate;",
				ArgCount:     0,
			}},
			/*1*/ {Op: classfile.OpBipush, Push: object.Int(5)},
			/*2*/ {Op: classfile.OpInvokeinterface, Method: &classfile.MethodRef{MethodName: "test"}, ArgCount: 1, Interface: true},
			/*3*/ {Op: classfile.OpIreturn},
		},
	}

	target := &classfile.MethodHandle{
		Kind:       classfile.RefInvokeStatic,
		ClassName:  "Test",
		MemberName: "isPositive",
		Descriptor: "(I)Z",
	}
	file := &classfile.Class{
		Name: "Test",
		Methods: map[string]*classfile.Method{
			"isPositive": isPositive,
			"run":        run,
		},
		StaticFields:     map[string]object.Value{},
		StaticFieldDescs: map[string]string{},
		Bootstrap: []classfile.BootstrapMethod{
			{Handle: target, Args: []int{0}},
		},
		BootstrapArgs: map[int]any{0: target},
	}
	c := newLoadedClass(reg, file)
	reg.classes["Test"] = c

	result, err := RunStatic(reg, c, "run", nil)
	require.NoError(t, err)
	assert.Equal(t, object.Int(1), result, "5 > 0 should dispatch through Predicate.test to isPositive and return true")
}
