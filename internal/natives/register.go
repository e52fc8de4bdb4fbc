package natives

import "jgvm/internal/vm"

// Register installs every natively implemented class into reg. Call
// once before running any user bytecode.
func Register(reg *vm.Registry) {
	registerThrowables(reg)
	registerPrintStream(reg)
	registerSystem(reg)
	registerInteger(reg)
	registerString(reg)
	registerMath(reg)
	registerArrays(reg)
	registerArrayList(reg)
	registerStream(reg)
	registerFunctionalInterfaces(reg)
	registerLambdaMetafactory(reg)
}
