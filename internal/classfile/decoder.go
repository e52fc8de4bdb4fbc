package classfile

import (
	"fmt"

	"jgvm/internal/object"
)

// DecodedCode is the result of decoding one method's Code attribute:
// an indexed instruction sequence plus the byte-offset-to-index
// address map used to translate the exception and line-number
// tables, which are rewritten separately once this returns.
type DecodedCode struct {
	Instructions []Instruction
	AddressMap   map[int]int // byte offset -> instruction index
}

// decodeCode walks a method's raw code blob and produces a decoded,
// branch-normalized instruction sequence. enclosingClass is recorded
// on every invokedynamic instruction decoded, since its bootstrap
// table lives on the class currently being parsed.
func decodeCode(r *Reader, pool *Pool, enclosingClass string) (*DecodedCode, error) {
	var instrs []Instruction
	addressMap := make(map[int]int)

	// Raw (unrewritten) branch targets recorded per instruction index,
	// as absolute byte offsets within this code blob; rewritten to
	// instruction indices in a second pass once addressMap is complete.
	rawBranch := make(map[int]int)
	rawSwitchDefault := make(map[int]int)
	rawSwitchTargets := make(map[int][]int)

	for r.HasMore() {
		startOffset := r.Offset()
		addressMap[startOffset] = len(instrs)

		opByte, err := r.U8()
		if err != nil {
			return nil, err
		}
		op := Op(opByte)
		instr := Instruction{Op: op}

		switch op {
		case OpNop, OpAconstNull:
			if op == OpAconstNull {
				instr.Push = object.Null{}
			}
		case OpIconstM1:
			instr.Push = object.Int(-1)
		case OpIconst0, OpIconst1, OpIconst2, OpIconst3, OpIconst4, OpIconst5:
			instr.Push = object.Int(int32(op) - int32(OpIconst0))
		case OpLconst0, OpLconst1:
			instr.Push = object.Long(int64(op) - int64(OpLconst0))
		case OpFconst0, OpFconst1, OpFconst2:
			instr.Push = object.Float(float32(int32(op) - int32(OpFconst0)))
		case OpDconst0, OpDconst1:
			instr.Push = object.Double(float64(int32(op) - int32(OpDconst0)))
		case OpBipush:
			v, err := r.I8()
			if err != nil {
				return nil, err
			}
			instr.Push = object.Int(int32(v))
		case OpSipush:
			v, err := r.I16()
			if err != nil {
				return nil, err
			}
			instr.Push = object.Int(int32(v))
		case OpLdc:
			idx, err := r.U8()
			if err != nil {
				return nil, err
			}
			v, err := resolveLdc(pool, uint16(idx))
			if err != nil {
				return nil, err
			}
			instr.Push = v
		case OpLdcW:
			idx, err := r.U16()
			if err != nil {
				return nil, err
			}
			v, err := resolveLdc(pool, idx)
			if err != nil {
				return nil, err
			}
			instr.Push = v
		case OpLdc2W:
			idx, err := r.U16()
			if err != nil {
				return nil, err
			}
			if d, ok := pool.TryDouble(idx); ok {
				instr.Push = object.Double(d)
			} else if l, ok := pool.TryLong(idx); ok {
				instr.Push = object.Long(l)
			} else {
				return nil, r.errf(fmt.Sprintf("ldc2_w: constant pool index %d is not a long or double", idx))
			}

		case OpIload, OpLload, OpFload, OpDload, OpAload,
			OpIstore, OpLstore, OpFstore, OpDstore, OpAstore:
			idx, err := r.U8()
			if err != nil {
				return nil, err
			}
			instr.VarIndex = int(idx)

		case OpIload0, OpIload1, OpIload2, OpIload3:
			instr.VarIndex = int(op - OpIload0)
		case OpLload0, OpLload1, OpLload2, OpLload3:
			instr.VarIndex = int(op - OpLload0)
		case OpFload0, OpFload1, OpFload2, OpFload3:
			instr.VarIndex = int(op - OpFload0)
		case OpDload0, OpDload1, OpDload2, OpDload3:
			instr.VarIndex = int(op - OpDload0)
		case OpAload0, OpAload1, OpAload2, OpAload3:
			instr.VarIndex = int(op - OpAload0)
		case OpIstore0, OpIstore1, OpIstore2, OpIstore3:
			instr.VarIndex = int(op - OpIstore0)
		case OpLstore0, OpLstore1, OpLstore2, OpLstore3:
			instr.VarIndex = int(op - OpLstore0)
		case OpFstore0, OpFstore1, OpFstore2, OpFstore3:
			instr.VarIndex = int(op - OpFstore0)
		case OpDstore0, OpDstore1, OpDstore2, OpDstore3:
			instr.VarIndex = int(op - OpDstore0)
		case OpAstore0, OpAstore1, OpAstore2, OpAstore3:
			instr.VarIndex = int(op - OpAstore0)

		case OpIaload, OpLaload, OpFaload, OpDaload, OpAaload, OpBaload, OpCaload, OpSaload,
			OpIastore, OpLastore, OpFastore, OpDastore, OpAastore, OpBastore, OpCastore, OpSastore,
			OpPop, OpPop2, OpDup, OpDupX1, OpDupX2, OpDup2, OpDup2X1, OpDup2X2, OpSwap,
			OpIadd, OpLadd, OpFadd, OpDadd, OpIsub, OpLsub, OpFsub, OpDsub,
			OpImul, OpLmul, OpFmul, OpDmul, OpIdiv, OpLdiv, OpFdiv, OpDdiv,
			OpIrem, OpLrem, OpFrem, OpDrem, OpIneg, OpLneg, OpFneg, OpDneg,
			OpIshl, OpLshl, OpIshr, OpLshr, OpIushr, OpLushr,
			OpIand, OpLand, OpIor, OpLor, OpIxor, OpLxor,
			OpI2l, OpI2f, OpI2d, OpL2i, OpL2f, OpL2d, OpF2i, OpF2l, OpF2d,
			OpD2i, OpD2l, OpD2f, OpI2b, OpI2c, OpI2s,
			OpLcmp, OpFcmpl, OpFcmpg, OpDcmpl, OpDcmpg,
			OpIreturn, OpLreturn, OpFreturn, OpDreturn, OpAreturn, OpReturn,
			OpArraylength, OpAthrow:
			// No operands beyond the opcode itself.

		case OpIinc:
			idx, err := r.U8()
			if err != nil {
				return nil, err
			}
			delta, err := r.I8()
			if err != nil {
				return nil, err
			}
			instr.VarIndex = int(idx)
			instr.IincDelta = int32(delta)

		case OpIfeq, OpIfne, OpIflt, OpIfge, OpIfgt, OpIfle,
			OpIfIcmpeq, OpIfIcmpne, OpIfIcmplt, OpIfIcmpge, OpIfIcmpgt, OpIfIcmple,
			OpIfAcmpeq, OpIfAcmpne, OpGoto, OpIfnull, OpIfnonnull:
			off, err := r.I16()
			if err != nil {
				return nil, err
			}
			rawBranch[len(instrs)] = startOffset + int(off)

		case OpGotoW:
			off, err := r.I32()
			if err != nil {
				return nil, err
			}
			rawBranch[len(instrs)] = startOffset + int(off)

		case OpTableswitch:
			// Padding to the next 4-byte boundary measured from the
			// start of the code array.
			for (r.Offset() % 4) != 0 {
				if _, err := r.U8(); err != nil {
					return nil, err
				}
			}
			def, err := r.I32()
			if err != nil {
				return nil, err
			}
			low, err := r.I32()
			if err != nil {
				return nil, err
			}
			high, err := r.I32()
			if err != nil {
				return nil, err
			}
			n := int(high-low) + 1
			if n < 0 {
				return nil, r.errf("tableswitch: high < low")
			}
			targets := make([]int, n)
			for i := 0; i < n; i++ {
				off, err := r.I32()
				if err != nil {
					return nil, err
				}
				targets[i] = startOffset + int(off)
			}
			rawSwitchDefault[len(instrs)] = startOffset + int(def)
			rawSwitchTargets[len(instrs)] = targets
			instr.Switch = &SwitchInfo{IsTable: true, Low: low}

		case OpLookupswitch:
			for (r.Offset() % 4) != 0 {
				if _, err := r.U8(); err != nil {
					return nil, err
				}
			}
			def, err := r.I32()
			if err != nil {
				return nil, err
			}
			npairs, err := r.I32()
			if err != nil {
				return nil, err
			}
			pairs := make([]SwitchPair, npairs)
			targets := make([]int, npairs)
			for i := int32(0); i < npairs; i++ {
				key, err := r.I32()
				if err != nil {
					return nil, err
				}
				off, err := r.I32()
				if err != nil {
					return nil, err
				}
				pairs[i] = SwitchPair{Key: key}
				targets[i] = startOffset + int(off)
			}
			rawSwitchDefault[len(instrs)] = startOffset + int(def)
			rawSwitchTargets[len(instrs)] = targets
			instr.Switch = &SwitchInfo{IsTable: false, Pairs: pairs}

		case OpGetstatic, OpPutstatic, OpGetfield, OpPutfield:
			idx, err := r.U16()
			if err != nil {
				return nil, err
			}
			f, err := pool.FieldRef(idx)
			if err != nil {
				return nil, err
			}
			instr.Field = f

		case OpInvokevirtual, OpInvokespecial, OpInvokestatic:
			idx, err := r.U16()
			if err != nil {
				return nil, err
			}
			m, err := pool.MethodRef(idx)
			if err != nil {
				return nil, err
			}
			n, err := ParamCount(m.Descriptor)
			if err != nil {
				return nil, err
			}
			instr.Method = m
			instr.ArgCount = n

		case OpInvokeinterface:
			idx, err := r.U16()
			if err != nil {
				return nil, err
			}
			if _, err := r.U8(); err != nil { // count byte, unused: the argument count comes from the descriptor
				return nil, err
			}
			if _, err := r.U8(); err != nil { // reserved zero byte
				return nil, err
			}
			m, err := pool.MethodRef(idx)
			if err != nil {
				return nil, err
			}
			n, err := ParamCount(m.Descriptor)
			if err != nil {
				return nil, err
			}
			instr.Method = m
			instr.ArgCount = n
			instr.Interface = true

		case OpInvokedynamic:
			idx, err := r.U16()
			if err != nil {
				return nil, err
			}
			if _, err := r.U16(); err != nil { // reserved
				return nil, err
			}
			dyn, err := pool.InvokeDynamic(idx)
			if err != nil {
				return nil, err
			}
			n, err := ParamCount(dyn.Descriptor)
			if err != nil {
				return nil, err
			}
			instr.Dyn = &DynCall{
				BootstrapIdx:   dyn.BootstrapIdx,
				MethodName:     dyn.MethodName,
				Descriptor:     dyn.Descriptor,
				ArgCount:       n,
				EnclosingClass: enclosingClass,
			}

		case OpNew, OpAnewarray, OpCheckcast, OpInstanceof:
			idx, err := r.U16()
			if err != nil {
				return nil, err
			}
			name, err := pool.ClassName(idx)
			if err != nil {
				return nil, err
			}
			instr.ClassRef = name

		case OpNewarray:
			t, err := r.U8()
			if err != nil {
				return nil, err
			}
			instr.NewArrayType = t

		case OpMonitorenter, OpMonitorexit, OpWide, OpMultianewarray, OpJsr, OpRet, OpJsrW:
			return nil, r.errf(fmt.Sprintf("unsupported opcode 0x%02x", byte(op)))

		default:
			return nil, r.errf(fmt.Sprintf("unknown opcode 0x%02x", byte(op)))
		}

		instrs = append(instrs, instr)
	}

	for idx, byteOff := range rawBranch {
		target, ok := addressMap[byteOff]
		if !ok {
			return nil, newError(r.Name(), byteOff, "branch target does not land on an instruction boundary")
		}
		instrs[idx].Branch = target
	}
	for idx, byteOff := range rawSwitchDefault {
		target, ok := addressMap[byteOff]
		if !ok {
			return nil, newError(r.Name(), byteOff, "switch default target does not land on an instruction boundary")
		}
		instrs[idx].Switch.Default = target
	}
	for idx, byteOffs := range rawSwitchTargets {
		resolved := make([]int, len(byteOffs))
		for i, bo := range byteOffs {
			t, ok := addressMap[bo]
			if !ok {
				return nil, newError(r.Name(), bo, "switch case target does not land on an instruction boundary")
			}
			resolved[i] = t
		}
		if instrs[idx].Switch.IsTable {
			instrs[idx].Switch.Targets = resolved
		} else {
			for i := range instrs[idx].Switch.Pairs {
				instrs[idx].Switch.Pairs[i].Target = resolved[i]
			}
		}
	}

	return &DecodedCode{Instructions: instrs, AddressMap: addressMap}, nil
}

// resolveLdc implements ldc/ldc_w's resolution order: string-ref,
// then float, then int, then class-ref (the last yielding a boxed
// class-name placeholder used nowhere else in this implementation
// except as an opaque string value).
func resolveLdc(pool *Pool, idx uint16) (object.Value, error) {
	if s, ok := pool.TryStringValue(idx); ok {
		return object.Str(s), nil
	}
	if f, ok := pool.TryFloat(idx); ok {
		return object.Float(f), nil
	}
	if i, ok := pool.TryInteger(idx); ok {
		return object.Int(i), nil
	}
	if c, ok := pool.TryClassName(idx); ok {
		return object.Str(c), nil
	}
	return nil, fmt.Errorf("ldc: constant pool index %d is not a string, float, int, or class ref", idx)
}
