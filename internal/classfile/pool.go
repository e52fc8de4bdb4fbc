package classfile

import "fmt"

// Tag identifies the kind of a constant-pool entry.
type Tag byte

const (
	TagUTF8               Tag = 1
	TagInteger            Tag = 3
	TagFloat              Tag = 4
	TagLong               Tag = 5
	TagDouble             Tag = 6
	TagClass              Tag = 7
	TagString             Tag = 8
	TagFieldref           Tag = 9
	TagMethodref          Tag = 10
	TagInterfaceMethodref Tag = 11
	TagNameAndType        Tag = 12
	TagMethodHandle       Tag = 15
	TagMethodType         Tag = 16
	TagInvokeDynamic      Tag = 18
)

// Method handle reference kinds, per the constant pool's
// CONSTANT_MethodHandle_info.reference_kind.
const (
	RefGetField         = 1
	RefGetStatic        = 2
	RefPutField         = 3
	RefPutStatic        = 4
	RefInvokeVirtual    = 5
	RefInvokeStatic     = 6
	RefInvokeSpecial    = 7
	RefNewInvokeSpecial = 8
	RefInvokeInterface  = 9
)

// MethodHandle is a resolved method-handle constant: either a field
// or a method, depending on its reference kind (1-4 field, 5-9
// method; kinds 6-8 are all treated as plain method references here).
type MethodHandle struct {
	Kind       uint8
	IsField    bool
	ClassName  string
	MemberName string
	Descriptor string
}

// entry holds one constant-pool slot in both its raw (as-parsed) and
// resolved form. Only the fields relevant to its Tag are meaningful.
type entry struct {
	tag Tag

	utf8      string
	intVal    int32
	floatVal  float32
	longVal   int64
	doubleVal float64

	nameIdx uint16 // Class: name utf8 idx; MethodType: descriptor utf8 idx

	classIdx, natIdx uint16 // Fieldref/Methodref/InterfaceMethodref
	strUtf8Idx       uint16 // String
	natName, natType uint16 // NameAndType: name idx, descriptor idx

	mhKind  uint8
	mhIdx   uint16 // MethodHandle: field/method ref idx
	idBsIdx uint16 // InvokeDynamic: bootstrap method attr index
	idNatIx uint16 // InvokeDynamic: name-and-type idx

	// resolved
	resolvedClass  string
	resolvedStr    string
	resolvedField  *FieldRef
	resolvedMethod *MethodRef
	resolvedNat    *NameAndType
	resolvedMH     *MethodHandle
}

// FieldRef is a resolved field reference.
type FieldRef struct {
	ClassName  string
	FieldName  string
	Descriptor string
}

// MethodRef is a resolved method (or interface-method) reference.
type MethodRef struct {
	ClassName  string
	MethodName string
	Descriptor string
	Interface  bool
}

// NameAndType is a resolved name-and-type pair.
type NameAndType struct {
	Name       string
	Descriptor string
}

// InvokeDynamicRef is a resolved invokedynamic constant. BootstrapIdx
// is the raw index into the class's BootstrapMethods table; it is
// not dereferenced at pool-resolution time because that table is not
// populated until the class attributes are parsed, after the
// constant pool and all method bodies.
type InvokeDynamicRef struct {
	BootstrapIdx int
	MethodName   string
	Descriptor   string
}

// Pool is a class file's constant pool: a sparse, 1-based index of
// tagged entries, parsed raw and then cross-reference resolved.
type Pool struct {
	file    string
	entries map[int]*entry
}

func newPool(file string) *Pool {
	return &Pool{file: file, entries: make(map[int]*entry)}
}

func (p *Pool) get(idx uint16) (*entry, error) {
	e, ok := p.entries[int(idx)]
	if !ok {
		return nil, newError(p.file, 0, fmt.Sprintf("unresolved constant pool index %d", idx))
	}
	return e, nil
}

// Utf8 returns the literal UTF-8 text stored at idx.
func (p *Pool) Utf8(idx uint16) (string, error) {
	e, err := p.get(idx)
	if err != nil {
		return "", err
	}
	if e.tag != TagUTF8 {
		return "", newError(p.file, 0, fmt.Sprintf("constant pool index %d is not utf8", idx))
	}
	return e.utf8, nil
}

// ClassName returns the resolved internal name of the class-ref at idx.
func (p *Pool) ClassName(idx uint16) (string, error) {
	e, err := p.get(idx)
	if err != nil {
		return "", err
	}
	if e.tag != TagClass {
		return "", newError(p.file, 0, fmt.Sprintf("constant pool index %d is not a class ref", idx))
	}
	return e.resolvedClass, nil
}

// StringValue returns the resolved literal of the string-ref at idx.
func (p *Pool) StringValue(idx uint16) (string, error) {
	e, err := p.get(idx)
	if err != nil {
		return "", err
	}
	if e.tag != TagString {
		return "", newError(p.file, 0, fmt.Sprintf("constant pool index %d is not a string ref", idx))
	}
	return e.resolvedStr, nil
}

// Integer, Float, Long, Double return the literal value stored at idx.
func (p *Pool) Integer(idx uint16) (int32, error) {
	e, err := p.get(idx)
	if err != nil {
		return 0, err
	}
	if e.tag != TagInteger {
		return 0, newError(p.file, 0, fmt.Sprintf("constant pool index %d is not an int", idx))
	}
	return e.intVal, nil
}

func (p *Pool) Float(idx uint16) (float32, error) {
	e, err := p.get(idx)
	if err != nil {
		return 0, err
	}
	if e.tag != TagFloat {
		return 0, newError(p.file, 0, fmt.Sprintf("constant pool index %d is not a float", idx))
	}
	return e.floatVal, nil
}

func (p *Pool) Long(idx uint16) (int64, error) {
	e, err := p.get(idx)
	if err != nil {
		return 0, err
	}
	if e.tag != TagLong {
		return 0, newError(p.file, 0, fmt.Sprintf("constant pool index %d is not a long", idx))
	}
	return e.longVal, nil
}

func (p *Pool) Double(idx uint16) (float64, error) {
	e, err := p.get(idx)
	if err != nil {
		return 0, err
	}
	if e.tag != TagDouble {
		return 0, newError(p.file, 0, fmt.Sprintf("constant pool index %d is not a double", idx))
	}
	return e.doubleVal, nil
}

// Try* variants probe the tag at idx without failing, used by ldc's
// ordered resolution (string-ref, then float, then int, then class-ref).
func (p *Pool) TryStringValue(idx uint16) (string, bool) {
	e, ok := p.entries[int(idx)]
	if !ok || e.tag != TagString {
		return "", false
	}
	return e.resolvedStr, true
}

func (p *Pool) TryFloat(idx uint16) (float32, bool) {
	e, ok := p.entries[int(idx)]
	if !ok || e.tag != TagFloat {
		return 0, false
	}
	return e.floatVal, true
}

func (p *Pool) TryInteger(idx uint16) (int32, bool) {
	e, ok := p.entries[int(idx)]
	if !ok || e.tag != TagInteger {
		return 0, false
	}
	return e.intVal, true
}

func (p *Pool) TryClassName(idx uint16) (string, bool) {
	e, ok := p.entries[int(idx)]
	if !ok || e.tag != TagClass {
		return "", false
	}
	return e.resolvedClass, true
}

func (p *Pool) TryDouble(idx uint16) (float64, bool) {
	e, ok := p.entries[int(idx)]
	if !ok || e.tag != TagDouble {
		return 0, false
	}
	return e.doubleVal, true
}

func (p *Pool) TryLong(idx uint16) (int64, bool) {
	e, ok := p.entries[int(idx)]
	if !ok || e.tag != TagLong {
		return 0, false
	}
	return e.longVal, true
}

// NameAndType returns the resolved (name, descriptor) pair at idx.
func (p *Pool) NameAndType(idx uint16) (*NameAndType, error) {
	e, err := p.get(idx)
	if err != nil {
		return nil, err
	}
	if e.tag != TagNameAndType {
		return nil, newError(p.file, 0, fmt.Sprintf("constant pool index %d is not a name-and-type", idx))
	}
	return e.resolvedNat, nil
}

// FieldRef returns the resolved field reference at idx.
func (p *Pool) FieldRef(idx uint16) (*FieldRef, error) {
	e, err := p.get(idx)
	if err != nil {
		return nil, err
	}
	if e.tag != TagFieldref {
		return nil, newError(p.file, 0, fmt.Sprintf("constant pool index %d is not a field ref", idx))
	}
	return e.resolvedField, nil
}

// MethodRef returns the resolved method reference at idx, accepting
// both plain and interface method refs.
func (p *Pool) MethodRef(idx uint16) (*MethodRef, error) {
	e, err := p.get(idx)
	if err != nil {
		return nil, err
	}
	if e.tag != TagMethodref && e.tag != TagInterfaceMethodref {
		return nil, newError(p.file, 0, fmt.Sprintf("constant pool index %d is not a method ref", idx))
	}
	return e.resolvedMethod, nil
}

// MethodHandle returns the resolved method handle at idx.
func (p *Pool) MethodHandle(idx uint16) (*MethodHandle, error) {
	e, err := p.get(idx)
	if err != nil {
		return nil, err
	}
	if e.tag != TagMethodHandle {
		return nil, newError(p.file, 0, fmt.Sprintf("constant pool index %d is not a method handle", idx))
	}
	return e.resolvedMH, nil
}

// InvokeDynamic returns the partially-resolved invokedynamic constant
// at idx (name and descriptor resolved; bootstrap index left raw).
func (p *Pool) InvokeDynamic(idx uint16) (*InvokeDynamicRef, error) {
	e, err := p.get(idx)
	if err != nil {
		return nil, err
	}
	if e.tag != TagInvokeDynamic {
		return nil, newError(p.file, 0, fmt.Sprintf("constant pool index %d is not an invokedynamic constant", idx))
	}
	nat, err := p.NameAndType(e.idNatIx)
	if err != nil {
		return nil, err
	}
	return &InvokeDynamicRef{BootstrapIdx: int(e.idBsIdx), MethodName: nat.Name, Descriptor: nat.Descriptor}, nil
}

// readPool reads count-1 tagged entries (indices 1..count-1) and
// resolves all cross-references before returning.
func readPool(r *Reader, count int) (*Pool, error) {
	p := newPool(r.Name())
	for i := 1; i < count; i++ {
		// Long and Double entries occupy two constant-pool indices
		// even though only one entry appears in the byte stream; the
		// index immediately after one is reserved and unused.
		tag, err := r.U8()
		if err != nil {
			return nil, err
		}
		e := &entry{tag: Tag(tag)}
		switch Tag(tag) {
		case TagUTF8:
			e.utf8, err = r.UTF8()
		case TagInteger:
			var v int32
			v, err = r.I32()
			e.intVal = v
		case TagFloat:
			e.floatVal, err = r.F32()
		case TagLong:
			e.longVal, err = r.I64()
		case TagDouble:
			e.doubleVal, err = r.F64()
		case TagClass:
			e.nameIdx, err = r.U16()
		case TagString:
			e.strUtf8Idx, err = r.U16()
		case TagFieldref, TagMethodref, TagInterfaceMethodref:
			if e.classIdx, err = r.U16(); err == nil {
				e.natIdx, err = r.U16()
			}
		case TagNameAndType:
			if e.natName, err = r.U16(); err == nil {
				e.natType, err = r.U16()
			}
		case TagMethodHandle:
			var kind uint8
			if kind, err = r.U8(); err == nil {
				e.mhKind = kind
				e.mhIdx, err = r.U16()
			}
		case TagMethodType:
			// Descriptor index recorded but not otherwise consumed
			// by this implementation.
			e.nameIdx, err = r.U16()
		case TagInvokeDynamic:
			if e.idBsIdx, err = r.U16(); err == nil {
				e.idNatIx, err = r.U16()
			}
		default:
			return nil, newError(r.Name(), r.Offset(), fmt.Sprintf("unknown constant pool tag %d", tag))
		}
		if err != nil {
			return nil, err
		}
		p.entries[i] = e
		if e.tag == TagLong || e.tag == TagDouble {
			i++
		}
	}
	if err := p.resolve(); err != nil {
		return nil, err
	}
	return p, nil
}

// resolve runs the cross-reference resolution pass in dependency
// order: class/string/name-and-type first (they depend only on
// utf8), then field/method refs (depend on class + name-and-type),
// then method handles (depend on field or method refs).
func (p *Pool) resolve() error {
	for _, e := range p.entries {
		switch e.tag {
		case TagClass:
			name, err := p.Utf8(e.nameIdx)
			if err != nil {
				return err
			}
			e.resolvedClass = name
		case TagString:
			s, err := p.Utf8(e.strUtf8Idx)
			if err != nil {
				return err
			}
			e.resolvedStr = s
		case TagNameAndType:
			name, err := p.Utf8(e.natName)
			if err != nil {
				return err
			}
			desc, err := p.Utf8(e.natType)
			if err != nil {
				return err
			}
			e.resolvedNat = &NameAndType{Name: name, Descriptor: desc}
		}
	}

	for _, e := range p.entries {
		switch e.tag {
		case TagFieldref:
			class, err := p.ClassName(e.classIdx)
			if err != nil {
				return err
			}
			nat, err := p.NameAndType(e.natIdx)
			if err != nil {
				return err
			}
			e.resolvedField = &FieldRef{ClassName: class, FieldName: nat.Name, Descriptor: nat.Descriptor}
		case TagMethodref, TagInterfaceMethodref:
			class, err := p.ClassName(e.classIdx)
			if err != nil {
				return err
			}
			nat, err := p.NameAndType(e.natIdx)
			if err != nil {
				return err
			}
			e.resolvedMethod = &MethodRef{ClassName: class, MethodName: nat.Name, Descriptor: nat.Descriptor, Interface: e.tag == TagInterfaceMethodref}
		}
	}

	for _, e := range p.entries {
		if e.tag != TagMethodHandle {
			continue
		}
		switch {
		case e.mhKind >= 1 && e.mhKind <= 4:
			f, err := p.FieldRef(e.mhIdx)
			if err != nil {
				return err
			}
			e.resolvedMH = &MethodHandle{Kind: e.mhKind, IsField: true, ClassName: f.ClassName, MemberName: f.FieldName, Descriptor: f.Descriptor}
		case e.mhKind >= 5 && e.mhKind <= 9:
			m, err := p.MethodRef(e.mhIdx)
			if err != nil {
				return err
			}
			e.resolvedMH = &MethodHandle{Kind: e.mhKind, IsField: false, ClassName: m.ClassName, MemberName: m.MethodName, Descriptor: m.Descriptor}
		default:
			return newError(p.file, 0, fmt.Sprintf("unsupported method handle reference kind %d", e.mhKind))
		}
	}

	return nil
}
