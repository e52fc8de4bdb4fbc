package classfile

import (
	"jgvm/internal/object"
)

const (
	accStatic = 0x0008
)

// ExceptionHandler is one entry of a method's exception table, with
// byte offsets already rewritten to instruction indices. Range is
// half-open: [Start, End).
type ExceptionHandler struct {
	Start, End, Handler int
	ClassName           string // empty string means "catches anything"
}

// LineEntry is one (instruction index, source line) pair from an
// optional LineNumberTable attribute, diagnostic only.
type LineEntry struct {
	InstrIdx int
	Line     int
}

// Method is one parsed method body.
type Method struct {
	Name       string
	Descriptor string
	IsStatic   bool
	ParamCount int

	Code        []Instruction
	Exceptions  []ExceptionHandler
	LineNumbers []LineEntry
}

// BootstrapMethod is one entry of the class's BootstrapMethods
// attribute: the target method handle plus the raw constant-pool
// indices of its captured arguments.
type BootstrapMethod struct {
	Handle *MethodHandle
	Args   []int
}

// Class is a fully parsed, fully resolved class file.
type Class struct {
	Name      string
	SuperName string // empty for the implicit root

	Methods map[string]*Method

	StaticFields     map[string]object.Value
	StaticFieldDescs map[string]string // deferred object-typed statics: field name -> descriptor

	Bootstrap     []BootstrapMethod
	HasStaticInit bool

	// BootstrapArgs lets a class assembled outside Parse (no constant
	// pool) supply bootstrap arguments directly, keyed by the same raw
	// index a BootstrapMethod.Args entry carries. A class read by
	// Parse leaves this nil and resolves through pool instead.
	BootstrapArgs map[int]any

	pool *Pool // retained only so invokedynamic can resolve bootstrap arguments lazily at run time
}

// ResolveBootstrapArg resolves one raw constant-pool index captured
// by a BootstrapMethod's Args (or a MethodHandle's own reference) into
// a runtime value. Supports strings, classes, the four boxed numeric
// literals, and method handles (returned as *MethodHandle). Method-type
// entries are not resolved: an index naming one yields an error.
func (c *Class) ResolveBootstrapArg(idx int) (any, error) {
	if v, ok := c.BootstrapArgs[idx]; ok {
		return v, nil
	}
	i := uint16(idx)
	if s, ok := c.pool.TryStringValue(i); ok {
		return s, nil
	}
	if n, ok := c.pool.TryClassName(i); ok {
		return n, nil
	}
	if n, ok := c.pool.TryInteger(i); ok {
		return n, nil
	}
	if n, ok := c.pool.TryFloat(i); ok {
		return n, nil
	}
	if n, ok := c.pool.TryLong(i); ok {
		return n, nil
	}
	if n, ok := c.pool.TryDouble(i); ok {
		return n, nil
	}
	if mh, err := c.pool.MethodHandle(i); err == nil {
		return mh, nil
	}
	return nil, wrapError(c.Name, idx, "unresolvable bootstrap argument", nil)
}

// Parse opens name (searching "." then "java/"), decodes its
// constant pool, fields, methods, and attributes, and returns the
// resulting Class. The underlying memory mapping is released before
// Parse returns.
func Parse(name string) (*Class, error) {
	r, closeFn, err := Open(name)
	if err != nil {
		return nil, err
	}
	defer closeFn()
	return parseFrom(r)
}

func parseFrom(r *Reader) (*Class, error) {
	// magic (4) + minor (2) + major (2)
	if err := r.Skip(8); err != nil {
		return nil, err
	}

	poolCount, err := r.U16()
	if err != nil {
		return nil, err
	}
	pool, err := readPool(r, int(poolCount))
	if err != nil {
		return nil, err
	}

	if _, err := r.U16(); err != nil { // access_flags
		return nil, err
	}
	thisIdx, err := r.U16()
	if err != nil {
		return nil, err
	}
	superIdx, err := r.U16()
	if err != nil {
		return nil, err
	}

	thisName, err := pool.ClassName(thisIdx)
	if err != nil {
		return nil, err
	}
	superName := ""
	if superIdx != 0 {
		superName, err = pool.ClassName(superIdx)
		if err != nil {
			return nil, err
		}
	}

	ifaceCount, err := r.U16()
	if err != nil {
		return nil, err
	}
	if err := r.Skip(2 * int(ifaceCount)); err != nil {
		return nil, err
	}

	c := &Class{
		Name:             thisName,
		SuperName:        superName,
		Methods:          make(map[string]*Method),
		StaticFields:     make(map[string]object.Value),
		StaticFieldDescs: make(map[string]string),
		pool:             pool,
	}

	fieldCount, err := r.U16()
	if err != nil {
		return nil, err
	}
	for i := 0; i < int(fieldCount); i++ {
		if err := parseField(r, pool, c); err != nil {
			return nil, err
		}
	}

	methodCount, err := r.U16()
	if err != nil {
		return nil, err
	}
	for i := 0; i < int(methodCount); i++ {
		if err := parseMethod(r, pool, c); err != nil {
			return nil, err
		}
	}

	attrCount, err := r.U16()
	if err != nil {
		return nil, err
	}
	for i := 0; i < int(attrCount); i++ {
		if err := parseClassAttribute(r, pool, c); err != nil {
			return nil, err
		}
	}

	return c, nil
}

func skipAttribute(r *Reader) error {
	if _, err := r.U16(); err != nil { // name index (unused by caller)
		return err
	}
	length, err := r.U32()
	if err != nil {
		return err
	}
	return r.Skip(int(length))
}

func parseField(r *Reader, pool *Pool, c *Class) error {
	accessFlags, err := r.U16()
	if err != nil {
		return err
	}
	nameIdx, err := r.U16()
	if err != nil {
		return err
	}
	descIdx, err := r.U16()
	if err != nil {
		return err
	}
	name, err := pool.Utf8(nameIdx)
	if err != nil {
		return err
	}
	desc, err := pool.Utf8(descIdx)
	if err != nil {
		return err
	}

	if accessFlags&accStatic != 0 {
		switch {
		case IsObjectDescriptor(desc):
			c.StaticFieldDescs[name] = desc
		case IsArrayDescriptor(desc):
			c.StaticFields[name] = object.NewArray(desc[1:], 0, object.Int(0))
		default:
			c.StaticFields[name] = ZeroPrimitive(desc)
		}
	}

	attrCount, err := r.U16()
	if err != nil {
		return err
	}
	for i := 0; i < int(attrCount); i++ {
		if err := skipAttribute(r); err != nil {
			return err
		}
	}
	return nil
}

// ZeroPrimitive returns the default boxed zero value for a primitive
// field descriptor, used for static primitive fields (which this
// implementation initializes eagerly rather than deferring, since
// they need no class registry to construct) and for newarray's
// element fill value.
func ZeroPrimitive(desc string) object.Value {
	if len(desc) == 0 {
		return object.Int(0)
	}
	switch desc[0] {
	case 'Z':
		return object.Bool(false)
	case 'B':
		return object.Byte(0)
	case 'C':
		return object.Char(0)
	case 'S':
		return object.Short(0)
	case 'J':
		return object.Long(0)
	case 'F':
		return object.Float(0)
	case 'D':
		return object.Double(0)
	default:
		return object.Int(0)
	}
}

func parseMethod(r *Reader, pool *Pool, c *Class) error {
	accessFlags, err := r.U16()
	if err != nil {
		return err
	}
	nameIdx, err := r.U16()
	if err != nil {
		return err
	}
	descIdx, err := r.U16()
	if err != nil {
		return err
	}
	name, err := pool.Utf8(nameIdx)
	if err != nil {
		return err
	}
	desc, err := pool.Utf8(descIdx)
	if err != nil {
		return err
	}

	nParams, err := ParamCount(desc)
	if err != nil {
		return err
	}

	m := &Method{
		Name:       name,
		Descriptor: desc,
		IsStatic:   accessFlags&accStatic != 0,
		ParamCount: nParams,
	}
	if name == "<clinit>" {
		c.HasStaticInit = true
	}

	attrCount, err := r.U16()
	if err != nil {
		return err
	}
	for i := 0; i < int(attrCount); i++ {
		nameIdx, err := r.U16()
		if err != nil {
			return err
		}
		attrName, err := pool.Utf8(nameIdx)
		if err != nil {
			return err
		}
		length, err := r.U32()
		if err != nil {
			return err
		}
		body, err := r.Blob(int(length))
		if err != nil {
			return err
		}
		if attrName == "Code" {
			if err := parseCodeAttribute(body, pool, c.Name, m); err != nil {
				return err
			}
		}
		// Other method attributes (Exceptions, Deprecated, ...) are
		// skipped: their bytes were already consumed via Blob above.
	}

	c.Methods[name] = m
	return nil
}

func parseCodeAttribute(r *Reader, pool *Pool, enclosingClass string, m *Method) error {
	if err := r.Skip(4); err != nil { // max_stack, max_locals
		return err
	}
	codeLen, err := r.U32()
	if err != nil {
		return err
	}
	codeBlob, err := r.Blob(int(codeLen))
	if err != nil {
		return err
	}
	decoded, err := decodeCode(codeBlob, pool, enclosingClass)
	if err != nil {
		return err
	}
	m.Code = decoded.Instructions

	offsetToIdx := func(off int) int {
		if idx, ok := decoded.AddressMap[off]; ok {
			return idx
		}
		if off >= int(codeLen) {
			return len(decoded.Instructions)
		}
		return 0
	}

	excCount, err := r.U16()
	if err != nil {
		return err
	}
	for i := 0; i < int(excCount); i++ {
		startPC, err := r.U16()
		if err != nil {
			return err
		}
		endPC, err := r.U16()
		if err != nil {
			return err
		}
		handlerPC, err := r.U16()
		if err != nil {
			return err
		}
		catchType, err := r.U16()
		if err != nil {
			return err
		}
		className := ""
		if catchType != 0 {
			className, err = pool.ClassName(catchType)
			if err != nil {
				return err
			}
		}
		m.Exceptions = append(m.Exceptions, ExceptionHandler{
			Start:     offsetToIdx(int(startPC)),
			End:       offsetToIdx(int(endPC)),
			Handler:   offsetToIdx(int(handlerPC)),
			ClassName: className,
		})
	}

	attrCount, err := r.U16()
	if err != nil {
		return err
	}
	for i := 0; i < int(attrCount); i++ {
		nameIdx, err := r.U16()
		if err != nil {
			return err
		}
		attrName, err := pool.Utf8(nameIdx)
		if err != nil {
			return err
		}
		length, err := r.U32()
		if err != nil {
			return err
		}
		body, err := r.Blob(int(length))
		if err != nil {
			return err
		}
		if attrName == "LineNumberTable" {
			count, err := body.U16()
			if err != nil {
				return err
			}
			for j := 0; j < int(count); j++ {
				startPC, err := body.U16()
				if err != nil {
					return err
				}
				line, err := body.U16()
				if err != nil {
					return err
				}
				m.LineNumbers = append(m.LineNumbers, LineEntry{
					InstrIdx: offsetToIdx(int(startPC)),
					Line:     int(line),
				})
			}
		}
	}

	return nil
}

func parseClassAttribute(r *Reader, pool *Pool, c *Class) error {
	nameIdx, err := r.U16()
	if err != nil {
		return err
	}
	attrName, err := pool.Utf8(nameIdx)
	if err != nil {
		return err
	}
	length, err := r.U32()
	if err != nil {
		return err
	}
	body, err := r.Blob(int(length))
	if err != nil {
		return err
	}

	if attrName != "BootstrapMethods" {
		return nil
	}

	count, err := body.U16()
	if err != nil {
		return err
	}
	for i := 0; i < int(count); i++ {
		handleIdx, err := body.U16()
		if err != nil {
			return err
		}
		handle, err := pool.MethodHandle(handleIdx)
		if err != nil {
			return err
		}
		argCount, err := body.U16()
		if err != nil {
			return err
		}
		args := make([]int, argCount)
		for j := 0; j < int(argCount); j++ {
			idx, err := body.U16()
			if err != nil {
				return err
			}
			args[j] = int(idx)
		}
		c.Bootstrap = append(c.Bootstrap, BootstrapMethod{Handle: handle, Args: args})
	}
	return nil
}
