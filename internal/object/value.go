// Package object defines the polymorphic value model the interpreter
// operates on: boxed primitives, strings, arrays, and user objects.
package object

import "fmt"

// Value is the common capability every value carried on an operand
// stack, in a local-variable slot, or stored in a field implements.
type Value interface {
	ClassName() string
	IsNull() bool
	Display() string
}

// Null is the sole representation of a null reference.
type Null struct{}

func (Null) ClassName() string { return "null" }
func (Null) IsNull() bool      { return true }
func (Null) Display() string   { return "null" }

// Bool is a boxed boolean.
type Bool bool

func (Bool) ClassName() string { return "boolean" }
func (Bool) IsNull() bool      { return false }
func (b Bool) Display() string {
	if b {
		return "true"
	}
	return "false"
}

// Byte is a boxed signed 8-bit integer.
type Byte int8

func (Byte) ClassName() string    { return "byte" }
func (Byte) IsNull() bool         { return false }
func (b Byte) Display() string    { return fmt.Sprintf("%d", int8(b)) }

// Char is a boxed UTF-16 code unit.
type Char uint16

func (Char) ClassName() string { return "char" }
func (Char) IsNull() bool      { return false }
func (c Char) Display() string { return string(rune(c)) }

// Short is a boxed signed 16-bit integer.
type Short int16

func (Short) ClassName() string { return "short" }
func (Short) IsNull() bool      { return false }
func (s Short) Display() string { return fmt.Sprintf("%d", int16(s)) }

// Int is a boxed signed 32-bit integer.
type Int int32

func (Int) ClassName() string { return "int" }
func (Int) IsNull() bool      { return false }
func (i Int) Display() string { return fmt.Sprintf("%d", int32(i)) }

// Long is a boxed signed 64-bit integer.
type Long int64

func (Long) ClassName() string { return "long" }
func (Long) IsNull() bool      { return false }
func (l Long) Display() string { return fmt.Sprintf("%d", int64(l)) }

// Float is a boxed IEEE-754 single-precision value.
type Float float32

func (Float) ClassName() string { return "float" }
func (Float) IsNull() bool      { return false }
func (f Float) Display() string { return fmt.Sprintf("%g", float32(f)) }

// Double is a boxed IEEE-754 double-precision value.
type Double float64

func (Double) ClassName() string { return "double" }
func (Double) IsNull() bool      { return false }
func (d Double) Display() string { return fmt.Sprintf("%g", float64(d)) }

// Str is a boxed, immutable UTF-8 string.
type Str string

func (Str) ClassName() string  { return "java/lang/String" }
func (Str) IsNull() bool       { return false }
func (s Str) Display() string  { return string(s) }

// Array is a fixed-length, reference-shared, index-addressable
// sequence of values. ElemDesc is the element's type descriptor
// (e.g. "I" for int, "Ljava/lang/String;" for a string element),
// used to build the array's own class name ("[" + ElemDesc).
type Array struct {
	ElemDesc string
	Elements []Value
}

// NewArray allocates an array of n elements, each filled with fill.
func NewArray(elemDesc string, n int, fill Value) *Array {
	elems := make([]Value, n)
	for i := range elems {
		elems[i] = fill
	}
	return &Array{ElemDesc: elemDesc, Elements: elems}
}

func (a *Array) ClassName() string { return "[" + a.ElemDesc }
func (a *Array) IsNull() bool      { return false }
func (a *Array) Display() string   { return fmt.Sprintf("%s@%p", a.ClassName(), a) }
func (a *Array) Len() int          { return len(a.Elements) }

// Object is a user-defined class instance: a class name, an optional
// parent instance (one level of the superclass chain, constructed
// transitively), and a map of named fields.
type Object struct {
	Class  string
	Par    Value
	Fields map[string]Value
}

// NewObject constructs an empty instance of the named class with the
// given parent (nil for the root of the chain).
func NewObject(class string, parent Value) *Object {
	return &Object{Class: class, Par: parent, Fields: make(map[string]Value)}
}

func (o *Object) ClassName() string { return o.Class }
func (o *Object) IsNull() bool      { return false }
func (o *Object) Display() string   { return fmt.Sprintf("<%s instance>", o.Class) }
func (o *Object) Parent() Value     { return o.Par }

// Field reads a named field, delegating up the parent chain on a
// miss. It reports whether the field was found anywhere in the chain.
func (o *Object) Field(name string) (Value, bool) {
	if v, ok := o.Fields[name]; ok {
		return v, true
	}
	if parent, ok := o.Par.(*Object); ok {
		return parent.Field(name)
	}
	return nil, false
}

// SetField writes a named field. If the field is not declared
// locally but is found somewhere up the parent chain, the write goes
// there instead; otherwise it is created locally.
func (o *Object) SetField(name string, v Value) {
	if _, ok := o.Fields[name]; ok {
		o.Fields[name] = v
		return
	}
	if parent, ok := o.Par.(*Object); ok {
		if _, ok := parent.Field(name); ok {
			parent.SetField(name, v)
			return
		}
	}
	o.Fields[name] = v
}

// SupportsInterface reports whether this instance or any ancestor in
// its parent chain is the named class.
func (o *Object) SupportsInterface(name string) bool {
	if o.Class == name {
		return true
	}
	if parent, ok := o.Par.(*Object); ok {
		return parent.SupportsInterface(name)
	}
	return false
}

// Strict, per-variant coercions. Each returns ok=false rather than
// panicking when v does not carry exactly that variant, matching the
// fail-fast TypeMismatch policy described for the instance contract.

func AsBool(v Value) (bool, bool)     { b, ok := v.(Bool); return bool(b), ok }
func AsByte(v Value) (int8, bool)     { b, ok := v.(Byte); return int8(b), ok }
func AsChar(v Value) (uint16, bool)   { c, ok := v.(Char); return uint16(c), ok }
func AsShort(v Value) (int16, bool)   { s, ok := v.(Short); return int16(s), ok }
func AsInt(v Value) (int32, bool)     { i, ok := v.(Int); return int32(i), ok }
func AsLong(v Value) (int64, bool)    { l, ok := v.(Long); return int64(l), ok }
func AsFloat(v Value) (float32, bool) { f, ok := v.(Float); return float32(f), ok }
func AsDouble(v Value) (float64, bool) {
	d, ok := v.(Double)
	return float64(d), ok
}
func AsString(v Value) (string, bool) { s, ok := v.(Str); return string(s), ok }
func AsArray(v Value) (*Array, bool)  { a, ok := v.(*Array); return a, ok }
