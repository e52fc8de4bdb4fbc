package natives

import (
	"fmt"
	"strconv"
	"strings"

	"jgvm/internal/object"
	"jgvm/internal/vm"
)

const StringClass = "java/lang/String"

func registerString(reg *vm.Registry) {
	b := NewBase(StringClass, "java/lang/Object")

	str := func(v object.Value) string {
		s, _ := object.AsString(v)
		return s
	}

	b.Methods["length"] = func(reg *vm.Registry, this object.Value, args []object.Value) (object.Value, error) {
		return object.Int(int32(len(str(this)))), nil
	}
	b.Methods["isEmpty"] = func(reg *vm.Registry, this object.Value, args []object.Value) (object.Value, error) {
		return object.Bool(len(str(this)) == 0), nil
	}
	b.Methods["charAt"] = func(reg *vm.Registry, this object.Value, args []object.Value) (object.Value, error) {
		s := str(this)
		i, _ := object.AsInt(args[0])
		if i < 0 || int(i) >= len(s) {
			return nil, &indexOutOfBounds{}
		}
		return object.Char(s[i]), nil
	}
	b.Methods["substring"] = func(reg *vm.Registry, this object.Value, args []object.Value) (object.Value, error) {
		s := str(this)
		start, _ := object.AsInt(args[0])
		end := int32(len(s))
		if len(args) > 1 {
			end, _ = object.AsInt(args[1])
		}
		if start < 0 || end > int32(len(s)) || start > end {
			return nil, &indexOutOfBounds{}
		}
		return object.Str(s[start:end]), nil
	}
	b.Methods["concat"] = func(reg *vm.Registry, this object.Value, args []object.Value) (object.Value, error) {
		return object.Str(str(this) + str(args[0])), nil
	}
	b.Methods["equals"] = func(reg *vm.Registry, this object.Value, args []object.Value) (object.Value, error) {
		other, ok := object.AsString(args[0])
		return object.Bool(ok && other == str(this)), nil
	}
	b.Methods["equalsIgnoreCase"] = func(reg *vm.Registry, this object.Value, args []object.Value) (object.Value, error) {
		other, ok := object.AsString(args[0])
		return object.Bool(ok && strings.EqualFold(other, str(this))), nil
	}
	b.Methods["compareTo"] = func(reg *vm.Registry, this object.Value, args []object.Value) (object.Value, error) {
		return object.Int(int32(strings.Compare(str(this), str(args[0])))), nil
	}
	b.Methods["toUpperCase"] = func(reg *vm.Registry, this object.Value, args []object.Value) (object.Value, error) {
		return object.Str(strings.ToUpper(str(this))), nil
	}
	b.Methods["toLowerCase"] = func(reg *vm.Registry, this object.Value, args []object.Value) (object.Value, error) {
		return object.Str(strings.ToLower(str(this))), nil
	}
	b.Methods["trim"] = func(reg *vm.Registry, this object.Value, args []object.Value) (object.Value, error) {
		return object.Str(strings.TrimSpace(str(this))), nil
	}
	b.Methods["indexOf"] = func(reg *vm.Registry, this object.Value, args []object.Value) (object.Value, error) {
		return object.Int(int32(strings.Index(str(this), str(args[0])))), nil
	}
	b.Methods["contains"] = func(reg *vm.Registry, this object.Value, args []object.Value) (object.Value, error) {
		return object.Bool(strings.Contains(str(this), str(args[0]))), nil
	}
	b.Methods["startsWith"] = func(reg *vm.Registry, this object.Value, args []object.Value) (object.Value, error) {
		return object.Bool(strings.HasPrefix(str(this), str(args[0]))), nil
	}
	b.Methods["endsWith"] = func(reg *vm.Registry, this object.Value, args []object.Value) (object.Value, error) {
		return object.Bool(strings.HasSuffix(str(this), str(args[0]))), nil
	}
	b.Methods["replace"] = func(reg *vm.Registry, this object.Value, args []object.Value) (object.Value, error) {
		return object.Str(strings.ReplaceAll(str(this), str(args[0]), str(args[1]))), nil
	}
	b.Methods["split"] = func(reg *vm.Registry, this object.Value, args []object.Value) (object.Value, error) {
		parts := strings.Split(str(this), str(args[0]))
		elems := make([]object.Value, len(parts))
		for i, p := range parts {
			elems[i] = object.Str(p)
		}
		arr := object.NewArray(ObjectDesc(StringClass), len(elems), object.Str(""))
		copy(arr.Elements, elems)
		return arr, nil
	}
	b.Methods["toString"] = func(reg *vm.Registry, this object.Value, args []object.Value) (object.Value, error) {
		return this, nil
	}
	b.Methods["hashCode"] = func(reg *vm.Registry, this object.Value, args []object.Value) (object.Value, error) {
		return object.Int(javaStringHash(str(this))), nil
	}

	b.Statics["valueOf"] = func(reg *vm.Registry, args []object.Value) (object.Value, error) {
		return object.Str(displayArg(args[0])), nil
	}
	b.Statics["format"] = func(reg *vm.Registry, args []object.Value) (object.Value, error) {
		if len(args) == 0 {
			return nil, fmt.Errorf("String.format requires a format string")
		}
		return object.Str(javaFormat(str(args[0]), args[1:])), nil
	}

	reg.RegisterNative(StringClass, func(reg *vm.Registry) vm.Class { return b })
}

// ObjectDesc turns an internal class name into its "L...;" field
// descriptor, used for constructing arrays of object element type.
func ObjectDesc(className string) string {
	return "L" + className + ";"
}

// javaStringHash reproduces java.lang.String.hashCode's
// s[0]*31^(n-1) + ... + s[n-1] recurrence.
func javaStringHash(s string) int32 {
	var h int32
	for i := 0; i < len(s); i++ {
		h = h*31 + int32(s[i])
	}
	return h
}

// javaFormat implements the subset of String.format's conversion
// syntax a compiled program is likely to emit: %s, %d, %f, %b, %c,
// %x, %n, and the literal %%. Width/precision/flags are not
// interpreted; only the conversion character is.
func javaFormat(format string, args []object.Value) string {
	var out strings.Builder
	argIdx := 0
	next := func() object.Value {
		if argIdx >= len(args) {
			return object.Str("")
		}
		v := args[argIdx]
		argIdx++
		return v
	}

	for i := 0; i < len(format); i++ {
		c := format[i]
		if c != '%' || i+1 >= len(format) {
			out.WriteByte(c)
			continue
		}
		i++
		for i+1 < len(format) && strings.IndexByte("-#+ 0,(.123456789", format[i]) >= 0 {
			i++
		}
		switch format[i] {
		case '%':
			out.WriteByte('%')
		case 'n':
			out.WriteByte('\n')
		case 's', 'S':
			out.WriteString(displayArg(next()))
		case 'd':
			v := next()
			if n, ok := object.AsLong(v); ok {
				out.WriteString(strconv.FormatInt(n, 10))
			} else if n, ok := object.AsInt(v); ok {
				out.WriteString(strconv.FormatInt(int64(n), 10))
			}
		case 'f':
			v := next()
			if n, ok := object.AsDouble(v); ok {
				out.WriteString(strconv.FormatFloat(n, 'f', 6, 64))
			} else if n, ok := object.AsFloat(v); ok {
				out.WriteString(strconv.FormatFloat(float64(n), 'f', 6, 32))
			}
		case 'b':
			v := next()
			if n, ok := object.AsBool(v); ok {
				out.WriteString(strconv.FormatBool(n))
			} else {
				out.WriteString(strconv.FormatBool(!v.IsNull()))
			}
		case 'c':
			v := next()
			if n, ok := object.AsChar(v); ok {
				out.WriteRune(rune(n))
			}
		case 'x':
			v := next()
			if n, ok := object.AsInt(v); ok {
				out.WriteString(strconv.FormatInt(int64(n), 16))
			}
		default:
			out.WriteByte('%')
			out.WriteByte(format[i])
		}
	}
	return out.String()
}
