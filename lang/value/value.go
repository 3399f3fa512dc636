// Package value defines the tagged-union Value representation, the heap
// object model, and the allocator/GC bookkeeping (Heap) that every heap
// object flows through.
package value

import "strconv"

// Type tags the variant a Value currently holds.
type Type uint8

const (
	TypeNil Type = iota
	TypeBool
	TypeNumber
	TypeObj
)

// Value is a tagged union over nil, bool, number (float64), and object
// (heap reference). Go has no native union, so the variant payloads are
// plain fields; only the field matching Type is meaningful, mirroring the
// "unchecked cast" contract of the source representation: callers must
// check Type (via Is*) before calling the matching As* accessor.
type Value struct {
	typ     Type
	boolean bool
	number  float64
	obj     Object
}

// Nil is the singular nil value.
var Nil = Value{typ: TypeNil}

// Bool returns a Value wrapping b.
func Bool(b bool) Value { return Value{typ: TypeBool, boolean: b} }

// Number returns a Value wrapping n.
func Number(n float64) Value { return Value{typ: TypeNumber, number: n} }

// FromObj returns a Value wrapping the heap object o.
func FromObj(o Object) Value { return Value{typ: TypeObj, obj: o} }

func (v Value) IsNil() bool    { return v.typ == TypeNil }
func (v Value) IsBool() bool   { return v.typ == TypeBool }
func (v Value) IsNumber() bool { return v.typ == TypeNumber }
func (v Value) IsObj() bool    { return v.typ == TypeObj }

// AsBool extracts the bool payload. The caller must have checked IsBool.
func (v Value) AsBool() bool { return v.boolean }

// AsNumber extracts the number payload. The caller must have checked IsNumber.
func (v Value) AsNumber() float64 { return v.number }

// AsObj extracts the object payload. The caller must have checked IsObj.
func (v Value) AsObj() Object { return v.obj }

// IsObjType reports whether v is an object of the given kind. It is safe to
// call on any Value.
func (v Value) IsObjType(kind ObjType) bool {
	return v.typ == TypeObj && v.obj.Head().Type == kind
}

// IsString reports whether v holds a string object.
func (v Value) IsString() bool { return v.IsObjType(ObjStringType) }

// AsString extracts the string object payload. The caller must have
// checked IsString.
func (v Value) AsString() *ObjString { return v.obj.(*ObjString) }

// Falsey reports whether v is falsy: nil and false are falsy, everything
// else (including 0 and the empty string) is truthy.
func (v Value) Falsey() bool {
	return v.IsNil() || (v.IsBool() && !v.AsBool())
}

// Equal implements Value equality: numeric equality for numbers, reference
// identity for objects (which for strings means interned-pointer identity,
// guaranteeing that two strings with equal bytes compare equal).
func Equal(a, b Value) bool {
	if a.typ != b.typ {
		return false
	}
	switch a.typ {
	case TypeNil:
		return true
	case TypeBool:
		return a.boolean == b.boolean
	case TypeNumber:
		return a.number == b.number
	case TypeObj:
		return a.obj == b.obj // reference identity; interning makes this byte-equality for strings
	default:
		return false
	}
}

// String renders v the way OP_PRINT does.
func (v Value) String() string {
	switch v.typ {
	case TypeNil:
		return "nil"
	case TypeBool:
		if v.boolean {
			return "true"
		}
		return "false"
	case TypeNumber:
		return strconv.FormatFloat(v.number, 'g', -1, 64)
	case TypeObj:
		return v.obj.String()
	default:
		return "<invalid value>"
	}
}

// TypeName returns a short string describing the dynamic type of v, used in
// runtime error messages.
func (v Value) TypeName() string {
	switch v.typ {
	case TypeNil:
		return "nil"
	case TypeBool:
		return "boolean"
	case TypeNumber:
		return "number"
	case TypeObj:
		return v.obj.Head().Type.String()
	default:
		return "invalid"
	}
}
