package value

import "fmt"

// ObjType discriminates the kind of heap object a Header belongs to.
type ObjType uint8

const (
	ObjStringType ObjType = iota
	ObjFunctionType
	ObjNativeType
	ObjClosureType
	ObjUpvalueType
	ObjClassType
	ObjInstanceType
	ObjBoundMethodType
)

var objTypeNames = [...]string{
	ObjStringType:      "string",
	ObjFunctionType:    "function",
	ObjNativeType:      "native",
	ObjClosureType:     "closure",
	ObjUpvalueType:     "upvalue",
	ObjClassType:       "class",
	ObjInstanceType:    "instance",
	ObjBoundMethodType: "bound method",
}

func (t ObjType) String() string { return objTypeNames[t] }

// Object is implemented by every heap object kind. Go has no C-style struct
// inheritance to recover a concrete pointer from a shared header pointer,
// so the "common header" of spec.md §3 is instead the Header struct that
// every kind embeds, and Object is the interface that lets the heap list
// and the collector walk mixed-kind objects uniformly; a type switch on
// Head().Type (or a Go type switch on the Object itself) recovers the
// concrete kind where needed.
type Object interface {
	Head() *Header
	String() string
}

// Header is embedded by every heap object kind: a type tag, the collector's
// one mark bit (false between collections), and the intrusive link to the
// next object in allocation order. The heap list head lives in Heap.
type Header struct {
	Type     ObjType
	IsMarked bool
	Next     Object
}

func (h *Header) Head() *Header { return h }

// ObjString is an immutable, interned byte sequence with a precomputed hash.
type ObjString struct {
	Header
	Chars string
	Hash  uint32
}

func (s *ObjString) String() string { return s.Chars }

// HashFNV1a computes the 32-bit FNV-1a hash of s, the hash function used to
// both place and later re-find strings in the intern table.
func HashFNV1a(s string) uint32 {
	var h uint32 = 2166136261
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= 16777619
	}
	return h
}

// Chunk is a function's compiled bytecode: an ordered byte stream of
// opcodes and inline operands, a parallel per-byte source-line map, and an
// indexed constant pool. Constant-pool indices are 8-bit; the byte stream
// itself is unbounded.
type Chunk struct {
	Code      []byte
	Lines     []int
	Constants []Value
}

// Write appends a single byte with its source line to the chunk.
func (c *Chunk) Write(b byte, line int) {
	c.Code = append(c.Code, b)
	c.Lines = append(c.Lines, line)
}

// AddConstant appends v to the constant pool and returns its index. Callers
// are responsible for checking the index still fits the 8-bit operand
// (spec: at most 256 constants per chunk).
func (c *Chunk) AddConstant(v Value) int {
	c.Constants = append(c.Constants, v)
	return len(c.Constants) - 1
}

// ObjFunction is an immutable (once compiled) function: arity, upvalue
// count, its Chunk, and an optional name (nil for the top-level script).
type ObjFunction struct {
	Header
	Arity        int
	UpvalueCount int
	Chunk        Chunk
	Name         *ObjString
}

func (f *ObjFunction) String() string {
	if f.Name == nil {
		return "<script>"
	}
	return fmt.Sprintf("<fn %s>", f.Name.Chars)
}

// NativeFn is a Go function exposed to the hosted language as a callable
// value: given argc and the argument slice (argv[0] is the first argument),
// it returns a result Value or an error to be raised as a runtime error.
type NativeFn func(argc int, argv []Value) (Value, error)

// ObjNative wraps a NativeFn so it can be stored in a Value.
type ObjNative struct {
	Header
	Function NativeFn
	Name     string
}

func (n *ObjNative) String() string { return "<native fn>" }

// ObjUpvalue is either open (Location points into the VM's value stack) or
// closed (Location points at Closed, an owned copy). Open upvalues form a
// singly linked list (via Next) kept in descending stack-slot order by the
// VM.
type ObjUpvalue struct {
	Header
	Location *Value
	Closed   Value
	Next     *ObjUpvalue
	// Slot is the stack index Location was opened at. It is meaningful only
	// while the upvalue is open; it lets the VM keep its open-upvalue list
	// ordered and find "the upvalue already open for this slot" without
	// unsafe pointer arithmetic on the value stack.
	Slot int
}

func (u *ObjUpvalue) String() string { return "upvalue" }

// ObjClosure pairs a Function with the array of upvalues it captured,
// sized at creation to Function.UpvalueCount.
type ObjClosure struct {
	Header
	Function *ObjFunction
	Upvalues []*ObjUpvalue
}

func (c *ObjClosure) String() string { return c.Function.String() }
