package value

// ObjClass is a class: a name and a method table (string -> closure),
// populated by OP_METHOD and, for subclasses, copied down from the
// superclass's table by OP_INHERIT.
type ObjClass struct {
	Header
	Name    *ObjString
	Methods *Table
}

func (c *ObjClass) String() string { return c.Name.Chars }

// NewClass allocates an unlinked ObjClass; callers register it on a Heap.
func NewClass(name *ObjString) *ObjClass {
	return &ObjClass{Name: name, Methods: NewTable()}
}

// ObjInstance is an instance of a class: the class pointer plus a fields
// table (string -> value) for ad-hoc per-instance state.
type ObjInstance struct {
	Header
	Class  *ObjClass
	Fields *Table
}

func (i *ObjInstance) String() string { return i.Class.Name.Chars + " instance" }

// NewInstance allocates an unlinked ObjInstance; callers register it on a Heap.
func NewInstance(class *ObjClass) *ObjInstance {
	return &ObjInstance{Class: class, Fields: NewTable()}
}

// ObjBoundMethod is the pair (receiver, closure) produced when a method is
// accessed as a value (via GET_PROPERTY or GET_SUPER). INVOKE and
// SUPER_INVOKE call the method directly and create none.
type ObjBoundMethod struct {
	Header
	Receiver Value
	Method   *ObjClosure
}

func (b *ObjBoundMethod) String() string { return b.Method.String() }
