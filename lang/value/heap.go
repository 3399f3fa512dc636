package value

// Heap owns every allocated object's intrusive next-pointer and the byte
// accounting that drives collection. It does not itself know how to mark
// roots (only the owner of the stack/frames/globals/compiler state can do
// that); CollectGarbage is injected by that owner once one exists. Until it
// is set, allocation simply never triggers a collection (used during the
// handful of bootstrap allocations, e.g. interning "init", that happen
// before a VM is fully constructed).
type Heap struct {
	head           Object
	BytesAllocated int
	NextGC         int
	CollectGarbage func()
	StressGC       bool // collect before every allocation, for GC-bug hunting
}

const defaultNextGC = 1024 * 1024 // 1 MiB, per spec.md §4.6

// NewHeap returns an empty Heap with the default initial GC threshold.
func NewHeap() *Heap {
	return &Heap{NextGC: defaultNextGC}
}

// Head returns the first object in the heap list, for the sweep phase to
// walk.
func (h *Heap) Head() Object { return h.head }

// SetHead replaces the heap list head; used by Sweep to install the
// surviving list.
func (h *Heap) SetHead(o Object) { h.head = o }

// track registers a freshly allocated object on the heap list, accounts its
// size, and triggers a collection if the allocator's policy says to.
func (h *Heap) track(o Object, size int) {
	o.Head().Next = h.head
	h.head = o
	h.BytesAllocated += size
	if h.CollectGarbage != nil && (h.StressGC || h.BytesAllocated > h.NextGC) {
		h.CollectGarbage()
	}
}

// sizeof estimates the runtime footprint of a value used for accounting
// (the exact number does not matter; only that it is positive and grows
// with content, so next_gc scales with real memory pressure).
const (
	sizeofObjString      = 32
	sizeofObjFunction    = 96
	sizeofObjNative      = 48
	sizeofObjClosure     = 48
	sizeofObjUpvalue     = 32
	sizeofObjClass       = 56
	sizeofObjInstance    = 56
	sizeofObjBoundMethod = 40
)

// NewString allocates a string object. Callers are responsible for interning
// (see Table.FindString / VM.internString) — this constructor always
// allocates, it never consults the intern table.
func (h *Heap) NewString(chars string, hash uint32) *ObjString {
	s := &ObjString{Chars: chars, Hash: hash}
	s.Type = ObjStringType
	h.track(s, sizeofObjString+len(chars))
	return s
}

// NewFunction allocates an empty function object; the compiler fills in its
// fields as it compiles.
func (h *Heap) NewFunction() *ObjFunction {
	f := &ObjFunction{}
	f.Type = ObjFunctionType
	h.track(f, sizeofObjFunction)
	return f
}

// NewNative allocates a native function object.
func (h *Heap) NewNative(name string, fn NativeFn) *ObjNative {
	n := &ObjNative{Function: fn, Name: name}
	n.Type = ObjNativeType
	h.track(n, sizeofObjNative)
	return n
}

// NewClosure allocates a closure wrapping fn, with a fresh upvalues array
// sized to fn.UpvalueCount.
func (h *Heap) NewClosure(fn *ObjFunction) *ObjClosure {
	c := &ObjClosure{Function: fn, Upvalues: make([]*ObjUpvalue, fn.UpvalueCount)}
	c.Type = ObjClosureType
	h.track(c, sizeofObjClosure+8*fn.UpvalueCount)
	return c
}

// NewUpvalue allocates an open upvalue pointing at slot.
func (h *Heap) NewUpvalue(slot *Value) *ObjUpvalue {
	u := &ObjUpvalue{Location: slot}
	u.Type = ObjUpvalueType
	h.track(u, sizeofObjUpvalue)
	return u
}

// NewClass allocates a class object with an empty method table.
func (h *Heap) NewClass(name *ObjString) *ObjClass {
	c := NewClass(name)
	c.Type = ObjClassType
	h.track(c, sizeofObjClass)
	return c
}

// NewInstance allocates an instance of class with an empty fields table.
func (h *Heap) NewInstance(class *ObjClass) *ObjInstance {
	i := NewInstance(class)
	i.Type = ObjInstanceType
	h.track(i, sizeofObjInstance)
	return i
}

// NewBoundMethod allocates a bound method pairing receiver with method.
func (h *Heap) NewBoundMethod(receiver Value, method *ObjClosure) *ObjBoundMethod {
	b := &ObjBoundMethod{Receiver: receiver, Method: method}
	b.Type = ObjBoundMethodType
	h.track(b, sizeofObjBoundMethod)
	return b
}

// Sweep walks the heap list, freeing every object whose IsMarked bit is
// clear and deducting its accounted size, then clears IsMarked on every
// survivor so the next cycle starts from a clean slate. sizeOf must return
// the same estimate used at allocation time.
func (h *Heap) Sweep(sizeOf func(Object) int) {
	var survivors Object
	var tail Object
	for o := h.head; o != nil; {
		next := o.Head().Next
		if o.Head().IsMarked {
			o.Head().IsMarked = false
			o.Head().Next = nil
			if survivors == nil {
				survivors = o
				tail = o
			} else {
				tail.Head().Next = o
				tail = o
			}
		} else {
			h.BytesAllocated -= sizeOf(o)
		}
		o = next
	}
	h.head = survivors
}

// SizeOf returns the accounting size used at allocation time for o's
// concrete kind, for use by Sweep.
func SizeOf(o Object) int {
	switch s := o.(type) {
	case *ObjString:
		return sizeofObjString + len(s.Chars)
	case *ObjFunction:
		return sizeofObjFunction
	case *ObjNative:
		return sizeofObjNative
	case *ObjClosure:
		return sizeofObjClosure + 8*len(s.Upvalues)
	case *ObjUpvalue:
		return sizeofObjUpvalue
	case *ObjClass:
		return sizeofObjClass
	case *ObjInstance:
		return sizeofObjInstance
	case *ObjBoundMethod:
		return sizeofObjBoundMethod
	default:
		return 0
	}
}
