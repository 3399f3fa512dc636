package machine

import "github.com/whimbree/clox/lang/value"

// collectGarbage runs one mark-sweep cycle: mark every root reachable
// object, blacken the gray worklist until it drains, prune the intern
// table of any string nobody else marked (a weak-reference table must not
// itself be a reason a string stays alive), then sweep the heap of
// anything still unmarked. Heap.track invokes this through the
// CollectGarbage hook once BytesAllocated crosses NextGC (or on every
// allocation when StressGC is set).
func (vm *VM) collectGarbage() {
	before := vm.heap.BytesAllocated
	if vm.config.LogGC {
		vm.log.Debug("gc begin")
	}

	vm.markRoots()
	vm.traceReferences()
	vm.strings.RemoveWhite()
	vm.heap.Sweep(value.SizeOf)

	if vm.config.HeapGrowFactor < 1 {
		vm.heap.NextGC = vm.heap.BytesAllocated + defaultNextGCIncrement
	} else {
		vm.heap.NextGC = vm.heap.BytesAllocated * vm.config.HeapGrowFactor
	}

	if vm.config.LogGC {
		vm.log.WithField("before", before).
			WithField("after", vm.heap.BytesAllocated).
			WithField("nextGC", vm.heap.NextGC).
			Debug("gc end")
	}
}

const defaultNextGCIncrement = 1024 * 1024

func (vm *VM) markValue(v value.Value) {
	if v.IsObj() {
		vm.markObject(v.AsObj())
	}
}

func (vm *VM) markObject(o value.Object) {
	if o == nil || o.Head().IsMarked {
		return
	}
	o.Head().IsMarked = true
	vm.grayStack = append(vm.grayStack, o)
}

func (vm *VM) markRoots() {
	for i := 0; i < vm.sp; i++ {
		vm.markValue(vm.stack[i])
	}
	for i := 0; i < vm.frameCount; i++ {
		vm.markObject(vm.frames[i].closure)
	}
	for uv := vm.openUpvalues; uv != nil; uv = uv.Next {
		vm.markObject(uv)
	}
	vm.globals.Mark(vm.markValue)
	vm.markObject(vm.initString)
}

// traceReferences blackens the gray worklist: for each gray object, mark
// everything it points to (turning those gray in turn) until nothing gray
// remains.
func (vm *VM) traceReferences() {
	for len(vm.grayStack) > 0 {
		o := vm.grayStack[len(vm.grayStack)-1]
		vm.grayStack = vm.grayStack[:len(vm.grayStack)-1]
		vm.blacken(o)
	}
}

func (vm *VM) blacken(o value.Object) {
	switch obj := o.(type) {
	case *value.ObjString, *value.ObjNative:
		// no outgoing references
	case *value.ObjUpvalue:
		vm.markValue(obj.Closed)
	case *value.ObjFunction:
		if obj.Name != nil {
			vm.markObject(obj.Name)
		}
		for _, c := range obj.Chunk.Constants {
			vm.markValue(c)
		}
	case *value.ObjClosure:
		vm.markObject(obj.Function)
		for _, uv := range obj.Upvalues {
			vm.markObject(uv)
		}
	case *value.ObjClass:
		vm.markObject(obj.Name)
		obj.Methods.Mark(vm.markValue)
	case *value.ObjInstance:
		vm.markObject(obj.Class)
		obj.Fields.Mark(vm.markValue)
	case *value.ObjBoundMethod:
		vm.markValue(obj.Receiver)
		vm.markObject(obj.Method)
	}
}
