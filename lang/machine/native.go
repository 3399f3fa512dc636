package machine

import (
	"time"

	"github.com/whimbree/clox/lang/value"
)

// defineNative interns name, wraps fn as an ObjNative, and binds it as a
// global so hosted code can call it like any other function.
func (vm *VM) defineNative(name string, fn value.NativeFn) {
	// Pushed/popped around the allocations below purely so a collection
	// triggered mid-allocation can still find the in-progress objects on
	// the stack; mirrors the same defensive push/pop the VM uses whenever
	// it builds an object out of several allocations.
	vm.push(value.FromObj(vm.internString(name)))
	vm.push(value.FromObj(vm.heap.NewNative(name, fn)))
	vm.globals.Set(vm.peek(1).AsString(), vm.peek(0))
	vm.pop()
	vm.pop()
}

func (vm *VM) defineNatives() {
	vm.defineNative("clock", nativeClock)
}

func nativeClock(argc int, argv []value.Value) (value.Value, error) {
	return value.Number(float64(time.Now().UnixNano()) / float64(time.Second)), nil
}
