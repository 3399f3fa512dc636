package machine

import "github.com/whimbree/clox/lang/value"

// call pushes a new frame running closure over the argc arguments already
// sitting on the stack (the callee itself sits just below them, at
// slotsBase, the usual convention that lets method calls find their
// receiver at local slot 0 for free).
func (vm *VM) call(closure *value.ObjClosure, argc int) error {
	if argc != closure.Function.Arity {
		return vm.runtimeError("Expected %d arguments but got %d.", closure.Function.Arity, argc)
	}
	if vm.frameCount == framesMax {
		return vm.runtimeError("Stack overflow.")
	}

	fr := &vm.frames[vm.frameCount]
	vm.frameCount++
	fr.closure = closure
	fr.ip = 0
	fr.slotsBase = vm.sp - argc - 1
	return nil
}

// callValue dispatches a call on an arbitrary callee value: a closure runs
// directly, a native runs inline and its result replaces the call on the
// stack, a class constructs an instance (invoking "init" if the class
// defines one), and a bound method resolves to its underlying closure with
// the receiver substituted in for the callee slot.
func (vm *VM) callValue(callee value.Value, argc int) error {
	if !callee.IsObj() {
		return vm.runtimeError("Can only call functions and classes.")
	}
	switch obj := callee.AsObj().(type) {
	case *value.ObjClosure:
		return vm.call(obj, argc)
	case *value.ObjNative:
		argv := vm.stack[vm.sp-argc : vm.sp]
		result, err := obj.Function(argc, argv)
		if err != nil {
			return vm.runtimeError("%s", err.Error())
		}
		vm.sp -= argc + 1
		vm.push(result)
		return nil
	case *value.ObjClass:
		instance := vm.heap.NewInstance(obj)
		vm.stack[vm.sp-argc-1] = value.FromObj(instance)
		if initializer, ok := obj.Methods.Get(vm.initString); ok {
			return vm.call(initializer.AsObj().(*value.ObjClosure), argc)
		} else if argc != 0 {
			return vm.runtimeError("Expected 0 arguments but got %d.", argc)
		}
		return nil
	case *value.ObjBoundMethod:
		vm.stack[vm.sp-argc-1] = obj.Receiver
		return vm.call(obj.Method, argc)
	default:
		return vm.runtimeError("Can only call functions and classes.")
	}
}

// invoke folds a GET_PROPERTY and CALL on a method name into one step: the
// receiver stays where it is on the stack (no intermediate bound-method
// allocation) as long as the name really does resolve to a method rather
// than a field holding a callable, which is checked first to preserve the
// (rare but legal) ability to shadow a method name with a field.
func (vm *VM) invoke(name *value.ObjString, argc int) error {
	receiver := vm.peek(argc)
	instance, ok := receiver.AsObj().(*value.ObjInstance)
	if !receiver.IsObj() || !ok {
		return vm.runtimeError("Only instances have methods.")
	}

	if field, ok := instance.Fields.Get(name); ok {
		vm.stack[vm.sp-argc-1] = field
		return vm.callValue(field, argc)
	}

	return vm.invokeFromClass(instance.Class, name, argc)
}

func (vm *VM) invokeFromClass(class *value.ObjClass, name *value.ObjString, argc int) error {
	method, ok := class.Methods.Get(name)
	if !ok {
		return vm.runtimeError("Undefined property '%s'.", name.Chars)
	}
	return vm.call(method.AsObj().(*value.ObjClosure), argc)
}

// bindMethod looks up name in class's method table and, if found, wraps it
// with the current top-of-stack receiver into a bound method that replaces
// the receiver there.
func (vm *VM) bindMethod(class *value.ObjClass, name *value.ObjString) error {
	method, ok := class.Methods.Get(name)
	if !ok {
		return vm.runtimeError("Undefined property '%s'.", name.Chars)
	}
	bound := vm.heap.NewBoundMethod(vm.peek(0), method.AsObj().(*value.ObjClosure))
	vm.pop()
	vm.push(value.FromObj(bound))
	return nil
}

// captureUpvalue returns an open upvalue pointing at stack slot slot,
// reusing an existing one if some other closure already captured the same
// slot. The open-upvalue list is kept sorted by descending slot so the
// linear scan can stop as soon as it passes where slot would belong.
func (vm *VM) captureUpvalue(slot int) *value.ObjUpvalue {
	var prev *value.ObjUpvalue
	cur := vm.openUpvalues
	for cur != nil && cur.Slot > slot {
		prev = cur
		cur = cur.Next
	}
	if cur != nil && cur.Slot == slot {
		return cur
	}

	created := vm.heap.NewUpvalue(&vm.stack[slot])
	created.Slot = slot
	created.Next = cur
	if prev == nil {
		vm.openUpvalues = created
	} else {
		prev.Next = created
	}
	return created
}

// closeUpvalues closes every open upvalue at or above slot, copying each
// one's current stack value into its own storage so it survives the
// enclosing call frame popping.
func (vm *VM) closeUpvalues(slot int) {
	for vm.openUpvalues != nil && vm.openUpvalues.Slot >= slot {
		uv := vm.openUpvalues
		uv.Closed = *uv.Location
		uv.Location = &uv.Closed
		vm.openUpvalues = uv.Next
	}
}
