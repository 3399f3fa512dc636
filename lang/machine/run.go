package machine

import (
	"fmt"
	"strings"

	"github.com/whimbree/clox/lang/compiler"
	"github.com/whimbree/clox/lang/value"
)

// run executes bytecode starting from the current top call frame until
// that frame (and every frame it calls into) returns, or a runtime error
// propagates out.
func (vm *VM) run() error {
	frame := &vm.frames[vm.frameCount-1]
	code := frame.closure.Function.Chunk.Code

	readByte := func() byte {
		b := code[frame.ip]
		frame.ip++
		return b
	}
	readShort := func() int {
		hi, lo := code[frame.ip], code[frame.ip+1]
		frame.ip += 2
		return int(hi)<<8 | int(lo)
	}
	readConstant := func() value.Value {
		return frame.closure.Function.Chunk.Constants[readByte()]
	}
	readString := func() *value.ObjString { return readConstant().AsString() }

	for {
		if vm.config.TraceExecution {
			vm.traceInstruction(frame)
		}
		op := compiler.Opcode(readByte())
		switch op {
		case compiler.OpConstant:
			vm.push(readConstant())

		case compiler.OpNil:
			vm.push(value.Nil)
		case compiler.OpTrue:
			vm.push(value.Bool(true))
		case compiler.OpFalse:
			vm.push(value.Bool(false))
		case compiler.OpPop:
			vm.pop()

		case compiler.OpGetLocal:
			slot := int(readByte())
			vm.push(vm.stack[frame.slotsBase+slot])
		case compiler.OpSetLocal:
			slot := int(readByte())
			vm.stack[frame.slotsBase+slot] = vm.peek(0)

		case compiler.OpGetGlobal:
			name := readString()
			v, ok := vm.globals.Get(name)
			if !ok {
				return vm.runtimeError("Undefined variable '%s'.", name.Chars)
			}
			vm.push(v)
		case compiler.OpDefineGlobal:
			name := readString()
			vm.globals.Set(name, vm.peek(0))
			vm.pop()
		case compiler.OpSetGlobal:
			name := readString()
			if vm.globals.Set(name, vm.peek(0)) {
				vm.globals.Delete(name)
				return vm.runtimeError("Undefined variable '%s'.", name.Chars)
			}

		case compiler.OpGetUpvalue:
			slot := int(readByte())
			vm.push(*frame.closure.Upvalues[slot].Location)
		case compiler.OpSetUpvalue:
			slot := int(readByte())
			*frame.closure.Upvalues[slot].Location = vm.peek(0)

		case compiler.OpGetProperty:
			instance, ok := vm.peek(0).AsObj().(*value.ObjInstance)
			if !vm.peek(0).IsObj() || !ok {
				return vm.runtimeError("Only instances have properties.")
			}
			name := readString()
			if v, ok := instance.Fields.Get(name); ok {
				vm.pop()
				vm.push(v)
				break
			}
			if err := vm.bindMethod(instance.Class, name); err != nil {
				return err
			}
		case compiler.OpSetProperty:
			instance, ok := vm.peek(1).AsObj().(*value.ObjInstance)
			if !vm.peek(1).IsObj() || !ok {
				return vm.runtimeError("Only instances have fields.")
			}
			name := readString()
			instance.Fields.Set(name, vm.peek(0))
			v := vm.pop()
			vm.pop()
			vm.push(v)

		case compiler.OpGetSuper:
			name := readString()
			superclass := vm.pop().AsObj().(*value.ObjClass)
			if err := vm.bindMethod(superclass, name); err != nil {
				return err
			}

		case compiler.OpEqual:
			b := vm.pop()
			a := vm.pop()
			vm.push(value.Bool(value.Equal(a, b)))
		case compiler.OpGreater, compiler.OpLess:
			if !vm.peek(0).IsNumber() || !vm.peek(1).IsNumber() {
				return vm.runtimeError("Operands must be numbers.")
			}
			b := vm.pop().AsNumber()
			a := vm.pop().AsNumber()
			if op == compiler.OpGreater {
				vm.push(value.Bool(a > b))
			} else {
				vm.push(value.Bool(a < b))
			}

		case compiler.OpAdd:
			if err := vm.add(); err != nil {
				return err
			}
		case compiler.OpSubtract, compiler.OpMultiply, compiler.OpDivide:
			if !vm.peek(0).IsNumber() || !vm.peek(1).IsNumber() {
				return vm.runtimeError("Operands must be numbers.")
			}
			b := vm.pop().AsNumber()
			a := vm.pop().AsNumber()
			switch op {
			case compiler.OpSubtract:
				vm.push(value.Number(a - b))
			case compiler.OpMultiply:
				vm.push(value.Number(a * b))
			case compiler.OpDivide:
				vm.push(value.Number(a / b))
			}

		case compiler.OpNot:
			vm.push(value.Bool(vm.pop().Falsey()))
		case compiler.OpNegate:
			if !vm.peek(0).IsNumber() {
				return vm.runtimeError("Operand must be a number.")
			}
			vm.push(value.Number(-vm.pop().AsNumber()))

		case compiler.OpPrint:
			fmt.Fprintln(vm.stdout, vm.pop().String())

		case compiler.OpJump:
			offset := readShort()
			frame.ip += offset
		case compiler.OpJumpIfFalse:
			offset := readShort()
			if vm.peek(0).Falsey() {
				frame.ip += offset
			}
		case compiler.OpLoop:
			offset := readShort()
			frame.ip -= offset

		case compiler.OpCall:
			argc := int(readByte())
			if err := vm.callValue(vm.peek(argc), argc); err != nil {
				return err
			}
			frame = &vm.frames[vm.frameCount-1]
			code = frame.closure.Function.Chunk.Code

		case compiler.OpInvoke:
			name := readString()
			argc := int(readByte())
			if err := vm.invoke(name, argc); err != nil {
				return err
			}
			frame = &vm.frames[vm.frameCount-1]
			code = frame.closure.Function.Chunk.Code

		case compiler.OpSuperInvoke:
			name := readString()
			argc := int(readByte())
			superclass := vm.pop().AsObj().(*value.ObjClass)
			if err := vm.invokeFromClass(superclass, name, argc); err != nil {
				return err
			}
			frame = &vm.frames[vm.frameCount-1]
			code = frame.closure.Function.Chunk.Code

		case compiler.OpClosure:
			fn := readConstant().AsObj().(*value.ObjFunction)
			closure := vm.heap.NewClosure(fn)
			vm.push(value.FromObj(closure))
			for i := range closure.Upvalues {
				isLocal := readByte()
				index := int(readByte())
				if isLocal != 0 {
					closure.Upvalues[i] = vm.captureUpvalue(frame.slotsBase + index)
				} else {
					closure.Upvalues[i] = frame.closure.Upvalues[index]
				}
			}

		case compiler.OpCloseUpvalue:
			vm.closeUpvalues(vm.sp - 1)
			vm.pop()

		case compiler.OpReturn:
			result := vm.pop()
			vm.closeUpvalues(frame.slotsBase)
			vm.frameCount--
			if vm.frameCount == 0 {
				vm.pop()
				return nil
			}
			vm.sp = frame.slotsBase
			vm.push(result)
			frame = &vm.frames[vm.frameCount-1]
			code = frame.closure.Function.Chunk.Code

		case compiler.OpClass:
			vm.push(value.FromObj(vm.heap.NewClass(readString())))
		case compiler.OpInherit:
			superclass, ok := vm.peek(1).AsObj().(*value.ObjClass)
			if !vm.peek(1).IsObj() || !ok {
				return vm.runtimeError("Superclass must be a class.")
			}
			subclass := vm.peek(0).AsObj().(*value.ObjClass)
			superclass.Methods.AddAll(subclass.Methods)
			vm.pop() // the subclass; the superclass remains as the "super" local
		case compiler.OpMethod:
			vm.defineMethod(readString())

		default:
			return vm.runtimeError("Unknown opcode %d.", op)
		}
	}
}

// add implements OP_ADD's two overloads: numeric addition, and string
// concatenation (which allocates a new interned string from the two
// operands' contents).
func (vm *VM) add() error {
	switch {
	case vm.peek(0).IsString() && vm.peek(1).IsString():
		b := vm.pop().AsString()
		a := vm.pop().AsString()
		concat := a.Chars + b.Chars
		vm.push(value.FromObj(vm.internString(concat)))
		return nil
	case vm.peek(0).IsNumber() && vm.peek(1).IsNumber():
		b := vm.pop().AsNumber()
		a := vm.pop().AsNumber()
		vm.push(value.Number(a + b))
		return nil
	default:
		return vm.runtimeError("Operands must be two numbers or two strings.")
	}
}

// traceInstruction logs the value stack and the next instruction about to
// be dispatched, the Go equivalent of clox's DEBUG_TRACE_EXECUTION build
// flag, gated behind Config.TraceExecution rather than a compile-time define.
func (vm *VM) traceInstruction(frame *callFrame) {
	stack := make([]string, 0, vm.sp)
	for i := 0; i < vm.sp; i++ {
		stack = append(stack, "["+vm.stack[i].String()+"]")
	}
	line, _ := compiler.Instruction(&frame.closure.Function.Chunk, frame.ip)
	vm.log.WithField("stack", strings.Join(stack, "")).Trace(line)
}

func (vm *VM) defineMethod(name *value.ObjString) {
	method := vm.peek(0)
	class := vm.peek(1).AsObj().(*value.ObjClass)
	class.Methods.Set(name, method)
	vm.pop()
}
