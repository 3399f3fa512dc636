// Package machine implements the stack-based virtual machine that executes
// compiled bytecode: the value stack, call frames, closures and upvalues,
// classes and instances, and the mark-sweep collector that reclaims the
// heap objects compiler and machine allocate along the way.
package machine

import (
	"io"

	"github.com/sirupsen/logrus"
	"github.com/whimbree/clox/lang/compiler"
	"github.com/whimbree/clox/lang/value"
)

const (
	framesMax = 64
	stackMax  = framesMax * 256
)

// callFrame is one active call's bookkeeping: which closure is running,
// where its instruction pointer currently sits in that closure's Chunk,
// and where its locals begin in the VM's shared value stack.
type callFrame struct {
	closure   *value.ObjClosure
	ip        int
	slotsBase int
}

// VM is a single, sequential bytecode interpreter. It owns the heap and
// both hash tables (interned strings, globals) that the compiler and the
// running program share, so that a VM is the right lifetime scope for a
// single script/REPL session: construct one with New, then call Interpret
// once per chunk of source sharing that session's globals.
type VM struct {
	stack []value.Value
	sp    int

	frames     [framesMax]callFrame
	frameCount int

	openUpvalues *value.ObjUpvalue

	heap       *value.Heap
	globals    *value.Table
	strings    *value.Table
	initString *value.ObjString

	grayStack []value.Object

	stdout io.Writer
	log    *logrus.Entry
	config Config
}

// New constructs a VM with its own heap and an empty global namespace,
// registers the native functions, and wires the heap's collection hook to
// this VM's root set.
func New(cfg Config, stdout io.Writer, log *logrus.Entry) *VM {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	vm := &VM{
		stack:   make([]value.Value, stackMax),
		heap:    value.NewHeap(),
		globals: value.NewTable(),
		strings: value.NewTable(),
		stdout:  stdout,
		log:     log,
		config:  cfg,
	}
	vm.heap.StressGC = cfg.StressGC
	vm.initString = vm.internString("init")
	vm.heap.CollectGarbage = vm.collectGarbage
	vm.defineNatives()
	return vm
}

func (vm *VM) internString(s string) *value.ObjString {
	hash := value.HashFNV1a(s)
	if found := vm.strings.FindString(s, hash); found != nil {
		return found
	}
	obj := vm.heap.NewString(s, hash)
	vm.strings.Set(obj, value.Bool(true))
	return obj
}

func (vm *VM) resetStack() {
	vm.sp = 0
	vm.frameCount = 0
	vm.openUpvalues = nil
}

func (vm *VM) push(v value.Value) {
	vm.stack[vm.sp] = v
	vm.sp++
}

func (vm *VM) pop() value.Value {
	vm.sp--
	return vm.stack[vm.sp]
}

func (vm *VM) peek(distance int) value.Value { return vm.stack[vm.sp-1-distance] }

// Interpret compiles source against this VM's shared globals and intern
// table and runs the result to completion. Each call starts a fresh top
// frame but globals, the heap, and interned strings persist across calls on
// the same VM — the contract a REPL relies on to let one line see the
// previous line's declarations.
func (vm *VM) Interpret(source string) error {
	var opts []compiler.Option
	if vm.config.PrintCode {
		opts = append(opts, compiler.WithDebugPrintCode(vm.log.Logger.Out))
	}
	fn, err := compiler.Compile(source, vm.heap, vm.strings, vm.log, opts...)
	if err != nil {
		return err
	}

	vm.push(value.FromObj(fn))
	closure := vm.heap.NewClosure(fn)
	vm.pop()
	vm.push(value.FromObj(closure))
	if err := vm.call(closure, 0); err != nil {
		return err
	}

	return vm.run()
}
