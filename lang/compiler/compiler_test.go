package compiler_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/whimbree/clox/lang/compiler"
	"github.com/whimbree/clox/lang/value"
)

func compile(t *testing.T, src string) *value.ObjFunction {
	t.Helper()
	heap := value.NewHeap()
	strings := value.NewTable()
	fn, err := compiler.Compile(src, heap, strings, nil)
	require.NoError(t, err)
	return fn
}

func TestCompileArithmeticEmitsConstantsThenAdd(t *testing.T) {
	fn := compile(t, "1 + 2;")
	assert.Equal(t, byte(compiler.OpConstant), fn.Chunk.Code[0])
	assert.Equal(t, byte(compiler.OpConstant), fn.Chunk.Code[2])
	assert.Equal(t, byte(compiler.OpAdd), fn.Chunk.Code[4])
	assert.Equal(t, byte(compiler.OpPop), fn.Chunk.Code[5])
}

func TestCompileGlobalVarDeclaration(t *testing.T) {
	fn := compile(t, "var x = 1;")
	assert.Contains(t, fn.Chunk.Code, byte(compiler.OpDefineGlobal))
}

func TestCompileLocalVariableUsesGetSetLocal(t *testing.T) {
	fn := compile(t, "{ var x = 1; x = 2; print x; }")
	assert.Contains(t, fn.Chunk.Code, byte(compiler.OpSetLocal))
	assert.Contains(t, fn.Chunk.Code, byte(compiler.OpGetLocal))
}

func TestCompileUndefinedErrorsArePanicModeRecovered(t *testing.T) {
	heap := value.NewHeap()
	strings := value.NewTable()
	_, err := compiler.Compile("var = ;\nvar y = 1;", heap, strings, nil)
	require.Error(t, err)
	errs, ok := err.(compiler.ErrorList)
	require.True(t, ok)
	assert.GreaterOrEqual(t, len(errs), 1)
}

func TestCompileClosureEmitsUpvalueDescriptors(t *testing.T) {
	fn := compile(t, `
		fun outer() {
			var x = 1;
			fun inner() { return x; }
			return inner;
		}
	`)
	assert.Contains(t, fn.Chunk.Code, byte(compiler.OpClosure))

	// inner captures outer's local x (slot 1): outer's CLOSURE for inner
	// carries one (isLocal=1, index=1) descriptor.
	outer := lastFunction(fn)
	require.NotNil(t, outer)
	inner := lastFunction(outer)
	require.NotNil(t, inner)
	assert.Equal(t, 1, inner.UpvalueCount)
	assert.True(t, bytes.Contains(outer.Chunk.Code, []byte{byte(compiler.OpClosure), 1, 1, 1}))
}

func TestCompileClassAndMethod(t *testing.T) {
	fn := compile(t, `
		class Greeter {
			greet() { print "hi"; }
		}
		var g = Greeter();
		g.greet();
	`)
	assert.Contains(t, fn.Chunk.Code, byte(compiler.OpClass))
	assert.Contains(t, fn.Chunk.Code, byte(compiler.OpMethod))
	assert.Contains(t, fn.Chunk.Code, byte(compiler.OpInvoke))
}

func TestCompileSuperInvokeFoldsCallIntoSingleOp(t *testing.T) {
	fn := compile(t, `
		class A { greet() { print "a"; } }
		class B < A {
			greet() { super.greet(); }
		}
	`)
	// super.greet() with a call must compile to OP_SUPER_INVOKE, never to a
	// GET_SUPER immediately followed by a CALL. It is emitted in B.greet's
	// own chunk, the last function constant of the script.
	greet := lastFunction(fn)
	require.NotNil(t, greet)
	found := false
	for _, b := range greet.Chunk.Code {
		if b == byte(compiler.OpSuperInvoke) {
			found = true
		}
	}
	assert.True(t, found)
}

func TestCompileReturnOutsideFunctionIsError(t *testing.T) {
	heap := value.NewHeap()
	strings := value.NewTable()
	_, err := compiler.Compile("return 1;", heap, strings, nil)
	require.Error(t, err)
}

func TestCompileTooManyLocalsErrors(t *testing.T) {
	src := "{\n"
	for i := 0; i < 300; i++ {
		src += "var a" + itoa(i) + " = 0;\n"
	}
	src += "}\n"
	heap := value.NewHeap()
	strings := value.NewTable()
	_, err := compiler.Compile(src, heap, strings, nil)
	require.Error(t, err)
}

func TestCompileTooManyUpvaluesErrors(t *testing.T) {
	var outerLocals, outerRefs, midLocals, midRefs string
	for i := 0; i < 255; i++ {
		n := itoa(i)
		outerLocals += "var a" + n + " = 0;\n"
		outerRefs += "a" + n + "+"
		midLocals += "var b" + n + " = 0;\n"
		midRefs += "b" + n + "+"
	}
	src := "fun outer() {\n" + outerLocals +
		"fun mid() {\n" + midLocals +
		"fun inner() { return " + outerRefs + midRefs + "0; }\n" +
		"return inner;\n}\n" +
		"return mid;\n}\n"

	heap := value.NewHeap()
	strings := value.NewTable()
	_, err := compiler.Compile(src, heap, strings, nil)
	require.Error(t, err)
	errs, ok := err.(compiler.ErrorList)
	require.True(t, ok)
	found := false
	for _, e := range errs {
		if e.Msg == "Too many closure variables in function." {
			found = true
		}
	}
	assert.True(t, found)
}

// lastFunction returns the last function constant in fn's chunk, or nil.
func lastFunction(fn *value.ObjFunction) *value.ObjFunction {
	var last *value.ObjFunction
	for _, c := range fn.Chunk.Constants {
		if c.IsObjType(value.ObjFunctionType) {
			last = c.AsObj().(*value.ObjFunction)
		}
	}
	return last
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	digits := []byte{}
	for i > 0 {
		digits = append([]byte{byte('0' + i%10)}, digits...)
		i /= 10
	}
	return string(digits)
}
