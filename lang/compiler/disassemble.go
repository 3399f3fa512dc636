package compiler

import (
	"fmt"
	"io"

	"github.com/whimbree/clox/lang/value"
)

var opcodeNames = [...]string{
	OpConstant:     "OP_CONSTANT",
	OpNil:          "OP_NIL",
	OpTrue:         "OP_TRUE",
	OpFalse:        "OP_FALSE",
	OpPop:          "OP_POP",
	OpGetLocal:     "OP_GET_LOCAL",
	OpSetLocal:     "OP_SET_LOCAL",
	OpGetGlobal:    "OP_GET_GLOBAL",
	OpDefineGlobal: "OP_DEFINE_GLOBAL",
	OpSetGlobal:    "OP_SET_GLOBAL",
	OpGetUpvalue:   "OP_GET_UPVALUE",
	OpSetUpvalue:   "OP_SET_UPVALUE",
	OpGetProperty:  "OP_GET_PROPERTY",
	OpSetProperty:  "OP_SET_PROPERTY",
	OpEqual:        "OP_EQUAL",
	OpGreater:      "OP_GREATER",
	OpLess:         "OP_LESS",
	OpAdd:          "OP_ADD",
	OpSubtract:     "OP_SUBTRACT",
	OpMultiply:     "OP_MULTIPLY",
	OpDivide:       "OP_DIVIDE",
	OpNot:          "OP_NOT",
	OpNegate:       "OP_NEGATE",
	OpPrint:        "OP_PRINT",
	OpJump:         "OP_JUMP",
	OpJumpIfFalse:  "OP_JUMP_IF_FALSE",
	OpLoop:         "OP_LOOP",
	OpCall:         "OP_CALL",
	OpInvoke:       "OP_INVOKE",
	OpClosure:      "OP_CLOSURE",
	OpCloseUpvalue: "OP_CLOSE_UPVALUE",
	OpReturn:       "OP_RETURN",
	OpClass:        "OP_CLASS",
	OpInherit:      "OP_INHERIT",
	OpMethod:       "OP_METHOD",
	OpGetSuper:     "OP_GET_SUPER",
	OpSuperInvoke:  "OP_SUPER_INVOKE",
}

// String returns the opcode's mnemonic, the name used by Disassemble and
// trace-execution logging alike.
func (op Opcode) String() string {
	if int(op) < len(opcodeNames) && opcodeNames[op] != "" {
		return opcodeNames[op]
	}
	return fmt.Sprintf("OP_UNKNOWN(%d)", byte(op))
}

// Disassemble writes a human-readable listing of every instruction in chunk
// to w, one line per instruction, labeled name. It is the compiler's
// equivalent of clox's debug.c dump, used by Compile when WithDebugPrintCode
// is set; the VM's trace-execution mode renders single instructions with
// Instruction.
func Disassemble(chunk *value.Chunk, w io.Writer, name string) {
	fmt.Fprintf(w, "== %s ==\n", name)
	for offset := 0; offset < len(chunk.Code); {
		line, next := Instruction(chunk, offset)
		fmt.Fprintln(w, line)
		offset = next
	}
}

// Instruction formats the single instruction at offset and returns the
// offset of the instruction that follows it.
func Instruction(chunk *value.Chunk, offset int) (string, int) {
	op := Opcode(chunk.Code[offset])
	linePrefix := fmt.Sprintf("%04d line %4d  ", offset, chunk.Lines[offset])

	switch op {
	case OpGetLocal, OpSetLocal, OpGetUpvalue, OpSetUpvalue, OpCall:
		slot := chunk.Code[offset+1]
		return fmt.Sprintf("%s%-18s %4d", linePrefix, op, slot), offset + 2

	case OpConstant, OpDefineGlobal, OpGetGlobal, OpSetGlobal,
		OpGetProperty, OpSetProperty, OpClass, OpMethod, OpGetSuper:
		idx := chunk.Code[offset+1]
		return fmt.Sprintf("%s%-18s %4d %s", linePrefix, op, idx, chunk.Constants[idx]), offset + 2

	case OpInvoke, OpSuperInvoke:
		idx := chunk.Code[offset+1]
		argc := chunk.Code[offset+2]
		return fmt.Sprintf("%s%-18s (%d args) %4d %s", linePrefix, op, argc, idx, chunk.Constants[idx]), offset + 3

	case OpJump, OpJumpIfFalse:
		jump := int(chunk.Code[offset+1])<<8 | int(chunk.Code[offset+2])
		return fmt.Sprintf("%s%-18s %4d -> %d", linePrefix, op, offset, offset+3+jump), offset + 3

	case OpLoop:
		jump := int(chunk.Code[offset+1])<<8 | int(chunk.Code[offset+2])
		return fmt.Sprintf("%s%-18s %4d -> %d", linePrefix, op, offset, offset+3-jump), offset + 3

	case OpClosure:
		idx := chunk.Code[offset+1]
		next := offset + 2
		line := fmt.Sprintf("%s%-18s %4d %s", linePrefix, op, idx, chunk.Constants[idx])
		if c := chunk.Constants[idx]; c.IsObjType(value.ObjFunctionType) {
			fn := c.AsObj().(*value.ObjFunction)
			for i := 0; i < fn.UpvalueCount; i++ {
				isLocal := chunk.Code[next]
				index := chunk.Code[next+1]
				kind := "upvalue"
				if isLocal != 0 {
					kind = "local"
				}
				line += fmt.Sprintf("\n%04d      |                     %s %d", next, kind, index)
				next += 2
			}
		}
		return line, next

	default:
		return fmt.Sprintf("%s%s", linePrefix, op), offset + 1
	}
}
