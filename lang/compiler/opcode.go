package compiler

// Opcode is the single byte the VM dispatches on; fixed-width operands
// (if any) for each opcode follow it inline in the Chunk's code stream.
type Opcode byte

//nolint:revive
const (
	OpConstant Opcode = iota // CONSTANT c
	OpNil
	OpTrue
	OpFalse
	OpPop

	OpGetLocal // GET_LOCAL s
	OpSetLocal // SET_LOCAL s
	OpGetGlobal
	OpDefineGlobal
	OpSetGlobal
	OpGetUpvalue
	OpSetUpvalue
	OpGetProperty
	OpSetProperty

	OpEqual
	OpGreater
	OpLess
	OpAdd
	OpSubtract
	OpMultiply
	OpDivide
	OpNot
	OpNegate

	OpPrint
	OpJump         // JUMP off16
	OpJumpIfFalse  // JUMP_IF_FALSE off16
	OpLoop         // LOOP off16
	OpCall         // CALL argc
	OpInvoke       // INVOKE c, argc
	OpClosure      // CLOSURE c, (u8,u8)*
	OpCloseUpvalue
	OpReturn

	OpClass
	OpInherit
	OpMethod
	OpGetSuper
	OpSuperInvoke // SUPER_INVOKE c, argc
)

// jumpOperandWidth is the byte width of a 16-bit big-endian jump/loop operand.
const jumpOperandWidth = 2
