package compiler

import (
	"strconv"

	"github.com/whimbree/clox/lang/token"
	"github.com/whimbree/clox/lang/value"
)

func (c *Compiler) number(canAssign bool) {
	n, err := strconv.ParseFloat(c.previous.Lexeme, 64)
	if err != nil {
		c.error("Invalid number literal.")
		return
	}
	c.emitConstant(value.Number(n))
}

func (c *Compiler) string(canAssign bool) {
	lexeme := c.previous.Lexeme
	chars := lexeme[1 : len(lexeme)-1] // strip the surrounding quotes
	c.emitConstant(value.FromObj(c.internString(chars)))
}

func (c *Compiler) literal(canAssign bool) {
	switch c.previous.Kind {
	case token.FALSE:
		c.emitOp(OpFalse)
	case token.TRUE:
		c.emitOp(OpTrue)
	case token.NIL:
		c.emitOp(OpNil)
	}
}

func (c *Compiler) grouping(canAssign bool) {
	c.expression()
	c.consume(token.RIGHT_PAREN, "Expect ')' after expression.")
}

func (c *Compiler) unary(canAssign bool) {
	opKind := c.previous.Kind
	c.parsePrecedence(precUnary)
	switch opKind {
	case token.BANG:
		c.emitOp(OpNot)
	case token.MINUS:
		c.emitOp(OpNegate)
	}
}

func (c *Compiler) binary(canAssign bool) {
	opKind := c.previous.Kind
	r := rule(opKind)
	c.parsePrecedence(r.precedence + 1)

	switch opKind {
	case token.BANG_EQUAL:
		c.emitOp(OpEqual)
		c.emitOp(OpNot)
	case token.EQUAL_EQUAL:
		c.emitOp(OpEqual)
	case token.GREATER:
		c.emitOp(OpGreater)
	case token.GREATER_EQUAL:
		c.emitOp(OpLess)
		c.emitOp(OpNot)
	case token.LESS:
		c.emitOp(OpLess)
	case token.LESS_EQUAL:
		c.emitOp(OpGreater)
		c.emitOp(OpNot)
	case token.PLUS:
		c.emitOp(OpAdd)
	case token.MINUS:
		c.emitOp(OpSubtract)
	case token.STAR:
		c.emitOp(OpMultiply)
	case token.SLASH:
		c.emitOp(OpDivide)
	}
}

func (c *Compiler) and(canAssign bool) {
	endJump := c.emitJump(OpJumpIfFalse)
	c.emitOp(OpPop)
	c.parsePrecedence(precAnd)
	c.patchJump(endJump)
}

func (c *Compiler) or(canAssign bool) {
	elseJump := c.emitJump(OpJumpIfFalse)
	endJump := c.emitJump(OpJump)

	c.patchJump(elseJump)
	c.emitOp(OpPop)

	c.parsePrecedence(precOr)
	c.patchJump(endJump)
}

func (c *Compiler) call(canAssign bool) {
	argc := c.argumentList()
	c.emitOpByte(OpCall, argc)
}

// dot handles both plain property access/assignment and, when the property
// name is immediately followed by an argument list, folds the property
// lookup and the call into a single INVOKE instruction instead of emitting
// a GET_PROPERTY that the following call would then have to indirect
// through — one opcode, one dispatch, instead of two.
func (c *Compiler) dot(canAssign bool) {
	c.consume(token.IDENTIFIER, "Expect property name after '.'.")
	nameConst := c.identifierConstant(c.previous)

	switch {
	case canAssign && c.match(token.EQUAL):
		c.expression()
		c.emitOpByte(OpSetProperty, nameConst)
	case c.match(token.LEFT_PAREN):
		argc := c.argumentList()
		c.emitOpByte(OpInvoke, nameConst)
		c.emitByte(argc)
	default:
		c.emitOpByte(OpGetProperty, nameConst)
	}
}

func (c *Compiler) variable(canAssign bool) { c.namedVariableByToken(c.previous, canAssign) }

func (c *Compiler) namedVariableByToken(tok token.Token, canAssign bool) {
	var getOp, setOp Opcode
	arg := resolveLocal(c.fs, tok.Lexeme)
	switch {
	case arg == -2:
		c.error("Can't read local variable in its own initializer.")
		arg = 0
		getOp, setOp = OpGetLocal, OpSetLocal
	case arg != -1:
		getOp, setOp = OpGetLocal, OpSetLocal
	default:
		arg = c.resolveUpvalue(c.fs, tok.Lexeme)
		switch {
		case arg == -2:
			c.error("Can't read local variable in its own initializer.")
			arg = 0
			getOp, setOp = OpGetUpvalue, OpSetUpvalue
		case arg != -1:
			getOp, setOp = OpGetUpvalue, OpSetUpvalue
		default:
			arg = int(c.identifierConstant(tok))
			getOp, setOp = OpGetGlobal, OpSetGlobal
		}
	}

	if canAssign && c.match(token.EQUAL) {
		c.expression()
		c.emitOpByte(setOp, byte(arg))
	} else {
		c.emitOpByte(getOp, byte(arg))
	}
}

func (c *Compiler) this(canAssign bool) {
	if c.cs == nil {
		c.error("Can't use 'this' outside of a class.")
		return
	}
	c.variable(false)
}

// super handles both `super.method` (a bound-method value) and
// `super.method(args)`, which — per the same fold dot performs for plain
// calls — is compiled directly to SUPER_INVOKE rather than a GET_SUPER
// followed by a CALL, so the method name is looked up in the superclass's
// method table exactly once.
func (c *Compiler) super(canAssign bool) {
	switch {
	case c.cs == nil:
		c.error("Can't use 'super' outside of a class.")
	case !c.cs.hasSuperclass:
		c.error("Can't use 'super' in a class with no superclass.")
	}

	c.consume(token.DOT, "Expect '.' after 'super'.")
	c.consume(token.IDENTIFIER, "Expect superclass method name.")
	nameConst := c.identifierConstant(c.previous)

	c.namedVariableByToken(token.Token{Kind: token.IDENTIFIER, Lexeme: "this"}, false)
	if c.match(token.LEFT_PAREN) {
		argc := c.argumentList()
		c.namedVariableByToken(token.Token{Kind: token.IDENTIFIER, Lexeme: "super"}, false)
		c.emitOpByte(OpSuperInvoke, nameConst)
		c.emitByte(argc)
	} else {
		c.namedVariableByToken(token.Token{Kind: token.IDENTIFIER, Lexeme: "super"}, false)
		c.emitOpByte(OpGetSuper, nameConst)
	}
}
