// Package compiler turns source text directly into bytecode in a single
// pass: there is no intermediate AST. It is a straightforward Pratt parser
// (precedence-climbing expression parsing, recursive-descent statements)
// that emits Chunk bytes as it recognizes each construct, the way a
// hand-written single-pass bytecode compiler for a C-like language
// typically works.
package compiler

import (
	"io"

	"golang.org/x/exp/slices"

	"github.com/sirupsen/logrus"
	"github.com/whimbree/clox/lang/scanner"
	"github.com/whimbree/clox/lang/token"
	"github.com/whimbree/clox/lang/value"
)

// Compiler holds all state for a single Compile call: the token stream, the
// chain of function frames being compiled (innermost current), the chain of
// enclosing class frames, and the accumulated diagnostics.
type Compiler struct {
	scanner *scanner.Scanner
	heap    *value.Heap
	strings *value.Table
	log     *logrus.Entry

	current  token.Token
	previous token.Token

	hadError  bool
	panicMode bool
	errs      ErrorList

	fs *funcState
	cs *classState

	printCodeTo io.Writer
}

// Option configures an optional Compile behavior.
type Option func(*Compiler)

// WithDebugPrintCode makes Compile disassemble every function to w right
// after it finishes compiling it, mirroring clox's DEBUG_PRINT_CODE flag.
func WithDebugPrintCode(w io.Writer) Option {
	return func(c *Compiler) { c.printCodeTo = w }
}

// Compile compiles source into a top-level function (the implicit "script"
// function, arity 0, taking no upvalues) ready to be wrapped in a closure
// and run. heap is where the compiler allocates the functions and strings
// it emits; strings is the intern table shared with the VM, so that a
// string literal compiled here and an equal string produced at runtime
// (e.g. by concatenation) end up as the same interned object.
func Compile(source string, heap *value.Heap, strings *value.Table, log *logrus.Entry, opts ...Option) (*value.ObjFunction, error) {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	c := &Compiler{
		scanner: scanner.New(source),
		heap:    heap,
		strings: strings,
		log:     log,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.fs = newFuncState(nil, heap.NewFunction(), TypeScript)

	c.advance()
	for !c.match(token.EOF) {
		c.declaration()
	}
	fn := c.endCompiler()

	if c.hadError {
		return nil, c.errs
	}
	return fn, nil
}

// --- token stream -----------------------------------------------------

func (c *Compiler) advance() {
	c.previous = c.current
	for {
		c.current = c.scanner.Scan()
		if c.current.Kind != token.ERROR {
			break
		}
		c.errorAtCurrent(c.current.Lexeme)
	}
}

func (c *Compiler) check(kind token.Kind) bool { return c.current.Kind == kind }

func (c *Compiler) match(kind token.Kind) bool {
	if !c.check(kind) {
		return false
	}
	c.advance()
	return true
}

func (c *Compiler) consume(kind token.Kind, msg string) {
	if c.current.Kind == kind {
		c.advance()
		return
	}
	c.errorAtCurrent(msg)
}

func (c *Compiler) errorAtCurrent(msg string) { c.errorAt(c.current, msg) }
func (c *Compiler) error(msg string)          { c.errorAt(c.previous, msg) }

func (c *Compiler) errorAt(tok token.Token, msg string) {
	if c.panicMode {
		return
	}
	c.panicMode = true
	c.hadError = true
	c.errs = append(c.errs, &Error{Line: tok.Line, Msg: msg})
	c.log.WithField("line", tok.Line).Debug("compile error: " + msg)
}

// synchronize discards tokens until it reaches a point that is likely a
// statement boundary, so a single mistake is reported once instead of
// cascading into a wall of follow-on errors.
func (c *Compiler) synchronize() {
	c.panicMode = false
	for c.current.Kind != token.EOF {
		if c.previous.Kind == token.SEMICOLON {
			return
		}
		switch c.current.Kind {
		case token.CLASS, token.FUN, token.VAR, token.FOR, token.IF, token.WHILE, token.PRINT, token.RETURN:
			return
		}
		c.advance()
	}
}

// --- emission -----------------------------------------------------------

func (c *Compiler) chunk() *value.Chunk { return &c.fs.function.Chunk }

func (c *Compiler) emitByte(b byte) { c.chunk().Write(b, c.previous.Line) }

func (c *Compiler) emitOp(op Opcode) { c.emitByte(byte(op)) }

func (c *Compiler) emitBytes(b1, b2 byte) {
	c.emitByte(b1)
	c.emitByte(b2)
}

func (c *Compiler) emitOpByte(op Opcode, b byte) { c.emitBytes(byte(op), b) }

// emitJump emits op followed by a placeholder 16-bit operand and returns the
// offset of that placeholder, to be fixed up later by patchJump.
func (c *Compiler) emitJump(op Opcode) int {
	c.emitOp(op)
	c.emitByte(0xff)
	c.emitByte(0xff)
	return len(c.chunk().Code) - jumpOperandWidth
}

func (c *Compiler) patchJump(offset int) {
	jump := len(c.chunk().Code) - offset - jumpOperandWidth
	if jump > maxJump-1 {
		c.error("Too much code to jump over.")
	}
	c.chunk().Code[offset] = byte((jump >> 8) & 0xff)
	c.chunk().Code[offset+1] = byte(jump & 0xff)
}

func (c *Compiler) emitLoop(loopStart int) {
	c.emitOp(OpLoop)
	offset := len(c.chunk().Code) - loopStart + jumpOperandWidth
	if offset > maxJump-1 {
		c.error("Loop body too large.")
	}
	c.emitByte(byte((offset >> 8) & 0xff))
	c.emitByte(byte(offset & 0xff))
}

func (c *Compiler) emitReturn() {
	if c.fs.fnType == TypeInitializer {
		c.emitOpByte(OpGetLocal, 0) // return this
	} else {
		c.emitOp(OpNil)
	}
	c.emitOp(OpReturn)
}

func (c *Compiler) makeConstant(v value.Value) byte {
	idx := c.chunk().AddConstant(v)
	if idx > 255 {
		c.error("Too many constants in one chunk.")
		return 0
	}
	return byte(idx)
}

func (c *Compiler) emitConstant(v value.Value) { c.emitOpByte(OpConstant, c.makeConstant(v)) }

// internString returns the (possibly newly allocated) interned *ObjString
// for s, going through the shared intern table the same way the VM does at
// runtime so that identical text always becomes the same object.
func (c *Compiler) internString(s string) *value.ObjString {
	hash := value.HashFNV1a(s)
	if found := c.strings.FindString(s, hash); found != nil {
		return found
	}
	obj := c.heap.NewString(s, hash)
	c.strings.Set(obj, value.Bool(true))
	return obj
}

func (c *Compiler) identifierConstant(tok token.Token) byte {
	return c.makeConstant(value.FromObj(c.internString(tok.Lexeme)))
}

func identifiersEqual(a, b string) bool { return a == b }

// endCompiler finishes the current function frame and returns to the
// enclosing one (or nil at the top of the chain).
func (c *Compiler) endCompiler() *value.ObjFunction {
	c.emitReturn()
	fn := c.fs.function
	name := "<script>"
	if fn.Name != nil {
		name = fn.Name.Chars
	}
	if c.log.Logger.IsLevelEnabled(logrus.TraceLevel) {
		c.log.WithField("function", name).Trace("compiled chunk")
	}
	if c.printCodeTo != nil && !c.hadError {
		Disassemble(&fn.Chunk, c.printCodeTo, name)
	}
	c.fs = c.fs.enclosing
	return fn
}

// --- scopes and variables -------------------------------------------------

func (c *Compiler) beginScope() { c.fs.scopeDepth++ }

// endScope pops every local declared in the scope just exited. It only
// emits a pop while there is a local left to pop: a block that declared no
// locals of its own (e.g. one consisting solely of a nested block that
// popped its own) must not underflow.
func (c *Compiler) endScope() {
	c.fs.scopeDepth--
	for len(c.fs.locals) > 0 && c.fs.locals[len(c.fs.locals)-1].depth > c.fs.scopeDepth {
		last := c.fs.locals[len(c.fs.locals)-1]
		if last.isCaptured {
			c.emitOp(OpCloseUpvalue)
		} else {
			c.emitOp(OpPop)
		}
		c.fs.locals = c.fs.locals[:len(c.fs.locals)-1]
	}
}

func (c *Compiler) addLocal(name string) {
	if len(c.fs.locals) >= maxLocals {
		c.error("Too many local variables in function.")
		return
	}
	c.fs.locals = append(c.fs.locals, local{name: name, depth: -1})
}

func (c *Compiler) declareVariable() {
	if c.fs.scopeDepth == 0 {
		return
	}
	name := c.previous.Lexeme
	for i := len(c.fs.locals) - 1; i >= 0; i-- {
		l := c.fs.locals[i]
		if l.depth != -1 && l.depth < c.fs.scopeDepth {
			break
		}
		if identifiersEqual(l.name, name) {
			c.error("Already a variable with this name in this scope.")
		}
	}
	c.addLocal(name)
}

func (c *Compiler) parseVariable(errMsg string) byte {
	c.consume(token.IDENTIFIER, errMsg)
	c.declareVariable()
	if c.fs.scopeDepth > 0 {
		return 0
	}
	return c.identifierConstant(c.previous)
}

func (c *Compiler) markInitialized() {
	if c.fs.scopeDepth == 0 {
		return
	}
	c.fs.locals[len(c.fs.locals)-1].depth = c.fs.scopeDepth
}

func (c *Compiler) defineVariable(global byte) {
	if c.fs.scopeDepth > 0 {
		c.markInitialized()
		return
	}
	c.emitOpByte(OpDefineGlobal, global)
}

func resolveLocal(fs *funcState, name string) int {
	for i := len(fs.locals) - 1; i >= 0; i-- {
		if identifiersEqual(fs.locals[i].name, name) {
			if fs.locals[i].depth == -1 {
				return -2 // sentinel: read before initialized, caller reports
			}
			return i
		}
	}
	return -1
}

// addUpvalue records that fs's function captures the variable described by
// index/isLocal, reusing an existing descriptor if one already matches. Like
// addLocal, it reports its own overflow error (rather than returning a
// sentinel for the caller to notice) so a closure over more than maxUpvalues
// variables is a compile error instead of silently falling through to a
// global lookup.
func (c *Compiler) addUpvalue(fs *funcState, index uint8, isLocal bool) int {
	want := upvalueRef{index: index, isLocal: isLocal}
	if i := slices.IndexFunc(fs.upvalues, func(uv upvalueRef) bool { return uv == want }); i >= 0 {
		return i
	}
	if len(fs.upvalues) >= maxUpvalues {
		c.error("Too many closure variables in function.")
		return 0
	}
	fs.upvalues = append(fs.upvalues, want)
	fs.function.UpvalueCount = len(fs.upvalues)
	return len(fs.upvalues) - 1
}

func (c *Compiler) resolveUpvalue(fs *funcState, name string) int {
	if fs.enclosing == nil {
		return -1
	}
	if local := resolveLocal(fs.enclosing, name); local >= 0 {
		fs.enclosing.locals[local].isCaptured = true
		return c.addUpvalue(fs, uint8(local), true)
	} else if local == -2 {
		return -2
	}
	if uv := c.resolveUpvalue(fs.enclosing, name); uv >= 0 {
		return c.addUpvalue(fs, uint8(uv), false)
	} else if uv == -2 {
		return -2
	}
	return -1
}

func (c *Compiler) argumentList() byte {
	argc := 0
	if !c.check(token.RIGHT_PAREN) {
		for {
			c.expression()
			if argc == maxArgs {
				c.error("Can't have more than 255 arguments.")
			}
			argc++
			if !c.match(token.COMMA) {
				break
			}
		}
	}
	c.consume(token.RIGHT_PAREN, "Expect ')' after arguments.")
	return byte(argc)
}

// --- declarations and statements -----------------------------------------

func (c *Compiler) declaration() {
	switch {
	case c.match(token.CLASS):
		c.classDeclaration()
	case c.match(token.FUN):
		c.funDeclaration()
	case c.match(token.VAR):
		c.varDeclaration()
	default:
		c.statement()
	}
	if c.panicMode {
		c.synchronize()
	}
}

func (c *Compiler) classDeclaration() {
	c.consume(token.IDENTIFIER, "Expect class name.")
	nameTok := c.previous
	nameConst := c.identifierConstant(nameTok)
	c.declareVariable()

	c.emitOpByte(OpClass, nameConst)
	c.defineVariable(nameConst)

	cs := &classState{enclosing: c.cs}
	c.cs = cs

	if c.match(token.LESS) {
		c.consume(token.IDENTIFIER, "Expect superclass name.")
		c.variable(false)
		if identifiersEqual(nameTok.Lexeme, c.previous.Lexeme) {
			c.error("A class can't inherit from itself.")
		}

		c.beginScope()
		c.addLocal("super")
		c.defineVariable(0)

		c.namedVariableByToken(nameTok, false)
		c.emitOp(OpInherit)
		cs.hasSuperclass = true
	}

	c.namedVariableByToken(nameTok, false)
	c.consume(token.LEFT_BRACE, "Expect '{' before class body.")
	for !c.check(token.RIGHT_BRACE) && !c.check(token.EOF) {
		c.method()
	}
	c.consume(token.RIGHT_BRACE, "Expect '}' after class body.")
	c.emitOp(OpPop) // the class itself, left by namedVariableByToken above

	if cs.hasSuperclass {
		c.endScope()
	}
	c.cs = cs.enclosing
}

func (c *Compiler) method() {
	c.consume(token.IDENTIFIER, "Expect method name.")
	nameTok := c.previous
	nameConst := c.identifierConstant(nameTok)

	fnType := TypeMethod
	if nameTok.Lexeme == "init" {
		fnType = TypeInitializer
	}
	c.function(fnType)
	c.emitOpByte(OpMethod, nameConst)
}

func (c *Compiler) funDeclaration() {
	global := c.parseVariable("Expect function name.")
	c.markInitialized()
	c.function(TypeFunction)
	c.defineVariable(global)
}

func (c *Compiler) function(fnType FunctionType) {
	fn := c.heap.NewFunction()
	if fnType != TypeScript {
		fn.Name = c.internString(c.previous.Lexeme)
	}
	c.fs = newFuncState(c.fs, fn, fnType)
	c.beginScope()

	c.consume(token.LEFT_PAREN, "Expect '(' after function name.")
	if !c.check(token.RIGHT_PAREN) {
		for {
			c.fs.function.Arity++
			if c.fs.function.Arity > maxArgs {
				c.error("Can't have more than 255 parameters.")
			}
			paramConst := c.parseVariable("Expect parameter name.")
			c.defineVariable(paramConst)
			if !c.match(token.COMMA) {
				break
			}
		}
	}
	c.consume(token.RIGHT_PAREN, "Expect ')' after parameters.")
	c.consume(token.LEFT_BRACE, "Expect '{' before function body.")
	c.block()

	upvalues := c.fs.upvalues
	compiled := c.endCompiler()

	c.emitOpByte(OpClosure, c.makeConstant(value.FromObj(compiled)))
	for _, uv := range upvalues {
		isLocal := byte(0)
		if uv.isLocal {
			isLocal = 1
		}
		c.emitByte(isLocal)
		c.emitByte(uv.index)
	}
}

func (c *Compiler) varDeclaration() {
	global := c.parseVariable("Expect variable name.")
	if c.match(token.EQUAL) {
		c.expression()
	} else {
		c.emitOp(OpNil)
	}
	c.consume(token.SEMICOLON, "Expect ';' after variable declaration.")
	c.defineVariable(global)
}

func (c *Compiler) statement() {
	switch {
	case c.match(token.PRINT):
		c.printStatement()
	case c.match(token.FOR):
		c.forStatement()
	case c.match(token.IF):
		c.ifStatement()
	case c.match(token.RETURN):
		c.returnStatement()
	case c.match(token.WHILE):
		c.whileStatement()
	case c.match(token.LEFT_BRACE):
		c.beginScope()
		c.block()
		c.endScope()
	default:
		c.expressionStatement()
	}
}

func (c *Compiler) block() {
	for !c.check(token.RIGHT_BRACE) && !c.check(token.EOF) {
		c.declaration()
	}
	c.consume(token.RIGHT_BRACE, "Expect '}' after block.")
}

func (c *Compiler) printStatement() {
	c.expression()
	c.consume(token.SEMICOLON, "Expect ';' after value.")
	c.emitOp(OpPrint)
}

func (c *Compiler) expressionStatement() {
	c.expression()
	c.consume(token.SEMICOLON, "Expect ';' after expression.")
	c.emitOp(OpPop)
}

func (c *Compiler) ifStatement() {
	c.consume(token.LEFT_PAREN, "Expect '(' after 'if'.")
	c.expression()
	c.consume(token.RIGHT_PAREN, "Expect ')' after condition.")

	thenJump := c.emitJump(OpJumpIfFalse)
	c.emitOp(OpPop)
	c.statement()

	elseJump := c.emitJump(OpJump)
	c.patchJump(thenJump)
	c.emitOp(OpPop)

	if c.match(token.ELSE) {
		c.statement()
	}
	c.patchJump(elseJump)
}

func (c *Compiler) whileStatement() {
	loopStart := len(c.chunk().Code)
	c.consume(token.LEFT_PAREN, "Expect '(' after 'while'.")
	c.expression()
	c.consume(token.RIGHT_PAREN, "Expect ')' after condition.")

	exitJump := c.emitJump(OpJumpIfFalse)
	c.emitOp(OpPop)
	c.statement()
	c.emitLoop(loopStart)

	c.patchJump(exitJump)
	c.emitOp(OpPop)
}

func (c *Compiler) forStatement() {
	c.beginScope()
	c.consume(token.LEFT_PAREN, "Expect '(' after 'for'.")
	switch {
	case c.match(token.SEMICOLON):
		// no initializer
	case c.match(token.VAR):
		c.varDeclaration()
	default:
		c.expressionStatement()
	}

	loopStart := len(c.chunk().Code)
	exitJump := -1
	if !c.match(token.SEMICOLON) {
		c.expression()
		c.consume(token.SEMICOLON, "Expect ';' after loop condition.")
		exitJump = c.emitJump(OpJumpIfFalse)
		c.emitOp(OpPop)
	}

	if !c.match(token.RIGHT_PAREN) {
		bodyJump := c.emitJump(OpJump)
		incrementStart := len(c.chunk().Code)
		c.expression()
		c.emitOp(OpPop)
		c.consume(token.RIGHT_PAREN, "Expect ')' after for clauses.")

		c.emitLoop(loopStart)
		loopStart = incrementStart
		c.patchJump(bodyJump)
	}

	c.statement()
	c.emitLoop(loopStart)

	if exitJump != -1 {
		c.patchJump(exitJump)
		c.emitOp(OpPop)
	}
	c.endScope()
}

func (c *Compiler) returnStatement() {
	if c.fs.fnType == TypeScript {
		c.error("Can't return from top-level code.")
	}
	if c.match(token.SEMICOLON) {
		c.emitReturn()
		return
	}
	if c.fs.fnType == TypeInitializer {
		c.error("Can't return a value from an initializer.")
	}
	c.expression()
	c.consume(token.SEMICOLON, "Expect ';' after return value.")
	c.emitOp(OpReturn)
}

// --- expressions (entry points; per-token rules live in expr.go) --------

func (c *Compiler) expression() { c.parsePrecedence(precAssignment) }

func (c *Compiler) parsePrecedence(p precedence) {
	c.advance()
	prefix := rule(c.previous.Kind).prefix
	if prefix == nil {
		c.error("Expect expression.")
		return
	}
	canAssign := p <= precAssignment
	prefix(c, canAssign)

	for p <= rule(c.current.Kind).precedence {
		c.advance()
		infix := rule(c.previous.Kind).infix
		infix(c, canAssign)
	}

	if canAssign && c.match(token.EQUAL) {
		c.error("Invalid assignment target.")
	}
}
