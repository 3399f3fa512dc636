package compiler

import "github.com/whimbree/clox/lang/value"

// FunctionType distinguishes the kind of function body currently being
// compiled, since scripts, methods, initializers, and plain functions each
// follow slightly different rules (an initializer implicitly returns `this`;
// a method and initializer both have an implicit `this` slot 0; a script has
// no name and is the root of the compiler chain).
type FunctionType int

const (
	TypeFunction FunctionType = iota
	TypeInitializer
	TypeMethod
	TypeScript
)

const (
	maxLocals   = 256
	maxUpvalues = 256
	maxArgs     = 255
	maxJump     = 1 << 16
)

// local is a single block-scoped local variable tracked on the compiler's
// shadow stack. depth is -1 between the point a local is declared and the
// point its initializer finishes, so a reference to it in its own
// initializer (`var a = a;`) can be caught.
type local struct {
	name       string
	depth      int
	isCaptured bool
}

// upvalueRef records how a function's Nth upvalue is resolved at the moment
// the closure is created: from a local slot in the immediately enclosing
// function, or from one of the enclosing function's own upvalues.
type upvalueRef struct {
	index   uint8
	isLocal bool
}

// funcState is the per-function compiler frame. Frames form a chain via
// enclosing, one per lexically nested function currently being compiled;
// the chain is how the compiler resolves a name to a local, an upvalue (by
// walking outward), or finally a global.
type funcState struct {
	enclosing *funcState

	function *value.ObjFunction
	fnType   FunctionType

	locals     []local
	upvalues   []upvalueRef
	scopeDepth int
}

func newFuncState(enclosing *funcState, fn *value.ObjFunction, fnType FunctionType) *funcState {
	fs := &funcState{enclosing: enclosing, function: fn, fnType: fnType}
	// Slot 0 is reserved: the receiver for methods/initializers, or an
	// unnamed sentinel for plain functions and the script (never resolvable
	// by name, so a user-declared local can never collide with it).
	name := ""
	if fnType == TypeMethod || fnType == TypeInitializer {
		name = "this"
	}
	fs.locals = append(fs.locals, local{name: name, depth: 0})
	return fs
}

// classState is the per-class compiler frame, chained the same way as
// funcState so nested class declarations resolve `super` correctly.
type classState struct {
	enclosing     *classState
	hasSuperclass bool
}
