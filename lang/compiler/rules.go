package compiler

import "github.com/whimbree/clox/lang/token"

// precedence orders binary operators from loosest to tightest binding; a
// Pratt parser climbs it to decide how far an infix chain extends.
type precedence int

const (
	precNone       precedence = iota
	precAssignment            // =
	precOr                    // or
	precAnd                   // and
	precEquality              // == !=
	precComparison            // < > <= >=
	precTerm                  // + -
	precFactor                // * /
	precUnary                 // ! -
	precCall                  // . ()
	precPrimary
)

// parseFn is either a prefix parser (invoked with no left operand already
// on the stack) or an infix parser (invoked with the left operand already
// compiled); canAssign tells an infix `=` whether it is allowed to treat its
// left operand as an assignment target.
type parseFn func(c *Compiler, canAssign bool)

type parseRule struct {
	prefix     parseFn
	infix      parseFn
	precedence precedence
}

// sized generously past every token.Kind constant defined in lang/token.
var rules [64]parseRule

func rule(k token.Kind) *parseRule {
	if int(k) < len(rules) {
		return &rules[k]
	}
	return &parseRule{}
}

func init() {
	rules[token.LEFT_PAREN] = parseRule{prefix: (*Compiler).grouping, infix: (*Compiler).call, precedence: precCall}
	rules[token.DOT] = parseRule{infix: (*Compiler).dot, precedence: precCall}
	rules[token.MINUS] = parseRule{prefix: (*Compiler).unary, infix: (*Compiler).binary, precedence: precTerm}
	rules[token.PLUS] = parseRule{infix: (*Compiler).binary, precedence: precTerm}
	rules[token.SLASH] = parseRule{infix: (*Compiler).binary, precedence: precFactor}
	rules[token.STAR] = parseRule{infix: (*Compiler).binary, precedence: precFactor}
	rules[token.BANG] = parseRule{prefix: (*Compiler).unary}
	rules[token.BANG_EQUAL] = parseRule{infix: (*Compiler).binary, precedence: precEquality}
	rules[token.EQUAL_EQUAL] = parseRule{infix: (*Compiler).binary, precedence: precEquality}
	rules[token.GREATER] = parseRule{infix: (*Compiler).binary, precedence: precComparison}
	rules[token.GREATER_EQUAL] = parseRule{infix: (*Compiler).binary, precedence: precComparison}
	rules[token.LESS] = parseRule{infix: (*Compiler).binary, precedence: precComparison}
	rules[token.LESS_EQUAL] = parseRule{infix: (*Compiler).binary, precedence: precComparison}
	rules[token.IDENTIFIER] = parseRule{prefix: (*Compiler).variable}
	rules[token.STRING] = parseRule{prefix: (*Compiler).string}
	rules[token.NUMBER] = parseRule{prefix: (*Compiler).number}
	rules[token.AND] = parseRule{infix: (*Compiler).and, precedence: precAnd}
	rules[token.OR] = parseRule{infix: (*Compiler).or, precedence: precOr}
	rules[token.FALSE] = parseRule{prefix: (*Compiler).literal}
	rules[token.TRUE] = parseRule{prefix: (*Compiler).literal}
	rules[token.NIL] = parseRule{prefix: (*Compiler).literal}
	rules[token.THIS] = parseRule{prefix: (*Compiler).this}
	rules[token.SUPER] = parseRule{prefix: (*Compiler).super}
}
