package scanner_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/whimbree/clox/lang/scanner"
	"github.com/whimbree/clox/lang/token"
)

func scanAll(t *testing.T, src string) []token.Token {
	t.Helper()
	s := scanner.New(src)
	var toks []token.Token
	for {
		tok := s.Scan()
		toks = append(toks, tok)
		if tok.Kind == token.EOF {
			return toks
		}
	}
}

func TestScanPunctuationAndKeywords(t *testing.T) {
	toks := scanAll(t, `var x = (1 + 2) * 3; // comment
class A < B {}`)

	var kinds []token.Kind
	for _, tk := range toks {
		kinds = append(kinds, tk.Kind)
	}

	assert.Equal(t, []token.Kind{
		token.VAR, token.IDENTIFIER, token.EQUAL, token.LEFT_PAREN,
		token.NUMBER, token.PLUS, token.NUMBER, token.RIGHT_PAREN,
		token.STAR, token.NUMBER, token.SEMICOLON,
		token.CLASS, token.IDENTIFIER, token.LESS, token.IDENTIFIER,
		token.LEFT_BRACE, token.RIGHT_BRACE, token.EOF,
	}, kinds)
}

func TestScanString(t *testing.T) {
	toks := scanAll(t, `"hello world"`)
	assert.Equal(t, token.STRING, toks[0].Kind)
	assert.Equal(t, `"hello world"`, toks[0].Lexeme)
}

func TestScanUnterminatedString(t *testing.T) {
	toks := scanAll(t, `"oops`)
	assert.Equal(t, token.ERROR, toks[0].Kind)
	assert.Equal(t, "Unterminated string.", toks[0].Lexeme)
}

func TestScanNumber(t *testing.T) {
	toks := scanAll(t, `12 3.14 0.5`)
	assert.Equal(t, token.NUMBER, toks[0].Kind)
	assert.Equal(t, "12", toks[0].Lexeme)
	assert.Equal(t, "3.14", toks[1].Lexeme)
	assert.Equal(t, "0.5", toks[2].Lexeme)
}

func TestScanTracksLines(t *testing.T) {
	toks := scanAll(t, "var a = 1;\nvar b = 2;")
	assert.Equal(t, 1, toks[0].Line)
	// find the second "var"
	var secondVarLine int
	count := 0
	for _, tk := range toks {
		if tk.Kind == token.VAR {
			count++
			if count == 2 {
				secondVarLine = tk.Line
			}
		}
	}
	assert.Equal(t, 2, secondVarLine)
}
