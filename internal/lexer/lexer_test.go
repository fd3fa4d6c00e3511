package lexer_test

import (
	"testing"

	"github.com/malphas-lang/fble/internal/lexer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tokenTypes(toks []lexer.Token) []lexer.TokenType {
	var out []lexer.TokenType
	for _, t := range toks {
		out = append(out, t.Type)
	}
	return out
}

func TestTokenizeStructLiteral(t *testing.T) {
	l := lexer.New("t.fble", "FullAdderOut(z, cout)")
	toks := l.Tokenize()
	assert.Equal(t, []lexer.TokenType{
		lexer.IDENT, lexer.LPAREN, lexer.IDENT, lexer.COMMA, lexer.IDENT, lexer.RPAREN, lexer.EOF,
	}, tokenTypes(toks))
	require.Empty(t, l.Errors())
}

func TestTokenizeUnionAndSelect(t *testing.T) {
	l := lexer.New("t.fble", "Bit:1(Unit()); ?(x; 0: a, 1: b)")
	toks := l.Tokenize()
	require.Empty(t, l.Errors())
	assert.Contains(t, tokenTypes(toks), lexer.COLON)
	assert.Contains(t, tokenTypes(toks), lexer.QUESTION)
	assert.Contains(t, tokenTypes(toks), lexer.SEMI)
}

func TestTokenizeLinkAndExec(t *testing.T) {
	l := lexer.New("t.fble", "Bit <~ get, put; Unit! x := $(put(get));")
	toks := l.Tokenize()
	require.Empty(t, l.Errors())
	assert.Contains(t, tokenTypes(toks), lexer.LTILDE)
	assert.Contains(t, tokenTypes(toks), lexer.COLONEQ)
	assert.Contains(t, tokenTypes(toks), lexer.BANG)
	assert.Contains(t, tokenTypes(toks), lexer.DOLLAR)
}

func TestSkipsCommentsAndWhitespace(t *testing.T) {
	l := lexer.New("t.fble", "  # a comment\n  x  # trailing\n")
	toks := l.Tokenize()
	require.Len(t, toks, 2)
	assert.Equal(t, lexer.IDENT, toks[0].Type)
	assert.Equal(t, "x", toks[0].Literal)
}

func TestIllegalRuneIsReported(t *testing.T) {
	l := lexer.New("t.fble", "x ^ y")
	toks := l.Tokenize()
	require.NotEmpty(t, l.Errors())
	assert.Equal(t, lexer.ILLEGAL, toks[1].Type)
}

func TestPolyTokens(t *testing.T) {
	l := lexer.New("t.fble", "<@T>{body} F<A>")
	toks := l.Tokenize()
	require.Empty(t, l.Errors())
	assert.Equal(t, []lexer.TokenType{
		lexer.LANGLE, lexer.AT, lexer.IDENT, lexer.RANGLE, lexer.LBRACE, lexer.IDENT, lexer.RBRACE,
		lexer.IDENT, lexer.LANGLE, lexer.IDENT, lexer.RANGLE, lexer.EOF,
	}, tokenTypes(toks))
}
