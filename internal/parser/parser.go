// Package parser builds an internal/ast tree from fble-like source
// text. Generalized from the teacher's internal/parser (recursive
// descent over a Token stream, one file per grammar area) down to a
// single small recursive-descent parser — fble's grammar has no
// operator-precedence expressions to warrant the teacher's Pratt
// machinery. Out of spec.md's core scope (§1); exists only so the
// checker/bytecode/interpreter pipeline has something to run
// end-to-end.
package parser

import (
	"fmt"

	"github.com/malphas-lang/fble/internal/ast"
	"github.com/malphas-lang/fble/internal/lexer"
)

// Error is a parse error with its source location.
type Error struct {
	Message string
	Span    lexer.Span
}

func (e *Error) Error() string { return fmt.Sprintf("%s: %s", e.Span, e.Message) }

// Parser consumes a token stream and produces ast nodes.
type Parser struct {
	toks   []lexer.Token
	pos    int
	errors []error
}

// New constructs a parser over src, attributing spans to filename.
func New(filename, src string) *Parser {
	l := lexer.New(filename, src)
	return &Parser{toks: l.Tokenize()}
}

func (p *Parser) Errors() []error { return p.errors }

func (p *Parser) cur() lexer.Token  { return p.toks[p.pos] }
func (p *Parser) peek(n int) lexer.Token {
	if p.pos+n >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.pos+n]
}

func (p *Parser) advance() lexer.Token {
	t := p.cur()
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *Parser) expect(tt lexer.TokenType) lexer.Token {
	if p.cur().Type != tt {
		p.errorf("expected %s, got %s %q", tt, p.cur().Type, p.cur().Literal)
	}
	return p.advance()
}

func (p *Parser) errorf(format string, args ...any) {
	p.errors = append(p.errors, &Error{Message: fmt.Sprintf(format, args...), Span: p.cur().Span})
}

// ParseExpr parses a single top-level expression (the whole program,
// in this minimal reference front end — there is no module/decl layer
// here; module loading is out of spec.md's core scope, §1).
func (p *Parser) ParseExpr() ast.Expr {
	return p.parseExpr()
}
