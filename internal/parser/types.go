package parser

import (
	"github.com/malphas-lang/fble/internal/ast"
	"github.com/malphas-lang/fble/internal/lexer"
)

// parseType parses a type expression, then applies the postfix forms
// spec.md §3.2 describes: `!` (proc), `<Arg>` (poly-apply).
func (p *Parser) parseType() ast.TypeExpr {
	t := p.parseTypePrimary()
	for {
		switch p.cur().Type {
		case lexer.BANG:
			span := p.advance().Span
			t = ast.NewProcTypeExpr(t, span)
		case lexer.LANGLE:
			span := p.advance().Span
			arg := p.parseType()
			p.expect(lexer.RANGLE)
			t = ast.NewPolyApplyTypeExpr(t, arg, span)
		default:
			return t
		}
	}
}

func (p *Parser) parseTypePrimary() ast.TypeExpr {
	tok := p.cur()
	switch tok.Type {
	case lexer.STAR, lexer.PLUS:
		isUnion := tok.Type == lexer.PLUS
		span := p.advance().Span
		p.expect(lexer.LPAREN)
		var fields []ast.DataField
		for p.cur().Type != lexer.RPAREN {
			ft := p.parseType()
			name := p.expect(lexer.IDENT).Literal
			fields = append(fields, ast.DataField{Name: name, Type: ft})
			if p.cur().Type == lexer.COMMA {
				p.advance()
			}
		}
		p.expect(lexer.RPAREN)
		return ast.NewDataTypeExpr(isUnion, fields, span)

	case lexer.LPAREN:
		span := p.advance().Span
		var args []ast.TypeExpr
		for p.cur().Type != lexer.RPAREN {
			args = append(args, p.parseType())
			if p.cur().Type == lexer.COMMA {
				p.advance()
			}
		}
		p.expect(lexer.RPAREN)
		p.expect(lexer.LBRACE)
		ret := p.parseType()
		p.expect(lexer.RBRACE)
		return ast.NewFuncTypeExpr(args, ret, span)

	case lexer.LANGLE:
		span := p.advance().Span
		p.expect(lexer.AT)
		v := p.expect(lexer.IDENT).Literal
		p.expect(lexer.RANGLE)
		p.expect(lexer.LBRACE)
		body := p.parseType()
		p.expect(lexer.RBRACE)
		return ast.NewPolyTypeExpr(v, body, span)

	case lexer.AT:
		span := p.advance().Span
		p.expect(lexer.LANGLE)
		inner := p.parseType()
		p.expect(lexer.RANGLE)
		return ast.NewTypeOfTypeExpr(inner, span)

	case lexer.IDENT:
		span := p.advance().Span
		return ast.NewTypeRef(tok.Literal, span)

	default:
		p.errorf("expected a type, got %s %q", tok.Type, tok.Literal)
		span := p.advance().Span
		return ast.NewTypeRef("<error>", span)
	}
}
