package parser

import (
	"github.com/malphas-lang/fble/internal/ast"
	"github.com/malphas-lang/fble/internal/lexer"
)

func (p *Parser) parseExpr() ast.Expr {
	e := p.parsePrimary()
	return p.parsePostfix(e)
}

// parsePostfix applies `.field` access, `(args)` apply, `:tag(arg)`
// union value construction, and `<Arg>` poly-apply, left to right.
func (p *Parser) parsePostfix(e ast.Expr) ast.Expr {
	for {
		switch p.cur().Type {
		case lexer.DOT:
			span := p.advance().Span
			field := p.expect(lexer.IDENT).Literal
			e = ast.NewAccessExpr(e, field, span)

		case lexer.LPAREN:
			span := p.advance().Span
			var args []ast.Expr
			for p.cur().Type != lexer.RPAREN {
				args = append(args, p.parseExpr())
				if p.cur().Type == lexer.COMMA {
					p.advance()
				}
			}
			p.expect(lexer.RPAREN)
			// Whether e denotes a type (struct-value construction) or
			// a function (application) is a checker-time decision
			// (spec.md §4.2) — the syntax is identical either way.
			e = ast.NewApplyExpr(e, args, span)

		case lexer.COLON:
			span := p.advance().Span
			tag := p.expect(lexer.IDENT).Literal
			p.expect(lexer.LPAREN)
			var arg ast.Expr
			if p.cur().Type != lexer.RPAREN {
				arg = p.parseExpr()
			}
			p.expect(lexer.RPAREN)
			e = ast.NewUnionValueExpr(exprAsType(e), tag, arg, span)

		case lexer.LANGLE:
			span := p.advance().Span
			arg := p.parseType()
			p.expect(lexer.RANGLE)
			e = ast.NewPolyApplyExpr(e, arg, span)

		default:
			return e
		}
	}
}

// exprAsType reinterprets a VarExpr naming a type as a TypeRef, used
// where the grammar is unambiguous (before `:tag(...)`).
func exprAsType(e ast.Expr) ast.TypeExpr {
	if v, ok := e.(*ast.VarExpr); ok {
		return ast.NewTypeRef(v.Name, v.Span())
	}
	return nil
}

func (p *Parser) parsePrimary() ast.Expr {
	tok := p.cur()
	switch tok.Type {
	case lexer.DOLLAR:
		span := p.advance().Span
		p.expect(lexer.LPAREN)
		inner := p.parseExpr()
		p.expect(lexer.RPAREN)
		return ast.NewEvalExpr(inner, span)

	case lexer.QUESTION:
		span := p.advance().Span
		p.expect(lexer.LPAREN)
		cond := p.parseExpr()
		p.expect(lexer.SEMI)
		var branches []ast.SelectBranch
		for p.cur().Type != lexer.RPAREN {
			tag := ""
			if p.cur().Type != lexer.COLON {
				tag = p.expect(lexer.IDENT).Literal
			}
			p.expect(lexer.COLON)
			branches = append(branches, ast.SelectBranch{Tag: tag, Expr: p.parseExpr()})
			if p.cur().Type == lexer.COMMA {
				p.advance()
			}
		}
		p.expect(lexer.RPAREN)
		return ast.NewSelectExpr(cond, branches, span)

	case lexer.LANGLE:
		span := p.advance().Span
		p.expect(lexer.AT)
		v := p.expect(lexer.IDENT).Literal
		p.expect(lexer.RANGLE)
		p.expect(lexer.LBRACE)
		body := p.parseExpr()
		p.expect(lexer.RBRACE)
		return ast.NewPolyValueExpr(v, body, span)

	case lexer.AT:
		span := p.advance().Span
		p.expect(lexer.LANGLE)
		t := p.parseType()
		p.expect(lexer.RANGLE)
		return ast.NewTypeValueExpr(t, span)

	case lexer.LPAREN:
		return p.parseFuncValueOrParenGroup()

	case lexer.LET:
		return p.parseLet()

	case lexer.LINK:
		return p.parseLink()

	case lexer.EXEC:
		return p.parseExec()

	case lexer.IDENT:
		span := p.advance().Span
		return ast.NewVarExpr(tok.Literal, span)

	default:
		p.errorf("unexpected token %s %q in expression", tok.Type, tok.Literal)
		span := p.advance().Span
		return ast.NewVarExpr("<error>", span)
	}
}

// parseFuncValueOrParenGroup parses `(T1 a, T2 b) { body }`. A leading
// `(` always introduces a function value in this reference grammar —
// there is no bare parenthesized grouping, a deliberate simplification
// (parentheses already group the argument list).
func (p *Parser) parseFuncValueOrParenGroup() ast.Expr {
	span := p.expect(lexer.LPAREN).Span
	var names []string
	var types []ast.TypeExpr
	for p.cur().Type != lexer.RPAREN {
		t := p.parseType()
		n := p.expect(lexer.IDENT).Literal
		types = append(types, t)
		names = append(names, n)
		if p.cur().Type == lexer.COMMA {
			p.advance()
		}
	}
	p.expect(lexer.RPAREN)
	p.expect(lexer.LBRACE)
	body := p.parseExpr()
	p.expect(lexer.RBRACE)
	return ast.NewFuncValueExpr(names, types, body, span)
}

// parseLet parses `let b1, b2, ...; body` where each binding is
// `name@ = TypeExpr` (a type-level abstract var, spec.md §4.2's Let
// rule), `name : TypeExpr = Expr` (typed value binding), or
// `name = Expr` (implicit-type value binding).
func (p *Parser) parseLet() ast.Expr {
	span := p.expect(lexer.LET).Span
	var bindings []ast.Binding
	for {
		name := p.expect(lexer.IDENT).Literal
		if p.cur().Type == lexer.AT {
			p.advance()
			p.expect(lexer.ASSIGN)
			t := p.parseType()
			bindings = append(bindings, ast.Binding{Name: name, IsType: true, Type: t})
		} else {
			var typ ast.TypeExpr
			if p.cur().Type == lexer.COLON {
				p.advance()
				typ = p.parseType()
			}
			p.expect(lexer.ASSIGN)
			v := p.parseExpr()
			bindings = append(bindings, ast.Binding{Name: name, Type: typ, Value: v})
		}
		if p.cur().Type == lexer.COMMA {
			p.advance()
			continue
		}
		break
	}
	p.expect(lexer.SEMI)
	body := p.parseExpr()
	return ast.NewLetExpr(bindings, body, span)
}

// parseLink parses `link TypeExpr <~ get, put; body`.
func (p *Parser) parseLink() ast.Expr {
	span := p.expect(lexer.LINK).Span
	elem := p.parseType()
	p.expect(lexer.LTILDE)
	get := p.expect(lexer.IDENT).Literal
	p.expect(lexer.COMMA)
	put := p.expect(lexer.IDENT).Literal
	p.expect(lexer.SEMI)
	body := p.parseExpr()
	return ast.NewLinkExpr(elem, get, put, body, span)
}

// parseExec parses `exec T1 n1 := p1, T2 n2 := p2, ...; body`.
func (p *Parser) parseExec() ast.Expr {
	span := p.expect(lexer.EXEC).Span
	var bindings []ast.ExecBinding
	for {
		t := p.parseType()
		name := p.expect(lexer.IDENT).Literal
		p.expect(lexer.COLONEQ)
		proc := p.parseExpr()
		bindings = append(bindings, ast.ExecBinding{Name: name, Type: t, Proc: proc})
		if p.cur().Type == lexer.COMMA {
			p.advance()
			continue
		}
		break
	}
	p.expect(lexer.SEMI)
	body := p.parseExpr()
	return ast.NewExecExpr(bindings, body, span)
}

