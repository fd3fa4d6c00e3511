package parser_test

import (
	"testing"

	"github.com/malphas-lang/fble/internal/ast"
	"github.com/malphas-lang/fble/internal/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStructValue(t *testing.T) {
	p := parser.New("t.fble", "FullAdderOut(z, cout)")
	e := p.ParseExpr()
	require.Empty(t, p.Errors())
	app, ok := e.(*ast.ApplyExpr)
	require.True(t, ok, "expected ApplyExpr (struct-vs-call is a checker decision)")
	assert.Len(t, app.Args, 2)
}

func TestParseUnionValue(t *testing.T) {
	p := parser.New("t.fble", "Bit:1(Unit())")
	e := p.ParseExpr()
	require.Empty(t, p.Errors())
	uv, ok := e.(*ast.UnionValueExpr)
	require.True(t, ok)
	assert.Equal(t, "1", uv.Tag)
}

func TestParseSelect(t *testing.T) {
	p := parser.New("t.fble", "?(x; 0: a, 1: b)")
	e := p.ParseExpr()
	require.Empty(t, p.Errors())
	sel, ok := e.(*ast.SelectExpr)
	require.True(t, ok)
	require.Len(t, sel.Branches, 2)
	assert.Equal(t, "0", sel.Branches[0].Tag)
}

func TestParseSelectWithDefault(t *testing.T) {
	p := parser.New("t.fble", "?(x; 0: a, : d)")
	e := p.ParseExpr()
	require.Empty(t, p.Errors())
	sel := e.(*ast.SelectExpr)
	require.Len(t, sel.Branches, 2)
	assert.Equal(t, "", sel.Branches[1].Tag)
}

func TestParseFuncValueAndApply(t *testing.T) {
	p := parser.New("t.fble", "(Bit a, Bit b) { a }(x, y)")
	e := p.ParseExpr()
	require.Empty(t, p.Errors())
	app, ok := e.(*ast.ApplyExpr)
	require.True(t, ok)
	fv, ok := app.Func.(*ast.FuncValueExpr)
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, fv.ArgNames)
}

func TestParseLetRecursive(t *testing.T) {
	p := parser.New("t.fble", "let X@ = +(Unit a, X b); x")
	e := p.ParseExpr()
	require.Empty(t, p.Errors())
	let, ok := e.(*ast.LetExpr)
	require.True(t, ok)
	require.Len(t, let.Bindings, 1)
	assert.True(t, let.Bindings[0].IsType)
}

func TestParseLink(t *testing.T) {
	p := parser.New("t.fble", "link Bit <~ g, p; g")
	e := p.ParseExpr()
	require.Empty(t, p.Errors())
	link, ok := e.(*ast.LinkExpr)
	require.True(t, ok)
	assert.Equal(t, "g", link.GetName)
	assert.Equal(t, "p", link.PutName)
}

func TestParseExec(t *testing.T) {
	p := parser.New("t.fble", "exec Unit done := $(x); done")
	e := p.ParseExpr()
	require.Empty(t, p.Errors())
	ex, ok := e.(*ast.ExecExpr)
	require.True(t, ok)
	require.Len(t, ex.Bindings, 1)
	assert.Equal(t, "done", ex.Bindings[0].Name)
}

func TestParsePolyValueAndApply(t *testing.T) {
	p := parser.New("t.fble", "<@T>{ x }<Bit>")
	e := p.ParseExpr()
	require.Empty(t, p.Errors())
	pa, ok := e.(*ast.PolyApplyExpr)
	require.True(t, ok)
	_, ok = pa.Poly.(*ast.PolyValueExpr)
	assert.True(t, ok)
}

func TestParseAccessChain(t *testing.T) {
	p := parser.New("t.fble", "x.z.cout")
	e := p.ParseExpr()
	require.Empty(t, p.Errors())
	outer, ok := e.(*ast.AccessExpr)
	require.True(t, ok)
	assert.Equal(t, "cout", outer.Field)
	inner, ok := outer.Obj.(*ast.AccessExpr)
	require.True(t, ok)
	assert.Equal(t, "z", inner.Field)
}
