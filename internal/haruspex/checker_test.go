package haruspex_test

import (
	"testing"

	"github.com/malphas-lang/fble/internal/bytecode"
	"github.com/malphas-lang/fble/internal/diag"
	"github.com/malphas-lang/fble/internal/ftype"
	"github.com/malphas-lang/fble/internal/haruspex"
	"github.com/malphas-lang/fble/internal/haruspex/diagnostics"
	"github.com/malphas-lang/fble/internal/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// A real assembled program (FullAdderOut struct construction) produces
// no abort-mirror warnings — only the expected Info notes about
// unreleased locals at Return, since this assembler never emits
// Release itself.
func TestCheckRealProgramHasNoAbortMirrorWarnings(t *testing.T) {
	src := `
let
  Unit@ = *(),
  Bit@ = +(Unit 0, Unit 1),
  FullAdderOut@ = *(Bit z, Bit cout),
  z = Bit:1(Unit()),
  cout = Bit:0(Unit());
FullAdderOut(z, cout)
`
	p := parser.New("t.fble", src)
	e := p.ParseExpr()
	require.Empty(t, p.Errors())
	sink := diag.NewSink(nil)
	c := ftype.NewChecker(sink)
	tc := c.Check(ftype.NewScope(), e)
	require.Empty(t, sink.Diagnostics())

	a := bytecode.NewAssembler()
	block := a.AssembleTop("t", tc)

	findings := haruspex.Check(block)
	for _, f := range findings {
		assert.NotEqual(t, diagnostics.KindWarning, f.Kind, "unexpected finding: %s", f)
	}
}

func TestCheckWalksNestedFuncValueBlocks(t *testing.T) {
	src := `let Unit@ = *(), id = (Unit x) { x }; id(Unit())`
	p := parser.New("t.fble", src)
	e := p.ParseExpr()
	require.Empty(t, p.Errors())
	sink := diag.NewSink(nil)
	c := ftype.NewChecker(sink)
	tc := c.Check(ftype.NewScope(), e)
	require.Empty(t, sink.Diagnostics())

	a := bytecode.NewAssembler()
	block := a.AssembleTop("t", tc)

	// Just exercising the nested-block walk over the closure's own
	// code block: must not panic.
	require.NotPanics(t, func() { haruspex.Check(block) })
}
