package interp_test

import (
	"fmt"
	"testing"

	"github.com/malphas-lang/fble/internal/bytecode"
	"github.com/malphas-lang/fble/internal/diag"
	"github.com/malphas-lang/fble/internal/ftype"
	"github.com/malphas-lang/fble/internal/interp"
	"github.com/malphas-lang/fble/internal/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runSrc(t *testing.T, src string) (*interp.Value, *diag.Sink) {
	t.Helper()
	p := parser.New("t.fble", src)
	e := p.ParseExpr()
	require.Empty(t, p.Errors())
	sink := diag.NewSink(nil)
	c := ftype.NewChecker(sink)
	scope := ftype.NewScope()
	tc := c.Check(scope, e)
	require.Empty(t, sink.Diagnostics())
	a := bytecode.NewAssembler()
	block := a.AssembleTop("t", tc)
	s := interp.NewScheduler()
	return s.Evaluate(block, nil), sink
}

// Scenario 1 (spec.md §8): FullAdderOut struct construction evaluates
// to a two-field struct value end to end.
func TestEvaluateFullAdderOutStructValue(t *testing.T) {
	src := `
let
  Unit@ = *(),
  Bit@ = +(Unit 0, Unit 1),
  FullAdderOut@ = *(Bit z, Bit cout),
  z = Bit:1(Unit()),
  cout = Bit:0(Unit());
FullAdderOut(z, cout)
`
	result, _ := runSrc(t, src)
	require.NotNil(t, result)
	require.Equal(t, interp.KindStruct, result.Kind)
	require.Len(t, result.Fields, 2)
	require.Equal(t, interp.KindUnion, result.Fields[0].Kind)
	require.Equal(t, 1, result.Fields[0].Tag)
	require.Equal(t, 0, result.Fields[1].Tag)
}

func TestEvaluateSelectPicksMatchingBranch(t *testing.T) {
	src := `let Unit@ = *(), Bit@ = +(Unit 0, Unit 1), b = Bit:1(Unit()); ?(b; 0: Bit:0(Unit()), 1: Bit:1(Unit()))`
	result, _ := runSrc(t, src)
	require.NotNil(t, result)
	require.Equal(t, interp.KindUnion, result.Kind)
	require.Equal(t, 1, result.Tag)
}

func TestEvaluateFuncApply(t *testing.T) {
	src := `let Unit@ = *(), id = (Unit x) { x }; id(Unit())`
	result, _ := runSrc(t, src)
	require.NotNil(t, result)
	require.Equal(t, interp.KindStruct, result.Kind)
}

func TestEvaluateRecursiveLetClosesCycle(t *testing.T) {
	src := `let Unit@ = *(), X@ = +(Unit a, X b); X:a(Unit())`
	result, _ := runSrc(t, src)
	// Building a value of the recursive union uses both bindings (a
	// type only named inside X's shape would be reported unused); the
	// meaningful assertion is that assembly and evaluation of the
	// recursive-union binding complete without abort.
	require.NotNil(t, result)
}

// boolLogicPrelude builds xor3/maj out of the two-tag Bit@ union via
// nested selects, and closes over them with FullAdder, matching
// spec.md §8 scenario 1's `FullAdder(a,b,cin) = struct(xor3(a,b,cin),
// maj(a,b,cin))` definition. fble has no numeric primitives, so every
// gate is a select over a prior Bit value.
const boolLogicPrelude = `
let
  Unit@ = *(),
  Bit@ = +(Unit 0, Unit 1),
  xor2 = (Bit a, Bit b) { ?(a; 0: b, 1: ?(b; 0: Bit:1(Unit()), 1: Bit:0(Unit()))) },
  and2 = (Bit a, Bit b) { ?(a; 0: Bit:0(Unit()), 1: b) },
  or2 = (Bit a, Bit b) { ?(a; 0: b, 1: Bit:1(Unit())) },
  xor3 = (Bit a, Bit b, Bit c) { xor2(xor2(a, b), c) },
  maj = (Bit a, Bit b, Bit c) { or2(and2(a, b), or2(and2(b, c), and2(a, c))) },
  FullAdderOut@ = *(Bit z, Bit cout),
  FullAdder = (Bit a, Bit b, Bit cin) { FullAdderOut(xor3(a, b, cin), maj(a, b, cin)) }`

func bitLit(n int) string {
	if n == 0 {
		return "Bit:0(Unit())"
	}
	return "Bit:1(Unit())"
}

func fullAdderCallSrc(a, b, cin int) string {
	return fmt.Sprintf("%s;\nFullAdder(%s, %s, %s)", boolLogicPrelude, bitLit(a), bitLit(b), bitLit(cin))
}

// Scenario 1 (spec.md §8): FullAdder's boolean logic, not just the
// struct it returns.
func TestEvaluateFullAdderBooleanLogic(t *testing.T) {
	cases := []struct {
		a, b, cin int
		z, cout   int
	}{
		{0, 1, 0, 1, 0},
		{0, 1, 1, 0, 1},
		{1, 1, 1, 1, 1},
	}
	for _, tc := range cases {
		result, _ := runSrc(t, fullAdderCallSrc(tc.a, tc.b, tc.cin))
		require.NotNil(t, result)
		require.Equal(t, interp.KindStruct, result.Kind)
		require.Len(t, result.Fields, 2)
		require.Equal(t, tc.z, result.Fields[0].Tag, "z for FullAdder(%d,%d,%d)", tc.a, tc.b, tc.cin)
		require.Equal(t, tc.cout, result.Fields[1].Tag, "cout for FullAdder(%d,%d,%d)", tc.a, tc.b, tc.cin)
	}
}

// bits4Lit builds a `Bits4(b0, b1, b2, b3)` literal (LSB first) from an
// int's low four bits.
func bits4Lit(n int) string {
	return fmt.Sprintf("Bits4(%s, %s, %s, %s)", bitLit(n&1), bitLit((n>>1)&1), bitLit((n>>2)&1), bitLit((n>>3)&1))
}

// Scenario 2 (spec.md §8): a 4-bit ripple-carry Adder chained from four
// FullAdders, each carry feeding the next bit's cin.
func TestEvaluateRippleCarryAdder(t *testing.T) {
	src := fmt.Sprintf(`%s,
  Bits4@ = *(Bit b0, Bit b1, Bit b2, Bit b3),
  AdderOut@ = *(Bits4 z, Bit cout),
  Adder = (Bits4 a, Bits4 b, Bit cin) {
    let
      fa0 = FullAdder(a.b0, b.b0, cin),
      fa1 = FullAdder(a.b1, b.b1, fa0.cout),
      fa2 = FullAdder(a.b2, b.b2, fa1.cout),
      fa3 = FullAdder(a.b3, b.b3, fa2.cout),
      sum = Bits4(fa0.z, fa1.z, fa2.z, fa3.z);
    AdderOut(sum, fa3.cout)
  };
Adder(%s, %s, Bit:0(Unit()))`, boolLogicPrelude, bits4Lit(2), bits4Lit(6))

	result, _ := runSrc(t, src)
	require.NotNil(t, result)
	require.Equal(t, interp.KindStruct, result.Kind)
	require.Len(t, result.Fields, 2)

	sum := result.Fields[0]
	require.Equal(t, interp.KindStruct, sum.Kind)
	require.Len(t, sum.Fields, 4)

	got := 0
	for i, bit := range sum.Fields {
		got |= bit.Tag << i
	}
	require.Equal(t, 8, got, "2 + 6 should equal 8")
	require.Equal(t, 0, result.Fields[1].Tag, "no overflow out of 4 bits")
}

// Scenario 5 (spec.md §8): a link's FIFO discipline survives the full
// parser→ftype→bytecode→interp pipeline. Three puts of 0, 1, 0 land on
// the link in that order; three subsequent gets reproduce the same
// sequence, each nested exec gating the next via Fork/Join before its
// put or get runs.
func TestEvaluateLinkFIFOThroughExecPipeline(t *testing.T) {
	src := `
let
  Unit@ = *(),
  Bit@ = +(Unit 0, Unit 1),
  Seq3@ = *(Bit r0, Bit r1, Bit r2);
link Bit <~ g, p;
exec Unit _0 := p(Bit:0(Unit()));
exec Unit _1 := p(Bit:1(Unit()));
exec Unit _2 := p(Bit:0(Unit()));
exec Bit r0 := g;
exec Bit r1 := g;
exec Bit r2 := g;
Seq3(r0, r1, r2)
`
	result, _ := runSrc(t, src)
	require.NotNil(t, result)
	require.Equal(t, interp.KindStruct, result.Kind)
	require.Len(t, result.Fields, 3)
	assert.Equal(t, 0, result.Fields[0].Tag)
	assert.Equal(t, 1, result.Fields[1].Tag)
	assert.Equal(t, 0, result.Fields[2].Tag)
}
