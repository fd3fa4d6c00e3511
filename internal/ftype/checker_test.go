package ftype_test

import (
	"testing"

	"github.com/malphas-lang/fble/internal/diag"
	"github.com/malphas-lang/fble/internal/ftype"
	"github.com/malphas-lang/fble/internal/kind"
	"github.com/malphas-lang/fble/internal/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func checkSrc(t *testing.T, src string) (ftype.Tc, *diag.Sink) {
	t.Helper()
	p := parser.New("t.fble", src)
	e := p.ParseExpr()
	require.Empty(t, p.Errors())
	sink := diag.NewSink(nil)
	c := ftype.NewChecker(sink)
	scope := ftype.NewScope()
	tc := c.Check(scope, e)
	return tc, sink
}

// Scenario 1 (spec.md §8): Unit/Bit/FullAdderOut, and the struct/union
// value forms used to build a FullAdder result.
func TestFullAdderOutStructValue(t *testing.T) {
	src := `
let
  Unit@ = *(),
  Bit@ = +(Unit 0, Unit 1),
  FullAdderOut@ = *(Bit z, Bit cout),
  z = Bit:1(Unit()),
  cout = Bit:0(Unit());
FullAdderOut(z, cout)
`
	tc, sink := checkSrc(t, src)
	require.Empty(t, sink.Diagnostics())
	d, ok := tc.TcType().(*ftype.Data)
	require.True(t, ok)
	assert.Equal(t, ftype.StructTag, d.Tag)
	assert.Equal(t, "z", d.Fields[0].Name)
	assert.Equal(t, "cout", d.Fields[1].Name)
}

// Scenario 3 (spec.md §8): a recursive union type must type-check
// without reporting VACUOUS_BINDING, because the union arm gives the
// cycle productive structure.
func TestLetRecursiveUnionIsWellFormed(t *testing.T) {
	src := `let Unit@ = *(), X@ = +(Unit a, X b); @<X>`
	_, sink := checkSrc(t, src)
	for _, d := range sink.Diagnostics() {
		assert.NotEqual(t, diag.CodeVacuousBinding, d.Code, d.Message)
	}
}

func TestUndefinedVariableReported(t *testing.T) {
	_, sink := checkSrc(t, "nope")
	require.Len(t, sink.Diagnostics(), 1)
	assert.Equal(t, diag.CodeUndefinedVariable, sink.Diagnostics()[0].Code)
}

func TestWrongArityReported(t *testing.T) {
	src := `let Unit@ = *(), Pair@ = *(Unit a, Unit b); Pair(Unit())`
	_, sink := checkSrc(t, src)
	require.True(t, sink.HasErrors())
	assert.Equal(t, diag.CodeWrongArity, sink.Diagnostics()[0].Code)
}

func TestSelectMissingDefaultReported(t *testing.T) {
	src := `let Unit@ = *(), Bit@ = +(Unit 0, Unit 1), b = Bit:0(Unit()); ?(b; 0: b)`
	_, sink := checkSrc(t, src)
	require.True(t, sink.HasErrors())
	assert.Equal(t, diag.CodeSelectMissingDefault, sink.Diagnostics()[0].Code)
}

func TestSelectCoversAllTagsCleanly(t *testing.T) {
	src := `let Unit@ = *(), Bit@ = +(Unit 0, Unit 1), b = Bit:0(Unit()); ?(b; 0: b, 1: b)`
	tc, sink := checkSrc(t, src)
	require.Empty(t, sink.Diagnostics())
	d, ok := tc.TcType().(*ftype.Data)
	require.True(t, ok)
	assert.Equal(t, ftype.UnionTag, d.Tag)
}

func TestUndefinedAccessReported(t *testing.T) {
	src := `let Unit@ = *(), Pair@ = *(Unit a, Unit b), p = Pair(Unit(), Unit()); p.nope`
	_, sink := checkSrc(t, src)
	require.True(t, sink.HasErrors())
	assert.Equal(t, diag.CodeUndefinedAccess, sink.Diagnostics()[0].Code)
}

func TestFuncValueAndApply(t *testing.T) {
	src := `let Unit@ = *(), id = (Unit x) { x }; id(Unit())`
	tc, sink := checkSrc(t, src)
	require.Empty(t, sink.Diagnostics())
	// The result type is id's declared return type, the Var naming Unit;
	// normalising unfolds it to the struct.
	n, ok := ftype.Normalise(tc.TcType())
	require.True(t, ok)
	d, ok := n.(*ftype.Data)
	require.True(t, ok)
	assert.Equal(t, ftype.StructTag, d.Tag)
}

func TestPolyValueAndApplyRoundTrips(t *testing.T) {
	src := `let Unit@ = *(), id = <@T>{ (T x) { x } }; id<Unit>(Unit())`
	tc, sink := checkSrc(t, src)
	require.Empty(t, sink.Diagnostics())
	assert.NotNil(t, tc.TcType())
}

func TestLinkAndExecTypesFIFO(t *testing.T) {
	src := `let Unit@ = *(); link Unit <~ g, p; exec Unit done := p(Unit()); done`
	tc, sink := checkSrc(t, src)
	require.Empty(t, sink.Diagnostics())
	assert.NotNil(t, tc.TcType())
}

func TestKindMismatchSurfacesAsError(t *testing.T) {
	src := `let Unit@ = *(), f = (Unit x) { x }; f(Unit)`
	_, sink := checkSrc(t, src)
	require.True(t, sink.HasErrors())
}

func TestUnusedBindingWarned(t *testing.T) {
	src := `let Unit@ = *(), x = Unit(); Unit()`
	_, sink := checkSrc(t, src)
	require.False(t, sink.HasErrors())
	require.Len(t, sink.Diagnostics(), 1)
	d := sink.Diagnostics()[0]
	assert.Equal(t, diag.CodeUnusedBinding, d.Code)
	assert.Contains(t, d.Message, "x")
}

func TestUnusedBindingSkipsUnderscorePrefix(t *testing.T) {
	src := `let Unit@ = *(), _x = Unit(); Unit()`
	_, sink := checkSrc(t, src)
	assert.Empty(t, sink.Diagnostics())
}

// A type name mentioned only in another type's shape (a union arm, a
// function argument annotation) is never itself constructed, so it
// still surfaces as unused even though CheckType visits it (spec.md
// §4.2's shadow-scope distinction between Accessed and Used).
func TestTypeOnlyMentionedInShapeStillUnused(t *testing.T) {
	src := `
let
  Unit@ = *(),
  Bit@ = +(Unit 0, Unit 1),
  id = (Bit x) { x };
id
`
	_, sink := checkSrc(t, src)
	require.False(t, sink.HasErrors())
	var names []string
	for _, d := range sink.Diagnostics() {
		require.Equal(t, diag.CodeUnusedBinding, d.Code)
		names = append(names, d.Message)
	}
	assert.Len(t, names, 2)
}

func TestNamespaceMismatchOnLowercaseTypeBinding(t *testing.T) {
	src := `let bit@ = *(); bit`
	_, sink := checkSrc(t, src)
	require.True(t, sink.HasErrors())
	assert.Equal(t, diag.CodeKindNamespaceMismatch, sink.Diagnostics()[0].Code)
}

func TestEqualAcrossRecursiveVars(t *testing.T) {
	a := &ftype.Var{VKind: kind.Type, Name: "X"}
	a.Value = &ftype.Data{Tag: ftype.UnionTag, Fields: []ftype.Field{{Name: "a", Type: &ftype.Data{Tag: ftype.StructTag}}, {Name: "b", Type: a}}}
	b := &ftype.Var{VKind: kind.Type, Name: "Y"}
	b.Value = &ftype.Data{Tag: ftype.UnionTag, Fields: []ftype.Field{{Name: "a", Type: &ftype.Data{Tag: ftype.StructTag}}, {Name: "b", Type: b}}}
	assert.True(t, ftype.Equal(a, b))
}
