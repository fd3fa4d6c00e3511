package analysis_test

import (
	"testing"

	"github.com/malphas-lang/fble/internal/bytecode"
	"github.com/malphas-lang/fble/internal/haruspex/analysis"
	"github.com/malphas-lang/fble/internal/haruspex/diagnostics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func findings(t *testing.T, block *bytecode.CodeBlock) []diagnostics.Diagnostic {
	t.Helper()
	reporter := diagnostics.NewReporter(block.Name)
	analysis.NewEngine().Analyze(block, reporter)
	return reporter.Diagnostics()
}

// A block with no branches, one local carried straight to Return,
// reports no abort-mirror mismatch (there is only one path) and at
// most the expected Info note about the unreleased result.
func TestAnalyzeStraightLineBlockHasNoMismatch(t *testing.T) {
	block := bytecode.NewCodeBlock("straight", 1, 0)
	block.AllocLocal() // reserve local 0 for the sole argument, as the assembler does
	dest := block.AllocLocal()
	block.Emit(&bytecode.Literal{Value: "x", Dest: dest})
	block.Emit(&bytecode.Return{Result: bytecode.Local(dest)})

	diags := findings(t, block)
	for _, d := range diags {
		assert.NotEqual(t, diagnostics.KindWarning, d.Kind, "unexpected mismatch: %s", d)
	}
}

// A UnionSelect with two branches, one of which Releases a local
// before the join and one which doesn't, must be flagged: the two
// paths disagree about whether that local is still live at the join.
func TestAnalyzeDetectsAbortMirrorMismatchAcrossSelectBranches(t *testing.T) {
	cond := 0
	// Jump/UnionSelect offsets are relative to their own instruction
	// position, so the block is built in final instruction order and
	// the offsets patched in once each branch's length is known.
	selectBlock := bytecode.NewCodeBlock("select_mismatch", 1, 0)
	selectBlock.AllocLocal() // reserve local 0 for the sole argument (cond), as the assembler does
	selLeaked := selectBlock.AllocLocal()
	selectBlock.Emit(&bytecode.Literal{Value: "leaked", Dest: selLeaked})
	selectPC := len(selectBlock.Instrs)
	// placeholder; real Jumps computed once branch lengths are known
	selectBlock.Emit(&bytecode.UnionSelect{Cond: bytecode.Local(cond), Jumps: []int{0, 0}})
	tag0Start := len(selectBlock.Instrs)
	selectBlock.Emit(&bytecode.Release{Target: bytecode.Local(selLeaked)})
	joinJumpPC := len(selectBlock.Instrs)
	selectBlock.Emit(&bytecode.Jump{N: 0}) // patched below
	tag1Start := len(selectBlock.Instrs)
	noop := selectBlock.AllocLocal()
	selectBlock.Emit(&bytecode.Literal{Value: "noop", Dest: noop})
	joinPC := len(selectBlock.Instrs)
	selectBlock.Emit(&bytecode.Return{Result: bytecode.Local(selLeaked)})

	sel := selectBlock.Instrs[selectPC].(*bytecode.UnionSelect)
	sel.Jumps[0] = tag0Start - selectPC - 1
	sel.Jumps[1] = tag1Start - selectPC - 1
	jmp := selectBlock.Instrs[joinJumpPC].(*bytecode.Jump)
	jmp.N = joinPC - joinJumpPC - 1

	diags := findings(t, selectBlock)
	require.NotEmpty(t, diags)
	found := false
	for _, d := range diags {
		if d.Kind == diagnostics.KindWarning {
			found = true
		}
	}
	assert.True(t, found, "expected an abort-mirror mismatch warning, got: %v", diags)
}
