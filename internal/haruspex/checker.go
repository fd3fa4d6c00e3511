// Package haruspex is the bytecode liveness / abort-mirror checker
// described in SPEC_FULL.md §D: a real, exercised static checker over
// internal/bytecode output, driven by the `fble check` CLI subcommand
// and by haruspex/server's disassembly RPC — not orphaned teacher
// code. The teacher's dataflow-engine shape
// (internal/haruspex/{analysis,flow}) is kept and repointed at
// internal/bytecode.CodeBlock instead of the teacher's own liveir;
// internal/haruspex/liveir itself is dropped (see DESIGN.md) since
// nothing in this repo builds that IR any more.
package haruspex

import (
	"github.com/malphas-lang/fble/internal/bytecode"
	"github.com/malphas-lang/fble/internal/haruspex/analysis"
	"github.com/malphas-lang/fble/internal/haruspex/diagnostics"
)

// Check runs the liveness/abort-mirror analysis over block and every
// nested FuncValue code block it closes over, returning every finding
// sorted within each block by instruction index.
func Check(block *bytecode.CodeBlock) []diagnostics.Diagnostic {
	var all []diagnostics.Diagnostic
	engine := analysis.NewEngine()
	seen := map[*bytecode.CodeBlock]bool{}

	var walk func(b *bytecode.CodeBlock)
	walk = func(b *bytecode.CodeBlock) {
		if b == nil || seen[b] {
			return
		}
		seen[b] = true
		reporter := diagnostics.NewReporter(blockLabel(b))
		engine.Analyze(b, reporter)
		all = append(all, reporter.Diagnostics()...)
		for _, i := range b.Instrs {
			if fv, ok := i.(*bytecode.FuncValue); ok {
				walk(fv.Code)
			}
		}
	}
	walk(block)
	return all
}

func blockLabel(b *bytecode.CodeBlock) string {
	if b.Name != "" {
		return b.Name
	}
	return "<anonymous>"
}
