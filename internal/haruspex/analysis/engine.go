// Package analysis implements the bytecode liveness / abort-mirror
// checker of SPEC_FULL.md §D: for every code block, it verifies that
// the locals live going into a join point agree across every incoming
// path, flagging a local released (or never written) on one branch but
// still live on another — the static mirror of spec.md §4.5/§5's
// "resources acquired within an instruction are released on all exit
// paths" invariant. Grounded on the teacher's
// internal/haruspex/analysis/engine.go worklist-over-blocks shape,
// generalized from basic blocks to individual bytecode instruction
// indices (bytecode has no loops to justify block-grouping first,
// spec.md §3.4) and from the teacher's symbolic-value state to
// LiveState's def/release tracking.
package analysis

import (
	"github.com/malphas-lang/fble/internal/bytecode"
	"github.com/malphas-lang/fble/internal/haruspex/diagnostics"
	"github.com/malphas-lang/fble/internal/haruspex/flow"
)

// Reporter is an alias kept local to this package so callers only
// need to import internal/haruspex/diagnostics for the Diagnostic
// value shape, not for constructing one.
type Reporter = diagnostics.Reporter

// Engine runs the liveness/abort-mirror check over one code block at
// a time.
type Engine struct{}

// NewEngine constructs a checker engine.
func NewEngine() *Engine { return &Engine{} }

// Analyze runs a forward worklist dataflow over block, seeding its
// argument locals as already-live, to a fixed point, then reports two
// kinds of finding against reporter:
//   - at any join point (an instruction reached from more than one
//     other instruction), a mismatch between what each incoming path's
//     own live-set carries in — the abort-mirror violation spec.md
//     §4.5/§5 names;
//   - at any Return with no matching Release of a still-live local —
//     informational only (see reportUnreleasedAtReturn).
//
// Returns the fixed-point live-state entering every instruction, for
// callers that want the raw dataflow facts (e.g. a future `fble
// disasm --annotate` mode).
func (e *Engine) Analyze(block *bytecode.CodeBlock, reporter *Reporter) map[int]*LiveState {
	states := make(map[int]*LiveState, len(block.Instrs))
	if len(block.Instrs) == 0 {
		return states
	}

	seed := make([]int, block.NumArgs)
	for i := range seed {
		seed[i] = i
	}
	states[0] = NewLiveState(seed...)
	preds := flow.Predecessors(block)

	worklist := []int{0}
	for len(worklist) > 0 {
		pc := worklist[0]
		worklist = worklist[1:]

		in := states[pc]
		if in == nil || in.Unreachable {
			continue
		}
		out := Transfer(in, block.Instrs[pc])

		for _, succ := range flow.Successors(block, pc) {
			if existing, ok := states[succ]; ok {
				if existing.Merge(out) {
					worklist = append(worklist, succ)
				}
			} else {
				states[succ] = out.Clone()
				worklist = append(worklist, succ)
			}
		}
	}

	e.reportJoinMismatches(block, states, preds, reporter)
	e.reportUnreleasedAtReturn(block, states, reporter)
	return states
}

// reportJoinMismatches recomputes each join point's incoming paths'
// own OUT states directly from the fixed-point IN states of their
// predecessors, and flags any local live on one incoming path but not
// another. Recomputing from the fixed point (rather than checking
// inline during the worklist) avoids false positives from transient,
// not-yet-converged intermediate states.
func (e *Engine) reportJoinMismatches(block *bytecode.CodeBlock, states map[int]*LiveState, preds map[int][]int, reporter *Reporter) {
	for pc, ps := range preds {
		if len(ps) < 2 {
			continue
		}
		var outs []*LiveState
		for _, p := range ps {
			in := states[p]
			if in == nil || in.Unreachable {
				continue
			}
			outs = append(outs, Transfer(in, block.Instrs[p]))
		}
		for i := 1; i < len(outs); i++ {
			if diff := outs[0].Diff(outs[i]); len(diff) > 0 {
				reporter.Warning(pc, "locals %v live on one incoming path but not another (abort-mirror mismatch)", diff)
			}
		}
	}
}

// reportUnreleasedAtReturn flags, at Info severity, any local still
// live immediately after a Return consumes its own result — not a
// defect, since the assembler emits no Release and leaves reclamation
// to the value heap's collector, but a useful signal for spotting where the assembler could emit tighter
// Release instructions.
func (e *Engine) reportUnreleasedAtReturn(block *bytecode.CodeBlock, states map[int]*LiveState, reporter *Reporter) {
	for pc, instr := range block.Instrs {
		if _, ok := instr.(*bytecode.Return); !ok {
			continue
		}
		in := states[pc]
		if in == nil || in.Unreachable {
			continue
		}
		out := Transfer(in, instr)
		for local := range out.Live {
			reporter.Info(pc, "local %d still live at Return (no explicit Release emitted)", local)
		}
	}
}
