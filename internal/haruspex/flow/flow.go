// Package flow computes control-flow successors over an
// internal/bytecode code block. Bytecode is linear and forward-jump
// only (spec.md §3.4: "loops do not exist at the IR level"), so unlike
// the teacher's liveir.LiveBlock-based CFG (basic blocks with back
// edges permitted), successors here are computed per instruction index
// directly from the instruction's own jump/select targets, with no
// block-grouping pass needed first.
package flow

import "github.com/malphas-lang/fble/internal/bytecode"

// Successors returns the instruction indices control may flow to
// immediately after executing block.Instrs[pc]. Return and a tail
// (Exit) Call have no successor within this block — Return pops the
// frame, and a tail call replaces it with another block entirely.
// Jump and UnionSelect go only to the targets they name; every other
// instruction falls through to pc+1.
func Successors(block *bytecode.CodeBlock, pc int) []int {
	if pc < 0 || pc >= len(block.Instrs) {
		return nil
	}
	switch i := block.Instrs[pc].(type) {
	case *bytecode.Jump:
		return []int{pc + i.N + 1}
	case *bytecode.UnionSelect:
		targets := make([]int, len(i.Jumps))
		for tag, n := range i.Jumps {
			targets[tag] = pc + n + 1
		}
		return targets
	case *bytecode.Return:
		return nil
	case *bytecode.Call:
		if i.Exit {
			return nil
		}
		return []int{pc + 1}
	default:
		if pc+1 < len(block.Instrs) {
			return []int{pc + 1}
		}
		return nil
	}
}

// Predecessors computes the reverse of Successors across the whole
// block, used to find join points (instructions reachable from more
// than one other instruction) where live sets must be merged.
func Predecessors(block *bytecode.CodeBlock) map[int][]int {
	preds := make(map[int][]int, len(block.Instrs))
	for pc := range block.Instrs {
		for _, succ := range Successors(block, pc) {
			preds[succ] = append(preds[succ], pc)
		}
	}
	return preds
}
