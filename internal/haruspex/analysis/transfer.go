package analysis

import "github.com/malphas-lang/fble/internal/bytecode"

// Transfer computes the live-set leaving instruction i given the
// live-set entering it: a Dest acquires (marks live) a new local,
// Release frees one, and Return additionally consumes its own result
// operand. Transfer is pure — engine.go decides what, if anything, a
// particular before/after pair is worth reporting, once the dataflow
// has reached a fixed point.
func Transfer(state *LiveState, i bytecode.Instr) *LiveState {
	next := state.Clone()

	if dest, ok := destOf(i); ok {
		next.Live[dest] = true
	}

	switch instr := i.(type) {
	case *bytecode.Release:
		if instr.Target.Space == bytecode.Locals {
			delete(next.Live, instr.Target.Index)
		}
	case *bytecode.Return:
		if instr.Result.Space == bytecode.Locals {
			delete(next.Live, instr.Result.Index)
		}
	}

	return next
}

// destOf reports the local index an instruction writes, if any.
func destOf(i bytecode.Instr) (int, bool) {
	switch instr := i.(type) {
	case *bytecode.DataType:
		return instr.Dest, true
	case *bytecode.StructValueType:
		return instr.Dest, true
	case *bytecode.UnionValueType:
		return instr.Dest, true
	case *bytecode.StructValue:
		return instr.Dest, true
	case *bytecode.UnionValue:
		return instr.Dest, true
	case *bytecode.StructAccess:
		return instr.Dest, true
	case *bytecode.UnionAccess:
		return instr.Dest, true
	case *bytecode.FuncValue:
		return instr.Dest, true
	case *bytecode.Call:
		if instr.Exit {
			return 0, false
		}
		return instr.Dest, true
	case *bytecode.Copy:
		return instr.Dest, true
	case *bytecode.RefValue:
		return instr.Dest, true
	case *bytecode.Type:
		return instr.Dest, true
	case *bytecode.List:
		return instr.Dest, true
	case *bytecode.Literal:
		return instr.Dest, true
	default:
		return 0, false
	}
}
