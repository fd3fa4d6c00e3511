package bytecode

import "github.com/malphas-lang/fble/internal/ftype"

// Env is the assembler's lexical chain of name→FrameIndex bindings,
// separate from the checker's ftype.Scope (which tracks types, not
// frame slots). Mirrors the teacher's Lowerer.locals map, generalized
// to a proper parent chain since fble nests lexical scopes arbitrarily
// deep (lets, func bodies, links, execs).
type Env struct {
	parent *Env
	vars   map[string]FrameIndex
}

func newEnv(parent *Env) *Env { return &Env{parent: parent, vars: map[string]FrameIndex{}} }

func (e *Env) bind(name string, fi FrameIndex) { e.vars[name] = fi }

func (e *Env) lookup(name string) (FrameIndex, bool) {
	for cur := e; cur != nil; cur = cur.parent {
		if fi, ok := cur.vars[name]; ok {
			return fi, true
		}
	}
	return FrameIndex{}, false
}

// Assembler lowers checked Tc to bytecode (spec.md §4.3), one
// CodeBlock per fble function value. Grounded on the teacher's
// internal/mir.Lowerer: a stateful struct driving one mutually
// recursive family of lower_expr_* methods, generalized from a
// basic-block CFG builder to this spec's flat, forward-jump-only
// instruction stream.
type Assembler struct{}

// NewAssembler constructs an Assembler. It carries no state of its
// own between top-level Assemble calls — all mutable state
// (CodeBlock, Env) is threaded explicitly through the call tree, as
// spec.md's bytecode has no shared cross-function tables to maintain.
func NewAssembler() *Assembler { return &Assembler{} }

// AssembleTop lowers a top-level checked expression (no free
// variables, no arguments) into a single CodeBlock ending in Return.
func (a *Assembler) AssembleTop(name string, tc ftype.Tc) *CodeBlock {
	block := NewCodeBlock(name, 0, 0)
	env := newEnv(nil)
	result := a.assembleExpr(block, env, tc, true)
	block.Emit(&Return{Result: result})
	return block
}

func (a *Assembler) assembleExpr(block *CodeBlock, env *Env, tc ftype.Tc, tail bool) FrameIndex {
	switch tc := tc.(type) {
	case *ftype.VarTc:
		if fi, ok := env.lookup(tc.Name); ok {
			dest := block.AllocLocal()
			block.Emit(&Copy{Src: fi, Dest: dest})
			return Local(dest)
		}
		// Unresolved name: the checker already reported
		// CodeUndefinedVariable; emit a harmless placeholder so
		// assembly can still complete and surface earlier diagnostics.
		dest := block.AllocLocal()
		block.Emit(&Literal{Value: nil, Dest: dest})
		return Local(dest)

	case *ftype.TypeValueTc:
		dest := block.AllocLocal()
		block.Emit(&Type{Dest: dest})
		return Local(dest)

	case *ftype.StructValueTc:
		args := make([]FrameIndex, len(tc.Fields))
		for i, f := range tc.Fields {
			args[i] = a.assembleExpr(block, env, f, false)
		}
		typeDest := a.materializeDataType(block, env, tc.TcType())
		dest := block.AllocLocal()
		block.Emit(&StructValue{Type: Local(typeDest), Args: args, Dest: dest})
		return Local(dest)

	case *ftype.UnionValueTc:
		arg := a.assembleExpr(block, env, tc.Arg, false)
		typeDest := a.materializeDataType(block, env, tc.TcType())
		dest := block.AllocLocal()
		block.Emit(&UnionValue{Type: Local(typeDest), Tag: tc.TagIndex, Arg: arg, Dest: dest})
		return Local(dest)

	case *ftype.DataAccessTc:
		obj := a.assembleExpr(block, env, tc.Obj, false)
		dest := block.AllocLocal()
		if d, ok := tc.Obj.TcType().(*ftype.Data); ok && d.Tag == ftype.UnionTag {
			block.Emit(&UnionAccess{Obj: obj, Tag: tc.FieldIndex, Dest: dest})
		} else {
			block.Emit(&StructAccess{Obj: obj, Tag: tc.FieldIndex, Dest: dest})
		}
		return Local(dest)

	case *ftype.UnionSelectTc:
		return a.assembleSelect(block, env, tc, tail)

	case *ftype.LetTc:
		return a.assembleLet(block, env, tc, tail)

	case *ftype.FuncValueTc:
		return a.assembleFuncValue(block, env, tc)

	case *ftype.FuncApplyTc:
		fn := a.assembleExpr(block, env, tc.Func, false)
		args := make([]FrameIndex, len(tc.Args))
		for i, ae := range tc.Args {
			args[i] = a.assembleExpr(block, env, ae, false)
		}
		dest := block.AllocLocal()
		block.Emit(&Call{Exit: tail, Func: fn, Args: args, Dest: dest})
		return Local(dest)

	case *ftype.EvalTc:
		// $(e): run a process to completion. At the bytecode level this
		// is an ordinary zero-argument Call on the process value
		// produced by Proc — same as a FuncApply with no arguments.
		proc := a.assembleExpr(block, env, tc.Proc, false)
		dest := block.AllocLocal()
		block.Emit(&Call{Exit: false, Func: proc, Args: nil, Dest: dest})
		return Local(dest)

	case *ftype.LinkTc:
		return a.assembleLink(block, env, tc, tail)

	case *ftype.ExecTc:
		return a.assembleExec(block, env, tc, tail)

	case *ftype.PolyValueTc:
		// Poly values erase to their body at the bytecode level (spec.md
		// §3.4 has no poly-specific instruction). A PolyApply likewise
		// erases to its poly operand; its type argument is not
		// materialised.
		return a.assembleExpr(block, env, tc.Body, tail)

	case *ftype.PolyApplyTc:
		return a.assembleExpr(block, env, tc.Poly, tail)

	default:
		dest := block.AllocLocal()
		block.Emit(&Literal{Value: nil, Dest: dest})
		return Local(dest)
	}
}

// materializeDataType emits the DataType instruction describing t (a
// struct or union shape), returning the local holding it. Field type
// operands are themselves materialised recursively, matching spec.md
// §3.4's "DataType ... allocate a type value".
func (a *Assembler) materializeDataType(block *CodeBlock, env *Env, t ftype.Type) int {
	return a.materializeDataTypeSeen(block, env, t, map[*ftype.Var]bool{})
}

// materializeDataTypeSeen recurses through field types, stopping at a
// Var already on the current path so a self-referential type (e.g. a
// recursive union) doesn't recurse forever. The stub emitted at the
// cut point carries no structural detail, which is sound here because
// the interpreter (internal/interp) only ever needs a DataType
// instruction's Dest as an opaque handle, never its recorded field
// shape, having already been checked well-typed upstream.
func (a *Assembler) materializeDataTypeSeen(block *CodeBlock, env *Env, t ftype.Type, seen map[*ftype.Var]bool) int {
	if v, ok := t.(*ftype.Var); ok {
		if seen[v] || v.Value == nil {
			dest := block.AllocLocal()
			block.Emit(&Type{Dest: dest})
			return dest
		}
		seen[v] = true
		dest := a.materializeDataTypeSeen(block, env, v.Value, seen)
		delete(seen, v)
		return dest
	}
	d, ok := t.(*ftype.Data)
	if !ok {
		dest := block.AllocLocal()
		block.Emit(&Type{Dest: dest})
		return dest
	}
	names := make([]string, len(d.Fields))
	fields := make([]FrameIndex, len(d.Fields))
	for i, f := range d.Fields {
		names[i] = f.Name
		fields[i] = Local(a.materializeDataTypeSeen(block, env, f.Type, seen))
	}
	dest := block.AllocLocal()
	block.Emit(&DataType{IsUnion: d.Tag == ftype.UnionTag, Names: names, Fields: fields, Dest: dest})
	return dest
}

// assembleSelect lowers a UnionSelect into a jump-table instruction
// plus one compiled branch per tag, each ending in a Jump to a common
// join point (spec.md §4.3).
func (a *Assembler) assembleSelect(block *CodeBlock, env *Env, tc *ftype.UnionSelectTc, tail bool) FrameIndex {
	cond := a.assembleExpr(block, env, tc.Cond, false)
	selectIdx := block.Emit(&UnionSelect{Cond: cond, Jumps: make([]int, len(tc.Branches))})
	resultDest := block.AllocLocal()

	joinJumps := make([]int, 0, len(tc.Branches))
	jumps := make([]int, len(tc.Branches))
	for i, br := range tc.Branches {
		if br == nil {
			br = tc.Default
		}
		jumps[i] = len(block.Instrs) - selectIdx - 1
		val := a.assembleExpr(block, env, br, tail)
		block.Emit(&Copy{Src: val, Dest: resultDest})
		joinJumps = append(joinJumps, block.Emit(&Jump{N: 0}))
	}
	join := len(block.Instrs)
	for _, ji := range joinJumps {
		block.Instrs[ji].(*Jump).N = join - ji - 1
	}
	block.Instrs[selectIdx].(*UnionSelect).Jumps = jumps
	return Local(resultDest)
}

// assembleLet lowers every binding through a RefValue/RefDef pair,
// uniformly treating every let as potentially self-referential
// (spec.md §4.3 distinguishes a recursive-vs-non-recursive fast path;
// this assembler always takes the always-correct recursive path — see
// DESIGN.md).
func (a *Assembler) assembleLet(block *CodeBlock, env *Env, tc *ftype.LetTc, tail bool) FrameIndex {
	inner := newEnv(env)
	refs := make([]int, len(tc.Bindings))
	for i, b := range tc.Bindings {
		dest := block.AllocLocal()
		block.Emit(&RefValue{Dest: dest})
		refs[i] = dest
		inner.bind(b.Name, Local(dest))
	}
	for i, b := range tc.Bindings {
		val := a.assembleExpr(block, inner, b.Value, false)
		block.Emit(&RefDef{Ref: Local(refs[i]), Value: val})
	}
	return a.assembleExpr(block, inner, tc.Body, tail)
}

// assembleFuncValue compiles Body into a nested CodeBlock, collecting
// every free variable of Body (excluding its own arguments) as a
// capture, then emits FuncValue in the enclosing block.
func (a *Assembler) assembleFuncValue(block *CodeBlock, env *Env, tc *ftype.FuncValueTc) FrameIndex {
	bound := map[string]bool{}
	for _, n := range tc.ArgNames {
		bound[n] = true
	}
	var free []string
	seen := map[string]bool{}
	collectFreeVars(tc.Body, bound, seen, &free)

	nested := NewCodeBlock("", len(tc.ArgNames), len(free))
	nestedEnv := newEnv(nil)
	captures := make([]FrameIndex, len(free))
	for i, name := range free {
		fi, ok := env.lookup(name)
		if !ok {
			continue
		}
		captures[i] = fi
		nestedEnv.bind(name, Static(i))
	}
	for _, name := range tc.ArgNames {
		nestedEnv.bind(name, Local(nested.AllocLocal()))
	}
	result := a.assembleExpr(nested, nestedEnv, tc.Body, true)
	nested.Emit(&Return{Result: result})

	dest := block.AllocLocal()
	block.Emit(&FuncValue{Code: nested, Captures: captures, Dest: dest})
	return Local(dest)
}

// assembleLink allocates the FIFO and binds get/put in a nested
// environment for Body (spec.md §4.5's two ports are themselves
// ordinary values at the bytecode level: get is a zero-arg process,
// put a one-arg function).
func (a *Assembler) assembleLink(block *CodeBlock, env *Env, tc *ftype.LinkTc, tail bool) FrameIndex {
	getDest := block.AllocLocal()
	putDest := block.AllocLocal()
	elemType := a.materializeDataType(block, env, tc.Elem)
	block.Emit(&Link{Elem: Local(elemType), GetDest: getDest, PutDest: putDest})
	inner := newEnv(env)
	inner.bind(tc.GetName, Local(getDest))
	inner.bind(tc.PutName, Local(putDest))
	return a.assembleExpr(block, inner, tc.Body, tail)
}

// assembleExec forks one thread per binding's process, joins, then
// evaluates Body with each binding's result bound by name (spec.md
// §4.5/§4.6's Fork/Join pair). Each binding's Proc is packaged as its
// own zero-argument thunk (assembleProcThunk) rather than assembled
// inline: Fork hands each child thread a closure of its own to run
// from scratch, not an already-produced value, so a binding that reads
// a get or calls a put must still perform that call once the thread
// starts, not before.
func (a *Assembler) assembleExec(block *CodeBlock, env *Env, tc *ftype.ExecTc, tail bool) FrameIndex {
	args := make([]FrameIndex, len(tc.Bindings))
	dests := make([]int, len(tc.Bindings))
	inner := newEnv(env)
	for i, b := range tc.Bindings {
		args[i] = a.assembleProcThunk(block, env, b.Proc)
		dests[i] = block.AllocLocal()
		inner.bind(b.Name, Local(dests[i]))
	}
	block.Emit(&Fork{Args: args, Dests: dests})
	block.Emit(&Join{})
	return a.assembleExpr(block, inner, tc.Body, tail)
}

// assembleProcThunk compiles proc into its own nested, zero-argument
// CodeBlock that, when run as a forked thread, yields proc's result —
// packaged as a closure value so Fork can hand a fresh thread
// something with its own Code to execute (mirrors assembleFuncValue's
// free-variable capture, generalized to a body with no declared
// arguments of its own). A binding typed as a bare process (get) names
// a value still waiting to be invoked, so the thunk adds one more
// zero-arg Call to run it; a binding whose own evaluation already
// produced the declared result (put, which completes the instant it's
// called) needs no further call.
func (a *Assembler) assembleProcThunk(block *CodeBlock, env *Env, proc ftype.Tc) FrameIndex {
	var free []string
	collectFreeVars(proc, map[string]bool{}, map[string]bool{}, &free)

	nested := NewCodeBlock("", 0, len(free))
	nestedEnv := newEnv(nil)
	captures := make([]FrameIndex, len(free))
	for i, name := range free {
		fi, ok := env.lookup(name)
		if !ok {
			continue
		}
		captures[i] = fi
		nestedEnv.bind(name, Static(i))
	}

	if _, stillSuspended := proc.TcType().(*ftype.Proc); stillSuspended {
		handle := a.assembleExpr(nested, nestedEnv, proc, false)
		dest := nested.AllocLocal()
		nested.Emit(&Call{Exit: true, Func: handle, Dest: dest})
	} else {
		result := a.assembleExpr(nested, nestedEnv, proc, false)
		nested.Emit(&Return{Result: result})
	}

	fnDest := block.AllocLocal()
	block.Emit(&FuncValue{Code: nested, Captures: captures, Dest: fnDest})
	return Local(fnDest)
}

// collectFreeVars walks tc collecting VarTc names not in bound into
// out (each name once), mirroring the checker's Scope.Captured
// tracking but operating over Tc post-checking, since the assembler
// doesn't share the checker's live Scope.
func collectFreeVars(tc ftype.Tc, bound map[string]bool, seen map[string]bool, out *[]string) {
	add := func(name string) {
		if !bound[name] && !seen[name] {
			seen[name] = true
			*out = append(*out, name)
		}
	}
	switch tc := tc.(type) {
	case *ftype.VarTc:
		add(tc.Name)
	case *ftype.StructValueTc:
		for _, f := range tc.Fields {
			collectFreeVars(f, bound, seen, out)
		}
	case *ftype.UnionValueTc:
		collectFreeVars(tc.Arg, bound, seen, out)
	case *ftype.DataAccessTc:
		collectFreeVars(tc.Obj, bound, seen, out)
	case *ftype.UnionSelectTc:
		collectFreeVars(tc.Cond, bound, seen, out)
		for _, b := range tc.Branches {
			if b != nil {
				collectFreeVars(b, bound, seen, out)
			}
		}
		if tc.Default != nil {
			collectFreeVars(tc.Default, bound, seen, out)
		}
	case *ftype.LetTc:
		inner := map[string]bool{}
		for k := range bound {
			inner[k] = true
		}
		for _, b := range tc.Bindings {
			inner[b.Name] = true
		}
		for _, b := range tc.Bindings {
			collectFreeVars(b.Value, inner, seen, out)
		}
		collectFreeVars(tc.Body, inner, seen, out)
	case *ftype.FuncValueTc:
		inner := map[string]bool{}
		for k := range bound {
			inner[k] = true
		}
		for _, n := range tc.ArgNames {
			inner[n] = true
		}
		collectFreeVars(tc.Body, inner, seen, out)
	case *ftype.FuncApplyTc:
		collectFreeVars(tc.Func, bound, seen, out)
		for _, a := range tc.Args {
			collectFreeVars(a, bound, seen, out)
		}
	case *ftype.EvalTc:
		collectFreeVars(tc.Proc, bound, seen, out)
	case *ftype.LinkTc:
		inner := map[string]bool{}
		for k := range bound {
			inner[k] = true
		}
		inner[tc.GetName] = true
		inner[tc.PutName] = true
		collectFreeVars(tc.Body, inner, seen, out)
	case *ftype.ExecTc:
		inner := map[string]bool{}
		for k := range bound {
			inner[k] = true
		}
		for _, b := range tc.Bindings {
			collectFreeVars(b.Proc, bound, seen, out)
			inner[b.Name] = true
		}
		collectFreeVars(tc.Body, inner, seen, out)
	case *ftype.PolyValueTc:
		collectFreeVars(tc.Body, bound, seen, out)
	case *ftype.PolyApplyTc:
		collectFreeVars(tc.Poly, bound, seen, out)
	}
}
