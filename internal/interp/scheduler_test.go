package interp

import (
	"context"
	"testing"

	"github.com/malphas-lang/fble/internal/bytecode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// A tail-call loop of 10,000 iterations must not grow the Go call
// stack: the dispatch loop in runThread is iterative (a `for` loop
// over th.replace), never recursive, so depth is bounded only by the
// decrement count, never by Go stack frames (spec.md §8's tail-call
// depth-safety property). countdown's argument is a Peano-style Nat
// union (tag 0 = Zero, tag 1 = Succ(pred)) so the decrement itself is
// genuine bytecode dispatch — UnionSelect to branch, UnionAccess to
// unwrap the predecessor, Call{Exit: true} to recurse on it — rather
// than a host-side loop re-invoking Evaluate from the outside.
func TestTailCallDoesNotGrowGoStack(t *testing.T) {
	const depth = 10_000

	block := bytecode.NewCodeBlock("countdown", 1, 1) // arg0 = Nat, static0 = self
	nLocal := block.AllocLocal()                      // == 0, the Nat argument
	doneLocal := block.AllocLocal()
	predLocal := block.AllocLocal()
	selfLocal := block.AllocLocal()
	callDest := block.AllocLocal()

	// tag 0 (Zero) branches to idx1, tag 1 (Succ) branches to idx3.
	block.Emit(&bytecode.UnionSelect{Cond: bytecode.Local(nLocal), Jumps: []int{0, 2}})
	block.Emit(&bytecode.Literal{Value: "done", Dest: doneLocal})
	block.Emit(&bytecode.Return{Result: bytecode.Local(doneLocal)})
	block.Emit(&bytecode.UnionAccess{Obj: bytecode.Local(nLocal), Tag: 1, Dest: predLocal})
	block.Emit(&bytecode.Copy{Src: bytecode.Static(0), Dest: selfLocal})
	block.Emit(&bytecode.Call{Exit: true, Func: bytecode.Local(selfLocal), Args: []bytecode.FrameIndex{bytecode.Local(predLocal)}, Dest: callDest})

	fn := NewFunc(block, nil)
	fn.Statics = []*Value{fn} // self-capture: countdown calls itself via Static(0)

	var n *Value = &Value{Kind: KindUnion, Tag: 0} // Zero
	for i := 0; i < depth; i++ {
		n = &Value{Kind: KindUnion, Tag: 1, Arg: n} // Succ(n)
	}

	s := NewScheduler()
	result := s.Apply(fn, []*Value{n})
	require.NotNil(t, result)
	assert.Equal(t, "done", result.DebugLiteral)
}

func TestTailCallReplacesFrameInPlace(t *testing.T) {
	// f calls g in tail position; g returns immediately. g's frame
	// replaces f's and inherits its result pointer, so Apply receives
	// g's result even though f's own Return never runs.
	g := bytecode.NewCodeBlock("g", 0, 0)
	gDest := g.AllocLocal()
	g.Emit(&bytecode.Literal{Value: "g-result", Dest: gDest})
	g.Emit(&bytecode.Return{Result: bytecode.Local(gDest)})

	f := bytecode.NewCodeBlock("f", 0, 1)
	fnSlot := 0
	callDest := f.AllocLocal()
	f.Emit(&bytecode.Call{Exit: true, Func: bytecode.Static(fnSlot), Dest: callDest})
	f.Emit(&bytecode.Return{Result: bytecode.Local(callDest)})

	gVal := NewFunc(g, nil)
	fVal := NewFunc(f, []*Value{gVal})

	s := NewScheduler()
	result := s.Apply(fVal, nil)
	require.NotNil(t, result)
	assert.Equal(t, "g-result", result.DebugLiteral)
}

func TestAbortOnWrongUnionTag(t *testing.T) {
	block := bytecode.NewCodeBlock("bad_access", 0, 0)
	unionDest := block.AllocLocal()
	accessDest := block.AllocLocal()
	block.Emit(&bytecode.UnionAccess{Obj: bytecode.Local(unionDest), Tag: 1, Dest: accessDest})
	block.Emit(&bytecode.Return{Result: bytecode.Local(accessDest)})

	s := NewScheduler()
	// unionDest holds tag 0's union, written straight into the frame
	// (no instruction builds it), so the UnionAccess for tag 1 aborts.
	th := s.spawnTop(block, nil, nil, func(*Value) {})
	th.top().write(unionDest, NewUnion(0, nil))
	s.run()
	assert.Equal(t, Aborted, th.state)
}

func TestLinkPutBeforeGetFIFO(t *testing.T) {
	block := bytecode.NewCodeBlock("link_demo", 0, 0)
	getSlot := block.AllocLocal()
	putSlot := block.AllocLocal()
	block.Emit(&bytecode.Link{Elem: bytecode.Local(0), GetDest: getSlot, PutDest: putSlot})
	arg1 := block.AllocLocal()
	block.Emit(&bytecode.Literal{Value: "first", Dest: arg1})
	put1Dest := block.AllocLocal()
	block.Emit(&bytecode.Call{Func: bytecode.Local(putSlot), Args: []bytecode.FrameIndex{bytecode.Local(arg1)}, Dest: put1Dest})
	arg2 := block.AllocLocal()
	block.Emit(&bytecode.Literal{Value: "second", Dest: arg2})
	put2Dest := block.AllocLocal()
	block.Emit(&bytecode.Call{Func: bytecode.Local(putSlot), Args: []bytecode.FrameIndex{bytecode.Local(arg2)}, Dest: put2Dest})
	get1Dest := block.AllocLocal()
	block.Emit(&bytecode.Call{Func: bytecode.Local(getSlot), Dest: get1Dest})
	block.Emit(&bytecode.Return{Result: bytecode.Local(get1Dest)})

	s := NewScheduler()
	result := s.Evaluate(block, nil)
	require.NotNil(t, result)
	assert.Equal(t, "first", result.DebugLiteral)
}

// TestLinkGetBeforePutParksThread exercises the waiter path directly:
// a get against an empty link parks its thread (BlockedGet) rather
// than aborting or busy-waiting, and a later put on the same link
// resumes it with the put value (spec.md §4.5).
func TestLinkGetBeforePutParksThread(t *testing.T) {
	ls := &linkState{}

	getter := bytecode.NewCodeBlock("getter", 0, 1)
	getter.Emit(&bytecode.Call{Exit: true, Func: bytecode.Static(0), Dest: 0})
	getterVal := NewFunc(getter, []*Value{{Kind: KindLink, Link: ls}})

	putter := bytecode.NewCodeBlock("putter", 0, 2)
	arg := putter.AllocLocal()
	putter.Emit(&bytecode.Literal{Value: "payload", Dest: arg})
	putter.Emit(&bytecode.Call{Exit: true, Func: bytecode.Static(0), Args: []bytecode.FrameIndex{bytecode.Local(arg)}, Dest: 0})
	putterVal := NewFunc(putter, []*Value{{Kind: KindFunc, Link: ls}})

	s := NewScheduler()
	childGet := s.spawnChild(getterVal)
	s.runThread(childGet)
	require.Equal(t, BlockedGet, childGet.state)
	require.Len(t, ls.waiters, 1)

	childPut := s.spawnChild(putterVal)
	s.runThread(childPut)
	require.Equal(t, Done, childPut.state)

	require.Equal(t, Runnable, childGet.state)
	s.runThread(childGet)
	require.Equal(t, Done, childGet.state)
	require.NotNil(t, childGet.result)
	assert.Equal(t, "payload", childGet.result.DebugLiteral)
}

// Two getters park on an empty link before either payload arrives;
// two puts then resume them in the order they parked, not the order
// the puts happen to be scheduled in (spec.md §4.5's FIFO waiter
// queue).
func TestLinkMultipleWaitersResumeInArrivalOrder(t *testing.T) {
	ls := &linkState{}

	newGetter := func() *bytecode.CodeBlock {
		b := bytecode.NewCodeBlock("getter", 0, 1)
		b.Emit(&bytecode.Call{Exit: true, Func: bytecode.Static(0), Dest: 0})
		return b
	}
	getterBlock := newGetter()
	getter1 := NewFunc(getterBlock, []*Value{{Kind: KindLink, Link: ls}})
	getter2 := NewFunc(getterBlock, []*Value{{Kind: KindLink, Link: ls}})

	newPutter := func(payload string) *Value {
		b := bytecode.NewCodeBlock("putter", 0, 2)
		arg := b.AllocLocal()
		b.Emit(&bytecode.Literal{Value: payload, Dest: arg})
		b.Emit(&bytecode.Call{Exit: true, Func: bytecode.Static(0), Args: []bytecode.FrameIndex{bytecode.Local(arg)}, Dest: 0})
		return NewFunc(b, []*Value{{Kind: KindFunc, Link: ls}})
	}

	s := NewScheduler()

	childGet1 := s.spawnChild(getter1)
	s.runThread(childGet1)
	require.Equal(t, BlockedGet, childGet1.state)

	childGet2 := s.spawnChild(getter2)
	s.runThread(childGet2)
	require.Equal(t, BlockedGet, childGet2.state)
	require.Len(t, ls.waiters, 2)

	childPutFirst := s.spawnChild(newPutter("first"))
	s.runThread(childPutFirst)
	require.Equal(t, Done, childPutFirst.state)

	childPutSecond := s.spawnChild(newPutter("second"))
	s.runThread(childPutSecond)
	require.Equal(t, Done, childPutSecond.state)

	require.Equal(t, Runnable, childGet1.state)
	s.runThread(childGet1)
	require.Equal(t, Done, childGet1.state)
	assert.Equal(t, "first", childGet1.result.DebugLiteral)

	require.Equal(t, Runnable, childGet2.state)
	s.runThread(childGet2)
	require.Equal(t, Done, childGet2.state)
	assert.Equal(t, "second", childGet2.result.DebugLiteral)
}

func TestForkJoinCollectsResults(t *testing.T) {
	child := bytecode.NewCodeBlock("child", 0, 0)
	childDest := child.AllocLocal()
	child.Emit(&bytecode.Literal{Value: "child-result", Dest: childDest})
	child.Emit(&bytecode.Return{Result: bytecode.Local(childDest)})
	childFn := NewFunc(child, nil)

	parent := bytecode.NewCodeBlock("parent", 0, 1)
	joinDest := parent.AllocLocal()
	parent.Emit(&bytecode.Fork{Args: []bytecode.FrameIndex{bytecode.Static(0)}, Dests: []int{joinDest}})
	parent.Emit(&bytecode.Join{})
	parent.Emit(&bytecode.Return{Result: bytecode.Local(joinDest)})

	parentVal := NewFunc(parent, []*Value{childFn})

	s := NewScheduler()
	result := s.Apply(parentVal, nil)
	require.NotNil(t, result)
}

// A context cancelled before evaluation starts aborts the computation
// through the same path as a runtime abort (spec.md §4.5/§7), rather
// than running to completion.
func TestEvaluateContextAbortsOnCancellation(t *testing.T) {
	block := bytecode.NewCodeBlock("noop", 0, 0)
	dest := block.AllocLocal()
	block.Emit(&bytecode.Literal{Value: "unreached", Dest: dest})
	block.Emit(&bytecode.Return{Result: bytecode.Local(dest)})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := NewScheduler()
	result := s.EvaluateContext(ctx, block, nil)
	assert.Nil(t, result)
}
