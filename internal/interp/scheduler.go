package interp

import (
	"context"

	"github.com/malphas-lang/fble/internal/bytecode"
	"github.com/malphas-lang/fble/internal/valueheap"
)

// Scheduler is the cooperative single-threaded driver over many
// logical fble threads (spec.md §4.5): one FIFO of runnable threads,
// each run to completion of its current frame or until it blocks. It
// also owns the runtime value heap (spec.md §4.4): every Value the
// dispatch loop builds is allocated into it, so the same tracing
// mark/sweep collector that runs in production is exercised by every
// evaluation, not bolted on afterward.
type Scheduler struct {
	runnable []*Thread
	nextID   int
	aborted  bool
	ctx      context.Context

	heap    *valueheap.Heap
	objects map[*Value]*valueheap.Object
}

// NewScheduler constructs an empty scheduler with its own private
// value heap.
func NewScheduler() *Scheduler {
	return &Scheduler{heap: valueheap.New(), objects: map[*Value]*valueheap.Object{}}
}

// track allocates v into the scheduler's value heap with the given
// on_free hook, recording AddRef edges to each of parts that is
// itself already heap-tracked (a struct's fields, a union's payload,
// a closure's captured statics).
func (s *Scheduler) track(v *Value, onFree valueheap.OnFree, parts ...*Value) *Value {
	obj := s.heap.Allocate(v, onFree)
	s.objects[v] = obj
	for _, p := range parts {
		if po, ok := s.objects[p]; ok {
			s.heap.AddRef(obj, po)
		}
	}
	return v
}

// addRef records an edge between two already-tracked values that
// weren't known to be related at construction time — RefDef binding a
// ref cell to its eventual contents after the cell itself was
// allocated (spec.md §4.3's recursive-let cycle).
func (s *Scheduler) addRef(src, dst *Value) {
	so, ok := s.objects[src]
	if !ok {
		return
	}
	if do, ok := s.objects[dst]; ok {
		s.heap.AddRef(so, do)
	}
}

// onFreeFunc decrements a closure's executable refcount once the
// value heap sweeps it (spec.md §4.4's "on_free hook used by functions
// to decrement their executable's refcount").
func onFreeFunc(payload any) {
	v, ok := payload.(*Value)
	if !ok || v.Code == nil {
		return
	}
	v.Code.Release()
}

// Evaluate drives the interpreter loop over code with the given
// arguments, returning nil if the computation aborted (spec.md §6's
// Evaluate(heap, expr_tc, args, profile) -> value?).
func (s *Scheduler) Evaluate(code *bytecode.CodeBlock, args []*Value) *Value {
	return s.evaluateClosure(code, nil, args)
}

// Apply invokes a function value with args, the spec.md §6 Apply
// entry point used for re-entering an already-produced closure (e.g.
// a standard-linker module's executable).
func (s *Scheduler) Apply(fn *Value, args []*Value) *Value {
	if fn == nil || fn.Code == nil {
		return nil
	}
	return s.evaluateClosure(fn.Code, fn.Statics, args)
}

// EvaluateContext is Evaluate with a host-cancellable context
// (SPEC_FULL.md §D's "Run(ctx, ...)" expansion of spec.md §6, wired to
// `fble run`'s command context). Cancelling ctx aborts every runnable
// thread the same way a runtime abort does (spec.md §4.5/§7); it is
// not a distinct code path.
func (s *Scheduler) EvaluateContext(ctx context.Context, code *bytecode.CodeBlock, args []*Value) *Value {
	s.ctx = ctx
	return s.evaluateClosure(code, nil, args)
}

// ApplyContext is Apply with a host-cancellable context, see
// EvaluateContext.
func (s *Scheduler) ApplyContext(ctx context.Context, fn *Value, args []*Value) *Value {
	s.ctx = ctx
	if fn == nil || fn.Code == nil {
		return nil
	}
	return s.evaluateClosure(fn.Code, fn.Statics, args)
}

func (s *Scheduler) evaluateClosure(code *bytecode.CodeBlock, statics, args []*Value) *Value {
	var result *Value
	got := false
	th := s.spawnTop(code, statics, args, func(v *Value) {
		result = v
		got = true
	})
	s.run()
	if s.aborted || th.state == Aborted || !got {
		return nil
	}
	return result
}

func (s *Scheduler) spawnTop(code *bytecode.CodeBlock, statics, args []*Value, onReturn func(*Value)) *Thread {
	s.nextID++
	th := &Thread{id: s.nextID, state: Runnable}
	th.push(newFrame(code, args, statics, onReturn))
	s.runnable = append(s.runnable, th)
	return th
}

// run drains the runnable queue to a fixed point: each thread runs
// until its frame stack empties, it blocks, or it aborts. An abort
// propagates to every other thread (spec.md §4.5's cancellation
// rule) and halts the whole evaluation.
func (s *Scheduler) run() {
	for len(s.runnable) > 0 {
		if s.ctx != nil {
			select {
			case <-s.ctx.Done():
				s.abortAll()
				return
			default:
			}
		}
		th := s.runnable[0]
		s.runnable = s.runnable[1:]
		if th.state != Runnable {
			continue
		}
		s.runThread(th)
		if th.state == Aborted {
			s.abortAll()
			return
		}
		s.wakeJoin(th)
	}
}

// wakeJoin re-enqueues a forked thread's owner once every sibling in
// its group has finished (spec.md §4.6's Join): a group's owner blocks
// on Join before any child has had a turn to run, so nothing else
// resumes it once the last child completes.
func (s *Scheduler) wakeJoin(th *Thread) {
	group := th.group
	if group == nil || th.state != Done {
		return
	}
	for _, c := range group.children {
		if c.state != Done {
			return
		}
	}
	owner := group.owner
	if owner != nil && owner.state == BlockedJoin {
		owner.state = Runnable
		s.runnable = append(s.runnable, owner)
	}
}

func (s *Scheduler) runThread(th *Thread) {
	for {
		if th.top() == nil {
			th.state = Done
			return
		}
		switch s.step(th) {
		case outcomeFrameDone:
			th.state = Done
			return
		case outcomeBlocked:
			return
		case outcomeAborted:
			th.state = Aborted
			return
		case outcomeContinue:
			// keep dispatching within this thread's turn
		}
	}
}

// abortAll marks every remaining thread aborted, mirroring spec.md
// §4.5's "if any instruction returns ABORTED ... all other threads are
// then aborted identically".
func (s *Scheduler) abortAll() {
	s.aborted = true
	for _, th := range s.runnable {
		th.state = Aborted
	}
	s.runnable = nil
}
