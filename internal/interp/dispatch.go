package interp

import "github.com/malphas-lang/fble/internal/bytecode"

// stepOutcome tells runThread what happened after dispatching one
// instruction or frame-boundary event.
type stepOutcome int

const (
	outcomeContinue stepOutcome = iota
	outcomeFrameDone // the thread's whole frame stack is empty
	outcomeBlocked
	outcomeAborted
)

// step dispatches the single instruction at f.PC against thread th,
// advancing f.PC or performing a frame push/pop/replace as needed.
// Values have already been type-checked (internal/ftype) before
// reaching bytecode, so step trusts shapes and only aborts on the
// runtime-only failure modes spec.md §7 names: undefined access, wrong
// union tag, vacuous ref.
func (s *Scheduler) step(th *Thread) stepOutcome {
	f := th.top()
	if f == nil {
		return outcomeFrameDone
	}
	if f.PC >= len(f.Block.Instrs) {
		return outcomeFrameDone
	}
	instr := f.Block.Instrs[f.PC]

	switch i := instr.(type) {
	case *bytecode.DataType:
		f.write(i.Dest, s.track(&Value{Kind: KindDataType}, nil))
		f.PC++

	case *bytecode.StructValueType:
		f.write(i.Dest, f.read(i.Type))
		f.PC++

	case *bytecode.UnionValueType:
		f.write(i.Dest, f.read(i.Type))
		f.PC++

	case *bytecode.StructValue:
		fields := f.readList(i.Args)
		f.write(i.Dest, s.track(NewStruct(fields), nil, fields...))
		f.PC++

	case *bytecode.UnionValue:
		arg := f.read(i.Arg)
		f.write(i.Dest, s.track(NewUnion(i.Tag, arg), nil, arg))
		f.PC++

	case *bytecode.StructAccess:
		v, ok := StructAccess(f.read(i.Obj), i.Tag)
		if !ok {
			return outcomeAborted
		}
		f.write(i.Dest, v)
		f.PC++

	case *bytecode.UnionAccess:
		v, ok := UnionAccess(f.read(i.Obj), i.Tag)
		if !ok {
			return outcomeAborted
		}
		f.write(i.Dest, v)
		f.PC++

	case *bytecode.UnionSelect:
		tag, ok := UnionTag(f.read(i.Cond))
		if !ok || tag < 0 || tag >= len(i.Jumps) {
			return outcomeAborted
		}
		f.PC += i.Jumps[tag] + 1

	case *bytecode.Jump:
		f.PC += i.N + 1

	case *bytecode.FuncValue:
		captures := f.readList(i.Captures)
		fn := NewFunc(i.Code, captures)
		i.Code.Retain()
		f.write(i.Dest, s.track(fn, onFreeFunc, captures...))
		f.PC++

	case *bytecode.Call:
		return s.dispatchCall(th, f, i)

	case *bytecode.Link:
		ls := &linkState{}
		f.write(i.GetDest, s.track(&Value{Kind: KindLink, Link: ls}, nil))
		// put is modeled as a synthetic func-like handle; it carries no
		// Code, so onFreeFunc's Code==nil guard makes its hook a no-op.
		f.write(i.PutDest, s.track(&Value{Kind: KindFunc, Link: ls}, onFreeFunc))
		f.PC++

	case *bytecode.Fork:
		return s.dispatchFork(th, f, i)

	case *bytecode.Join:
		return s.dispatchJoin(th, f, i)

	case *bytecode.Copy:
		f.write(i.Dest, f.read(i.Src))
		f.PC++

	case *bytecode.RefValue:
		f.write(i.Dest, s.track(NewRefCell(), nil))
		f.PC++

	case *bytecode.RefDef:
		ref := f.readRaw(i.Ref)
		val := f.read(i.Value)
		if ref == nil || ref.Kind != KindRef {
			return outcomeAborted
		}
		resolved := Deref(val)
		if resolved == ref {
			// Vacuous ref: the cycle never bottoms out at a non-ref value.
			return outcomeAborted
		}
		ref.Ref = val
		ref.RefBound = true
		s.addRef(ref, val)
		f.PC++

	case *bytecode.Return:
		result := f.read(i.Result)
		th.pop()
		if f.onReturn != nil {
			f.onReturn(result)
		}
		if th.top() == nil {
			return outcomeFrameDone
		}

	case *bytecode.Type:
		f.write(i.Dest, s.track(&Value{Kind: KindDataType}, nil))
		f.PC++

	case *bytecode.Release:
		if obj, ok := s.objects[f.readRaw(i.Target)]; ok {
			s.heap.Release(obj)
		}
		f.PC++

	case *bytecode.List:
		elems := f.readList(i.Elems)
		f.write(i.Dest, s.track(NewStruct(elems), nil, elems...))
		f.PC++

	case *bytecode.Literal:
		// Packed, so the heap never even sees a literal's representation
		// at the real runtime encoding this models (spec.md §3.5's
		// "reading a packed pointer never allocates") — but this
		// interpreter still tracks it for uniform accounting.
		f.write(i.Dest, s.track(&Value{Kind: KindStruct, Packed: true, DebugLiteral: i.Value}, nil))
		f.PC++

	default:
		return outcomeAborted
	}
	return outcomeContinue
}

func (s *Scheduler) dispatchCall(th *Thread, f *Frame, i *bytecode.Call) stepOutcome {
	fn := f.read(i.Func)
	if fn == nil {
		return outcomeAborted
	}
	if fn.Kind == KindLink {
		return s.dispatchGet(th, f, i, fn.Link)
	}
	if fn.Kind == KindFunc && fn.Link != nil {
		return s.dispatchPut(th, f, i, fn.Link)
	}
	if fn.Code == nil {
		return outcomeAborted
	}
	args := f.readList(i.Args)
	if i.Exit {
		// Tail call: replace the current frame; the result pointer is
		// inherited from the caller (spec.md §4.5).
		th.replace(newFrame(fn.Code, args, fn.Statics, f.onReturn))
		return outcomeContinue
	}
	dest := i.Dest
	caller := f
	th.push(newFrame(fn.Code, args, fn.Statics, func(v *Value) { caller.write(dest, v) }))
	caller.PC++
	return outcomeContinue
}

// dispatchGet implements a Call against a Link's get-process value:
// pop from the FIFO if non-empty, else park the thread on the link's
// waiter list (spec.md §4.5's "get on an empty link parks the thread").
func (s *Scheduler) dispatchGet(th *Thread, f *Frame, i *bytecode.Call, ls *linkState) stepOutcome {
	complete := func(v *Value) {
		if i.Exit {
			if f.onReturn != nil {
				f.onReturn(v)
			}
			th.pop()
		} else {
			f.write(i.Dest, v)
			f.PC++
		}
	}
	if len(ls.queue) > 0 {
		v := ls.queue[0]
		ls.queue = ls.queue[1:]
		complete(v)
		return outcomeContinue
	}
	ls.waiters = append(ls.waiters, func(v *Value) {
		complete(v)
		th.state = Runnable
		s.runnable = append(s.runnable, th)
	})
	th.state = BlockedGet
	return outcomeBlocked
}

// dispatchPut implements a Call against a Link's put-function value:
// resumes exactly one waiter in FIFO order if any are parked, else
// enqueues (put never blocks — links are unbounded, spec.md §4.5).
func (s *Scheduler) dispatchPut(th *Thread, f *Frame, i *bytecode.Call, ls *linkState) stepOutcome {
	var arg *Value
	if len(i.Args) > 0 {
		arg = f.read(i.Args[0])
	}
	if len(ls.waiters) > 0 {
		w := ls.waiters[0]
		ls.waiters = ls.waiters[1:]
		w(arg)
	} else {
		ls.queue = append(ls.queue, arg)
	}
	unit := s.track(NewStruct(nil), nil)
	if i.Exit {
		if f.onReturn != nil {
			f.onReturn(unit)
		}
		th.pop()
	} else {
		f.write(i.Dest, unit)
		f.PC++
	}
	return outcomeContinue
}

func (s *Scheduler) dispatchFork(th *Thread, f *Frame, i *bytecode.Fork) stepOutcome {
	args := f.readList(i.Args)
	group := &forkGroup{owner: th, dests: i.Dests, frame: f}
	for _, procVal := range args {
		child := s.spawnChild(procVal)
		child.group = group
		group.children = append(group.children, child)
	}
	th.activeFork = group
	f.PC++
	return outcomeContinue
}

func (s *Scheduler) spawnChild(procVal *Value) *Thread {
	s.nextID++
	child := &Thread{id: s.nextID, state: Runnable}
	var statics []*Value
	if procVal != nil {
		statics = procVal.Statics
	}
	child.push(newFrame(procVal.Code, nil, statics, func(v *Value) {
		child.result = v
		child.resultAvailable = true
	}))
	s.runnable = append(s.runnable, child)
	return child
}

func (s *Scheduler) dispatchJoin(th *Thread, f *Frame, i *bytecode.Join) stepOutcome {
	group := th.activeFork
	if group == nil {
		f.PC++
		return outcomeContinue
	}
	for _, c := range group.children {
		if c.state != Done {
			th.state = BlockedJoin
			return outcomeBlocked
		}
	}
	for idx, c := range group.children {
		if idx < len(group.dests) {
			f.write(group.dests[idx], c.result)
		}
	}
	th.activeFork = nil
	f.PC++
	return outcomeContinue
}
