// Package valueheap implements the runtime value garbage collector
// (spec.md §4.4): separate from the type heap, same mark/sweep shape
// but simpler — one "from" space, one "to" space, one pending queue,
// one free list. Grounded the same way internal/typeheap is: no pack
// dependency implements a bespoke GC, so this is stdlib-only by
// necessity, with container/list again supplying the queue/list
// primitives the teacher has no analog for.
package valueheap

import "container/list"

// OnFree is called when an object is swept, mirroring spec.md §4.4's
// "free-list processing calls each value's on_free hook (used by
// functions to decrement their executable's refcount)".
type OnFree func(payload any)

// Object is one value-heap node.
type Object struct {
	Value    any
	refs     int
	space    space
	elem     *list.Element
	outEdges []*Object
	onFree   OnFree
}

func (o *Object) Refs() int { return o.refs }

type space int

const (
	spaceFrom space = iota
	spaceTo
	spacePending
	spaceFree
)

// Heap is the value heap's top-level state.
type Heap struct {
	from    *list.List // roots + non-roots of the current "from" space
	to      *list.List // survivors promoted so far this cycle
	pending *list.List // objects reached but not yet traversed
	free    []*Object
}

// New constructs an empty value heap.
func New() *Heap {
	return &Heap{from: list.New(), to: list.New(), pending: list.New()}
}

// Allocate performs one GC increment, then adds a new root object to
// "from" space.
func (h *Heap) Allocate(value any, onFree OnFree) *Object {
	h.Step()
	o := &Object{Value: value, space: spaceFrom, onFree: onFree}
	o.refs = 1
	o.elem = h.from.PushBack(o)
	return o
}

// Retain increments an object's external refcount.
func (h *Heap) Retain(o *Object) { o.refs++ }

// Release decrements an object's external refcount.
func (h *Heap) Release(o *Object) {
	if o.refs > 0 {
		o.refs--
	}
}

// AddRef records an edge src → dst; if src has already been traversed
// into "to" space and dst is still sitting unclaimed in "from", dst
// moves to "pending" so the current cycle doesn't miss it.
func (h *Heap) AddRef(src, dst *Object) {
	src.outEdges = append(src.outEdges, dst)
	if src.space == spaceTo && dst.space == spaceFrom {
		h.move(dst, h.pending, spacePending)
	}
}

func (h *Heap) move(o *Object, dst *list.List, s space) {
	if o.elem != nil {
		o.elem.Value = nil
		switch o.space {
		case spaceFrom:
			h.from.Remove(o.elem)
		case spaceTo:
			h.to.Remove(o.elem)
		case spacePending:
			h.pending.Remove(o.elem)
		}
	}
	o.space = s
	o.elem = dst.PushBack(o)
}

// Step performs one GC increment: traverse one pending object (or, if
// none are pending, one "from" root), moving its reachable neighbours
// along. When both pending and from-roots are empty, completes the
// cycle: surviving from-space objects are garbage, appended to the
// free list (running their on_free hooks), and the two spaces swap.
func (h *Heap) Step() {
	if e := h.pending.Front(); e != nil {
		o := e.Value.(*Object)
		h.move(o, h.to, spaceTo)
		for _, dst := range o.outEdges {
			h.AddRef(o, dst)
		}
		return
	}
	for e := h.from.Front(); e != nil; e = e.Next() {
		o := e.Value.(*Object)
		if o.refs > 0 {
			h.move(o, h.to, spaceTo)
			for _, dst := range o.outEdges {
				h.AddRef(o, dst)
			}
			return
		}
	}
	h.completeCycle()
}

func (h *Heap) completeCycle() {
	for e := h.from.Front(); e != nil; {
		next := e.Next()
		o := e.Value.(*Object)
		h.from.Remove(e)
		o.elem = nil
		o.space = spaceFree
		h.free = append(h.free, o)
		if o.onFree != nil {
			o.onFree(o.Value)
		}
		e = next
	}
	h.from, h.to = h.to, h.from
}

// LiveCount reports the number of objects currently reachable
// (pending + from + to), without triggering a GC step.
func (h *Heap) LiveCount() int {
	return h.pending.Len() + h.from.Len() + h.to.Len()
}

// FreeCount reports how many objects have been swept onto the free
// list so far.
func (h *Heap) FreeCount() int { return len(h.free) }
