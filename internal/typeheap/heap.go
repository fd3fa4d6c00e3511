// Package typeheap implements the incremental tri-colour generational
// garbage collector over type nodes (spec.md §4.1): allocate, retain,
// release and cross-reference type nodes, tolerating cycles through
// Var without ever leaking. It has no direct analog in the teacher,
// which targets LLVM and owns no runtime heap at all; the traversal
// shape (explicit worklists over an object graph, not a language
// runtime's own GC) is grounded on the object-graph walkers in
// other_examples' heap-dump readers. container/list is stdlib because
// no third-party library in the pack implements a bespoke tri-colour
// collector — this is an from-scratch algorithm, not a concern any
// pack dependency addresses.
package typeheap

import "container/list"

// Generation is one of the heap's incremental collection generations,
// oldest to youngest, plus the four special traversal generations
// spec.md §4.1 names.
type Generation int

const (
	// GenOld0 is the oldest ordinary generation; ordinary generations
	// grow upward from here as objects survive cycles.
	GenOld0 Generation = iota
	// Special traversal generations.
	GenMark // marked but not yet traversed
	GenGC   // the union of generations currently being traversed
	GenSave // protected for the remainder of this cycle
	GenNew  // fresh allocations not yet subject to any cycle
)

// Object is one type-heap node: a Type plus the bookkeeping the
// collector needs (refcount, generation, and which of its two lists —
// root or non-root — it currently lives in).
type Object struct {
	Value    any // the *ftype.Type this node wraps; typeheap is payload-agnostic
	refs     int
	gen      Generation
	isRoot   bool
	elem     *list.Element // this object's element in its current list
	outEdges []*Object      // edges this object holds to other heap objects
}

// Refs reports the object's current external refcount.
func (o *Object) Refs() int { return o.refs }

type genLists struct {
	roots    *list.List
	nonRoots *list.List
}

func newGenLists() *genLists {
	return &genLists{roots: list.New(), nonRoots: list.New()}
}

// Heap is the collector's top-level state: one genLists per ordinary
// generation plus the four special ones, and a free list of objects
// ready for reuse by the caller.
type Heap struct {
	generations []*genLists // index 0..next ordinary generations
	mark        *genLists
	gc          *genLists
	save        *genLists
	fresh       *genLists
	next        int // oldest generation index included in the next GC cycle
	free        []*Object

	// traverseOne follows spec.md §4.1's traversal preference order:
	// MARK non-roots → MARK roots → old generation finish → GC roots →
	// SAVE roots → SAVE non-roots. traversing is true while a cycle is
	// in progress.
	traversing bool

	allocationsPerFree int
	allocated          int
	freed              int
}

// Option configures a Heap at construction time.
type Option func(*Heap)

// WithAllocationsPerFree overrides spec.md §4.1's hard-coded "free two
// objects per increment" constant, for hosts that want to trade GC
// latency against free-list drain rate. n <= 0 is ignored.
func WithAllocationsPerFree(n int) Option {
	return func(h *Heap) {
		if n > 0 {
			h.allocationsPerFree = n
		}
	}
}

// New constructs an empty type heap with a single ordinary generation.
func New(opts ...Option) *Heap {
	h := &Heap{
		generations:        []*genLists{newGenLists()},
		mark:               newGenLists(),
		gc:                 newGenLists(),
		save:               newGenLists(),
		fresh:              newGenLists(),
		allocationsPerFree: 2,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Stats summarizes heap occupancy for the profile sink (SPEC_FULL.md
// §D).
type Stats struct {
	Generations int
	Allocated   int
	Freed       int
}

// Stats reports cumulative allocation/free counts and the current
// generation count.
func (h *Heap) Stats() Stats {
	return Stats{
		Generations: len(h.generations),
		Allocated:   h.allocated,
		Freed:       h.freed,
	}
}

func (h *Heap) genList(g Generation) *genLists {
	switch g {
	case GenMark:
		return h.mark
	case GenGC:
		return h.gc
	case GenSave:
		return h.save
	case GenNew:
		return h.fresh
	default:
		for len(h.generations) <= int(g) {
			h.generations = append(h.generations, newGenLists())
		}
		return h.generations[g]
	}
}

func (h *Heap) listFor(o *Object) *list.List {
	gl := h.genList(o.gen)
	if o.isRoot {
		return gl.roots
	}
	return gl.nonRoots
}

func (h *Heap) push(o *Object, g Generation, root bool) {
	o.gen = g
	o.isRoot = root
	o.elem = h.listFor(o).PushBack(o)
}

func (h *Heap) remove(o *Object) {
	if o.elem != nil {
		h.listFor(o).Remove(o.elem)
		o.elem = nil
	}
}

func (h *Heap) move(o *Object, g Generation, root bool) {
	h.remove(o)
	h.push(o, g, root)
}

// Allocate advances the GC by one increment, then places a new object
// as a root in NEW.
func (h *Heap) Allocate(value any) *Object {
	h.Step()
	o := &Object{Value: value}
	h.push(o, GenNew, true)
	h.allocated++
	return o
}

// Retain increments an object's refcount, moving it to the root list
// of its current generation if it was previously unreferenced.
func (h *Heap) Retain(o *Object) {
	o.refs++
	if o.refs == 1 && !o.isRoot {
		h.move(o, o.gen, true)
	}
}

// Release decrements an object's refcount. Reaching zero demotes it
// to its generation's non-root list; if it was the primary root of an
// old generation, widens `next` so that generation is swept next
// cycle.
func (h *Heap) Release(o *Object) {
	o.refs--
	if o.refs > 0 {
		return
	}
	wasOldRoot := o.isRoot && o.gen < Generation(len(h.generations)) && int(o.gen) < h.next
	h.move(o, o.gen, false)
	if wasOldRoot {
		h.next = max(h.next, int(o.gen)+1)
	}
}

// AddRef records an edge src → dst. If src has already been traversed
// this cycle and dst has not, dst is marked (moved to MARK or SAVE
// depending on its current generation); a cross-generation edge that
// escapes the planned traversal widens `next`.
func (h *Heap) AddRef(src, dst *Object) {
	src.outEdges = append(src.outEdges, dst)
	if !h.traversing {
		return
	}
	if src.gen == GenGC && dst.gen != GenGC && dst.gen != GenMark && dst.gen != GenSave {
		target := GenMark
		if int(dst.gen) < h.next {
			target = GenSave
		}
		h.move(dst, target, dst.isRoot)
		if int(dst.gen) >= h.next {
			h.next = int(dst.gen) + 1
		}
	}
}

// Step performs one GC increment (spec.md §4.1's "GC increment, called
// once per allocation"): free allocationsPerFree objects (two unless
// overridden) from the free list, traverse
// one object in the documented preference order, and when traversal is
// empty, complete a cycle.
func (h *Heap) Step() {
	h.freeBatch()
	if h.traverseOne() {
		return
	}
	h.completeCycle()
}

func (h *Heap) freeBatch() {
	n := h.allocationsPerFree
	if n <= 0 {
		n = 2
	}
	for i := 0; i < n && len(h.free) > 0; i++ {
		h.free = h.free[1:]
		h.freed++
	}
}

// traverseOne advances the current cycle by one object, following the
// documented preference order. Returns true if an object was
// traversed (cycle still in progress).
func (h *Heap) traverseOne() bool {
	if !h.traversing {
		h.beginCycle()
	}
	if e := h.mark.nonRoots.Front(); e != nil {
		h.traverse(e.Value.(*Object))
		return true
	}
	if e := h.mark.roots.Front(); e != nil {
		h.traverse(e.Value.(*Object))
		return true
	}
	for i := h.next; i < len(h.generations); i++ {
		gl := h.generations[i]
		if e := gl.nonRoots.Front(); e != nil {
			h.traverse(e.Value.(*Object))
			return true
		}
		if e := gl.roots.Front(); e != nil {
			h.traverse(e.Value.(*Object))
			return true
		}
	}
	if e := h.gc.roots.Front(); e != nil {
		h.traverse(e.Value.(*Object))
		return true
	}
	if e := h.save.roots.Front(); e != nil {
		h.traverse(e.Value.(*Object))
		return true
	}
	if e := h.save.nonRoots.Front(); e != nil {
		h.traverse(e.Value.(*Object))
		return true
	}
	return false
}

func (h *Heap) beginCycle() {
	h.traversing = true
	for i := h.next; i < len(h.generations); i++ {
		gl := h.generations[i]
		for e := gl.roots.Front(); e != nil; {
			next := e.Next()
			o := e.Value.(*Object)
			h.move(o, GenGC, true)
			e = next
		}
		for e := gl.nonRoots.Front(); e != nil; {
			next := e.Next()
			o := e.Value.(*Object)
			h.move(o, GenGC, false)
			e = next
		}
	}
}

// traverse moves o to GC (if not already there) and walks its
// out-edges, applying AddRef semantics to each.
func (h *Heap) traverse(o *Object) {
	if o.gen != GenGC {
		h.move(o, GenGC, o.isRoot)
	} else {
		h.move(o, GenGC, o.isRoot) // re-link to back so it isn't re-picked immediately
	}
	for _, dst := range o.outEdges {
		h.AddRef(o, dst)
	}
}

// completeCycle moves unreachable GC non-roots to the free list,
// rotates generations so survivors form the new oldest generation,
// and resets cycle state.
func (h *Heap) completeCycle() {
	for e := h.gc.nonRoots.Front(); e != nil; {
		next := e.Next()
		o := e.Value.(*Object)
		h.remove(o)
		h.free = append(h.free, o)
		e = next
	}

	survivors := newGenLists()
	for e := h.gc.roots.Front(); e != nil; {
		next := e.Next()
		o := e.Value.(*Object)
		h.remove(o)
		o.gen = GenOld0
		o.elem = survivors.roots.PushBack(o)
		e = next
	}
	for e := h.mark.nonRoots.Front(); e != nil; {
		next := e.Next()
		o := e.Value.(*Object)
		h.remove(o)
		o.gen = GenOld0
		o.elem = survivors.nonRoots.PushBack(o)
		e = next
	}
	for e := h.mark.roots.Front(); e != nil; {
		next := e.Next()
		o := e.Value.(*Object)
		h.remove(o)
		o.gen = GenOld0
		o.elem = survivors.roots.PushBack(o)
		e = next
	}
	for e := h.save.roots.Front(); e != nil; {
		next := e.Next()
		o := e.Value.(*Object)
		h.remove(o)
		o.gen = GenOld0
		o.elem = survivors.roots.PushBack(o)
		e = next
	}
	for e := h.fresh.roots.Front(); e != nil; {
		next := e.Next()
		o := e.Value.(*Object)
		h.remove(o)
		o.gen = GenOld0
		o.elem = survivors.roots.PushBack(o)
		e = next
	}

	h.generations = []*genLists{survivors}
	h.next = 0
	h.traversing = false
}

// LiveCount reports how many objects are currently reachable (roots
// plus non-roots across every live generation), for tests and
// diagnostics; it does not trigger a GC step.
func (h *Heap) LiveCount() int {
	n := 0
	count := func(gl *genLists) { n += gl.roots.Len() + gl.nonRoots.Len() }
	for _, gl := range h.generations {
		count(gl)
	}
	count(h.mark)
	count(h.gc)
	count(h.save)
	count(h.fresh)
	return n
}

// FreeCount reports the number of objects currently on the free list.
func (h *Heap) FreeCount() int { return len(h.free) }

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
