package bytecode

// CodeBlock is spec.md §3.4's "code block": argument count, captured
// statics count, local count, and the linear instruction vector. One
// CodeBlock is shared by every closure the assembler ever makes of it
// (spec.md §4.4's "executable refcounts are shared between all
// threads holding function values"), so it carries its own refcount
// rather than relying on Go's GC to decide when it is safe to drop
// profiling/disassembly bookkeeping tied to it.
type CodeBlock struct {
	Name      string // for disassembly/profiling only
	NumArgs   int
	NumStatic int
	NumLocals int
	Instrs    []Instr
	refs      int
}

// NewCodeBlock allocates an empty block with the given arg/static
// counts; locals grow as the assembler allocates them.
func NewCodeBlock(name string, numArgs, numStatic int) *CodeBlock {
	return &CodeBlock{Name: name, NumArgs: numArgs, NumStatic: numStatic}
}

// Retain increments the block's executable refcount; called each time
// a Func value is constructed against this block.
func (b *CodeBlock) Retain() { b.refs++ }

// Release decrements the block's executable refcount, called from a
// Func value's on_free hook once the value heap sweeps it.
func (b *CodeBlock) Release() {
	if b.refs > 0 {
		b.refs--
	}
}

// Refs reports the block's current executable refcount.
func (b *CodeBlock) Refs() int { return b.refs }

// AllocLocal reserves the next local slot and returns its index.
func (b *CodeBlock) AllocLocal() int {
	idx := b.NumLocals
	b.NumLocals++
	return idx
}

// Emit appends an instruction and returns its index within the block.
func (b *CodeBlock) Emit(i Instr) int {
	b.Instrs = append(b.Instrs, i)
	return len(b.Instrs) - 1
}

// Local builds a FrameIndex into this block's own locals space,
// distinct from its statics (captures).
func Local(i int) FrameIndex { return FrameIndex{Space: Locals, Index: i} }

// Static builds a FrameIndex into the captures space.
func Static(i int) FrameIndex { return FrameIndex{Space: Statics, Index: i} }
