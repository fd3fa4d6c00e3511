package interp

import "github.com/malphas-lang/fble/internal/bytecode"

// Frame is one stack frame: a function value's code, its locals array
// (sized from the code block at push time), the statics it closed
// over, and a program counter (spec.md §3.6).
type Frame struct {
	Block    *bytecode.CodeBlock
	Locals   []*Value
	Statics  []*Value
	PC       int
	onReturn func(*Value)
}

func newFrame(code *bytecode.CodeBlock, args, statics []*Value, onReturn func(*Value)) *Frame {
	locals := make([]*Value, code.NumLocals)
	copy(locals, args)
	return &Frame{Block: code, Locals: locals, Statics: statics, onReturn: onReturn}
}

// read resolves fi, transparently dereferencing ref cells (spec.md
// §4.3: "the ref cell is transparently dereferenced on read").
func (f *Frame) read(fi bytecode.FrameIndex) *Value {
	return Deref(f.readRaw(fi))
}

// readRaw resolves fi without dereferencing, for the one place that
// needs the ref cell itself: RefDef's Ref operand.
func (f *Frame) readRaw(fi bytecode.FrameIndex) *Value {
	if fi.Space == bytecode.Statics {
		if fi.Index < 0 || fi.Index >= len(f.Statics) {
			return nil
		}
		return f.Statics[fi.Index]
	}
	if fi.Index < 0 || fi.Index >= len(f.Locals) {
		return nil
	}
	return f.Locals[fi.Index]
}

func (f *Frame) readList(fis []bytecode.FrameIndex) []*Value {
	out := make([]*Value, len(fis))
	for i, fi := range fis {
		out[i] = f.read(fi)
	}
	return out
}

func (f *Frame) write(idx int, v *Value) {
	if idx >= 0 && idx < len(f.Locals) {
		f.Locals[idx] = v
	}
}
