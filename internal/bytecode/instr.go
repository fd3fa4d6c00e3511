// Package bytecode implements the instruction set and code block
// representation of spec.md §3.4, and the Tc→bytecode lowering pass of
// §4.3. Grounded on the teacher's internal/mir package: a single
// Lowerer-style driver (here, Assembler, which handles every Tc kind
// in assemble.go) plus a pretty-printer (disasm.go), over a different
// (linear, forward-jump-only, no-phi) instruction set, since spec.md
// places SSA/LLVM codegen out of scope.
package bytecode

import "github.com/malphas-lang/fble/internal/diag"

// Space distinguishes a frame's statics (captured values) from its
// locals (spec.md §3.4's "frame index is a pair (STATICS|LOCALS,
// index)").
type Space int

const (
	Locals Space = iota
	Statics
)

func (s Space) String() string {
	if s == Statics {
		return "statics"
	}
	return "locals"
}

// FrameIndex addresses one slot of the current frame.
type FrameIndex struct {
	Space Space
	Index int
}

// ProfileOp is a side-channel profiling event attached to an
// instruction (spec.md §3.4: "does not affect semantics").
type ProfileOp struct {
	Kind    ProfileOpKind
	BlockID int
}

type ProfileOpKind int

const (
	ProfileEnter ProfileOpKind = iota
	ProfileReplace
	ProfileExit
)

// DebugInfo is the other side-channel: source location and, for
// locals, the name a diagnostic should use.
type DebugInfo struct {
	Span      diag.Span
	LocalName string
}

// Instr is the closed sum of instruction variants (spec.md §3.4's
// table). Every variant embeds meta for the shared profile-op/debug
// side channels.
type Instr interface {
	isInstr()
	Meta() *Meta
}

// Meta holds the per-instruction side channels common to every
// variant, factored out so lowering code doesn't repeat it.
type Meta struct {
	Profile []ProfileOp
	Debug   DebugInfo
}

func (m *Meta) Meta() *Meta { return m }

// DataType allocates a type value for a Data type (struct or union
// shape) described by Fields, one FrameIndex per field type operand.
type DataType struct {
	Meta
	IsUnion bool
	Names   []string
	Fields  []FrameIndex
	Dest    int
}

func (*DataType) isInstr() {}

// StructValueType / UnionValueType materialise the *type* used by a
// later StructValue/UnionValue instruction, when that type isn't
// already a known static (spec.md §3.4 lists them alongside DataType
// as "allocate a type value").
type StructValueType struct {
	Meta
	Type FrameIndex
	Dest int
}

func (*StructValueType) isInstr() {}

type UnionValueType struct {
	Meta
	Type FrameIndex
	Dest int
}

func (*UnionValueType) isInstr() {}

// StructValue packs Args into a new struct value of the given static
// type index into Dest.
type StructValue struct {
	Meta
	Type FrameIndex
	Args []FrameIndex
	Dest int
}

func (*StructValue) isInstr() {}

// UnionValue tags Arg with Tag, producing a union value of Type.
type UnionValue struct {
	Meta
	Type FrameIndex
	Tag  int
	Arg  FrameIndex
	Dest int
}

func (*UnionValue) isInstr() {}

// StructAccess projects field Tag of Obj into Dest; aborts if Obj is
// undefined (spec.md §9).
type StructAccess struct {
	Meta
	Obj  FrameIndex
	Tag  int
	Dest int
}

func (*StructAccess) isInstr() {}

// UnionAccess projects the payload of Obj into Dest; aborts if Obj is
// undefined or its tag doesn't equal Tag (spec.md §9).
type UnionAccess struct {
	Meta
	Obj  FrameIndex
	Tag  int
	Dest int
}

func (*UnionAccess) isInstr() {}

// UnionSelect dispatches on Cond's tag: Jumps[tag] is the
// instruction-relative offset of that tag's branch, 0-indexed by tag.
type UnionSelect struct {
	Meta
	Cond  FrameIndex
	Jumps []int
}

func (*UnionSelect) isInstr() {}

// Jump is an unconditional forward-only jump of N instructions
// (spec.md §3.4: "loops do not exist at the IR level").
type Jump struct {
	Meta
	N int
}

func (*Jump) isInstr() {}

// FuncValue allocates a closure over Code, copying Captures (by
// FrameIndex in the *enclosing* frame) into its statics.
type FuncValue struct {
	Meta
	Code     *CodeBlock
	Captures []FrameIndex
	Dest     int
}

func (*FuncValue) isInstr() {}

// Call invokes Func with Args. Exit marks a tail call: the frame is
// replaced in place rather than pushed (spec.md §4.5).
type Call struct {
	Meta
	Exit bool
	Func FrameIndex
	Args []FrameIndex
	Dest int
}

func (*Call) isInstr() {}

// Link allocates a fresh typed FIFO, writing the get process value
// and put function value to GetDest/PutDest.
type Link struct {
	Meta
	Elem    FrameIndex
	GetDest int
	PutDest int
}

func (*Link) isInstr() {}

// Fork spawns one child thread per Args entry (each a nullary process
// value to run), writing each child's eventual result to the
// corresponding Dests slot once Join completes.
type Fork struct {
	Meta
	Args  []FrameIndex
	Dests []int
}

func (*Fork) isInstr() {}

// Join blocks the thread until every outstanding Fork child from this
// frame has returned.
type Join struct {
	Meta
}

func (*Join) isInstr() {}

// Copy retains Src into Dest (frame-to-frame, including statics→locals
// on variable reference per spec.md §4.3's `Var` rule).
type Copy struct {
	Meta
	Src  FrameIndex
	Dest int
}

func (*Copy) isInstr() {}

// RefValue allocates an uninitialised ref cell for a recursive
// binding (spec.md §4.3's recursive Let rule).
type RefValue struct {
	Meta
	Dest int
}

func (*RefValue) isInstr() {}

// RefDef closes Ref's cycle with Value; aborts if Value is itself
// nothing but a chain of ref-indirection back to Ref (vacuous,
// spec.md §7/§9).
type RefDef struct {
	Meta
	Ref   FrameIndex
	Value FrameIndex
}

func (*RefDef) isInstr() {}

// Return pops the current frame, writing Result through the frame's
// result pointer (spec.md §3.6).
type Return struct {
	Meta
	Result FrameIndex
}

func (*Return) isInstr() {}

// Type materialises the generic erased-type value into Dest (spec.md
// §3.4). The assembler emits it for type-value expressions and as the
// stand-in for a recursive reference inside a materialised data type;
// a PolyApply's type argument is erased and never materialised.
type Type struct {
	Meta
	Dest int
}

func (*Type) isInstr() {}

// Release drops Target early, running its release hook if its
// refcount reaches zero (spec.md §4.4, §5's "resources ... released
// on all exit paths").
type Release struct {
	Meta
	Target FrameIndex
}

func (*Release) isInstr() {}

// List builds a structured list value from Elems, in order.
type List struct {
	Meta
	Elems []FrameIndex
	Dest  int
}

func (*List) isInstr() {}

// Literal loads Value into Dest. The assembler emits it only with a
// nil Value, as a placeholder for an unresolved name or an unhandled
// Tc node; `Unit()`-style struct values lower to StructValue.
type Literal struct {
	Meta
	Value any
	Dest  int
}

func (*Literal) isInstr() {}
