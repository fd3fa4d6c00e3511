// Package interp implements the cooperative single-threaded
// interpreter over fble threads (spec.md §4.5, §5): one OS thread
// driving many logical proc executions, synchronising only through
// link put/get and fork/join. Grounded in dispatch-loop shape on
// other_examples' register-VM and tree-walking-VM references (opcode
// switch driving a frame stack), generalized from their stack/register
// value models to this spec's frame-of-locals-and-statics model and
// its run/abort dual dispatch. golang.org/x/sync is deliberately not
// used here — the scheduler's determinism (single FIFO, run-to-block)
// is the opposite of the module linker's independent-unit fan-out,
// which does use it (internal/linker).
package interp

import "github.com/malphas-lang/fble/internal/bytecode"

// Value is a runtime value (spec.md §3.5). Packed-pointer encoding of
// small struct/union values is represented here by the Packed field
// rather than a tagged machine word, since Go gives no portable way to
// steal a pointer's low bit. Packed is a flag only: the scheduler
// registers packed values with the value heap like any other value.
type Value struct {
	Kind     ValueKind
	Fields   []*Value // Struct
	Tag      int      // Union
	Arg      *Value   // Union payload
	Code     *bytecode.CodeBlock
	Statics  []*Value // Func closures
	Ref      *Value   // Ref cell contents; nil means undefined
	RefBound bool     // Ref has been RefDef'd, even to nil-equivalent
	Link     *linkState

	Packed bool // true if this value was built without heap allocation

	// DebugLiteral carries a Literal instruction's raw payload through
	// for disassembly/debugging only; no fble-level operation reads it.
	DebugLiteral any
}

type ValueKind int

const (
	KindStruct ValueKind = iota
	KindUnion
	KindFunc
	KindRef
	KindDataType
	KindLink
)

type linkState struct {
	queue []*Value
	// waiters holds one resumption closure per thread parked on a Get
	// against an empty link (spec.md §4.5); invoking one delivers the
	// put value and re-enqueues that thread onto the scheduler.
	waiters []func(*Value)
}

// NewStruct builds a struct value, packing it if every field is
// itself packed (spec.md §3.5's packed-pointer unary encoding).
func NewStruct(fields []*Value) *Value {
	packed := true
	for _, f := range fields {
		if f == nil || !f.Packed {
			packed = false
			break
		}
	}
	return &Value{Kind: KindStruct, Fields: fields, Packed: packed}
}

// NewUnion builds a union value, packed iff its payload is packed.
func NewUnion(tag int, arg *Value) *Value {
	packed := arg != nil && arg.Packed
	return &Value{Kind: KindUnion, Tag: tag, Arg: arg, Packed: packed}
}

// NewFunc builds a closure value over code with the given captured
// statics. Functions are never packed (spec.md's packing is for small
// data values only).
func NewFunc(code *bytecode.CodeBlock, statics []*Value) *Value {
	return &Value{Kind: KindFunc, Code: code, Statics: statics}
}

// NewRefCell allocates an undefined ref cell (spec.md §4.3's recursive
// let translation: "one RefValue per binding").
func NewRefCell() *Value {
	return &Value{Kind: KindRef}
}

// Deref transparently chases ref indirection, as spec.md §4.3 requires
// ("the ref cell is transparently dereferenced on read").
func Deref(v *Value) *Value {
	for v != nil && v.Kind == KindRef && v.RefBound && v.Ref != v {
		v = v.Ref
	}
	return v
}

// StructAccess reads field tag of v (spec.md §6's StructValueAccess),
// aborting (returning nil, false) if v is undefined.
func StructAccess(v *Value, tag int) (*Value, bool) {
	v = Deref(v)
	if v == nil || v.Kind != KindStruct || tag < 0 || tag >= len(v.Fields) {
		return nil, false
	}
	return v.Fields[tag], true
}

// UnionTag reports v's current tag (spec.md §6's UnionValueTag).
func UnionTag(v *Value) (int, bool) {
	v = Deref(v)
	if v == nil || v.Kind != KindUnion {
		return 0, false
	}
	return v.Tag, true
}

// UnionAccess reads v's payload, aborting if v is undefined or its tag
// doesn't equal the expected wantTag (spec.md §6, §7's "wrong union
// tag on access").
func UnionAccess(v *Value, wantTag int) (*Value, bool) {
	v = Deref(v)
	if v == nil || v.Kind != KindUnion || v.Tag != wantTag {
		return nil, false
	}
	return v.Arg, true
}
