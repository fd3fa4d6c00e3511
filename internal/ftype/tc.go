package ftype

import "github.com/malphas-lang/fble/internal/lexer"

// Tc is the typed intermediate representation the checker lowers
// source expressions to (spec.md §3.3): every node carries the Type
// the checker assigned it, so a later pass (internal/bytecode's
// Assembler) never needs to re-run inference.
type Tc interface {
	isTc()
	// TcType is the type the checker assigned this node.
	TcType() Type
	Span() lexer.Span
}

type base struct {
	typ  Type
	span lexer.Span
}

func (b base) TcType() Type      { return b.typ }
func (b base) Span() lexer.Span  { return b.span }

// TypeValueTc is a value-level reference to a type itself (spec.md
// §3.3, the `@<T>` literal lowered).
type TypeValueTc struct {
	base
	Value Type
}

func (*TypeValueTc) isTc() {}

// NewTypeValueTc builds a TypeValueTc whose TcType is TypeOf(value).
func NewTypeValueTc(value Type, span lexer.Span) *TypeValueTc {
	return &TypeValueTc{base: base{typ: &TypeOf{Inner: value}, span: span}, Value: value}
}

// VarTc is a reference to a bound variable, resolved to its De
// Bruijn-free scope slot by the checker (internal/ftype/scope.go).
type VarTc struct {
	base
	Name  string
	Index int
}

func (*VarTc) isTc() {}

func NewVarTc(name string, index int, typ Type, span lexer.Span) *VarTc {
	return &VarTc{base: base{typ: typ, span: span}, Name: name, Index: index}
}

// LetBindingTc is one binding of a LetTc: either a value, a forward
// type reference being closed (Var), or both in the type-and-value
// mutual-recursion case.
type LetBindingTc struct {
	Name  string
	Value Tc
}

// LetTc lowers a `let` expression: simultaneous bindings (each may
// refer to any other via the Var nodes the checker pre-allocated),
// followed by a body evaluated in the extended scope.
type LetTc struct {
	base
	Bindings []LetBindingTc
	Body     Tc
}

func (*LetTc) isTc() {}

func NewLetTc(bindings []LetBindingTc, body Tc, span lexer.Span) *LetTc {
	return &LetTc{base: base{typ: body.TcType(), span: span}, Bindings: bindings, Body: body}
}

// StructValueTc constructs a struct value of the given Data type from
// field expressions in declared order.
type StructValueTc struct {
	base
	Fields []Tc
}

func (*StructValueTc) isTc() {}

func NewStructValueTc(typ *Data, fields []Tc, span lexer.Span) *StructValueTc {
	return &StructValueTc{base: base{typ: typ, span: span}, Fields: fields}
}

// UnionValueTc constructs a union value of the given Data type with
// the given tag index and payload expression.
type UnionValueTc struct {
	base
	TagIndex int
	Arg      Tc
}

func (*UnionValueTc) isTc() {}

func NewUnionValueTc(typ *Data, tagIndex int, arg Tc, span lexer.Span) *UnionValueTc {
	return &UnionValueTc{base: base{typ: typ, span: span}, TagIndex: tagIndex, Arg: arg}
}

// DataAccessTc reads a struct field or a union's current payload by
// field index, aborting at runtime if Obj is a union and FieldIndex
// doesn't match its tag (spec.md §9).
type DataAccessTc struct {
	base
	Obj        Tc
	FieldIndex int
	FieldName  string
}

func (*DataAccessTc) isTc() {}

func NewDataAccessTc(obj Tc, fieldIndex int, fieldName string, typ Type, span lexer.Span) *DataAccessTc {
	return &DataAccessTc{base: base{typ: typ, span: span}, Obj: obj, FieldIndex: fieldIndex, FieldName: fieldName}
}

// UnionSelectTc dispatches on a union value's tag, one branch per
// tag in declaration order, plus an optional default Tc used for any
// tag with no explicit branch.
type UnionSelectTc struct {
	base
	Cond     Tc
	Branches []Tc // len == number of union tags; nil entry means "use Default"
	Default  Tc
}

func (*UnionSelectTc) isTc() {}

func NewUnionSelectTc(cond Tc, branches []Tc, def Tc, typ Type, span lexer.Span) *UnionSelectTc {
	return &UnionSelectTc{base: base{typ: typ, span: span}, Cond: cond, Branches: branches, Default: def}
}

// FuncValueTc lowers a function literal: argument types are carried
// on the Func type, Body is checked in a scope extended by one slot
// per argument.
type FuncValueTc struct {
	base
	ArgNames []string
	Body     Tc
}

func (*FuncValueTc) isTc() {}

func NewFuncValueTc(argNames []string, body Tc, typ *Func, span lexer.Span) *FuncValueTc {
	return &FuncValueTc{base: base{typ: typ, span: span}, ArgNames: argNames, Body: body}
}

// FuncApplyTc lowers a function application.
type FuncApplyTc struct {
	base
	Func Tc
	Args []Tc
}

func (*FuncApplyTc) isTc() {}

func NewFuncApplyTc(fn Tc, args []Tc, typ Type, span lexer.Span) *FuncApplyTc {
	return &FuncApplyTc{base: base{typ: typ, span: span}, Func: fn, Args: args}
}

// EvalTc lowers `$(e)`: run a process computed by e to completion and
// yield its result (spec.md §3.3).
type EvalTc struct {
	base
	Proc Tc
}

func (*EvalTc) isTc() {}

func NewEvalTc(proc Tc, typ Type, span lexer.Span) *EvalTc {
	return &EvalTc{base: base{typ: typ, span: span}, Proc: proc}
}

// LinkTc lowers `link T <~ get, put; body`: allocates a FIFO (spec.md
// §4.5) and binds get/put ports in Body's scope.
type LinkTc struct {
	base
	Elem    Type
	GetName string
	PutName string
	Body    Tc
}

func (*LinkTc) isTc() {}

func NewLinkTc(elem Type, getName, putName string, body Tc, span lexer.Span) *LinkTc {
	return &LinkTc{base: base{typ: body.TcType(), span: span}, Elem: elem, GetName: getName, PutName: putName, Body: body}
}

// ExecBindingTc is one binding of an ExecTc: a named process run
// concurrently with its siblings (spec.md §4.6's Fork semantics).
type ExecBindingTc struct {
	Name string
	Proc Tc
}

// ExecTc lowers `exec T1 n1 := p1, ...; body`: forks one thread per
// binding, joins all of them, then evaluates Body.
type ExecTc struct {
	base
	Bindings []ExecBindingTc
	Body     Tc
}

func (*ExecTc) isTc() {}

func NewExecTc(bindings []ExecBindingTc, body Tc, span lexer.Span) *ExecTc {
	return &ExecTc{base: base{typ: body.TcType(), span: span}, Bindings: bindings, Body: body}
}

// PolyValueTc lowers `<@T>{ body }`.
type PolyValueTc struct {
	base
	Body Tc
}

func (*PolyValueTc) isTc() {}

func NewPolyValueTc(body Tc, typ Type, span lexer.Span) *PolyValueTc {
	return &PolyValueTc{base: base{typ: typ, span: span}, Body: body}
}

// PolyApplyTc lowers `poly<Arg>`.
type PolyApplyTc struct {
	base
	Poly Tc
	Arg  Type
}

func (*PolyApplyTc) isTc() {}

func NewPolyApplyTc(poly Tc, arg Type, typ Type, span lexer.Span) *PolyApplyTc {
	return &PolyApplyTc{base: base{typ: typ, span: span}, Poly: poly, Arg: arg}
}
