// Package ast is the untyped expression tree the (out-of-scope, per
// spec.md §1) parser hands to the type checker, generalized from the
// teacher's internal/ast package (Node/Expr/Span shape) to fble's
// expression forms: struct/union values, field access, union select,
// let, func value/apply, link, exec, poly value/apply, and type
// expressions (spec.md §3.2/§3.3, §6).
package ast

import "github.com/malphas-lang/fble/internal/lexer"

// Node is any AST node carrying a source span, per spec.md §6 ("the
// core expects every AST node to carry a Loc").
type Node interface {
	Span() lexer.Span
}

// TypeExpr is a type-level expression: a reference to a type name, a
// struct/union/func/proc/poly type literal, or a poly-apply.
type TypeExpr interface {
	Node
	typeExprNode()
}

// Expr is a value-level expression.
type Expr interface {
	Node
	exprNode()
}

type base struct{ span lexer.Span }

func (b base) Span() lexer.Span { return b.span }

// ---- type expressions ----

// TypeRef names a previously bound type (including a type variable).
type TypeRef struct {
	base
	Name string
}

func NewTypeRef(name string, span lexer.Span) *TypeRef { return &TypeRef{base{span}, name} }
func (*TypeRef) typeExprNode()                         {}

// DataField is one named, typed field of a struct or union type
// literal, in declared order (spec.md §3.2: "ordered list of (name,
// type) fields").
type DataField struct {
	Name string
	Type TypeExpr
}

// DataTypeExpr is a struct or union type literal.
type DataTypeExpr struct {
	base
	IsUnion bool
	Fields  []DataField
}

func NewDataTypeExpr(isUnion bool, fields []DataField, span lexer.Span) *DataTypeExpr {
	return &DataTypeExpr{base{span}, isUnion, fields}
}
func (*DataTypeExpr) typeExprNode() {}

// FuncTypeExpr is a function type literal `(T1, T2){R}`.
type FuncTypeExpr struct {
	base
	Args   []TypeExpr
	Return TypeExpr
}

func NewFuncTypeExpr(args []TypeExpr, ret TypeExpr, span lexer.Span) *FuncTypeExpr {
	return &FuncTypeExpr{base{span}, args, ret}
}
func (*FuncTypeExpr) typeExprNode() {}

// ProcTypeExpr is `T!`, the type of a process yielding T.
type ProcTypeExpr struct {
	base
	Elem TypeExpr
}

func NewProcTypeExpr(elem TypeExpr, span lexer.Span) *ProcTypeExpr { return &ProcTypeExpr{base{span}, elem} }
func (*ProcTypeExpr) typeExprNode()                                {}

// PolyTypeExpr is `<@Var>{Body}`, a poly type (forall).
type PolyTypeExpr struct {
	base
	Var  string
	Body TypeExpr
}

func NewPolyTypeExpr(v string, body TypeExpr, span lexer.Span) *PolyTypeExpr {
	return &PolyTypeExpr{base{span}, v, body}
}
func (*PolyTypeExpr) typeExprNode() {}

// PolyApplyTypeExpr is `Poly<Arg>`.
type PolyApplyTypeExpr struct {
	base
	Poly TypeExpr
	Arg  TypeExpr
}

func NewPolyApplyTypeExpr(poly, arg TypeExpr, span lexer.Span) *PolyApplyTypeExpr {
	return &PolyApplyTypeExpr{base{span}, poly, arg}
}
func (*PolyApplyTypeExpr) typeExprNode() {}

// TypeOfTypeExpr is `@<T>`, the type of a type.
type TypeOfTypeExpr struct {
	base
	Inner TypeExpr
}

func NewTypeOfTypeExpr(inner TypeExpr, span lexer.Span) *TypeOfTypeExpr {
	return &TypeOfTypeExpr{base{span}, inner}
}
func (*TypeOfTypeExpr) typeExprNode() {}

// ---- value expressions ----

// VarExpr references a previously bound name (value or type).
type VarExpr struct {
	base
	Name string
}

func NewVarExpr(name string, span lexer.Span) *VarExpr { return &VarExpr{base{span}, name} }
func (*VarExpr) exprNode()                             {}

// StructValueExpr builds a struct value, either against an explicit
// type (Type != nil) or with the type synthesised from the field
// expressions (spec.md §4.2's "Struct-value (implicit type)" rule).
type StructValueExpr struct {
	base
	Type   TypeExpr // nil for implicit-type struct values
	Fields []Expr   // positional, matching the (possibly synthesised) field order
}

func NewStructValueExpr(typ TypeExpr, fields []Expr, span lexer.Span) *StructValueExpr {
	return &StructValueExpr{base{span}, typ, fields}
}
func (*StructValueExpr) exprNode() {}

// UnionValueExpr builds a union value `Type:tag(arg)`.
type UnionValueExpr struct {
	base
	Type TypeExpr
	Tag  string
	Arg  Expr
}

func NewUnionValueExpr(typ TypeExpr, tag string, arg Expr, span lexer.Span) *UnionValueExpr {
	return &UnionValueExpr{base{span}, typ, tag, arg}
}
func (*UnionValueExpr) exprNode() {}

// AccessExpr is `obj.field`, projecting a struct field or (together
// with UnionSelectExpr) checking/reading a union's payload.
type AccessExpr struct {
	base
	Obj   Expr
	Field string
}

func NewAccessExpr(obj Expr, field string, span lexer.Span) *AccessExpr {
	return &AccessExpr{base{span}, obj, field}
}
func (*AccessExpr) exprNode() {}

// SelectBranch is one `tag: expr` arm of a union select, or the
// `: default` fallback when Tag == "".
type SelectBranch struct {
	Tag  string // "" marks the default branch
	Expr Expr
}

// SelectExpr is `?(cond; tag1: e1, tag2: e2, : default)`, dispatching
// on a union's tag (spec.md §3.3's UnionSelect).
type SelectExpr struct {
	base
	Cond     Expr
	Branches []SelectBranch
}

func NewSelectExpr(cond Expr, branches []SelectBranch, span lexer.Span) *SelectExpr {
	return &SelectExpr{base{span}, cond, branches}
}
func (*SelectExpr) exprNode() {}

// Binding is one `name = expr` clause of a let, optionally with an
// explicit type annotation (`T@ name = expr` at the type level, or
// `T name = expr` at the value level).
type Binding struct {
	Name string
	Type TypeExpr // nil when the type is to be inferred
	IsType bool   // true for `@`-space (type) bindings
	Value  Expr
}

// LetExpr is `let b1, b2, ...; body`. Recursiveness is determined by
// the checker (spec.md §4.2: "true iff any binding's Var was used
// during checking of the bindings"), not declared by the syntax.
type LetExpr struct {
	base
	Bindings []Binding
	Body     Expr
}

func NewLetExpr(bindings []Binding, body Expr, span lexer.Span) *LetExpr {
	return &LetExpr{base{span}, bindings, body}
}
func (*LetExpr) exprNode() {}

// FuncValueExpr is `(T1 a, T2 b) { body }`.
type FuncValueExpr struct {
	base
	ArgNames []string
	ArgTypes []TypeExpr
	Body     Expr
}

func NewFuncValueExpr(names []string, types []TypeExpr, body Expr, span lexer.Span) *FuncValueExpr {
	return &FuncValueExpr{base{span}, names, types, body}
}
func (*FuncValueExpr) exprNode() {}

// ApplyExpr is `f(a, b)`.
type ApplyExpr struct {
	base
	Func Expr
	Args []Expr
}

func NewApplyExpr(fn Expr, args []Expr, span lexer.Span) *ApplyExpr {
	return &ApplyExpr{base{span}, fn, args}
}
func (*ApplyExpr) exprNode() {}

// EvalExpr is `$(e)`, lifting a pure value into a trivial process.
type EvalExpr struct {
	base
	Inner Expr
}

func NewEvalExpr(inner Expr, span lexer.Span) *EvalExpr { return &EvalExpr{base{span}, inner} }
func (*EvalExpr) exprNode()                             {}

// LinkExpr is `T <~ get, put; body`.
type LinkExpr struct {
	base
	Elem    TypeExpr
	GetName string
	PutName string
	Body    Expr
}

func NewLinkExpr(elem TypeExpr, get, put string, body Expr, span lexer.Span) *LinkExpr {
	return &LinkExpr{base{span}, elem, get, put, body}
}
func (*LinkExpr) exprNode() {}

// ExecBinding is one `T name := proc` clause of an exec block.
type ExecBinding struct {
	Name string
	Type TypeExpr
	Proc Expr
}

// ExecExpr is `T1 n1 := p1, T2 n2 := p2, ...; body`, running each
// process binding concurrently and unpacking the results into body's
// scope (spec.md §4.2).
type ExecExpr struct {
	base
	Bindings []ExecBinding
	Body     Expr
}

func NewExecExpr(bindings []ExecBinding, body Expr, span lexer.Span) *ExecExpr {
	return &ExecExpr{base{span}, bindings, body}
}
func (*ExecExpr) exprNode() {}

// PolyValueExpr is `<@Var>{ body }`.
type PolyValueExpr struct {
	base
	Var  string
	Body Expr
}

func NewPolyValueExpr(v string, body Expr, span lexer.Span) *PolyValueExpr {
	return &PolyValueExpr{base{span}, v, body}
}
func (*PolyValueExpr) exprNode() {}

// PolyApplyExpr is `F<A>`.
type PolyApplyExpr struct {
	base
	Poly Expr
	Arg  TypeExpr
}

func NewPolyApplyExpr(poly Expr, arg TypeExpr, span lexer.Span) *PolyApplyExpr {
	return &PolyApplyExpr{base{span}, poly, arg}
}
func (*PolyApplyExpr) exprNode() {}

// TypeValueExpr reifies a type expression as a runtime placeholder
// value (spec.md §3.3's Tc.TypeValue), written `@<TypeExpr>` in value
// position.
type TypeValueExpr struct {
	base
	Type TypeExpr
}

func NewTypeValueExpr(t TypeExpr, span lexer.Span) *TypeValueExpr { return &TypeValueExpr{base{span}, t} }
func (*TypeValueExpr) exprNode()                                  {}
