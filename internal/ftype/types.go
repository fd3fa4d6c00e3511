// Package ftype implements the type algebra of spec.md §3.2 (replacing
// the teacher's internal/types package, whose tagged-interface Type
// shape — String()/marker-method, internal/types/types.go — is kept
// but whose variant set is entirely new) and the bidirectional
// checker of spec.md §4.2 that lowers source expressions to Tc
// (spec.md §3.3).
package ftype

import (
	"fmt"
	"strings"

	"github.com/malphas-lang/fble/internal/kind"
)

// Type is the closed sum of type variants (spec.md §3.2). Every Type
// is GC-managed by an internal/typeheap.Heap; this package only
// describes shape and equality, not lifecycle.
type Type interface {
	fmt.Stringer
	isType()
	// Kind returns this type's kind (spec.md §3.1: "level(poly) =
	// level(result)").
	Kind() kind.Kind
}

// DataTag distinguishes a struct (product) from a union (sum).
type DataTag int

const (
	StructTag DataTag = iota
	UnionTag
)

func (d DataTag) String() string {
	if d == UnionTag {
		return "union"
	}
	return "struct"
}

// Field is one named, typed field of a Data type, in declared order.
type Field struct {
	Name string
	Type Type
}

// Data is a struct or union type: an ordered list of named fields
// (spec.md §3.2). Field names within one Data type are distinct — an
// invariant enforced by the checker and re-checked by WellFormed.
type Data struct {
	Tag    DataTag
	Fields []Field
}

func (*Data) isType()          {}
func (*Data) Kind() kind.Kind  { return kind.Type }
func (d *Data) String() string {
	open, sep := "*(", ", "
	if d.Tag == UnionTag {
		open = "+("
	}
	parts := make([]string, len(d.Fields))
	for i, f := range d.Fields {
		parts[i] = f.Type.String() + " " + f.Name
	}
	return open + strings.Join(parts, sep) + ")"
}

// FieldIndex returns the index of name within the data type's fields,
// or -1 if absent.
func (d *Data) FieldIndex(name string) int {
	for i, f := range d.Fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}

// Func is an ordinary function type: arguments to a return type.
type Func struct {
	Args   []Type
	Return Type
}

func (*Func) isType()         {}
func (*Func) Kind() kind.Kind { return kind.Type }
func (f *Func) String() string {
	parts := make([]string, len(f.Args))
	for i, a := range f.Args {
		parts[i] = a.String()
	}
	return "(" + strings.Join(parts, ", ") + "){" + f.Return.String() + "}"
}

// Proc is `T!`, the type of a process yielding T.
type Proc struct {
	Elem Type
}

func (*Proc) isType()          {}
func (*Proc) Kind() kind.Kind  { return kind.Type }
func (p *Proc) String() string { return p.Elem.String() + "!" }

// Var is a type variable: either a poly binder or a forward reference
// closed later by the checker's Let-recursion rule (spec.md §3.2,
// §4.2). Identity (pointer equality), not structure, is what "closes a
// cycle" — two distinct *Var allocations are never the same variable
// even with identical Name/VKind. A Var with Value == nil is free;
// otherwise Value is its definition.
type Var struct {
	VKind    kind.Kind
	Name     string
	Value    Type // nil until bound; set once by the checker's Let rule
	Abstract bool // true for an as-yet-undefined forward reference
}

func (*Var) isType()         {}
func (v *Var) Kind() kind.Kind { return v.VKind }
func (v *Var) String() string  { return v.Name }

// Poly is `∀α. Body`, a type abstraction. Invariant (spec.md §3.2):
// a Poly's Body is never a TypeOf — `∀α. @<B>` is represented as
// `@< ∀α. B >` instead; NewPoly enforces this at construction.
type Poly struct {
	Binder *Var
	Body   Type
}

func (*Poly) isType() {}
func (p *Poly) Kind() kind.Kind {
	return &kind.Poly{Arg: p.Binder.VKind, Result: p.Body.Kind()}
}
func (p *Poly) String() string {
	return fmt.Sprintf("<@%s>{%s}", p.Binder.Name, p.Body.String())
}

// NewPoly constructs a Poly, pushing a TypeOf body out to the
// outside per the invariant above.
func NewPoly(binder *Var, body Type) Type {
	if to, ok := body.(*TypeOf); ok {
		return &TypeOf{Inner: NewPoly(binder, to.Inner)}
	}
	return &Poly{Binder: binder, Body: body}
}

// PolyApply is `Poly<Arg>`. Invariant: a PolyApply's poly is never a
// TypeOf; NewPolyApply enforces the analogous normalisation.
type PolyApply struct {
	Poly Type
	Arg  Type
}

func (*PolyApply) isType() {}
func (pa *PolyApply) Kind() kind.Kind {
	if p, ok := pa.Poly.(*Poly); ok {
		return p.Body.Kind()
	}
	if pk, ok := pa.Poly.Kind().(*kind.Poly); ok {
		return pk.Result
	}
	return kind.Value
}
func (pa *PolyApply) String() string { return pa.Poly.String() + "<" + pa.Arg.String() + ">" }

// NewPolyApply constructs a PolyApply, pushing a TypeOf poly out.
func NewPolyApply(poly, arg Type) Type {
	if to, ok := poly.(*TypeOf); ok {
		return &TypeOf{Inner: NewPolyApply(to.Inner, arg)}
	}
	return &PolyApply{Poly: poly, Arg: arg}
}

// TypeOf is `@<T>`, the type of a type: one level up from Inner.
type TypeOf struct {
	Inner Type
}

func (*TypeOf) isType()         {}
func (t *TypeOf) Kind() kind.Kind { return kind.Adjust(t.Inner.Kind(), 1) }
func (t *TypeOf) String() string  { return "@<" + t.Inner.String() + ">" }

// Package is a module-scoped opacity marker (spec.md §3.2: "may be
// absent in earlier generations"). Implemented but not enforced by the
// checker — there is no loader in scope to define module boundaries
// against (DESIGN.md's Open Question resolution).
type Package struct {
	Path    string
	Payload Type
}

func (*Package) isType()          {}
func (p *Package) Kind() kind.Kind { return p.Payload.Kind() }
func (p *Package) String() string  { return p.Path + "#" + p.Payload.String() }
