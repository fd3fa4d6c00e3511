// Package kind implements the kind algebra of spec.md §3.1: the
// classification of types by arity and level. A kind is either basic
// (level n, n=0 meaning "a value's type", n=1 meaning "a type", and so
// on) or a poly kind (a type constructor's arity: argument kind to
// result kind).
package kind

import "fmt"

// Kind is the closed sum of kind variants. Like the teacher's Kind
// interface, it is a small marker-method tagged union rather than a
// class hierarchy.
type Kind interface {
	fmt.Stringer
	isKind()
	// Level returns the basic level this kind classifies values at.
	// level(poly) = level(result), per spec.md §3.1.
	Level() int
}

// Basic is the kind of an ordinary type at the given level.
// Level 0 classifies values, level 1 classifies types, level 2
// classifies types of types, and so on.
type Basic struct {
	N int // the level
}

func (b *Basic) isKind() {}
func (b *Basic) String() string {
	return fmt.Sprintf("@%d", b.N)
}
func (b *Basic) Level() int { return b.N }

// Poly is the kind of a polymorphic type constructor: it takes an
// argument of kind Arg and produces a result of kind Result.
type Poly struct {
	Arg    Kind
	Result Kind
}

func (p *Poly) isKind() {}
func (p *Poly) String() string {
	return fmt.Sprintf("(%s){%s}", p.Arg.String(), p.Result.String())
}
func (p *Poly) Level() int { return p.Result.Level() }

// Well-known basic kinds, analogous to the teacher's KindStar/KindUnary
// singletons in internal/types/kind.go.
var (
	Value   = &Basic{N: 0} // %-space: ordinary values
	Type    = &Basic{N: 1} // @-space: types
	TypeOfT = &Basic{N: 2} // @-space: types of types
)

// Equal reports structural, reference-counting-free kind equality.
// Reflexive, symmetric, transitive by construction (spec.md §8).
func Equal(a, b Kind) bool {
	switch a := a.(type) {
	case *Basic:
		bb, ok := b.(*Basic)
		return ok && a.N == bb.N
	case *Poly:
		bp, ok := b.(*Poly)
		return ok && Equal(a.Arg, bp.Arg) && Equal(a.Result, bp.Result)
	default:
		return false
	}
}

// Adjust returns a kind with every Basic level shifted by delta,
// leaving Poly structure untouched. spec.md §3.1: "a level-adjusted
// kind adds an integer to every basic kind's level." Composes:
// Adjust(Adjust(k, m), n) == Adjust(k, m+n) (spec.md §8).
func Adjust(k Kind, delta int) Kind {
	if delta == 0 {
		return k
	}
	switch k := k.(type) {
	case *Basic:
		return &Basic{N: k.N + delta}
	case *Poly:
		return &Poly{Arg: Adjust(k.Arg, delta), Result: Adjust(k.Result, delta)}
	default:
		return k
	}
}

// Namespace identifies which lexical namespace ("%"-space for values,
// "@"-space for types and above) a name with the given kind occupies,
// per spec.md §4.2's Var rule.
type Namespace int

const (
	ValueNamespace Namespace = iota
	TypeNamespace
)

// NamespaceOf returns the namespace a binding of kind k belongs to.
func NamespaceOf(k Kind) Namespace {
	if k.Level() == 0 {
		return ValueNamespace
	}
	return TypeNamespace
}
