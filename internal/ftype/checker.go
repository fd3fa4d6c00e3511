package ftype

import (
	"github.com/malphas-lang/fble/internal/ast"
	"github.com/malphas-lang/fble/internal/diag"
	"github.com/malphas-lang/fble/internal/kind"
	"github.com/malphas-lang/fble/internal/lexer"
	"github.com/malphas-lang/fble/internal/typeheap"
)

// Checker lowers ast expressions to Tc, implementing the bidirectional
// rules of spec.md §4.2. It never panics on malformed input: every
// failure is reported to sink and a best-effort Tc (typically typed
// as an opaque error sentinel) is returned so checking can continue
// and accumulate further diagnostics, matching the teacher's
// accumulate-don't-stop-at-first-error posture (internal/diag).
//
// Every composite Type it builds (spec.md §3.2: "types are allocated
// by the type heap during type-checking") is also allocated into heap,
// so the same tracing generational collector that will later manage
// these objects at steady state is already exercised while they're
// produced. objects maps a live Type back to its heap Object so a
// later construction that embeds an earlier one can record the AddRef
// edge the cycle collector traces.
type Checker struct {
	sink    *diag.Sink
	heap    *typeheap.Heap
	objects map[Type]*typeheap.Object
}

// NewChecker constructs a Checker reporting into sink, with its own
// private type heap.
func NewChecker(sink *diag.Sink) *Checker {
	return &Checker{sink: sink, heap: typeheap.New(), objects: map[Type]*typeheap.Object{}}
}

// track allocates t into the checker's type heap and records it as the
// retained owner of each of parts (its immediate component types, if
// any are themselves heap-tracked) via AddRef. Scope-local type
// bindings (Let's `X@ = ...` and poly binders) additionally get
// released when their binding scope closes, via release; every other
// composite stays rooted for the lifetime of the Checker, matching
// spec.md §3.2's "retained for the life of the compiled module".
func (c *Checker) track(t Type, parts ...Type) Type {
	obj := c.heap.Allocate(t)
	c.heap.Retain(obj)
	c.objects[t] = obj
	for _, p := range parts {
		if po, ok := c.objects[p]; ok {
			c.heap.AddRef(obj, po)
		}
	}
	return t
}

// release drops the checker's own retain on a scope-local type
// binding once its enclosing scope closes (spec.md §3.2's
// retain/release discipline). A binding that is still reachable via
// an AddRef edge recorded from another live root survives release —
// exactly the case the tracing collector, not the refcount, is
// responsible for.
func (c *Checker) release(t Type) {
	if obj, ok := c.objects[t]; ok {
		c.heap.Release(obj)
	}
}

func toDiagSpan(s lexer.Span) diag.Span {
	return diag.Span{Filename: s.Filename, Line: s.Line, Column: s.Column}
}

// errType is returned in place of a real Type once an error has been
// reported, so downstream Equal checks don't cascade duplicate
// diagnostics for the same root cause.
var errType Type = &Data{Tag: StructTag}

func isErrType(t Type) bool { return t == errType }

// resolve unfolds Var indirections so callers can type-switch on the
// underlying shape. A bound type name like `Bit@` always elaborates to
// a *Var wrapping its definition (so recursive types can close their
// own cycle, spec.md §3.2) — every place the checker needs to know
// "is this a struct/union/func/proc/poly" must resolve first.
func resolve(t Type) Type {
	for {
		v, ok := t.(*Var)
		if !ok || v.Value == nil {
			return t
		}
		t = v.Value
	}
}

// Check elaborates the top-level expression of a program or module
// body in the given (normally empty) root scope.
func (c *Checker) Check(scope *Scope, e ast.Expr) Tc {
	return c.checkExpr(scope, e)
}

// CheckType elaborates a type expression into a concrete Type,
// resolving TypeRef names against scope's type-level bindings. A
// TypeRef reached directly (scope not already shadowed) is a genuine
// use of the binding — a struct- or union-value construction, a
// let-bound type's own definition, a poly instantiation argument, an
// explicit `@<...>` reification. Function argument, link element and
// exec binding annotations are checked by their callers through a
// shadow scope, so they count as Accessed only. A TypeRef reached while elaborating one of
// CheckType's own sub-components (a composite type's declared
// field/arg/return/elem/body shape) runs under a shadow scope instead
// (spec.md §4.2): naming a type there registers as Accessed, not
// Used, so a binding that is only ever mentioned in another type's
// shape — never itself built or pattern-matched as a value — still
// surfaces as unused.
func (c *Checker) CheckType(scope *Scope, te ast.TypeExpr) Type {
	switch te := te.(type) {
	case *ast.TypeRef:
		sym, ok := scope.Lookup(te.Name)
		if !ok || !sym.IsType {
			c.sink.Errorf(diag.StageChecker, diag.CodeUndefinedVariable, toDiagSpan(te.Span()),
				"undefined type %q", te.Name)
			return errType
		}
		return sym.TypeVar

	case *ast.DataTypeExpr:
		tag := StructTag
		if te.IsUnion {
			tag = UnionTag
		}
		fields := make([]Field, len(te.Fields))
		seen := map[string]bool{}
		for i, f := range te.Fields {
			if seen[f.Name] {
				c.sink.Errorf(diag.StageChecker, diag.CodeDuplicateName, toDiagSpan(te.Span()),
					"duplicate field name %q", f.Name)
			}
			seen[f.Name] = true
			fields[i] = Field{Name: f.Name, Type: c.CheckType(scope.Shadow(), f.Type)}
		}
		d := &Data{Tag: tag, Fields: fields}
		parts := make([]Type, len(fields))
		for i, f := range fields {
			parts[i] = f.Type
		}
		return c.track(d, parts...)

	case *ast.FuncTypeExpr:
		args := make([]Type, len(te.Args))
		for i, a := range te.Args {
			args[i] = c.CheckType(scope.Shadow(), a)
		}
		ret := c.CheckType(scope.Shadow(), te.Return)
		ft := &Func{Args: args, Return: ret}
		return c.track(ft, append(append([]Type{}, args...), ret)...)

	case *ast.ProcTypeExpr:
		elem := c.CheckType(scope.Shadow(), te.Elem)
		return c.track(&Proc{Elem: elem}, elem)

	case *ast.PolyTypeExpr:
		v := &Var{VKind: kind.Type, Name: te.Var}
		c.track(v)
		inner := scope.Push(false)
		inner.BindType(te.Var, v)
		body := c.CheckType(inner.Shadow(), te.Body)
		poly := NewPoly(v, body)
		return c.track(poly, v, body)

	case *ast.PolyApplyTypeExpr:
		poly := c.CheckType(scope.Shadow(), te.Poly)
		arg := c.CheckType(scope.Shadow(), te.Arg)
		return c.track(NewPolyApply(poly, arg), poly, arg)

	case *ast.TypeOfTypeExpr:
		inner := c.CheckType(scope.Shadow(), te.Inner)
		return c.track(&TypeOf{Inner: inner}, inner)

	default:
		c.sink.Errorf(diag.StageChecker, diag.CodeUndefinedVariable, toDiagSpan(te.Span()),
			"unrecognised type expression")
		return errType
	}
}

// checkExprForType checks e — an ordinary value expression, not a type
// expression — against an expected type, reporting a TYPE_MISMATCH
// diagnostic and substituting errType when it disagrees with the
// inferred type, per spec.md §4.2's "checking mode falls back to
// inference, then compares". Unlike CheckType's TypeRef lookup, this
// does not run under a shadow scope: e is genuinely consumed as a
// value here (a struct field, a function argument, a proc binding),
// so its variable references must count as real uses, not merely
// accesses, for the unused-binding warning (see Scope.Shadow).
func (c *Checker) checkExprForType(scope *Scope, e ast.Expr, expected Type) Tc {
	tc := c.checkExpr(scope, e)
	if isErrType(tc.TcType()) || isErrType(expected) {
		return tc
	}
	if !Equal(tc.TcType(), expected) {
		c.sink.Errorf(diag.StageChecker, diag.CodeTypeMismatch, toDiagSpan(e.Span()),
			"expected type %s, got %s", expected, tc.TcType())
	}
	return tc
}
