package ftype

import (
	"strings"

	"github.com/malphas-lang/fble/internal/ast"
	"github.com/malphas-lang/fble/internal/diag"
	"github.com/malphas-lang/fble/internal/kind"
	"github.com/malphas-lang/fble/internal/lexer"
)

func errTcAt(span lexer.Span) Tc {
	return NewVarTc("<error>", -1, errType, span)
}

// checkExpr infers e's type and lowers it to Tc, dispatching on ast
// node kind per spec.md §4.2.
func (c *Checker) checkExpr(scope *Scope, e ast.Expr) Tc {
	switch e := e.(type) {
	case *ast.VarExpr:
		return c.checkVar(scope, e)
	case *ast.StructValueExpr:
		return c.checkStructValueExplicit(scope, e)
	case *ast.UnionValueExpr:
		return c.checkUnionValue(scope, e)
	case *ast.AccessExpr:
		return c.checkAccess(scope, e)
	case *ast.SelectExpr:
		return c.checkSelect(scope, e)
	case *ast.LetExpr:
		return c.checkLet(scope, e)
	case *ast.FuncValueExpr:
		return c.checkFuncValue(scope, e)
	case *ast.ApplyExpr:
		return c.checkApply(scope, e)
	case *ast.EvalExpr:
		return c.checkEval(scope, e)
	case *ast.LinkExpr:
		return c.checkLink(scope, e)
	case *ast.ExecExpr:
		return c.checkExec(scope, e)
	case *ast.PolyValueExpr:
		return c.checkPolyValue(scope, e)
	case *ast.PolyApplyExpr:
		return c.checkPolyApply(scope, e)
	case *ast.TypeValueExpr:
		v := c.CheckType(scope, e.Type)
		return NewTypeValueTc(v, e.Span())
	default:
		c.sink.Errorf(diag.StageChecker, diag.CodeUndefinedVariable, toDiagSpan(e.Span()), "unrecognised expression")
		return errTcAt(e.Span())
	}
}

// nameNamespace classifies a bound name into fble's two kind-level
// namespaces (spec.md §4.2): names bound at the type level (`Foo@ =
// ...` bindings, poly binders) are capitalized by every convention the
// fixtures use, so an uppercase first letter means TypeNamespace and
// anything else means ValueNamespace.
func nameNamespace(name string) kind.Namespace {
	if name != "" && name[0] >= 'A' && name[0] <= 'Z' {
		return kind.TypeNamespace
	}
	return kind.ValueNamespace
}

func namespaceLabel(ns kind.Namespace) string {
	if ns == kind.TypeNamespace {
		return "@-space (type level)"
	}
	return "%-space (value level)"
}

func (c *Checker) checkVar(scope *Scope, e *ast.VarExpr) Tc {
	sym, ok := scope.Lookup(e.Name)
	if !ok {
		c.sink.Errorf(diag.StageChecker, diag.CodeUndefinedVariable, toDiagSpan(e.Span()), "undefined variable %q", e.Name)
		return errTcAt(e.Span())
	}

	// A binding's own namespace is determined by the kind level it was
	// bound at (spec.md §4.2's Var rule): an ordinary value binding is
	// always level 0 (%-space); a type-level binding (BindType) sits at
	// whatever level its TypeVar's kind reports, always ≥1 (@-space).
	actual := kind.ValueNamespace
	if sym.IsType {
		actual = kind.NamespaceOf(sym.TypeVar.VKind)
	}
	if want := nameNamespace(e.Name); want != actual {
		c.sink.Errorf(diag.StageChecker, diag.CodeKindNamespaceMismatch, toDiagSpan(e.Span()),
			"%q is bound in %s but referenced as if it were %s", e.Name, namespaceLabel(actual), namespaceLabel(want))
		return errTcAt(e.Span())
	}
	if sym.IsType {
		c.sink.Errorf(diag.StageChecker, diag.CodeUndefinedVariable, toDiagSpan(e.Span()), "%q is a type, not a value", e.Name)
		return errTcAt(e.Span())
	}
	return NewVarTc(e.Name, sym.Index, sym.Type, e.Span())
}

// checkStructValueExplicit handles the rarely-parsed explicit-type
// form; the common path `Type(a, b)` arrives as an ApplyExpr and is
// routed through checkApply instead (spec.md §4.2's struct-value
// rule is the same either way).
func (c *Checker) checkStructValueExplicit(scope *Scope, e *ast.StructValueExpr) Tc {
	var typ Type = errType
	if e.Type != nil {
		typ = c.CheckType(scope, e.Type)
	}
	return c.buildStructValue(scope, typ, e.Fields, e.Span())
}

func (c *Checker) buildStructValue(scope *Scope, typ Type, fieldExprs []ast.Expr, span lexer.Span) Tc {
	if isErrType(typ) {
		return errTcAt(span)
	}
	d, ok := resolve(typ).(*Data)
	if !ok || d.Tag != StructTag {
		c.sink.Errorf(diag.StageChecker, diag.CodeTypeMismatch, toDiagSpan(span), "not a struct type: %s", typ)
		return errTcAt(span)
	}
	if len(fieldExprs) != len(d.Fields) {
		c.sink.Errorf(diag.StageChecker, diag.CodeWrongArity, toDiagSpan(span),
			"struct %s expects %d fields, got %d", d, len(d.Fields), len(fieldExprs))
		return errTcAt(span)
	}
	fields := make([]Tc, len(fieldExprs))
	for i, fe := range fieldExprs {
		fields[i] = c.checkExprForType(scope, fe, d.Fields[i].Type)
	}
	return NewStructValueTc(d, fields, span)
}

func (c *Checker) checkUnionValue(scope *Scope, e *ast.UnionValueExpr) Tc {
	if e.Type == nil {
		c.sink.Errorf(diag.StageChecker, diag.CodeTypeMismatch, toDiagSpan(e.Span()), "union value requires a named type")
		return errTcAt(e.Span())
	}
	typ := c.CheckType(scope, e.Type)
	if isErrType(typ) {
		return errTcAt(e.Span())
	}
	d, ok := resolve(typ).(*Data)
	if !ok || d.Tag != UnionTag {
		c.sink.Errorf(diag.StageChecker, diag.CodeTypeMismatch, toDiagSpan(e.Span()), "not a union type: %s", typ)
		return errTcAt(e.Span())
	}
	idx := d.FieldIndex(e.Tag)
	if idx < 0 {
		c.sink.Errorf(diag.StageChecker, diag.CodeWrongUnionTag, toDiagSpan(e.Span()), "%s has no tag %q", d, e.Tag)
		return errTcAt(e.Span())
	}
	arg := c.checkExprForType(scope, e.Arg, d.Fields[idx].Type)
	return NewUnionValueTc(d, idx, arg, e.Span())
}

func (c *Checker) checkAccess(scope *Scope, e *ast.AccessExpr) Tc {
	obj := c.checkExpr(scope, e.Obj)
	if isErrType(obj.TcType()) {
		return errTcAt(e.Span())
	}
	d, ok := resolve(obj.TcType()).(*Data)
	if !ok {
		c.sink.Errorf(diag.StageChecker, diag.CodeTypeMismatch, toDiagSpan(e.Span()), "not a struct or union: %s", obj.TcType())
		return errTcAt(e.Span())
	}
	idx := d.FieldIndex(e.Field)
	if idx < 0 {
		c.sink.Errorf(diag.StageChecker, diag.CodeUndefinedAccess, toDiagSpan(e.Span()), "%s has no field %q", d, e.Field)
		return errTcAt(e.Span())
	}
	return NewDataAccessTc(obj, idx, e.Field, d.Fields[idx].Type, e.Span())
}

func (c *Checker) checkSelect(scope *Scope, e *ast.SelectExpr) Tc {
	cond := c.checkExpr(scope, e.Cond)
	if isErrType(cond.TcType()) {
		return errTcAt(e.Span())
	}
	d, ok := resolve(cond.TcType()).(*Data)
	if !ok || d.Tag != UnionTag {
		c.sink.Errorf(diag.StageChecker, diag.CodeTypeMismatch, toDiagSpan(e.Span()), "select requires a union, got %s", cond.TcType())
		return errTcAt(e.Span())
	}

	covered := make([]bool, len(d.Fields))
	tcBranches := make([]ast.Expr, len(d.Fields))
	var defaultExpr ast.Expr
	lastIdx := -1
	for _, br := range e.Branches {
		if br.Tag == "" {
			if defaultExpr != nil {
				c.sink.Errorf(diag.StageChecker, diag.CodeDuplicateName, toDiagSpan(e.Span()), "select has more than one default branch")
				continue
			}
			defaultExpr = br.Expr
			continue
		}
		idx := d.FieldIndex(br.Tag)
		if idx < 0 {
			c.sink.Errorf(diag.StageChecker, diag.CodeWrongUnionTag, toDiagSpan(e.Span()), "%s has no tag %q", d, br.Tag)
			continue
		}
		if idx <= lastIdx {
			c.sink.Errorf(diag.StageChecker, diag.CodeSelectWrongOrder, toDiagSpan(e.Span()),
				"branch %q out of declared tag order", br.Tag)
		}
		lastIdx = idx
		covered[idx] = true
		tcBranches[idx] = br.Expr
	}
	missing := false
	for _, ok := range covered {
		if !ok {
			missing = true
		}
	}
	if missing && defaultExpr == nil {
		c.sink.Errorf(diag.StageChecker, diag.CodeSelectMissingDefault, toDiagSpan(e.Span()), "select does not cover every tag of %s", d)
	}

	var resultType Type
	branchTcs := make([]Tc, len(d.Fields))
	var defaultTc Tc
	for i := range d.Fields {
		var branchExpr ast.Expr
		if tcBranches[i] != nil {
			branchExpr = tcBranches[i]
		} else {
			branchExpr = defaultExpr
		}
		if branchExpr == nil {
			continue
		}
		var tc Tc
		if resultType == nil {
			tc = c.checkExpr(scope, branchExpr)
			if !isErrType(tc.TcType()) {
				resultType = tc.TcType()
			}
		} else {
			tc = c.checkExprForType(scope, branchExpr, resultType)
		}
		if tcBranches[i] != nil {
			branchTcs[i] = tc
		} else if defaultTc == nil {
			defaultTc = tc
		}
	}
	if resultType == nil {
		resultType = errType
	}
	return NewUnionSelectTc(cond, branchTcs, defaultTc, resultType, e.Span())
}

func (c *Checker) checkLet(scope *Scope, e *ast.LetExpr) Tc {
	inner := scope.Push(false)
	preTypes := make([]*Var, len(e.Bindings))
	for i, b := range e.Bindings {
		if b.IsType {
			v := &Var{VKind: kind.Type, Name: b.Name, Abstract: true}
			preTypes[i] = v
			inner.BindType(b.Name, v)
		} else if b.Type != nil {
			t := c.CheckType(inner, b.Type)
			inner.Bind(b.Name, t)
		}
		// untyped value bindings are bound after their Value is checked
		// (see below); they cannot be referenced recursively.
	}

	tcBindings := make([]LetBindingTc, len(e.Bindings))
	for i, b := range e.Bindings {
		switch {
		case b.IsType:
			concrete := c.CheckType(inner, b.Type)
			preTypes[i].Value = concrete
			c.track(preTypes[i], concrete)
			if err := WellFormed(preTypes[i]); err != nil {
				c.sink.Errorf(diag.StageChecker, diag.CodeVacuousBinding, toDiagSpan(e.Span()), "%s", err)
			}
			tcBindings[i] = LetBindingTc{Name: b.Name, Value: NewTypeValueTc(preTypes[i], e.Span())}

		case b.Type != nil:
			sym, _ := inner.Lookup(b.Name)
			val := c.checkExprForType(inner, b.Value, sym.Type)
			tcBindings[i] = LetBindingTc{Name: b.Name, Value: val}

		default:
			val := c.checkExpr(inner, b.Value)
			inner.Bind(b.Name, val.TcType())
			tcBindings[i] = LetBindingTc{Name: b.Name, Value: val}
		}
	}

	body := c.checkExpr(inner, e.Body)

	// Unused local bindings (spec.md §7), skipping the `_`-prefixed
	// convention for an intentionally-discarded binding.
	for _, sym := range inner.Unused() {
		if strings.HasPrefix(sym.Name, "_") {
			continue
		}
		c.sink.Warnf(diag.StageChecker, diag.CodeUnusedBinding, toDiagSpan(e.Span()), "%q is never used", sym.Name)
	}

	// Scope-local type bindings are released once the Let they belong
	// to closes (spec.md §3.2); anything still reachable only via an
	// AddRef edge recorded from a surviving root is the tracing
	// collector's job, not a leak.
	for _, v := range preTypes {
		if v != nil {
			c.release(v)
		}
	}

	return NewLetTc(tcBindings, body, e.Span())
}

func (c *Checker) checkFuncValue(scope *Scope, e *ast.FuncValueExpr) Tc {
	argTypes := make([]Type, len(e.ArgTypes))
	inner := scope.Push(true)
	for i, at := range e.ArgTypes {
		// An argument's declared type is a structural annotation, not a
		// construction of that type (see CheckType's shadow-scope
		// comment): Accessed, not Used.
		argTypes[i] = c.CheckType(scope.Shadow(), at)
		inner.Bind(e.ArgNames[i], argTypes[i])
	}
	body := c.checkExpr(inner, e.Body)
	ft := &Func{Args: argTypes, Return: body.TcType()}
	c.track(ft, append(append([]Type{}, argTypes...), body.TcType())...)
	return NewFuncValueTc(e.ArgNames, body, ft, e.Span())
}

// checkApply resolves the struct-value-vs-call ambiguity (spec.md
// §4.2): if Func denotes a bound type name, this is a struct-value
// construction; otherwise it is an ordinary function application.
func (c *Checker) checkApply(scope *Scope, e *ast.ApplyExpr) Tc {
	if v, ok := e.Func.(*ast.VarExpr); ok {
		if sym, found := scope.Lookup(v.Name); found && sym.IsType {
			return c.buildStructValue(scope, sym.TypeVar, e.Args, e.Span())
		}
	}

	fn := c.checkExpr(scope, e.Func)
	if isErrType(fn.TcType()) {
		return errTcAt(e.Span())
	}
	ft, ok := resolve(fn.TcType()).(*Func)
	if !ok {
		c.sink.Errorf(diag.StageChecker, diag.CodeTypeMismatch, toDiagSpan(e.Span()), "not a function: %s", fn.TcType())
		return errTcAt(e.Span())
	}
	if len(e.Args) != len(ft.Args) {
		c.sink.Errorf(diag.StageChecker, diag.CodeWrongArity, toDiagSpan(e.Span()),
			"%s expects %d arguments, got %d", ft, len(ft.Args), len(e.Args))
		return errTcAt(e.Span())
	}
	args := make([]Tc, len(e.Args))
	for i, a := range e.Args {
		args[i] = c.checkExprForType(scope, a, ft.Args[i])
	}
	return NewFuncApplyTc(fn, args, ft.Return, e.Span())
}

func (c *Checker) checkEval(scope *Scope, e *ast.EvalExpr) Tc {
	inner := c.checkExpr(scope, e.Inner)
	p, ok := resolve(inner.TcType()).(*Proc)
	if !ok {
		if !isErrType(inner.TcType()) {
			c.sink.Errorf(diag.StageChecker, diag.CodeTypeMismatch, toDiagSpan(e.Span()), "$(...) requires a process, got %s", inner.TcType())
		}
		return errTcAt(e.Span())
	}
	return NewEvalTc(inner, p.Elem, e.Span())
}

func (c *Checker) checkLink(scope *Scope, e *ast.LinkExpr) Tc {
	// The carried type is a structural annotation of the link, not a
	// construction of that type: Accessed, not Used.
	elem := c.CheckType(scope.Shadow(), e.Elem)
	// get names the process itself (Proc{Elem:elem}): calling it is
	// what performs the read. put, unlike get, completes its effect the
	// moment it is called with a value, so its return is the plain
	// unit struct rather than a further process to invoke.
	getType := c.track(&Proc{Elem: elem}, elem)
	putRet := c.track(&Data{Tag: StructTag})
	putType := c.track(&Func{Args: []Type{elem}, Return: putRet}, elem, putRet)
	inner := scope.Push(false)
	inner.Bind(e.GetName, getType)
	inner.Bind(e.PutName, putType)
	body := c.checkExpr(inner, e.Body)
	return NewLinkTc(elem, e.GetName, e.PutName, body, e.Span())
}

func (c *Checker) checkExec(scope *Scope, e *ast.ExecExpr) Tc {
	inner := scope.Push(false)
	bindings := make([]ExecBindingTc, len(e.Bindings))
	for i, b := range e.Bindings {
		declared := c.CheckType(scope.Shadow(), b.Type)
		wantProc := c.track(&Proc{Elem: declared}, declared)
		proc := c.checkExpr(scope, b.Proc)
		// A binding's process expression is either a bare process value
		// still waiting to be run (a get port, most commonly) or an
		// expression whose own call already completed the action and
		// produced declared directly (a put port). Exec runs the former
		// and takes the latter as-is.
		if !isErrType(proc.TcType()) && !Equal(proc.TcType(), wantProc) && !Equal(proc.TcType(), declared) {
			c.sink.Errorf(diag.StageChecker, diag.CodeTypeMismatch, toDiagSpan(b.Proc.Span()),
				"expected %s or a process of %s, got %s", declared, declared, proc.TcType())
		}
		inner.Bind(b.Name, declared)
		bindings[i] = ExecBindingTc{Name: b.Name, Proc: proc}
	}
	body := c.checkExpr(inner, e.Body)
	return NewExecTc(bindings, body, e.Span())
}

func (c *Checker) checkPolyValue(scope *Scope, e *ast.PolyValueExpr) Tc {
	v := &Var{VKind: kind.Type, Name: e.Var}
	c.track(v)
	inner := scope.Push(false)
	inner.BindType(e.Var, v)
	body := c.checkExpr(inner, e.Body)
	poly := NewPoly(v, body.TcType())
	c.track(poly, v, body.TcType())
	c.release(v)
	return NewPolyValueTc(body, poly, e.Span())
}

func (c *Checker) checkPolyApply(scope *Scope, e *ast.PolyApplyExpr) Tc {
	poly := c.checkExpr(scope, e.Poly)
	if isErrType(poly.TcType()) {
		return errTcAt(e.Span())
	}
	p, ok := resolve(poly.TcType()).(*Poly)
	if !ok {
		c.sink.Errorf(diag.StageChecker, diag.CodeTypeMismatch, toDiagSpan(e.Span()), "not a polymorphic value: %s", poly.TcType())
		return errTcAt(e.Span())
	}
	arg := c.CheckType(scope, e.Arg)
	result := Substitute(p.Body, p.Binder, arg)
	if n, ok := Normalise(result); ok {
		result = n
	}
	return NewPolyApplyTc(poly, arg, result, e.Span())
}
