package ftype

// Normalise canonicalises a type per spec.md §4.2: it unfolds Var
// indirections, beta-reduces PolyApply(Poly(α,B), A), and eta-reduces
// a Poly whose body is a PolyApply of the bound variable back onto a
// poly-free-of-that-variable. Returns ok=false iff the type is
// vacuous: normalisation chased a Var cycle with no structural
// fixpoint (spec.md's Vacuous, GLOSSARY).
func Normalise(t Type) (Type, bool) {
	return normalise(t, map[*Var]bool{})
}

func normalise(t Type, seen map[*Var]bool) (Type, bool) {
	// Unfold Var indirections first. A Var met twice on this direct
	// chain is vacuous; a Var already being unfolded further up the
	// path was reached again through structure (a productive cycle), so
	// it is left folded.
	var chain []*Var
	defer func() {
		for _, v := range chain {
			delete(seen, v)
		}
	}()
	for {
		v, isVar := t.(*Var)
		if !isVar || v.Value == nil {
			break
		}
		if seen[v] {
			for _, c := range chain {
				if c == v {
					return nil, false
				}
			}
			return v, true
		}
		seen[v] = true
		chain = append(chain, v)
		t = v.Value
	}

	switch t := t.(type) {
	case *Var:
		return t, true

	case *Data:
		fields := make([]Field, len(t.Fields))
		for i, f := range t.Fields {
			nf, ok := normalise(f.Type, seen)
			if !ok {
				return nil, false
			}
			fields[i] = Field{Name: f.Name, Type: nf}
		}
		return &Data{Tag: t.Tag, Fields: fields}, true

	case *Func:
		args := make([]Type, len(t.Args))
		for i, a := range t.Args {
			na, ok := normalise(a, seen)
			if !ok {
				return nil, false
			}
			args[i] = na
		}
		ret, ok := normalise(t.Return, seen)
		if !ok {
			return nil, false
		}
		return &Func{Args: args, Return: ret}, true

	case *Proc:
		elem, ok := normalise(t.Elem, seen)
		if !ok {
			return nil, false
		}
		return &Proc{Elem: elem}, true

	case *Poly:
		body, ok := normalise(t.Body, seen)
		if !ok {
			return nil, false
		}
		// Eta: <@a>{ F<a> } == F, when a not free in F.
		if pa, isPA := body.(*PolyApply); isPA {
			if av, isV := pa.Arg.(*Var); isV && av == t.Binder && !occursFree(t.Binder, pa.Poly) {
				return pa.Poly, true
			}
		}
		return NewPoly(t.Binder, body), true

	case *PolyApply:
		poly, ok := normalise(t.Poly, seen)
		if !ok {
			return nil, false
		}
		arg, ok := normalise(t.Arg, seen)
		if !ok {
			return nil, false
		}
		if p, isPoly := poly.(*Poly); isPoly {
			substituted := Substitute(p.Body, p.Binder, arg)
			return normalise(substituted, seen)
		}
		return NewPolyApply(poly, arg), true

	case *TypeOf:
		inner, ok := normalise(t.Inner, seen)
		if !ok {
			return nil, false
		}
		return &TypeOf{Inner: inner}, true

	case *Package:
		payload, ok := normalise(t.Payload, seen)
		if !ok {
			return nil, false
		}
		return &Package{Path: t.Path, Payload: payload}, true

	default:
		return t, true
	}
}

// occursFree reports whether v occurs free (unshadowed) in t.
func occursFree(v *Var, t Type) bool {
	switch t := t.(type) {
	case *Var:
		if t == v {
			return true
		}
		if t.Value != nil {
			return occursFree(v, t.Value)
		}
		return false
	case *Data:
		for _, f := range t.Fields {
			if occursFree(v, f.Type) {
				return true
			}
		}
		return false
	case *Func:
		for _, a := range t.Args {
			if occursFree(v, a) {
				return true
			}
		}
		return occursFree(v, t.Return)
	case *Proc:
		return occursFree(v, t.Elem)
	case *Poly:
		if t.Binder == v {
			return false
		}
		return occursFree(v, t.Body)
	case *PolyApply:
		return occursFree(v, t.Poly) || occursFree(v, t.Arg)
	case *TypeOf:
		return occursFree(v, t.Inner)
	case *Package:
		return occursFree(v, t.Payload)
	default:
		return false
	}
}

// Substitute replaces every free occurrence of v with repl in t,
// preserving sharing through cyclic Var structure via a memo of
// (original Var → substituted Var), per spec.md §4.2's normalisation
// rules ("a substitution that preserves sharing via a memo").
func Substitute(t Type, v *Var, repl Type) Type {
	return substitute(t, v, repl, map[*Var]*Var{})
}

func substitute(t Type, v *Var, repl Type, memo map[*Var]*Var) Type {
	switch t := t.(type) {
	case *Var:
		if t == v {
			return repl
		}
		if t.Value == nil {
			return t
		}
		if nv, ok := memo[t]; ok {
			return nv
		}
		nv := &Var{VKind: t.VKind, Name: t.Name, Abstract: t.Abstract}
		memo[t] = nv
		nv.Value = substitute(t.Value, v, repl, memo)
		return nv

	case *Data:
		fields := make([]Field, len(t.Fields))
		for i, f := range t.Fields {
			fields[i] = Field{Name: f.Name, Type: substitute(f.Type, v, repl, memo)}
		}
		return &Data{Tag: t.Tag, Fields: fields}

	case *Func:
		args := make([]Type, len(t.Args))
		for i, a := range t.Args {
			args[i] = substitute(a, v, repl, memo)
		}
		return &Func{Args: args, Return: substitute(t.Return, v, repl, memo)}

	case *Proc:
		return &Proc{Elem: substitute(t.Elem, v, repl, memo)}

	case *Poly:
		if t.Binder == v {
			return t
		}
		return NewPoly(t.Binder, substitute(t.Body, v, repl, memo))

	case *PolyApply:
		return NewPolyApply(substitute(t.Poly, v, repl, memo), substitute(t.Arg, v, repl, memo))

	case *TypeOf:
		return &TypeOf{Inner: substitute(t.Inner, v, repl, memo)}

	case *Package:
		return &Package{Path: t.Path, Payload: substitute(t.Payload, v, repl, memo)}

	default:
		return t
	}
}
