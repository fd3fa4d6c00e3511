package ftype

// Equal reports structural equality up to normalisation (spec.md
// §4.2: "two types are equal iff their normal forms are
// alpha-equivalent"). assumed records Var pairs already assumed equal
// on the current path — required to terminate on the cyclic
// structures let-recursion produces.
func Equal(a, b Type) bool {
	na, ok := Normalise(a)
	if !ok {
		return false
	}
	nb, ok := Normalise(b)
	if !ok {
		return false
	}
	return equal(na, nb, map[varPair]bool{})
}

type varPair struct{ a, b *Var }

func equal(a, b Type, assumed map[varPair]bool) bool {
	av, aIsVar := a.(*Var)
	bv, bIsVar := b.(*Var)
	if aIsVar && bIsVar {
		if av == bv {
			return true
		}
		if assumed[varPair{av, bv}] {
			return true
		}
		if av.Value == nil || bv.Value == nil {
			// Two distinct free variables are equal only by identity.
			return false
		}
		assumed[varPair{av, bv}] = true
		return equal(av.Value, bv.Value, assumed)
	}
	if aIsVar {
		if av.Value == nil {
			return false
		}
		return equal(av.Value, b, assumed)
	}
	if bIsVar {
		if bv.Value == nil {
			return false
		}
		return equal(a, bv.Value, assumed)
	}

	switch a := a.(type) {
	case *Data:
		b, ok := b.(*Data)
		if !ok || a.Tag != b.Tag || len(a.Fields) != len(b.Fields) {
			return false
		}
		for i := range a.Fields {
			if a.Fields[i].Name != b.Fields[i].Name {
				return false
			}
			if !equal(a.Fields[i].Type, b.Fields[i].Type, assumed) {
				return false
			}
		}
		return true

	case *Func:
		b, ok := b.(*Func)
		if !ok || len(a.Args) != len(b.Args) {
			return false
		}
		for i := range a.Args {
			if !equal(a.Args[i], b.Args[i], assumed) {
				return false
			}
		}
		return equal(a.Return, b.Return, assumed)

	case *Proc:
		b, ok := b.(*Proc)
		return ok && equal(a.Elem, b.Elem, assumed)

	case *Poly:
		b, ok := b.(*Poly)
		if !ok {
			return false
		}
		assumed[varPair{a.Binder, b.Binder}] = true
		return equal(a.Body, b.Body, assumed)

	case *PolyApply:
		b, ok := b.(*PolyApply)
		return ok && equal(a.Poly, b.Poly, assumed) && equal(a.Arg, b.Arg, assumed)

	case *TypeOf:
		b, ok := b.(*TypeOf)
		return ok && equal(a.Inner, b.Inner, assumed)

	case *Package:
		b, ok := b.(*Package)
		return ok && a.Path == b.Path && equal(a.Payload, b.Payload, assumed)

	default:
		return false
	}
}
