package ftype

import "fmt"

// WellFormed recursively checks the structural invariants a Type must
// hold independent of any particular expression: field names distinct
// within a Data type, and no vacuous (non-productive) Var cycle. This
// mirrors the separate well-formedness pass the original toolchain ran
// over its type graph before using it for equality or access.
func WellFormed(t Type) error {
	return wellFormed(t, map[*Var]bool{})
}

func wellFormed(t Type, onPath map[*Var]bool) error {
	switch t := t.(type) {
	case *Var:
		if t.Value == nil || onPath[t] {
			// Reached again through a structural node: productive.
			return nil
		}
		// Follow the direct chain of Var indirections; meeting a Var
		// twice before any structural node is a vacuous cycle.
		chain := map[*Var]bool{}
		var cur Type = t
		for v, ok := cur.(*Var); ok && v.Value != nil && !onPath[v]; v, ok = cur.(*Var) {
			if chain[v] {
				return fmt.Errorf("vacuous type: %s refers to itself with no productive structure", t.Name)
			}
			chain[v] = true
			cur = v.Value
		}
		for v := range chain {
			onPath[v] = true
		}
		err := wellFormed(cur, onPath)
		for v := range chain {
			delete(onPath, v)
		}
		return err

	case *Data:
		seen := make(map[string]bool, len(t.Fields))
		for _, f := range t.Fields {
			if seen[f.Name] {
				return fmt.Errorf("duplicate field name %q in %s", f.Name, t.Tag)
			}
			seen[f.Name] = true
			if err := wellFormed(f.Type, onPath); err != nil {
				return err
			}
		}
		return nil

	case *Func:
		for _, a := range t.Args {
			if err := wellFormed(a, onPath); err != nil {
				return err
			}
		}
		return wellFormed(t.Return, onPath)

	case *Proc:
		return wellFormed(t.Elem, onPath)

	case *Poly:
		return wellFormed(t.Body, onPath)

	case *PolyApply:
		if err := wellFormed(t.Poly, onPath); err != nil {
			return err
		}
		return wellFormed(t.Arg, onPath)

	case *TypeOf:
		return wellFormed(t.Inner, onPath)

	case *Package:
		return wellFormed(t.Payload, onPath)

	default:
		return nil
	}
}
