package ftype

// Symbol is one name bound in a Scope: either a value (with its Type)
// or a type-level abstract variable (spec.md §4.2's Let rule for
// `X@ = ...` bindings).
type Symbol struct {
	Name     string
	Type     Type // value's type, or the Var's own type-as-value wrapper
	IsType   bool
	TypeVar  *Var // non-nil when IsType
	Index    int  // scope-local slot, used by VarTc.Index
	Used     bool // read anywhere in the body, outside a shadow scope
	Accessed bool // read from within a shadow scope only (spec.md §4.2's check_expr_for_type)
	Captured bool // read from inside a nested FuncValue (must be a real closure capture)
}

// Scope is a lexical chain of symbol tables mirroring spec.md §4.1's
// static scoping: Let, function arguments, exec bindings, and poly
// binders all push a new Scope linked to their parent.
type Scope struct {
	parent  *Scope
	symbols map[string]*Symbol
	order   []*Symbol
	inFunc  bool // true if this scope is a FuncValue body or nested anywhere inside one
	shadow  bool // true if lookups through this scope mark Accessed instead of Used
}

// NewScope creates a root scope with no parent — the top level of a
// single expression being checked.
func NewScope() *Scope {
	return &Scope{symbols: map[string]*Symbol{}}
}

// Push creates a child scope. inFunc marks whether this child scope
// is the body of a FuncValue, for capture tracking.
func (s *Scope) Push(inFunc bool) *Scope {
	return &Scope{parent: s, symbols: map[string]*Symbol{}, inFunc: inFunc || s.inFunc, shadow: s.shadow}
}

// Shadow creates a child scope whose lookups mark Accessed rather than
// Used (spec.md §4.2: a type-position expression's variable accesses
// must not themselves count as using the binding, so an otherwise
// dead let-binding that's only ever mentioned in a type position still
// gets the unused-binding warning).
func (s *Scope) Shadow() *Scope {
	return &Scope{parent: s, symbols: map[string]*Symbol{}, inFunc: s.inFunc, shadow: true}
}

// Bind declares a new symbol in this scope, shadowing any outer
// symbol of the same name (spec.md §4.1: "inner bindings shadow
// outer ones of the same name").
func (s *Scope) Bind(name string, typ Type) *Symbol {
	sym := &Symbol{Name: name, Type: typ, Index: len(s.order)}
	s.symbols[name] = sym
	s.order = append(s.order, sym)
	return sym
}

// BindType declares a type-level abstract variable.
func (s *Scope) BindType(name string, v *Var) *Symbol {
	sym := &Symbol{Name: name, Type: &TypeOf{Inner: v}, IsType: true, TypeVar: v, Index: len(s.order)}
	s.symbols[name] = sym
	s.order = append(s.order, sym)
	return sym
}

// Lookup searches this scope and its ancestors, marking Used (and
// Captured, if resolved through a function boundary) on the symbol it
// finds.
func (s *Scope) Lookup(name string) (*Symbol, bool) {
	crossedFunc := false
	for sc := s; sc != nil; sc = sc.parent {
		if sym, ok := sc.symbols[name]; ok {
			if s.shadow {
				sym.Accessed = true
			} else {
				sym.Used = true
			}
			if crossedFunc {
				sym.Captured = true
			}
			return sym, true
		}
		if sc.inFunc && sc.parent != nil && !sc.parent.inFunc {
			crossedFunc = true
		}
	}
	return nil, false
}

// Unused returns symbols bound directly in this scope (not ancestors)
// that were never looked up — the basis for an "unused variable"
// diagnostic (diag.CodeUnusedBinding).
func (s *Scope) Unused() []*Symbol {
	var out []*Symbol
	for _, sym := range s.order {
		if !sym.Used {
			out = append(out, sym)
		}
	}
	return out
}
