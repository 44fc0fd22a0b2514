package ir

import "fmt"

// SymbolKind differentiates what a Symbol names.
type SymbolKind int

const (
	CONST_SYM SymbolKind = iota
	FUNC_SYM
	ARG_SYM
	VAR_SYM
)

func (k SymbolKind) String() string {
	switch k {
	case CONST_SYM:
		return "constant"
	case FUNC_SYM:
		return "function"
	case ARG_SYM:
		return "argument"
	case VAR_SYM:
		return "variable"
	default:
		return "unknown"
	}
}

// Symbol is a named binding in a SymTab. LocalIndex is assigned densely,
// per-kind, within the owning scope (spec.md §3's "dense indexing"
// invariant); Address is a code-image word address, meaningful only for
// FUNC_SYM; Nargs is the declared parameter count, meaningful only for
// FUNC_SYM.
type Symbol struct {
	Name       string
	Kind       SymbolKind
	LocalIndex int
	Address    int32
	Nargs      int
}

// SymTab is one lexical scope: an ordered symbol list, a parent link walked
// for lookup (never for mutation) and an ordered list of child scopes.
type SymTab struct {
	Name     string
	Symbols  []*Symbol
	Parent   *SymTab
	Children []*SymTab
}

// NewScope allocates a child scope of parent named name, registers it as
// parent's child and returns it. parent may be nil only for the module root.
func NewScope(parent *SymTab, name string) *SymTab {
	s := &SymTab{Name: name, Parent: parent}
	if parent != nil {
		parent.Children = append(parent.Children, s)
	}
	return s
}

// Declare registers a new Symbol of the given name and kind in st, assigning
// it the next dense LocalIndex for its kind within st. It fails if name is
// already bound in this exact scope (spec.md §3: "within one scope, names
// are unique").
func (st *SymTab) Declare(name string, kind SymbolKind) (*Symbol, error) {
	if _, ok := st.lookupLocal(name); ok {
		return nil, fmt.Errorf("%q already defined in scope %q", name, st.Name)
	}
	sym := &Symbol{Name: name, Kind: kind, LocalIndex: st.nextIndex(kind)}
	st.Symbols = append(st.Symbols, sym)
	return sym, nil
}

// nextIndex returns the next dense LocalIndex for kind in st: the count of
// symbols of that kind already present.
func (st *SymTab) nextIndex(kind SymbolKind) int {
	n := 0
	for _, s := range st.Symbols {
		if s.Kind == kind {
			n++
		}
	}
	return n
}

// lookupLocal searches only st's own symbol list, never the parent chain.
func (st *SymTab) lookupLocal(name string) (*Symbol, bool) {
	for _, s := range st.Symbols {
		if s.Name == name {
			return s, true
		}
	}
	return nil, false
}

// Lookup walks st and its ancestors, parent-ward, returning the first match.
func (st *SymTab) Lookup(name string) (*Symbol, bool) {
	for s := st; s != nil; s = s.Parent {
		if sym, ok := s.lookupLocal(name); ok {
			return sym, true
		}
	}
	return nil, false
}

// Root walks up to and returns the module's root scope.
func (st *SymTab) Root() *SymTab {
	r := st
	for r.Parent != nil {
		r = r.Parent
	}
	return r
}

// CountKind returns how many symbols of kind are declared directly in st.
func (st *SymTab) CountKind(kind SymbolKind) int {
	return st.nextIndex(kind)
}
