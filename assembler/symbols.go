package assembler

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/golang/glog"
	"github.com/samber/lo"

	"github.com/Urethramancer/scudsp/diag"
)

// SymbolKind tells labels from constants.
type SymbolKind int

const (
	SymbolLabel SymbolKind = iota
	SymbolConstant
)

func (k SymbolKind) String() string {
	if k == SymbolConstant {
		return "constant"
	}
	return "label"
}

// Symbol is a named value. Labels are resolved when defined; constants are
// resolved from their expression once pass 1 has seen every definition.
type Symbol struct {
	Name     string
	Kind     SymbolKind
	Value    int64
	Expr     Expr
	Defined  diag.Position
	Resolved bool

	resolving bool
}

// ErrFrozen is returned when defining a symbol after pass 1.
var ErrFrozen = errors.New("symbol table is frozen")

// DuplicateError reports a second definition of a name.
type DuplicateError struct {
	Name     string
	Previous diag.Position
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("%q is already defined at %s", e.Name, e.Previous)
}

// UndefinedError reports a reference to a name that was never defined.
type UndefinedError struct {
	Name string
}

func (e *UndefinedError) Error() string {
	return fmt.Sprintf("undefined symbol %q", e.Name)
}

// CycleError reports a constant whose value depends on itself.
type CycleError struct {
	Name string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("constant %q depends on itself", e.Name)
}

// UnresolvedError reports a constant that could not be given a value. The
// reason was reported when it was resolved.
type UnresolvedError struct {
	Name string
}

func (e *UnresolvedError) Error() string {
	return fmt.Sprintf("constant %q has no value", e.Name)
}

// SymbolTable maps case-insensitive names to symbols. It is written during
// pass 1 and read-only once frozen.
type SymbolTable struct {
	syms   map[string]*Symbol
	frozen bool
}

// NewSymbolTable returns an empty, writable table.
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{syms: make(map[string]*Symbol)}
}

// Define adds a symbol.
func (t *SymbolTable) Define(s *Symbol) error {
	if t.frozen {
		return fmt.Errorf("define %q: %w", s.Name, ErrFrozen)
	}
	key := strings.ToLower(s.Name)
	if old, ok := t.syms[key]; ok {
		return &DuplicateError{Name: s.Name, Previous: old.Defined}
	}
	t.syms[key] = s
	glog.V(2).Infof("%s: %s %s = %s", s.Defined, s.Kind, s.Name, symbolValue(s))
	return nil
}

func symbolValue(s *Symbol) string {
	if s.Resolved {
		return fmt.Sprintf("%d", s.Value)
	}
	return s.Expr.String()
}

// Lookup finds a symbol by name, ignoring case.
func (t *SymbolTable) Lookup(name string) (*Symbol, bool) {
	s, ok := t.syms[strings.ToLower(name)]
	return s, ok
}

// Value returns the value of name. Before the table is frozen, constants are
// evaluated on demand; afterwards only resolved values are returned.
func (t *SymbolTable) Value(name string) (int64, error) {
	s, ok := t.Lookup(name)
	if !ok {
		return 0, &UndefinedError{Name: name}
	}
	if s.Resolved {
		return s.Value, nil
	}
	if t.frozen {
		return 0, &UnresolvedError{Name: s.Name}
	}
	if s.resolving {
		return 0, &CycleError{Name: s.Name}
	}
	s.resolving = true
	v, err := s.Expr.Eval(t.Value)
	s.resolving = false
	if err != nil {
		return 0, err
	}
	s.Value, s.Resolved = v, true
	return v, nil
}

// Eval evaluates an expression against the table.
func (t *SymbolTable) Eval(e Expr) (int64, error) {
	return e.Eval(t.Value)
}

// Freeze makes the table read-only.
func (t *SymbolTable) Freeze() {
	t.frozen = true
	glog.V(1).Infof("symbol table frozen with %d symbols", len(t.syms))
}

// Frozen reports whether Freeze was called.
func (t *SymbolTable) Frozen() bool {
	return t.frozen
}

// Len is the number of symbols.
func (t *SymbolTable) Len() int {
	return len(t.syms)
}

// Symbols lists every symbol sorted by name.
func (t *SymbolTable) Symbols() []*Symbol {
	list := lo.Values(t.syms)
	sort.Slice(list, func(i, j int) bool {
		return strings.ToLower(list[i].Name) < strings.ToLower(list[j].Name)
	})
	return list
}

// Labels maps each label, as written at its definition, to its address.
func (t *SymbolTable) Labels() map[string]uint32 {
	labels := lo.Filter(lo.Values(t.syms), func(s *Symbol, _ int) bool { return s.Kind == SymbolLabel })
	return lo.SliceToMap(labels, func(s *Symbol) (string, uint32) { return s.Name, uint32(s.Value) })
}
