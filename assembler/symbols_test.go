package assembler

import (
	"errors"
	"testing"

	"github.com/Urethramancer/scudsp/diag"
)

func expr(terms ...Term) Expr { return Expr(terms) }

func TestSymbolTableDefineAndLookup(t *testing.T) {
	st := NewSymbolTable()
	if err := st.Define(&Symbol{Name: "Loop", Kind: SymbolLabel, Value: 4, Resolved: true}); err != nil {
		t.Fatal(err)
	}
	s, ok := st.Lookup("LOOP")
	if !ok || s.Name != "Loop" {
		t.Fatalf("lookup ignoring case failed: %+v", s)
	}
	v, err := st.Value("loop")
	if err != nil || v != 4 {
		t.Errorf("Value = %d, %v", v, err)
	}
	if _, err := st.Value("nowhere"); err == nil {
		t.Error("undefined symbol had a value")
	} else {
		var undef *UndefinedError
		if !errors.As(err, &undef) || undef.Name != "nowhere" {
			t.Errorf("got %v, want UndefinedError", err)
		}
	}
}

func TestSymbolTableDuplicate(t *testing.T) {
	st := NewSymbolTable()
	first := diag.Position{File: "t.dsp", Line: 1, Column: 1}
	st.Define(&Symbol{Name: "x1", Resolved: true, Defined: first})
	err := st.Define(&Symbol{Name: "X1", Resolved: true})
	var dup *DuplicateError
	if !errors.As(err, &dup) {
		t.Fatalf("got %v, want DuplicateError", err)
	}
	if dup.Previous != first {
		t.Errorf("previous definition at %s, want %s", dup.Previous, first)
	}
}

func TestSymbolTableFreeze(t *testing.T) {
	st := NewSymbolTable()
	st.Define(&Symbol{Name: "k", Kind: SymbolConstant, Expr: expr(Term{Value: 3})})
	if _, err := st.Value("k"); err != nil {
		t.Fatal(err)
	}
	st.Freeze()
	if !st.Frozen() {
		t.Fatal("table not frozen")
	}
	err := st.Define(&Symbol{Name: "late", Resolved: true})
	if !errors.Is(err, ErrFrozen) {
		t.Errorf("define after freeze: got %v, want ErrFrozen", err)
	}
	if st.Len() != 1 {
		t.Errorf("Len = %d, want 1", st.Len())
	}
	if v, err := st.Value("k"); err != nil || v != 3 {
		t.Errorf("resolved value lost after freeze: %d, %v", v, err)
	}
}

func TestSymbolTableUnresolvedAfterFreeze(t *testing.T) {
	st := NewSymbolTable()
	st.Define(&Symbol{Name: "k", Kind: SymbolConstant, Expr: expr(Term{Symbol: "later"})})
	st.Freeze()
	_, err := st.Value("k")
	var unresolved *UnresolvedError
	if !errors.As(err, &unresolved) {
		t.Errorf("got %v, want UnresolvedError", err)
	}
}

func TestSymbolTableLazyConstants(t *testing.T) {
	st := NewSymbolTable()
	st.Define(&Symbol{Name: "size", Kind: SymbolConstant, Expr: expr(Term{Symbol: "end1"}, Term{Neg: true, Symbol: "start1"})})
	st.Define(&Symbol{Name: "start1", Kind: SymbolLabel, Value: 2, Resolved: true})
	st.Define(&Symbol{Name: "end1", Kind: SymbolLabel, Value: 9, Resolved: true})
	v, err := st.Value("size")
	if err != nil || v != 7 {
		t.Errorf("size = %d, %v; want 7", v, err)
	}
}

func TestSymbolTableCycle(t *testing.T) {
	st := NewSymbolTable()
	st.Define(&Symbol{Name: "p1", Kind: SymbolConstant, Expr: expr(Term{Symbol: "q1"})})
	st.Define(&Symbol{Name: "q1", Kind: SymbolConstant, Expr: expr(Term{Value: 1}, Term{Symbol: "p1"})})
	_, err := st.Value("p1")
	var cycle *CycleError
	if !errors.As(err, &cycle) {
		t.Fatalf("got %v, want CycleError", err)
	}
	// Neither constant was given a value.
	for _, name := range []string{"p1", "q1"} {
		if s, _ := st.Lookup(name); s.Resolved {
			t.Errorf("%s resolved despite the cycle", name)
		}
	}
}

func TestSymbolTableListings(t *testing.T) {
	st := NewSymbolTable()
	st.Define(&Symbol{Name: "zeta", Kind: SymbolLabel, Value: 3, Resolved: true})
	st.Define(&Symbol{Name: "Alpha", Kind: SymbolLabel, Value: 1, Resolved: true})
	st.Define(&Symbol{Name: "mid", Kind: SymbolConstant, Value: 8, Resolved: true})

	syms := st.Symbols()
	var names []string
	for _, s := range syms {
		names = append(names, s.Name)
	}
	if len(names) != 3 || names[0] != "Alpha" || names[1] != "mid" || names[2] != "zeta" {
		t.Errorf("Symbols order: %v", names)
	}

	labels := st.Labels()
	if len(labels) != 2 || labels["Alpha"] != 1 || labels["zeta"] != 3 {
		t.Errorf("Labels = %v", labels)
	}
}

func TestExprEval(t *testing.T) {
	e := expr(Term{Value: 10}, Term{Neg: true, Symbol: "two"}, Term{Value: 5})
	v, err := e.Eval(func(name string) (int64, error) {
		if name == "two" {
			return 2, nil
		}
		return 0, &UndefinedError{Name: name}
	})
	if err != nil || v != 13 {
		t.Errorf("Eval = %d, %v; want 13", v, err)
	}
	if e.Constant() {
		t.Error("expression with a symbol reported as constant")
	}
	if got := e.Symbols(); len(got) != 1 || got[0] != "two" {
		t.Errorf("Symbols = %v", got)
	}
}
