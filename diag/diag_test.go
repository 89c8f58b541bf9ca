package diag

import (
	"errors"
	"strings"
	"testing"
)

func TestListPartition(t *testing.T) {
	var l List
	l.Warnf(ParseError, Position{Line: 3}, "label-only line")
	if l.HasErrors() || l.Err() != nil {
		t.Fatal("warnings alone must not count as errors")
	}
	l.Errorf(LegalityError, Position{Line: 2, Column: 5}, "Bundle contains more than one %s instruction", "flow control")
	l.Errorf(EncodingError, Position{Line: 1}, "value out of range")

	if !l.HasErrors() {
		t.Fatal("HasErrors = false")
	}
	if n := len(l.Errors()); n != 2 {
		t.Errorf("len(Errors) = %d; want 2", n)
	}
	if n := len(l.Warnings()); n != 1 {
		t.Errorf("len(Warnings) = %d; want 1", n)
	}
	if n := len(l.OfKind(LegalityError)); n != 1 {
		t.Errorf("len(OfKind(legality)) = %d; want 1", n)
	}

	l.Sort()
	if l[0].Pos.Line != 1 || l[2].Pos.Line != 3 {
		t.Errorf("Sort order wrong: %v", l)
	}
}

func TestListAsError(t *testing.T) {
	var l List
	l.Errorf(ResolutionError, Position{File: "a.dsp", Line: 7, Column: 2}, "undefined symbol %q", "loop")
	err := l.Err()
	if err == nil {
		t.Fatal("Err() = nil")
	}
	var d *Diagnostic
	if !errors.As(err, &d) {
		t.Fatal("errors.As did not find a *Diagnostic")
	}
	if d.Kind != ResolutionError {
		t.Errorf("Kind = %v; want resolution", d.Kind)
	}
	want := `a.dsp:7:2: resolution error: undefined symbol "loop"`
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q; want %q", got, want)
	}

	l.Errorf(ResolutionError, Position{Line: 8}, "duplicate label")
	if !strings.HasPrefix(l.Error(), "2 errors:") {
		t.Errorf("multi-error text = %q", l.Error())
	}
}
