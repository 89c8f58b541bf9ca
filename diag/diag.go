// Package diag carries the structured errors and warnings raised by every
// stage of the assembler. Formatting them for people is left to the caller.
package diag

import (
	"fmt"
	"sort"
	"strings"

	"github.com/samber/lo"
)

// Severity of a diagnostic.
type Severity int

const (
	Error Severity = iota
	Warning
)

func (s Severity) String() string {
	if s == Warning {
		return "warning"
	}
	return "error"
}

// Kind names the pipeline stage a diagnostic belongs to.
type Kind int

const (
	LexicalError Kind = iota
	PreprocessorError
	ParseError
	LegalityError
	ResolutionError
	EncodingError
)

var kindNames = []string{
	LexicalError:      "lexical",
	PreprocessorError: "preprocessor",
	ParseError:        "parse",
	LegalityError:     "legality",
	ResolutionError:   "resolution",
	EncodingError:     "encoding",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Position is a location in a source file. Line and Column start at 1.
type Position struct {
	File   string
	Line   int
	Column int
}

func (p Position) String() string {
	var b strings.Builder
	if p.File != "" {
		b.WriteString(p.File)
		b.WriteByte(':')
	}
	fmt.Fprintf(&b, "%d", p.Line)
	if p.Column > 0 {
		fmt.Fprintf(&b, ":%d", p.Column)
	}
	return b.String()
}

// Before orders positions by file, then line, then column.
func (p Position) Before(q Position) bool {
	if p.File != q.File {
		return p.File < q.File
	}
	if p.Line != q.Line {
		return p.Line < q.Line
	}
	return p.Column < q.Column
}

// NoBundle marks a diagnostic that is not tied to a bundle.
const NoBundle = -1

// Diagnostic is one error or warning.
type Diagnostic struct {
	Severity Severity
	Kind     Kind
	Pos      Position
	// Bundle is the source-order index of the offending bundle, or NoBundle.
	Bundle  int
	Message string
}

func (d *Diagnostic) Error() string {
	return fmt.Sprintf("%s: %s %s: %s", d.Pos, d.Kind, d.Severity, d.Message)
}

// List collects diagnostics in the order they were raised.
type List []*Diagnostic

// Add appends d.
func (l *List) Add(d *Diagnostic) {
	*l = append(*l, d)
}

// Append appends every diagnostic of other.
func (l *List) Append(other List) {
	*l = append(*l, other...)
}

// Errorf records an error that is not yet tied to a bundle.
func (l *List) Errorf(kind Kind, pos Position, format string, args ...any) *Diagnostic {
	d := &Diagnostic{Severity: Error, Kind: kind, Pos: pos, Bundle: NoBundle, Message: fmt.Sprintf(format, args...)}
	l.Add(d)
	return d
}

// Warnf records a warning.
func (l *List) Warnf(kind Kind, pos Position, format string, args ...any) *Diagnostic {
	d := &Diagnostic{Severity: Warning, Kind: kind, Pos: pos, Bundle: NoBundle, Message: fmt.Sprintf(format, args...)}
	l.Add(d)
	return d
}

// HasErrors reports whether any diagnostic is an error.
func (l List) HasErrors() bool {
	return lo.ContainsBy(l, func(d *Diagnostic) bool { return d.Severity == Error })
}

// Errors returns only the errors.
func (l List) Errors() List {
	return lo.Filter(l, func(d *Diagnostic, _ int) bool { return d.Severity == Error })
}

// Warnings returns only the warnings.
func (l List) Warnings() List {
	return lo.Filter(l, func(d *Diagnostic, _ int) bool { return d.Severity == Warning })
}

// OfKind returns the diagnostics raised by one stage.
func (l List) OfKind(k Kind) List {
	return lo.Filter(l, func(d *Diagnostic, _ int) bool { return d.Kind == k })
}

// Sort orders the list by source position, keeping the raise order of
// diagnostics at the same position.
func (l List) Sort() {
	sort.SliceStable(l, func(i, j int) bool { return l[i].Pos.Before(l[j].Pos) })
}

// Err returns the list as an error when it holds at least one error.
func (l List) Err() error {
	if !l.HasErrors() {
		return nil
	}
	return l
}

// Error joins every error of the list, one per line.
func (l List) Error() string {
	errs := l.Errors()
	switch len(errs) {
	case 0:
		return "no errors"
	case 1:
		return errs[0].Error()
	}
	lines := lo.Map(errs, func(d *Diagnostic, _ int) string { return d.Error() })
	return fmt.Sprintf("%d errors:\n%s", len(errs), strings.Join(lines, "\n"))
}

// Unwrap exposes the individual diagnostics to errors.Is and errors.As.
func (l List) Unwrap() []error {
	return lo.Map(l.Errors(), func(d *Diagnostic, _ int) error { return d })
}
