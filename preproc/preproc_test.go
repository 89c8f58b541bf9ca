package preproc

import (
	"fmt"
	"strings"
	"testing"

	"github.com/Urethramancer/scudsp/diag"
	"github.com/Urethramancer/scudsp/lexer"
)

// run lexes and preprocesses src, failing on lexical errors.
func run(t *testing.T, src string, opts Options) ([]lexer.Token, diag.List) {
	t.Helper()
	toks, lexDiags := lexer.Lex("t.dsp", src, lexer.Options{Strict: opts.Strict})
	if lexDiags.HasErrors() {
		t.Fatalf("lex: %v", lexDiags.Err())
	}
	return Process(toks, opts)
}

// render turns tokens back into one string per non-empty line.
func render(toks []lexer.Token) []string {
	var lines []string
	var cur []string
	for _, t := range toks {
		switch t.Kind {
		case lexer.Newline, lexer.EOF:
			if len(cur) > 0 {
				lines = append(lines, strings.Join(cur, " "))
			}
			cur = nil
		case lexer.Label:
			cur = append(cur, t.Text+":")
		default:
			cur = append(cur, t.Text)
		}
	}
	return lines
}

// expandClean preprocesses src and checks it expands without errors to want.
func expandClean(t *testing.T, src string, opts Options, want ...string) {
	t.Helper()
	toks, diags := run(t, src, opts)
	if diags.HasErrors() {
		t.Fatalf("unexpected errors: %v", diags.Err())
	}
	got := render(toks)
	if strings.Join(got, "\n") != strings.Join(want, "\n") {
		t.Errorf("expansion of\n%s\n got: %q\nwant: %q", src, got, want)
	}
}

// expandError preprocesses src and checks for exactly one preprocessor error
// mentioning msg.
func expandError(t *testing.T, src string, opts Options, msg string) *diag.Diagnostic {
	t.Helper()
	_, diags := run(t, src, opts)
	errs := diags.Errors()
	if len(errs) != 1 {
		t.Fatalf("got %d errors, want 1: %v", len(errs), diags)
	}
	if errs[0].Kind != diag.PreprocessorError {
		t.Errorf("kind %s, want preprocessor", errs[0].Kind)
	}
	if !strings.Contains(errs[0].Message, msg) {
		t.Errorf("message %q does not mention %q", errs[0].Message, msg)
	}
	return errs[0]
}

func TestConditionals(t *testing.T) {
	src := `
DEFINE FAST
IFDEF FAST
	mov m0,x
ELSE
	mov m1,x
ENDIF
IFNDEF FAST
	nop
ELSE
	ad2
ENDIF
IFDEF SLOW
	sub
ENDIF
`
	expandClean(t, src, Options{}, "mov m0 , x", "ad2")
}

func TestConditionalsSeeConstantsAndMacros(t *testing.T) {
	src := `
size = 4
clear MACRO
	clr a
ENDM
IFDEF size
	nop
ENDIF
IFDEF clear
	end
ENDIF
`
	expandClean(t, src, Options{}, "size = 4", "nop", "end")
}

func TestCommandLineDefines(t *testing.T) {
	src := `
IFDEF DEBUG
	mvi DEBUG,pl
ENDIF
`
	expandClean(t, src, Options{Defines: map[string]int64{"debug": 3}}, "mvi 3 , pl")
	expandClean(t, src, Options{})
}

func TestUndef(t *testing.T) {
	src := `
DEFINE OPT 1
UNDEF OPT
IFDEF OPT
	nop
ELSE
	end
ENDIF
`
	expandClean(t, src, Options{}, "end")
}

// nested builds n levels of IFDEF around a single line.
func nested(n int) string {
	var b strings.Builder
	b.WriteString("DEFINE ON\n")
	for i := 0; i < n; i++ {
		b.WriteString("IFDEF ON\n")
	}
	b.WriteString("nop\n")
	for i := 0; i < n; i++ {
		b.WriteString("ENDIF\n")
	}
	return b.String()
}

func TestDeepNesting(t *testing.T) {
	for _, depth := range []int{1, 16, 20, 100} {
		t.Run(fmt.Sprintf("depth %d", depth), func(t *testing.T) {
			expandClean(t, nested(depth), Options{}, "nop")
		})
	}
}

func TestStrictNesting(t *testing.T) {
	expandClean(t, nested(16), Options{Strict: true}, "nop")
	expandError(t, nested(17), Options{Strict: true}, "exceeds 16 levels")
}

func TestNestedFalseBranchStaysFalse(t *testing.T) {
	src := `
IFDEF NOPE
	IFNDEF NOPE
		sub
	ELSE
		add
	ENDIF
ELSE
	and
ENDIF
`
	expandClean(t, src, Options{}, "and")
}

func TestConditionalErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		msg  string
		line int
	}{
		{"else without if", "nop\nELSE\n", "ELSE without matching IFDEF", 2},
		{"endif without if", "ENDIF\n", "ENDIF without matching IFDEF", 1},
		{"unterminated", "nop\nIFDEF FLAG\nnop\n", "IFDEF has no matching ENDIF", 2},
		{"second else", "IFDEF FLAG\nELSE\nELSE\nENDIF\n", "second ELSE", 3},
		{"missing name", "IFDEF\nENDIF\n", "needs a name", 1},
		{"trailing text", "IFDEF FLAG\nENDIF junk\n", "unexpected identifier 'junk'", 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := expandError(t, tt.src, Options{}, tt.msg)
			if d.Pos.Line != tt.line {
				t.Errorf("error on line %d, want %d", d.Pos.Line, tt.line)
			}
		})
	}
}

func TestMacroExpansion(t *testing.T) {
	src := `
load MACRO reg, val
	mvi val,reg
ENDM
start: load pl, 5
	load mc0, start
`
	expandClean(t, src, Options{}, "start: mvi 5 , pl", "mvi start , mc0")
}

func TestMacroPositions(t *testing.T) {
	src := "twice MACRO\n\tnop\n\tnop\nENDM\n\n\ttwice\n"
	toks, diags := run(t, src, Options{})
	if diags.HasErrors() {
		t.Fatal(diags.Err())
	}
	n := 0
	for _, tok := range toks {
		if tok.Kind != lexer.Mnemonic {
			continue
		}
		n++
		if tok.Pos.Line != 6 || tok.Pos.Column != 2 {
			t.Errorf("expanded %s at %s, want the invocation at 6:2", tok, tok.Pos)
		}
		if tok.Macro != "twice" {
			t.Errorf("expanded %s records macro %q", tok, tok.Macro)
		}
	}
	if n != 2 {
		t.Errorf("got %d expanded instructions, want 2", n)
	}
}

func TestNestedMacros(t *testing.T) {
	src := `
inner MACRO r
	mov r,x
ENDM
outer MACRO first, second
	inner first
	inner second
ENDM
	outer m0, m1
`
	expandClean(t, src, Options{}, "mov m0 , x", "mov m1 , x")
}

func TestMacroWithConditionalBody(t *testing.T) {
	src := `
pick MACRO
IFDEF WIDE
	mov m0,y
ELSE
	mov m1,y
ENDIF
ENDM
	pick
DEFINE WIDE
	pick
`
	expandClean(t, src, Options{}, "mov m1 , y", "mov m0 , y")
}

func TestMacroRedefinition(t *testing.T) {
	same := "m MACRO\nnop\nENDM\nm MACRO\nnop\nENDM\n"
	toks, diags := run(t, same, Options{})
	if diags.HasErrors() {
		t.Fatalf("identical redefinition: %v", diags.Err())
	}
	if len(diags.Warnings()) != 1 {
		t.Errorf("identical redefinition gave %d warnings, want 1", len(diags.Warnings()))
	}
	if len(render(toks)) != 0 {
		t.Errorf("definitions produced output %q", render(toks))
	}

	d := expandError(t, "m MACRO\nnop\nENDM\nm MACRO\nend\nENDM\n", Options{}, "redefined with a different body")
	if d.Pos.Line != 4 {
		t.Errorf("redefinition reported on line %d, want 4", d.Pos.Line)
	}
}

func TestSelfInvokingMacro(t *testing.T) {
	tests := []struct {
		name string
		src  string
		msg  string
		line int
	}{
		{"direct", "forever MACRO\n\tforever\nENDM\n\tforever\n", `macro "forever" invokes itself`, 4},
		{"twice per body", "rec MACRO\nrec\nrec\nENDM\nrec\n", `macro "rec" invokes itself`, 5},
		{"mutual", "ping MACRO\npong\nENDM\npong MACRO\nping\nENDM\nping\n", `macro "ping" invokes itself`, 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := expandError(t, tt.src, Options{}, tt.msg)
			if d.Pos.Line != tt.line {
				t.Errorf("error on line %d, want %d", d.Pos.Line, tt.line)
			}
		})
	}
}

// chain defines n macros, each invoking the next, and calls the first.
func chain(n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "lvl%d MACRO\n", i)
		if i+1 < n {
			fmt.Fprintf(&b, "\tlvl%d\n", i+1)
		} else {
			b.WriteString("\tnop\n")
		}
		b.WriteString("ENDM\n")
	}
	b.WriteString("\tlvl0\n")
	return b.String()
}

func TestMacroDepthLimit(t *testing.T) {
	expandClean(t, chain(8), Options{MaxExpansionDepth: 8}, "nop")
	expandError(t, chain(9), Options{MaxExpansionDepth: 8}, "nested deeper than 8 levels")
	expandClean(t, chain(64), Options{}, "nop")
	expandError(t, chain(65), Options{}, "nested deeper than 64 levels")
}

func TestMacroErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		msg  string
	}{
		{"missing endm", "m MACRO\nnop\n", "has no matching ENDM"},
		{"stray endm", "ENDM\n", "ENDM without MACRO"},
		{"argument count", "m MACRO v\nnop\nENDM\nm 1, 2\n", "takes 1 arguments, got 2"},
		{"duplicate parameter", "m MACRO val, val\nENDM\n", "duplicate parameter"},
		{"nested definition", "m MACRO\nn MACRO\nENDM\n", "defined inside macro"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expandError(t, tt.src, Options{}, tt.msg)
		})
	}
}

func TestDefineSubstitution(t *testing.T) {
	src := `
DEFINE SRC m2
DEFINE DST mc1
DEFINE MOVE SRC,DST
	mov MOVE
`
	expandClean(t, src, Options{}, "mov m2 , mc1")
}

func TestDefineRedefinition(t *testing.T) {
	expandError(t, "DEFINE OPT 1\nDEFINE OPT 2\n", Options{}, "redefined with a different body")
}

func TestSelfReferentialDefine(t *testing.T) {
	tests := []struct {
		name string
		src  string
		msg  string
		line int
	}{
		{"direct", "DEFINE LOOP LOOP\nmvi LOOP,pl\n", `DEFINE "LOOP" refers to itself`, 2},
		{"twice per value", "DEFINE QQ QQ QQ\nmvi QQ,pl\n", `DEFINE "QQ" refers to itself`, 2},
		{"mutual", "DEFINE AA BB\nDEFINE BB AA\nmvi AA,pl\n", `DEFINE "AA" refers to itself`, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := expandError(t, tt.src, Options{}, tt.msg)
			if d.Pos.Line != tt.line {
				t.Errorf("error on line %d, want %d", d.Pos.Line, tt.line)
			}
		})
	}
}

func TestEnds(t *testing.T) {
	toks, diags := run(t, "nop\nENDS\nend\n", Options{})
	if diags.HasErrors() {
		t.Fatal(diags.Err())
	}
	if got := render(toks); len(got) != 1 || got[0] != "nop" {
		t.Errorf("got %q, want only nop", got)
	}
	if len(diags.Warnings()) != 1 {
		t.Errorf("got %d warnings, want 1 for text after ENDS", len(diags.Warnings()))
	}
}
