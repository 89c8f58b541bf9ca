// Package preproc resolves macros and conditional assembly on a lexed token
// stream. Its output is a flat token stream with every IFDEF block reduced to
// the taken branch and every macro invocation replaced by its body.
package preproc

import (
	"strconv"
	"strings"

	"github.com/golang/glog"

	"github.com/Urethramancer/scudsp/diag"
	"github.com/Urethramancer/scudsp/lexer"
)

// StrictNesting is the vendor assembler's conditional nesting limit.
const StrictNesting = 16

// DefaultExpansionDepth bounds nested macro expansion.
const DefaultExpansionDepth = 64

// Options controls preprocessing.
type Options struct {
	// Strict re-imposes the vendor limit of 16 nested conditionals.
	Strict bool
	// Defines are predefined names, as if written with DEFINE name value.
	Defines map[string]int64
	// MaxExpansionDepth bounds macro nesting; zero selects DefaultExpansionDepth.
	MaxExpansionDepth int
}

// frame is one open IFDEF/IFNDEF block.
type frame struct {
	taking       bool
	parentTaking bool
	seenElse     bool
	pos          diag.Position
	directive    string
}

// Preprocessor holds the macro table and conditional stack of one run.
type Preprocessor struct {
	opts      Options
	macros    map[string]*Macro
	defines   map[string]*Macro
	constants map[string]bool
	stack     []frame
	defining  *Macro
	expanding map[string]bool
	runaway   map[string]bool
	ended     bool
	endedWarn bool
	out       []lexer.Token
	diags     diag.List
}

// New creates a preprocessor with the predefined names of opts.
func New(opts Options) *Preprocessor {
	if opts.MaxExpansionDepth <= 0 {
		opts.MaxExpansionDepth = DefaultExpansionDepth
	}
	p := &Preprocessor{
		opts:      opts,
		macros:    make(map[string]*Macro),
		defines:   make(map[string]*Macro),
		constants: make(map[string]bool),
		expanding: make(map[string]bool),
		runaway:   make(map[string]bool),
	}
	for name, v := range opts.Defines {
		p.defines[strings.ToLower(name)] = &Macro{
			Name: name,
			Body: []lexer.Token{{Kind: lexer.Integer, Text: strconv.FormatInt(v, 10), Value: v}},
		}
	}
	return p
}

// Process runs a fresh preprocessor over tokens.
func Process(tokens []lexer.Token, opts Options) ([]lexer.Token, diag.List) {
	return New(opts).Process(tokens)
}

// Process expands tokens. When the returned list has errors the token stream
// must not be parsed.
func (p *Preprocessor) Process(tokens []lexer.Token) ([]lexer.Token, diag.List) {
	var eof lexer.Token
	for _, l := range splitLines(tokens) {
		if len(l) == 1 && l[0].Kind == lexer.EOF {
			eof = l[0]
			break
		}
		p.line(l, 0)
	}

	if p.defining != nil {
		p.diags.Errorf(diag.PreprocessorError, p.defining.Pos, "MACRO %q has no matching ENDM", p.defining.Name)
		p.defining = nil
	}
	for _, f := range p.stack {
		p.diags.Errorf(diag.PreprocessorError, f.pos, "%s has no matching ENDIF", strings.ToUpper(f.directive))
	}
	p.stack = nil

	if eof.Kind != lexer.EOF {
		eof = lexer.Token{Kind: lexer.EOF}
	}
	p.out = append(p.out, eof)
	glog.V(1).Infof("preprocess: %d tokens out, %d macros", len(p.out), len(p.macros))
	return p.out, p.diags
}

// Macro looks up a macro by name.
func (p *Preprocessor) Macro(name string) (*Macro, bool) {
	m, ok := p.macros[strings.ToLower(name)]
	return m, ok
}

// Depth is the number of currently open conditional blocks.
func (p *Preprocessor) Depth() int {
	return len(p.stack)
}

func (p *Preprocessor) taking() bool {
	return len(p.stack) == 0 || p.stack[len(p.stack)-1].taking
}

// defined reports whether IFDEF considers name defined.
func (p *Preprocessor) defined(name string) bool {
	key := strings.ToLower(name)
	return p.defines[key] != nil || p.macros[key] != nil || p.constants[key]
}

// line handles one source line, including its trailing Newline token.
func (p *Preprocessor) line(l []lexer.Token, depth int) {
	if p.defining != nil {
		p.collect(l)
		return
	}

	body := l
	var label *lexer.Token
	if len(body) > 0 && body[0].Kind == lexer.Label {
		label = &body[0]
		body = body[1:]
	}
	first := body[0]

	if p.ended {
		if !first.EndOfLine() && !p.endedWarn {
			p.endedWarn = true
			p.diags.Warnf(diag.PreprocessorError, first.Pos, "text after ENDS is ignored")
		}
		return
	}

	if first.Kind == lexer.Directive {
		switch first.Text {
		case "ifdef", "ifndef", "else", "endif":
			if label != nil {
				p.diags.Errorf(diag.PreprocessorError, label.Pos, "label %q cannot precede %s", label.Text, strings.ToUpper(first.Text))
			}
			p.conditional(first, body[1:])
			return
		}
	}

	if !p.taking() {
		return
	}

	if first.Kind == lexer.Directive {
		switch first.Text {
		case "define":
			p.define(first, body[1:])
			return
		case "undef":
			p.undef(first, body[1:])
			return
		case "endm":
			p.diags.Errorf(diag.PreprocessorError, first.Pos, "ENDM without MACRO")
			return
		case "ends":
			p.ended = true
			p.trailing(first, body[1:])
			return
		}
	}

	if first.Kind == lexer.Identifier && len(body) > 1 && body[1].Is(lexer.Directive, "macro") {
		if label != nil {
			p.diags.Errorf(diag.PreprocessorError, label.Pos, "label %q cannot precede a macro definition", label.Text)
		}
		p.beginMacro(first, body[2:])
		return
	}

	if first.Kind == lexer.Identifier && len(body) > 1 && (body[1].IsPunct("=") || body[1].Is(lexer.Directive, "equ")) {
		p.constants[strings.ToLower(first.Text)] = true
		rest := p.substitute(body[1:], 0)
		p.emitLine(label, append([]lexer.Token{first}, rest...))
		return
	}

	if first.Kind == lexer.Identifier {
		if m, ok := p.macros[strings.ToLower(first.Text)]; ok {
			p.expand(m, label, first, body[1:], depth)
			return
		}
	}

	p.emitLine(label, p.substitute(body, 0))
}

func (p *Preprocessor) emitLine(label *lexer.Token, body []lexer.Token) {
	if label != nil {
		p.out = append(p.out, *label)
	}
	p.out = append(p.out, body...)
}

// trailing reports operands after a directive that takes none.
func (p *Preprocessor) trailing(dir lexer.Token, rest []lexer.Token) {
	if len(rest) > 0 && !rest[0].EndOfLine() {
		p.diags.Errorf(diag.PreprocessorError, rest[0].Pos, "unexpected %s after %s", rest[0], strings.ToUpper(dir.Text))
	}
}

// conditional handles IFDEF, IFNDEF, ELSE and ENDIF. The stack is a plain
// slice, so nesting depth is bounded only by memory unless Strict is set.
func (p *Preprocessor) conditional(dir lexer.Token, rest []lexer.Token) {
	switch dir.Text {
	case "ifdef", "ifndef":
		if p.opts.Strict && len(p.stack) >= StrictNesting {
			p.diags.Errorf(diag.PreprocessorError, dir.Pos, "conditional nesting exceeds %d levels", StrictNesting)
		}
		f := frame{parentTaking: p.taking(), pos: dir.Pos, directive: dir.Text}
		if len(rest) == 0 || rest[0].EndOfLine() {
			p.diags.Errorf(diag.PreprocessorError, dir.Pos, "%s needs a name", strings.ToUpper(dir.Text))
		} else {
			name := rest[0]
			if name.Kind != lexer.Identifier {
				p.diags.Errorf(diag.PreprocessorError, name.Pos, "%s needs a name, got %s", strings.ToUpper(dir.Text), name)
			}
			cond := p.defined(name.Text)
			if dir.Text == "ifndef" {
				cond = !cond
			}
			f.taking = f.parentTaking && cond
			p.trailing(name, rest[1:])
		}
		p.stack = append(p.stack, f)
		glog.V(2).Infof("%s: %s depth %d taking=%v", dir.Pos, dir.Text, len(p.stack), f.taking)

	case "else":
		if len(p.stack) == 0 {
			p.diags.Errorf(diag.PreprocessorError, dir.Pos, "ELSE without matching IFDEF")
			return
		}
		top := &p.stack[len(p.stack)-1]
		if top.seenElse {
			p.diags.Errorf(diag.PreprocessorError, dir.Pos, "second ELSE for %s at %s", strings.ToUpper(top.directive), top.pos)
			return
		}
		top.seenElse = true
		top.taking = top.parentTaking && !top.taking
		p.trailing(dir, rest)

	case "endif":
		if len(p.stack) == 0 {
			p.diags.Errorf(diag.PreprocessorError, dir.Pos, "ENDIF without matching IFDEF")
			return
		}
		p.stack = p.stack[:len(p.stack)-1]
		p.trailing(dir, rest)
	}
}

// splitLines cuts a token stream after every Newline. The EOF token, if
// present, forms a line of its own.
func splitLines(tokens []lexer.Token) [][]lexer.Token {
	var lines [][]lexer.Token
	start := 0
	for i, t := range tokens {
		if t.Kind == lexer.Newline || t.Kind == lexer.EOF {
			lines = append(lines, tokens[start:i+1])
			start = i + 1
		}
	}
	if start < len(tokens) {
		// Unterminated final line.
		l := append([]lexer.Token(nil), tokens[start:]...)
		lines = append(lines, append(l, lexer.Token{Kind: lexer.Newline, Pos: tokens[len(tokens)-1].Pos}))
	}
	return lines
}
