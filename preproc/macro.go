package preproc

import (
	"fmt"
	"strings"

	"github.com/golang/glog"
	"github.com/samber/lo"

	"github.com/Urethramancer/scudsp/diag"
	"github.com/Urethramancer/scudsp/lexer"
)

// Macro is a named token sequence. Block macros (MACRO/ENDM) have parameters
// and a body of whole lines; DEFINE names have a single-line body and no
// parameters.
type Macro struct {
	Name   string
	Params []string
	Body   []lexer.Token
	Pos    diag.Position
}

// sameAs compares definitions by spelling, ignoring where they were written.
func (m *Macro) sameAs(o *Macro) bool {
	if len(m.Params) != len(o.Params) || len(m.Body) != len(o.Body) {
		return false
	}
	for i := range m.Params {
		if !strings.EqualFold(m.Params[i], o.Params[i]) {
			return false
		}
	}
	for i := range m.Body {
		a, b := m.Body[i], o.Body[i]
		if a.Kind != b.Kind || a.Text != b.Text || a.Value != b.Value {
			return false
		}
	}
	return true
}

func (m *Macro) param(name string) int {
	for i, p := range m.Params {
		if strings.EqualFold(p, name) {
			return i
		}
	}
	return -1
}

func (p *Preprocessor) beginMacro(name lexer.Token, rest []lexer.Token) {
	if lexer.IsReserved(name.Text) {
		p.diags.Errorf(diag.PreprocessorError, name.Pos, "reserved word %q cannot name a macro", name.Text)
	}
	m := &Macro{Name: name.Text, Pos: name.Pos}
	expectName := true
	for _, t := range rest {
		if t.EndOfLine() {
			break
		}
		switch {
		case expectName && t.Kind == lexer.Identifier:
			if m.param(t.Text) >= 0 {
				p.diags.Errorf(diag.PreprocessorError, t.Pos, "duplicate parameter %q in macro %q", t.Text, m.Name)
			}
			m.Params = append(m.Params, t.Text)
			expectName = false
		case !expectName && t.IsPunct(","):
			expectName = true
		default:
			p.diags.Errorf(diag.PreprocessorError, t.Pos, "unexpected %s in parameters of macro %q", t, m.Name)
		}
	}
	if expectName && len(m.Params) > 0 {
		p.diags.Errorf(diag.PreprocessorError, name.Pos, "macro %q parameter list ends with a comma", m.Name)
	}
	p.defining = m
}

// collect adds one line to the macro being defined, or closes it at ENDM.
// Directives inside the body, conditionals included, are kept verbatim and
// only act when the macro is expanded.
func (p *Preprocessor) collect(l []lexer.Token) {
	m := p.defining
	body := l
	if len(body) > 0 && body[0].Kind == lexer.Label {
		body = body[1:]
	}
	if body[0].Is(lexer.Directive, "endm") {
		if len(body) != len(l) {
			p.diags.Errorf(diag.PreprocessorError, l[0].Pos, "label %q cannot precede ENDM", l[0].Text)
		}
		p.trailing(body[0], body[1:])
		p.defining = nil
		p.store(p.macros, m, "macro")
		return
	}
	if len(body) > 1 && body[0].Kind == lexer.Identifier && body[1].Is(lexer.Directive, "macro") {
		p.diags.Errorf(diag.PreprocessorError, body[0].Pos, "macro %q defined inside macro %q", body[0].Text, m.Name)
		return
	}
	m.Body = append(m.Body, l...)
}

// store records a definition. Redefining a name with a different body is an
// error; repeating an identical definition only warns.
func (p *Preprocessor) store(table map[string]*Macro, m *Macro, what string) {
	key := strings.ToLower(m.Name)
	if old, ok := table[key]; ok {
		if old.sameAs(m) {
			p.diags.Warnf(diag.PreprocessorError, m.Pos, "%s %q redefined identically", what, m.Name)
		} else {
			where := "on the command line"
			if old.Pos.Line > 0 {
				where = "at " + old.Pos.String()
			}
			p.diags.Errorf(diag.PreprocessorError, m.Pos, "%s %q redefined with a different body (first defined %s)", what, m.Name, where)
			return
		}
	}
	table[key] = m
	glog.V(2).Infof("%s: %s %s, %d params, %d tokens", m.Pos, what, m.Name, len(m.Params), len(m.Body))
}

// define handles DEFINE name [tokens...].
func (p *Preprocessor) define(dir lexer.Token, rest []lexer.Token) {
	if len(rest) == 0 || rest[0].EndOfLine() {
		p.diags.Errorf(diag.PreprocessorError, dir.Pos, "DEFINE needs a name")
		return
	}
	name := rest[0]
	if name.Kind != lexer.Identifier {
		p.diags.Errorf(diag.PreprocessorError, name.Pos, "DEFINE needs a name, got %s", name)
		return
	}
	value := lo.Filter(rest[1:], func(t lexer.Token, _ int) bool { return !t.EndOfLine() })
	p.store(p.defines, &Macro{Name: name.Text, Body: value, Pos: name.Pos}, "define")
}

// undef handles UNDEF name. Removing an unknown name is harmless.
func (p *Preprocessor) undef(dir lexer.Token, rest []lexer.Token) {
	if len(rest) == 0 || rest[0].EndOfLine() || rest[0].Kind != lexer.Identifier {
		p.diags.Errorf(diag.PreprocessorError, dir.Pos, "UNDEF needs a name")
		return
	}
	key := strings.ToLower(rest[0].Text)
	delete(p.defines, key)
	delete(p.constants, key)
	p.trailing(rest[0], rest[1:])
}

// substitute replaces DEFINE names in a line. Substituted text is scanned
// again, so a value may name other DEFINEs. A name met again inside its own
// substitution is reported once and left in place.
func (p *Preprocessor) substitute(line []lexer.Token, depth int) []lexer.Token {
	if len(p.defines) == 0 {
		return line
	}
	active := make(map[string]bool)
	var out []lexer.Token
	var walk func(toks []lexer.Token, level int)
	walk = func(toks []lexer.Token, level int) {
		for _, t := range toks {
			key := strings.ToLower(t.Text)
			d, ok := p.defines[key]
			if t.Kind != lexer.Identifier || !ok {
				out = append(out, t)
				continue
			}
			switch {
			case active[key]:
				p.recursion(t.Pos, "DEFINE %q refers to itself", d.Name)
				out = append(out, t)
				continue
			case level >= p.opts.MaxExpansionDepth:
				p.recursion(t.Pos, "DEFINE substitution nested deeper than %d levels", p.opts.MaxExpansionDepth)
				out = append(out, t)
				continue
			}
			body := make([]lexer.Token, len(d.Body))
			for i, v := range d.Body {
				v.Pos = t.Pos
				if v.Macro == "" {
					v.Macro = t.Macro
				}
				body[i] = v
			}
			active[key] = true
			walk(body, level+1)
			delete(active, key)
		}
	}
	walk(line, depth)
	return out
}

// recursion reports a runaway expansion once per message.
func (p *Preprocessor) recursion(pos diag.Position, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if p.runaway[msg] {
		return
	}
	p.runaway[msg] = true
	p.diags.Errorf(diag.PreprocessorError, pos, "%s", msg)
}

// expand replaces a macro invocation with the macro body. Body tokens take the
// position of the invocation and remember the macro name; argument tokens keep
// their own positions. A label on the invocation line lands on the first
// expanded line.
func (p *Preprocessor) expand(m *Macro, label *lexer.Token, call lexer.Token, rest []lexer.Token, depth int) {
	key := strings.ToLower(m.Name)
	switch {
	case p.expanding[key]:
		p.recursion(call.Pos, "macro %q invokes itself", m.Name)
		return
	case depth >= p.opts.MaxExpansionDepth:
		p.recursion(call.Pos, "macro %q expansion nested deeper than %d levels", m.Name, p.opts.MaxExpansionDepth)
		return
	}
	args := splitArgs(rest)
	if len(args) != len(m.Params) {
		p.diags.Errorf(diag.PreprocessorError, call.Pos, "macro %q takes %d arguments, got %d", m.Name, len(m.Params), len(args))
		return
	}
	p.expanding[key] = true
	defer delete(p.expanding, key)
	glog.V(2).Infof("%s: expanding %s depth %d", call.Pos, m.Name, depth+1)

	var body []lexer.Token
	for _, t := range m.Body {
		if t.Kind == lexer.Identifier {
			if i := m.param(t.Text); i >= 0 {
				body = append(body, args[i]...)
				continue
			}
		}
		t.Pos = call.Pos
		t.Macro = m.Name
		body = append(body, t)
	}

	lines := splitLines(body)
	if len(lines) == 0 {
		if label != nil {
			p.out = append(p.out, *label, lexer.Token{Kind: lexer.Newline, Pos: call.Pos})
		}
		return
	}

	open := len(p.stack)
	for i, l := range lines {
		if i == 0 && label != nil {
			l = append([]lexer.Token{*label}, l...)
		}
		p.line(l, depth+1)
	}
	if p.defining != nil {
		p.diags.Errorf(diag.PreprocessorError, call.Pos, "macro %q leaves MACRO %q open", m.Name, p.defining.Name)
		p.defining = nil
	}
	if len(p.stack) != open {
		p.diags.Errorf(diag.PreprocessorError, call.Pos, "macro %q leaves conditional blocks unbalanced", m.Name)
		if len(p.stack) > open {
			p.stack = p.stack[:open]
		}
	}
}

// splitArgs splits invocation operands at top-level commas.
func splitArgs(rest []lexer.Token) [][]lexer.Token {
	var args [][]lexer.Token
	var cur []lexer.Token
	depth := 0
	seen := false
	for _, t := range rest {
		if t.EndOfLine() {
			break
		}
		seen = true
		switch {
		case t.IsPunct("("):
			depth++
		case t.IsPunct(")"):
			depth--
		case t.IsPunct(",") && depth == 0:
			args = append(args, cur)
			cur = nil
			continue
		}
		cur = append(cur, t)
	}
	if seen {
		args = append(args, cur)
	}
	return args
}
