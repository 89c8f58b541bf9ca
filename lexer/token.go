package lexer

import (
	"fmt"

	"github.com/Urethramancer/scudsp/diag"
)

// Kind classifies a token.
type Kind int

const (
	Mnemonic Kind = iota
	Register
	Identifier
	Integer
	Directive
	Punctuation
	Label
	Newline
	EOF
)

var kindNames = [...]string{
	Mnemonic:    "mnemonic",
	Register:    "register",
	Identifier:  "identifier",
	Integer:     "integer",
	Directive:   "directive",
	Punctuation: "punctuation",
	Label:       "label",
	Newline:     "newline",
	EOF:         "end of input",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Token is one lexical element. Keywords (mnemonics, registers, conditions and
// directives) carry their lower-case spelling in Text; identifiers and labels
// keep the case they were written in.
type Token struct {
	Kind  Kind
	Text  string
	Value int64
	Pos   diag.Position
	// Macro names the macro this token was expanded from.
	Macro string
}

// Is reports whether t has the given kind and text.
func (t Token) Is(kind Kind, text string) bool {
	return t.Kind == kind && t.Text == text
}

// IsPunct reports whether t is the punctuation character text.
func (t Token) IsPunct(text string) bool {
	return t.Is(Punctuation, text)
}

// EndOfLine reports whether t terminates a source line.
func (t Token) EndOfLine() bool {
	return t.Kind == Newline || t.Kind == EOF
}

func (t Token) String() string {
	switch t.Kind {
	case Newline, EOF:
		return t.Kind.String()
	case Integer:
		return fmt.Sprintf("integer %s", t.Text)
	case Label:
		return fmt.Sprintf("label '%s:'", t.Text)
	}
	return fmt.Sprintf("%s '%s'", t.Kind, t.Text)
}
