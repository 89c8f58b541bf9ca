// Package lexer turns DSP assembly source into a flat token stream.
//
// The lexer knows nothing about macros or conditionals: IFDEF and friends come
// out as ordinary Directive tokens for the preprocessor to act on. Every line
// ends with a Newline token and the stream ends with a single EOF token.
package lexer

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/Urethramancer/scudsp/diag"
)

// Limits enforced by the vendor assembler, and by this one in strict mode.
const (
	StrictLineLength  = 255
	StrictIdentLength = 32
)

// Options controls lexing.
type Options struct {
	// Strict re-imposes the vendor tool's line and identifier length limits.
	Strict bool
}

type scanner struct {
	file  string
	opts  Options
	line  int
	src   []rune
	pos   int
	out   []Token
	diags diag.List
}

// Lex tokenises src. The returned diagnostics hold every malformed token; the
// token slice is still complete (malformed tokens are skipped) so callers may
// keep going to find more errors, but must not assemble it.
func Lex(file, src string, opts Options) ([]Token, diag.List) {
	s := &scanner{file: file, opts: opts}
	src = strings.ReplaceAll(src, "\r\n", "\n")
	lines := strings.Split(src, "\n")
	// A trailing newline does not start another line.
	if len(lines) > 1 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	for i, l := range lines {
		s.scanLine(i+1, l)
	}
	s.out = append(s.out, Token{Kind: EOF, Pos: diag.Position{File: file, Line: len(lines) + 1, Column: 1}})
	return s.out, s.diags
}

func (s *scanner) position() diag.Position {
	return diag.Position{File: s.file, Line: s.line, Column: s.pos + 1}
}

func (s *scanner) emit(kind Kind, text string, value int64, col int) {
	s.out = append(s.out, Token{
		Kind:  kind,
		Text:  text,
		Value: value,
		Pos:   diag.Position{File: s.file, Line: s.line, Column: col + 1},
	})
}

func (s *scanner) scanLine(n int, text string) {
	s.line = n
	s.pos = 0
	if !utf8.ValidString(text) {
		s.diags.Errorf(diag.LexicalError, s.position(), "line is not valid UTF-8")
		text = strings.ToValidUTF8(text, "�")
	}
	s.src = []rune(text)
	if s.opts.Strict && len(s.src) > StrictLineLength {
		s.diags.Errorf(diag.LexicalError, s.position(), "line is %d characters long; strict mode allows %d", len(s.src), StrictLineLength)
	}

	for s.pos < len(s.src) {
		c := s.src[s.pos]
		switch {
		case c == ';':
			s.pos = len(s.src)
		case c == ' ' || c == '\t' || c == '\f' || c == '\v':
			s.pos++
		case isIdentStart(c):
			s.scanWord()
		case c >= '0' && c <= '9', c == '$', c == '#', c == '%':
			s.scanNumber()
		case strings.ContainsRune(",+-=()", c):
			s.emit(Punctuation, string(c), 0, s.pos)
			s.pos++
		default:
			s.diags.Errorf(diag.LexicalError, s.position(), "unexpected character %q", c)
			s.pos++
		}
	}
	s.emit(Newline, "", 0, len(s.src))
}

func (s *scanner) scanWord() {
	start := s.pos
	for s.pos < len(s.src) && isIdentPart(s.src[s.pos]) {
		s.pos++
	}
	word := string(s.src[start:s.pos])
	startPos := diag.Position{File: s.file, Line: s.line, Column: start + 1}

	if s.pos < len(s.src) && s.src[s.pos] == ':' {
		s.pos++
		if IsReserved(word) {
			s.diags.Errorf(diag.LexicalError, startPos, "reserved word %q cannot be used as a label", word)
			return
		}
		s.checkIdentLength(word, startPos)
		s.emit(Label, word, 0, start)
		return
	}

	lower := strings.ToLower(word)
	switch {
	case IsMnemonic(lower):
		s.emit(Mnemonic, lower, 0, start)
	case IsDirective(lower):
		s.emit(Directive, lower, 0, start)
	case IsRegister(lower):
		s.emit(Register, lower, 0, start)
	default:
		s.checkIdentLength(word, startPos)
		s.emit(Identifier, word, 0, start)
	}
}

func (s *scanner) checkIdentLength(word string, pos diag.Position) {
	if s.opts.Strict && utf8.RuneCountInString(word) > StrictIdentLength {
		s.diags.Errorf(diag.LexicalError, pos, "identifier %q is longer than %d characters", word, StrictIdentLength)
	}
}

// scanNumber reads $hex, #decimal, %binary, 0x hex or plain decimal literals.
func (s *scanner) scanNumber() {
	start := s.pos
	base := 10
	switch s.src[s.pos] {
	case '$':
		base = 16
		s.pos++
	case '#':
		s.pos++
	case '%':
		base = 2
		s.pos++
	case '0':
		if s.pos+1 < len(s.src) && (s.src[s.pos+1] == 'x' || s.src[s.pos+1] == 'X') {
			base = 16
			s.pos += 2
		}
	}
	digitsStart := s.pos
	for s.pos < len(s.src) && (isIdentPart(s.src[s.pos])) {
		s.pos++
	}
	text := string(s.src[start:s.pos])
	digits := string(s.src[digitsStart:s.pos])
	pos := diag.Position{File: s.file, Line: s.line, Column: start + 1}
	if digits == "" {
		s.diags.Errorf(diag.LexicalError, pos, "number %q has no digits", text)
		return
	}
	v, err := strconv.ParseUint(digits, base, 32)
	if err != nil {
		if ne, ok := err.(*strconv.NumError); ok && ne.Err == strconv.ErrRange {
			s.diags.Errorf(diag.LexicalError, pos, "number %q does not fit in 32 bits", text)
		} else {
			s.diags.Errorf(diag.LexicalError, pos, "malformed base-%d number %q", base, text)
		}
		return
	}
	s.emit(Integer, text, int64(v), start)
}

func isIdentStart(c rune) bool {
	return c == '_' || c == '.' || (c < utf8.RuneSelf && unicode.IsLetter(c))
}

func isIdentPart(c rune) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}
