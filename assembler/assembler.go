// Package assembler turns SCU DSP source into program RAM words.
//
// Assembly runs lexer, preprocessor, parser, validator, two address passes
// and encoder in order. Each stage reports every problem it can find, and the
// first stage with errors ends the run.
package assembler

import (
	"github.com/golang/glog"

	"github.com/Urethramancer/scudsp/diag"
	"github.com/Urethramancer/scudsp/lexer"
	"github.com/Urethramancer/scudsp/preproc"
)

// Assembler holds the state for the assembly process.
type Assembler struct {
	opts    Options
	symbols *SymbolTable
	diags   diag.List
}

// New creates a new Assembler instance.
func New(opts Options) *Assembler {
	return &Assembler{
		opts:    opts,
		symbols: NewSymbolTable(),
	}
}

// Assemble takes DSP assembly source and returns the program. On failure the
// program is nil and the error is a diag.List holding every error found.
func (asm *Assembler) Assemble(file, src string) (*Program, error) {
	asm.symbols = NewSymbolTable()
	asm.diags = nil
	defer func() { asm.diags.Sort() }()

	tokens, d := lexer.Lex(file, src, lexer.Options{Strict: asm.opts.Strict})
	asm.diags.Append(d)
	if d.HasErrors() {
		return nil, asm.diags.Err()
	}

	tokens, d = preproc.Process(tokens, preproc.Options{
		Strict:            asm.opts.Strict,
		Defines:           asm.opts.Defines,
		MaxExpansionDepth: asm.opts.MaxExpansionDepth,
	})
	asm.diags.Append(d)
	if d.HasErrors() {
		return nil, asm.diags.Err()
	}

	bundles := asm.parseLines(tokens)
	if asm.diags.HasErrors() {
		return nil, asm.diags.Err()
	}

	bundles = asm.validate(bundles)
	if asm.diags.HasErrors() {
		return nil, asm.diags.Err()
	}

	asm.pass1(bundles)
	asm.pass2(bundles)
	if asm.diags.HasErrors() {
		return nil, asm.diags.Err()
	}

	words := asm.encode(bundles)
	if asm.diags.HasErrors() {
		return nil, asm.diags.Err()
	}

	prog := &Program{
		Words:       words,
		Bundles:     bundles,
		Labels:      asm.symbols.Labels(),
		Symbols:     asm.symbols.Symbols(),
		Diagnostics: asm.diags.Warnings(),
	}
	prog.Diagnostics.Sort()
	glog.V(1).Infof("%s: %d words, %d warnings", file, len(words), len(prog.Diagnostics))
	return prog, nil
}

// Diagnostics returns everything reported by the last Assemble call.
func (asm *Assembler) Diagnostics() diag.List {
	return asm.diags
}

// Symbols returns the symbol table of the last Assemble call.
func (asm *Assembler) Symbols() *SymbolTable {
	return asm.symbols
}
