package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/samber/lo"
	"golang.org/x/term"

	"github.com/Urethramancer/scudsp/assembler"
	"github.com/Urethramancer/scudsp/diag"
	"github.com/Urethramancer/scudsp/disassembler"
)

const (
	ansiRed    = "\x1b[31m"
	ansiYellow = "\x1b[33m"
	ansiReset  = "\x1b[0m"
)

// useColour resolves the --color setting against the stream diagnostics go to.
func useColour(mode string, f *os.File) (bool, error) {
	switch mode {
	case "always":
		return true, nil
	case "never":
		return false, nil
	case "auto":
		return term.IsTerminal(int(f.Fd())), nil
	}
	return false, fmt.Errorf("--color must be auto, always or never, not %q", mode)
}

func writeDiagnostics(w io.Writer, list diag.List, colour bool) {
	for _, d := range list {
		line := d.Error()
		if colour {
			c := ansiRed
			if d.Severity == diag.Warning {
				c = ansiYellow
			}
			line = c + line + ansiReset
		}
		fmt.Fprintln(w, line)
	}
	if n := len(list.Errors()); n > 0 {
		fmt.Fprintf(w, "%d errors, %d warnings\n", n, len(list.Warnings()))
	}
}

// listing renders one line per emitted word: address, word, disassembly and
// the source line that produced it.
func listing(prog *assembler.Program, src string) string {
	lines := strings.Split(strings.ReplaceAll(src, "\r\n", "\n"), "\n")
	var b strings.Builder
	for _, bn := range prog.Bundles {
		text := ""
		if n := bn.Line(); n >= 1 && n <= len(lines) {
			text = strings.TrimRight(lines[n-1], " \t")
		}
		if !bn.Emits() || bn.Size == 0 {
			fmt.Fprintf(&b, "%-4s %-8s  %-40s %s\n", "", "", "", text)
			continue
		}
		for i, w := range bn.Words {
			inst := disassembler.Decode(w)
			if i > 0 {
				text = ""
			}
			fmt.Fprintf(&b, "%02X   %08X  %-40s %s\n", bn.Addr+uint32(i), w, inst.Text(), text)
		}
	}
	return b.String()
}

// symbolMap lists every symbol as `name kind value`, labels first. Label
// addresses are in hex, constants in decimal.
func symbolMap(prog *assembler.Program) string {
	groups := lo.GroupBy(prog.Symbols, func(s *assembler.Symbol) assembler.SymbolKind { return s.Kind })
	var b strings.Builder
	for _, s := range groups[assembler.SymbolLabel] {
		fmt.Fprintf(&b, "%-32s %-8s $%02X\n", s.Name, s.Kind, s.Value)
	}
	for _, s := range groups[assembler.SymbolConstant] {
		fmt.Fprintf(&b, "%-32s %-8s %d\n", s.Name, s.Kind, s.Value)
	}
	return b.String()
}
