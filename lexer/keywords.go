package lexer

import (
	"strconv"
	"strings"

	"github.com/Urethramancer/scudsp/dsp"
)

var mnemonics = map[string]bool{
	"nop": true, "and": true, "or": true, "xor": true, "add": true, "sub": true,
	"ad2": true, "sr": true, "rr": true, "sl": true, "rl": true, "rl8": true,
	"mov": true, "clr": true, "mvi": true,
	"dma": true, "dmah": true,
	"jmp": true, "btm": true, "lps": true, "end": true, "endi": true,
}

var directives = map[string]bool{
	"equ": true, "org": true, "dw": true, "ds": true, "ends": true,
	"ifdef": true, "ifndef": true, "else": true, "endif": true,
	"define": true, "undef": true, "macro": true, "endm": true,
}

// IsMnemonic reports whether name (any case) is an instruction mnemonic,
// including DMA forms with an add-mode suffix such as DMAH4.
func IsMnemonic(name string) bool {
	name = strings.ToLower(name)
	if mnemonics[name] {
		return true
	}
	_, _, ok := SplitDMA(name)
	return ok
}

// SplitDMA splits a DMA mnemonic into its hold flag and add-mode step.
// Plain DMA and DMAH use step 1.
func SplitDMA(name string) (hold bool, step int, ok bool) {
	name = strings.ToLower(name)
	rest, found := strings.CutPrefix(name, "dma")
	if !found {
		return false, 0, false
	}
	if r, h := strings.CutPrefix(rest, "h"); h {
		hold = true
		rest = r
	}
	if rest == "" {
		return hold, 1, true
	}
	n, err := strconv.Atoi(rest)
	if err != nil {
		return false, 0, false
	}
	if _, valid := dsp.DMAAddCode(n); !valid {
		return false, 0, false
	}
	return hold, n, true
}

// IsDirective reports whether name (any case) is an assembler directive.
func IsDirective(name string) bool {
	return directives[strings.ToLower(name)]
}

// IsRegister reports whether name (any case) is a register or condition keyword.
func IsRegister(name string) bool {
	if _, ok := dsp.LookupRegister(name); ok {
		return true
	}
	_, ok := dsp.LookupCondition(name)
	return ok
}

// IsReserved reports whether name cannot be used as a symbol.
func IsReserved(name string) bool {
	return IsMnemonic(name) || IsDirective(name) || IsRegister(name)
}
