package assembler

import (
	"github.com/samber/lo"

	"github.com/Urethramancer/scudsp/diag"
	"github.com/Urethramancer/scudsp/dsp"
)

// Program is the result of a successful assembly.
type Program struct {
	// Words holds the object code; index i is program address i.
	Words []uint32
	// Bundles are the parsed lines in source order, with addresses and words.
	Bundles []*Bundle
	// Labels maps every label to its address.
	Labels  map[string]uint32
	Symbols []*Symbol
	// Diagnostics holds the warnings of the run.
	Diagnostics diag.List
}

// Size is the object code size in words.
func (p *Program) Size() int {
	return len(p.Words)
}

// Bytes returns the big-endian image for program RAM.
func (p *Program) Bytes() []byte {
	return dsp.WordsToBytes(p.Words)
}

// BundleAt returns the bundle that emitted the word at addr.
func (p *Program) BundleAt(addr uint32) (*Bundle, bool) {
	return lo.Find(p.Bundles, func(b *Bundle) bool {
		return b.Emits() && addr >= b.Addr && addr < b.Addr+b.Size
	})
}
