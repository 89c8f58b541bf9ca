package assembler

import "github.com/Urethramancer/scudsp/preproc"

// Options configures an Assembler.
type Options struct {
	// Strict restores the vendor tool's limits: 255-character lines,
	// 32-character identifiers and 16 nested conditionals.
	Strict bool
	// Defines are names predefined for IFDEF and substitution.
	Defines map[string]int64
	// MaxExpansionDepth bounds nested macro expansion.
	MaxExpansionDepth int
}

// DefaultOptions returns the relaxed settings.
func DefaultOptions() Options {
	return Options{
		Defines:           map[string]int64{},
		MaxExpansionDepth: preproc.DefaultExpansionDepth,
	}
}
