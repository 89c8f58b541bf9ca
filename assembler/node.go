package assembler

import "github.com/Urethramancer/scudsp/diag"

// NodeType defines the type of a parsed source line.
type NodeType int

const (
	// NodeBundle is an instruction word, possibly a label-only NOP.
	NodeBundle NodeType = iota
	// NodeConstant is a `name = expr` or `name EQU expr` line.
	NodeConstant
	// NodeOrg moves the location counter forward.
	NodeOrg
	// NodeData emits one word per DW operand.
	NodeData
	// NodeReserve emits DS zero words.
	NodeReserve
)

var nodeNames = [...]string{
	NodeBundle:   "bundle",
	NodeConstant: "constant",
	NodeOrg:      "ORG",
	NodeData:     "DW",
	NodeReserve:  "DS",
}

func (t NodeType) String() string {
	if int(t) < len(nodeNames) {
		return nodeNames[t]
	}
	return "unknown"
}

// Bundle is one parsed source line. Instruction bundles hold their
// micro-operations in source order; directive lines hold their operands in
// Args.
type Bundle struct {
	Type     NodeType
	Label    string
	LabelPos diag.Position
	Ops      []*MicroOp
	// Name is the symbol a NodeConstant defines.
	Name string
	Args []*Operand
	Pos  diag.Position
	// Macro names the macro the line was expanded from, if any.
	Macro string
	// Index is the position of the line among the parsed bundles.
	Index int

	// Set by pass 1.
	Addr uint32
	Size uint32
	// Set by the encoder; len(Words) == Size.
	Words []uint32
}

// Line is the source line the bundle came from.
func (b *Bundle) Line() int {
	return b.Pos.Line
}

// Emits reports whether the bundle occupies program words.
func (b *Bundle) Emits() bool {
	return b.Type != NodeConstant
}
