package assembler

import (
	"github.com/Urethramancer/scudsp/diag"
	"github.com/Urethramancer/scudsp/dsp"
)

// Category is the hardware slot a micro-operation occupies. A bundle holds at
// most one operation per category.
type Category int

const (
	CatALU Category = iota
	CatMultiply
	CatXBus
	CatYBus
	CatAccumulator
	CatD1Bus
	CatImmediate
	CatDMA
	CatFlowControl
)

var categoryNames = [...]string{
	CatALU:         "ALU",
	CatMultiply:    "multiply",
	CatXBus:        "X-bus",
	CatYBus:        "Y-bus",
	CatAccumulator: "accumulator",
	CatD1Bus:       "D1-bus",
	CatImmediate:   "immediate",
	CatDMA:         "DMA",
	CatFlowControl: "flow control",
}

func (c Category) String() string {
	if int(c) < len(categoryNames) {
		return categoryNames[c]
	}
	return "unknown"
}

// Exclusive reports whether the category needs the whole instruction word.
func (c Category) Exclusive() bool {
	return c == CatImmediate || c == CatDMA || c == CatFlowControl
}

// Op is one specific micro-operation.
type Op int

const (
	OpNop Op = iota
	OpAnd
	OpOr
	OpXor
	OpAdd
	OpSub
	OpAd2
	OpSr
	OpRr
	OpSl
	OpRl
	OpRl8
	OpMovX    // MOV [s],X
	OpMovMulP // MOV MUL,P
	OpMovP    // MOV [s],P
	OpMovY    // MOV [s],Y
	OpMovAluA // MOV ALU,A
	OpMovA    // MOV [s],A
	OpClrA    // CLR A
	OpMovImm  // MOV SImm,[d]
	OpMovD1   // MOV [s],[d]
	OpMvi
	OpDMA
	OpJmp
	OpBtm
	OpLps
	OpEnd
	OpEndi
)

// aluOps maps ALU mnemonics to their operation and opcode.
var aluOps = map[string]struct {
	op   Op
	code uint32
}{
	"nop": {OpNop, dsp.ALUNop},
	"and": {OpAnd, dsp.ALUAnd},
	"or":  {OpOr, dsp.ALUOr},
	"xor": {OpXor, dsp.ALUXor},
	"add": {OpAdd, dsp.ALUAdd},
	"sub": {OpSub, dsp.ALUSub},
	"ad2": {OpAd2, dsp.ALUAd2},
	"sr":  {OpSr, dsp.ALUSr},
	"rr":  {OpRr, dsp.ALURr},
	"sl":  {OpSl, dsp.ALUSl},
	"rl":  {OpRl, dsp.ALURl},
	"rl8": {OpRl8, dsp.ALURl8},
}

// aluCodes is the reverse of aluOps, indexed by Op.
var aluCodes = func() map[Op]uint32 {
	m := make(map[Op]uint32, len(aluOps))
	for _, a := range aluOps {
		m[a.op] = a.code
	}
	return m
}()

// flowOps are the flow-control mnemonics without a fixed operand list.
var flowOps = map[string]Op{
	"jmp":  OpJmp,
	"btm":  OpBtm,
	"lps":  OpLps,
	"end":  OpEnd,
	"endi": OpEndi,
}

// arity gives the accepted operand counts of each mnemonic family that does
// not depend on its operands to classify. MOV is classified separately.
var arity = map[string][]int{
	"clr":  {1},
	"mvi":  {2, 3},
	"dma":  {3},
	"jmp":  {1, 2},
	"btm":  {0},
	"lps":  {0},
	"end":  {0},
	"endi": {0},
}

// MicroOp is a single operation within a bundle.
type MicroOp struct {
	Category Category
	Op       Op
	// Mnemonic is the lower-case spelling, including any DMA suffix.
	Mnemonic string
	Operands []*Operand
	Pos      diag.Position

	// DMA transfer attributes from the mnemonic.
	Hold bool
	Step int
}

// operand returns the i'th operand or nil.
func (m *MicroOp) operand(i int) *Operand {
	if i < len(m.Operands) {
		return m.Operands[i]
	}
	return nil
}

// source returns the register an X/Y/D1 move reads.
func (m *MicroOp) source() dsp.Register {
	if op := m.operand(0); op != nil {
		return op.Reg
	}
	return dsp.RegInvalid
}

// dest returns the register a D1 move or MVI writes.
func (m *MicroOp) dest() dsp.Register {
	if op := m.operand(1); op != nil {
		return op.Reg
	}
	return dsp.RegInvalid
}

// classifyMov picks the category and operation of a MOV from its operands.
func classifyMov(src, dst *Operand) (Category, Op) {
	switch dst.Reg {
	case dsp.RegX:
		return CatXBus, OpMovX
	case dsp.RegP:
		if src.Kind == OperandRegister && src.Reg == dsp.RegMUL {
			return CatMultiply, OpMovMulP
		}
		return CatMultiply, OpMovP
	case dsp.RegY:
		return CatYBus, OpMovY
	case dsp.RegA:
		if src.Kind == OperandRegister && src.Reg == dsp.RegALU {
			return CatAccumulator, OpMovAluA
		}
		return CatAccumulator, OpMovA
	}
	if src.Kind == OperandValue {
		return CatD1Bus, OpMovImm
	}
	return CatD1Bus, OpMovD1
}
