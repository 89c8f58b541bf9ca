// Package dsp describes the Sega Saturn SCU DSP instruction word: field
// positions, opcode values and the register and condition code tables the
// assembler and disassembler share.
package dsp

// ProgramWords is the size of the DSP program RAM in 32-bit words.
const ProgramWords = 256

// Nop is the architectural no-operation word. Every operation field at zero
// means "do nothing" on every bus.
const Nop uint32 = 0

// Word classes, selected by the top bits of the instruction word.
const (
	ClassOperation uint32 = 0x0 << 30 // 00: ALU + X/Y/D1 bus control
	ClassImmediate uint32 = 0x2 << 30 // 10: MVI
	ClassSpecial   uint32 = 0x3 << 30 // 11: DMA, JMP, loop, end
)

// Special-class opcodes (bits 31-28).
const (
	OPDMA  uint32 = 0xC << 28
	OPJMP  uint32 = 0xD << 28
	OPBTM  uint32 = 0xE0000000
	OPLPS  uint32 = 0xE8000000
	OPEND  uint32 = 0xF0000000
	OPENDI uint32 = 0xF8000000
)

// Field is a contiguous bit range inside the instruction word.
type Field struct {
	Name  string
	Shift uint
	Width uint
}

// Mask returns the field mask, already shifted into place.
func (f Field) Mask() uint32 {
	return ((1 << f.Width) - 1) << f.Shift
}

// Put places v into the field. Bits of v beyond the field width are dropped.
func (f Field) Put(word, v uint32) uint32 {
	return word&^f.Mask() | (v<<f.Shift)&f.Mask()
}

// Get extracts the field from word.
func (f Field) Get(word uint32) uint32 {
	return (word & f.Mask()) >> f.Shift
}

// Operation-class fields.
var (
	FieldALU      = Field{"ALU", 26, 4}
	FieldXLoad    = Field{"X-bus RX load", 25, 1}
	FieldPControl = Field{"X-bus P control", 23, 2}
	FieldXSource  = Field{"X-bus source", 20, 3}
	FieldYLoad    = Field{"Y-bus RY load", 19, 1}
	FieldAControl = Field{"Y-bus A control", 17, 2}
	FieldYSource  = Field{"Y-bus source", 14, 3}
	FieldD1Ctl    = Field{"D1-bus control", 12, 2}
	FieldD1Dest   = Field{"D1-bus destination", 8, 4}
	FieldD1Imm    = Field{"D1-bus immediate", 0, 8}
	FieldD1Source = Field{"D1-bus source", 0, 4}
)

// MVI fields.
var (
	FieldMVIDest  = Field{"MVI destination", 26, 4}
	FieldMVICond  = Field{"MVI condition flag", 25, 1}
	FieldMVIImm   = Field{"MVI immediate", 0, 25}
	FieldMVICCode = Field{"MVI condition", 19, 6}
	FieldMVICImm  = Field{"MVI conditional immediate", 0, 19}
)

// DMA fields.
var (
	FieldDMAAdd   = Field{"DMA add mode", 15, 3}
	FieldDMAHold  = Field{"DMA hold", 14, 1}
	FieldDMACtReg = Field{"DMA count from register", 13, 1}
	FieldDMADir   = Field{"DMA direction", 12, 1}
	FieldDMARAM   = Field{"DMA RAM", 8, 3}
	FieldDMACount = Field{"DMA count", 0, 8}
	FieldDMACtSrc = Field{"DMA count register", 0, 3}
)

// Special-class fields.
var (
	FieldClass     = Field{"class", 30, 2}
	FieldTop4      = Field{"opcode", 28, 4}
	FieldJMPCond   = Field{"JMP condition", 19, 6}
	FieldJMPTarget = Field{"JMP address", 0, 8}
)

// ALU operation codes (bits 29-26).
const (
	ALUNop uint32 = 0x0
	ALUAnd uint32 = 0x1
	ALUOr  uint32 = 0x2
	ALUXor uint32 = 0x3
	ALUAdd uint32 = 0x4
	ALUSub uint32 = 0x5
	ALUAd2 uint32 = 0x6
	ALUSr  uint32 = 0x8
	ALURr  uint32 = 0x9
	ALUSl  uint32 = 0xA
	ALURl  uint32 = 0xB
	ALURl8 uint32 = 0xF
)

// P control values (bits 24-23).
const (
	PMul    uint32 = 0x2 // MOV MUL,P
	PSource uint32 = 0x3 // MOV [s],P
)

// A control values (bits 18-17).
const (
	AClear  uint32 = 0x1 // CLR A
	AALU    uint32 = 0x2 // MOV ALU,A
	ASource uint32 = 0x3 // MOV [s],A
)

// D1-bus control values (bits 13-12).
const (
	D1Imm    uint32 = 0x1 // MOV SImm,[d]
	D1Source uint32 = 0x3 // MOV [s],[d]
)

// DMA add mode codes, indexed by the field value. A D0 to DSP RAM transfer only
// honours the low bit.
var DMAAddModes = []int{0, 1, 2, 4, 8, 16, 32, 64}

// DMAAddCode returns the field value for a mnemonic add-mode suffix.
func DMAAddCode(step int) (uint32, bool) {
	for i, v := range DMAAddModes {
		if v == step {
			return uint32(i), true
		}
	}
	return 0, false
}
