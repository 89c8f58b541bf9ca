package disassembler

import (
	"fmt"
	"strings"

	"github.com/Urethramancer/scudsp/dsp"
)

// MicroOp is one decoded operation of a bundle.
type MicroOp struct {
	Mnemonic string
	Operands []string
}

func (m MicroOp) String() string {
	if len(m.Operands) == 0 {
		return m.Mnemonic
	}
	return m.Mnemonic + " " + strings.Join(m.Operands, ",")
}

// Instruction represents a single decoded word at a specific address.
type Instruction struct {
	Address uint32
	Word    uint32
	Format  dsp.Format
	Ops     []MicroOp
	// Valid is false for words the assembler could not have produced.
	Valid bool
	// Target is the program address a JMP or MVI to PC transfers to, or -1.
	Target    int
	targetArg int
	// Conditional is set for transfers that may fall through.
	Conditional bool
	IsCode      bool
}

// Text renders the bundle with its operations separated by two spaces.
func (inst *Instruction) Text() string {
	if !inst.Valid {
		return fmt.Sprintf("dw $%08X", inst.Word)
	}
	parts := make([]string, len(inst.Ops))
	for i, m := range inst.Ops {
		parts[i] = m.String()
	}
	return strings.Join(parts, "  ")
}

// terminal reports whether execution never continues with the next word.
func (inst *Instruction) terminal() bool {
	if !inst.Valid {
		return false
	}
	switch inst.Word {
	case dsp.OPEND, dsp.OPENDI:
		return true
	}
	return inst.Target >= 0 && !inst.Conditional
}

var (
	xySources = dsp.Reverse(dsp.XYSources)
	d1Sources = dsp.Reverse(dsp.D1Sources)
	d1Dests   = dsp.Reverse(dsp.D1Dests)
	mviDests  = dsp.Reverse(dsp.MVIDests)
	dmaRAMs   = dsp.Reverse(dsp.DMARAMs)
)

var aluNames = map[uint32]string{
	dsp.ALUAnd: "and", dsp.ALUOr: "or", dsp.ALUXor: "xor",
	dsp.ALUAdd: "add", dsp.ALUSub: "sub", dsp.ALUAd2: "ad2",
	dsp.ALUSr: "sr", dsp.ALURr: "rr", dsp.ALUSl: "sl", dsp.ALURl: "rl",
	dsp.ALURl8: "rl8",
}

// Decode decodes one program word.
func Decode(word uint32) Instruction {
	inst := Instruction{Word: word, Format: dsp.FormatOf(word), Target: -1}
	var ok bool
	switch inst.Format {
	case dsp.FormatOperation:
		inst.Ops, ok = decodeOperation(word)
	case dsp.FormatMVI:
		ok = decodeMVI(&inst)
	case dsp.FormatDMA:
		inst.Ops, ok = decodeDMA(word)
	case dsp.FormatJMP:
		ok = decodeJMP(&inst)
	case dsp.FormatLoop, dsp.FormatEnd:
		inst.Ops, ok = decodeSpecial(word)
	}
	inst.Valid = ok
	if !ok {
		inst.Ops = nil
		inst.Target = -1
	}
	return inst
}

func mov(src, dst string) MicroOp {
	return MicroOp{Mnemonic: "mov", Operands: []string{src, dst}}
}

// decodeOperation decodes the ALU and bus control fields. Every bit of the
// word must belong to a field that is in use.
func decodeOperation(w uint32) ([]MicroOp, bool) {
	var ops []MicroOp
	var used uint32

	if code := dsp.FieldALU.Get(w); code != dsp.ALUNop {
		name, ok := aluNames[code]
		if !ok {
			return nil, false
		}
		ops = append(ops, MicroOp{Mnemonic: name})
		used |= dsp.FieldALU.Mask()
	}

	xsrc := xySources[dsp.FieldXSource.Get(w)].String()
	if dsp.FieldXLoad.Get(w) == 1 {
		ops = append(ops, mov(xsrc, "x"))
		used |= dsp.FieldXLoad.Mask() | dsp.FieldXSource.Mask()
	}
	pctl := dsp.FieldPControl.Get(w)
	switch pctl {
	case 0:
	case dsp.PMul:
		ops = append(ops, mov("mul", "p"))
	case dsp.PSource:
		ops = append(ops, mov(xsrc, "p"))
		used |= dsp.FieldXSource.Mask()
	default:
		return nil, false
	}
	used |= dsp.FieldPControl.Mask()

	ysrc := xySources[dsp.FieldYSource.Get(w)].String()
	if dsp.FieldYLoad.Get(w) == 1 {
		ops = append(ops, mov(ysrc, "y"))
		used |= dsp.FieldYLoad.Mask() | dsp.FieldYSource.Mask()
	}
	switch dsp.FieldAControl.Get(w) {
	case 0:
	case dsp.AClear:
		ops = append(ops, MicroOp{Mnemonic: "clr", Operands: []string{"a"}})
	case dsp.AALU:
		ops = append(ops, mov("alu", "a"))
	case dsp.ASource:
		ops = append(ops, mov(ysrc, "a"))
		used |= dsp.FieldYSource.Mask()
	}
	used |= dsp.FieldAControl.Mask()

	d1ctl := dsp.FieldD1Ctl.Get(w)
	if d1ctl != 0 {
		dst, ok := d1Dests[dsp.FieldD1Dest.Get(w)]
		if !ok {
			return nil, false
		}
		if dst == dsp.RegRX && dsp.FieldXLoad.Get(w) == 1 || dst == dsp.RegPL && pctl != 0 {
			return nil, false
		}
		switch d1ctl {
		case dsp.D1Imm:
			imm := dsp.SignExtend(dsp.FieldD1Imm.Get(w), dsp.FieldD1Imm.Width)
			ops = append(ops, mov(fmt.Sprintf("%d", imm), dst.String()))
			used |= dsp.FieldD1Imm.Mask()
		case dsp.D1Source:
			src, ok := d1Sources[dsp.FieldD1Source.Get(w)]
			if !ok {
				return nil, false
			}
			ops = append(ops, mov(src.String(), dst.String()))
			used |= dsp.FieldD1Source.Mask()
		default:
			return nil, false
		}
		used |= dsp.FieldD1Ctl.Mask() | dsp.FieldD1Dest.Mask()
	}

	if w&^used != 0 {
		return nil, false
	}
	if len(ops) == 0 {
		ops = append(ops, MicroOp{Mnemonic: "nop"})
	}
	return ops, true
}

func decodeMVI(inst *Instruction) bool {
	w := inst.Word
	dst, ok := mviDests[dsp.FieldMVIDest.Get(w)]
	if !ok {
		return false
	}
	var imm int64
	operands := []string{"", dst.String()}
	if dsp.FieldMVICond.Get(w) == 1 {
		cond := dsp.FieldMVICCode.Get(w)
		if !dsp.ValidCondition(cond) {
			return false
		}
		imm = dsp.SignExtend(dsp.FieldMVICImm.Get(w), dsp.FieldMVICImm.Width)
		operands = append(operands, dsp.Condition(cond).String())
		inst.Conditional = true
	} else {
		imm = dsp.SignExtend(dsp.FieldMVIImm.Get(w), dsp.FieldMVIImm.Width)
	}
	operands[0] = fmt.Sprintf("%d", imm)
	if dst == dsp.RegPC && imm >= 0 && imm < dsp.ProgramWords {
		inst.Target, inst.targetArg = int(imm), 0
	}
	inst.Ops = []MicroOp{{Mnemonic: "mvi", Operands: operands}}
	return true
}

// dmaUnused are the DMA word bits outside every DMA field.
const dmaUnused uint32 = 0x0FFC0800

func decodeDMA(w uint32) ([]MicroOp, bool) {
	if w&dmaUnused != 0 {
		return nil, false
	}
	step := dsp.DMAAddModes[dsp.FieldDMAAdd.Get(w)]
	toD0 := dsp.FieldDMADir.Get(w) == 1
	ram, ok := dmaRAMs[dsp.FieldDMARAM.Get(w)]
	if !ok || toD0 && ram == dsp.RegPRG || !toD0 && step > 1 {
		return nil, false
	}

	mn := "dma"
	if dsp.FieldDMAHold.Get(w) == 1 {
		mn += "h"
	}
	if step != 1 {
		mn += fmt.Sprintf("%d", step)
	}

	var count string
	if dsp.FieldDMACtReg.Get(w) == 1 {
		if dsp.FieldDMACount.Get(w)&^dsp.FieldDMACtSrc.Mask() != 0 {
			return nil, false
		}
		count = xySources[dsp.FieldDMACtSrc.Get(w)].String()
	} else {
		count = fmt.Sprintf("%d", dsp.FieldDMACount.Get(w))
	}

	operands := []string{"d0", ram.String(), count}
	if toD0 {
		operands[0], operands[1] = ram.String(), "d0"
	}
	return []MicroOp{{Mnemonic: mn, Operands: operands}}, true
}

// jmpUnused are the JMP word bits outside the condition and target.
const jmpUnused uint32 = 0x0E07FF00

func decodeJMP(inst *Instruction) bool {
	w := inst.Word
	if w&jmpUnused != 0 {
		return false
	}
	var operands []string
	if cond := dsp.FieldJMPCond.Get(w); cond != 0 {
		if !dsp.ValidCondition(cond) {
			return false
		}
		operands = append(operands, dsp.Condition(cond).String())
		inst.Conditional = true
	}
	target := dsp.FieldJMPTarget.Get(w)
	inst.Target, inst.targetArg = int(target), len(operands)
	operands = append(operands, fmt.Sprintf("$%02X", target))
	inst.Ops = []MicroOp{{Mnemonic: "jmp", Operands: operands}}
	return true
}

func decodeSpecial(w uint32) ([]MicroOp, bool) {
	var mn string
	switch w {
	case dsp.OPBTM:
		mn = "btm"
	case dsp.OPLPS:
		mn = "lps"
	case dsp.OPEND:
		mn = "end"
	case dsp.OPENDI:
		mn = "endi"
	default:
		return nil, false
	}
	return []MicroOp{{Mnemonic: mn}}, true
}
