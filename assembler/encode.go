package assembler

import (
	"fmt"

	"github.com/golang/glog"

	"github.com/Urethramancer/scudsp/diag"
	"github.com/Urethramancer/scudsp/dsp"
)

// rangeError is an operand that does not fit its field.
type rangeError struct {
	field string
	value int64
	pos   diag.Position
}

func (e *rangeError) Error() string {
	return fmt.Sprintf("value %d does not fit the %s field", e.value, e.field)
}

// encode packs every bundle into its words and returns the program image.
// Address i of the image holds word i.
func (asm *Assembler) encode(bundles []*Bundle) []uint32 {
	var words []uint32
	for _, b := range bundles {
		if !b.Emits() {
			continue
		}
		ws, err := encodeBundle(b)
		if err != nil {
			d := asm.diags.Errorf(diag.EncodingError, err.pos, "bundle at $%02X (line %d): %v", b.Addr, b.Line(), err)
			d.Bundle = b.Index
			continue
		}
		b.Words = ws
		words = append(words, ws...)
		for i, w := range ws {
			glog.V(2).Infof("%s: $%02X = %08X", b.Pos, b.Addr+uint32(i), w)
		}
	}
	glog.V(1).Infof("encode: %d words", len(words))
	return words
}

// encodeBundle returns the b.Size words of one bundle.
func encodeBundle(b *Bundle) ([]uint32, *rangeError) {
	switch b.Type {
	case NodeOrg, NodeReserve:
		return make([]uint32, b.Size), nil

	case NodeData:
		ws := make([]uint32, 0, len(b.Args))
		for _, a := range b.Args {
			if a.Value < -(1<<31) || a.Value > 0xFFFFFFFF {
				return nil, &rangeError{"DW", a.Value, a.Pos}
			}
			ws = append(ws, uint32(a.Value))
		}
		return ws, nil
	}

	w := dsp.Nop
	for _, m := range b.Ops {
		var err *rangeError
		w, err = encodeOp(w, m)
		if err != nil {
			return nil, err
		}
	}
	return []uint32{w}, nil
}

func encodeOp(w uint32, m *MicroOp) (uint32, *rangeError) {
	src, dst := m.operand(0), m.operand(1)
	switch m.Op {
	case OpNop, OpAnd, OpOr, OpXor, OpAdd, OpSub, OpAd2, OpSr, OpRr, OpSl, OpRl, OpRl8:
		w = dsp.FieldALU.Put(w, aluCodes[m.Op])

	case OpMovX:
		w = dsp.FieldXLoad.Put(w, 1)
		w = dsp.FieldXSource.Put(w, dsp.XYSources[src.Reg])
	case OpMovMulP:
		w = dsp.FieldPControl.Put(w, dsp.PMul)
	case OpMovP:
		w = dsp.FieldPControl.Put(w, dsp.PSource)
		w = dsp.FieldXSource.Put(w, dsp.XYSources[src.Reg])

	case OpMovY:
		w = dsp.FieldYLoad.Put(w, 1)
		w = dsp.FieldYSource.Put(w, dsp.XYSources[src.Reg])
	case OpClrA:
		w = dsp.FieldAControl.Put(w, dsp.AClear)
	case OpMovAluA:
		w = dsp.FieldAControl.Put(w, dsp.AALU)
	case OpMovA:
		w = dsp.FieldAControl.Put(w, dsp.ASource)
		w = dsp.FieldYSource.Put(w, dsp.XYSources[src.Reg])

	case OpMovImm:
		if !dsp.FitsSigned(src.Value, 8) {
			return w, &rangeError{dsp.FieldD1Imm.Name, src.Value, src.Pos}
		}
		w = dsp.FieldD1Ctl.Put(w, dsp.D1Imm)
		w = dsp.FieldD1Dest.Put(w, dsp.D1Dests[dst.Reg])
		w = dsp.FieldD1Imm.Put(w, uint32(src.Value))
	case OpMovD1:
		w = dsp.FieldD1Ctl.Put(w, dsp.D1Source)
		w = dsp.FieldD1Dest.Put(w, dsp.D1Dests[dst.Reg])
		w = dsp.FieldD1Source.Put(w, dsp.D1Sources[src.Reg])

	case OpMvi:
		return encodeMvi(m)
	case OpDMA:
		return encodeDMA(m)

	case OpJmp:
		target := m.Operands[len(m.Operands)-1]
		if !dsp.FitsUnsigned(target.Value, 8) {
			return w, &rangeError{dsp.FieldJMPTarget.Name, target.Value, target.Pos}
		}
		w = dsp.OPJMP
		if len(m.Operands) == 2 {
			w = dsp.FieldJMPCond.Put(w, uint32(m.Operands[0].Cond))
		}
		w = dsp.FieldJMPTarget.Put(w, uint32(target.Value))
	case OpBtm:
		w = dsp.OPBTM
	case OpLps:
		w = dsp.OPLPS
	case OpEnd:
		w = dsp.OPEND
	case OpEndi:
		w = dsp.OPENDI
	}
	return w, nil
}

// encodeMvi encodes `MVI imm,[d]` and `MVI imm,[d],cond`.
func encodeMvi(m *MicroOp) (uint32, *rangeError) {
	imm, dst := m.Operands[0], m.Operands[1]
	w := dsp.ClassImmediate
	w = dsp.FieldMVIDest.Put(w, dsp.MVIDests[dst.Reg])
	if len(m.Operands) == 3 {
		if !dsp.FitsSigned(imm.Value, dsp.FieldMVICImm.Width) {
			return w, &rangeError{dsp.FieldMVICImm.Name, imm.Value, imm.Pos}
		}
		w = dsp.FieldMVICond.Put(w, 1)
		w = dsp.FieldMVICCode.Put(w, uint32(m.Operands[2].Cond))
		return dsp.FieldMVICImm.Put(w, uint32(imm.Value)), nil
	}
	if !dsp.FitsSigned(imm.Value, dsp.FieldMVIImm.Width) {
		return w, &rangeError{dsp.FieldMVIImm.Name, imm.Value, imm.Pos}
	}
	return dsp.FieldMVIImm.Put(w, uint32(imm.Value)), nil
}

// encodeDMA encodes the DMA family.
func encodeDMA(m *MicroOp) (uint32, *rangeError) {
	src, dst, count := m.Operands[0], m.Operands[1], m.Operands[2]
	w := dsp.OPDMA
	add, _ := dsp.DMAAddCode(m.Step)
	w = dsp.FieldDMAAdd.Put(w, add)
	if m.Hold {
		w = dsp.FieldDMAHold.Put(w, 1)
	}
	ram := dst
	if dst.IsRegister(dsp.RegD0) {
		ram = src
		w = dsp.FieldDMADir.Put(w, 1)
	}
	w = dsp.FieldDMARAM.Put(w, dsp.DMARAMs[ram.Reg])

	if count.Kind == OperandRegister {
		w = dsp.FieldDMACtReg.Put(w, 1)
		return dsp.FieldDMACtSrc.Put(w, dsp.DMACountSources[count.Reg]), nil
	}
	if !dsp.FitsUnsigned(count.Value, dsp.FieldDMACount.Width) {
		return w, &rangeError{dsp.FieldDMACount.Name, count.Value, count.Pos}
	}
	return dsp.FieldDMACount.Put(w, uint32(count.Value)), nil
}
