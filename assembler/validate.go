package assembler

import (
	"sort"
	"strings"

	"github.com/golang/glog"
	"github.com/samber/lo"

	"github.com/Urethramancer/scudsp/diag"
	"github.com/Urethramancer/scudsp/dsp"
)

// validate checks every instruction bundle against the packing rules and
// returns those that pass. Each violation is reported separately.
func (asm *Assembler) validate(bundles []*Bundle) []*Bundle {
	legal := lo.Filter(bundles, func(b *Bundle, _ int) bool {
		if b.Type != NodeBundle {
			return true
		}
		return asm.validateBundle(b) == 0
	})
	glog.V(1).Infof("validate: %d of %d bundles legal", len(legal), len(bundles))
	return legal
}

// validateBundle returns the number of violations found in b.
func (asm *Assembler) validateBundle(b *Bundle) int {
	before := len(asm.diags.Errors())
	start := len(asm.diags)
	defer func() {
		for _, d := range asm.diags[start:] {
			d.Bundle = b.Index
		}
	}()

	// Slot exclusivity.
	groups := lo.GroupBy(b.Ops, func(m *MicroOp) Category { return m.Category })
	cats := lo.Keys(groups)
	sort.Slice(cats, func(i, j int) bool { return cats[i] < cats[j] })
	for _, c := range cats {
		if ops := groups[c]; len(ops) > 1 {
			asm.diags.Errorf(diag.LegalityError, ops[1].Pos, "Bundle contains more than one %s instruction", c)
		}
	}

	// Immediate loads, DMA and flow control take the whole word.
	if len(cats) > 1 {
		for _, m := range b.Ops {
			if m.Category.Exclusive() {
				other, _ := lo.Find(b.Ops, func(o *MicroOp) bool { return o.Category != m.Category })
				asm.diags.Errorf(diag.LegalityError, m.Pos, "%s instruction %s cannot share a bundle with %s", m.Category, strings.ToUpper(m.Mnemonic), strings.ToUpper(other.Mnemonic))
				break
			}
		}
	}

	asm.checkSharedBuses(groups)

	for _, m := range b.Ops {
		asm.checkOperands(m)
	}

	n := len(asm.diags.Errors()) - before
	if n == 0 {
		glog.V(2).Infof("%s: bundle of %d ops is legal", b.Pos, len(b.Ops))
	}
	return n
}

// checkSharedBuses reports operations that drive the same bus or register
// with different values.
func (asm *Assembler) checkSharedBuses(groups map[Category][]*MicroOp) {
	first := func(c Category) *MicroOp {
		if ops := groups[c]; len(ops) > 0 {
			return ops[0]
		}
		return nil
	}
	x, p, y, a, d1 := first(CatXBus), first(CatMultiply), first(CatYBus), first(CatAccumulator), first(CatD1Bus)

	if x != nil && p != nil && p.Op == OpMovP && x.source() != p.source() {
		asm.diags.Errorf(diag.LegalityError, p.Pos, "X bus cannot carry both %s (to X) and %s (to P)", x.source(), p.source())
	}
	if y != nil && a != nil && a.Op == OpMovA && y.source() != a.source() {
		asm.diags.Errorf(diag.LegalityError, a.Pos, "Y bus cannot carry both %s (to Y) and %s (to A)", y.source(), a.source())
	}
	if d1 != nil && d1.dest() == dsp.RegRX && x != nil {
		asm.diags.Errorf(diag.LegalityError, d1.Pos, "RX is loaded by both the X bus and the D1 bus")
	}
	if d1 != nil && d1.dest() == dsp.RegPL && p != nil {
		asm.diags.Errorf(diag.LegalityError, d1.Pos, "PL is loaded by both the multiplier path and the D1 bus")
	}
}

// checkOperands checks the operand types of one micro-operation.
func (asm *Assembler) checkOperands(m *MicroOp) {
	bad := func(o *Operand, format string, args ...any) {
		asm.diags.Errorf(diag.LegalityError, o.Pos, format, args...)
	}
	src, dst := m.operand(0), m.operand(1)

	switch m.Op {
	case OpMovX, OpMovP, OpMovY, OpMovA:
		if !inTable(src, dsp.XYSources) {
			bad(src, "%s source must be M0-M3 or MC0-MC3, got %s", m.Category, src)
		}

	case OpClrA:
		if !src.IsRegister(dsp.RegA) {
			bad(src, "CLR only clears A, got %s", src)
		}

	case OpMovImm:
		if !inTable(dst, dsp.D1Dests) {
			bad(dst, "%s is not a D1-bus destination", dst)
		}

	case OpMovD1:
		if !inTable(src, dsp.D1Sources) {
			bad(src, "D1-bus source must be M0-M3, MC0-MC3, ALL or ALH, got %s", src)
		}
		if !inTable(dst, dsp.D1Dests) {
			bad(dst, "%s is not a D1-bus destination", dst)
		}

	case OpMvi:
		if src.Kind != OperandValue {
			bad(src, "MVI needs an immediate value, got %s", src)
		}
		if !inTable(dst, dsp.MVIDests) {
			bad(dst, "%s is not an MVI destination", dst)
		}
		if c := m.operand(2); c != nil && c.Kind != OperandCondition {
			bad(c, "MVI condition must be a flag test such as NZ or T0, got %s", c)
		}

	case OpDMA:
		asm.checkDMA(m)

	case OpJmp:
		target := m.Operands[len(m.Operands)-1]
		if target.Kind != OperandValue {
			bad(target, "JMP needs a target address, got %s", target)
		}
		if len(m.Operands) == 2 && m.Operands[0].Kind != OperandCondition {
			bad(m.Operands[0], "JMP condition must be a flag test such as NZ or T0, got %s", m.Operands[0])
		}
	}
}

// checkDMA validates `DMA D0,[RAM],count` and `DMA [RAM],D0,count`.
func (asm *Assembler) checkDMA(m *MicroOp) {
	src, dst, count := m.Operands[0], m.Operands[1], m.Operands[2]
	name := strings.ToUpper(m.Mnemonic)

	var ram *Operand
	toD0 := false
	switch {
	case src.IsRegister(dsp.RegD0):
		ram = dst
	case dst.IsRegister(dsp.RegD0):
		ram, toD0 = src, true
	default:
		asm.diags.Errorf(diag.LegalityError, m.Pos, "%s must transfer to or from D0", name)
		return
	}

	switch {
	case !inTable(ram, dsp.DMARAMs):
		asm.diags.Errorf(diag.LegalityError, ram.Pos, "%s RAM operand must be MC0-MC3 or PRG, got %s", name, ram)
	case toD0 && ram.Reg == dsp.RegPRG:
		asm.diags.Errorf(diag.LegalityError, ram.Pos, "%s cannot read program RAM", name)
	}
	if !toD0 && m.Step > 1 {
		asm.diags.Errorf(diag.LegalityError, m.Pos, "%s: a D0 to DSP transfer only supports add modes 0 and 1", name)
	}

	switch count.Kind {
	case OperandValue:
	case OperandRegister:
		if !inTable(count, dsp.DMACountSources) {
			asm.diags.Errorf(diag.LegalityError, count.Pos, "%s count register must be M0-M3 or MC0-MC3, got %s", name, count)
		}
	default:
		asm.diags.Errorf(diag.LegalityError, count.Pos, "%s count must be a value or a data RAM register, got %s", name, count)
	}
}

// inTable reports whether o is a register present in table.
func inTable(o *Operand, table map[dsp.Register]uint32) bool {
	if o == nil || o.Kind != OperandRegister {
		return false
	}
	_, ok := table[o.Reg]
	return ok
}
