package assembler

import (
	"errors"

	"github.com/golang/glog"

	"github.com/Urethramancer/scudsp/diag"
	"github.com/Urethramancer/scudsp/dsp"
)

// pass1 assigns addresses in source order and fills the symbol table. ORG and
// DS counts must be computable from what has been defined so far.
func (asm *Assembler) pass1(bundles []*Bundle) {
	var pc uint32
	overflow := false
	for _, b := range bundles {
		switch b.Type {
		case NodeConstant:
			asm.define(&Symbol{Name: b.Name, Kind: SymbolConstant, Expr: b.Args[0].Expr, Defined: b.Pos})
			continue

		case NodeOrg:
			b.Addr = pc
			target, ok := asm.evalNow(b, "ORG")
			if !ok {
				continue
			}
			if target < int64(pc) {
				asm.diags.Errorf(diag.ResolutionError, b.Pos, "ORG $%X moves backwards from $%X", target, pc)
				continue
			}
			if target > dsp.ProgramWords {
				asm.diags.Errorf(diag.ResolutionError, b.Pos, "ORG $%X is outside program RAM", target)
				continue
			}
			b.Size = uint32(target) - pc

		case NodeReserve:
			b.Addr = pc
			n, ok := asm.evalNow(b, "DS")
			if !ok {
				continue
			}
			if n < 0 || n > dsp.ProgramWords {
				asm.diags.Errorf(diag.ResolutionError, b.Pos, "DS count %d is out of range", n)
				continue
			}
			b.Size = uint32(n)

		case NodeData:
			b.Addr = pc
			b.Size = uint32(len(b.Args))

		default:
			b.Addr = pc
			b.Size = 1
		}

		if b.Label != "" {
			addr := b.Addr
			if b.Type == NodeOrg {
				addr = b.Addr + b.Size
			}
			asm.define(&Symbol{Name: b.Label, Kind: SymbolLabel, Value: int64(addr), Resolved: true, Defined: b.LabelPos})
		}

		pc += b.Size
		if pc > dsp.ProgramWords && !overflow {
			overflow = true
			asm.diags.Errorf(diag.ResolutionError, b.Pos, "program is %d words long; program RAM holds %d", pc, dsp.ProgramWords)
		}
		glog.V(2).Infof("%s: %s at $%02X, %d words", b.Pos, b.Type, b.Addr, b.Size)
	}

	asm.resolveConstants()
	asm.symbols.Freeze()
	glog.V(1).Infof("pass 1: %d bundles, %d words, %d symbols", len(bundles), pc, asm.symbols.Len())
}

// define adds a symbol, reporting duplicates.
func (asm *Assembler) define(s *Symbol) {
	err := asm.symbols.Define(s)
	var dup *DuplicateError
	switch {
	case err == nil:
	case errors.As(err, &dup):
		asm.diags.Errorf(diag.ResolutionError, s.Defined, "duplicate %s %q, first defined at %s", s.Kind, s.Name, dup.Previous)
	default:
		asm.diags.Errorf(diag.ResolutionError, s.Defined, "%v", err)
	}
}

// evalNow evaluates the single operand of an ORG or DS during pass 1.
func (asm *Assembler) evalNow(b *Bundle, what string) (int64, bool) {
	v, err := asm.symbols.Eval(b.Args[0].Expr)
	var undef *UndefinedError
	switch {
	case err == nil:
		return v, true
	case errors.As(err, &undef):
		asm.diags.Errorf(diag.ResolutionError, b.Args[0].Pos, "%s needs a value known at this point; %q is not defined yet", what, undef.Name)
	default:
		asm.diags.Errorf(diag.ResolutionError, b.Args[0].Pos, "%s: %v", what, err)
	}
	return 0, false
}

// resolveConstants gives every constant its value before the table freezes.
// Constants may refer to labels and constants defined anywhere in the file.
func (asm *Assembler) resolveConstants() {
	for _, s := range asm.symbols.Symbols() {
		if s.Kind != SymbolConstant || s.Resolved {
			continue
		}
		if _, err := asm.symbols.Value(s.Name); err != nil {
			asm.symbolError(s.Defined, err)
		}
	}
}

// symbolError reports a failed lookup. Unresolved constants were already
// reported where they were defined.
func (asm *Assembler) symbolError(pos diag.Position, err error) {
	var unresolved *UnresolvedError
	if errors.As(err, &unresolved) {
		return
	}
	asm.diags.Errorf(diag.ResolutionError, pos, "%v", err)
}

// pass2 substitutes symbol values into every operand in place. Addresses do
// not change.
func (asm *Assembler) pass2(bundles []*Bundle) {
	n := 0
	for _, b := range bundles {
		if b.Type == NodeConstant || b.Type == NodeOrg || b.Type == NodeReserve {
			continue
		}
		for _, op := range b.Ops {
			for _, o := range op.Operands {
				if asm.resolveOperand(o) {
					n++
				}
			}
		}
		for _, o := range b.Args {
			if asm.resolveOperand(o) {
				n++
			}
		}
	}
	glog.V(1).Infof("pass 2: %d operands resolved", n)
}

func (asm *Assembler) resolveOperand(o *Operand) bool {
	if o.Kind != OperandValue || o.Resolved {
		return false
	}
	v, err := asm.symbols.Eval(o.Expr)
	if err != nil {
		pos := o.Pos
		var undef *UndefinedError
		if errors.As(err, &undef) {
			for _, t := range o.Expr {
				if t.Symbol == undef.Name {
					pos = t.Pos
					break
				}
			}
		}
		asm.symbolError(pos, err)
		return false
	}
	o.Value, o.Resolved = v, true
	return true
}
