package assembler

import (
	"strings"

	"github.com/Urethramancer/scudsp/diag"
	"github.com/Urethramancer/scudsp/lexer"
)

// parseConstantLine handles `name = expr` and `name EQU expr`.
func (asm *Assembler) parseConstantLine(b *Bundle, line []lexer.Token) *Bundle {
	if b.Label != "" {
		asm.diags.Errorf(diag.ParseError, b.LabelPos, "label %q cannot precede a constant definition", b.Label)
		return nil
	}
	b.Type = NodeConstant
	b.Name = line[0].Text
	args, d := parseOperands(line[1], line[2:])
	if d != nil {
		asm.diags.Add(d)
		return nil
	}
	if len(args) != 1 || args[0].Kind != OperandValue {
		asm.diags.Errorf(diag.ParseError, line[1].Pos, "constant %q needs a single value", b.Name)
		return nil
	}
	b.Args = args
	return b
}

// parseDirective handles ORG, DW and DS.
func (asm *Assembler) parseDirective(b *Bundle, line []lexer.Token) *Bundle {
	dir := line[0]
	switch dir.Text {
	case "org":
		b.Type = NodeOrg
	case "dw":
		b.Type = NodeData
	case "ds":
		b.Type = NodeReserve
	default:
		asm.diags.Errorf(diag.ParseError, dir.Pos, "unexpected directive %s", strings.ToUpper(dir.Text))
		return nil
	}
	args, d := parseOperands(dir, line[1:])
	if d != nil {
		asm.diags.Add(d)
		return nil
	}
	if len(args) == 0 || (b.Type != NodeData && len(args) != 1) {
		asm.diags.Errorf(diag.ParseError, dir.Pos, "%s takes %s, got %d operands", strings.ToUpper(dir.Text), directiveArity(b.Type), len(args))
		return nil
	}
	for _, a := range args {
		if a.Kind != OperandValue {
			asm.diags.Errorf(diag.ParseError, a.Pos, "%s needs a value, got %s", strings.ToUpper(dir.Text), a)
			return nil
		}
	}
	b.Args = args
	return b
}

func directiveArity(t NodeType) string {
	if t == NodeData {
		return "one or more values"
	}
	return "a single value"
}
