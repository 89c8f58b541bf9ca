package assembler

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/golang/glog"
	"github.com/samber/lo"

	"github.com/Urethramancer/scudsp/diag"
	"github.com/Urethramancer/scudsp/dsp"
	"github.com/Urethramancer/scudsp/lexer"
)

// parseLines converts a preprocessed token stream into one Bundle per
// non-empty source line.
func (asm *Assembler) parseLines(tokens []lexer.Token) []*Bundle {
	var bundles []*Bundle
	start := 0
	for i, t := range tokens {
		if !t.EndOfLine() {
			continue
		}
		line := tokens[start:i]
		start = i + 1
		if len(line) == 0 {
			continue
		}
		if b := asm.parseLine(line); b != nil {
			b.Index = len(bundles)
			bundles = append(bundles, b)
		}
	}
	glog.V(1).Infof("parse: %d bundles", len(bundles))
	return bundles
}

// parseLine parses the tokens of one line, without its Newline. It returns nil
// when the line has errors.
func (asm *Assembler) parseLine(line []lexer.Token) *Bundle {
	b := &Bundle{Type: NodeBundle, Pos: line[0].Pos, Macro: line[0].Macro}
	if line[0].Kind == lexer.Label {
		b.Label = line[0].Text
		b.LabelPos = line[0].Pos
		line = line[1:]
	}

	if len(line) == 0 {
		asm.diags.Warnf(diag.ParseError, b.LabelPos, "label %q on a line of its own occupies a NOP word", b.Label)
		return b
	}

	first := line[0]
	switch {
	case first.Kind == lexer.Identifier && len(line) > 1 && (line[1].IsPunct("=") || line[1].Is(lexer.Directive, "equ")):
		return asm.parseConstantLine(b, line)
	case first.Kind == lexer.Directive:
		return asm.parseDirective(b, line)
	case first.Kind == lexer.Identifier:
		asm.diags.Errorf(diag.ParseError, first.Pos, "unrecognised mnemonic %q", first.Text)
		return nil
	case first.Kind != lexer.Mnemonic:
		asm.diags.Errorf(diag.ParseError, first.Pos, "expected a mnemonic, got %s", first)
		return nil
	}

	ok := true
	for i := 0; i < len(line); {
		end := i + 1
		for end < len(line) && line[end].Kind != lexer.Mnemonic {
			end++
		}
		op, err := parseMicroOp(line[i], line[i+1:end])
		if err != nil {
			asm.diags.Add(err)
			ok = false
		} else {
			b.Ops = append(b.Ops, op)
		}
		i = end
	}
	if !ok {
		return nil
	}
	return b
}

// parseMicroOp builds one micro-operation from its mnemonic and operand tokens.
func parseMicroOp(mn lexer.Token, rest []lexer.Token) (*MicroOp, *diag.Diagnostic) {
	operands, d := parseOperands(mn, rest)
	if d != nil {
		return nil, d
	}
	m := &MicroOp{Mnemonic: mn.Text, Operands: operands, Pos: mn.Pos}

	if alu, ok := aluOps[mn.Text]; ok {
		if len(operands) != 0 {
			return nil, parseErrorf(operands[0].Pos, "%s takes no operands", strings.ToUpper(mn.Text))
		}
		m.Category, m.Op = CatALU, alu.op
		return m, nil
	}

	family := mn.Text
	if hold, step, ok := lexer.SplitDMA(mn.Text); ok {
		family = "dma"
		m.Hold, m.Step = hold, step
	}

	if family == "mov" {
		if len(operands) != 2 {
			return nil, parseErrorf(mn.Pos, "MOV takes 2 operands, got %d", len(operands))
		}
		if operands[1].Kind != OperandRegister {
			return nil, parseErrorf(operands[1].Pos, "MOV destination must be a register, got %s", operands[1])
		}
		m.Category, m.Op = classifyMov(operands[0], operands[1])
		return m, nil
	}

	counts, ok := arity[family]
	if !ok {
		return nil, parseErrorf(mn.Pos, "unrecognised mnemonic %q", mn.Text)
	}
	if !lo.Contains(counts, len(operands)) {
		return nil, parseErrorf(mn.Pos, "%s takes %s operands, got %d", strings.ToUpper(family), joinCounts(counts), len(operands))
	}

	switch family {
	case "clr":
		m.Category, m.Op = CatAccumulator, OpClrA
	case "mvi":
		m.Category, m.Op = CatImmediate, OpMvi
	case "dma":
		m.Category, m.Op = CatDMA, OpDMA
	default:
		m.Category, m.Op = CatFlowControl, flowOps[family]
	}
	return m, nil
}

// parseOperands splits operand tokens at commas and parses each group.
func parseOperands(mn lexer.Token, rest []lexer.Token) ([]*Operand, *diag.Diagnostic) {
	if len(rest) == 0 {
		return nil, nil
	}
	var groups [][]lexer.Token
	var cur []lexer.Token
	for _, t := range rest {
		if t.IsPunct(",") {
			groups = append(groups, cur)
			cur = nil
			continue
		}
		cur = append(cur, t)
	}
	groups = append(groups, cur)

	var ops []*Operand
	for i, g := range groups {
		if len(g) == 0 {
			return nil, parseErrorf(mn.Pos, "%s: operand %d is missing", strings.ToUpper(mn.Text), i+1)
		}
		op, d := parseOperand(g)
		if d != nil {
			return nil, d
		}
		ops = append(ops, op)
	}
	return ops, nil
}

// parseOperand parses a register, a condition or an expression.
func parseOperand(g []lexer.Token) (*Operand, *diag.Diagnostic) {
	if g[0].Kind == lexer.Register {
		if len(g) > 1 {
			return nil, parseErrorf(g[1].Pos, "unexpected %s after %s", g[1], g[0].Text)
		}
		if c, ok := dsp.LookupCondition(g[0].Text); ok {
			return &Operand{Kind: OperandCondition, Cond: c, Pos: g[0].Pos}, nil
		}
		r, _ := dsp.LookupRegister(g[0].Text)
		return &Operand{Kind: OperandRegister, Reg: r, Pos: g[0].Pos}, nil
	}
	e, d := parseExpr(g)
	if d != nil {
		return nil, d
	}
	return &Operand{Kind: OperandValue, Expr: e, Pos: g[0].Pos}, nil
}

// parseExpr parses `[+|-] term { (+|-) term }`.
func parseExpr(g []lexer.Token) (Expr, *diag.Diagnostic) {
	var e Expr
	neg := false
	wantTerm := true
	for _, t := range g {
		switch {
		case wantTerm && (t.IsPunct("-") || t.IsPunct("+")):
			if t.Text == "-" {
				neg = !neg
			}
		case wantTerm && t.Kind == lexer.Integer:
			e = append(e, Term{Neg: neg, Value: t.Value, Pos: t.Pos})
			neg, wantTerm = false, false
		case wantTerm && t.Kind == lexer.Identifier:
			e = append(e, Term{Neg: neg, Symbol: t.Text, Pos: t.Pos})
			neg, wantTerm = false, false
		case !wantTerm && (t.IsPunct("-") || t.IsPunct("+")):
			neg = t.Text == "-"
			wantTerm = true
		case t.Kind == lexer.Register:
			return nil, parseErrorf(t.Pos, "register %s cannot be used in an expression", t.Text)
		default:
			return nil, parseErrorf(t.Pos, "unexpected %s in expression", t)
		}
	}
	if wantTerm {
		return nil, parseErrorf(g[len(g)-1].Pos, "expression ends without a value")
	}
	return e, nil
}

func parseErrorf(pos diag.Position, format string, args ...any) *diag.Diagnostic {
	return &diag.Diagnostic{
		Severity: diag.Error,
		Kind:     diag.ParseError,
		Pos:      pos,
		Bundle:   diag.NoBundle,
		Message:  fmt.Sprintf(format, args...),
	}
}

func joinCounts(counts []int) string {
	return strings.Join(lo.Map(counts, func(c int, _ int) string { return strconv.Itoa(c) }), " or ")
}
