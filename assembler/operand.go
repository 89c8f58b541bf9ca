package assembler

import (
	"fmt"
	"strings"

	"github.com/samber/lo"

	"github.com/Urethramancer/scudsp/diag"
	"github.com/Urethramancer/scudsp/dsp"
)

// OperandKind tells which field of an Operand is meaningful.
type OperandKind int

const (
	OperandRegister OperandKind = iota
	OperandCondition
	OperandValue
)

// Operand is one comma-separated operand of a micro-operation or directive.
// Value operands start out symbolic; pass 2 fills in Value and sets Resolved.
type Operand struct {
	Kind     OperandKind
	Reg      dsp.Register
	Cond     dsp.Condition
	Expr     Expr
	Value    int64
	Resolved bool
	Pos      diag.Position
}

// IsRegister reports whether the operand names register r.
func (o *Operand) IsRegister(r dsp.Register) bool {
	return o != nil && o.Kind == OperandRegister && o.Reg == r
}

func (o *Operand) String() string {
	switch o.Kind {
	case OperandRegister:
		return o.Reg.String()
	case OperandCondition:
		return o.Cond.String()
	}
	if o.Resolved {
		return fmt.Sprintf("%d", o.Value)
	}
	return o.Expr.String()
}

// Term is one signed element of an expression: a literal or a symbol.
type Term struct {
	Neg    bool
	Symbol string
	Value  int64
	Pos    diag.Position
}

// Expr is a sum of terms.
type Expr []Term

// Symbols lists the symbol names the expression refers to.
func (e Expr) Symbols() []string {
	syms := lo.Filter(e, func(t Term, _ int) bool { return t.Symbol != "" })
	return lo.Map(syms, func(t Term, _ int) string { return t.Symbol })
}

// Constant reports whether the expression has no symbols.
func (e Expr) Constant() bool {
	return len(e.Symbols()) == 0
}

// Eval sums the expression, looking symbols up with value.
func (e Expr) Eval(value func(name string) (int64, error)) (int64, error) {
	var sum int64
	for _, t := range e {
		v := t.Value
		if t.Symbol != "" {
			var err error
			v, err = value(t.Symbol)
			if err != nil {
				return 0, err
			}
		}
		if t.Neg {
			v = -v
		}
		sum += v
	}
	return sum, nil
}

func (e Expr) String() string {
	var b strings.Builder
	for i, t := range e {
		switch {
		case t.Neg:
			b.WriteByte('-')
		case i > 0:
			b.WriteByte('+')
		}
		if t.Symbol != "" {
			b.WriteString(t.Symbol)
		} else {
			fmt.Fprintf(&b, "%d", t.Value)
		}
	}
	return b.String()
}
