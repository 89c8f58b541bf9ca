// Package disassembler turns SCU DSP program words back into assembly source
// that the assembler accepts.
package disassembler

import (
	"fmt"
	"strings"

	"github.com/golang/glog"

	"github.com/Urethramancer/scudsp/dsp"
)

// Disassemble performs a multi-stage disassembly of a program image. Words
// reachable from address 0 are rendered as bundles, everything else as DW.
func Disassemble(words []uint32) string {
	if len(words) == 0 {
		return ""
	}
	insts := Sweep(words)
	labels := markCode(insts)
	return render(insts, labels)
}

// DisassembleBytes disassembles a big-endian program RAM image.
func DisassembleBytes(code []byte) (string, error) {
	words, err := dsp.BytesToWords(code)
	if err != nil {
		return "", err
	}
	return Disassemble(words), nil
}

// Sweep decodes every word in order. IsCode is left unset.
func Sweep(words []uint32) []Instruction {
	insts := make([]Instruction, len(words))
	for i, w := range words {
		insts[i] = Decode(w)
		insts[i].Address = uint32(i)
	}
	return insts
}

// markCode follows control flow from address 0, marks what it reaches as
// code and returns the set of jump targets.
func markCode(insts []Instruction) map[uint32]bool {
	labels := make(map[uint32]bool)
	q := newQueue()
	q.push(0)

	for {
		addr, ok := q.pop()
		if !ok {
			break
		}
		if int(addr) >= len(insts) {
			continue
		}
		inst := &insts[addr]
		if inst.IsCode || !inst.Valid {
			continue
		}
		inst.IsCode = true

		if !inst.terminal() {
			q.push(addr + 1)
		}
		if inst.Target >= 0 && inst.Target < len(insts) {
			t := uint32(inst.Target)
			labels[t] = true
			q.push(t)
		}
	}
	glog.V(1).Infof("disassemble: %d words, %d labels", len(insts), len(labels))
	return labels
}

func render(insts []Instruction, labels map[uint32]bool) string {
	var out strings.Builder
	for i := range insts {
		inst := &insts[i]
		label := ""
		if labels[inst.Address] {
			label = labelName(inst.Address) + ":"
		}

		text := fmt.Sprintf("dw $%08X", inst.Word)
		if inst.IsCode {
			text = withLabel(inst, labels).Text()
		}
		fmt.Fprintf(&out, "%-8s%s\n", label, text)
	}
	return out.String()
}

// withLabel returns a copy of inst whose transfer target names its label.
func withLabel(inst *Instruction, labels map[uint32]bool) *Instruction {
	if inst.Target < 0 || !labels[uint32(inst.Target)] {
		return inst
	}
	c := *inst
	c.Ops = []MicroOp{{Mnemonic: inst.Ops[0].Mnemonic, Operands: append([]string(nil), inst.Ops[0].Operands...)}}
	c.Ops[0].Operands[inst.targetArg] = labelName(uint32(inst.Target))
	return &c
}

func labelName(addr uint32) string {
	return fmt.Sprintf("L_%02X", addr)
}

// addrQueue is a simple worklist queue for addresses to decode.
type addrQueue struct {
	items []uint32
	seen  map[uint32]bool
}

func newQueue() *addrQueue {
	return &addrQueue{seen: make(map[uint32]bool)}
}

func (q *addrQueue) push(addr uint32) {
	if !q.seen[addr] {
		q.items = append(q.items, addr)
		q.seen[addr] = true
	}
}

func (q *addrQueue) pop() (uint32, bool) {
	if len(q.items) == 0 {
		return 0, false
	}
	a := q.items[0]
	q.items = q.items[1:]
	return a, true
}
