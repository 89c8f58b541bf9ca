package dsp

import "strings"

// Condition is a 6-bit flag test used by JMP and conditional MVI. The low bits
// select Z, S, C and T0; bit 5 selects whether the flags must be set (1) or clear (0).
type Condition uint32

const (
	CondNZ  Condition = 0x01
	CondNS  Condition = 0x02
	CondNZS Condition = 0x03
	CondNC  Condition = 0x04
	CondNT0 Condition = 0x08
	CondZ   Condition = 0x21
	CondS   Condition = 0x22
	CondZS  Condition = 0x23
	CondC   Condition = 0x24
	CondT0  Condition = 0x28
)

var conditionNames = map[Condition]string{
	CondNZ: "nz", CondNS: "ns", CondNZS: "nzs", CondNC: "nc", CondNT0: "nt0",
	CondZ: "z", CondS: "s", CondZS: "zs", CondC: "c", CondT0: "t0",
}

var conditionByName = func() map[string]Condition {
	m := make(map[string]Condition, len(conditionNames))
	for c, n := range conditionNames {
		m[n] = c
	}
	return m
}()

func (c Condition) String() string {
	if n, ok := conditionNames[c]; ok {
		return n
	}
	return "?"
}

// LookupCondition finds a condition by name, ignoring case.
func LookupCondition(name string) (Condition, bool) {
	c, ok := conditionByName[strings.ToLower(name)]
	return c, ok
}

// ValidCondition reports whether code is one of the documented conditions.
func ValidCondition(code uint32) bool {
	_, ok := conditionNames[Condition(code)]
	return ok
}
