package dsp

import "strings"

// Register names every register-like operand keyword of the DSP assembly
// language, including pseudo-sources such as ALU and MUL.
type Register int

const (
	RegInvalid Register = iota
	RegM0
	RegM1
	RegM2
	RegM3
	RegMC0
	RegMC1
	RegMC2
	RegMC3
	RegRX
	RegPL
	RegRA0
	RegWA0
	RegLOP
	RegTOP
	RegCT0
	RegCT1
	RegCT2
	RegCT3
	RegALL
	RegALH
	RegALU
	RegMUL
	RegX
	RegY
	RegP
	RegA
	RegPC
	RegD0
	RegPRG
)

var registerNames = map[Register]string{
	RegM0: "m0", RegM1: "m1", RegM2: "m2", RegM3: "m3",
	RegMC0: "mc0", RegMC1: "mc1", RegMC2: "mc2", RegMC3: "mc3",
	RegRX: "rx", RegPL: "pl", RegRA0: "ra0", RegWA0: "wa0",
	RegLOP: "lop", RegTOP: "top",
	RegCT0: "ct0", RegCT1: "ct1", RegCT2: "ct2", RegCT3: "ct3",
	RegALL: "all", RegALH: "alh", RegALU: "alu", RegMUL: "mul",
	RegX: "x", RegY: "y", RegP: "p", RegA: "a",
	RegPC: "pc", RegD0: "d0", RegPRG: "prg",
}

var registerByName = func() map[string]Register {
	m := make(map[string]Register, len(registerNames))
	for r, n := range registerNames {
		m[n] = r
	}
	return m
}()

// String returns the canonical lower-case spelling.
func (r Register) String() string {
	if n, ok := registerNames[r]; ok {
		return n
	}
	return "?"
}

// LookupRegister finds a register by name, ignoring case.
func LookupRegister(name string) (Register, bool) {
	r, ok := registerByName[strings.ToLower(name)]
	return r, ok
}

// XYSources are the DSP data RAM ports readable over the X and Y buses.
var XYSources = map[Register]uint32{
	RegM0: 0, RegM1: 1, RegM2: 2, RegM3: 3,
	RegMC0: 4, RegMC1: 5, RegMC2: 6, RegMC3: 7,
}

// D1Sources are the registers the D1 bus can read.
var D1Sources = map[Register]uint32{
	RegM0: 0, RegM1: 1, RegM2: 2, RegM3: 3,
	RegMC0: 4, RegMC1: 5, RegMC2: 6, RegMC3: 7,
	RegALL: 9, RegALH: 10,
}

// D1Dests are the registers the D1 bus can write.
var D1Dests = map[Register]uint32{
	RegMC0: 0, RegMC1: 1, RegMC2: 2, RegMC3: 3,
	RegRX: 4, RegPL: 5, RegRA0: 6, RegWA0: 7,
	RegLOP: 10, RegTOP: 11,
	RegCT0: 12, RegCT1: 13, RegCT2: 14, RegCT3: 15,
}

// MVIDests are the destinations of the load-immediate instruction. Loading PC
// is a jump.
var MVIDests = map[Register]uint32{
	RegMC0: 0, RegMC1: 1, RegMC2: 2, RegMC3: 3,
	RegRX: 4, RegPL: 5, RegRA0: 6, RegWA0: 7,
	RegLOP: 10, RegPC: 12,
}

// DMARAMs are the DSP-side memories a DMA transfer can address. Program RAM is
// only a valid target of a D0 to DSP transfer.
var DMARAMs = map[Register]uint32{
	RegMC0: 0, RegMC1: 1, RegMC2: 2, RegMC3: 3,
	RegPRG: 4,
}

// DMACountSources are the data RAM ports a DMA transfer count can be read from.
var DMACountSources = XYSources

// Reverse builds the code to register map of a register table.
func Reverse(table map[Register]uint32) map[uint32]Register {
	out := make(map[uint32]Register, len(table))
	for r, c := range table {
		out[c] = r
	}
	return out
}
