package dsp

// Format identifies which instruction layout a word uses.
type Format int

const (
	FormatOperation Format = iota
	FormatMVI
	FormatDMA
	FormatJMP
	FormatLoop
	FormatEnd
	FormatInvalid
)

func (f Format) String() string {
	switch f {
	case FormatOperation:
		return "operation"
	case FormatMVI:
		return "mvi"
	case FormatDMA:
		return "dma"
	case FormatJMP:
		return "jmp"
	case FormatLoop:
		return "loop"
	case FormatEnd:
		return "end"
	}
	return "invalid"
}

// FormatOf classifies an instruction word by its top bits.
func FormatOf(word uint32) Format {
	switch FieldClass.Get(word) {
	case 0:
		return FormatOperation
	case 2:
		return FormatMVI
	case 3:
		switch FieldTop4.Get(word) {
		case 0xC:
			return FormatDMA
		case 0xD:
			return FormatJMP
		case 0xE:
			return FormatLoop
		case 0xF:
			return FormatEnd
		}
	}
	return FormatInvalid
}

// SignExtend interprets the low bits of v as a two's-complement number.
func SignExtend(v uint32, bits uint) int64 {
	shift := 64 - bits
	return int64(uint64(v)<<shift) >> shift
}

// FitsSigned reports whether v is representable in a bits-wide two's-complement field.
func FitsSigned(v int64, bits uint) bool {
	lo := -(int64(1) << (bits - 1))
	hi := int64(1)<<(bits-1) - 1
	return v >= lo && v <= hi
}

// FitsUnsigned reports whether v is representable in a bits-wide unsigned field.
func FitsUnsigned(v int64, bits uint) bool {
	return v >= 0 && v < int64(1)<<bits
}
