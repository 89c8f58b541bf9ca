package dsp

import (
	"encoding/binary"
	"fmt"
)

// WordsToBytes converts instruction words to the big-endian byte image the
// SH-2 host uploads into DSP program RAM.
func WordsToBytes(words []uint32) []byte {
	out := make([]byte, len(words)*4)
	for i, w := range words {
		binary.BigEndian.PutUint32(out[i*4:], w)
	}
	return out
}

// BytesToWords interprets b as big-endian 32-bit words.
func BytesToWords(b []byte) ([]uint32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("image length %d is not a multiple of 4", len(b))
	}
	out := make([]uint32, len(b)/4)
	for i := range out {
		out[i] = binary.BigEndian.Uint32(b[i*4:])
	}
	return out, nil
}
