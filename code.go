package huffman

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/chronos-tachyon/assert"
)

// MaxCodeSize is the longest possible code.  A tree with NumSymbols leaves
// is at most NumSymbols-1 levels deep.
const MaxCodeSize = NumSymbols - 1

const maxCodeBytes = (MaxCodeSize + 7) / 8

// Code represents a sequence of bits: the path from the root of a Tree to
// one of its leaves, where 0 means "go left" and 1 means "go right".
type Code struct {
	// Size holds the number of valid bits.
	Size byte

	// Bits holds the actual values of the bits, packed MSB-first: the first
	// bit of the path is the most significant bit of Bits[0].
	Bits [maxCodeBytes]byte
}

// MakeCode is a convenience function that constructs a Code of up to 64
// bits.  The first bit of the code is the most significant of the size
// low-order bits of bits.
func MakeCode(size byte, bits uint64) Code {
	assert.Assertf(size <= 64, "MakeCode size %d > 64", size)
	var hc Code
	for i := byte(0); i < size; i++ {
		hc.push((bits>>(size-1-i))&1 == 1)
	}
	return hc
}

// ParseCode constructs a Code from a string of '0' and '1' characters.
func ParseCode(str string) (Code, error) {
	if len(str) > MaxCodeSize {
		return Code{}, fmt.Errorf("code %q is longer than %d bits", str, MaxCodeSize)
	}
	var hc Code
	for _, ch := range str {
		switch ch {
		case '0':
			hc.push(false)
		case '1':
			hc.push(true)
		default:
			return Code{}, fmt.Errorf("invalid character %q in code %q", ch, str)
		}
	}
	return hc, nil
}

// Bit returns the i'th bit of the code, counting from the root.
func (hc Code) Bit(i int) bool {
	assert.Assertf(i >= 0 && i < int(hc.Size), "bit %d out of range [0, %d)", i, hc.Size)
	return getBit(hc.Bits[:], i)
}

// HasPrefix returns true if prefix is a prefix of this Code.  Every Code is
// a prefix of itself.
func (hc Code) HasPrefix(prefix Code) bool {
	if prefix.Size > hc.Size {
		return false
	}
	for i := 0; i < int(prefix.Size); i++ {
		if getBit(hc.Bits[:], i) != getBit(prefix.Bits[:], i) {
			return false
		}
	}
	return true
}

// String returns the string representation of this Code.
func (hc Code) String() string {
	if hc.Size == 0 {
		return "\"\""
	}
	var sb strings.Builder
	sb.Grow(int(hc.Size))
	for i := 0; i < int(hc.Size); i++ {
		if getBit(hc.Bits[:], i) {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return strconv.Quote(sb.String())
}

var _ fmt.Stringer = Code{}

func (hc *Code) push(bit bool) {
	assert.Assertf(hc.Size < MaxCodeSize, "code longer than %d bits", MaxCodeSize)
	setBit(hc.Bits[:], int(hc.Size), bit)
	hc.Size++
}

func (hc *Code) pop() {
	assert.Assertf(hc.Size > 0, "pop on an empty code")
	hc.Size--
	setBit(hc.Bits[:], int(hc.Size), false)
}
