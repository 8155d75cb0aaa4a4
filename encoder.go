package huffman

import (
	"errors"
	"fmt"
	"io"

	"github.com/chronos-tachyon/assert"
	"github.com/icza/bitio"
)

// ErrNoCode is returned when the Encoder is given a byte that has no entry in
// its CodeTable, i.e. the table was not built from this input.
var ErrNoCode = errors.New("huffman: symbol has no code")

// Encoder implements the payload bit packer.  Each byte written is replaced
// by its Code, and the codes are packed MSB-first into the underlying
// writer.  Close pads the final partial byte with zero bits.
type Encoder struct {
	bw      *bitio.Writer
	table   *CodeTable
	symbols uint64
	bits    uint64
	closed  bool
}

// NewEncoder returns an Encoder that packs codes from table into w.
func NewEncoder(w io.Writer, table *CodeTable) *Encoder {
	assert.Assertf(table != nil, "NewEncoder with a nil CodeTable")
	return &Encoder{bw: bitio.NewWriter(w), table: table}
}

// Write encodes every byte of p.  On error, n is the number of bytes whose
// codes were fully written.
func (e *Encoder) Write(p []byte) (n int, err error) {
	for _, b := range p {
		if err := e.WriteByte(b); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// WriteByte encodes a single byte.
func (e *Encoder) WriteByte(b byte) error {
	assert.Assertf(!e.closed, "write on a closed Encoder")
	hc, found := e.table.Lookup(Symbol(b))
	if !found {
		return fmt.Errorf("%w: byte %d", ErrNoCode, b)
	}

	size := int(hc.Size)
	for i := 0; size-i >= 8; i += 8 {
		e.bw.TryWriteByte(hc.Bits[i>>3])
	}
	if rest := size & 7; rest != 0 {
		e.bw.TryWriteBits(uint64(hc.Bits[size>>3]>>uint(8-rest)), uint8(rest))
	}
	if e.bw.TryError != nil {
		return fmt.Errorf("failed to write payload: %w", e.bw.TryError)
	}

	e.symbols++
	e.bits += uint64(size)
	return nil
}

// Close flushes any buffered bits, zero-padding the last byte.  It does not
// close the underlying writer.
func (e *Encoder) Close() error {
	if e.closed {
		return nil
	}
	e.closed = true
	if err := e.bw.Close(); err != nil {
		return fmt.Errorf("failed to flush payload: %w", err)
	}
	return nil
}

// Symbols returns the number of bytes encoded so far.
func (e *Encoder) Symbols() uint64 {
	return e.symbols
}

// Bits returns the number of payload bits produced so far, not counting
// padding.
func (e *Encoder) Bits() uint64 {
	return e.bits
}

var _ io.WriteCloser = (*Encoder)(nil)
var _ io.ByteWriter = (*Encoder)(nil)
