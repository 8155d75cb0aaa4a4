package huffman

import (
	"errors"
	"fmt"
	"io"

	"github.com/chronos-tachyon/assert"
	"github.com/icza/bitio"
)

// ErrTruncated is returned when the payload ends before the declared number
// of symbols has been decoded.
var ErrTruncated = errors.New("huffman: truncated payload")

// Decoder implements the payload bit unpacker.  It walks the Tree one bit at
// a time, going left on 0 and right on 1, and emits a symbol each time it
// reaches a leaf.  It stops after exactly size symbols.
type Decoder struct {
	br        *bitio.Reader
	tree      *Tree
	remaining uint64
	bitsRead  uint64
	err       error
}

// NewDecoder returns a Decoder that produces size symbols from the payload
// in r.  A single-leaf tree produces its one symbol size times without
// reading r at all.
func NewDecoder(r io.Reader, t *Tree, size uint64) *Decoder {
	assert.Assertf(t != nil && !t.IsEmpty(), "NewDecoder with an empty Tree")
	return &Decoder{br: bitio.NewReader(r), tree: t, remaining: size}
}

// Read decodes up to len(p) symbols into p.  It returns io.EOF once all
// symbols have been produced, and ErrTruncated if the payload runs out
// first.
func (d *Decoder) Read(p []byte) (int, error) {
	if d.err != nil {
		return 0, d.err
	}
	if d.remaining == 0 {
		return 0, io.EOF
	}
	if uint64(len(p)) > d.remaining {
		p = p[:d.remaining]
	}

	if d.tree.IsSingleLeaf() {
		symbol := byte(d.tree.nodes[d.tree.root].Symbol)
		for i := range p {
			p[i] = symbol
		}
		d.remaining -= uint64(len(p))
		return len(p), nil
	}

	root := d.tree.root
	nodes := d.tree.nodes
	for i := range p {
		id := root
		for {
			bit, err := d.br.ReadBool()
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				d.remaining -= uint64(i)
				d.err = fmt.Errorf("%w: %d symbols missing after %d payload bits", ErrTruncated, d.remaining, d.bitsRead)
				return i, d.err
			}
			if err != nil {
				d.remaining -= uint64(i)
				d.err = fmt.Errorf("failed to read payload: %w", err)
				return i, d.err
			}
			d.bitsRead++

			if bit {
				id = nodes[id].Right
			} else {
				id = nodes[id].Left
			}
			if n := nodes[id]; n.IsLeaf() {
				p[i] = byte(n.Symbol)
				break
			}
		}
	}
	d.remaining -= uint64(len(p))
	return len(p), nil
}

// Remaining returns the number of symbols not yet decoded.
func (d *Decoder) Remaining() uint64 {
	return d.remaining
}

// BitsRead returns the number of payload bits consumed so far.
func (d *Decoder) BitsRead() uint64 {
	return d.bitsRead
}

var _ io.Reader = (*Decoder)(nil)
