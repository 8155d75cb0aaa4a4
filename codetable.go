package huffman

import (
	"bytes"
	"errors"
	"fmt"
	"io"
)

// ErrMalformedTree is returned when a tree, or its encoded form, violates
// the structure of a Huffman tree.
var ErrMalformedTree = errors.New("huffman: malformed tree")

// CodeTable maps every symbol present in a Tree to its Code.
type CodeTable struct {
	codes   [NumSymbols]Code
	count   int
	minSize byte
	maxSize byte
}

// NewCodeTable derives the code of every leaf of t.  A single-leaf tree has
// no meaningful path and yields an empty table; archives of that shape carry
// no payload at all.
func NewCodeTable(t *Tree) (*CodeTable, error) {
	ct := &CodeTable{}
	if t.IsEmpty() || t.IsSingleLeaf() {
		return ct, nil
	}

	// We use stackItem.x to keep track of where we are in the tree walk:
	//   x=0 → We just arrived at stackItem for the first time
	//   x=1 → We have already processed the left child
	//   x=2 → We have already processed both children
	//
	// The current path always has exactly len(stack)-1 bits.

	type stackItem struct {
		id NodeID
		x  byte
	}

	var path Code
	stack := make([]stackItem, 1, 64)
	stack[0] = stackItem{id: t.root}

	for len(stack) != 0 {
		top := &stack[len(stack)-1]
		node := t.nodes[top.id]

		if node.IsLeaf() {
			if err := ct.assign(node.Symbol, path); err != nil {
				return nil, err
			}
			stack = stack[:len(stack)-1]
			if len(stack) != 0 {
				path.pop()
			}
			continue
		}

		x := top.x
		top.x++
		switch x {
		case 0:
			path.push(false)
			stack = append(stack, stackItem{id: node.Left})
		case 1:
			path.push(true)
			stack = append(stack, stackItem{id: node.Right})
		case 2:
			stack = stack[:len(stack)-1]
			if len(stack) != 0 {
				path.pop()
			}
		}
	}
	return ct, nil
}

func (ct *CodeTable) assign(symbol Symbol, hc Code) error {
	if ct.codes[symbol].Size != 0 {
		return fmt.Errorf("%w: symbol %d appears more than once", ErrMalformedTree, symbol)
	}
	ct.codes[symbol] = hc
	if ct.count == 0 {
		ct.minSize, ct.maxSize = hc.Size, hc.Size
	} else if ct.minSize > hc.Size {
		ct.minSize = hc.Size
	} else if ct.maxSize < hc.Size {
		ct.maxSize = hc.Size
	}
	ct.count++
	return nil
}

// Lookup returns the Code for symbol, if the symbol is present.
func (ct *CodeTable) Lookup(symbol Symbol) (Code, bool) {
	hc := ct.codes[symbol]
	return hc, hc.Size != 0
}

// Len returns the number of symbols with a code.
func (ct *CodeTable) Len() int {
	return ct.count
}

// MinSize is the bit length of the shortest code.
func (ct *CodeTable) MinSize() byte {
	return ct.minSize
}

// MaxSize is the bit length of the longest code.
func (ct *CodeTable) MaxSize() byte {
	return ct.maxSize
}

// EncodedBits returns the payload length, in bits, of an input with the
// given frequencies.
func (ct *CodeTable) EncodedBits(ft *FrequencyTable) uint64 {
	var total uint64
	for symbol, count := range ft.Counts {
		total += count * uint64(ct.codes[symbol].Size)
	}
	return total
}

// Dump writes a programmer-readable debugging dump of the table's current
// state to the given writer.
func (ct *CodeTable) Dump(w io.Writer) (int64, error) {
	var buf bytes.Buffer
	buf.WriteString("CodeTable{\n")
	fmt.Fprintf(&buf, "\tMinSize() = %d\n", ct.minSize)
	fmt.Fprintf(&buf, "\tMaxSize() = %d\n", ct.maxSize)
	for symbol := 0; symbol < NumSymbols; symbol++ {
		if hc := ct.codes[symbol]; hc.Size != 0 {
			fmt.Fprintf(&buf, "\tEncode(%d) = %s\n", symbol, hc)
		}
	}
	buf.WriteString("}\n")
	return buf.WriteTo(w)
}
