package huffman

import (
	"bytes"
	"fmt"

	"github.com/chronos-tachyon/assert"
	"github.com/icza/bitio"
)

// positionChunkSize is the allocation step of the positions buffer.  The
// largest tree (NumSymbols leaves) needs 1021 structural bits, so a single
// chunk always holds it.
const positionChunkSize = 1000

// EncodedTree is the serialized form of a Tree.
type EncodedTree struct {
	// Positions holds the structural bits of the tree, packed MSB-first and
	// zero-padded to a whole byte.
	Positions []byte

	// Characters holds the leaf symbols in the order they are visited.
	Characters []byte
}

// IsSingleLeaf returns true if this is the degenerate encoding of a tree
// that consists of one leaf: no structural bits and one character.
func (enc EncodedTree) IsSingleLeaf() bool {
	return len(enc.Positions) == 0 && len(enc.Characters) == 1
}

// Encode serializes the tree.  Each leaf contributes a "0" bit and its
// symbol; each internal node contributes "1", its left subtree, "1", its
// right subtree and a closing "0".  A single-leaf tree skips the grammar and
// encodes as its symbol alone.
func (t *Tree) Encode() (EncodedTree, error) {
	if t.IsEmpty() {
		return EncodedTree{}, ErrEmptyInput
	}
	if t.IsSingleLeaf() {
		return EncodedTree{Characters: []byte{byte(t.nodes[t.root].Symbol)}}, nil
	}

	var positions bytes.Buffer
	positions.Grow(positionChunkSize)
	characters := make([]byte, 0, NumSymbols)
	bw := bitio.NewWriter(&positions)

	type stackItem struct {
		id NodeID
		x  byte
	}

	stack := make([]stackItem, 1, 64)
	stack[0] = stackItem{id: t.root}

	for len(stack) != 0 {
		top := &stack[len(stack)-1]
		node := t.nodes[top.id]

		if node.IsLeaf() {
			characters = append(characters, byte(node.Symbol))
			bw.TryWriteBool(false)
			stack = stack[:len(stack)-1]
			continue
		}

		x := top.x
		top.x++
		switch x {
		case 0:
			bw.TryWriteBool(true)
			stack = append(stack, stackItem{id: node.Left})
		case 1:
			bw.TryWriteBool(true)
			stack = append(stack, stackItem{id: node.Right})
		case 2:
			bw.TryWriteBool(false)
			stack = stack[:len(stack)-1]
		}
	}

	if bw.TryError != nil {
		return EncodedTree{}, fmt.Errorf("failed to encode tree: %w", bw.TryError)
	}
	if err := bw.Close(); err != nil {
		return EncodedTree{}, fmt.Errorf("failed to encode tree: %w", err)
	}
	assert.Assertf(len(characters) <= NumSymbols, "%d leaves > %d symbols", len(characters), NumSymbols)

	return EncodedTree{Positions: positions.Bytes(), Characters: characters}, nil
}

// DecodeTree rebuilds the Tree described by enc.  The grammar is checked
// strictly: every structural bit must be where the grammar expects it, every
// character must be used exactly once, and no symbol may label two leaves.
func DecodeTree(enc EncodedTree) (*Tree, error) {
	if len(enc.Characters) == 0 {
		return nil, fmt.Errorf("%w: no characters", ErrMalformedTree)
	}
	if len(enc.Characters) > NumSymbols {
		return nil, fmt.Errorf("%w: %d characters > %d", ErrMalformedTree, len(enc.Characters), NumSymbols)
	}
	if len(enc.Positions) == 0 {
		if len(enc.Characters) != 1 {
			return nil, fmt.Errorf("%w: no structural bits for %d characters", ErrMalformedTree, len(enc.Characters))
		}
		t := NewTree(1)
		t.SetRoot(t.AddLeaf(Symbol(enc.Characters[0]), 0))
		return t, nil
	}

	d := treeDecoder{
		br:    bitio.NewReader(bytes.NewReader(enc.Positions)),
		chars: enc.Characters,
		tree:  NewTree(2*len(enc.Characters) - 1),
	}
	if err := d.decode(); err != nil {
		return nil, err
	}

	if d.tree.IsSingleLeaf() {
		return nil, fmt.Errorf("%w: single leaf with structural bits", ErrMalformedTree)
	}
	if d.nextChar != len(enc.Characters) {
		return nil, fmt.Errorf("%w: %d of %d characters unused", ErrMalformedTree, len(enc.Characters)-d.nextChar, len(enc.Characters))
	}
	if used := (d.bitsRead + 7) / 8; used != len(enc.Positions) {
		return nil, fmt.Errorf("%w: %d trailing position bytes", ErrMalformedTree, len(enc.Positions)-used)
	}
	return d.tree, nil
}

type treeDecoder struct {
	br       *bitio.Reader
	chars    []byte
	tree     *Tree
	stack    []decodeFrame
	seen     [NumSymbols]bool
	nextChar int
	bitsRead int
}

// decodeFrame is an internal node whose children are still being parsed.
//   x=0 → the left child comes next
//   x=1 → the "1" separator and the right child come next
//   x=2 → the closing "0" comes next
type decodeFrame struct {
	id NodeID
	x  byte
}

func (d *treeDecoder) decode() error {
	root, err := d.open()
	if err != nil {
		return err
	}
	d.tree.SetRoot(root)

	for len(d.stack) != 0 {
		top := len(d.stack) - 1
		frame := d.stack[top]
		d.stack[top].x++

		switch frame.x {
		case 0:
			child, err := d.open()
			if err != nil {
				return err
			}
			d.tree.nodes[frame.id].Left = child

		case 1:
			if err := d.expect(true, "separator"); err != nil {
				return err
			}
			child, err := d.open()
			if err != nil {
				return err
			}
			d.tree.nodes[frame.id].Right = child

		case 2:
			if err := d.expect(false, "terminator"); err != nil {
				return err
			}
			d.stack = d.stack[:top]
		}
	}
	return nil
}

// open parses the first bit of a Node production.  A "0" yields a finished
// leaf; a "1" yields an internal node pushed onto the stack for its children.
func (d *treeDecoder) open() (NodeID, error) {
	bit, err := d.readBit()
	if err != nil {
		return NoNode, err
	}

	if !bit {
		if d.nextChar >= len(d.chars) {
			return NoNode, fmt.Errorf("%w: character index %d out of range [0, %d)", ErrMalformedTree, d.nextChar, len(d.chars))
		}
		symbol := d.chars[d.nextChar]
		d.nextChar++
		if d.seen[symbol] {
			return NoNode, fmt.Errorf("%w: symbol %d appears more than once", ErrMalformedTree, symbol)
		}
		d.seen[symbol] = true
		return d.tree.AddLeaf(Symbol(symbol), 0), nil
	}

	if len(d.stack) >= MaxCodeSize {
		return NoNode, fmt.Errorf("%w: deeper than %d levels", ErrMalformedTree, MaxCodeSize)
	}
	d.tree.nodes = append(d.tree.nodes, Node{Left: NoNode, Right: NoNode})
	id := NodeID(len(d.tree.nodes) - 1)
	d.stack = append(d.stack, decodeFrame{id: id})
	return id, nil
}

func (d *treeDecoder) expect(want bool, what string) error {
	bit, err := d.readBit()
	if err != nil {
		return err
	}
	if bit != want {
		return fmt.Errorf("%w: unexpected structural bit at position %d, want %s", ErrMalformedTree, d.bitsRead-1, what)
	}
	return nil
}

func (d *treeDecoder) readBit() (bool, error) {
	bit, err := d.br.ReadBool()
	if err != nil {
		return false, fmt.Errorf("%w: structural bits exhausted after %d bits", ErrMalformedTree, d.bitsRead)
	}
	d.bitsRead++
	return bit, nil
}
