package huffman

import (
	"testing"
)

// makeTestTree returns the tree built from "aaaabbbcc":
//
//     Node
//       Leaf('a')
//       Node
//         Leaf('c')
//         Leaf('b')
//
func makeTestTree(t *testing.T) (*Tree, FrequencyTable) {
	t.Helper()
	var ft FrequencyTable
	ft.Add([]byte("aaaabbbcc"))
	tree, err := BuildTree(&ft)
	if err != nil {
		t.Fatalf("BuildTree failed: %v", err)
	}
	return tree, ft
}

// makeSkewedTree returns the maximally skewed tree over all byte values:
// symbol s < 255 has the code "1"×s + "0", and symbol 255 has "1"×255.
func makeSkewedTree() *Tree {
	t := NewTree(2*NumSymbols - 1)
	cur := t.AddLeaf(NumSymbols-1, 1)
	for symbol := NumSymbols - 2; symbol >= 0; symbol-- {
		cur = t.AddInternal(t.AddLeaf(Symbol(symbol), 1), cur)
	}
	t.SetRoot(cur)
	return t
}

// makeBalancedTree returns the perfectly balanced tree over all byte
// values: every symbol's code is its own 8-bit binary representation.
func makeBalancedTree() *Tree {
	t := NewTree(2*NumSymbols - 1)
	level := make([]NodeID, NumSymbols)
	for symbol := range level {
		level[symbol] = t.AddLeaf(Symbol(symbol), 1)
	}
	for len(level) > 1 {
		next := make([]NodeID, 0, len(level)/2)
		for i := 0; i < len(level); i += 2 {
			next = append(next, t.AddInternal(level[i], level[i+1]))
		}
		level = next
	}
	t.SetRoot(level[0])
	return t
}

func makeSingleLeafTree(symbol Symbol) *Tree {
	t := NewTree(1)
	t.SetRoot(t.AddLeaf(symbol, 7))
	return t
}
