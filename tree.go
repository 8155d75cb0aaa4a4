package huffman

import (
	"bytes"
	"fmt"
	"io"

	"github.com/chronos-tachyon/assert"
)

// Node is one vertex of a Tree.  A leaf carries a Symbol; an internal node
// carries only the combined Weight of its leaves.  A node is a leaf iff both
// Left and Right are NoNode.
type Node struct {
	Symbol Symbol
	Weight uint64
	Left   NodeID
	Right  NodeID
}

// IsLeaf returns true if this Node has no children.
func (n Node) IsLeaf() bool {
	return n.Left == NoNode && n.Right == NoNode
}

// Tree is a binary prefix-code tree stored as an arena of Nodes.  Every
// node is owned by exactly one parent, so the arena never contains sharing
// or cycles.
type Tree struct {
	nodes []Node
	root  NodeID
}

// NewTree returns an empty Tree with room for capacity nodes.
func NewTree(capacity int) *Tree {
	return &Tree{nodes: make([]Node, 0, capacity), root: NoNode}
}

// AddLeaf appends a leaf to the arena and returns its ID.
func (t *Tree) AddLeaf(symbol Symbol, weight uint64) NodeID {
	id := NodeID(len(t.nodes))
	t.nodes = append(t.nodes, Node{Symbol: symbol, Weight: weight, Left: NoNode, Right: NoNode})
	return id
}

// AddInternal appends an internal node whose children are left and right.
// Its weight is the sum of the children's weights.
func (t *Tree) AddInternal(left NodeID, right NodeID) NodeID {
	assert.Assertf(t.valid(left), "left child %d out of range [0, %d)", left, len(t.nodes))
	assert.Assertf(t.valid(right), "right child %d out of range [0, %d)", right, len(t.nodes))
	id := NodeID(len(t.nodes))
	weight := t.nodes[left].Weight + t.nodes[right].Weight
	t.nodes = append(t.nodes, Node{Weight: weight, Left: left, Right: right})
	return id
}

// SetRoot designates id as the root of the tree.
func (t *Tree) SetRoot(id NodeID) {
	assert.Assertf(t.valid(id), "root %d out of range [0, %d)", id, len(t.nodes))
	t.root = id
}

// Root returns the ID of the root node, or NoNode for an empty Tree.
func (t *Tree) Root() NodeID {
	return t.root
}

// Node returns the node with the given ID.
func (t *Tree) Node(id NodeID) Node {
	assert.Assertf(t.valid(id), "node %d out of range [0, %d)", id, len(t.nodes))
	return t.nodes[id]
}

// Len returns the number of nodes in the arena.
func (t *Tree) Len() int {
	return len(t.nodes)
}

// IsEmpty returns true if no root has been set.
func (t *Tree) IsEmpty() bool {
	return t.root == NoNode
}

// IsSingleLeaf returns true if the root itself is a leaf, i.e. the input
// held exactly one distinct symbol.
func (t *Tree) IsSingleLeaf() bool {
	return t.root != NoNode && t.nodes[t.root].IsLeaf()
}

// Weight returns the weight of the root, which is the number of symbols the
// tree was built from.
func (t *Tree) Weight() uint64 {
	if t.root == NoNode {
		return 0
	}
	return t.nodes[t.root].Weight
}

// Leaves returns the leaf symbols in left-to-right order.
func (t *Tree) Leaves() []Symbol {
	var out []Symbol
	t.walk(func(id NodeID, depth int) {
		if n := t.nodes[id]; n.IsLeaf() {
			out = append(out, n.Symbol)
		}
	})
	return out
}

// Depth returns the length of the longest root-to-leaf path.  A single-leaf
// tree has depth 0.
func (t *Tree) Depth() int {
	var max int
	t.walk(func(id NodeID, depth int) {
		if depth > max {
			max = depth
		}
	})
	return max
}

// Equal returns true if both trees have the same shape and the same symbol
// at every leaf.  Weights are not compared: a decoded tree carries none.
func (t *Tree) Equal(other *Tree) bool {
	if t.root == NoNode || other.root == NoNode {
		return t.root == NoNode && other.root == NoNode
	}

	type pair struct {
		a NodeID
		b NodeID
	}

	stack := []pair{{t.root, other.root}}
	for len(stack) != 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		a, b := t.nodes[top.a], other.nodes[top.b]
		if a.IsLeaf() != b.IsLeaf() {
			return false
		}
		if a.IsLeaf() {
			if a.Symbol != b.Symbol {
				return false
			}
			continue
		}
		stack = append(stack, pair{a.Right, b.Right}, pair{a.Left, b.Left})
	}
	return true
}

// Dump writes a programmer-readable debugging dump of the tree to the given
// writer, one node per line, indented by depth.
func (t *Tree) Dump(w io.Writer) (int64, error) {
	var buf bytes.Buffer
	buf.WriteString("Tree{\n")
	t.walk(func(id NodeID, depth int) {
		n := t.nodes[id]
		buf.WriteByte('\t')
		for i := 0; i < depth; i++ {
			buf.WriteString("  ")
		}
		if n.IsLeaf() {
			fmt.Fprintf(&buf, "Leaf(%d) weight=%d\n", n.Symbol, n.Weight)
		} else {
			fmt.Fprintf(&buf, "Node weight=%d\n", n.Weight)
		}
	})
	buf.WriteString("}\n")
	return buf.WriteTo(w)
}

// walk visits every node in pre-order, left before right, using an explicit
// stack so that maximally skewed trees cannot exhaust the call stack.
func (t *Tree) walk(fn func(id NodeID, depth int)) {
	if t.root == NoNode {
		return
	}

	type stackItem struct {
		id    NodeID
		depth int
	}

	stack := []stackItem{{t.root, 0}}
	for len(stack) != 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		fn(top.id, top.depth)
		if n := t.nodes[top.id]; !n.IsLeaf() {
			stack = append(stack, stackItem{n.Right, top.depth + 1}, stackItem{n.Left, top.depth + 1})
		}
	}
}

func (t *Tree) valid(id NodeID) bool {
	return id >= 0 && int(id) < len(t.nodes)
}
