package huffman

import (
	"container/list"
	"errors"

	"github.com/chronos-tachyon/assert"
)

// ErrEmptyInput is returned when there are no symbols to build a code from.
var ErrEmptyInput = errors.New("huffman: empty input")

// BuildTree builds the prefix-code tree for the given frequencies.  The
// leaves of the result are exactly the symbols with a non-zero count.  If
// only one symbol occurs, the tree is that single leaf.
//
// The merge order is fully determined, so identical inputs always produce
// bit-identical archives:
//
//   - the candidate list starts with one leaf per symbol, each pushed to the
//     front in ascending symbol order;
//
//   - the lightest candidate is found by a front-to-back scan which only
//     replaces its best match on a strictly smaller weight, so ties go to
//     the candidate nearer the front;
//
//   - the first candidate removed becomes the left child, the second the
//     right child, and the merged node is pushed to the front.
//
// The scan is quadratic in the number of distinct symbols, which is bounded
// by NumSymbols.
//
func BuildTree(ft *FrequencyTable) (*Tree, error) {
	distinct := ft.Distinct()
	if distinct == 0 {
		return nil, ErrEmptyInput
	}

	t := NewTree(2*distinct - 1)
	candidates := list.New()
	for symbol := 0; symbol < NumSymbols; symbol++ {
		if count := ft.Counts[symbol]; count != 0 {
			candidates.PushFront(t.AddLeaf(Symbol(symbol), count))
		}
	}

	if candidates.Len() == 1 {
		t.SetRoot(candidates.Front().Value.(NodeID))
		return t, nil
	}

	for {
		left := popMin(t, candidates)
		right := popMin(t, candidates)
		merged := t.AddInternal(left, right)
		if candidates.Len() == 0 {
			t.SetRoot(merged)
			break
		}
		candidates.PushFront(merged)
	}

	assert.Assertf(t.Weight() == ft.Total, "tree weight %d != input size %d", t.Weight(), ft.Total)
	return t, nil
}

// popMin removes and returns the lightest candidate.  Among equal weights,
// the candidate nearest the front of the list wins.
func popMin(t *Tree, candidates *list.List) NodeID {
	best := candidates.Front()
	assert.Assertf(best != nil, "popMin on an empty candidate list")

	bestWeight := t.nodes[best.Value.(NodeID)].Weight
	for e := best.Next(); e != nil; e = e.Next() {
		if w := t.nodes[e.Value.(NodeID)].Weight; w < bestWeight {
			best, bestWeight = e, w
		}
	}
	return candidates.Remove(best).(NodeID)
}
