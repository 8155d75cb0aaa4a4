package huffman

// Symbol represents one byte of input.  The alphabet is always the full
// range of byte values.
type Symbol byte

// NumSymbols is the size of the alphabet.
const NumSymbols = 256

// NodeID indexes a Node inside its Tree.  Negative IDs are not valid.
type NodeID int32

// NoNode marks an absent child, or the root of an empty Tree.
const NoNode = NodeID(-1)
