// Package huffman implements a lossless byte-stream archiver built on
// Huffman coding.
//
// Compression counts the occurrences of every byte value, builds a prefix
// code tree by repeatedly merging the two lightest candidates, stores that
// tree in a compact self-describing form, and then packs one variable-length
// code per input byte, most significant bit first.  Decompression rebuilds
// the tree and walks it one payload bit at a time.
//
// The archive layout is:
//
//     <originalSize>\n<len(positions)>\n<len(characters)>\n
//     <positions>\n<characters>\n<payload ... EOF>
//
// When the input holds a single distinct byte value, len(positions) is 0
// and the header is followed by that one raw byte and nothing else.
//
// The positions buffer encodes the tree shape in pre-order with the grammar
//
//     Node ::= "0" | "1" Node "1" Node "0"
//
// where each "0" production is a leaf whose value is the next unread byte
// of the characters buffer.
//
// References:
//
//     <https://en.wikipedia.org/wiki/Huffman_coding>
//
package huffman
