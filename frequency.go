package huffman

import (
	"bytes"
	"fmt"
	"io"
)

const readBufferSize = 64 * 1024

// FrequencyTable holds the number of occurrences of each byte value in an
// input, along with the total number of bytes seen.
type FrequencyTable struct {
	Counts [NumSymbols]uint64
	Total  uint64
}

// CountFrequencies consumes r to the end and returns the occurrence count of
// every byte value.
func CountFrequencies(r io.Reader) (FrequencyTable, error) {
	var ft FrequencyTable
	buf := make([]byte, readBufferSize)
	for {
		n, err := r.Read(buf)
		ft.Add(buf[:n])
		if err == io.EOF {
			return ft, nil
		}
		if err != nil {
			return ft, fmt.Errorf("failed to count symbols: %w", err)
		}
	}
}

// Add counts every byte of p.
func (ft *FrequencyTable) Add(p []byte) {
	for _, b := range p {
		ft.Counts[b]++
	}
	ft.Total += uint64(len(p))
}

// Distinct returns how many byte values occur at least once.
func (ft *FrequencyTable) Distinct() int {
	var n int
	for _, count := range ft.Counts {
		if count != 0 {
			n++
		}
	}
	return n
}

// Dump writes a programmer-readable debugging dump of the non-zero counts to
// the given writer.
func (ft *FrequencyTable) Dump(w io.Writer) (int64, error) {
	var buf bytes.Buffer
	buf.WriteString("FrequencyTable{\n")
	fmt.Fprintf(&buf, "\tTotal = %d\n", ft.Total)
	for symbol, count := range ft.Counts {
		if count != 0 {
			fmt.Fprintf(&buf, "\tCount(%d) = %d\n", symbol, count)
		}
	}
	buf.WriteString("}\n")
	return buf.WriteTo(w)
}
