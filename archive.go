package huffman

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
)

// ErrTooLarge is returned by Decompress when the archive declares more data
// than Archiver.MaxSize allows.
var ErrTooLarge = errors.New("huffman: decompressed size over limit")

// Stats summarizes one Compress or Decompress run.
type Stats struct {
	// OriginalSize is the number of bytes of uncompressed data.
	OriginalSize uint64

	// CompressedSize is the number of archive bytes written or read.
	CompressedSize uint64

	// Symbols is the number of distinct byte values in the data.
	Symbols int

	// MaxCodeSize is the bit length of the longest code, or 0 when the data
	// holds a single distinct byte value.
	MaxCodeSize byte
}

// Ratio returns CompressedSize as a percentage of OriginalSize.
func (s Stats) Ratio() float64 {
	if s.OriginalSize == 0 {
		return 0
	}
	return float64(s.CompressedSize) / float64(s.OriginalSize) * 100
}

// Archiver runs the compression and decompression pipelines.  The zero
// value is ready to use and logs nothing.
type Archiver struct {
	// Logger receives one debug record per pipeline step.
	Logger *slog.Logger

	// MaxSize, if non-zero, is the largest original size Decompress will
	// accept.  Archives declaring more are rejected before any data is
	// decoded.
	MaxSize uint64
}

// Compress writes the archive of src to dst.  src is read twice: once to
// count symbols and, after seeking back to where it started, once to encode
// them.
func Compress(dst io.Writer, src io.ReadSeeker) (Stats, error) {
	var a Archiver
	return a.Compress(dst, src)
}

// Decompress writes the data stored in the archive src to dst.
func Decompress(dst io.Writer, src io.Reader) (Stats, error) {
	var a Archiver
	return a.Decompress(dst, src)
}

// Compress is like the package-level Compress, but logs through a.Logger.
func (a *Archiver) Compress(dst io.Writer, src io.ReadSeeker) (Stats, error) {
	var stats Stats
	logger := a.logger()

	start, err := src.Seek(0, io.SeekCurrent)
	if err != nil {
		return stats, fmt.Errorf("failed to locate input: %w", err)
	}

	logger.Debug("Counting the symbols")
	ft, err := CountFrequencies(src)
	if err != nil {
		return stats, err
	}
	stats.OriginalSize = ft.Total
	stats.Symbols = ft.Distinct()

	logger.Debug("Creating the Huffman tree", "symbols", stats.Symbols, "size", ft.Total)
	tree, err := BuildTree(&ft)
	if err != nil {
		return stats, err
	}

	logger.Debug("Saving the tree")
	enc, err := tree.Encode()
	if err != nil {
		return stats, err
	}
	out := &countingWriter{w: dst}
	if _, err := WriteHeader(out, Header{OriginalSize: ft.Total, Tree: enc}); err != nil {
		return stats, err
	}
	stats.CompressedSize = uint64(out.n)

	if tree.IsSingleLeaf() {
		logger.Debug("Single symbol input, no payload", "symbol", enc.Characters[0])
		return stats, nil
	}

	logger.Debug("Preparing the compression")
	table, err := NewCodeTable(tree)
	if err != nil {
		return stats, err
	}
	stats.MaxCodeSize = table.MaxSize()

	if _, err := src.Seek(start, io.SeekStart); err != nil {
		return stats, fmt.Errorf("failed to rewind input: %w", err)
	}

	logger.Debug("Compressing", "payload_bits", table.EncodedBits(&ft))
	e := NewEncoder(out, table)
	n, err := io.Copy(e, src)
	if err != nil {
		return stats, err
	}
	if uint64(n) != ft.Total {
		return stats, fmt.Errorf("input changed between passes: counted %d bytes, encoded %d", ft.Total, n)
	}
	if err := e.Close(); err != nil {
		return stats, err
	}
	stats.CompressedSize = uint64(out.n)
	return stats, nil
}

// Decompress is like the package-level Decompress, but logs through
// a.Logger.
func (a *Archiver) Decompress(dst io.Writer, src io.Reader) (Stats, error) {
	var stats Stats
	logger := a.logger()

	in := &countingReader{r: src}
	br := bufio.NewReaderSize(in, readBufferSize)

	logger.Debug("Getting data from the archive")
	h, err := ReadHeader(br)
	if err != nil {
		return stats, err
	}
	stats.OriginalSize = h.OriginalSize
	stats.Symbols = len(h.Tree.Characters)
	if a.MaxSize > 0 && h.OriginalSize > a.MaxSize {
		return stats, fmt.Errorf("%w: archive declares %d bytes, limit is %d", ErrTooLarge, h.OriginalSize, a.MaxSize)
	}

	logger.Debug("Building the Huffman tree from data", "symbols", stats.Symbols, "size", h.OriginalSize)
	tree, err := DecodeTree(h.Tree)
	if err != nil {
		return stats, err
	}
	if !tree.IsSingleLeaf() {
		stats.MaxCodeSize = byte(tree.Depth())
	}

	logger.Debug("Decompressing")
	bw := bufio.NewWriterSize(dst, readBufferSize)
	d := NewDecoder(br, tree, h.OriginalSize)
	n, err := io.Copy(bw, d)
	stats.CompressedSize = uint64(in.n)
	if err != nil {
		return stats, err
	}
	if err := bw.Flush(); err != nil {
		return stats, fmt.Errorf("failed to write output: %w", err)
	}
	if uint64(n) != h.OriginalSize {
		return stats, fmt.Errorf("%w: decoded %d of %d bytes", ErrTruncated, n, h.OriginalSize)
	}
	return stats, nil
}

func (a *Archiver) logger() *slog.Logger {
	if a.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return a.Logger
}

type countingReader struct {
	r io.Reader
	n int64
}

func (cr *countingReader) Read(p []byte) (int, error) {
	n, err := cr.r.Read(p)
	cr.n += int64(n)
	return n, err
}
