package huffman

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ErrMalformedHeader is returned when an archive header cannot be parsed.
var ErrMalformedHeader = errors.New("huffman: malformed header")

// maxHeaderField bounds the length of one decimal header line.
const maxHeaderField = 20

// Header is the leading section of an archive: the original size and the
// encoded tree.
type Header struct {
	OriginalSize uint64
	Tree         EncodedTree
}

// WriteHeader writes h in archive format and returns the number of bytes
// written.
func WriteHeader(w io.Writer, h Header) (int64, error) {
	bw := bufio.NewWriter(w)
	cw := &countingWriter{w: bw}

	fmt.Fprintf(cw, "%d\n%d\n%d\n", h.OriginalSize, len(h.Tree.Positions), len(h.Tree.Characters))
	if len(h.Tree.Positions) != 0 {
		cw.Write(h.Tree.Positions)
		cw.Write([]byte{'\n'})
		cw.Write(h.Tree.Characters)
		cw.Write([]byte{'\n'})
	} else {
		cw.Write(h.Tree.Characters)
	}

	if cw.err != nil {
		return cw.n, fmt.Errorf("failed to write header: %w", cw.err)
	}
	if err := bw.Flush(); err != nil {
		return cw.n, fmt.Errorf("failed to write header: %w", err)
	}
	return cw.n, nil
}

// ReadHeader parses an archive header from r, leaving r positioned at the
// first byte of the payload.
func ReadHeader(r *bufio.Reader) (Header, error) {
	var h Header

	originalSize, err := readDecimal(r, "original size")
	if err != nil {
		return h, err
	}
	positionsLen, err := readDecimal(r, "positions length")
	if err != nil {
		return h, err
	}
	charactersLen, err := readDecimal(r, "characters length")
	if err != nil {
		return h, err
	}

	if originalSize < 1 {
		return h, fmt.Errorf("%w: original size %d", ErrMalformedHeader, originalSize)
	}
	if charactersLen < 1 || charactersLen > NumSymbols {
		return h, fmt.Errorf("%w: characters length %d out of range [1, %d]", ErrMalformedHeader, charactersLen, NumSymbols)
	}
	if positionsLen == 0 && charactersLen != 1 {
		return h, fmt.Errorf("%w: %d characters without a tree", ErrMalformedHeader, charactersLen)
	}
	if positionsLen > positionChunkSize {
		return h, fmt.Errorf("%w: positions length %d > %d", ErrMalformedHeader, positionsLen, positionChunkSize)
	}
	h.OriginalSize = originalSize

	if positionsLen != 0 {
		h.Tree.Positions = make([]byte, positionsLen)
		if err := readSection(r, h.Tree.Positions, "positions"); err != nil {
			return h, err
		}
		if err := readSeparator(r, "positions"); err != nil {
			return h, err
		}
	}

	h.Tree.Characters = make([]byte, charactersLen)
	if err := readSection(r, h.Tree.Characters, "characters"); err != nil {
		return h, err
	}
	if positionsLen != 0 {
		if err := readSeparator(r, "characters"); err != nil {
			return h, err
		}
	}
	return h, nil
}

func readDecimal(r *bufio.Reader, what string) (uint64, error) {
	var sb strings.Builder
	for {
		ch, err := r.ReadByte()
		if err != nil {
			if err == io.EOF {
				return 0, fmt.Errorf("%w: missing %s", ErrMalformedHeader, what)
			}
			return 0, fmt.Errorf("failed to read %s: %w", what, err)
		}
		if ch == '\n' {
			break
		}
		if sb.Len() >= maxHeaderField {
			return 0, fmt.Errorf("%w: %s field too long", ErrMalformedHeader, what)
		}
		sb.WriteByte(ch)
	}

	value, err := strconv.ParseUint(strings.TrimSuffix(sb.String(), "\r"), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid %s %q", ErrMalformedHeader, what, sb.String())
	}
	return value, nil
}

func readSection(r *bufio.Reader, buf []byte, what string) error {
	if _, err := io.ReadFull(r, buf); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return fmt.Errorf("%w: short %s buffer", ErrMalformedHeader, what)
		}
		return fmt.Errorf("failed to read %s buffer: %w", what, err)
	}
	return nil
}

func readSeparator(r *bufio.Reader, what string) error {
	ch, err := r.ReadByte()
	if err != nil {
		if err == io.EOF {
			return fmt.Errorf("%w: missing line break after %s buffer", ErrMalformedHeader, what)
		}
		return fmt.Errorf("failed to read %s separator: %w", what, err)
	}
	if ch != '\n' {
		return fmt.Errorf("%w: got byte %d after %s buffer, want line break", ErrMalformedHeader, ch, what)
	}
	return nil
}

// countingWriter remembers the first error and the number of bytes written,
// so that a sequence of writes needs only one check.
type countingWriter struct {
	w   io.Writer
	n   int64
	err error
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	if cw.err != nil {
		return 0, cw.err
	}
	n, err := cw.w.Write(p)
	cw.n += int64(n)
	cw.err = err
	return n, err
}
