package huffman

import (
	"bufio"
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestHeader_RoundTrip(t *testing.T) {
	type testRow struct {
		name   string
		header Header
		expect string
	}

	testData := [...]testRow{
		{
			name:   "tree",
			header: Header{OriginalSize: 9, Tree: EncodedTree{Positions: []byte{0xb4, 0x00}, Characters: []byte("acb")}},
			expect: "9\n2\n3\n\xb4\x00\nacb\n",
		},
		{
			name:   "single-leaf",
			header: Header{OriginalSize: 5, Tree: EncodedTree{Characters: []byte("z")}},
			expect: "5\n0\n1\nz",
		},
	}

	for _, row := range testData {
		t.Run(row.name, func(t *testing.T) {
			var buf bytes.Buffer
			n, err := WriteHeader(&buf, row.header)
			if err != nil {
				t.Fatalf("WriteHeader failed: %v", err)
			}
			if actual := buf.String(); row.expect != actual {
				t.Errorf("wrong output:\n\texpect: %q\n\tactual: %q", row.expect, actual)
			}
			if n != int64(len(row.expect)) {
				t.Errorf("expected %d bytes written, got %d", len(row.expect), n)
			}

			buf.WriteString("payload")
			r := bufio.NewReader(&buf)
			h, err := ReadHeader(r)
			if err != nil {
				t.Fatalf("ReadHeader failed: %v", err)
			}
			if h.OriginalSize != row.header.OriginalSize ||
				!bytes.Equal(h.Tree.Positions, row.header.Tree.Positions) ||
				!bytes.Equal(h.Tree.Characters, row.header.Tree.Characters) {
				t.Errorf("wrong header: %+v", h)
			}

			rest, _ := r.Peek(len("payload"))
			if string(rest) != "payload" {
				t.Errorf("expected the reader to stop at the payload, got %q", rest)
			}
		})
	}
}

func TestReadHeader_CarriageReturn(t *testing.T) {
	h, err := ReadHeader(bufio.NewReader(strings.NewReader("5\r\n0\r\n1\r\nz")))
	if err != nil {
		t.Fatalf("ReadHeader failed: %v", err)
	}
	if h.OriginalSize != 5 || string(h.Tree.Characters) != "z" {
		t.Errorf("wrong header: %+v", h)
	}
}

func TestReadHeader_Malformed(t *testing.T) {
	type testRow struct {
		name  string
		input string
	}

	testData := [...]testRow{
		{"empty", ""},
		{"missing-lengths", "9\n"},
		{"not-a-number", "x\n2\n3\n"},
		{"negative", "-1\n2\n3\n"},
		{"field-too-long", strings.Repeat("1", maxHeaderField+1) + "\n"},
		{"zero-size", "0\n0\n1\nz"},
		{"no-characters", "9\n2\n0\n"},
		{"too-many-characters", "9\n2\n257\n"},
		{"characters-without-tree", "9\n0\n2\nab"},
		{"positions-too-long", "9\n1001\n3\n"},
		{"short-positions", "9\n2\n3\n\xb4"},
		{"bad-positions-separator", "9\n2\n3\n\xb4\x00Xacb\n"},
		{"short-characters", "9\n2\n3\n\xb4\x00\nac"},
		{"bad-characters-separator", "9\n2\n3\n\xb4\x00\nacbX"},
		{"missing-characters-separator", "9\n2\n3\n\xb4\x00\nacb"},
	}

	for _, row := range testData {
		t.Run(row.name, func(t *testing.T) {
			_, err := ReadHeader(bufio.NewReader(strings.NewReader(row.input)))
			if !errors.Is(err, ErrMalformedHeader) {
				t.Errorf("expected ErrMalformedHeader, got %v", err)
			}
		})
	}
}
