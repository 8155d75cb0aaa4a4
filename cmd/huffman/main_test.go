package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func runCLI(t *testing.T, stdin string, args ...string) (int, string, string) {
	t.Helper()
	t.Setenv("DEVELOPMENT_MODE", "")
	t.Setenv("MAX_UPLOAD_SIZE", "")
	t.Setenv("MAX_OUTPUT_SIZE", "")
	t.Setenv("GCS_TIMEOUT", "")

	var stdout, stderr bytes.Buffer
	code := run(args, strings.NewReader(stdin), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestHelp(t *testing.T) {
	code, stdout, _ := runCLI(t, "", "-h")
	if code != 0 {
		t.Fatalf("expected exit code 0, got %d", code)
	}
	for _, want := range []string{"SYNOPSIS", "huffman [OPTION] SOURCE DEST", "-c", "-d"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("expected help to contain %q", want)
		}
	}
}

func TestBadParameters(t *testing.T) {
	for _, args := range [][]string{
		{"-x"},
		{"-c"},
		{"-c", "only-source"},
		{"-d", "a", "b", "c"},
		{"-h", "extra"},
	} {
		code, _, stderr := runCLI(t, "", args...)
		if code != 1 {
			t.Errorf("%q: expected exit code 1, got %d", args, code)
		}
		if !strings.Contains(stderr, "bad parameters") {
			t.Errorf("%q: expected a bad parameters message, got %q", args, stderr)
		}
	}
}

func TestCompressDecompress(t *testing.T) {
	dir := t.TempDir()
	input := []byte(strings.Repeat("she sells sea shells by the sea shore\n", 200))
	src := filepath.Join(dir, "in.txt")
	archive := filepath.Join(dir, "in.txt.huf")
	output := filepath.Join(dir, "out.txt")
	if err := os.WriteFile(src, input, 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	code, stdout, stderr := runCLI(t, "", "-c", src, archive)
	if code != 0 {
		t.Fatalf("compress: exit code %d: %s", code, stderr)
	}
	for _, want := range []string{"Compressing " + src, "Done (", "kB compressed to", "%)"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("compress: expected output to contain %q, got %q", want, stdout)
		}
	}

	code, stdout, stderr = runCLI(t, "", "-d", archive, output)
	if code != 0 {
		t.Fatalf("decompress: exit code %d: %s", code, stderr)
	}
	if !strings.Contains(stdout, "Decompressing "+archive) {
		t.Errorf("decompress: unexpected output %q", stdout)
	}

	actual, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if !bytes.Equal(input, actual) {
		t.Errorf("round trip mismatch: %d bytes in, %d bytes out", len(input), len(actual))
	}
}

func TestEmptyFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "empty.txt")
	dst := filepath.Join(dir, "empty.huf")
	if err := os.WriteFile(src, nil, 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	code, stdout, _ := runCLI(t, "", "-c", src, dst)
	if code != 0 {
		t.Fatalf("expected exit code 0, got %d", code)
	}
	if !strings.Contains(stdout, "This file is empty") {
		t.Errorf("expected the empty file message, got %q", stdout)
	}
	if _, err := os.Stat(dst); !os.IsNotExist(err) {
		t.Errorf("expected no output file, got %v", err)
	}
}

func TestEmptyFile_KeepsExistingDest(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "empty.txt")
	dst := filepath.Join(dir, "kept.huf")
	if err := os.WriteFile(src, nil, 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if err := os.WriteFile(dst, []byte("precious data"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	code, stdout, _ := runCLI(t, "", "-c", src, dst)
	if code != 0 {
		t.Fatalf("expected exit code 0, got %d", code)
	}
	if !strings.Contains(stdout, "This file is empty") {
		t.Errorf("expected the empty file message, got %q", stdout)
	}
	actual, err := os.ReadFile(dst)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if expect := "precious data"; string(actual) != expect {
		t.Errorf("wrong output:\n\texpect: %q\n\tactual: %q", expect, actual)
	}
}

func TestMalformedArchive(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "bad.huf")
	dst := filepath.Join(dir, "out.txt")
	if err := os.WriteFile(src, []byte("9\n2\n3\n\xb4\x00\nacb\n\x0f"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	code, _, stderr := runCLI(t, "", "-d", src, dst)
	if code != 1 {
		t.Fatalf("expected exit code 1, got %d", code)
	}
	if !strings.Contains(stderr, "truncated") {
		t.Errorf("expected a truncation error, got %q", stderr)
	}
	if _, err := os.Stat(dst); !os.IsNotExist(err) {
		t.Errorf("expected no output file, got %v", err)
	}
}

func TestInteractive(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "in.txt")
	dst := filepath.Join(dir, "in.huf")
	if err := os.WriteFile(src, []byte("aaaabbbcc"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	code, stdout, stderr := runCLI(t, "c\n"+src+"\n"+dst+"\n")
	if code != 0 {
		t.Fatalf("exit code %d: %s", code, stderr)
	}
	if !strings.Contains(stdout, "Press 'c' to compress a file or 'd' to decompress it: ") {
		t.Errorf("expected the prompt, got %q", stdout)
	}

	archive, err := os.ReadFile(dst)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if expect := "9\n2\n3\n\xb4\x00\nacb\n\x0f\xe8"; string(archive) != expect {
		t.Errorf("wrong output:\n\texpect: %q\n\tactual: %q", expect, archive)
	}

	code, _, stderr = runCLI(t, "x\n")
	if code != 1 || !strings.Contains(stderr, "can't get the user choice") {
		t.Errorf("expected the choice to be asked again until EOF, got %d %q", code, stderr)
	}
}

func TestInteractive_InvalidChoice(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "in.huf")
	dst := filepath.Join(dir, "out.txt")
	if err := os.WriteFile(src, []byte("9\n2\n3\n\xb4\x00\nacb\n\x0f\xe8"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	code, stdout, stderr := runCLI(t, "x\n\nC\nd\n"+src+"\n"+dst+"\n")
	if code != 0 {
		t.Fatalf("exit code %d: %s", code, stderr)
	}
	if n := strings.Count(stdout, "Press 'c' to compress a file or 'd' to decompress it: "); n != 4 {
		t.Errorf("expected the choice to be asked 4 times, got %d", n)
	}

	actual, err := os.ReadFile(dst)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if expect := "aaaabbbcc"; string(actual) != expect {
		t.Errorf("wrong output:\n\texpect: %q\n\tactual: %q", expect, actual)
	}
}
