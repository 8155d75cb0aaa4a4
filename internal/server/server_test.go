package server

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newUploadRequest(t *testing.T, target string, field string, name string, content []byte) *http.Request {
	t.Helper()
	body := new(bytes.Buffer)
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile(field, name)
	if err != nil {
		t.Fatalf("CreateFormFile failed: %v", err)
	}
	_, _ = part.Write(content)
	if err := writer.Close(); err != nil {
		t.Fatalf("multipart Close failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, target, body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)
	return rr
}

func errorOf(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not JSON: %q", rr.Body.String())
	}
	return body["error"]
}

func TestHealthz(t *testing.T) {
	rr := serve(New(nil, 0, 0), httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if body := strings.TrimSpace(rr.Body.String()); body != `{"ok":true}` {
		t.Errorf("wrong output:\n\texpect: %s\n\tactual: %s", `{"ok":true}`, body)
	}
}

func TestCompressDecompress(t *testing.T) {
	s := New(nil, 1<<20, 0)
	input := []byte(strings.Repeat("abracadabra ", 100))

	rr := serve(s, newUploadRequest(t, "/compress", "file", "spell.txt", input))
	if rr.Code != http.StatusOK {
		t.Fatalf("compress: expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if _, err := uuid.Parse(rr.Header().Get("X-Job-ID")); err != nil {
		t.Errorf("expected a UUID job ID, got %q", rr.Header().Get("X-Job-ID"))
	}
	if cd := rr.Header().Get("Content-Disposition"); cd != `attachment; filename=spell.txt.huf` {
		t.Errorf("wrong Content-Disposition: %q", cd)
	}
	archive := rr.Body.Bytes()
	if len(archive) >= len(input) {
		t.Errorf("expected the archive to be smaller than %d bytes, got %d", len(input), len(archive))
	}

	rr = serve(s, newUploadRequest(t, "/decompress", "file", "spell.txt.huf", archive))
	if rr.Code != http.StatusOK {
		t.Fatalf("decompress: expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if cd := rr.Header().Get("Content-Disposition"); cd != `attachment; filename=spell.txt` {
		t.Errorf("wrong Content-Disposition: %q", cd)
	}
	if !bytes.Equal(input, rr.Body.Bytes()) {
		t.Errorf("round trip mismatch: %d bytes in, %d bytes out", len(input), rr.Body.Len())
	}
}

func TestCompress_Golden(t *testing.T) {
	rr := serve(New(nil, 0, 0), newUploadRequest(t, "/compress", "file", "abc", []byte("aaaabbbcc")))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if expect := "9\n2\n3\n\xb4\x00\nacb\n\x0f\xe8"; rr.Body.String() != expect {
		t.Errorf("wrong output:\n\texpect: %q\n\tactual: %q", expect, rr.Body.String())
	}
}

func TestErrors(t *testing.T) {
	type testRow struct {
		name   string
		req    func(t *testing.T) *http.Request
		status int
	}

	testData := [...]testRow{
		{
			name: "missing-file",
			req: func(t *testing.T) *http.Request {
				return newUploadRequest(t, "/compress", "other", "x.txt", []byte("data"))
			},
			status: http.StatusBadRequest,
		},
		{
			name: "empty-input",
			req: func(t *testing.T) *http.Request {
				return newUploadRequest(t, "/compress", "file", "empty.txt", nil)
			},
			status: http.StatusBadRequest,
		},
		{
			name: "malformed-archive",
			req: func(t *testing.T) *http.Request {
				return newUploadRequest(t, "/decompress", "file", "bad.huf", []byte("not an archive"))
			},
			status: http.StatusBadRequest,
		},
		{
			name: "truncated-archive",
			req: func(t *testing.T) *http.Request {
				return newUploadRequest(t, "/decompress", "file", "short.huf", []byte("9\n2\n3\n\xb4\x00\nacb\n\x0f"))
			},
			status: http.StatusBadRequest,
		},
		{
			name: "too-large",
			req: func(t *testing.T) *http.Request {
				return newUploadRequest(t, "/compress", "file", "big.bin", bytes.Repeat([]byte{'x'}, 4096))
			},
			status: http.StatusRequestEntityTooLarge,
		},
		{
			name: "output-too-large",
			req: func(t *testing.T) *http.Request {
				return newUploadRequest(t, "/decompress", "file", "bomb.huf", []byte("67108864\n0\n1\nz"))
			},
			status: http.StatusRequestEntityTooLarge,
		},
	}

	s := New(nil, 1024, 4096)
	for _, row := range testData {
		t.Run(row.name, func(t *testing.T) {
			rr := serve(s, row.req(t))
			if rr.Code != row.status {
				t.Fatalf("expected status %d, got %d: %s", row.status, rr.Code, rr.Body.String())
			}
			if msg := errorOf(t, rr); msg == "" {
				t.Errorf("expected an error message")
			}
		})
	}
}
