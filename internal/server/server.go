// Package server exposes the archiver over HTTP.
package server

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/huffpack/huffman"
)

// ArchiveExt is appended to compressed file names.
const ArchiveExt = ".huf"

// Server holds the settings shared by the HTTP handlers.  Zero limits
// disable the corresponding check.
type Server struct {
	Logger *slog.Logger

	// MaxUploadSize caps the request body, in bytes.
	MaxUploadSize int64

	// MaxOutputSize caps the size of a decompressed response, in bytes.
	MaxOutputSize int64
}

// New returns a Server with the given logger and limits.
func New(logger *slog.Logger, maxUploadSize int64, maxOutputSize int64) *Server {
	return &Server{Logger: logger, MaxUploadSize: maxUploadSize, MaxOutputSize: maxOutputSize}
}

// Handler returns a gin engine with every route registered.
func (s *Server) Handler() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	Register(r, s)
	return r
}

// Register adds the health check and the archive routes of s to r.
func Register(r *gin.Engine, s *Server) {
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	r.POST("/compress", s.Compress)
	r.POST("/decompress", s.Decompress)
}

// Compress answers with the archive of the uploaded "file" field.
func (s *Server) Compress(c *gin.Context) {
	s.handle(c, "compress", func(dst io.Writer, src io.ReadSeeker, log *slog.Logger) (huffman.Stats, error) {
		a := huffman.Archiver{Logger: log}
		return a.Compress(dst, src)
	}, func(name string) string {
		return name + ArchiveExt
	})
}

// Decompress answers with the data stored in the uploaded archive.  An
// archive declaring more than MaxOutputSize bytes is refused with 413.
func (s *Server) Decompress(c *gin.Context) {
	s.handle(c, "decompress", func(dst io.Writer, src io.ReadSeeker, log *slog.Logger) (huffman.Stats, error) {
		a := huffman.Archiver{Logger: log}
		if s.MaxOutputSize > 0 {
			a.MaxSize = uint64(s.MaxOutputSize)
		}
		return a.Decompress(dst, src)
	}, func(name string) string {
		if trimmed := strings.TrimSuffix(name, ArchiveExt); trimmed != name && trimmed != "" {
			return trimmed
		}
		return name + ".out"
	})
}

type runFunc func(dst io.Writer, src io.ReadSeeker, log *slog.Logger) (huffman.Stats, error)

func (s *Server) handle(c *gin.Context, mode string, run runFunc, outputName func(string) string) {
	jobID := uuid.New().String()
	log := s.logger().With("job", jobID, "mode", mode)

	if s.MaxUploadSize > 0 {
		if c.Request.ContentLength > s.MaxUploadSize {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "request body too large"})
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.MaxUploadSize)
	}

	fh, err := c.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "request body too large"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing multipart field \"file\""})
		return
	}

	f, err := fh.Open()
	if err != nil {
		log.Error("Failed to open upload", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	defer f.Close()

	log.Info("Received job", "source", fh.Filename, "size", fh.Size)

	var out bytes.Buffer
	stats, err := run(&out, f, log)
	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			log.Error("Failed to process job", "error", err)
		} else {
			log.Info("Rejected job", "error", err)
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	log.Info("Completed processing job",
		"original_size", stats.OriginalSize,
		"compressed_size", stats.CompressedSize,
		"ratio", fmt.Sprintf("%.2f", stats.Ratio()))

	c.Header("X-Job-ID", jobID)
	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": outputName(fh.Filename)}))
	c.Data(http.StatusOK, "application/octet-stream", out.Bytes())
}

// statusFor maps an archiver error to an HTTP status: problems with the
// uploaded data are the client's, everything else is ours.
func statusFor(err error) int {
	switch {
	case errors.Is(err, huffman.ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, huffman.ErrEmptyInput),
		errors.Is(err, huffman.ErrMalformedHeader),
		errors.Is(err, huffman.ErrMalformedTree),
		errors.Is(err, huffman.ErrTruncated):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return s.Logger
}
