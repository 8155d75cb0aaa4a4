// Package storage resolves the locations the archiver reads from and writes
// to.  A location is either a local path or a gs://bucket/object URL.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"cloud.google.com/go/storage"
)

const gcsScheme = "gs://"

// ErrNoGCS is returned for a gs:// location when the Store has no GCS client.
var ErrNoGCS = errors.New("storage: no GCS client configured")

// GCSObjectReaderInterface is the part of *storage.Reader the Store uses.
type GCSObjectReaderInterface interface {
	io.ReadCloser
}

// GCSObjectWriterInterface is the part of *storage.Writer the Store uses.
// Closing it commits the object.
type GCSObjectWriterInterface interface {
	io.WriteCloser
}

// GCSClientInterface opens readers and writers on GCS objects.  Tests
// replace it with an in-memory client.
type GCSClientInterface interface {
	NewObjectWriter(ctx context.Context, bucket, object string) GCSObjectWriterInterface
	NewObjectReader(ctx context.Context, bucket, object string) (GCSObjectReaderInterface, error)
}

// RealGCSClient implements GCSClientInterface with a Cloud Storage client.
type RealGCSClient struct {
	Client *storage.Client
}

func (c *RealGCSClient) NewObjectWriter(ctx context.Context, bucket, object string) GCSObjectWriterInterface {
	return c.Client.Bucket(bucket).Object(object).NewWriter(ctx)
}

func (c *RealGCSClient) NewObjectReader(ctx context.Context, bucket, object string) (GCSObjectReaderInterface, error) {
	return c.Client.Bucket(bucket).Object(object).NewReader(ctx)
}

// Location is a parsed location string.  Exactly one of Path and Object is
// set.
type Location struct {
	Bucket string
	Object string
	Path   string
}

// ParseLocation parses a local path or a gs://bucket/object URL.
func ParseLocation(loc string) (Location, error) {
	if loc == "" {
		return Location{}, fmt.Errorf("empty location")
	}
	if !strings.HasPrefix(loc, gcsScheme) {
		return Location{Path: loc}, nil
	}
	bucket, object, _ := strings.Cut(strings.TrimPrefix(loc, gcsScheme), "/")
	if bucket == "" || object == "" {
		return Location{}, fmt.Errorf("invalid location %q: want %sbucket/object", loc, gcsScheme)
	}
	return Location{Bucket: bucket, Object: object}, nil
}

// IsGCS returns true if this location names a GCS object.
func (l Location) IsGCS() bool {
	return l.Object != ""
}

// String returns the location in the form ParseLocation accepts.
func (l Location) String() string {
	if l.IsGCS() {
		return gcsScheme + l.Bucket + "/" + l.Object
	}
	return l.Path
}

// Destination is an output that is either committed by Close or discarded by
// Abort.
type Destination interface {
	io.WriteCloser

	// Abort discards everything written so far.  Close must not be called
	// afterward.
	Abort() error
}

// Store opens sources and creates destinations by location string.
type Store struct {
	// GCS serves gs:// locations.  If nil, those locations fail with
	// ErrNoGCS.
	GCS GCSClientInterface

	// TempDir holds the spool files of GCS sources.  Empty means
	// os.TempDir().
	TempDir string
}

// OpenSource opens loc for reading.  The compressor reads its input twice,
// so the result is always seekable: GCS objects are first copied into a
// temporary file, which Close removes.
func (s *Store) OpenSource(ctx context.Context, loc string) (io.ReadSeekCloser, error) {
	l, err := ParseLocation(loc)
	if err != nil {
		return nil, err
	}

	if !l.IsGCS() {
		f, err := os.Open(l.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", l, err)
		}
		return f, nil
	}

	if s.GCS == nil {
		return nil, ErrNoGCS
	}
	rc, err := s.GCS.NewObjectReader(ctx, l.Bucket, l.Object)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", l, err)
	}
	defer rc.Close()

	f, err := os.CreateTemp(s.TempDir, "huffman-spool-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create spool file: %w", err)
	}
	spool := &spoolFile{File: f}
	if _, err := io.Copy(f, rc); err != nil {
		_ = spool.Close()
		return nil, fmt.Errorf("failed to download %s: %w", l, err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		_ = spool.Close()
		return nil, fmt.Errorf("failed to rewind spool file: %w", err)
	}
	return spool, nil
}

// CreateDestination opens loc for writing.  A GCS object only becomes
// visible once Close succeeds.
func (s *Store) CreateDestination(ctx context.Context, loc string) (Destination, error) {
	l, err := ParseLocation(loc)
	if err != nil {
		return nil, err
	}

	if !l.IsGCS() {
		f, err := os.Create(l.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", l, err)
		}
		return &localDestination{File: f}, nil
	}

	if s.GCS == nil {
		return nil, ErrNoGCS
	}
	ctx, cancel := context.WithCancel(ctx)
	return &gcsDestination{w: s.GCS.NewObjectWriter(ctx, l.Bucket, l.Object), cancel: cancel}, nil
}

type spoolFile struct {
	*os.File
}

func (f *spoolFile) Close() error {
	err := f.File.Close()
	if rmErr := os.Remove(f.Name()); err == nil {
		err = rmErr
	}
	return err
}

type localDestination struct {
	*os.File
}

func (d *localDestination) Abort() error {
	_ = d.File.Close()
	return os.Remove(d.Name())
}

// gcsDestination aborts an upload by canceling the writer's context before
// Close, which the GCS client treats as "do not commit".
type gcsDestination struct {
	w      GCSObjectWriterInterface
	cancel context.CancelFunc
}

func (d *gcsDestination) Write(p []byte) (int, error) {
	return d.w.Write(p)
}

func (d *gcsDestination) Close() error {
	defer d.cancel()
	return d.w.Close()
}

func (d *gcsDestination) Abort() error {
	d.cancel()
	_ = d.w.Close()
	return nil
}
