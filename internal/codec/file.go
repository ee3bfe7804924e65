package codec

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/google/renameio/v2"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	rerrors "github.com/aanand-mishra/students-roster/internal/errors"
)

// Compression selects the stream wrapper applied to a roster file.
type Compression int

const (
	Plain Compression = iota
	Gzip
	Zstd
	Brotli
)

func (c Compression) String() string {
	switch c {
	case Gzip:
		return "gzip"
	case Zstd:
		return "zstd"
	case Brotli:
		return "brotli"
	default:
		return "plain"
	}
}

// CompressionFor picks the compression from a file or object name.
func CompressionFor(name string) Compression {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".gz":
		return Gzip
	case ".zst", ".zstd":
		return Zstd
	case ".br":
		return Brotli
	default:
		return Plain
	}
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

// NewWriter wraps w so that bytes written are compressed with c.
// Close flushes the compressor but does not close w.
func NewWriter(w io.Writer, c Compression) (io.WriteCloser, error) {
	switch c {
	case Gzip:
		return gzip.NewWriterLevel(w, gzip.BestCompression)
	case Zstd:
		return zstd.NewWriter(w)
	case Brotli:
		return brotli.NewWriterLevel(w, brotli.DefaultCompression), nil
	default:
		return nopWriteCloser{w}, nil
	}
}

// zstd.Decoder.Close has no error result, so it needs its own adapter.
type zstdReadCloser struct {
	dec *zstd.Decoder
}

func (z zstdReadCloser) Read(p []byte) (int, error) { return z.dec.Read(p) }

func (z zstdReadCloser) Close() error {
	z.dec.Close()
	return nil
}

// NewReader wraps r so that reads return the bytes decompressed with c.
// Close releases decoder resources but does not close r.
func NewReader(r io.Reader, c Compression) (io.ReadCloser, error) {
	switch c {
	case Gzip:
		return gzip.NewReader(r)
	case Zstd:
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		return zstdReadCloser{dec: dec}, nil
	case Brotli:
		return io.NopCloser(brotli.NewReader(r)), nil
	default:
		return io.NopCloser(r), nil
	}
}

// File is a roster file being written. Bytes go to a pending temporary
// file next to the destination; Close replaces the destination atomically.
// After the first error every call returns it and nothing is renamed.
type File struct {
	path    string
	pending *renameio.PendingFile
	w       io.WriteCloser
	err     error
	closed  bool
}

// Create starts writing the roster file at path, compressed according to
// its extension.
func Create(path string) (*File, error) {
	pending, err := renameio.NewPendingFile(path, renameio.WithPermissions(0o644))
	if err != nil {
		return nil, rerrors.NewIOError("create", path, err)
	}
	w, err := NewWriter(pending, CompressionFor(path))
	if err != nil {
		_ = pending.Cleanup()
		return nil, rerrors.NewIOError("create", path, err)
	}
	return &File{path: path, pending: pending, w: w}, nil
}

func (f *File) fail(op string, err error) error {
	if f.err == nil {
		f.err = rerrors.NewIOError(op, f.path, err)
	}
	return f.err
}

func (f *File) Write(p []byte) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	n, err := f.w.Write(p)
	if err != nil {
		return n, f.fail("write", err)
	}
	return n, nil
}

// Abort discards everything written so far. The destination is untouched.
// Abort after Close is a no-op, so it can be deferred.
func (f *File) Abort() {
	if f.closed {
		return
	}
	f.closed = true
	_ = f.w.Close()
	_ = f.pending.Cleanup()
	if f.err == nil {
		f.err = rerrors.NewIOError("write", f.path, os.ErrClosed)
	}
}

// Close flushes the compressor and moves the file into place. Calling
// Close again returns the first result.
func (f *File) Close() error {
	if f.closed {
		return f.err
	}
	f.closed = true
	defer func() { _ = f.pending.Cleanup() }()

	if f.err != nil {
		return f.err
	}
	if err := f.w.Close(); err != nil {
		return f.fail("write", err)
	}
	if err := f.pending.CloseAtomicallyReplace(); err != nil {
		return f.fail("rename", err)
	}
	return nil
}

type fileReadCloser struct {
	io.ReadCloser
	f *os.File
}

func (rc fileReadCloser) Close() error {
	errDec := rc.ReadCloser.Close()
	errFile := rc.f.Close()
	if errDec != nil {
		return errDec
	}
	return errFile
}

// Open opens the roster file at path, decompressing according to its
// extension.
func Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, rerrors.NewIOError("open", path, err)
	}
	r, err := NewReader(f, CompressionFor(path))
	if err != nil {
		_ = f.Close()
		return nil, rerrors.NewIOError("open", path, err)
	}
	return fileReadCloser{ReadCloser: r, f: f}, nil
}
