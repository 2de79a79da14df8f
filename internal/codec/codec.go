// Package codec provides compression and decompression for trace files.
package codec

import (
	"compress/gzip"
	"io"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
)

// Codec provides compression and decompression functionality.
type Codec interface {
	// Reader wraps r to decompress data read from it.
	Reader(r io.Reader) (io.ReadCloser, error)
	// Writer wraps w to compress data written to it.
	Writer(w io.Writer) (io.WriteCloser, error)
	// Extension returns the file extension without dot (e.g., "zst", "gz").
	// Returns empty string for no compression.
	Extension() string
}

// ByExtension returns the codec matching path's file extension. Paths
// without a recognized extension get the no-op codec.
func ByExtension(path string) Codec {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz":
		return NewGzip()
	case ".zst":
		return NewZstd()
	default:
		return NewNoop()
	}
}

// Compile-time checks that each codec implements Codec.
var (
	_ Codec = (*Gzip)(nil)
	_ Codec = (*Zstd)(nil)
	_ Codec = (*Noop)(nil)
)

// Gzip implements gzip compression.
type Gzip struct{}

// NewGzip returns a new gzip codec.
func NewGzip() *Gzip {
	return &Gzip{}
}

// Reader wraps r to decompress gzip data.
func (c *Gzip) Reader(r io.Reader) (io.ReadCloser, error) {
	return gzip.NewReader(r)
}

// Writer wraps w to compress data with gzip.
func (c *Gzip) Writer(w io.Writer) (io.WriteCloser, error) {
	return gzip.NewWriter(w), nil
}

// Extension returns "gz".
func (c *Gzip) Extension() string {
	return "gz"
}

// Zstd implements zstd compression.
type Zstd struct{}

// NewZstd returns a new zstd codec.
func NewZstd() *Zstd {
	return &Zstd{}
}

// Reader wraps r to decompress zstd data.
func (c *Zstd) Reader(r io.Reader) (io.ReadCloser, error) {
	decoder, err := zstd.NewReader(r)
	if err != nil {
		return nil, err
	}
	return decoder.IOReadCloser(), nil
}

// Writer wraps w to compress data with zstd.
func (c *Zstd) Writer(w io.Writer) (io.WriteCloser, error) {
	return zstd.NewWriter(w)
}

// Extension returns "zst".
func (c *Zstd) Extension() string {
	return "zst"
}

// Noop implements no compression.
type Noop struct{}

// NewNoop returns a new no-op codec.
func NewNoop() *Noop {
	return &Noop{}
}

// Reader returns r wrapped as a ReadCloser (no decompression).
// Closing the wrapper does not close r; the caller keeps ownership,
// matching the gzip and zstd wrappers.
func (c *Noop) Reader(r io.Reader) (io.ReadCloser, error) {
	return io.NopCloser(r), nil
}

// Writer returns w wrapped as a WriteCloser (no compression).
// Closing the wrapper does not close w.
func (c *Noop) Writer(w io.Writer) (io.WriteCloser, error) {
	return &nopWriteCloser{w}, nil
}

// Extension returns empty string.
func (c *Noop) Extension() string {
	return ""
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
