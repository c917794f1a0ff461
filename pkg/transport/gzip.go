package transport

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"strings"
)

// ContentEncodingGzip is the gzip content coding
const ContentEncodingGzip = "gzip"

// Compressor applies gzip content coding to HTTP bodies
type Compressor struct {
	level int
}

// NewCompressor creates a compressor with the default compression level
func NewCompressor() *Compressor {
	return &Compressor{level: gzip.DefaultCompression}
}

// Compress gzips data
func (c *Compressor) Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer

	w, err := gzip.NewWriterLevel(&buf, c.level)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip writer: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		w.Close()
		return nil, fmt.Errorf("failed to compress body: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to close gzip writer: %w", err)
	}

	return buf.Bytes(), nil
}

// Decompress reads a gzipped stream fully
func (c *Compressor) Decompress(r io.Reader) ([]byte, error) {
	zr, err := c.NewReader(r)
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	data, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress body: %w", err)
	}
	return data, nil
}

// NewReader returns a reader decompressing r
func (c *Compressor) NewReader(r io.Reader) (io.ReadCloser, error) {
	zr, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	return zr, nil
}

// isGzipEncoded reports whether a Content-Encoding header value includes gzip
func isGzipEncoded(contentEncoding string) bool {
	for _, coding := range strings.Split(contentEncoding, ",") {
		if strings.EqualFold(strings.TrimSpace(coding), ContentEncodingGzip) {
			return true
		}
	}
	return false
}
