package zipkit

import (
	"fmt"
	"io"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zstd"
)

// CompressionMethod identifies the ZIP compression method of an entry.
type CompressionMethod uint16

const (
	// Store writes payload bytes uncompressed.
	Store CompressionMethod = 0

	// Deflate compresses with raw DEFLATE streams (method 8).
	Deflate CompressionMethod = 8

	// Zstd compresses with Zstandard (method 93).
	Zstd CompressionMethod = 93
)

func (m CompressionMethod) String() string {
	switch m {
	case Store:
		return "store"
	case Deflate:
		return "deflate"
	case Zstd:
		return "zstd"
	default:
		return fmt.Sprintf("unknown(%d)", uint16(m))
	}
}

// newCompressor returns a write-through encoder for the given method. Store
// is handled by the caller and is not a valid argument.
func newCompressor(w io.Writer, method CompressionMethod, level int) (io.WriteCloser, error) {
	switch method {
	case Deflate:
		if level == 0 {
			level = flate.DefaultCompression
		}
		fw, err := flate.NewWriter(w, level)
		if err != nil {
			return nil, fmt.Errorf("create flate writer: %w", err)
		}
		return fw, nil
	case Zstd:
		zw, err := zstd.NewWriter(w, zstd.WithEncoderConcurrency(1), zstd.WithLowerEncoderMem(true))
		if err != nil {
			return nil, fmt.Errorf("create zstd encoder: %w", err)
		}
		return zw, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedCompression, method)
	}
}
