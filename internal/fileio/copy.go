// Package fileio provides the bounded-memory I/O primitives shared by the
// archive mutation paths: context-aware chunked copies, byte counting
// wrappers, and an in-memory backing buffer with file-like semantics.
package fileio

import (
	"context"
	"errors"
	"io"
)

// ErrOverflow is returned when a byte count exceeds the representable range.
var ErrOverflow = errors.New("byte count overflow")

// CopyWithContext copies from src to dst until EOF or error, checking for
// context cancellation between reads. It returns the number of bytes written.
func CopyWithContext(ctx context.Context, dst io.Writer, src io.Reader, buf []byte) (uint64, error) {
	var written uint64
	for {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		nr, er := src.Read(buf)
		if nr > 0 {
			nw, ew := dst.Write(buf[:nr])
			if nw > 0 {
				if written > ^uint64(0)-uint64(nw) {
					return written, ErrOverflow
				}
				written += uint64(nw)
			}
			if ew != nil {
				return written, ew
			}
			if nw != nr {
				return written, io.ErrShortWrite
			}
		}
		if er != nil {
			if er == io.EOF {
				return written, nil
			}
			return written, er
		}
	}
}

// CopySection copies n bytes starting at off from src to dst in chunks of
// len(buf), honoring context cancellation.
func CopySection(ctx context.Context, dst io.Writer, src io.ReaderAt, off, n int64, buf []byte) (uint64, error) {
	return CopyWithContext(ctx, dst, io.NewSectionReader(src, off, n), buf)
}

// CountingWriter counts bytes written through it.
type CountingWriter struct {
	W io.Writer
	N uint64
}

func (cw *CountingWriter) Write(p []byte) (int, error) {
	n, err := cw.W.Write(p)
	cw.N += uint64(n)
	return n, err
}

// CountingReader counts bytes read through it.
type CountingReader struct {
	R io.Reader
	N uint64
}

func (cr *CountingReader) Read(p []byte) (int, error) {
	n, err := cr.R.Read(p)
	cr.N += uint64(n)
	return n, err
}
