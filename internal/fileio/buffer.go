package fileio

import (
	"fmt"
	"io"
)

// Buffer is a growable in-memory byte store exposing the subset of *os.File
// behavior the archive engine relies on: positioned reads and writes through
// a seek cursor, random access reads, and truncation. Writes past the end
// zero-fill the gap, matching file semantics.
type Buffer struct {
	data []byte
	off  int64
}

// NewBuffer returns a Buffer initialized with a copy of data.
func NewBuffer(data []byte) *Buffer {
	return &Buffer{data: append([]byte(nil), data...)}
}

// Bytes returns the current contents. The slice is shared with the buffer
// and must not be modified by the caller.
func (b *Buffer) Bytes() []byte { return b.data }

// Size returns the content length in bytes.
func (b *Buffer) Size() int64 { return int64(len(b.data)) }

func (b *Buffer) Read(p []byte) (int, error) {
	if b.off >= int64(len(b.data)) {
		return 0, io.EOF
	}
	n := copy(p, b.data[b.off:])
	b.off += int64(n)
	return n, nil
}

func (b *Buffer) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, fmt.Errorf("negative read offset %d", off)
	}
	if off >= int64(len(b.data)) {
		return 0, io.EOF
	}
	n := copy(p, b.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (b *Buffer) Write(p []byte) (int, error) {
	if grow := b.off + int64(len(p)) - int64(len(b.data)); grow > 0 {
		b.data = append(b.data, make([]byte, grow)...)
	}
	n := copy(b.data[b.off:], p)
	b.off += int64(n)
	return n, nil
}

func (b *Buffer) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = b.off + offset
	case io.SeekEnd:
		abs = int64(len(b.data)) + offset
	default:
		return 0, fmt.Errorf("invalid whence %d", whence)
	}
	if abs < 0 {
		return 0, fmt.Errorf("negative seek position %d", abs)
	}
	b.off = abs
	return abs, nil
}

// Truncate changes the content length. Growing zero-fills; the seek cursor
// is left unchanged either way.
func (b *Buffer) Truncate(size int64) error {
	switch {
	case size < 0:
		return fmt.Errorf("negative truncate size %d", size)
	case size <= int64(len(b.data)):
		b.data = b.data[:size]
	default:
		b.data = append(b.data, make([]byte, size-int64(len(b.data)))...)
	}
	return nil
}
