package fileio

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCopyWithContext(t *testing.T) {
	t.Parallel()

	src := bytes.Repeat([]byte("abcd"), 1000)
	var dst bytes.Buffer
	n, err := CopyWithContext(context.Background(), &dst, bytes.NewReader(src), make([]byte, 128))
	require.NoError(t, err)
	assert.Equal(t, uint64(len(src)), n)
	assert.Equal(t, src, dst.Bytes())
}

func TestCopyWithContextCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var dst bytes.Buffer
	_, err := CopyWithContext(ctx, &dst, bytes.NewReader([]byte("data")), make([]byte, 16))
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, dst.Len())
}

func TestCopyWithContextCancelledMidStream(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	src := &cancelOnRead{r: bytes.NewReader(bytes.Repeat([]byte{1}, 1024)), cancel: cancel}

	// The chunk handed out before cancellation is still written; the copy
	// stops at the next poll.
	var dst bytes.Buffer
	n, err := CopyWithContext(ctx, &dst, src, make([]byte, 64))
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, uint64(64), n)
}

type cancelOnRead struct {
	r      io.Reader
	cancel context.CancelFunc
}

func (c *cancelOnRead) Read(p []byte) (int, error) {
	c.cancel()
	return c.r.Read(p)
}

func TestCopySection(t *testing.T) {
	t.Parallel()

	src := []byte("0123456789")
	var dst bytes.Buffer
	n, err := CopySection(context.Background(), &dst, bytes.NewReader(src), 2, 5, make([]byte, 2))
	require.NoError(t, err)
	assert.Equal(t, uint64(5), n)
	assert.Equal(t, "23456", dst.String())
}

func TestCountingWriterAndReader(t *testing.T) {
	t.Parallel()

	var sink bytes.Buffer
	cw := &CountingWriter{W: &sink}
	_, err := cw.Write([]byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, uint64(5), cw.N)

	cr := &CountingReader{R: bytes.NewReader([]byte("world!"))}
	_, err = io.ReadAll(cr)
	require.NoError(t, err)
	assert.Equal(t, uint64(6), cr.N)
}

func TestBufferReadWriteSeek(t *testing.T) {
	t.Parallel()

	b := NewBuffer(nil)
	_, err := b.Write([]byte("hello world"))
	require.NoError(t, err)
	assert.Equal(t, int64(11), b.Size())

	pos, err := b.Seek(6, io.SeekStart)
	require.NoError(t, err)
	assert.Equal(t, int64(6), pos)

	_, err = b.Write([]byte("there"))
	require.NoError(t, err)
	assert.Equal(t, "hello there", string(b.Bytes()))

	pos, err = b.Seek(-5, io.SeekEnd)
	require.NoError(t, err)
	assert.Equal(t, int64(6), pos)

	got := make([]byte, 5)
	_, err = io.ReadFull(b, got)
	require.NoError(t, err)
	assert.Equal(t, "there", string(got))
}

func TestBufferWritePastEndZeroFills(t *testing.T) {
	t.Parallel()

	b := NewBuffer([]byte("ab"))
	_, err := b.Seek(4, io.SeekStart)
	require.NoError(t, err)
	_, err = b.Write([]byte("cd"))
	require.NoError(t, err)
	assert.Equal(t, []byte{'a', 'b', 0, 0, 'c', 'd'}, b.Bytes())
}

func TestBufferReadAt(t *testing.T) {
	t.Parallel()

	b := NewBuffer([]byte("0123456789"))

	got := make([]byte, 4)
	n, err := b.ReadAt(got, 3)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, "3456", string(got))

	// Short read at the tail reports EOF.
	n, err = b.ReadAt(got, 8)
	assert.Equal(t, 2, n)
	assert.ErrorIs(t, err, io.EOF)

	_, err = b.ReadAt(got, 100)
	assert.ErrorIs(t, err, io.EOF)
}

func TestBufferTruncate(t *testing.T) {
	t.Parallel()

	b := NewBuffer([]byte("0123456789"))
	require.NoError(t, b.Truncate(4))
	assert.Equal(t, "0123", string(b.Bytes()))

	require.NoError(t, b.Truncate(6))
	assert.Equal(t, []byte{'0', '1', '2', '3', 0, 0}, b.Bytes())

	require.Error(t, b.Truncate(-1))
}
