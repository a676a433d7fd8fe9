package zipkit

import (
	"context"
	"fmt"
	"hash/crc32"
	"io"

	"github.com/projectwizards/zipkit/internal/fileio"
)

// Provider produces payload chunks for an entry being added. It is called
// repeatedly with the next read position and a requested size until the
// entry's declared uncompressed size is satisfied. It may return fewer bytes
// than requested but not zero; failures propagate as I/O errors.
type Provider func(position int64, size int) ([]byte, error)

// Consumer receives written chunks, used to mirror bytes into a destination
// while tracking progress.
type Consumer func(chunk []byte) error

// BytesProvider returns a Provider serving the given byte slice.
func BytesProvider(data []byte) Provider {
	return func(position int64, size int) ([]byte, error) {
		if position >= int64(len(data)) {
			return nil, io.EOF
		}
		end := position + int64(size)
		if end > int64(len(data)) {
			end = int64(len(data))
		}
		return data[position:end], nil
	}
}

// providerReader adapts a Provider into an io.Reader bounded by the entry's
// declared uncompressed size.
type providerReader struct {
	provider  Provider
	pos       int64
	remaining uint64
}

func (r *providerReader) Read(p []byte) (int, error) {
	if r.remaining == 0 {
		return 0, io.EOF
	}
	want := len(p)
	if uint64(want) > r.remaining {
		want = int(r.remaining)
	}

	chunk, err := r.provider(r.pos, want)
	if err != nil {
		return 0, err
	}
	if len(chunk) == 0 {
		return 0, io.ErrUnexpectedEOF
	}
	if len(chunk) > want {
		chunk = chunk[:want]
	}

	n := copy(p, chunk)
	r.pos += int64(n)
	r.remaining -= uint64(n)
	return n, nil
}

// writerFunc adapts a function to io.Writer.
type writerFunc func(p []byte) (int, error)

func (f writerFunc) Write(p []byte) (int, error) { return f(p) }

// writeEntryData streams an entry's payload into dst at the current write
// position, piping it through the configured compressor while accumulating
// a CRC-32 checksum over the uncompressed stream. It returns the number of
// bytes written to dst and the final checksum. Cancellation is polled at
// chunk granularity; partial writes already flushed remain in dst until the
// caller rolls back.
func writeEntryData(ctx context.Context, dst io.Writer, path string, etype EntryType,
	method CompressionMethod, level int, uncompressedSize uint64, bufferSize int,
	progress ProgressFunc, consumer Consumer, provider Provider) (written uint64, checksum uint32, err error) {

	hasher := crc32.NewIEEE()
	if etype == EntryTypeDirectory {
		return 0, hasher.Sum32(), nil
	}

	cw := &fileio.CountingWriter{W: dst}
	cr := &fileio.CountingReader{R: io.TeeReader(
		&providerReader{provider: provider, remaining: uncompressedSize}, hasher)}

	var sink io.Writer = cw
	if progress != nil || consumer != nil {
		sink = writerFunc(func(p []byte) (int, error) {
			n, werr := cw.Write(p)
			if werr != nil {
				return n, werr
			}
			if consumer != nil {
				if cerr := consumer(p[:n]); cerr != nil {
					return n, cerr
				}
			}
			if progress != nil {
				progress(ProgressEvent{Path: path, Bytes: cr.N, Total: uncompressedSize})
			}
			return n, nil
		})
	}

	buf := make([]byte, bufferSize)
	if etype == EntryTypeSymlink || method == Store {
		if _, err := fileio.CopyWithContext(ctx, sink, cr, buf); err != nil {
			return cw.N, 0, err
		}
	} else {
		enc, err := newCompressor(sink, method, level)
		if err != nil {
			return 0, 0, err
		}
		if _, err := fileio.CopyWithContext(ctx, enc, cr, buf); err != nil {
			enc.Close()
			return cw.N, 0, err
		}
		if err := enc.Close(); err != nil {
			return cw.N, 0, fmt.Errorf("close %s encoder: %w", method, err)
		}
	}

	if cr.N != uncompressedSize {
		return cw.N, 0, fmt.Errorf("%w: provider yielded %d of %d bytes for %s",
			ErrInvalidEntrySize, cr.N, uncompressedSize, path)
	}

	return cw.N, hasher.Sum32(), nil
}
