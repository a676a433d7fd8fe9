package zipkit

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/projectwizards/zipkit/internal/fileio"
	"github.com/projectwizards/zipkit/internal/format"
)

// Remove deletes one entry from the archive by rewriting it into a
// temporary archive and atomically swapping it in. Every other entry's
// local record is copied verbatim; directory records for entries physically
// after the target have their offsets patched down by the target's local
// record size. Cancellation mid-copy discards the temporary archive and
// leaves the original untouched.
func (a *Archive) Remove(ctx context.Context, entry *Entry) error {
	release, err := a.beginMutation()
	if err != nil {
		return err
	}
	defer release()

	idx := a.indexOf(entry)
	if idx < 0 {
		return ErrEntryNotFound
	}
	target := a.entries[idx]

	tmp, cleanup, err := a.newTempArchive()
	if err != nil {
		return err
	}
	defer cleanup()

	if _, err := tmp.backing.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("seek temp archive: %w", err)
	}

	buf := make([]byte, DefaultBufferSize)
	var (
		cd       bytes.Buffer
		shift    uint64
		writePos uint64
		kept     uint64
	)
	for _, e := range a.entries {
		size, err := a.localRecordSize(e)
		if err != nil {
			return err
		}
		if e == target {
			shift = uint64(size)
			continue
		}

		if _, err := fileio.CopySection(ctx, tmp.backing, a.backing,
			int64(e.Offset()), size, buf); err != nil {
			return fmt.Errorf("copy local record of %s: %w", e.Path(), err)
		}

		rec, err := e.rec.WithLocalHeaderOffset(e.Offset() - shift)
		if err != nil {
			return fmt.Errorf("patch directory record of %s: %w", e.Path(), err)
		}
		cd.Write(rec.Encode())

		writePos += uint64(size)
		kept++
	}

	if _, err := tmp.backing.Write(cd.Bytes()); err != nil {
		return fmt.Errorf("write central directory: %w", err)
	}
	trailer := format.BuildTrailer(kept, uint64(cd.Len()), writePos,
		a.trailer.IsZip64(), a.trailer.EOCD.Comment)
	if _, err := tmp.backing.Write(trailer.Encode()); err != nil {
		return fmt.Errorf("write trailer: %w", err)
	}

	if err := a.replaceWith(tmp); err != nil {
		return err
	}

	a.log().Info("entry removed", "path", entry.Path(), "entries", kept)
	return nil
}

// RemoveAll deletes the given entry and every entry physically after it by
// truncating the backing store at the entry's local header offset, then
// re-appending the directory records of the surviving prefix and a fresh
// trailer. This avoids a full rewrite but is not crash-atomic: a crash
// between the truncate and the trailer append leaves a directory-less but
// payload-intact file.
func (a *Archive) RemoveAll(ctx context.Context, from *Entry) error {
	release, err := a.beginMutation()
	if err != nil {
		return err
	}
	defer release()

	idx := a.indexOf(from)
	if idx < 0 {
		return ErrEntryNotFound
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	var cd bytes.Buffer
	for _, e := range a.entries[:idx] {
		cd.Write(e.rec.Encode())
	}

	cut := int64(from.Offset())
	if err := a.backing.Truncate(cut); err != nil {
		return fmt.Errorf("truncate archive: %w", err)
	}
	if _, err := a.backing.Seek(cut, io.SeekStart); err != nil {
		return fmt.Errorf("seek to %d: %w", cut, err)
	}
	if _, err := a.backing.Write(cd.Bytes()); err != nil {
		return fmt.Errorf("write central directory: %w", err)
	}
	trailer := format.BuildTrailer(uint64(idx), uint64(cd.Len()), uint64(cut),
		a.trailer.IsZip64(), a.trailer.EOCD.Comment)
	if _, err := a.backing.Write(trailer.Encode()); err != nil {
		return fmt.Errorf("write trailer: %w", err)
	}

	a.trailer = trailer
	a.entries = a.entries[:idx:idx]

	a.log().Info("archive truncated", "from", from.Path(), "entries", idx)
	return nil
}

// indexOf returns the central directory position of e, or -1.
func (a *Archive) indexOf(e *Entry) int {
	for i, candidate := range a.entries {
		if candidate == e {
			return i
		}
		if e != nil && candidate.Path() == e.Path() && candidate.Offset() == e.Offset() {
			return i
		}
	}
	return -1
}
