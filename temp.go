package zipkit

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/projectwizards/zipkit/internal/fileio"
)

// newTempArchive produces a fresh, empty, writable archive used as the
// rewrite target for Remove. For file-backed archives it lives in a private
// temp directory removed by the returned cleanup func on every exit path;
// for memory-backed archives it is a fresh buffer and cleanup is a no-op.
func (a *Archive) newTempArchive() (*Archive, func(), error) {
	if a.file == nil {
		tmp, err := OpenMemory(nil, ModeCreate)
		if err != nil {
			return nil, nil, err
		}
		return tmp, func() {}, nil
	}

	dir, err := os.MkdirTemp("", "zipkit-*")
	if err != nil {
		return nil, nil, fmt.Errorf("create temp directory: %w", err)
	}
	tmp, err := Open(filepath.Join(dir, filepath.Base(a.path)), ModeCreate)
	if err != nil {
		os.RemoveAll(dir)
		return nil, nil, err
	}
	cleanup := func() {
		tmp.Close()
		os.RemoveAll(dir)
	}
	return tmp, cleanup, nil
}

// replaceWith atomically swaps the archive's backing store for the temp
// archive's. File-backed archives rename the temp file over the original
// path and reopen it read-write; memory-backed archives rebuild the buffer
// from the temp archive's contents. Either way the trailer and entries are
// re-parsed from the new backing.
func (a *Archive) replaceWith(tmp *Archive) error {
	if a.file == nil {
		a.buf = fileio.NewBuffer(tmp.buf.Bytes())
		a.backing = a.buf
	} else {
		tmpPath := tmp.file.Name()
		if err := tmp.file.Close(); err != nil {
			return fmt.Errorf("close temp archive: %w", err)
		}
		if err := a.file.Close(); err != nil {
			return fmt.Errorf("close archive: %w", err)
		}
		if err := os.Rename(tmpPath, a.path); err != nil {
			return fmt.Errorf("replace archive: %w", err)
		}
		f, err := os.OpenFile(a.path, os.O_RDWR, 0)
		if err != nil {
			return fmt.Errorf("%w: reopen after replace: %v", ErrUnreadableArchive, err)
		}
		a.file = f
		a.backing = f
	}

	if err := a.load(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnreadableArchive, err)
	}
	return nil
}
