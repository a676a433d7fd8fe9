package zipkit

import (
	"context"
	"fmt"
	"io/fs"
	"os"
)

// AddFile adds the filesystem item at fsPath to the archive under entryPath,
// probing its type, permission bits, and modification time. Symbolic links
// are not followed; their target string becomes the entry payload. Probe
// failures surface as *fs.PathError values, distinguishing a missing file
// from a permission failure.
//
// Metadata probed from the filesystem can be overridden via options; user
// options take precedence.
func (a *Archive) AddFile(ctx context.Context, entryPath, fsPath string, opts ...AddOption) error {
	info, err := os.Lstat(fsPath)
	if err != nil {
		return err
	}

	base := []AddOption{
		AddWithPermissions(info.Mode().Perm()),
		AddWithModTime(info.ModTime()),
	}
	opts = append(base, opts...)

	switch mode := info.Mode(); {
	case mode.IsDir():
		return a.AddEntry(ctx, entryPath, EntryTypeDirectory, 0, nil, opts...)

	case mode&fs.ModeSymlink != 0:
		target, err := os.Readlink(fsPath)
		if err != nil {
			return err
		}
		return a.AddEntry(ctx, entryPath, EntryTypeSymlink,
			uint64(len(target)), BytesProvider([]byte(target)), opts...)

	case mode.IsRegular():
		f, err := os.Open(fsPath)
		if err != nil {
			return err
		}
		defer f.Close()
		return a.AddEntry(ctx, entryPath, EntryTypeFile,
			uint64(info.Size()), fileProvider(f), opts...)

	default:
		return fmt.Errorf("%w: unsupported file type %s for %s", ErrInvalidPath, mode, fsPath)
	}
}

// fileProvider returns a Provider performing positioned reads on f.
func fileProvider(f *os.File) Provider {
	return func(position int64, size int) ([]byte, error) {
		buf := make([]byte, size)
		n, err := f.ReadAt(buf, position)
		if n > 0 {
			return buf[:n], nil
		}
		return nil, err
	}
}
