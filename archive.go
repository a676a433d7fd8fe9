package zipkit

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync/atomic"

	"github.com/projectwizards/zipkit/internal/fileio"
	"github.com/projectwizards/zipkit/internal/format"
)

// AccessMode controls which operations an Archive permits.
type AccessMode uint8

const (
	// ModeRead opens an existing archive; mutations fail with
	// ErrReadOnlyArchive.
	ModeRead AccessMode = iota

	// ModeCreate creates a new, empty archive.
	ModeCreate

	// ModeUpdate opens an existing archive for mutation.
	ModeUpdate
)

func (m AccessMode) String() string {
	switch m {
	case ModeRead:
		return "read"
	case ModeCreate:
		return "create"
	case ModeUpdate:
		return "update"
	default:
		return "unknown"
	}
}

// backing is the store surface shared by *os.File and the in-memory buffer:
// positioned reads and writes through a seek cursor, random access reads,
// and truncation.
type backing interface {
	io.Reader
	io.Writer
	io.Seeker
	io.ReaderAt
	Truncate(size int64) error
}

// Archive is an open ZIP container bound to a backing store. Its trailer
// state is replaced atomically after every successful mutation. An Archive
// admits at most one in-flight mutation; concurrent external mutation of
// the same backing file is undefined behavior.
type Archive struct {
	backing  backing
	file     *os.File       // non-nil for file-backed archives
	buf      *fileio.Buffer // non-nil for memory-backed archives
	path     string
	mode     AccessMode
	trailer  format.Trailer
	entries  []*Entry
	logger   *slog.Logger
	mutating atomic.Bool
}

// Open opens or creates the archive file at path. ModeCreate fails if the
// file already exists.
func Open(path string, mode AccessMode, opts ...OpenOption) (*Archive, error) {
	cfg := openConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	var (
		f   *os.File
		err error
	)
	switch mode {
	case ModeRead:
		f, err = os.Open(path)
	case ModeCreate:
		f, err = os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o644)
	case ModeUpdate:
		f, err = os.OpenFile(path, os.O_RDWR, 0)
	default:
		return nil, fmt.Errorf("invalid access mode %d", mode)
	}
	if err != nil {
		return nil, err
	}

	a := &Archive{backing: f, file: f, path: path, mode: mode, logger: cfg.logger}
	if err := a.init(); err != nil {
		f.Close()
		return nil, err
	}
	return a, nil
}

// OpenMemory opens an archive over an in-memory copy of data. ModeCreate
// ignores data and starts from an empty archive.
func OpenMemory(data []byte, mode AccessMode, opts ...OpenOption) (*Archive, error) {
	cfg := openConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	buf := fileio.NewBuffer(data)
	if mode == ModeCreate {
		buf = fileio.NewBuffer(nil)
	}
	a := &Archive{backing: buf, buf: buf, mode: mode, logger: cfg.logger}
	if err := a.init(); err != nil {
		return nil, err
	}
	return a, nil
}

// init writes the empty trailer for fresh archives or loads the existing
// directory state.
func (a *Archive) init() error {
	if a.mode == ModeCreate {
		a.trailer = format.BuildTrailer(0, 0, 0, false, "")
		if _, err := a.backing.Write(a.trailer.Encode()); err != nil {
			return fmt.Errorf("write empty archive trailer: %w", err)
		}
		return nil
	}
	return a.load()
}

// load parses the trailer and central directory from the backing store.
func (a *Archive) load() error {
	size, err := a.size()
	if err != nil {
		return err
	}

	trailer, err := format.FindTrailer(a.backing, size)
	if err != nil {
		return err
	}

	cdOffset := trailer.CentralDirectoryOffset()
	cdSize := trailer.CentralDirectorySize()
	if cdOffset+cdSize > uint64(size) {
		return fmt.Errorf("%w: directory at %d+%d exceeds archive size %d",
			ErrInvalidOffset, cdOffset, cdSize, size)
	}

	count := trailer.EntryCount()
	entries := make([]*Entry, 0, count)
	cd := io.NewSectionReader(a.backing, int64(cdOffset), int64(cdSize))
	for i := uint64(0); i < count; i++ {
		rec, err := format.ReadCentralDirectoryRecord(cd)
		if err != nil {
			return fmt.Errorf("entry %d: %w", i, err)
		}
		e, err := newEntry(rec)
		if err != nil {
			return fmt.Errorf("entry %d (%s): %w", i, rec.Filename, err)
		}
		entries = append(entries, e)
	}

	a.trailer = trailer
	a.entries = entries
	return nil
}

// Close releases the backing handle. Closing a memory-backed archive is a
// no-op.
func (a *Archive) Close() error {
	if a.file == nil {
		return nil
	}
	return a.file.Close()
}

// Path returns the backing file path, or empty for memory-backed archives.
func (a *Archive) Path() string { return a.path }

// Mode returns the access mode the archive was opened with.
func (a *Archive) Mode() AccessMode { return a.mode }

// Entries returns the archive's entries in central directory order.
func (a *Archive) Entries() []*Entry {
	out := make([]*Entry, len(a.entries))
	copy(out, a.entries)
	return out
}

// Entry returns the entry with the given path, or nil. Directory entries
// match with or without the trailing path separator.
func (a *Archive) Entry(path string) *Entry {
	for _, e := range a.entries {
		if e.rec.Filename == path || e.rec.Filename == path+"/" {
			return e
		}
	}
	return nil
}

// Data returns the archive contents of a memory-backed archive. The slice
// is shared with the archive and must not be modified.
func (a *Archive) Data() []byte {
	if a.buf == nil {
		return nil
	}
	return a.buf.Bytes()
}

// size returns the current backing store length in bytes.
func (a *Archive) size() (int64, error) {
	if a.file != nil {
		info, err := a.file.Stat()
		if err != nil {
			return 0, fmt.Errorf("stat archive: %w", err)
		}
		return info.Size(), nil
	}
	return a.buf.Size(), nil
}

// localRecordSize returns the stored size of an entry's full local record:
// header, path, extra field, and payload as written.
func (a *Archive) localRecordSize(e *Entry) (int64, error) {
	sr := io.NewSectionReader(a.backing, int64(e.Offset()),
		format.LocalFileHeaderLength+2*int64(format.Max16))
	hdr, err := format.ReadLocalFileHeader(sr)
	if err != nil {
		return 0, fmt.Errorf("local header of %s: %w", e.Path(), err)
	}
	return int64(hdr.TotalLength()) + int64(e.CompressedSize()), nil
}

// beginMutation enforces the single-writer discipline and the access mode
// invariant. It returns the release func for the mutation guard.
func (a *Archive) beginMutation() (func(), error) {
	if a.mode == ModeRead {
		return nil, ErrReadOnlyArchive
	}
	if !a.mutating.CompareAndSwap(false, true) {
		return nil, ErrConcurrentMutation
	}
	return func() { a.mutating.Store(false) }, nil
}

// log returns the logger, falling back to a discard logger if nil.
func (a *Archive) log() *slog.Logger {
	if a.logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.Level(127)}))
	}
	return a.logger
}
