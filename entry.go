package zipkit

import (
	"io/fs"
	"strings"
	"time"

	"github.com/projectwizards/zipkit/internal/format"
)

// EntryType classifies an archive entry.
type EntryType uint8

const (
	EntryTypeFile EntryType = iota
	EntryTypeDirectory
	EntryTypeSymlink
)

func (t EntryType) String() string {
	switch t {
	case EntryTypeFile:
		return "file"
	case EntryTypeDirectory:
		return "directory"
	case EntryTypeSymlink:
		return "symlink"
	default:
		return "unknown"
	}
}

// Entry is one logical item in the archive. Entries are produced only by
// parsing the central directory; the write path never mutates an Entry in
// place, it derives a new directory record when an offset must change.
type Entry struct {
	rec   format.CentralDirectoryRecord
	zip64 format.Zip64ExtendedInfo
}

func newEntry(rec format.CentralDirectoryRecord) (*Entry, error) {
	z, err := rec.Zip64()
	if err != nil {
		return nil, err
	}
	return &Entry{rec: rec, zip64: z}, nil
}

// Path returns the entry path as stored in the archive. Directory paths end
// with a path separator.
func (e *Entry) Path() string { return e.rec.Filename }

// Type derives the entry classification from the external file attributes,
// falling back to the trailing path separator convention for directories.
func (e *Entry) Type() EntryType {
	switch e.rec.ExternalFileAttributes >> 16 & 0xF000 {
	case format.UnixTypeDir:
		return EntryTypeDirectory
	case format.UnixTypeSymlink:
		return EntryTypeSymlink
	case format.UnixTypeRegular:
		return EntryTypeFile
	}
	if strings.HasSuffix(e.rec.Filename, "/") {
		return EntryTypeDirectory
	}
	return EntryTypeFile
}

// UncompressedSize returns the payload size before compression, honoring the
// ZIP64 override.
func (e *Entry) UncompressedSize() uint64 {
	if e.zip64.HasUncompressedSize {
		return e.zip64.UncompressedSize
	}
	return uint64(e.rec.UncompressedSize)
}

// CompressedSize returns the payload size as stored, honoring the ZIP64
// override.
func (e *Entry) CompressedSize() uint64 {
	if e.zip64.HasCompressedSize {
		return e.zip64.CompressedSize
	}
	return uint64(e.rec.CompressedSize)
}

// Offset returns the effective local header offset, honoring the ZIP64
// override.
func (e *Entry) Offset() uint64 {
	if e.zip64.HasLocalHeaderOffset {
		return e.zip64.LocalHeaderOffset
	}
	return uint64(e.rec.LocalHeaderOffset)
}

// CRC32 returns the stored checksum of the uncompressed payload.
func (e *Entry) CRC32() uint32 { return e.rec.CRC32 }

// CompressionMethod returns the entry's compression method.
func (e *Entry) CompressionMethod() CompressionMethod {
	return CompressionMethod(e.rec.CompressionMethod)
}

// Mode returns the entry's file mode: POSIX permission bits from the high
// half of the external attributes plus the type bits.
func (e *Entry) Mode() fs.FileMode {
	mode := fs.FileMode(e.rec.ExternalFileAttributes >> 16 & 0o777)
	switch e.Type() {
	case EntryTypeDirectory:
		mode |= fs.ModeDir
	case EntryTypeSymlink:
		mode |= fs.ModeSymlink
	}
	return mode
}

// ModTime returns the entry's modification time in UTC, at the two-second
// resolution of the MS-DOS timestamp fields.
func (e *Entry) ModTime() time.Time {
	return msDosToTime(e.rec.LastModFileDate, e.rec.LastModFileTime)
}

// externalAttributes packs POSIX permission bits and the entry type marker
// into the 32-bit external file attributes field, Unix bits in the high
// half. Directories additionally get the MS-DOS directory bit for tools
// that only read the low byte.
func externalAttributes(etype EntryType, perm fs.FileMode) uint32 {
	mode := uint32(perm & fs.ModePerm)
	switch etype {
	case EntryTypeDirectory:
		mode |= format.UnixTypeDir
	case EntryTypeSymlink:
		mode |= format.UnixTypeSymlink
	default:
		mode |= format.UnixTypeRegular
	}

	attrs := mode << 16
	if etype == EntryTypeDirectory {
		attrs |= format.DOSDirectoryAttribute
	}
	return attrs
}
