package zipkit

import "errors"

// Sentinel errors.
var (
	// ErrReadOnlyArchive is returned when a mutation is attempted on an
	// archive opened in ModeRead.
	ErrReadOnlyArchive = errors.New("zipkit: archive is read-only")

	// ErrConcurrentMutation is returned when a mutation starts while another
	// one is in flight on the same Archive.
	ErrConcurrentMutation = errors.New("zipkit: mutation already in progress")

	// ErrInvalidOffset is returned when a central directory offset exceeds
	// the representable range or points outside the archive.
	ErrInvalidOffset = errors.New("zipkit: invalid central directory offset")

	// ErrInvalidEntrySize is returned when an entry's size cannot be
	// represented, even with ZIP64 structures.
	ErrInvalidEntrySize = errors.New("zipkit: invalid entry size")

	// ErrUnreadableArchive is returned when the archive cannot be reopened
	// or re-parsed after an atomic replacement.
	ErrUnreadableArchive = errors.New("zipkit: archive unreadable")

	// ErrEntryNotFound is returned when the named entry does not exist in
	// the archive.
	ErrEntryNotFound = errors.New("zipkit: entry not found")

	// ErrInvalidPath is returned when an entry path is empty or malformed.
	ErrInvalidPath = errors.New("zipkit: invalid entry path")

	// ErrUnsupportedCompression is returned for compression methods the
	// writer cannot produce.
	ErrUnsupportedCompression = errors.New("zipkit: unsupported compression method")
)
