package zipkit

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/projectwizards/zipkit/internal/format"
)

// AddEntry streams a new entry into the archive. The entry body is written
// where the central directory currently starts; the directory is re-appended
// behind it together with a record for the new entry and an updated trailer.
//
// The local header is written twice: once provisionally before the payload
// streams (sizes and checksum unknown), once more with the real numbers
// after. If ctx is cancelled mid-stream, the archive is rolled back to its
// prior byte-exact state and the context error is returned. Any other I/O
// failure propagates without rollback and may leave the archive
// inconsistent.
//
// Directories and symlinks are never compressed regardless of the requested
// method. Directory paths are normalized to end with a path separator.
func (a *Archive) AddEntry(ctx context.Context, path string, etype EntryType,
	uncompressedSize uint64, provider Provider, opts ...AddOption) error {

	release, err := a.beginMutation()
	if err != nil {
		return err
	}
	defer release()

	if path == "" || len(path) > format.Max16 {
		return fmt.Errorf("%w: %q", ErrInvalidPath, path)
	}

	cfg := addConfig{bufferSize: DefaultBufferSize, modTime: time.Now()}
	for _, opt := range opts {
		opt(&cfg)
	}

	if etype == EntryTypeDirectory {
		if !strings.HasSuffix(path, "/") {
			path += "/"
		}
		uncompressedSize = 0
	}
	if etype != EntryTypeFile {
		cfg.method = Store
	}
	if cfg.permissions == 0 {
		cfg.permissions = defaultFilePermissions
		if etype == EntryTypeDirectory {
			cfg.permissions = defaultDirectoryPermissions
		}
	}

	cdOffset := int64(a.trailer.CentralDirectoryOffset())
	cdSize := int64(a.trailer.CentralDirectorySize())

	// Snapshot from the central directory start through EOF: the rollback
	// anchor holding the directory and trailer bytes.
	end, err := a.size()
	if err != nil {
		return err
	}
	snapshot := make([]byte, end-cdOffset)
	if _, err := a.backing.ReadAt(snapshot, cdOffset); err != nil {
		return fmt.Errorf("snapshot central directory: %w", err)
	}
	existingCD := snapshot[:cdSize]

	// The old directory start becomes the new entry's local header offset.
	if _, err := a.backing.Seek(cdOffset, io.SeekStart); err != nil {
		return fmt.Errorf("seek to central directory: %w", err)
	}

	hdr := a.provisionalHeader(path, etype, cfg, uncompressedSize)
	hdrBytes := hdr.Encode()
	if _, err := a.backing.Write(hdrBytes); err != nil {
		return fmt.Errorf("write local file header: %w", err)
	}

	written, checksum, err := writeEntryData(ctx, a.backing, path, etype,
		cfg.method, cfg.level, uncompressedSize, cfg.bufferSize,
		cfg.progress, cfg.consumer, provider)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			if rbErr := a.rollback(cdOffset, snapshot); rbErr != nil {
				return fmt.Errorf("rollback after cancellation: %w", rbErr)
			}
			a.log().Debug("add cancelled, archive rolled back", "path", path)
			return err
		}
		return err
	}

	// Patch the header with the now-known compressed size and checksum. The
	// provisional and final encodings share the same byte length, so the
	// rewrite never shifts the payload.
	final := hdr
	final.CRC32 = checksum
	if len(hdr.ExtraField) > 0 {
		final.ExtraField = format.EncodeZip64LocalSizes(uncompressedSize, written)
	} else {
		if written >= format.Max32 {
			return fmt.Errorf("%w: compressed size %d needs zip64 but header was written without it",
				ErrInvalidEntrySize, written)
		}
		final.CompressedSize = uint32(written)
	}
	if _, err := a.backing.Seek(cdOffset, io.SeekStart); err != nil {
		return fmt.Errorf("seek to local file header: %w", err)
	}
	if _, err := a.backing.Write(final.Encode()); err != nil {
		return fmt.Errorf("rewrite local file header: %w", err)
	}

	dataEnd := cdOffset + int64(len(hdrBytes)) + int64(written)
	if _, err := a.backing.Seek(dataEnd, io.SeekStart); err != nil {
		return fmt.Errorf("seek past payload: %w", err)
	}
	if _, err := a.backing.Write(existingCD); err != nil {
		return fmt.Errorf("re-append central directory: %w", err)
	}

	rec := a.directoryRecord(final, etype, cfg, uncompressedSize, written, uint64(cdOffset))
	recBytes := rec.Encode()
	if _, err := a.backing.Write(recBytes); err != nil {
		return fmt.Errorf("append directory record: %w", err)
	}

	trailer := format.BuildTrailer(
		a.trailer.EntryCount()+1,
		uint64(cdSize)+uint64(len(recBytes)),
		uint64(dataEnd),
		a.trailer.IsZip64(),
		a.trailer.EOCD.Comment,
	)
	if _, err := a.backing.Write(trailer.Encode()); err != nil {
		return fmt.Errorf("write trailer: %w", err)
	}

	entry, err := newEntry(rec)
	if err != nil {
		return err
	}
	a.trailer = trailer
	a.entries = append(a.entries, entry)

	a.log().Info("entry added",
		"path", path,
		"type", etype.String(),
		"method", cfg.method.String(),
		"uncompressed_size", uncompressedSize,
		"compressed_size", written)
	return nil
}

// provisionalHeader builds the local file header written before the payload
// streams. Sizes and checksum are placeholders; the ZIP64 extra field is
// already present when the uncompressed size alone mandates it, keeping the
// header length stable across the final rewrite.
func (a *Archive) provisionalHeader(path string, etype EntryType, cfg addConfig,
	uncompressedSize uint64) format.LocalFileHeader {

	dosDate, dosTime := timeToMsDos(cfg.modTime)
	hdr := format.LocalFileHeader{
		VersionNeededToExtract: format.VersionNeededDefault,
		GeneralPurposeBitFlag:  format.FlagUTF8,
		CompressionMethod:      uint16(cfg.method),
		LastModFileTime:        dosTime,
		LastModFileDate:        dosDate,
		Filename:               path,
	}
	if etype == EntryTypeFile && uncompressedSize >= format.Max32 {
		hdr.VersionNeededToExtract = format.VersionNeededZip64
		hdr.UncompressedSize = format.Max32
		hdr.CompressedSize = format.Max32
		hdr.ExtraField = format.EncodeZip64LocalSizes(uncompressedSize, 0)
	} else {
		hdr.UncompressedSize = uint32(uncompressedSize)
	}
	return hdr
}

// directoryRecord derives the central directory record for a just-written
// entry, substituting sentinels and attaching ZIP64 extended information for
// every field beyond its legacy width.
func (a *Archive) directoryRecord(hdr format.LocalFileHeader, etype EntryType,
	cfg addConfig, uncompressedSize, compressedSize, offset uint64) format.CentralDirectoryRecord {

	z := format.Zip64ExtendedInfo{
		UncompressedSize:     uncompressedSize,
		CompressedSize:       compressedSize,
		LocalHeaderOffset:    offset,
		HasUncompressedSize:  uncompressedSize >= format.Max32,
		HasCompressedSize:    compressedSize >= format.Max32,
		HasLocalHeaderOffset: offset >= format.Max32,
	}
	if !z.HasUncompressedSize {
		z.UncompressedSize = 0
	}
	if !z.HasCompressedSize {
		z.CompressedSize = 0
	}
	if !z.HasLocalHeaderOffset {
		z.LocalHeaderOffset = 0
	}

	rec := format.CentralDirectoryRecord{
		VersionMadeBy:          format.VersionMadeBy,
		VersionNeededToExtract: hdr.VersionNeededToExtract,
		GeneralPurposeBitFlag:  hdr.GeneralPurposeBitFlag,
		CompressionMethod:      hdr.CompressionMethod,
		LastModFileTime:        hdr.LastModFileTime,
		LastModFileDate:        hdr.LastModFileDate,
		CRC32:                  hdr.CRC32,
		CompressedSize:         uint32(min(uint64(format.Max32), compressedSize)),
		UncompressedSize:       uint32(min(uint64(format.Max32), uncompressedSize)),
		ExternalFileAttributes: externalAttributes(etype, cfg.permissions),
		LocalHeaderOffset:      uint32(min(uint64(format.Max32), offset)),
		Filename:               hdr.Filename,
		ExtraField:             z.Encode(),
	}
	if z.Present() {
		rec.VersionNeededToExtract = format.VersionNeededZip64
	}
	return rec
}

// rollback restores the pre-mutation state: truncate back to the local
// header start and replay the snapshotted directory and trailer bytes.
func (a *Archive) rollback(offset int64, snapshot []byte) error {
	if err := a.backing.Truncate(offset); err != nil {
		return fmt.Errorf("truncate to %d: %w", offset, err)
	}
	if _, err := a.backing.Seek(offset, io.SeekStart); err != nil {
		return fmt.Errorf("seek to %d: %w", offset, err)
	}
	if _, err := a.backing.Write(snapshot); err != nil {
		return fmt.Errorf("replay directory and trailer: %w", err)
	}
	return nil
}
