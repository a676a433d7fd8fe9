package format

import (
	"encoding/binary"
	"fmt"
	"io"
)

// CentralDirectoryRecord is the archive-wide directory record for one entry.
// The 32-bit size and offset fields hold 0xFFFFFFFF when the true value is
// carried in the ZIP64 extended information extra field.
type CentralDirectoryRecord struct {
	VersionMadeBy          uint16
	VersionNeededToExtract uint16
	GeneralPurposeBitFlag  uint16
	CompressionMethod      uint16
	LastModFileTime        uint16
	LastModFileDate        uint16
	CRC32                  uint32
	CompressedSize         uint32
	UncompressedSize       uint32
	DiskNumberStart        uint16
	InternalFileAttributes uint16
	ExternalFileAttributes uint32
	LocalHeaderOffset      uint32
	Filename               string
	ExtraField             []byte
	Comment                string
}

// Encode serializes the record as the fixed 46-byte layout followed by the
// filename, extra field, and comment bytes.
func (d CentralDirectoryRecord) Encode() []byte {
	buf := make([]byte, CentralDirectoryLength+len(d.Filename)+len(d.ExtraField)+len(d.Comment))

	binary.LittleEndian.PutUint32(buf[0:4], CentralDirectorySignature)
	binary.LittleEndian.PutUint16(buf[4:6], d.VersionMadeBy)
	binary.LittleEndian.PutUint16(buf[6:8], d.VersionNeededToExtract)
	binary.LittleEndian.PutUint16(buf[8:10], d.GeneralPurposeBitFlag)
	binary.LittleEndian.PutUint16(buf[10:12], d.CompressionMethod)
	binary.LittleEndian.PutUint16(buf[12:14], d.LastModFileTime)
	binary.LittleEndian.PutUint16(buf[14:16], d.LastModFileDate)
	binary.LittleEndian.PutUint32(buf[16:20], d.CRC32)
	binary.LittleEndian.PutUint32(buf[20:24], d.CompressedSize)
	binary.LittleEndian.PutUint32(buf[24:28], d.UncompressedSize)
	binary.LittleEndian.PutUint16(buf[28:30], uint16(len(d.Filename)))
	binary.LittleEndian.PutUint16(buf[30:32], uint16(len(d.ExtraField)))
	binary.LittleEndian.PutUint16(buf[32:34], uint16(len(d.Comment)))
	binary.LittleEndian.PutUint16(buf[34:36], d.DiskNumberStart)
	binary.LittleEndian.PutUint16(buf[36:38], d.InternalFileAttributes)
	binary.LittleEndian.PutUint32(buf[38:42], d.ExternalFileAttributes)
	binary.LittleEndian.PutUint32(buf[42:46], d.LocalHeaderOffset)

	off := CentralDirectoryLength
	off += copy(buf[off:], d.Filename)
	off += copy(buf[off:], d.ExtraField)
	copy(buf[off:], d.Comment)

	return buf
}

// TotalLength returns the encoded size of the record including its variable
// sections.
func (d CentralDirectoryRecord) TotalLength() int {
	return CentralDirectoryLength + len(d.Filename) + len(d.ExtraField) + len(d.Comment)
}

// Zip64 decodes the ZIP64 overrides requested by the record's sentinel
// fields. The zero value is returned when no field overflowed.
func (d CentralDirectoryRecord) Zip64() (Zip64ExtendedInfo, error) {
	return ParseZip64ExtendedInfo(
		d.ExtraField,
		d.UncompressedSize == Max32,
		d.CompressedSize == Max32,
		d.LocalHeaderOffset == Max32,
	)
}

// WithLocalHeaderOffset derives a copy of the record pointing at a new local
// header position, rebuilding the ZIP64 extra field so that the sentinel
// discipline holds for the new offset while size overrides are preserved.
func (d CentralDirectoryRecord) WithLocalHeaderOffset(offset uint64) (CentralDirectoryRecord, error) {
	z, err := d.Zip64()
	if err != nil {
		return CentralDirectoryRecord{}, err
	}

	out := d
	z.HasLocalHeaderOffset = offset >= Max32
	z.LocalHeaderOffset = 0
	if z.HasLocalHeaderOffset {
		z.LocalHeaderOffset = offset
		out.LocalHeaderOffset = Max32
	} else {
		out.LocalHeaderOffset = uint32(offset)
	}

	out.ExtraField = append(stripExtraField(d.ExtraField, Zip64ExtraFieldTag), z.Encode()...)
	if z.Present() {
		out.VersionNeededToExtract = max(out.VersionNeededToExtract, VersionNeededZip64)
	}
	return out, nil
}

// ReadCentralDirectoryRecord decodes one central directory record from src.
func ReadCentralDirectoryRecord(src io.Reader) (CentralDirectoryRecord, error) {
	var buf [CentralDirectoryLength]byte
	if _, err := io.ReadFull(src, buf[:]); err != nil {
		return CentralDirectoryRecord{}, fmt.Errorf("read central directory record: %w", err)
	}
	if sig := binary.LittleEndian.Uint32(buf[0:4]); sig != CentralDirectorySignature {
		return CentralDirectoryRecord{}, fmt.Errorf("bad central directory signature 0x%08x", sig)
	}

	d := CentralDirectoryRecord{
		VersionMadeBy:          binary.LittleEndian.Uint16(buf[4:6]),
		VersionNeededToExtract: binary.LittleEndian.Uint16(buf[6:8]),
		GeneralPurposeBitFlag:  binary.LittleEndian.Uint16(buf[8:10]),
		CompressionMethod:      binary.LittleEndian.Uint16(buf[10:12]),
		LastModFileTime:        binary.LittleEndian.Uint16(buf[12:14]),
		LastModFileDate:        binary.LittleEndian.Uint16(buf[14:16]),
		CRC32:                  binary.LittleEndian.Uint32(buf[16:20]),
		CompressedSize:         binary.LittleEndian.Uint32(buf[20:24]),
		UncompressedSize:       binary.LittleEndian.Uint32(buf[24:28]),
		DiskNumberStart:        binary.LittleEndian.Uint16(buf[34:36]),
		InternalFileAttributes: binary.LittleEndian.Uint16(buf[36:38]),
		ExternalFileAttributes: binary.LittleEndian.Uint32(buf[38:42]),
		LocalHeaderOffset:      binary.LittleEndian.Uint32(buf[42:46]),
	}
	filenameLen := binary.LittleEndian.Uint16(buf[28:30])
	extraLen := binary.LittleEndian.Uint16(buf[30:32])
	commentLen := binary.LittleEndian.Uint16(buf[32:34])

	if filenameLen > 0 {
		name := make([]byte, filenameLen)
		if _, err := io.ReadFull(src, name); err != nil {
			return CentralDirectoryRecord{}, fmt.Errorf("read filename: %w", err)
		}
		d.Filename = string(name)
	}
	if extraLen > 0 {
		d.ExtraField = make([]byte, extraLen)
		if _, err := io.ReadFull(src, d.ExtraField); err != nil {
			return CentralDirectoryRecord{}, fmt.Errorf("read extra field: %w", err)
		}
	}
	if commentLen > 0 {
		comment := make([]byte, commentLen)
		if _, err := io.ReadFull(src, comment); err != nil {
			return CentralDirectoryRecord{}, fmt.Errorf("read comment: %w", err)
		}
		d.Comment = string(comment)
	}

	return d, nil
}
