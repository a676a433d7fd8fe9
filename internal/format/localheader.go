package format

import (
	"encoding/binary"
	"fmt"
	"io"
)

// LocalFileHeader is the per-entry header immediately preceding that entry's
// payload in the archive body.
type LocalFileHeader struct {
	VersionNeededToExtract uint16
	GeneralPurposeBitFlag  uint16
	CompressionMethod      uint16
	LastModFileTime        uint16
	LastModFileDate        uint16
	CRC32                  uint32
	CompressedSize         uint32
	UncompressedSize       uint32
	Filename               string
	ExtraField             []byte
}

// Encode serializes the header as the fixed 30-byte layout followed by the
// filename and extra field bytes.
func (h LocalFileHeader) Encode() []byte {
	buf := make([]byte, LocalFileHeaderLength+len(h.Filename)+len(h.ExtraField))

	binary.LittleEndian.PutUint32(buf[0:4], LocalFileHeaderSignature)
	binary.LittleEndian.PutUint16(buf[4:6], h.VersionNeededToExtract)
	binary.LittleEndian.PutUint16(buf[6:8], h.GeneralPurposeBitFlag)
	binary.LittleEndian.PutUint16(buf[8:10], h.CompressionMethod)
	binary.LittleEndian.PutUint16(buf[10:12], h.LastModFileTime)
	binary.LittleEndian.PutUint16(buf[12:14], h.LastModFileDate)
	binary.LittleEndian.PutUint32(buf[14:18], h.CRC32)
	binary.LittleEndian.PutUint32(buf[18:22], h.CompressedSize)
	binary.LittleEndian.PutUint32(buf[22:26], h.UncompressedSize)
	binary.LittleEndian.PutUint16(buf[26:28], uint16(len(h.Filename)))
	binary.LittleEndian.PutUint16(buf[28:30], uint16(len(h.ExtraField)))

	copy(buf[LocalFileHeaderLength:], h.Filename)
	copy(buf[LocalFileHeaderLength+len(h.Filename):], h.ExtraField)

	return buf
}

// TotalLength returns the encoded size of the header including the variable
// filename and extra field sections.
func (h LocalFileHeader) TotalLength() int {
	return LocalFileHeaderLength + len(h.Filename) + len(h.ExtraField)
}

// ReadLocalFileHeader decodes one local file header from src.
func ReadLocalFileHeader(src io.Reader) (LocalFileHeader, error) {
	var buf [LocalFileHeaderLength]byte
	if _, err := io.ReadFull(src, buf[:]); err != nil {
		return LocalFileHeader{}, fmt.Errorf("read local file header: %w", err)
	}
	if sig := binary.LittleEndian.Uint32(buf[0:4]); sig != LocalFileHeaderSignature {
		return LocalFileHeader{}, fmt.Errorf("bad local file header signature 0x%08x", sig)
	}

	h := LocalFileHeader{
		VersionNeededToExtract: binary.LittleEndian.Uint16(buf[4:6]),
		GeneralPurposeBitFlag:  binary.LittleEndian.Uint16(buf[6:8]),
		CompressionMethod:      binary.LittleEndian.Uint16(buf[8:10]),
		LastModFileTime:        binary.LittleEndian.Uint16(buf[10:12]),
		LastModFileDate:        binary.LittleEndian.Uint16(buf[12:14]),
		CRC32:                  binary.LittleEndian.Uint32(buf[14:18]),
		CompressedSize:         binary.LittleEndian.Uint32(buf[18:22]),
		UncompressedSize:       binary.LittleEndian.Uint32(buf[22:26]),
	}
	filenameLen := binary.LittleEndian.Uint16(buf[26:28])
	extraLen := binary.LittleEndian.Uint16(buf[28:30])

	if filenameLen > 0 {
		name := make([]byte, filenameLen)
		if _, err := io.ReadFull(src, name); err != nil {
			return LocalFileHeader{}, fmt.Errorf("read filename: %w", err)
		}
		h.Filename = string(name)
	}
	if extraLen > 0 {
		h.ExtraField = make([]byte, extraLen)
		if _, err := io.ReadFull(src, h.ExtraField); err != nil {
			return LocalFileHeader{}, fmt.Errorf("read extra field: %w", err)
		}
	}

	return h, nil
}
