package format

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// ErrNoEndOfCentralDirectory is returned when the trailer scan finds no end
// of central directory record.
var ErrNoEndOfCentralDirectory = errors.New("end of central directory record not found")

// EndOfCentralDirectory is the fixed archive trailer identifying the central
// directory's location, size, and entry count.
type EndOfCentralDirectory struct {
	ThisDiskNum      uint16
	StartDiskNum     uint16
	EntriesOnDisk    uint16
	TotalEntries     uint16
	CentralDirSize   uint32
	CentralDirOffset uint32
	Comment          string
}

// Zip64EndOfCentralDirectory is the 64-bit trailer extension used when
// totals exceed legacy limits.
type Zip64EndOfCentralDirectory struct {
	RecordSize             uint64
	VersionMadeBy          uint16
	VersionNeededToExtract uint16
	ThisDiskNum            uint32
	StartDiskNum           uint32
	EntriesOnDisk          uint64
	TotalEntries           uint64
	CentralDirSize         uint64
	CentralDirOffset       uint64
}

// Zip64EOCDLocator points at the ZIP64 end of central directory record. It
// is written immediately before the EOCD record.
type Zip64EOCDLocator struct {
	StartDiskNum uint32
	RecordOffset uint64
	TotalDisks   uint32
}

// Trailer bundles the EOCD record with its optional ZIP64 companions. It is
// the archive-wide state replaced atomically after every mutation.
type Trailer struct {
	EOCD    EndOfCentralDirectory
	Zip64   *Zip64EndOfCentralDirectory
	Locator *Zip64EOCDLocator
}

// IsZip64 reports whether the trailer carries ZIP64 structures. Once true,
// BuildTrailer keeps emitting them for the archive regardless of totals.
func (t Trailer) IsZip64() bool { return t.Zip64 != nil }

// EntryCount returns the total entry count, honoring the ZIP64 override.
func (t Trailer) EntryCount() uint64 {
	if t.Zip64 != nil && t.EOCD.TotalEntries == Max16 {
		return t.Zip64.TotalEntries
	}
	return uint64(t.EOCD.TotalEntries)
}

// CentralDirectorySize returns the central directory's byte size, honoring
// the ZIP64 override.
func (t Trailer) CentralDirectorySize() uint64 {
	if t.Zip64 != nil && t.EOCD.CentralDirSize == Max32 {
		return t.Zip64.CentralDirSize
	}
	return uint64(t.EOCD.CentralDirSize)
}

// CentralDirectoryOffset returns the byte offset where the central directory
// starts, honoring the ZIP64 override.
func (t Trailer) CentralDirectoryOffset() uint64 {
	if t.Zip64 != nil && t.EOCD.CentralDirOffset == Max32 {
		return t.Zip64.CentralDirOffset
	}
	return uint64(t.EOCD.CentralDirOffset)
}

// Encode serializes the trailer: ZIP64 EOCD record and locator first when
// present, then the EOCD record.
func (t Trailer) Encode() []byte {
	var buf []byte
	if t.Zip64 != nil {
		buf = append(buf, encodeZip64EOCD(*t.Zip64)...)
		buf = append(buf, encodeZip64Locator(*t.Locator)...)
	}
	buf = append(buf, encodeEOCD(t.EOCD)...)
	return buf
}

// Length returns the encoded trailer size in bytes.
func (t Trailer) Length() int {
	n := EndOfCentralDirLength + len(t.EOCD.Comment)
	if t.Zip64 != nil {
		n += Zip64EndOfCentralDirLen + Zip64EOCDLocatorLength
	}
	return n
}

// BuildTrailer constructs the trailer for an archive whose central directory
// of entryCount entries occupies cdSize bytes starting at cdOffset. ZIP64
// structures are emitted when any total exceeds its legacy field width or
// when forceZip64 is set (an archive that already uses ZIP64 stays ZIP64 to
// keep the locator consistent).
func BuildTrailer(entryCount, cdSize, cdOffset uint64, forceZip64 bool, comment string) Trailer {
	needZip64 := forceZip64 || entryCount >= Max16 || cdSize >= Max32 || cdOffset >= Max32

	t := Trailer{
		EOCD: EndOfCentralDirectory{
			EntriesOnDisk:    uint16(min(uint64(Max16), entryCount)),
			TotalEntries:     uint16(min(uint64(Max16), entryCount)),
			CentralDirSize:   uint32(min(uint64(Max32), cdSize)),
			CentralDirOffset: uint32(min(uint64(Max32), cdOffset)),
			Comment:          comment,
		},
	}
	if !needZip64 {
		return t
	}

	t.EOCD.EntriesOnDisk = Max16
	t.EOCD.TotalEntries = Max16
	t.EOCD.CentralDirSize = Max32
	t.EOCD.CentralDirOffset = Max32
	t.Zip64 = &Zip64EndOfCentralDirectory{
		RecordSize:             Zip64EndOfCentralDirLen - 12,
		VersionMadeBy:          VersionMadeBy,
		VersionNeededToExtract: VersionNeededZip64,
		EntriesOnDisk:          entryCount,
		TotalEntries:           entryCount,
		CentralDirSize:         cdSize,
		CentralDirOffset:       cdOffset,
	}
	t.Locator = &Zip64EOCDLocator{
		RecordOffset: cdOffset + cdSize,
		TotalDisks:   1,
	}
	return t
}

func encodeEOCD(e EndOfCentralDirectory) []byte {
	buf := make([]byte, EndOfCentralDirLength+len(e.Comment))

	binary.LittleEndian.PutUint32(buf[0:4], EndOfCentralDirSignature)
	binary.LittleEndian.PutUint16(buf[4:6], e.ThisDiskNum)
	binary.LittleEndian.PutUint16(buf[6:8], e.StartDiskNum)
	binary.LittleEndian.PutUint16(buf[8:10], e.EntriesOnDisk)
	binary.LittleEndian.PutUint16(buf[10:12], e.TotalEntries)
	binary.LittleEndian.PutUint32(buf[12:16], e.CentralDirSize)
	binary.LittleEndian.PutUint32(buf[16:20], e.CentralDirOffset)
	binary.LittleEndian.PutUint16(buf[20:22], uint16(len(e.Comment)))

	copy(buf[EndOfCentralDirLength:], e.Comment)

	return buf
}

func encodeZip64EOCD(e Zip64EndOfCentralDirectory) []byte {
	buf := make([]byte, Zip64EndOfCentralDirLen)

	binary.LittleEndian.PutUint32(buf[0:4], Zip64EndOfCentralDirSignature)
	binary.LittleEndian.PutUint64(buf[4:12], e.RecordSize)
	binary.LittleEndian.PutUint16(buf[12:14], e.VersionMadeBy)
	binary.LittleEndian.PutUint16(buf[14:16], e.VersionNeededToExtract)
	binary.LittleEndian.PutUint32(buf[16:20], e.ThisDiskNum)
	binary.LittleEndian.PutUint32(buf[20:24], e.StartDiskNum)
	binary.LittleEndian.PutUint64(buf[24:32], e.EntriesOnDisk)
	binary.LittleEndian.PutUint64(buf[32:40], e.TotalEntries)
	binary.LittleEndian.PutUint64(buf[40:48], e.CentralDirSize)
	binary.LittleEndian.PutUint64(buf[48:56], e.CentralDirOffset)

	return buf
}

func encodeZip64Locator(l Zip64EOCDLocator) []byte {
	buf := make([]byte, Zip64EOCDLocatorLength)

	binary.LittleEndian.PutUint32(buf[0:4], Zip64EOCDLocatorSignature)
	binary.LittleEndian.PutUint32(buf[4:8], l.StartDiskNum)
	binary.LittleEndian.PutUint64(buf[8:16], l.RecordOffset)
	binary.LittleEndian.PutUint32(buf[16:20], l.TotalDisks)

	return buf
}

// FindTrailer locates and decodes the archive trailer by scanning backward
// from the end of the file, accounting for a trailing comment of up to
// 0xFFFF bytes. When a ZIP64 locator precedes the EOCD record, the ZIP64
// record it points at is decoded as well.
func FindTrailer(r io.ReaderAt, size int64) (Trailer, error) {
	eocdOffset, eocd, err := findEOCD(r, size)
	if err != nil {
		return Trailer{}, err
	}
	t := Trailer{EOCD: eocd}

	if eocdOffset < Zip64EOCDLocatorLength {
		return t, nil
	}

	var locBuf [Zip64EOCDLocatorLength]byte
	if _, err := r.ReadAt(locBuf[:], eocdOffset-Zip64EOCDLocatorLength); err != nil {
		return Trailer{}, fmt.Errorf("read zip64 locator: %w", err)
	}
	if binary.LittleEndian.Uint32(locBuf[0:4]) != Zip64EOCDLocatorSignature {
		return t, nil
	}
	loc := Zip64EOCDLocator{
		StartDiskNum: binary.LittleEndian.Uint32(locBuf[4:8]),
		RecordOffset: binary.LittleEndian.Uint64(locBuf[8:16]),
		TotalDisks:   binary.LittleEndian.Uint32(locBuf[16:20]),
	}

	var recBuf [Zip64EndOfCentralDirLen]byte
	if _, err := r.ReadAt(recBuf[:], int64(loc.RecordOffset)); err != nil {
		return Trailer{}, fmt.Errorf("read zip64 end of central directory: %w", err)
	}
	if sig := binary.LittleEndian.Uint32(recBuf[0:4]); sig != Zip64EndOfCentralDirSignature {
		return Trailer{}, fmt.Errorf("bad zip64 end of central directory signature 0x%08x", sig)
	}
	t.Locator = &loc
	t.Zip64 = &Zip64EndOfCentralDirectory{
		RecordSize:             binary.LittleEndian.Uint64(recBuf[4:12]),
		VersionMadeBy:          binary.LittleEndian.Uint16(recBuf[12:14]),
		VersionNeededToExtract: binary.LittleEndian.Uint16(recBuf[14:16]),
		ThisDiskNum:            binary.LittleEndian.Uint32(recBuf[16:20]),
		StartDiskNum:           binary.LittleEndian.Uint32(recBuf[20:24]),
		EntriesOnDisk:          binary.LittleEndian.Uint64(recBuf[24:32]),
		TotalEntries:           binary.LittleEndian.Uint64(recBuf[32:40]),
		CentralDirSize:         binary.LittleEndian.Uint64(recBuf[40:48]),
		CentralDirOffset:       binary.LittleEndian.Uint64(recBuf[48:56]),
	}

	return t, nil
}

func findEOCD(r io.ReaderAt, size int64) (int64, EndOfCentralDirectory, error) {
	if size < EndOfCentralDirLength {
		return 0, EndOfCentralDirectory{}, ErrNoEndOfCentralDirectory
	}

	window := int64(EndOfCentralDirLength + Max16)
	if window > size {
		window = size
	}
	windowStart := size - window
	buf := make([]byte, window)
	if _, err := r.ReadAt(buf, windowStart); err != nil {
		return 0, EndOfCentralDirectory{}, fmt.Errorf("read trailer window: %w", err)
	}

	for i := len(buf) - EndOfCentralDirLength; i >= 0; i-- {
		if binary.LittleEndian.Uint32(buf[i:i+4]) != EndOfCentralDirSignature {
			continue
		}
		commentLen := int(binary.LittleEndian.Uint16(buf[i+20 : i+22]))
		if i+EndOfCentralDirLength+commentLen != len(buf) {
			continue
		}
		e := EndOfCentralDirectory{
			ThisDiskNum:      binary.LittleEndian.Uint16(buf[i+4 : i+6]),
			StartDiskNum:     binary.LittleEndian.Uint16(buf[i+6 : i+8]),
			EntriesOnDisk:    binary.LittleEndian.Uint16(buf[i+8 : i+10]),
			TotalEntries:     binary.LittleEndian.Uint16(buf[i+10 : i+12]),
			CentralDirSize:   binary.LittleEndian.Uint32(buf[i+12 : i+16]),
			CentralDirOffset: binary.LittleEndian.Uint32(buf[i+16 : i+20]),
			Comment:          string(buf[i+EndOfCentralDirLength:]),
		}
		return windowStart + int64(i), e, nil
	}

	return 0, EndOfCentralDirectory{}, ErrNoEndOfCentralDirectory
}
