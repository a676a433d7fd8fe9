// Package format implements the on-disk ZIP record layouts: local file
// headers, central directory records, the end-of-central-directory trailer,
// and their ZIP64 extensions.
//
// All encode and decode functions operate on byte slices or readers and have
// no other side effects. Multi-byte fields are little-endian per the PKZIP
// specification.
package format

// Record signatures. Every record begins with a four byte signature whose
// low two bytes are the constant marker "PK".
const (
	LocalFileHeaderSignature      uint32 = 0x04034b50
	CentralDirectorySignature     uint32 = 0x02014b50
	EndOfCentralDirSignature      uint32 = 0x06054b50
	Zip64EndOfCentralDirSignature uint32 = 0x06064b50
	Zip64EOCDLocatorSignature     uint32 = 0x07064b50
)

// Fixed record sizes in bytes, including the leading signature.
const (
	LocalFileHeaderLength   = 30
	CentralDirectoryLength  = 46
	EndOfCentralDirLength   = 22
	Zip64EndOfCentralDirLen = 56
	Zip64EOCDLocatorLength  = 20
)

// Zip64ExtraFieldTag identifies the ZIP64 extended information extra field.
const Zip64ExtraFieldTag uint16 = 0x0001

// Sentinel values written into legacy-width fields when the true value lives
// in a ZIP64 structure.
const (
	Max16 = 0xFFFF
	Max32 = 0xFFFFFFFF
)

// Version fields.
const (
	// VersionMadeBy encodes host system Unix (3) in the high byte and the
	// supported specification version (4.5, ZIP64) in the low byte.
	VersionMadeBy uint16 = 3<<8 | 45

	// VersionNeededDefault is the minimum extraction version for entries
	// without ZIP64 structures.
	VersionNeededDefault uint16 = 20

	// VersionNeededZip64 is the minimum extraction version for entries that
	// carry ZIP64 extended information.
	VersionNeededZip64 uint16 = 45
)

// FlagUTF8 is general purpose bit 11, marking the path and comment bytes as
// UTF-8 encoded.
const FlagUTF8 uint16 = 0x800

// Unix file type bits used in the high half of external file attributes.
const (
	UnixTypeRegular uint32 = 0x8000
	UnixTypeDir     uint32 = 0x4000
	UnixTypeSymlink uint32 = 0xA000
)

// DOSDirectoryAttribute is the MS-DOS directory bit kept in the low byte of
// external file attributes for tools that ignore the Unix half.
const DOSDirectoryAttribute uint32 = 0x10
