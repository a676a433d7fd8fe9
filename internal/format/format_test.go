package format

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalFileHeaderRoundTrip(t *testing.T) {
	t.Parallel()

	h := LocalFileHeader{
		VersionNeededToExtract: VersionNeededDefault,
		GeneralPurposeBitFlag:  FlagUTF8,
		CompressionMethod:      8,
		LastModFileTime:        0x6A2C,
		LastModFileDate:        0x5B41,
		CRC32:                  0xDEADBEEF,
		CompressedSize:         1234,
		UncompressedSize:       5678,
		Filename:               "dir/file.txt",
		ExtraField:             EncodeZip64LocalSizes(5678, 1234),
	}

	encoded := h.Encode()
	require.Len(t, encoded, h.TotalLength())
	assert.Equal(t, LocalFileHeaderSignature, binary.LittleEndian.Uint32(encoded[:4]))

	decoded, err := ReadLocalFileHeader(bytes.NewReader(encoded))
	require.NoError(t, err)
	assert.Equal(t, h, decoded)
}

func TestReadLocalFileHeaderRejectsBadSignature(t *testing.T) {
	t.Parallel()

	buf := make([]byte, LocalFileHeaderLength)
	binary.LittleEndian.PutUint32(buf, 0x12345678)
	_, err := ReadLocalFileHeader(bytes.NewReader(buf))
	require.Error(t, err)
}

func TestCentralDirectoryRecordRoundTrip(t *testing.T) {
	t.Parallel()

	d := CentralDirectoryRecord{
		VersionMadeBy:          VersionMadeBy,
		VersionNeededToExtract: VersionNeededDefault,
		GeneralPurposeBitFlag:  FlagUTF8,
		CompressionMethod:      0,
		LastModFileTime:        0x6A2C,
		LastModFileDate:        0x5B41,
		CRC32:                  0xCAFEBABE,
		CompressedSize:         12,
		UncompressedSize:       12,
		ExternalFileAttributes: (UnixTypeRegular | 0o644) << 16,
		LocalHeaderOffset:      64,
		Filename:               "a.txt",
		Comment:                "note",
	}

	decoded, err := ReadCentralDirectoryRecord(bytes.NewReader(d.Encode()))
	require.NoError(t, err)
	assert.Equal(t, d, decoded)
}

func TestZip64ExtendedInfoOrdering(t *testing.T) {
	t.Parallel()

	// Only the overridden subset is written, in the relative order
	// uncompressed size, compressed size, offset.
	z := Zip64ExtendedInfo{
		CompressedSize:       0x1_0000_0001,
		LocalHeaderOffset:    0x2_0000_0002,
		HasCompressedSize:    true,
		HasLocalHeaderOffset: true,
	}
	encoded := z.Encode()
	require.Len(t, encoded, 4+16)
	assert.Equal(t, Zip64ExtraFieldTag, binary.LittleEndian.Uint16(encoded[0:2]))
	assert.Equal(t, uint16(16), binary.LittleEndian.Uint16(encoded[2:4]))
	assert.Equal(t, uint64(0x1_0000_0001), binary.LittleEndian.Uint64(encoded[4:12]))
	assert.Equal(t, uint64(0x2_0000_0002), binary.LittleEndian.Uint64(encoded[12:20]))

	parsed, err := ParseZip64ExtendedInfo(encoded, false, true, true)
	require.NoError(t, err)
	assert.Equal(t, z, parsed)
}

func TestZip64ExtendedInfoEmpty(t *testing.T) {
	t.Parallel()

	assert.Nil(t, Zip64ExtendedInfo{}.Encode())

	parsed, err := ParseZip64ExtendedInfo(nil, false, false, false)
	require.NoError(t, err)
	assert.False(t, parsed.Present())
}

func TestParseZip64ExtendedInfoMissingField(t *testing.T) {
	t.Parallel()

	_, err := ParseZip64ExtendedInfo(nil, true, false, false)
	require.Error(t, err)
}

func TestParseZip64ExtendedInfoTruncated(t *testing.T) {
	t.Parallel()

	z := Zip64ExtendedInfo{UncompressedSize: 1, HasUncompressedSize: true}
	_, err := ParseZip64ExtendedInfo(z.Encode(), true, true, false)
	require.Error(t, err)
}

func TestCentralDirectoryWithLocalHeaderOffset(t *testing.T) {
	t.Parallel()

	t.Run("small offset stays in fixed field", func(t *testing.T) {
		t.Parallel()
		d := CentralDirectoryRecord{Filename: "x", LocalHeaderOffset: 100}
		out, err := d.WithLocalHeaderOffset(42)
		require.NoError(t, err)
		assert.Equal(t, uint32(42), out.LocalHeaderOffset)
		assert.Empty(t, out.ExtraField)
	})

	t.Run("large offset moves to zip64", func(t *testing.T) {
		t.Parallel()
		d := CentralDirectoryRecord{Filename: "x", LocalHeaderOffset: 100}
		out, err := d.WithLocalHeaderOffset(0x1_0000_0000)
		require.NoError(t, err)
		assert.Equal(t, uint32(Max32), out.LocalHeaderOffset)

		z, err := out.Zip64()
		require.NoError(t, err)
		assert.Equal(t, uint64(0x1_0000_0000), z.LocalHeaderOffset)
		assert.GreaterOrEqual(t, out.VersionNeededToExtract, VersionNeededZip64)
	})

	t.Run("size overrides survive repatching", func(t *testing.T) {
		t.Parallel()
		d := CentralDirectoryRecord{
			Filename:         "x",
			CompressedSize:   Max32,
			UncompressedSize: Max32,
			ExtraField: Zip64ExtendedInfo{
				UncompressedSize:    0x2_0000_0000,
				CompressedSize:      0x1_8000_0000,
				HasUncompressedSize: true,
				HasCompressedSize:   true,
			}.Encode(),
			LocalHeaderOffset: 500,
		}
		out, err := d.WithLocalHeaderOffset(400)
		require.NoError(t, err)
		assert.Equal(t, uint32(400), out.LocalHeaderOffset)

		z, err := out.Zip64()
		require.NoError(t, err)
		assert.Equal(t, uint64(0x2_0000_0000), z.UncompressedSize)
		assert.Equal(t, uint64(0x1_8000_0000), z.CompressedSize)
		assert.False(t, z.HasLocalHeaderOffset)
	})
}

func TestBuildTrailerLegacy(t *testing.T) {
	t.Parallel()

	tr := BuildTrailer(3, 138, 4096, false, "")
	assert.False(t, tr.IsZip64())
	assert.Equal(t, uint64(3), tr.EntryCount())
	assert.Equal(t, uint64(138), tr.CentralDirectorySize())
	assert.Equal(t, uint64(4096), tr.CentralDirectoryOffset())
	assert.Len(t, tr.Encode(), EndOfCentralDirLength)
}

func TestBuildTrailerZip64Thresholds(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name                    string
		count, cdSize, cdOffset uint64
		force                   bool
		zip64                   bool
	}{
		{"all small", 10, 100, 1000, false, false},
		{"entry count at 16-bit limit", Max16, 100, 1000, false, true},
		{"directory size at 32-bit limit", 10, Max32, 1000, false, true},
		{"directory offset at 32-bit limit", 10, 100, Max32, false, true},
		{"offset beyond 32 bits", 10, 100, 0x1_0000_0000, false, true},
		{"sticky", 10, 100, 1000, true, true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			tr := BuildTrailer(tt.count, tt.cdSize, tt.cdOffset, tt.force, "")
			assert.Equal(t, tt.zip64, tr.IsZip64())
			assert.Equal(t, tt.count, tr.EntryCount())
			assert.Equal(t, tt.cdSize, tr.CentralDirectorySize())
			assert.Equal(t, tt.cdOffset, tr.CentralDirectoryOffset())
		})
	}
}

func TestBuildTrailerZip64Layout(t *testing.T) {
	t.Parallel()

	tr := BuildTrailer(70000, 200, 300, false, "")
	require.True(t, tr.IsZip64())

	// Sentinels in the legacy record, true values in the ZIP64 record.
	assert.Equal(t, uint16(Max16), tr.EOCD.TotalEntries)
	assert.Equal(t, uint32(Max32), tr.EOCD.CentralDirSize)
	assert.Equal(t, uint32(Max32), tr.EOCD.CentralDirOffset)
	assert.Equal(t, uint64(70000), tr.Zip64.TotalEntries)

	// Locator points at the ZIP64 record, written immediately before the
	// EOCD record.
	assert.Equal(t, uint64(500), tr.Locator.RecordOffset)
	assert.Equal(t, uint32(1), tr.Locator.TotalDisks)

	encoded := tr.Encode()
	require.Len(t, encoded, Zip64EndOfCentralDirLen+Zip64EOCDLocatorLength+EndOfCentralDirLength)
	assert.Equal(t, Zip64EndOfCentralDirSignature, binary.LittleEndian.Uint32(encoded[0:4]))
	assert.Equal(t, Zip64EOCDLocatorSignature,
		binary.LittleEndian.Uint32(encoded[Zip64EndOfCentralDirLen:Zip64EndOfCentralDirLen+4]))
	assert.Equal(t, EndOfCentralDirSignature,
		binary.LittleEndian.Uint32(encoded[Zip64EndOfCentralDirLen+Zip64EOCDLocatorLength:]))
}

func TestFindTrailerLegacy(t *testing.T) {
	t.Parallel()

	body := bytes.Repeat([]byte{0xAA}, 128)
	tr := BuildTrailer(2, 92, 36, false, "archive comment")
	data := append(body, tr.Encode()...)

	found, err := FindTrailer(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	assert.False(t, found.IsZip64())
	assert.Equal(t, uint64(2), found.EntryCount())
	assert.Equal(t, "archive comment", found.EOCD.Comment)
	assert.Equal(t, tr.Encode(), found.Encode())
}

func TestFindTrailerZip64(t *testing.T) {
	t.Parallel()

	cdOffset := uint64(64)
	body := bytes.Repeat([]byte{0xBB}, int(cdOffset))
	tr := BuildTrailer(1, 0, cdOffset, true, "")
	data := append(body, tr.Encode()...)

	found, err := FindTrailer(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	require.True(t, found.IsZip64())
	assert.Equal(t, uint64(1), found.EntryCount())
	assert.Equal(t, cdOffset, found.CentralDirectoryOffset())
	assert.Equal(t, tr.Encode(), found.Encode())
}

func TestFindTrailerMissing(t *testing.T) {
	t.Parallel()

	data := bytes.Repeat([]byte{0x00}, 64)
	_, err := FindTrailer(bytes.NewReader(data), int64(len(data)))
	require.ErrorIs(t, err, ErrNoEndOfCentralDirectory)

	_, err = FindTrailer(bytes.NewReader(nil), 0)
	require.ErrorIs(t, err, ErrNoEndOfCentralDirectory)
}

func TestFindTrailerIgnoresSignatureInComment(t *testing.T) {
	t.Parallel()

	// A comment containing the EOCD signature bytes must not be mistaken
	// for the record itself.
	comment := string([]byte{0x50, 0x4b, 0x05, 0x06, 0, 0, 0, 0})
	tr := BuildTrailer(0, 0, 0, false, comment)
	data := tr.Encode()

	found, err := FindTrailer(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	assert.Equal(t, comment, found.EOCD.Comment)
	assert.Equal(t, uint64(0), found.EntryCount())
}
