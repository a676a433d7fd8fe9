package format

import (
	"encoding/binary"
	"fmt"
)

// Zip64ExtendedInfo carries 64-bit overrides for central directory fields
// that overflowed their legacy width. Presence of each value is governed by
// the corresponding legacy field holding its sentinel; the wire layout holds
// only the present values, in the fixed relative order uncompressed size,
// compressed size, local header offset.
type Zip64ExtendedInfo struct {
	UncompressedSize  uint64
	CompressedSize    uint64
	LocalHeaderOffset uint64

	HasUncompressedSize  bool
	HasCompressedSize    bool
	HasLocalHeaderOffset bool
}

// Present reports whether any field carries an override.
func (z Zip64ExtendedInfo) Present() bool {
	return z.HasUncompressedSize || z.HasCompressedSize || z.HasLocalHeaderOffset
}

// Encode serializes the extra field block including its tag and size header.
// Returns nil when no field is present.
func (z Zip64ExtendedInfo) Encode() []byte {
	var payload int
	if z.HasUncompressedSize {
		payload += 8
	}
	if z.HasCompressedSize {
		payload += 8
	}
	if z.HasLocalHeaderOffset {
		payload += 8
	}
	if payload == 0 {
		return nil
	}

	buf := make([]byte, 4+payload)
	binary.LittleEndian.PutUint16(buf[0:2], Zip64ExtraFieldTag)
	binary.LittleEndian.PutUint16(buf[2:4], uint16(payload))

	off := 4
	if z.HasUncompressedSize {
		binary.LittleEndian.PutUint64(buf[off:], z.UncompressedSize)
		off += 8
	}
	if z.HasCompressedSize {
		binary.LittleEndian.PutUint64(buf[off:], z.CompressedSize)
		off += 8
	}
	if z.HasLocalHeaderOffset {
		binary.LittleEndian.PutUint64(buf[off:], z.LocalHeaderOffset)
	}

	return buf
}

// EncodeZip64LocalSizes builds the fixed 20-byte ZIP64 extra field used in
// local file headers, which always carries both sizes.
func EncodeZip64LocalSizes(uncompressedSize, compressedSize uint64) []byte {
	return Zip64ExtendedInfo{
		UncompressedSize:    uncompressedSize,
		CompressedSize:      compressedSize,
		HasUncompressedSize: true,
		HasCompressedSize:   true,
	}.Encode()
}

// ParseZip64ExtendedInfo locates the ZIP64 extra field in extra and decodes
// the overrides the record's legacy fields request. The need flags must
// reflect which legacy fields hold their sentinel, since the wire block
// contains only those values.
func ParseZip64ExtendedInfo(extra []byte, needUncompressed, needCompressed, needOffset bool) (Zip64ExtendedInfo, error) {
	var info Zip64ExtendedInfo
	if !needUncompressed && !needCompressed && !needOffset {
		return info, nil
	}

	payload, ok := findExtraField(extra, Zip64ExtraFieldTag)
	if !ok {
		return info, fmt.Errorf("missing zip64 extended information extra field")
	}

	off := 0
	read := func() (uint64, error) {
		if off+8 > len(payload) {
			return 0, fmt.Errorf("truncated zip64 extended information (%d bytes)", len(payload))
		}
		v := binary.LittleEndian.Uint64(payload[off:])
		off += 8
		return v, nil
	}

	var err error
	if needUncompressed {
		if info.UncompressedSize, err = read(); err != nil {
			return Zip64ExtendedInfo{}, err
		}
		info.HasUncompressedSize = true
	}
	if needCompressed {
		if info.CompressedSize, err = read(); err != nil {
			return Zip64ExtendedInfo{}, err
		}
		info.HasCompressedSize = true
	}
	if needOffset {
		if info.LocalHeaderOffset, err = read(); err != nil {
			return Zip64ExtendedInfo{}, err
		}
		info.HasLocalHeaderOffset = true
	}

	return info, nil
}

// findExtraField walks the tag/size framed extra field area and returns the
// payload of the first block with the given tag.
func findExtraField(extra []byte, tag uint16) ([]byte, bool) {
	for off := 0; off+4 <= len(extra); {
		t := binary.LittleEndian.Uint16(extra[off : off+2])
		size := int(binary.LittleEndian.Uint16(extra[off+2 : off+4]))
		off += 4
		if off+size > len(extra) {
			return nil, false
		}
		if t == tag {
			return extra[off : off+size], true
		}
		off += size
	}
	return nil, false
}

// stripExtraField returns extra without the block carrying the given tag.
func stripExtraField(extra []byte, tag uint16) []byte {
	var out []byte
	for off := 0; off+4 <= len(extra); {
		t := binary.LittleEndian.Uint16(extra[off : off+2])
		size := int(binary.LittleEndian.Uint16(extra[off+2 : off+4]))
		if off+4+size > len(extra) {
			break
		}
		if t != tag {
			out = append(out, extra[off:off+4+size]...)
		}
		off += 4 + size
	}
	return out
}
