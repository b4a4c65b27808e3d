// Package las reads ASPRS LAS point cloud files (versions 1.0 through 1.4).
//
// Only the fields this tool consumes are surfaced: scaled planar/elevation
// coordinates, intensity, and classification. Decoding is strict: a malformed
// header or point record is an error, never a skipped point.
package las

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/banshee-data/lasrast/internal/geom"
)

// LAS header layout constants. Offsets are from the start of the file; all
// multi-byte fields are little-endian per the LAS specification.
const (
	headerSizeMin   = 227 // LAS 1.0-1.2
	headerSize14    = 375 // LAS 1.4
	signatureOffset = 0
	versionOffset   = 24
	headerSizeField = 94
	pointDataOffset = 96
	formatOffset    = 104
	recordLenOffset = 105
	legacyCountOff  = 107
	scaleOffset     = 131
	originOffset    = 155
	boundsOffset    = 179
	count14Offset   = 247

	// Bit 7 of the point data record format marks LAZ compression
	// (set by laszip-style writers).
	compressionBit = 0x80

	maxPointFormat = 10
)

// Header is the decoded LAS public header block.
type Header struct {
	VersionMajor uint8
	VersionMinor uint8

	PointFormat  uint8
	RecordLength uint16
	OffsetToData uint32

	// NumPoints is the declared record count: the 64-bit field for LAS 1.4,
	// the legacy 32-bit field otherwise.
	NumPoints uint64

	ScaleX, ScaleY, ScaleZ    float64
	OffsetX, OffsetY, OffsetZ float64

	MinX, MinY, MinZ float64
	MaxX, MaxY, MaxZ float64
}

// Bounds returns the extent declared in the header. Declared, not verified:
// writers occasionally emit bounds that disagree with the point data.
func (h *Header) Bounds() geom.Bounds {
	return geom.Bounds{
		Min: geom.Vector{X: h.MinX, Y: h.MinY, Z: h.MinZ},
		Max: geom.Vector{X: h.MaxX, Y: h.MaxY, Z: h.MaxZ},
	}
}

// classificationOffset returns the offset of the classification byte within
// a point record of the header's format.
func (h *Header) classificationOffset() int {
	if h.PointFormat >= 6 {
		return 16
	}
	return 15
}

// minRecordLength is the smallest valid record length per point format.
var minRecordLength = [maxPointFormat + 1]uint16{
	0: 20, 1: 28, 2: 26, 3: 34, 4: 57, 5: 63,
	6: 30, 7: 36, 8: 38, 9: 59, 10: 67,
}

// parseHeader decodes the public header block from buf, which must contain at
// least the declared header size.
func parseHeader(buf []byte) (*Header, error) {
	if len(buf) < headerSizeMin {
		return nil, fmt.Errorf("las: file too short for header (%d bytes)", len(buf))
	}
	if string(buf[signatureOffset:signatureOffset+4]) != "LASF" {
		return nil, fmt.Errorf("las: bad file signature %q", buf[signatureOffset:signatureOffset+4])
	}

	h := &Header{
		VersionMajor: buf[versionOffset],
		VersionMinor: buf[versionOffset+1],
	}
	if h.VersionMajor != 1 || h.VersionMinor > 4 {
		return nil, fmt.Errorf("las: unsupported version %d.%d", h.VersionMajor, h.VersionMinor)
	}

	declaredSize := binary.LittleEndian.Uint16(buf[headerSizeField:])
	if int(declaredSize) < headerSizeMin {
		return nil, fmt.Errorf("las: declared header size %d below minimum %d", declaredSize, headerSizeMin)
	}
	if h.VersionMinor >= 4 && int(declaredSize) < headerSize14 {
		return nil, fmt.Errorf("las: LAS 1.4 header size %d below %d", declaredSize, headerSize14)
	}
	if len(buf) < int(declaredSize) {
		return nil, fmt.Errorf("las: file truncated inside header (%d of %d bytes)", len(buf), declaredSize)
	}

	format := buf[formatOffset]
	if format&compressionBit != 0 {
		return nil, fmt.Errorf("las: compressed (LAZ) input is not supported, point format byte 0x%02x", format)
	}
	if format > maxPointFormat {
		return nil, fmt.Errorf("las: unknown point data record format %d", format)
	}
	h.PointFormat = format

	h.RecordLength = binary.LittleEndian.Uint16(buf[recordLenOffset:])
	if h.RecordLength < minRecordLength[format] {
		return nil, fmt.Errorf("las: record length %d too small for point format %d (need %d)",
			h.RecordLength, format, minRecordLength[format])
	}

	h.OffsetToData = binary.LittleEndian.Uint32(buf[pointDataOffset:])
	if int(h.OffsetToData) < int(declaredSize) {
		return nil, fmt.Errorf("las: point data offset %d inside header of size %d", h.OffsetToData, declaredSize)
	}

	h.NumPoints = uint64(binary.LittleEndian.Uint32(buf[legacyCountOff:]))
	if h.VersionMinor >= 4 {
		if n := binary.LittleEndian.Uint64(buf[count14Offset:]); n != 0 {
			h.NumPoints = n
		}
	}

	h.ScaleX = f64(buf[scaleOffset:])
	h.ScaleY = f64(buf[scaleOffset+8:])
	h.ScaleZ = f64(buf[scaleOffset+16:])
	if h.ScaleX == 0 || h.ScaleY == 0 || h.ScaleZ == 0 {
		return nil, fmt.Errorf("las: zero coordinate scale factor (%v, %v, %v)", h.ScaleX, h.ScaleY, h.ScaleZ)
	}

	h.OffsetX = f64(buf[originOffset:])
	h.OffsetY = f64(buf[originOffset+8:])
	h.OffsetZ = f64(buf[originOffset+16:])

	// Bounds are stored max-before-min per axis.
	h.MaxX = f64(buf[boundsOffset:])
	h.MinX = f64(buf[boundsOffset+8:])
	h.MaxY = f64(buf[boundsOffset+16:])
	h.MinY = f64(buf[boundsOffset+24:])
	h.MaxZ = f64(buf[boundsOffset+32:])
	h.MinZ = f64(buf[boundsOffset+40:])

	return h, nil
}

func f64(b []byte) float64 {
	return math.Float64frombits(binary.LittleEndian.Uint64(b))
}
