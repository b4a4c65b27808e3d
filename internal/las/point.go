package las

import "encoding/binary"

// ASPRS standard classification codes. Formats 0-5 store the code in the low
// five bits of the classification byte; formats 6-10 use the full byte.
const (
	ClassNever          uint8 = 0
	ClassUnclassified   uint8 = 1
	ClassGround         uint8 = 2
	ClassLowVegetation  uint8 = 3
	ClassMedVegetation  uint8 = 4
	ClassHighVegetation uint8 = 5
	ClassBuilding       uint8 = 6
	ClassLowNoise       uint8 = 7
	ClassWater          uint8 = 9
	ClassHighNoise      uint8 = 18
)

// Point is one decoded point record in cloud coordinates (scale and offset
// already applied).
type Point struct {
	X, Y, Z        float64
	Intensity      uint16
	Classification uint8
}

// IsHighNoise reports whether the point carries the ASPRS high-noise code.
// High noise is only representable in extended (format >= 6) records, but the
// five-bit overlay range of legacy formats includes 18 as well, so a plain
// comparison covers both.
func (p Point) IsHighNoise() bool {
	return p.Classification == ClassHighNoise
}

// decodePoint decodes one point record. rec must be exactly h.RecordLength
// bytes.
func (h *Header) decodePoint(rec []byte) Point {
	xi := int32(binary.LittleEndian.Uint32(rec[0:]))
	yi := int32(binary.LittleEndian.Uint32(rec[4:]))
	zi := int32(binary.LittleEndian.Uint32(rec[8:]))

	cls := rec[h.classificationOffset()]
	if h.PointFormat < 6 {
		cls &= 0x1f // strip synthetic/key-point/withheld flag bits
	}

	return Point{
		X:              float64(xi)*h.ScaleX + h.OffsetX,
		Y:              float64(yi)*h.ScaleY + h.OffsetY,
		Z:              float64(zi)*h.ScaleZ + h.OffsetZ,
		Intensity:      binary.LittleEndian.Uint16(rec[12:]),
		Classification: cls,
	}
}
