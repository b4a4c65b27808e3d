package raster

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"math"
	"os"
)

func init() {
	Register(tiffDriver{})
}

// TIFF tag IDs used by the writer.
const (
	tagImageWidth      = 256
	tagImageLength     = 257
	tagBitsPerSample   = 258
	tagCompression     = 259
	tagPhotometric     = 262
	tagStripOffsets    = 273
	tagSamplesPerPixel = 277
	tagRowsPerStrip    = 278
	tagStripByteCounts = 279
	tagSampleFormat    = 339
	tagModelPixelScale = 33550
	tagModelTiepoint   = 33922
	tagGDALNoData      = 42113
)

// TIFF field types.
const (
	typeASCII  = 2
	typeShort  = 3
	typeLong   = 4
	typeDouble = 12
)

// tiffDriver writes a minimal single-band float64 GeoTIFF: one strip,
// uncompressed, little-endian, georeferenced with a pixel-scale/tiepoint pair
// anchored at the grid origin and a GDAL_NODATA tag.
type tiffDriver struct{}

func (tiffDriver) Name() string         { return "GTiff" }
func (tiffDriver) Extensions() []string { return []string{"tif", "tiff"} }

type ifdEntry struct {
	tag, typ uint16
	count    uint32
	value    uint32
}

func (tiffDriver) Write(path string, g *Grid, transform [6]float64) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("tif: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriterSize(f, 1<<20)
	le := binary.LittleEndian

	stripBytes := uint32(len(g.Data) * 8)
	const headerSize = 8
	stripOffset := uint32(headerSize)

	// External data blocks follow the strip; the IFD comes last.
	scaleOffset := stripOffset + stripBytes
	tieOffset := scaleOffset + 3*8
	nodata := fmt.Sprintf("%g", g.NoData) + "\x00"
	if len(nodata)%2 != 0 {
		nodata += "\x00"
	}
	nodataOffset := tieOffset + 6*8
	ifdOffset := nodataOffset + uint32(len(nodata))

	entries := []ifdEntry{
		{tagImageWidth, typeLong, 1, uint32(g.Width)},
		{tagImageLength, typeLong, 1, uint32(g.Height)},
		{tagBitsPerSample, typeShort, 1, 64},
		{tagCompression, typeShort, 1, 1},
		{tagPhotometric, typeShort, 1, 1},
		{tagStripOffsets, typeLong, 1, stripOffset},
		{tagSamplesPerPixel, typeShort, 1, 1},
		{tagRowsPerStrip, typeLong, 1, uint32(g.Height)},
		{tagStripByteCounts, typeLong, 1, stripBytes},
		{tagSampleFormat, typeShort, 1, 3}, // IEEE floating point
		{tagModelPixelScale, typeDouble, 3, scaleOffset},
		{tagModelTiepoint, typeDouble, 6, tieOffset},
		{tagGDALNoData, typeASCII, uint32(len(nodata)), nodataOffset},
	}

	// Header. buf is sized for the largest block written through it, the
	// 12-byte IFD entries.
	w.WriteString("II")
	buf := make([]byte, 12)
	le.PutUint16(buf[0:], 42)
	le.PutUint32(buf[2:], ifdOffset)
	w.Write(buf[:6])

	// Strip data, rows in grid order.
	for _, v := range g.Data {
		le.PutUint64(buf, math.Float64bits(v))
		w.Write(buf[:8])
	}

	// Pixel scale: cell size per axis; geo Y follows the transform's positive
	// pixel height, anchored at the minimum corner tiepoint below.
	for _, v := range [3]float64{transform[1], transform[5], 0} {
		le.PutUint64(buf, math.Float64bits(v))
		w.Write(buf[:8])
	}

	// Tiepoint: raster (0,0,0) -> model (origin x, origin y, 0).
	for _, v := range [6]float64{0, 0, 0, transform[0], transform[3], 0} {
		le.PutUint64(buf, math.Float64bits(v))
		w.Write(buf[:8])
	}

	w.WriteString(nodata)

	// IFD: entry count, entries sorted by tag, next-IFD terminator.
	le.PutUint16(buf, uint16(len(entries)))
	w.Write(buf[:2])
	for _, e := range entries {
		le.PutUint16(buf[0:], e.tag)
		le.PutUint16(buf[2:], e.typ)
		le.PutUint32(buf[4:], e.count)
		if e.typ == typeShort && e.count == 1 {
			le.PutUint16(buf[8:], uint16(e.value))
			le.PutUint16(buf[10:], 0)
		} else {
			le.PutUint32(buf[8:], e.value)
		}
		w.Write(buf[:12])
	}
	le.PutUint32(buf, 0)
	w.Write(buf[:4])

	if err := w.Flush(); err != nil {
		return fmt.Errorf("tif: %w", err)
	}
	return nil
}
